package pomdp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var (
	ErrSyntax  = errors.New("pomdp: syntax error")
	ErrInvalid = errors.New("pomdp: invalid model")
)

// TransitionKey identifies one T entry by action, state and next state index.
type TransitionKey struct {
	Action int
	State  int
	Next   int
}

// Model is a parsed problem file.
type Model struct {
	Discount     float64
	Values       string
	States       []string
	Actions      []string
	Observations []string
	Start        []float64
	// Default is the probability of the "T: * : * : *" line, if present.
	Default     float64
	Transitions map[TransitionKey]float64

	stateIdx  map[string]int
	actionIdx map[string]int
}

// Parse reads a problem file. Sections may appear in any order, but states
// and actions must be declared before any T line refers to them.
func Parse(r io.Reader) (*Model, error) {
	m := &Model{Transitions: make(map[TransitionKey]float64)}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<30)

	lineNo := 0
	awaitingStart := false
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if awaitingStart {
			awaitingStart = false
			if p, err := parseFloats(strings.Fields(line)); err == nil {
				m.Start = p
				continue
			} else if !isKeyword(line) {
				return nil, fmt.Errorf("%w: line %d: start: %v", ErrSyntax, lineNo, err)
			}
		}

		key, rest, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("%w: line %d: missing ':'", ErrSyntax, lineNo)
		}
		rest = strings.TrimSpace(rest)

		var err error
		switch key + ":" {
		case keyDiscount:
			m.Discount, err = strconv.ParseFloat(rest, 64)
		case keyValues:
			m.Values = rest
		case keyStates:
			m.States = strings.Fields(rest)
			m.stateIdx = indexOf(m.States)
		case keyActions:
			m.Actions = strings.Fields(rest)
			m.actionIdx = indexOf(m.Actions)
		case keyObservations:
			m.Observations = strings.Fields(rest)
		case keyStart:
			if rest == "" {
				awaitingStart = true
			} else {
				m.Start, err = parseFloats(strings.Fields(rest))
			}
		case keyTransition:
			err = m.parseTransition(rest)
		default:
			err = fmt.Errorf("unknown section %q", key)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrSyntax, lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return m, nil
}

func (m *Model) parseTransition(rest string) error {
	parts := strings.Split(rest, ":")
	if len(parts) != 4 {
		return fmt.Errorf("transition needs 4 fields, got %d", len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	p, err := strconv.ParseFloat(parts[3], 64)
	if err != nil {
		return fmt.Errorf("probability: %w", err)
	}
	if parts[0] == wildcard && parts[1] == wildcard && parts[2] == wildcard {
		m.Default = p
		return nil
	}

	a, ok := m.actionIdx[parts[0]]
	if !ok {
		return fmt.Errorf("unknown action %q", parts[0])
	}
	s, ok := m.stateIdx[parts[1]]
	if !ok {
		return fmt.Errorf("unknown state %q", parts[1])
	}
	n, ok := m.stateIdx[parts[2]]
	if !ok {
		return fmt.Errorf("unknown state %q", parts[2])
	}
	m.Transitions[TransitionKey{Action: a, State: s, Next: n}] += p
	return nil
}

// Validate checks the start belief and every transition row against tol:
// each must sum to 1, and every (action, state) pair must have a row.
func (m *Model) Validate(tol float64) error {
	if len(m.States) == 0 || len(m.Actions) == 0 || len(m.Observations) == 0 {
		return fmt.Errorf("%w: states=%d actions=%d observations=%d",
			ErrInvalid, len(m.States), len(m.Actions), len(m.Observations))
	}
	if m.Discount < 0 || m.Discount > 1 {
		return fmt.Errorf("%w: discount %v", ErrInvalid, m.Discount)
	}
	if len(m.Start) != len(m.States) {
		return fmt.Errorf("%w: start has %d entries for %d states", ErrInvalid, len(m.Start), len(m.States))
	}
	if sum := sumOf(m.Start); math.Abs(sum-1) > tol {
		return fmt.Errorf("%w: start sums to %v", ErrInvalid, sum)
	}

	rows := make([]float64, len(m.Actions)*len(m.States))
	for k, p := range m.Transitions {
		if p < 0 || p > 1+tol {
			return fmt.Errorf("%w: T %s : %s : %s = %v", ErrInvalid,
				m.Actions[k.Action], m.States[k.State], m.States[k.Next], p)
		}
		rows[k.Action*len(m.States)+k.State] += p
	}
	for i, sum := range rows {
		if math.Abs(sum-1) > tol {
			a, s := i/len(m.States), i%len(m.States)
			return fmt.Errorf("%w: T %s : %s sums to %v", ErrInvalid, m.Actions[a], m.States[s], sum)
		}
	}
	return nil
}

func indexOf(names []string) map[string]int {
	idx := make(map[string]int, len(names))
	for i, n := range names {
		idx[n] = i
	}
	return idx
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func isKeyword(line string) bool {
	key, _, ok := strings.Cut(line, ":")
	if !ok {
		return false
	}
	switch key + ":" {
	case keyDiscount, keyValues, keyStates, keyActions, keyObservations, keyStart, keyTransition:
		return true
	}
	return false
}

func sumOf(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}
