package pomdp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/talgya/catchgen/internal/agents"
	"github.com/talgya/catchgen/internal/engine"
	"github.com/talgya/catchgen/internal/radix"
)

// ErrHeader is returned by NewEmitter for unusable header parameters.
var ErrHeader = errors.New("pomdp: invalid header")

// Header holds the fixed parameters of a problem file.
type Header struct {
	Discount float64
	// Cells is the per-agent state count. Every roster member must share it.
	Cells int
	// Observers is how many roster members (the leading ones) observe.
	Observers int
	// ObservationLabels is the per-observer observation vocabulary.
	ObservationLabels []string
}

// Stats summarizes an emitted file.
type Stats struct {
	States       int
	Actions      int
	Observations int
	Transitions  int
	Bytes        int64
}

// Emitter writes the complete problem description for a roster.
type Emitter struct {
	header   Header
	roster   agents.Roster
	composer *engine.Composer

	stateArities  []int
	actionArities []int
	jointStates   int
	jointActions  int
	jointObs      int
}

// NewEmitter checks the header against the roster and returns an emitter.
func NewEmitter(h Header, roster agents.Roster, composer *engine.Composer) (*Emitter, error) {
	if len(roster) == 0 {
		return nil, engine.ErrEmptyRoster
	}
	if h.Cells <= 0 {
		return nil, fmt.Errorf("%w: cells=%d", ErrHeader, h.Cells)
	}
	if h.Observers <= 0 || h.Observers > len(roster) {
		return nil, fmt.Errorf("%w: observers=%d for roster of %d", ErrHeader, h.Observers, len(roster))
	}
	if len(h.ObservationLabels) == 0 {
		return nil, fmt.Errorf("%w: no observation labels", ErrHeader)
	}
	if h.Discount < 0 || h.Discount > 1 {
		return nil, fmt.Errorf("%w: discount=%v", ErrHeader, h.Discount)
	}

	e := &Emitter{
		header:        h,
		roster:        roster,
		composer:      composer,
		stateArities:  roster.StateArities(),
		actionArities: roster.ActionArities(),
	}
	for i, n := range e.stateArities {
		if n != h.Cells {
			return nil, fmt.Errorf("%w: agent %d has %d states, header says %d", ErrHeader, i, n, h.Cells)
		}
	}

	var err error
	if e.jointStates, err = radix.Product(e.stateArities); err != nil {
		return nil, fmt.Errorf("joint states: %w", err)
	}
	if e.jointActions, err = radix.Product(e.actionArities); err != nil {
		return nil, fmt.Errorf("joint actions: %w", err)
	}
	if e.jointObs, err = radix.Product(radix.Uniform(len(h.ObservationLabels), h.Observers)); err != nil {
		return nil, fmt.Errorf("joint observations: %w", err)
	}
	return e, nil
}

// Cardinalities returns the joint state, action and observation counts.
func (e *Emitter) Cardinalities() (states, actions, observations int) {
	return e.jointStates, e.jointActions, e.jointObs
}

// Write emits the whole file to w. Output is all-or-nothing from the
// caller's point of view: the first error aborts and is returned.
func (e *Emitter) Write(w io.Writer) (Stats, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriterSize(cw, 64*1024)
	stats := Stats{
		States:       e.jointStates,
		Actions:      e.jointActions,
		Observations: e.jointObs,
	}

	stateTokens, err := e.stateTokens()
	if err != nil {
		return stats, err
	}
	actionTokens, actionVecs, err := e.actionTokens()
	if err != nil {
		return stats, err
	}
	obsTokens, err := e.observationTokens()
	if err != nil {
		return stats, err
	}

	fmt.Fprintf(bw, "%s %s\n", keyDiscount, FormatFloat(e.header.Discount))
	fmt.Fprintf(bw, "%s %s\n", keyValues, valuesReward)
	writeList(bw, keyStates, stateTokens)
	writeList(bw, keyActions, actionTokens)
	writeList(bw, keyObservations, obsTokens)

	fmt.Fprintf(bw, "%s \n", keyStart)
	for i, p := range StartBelief(e.header.Cells, e.jointStates) {
		if i < e.header.Cells {
			bw.WriteString(FormatFloat(p))
		} else {
			bw.WriteString("0")
		}
		bw.WriteByte(' ')
	}
	bw.WriteByte('\n')

	fmt.Fprintf(bw, "%s %s : %s : %s : %s\n", keyTransition, wildcard, wildcard, wildcard, FormatFloat(0))

	jsv := make([]int, len(e.roster))
	for ja := 0; ja < e.jointActions; ja++ {
		jav := actionVecs[ja]
		for js := 0; js < e.jointStates; js++ {
			if err := radix.DecodeInto(jsv, js, e.stateArities); err != nil {
				return stats, err
			}
			next, err := e.composer.Compose(jsv, jav)
			if err != nil {
				return stats, fmt.Errorf("compose %s at %s: %w", actionTokens[ja], stateTokens[js], err)
			}
			for _, o := range next {
				fmt.Fprintf(bw, "%s %s : %s : %s : %s\n", keyTransition,
					actionTokens[ja], stateTokens[js], stateTokens[o.State], FormatFloat(o.Prob))
				stats.Transitions++
			}
		}
		slog.Debug("joint action emitted", "action", actionTokens[ja], "transitions", stats.Transitions)
	}

	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("flush: %w", err)
	}
	stats.Bytes = cw.n
	return stats, cw.err
}

// stateTokens names every joint state by decoding it under a uniform
// per-agent radix.
func (e *Emitter) stateTokens() ([]string, error) {
	arities := radix.Uniform(e.header.Cells, len(e.roster))
	tokens := make([]string, e.jointStates)
	digits := make([]int, len(arities))
	for i := range tokens {
		if err := radix.DecodeInto(digits, i, arities); err != nil {
			return nil, err
		}
		tokens[i] = VectorToken(digits, nil)
	}
	return tokens, nil
}

func (e *Emitter) actionTokens() ([]string, [][]int, error) {
	tokens := make([]string, e.jointActions)
	vecs := make([][]int, e.jointActions)
	labels := make([]string, len(e.roster))
	for i := range tokens {
		jav, err := radix.Decode(i, e.actionArities)
		if err != nil {
			return nil, nil, err
		}
		for k, a := range jav {
			labels[k] = e.roster[k].ActionLabel(a)
		}
		vecs[i] = jav
		tokens[i] = labelToken(labels)
	}
	return tokens, vecs, nil
}

func (e *Emitter) observationTokens() ([]string, error) {
	labels := e.header.ObservationLabels
	arities := radix.Uniform(len(labels), e.header.Observers)
	tokens := make([]string, e.jointObs)
	digits := make([]int, len(arities))
	for i := range tokens {
		if err := radix.DecodeInto(digits, i, arities); err != nil {
			return nil, err
		}
		tokens[i] = VectorToken(digits, labels)
	}
	return tokens, nil
}

func labelToken(labels []string) string {
	var b strings.Builder
	for _, l := range labels {
		b.WriteByte('_')
		b.WriteString(l)
	}
	return b.String()
}

func writeList(bw *bufio.Writer, key string, tokens []string) {
	bw.WriteString(key)
	bw.WriteByte(' ')
	for _, t := range tokens {
		bw.WriteString(t)
		bw.WriteByte(' ')
	}
	bw.WriteByte('\n')
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	if err != nil && c.err == nil {
		c.err = err
	}
	return n, err
}
