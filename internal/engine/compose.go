package engine

import (
	"fmt"

	"github.com/talgya/catchgen/internal/agents"
	"github.com/talgya/catchgen/internal/radix"
)

// Composer turns per-agent transitions into joint transitions, assuming
// every agent moves independently of the others.
type Composer struct {
	table        *Table
	stateArities []int
}

// NewComposer binds a composer to a roster and its precomputed table.
func NewComposer(roster agents.Roster, table *Table) (*Composer, error) {
	if len(roster) == 0 {
		return nil, ErrEmptyRoster
	}
	if table.Agents() != len(roster) {
		return nil, fmt.Errorf("%w: table covers %d agents, roster has %d",
			ErrJointLength, table.Agents(), len(roster))
	}
	arities := roster.StateArities()
	if _, err := radix.Product(arities); err != nil {
		return nil, fmt.Errorf("joint state space: %w", err)
	}
	return &Composer{table: table, stateArities: arities}, nil
}

// StateArities returns the per-agent state counts used to encode joint states.
func (c *Composer) StateArities() []int {
	return append([]int(nil), c.stateArities...)
}

// Compose returns the distribution over joint next-state indices when the
// joint action jav is taken in the joint state jsv.
//
// Each combination of per-agent outcomes is visited once: combination c is
// decoded under the per-agent outcome counts, the chosen next states are
// encoded under the full state arities and the chosen probabilities are
// multiplied. Joint next states reached by several combinations accumulate.
// Cost is the product of the per-agent outcome counts.
func (c *Composer) Compose(jsv, jav []int) (agents.Distribution, error) {
	parts, dims, n, err := c.outcomes(jsv, jav)
	if err != nil {
		return nil, err
	}

	acc := newAccumulator(n)
	pick := make([]int, len(parts))
	next := make([]int, len(parts))
	for comb := 0; comb < n; comb++ {
		if err := radix.DecodeInto(pick, comb, dims); err != nil {
			return nil, err
		}
		p := 1.0
		for i, d := range parts {
			o := d[pick[i]]
			next[i] = o.State
			p *= o.Prob
		}
		joint, err := radix.Encode(next, c.stateArities)
		if err != nil {
			return nil, fmt.Errorf("encode next state %v: %w", next, err)
		}
		acc.add(joint, p)
	}
	return acc.out, nil
}

// accumulator builds a distribution in first-seen order, merging repeated
// states additively in constant time per entry.
type accumulator struct {
	out agents.Distribution
	pos map[int]int
}

func newAccumulator(n int) *accumulator {
	return &accumulator{
		out: make(agents.Distribution, 0, n),
		pos: make(map[int]int, n),
	}
}

func (a *accumulator) add(state int, p float64) {
	if p == 0 {
		return
	}
	if i, ok := a.pos[state]; ok {
		a.out[i].Prob += p
		return
	}
	a.pos[state] = len(a.out)
	a.out = append(a.out, agents.Outcome{State: state, Prob: p})
}

// Branching returns how many outcome combinations Compose would visit for
// the given joint state and action.
func (c *Composer) Branching(jsv, jav []int) (int, error) {
	_, _, n, err := c.outcomes(jsv, jav)
	return n, err
}

func (c *Composer) outcomes(jsv, jav []int) ([]agents.Distribution, []int, int, error) {
	k := len(c.stateArities)
	if len(jsv) != k || len(jav) != k {
		return nil, nil, 0, fmt.Errorf("%w: state %d, action %d, roster %d",
			ErrJointLength, len(jsv), len(jav), k)
	}
	parts := make([]agents.Distribution, k)
	dims := make([]int, k)
	for i := range parts {
		d, err := c.table.Lookup(i, jsv[i], jav[i])
		if err != nil {
			return nil, nil, 0, err
		}
		parts[i] = d
		dims[i] = len(d)
	}
	n, err := radix.Product(dims)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("outcome combinations: %w", err)
	}
	return parts, dims, n, nil
}
