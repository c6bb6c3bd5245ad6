// Package engine builds the joint transition model of the catch problem:
// a precomputed table of every agent's single-step transitions and the
// composer that combines them into joint-state distributions.
package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/catchgen/internal/agents"
	"github.com/talgya/catchgen/internal/radix"
)

var (
	ErrEmptyRoster = errors.New("engine: roster has no agents")
	ErrJointLength = errors.New("engine: joint vector length does not match roster")
)

// Table holds agent × state × action → next-state distribution for a roster.
// It is filled once by BuildTable and only read afterwards; the
// distributions it hands out are shared and must not be modified.
type Table struct {
	entries [][][]agents.Distribution
	states  []int
	actions []int
}

// BuildTable evaluates every agent's transition function over its whole
// state and action range. Any distribution that does not sum to 1 aborts
// the build.
func BuildTable(roster agents.Roster) (*Table, error) {
	if len(roster) == 0 {
		return nil, ErrEmptyRoster
	}
	t := &Table{
		entries: make([][][]agents.Distribution, len(roster)),
		states:  roster.StateArities(),
		actions: roster.ActionArities(),
	}

	total := 0
	for i, ag := range roster {
		ns, na := t.states[i], t.actions[i]
		if ns <= 0 || na <= 0 {
			return nil, fmt.Errorf("agent %d: %w (states=%d actions=%d)", i, radix.ErrArity, ns, na)
		}
		byState := make([][]agents.Distribution, ns)
		for s := 0; s < ns; s++ {
			byState[s] = make([]agents.Distribution, na)
			for a := 0; a < na; a++ {
				d := ag.Transition(s, a)
				if err := d.Validate(); err != nil {
					return nil, fmt.Errorf("agent %d state %d action %d: %w", i, s, a, err)
				}
				for _, o := range d {
					if o.State < 0 || o.State >= ns {
						return nil, fmt.Errorf("agent %d state %d action %d: %w: next state %d not in [0, %d)",
							i, s, a, radix.ErrRange, o.State, ns)
					}
				}
				byState[s][a] = d
				total++
			}
		}
		t.entries[i] = byState
	}

	slog.Debug("transition table built", "agents", len(roster), "entries", total)
	return t, nil
}

// Agents returns the number of roster members covered by the table.
func (t *Table) Agents() int {
	return len(t.entries)
}

// Lookup returns the precomputed distribution for agent i taking action a
// in state s.
func (t *Table) Lookup(i, s, a int) (agents.Distribution, error) {
	if i < 0 || i >= len(t.entries) {
		return nil, fmt.Errorf("%w: agent %d not in [0, %d)", radix.ErrRange, i, len(t.entries))
	}
	if s < 0 || s >= t.states[i] {
		return nil, fmt.Errorf("%w: agent %d state %d not in [0, %d)", radix.ErrRange, i, s, t.states[i])
	}
	if a < 0 || a >= t.actions[i] {
		return nil, fmt.Errorf("%w: agent %d action %d not in [0, %d)", radix.ErrRange, i, a, t.actions[i])
	}
	return t.entries[i][s][a], nil
}
