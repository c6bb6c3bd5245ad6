// Package agents provides the entities that move on the catch grid: the
// controllable catchers and the randomly wandering wumpi, plus the sparse
// distributions their single-step transitions produce.
package agents

import (
	"github.com/talgya/catchgen/internal/radix"
	"github.com/talgya/catchgen/internal/world"
)

// Agent is the capability set every roster member exposes. Everything
// downstream (transition table, composer, emitter) works through it.
type Agent interface {
	// States is the number of discrete states the agent can occupy.
	States() int
	// Actions is the number of discrete actions the agent accepts.
	Actions() int
	// ActionLabel names action a in the problem file.
	ActionLabel(a int) string
	// Transition returns the next-state distribution for action a taken in
	// state s.
	Transition(s, a int) Distribution
}

// Roster is an ordered set of agents. The first agent is the most
// significant digit of every joint state and joint action index.
type Roster []Agent

// StateArities returns each agent's state count, in roster order.
func (r Roster) StateArities() []int {
	arities := make([]int, len(r))
	for i, a := range r {
		arities[i] = a.States()
	}
	return arities
}

// ActionArities returns each agent's action count, in roster order.
func (r Roster) ActionArities() []int {
	arities := make([]int, len(r))
	for i, a := range r {
		arities[i] = a.Actions()
	}
	return arities
}

// JointStates returns the size of the joint state space.
func (r Roster) JointStates() (int, error) {
	return radix.Product(r.StateArities())
}

// JointActions returns the size of the joint action space.
func (r Roster) JointActions() (int, error) {
	return radix.Product(r.ActionArities())
}

// NewCatchRoster lines up the catchers followed by the wumpi, so the wumpi
// are the least significant digits of the joint encodings.
func NewCatchRoster(g world.Grid, catchers, wumpi int, reliability float64, actions []Action) Roster {
	roster := make(Roster, 0, catchers+wumpi)
	for i := 0; i < catchers; i++ {
		roster = append(roster, NewCatcher(g, reliability, actions))
	}
	for i := 0; i < wumpi; i++ {
		roster = append(roster, NewWumpus(g))
	}
	return roster
}
