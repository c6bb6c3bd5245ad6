package agents

import (
	"errors"
	"fmt"
	"math"
)

// MassTolerance bounds how far a distribution's total mass may drift from 1.
const MassTolerance = 1e-9

// ErrBadDistribution is returned by Validate.
var ErrBadDistribution = errors.New("agents: invalid distribution")

// Outcome is one entry of a sparse distribution.
type Outcome struct {
	State int
	Prob  float64
}

// Distribution is a sparse probability mass function over state indices.
// Entries keep insertion order and states are unique; callers index into it
// positionally, so the order is part of its contract.
type Distribution []Outcome

// Add puts p mass on state. Mass for a state already present is summed,
// never replaced. Zero mass is not recorded.
func (d *Distribution) Add(state int, p float64) {
	if p == 0 {
		return
	}
	for i := range *d {
		if (*d)[i].State == state {
			(*d)[i].Prob += p
			return
		}
	}
	*d = append(*d, Outcome{State: state, Prob: p})
}

// Prob returns the mass on state, 0 if absent.
func (d Distribution) Prob(state int) float64 {
	for _, o := range d {
		if o.State == state {
			return o.Prob
		}
	}
	return 0
}

// Mass returns the total probability.
func (d Distribution) Mass() float64 {
	var sum float64
	for _, o := range d {
		sum += o.Prob
	}
	return sum
}

// Validate checks that d is non-empty, states are unique, every entry lies
// in [0, 1] and the total mass is 1 within MassTolerance.
func (d Distribution) Validate() error {
	if len(d) == 0 {
		return fmt.Errorf("%w: no outcomes", ErrBadDistribution)
	}
	seen := make(map[int]bool, len(d))
	for _, o := range d {
		if seen[o.State] {
			return fmt.Errorf("%w: state %d listed twice", ErrBadDistribution, o.State)
		}
		seen[o.State] = true
		if o.Prob < 0 || o.Prob > 1+MassTolerance || math.IsNaN(o.Prob) {
			return fmt.Errorf("%w: state %d has mass %v", ErrBadDistribution, o.State, o.Prob)
		}
	}
	if m := d.Mass(); math.Abs(m-1) > MassTolerance {
		return fmt.Errorf("%w: total mass %v", ErrBadDistribution, m)
	}
	return nil
}
