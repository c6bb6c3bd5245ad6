package agents

import (
	"errors"
	"fmt"
	"strings"

	"github.com/talgya/catchgen/internal/world"
)

// Action is a catcher's intended move.
type Action uint8

const (
	ActionNorth Action = iota
	ActionSouth
	ActionEast
	ActionWest
	ActionTag // Stay put and try to catch
)

var actionLabels = [...]string{
	ActionNorth: "N",
	ActionSouth: "S",
	ActionEast:  "E",
	ActionWest:  "W",
	ActionTag:   "T",
}

// ErrUnknownAction is returned by ParseAction for labels outside N, S, E, W, T.
var ErrUnknownAction = errors.New("agents: unknown action")

// AllActions is the full catcher action set.
var AllActions = []Action{ActionNorth, ActionSouth, ActionEast, ActionWest, ActionTag}

// Label returns the one-letter name used in problem files.
func (a Action) Label() string {
	if int(a) < len(actionLabels) {
		return actionLabels[a]
	}
	return fmt.Sprintf("Action(%d)", uint8(a))
}

// ParseAction maps a label (case-insensitive) back to an Action.
func ParseAction(label string) (Action, error) {
	for i, l := range actionLabels {
		if strings.EqualFold(l, strings.TrimSpace(label)) {
			return Action(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, label)
}

// ParseActions parses an ordered action set. Duplicates are rejected since
// they would produce indistinguishable action tokens.
func ParseActions(labels []string) ([]Action, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: empty action set", ErrUnknownAction)
	}
	seen := make(map[Action]bool, len(labels))
	out := make([]Action, 0, len(labels))
	for _, l := range labels {
		a, err := ParseAction(l)
		if err != nil {
			return nil, err
		}
		if seen[a] {
			return nil, fmt.Errorf("%w: duplicate %q", ErrUnknownAction, l)
		}
		seen[a] = true
		out = append(out, a)
	}
	return out, nil
}

// Catcher is a controllable agent. Movement succeeds with probability
// Reliability; otherwise it slips evenly to the two perpendicular neighbors.
type Catcher struct {
	Grid        world.Grid
	Reliability float64
	Moves       []Action // Action index → move
}

// NewCatcher creates a catcher on g with the given action set.
func NewCatcher(g world.Grid, reliability float64, moves []Action) *Catcher {
	return &Catcher{
		Grid:        g,
		Reliability: reliability,
		Moves:       append([]Action(nil), moves...),
	}
}

func (c *Catcher) States() int  { return c.Grid.Cells() }
func (c *Catcher) Actions() int { return len(c.Moves) }

func (c *Catcher) ActionLabel(a int) string {
	if a < 0 || a >= len(c.Moves) {
		return fmt.Sprintf("%d", a)
	}
	return c.Moves[a].Label()
}

// Transition returns where the catcher ends up after action a from pos.
// An action index outside the action set leaves the catcher in place.
func (c *Catcher) Transition(pos, a int) Distribution {
	if a < 0 || a >= len(c.Moves) {
		return Distribution{{State: pos, Prob: 1}}
	}

	g := c.Grid
	slip := (1.0 - c.Reliability) / 2.0
	var d Distribution
	switch c.Moves[a] {
	case ActionNorth:
		d.Add(g.North(pos), c.Reliability)
		d.Add(g.West(pos), slip)
		d.Add(g.East(pos), slip)
	case ActionSouth:
		d.Add(g.South(pos), c.Reliability)
		d.Add(g.West(pos), slip)
		d.Add(g.East(pos), slip)
	case ActionEast:
		d.Add(g.East(pos), c.Reliability)
		d.Add(g.North(pos), slip)
		d.Add(g.South(pos), slip)
	case ActionWest:
		d.Add(g.West(pos), c.Reliability)
		d.Add(g.North(pos), slip)
		d.Add(g.South(pos), slip)
	default:
		d.Add(pos, 1)
	}
	return d
}
