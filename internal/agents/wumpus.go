package agents

import "github.com/talgya/catchgen/internal/world"

// WumpusActionLabel is the label of the wumpus's only (ignored) action.
const WumpusActionLabel = "0"

// Wumpus wanders uniformly at random, whatever action it is handed.
type Wumpus struct {
	Grid world.Grid
}

// NewWumpus creates a wumpus on g.
func NewWumpus(g world.Grid) *Wumpus {
	return &Wumpus{Grid: g}
}

// States is resolved against the wumpus's own grid.
func (w *Wumpus) States() int { return w.Grid.Cells() }

func (w *Wumpus) Actions() int { return 1 }

func (w *Wumpus) ActionLabel(int) string { return WumpusActionLabel }

// Transition spreads a quarter of the mass on each cardinal neighbor. Moves
// clamped at an edge land on pos and merge.
func (w *Wumpus) Transition(pos, _ int) Distribution {
	var d Distribution
	for _, dir := range world.Directions {
		d.Add(w.Grid.Step(pos, dir), 0.25)
	}
	return d
}
