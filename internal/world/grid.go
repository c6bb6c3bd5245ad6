// Package world provides the rectangular grid the catch problem is played on.
// Cells are numbered row-major starting from the bottom row:
//
//	6 7 8
//	3 4 5
//	0 1 2
package world

import (
	"errors"
	"fmt"
)

// ErrBadGrid is returned for grids without at least one row and one column.
var ErrBadGrid = errors.New("world: grid needs at least one row and one column")

// Direction is one of the four cardinal moves.
type Direction uint8

const (
	North Direction = iota
	South
	East
	West
)

// Directions lists the cardinal moves in their canonical order.
var Directions = [4]Direction{North, South, East, West}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case South:
		return "south"
	case East:
		return "east"
	case West:
		return "west"
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

// Grid is a rows × cols board. The zero value is not usable; see NewGrid.
type Grid struct {
	Rows int
	Cols int
}

// NewGrid returns a grid with the given dimensions.
func NewGrid(rows, cols int) (Grid, error) {
	if rows <= 0 || cols <= 0 {
		return Grid{}, fmt.Errorf("%w: %dx%d", ErrBadGrid, rows, cols)
	}
	return Grid{Rows: rows, Cols: cols}, nil
}

// Cells returns the number of positions on the grid.
func (g Grid) Cells() int {
	return g.Rows * g.Cols
}

// Coord decodes a position into its row and column.
func (g Grid) Coord(pos int) (row, col int) {
	return pos / g.Cols, pos % g.Cols
}

// Pos encodes a row and column into a position.
func (g Grid) Pos(row, col int) int {
	return row*g.Cols + col
}

// North moves one row up. Positions on the top edge stay where they are.
func (g Grid) North(pos int) int {
	r, c := g.Coord(pos)
	if r == g.Rows-1 {
		return pos
	}
	return g.Pos(r+1, c)
}

// South moves one row down. Positions on the bottom edge stay where they are.
func (g Grid) South(pos int) int {
	r, c := g.Coord(pos)
	if r == 0 {
		return pos
	}
	return g.Pos(r-1, c)
}

// East moves one column right, clamped at the rightmost edge.
func (g Grid) East(pos int) int {
	r, c := g.Coord(pos)
	if c == g.Cols-1 {
		return pos
	}
	return g.Pos(r, c+1)
}

// West moves one column left, clamped at the leftmost edge.
func (g Grid) West(pos int) int {
	r, c := g.Coord(pos)
	if c == 0 {
		return pos
	}
	return g.Pos(r, c-1)
}

// Step applies d to pos.
func (g Grid) Step(pos int, d Direction) int {
	switch d {
	case North:
		return g.North(pos)
	case South:
		return g.South(pos)
	case East:
		return g.East(pos)
	case West:
		return g.West(pos)
	}
	return pos
}

// Contains reports whether pos is a cell of the grid.
func (g Grid) Contains(pos int) bool {
	return pos >= 0 && pos < g.Cells()
}

// String returns a summary of the grid.
func (g Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d, cells=%d)", g.Rows, g.Cols, g.Cells())
}
