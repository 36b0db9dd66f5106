// Package grid provides a fixed-size two dimensional container of movable units.
package grid

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds = errors.New("cell out of bounds")
	ErrOccupied    = errors.New("cell already occupied")
)

// Cell addresses a grid slot by zero-based row and column.
type Cell struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// Offset returns the cell shifted by the given deltas. The result may lie outside the grid.
func (c Cell) Offset(dRow, dColumn int) Cell {
	return Cell{Row: c.Row + dRow, Column: c.Column + dColumn}
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Column)
}

// Grid holds at most one unit per cell.
type Grid[T any] struct {
	rows    int
	columns int
	cells   [][]*T
}

func New[T any](rows, columns int) *Grid[T] {
	g := &Grid[T]{rows: rows, columns: columns}
	for i := 0; i < rows; i++ {
		g.cells = append(g.cells, make([]*T, columns))
	}
	return g
}

func (g *Grid[T]) Rows() int {
	return g.rows
}

func (g *Grid[T]) Columns() int {
	return g.columns
}

// Contains reports whether c lies on the grid.
func (g *Grid[T]) Contains(c Cell) bool {
	return c.Row >= 0 && c.Row < g.rows && c.Column >= 0 && c.Column < g.columns
}

// At returns the unit on c, or nil when c is empty or off the grid.
func (g *Grid[T]) At(c Cell) *T {
	if !g.Contains(c) {
		return nil
	}
	return g.cells[c.Row][c.Column]
}

func (g *Grid[T]) Occupied(c Cell) bool {
	return g.At(c) != nil
}

// Place puts u on c. The cell must be on the grid and empty.
func (g *Grid[T]) Place(u *T, c Cell) error {
	if !g.Contains(c) {
		return fmt.Errorf("place %s: %w", c, ErrOutOfBounds)
	}
	if g.cells[c.Row][c.Column] != nil {
		return fmt.Errorf("place %s: %w", c, ErrOccupied)
	}
	g.cells[c.Row][c.Column] = u
	return nil
}

// Remove empties c and returns whatever stood there.
func (g *Grid[T]) Remove(c Cell) *T {
	if !g.Contains(c) {
		return nil
	}
	u := g.cells[c.Row][c.Column]
	g.cells[c.Row][c.Column] = nil
	return u
}
