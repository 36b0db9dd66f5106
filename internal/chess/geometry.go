package chess

import "github.com/benbeisheim/chessmatch-backend/internal/grid"

// Size is the edge length of the board.
const Size = 8

// MoveSet marks every cell a piece may reach, ignoring turn order and self-check.
type MoveSet [Size][Size]bool

func (s *MoveSet) mark(c grid.Cell) {
	s[c.Row][c.Column] = true
}

func (s MoveSet) Has(c grid.Cell) bool {
	if c.Row < 0 || c.Row >= Size || c.Column < 0 || c.Column >= Size {
		return false
	}
	return s[c.Row][c.Column]
}

// Any reports whether at least one cell is reachable.
func (s MoveSet) Any() bool {
	for _, row := range s {
		for _, ok := range row {
			if ok {
				return true
			}
		}
	}
	return false
}

// Cells lists reachable cells in row-major order.
func (s MoveSet) Cells() []grid.Cell {
	var cells []grid.Cell
	for r, row := range s {
		for c, ok := range row {
			if ok {
				cells = append(cells, grid.Cell{Row: r, Column: c})
			}
		}
	}
	return cells
}

func (s MoveSet) Squares() []Square {
	cells := s.Cells()
	squares := make([]Square, 0, len(cells))
	for _, c := range cells {
		squares = append(squares, SquareOf(c))
	}
	return squares
}

// View is read-only occupancy. At must return nil for cells off the board.
type View interface {
	Contains(c grid.Cell) bool
	At(c grid.Cell) *Piece
}

type offset struct {
	row, column int
}

var (
	rookDirs    = []offset{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
	bishopDirs  = []offset{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	queenDirs   = append(append([]offset{}, rookDirs...), bishopDirs...)
	knightJumps = []offset{{2, 1}, {2, -1}, {-2, 1}, {-2, -1}, {1, 2}, {1, -2}, {-1, 2}, {-1, -2}}
)

// geometryFunc computes the move set of p standing on from. enPassant is the unit
// that may be taken en passant on this ply, or nil.
type geometryFunc func(p *Piece, from grid.Cell, v View, enPassant *Piece) MoveSet

var geometry = map[Kind]geometryFunc{
	King:   kingMoves,
	Queen:  slider(queenDirs),
	Rook:   slider(rookDirs),
	Bishop: slider(bishopDirs),
	Knight: knightMoves,
	Pawn:   pawnMoves,
}

func canLand(p *Piece, v View, c grid.Cell) bool {
	if !v.Contains(c) {
		return false
	}
	occupant := v.At(c)
	return occupant == nil || occupant.color != p.color
}

func slider(dirs []offset) geometryFunc {
	return func(p *Piece, from grid.Cell, v View, _ *Piece) MoveSet {
		var set MoveSet
		for _, d := range dirs {
			c := from.Offset(d.row, d.column)
			for v.Contains(c) {
				occupant := v.At(c)
				if occupant != nil {
					if occupant.color != p.color {
						set.mark(c)
					}
					break
				}
				set.mark(c)
				c = c.Offset(d.row, d.column)
			}
		}
		return set
	}
}

func knightMoves(p *Piece, from grid.Cell, v View, _ *Piece) MoveSet {
	var set MoveSet
	for _, j := range knightJumps {
		if c := from.Offset(j.row, j.column); canLand(p, v, c) {
			set.mark(c)
		}
	}
	return set
}

func kingMoves(p *Piece, from grid.Cell, v View, _ *Piece) MoveSet {
	var set MoveSet
	for _, d := range queenDirs {
		if c := from.Offset(d.row, d.column); canLand(p, v, c) {
			set.mark(c)
		}
	}
	if p.moves != 0 {
		return set
	}
	// kingside rook three files right
	if unmovedRook(p, v, from.Offset(0, 3)) && empty(v, from.Offset(0, 1), from.Offset(0, 2)) {
		set.mark(from.Offset(0, 2))
	}
	// queenside rook four files left
	if unmovedRook(p, v, from.Offset(0, -4)) && empty(v, from.Offset(0, -1), from.Offset(0, -2), from.Offset(0, -3)) {
		set.mark(from.Offset(0, -2))
	}
	return set
}

func unmovedRook(king *Piece, v View, c grid.Cell) bool {
	r := v.At(c)
	return r != nil && r.kind == Rook && r.color == king.color && r.moves == 0
}

func empty(v View, cells ...grid.Cell) bool {
	for _, c := range cells {
		if !v.Contains(c) || v.At(c) != nil {
			return false
		}
	}
	return true
}

func pawnMoves(p *Piece, from grid.Cell, v View, enPassant *Piece) MoveSet {
	var set MoveSet
	dir := p.color.forward()

	one := from.Offset(dir, 0)
	if empty(v, one) {
		set.mark(one)
		if two := from.Offset(2*dir, 0); p.moves == 0 && empty(v, two) {
			set.mark(two)
		}
	}

	for _, side := range []int{-1, 1} {
		diag := from.Offset(dir, side)
		if occupant := v.At(diag); occupant != nil && occupant.color != p.color {
			set.mark(diag)
		}
		if enPassant == nil || from.Row != p.color.enPassantRow() {
			continue
		}
		if beside := v.At(from.Offset(0, side)); beside == enPassant && beside.color != p.color && v.Contains(diag) {
			set.mark(diag)
		}
	}
	return set
}
