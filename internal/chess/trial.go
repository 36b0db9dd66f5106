package chess

import (
	"github.com/benbeisheim/chessmatch-backend/internal/grid"
	"golang.org/x/exp/slices"
)

// trial records everything apply changed so undo can restore it exactly.
type trial struct {
	piece    *Piece
	from, to grid.Cell

	captured      *Piece
	capturedAt    grid.Cell // differs from to for en passant
	capturedIndex int       // position in onBoard before the capture

	rook             *Piece
	rookFrom, rookTo grid.Cell
}

// apply moves the piece on from to to, with capture, castling and en passant side effects.
func (m *Match) apply(from, to grid.Cell) trial {
	p := m.lift(from)
	p.moves++
	t := trial{piece: p, from: from, to: to}

	if victim := m.lift(to); victim != nil {
		t.captured, t.capturedAt = victim, to
	}
	m.put(p, to)

	switch {
	case p.kind == King && to.Column-from.Column == 2:
		t.rook, t.rookFrom, t.rookTo = m.board.At(from.Offset(0, 3)), from.Offset(0, 3), from.Offset(0, 1)
	case p.kind == King && to.Column-from.Column == -2:
		t.rook, t.rookFrom, t.rookTo = m.board.At(from.Offset(0, -4)), from.Offset(0, -4), from.Offset(0, -1)
	case p.kind == Pawn && from.Column != to.Column && t.captured == nil:
		at := grid.Cell{Row: from.Row, Column: to.Column}
		if victim := m.lift(at); victim != nil {
			t.captured, t.capturedAt = victim, at
		}
	}

	if t.rook != nil {
		m.lift(t.rookFrom)
		m.put(t.rook, t.rookTo)
		t.rook.moves++
	}

	if t.captured != nil {
		t.capturedIndex = slices.Index(m.onBoard, t.captured)
		m.onBoard = slices.Delete(m.onBoard, t.capturedIndex, t.capturedIndex+1)
		m.captured = append(m.captured, t.captured)
	}
	return t
}

// undo reverses apply.
func (m *Match) undo(t trial) {
	m.lift(t.to)
	t.piece.moves--
	m.put(t.piece, t.from)

	if t.rook != nil {
		m.lift(t.rookTo)
		m.put(t.rook, t.rookFrom)
		t.rook.moves--
	}

	if t.captured != nil {
		m.put(t.captured, t.capturedAt)
		m.captured = m.captured[:len(m.captured)-1]
		m.onBoard = slices.Insert(m.onBoard, t.capturedIndex, t.captured)
	}
}

func isCastling(p *Piece, from, to grid.Cell) bool {
	return p.kind == King && from.Row == to.Row && abs(to.Column-from.Column) == 2
}
