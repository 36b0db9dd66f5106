package chess

import (
	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/exp/slices"
)

// ReplacePromotedPiece exchanges the pending promotion for kind. A kind a pawn may not
// become keeps the current piece and is not an error. Check and checkmate are
// re-evaluated because the new piece attacks differently.
func (m *Match) ReplacePromotedPiece(kind Kind) (*Piece, error) {
	if m.promoted == nil {
		return nil, ErrNoPromotion
	}
	if !kind.Promotable() {
		return m.promoted, nil
	}
	m.promoted = m.replacePromoted(kind)

	opponent := m.promoted.color.Opponent()
	m.check = m.inCheck(opponent)
	mate := m.inCheckmate(opponent, m.enPassantVulnerable)
	switch {
	case mate && !m.checkmate:
		m.checkmate = true
		m.previousTurn()
	case !mate && m.checkmate:
		m.checkmate = false
		m.nextTurn()
	}
	return m.promoted, nil
}

func (m *Match) replacePromoted(kind Kind) *Piece {
	old := m.promoted
	at := old.cell
	m.lift(at)
	p := &Piece{kind: kind, color: old.color, moves: old.moves}
	m.put(p, at)
	m.onBoard[slices.Index(m.onBoard, old)] = p
	log.Debugf("promotion on %s: %s", SquareOf(at), p)
	return p
}
