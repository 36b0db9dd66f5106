package chess

import "github.com/benbeisheim/chessmatch-backend/internal/grid"

// Move is a fully legal move for the side to move.
type Move struct {
	From Square `json:"from"`
	To   Square `json:"to"`
}

func (mv Move) String() string {
	return mv.From.String() + mv.To.String()
}

// inCheck reports whether color's king is reachable by any opposing piece.
func (m *Match) inCheck(color Color) bool {
	return m.attacked(m.king(color).cell, color.Opponent())
}

// attacked reports whether any piece of color by could capture on c. Pawns attack
// diagonally whether or not c is occupied; castling destinations never attack.
func (m *Match) attacked(c grid.Cell, by Color) bool {
	for _, p := range m.onBoard {
		if p.color != by {
			continue
		}
		switch p.kind {
		case Pawn:
			dir := p.color.forward()
			if c == p.cell.Offset(dir, -1) || c == p.cell.Offset(dir, 1) {
				return true
			}
		case King:
			if c != p.cell && abs(c.Row-p.cell.Row) <= 1 && abs(c.Column-p.cell.Column) <= 1 {
				return true
			}
		default:
			if m.possibleMoves(p, nil).Has(c) {
				return true
			}
		}
	}
	return false
}

// castlingSafe reports whether the king neither stands in nor crosses check. The
// landing cell is covered by the self-check test after apply.
func (m *Match) castlingSafe(king *Piece, from, to grid.Cell) bool {
	if m.inCheck(king.color) {
		return false
	}
	step := 1
	if to.Column < from.Column {
		step = -1
	}
	return !m.attacked(from.Offset(0, step), king.color.Opponent())
}

// legal trial-applies from-to and reports whether the mover's king stays safe.
func (m *Match) legal(p *Piece, from, to grid.Cell) bool {
	if isCastling(p, from, to) && !m.castlingSafe(p, from, to) {
		return false
	}
	t := m.apply(from, to)
	safe := !m.inCheck(p.color)
	m.undo(t)
	return safe
}

// inCheckmate reports whether color is in check and no move of any of its pieces lifts
// it. enPassant is the pawn color may take en passant on its reply.
func (m *Match) inCheckmate(color Color, enPassant *Piece) bool {
	if !m.inCheck(color) {
		return false
	}
	for _, p := range m.piecesOf(color) {
		from := p.cell
		for _, to := range m.possibleMoves(p, enPassant).Cells() {
			if m.legal(p, from, to) {
				return false
			}
		}
	}
	return true
}

func (m *Match) legalMoves(color Color, enPassant *Piece) []Move {
	var moves []Move
	for _, p := range m.piecesOf(color) {
		from := p.cell
		for _, to := range m.possibleMoves(p, enPassant).Cells() {
			if m.legal(p, from, to) {
				moves = append(moves, Move{From: SquareOf(from), To: SquareOf(to)})
			}
		}
	}
	return moves
}

// LegalMoves lists every move the player on move may play. It is empty once the match
// has ended.
func (m *Match) LegalMoves() []Move {
	if m.checkmate {
		return nil
	}
	return m.legalMoves(m.currentPlayer, m.enPassantVulnerable)
}

// LegalTargets lists the squares the piece on source may legally move to this ply.
func (m *Match) LegalTargets(source Square) ([]Square, error) {
	if !source.Valid() {
		return nil, &MoveError{Err: ErrInvalidSquare, From: source}
	}
	from := source.Cell()
	p := m.board.At(from)
	if p == nil {
		return nil, &MoveError{Err: ErrNoPiece, From: source}
	}
	if p.color != m.currentPlayer {
		return nil, &MoveError{Err: ErrNotYourPiece, From: source}
	}
	if m.checkmate {
		return nil, nil
	}
	var targets []Square
	for _, to := range m.possibleMoves(p, m.enPassantVulnerable).Cells() {
		if m.legal(p, from, to) {
			targets = append(targets, SquareOf(to))
		}
	}
	return targets, nil
}
