package chess

import (
	"fmt"

	"github.com/benbeisheim/chessmatch-backend/internal/grid"
	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/exp/slices"
)

// Match is one game of chess. It is not safe for concurrent use; callers that share a
// match between goroutines must serialize every call.
type Match struct {
	turn          int
	currentPlayer Color
	board         *grid.Grid[Piece]
	check         bool
	checkmate     bool

	// enPassantVulnerable is the pawn that double-stepped on the previous ply.
	enPassantVulnerable *Piece
	// promoted is the piece a pawn was just exchanged for. It stays set until the next
	// PerformMove clears it so ReplacePromotedPiece can still swap it after the move returns.
	promoted *Piece

	onBoard  []*Piece
	captured []*Piece
}

// NewMatch returns a match in the standard starting position with White to move.
func NewMatch() *Match {
	m := newMatch()
	m.initialSetup()
	return m
}

func newMatch() *Match {
	return &Match{
		turn:          1,
		currentPlayer: White,
		board:         grid.New[Piece](Size, Size),
	}
}

func (m *Match) Turn() int {
	return m.turn
}

func (m *Match) CurrentPlayer() Color {
	return m.currentPlayer
}

// Check reports whether the last move left the opponent in check.
func (m *Match) Check() bool {
	return m.check
}

func (m *Match) Checkmate() bool {
	return m.checkmate
}

// Promoted returns the piece created by the last move's promotion, or nil.
func (m *Match) Promoted() *Piece {
	return m.promoted
}

// EnPassantVulnerable returns the pawn that may be taken en passant on this ply, or nil.
func (m *Match) EnPassantVulnerable() *Piece {
	return m.enPassantVulnerable
}

// CapturedPieces returns captured pieces in capture order.
func (m *Match) CapturedPieces() []*Piece {
	return slices.Clone(m.captured)
}

// Pieces returns the board indexed by [row][column]; empty cells are nil.
func (m *Match) Pieces() [][]*PieceTag {
	out := make([][]*PieceTag, m.board.Rows())
	for r := range out {
		out[r] = make([]*PieceTag, m.board.Columns())
		for c := range out[r] {
			if p := m.board.At(grid.Cell{Row: r, Column: c}); p != nil {
				tag := p.Tag()
				out[r][c] = &tag
			}
		}
	}
	return out
}

// PieceAt returns the piece on sq, or nil.
func (m *Match) PieceAt(sq Square) *Piece {
	if !sq.Valid() {
		return nil
	}
	return m.board.At(sq.Cell())
}

// PossibleMoves returns the move set of the piece on source, ignoring turn order and
// self-check.
func (m *Match) PossibleMoves(source Square) (MoveSet, error) {
	if !source.Valid() {
		return MoveSet{}, &MoveError{Err: ErrInvalidSquare, From: source}
	}
	p := m.board.At(source.Cell())
	if p == nil {
		return MoveSet{}, &MoveError{Err: ErrNoPiece, From: source}
	}
	return m.possibleMoves(p, m.enPassantVulnerable), nil
}

// PerformMove validates and plays source-target for the player on move and returns the
// captured piece, if any. A rejected move leaves the match unchanged.
func (m *Match) PerformMove(source, target Square) (*Piece, error) {
	if m.checkmate {
		return nil, &MoveError{Err: ErrGameOver, From: source, To: target}
	}
	if !source.Valid() || !target.Valid() {
		return nil, &MoveError{Err: ErrInvalidSquare, From: source, To: target}
	}
	from, to := source.Cell(), target.Cell()
	if err := m.validateSource(from); err != nil {
		return nil, &MoveError{Err: err, From: source}
	}
	moved := m.board.At(from)
	if !m.possibleMoves(moved, m.enPassantVulnerable).Has(to) {
		return nil, &MoveError{Err: ErrIllegalTarget, From: source, To: target}
	}
	if isCastling(moved, from, to) && !m.castlingSafe(moved, from, to) {
		return nil, &MoveError{Err: ErrCastleThroughCheck, From: source, To: target}
	}

	t := m.apply(from, to)
	if m.inCheck(m.currentPlayer) {
		m.undo(t)
		return nil, &MoveError{Err: ErrSelfCheck, From: source, To: target}
	}

	m.promoted = nil
	if moved.kind == Pawn && to.Row == moved.color.promotionRow() {
		m.promoted = moved
		m.promoted = m.replacePromoted(Queen)
	}

	// the reply ply may take a pawn that just double-stepped en passant
	var vulnerable *Piece
	if moved.kind == Pawn && abs(to.Row-from.Row) == 2 {
		vulnerable = moved
	}

	opponent := m.currentPlayer.Opponent()
	m.check = m.inCheck(opponent)
	if m.inCheckmate(opponent, vulnerable) {
		m.checkmate = true
		log.Debugf("checkmate: %s wins on turn %d", m.currentPlayer, m.turn)
	} else {
		m.nextTurn()
	}

	m.enPassantVulnerable = vulnerable
	return t.captured, nil
}

func (m *Match) validateSource(from grid.Cell) error {
	p := m.board.At(from)
	if p == nil {
		return ErrNoPiece
	}
	if p.color != m.currentPlayer {
		return ErrNotYourPiece
	}
	if !m.possibleMoves(p, m.enPassantVulnerable).Any() {
		return ErrNoPossibleMoves
	}
	return nil
}

func (m *Match) possibleMoves(p *Piece, enPassant *Piece) MoveSet {
	return geometry[p.kind](p, p.cell, m.board, enPassant)
}

func (m *Match) nextTurn() {
	m.turn++
	m.currentPlayer = m.currentPlayer.Opponent()
}

func (m *Match) previousTurn() {
	m.turn--
	m.currentPlayer = m.currentPlayer.Opponent()
}

// put places p on c and records its cell. Callers guarantee c is free.
func (m *Match) put(p *Piece, c grid.Cell) {
	if err := m.board.Place(p, c); err != nil {
		panic(fmt.Sprintf("chess: %s: %v", p, err))
	}
	p.cell, p.placed = c, true
}

// lift removes and returns whatever stands on c.
func (m *Match) lift(c grid.Cell) *Piece {
	p := m.board.Remove(c)
	if p != nil {
		p.placed = false
	}
	return p
}

func (m *Match) piecesOf(color Color) []*Piece {
	var out []*Piece
	for _, p := range m.onBoard {
		if p.color == color {
			out = append(out, p)
		}
	}
	return out
}

func (m *Match) king(color Color) *Piece {
	for _, p := range m.onBoard {
		if p.color == color && p.kind == King {
			return p
		}
	}
	panic(fmt.Errorf("chess: %w: %s", ErrMissingKing, color))
}

func (m *Match) placeNewPiece(sq string, kind Kind, color Color) *Piece {
	p := &Piece{kind: kind, color: color}
	m.put(p, MustSquare(sq).Cell())
	m.onBoard = append(m.onBoard, p)
	return p
}

func (m *Match) initialSetup() {
	backRank := []Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	for i, kind := range backRank {
		file := string(rune('a' + i))
		m.placeNewPiece(file+"1", kind, White)
		m.placeNewPiece(file+"2", Pawn, White)
		m.placeNewPiece(file+"8", kind, Black)
		m.placeNewPiece(file+"7", Pawn, Black)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
