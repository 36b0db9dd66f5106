// Package chess implements standard chess rules: move geometry per piece, move
// validation and execution, check and checkmate detection.
package chess

import (
	"fmt"
	"strings"

	"github.com/benbeisheim/chessmatch-backend/internal/grid"
)

type Color int

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// forward is the row delta of a pawn advance. White plays towards row 0.
func (c Color) forward() int {
	if c == White {
		return -1
	}
	return 1
}

// promotionRow is the row farthest from the color's own side.
func (c Color) promotionRow() int {
	if c == White {
		return 0
	}
	return Size - 1
}

// enPassantRow is the color's fifth rank.
func (c Color) enPassantRow() int {
	if c == White {
		return 3
	}
	return 4
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "white", "w":
		*c = White
	case "black", "b":
		*c = Black
	default:
		return fmt.Errorf("unknown color %q", b)
	}
	return nil
}

type Kind string

const (
	King   Kind = "king"
	Queen  Kind = "queen"
	Rook   Kind = "rook"
	Bishop Kind = "bishop"
	Knight Kind = "knight"
	Pawn   Kind = "pawn"
)

// Letter returns the figurine letter, empty for pawns.
func (k Kind) Letter() string {
	switch k {
	case King:
		return "K"
	case Queen:
		return "Q"
	case Rook:
		return "R"
	case Bishop:
		return "B"
	case Knight:
		return "N"
	}
	return ""
}

// Promotable reports whether a pawn may be exchanged for k.
func (k Kind) Promotable() bool {
	return k == Queen || k == Rook || k == Bishop || k == Knight
}

// ParseKind accepts full names ("knight") and letters ("N"), in any case.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "k", "king":
		return King, true
	case "q", "queen":
		return Queen, true
	case "r", "rook":
		return Rook, true
	case "b", "bishop":
		return Bishop, true
	case "n", "knight":
		return Knight, true
	case "p", "pawn":
		return Pawn, true
	}
	return "", false
}

// UnmarshalText goes through ParseKind. Empty input leaves no kind.
func (k *Kind) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*k = ""
		return nil
	}
	kind, ok := ParseKind(string(b))
	if !ok {
		return fmt.Errorf("unknown piece kind %q", b)
	}
	*k = kind
	return nil
}

// Piece is a unit on the board or in the captured pile. Only the match mutates it.
type Piece struct {
	kind   Kind
	color  Color
	moves  int
	cell   grid.Cell
	placed bool
}

func (p *Piece) Kind() Kind {
	return p.kind
}

func (p *Piece) Color() Color {
	return p.color
}

// MoveCount is the number of applied moves this piece took part in.
func (p *Piece) MoveCount() int {
	return p.moves
}

// Square returns where the piece stands; ok is false once it has been captured.
func (p *Piece) Square() (sq Square, ok bool) {
	if !p.placed {
		return Square{}, false
	}
	return SquareOf(p.cell), true
}

func (p *Piece) Tag() PieceTag {
	return PieceTag{Type: p.kind, Color: p.color, HasMoved: p.moves > 0}
}

func (p *Piece) String() string {
	return p.color.String() + " " + string(p.kind)
}

// PieceTag is the presentation view of a piece.
type PieceTag struct {
	Type     Kind  `json:"type"`
	Color    Color `json:"color"`
	HasMoved bool  `json:"hasMoved"`
}
