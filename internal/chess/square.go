package chess

import (
	"fmt"
	"strings"

	"github.com/benbeisheim/chessmatch-backend/internal/grid"
)

// Square is a cell in algebraic notation: file 'a'..'h', rank 1..8.
type Square struct {
	File byte
	Rank int
}

// ParseSquare reads notation such as "e4". Case and surrounding space are ignored.
func ParseSquare(s string) (Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 {
		return Square{}, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	sq := Square{File: s[0], Rank: int(s[1]) - '0'}
	if !sq.Valid() {
		return Square{}, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	return sq, nil
}

// MustSquare is ParseSquare for literals known to be valid.
func MustSquare(s string) Square {
	sq, err := ParseSquare(s)
	if err != nil {
		panic(err)
	}
	return sq
}

// SquareOf converts a grid cell back to algebraic notation.
func SquareOf(c grid.Cell) Square {
	return Square{File: byte('a' + c.Column), Rank: Size - c.Row}
}

func (s Square) Valid() bool {
	return s.File >= 'a' && s.File < 'a'+Size && s.Rank >= 1 && s.Rank <= Size
}

// Cell converts to grid indexing. Row 0 is rank 8, column 0 is file a.
func (s Square) Cell() grid.Cell {
	return grid.Cell{Row: Size - s.Rank, Column: int(s.File - 'a')}
}

func (s Square) String() string {
	if s == (Square{}) {
		return "-"
	}
	return fmt.Sprintf("%c%d", s.File, s.Rank)
}

func (s Square) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the "-" placeholder MarshalText writes for the zero square.
func (s *Square) UnmarshalText(b []byte) error {
	if string(b) == "-" {
		*s = Square{}
		return nil
	}
	sq, err := ParseSquare(string(b))
	if err != nil {
		return err
	}
	*s = sq
	return nil
}
