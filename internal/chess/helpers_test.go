package chess

import (
	"fmt"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// setup builds a match from tokens such as "wKe1" or "bRh8". A trailing "+" marks a
// piece that has already moved once.
func setup(t *testing.T, toMove Color, tokens ...string) *Match {
	t.Helper()
	m := newMatch()
	m.currentPlayer = toMove
	for _, tok := range tokens {
		require.True(t, len(tok) == 4 || len(tok) == 5, "bad token %q", tok)
		var color Color
		require.NoError(t, color.UnmarshalText([]byte(tok[:1])), tok)
		kind, ok := ParseKind(tok[1:2])
		require.True(t, ok, "bad kind in %q", tok)
		p := m.placeNewPiece(tok[2:4], kind, color)
		if len(tok) == 5 && tok[4] == '+' {
			p.moves = 1
		}
	}
	return m
}

// play performs each "e2e4" style move and fails the test on the first rejection.
func play(t *testing.T, m *Match, moves ...string) {
	t.Helper()
	for _, mv := range moves {
		_, err := m.PerformMove(MustSquare(mv[:2]), MustSquare(mv[2:4]))
		require.NoError(t, err, "move %s", mv)
	}
}

type matchSnapshot struct {
	Board    []string
	OnBoard  []string
	Captured []string
}

func describe(p *Piece) string {
	return fmt.Sprintf("%s %s %v/%d", p.color, p.kind, p.cell, p.moves)
}

// snapshot captures everything apply and undo touch.
func snapshot(m *Match) matchSnapshot {
	var s matchSnapshot
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if p := m.board.At(gridCell(r, c)); p != nil {
				s.Board = append(s.Board, fmt.Sprintf("%s=%p", SquareOf(gridCell(r, c)), p))
			}
		}
	}
	for _, p := range m.onBoard {
		s.OnBoard = append(s.OnBoard, describe(p))
	}
	for _, p := range m.captured {
		s.Captured = append(s.Captured, describe(p))
	}
	return s
}

func requireSameSnapshot(t *testing.T, want, got matchSnapshot) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("match state mismatch (-want +got):\n%s", diff)
	}
}

func squares(set MoveSet) []string {
	var out []string
	for _, sq := range set.Squares() {
		out = append(out, sq.String())
	}
	sort.Strings(out)
	return out
}
