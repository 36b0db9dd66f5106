package model

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/benbeisheim/chessmatch-backend/internal/chess"
	"github.com/benbeisheim/chessmatch-backend/internal/ws"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	messages []ws.Message
	closed   bool
	broken   bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return errors.New("broken pipe")
	}
	c.messages = append(c.messages, v.(ws.Message))
	return nil
}

func (c *fakeConn) WriteMessage(int, []byte) error {
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) received() []ws.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ws.Message(nil), c.messages...)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// newStartedGame seats "alice" as White and "bob" as Black.
func newStartedGame(t *testing.T) *Game {
	t.Helper()
	g := NewGame("g1", DefaultClock)
	color, err := g.AddPlayer("alice")
	require.NoError(t, err)
	require.Equal(t, chess.White, color)
	color, err = g.AddPlayer("bob")
	require.NoError(t, err)
	require.Equal(t, chess.Black, color)
	return g
}

func request(mv string) MoveRequest {
	return MoveRequest{From: chess.MustSquare(mv[:2]), To: chess.MustSquare(mv[2:4])}
}

// playMoves alternates alice and bob over space separated moves.
func playMoves(t *testing.T, g *Game, moves string) {
	t.Helper()
	players := []string{"alice", "bob"}
	for i, mv := range strings.Fields(moves) {
		require.NoError(t, g.MakeMove(players[i%2], request(mv)), "move %s", mv)
	}
}
