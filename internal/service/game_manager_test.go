package service

import (
	"context"
	"testing"
	"time"

	"github.com/benbeisheim/chessmatch-backend/internal/chess"
	"github.com/benbeisheim/chessmatch-backend/internal/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, opts Options) *GameManager {
	t.Helper()
	gm := NewGameManager(context.Background(), opts)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = gm.Shutdown(ctx)
	})
	return gm
}

func TestCreateAndGetGame(t *testing.T) {
	gm := newManager(t, Options{})

	game, err := gm.CreateGame("g1")
	require.NoError(t, err)
	assert.Equal(t, "g1", game.ID)

	_, err = gm.CreateGame("g1")
	assert.True(t, errors.Is(err, ErrGameExists))

	got, err := gm.GetGame("g1")
	require.NoError(t, err)
	assert.Same(t, game, got)

	_, err = gm.GetGame("nope")
	assert.True(t, errors.Is(err, ErrGameNotFound))
	assert.Contains(t, err.Error(), "nope")
}

func TestListGamesNewestFirst(t *testing.T) {
	gm := newManager(t, Options{})
	older, err := gm.CreateGame("older")
	require.NoError(t, err)
	older.CreatedAt = older.CreatedAt.Add(-time.Minute)
	_, err = gm.CreateGame("newer")
	require.NoError(t, err)

	games := gm.ListGames()
	require.Len(t, games, 2)
	assert.Equal(t, "newer", games[0].ID)
	assert.Equal(t, "older", games[1].ID)
}

func TestRemoveGame(t *testing.T) {
	gm := newManager(t, Options{})
	_, err := gm.CreateGame("g1")
	require.NoError(t, err)

	require.NoError(t, gm.RemoveGame("g1"))
	assert.True(t, errors.Is(gm.RemoveGame("g1"), ErrGameNotFound))
	assert.Empty(t, gm.ListGames())
}

func TestMatchPairsQueuedPlayers(t *testing.T) {
	gm := newManager(t, Options{})
	ch := make(chan model.MatchFoundEvent, 1)
	require.NoError(t, gm.RegisterMatchmakingChannel("alice", ch))

	for _, id := range []string{"alice", "bob", "carol"} {
		require.NoError(t, gm.JoinMatchmaking(id))
	}
	assert.True(t, errors.Is(gm.JoinMatchmaking("bob"), model.ErrAlreadyQueued))

	created := gm.Match()
	require.Len(t, created, 1)
	assert.Equal(t, 1, gm.QueueSize(), "carol keeps waiting")

	event, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, created[0].ID, event.GameID)
	assert.Equal(t, chess.White, event.Color)
	_, open := <-ch
	assert.False(t, open, "channel is closed after delivery")

	bob, ok := gm.MatchFor("bob")
	require.True(t, ok)
	assert.Equal(t, model.MatchFoundEvent{GameID: created[0].ID, Color: chess.Black}, bob)
	_, ok = gm.MatchFor("carol")
	assert.False(t, ok)

	_, err := gm.GetGame(event.GameID)
	require.NoError(t, err)
	assert.True(t, created[0].IsPlayerInGame("alice"))
	assert.True(t, created[0].IsPlayerInGame("bob"))
}

func TestLeaveMatchmaking(t *testing.T) {
	gm := newManager(t, Options{})
	require.NoError(t, gm.JoinMatchmaking("alice"))
	assert.True(t, gm.LeaveMatchmaking("alice"))
	require.NoError(t, gm.JoinMatchmaking("bob"))
	assert.Empty(t, gm.Match())
}

func TestReplacedChannelIsClosed(t *testing.T) {
	gm := newManager(t, Options{})
	first := make(chan model.MatchFoundEvent, 1)
	second := make(chan model.MatchFoundEvent, 1)
	require.NoError(t, gm.RegisterMatchmakingChannel("alice", first))
	require.NoError(t, gm.RegisterMatchmakingChannel("alice", second))

	_, open := <-first
	assert.False(t, open)

	gm.UnregisterMatchmakingChannel("alice", first)
	require.NoError(t, gm.JoinMatchmaking("alice"))
	require.NoError(t, gm.JoinMatchmaking("bob"))
	gm.Match()
	event := <-second
	assert.NotEmpty(t, event.GameID)
}

func TestBackgroundMatchmaking(t *testing.T) {
	gm := newManager(t, Options{MatchmakingInterval: 10 * time.Millisecond})
	ch := make(chan model.MatchFoundEvent, 1)
	require.NoError(t, gm.RegisterMatchmakingChannel("bob", ch))
	require.NoError(t, gm.JoinMatchmaking("alice"))
	require.NoError(t, gm.JoinMatchmaking("bob"))

	select {
	case event := <-ch:
		assert.Equal(t, chess.Black, event.Color)
	case <-time.After(2 * time.Second):
		t.Fatal("no match within 2s")
	}
}

func TestShutdown(t *testing.T) {
	gm := NewGameManager(context.Background(), Options{MatchmakingInterval: 10 * time.Millisecond})
	game, err := gm.CreateGame("g1")
	require.NoError(t, err)
	ch := make(chan model.MatchFoundEvent, 1)
	require.NoError(t, gm.RegisterMatchmakingChannel("alice", ch))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, gm.Shutdown(ctx))

	_, open := <-ch
	assert.False(t, open)
	assert.True(t, errors.Is(game.MakeMove("x", model.MoveRequest{}), model.ErrGameClosed))
	_, err = gm.CreateGame("g2")
	assert.True(t, errors.Is(err, ErrShuttingDown))
	assert.True(t, errors.Is(gm.JoinMatchmaking("alice"), ErrShuttingDown))
}
