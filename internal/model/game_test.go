package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/benbeisheim/chessmatch-backend/internal/chess"
	"github.com/benbeisheim/chessmatch-backend/internal/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPlayer(t *testing.T) {
	g := NewGame("g1", 0)

	color, err := g.AddPlayer("alice")
	require.NoError(t, err)
	assert.Equal(t, chess.White, color)

	color, err = g.AddPlayer("alice")
	require.NoError(t, err)
	assert.Equal(t, chess.White, color, "rejoining keeps the seat")

	color, err = g.AddPlayer("bob")
	require.NoError(t, err)
	assert.Equal(t, chess.Black, color)

	_, err = g.AddPlayer("carol")
	assert.ErrorIs(t, err, ErrGameFull)

	assert.True(t, g.IsPlayerInGame("bob"))
	assert.False(t, g.IsPlayerInGame("carol"))
	assert.False(t, g.IsPlayerInGame(""))
}

func TestMakeMoveAuthorization(t *testing.T) {
	g := NewGame("g1", 0)
	_, err := g.AddPlayer("alice")
	require.NoError(t, err)

	assert.ErrorIs(t, g.MakeMove("alice", request("e2e4")), ErrNotStarted)

	_, err = g.AddPlayer("bob")
	require.NoError(t, err)
	assert.ErrorIs(t, g.MakeMove("carol", request("e2e4")), ErrNotAPlayer)
	assert.ErrorIs(t, g.MakeMove("bob", request("e7e5")), ErrNotYourTurn)
	require.NoError(t, g.MakeMove("alice", request("e2e4")))
	assert.ErrorIs(t, g.MakeMove("alice", request("d2d4")), ErrNotYourTurn)
}

func TestMakeMoveRuleViolationLeavesStateAlone(t *testing.T) {
	g := newStartedGame(t)
	before := g.GetState()

	err := g.MakeMove("alice", request("e2e5"))
	assert.ErrorIs(t, err, chess.ErrIllegalTarget)
	var moveErr *chess.MoveError
	require.ErrorAs(t, err, &moveErr)
	assert.Equal(t, "e2", moveErr.From.String())

	after := g.GetState()
	assert.Equal(t, before.Board, after.Board)
	assert.Equal(t, before.Turn, after.Turn)
	assert.Empty(t, after.MoveHistory)
}

func TestMakeMoveUpdatesState(t *testing.T) {
	g := newStartedGame(t)
	playMoves(t, g, "e2e4")

	state := g.GetState()
	assert.Equal(t, chess.Black, state.ToMove)
	assert.Equal(t, 2, state.Turn)
	require.Len(t, state.MoveHistory, 1)
	assert.Equal(t, 1, state.MoveHistory[0].Number)
	assert.Equal(t, "e4", state.MoveHistory[0].WhitePly.Notation)
	assert.Equal(t, &chess.Move{From: chess.MustSquare("e2"), To: chess.MustSquare("e4")}, state.LastMove)
	assert.Equal(t, "move", state.Sound)
	require.NotNil(t, state.EnPassantTarget)
	assert.Equal(t, "e3", state.EnPassantTarget.String())
	assert.Len(t, state.LegalMoves, 20)
	assert.Nil(t, state.Resolve)
	assert.Equal(t, &chess.PieceTag{Type: chess.Pawn, Color: chess.White, HasMoved: true}, state.Board.Board[4][4])
	assert.Equal(t, "e1", state.Board.WhiteKingPosition.String())
	assert.Equal(t, "e8", state.Board.BlackKingPosition.String())

}

func TestCaptureAndCastlingNotation(t *testing.T) {
	g := newStartedGame(t)
	playMoves(t, g, "e2e4 d7d5 e4d5 g8f6 g1f3 f6d5 f1c4 c8g4 e1g1")

	state := g.GetState()
	require.Len(t, state.MoveHistory, 5)
	assert.Equal(t, "exd5", state.MoveHistory[1].WhitePly.Notation)
	assert.Equal(t, "Nxd5", state.MoveHistory[2].BlackPly.Notation)
	castle := state.MoveHistory[4].WhitePly
	assert.Equal(t, "O-O", castle.Notation)
	assert.Equal(t, &CastleRookMove{From: chess.MustSquare("h1"), To: chess.MustSquare("f1")}, castle.CastleRookMove)
	assert.Equal(t, "castle", state.Sound)
	assert.Len(t, state.CapturedPieces.White, 1)
	assert.Len(t, state.CapturedPieces.Black, 1)
}

func TestCheckmateEndsGame(t *testing.T) {
	g := newStartedGame(t)
	playMoves(t, g, "e2e4 e7e5 f1c4 b8c6 d1h5 g8f6 h5f7")

	state := g.GetState()
	require.NotNil(t, state.Resolve)
	assert.Equal(t, ResultCheckmate, *state.Resolve)
	require.NotNil(t, state.Winner)
	assert.Equal(t, chess.White, *state.Winner)
	assert.Equal(t, "Qxf7#", state.MoveHistory[3].WhitePly.Notation)
	assert.Equal(t, "checkmate", state.Sound)
	assert.Empty(t, state.LegalMoves)
	assert.True(t, state.IsCheck)
	assert.Equal(t, ResultCheckmate, g.Summary().Resolve)

	assert.ErrorIs(t, g.MakeMove("bob", request("e8f7")), ErrGameFinished)
	assert.ErrorIs(t, g.Resign("bob"), ErrGameFinished)
}

func TestPromotion(t *testing.T) {
	g := newStartedGame(t)
	playMoves(t, g, "a2a4 h7h5 a4a5 h5h4 a5a6 h4h3 a6b7 h3g2")

	req := request("b7a8")
	req.Promotion = chess.Knight
	require.NoError(t, g.MakeMove("alice", req))

	state := g.GetState()
	assert.Equal(t, "bxa8=N", state.MoveHistory[4].WhitePly.Notation)
	assert.Equal(t, chess.Knight, state.Board.Board[0][0].Type)
	require.NotNil(t, state.PromotionPiece)
	assert.Equal(t, chess.Knight, *state.PromotionPiece)
	assert.Equal(t, "a8", state.PromotionSquare.String())

	require.NoError(t, g.MakeMove("bob", request("g2h1")))
	assert.Equal(t, chess.Queen, g.GetState().Board.Board[7][7].Type)

	assert.ErrorIs(t, g.Promote("alice", chess.Rook), ErrNotYourTurn)
	require.NoError(t, g.Promote("bob", chess.Rook))

	state = g.GetState()
	assert.Equal(t, chess.Rook, state.Board.Board[7][7].Type)
	assert.Equal(t, "gxh1=R", state.MoveHistory[4].BlackPly.Notation)
	assert.Equal(t, chess.Rook, state.MoveHistory[4].BlackPly.Promotion)
	assert.Equal(t, chess.White, state.ToMove)

	require.NoError(t, g.MakeMove("alice", request("a8b6")))
	assert.ErrorIs(t, g.Promote("bob", chess.Queen), chess.ErrNoPromotion)
}

func TestPossibleMoves(t *testing.T) {
	g := newStartedGame(t)

	targets, err := g.PossibleMoves(chess.MustSquare("e2"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []chess.Square{chess.MustSquare("e3"), chess.MustSquare("e4")}, targets)

	targets, err = g.PossibleMoves(chess.MustSquare("c1"))
	require.NoError(t, err)
	assert.NotNil(t, targets)
	assert.Empty(t, targets)

	_, err = g.PossibleMoves(chess.MustSquare("e7"))
	assert.ErrorIs(t, err, chess.ErrNotYourPiece)
	_, err = g.PossibleMoves(chess.MustSquare("e5"))
	assert.ErrorIs(t, err, chess.ErrNoPiece)
}

func TestResign(t *testing.T) {
	g := newStartedGame(t)
	playMoves(t, g, "e2e4")

	assert.ErrorIs(t, g.Resign("carol"), ErrNotAPlayer)
	require.NoError(t, g.Resign("alice"))

	state := g.GetState()
	assert.Equal(t, ResultResignation, *state.Resolve)
	assert.Equal(t, chess.Black, *state.Winner)
	assert.ErrorIs(t, g.MakeMove("bob", request("e7e5")), ErrGameFinished)
}

func TestTimeout(t *testing.T) {
	g := newStartedGame(t)
	playMoves(t, g, "e2e4")
	g.blackClock.now = func() time.Time { return time.Now().Add(time.Hour) }

	assert.ErrorIs(t, g.MakeMove("bob", request("e7e5")), ErrTimeExpired)
	state := g.GetState()
	require.NotNil(t, state.Resolve)
	assert.Equal(t, ResultTimeout, *state.Resolve)
	assert.Equal(t, chess.White, *state.Winner)
	assert.Equal(t, 0, state.Players.Black.TimeLeft)
}

func TestClocksAlternate(t *testing.T) {
	g := newStartedGame(t)
	assert.False(t, g.whiteClock.Running())
	assert.False(t, g.blackClock.Running())

	playMoves(t, g, "e2e4")
	assert.False(t, g.whiteClock.Running())
	assert.True(t, g.blackClock.Running())

	require.NoError(t, g.MakeMove("bob", request("e7e5")))
	assert.True(t, g.whiteClock.Running())
	assert.False(t, g.blackClock.Running())
}

func decodeState(t *testing.T, msg ws.Message) GameState {
	t.Helper()
	require.Equal(t, ws.MessageTypeGameState, msg.Type)
	var state GameState
	require.NoError(t, json.Unmarshal(msg.Payload, &state))
	return state
}

func TestConnectionsReceiveState(t *testing.T) {
	g := newStartedGame(t)
	white, spectator := &fakeConn{}, &fakeConn{}

	require.NoError(t, g.RegisterConnection("alice", white))
	require.NoError(t, g.RegisterConnection("dave", spectator))
	assert.Equal(t, 2, g.ConnectionCount())
	require.Len(t, white.received(), 1, "initial state on connect")

	playMoves(t, g, "e2e4")

	for _, conn := range []*fakeConn{white, spectator} {
		msgs := conn.received()
		require.Len(t, msgs, 2)
		state := decodeState(t, msgs[1])
		assert.Equal(t, chess.Black, state.ToMove)
		assert.Equal(t, "e4", state.MoveHistory[0].WhitePly.Notation)
	}
}

func TestDuplicateConnectionRejected(t *testing.T) {
	g := newStartedGame(t)
	first, second := &fakeConn{}, &fakeConn{}

	require.NoError(t, g.RegisterConnection("alice", first))
	require.NoError(t, g.RegisterConnection("alice", second))
	assert.True(t, second.isClosed())
	assert.False(t, first.isClosed())

	g.UnregisterConnection("alice", second)
	assert.Equal(t, 1, g.ConnectionCount(), "stale socket must not evict the live one")
	g.UnregisterConnection("alice", first)
	assert.Equal(t, 0, g.ConnectionCount())
}

func TestBrokenConnectionDropped(t *testing.T) {
	g := newStartedGame(t)
	healthy, broken := &fakeConn{}, &fakeConn{}
	require.NoError(t, g.RegisterConnection("alice", healthy))
	require.NoError(t, g.RegisterConnection("bob", broken))
	broken.mu.Lock()
	broken.broken = true
	broken.mu.Unlock()

	playMoves(t, g, "e2e4")
	assert.Equal(t, 1, g.ConnectionCount())
	assert.Len(t, healthy.received(), 2)
}

func TestClose(t *testing.T) {
	g := newStartedGame(t)
	conn := &fakeConn{}
	require.NoError(t, g.RegisterConnection("alice", conn))

	require.NoError(t, g.Close())
	assert.True(t, conn.isClosed())
	assert.Equal(t, 0, g.ConnectionCount())
	assert.ErrorIs(t, g.MakeMove("alice", request("e2e4")), ErrGameClosed)
	assert.ErrorIs(t, g.RegisterConnection("bob", &fakeConn{}), ErrGameClosed)
	_, err := g.AddPlayer("carol")
	assert.ErrorIs(t, err, ErrGameClosed)
}
