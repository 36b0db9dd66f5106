package model

import (
	"sync"
	"time"

	"github.com/benbeisheim/chessmatch-backend/internal/chess"
	"github.com/benbeisheim/chessmatch-backend/internal/ws"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"
	"golang.org/x/exp/slices"
)

// DefaultClock is each side's thinking time when none is configured.
const DefaultClock = 10 * time.Minute

const (
	ResultCheckmate   = "checkmate"
	ResultTimeout     = "timeout"
	ResultResignation = "resignation"
)

// The Game struct focuses on a single game's state and its observers. Every exported
// method locks mu, so one match is never touched by two goroutines at once.
type Game struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	match    *chess.Match
	players  Players
	history  []Move
	lastMove *chess.Move
	sound    string
	result   string
	winner   chess.Color
	closed   bool

	connections *GameConnections
	whiteClock  *Clock
	blackClock  *Clock
}

type GameState struct {
	ID              string         `json:"id"`
	Sound           string         `json:"sound"`
	Board           *BoardState    `json:"boardState"`
	ToMove          chess.Color    `json:"toMove"`
	Turn            int            `json:"turn"`
	MoveHistory     []Move         `json:"moveHistory"`
	CapturedPieces  CapturedPieces `json:"capturedPieces"`
	IsCheck         bool           `json:"isCheck"`
	LegalMoves      []chess.Move   `json:"legalMoves"`
	EnPassantTarget *chess.Square  `json:"enPassantTarget"`
	Resolve         *string        `json:"resolve"`
	Winner          *chess.Color   `json:"winner"`
	Players         Players        `json:"players"`
	PromotionSquare *chess.Square  `json:"promotionSquare"`
	PromotionPiece  *chess.Kind    `json:"promotionPiece"`
	LastMove        *chess.Move    `json:"lastMove"`
}

// GameSummary is the listing view of a game.
type GameSummary struct {
	ID        string    `json:"id"`
	White     string    `json:"white"`
	Black     string    `json:"black"`
	Turn      int       `json:"turn"`
	Resolve   string    `json:"resolve,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewGame(id string, clock time.Duration) *Game {
	if clock <= 0 {
		clock = DefaultClock
	}
	g := &Game{
		ID:          id,
		CreatedAt:   time.Now(),
		match:       chess.NewMatch(),
		connections: NewGameConnections(),
		whiteClock:  NewClock(clock),
		blackClock:  NewClock(clock),
	}
	g.players.White.Color = chess.White
	g.players.Black.Color = chess.Black
	return g
}

// AddPlayer seats playerID, White first. A player already seated gets their color back.
func (g *Game) AddPlayer(playerID string) (chess.Color, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return chess.White, ErrGameClosed
	}
	if color, ok := g.players.colorOf(playerID); ok {
		return color, nil
	}
	for _, color := range []chess.Color{chess.White, chess.Black} {
		if seat := g.players.seat(color); seat.ID == "" {
			seat.ID = playerID
			log.Infof("game %s: %s seated as %s", g.ID, playerID, color)
			return color, nil
		}
	}
	return chess.White, ErrGameFull
}

func (g *Game) GetState() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.stateLocked()
}

func (g *Game) IsPlayerInGame(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.players.colorOf(playerID)
	return ok
}

func (g *Game) Summary() GameSummary {
	g.mu.Lock()
	defer g.mu.Unlock()

	return GameSummary{
		ID:        g.ID,
		White:     g.players.White.ID,
		Black:     g.players.Black.ID,
		Turn:      g.match.Turn(),
		Resolve:   g.result,
		CreatedAt: g.CreatedAt,
	}
}

// MakeMove plays req for playerID and pushes the new state to every connection.
func (g *Game) MakeMove(playerID string, req MoveRequest) error {
	state, err := g.makeMove(playerID, req)
	if state != nil {
		g.publish(*state)
	}
	return err
}

func (g *Game) makeMove(playerID string, req MoveRequest) (*GameState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	color, err := g.seatedLocked(playerID)
	if err != nil {
		return nil, err
	}
	if g.result != "" {
		return nil, ErrGameFinished
	}
	if g.players.White.ID == "" || g.players.Black.ID == "" {
		return nil, ErrNotStarted
	}
	if color != g.match.CurrentPlayer() {
		return nil, ErrNotYourTurn
	}
	clock := g.clock(color)
	if clock.Expired() {
		g.finishLocked(ResultTimeout, color.Opponent())
		state := g.stateLocked()
		return &state, ErrTimeExpired
	}

	moved := g.match.PieceAt(req.From)
	captured, err := g.match.PerformMove(req.From, req.To)
	if err != nil {
		return nil, err
	}
	if req.Promotion != "" && g.match.Promoted() != nil {
		if _, err := g.match.ReplacePromotedPiece(req.Promotion); err != nil {
			return nil, err
		}
	}

	ply := Ply{
		Piece:          chess.PieceTag{Type: moved.Kind(), Color: color, HasMoved: true},
		From:           req.From,
		To:             req.To,
		CastleRookMove: castleRookMove(moved.Kind(), req.From, req.To),
	}
	if captured != nil {
		tag := captured.Tag()
		ply.CapturedPiece = &tag
	}
	if p := g.match.Promoted(); p != nil {
		ply.Promotion = p.Kind()
	}
	ply.annotate(g.match.Check(), g.match.Checkmate())
	g.recordLocked(color, ply)
	g.lastMove = &chess.Move{From: req.From, To: req.To}
	g.sound = soundOf(ply, g.match)

	clock.Stop()
	if g.match.Checkmate() {
		g.finishLocked(ResultCheckmate, color)
	} else {
		g.clock(color.Opponent()).Start()
	}
	log.Debugf("game %s: %s played %s", g.ID, color, ply.Notation)

	state := g.stateLocked()
	return &state, nil
}

// Promote exchanges the piece the player's last move promoted to.
func (g *Game) Promote(playerID string, kind chess.Kind) error {
	state, err := g.promote(playerID, kind)
	if state != nil {
		g.publish(*state)
	}
	return err
}

func (g *Game) promote(playerID string, kind chess.Kind) (*GameState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	color, err := g.seatedLocked(playerID)
	if err != nil {
		return nil, err
	}
	if g.result != "" && g.result != ResultCheckmate {
		return nil, ErrGameFinished
	}
	pending := g.match.Promoted()
	if pending == nil {
		return nil, chess.ErrNoPromotion
	}
	if pending.Color() != color {
		return nil, ErrNotYourTurn
	}

	wasMate := g.match.Checkmate()
	p, err := g.match.ReplacePromotedPiece(kind)
	if err != nil {
		return nil, err
	}
	mate := g.match.Checkmate()

	if last := g.lastPlyLocked(color); last != nil {
		last.Promotion = p.Kind()
		last.annotate(g.match.Check(), mate)
		g.sound = soundOf(*last, g.match)
	}
	switch {
	case mate && !wasMate:
		g.finishLocked(ResultCheckmate, color)
	case !mate && wasMate:
		g.result = ""
		g.clock(color.Opponent()).Start()
	}

	state := g.stateLocked()
	return &state, nil
}

// PossibleMoves lists the legal targets of the piece on sq for the side to move.
func (g *Game) PossibleMoves(sq chess.Square) ([]chess.Square, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.result != "" {
		return []chess.Square{}, nil
	}
	targets, err := g.match.LegalTargets(sq)
	if err != nil {
		return nil, err
	}
	if targets == nil {
		targets = []chess.Square{}
	}
	return targets, nil
}

// Resign ends the game in the opponent's favour.
func (g *Game) Resign(playerID string) error {
	state, err := g.resign(playerID)
	if state != nil {
		g.publish(*state)
	}
	return err
}

func (g *Game) resign(playerID string) (*GameState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	color, err := g.seatedLocked(playerID)
	if err != nil {
		return nil, err
	}
	if g.result != "" {
		return nil, ErrGameFinished
	}
	g.finishLocked(ResultResignation, color.Opponent())
	state := g.stateLocked()
	return &state, nil
}

// RegisterConnection attaches a socket for a player or spectator and sends it the
// current state. A second socket for the same ID is closed and not registered.
func (g *Game) RegisterConnection(playerID string, conn Conn) error {
	g.mu.Lock()
	closed := g.closed
	state := g.stateLocked()
	g.mu.Unlock()

	if closed {
		return ErrGameClosed
	}
	if !g.connections.add(playerID, conn) {
		log.Warnf("game %s: rejecting duplicate connection for %s", g.ID, playerID)
		_ = conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Connection already exists"),
		)
		return conn.Close()
	}
	log.Debugf("game %s: registered connection for %s", g.ID, playerID)

	msg, err := ws.NewMessage(ws.MessageTypeGameState, state)
	if err != nil {
		return err
	}
	return g.connections.send(playerID, msg)
}

func (g *Game) UnregisterConnection(playerID string, conn Conn) {
	if g.connections.remove(playerID, conn) {
		log.Debugf("game %s: unregistered connection for %s", g.ID, playerID)
	}
}

// Send writes msg to playerID's socket only.
func (g *Game) Send(playerID string, msg ws.Message) error {
	return g.connections.send(playerID, msg)
}

func (g *Game) ConnectionCount() int {
	return g.connections.Count()
}

// Close stops the clocks and disconnects every socket. Further moves fail with
// ErrGameClosed.
func (g *Game) Close() error {
	g.mu.Lock()
	g.closed = true
	g.whiteClock.Stop()
	g.blackClock.Stop()
	g.mu.Unlock()

	return g.connections.closeAll("game closed")
}

func (g *Game) publish(state GameState) {
	msg, err := ws.NewMessage(ws.MessageTypeGameState, state)
	if err != nil {
		log.Errorf("game %s: encode state: %v", g.ID, err)
		return
	}
	if err := g.connections.broadcast(msg); err != nil {
		log.Warnf("game %s: broadcast: %v", g.ID, err)
	}
}

func (g *Game) seatedLocked(playerID string) (chess.Color, error) {
	if g.closed {
		return chess.White, ErrGameClosed
	}
	color, ok := g.players.colorOf(playerID)
	if !ok {
		return chess.White, ErrNotAPlayer
	}
	return color, nil
}

func (g *Game) clock(color chess.Color) *Clock {
	if color == chess.White {
		return g.whiteClock
	}
	return g.blackClock
}

func (g *Game) finishLocked(result string, winner chess.Color) {
	g.result, g.winner = result, winner
	g.whiteClock.Stop()
	g.blackClock.Stop()
	log.Infof("game %s: %s wins by %s", g.ID, winner, result)
}

func (g *Game) recordLocked(color chess.Color, ply Ply) {
	if color == chess.White || len(g.history) == 0 {
		move := Move{Number: len(g.history) + 1}
		if color == chess.White {
			move.WhitePly = ply
		} else {
			move.BlackPly = ply
		}
		g.history = append(g.history, move)
		return
	}
	g.history[len(g.history)-1].BlackPly = ply
}

// lastPlyLocked returns color's ply in the latest history entry.
func (g *Game) lastPlyLocked(color chess.Color) *Ply {
	if len(g.history) == 0 {
		return nil
	}
	last := &g.history[len(g.history)-1]
	if color == chess.White {
		return &last.WhitePly
	}
	return &last.BlackPly
}

func (g *Game) stateLocked() GameState {
	g.players.White.TimeLeft = g.whiteClock.tenths()
	g.players.Black.TimeLeft = g.blackClock.tenths()

	state := GameState{
		ID:              g.ID,
		Sound:           g.sound,
		Board:           newBoardState(g.match),
		ToMove:          g.match.CurrentPlayer(),
		Turn:            g.match.Turn(),
		MoveHistory:     slices.Clone(g.history),
		CapturedPieces:  newCapturedPieces(g.match.CapturedPieces()),
		IsCheck:         g.match.Check(),
		LegalMoves:      []chess.Move{},
		EnPassantTarget: enPassantTarget(g.match.EnPassantVulnerable()),
		Players:         g.players,
		LastMove:        g.lastMove,
	}
	if state.MoveHistory == nil {
		state.MoveHistory = []Move{}
	}
	if g.result == "" {
		if moves := g.match.LegalMoves(); moves != nil {
			state.LegalMoves = moves
		}
	} else {
		result, winner := g.result, g.winner
		state.Resolve, state.Winner = &result, &winner
	}
	if p := g.match.Promoted(); p != nil {
		sq, _ := p.Square()
		kind := p.Kind()
		state.PromotionSquare, state.PromotionPiece = &sq, &kind
	}
	return state
}

func soundOf(ply Ply, m *chess.Match) string {
	switch {
	case m.Checkmate():
		return "checkmate"
	case m.Check():
		return "check"
	case ply.Promotion != "":
		return "promote"
	case ply.CastleRookMove != nil:
		return "castle"
	case ply.CapturedPiece != nil:
		return "capture"
	}
	return "move"
}
