package service

import (
	"github.com/benbeisheim/chessmatch-backend/internal/chess"
	"github.com/benbeisheim/chessmatch-backend/internal/model"
	"github.com/benbeisheim/chessmatch-backend/internal/ws"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// GameService is what the controllers talk to. Errors keep their sentinel causes
// and gain the game and player involved.
type GameService struct {
	gameManager *GameManager
}

func NewGameService(gameManager *GameManager) *GameService {
	return &GameService{
		gameManager: gameManager,
	}
}

func (gs *GameService) CreateGame() (string, error) {
	gameID := uuid.New().String()

	if _, err := gs.gameManager.CreateGame(gameID); err != nil {
		return "", errors.Wrap(err, "failed to create game")
	}
	return gameID, nil
}

func (gs *GameService) JoinGame(gameID string, playerID string) (chess.Color, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return chess.White, err
	}
	color, err := game.AddPlayer(playerID)
	if err != nil {
		return chess.White, errors.Wrapf(err, "join game %s as %s", gameID, playerID)
	}
	return color, nil
}

func (gs *GameService) GameExists(gameID string) bool {
	_, err := gs.gameManager.GetGame(gameID)
	return err == nil
}

func (gs *GameService) GetGameState(gameID string) (model.GameState, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return model.GameState{}, err
	}
	return game.GetState(), nil
}

func (gs *GameService) ListGames() []model.GameSummary {
	return gs.gameManager.ListGames()
}

func (gs *GameService) HandleMove(gameID string, playerID string, move model.MoveRequest) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	if err := game.MakeMove(playerID, move); err != nil {
		return errors.Wrapf(err, "game %s: move by %s", gameID, playerID)
	}
	return nil
}

func (gs *GameService) HandlePromotion(gameID string, playerID string, kind chess.Kind) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	if err := game.Promote(playerID, kind); err != nil {
		return errors.Wrapf(err, "game %s: promotion by %s", gameID, playerID)
	}
	return nil
}

func (gs *GameService) Resign(gameID string, playerID string) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	if err := game.Resign(playerID); err != nil {
		return errors.Wrapf(err, "game %s: resignation by %s", gameID, playerID)
	}
	return nil
}

// PossibleMoves parses square and lists where its piece may legally go.
func (gs *GameService) PossibleMoves(gameID string, square string) ([]chess.Square, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	sq, err := chess.ParseSquare(square)
	if err != nil {
		return nil, err
	}
	targets, err := game.PossibleMoves(sq)
	if err != nil {
		return nil, errors.Wrapf(err, "game %s", gameID)
	}
	return targets, nil
}

func (gs *GameService) JoinMatchmaking(playerID string) error {
	return gs.gameManager.JoinMatchmaking(playerID)
}

func (gs *GameService) LeaveMatchmaking(playerID string) bool {
	return gs.gameManager.LeaveMatchmaking(playerID)
}

func (gs *GameService) QueueSize() int {
	return gs.gameManager.QueueSize()
}

func (gs *GameService) MatchFor(playerID string) (model.MatchFoundEvent, bool) {
	return gs.gameManager.MatchFor(playerID)
}

func (gs *GameService) RegisterConnection(gameID string, playerID string, conn model.Conn) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	return errors.Wrapf(game.RegisterConnection(playerID, conn), "game %s: connect %s", gameID, playerID)
}

// UnregisterConnection drops conn and forgets a finished game once nobody is watching it.
func (gs *GameService) UnregisterConnection(gameID string, playerID string, conn model.Conn) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return
	}
	game.UnregisterConnection(playerID, conn)
	if game.ConnectionCount() > 0 || game.Summary().Resolve == "" {
		return
	}
	if err := gs.gameManager.RemoveGame(gameID); err != nil && !errors.Is(err, ErrGameNotFound) {
		log.Warnf("game %s: remove: %v", gameID, err)
	}
}

// SendToPlayer writes msg to one player's game socket.
func (gs *GameService) SendToPlayer(gameID string, playerID string, msg ws.Message) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.Send(playerID, msg)
}

func (gs *GameService) RegisterMatchmakingChannel(playerID string, ch chan model.MatchFoundEvent) error {
	return gs.gameManager.RegisterMatchmakingChannel(playerID, ch)
}

func (gs *GameService) UnregisterMatchmakingChannel(playerID string, ch chan model.MatchFoundEvent) {
	gs.gameManager.UnregisterMatchmakingChannel(playerID, ch)
}
