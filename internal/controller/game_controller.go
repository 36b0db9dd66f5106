package controller

import (
	"github.com/benbeisheim/chessmatch-backend/internal/chess"
	"github.com/benbeisheim/chessmatch-backend/internal/model"
	"github.com/benbeisheim/chessmatch-backend/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

type GameController struct {
	gameService *service.GameService
}

func NewGameController(gameService *service.GameService) *GameController {
	return &GameController{gameService: gameService}
}

func playerID(c *fiber.Ctx) string {
	id, _ := c.Locals("playerID").(string)
	return id
}

func (gc *GameController) CreateGame(c *fiber.Ctx) error {
	gameID, err := gc.gameService.CreateGame()
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Game created",
		"game_id": gameID,
	})
}

func (gc *GameController) JoinGame(c *fiber.Ctx) error {
	color, err := gc.gameService.JoinGame(c.Params("gameId"), playerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Game joined",
		"color":   color,
	})
}

func (gc *GameController) GetGameState(c *fiber.Ctx) error {
	gameState, err := gc.gameService.GetGameState(c.Params("gameId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(gameState)
}

func (gc *GameController) ListGames(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"games": gc.gameService.ListGames(),
	})
}

func (gc *GameController) PossibleMoves(c *fiber.Ctx) error {
	square := c.Params("square")
	targets, err := gc.gameService.PossibleMoves(c.Params("gameId"), square)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"square":  square,
		"targets": targets,
	})
}

func (gc *GameController) MakeMove(c *fiber.Ctx) error {
	var move model.MoveRequest
	if err := c.BodyParser(&move); err != nil {
		return badRequest(c, errors.Wrap(err, "invalid move"))
	}
	gameID := c.Params("gameId")
	if err := gc.gameService.HandleMove(gameID, playerID(c), move); err != nil {
		return respondError(c, err)
	}
	return gc.GetGameState(c)
}

func (gc *GameController) Promote(c *fiber.Ctx) error {
	var req model.PromotionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, errors.Wrap(err, "invalid promotion"))
	}
	if err := promotable(req.Piece); err != nil {
		return badRequest(c, err)
	}
	if err := gc.gameService.HandlePromotion(c.Params("gameId"), playerID(c), req.Piece); err != nil {
		return respondError(c, err)
	}
	return gc.GetGameState(c)
}

func (gc *GameController) Resign(c *fiber.Ctx) error {
	if err := gc.gameService.Resign(c.Params("gameId"), playerID(c)); err != nil {
		return respondError(c, err)
	}
	return gc.GetGameState(c)
}

func (gc *GameController) JoinMatchmaking(c *fiber.Ctx) error {
	if err := gc.gameService.JoinMatchmaking(playerID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"status": "queued",
	})
}

func (gc *GameController) LeaveMatchmaking(c *fiber.Ctx) error {
	if !gc.gameService.LeaveMatchmaking(playerID(c)) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "not in queue",
		})
	}
	return c.JSON(fiber.Map{
		"status": "left",
	})
}

// MatchmakingStatus lets a client without a socket poll for its match.
func (gc *GameController) MatchmakingStatus(c *fiber.Ctx) error {
	event, ok := gc.gameService.MatchFor(playerID(c))
	if !ok {
		return c.JSON(fiber.Map{
			"status": "waiting",
			"queued": gc.gameService.QueueSize(),
		})
	}
	return c.JSON(fiber.Map{
		"status": "matched",
		"gameId": event.GameID,
		"color":  event.Color,
	})
}

func promotable(kind chess.Kind) error {
	if !kind.Promotable() {
		return errors.Errorf("cannot promote to %q", kind)
	}
	return nil
}

func (gc *GameController) gameExists(gameID string) bool {
	return gc.gameService.GameExists(gameID)
}
