package controller

import (
	"github.com/benbeisheim/chessmatch-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// SetupRoutes mounts the REST API under /api and the sockets under /ws.
func SetupRoutes(app *fiber.App, gc *GameController, wsc *WebSocketController, origins []string) {
	wsConfig := websocket.Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		Origins:         origins,
	}

	sockets := app.Group("/ws", middleware.EnsurePlayerID(), middleware.WebSocketUpgrade())
	sockets.Get("/matchmaking", websocket.New(wsc.HandleMatchmaking, wsConfig))
	sockets.Get("/game/:gameId", middleware.RequireGame(gc.gameExists), websocket.New(wsc.HandleConnection, wsConfig))

	api := app.Group("/api", middleware.EnsurePlayerID())
	api.Get("/games", gc.ListGames)

	gameRoutes := api.Group("/game")
	gameRoutes.Post("/matchmaking/join", gc.JoinMatchmaking)
	gameRoutes.Post("/matchmaking/leave", gc.LeaveMatchmaking)
	gameRoutes.Get("/matchmaking/status", gc.MatchmakingStatus)
	gameRoutes.Post("/create", gc.CreateGame)
	gameRoutes.Post("/join/:gameId", gc.JoinGame)
	gameRoutes.Get("/:gameId", gc.GetGameState)
	gameRoutes.Get("/:gameId/moves/:square", gc.PossibleMoves)
	gameRoutes.Post("/:gameId/move", gc.MakeMove)
	gameRoutes.Post("/:gameId/promote", gc.Promote)
	gameRoutes.Post("/:gameId/resign", gc.Resign)
}
