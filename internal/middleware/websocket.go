package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebSocketUpgrade ensures that requests to WebSocket endpoints are valid WebSocket
// connection attempts from an identified player. It must run after EnsurePlayerID.
func WebSocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		if c.Locals("playerID") == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "player ID is required",
			})
		}
		return c.Next()
	}
}

// RequireGame rejects the upgrade with 404 when the game named by the gameId route
// parameter does not exist.
func RequireGame(exists func(gameID string) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !exists(c.Params("gameId")) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "game not found",
			})
		}
		return c.Next()
	}
}
