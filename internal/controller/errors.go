package controller

import (
	"github.com/benbeisheim/chessmatch-backend/internal/chess"
	"github.com/benbeisheim/chessmatch-backend/internal/model"
	"github.com/benbeisheim/chessmatch-backend/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/pkg/errors"
)

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	is := func(targets ...error) bool {
		for _, target := range targets {
			if errors.Is(err, target) {
				return true
			}
		}
		return false
	}

	switch {
	case is(service.ErrGameNotFound):
		return fiber.StatusNotFound
	case is(model.ErrNotYourTurn, model.ErrNotAPlayer):
		return fiber.StatusForbidden
	case is(model.ErrGameFull, model.ErrGameFinished, model.ErrGameClosed, model.ErrNotStarted,
		model.ErrTimeExpired, model.ErrAlreadyQueued, chess.ErrGameOver, service.ErrGameExists):
		return fiber.StatusConflict
	case is(chess.ErrInvalidSquare):
		return fiber.StatusBadRequest
	case chess.IsRuleViolation(err):
		return fiber.StatusUnprocessableEntity
	case is(service.ErrShuttingDown):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		log.Errorf("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": err.Error(),
	})
}
