package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/benbeisheim/chessmatch-backend/internal/controller"
	"github.com/benbeisheim/chessmatch-backend/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hashicorp/go-multierror"
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	log.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := fiber.New(fiber.Config{
		AppName:               "chessmatch",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ", "),
		AllowHeaders:     "Origin, Content-Type, Accept, X-Player-ID",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: true,
	}))

	// Initialize services
	gameManager := service.NewGameManager(ctx, service.Options{
		Clock:               cfg.Clock,
		MatchmakingInterval: cfg.MatchmakingInterval,
	})
	gameService := service.NewGameService(gameManager)

	// Initialize controllers
	gameController := controller.NewGameController(gameService)
	wsController := controller.NewWebSocketController(gameService)
	controller.SetupRoutes(app, gameController, wsController, cfg.AllowedOrigins)

	go func() {
		log.Infof("listening on %s", cfg.Addr)
		if err := app.Listen(cfg.Addr); err != nil {
			log.Errorf("listen: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	var result *multierror.Error
	// games first: closing their sockets lets the server drain
	if err := gameManager.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, err)
	}
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		result = multierror.Append(result, err)
	}
	if err := result.ErrorOrNil(); err != nil {
		log.Errorf("shutdown: %v", err)
		os.Exit(1)
	}
}
