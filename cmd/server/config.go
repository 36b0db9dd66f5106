package main

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/benbeisheim/chessmatch-backend/internal/model"
	"github.com/benbeisheim/chessmatch-backend/internal/service"
	"github.com/gofiber/fiber/v2/log"
	"github.com/pkg/errors"
)

type config struct {
	Addr                string
	AllowedOrigins      []string
	Clock               time.Duration
	MatchmakingInterval time.Duration
	LogLevel            log.Level
	ShutdownTimeout     time.Duration
}

// loadConfig reads flags, falling back to CHESS_* environment variables and then to
// built-in defaults.
func loadConfig(args []string) (config, error) {
	var cfg config
	clock, err := envDuration("CHESS_CLOCK", model.DefaultClock)
	if err != nil {
		return cfg, err
	}
	interval, err := envDuration("CHESS_MATCHMAKING_INTERVAL", service.DefaultMatchmakingInterval)
	if err != nil {
		return cfg, err
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", envOr("CHESS_ADDR", ":3000"), "listen address")
	origins := fs.String("allowed-origins", envOr("CHESS_ALLOWED_ORIGINS", "http://localhost:5173"),
		"comma separated origins allowed for CORS and websockets")
	fs.DurationVar(&cfg.Clock, "clock", clock, "thinking time per side")
	fs.DurationVar(&cfg.MatchmakingInterval, "matchmaking-interval", interval, "how often the queue is paired")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", 10*time.Second, "grace period on shutdown")
	level := fs.String("log-level", envOr("CHESS_LOG_LEVEL", "info"), "trace, debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	for _, o := range strings.Split(*origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}
	if len(cfg.AllowedOrigins) == 0 {
		return cfg, errors.New("at least one allowed origin is required")
	}
	if cfg.Clock <= 0 {
		return cfg, errors.Errorf("clock must be positive, got %s", cfg.Clock)
	}
	if cfg.MatchmakingInterval <= 0 {
		return cfg, errors.Errorf("matchmaking interval must be positive, got %s", cfg.MatchmakingInterval)
	}
	if cfg.LogLevel, err = parseLevel(*level); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.Wrapf(err, "%s", key)
	}
	return d, nil
}

func parseLevel(s string) (log.Level, error) {
	switch strings.ToLower(s) {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "warn", "warning":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	}
	return log.LevelInfo, errors.Errorf("unknown log level %q", s)
}
