package service

import "github.com/pkg/errors"

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameExists   = errors.New("game already exists")
	ErrShuttingDown = errors.New("server shutting down")
)
