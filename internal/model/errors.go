package model

import "errors"

var (
	ErrGameFull      = errors.New("game is full")
	ErrNotAPlayer    = errors.New("player not in game")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrGameClosed    = errors.New("game closed")
	ErrGameFinished  = errors.New("game already finished")
	ErrTimeExpired   = errors.New("time expired")
	ErrAlreadyQueued = errors.New("player already in queue")
	ErrNotStarted    = errors.New("waiting for an opponent")
)
