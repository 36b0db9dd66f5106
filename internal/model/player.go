package model

import "github.com/benbeisheim/chessmatch-backend/internal/chess"

type Player struct {
	ID string
}

type ClientPlayer struct {
	ID       string      `json:"name"`
	Color    chess.Color `json:"color"`
	TimeLeft int         `json:"timeLeft"` // tenths of a second
}

type Players struct {
	White ClientPlayer `json:"white"`
	Black ClientPlayer `json:"black"`
}

func (p *Players) seat(color chess.Color) *ClientPlayer {
	if color == chess.White {
		return &p.White
	}
	return &p.Black
}

// colorOf returns the seat playerID occupies.
func (p *Players) colorOf(playerID string) (chess.Color, bool) {
	switch {
	case playerID == "":
		return chess.White, false
	case p.White.ID == playerID:
		return chess.White, true
	case p.Black.ID == playerID:
		return chess.Black, true
	}
	return chess.White, false
}

// MatchFoundEvent tells a queued player which game and seat matchmaking assigned.
type MatchFoundEvent struct {
	GameID string      `json:"gameId"`
	Color  chess.Color `json:"color"`
}
