package model

import (
	"github.com/benbeisheim/chessmatch-backend/internal/chess"
	"github.com/benbeisheim/chessmatch-backend/internal/grid"
)

type BoardState struct {
	Board             [][]*chess.PieceTag `json:"board"`
	BlackKingPosition chess.Square        `json:"blackKingPosition"`
	WhiteKingPosition chess.Square        `json:"whiteKingPosition"`
}

func newBoardState(m *chess.Match) *BoardState {
	board := &BoardState{Board: m.Pieces()}
	for r, row := range board.Board {
		for c, tag := range row {
			if tag == nil || tag.Type != chess.King {
				continue
			}
			sq := chess.SquareOf(grid.Cell{Row: r, Column: c})
			if tag.Color == chess.White {
				board.WhiteKingPosition = sq
			} else {
				board.BlackKingPosition = sq
			}
		}
	}
	return board
}

type CapturedPieces struct {
	White []chess.PieceTag `json:"white"`
	Black []chess.PieceTag `json:"black"`
}

// newCapturedPieces groups captures by the side that made them.
func newCapturedPieces(captured []*chess.Piece) CapturedPieces {
	out := CapturedPieces{
		White: make([]chess.PieceTag, 0),
		Black: make([]chess.PieceTag, 0),
	}
	for _, p := range captured {
		if p.Color() == chess.Black {
			out.White = append(out.White, p.Tag())
		} else {
			out.Black = append(out.Black, p.Tag())
		}
	}
	return out
}

// enPassantTarget is the square a capturing pawn lands on, behind the vulnerable pawn.
func enPassantTarget(p *chess.Piece) *chess.Square {
	if p == nil {
		return nil
	}
	sq, ok := p.Square()
	if !ok {
		return nil
	}
	if p.Color() == chess.White {
		sq.Rank--
	} else {
		sq.Rank++
	}
	return &sq
}
