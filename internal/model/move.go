package model

import (
	"strings"

	"github.com/benbeisheim/chessmatch-backend/internal/chess"
)

// MoveRequest is a move as sent by a client. Promotion is optional and defaults to a queen.
type MoveRequest struct {
	From      chess.Square `json:"from"`
	To        chess.Square `json:"to"`
	Promotion chess.Kind   `json:"promotion,omitempty"`
}

type PromotionRequest struct {
	Piece chess.Kind `json:"piece"`
}

type CastleRookMove struct {
	From chess.Square `json:"from"`
	To   chess.Square `json:"to"`
}

type Ply struct {
	Piece          chess.PieceTag  `json:"piece"`
	From           chess.Square    `json:"from"`
	To             chess.Square    `json:"to"`
	CapturedPiece  *chess.PieceTag `json:"capturedPiece"`
	CastleRookMove *CastleRookMove `json:"castleRookMove"`
	Promotion      chess.Kind      `json:"promotion,omitempty"`
	Notation       string          `json:"notation"`
}

// Move pairs White's ply with Black's reply. BlackPly is zero until Black has moved.
type Move struct {
	Number   int `json:"number"`
	WhitePly Ply `json:"whitePly"`
	BlackPly Ply `json:"blackPly"`
}

// castleRookMove returns the rook relocation for a king moving two files, or nil.
func castleRookMove(kind chess.Kind, from, to chess.Square) *CastleRookMove {
	if kind != chess.King {
		return nil
	}
	switch int(to.File) - int(from.File) {
	case 2:
		return &CastleRookMove{
			From: chess.Square{File: 'h', Rank: from.Rank},
			To:   chess.Square{File: 'f', Rank: from.Rank},
		}
	case -2:
		return &CastleRookMove{
			From: chess.Square{File: 'a', Rank: from.Rank},
			To:   chess.Square{File: 'd', Rank: from.Rank},
		}
	}
	return nil
}

// annotate writes the short algebraic notation of the ply. Ambiguous moves are not
// disambiguated.
func (p *Ply) annotate(check, mate bool) {
	var b strings.Builder
	switch {
	case p.CastleRookMove != nil && p.To.File == 'g':
		b.WriteString("O-O")
	case p.CastleRookMove != nil:
		b.WriteString("O-O-O")
	default:
		b.WriteString(p.Piece.Type.Letter())
		if p.CapturedPiece != nil {
			if p.Piece.Type == chess.Pawn {
				b.WriteByte(p.From.File)
			}
			b.WriteByte('x')
		}
		b.WriteString(p.To.String())
		if p.Promotion != "" {
			b.WriteString("=" + p.Promotion.Letter())
		}
	}
	switch {
	case mate:
		b.WriteByte('#')
	case check:
		b.WriteByte('+')
	}
	p.Notation = b.String()
}
