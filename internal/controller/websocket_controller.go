package controller

import (
	"encoding/json"
	"fmt"

	"github.com/benbeisheim/chessmatch-backend/internal/model"
	"github.com/benbeisheim/chessmatch-backend/internal/service"
	"github.com/benbeisheim/chessmatch-backend/internal/ws"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"
	"github.com/pkg/errors"
)

type WebSocketController struct {
	gameService *service.GameService
}

func NewWebSocketController(gameService *service.GameService) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
	}
}

// HandleConnection is called when a new WebSocket connection is established
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	gameID := c.Params("gameId")
	playerID, _ := c.Locals("playerID").(string)

	if err := wsc.gameService.RegisterConnection(gameID, playerID, c); err != nil {
		log.Warnf("failed to register connection: %v", err)
		writeError(c, err)
		c.Close()
		return
	}
	defer wsc.gameService.UnregisterConnection(gameID, playerID, c)

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			log.Debugf("game %s: %s disconnected: %v", gameID, playerID, err)
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		if reply := wsc.process(gameID, playerID, message); reply != nil {
			wsc.reply(gameID, playerID, *reply)
		}
	}
}

// process decodes one raw frame and returns the direct answer, if any. Failures are
// answered with an error message.
func (wsc *WebSocketController) process(gameID, playerID string, raw []byte) *ws.Message {
	var msg ws.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return errorMessage(errors.Wrap(err, "malformed message"))
	}
	reply, err := wsc.handleMessage(gameID, playerID, msg)
	if err != nil {
		log.Debugf("game %s: %s: %v", gameID, playerID, err)
		return errorMessage(err)
	}
	return reply
}

// handleMessage applies one client message. Game state changes are broadcast by the
// game itself; only direct answers are returned.
func (wsc *WebSocketController) handleMessage(gameID, playerID string, msg ws.Message) (*ws.Message, error) {
	switch msg.Type {
	case ws.MessageTypeMove:
		var move model.MoveRequest
		if err := json.Unmarshal(msg.Payload, &move); err != nil {
			return nil, errors.Wrap(err, "invalid move")
		}
		return nil, wsc.gameService.HandleMove(gameID, playerID, move)

	case ws.MessageTypePromote:
		var req model.PromotionRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return nil, errors.Wrap(err, "invalid promotion")
		}
		if err := promotable(req.Piece); err != nil {
			return nil, err
		}
		return nil, wsc.gameService.HandlePromotion(gameID, playerID, req.Piece)

	case ws.MessageTypePossibleMoves:
		var req ws.PossibleMovesRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return nil, errors.Wrap(err, "invalid request")
		}
		targets, err := wsc.gameService.PossibleMoves(gameID, req.Square)
		if err != nil {
			return nil, err
		}
		resp := ws.PossibleMovesResponse{Square: req.Square, Targets: make([]string, 0, len(targets))}
		for _, sq := range targets {
			resp.Targets = append(resp.Targets, sq.String())
		}
		reply, err := ws.NewMessage(ws.MessageTypePossibleMoves, resp)
		return &reply, err

	case ws.MessageTypeResign:
		return nil, wsc.gameService.Resign(gameID, playerID)

	default:
		return nil, fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

func (wsc *WebSocketController) reply(gameID, playerID string, msg ws.Message) {
	if err := wsc.gameService.SendToPlayer(gameID, playerID, msg); err != nil {
		log.Warnf("game %s: reply to %s: %v", gameID, playerID, err)
	}
}

// HandleMatchmaking queues the player and holds the socket open until a match is
// found or the client goes away.
func (wsc *WebSocketController) HandleMatchmaking(c *websocket.Conn) {
	playerID, _ := c.Locals("playerID").(string)

	ch := make(chan model.MatchFoundEvent, 1)
	if err := wsc.gameService.RegisterMatchmakingChannel(playerID, ch); err != nil {
		writeError(c, err)
		return
	}
	defer wsc.gameService.UnregisterMatchmakingChannel(playerID, ch)

	if err := wsc.gameService.JoinMatchmaking(playerID); err != nil && !errors.Is(err, model.ErrAlreadyQueued) {
		writeError(c, err)
		return
	}
	writeMessage(c, ws.MessageTypeQueued, map[string]string{"playerId": playerID})

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case event, ok := <-ch:
		if ok {
			writeMessage(c, ws.MessageTypeMatchFound, event)
		}
	case <-gone:
		wsc.gameService.LeaveMatchmaking(playerID)
		log.Debugf("matchmaking: %s left the queue", playerID)
	}
}

func errorMessage(err error) *ws.Message {
	msg, encodeErr := ws.NewMessage(ws.MessageTypeError, ws.ErrorPayload{Error: err.Error()})
	if encodeErr != nil {
		return &ws.Message{Type: ws.MessageTypeError}
	}
	return &msg
}

func writeError(c *websocket.Conn, err error) {
	if writeErr := c.WriteJSON(errorMessage(err)); writeErr != nil {
		log.Debugf("write error message: %v", writeErr)
	}
}

func writeMessage(c *websocket.Conn, t ws.MessageType, payload interface{}) {
	msg, err := ws.NewMessage(t, payload)
	if err != nil {
		log.Errorf("encode %s message: %v", t, err)
		return
	}
	if err := c.WriteJSON(msg); err != nil {
		log.Debugf("write %s message: %v", t, err)
	}
}
