package ws

import (
	"encoding/json"
)

// MessageType represents the different kinds of messages our system can handle
type MessageType string

const (
	MessageTypeMove          MessageType = "move"
	MessageTypePromote       MessageType = "promote"
	MessageTypePossibleMoves MessageType = "possibleMoves"
	MessageTypeGameState     MessageType = "gameState"
	MessageTypeResign        MessageType = "resign"
	MessageTypeQueued        MessageType = "queued"
	MessageTypeMatchFound    MessageType = "matchFound"
	MessageTypeError         MessageType = "error"
)

// Message represents a WebSocket message in our system
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewMessage encodes payload into a message of type t.
func NewMessage(t MessageType, payload interface{}) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: t, Payload: raw}, nil
}

// PossibleMovesRequest asks for the legal targets of the piece on Square.
type PossibleMovesRequest struct {
	Square string `json:"square"`
}

type PossibleMovesResponse struct {
	Square  string   `json:"square"`
	Targets []string `json:"targets"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}
