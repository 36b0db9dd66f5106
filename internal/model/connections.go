package model

import (
	"fmt"
	"sync"

	"github.com/benbeisheim/chessmatch-backend/internal/ws"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/exp/maps"
)

// Conn is the part of a websocket connection a game writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// GameConnections holds the sockets watching one game, keyed by player ID.
// Spectators are keyed by their own player ID as well.
type GameConnections struct {
	connections map[string]Conn
	mu          sync.RWMutex
	// writeMu serializes writes; a socket allows one writer at a time.
	writeMu sync.Mutex
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		connections: make(map[string]Conn),
	}
}

// add registers conn unless playerID already has one.
func (gc *GameConnections) add(playerID string, conn Conn) bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	if _, exists := gc.connections[playerID]; exists {
		return false
	}
	gc.connections[playerID] = conn
	return true
}

// remove forgets playerID only while conn is still its registered socket.
func (gc *GameConnections) remove(playerID string, conn Conn) bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	if current, exists := gc.connections[playerID]; exists && current == conn {
		delete(gc.connections, playerID)
		return true
	}
	return false
}

func (gc *GameConnections) Count() int {
	gc.mu.RLock()
	defer gc.mu.RUnlock()
	return len(gc.connections)
}

func (gc *GameConnections) send(playerID string, msg ws.Message) error {
	gc.mu.RLock()
	conn, ok := gc.connections[playerID]
	gc.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no connection for player %s", playerID)
	}

	gc.writeMu.Lock()
	defer gc.writeMu.Unlock()
	return conn.WriteJSON(msg)
}

// broadcast writes msg to every socket and drops the ones that fail.
func (gc *GameConnections) broadcast(msg ws.Message) error {
	gc.mu.RLock()
	active := maps.Clone(gc.connections)
	gc.mu.RUnlock()

	var result *multierror.Error
	gc.writeMu.Lock()
	for playerID, conn := range active {
		if err := conn.WriteJSON(msg); err != nil {
			result = multierror.Append(result, fmt.Errorf("player %s: %w", playerID, err))
			gc.remove(playerID, conn)
		}
	}
	gc.writeMu.Unlock()
	return result.ErrorOrNil()
}

func (gc *GameConnections) closeAll(reason string) error {
	gc.mu.Lock()
	active := gc.connections
	gc.connections = make(map[string]Conn)
	gc.mu.Unlock()

	var result *multierror.Error
	gc.writeMu.Lock()
	defer gc.writeMu.Unlock()
	for playerID, conn := range active {
		_ = conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, reason),
		)
		if err := conn.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("player %s: %w", playerID, err))
		}
	}
	if len(active) > 0 {
		log.Debugf("closed %d connections: %s", len(active), reason)
	}
	return result.ErrorOrNil()
}
