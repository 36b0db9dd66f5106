// service/game_manager.go
package service

import (
	"context"
	"sync"
	"time"

	"github.com/benbeisheim/chessmatch-backend/internal/model"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const DefaultMatchmakingInterval = time.Second

type Options struct {
	// Clock is each side's thinking time in new games.
	Clock time.Duration
	// MatchmakingInterval is how often the queue is paired off. Zero disables the
	// background processor; Match can still be called directly.
	MatchmakingInterval time.Duration
}

// GameManager owns every live game and the matchmaking queue.
type GameManager struct {
	games            map[string]*model.Game
	queue            *model.Queue
	matchingChannels map[string]chan model.MatchFoundEvent
	// assigned keeps the latest match per player for clients that poll instead of
	// listening on a socket.
	assigned map[string]model.MatchFoundEvent
	clock    time.Duration
	closed   bool
	mu       sync.RWMutex

	cancel context.CancelFunc
	done   chan struct{}
}

func NewGameManager(ctx context.Context, opts Options) *GameManager {
	ctx, cancel := context.WithCancel(ctx)
	gm := &GameManager{
		games:            make(map[string]*model.Game),
		queue:            model.NewQueue(),
		matchingChannels: make(map[string]chan model.MatchFoundEvent),
		assigned:         make(map[string]model.MatchFoundEvent),
		clock:            opts.Clock,
		cancel:           cancel,
		done:             make(chan struct{}),
	}

	if opts.MatchmakingInterval > 0 {
		go gm.processMatchmaking(ctx, opts.MatchmakingInterval)
	} else {
		close(gm.done)
	}
	return gm
}

func (gm *GameManager) processMatchmaking(ctx context.Context, interval time.Duration) {
	defer close(gm.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("matchmaking stopped")
			return
		case <-ticker.C:
			gm.Match()
		}
	}
}

// Match pairs queued players into new games, oldest first, and returns the games made.
func (gm *GameManager) Match() []*model.Game {
	var created []*model.Game
	for {
		p1, p2, ok := gm.queue.NextPair()
		if !ok {
			return created
		}
		game := model.NewGame(uuid.New().String(), gm.clock)
		c1, err := game.AddPlayer(p1.ID)
		if err != nil {
			log.Errorf("matchmaking: seat %s: %v", p1.ID, err)
			continue
		}
		c2, err := game.AddPlayer(p2.ID)
		if err != nil {
			log.Errorf("matchmaking: seat %s: %v", p2.ID, err)
			continue
		}

		gm.mu.Lock()
		if gm.closed {
			gm.mu.Unlock()
			return created
		}
		gm.games[game.ID] = game
		gm.notifyLocked(p1.ID, model.MatchFoundEvent{GameID: game.ID, Color: c1})
		gm.notifyLocked(p2.ID, model.MatchFoundEvent{GameID: game.ID, Color: c2})
		gm.mu.Unlock()

		log.Infof("matchmaking: %s vs %s in game %s", p1.ID, p2.ID, game.ID)
		created = append(created, game)
	}
}

// notifyLocked records the event and hands it to the player's channel, which is then
// closed and forgotten.
func (gm *GameManager) notifyLocked(playerID string, event model.MatchFoundEvent) {
	gm.assigned[playerID] = event
	ch, ok := gm.matchingChannels[playerID]
	if !ok {
		return
	}
	delete(gm.matchingChannels, playerID)
	select {
	case ch <- event:
	default:
		log.Warnf("matchmaking: channel for %s is full", playerID)
	}
	close(ch)
}

// RegisterMatchmakingChannel installs ch as playerID's notification channel. The manager
// closes it after delivering one event; a replaced channel is closed immediately.
func (gm *GameManager) RegisterMatchmakingChannel(playerID string, ch chan model.MatchFoundEvent) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if gm.closed {
		return ErrShuttingDown
	}
	if existing, ok := gm.matchingChannels[playerID]; ok {
		delete(gm.matchingChannels, playerID)
		close(existing)
	}
	gm.matchingChannels[playerID] = ch
	return nil
}

// UnregisterMatchmakingChannel forgets ch if it is still playerID's channel. It does
// not close it.
func (gm *GameManager) UnregisterMatchmakingChannel(playerID string, ch chan model.MatchFoundEvent) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if current, ok := gm.matchingChannels[playerID]; ok && current == ch {
		delete(gm.matchingChannels, playerID)
	}
}

func (gm *GameManager) JoinMatchmaking(playerID string) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if gm.closed {
		return ErrShuttingDown
	}
	delete(gm.assigned, playerID)
	if err := gm.queue.AddPlayer(model.Player{ID: playerID}); err != nil {
		return errors.Wrapf(err, "queue %s", playerID)
	}
	return nil
}

func (gm *GameManager) LeaveMatchmaking(playerID string) bool {
	return gm.queue.RemovePlayer(playerID)
}

// MatchFor returns the game matchmaking last assigned to playerID.
func (gm *GameManager) MatchFor(playerID string) (model.MatchFoundEvent, bool) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	event, ok := gm.assigned[playerID]
	return event, ok
}

func (gm *GameManager) QueueSize() int {
	return gm.queue.Size()
}

func (gm *GameManager) CreateGame(gameID string) (*model.Game, error) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if gm.closed {
		return nil, ErrShuttingDown
	}
	if _, exists := gm.games[gameID]; exists {
		return nil, errors.Wrapf(ErrGameExists, "game %s", gameID)
	}
	game := model.NewGame(gameID, gm.clock)
	gm.games[gameID] = game
	return game, nil
}

func (gm *GameManager) GetGame(gameID string) (*model.Game, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	game, exists := gm.games[gameID]
	if !exists {
		return nil, errors.Wrapf(ErrGameNotFound, "game %s", gameID)
	}
	return game, nil
}

// RemoveGame closes the game and drops it from the registry.
func (gm *GameManager) RemoveGame(gameID string) error {
	gm.mu.Lock()
	game, exists := gm.games[gameID]
	delete(gm.games, gameID)
	gm.mu.Unlock()

	if !exists {
		return errors.Wrapf(ErrGameNotFound, "game %s", gameID)
	}
	return game.Close()
}

// ListGames summarizes every game, newest first.
func (gm *GameManager) ListGames() []model.GameSummary {
	gm.mu.RLock()
	games := maps.Values(gm.games)
	gm.mu.RUnlock()

	summaries := make([]model.GameSummary, 0, len(games))
	for _, game := range games {
		summaries = append(summaries, game.Summary())
	}
	slices.SortFunc(summaries, func(a, b model.GameSummary) bool {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return summaries
}

// Shutdown stops matchmaking, closes every pending matchmaking channel and every game.
// It returns early with ctx's error if the processor does not stop in time.
func (gm *GameManager) Shutdown(ctx context.Context) error {
	gm.cancel()
	select {
	case <-gm.done:
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "waiting for matchmaking to stop")
	}

	gm.mu.Lock()
	gm.closed = true
	games := maps.Values(gm.games)
	for playerID, ch := range gm.matchingChannels {
		delete(gm.matchingChannels, playerID)
		close(ch)
	}
	gm.mu.Unlock()

	var result *multierror.Error
	for _, game := range games {
		if err := game.Close(); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "close game %s", game.ID))
		}
	}
	log.Infof("closed %d games", len(games))
	return result.ErrorOrNil()
}
