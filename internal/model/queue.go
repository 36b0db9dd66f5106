package model

import (
	"sync"
	"time"

	"golang.org/x/exp/slices"
)

type QueuedPlayer struct {
	Player   Player
	JoinedAt time.Time
}

// Queue is the matchmaking FIFO.
type Queue struct {
	players []QueuedPlayer
	mu      sync.Mutex
}

func NewQueue() *Queue {
	return &Queue{
		players: []QueuedPlayer{},
	}
}

func (q *Queue) AddPlayer(player Player) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.indexOf(player.ID) >= 0 {
		return ErrAlreadyQueued
	}
	q.players = append(q.players, QueuedPlayer{
		Player:   player,
		JoinedAt: time.Now(),
	})
	return nil
}

// RemovePlayer drops playerID from the queue and reports whether it was waiting.
func (q *Queue) RemovePlayer(playerID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.indexOf(playerID)
	if i < 0 {
		return false
	}
	q.players = slices.Delete(q.players, i, i+1)
	return true
}

// NextPair pops the two players who have waited longest. ok is false when fewer than
// two are queued.
func (q *Queue) NextPair() (p1, p2 Player, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.players) < 2 {
		return Player{}, Player{}, false
	}
	p1, p2 = q.players[0].Player, q.players[1].Player
	q.players = q.players[2:]
	return p1, p2, true
}

func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.players)
}

func (q *Queue) indexOf(playerID string) int {
	return slices.IndexFunc(q.players, func(qp QueuedPlayer) bool {
		return qp.Player.ID == playerID
	})
}
