package model

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// Clock is one side's chess clock. It only runs between Start and Stop.
type Clock struct {
	mu          sync.Mutex
	timeLeft    time.Duration
	lastStarted time.Time
	isRunning   bool
	now         func() time.Time
}

func NewClock(initialTime time.Duration) *Clock {
	return &Clock{
		timeLeft: initialTime,
		now:      time.Now,
	}
}

func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isRunning {
		c.lastStarted = c.now()
		c.isRunning = true
	}
}

func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isRunning {
		c.timeLeft -= c.now().Sub(c.lastStarted)
		c.isRunning = false
		log.Debugf("clock stopped with %s left", c.timeLeft)
	}
}

func (c *Clock) TimeLeft() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	left := c.timeLeft
	if c.isRunning {
		left -= c.now().Sub(c.lastStarted)
	}
	if left < 0 {
		return 0
	}
	return left
}

func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isRunning
}

// Expired reports whether the flag has fallen.
func (c *Clock) Expired() bool {
	return c.TimeLeft() <= 0
}

// tenths converts the remaining time to the client's resolution.
func (c *Clock) tenths() int {
	return int(c.TimeLeft().Milliseconds() / 100)
}
