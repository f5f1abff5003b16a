package chat

import (
	"context"
	"sync"
	"time"

	"github.com/3bdulrahman-M3/Front/core"
)

// DefaultIdleAfter is how long without activity before a user is considered idle.
const DefaultIdleAfter = 2 * time.Minute

// ActivityTracker keeps a coarse "user is active" flag.
// Touch is called on every user input; the flag only drops to idle on Check.
type ActivityTracker struct {
	idleAfter time.Duration

	mu     sync.Mutex
	last   time.Time
	active bool
}

func NewActivityTracker(idleAfter time.Duration) *ActivityTracker {
	if idleAfter <= 0 {
		idleAfter = DefaultIdleAfter
	}
	return &ActivityTracker{idleAfter: idleAfter, last: nowFunc(), active: true}
}

// Touch records user activity.
func (t *ActivityTracker) Touch() {
	t.mu.Lock()
	t.last = nowFunc()
	t.active = true
	t.mu.Unlock()
}

// Check recomputes the flag and returns it.
func (t *ActivityTracker) Check() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = nowFunc().Sub(t.last) < t.idleAfter
	return t.active
}

func (t *ActivityTracker) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Run calls Check on every tick until ctx is done.
func (t *ActivityTracker) Run(ctx context.Context, every time.Duration, newTicker core.TickerFunc) {
	if newTicker == nil {
		newTicker = core.NewTicker
	}
	ticks, stop := newTicker(every)
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			t.Check()
		}
	}
}
