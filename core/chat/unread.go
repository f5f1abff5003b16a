package chat

import (
	"context"
	"sync"
	"time"

	"github.com/3bdulrahman-M3/Front/core"
)

// UnreadInterval is how often an UnreadWatcher polls.
const UnreadInterval = 10 * time.Second

// UnreadWatcher keeps the chat unread count of the signed in user up to date (the chat bell).
type UnreadWatcher struct {
	src       Source
	logger    core.Logger
	interval  time.Duration
	newTicker core.TickerFunc

	mu       sync.Mutex
	count    int
	onChange []func(int)
}

func NewUnreadWatcher(src Source, logger core.Logger, interval time.Duration) *UnreadWatcher {
	if interval <= 0 {
		interval = UnreadInterval
	}
	return &UnreadWatcher{src: src, logger: logger, interval: interval, newTicker: core.NewTicker}
}

// WithTicker replaces the ticker factory. Used by tests.
func (w *UnreadWatcher) WithTicker(fn core.TickerFunc) *UnreadWatcher {
	w.newTicker = fn
	return w
}

// OnChange registers fn to be called whenever the count changes.
func (w *UnreadWatcher) OnChange(fn func(count int)) {
	w.mu.Lock()
	w.onChange = append(w.onChange, fn)
	w.mu.Unlock()
}

func (w *UnreadWatcher) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

func (w *UnreadWatcher) Badge() string { return Badge(w.Count()) }

// Poll fetches the count once. Errors are logged and the previous count kept.
func (w *UnreadWatcher) Poll(ctx context.Context) error {
	n, err := w.src.UnreadCount(ctx)
	if err != nil {
		w.logger.Error("failed to fetch chat unread count", err)
		return err
	}

	w.mu.Lock()
	changed := n != w.count
	w.count = n
	fns := make([]func(int), len(w.onChange))
	copy(fns, w.onChange)
	w.mu.Unlock()

	if changed {
		publish(n, fns)
	}
	return nil
}

// Run polls immediately, then on every tick until ctx is done.
func (w *UnreadWatcher) Run(ctx context.Context) {
	_ = w.Poll(ctx)

	ticks, stop := w.newTicker(w.interval)
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			_ = w.Poll(ctx)
		}
	}
}
