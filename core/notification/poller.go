package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/3bdulrahman-M3/Front/core"
	"github.com/3bdulrahman-M3/Front/core/session"
)

// DefaultInterval is used when StartPolling is given a non positive interval.
const DefaultInterval = 30 * time.Second

var pollsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "edplatform_notification_polls_total",
		Help: "Notification fetches by outcome",
	},
	[]string{"outcome"}, // delivered, suppressed, stale, error, unauthorized, signed_out
)

type (
	// Source is the remote end of the notifications feed.
	Source interface {
		RecentNotifications(ctx context.Context) (Feed, error)
		MarkNotificationRead(ctx context.Context, id int) error
		MarkAllNotificationsRead(ctx context.Context) error
	}

	subscriber struct {
		fn func(Update)
	}
)

// Poller keeps a single periodic fetch loop of the signed in user's notifications
// and broadcasts the results to its subscribers.
type Poller struct {
	src       Source
	store     session.Store
	logger    core.Logger
	newTicker core.TickerFunc

	mu         sync.Mutex
	subs       []*subscriber
	active     bool
	stop       context.CancelFunc
	fetched    bool
	lastFetch  string
	lastUnread int
	seq        uint64 // delivered updates
	reqs       uint64 // started fetches
	latestReq  uint64 // most recent fetch whose response was handled
}

func NewPoller(src Source, store session.Store, logger core.Logger) *Poller {
	return &Poller{src: src, store: store, logger: logger, newTicker: core.NewTicker}
}

// WithTicker replaces the ticker factory. Used by tests.
func (p *Poller) WithTicker(fn core.TickerFunc) *Poller {
	p.newTicker = fn
	return p
}

// StartPolling fetches immediately and then every interval, until StopPolling.
// It is a no-op while polling is already active.
func (p *Poller) StartPolling(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	p.mu.Lock()
	if p.active {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.active = true
	p.stop = cancel
	p.mu.Unlock()

	p.logger.Info(fmt.Sprintf("starting notification polling every %s", interval))

	ticks, stopTicker := p.newTicker(interval)
	go p.loop(ctx, ticks, stopTicker)
}

func (p *Poller) loop(ctx context.Context, ticks <-chan time.Time, stopTicker func()) {
	defer stopTicker()

	p.fetch(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			p.fetch(ctx)
		}
	}
}

// StopPolling cancels the loop and any fetch it has in flight. Safe to call when not active.
func (p *Poller) StopPolling() {
	p.mu.Lock()
	wasActive := p.active
	if p.stop != nil {
		p.stop()
		p.stop = nil
	}
	p.active = false
	p.mu.Unlock()

	if wasActive {
		p.logger.Info("stopped notification polling")
	}
}

// IsActive reports whether the polling loop is running.
func (p *Poller) IsActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// LastFetch returns the server timestamp of the last successful fetch.
func (p *Poller) LastFetch() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastFetch
}

// Subscribe registers fn for updates. The returned func removes it;
// a fetch started after that call never invokes fn.
func (p *Poller) Subscribe(fn func(Update)) (unsubscribe func()) {
	sub := &subscriber{fn: fn}

	p.mu.Lock()
	p.subs = append(p.subs, sub)
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			for i, s := range p.subs {
				if s == sub {
					p.subs = append(p.subs[:i:i], p.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// MarkAsRead marks one notification as read, then fetches again to resync.
func (p *Poller) MarkAsRead(ctx context.Context, id int) error {
	if err := p.src.MarkNotificationRead(ctx, id); err != nil {
		p.logger.Error(fmt.Sprintf("failed to mark notification %d as read", id), err)
		return errors.Wrapf(err, "marking notification %d as read", id)
	}
	p.logger.Debug(fmt.Sprintf("notification %d marked as read", id))

	p.fetch(ctx)
	return nil
}

// MarkAllAsRead marks every notification as read, then fetches again to resync.
func (p *Poller) MarkAllAsRead(ctx context.Context) error {
	if err := p.src.MarkAllNotificationsRead(ctx); err != nil {
		p.logger.Error("failed to mark all notifications as read", err)
		return errors.Wrap(err, "marking all notifications as read")
	}
	p.logger.Debug("all notifications marked as read")

	p.fetch(ctx)
	return nil
}

func (p *Poller) fetch(ctx context.Context) {
	if !session.HasToken(p.store) {
		pollsTotal.WithLabelValues("signed_out").Inc()
		p.logger.Info("no token found, stopping notification polling")
		p.StopPolling()
		return
	}

	p.mu.Lock()
	p.reqs++
	req := p.reqs
	p.mu.Unlock()

	feed, err := p.src.RecentNotifications(ctx)
	if ctx.Err() != nil {
		// stopped while in flight
		return
	}
	if err != nil {
		if core.IsUnauthorized(err) {
			pollsTotal.WithLabelValues("unauthorized").Inc()
			p.logger.Warn("unauthorized, stopping notification polling", err)
			p.StopPolling()
			return
		}
		pollsTotal.WithLabelValues("error").Inc()
		p.logger.Error("failed to fetch notifications", err)
		return
	}

	p.deliver(req, feed)
}

func (p *Poller) deliver(req uint64, feed Feed) {
	p.mu.Lock()
	if req < p.latestReq {
		// a fetch started later already answered
		p.mu.Unlock()
		pollsTotal.WithLabelValues("stale").Inc()
		return
	}
	p.latestReq = req

	notify := p.shouldNotify(feed)
	p.fetched = true
	p.lastFetch = feed.Timestamp

	var (
		upd  Update
		subs []*subscriber
	)
	if notify {
		p.seq++
		p.lastUnread = feed.UnreadCount
		upd = Update{Feed: feed, Seq: p.seq}
		subs = make([]*subscriber, len(p.subs))
		copy(subs, p.subs)
	}
	p.mu.Unlock()

	if !notify {
		pollsTotal.WithLabelValues("suppressed").Inc()
		return
	}
	pollsTotal.WithLabelValues("delivered").Inc()
	if feed.UnreadCount > 0 {
		p.logger.Debug(fmt.Sprintf("new notifications received: %d unread", feed.UnreadCount))
	}
	for _, s := range subs {
		s.fn(upd)
	}
}

// shouldNotify: always on the first fetch, whenever something is unread,
// and whenever the unread count moved since the last delivered update (eg. down to zero).
// Must be called with p.mu held.
func (p *Poller) shouldNotify(feed Feed) bool {
	if !p.fetched {
		return true
	}
	return feed.UnreadCount > 0 || feed.UnreadCount != p.lastUnread
}
