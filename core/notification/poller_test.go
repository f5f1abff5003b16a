package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3bdulrahman-M3/Front/core"
	"github.com/3bdulrahman-M3/Front/core/session"
	"github.com/3bdulrahman-M3/Front/storage/keystore"
)

const waitFor = time.Second

// fakeSource serves an in-memory feed and counts fetches.
type fakeSource struct {
	mu      sync.Mutex
	unread  []Notification
	err     error
	fetches int
}

var _ Source = (*fakeSource)(nil)

func (src *fakeSource) RecentNotifications(context.Context) (Feed, error) {
	src.mu.Lock()
	defer src.mu.Unlock()
	src.fetches++
	if src.err != nil {
		return Feed{}, src.err
	}
	ns := append([]Notification{}, src.unread...)
	return Feed{Notifications: ns, UnreadCount: len(ns), Timestamp: time.Now().UTC().Format(time.RFC3339Nano)}, nil
}

func (src *fakeSource) MarkNotificationRead(_ context.Context, id int) error {
	src.mu.Lock()
	defer src.mu.Unlock()
	for i, n := range src.unread {
		if n.ID == id {
			src.unread = append(src.unread[:i], src.unread[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (src *fakeSource) MarkAllNotificationsRead(context.Context) error {
	src.mu.Lock()
	src.unread = nil
	src.mu.Unlock()
	return nil
}

func (src *fakeSource) setErr(err error) {
	src.mu.Lock()
	src.err = err
	src.mu.Unlock()
}

func (src *fakeSource) fetchCount() int {
	src.mu.Lock()
	defer src.mu.Unlock()
	return src.fetches
}

// fakeTicker hands out a single channel the test ticks by hand.
type fakeTicker struct {
	mu      sync.Mutex
	ch      chan time.Time
	started int
	stopped int
}

func newFakeTicker() *fakeTicker { return &fakeTicker{ch: make(chan time.Time, 1)} }

func (ft *fakeTicker) new(time.Duration) (<-chan time.Time, func()) {
	ft.mu.Lock()
	ft.started++
	ft.mu.Unlock()
	return ft.ch, func() {
		ft.mu.Lock()
		ft.stopped++
		ft.mu.Unlock()
	}
}

func (ft *fakeTicker) tick() {
	select {
	case ft.ch <- time.Now():
	default:
	}
}

func (ft *fakeTicker) counts() (started, stopped int) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.started, ft.stopped
}

func signedIn(t *testing.T) session.Store {
	store := keystore.NewMemory()
	require.NoError(t, session.SaveLogin(store, "token", "", &session.User{ID: 1, Name: "Amina"}))
	return store
}

func unreadNotifs(ids ...int) []Notification {
	ns := make([]Notification, 0, len(ids))
	for _, id := range ids {
		ns = append(ns, Notification{ID: id, Title: "title", Message: "message", Type: TypeInfo})
	}
	return ns
}

// collect subscribes to p and forwards every update to the returned channel.
func collect(p *Poller) (<-chan Update, func()) {
	updates := make(chan Update, 16)
	unsubscribe := p.Subscribe(func(upd Update) { updates <- upd })
	return updates, unsubscribe
}

func next(t *testing.T, updates <-chan Update) Update {
	t.Helper()
	select {
	case upd := <-updates:
		return upd
	case <-time.After(waitFor):
		t.Fatal("no update received")
		return Update{}
	}
}

func TestPoller_StartPollingTwiceKeepsOneSchedule(t *testing.T) {
	src := &fakeSource{unread: unreadNotifs(1)}
	ticker := newFakeTicker()
	p := NewPoller(src, signedIn(t), core.NopLogger{}).WithTicker(ticker.new)
	updates, _ := collect(p)

	p.StartPolling(time.Minute)
	p.StartPolling(time.Minute)
	defer p.StopPolling()

	upd := next(t, updates)
	assert.Equal(t, 1, upd.UnreadCount)
	assert.True(t, p.IsActive())
	assert.NotEmpty(t, p.LastFetch())

	assert.Never(t, func() bool { return src.fetchCount() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
	started, _ := ticker.counts()
	assert.Equal(t, 1, started)

	ticker.tick()
	next(t, updates)
	assert.Equal(t, 2, src.fetchCount())
}

func TestPoller_UnauthorizedStopsPolling(t *testing.T) {
	src := &fakeSource{}
	src.setErr(errors.Wrap(core.ErrUnauthorized, "http 401"))
	ticker := newFakeTicker()
	p := NewPoller(src, signedIn(t), core.NopLogger{}).WithTicker(ticker.new)

	p.StartPolling(time.Minute)
	assert.Eventually(t, func() bool { return !p.IsActive() }, waitFor, 5*time.Millisecond)
	assert.Eventually(t, func() bool { _, stopped := ticker.counts(); return stopped == 1 }, waitFor, 5*time.Millisecond)

	ticker.tick()
	assert.Never(t, func() bool { return src.fetchCount() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestPoller_OtherErrorsKeepPolling(t *testing.T) {
	src := &fakeSource{}
	src.setErr(errors.New("connection refused"))
	ticker := newFakeTicker()
	p := NewPoller(src, signedIn(t), core.NopLogger{}).WithTicker(ticker.new)
	updates, _ := collect(p)

	p.StartPolling(time.Minute)
	defer p.StopPolling()
	assert.Eventually(t, func() bool { return src.fetchCount() == 1 }, waitFor, 5*time.Millisecond)
	assert.True(t, p.IsActive())

	src.setErr(nil)
	ticker.tick()
	upd := next(t, updates)
	assert.Equal(t, 0, upd.UnreadCount)
	assert.Equal(t, uint64(1), upd.Seq)
}

func TestPoller_NoTokenStopsPolling(t *testing.T) {
	src := &fakeSource{}
	p := NewPoller(src, keystore.NewMemory(), core.NopLogger{}).WithTicker(newFakeTicker().new)

	p.StartPolling(time.Minute)
	assert.Eventually(t, func() bool { return !p.IsActive() }, waitFor, 5*time.Millisecond)
	assert.Equal(t, 0, src.fetchCount())
}

func TestPoller_UnsubscribedNeverInvoked(t *testing.T) {
	src := &fakeSource{unread: unreadNotifs(1, 2)}
	p := NewPoller(src, signedIn(t), core.NopLogger{}).WithTicker(newFakeTicker().new)

	var called bool
	unsubscribe := p.Subscribe(func(Update) { called = true })
	unsubscribe()
	unsubscribe() // idempotent

	updates, _ := collect(p)
	p.StartPolling(time.Minute)
	defer p.StopPolling()

	next(t, updates)
	assert.False(t, called)
}

func TestPoller_MarkAllAsReadDeliversZero(t *testing.T) {
	src := &fakeSource{unread: unreadNotifs(1, 2, 3)}
	ticker := newFakeTicker()
	p := NewPoller(src, signedIn(t), core.NopLogger{}).WithTicker(ticker.new)
	updates, _ := collect(p)

	p.StartPolling(time.Minute)
	defer p.StopPolling()
	first := next(t, updates)
	assert.Equal(t, 3, first.UnreadCount)

	require.NoError(t, p.MarkAllAsRead(context.Background()))
	cleared := next(t, updates)
	assert.Equal(t, 0, cleared.UnreadCount)
	assert.Empty(t, cleared.Notifications)
	assert.Greater(t, cleared.Seq, first.Seq)

	// nothing changed: the next cycle is not delivered
	ticker.tick()
	assert.Eventually(t, func() bool { return src.fetchCount() == 3 }, waitFor, 5*time.Millisecond)
	select {
	case upd := <-updates:
		t.Fatalf("unexpected update: %+v", upd)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPoller_MarkAsRead(t *testing.T) {
	src := &fakeSource{unread: unreadNotifs(1, 2)}
	p := NewPoller(src, signedIn(t), core.NopLogger{})
	updates, _ := collect(p)

	require.NoError(t, p.MarkAsRead(context.Background(), 1))
	upd := next(t, updates)
	assert.Equal(t, 1, upd.UnreadCount)
	assert.Equal(t, 2, upd.Notifications[0].ID)

	err := p.MarkAsRead(context.Background(), 42)
	assert.True(t, core.IsNotFound(err))
	assert.Equal(t, 1, src.fetchCount())
}

func TestPoller_StaleResponseDropped(t *testing.T) {
	p := NewPoller(&fakeSource{}, signedIn(t), core.NopLogger{})
	updates, _ := collect(p)

	p.deliver(2, Feed{UnreadCount: 2, Notifications: unreadNotifs(1, 2)})
	p.deliver(1, Feed{UnreadCount: 5, Notifications: unreadNotifs(1, 2, 3, 4, 5)})

	upd := next(t, updates)
	assert.Equal(t, 2, upd.UnreadCount)
	assert.Len(t, updates, 0)
}

func TestPoller_shouldNotify(t *testing.T) {
	tests := []struct {
		name       string
		fetched    bool
		lastUnread int
		unread     int
		want       bool
	}{
		{name: "first fetch, nothing unread", fetched: false, unread: 0, want: true},
		{name: "unread", fetched: true, lastUnread: 2, unread: 2, want: true},
		{name: "still nothing unread", fetched: true, lastUnread: 0, unread: 0, want: false},
		{name: "dropped to zero", fetched: true, lastUnread: 3, unread: 0, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Poller{fetched: tt.fetched, lastUnread: tt.lastUnread}
			assert.Equal(t, tt.want, p.shouldNotify(Feed{UnreadCount: tt.unread}))
		})
	}
}
