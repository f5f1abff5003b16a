package notification

import (
	"context"
	"sync"
	"time"

	"github.com/3bdulrahman-M3/Front/core"
	"github.com/3bdulrahman-M3/Front/core/session"
)

// CenterInterval is the polling interval used by a Center.
const CenterInterval = 15 * time.Second

// ConnectionStatus of a Center.
type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
)

// Alerter surfaces a freshly received notification to the user (desktop popup, email, terminal bell..).
type Alerter interface {
	Alert(ctx context.Context, n Notification) error
}

// State is a snapshot of a Center.
type State struct {
	Notifications []Notification
	UnreadCount   int
	Connected     bool
	Status        ConnectionStatus
	Seq           uint64
}

// Center binds a Poller to the signed in user: it polls while a token is present
// and republishes every update as a State snapshot.
type Center struct {
	poller   *Poller
	store    session.Store
	logger   core.Logger
	alerter  Alerter
	interval time.Duration

	mu          sync.Mutex
	state       State
	unsubscribe func()
	onChange    []func(State)
	lastAlerted int
}

func NewCenter(poller *Poller, store session.Store, logger core.Logger, alerter Alerter, interval time.Duration) *Center {
	if interval <= 0 {
		interval = CenterInterval
	}
	return &Center{
		poller:   poller,
		store:    store,
		logger:   logger,
		alerter:  alerter,
		interval: interval,
		state:    State{Status: StatusDisconnected},
	}
}

// OnChange registers fn to be called with every new State. Call before Start.
func (c *Center) OnChange(fn func(State)) {
	c.mu.Lock()
	c.onChange = append(c.onChange, fn)
	c.mu.Unlock()
}

// Start begins polling if a user is signed in and reports whether it did.
func (c *Center) Start() bool {
	if !session.HasToken(c.store) {
		c.logger.Info("no token found, not starting notification polling")
		c.setStatus(StatusDisconnected, false)
		return false
	}

	c.mu.Lock()
	if c.unsubscribe != nil {
		c.mu.Unlock()
		return true
	}
	c.mu.Unlock()

	c.logger.Info("user logged in, starting notification polling")
	c.setStatus(StatusConnecting, false)

	unsubscribe := c.poller.Subscribe(c.handleUpdate)
	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()

	c.poller.StartPolling(c.interval)
	c.setStatus(StatusConnected, true)
	return true
}

// Stop unsubscribes and stops the poller.
func (c *Center) Stop() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		c.logger.Info("cleaning up notification polling")
		unsubscribe()
	}
	c.poller.StopPolling()
	c.setStatus(StatusDisconnected, false)
}

// State returns the current snapshot.
func (c *Center) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// MarkAsRead marks id read remotely, then drops it from the local list without
// waiting for the next poll. The state is left as is when the server refuses.
// The unread count is only decremented when the resync did not already drop id.
func (c *Center) MarkAsRead(ctx context.Context, id int) error {
	if err := c.poller.MarkAsRead(ctx, id); err != nil {
		return err
	}

	c.mu.Lock()
	listed := false
	kept := make([]Notification, 0, len(c.state.Notifications))
	for _, n := range c.state.Notifications {
		if n.ID == id {
			listed = listed || !n.IsRead
			continue
		}
		if !n.IsRead {
			kept = append(kept, n)
		}
	}
	c.state.Notifications = kept
	if listed {
		c.state.UnreadCount = core.Max(0, c.state.UnreadCount-1)
	}
	st, fns := c.snapshot(), c.listeners()
	c.mu.Unlock()

	c.publish(st, fns)
	return nil
}

// MarkAllAsRead marks everything read remotely, then clears the local state.
func (c *Center) MarkAllAsRead(ctx context.Context) error {
	if err := c.poller.MarkAllAsRead(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	c.state.Notifications = nil
	c.state.UnreadCount = 0
	st, fns := c.snapshot(), c.listeners()
	c.mu.Unlock()

	c.publish(st, fns)
	return nil
}

func (c *Center) handleUpdate(upd Update) {
	c.mu.Lock()
	c.state.Notifications = upd.Notifications
	c.state.UnreadCount = upd.UnreadCount
	c.state.Seq = upd.Seq
	st, fns := c.snapshot(), c.listeners()

	// only the newest one, and only once
	var alert *Notification
	if upd.UnreadCount > 0 && len(upd.Notifications) > 0 && upd.Notifications[0].ID != c.lastAlerted {
		alert = &upd.Notifications[0]
		c.lastAlerted = alert.ID
	}
	c.mu.Unlock()

	c.publish(st, fns)

	if alert != nil && c.alerter != nil {
		if err := c.alerter.Alert(context.Background(), *alert); err != nil {
			c.logger.Warn("alerting new notification", err)
		}
	}
}

func (c *Center) setStatus(status ConnectionStatus, connected bool) {
	c.mu.Lock()
	c.state.Status = status
	c.state.Connected = connected
	st, fns := c.snapshot(), c.listeners()
	c.mu.Unlock()

	c.publish(st, fns)
}

// must be called with c.mu held
func (c *Center) snapshot() State {
	st := c.state
	st.Notifications = append([]Notification(nil), c.state.Notifications...)
	return st
}

// must be called with c.mu held
func (c *Center) listeners() []func(State) {
	fns := make([]func(State), len(c.onChange))
	copy(fns, c.onChange)
	return fns
}

func (c *Center) publish(st State, fns []func(State)) {
	for _, fn := range fns {
		fn(st)
	}
}
