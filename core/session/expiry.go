package session

import (
	"sync"
	"time"

	"github.com/3bdulrahman-M3/Front/core"
)

// SuppressFor is how long duplicate expiry handling is suppressed after a session expired.
const SuppressFor = time.Second

var nowFunc = time.Now // mockable

// ExpiryGuard turns rejected authenticated requests into a forced sign out.
type ExpiryGuard struct {
	store     Store
	logger    core.Logger
	onExpired func(msg string)

	mu       sync.Mutex
	handling time.Time // zero when not handling
}

// NewExpiryGuard returns a guard clearing credentials from store.
// onExpired, if not nil, is called once per expiry (the "redirect to login").
func NewExpiryGuard(store Store, logger core.Logger, onExpired func(msg string)) *ExpiryGuard {
	return &ExpiryGuard{store: store, logger: logger, onExpired: onExpired}
}

// HandleUnauthorized is called for every 401 response.
// It only treats it as an expired session when the request carried a bearer credential,
// a token is still stored and no other expiry was handled within SuppressFor.
// It reports whether the session was cleared.
func (g *ExpiryGuard) HandleUnauthorized(hadAuthHeader bool) bool {
	if !hadAuthHeader || !HasToken(g.store) {
		return false
	}

	g.mu.Lock()
	now := nowFunc()
	if !g.handling.IsZero() && now.Sub(g.handling) < SuppressFor {
		g.mu.Unlock()
		return false
	}
	g.handling = now
	g.mu.Unlock()

	if err := Clear(g.store); err != nil {
		g.logger.Error("clearing stored credentials", err)
	}
	if err := g.store.Set(KeySessionExpiredMessage, SessionExpiredMessage); err != nil {
		g.logger.Warn("storing session expired message", err)
	}
	g.logger.Info("session expired, credentials cleared")
	if g.onExpired != nil {
		g.onExpired(SessionExpiredMessage)
	}
	return true
}
