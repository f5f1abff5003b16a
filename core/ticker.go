package core

import "time"

// TickerFunc starts a ticker and returns its channel and a stop func.
// Polling loops take one so tests can tick by hand.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

// NewTicker is the TickerFunc backed by time.Ticker.
func NewTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}
