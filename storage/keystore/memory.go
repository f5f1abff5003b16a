// Package keystore provides the session.Store implementations used by the client apps.
package keystore

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/3bdulrahman-M3/Front/core"
	"github.com/3bdulrahman-M3/Front/core/session"
)

// Memory is a session.Store kept in memory. Safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ session.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", errors.Wrap(core.ErrNotFound, key)
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.data, k)
	}
	m.mu.Unlock()
	return nil
}
