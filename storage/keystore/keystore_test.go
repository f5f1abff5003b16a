package keystore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3bdulrahman-M3/Front/core"
	"github.com/3bdulrahman-M3/Front/core/session"
)

func testStore(t *testing.T, store session.Store) {
	_, err := store.Get(session.KeyAccessToken)
	assert.True(t, core.IsNotFound(err))

	require.NoError(t, store.Set(session.KeyAccessToken, "a"))
	require.NoError(t, store.Set(session.KeyAccessToken, "b"))
	require.NoError(t, store.Set(session.KeyUser, `{"id":1}`))

	got, err := store.Get(session.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "b", got)

	require.NoError(t, store.Delete(session.KeyAccessToken, session.KeyUser, "missing"))
	_, err = store.Get(session.KeyUser)
	assert.True(t, core.IsNotFound(err))
	require.NoError(t, store.Delete())
}

func TestMemory(t *testing.T) {
	testStore(t, NewMemory())
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "keystore.db")
	store, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	testStore(t, store)

	require.NoError(t, store.Set(session.KeyAPIEnvironment, "LOCAL"))
	require.NoError(t, store.Close())

	// reopened
	store, err = OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	env, err := store.Get(session.KeyAPIEnvironment)
	require.NoError(t, err)
	assert.Equal(t, "LOCAL", env)
}
