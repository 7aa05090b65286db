package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *TokenStore {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestTokenStore_EmptyByDefault(t *testing.T) {
	s := openTestStore(t)

	_, ok := s.Access()
	assert.False(t, ok)
	_, ok = s.Refresh()
	assert.False(t, ok)
}

func TestTokenStore_SetPairRoundTrip(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SetPair("A1", "R1"))

	access, ok := s.Access()
	require.True(t, ok)
	assert.Equal(t, "A1", access)

	refresh, ok := s.Refresh()
	require.True(t, ok)
	assert.Equal(t, "R1", refresh)
}

func TestTokenStore_SetAccessReplaces(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SetPair("A1", "R1"))
	require.NoError(t, s.SetAccess("A2"))

	access, ok := s.Access()
	require.True(t, ok)
	assert.Equal(t, "A2", access)

	// Refresh token is untouched by an access replacement.
	refresh, ok := s.Refresh()
	require.True(t, ok)
	assert.Equal(t, "R1", refresh)
}

func TestTokenStore_ClearRemovesBoth(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SetPair("A1", "R1"))
	require.NoError(t, s.Clear())

	_, ok := s.Access()
	assert.False(t, ok)
	_, ok = s.Refresh()
	assert.False(t, ok)
}

func TestTokenStore_ClearOnEmptyStore(t *testing.T) {
	s := openTestStore(t)

	assert.NoError(t, s.Clear())
}

func TestTokenStore_ClearLeavesForeignKeys(t *testing.T) {
	s := openTestStore(t)

	// Another consumer of the same database must survive Clear.
	require.NoError(t, s.set("theme", "dark"))
	require.NoError(t, s.SetPair("A1", "R1"))
	require.NoError(t, s.Clear())

	value, ok := s.get("theme")
	require.True(t, ok)
	assert.Equal(t, "dark", value)
}

func TestTokenStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.SetPair("A1", "R1"))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()

	access, ok := s.Access()
	require.True(t, ok)
	assert.Equal(t, "A1", access)
}
