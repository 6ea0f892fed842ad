package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSetGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "Foo", "bar"))

	entry, ok, err := s.Get(ctx, "Foo")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "bar", entry.Value)
}

func TestMemoryStoreGetMissingKey(t *testing.T) {
	s := NewMemoryStore()
	_, ok, err := s.Get(context.Background(), "Missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreReadOnlyRejectsSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, "Locked", "1"))
	s.SetReadOnly("Locked", true)

	err := s.Set(ctx, "Locked", "2")
	assert.ErrorIs(t, err, ErrReadOnlyKey)

	entry, _, _ := s.Get(ctx, "Locked")
	assert.Equal(t, "1", entry.Value)
}

func TestMemoryStoreClosedRejectsOps(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Close())

	_, _, err := s.Get(ctx, "x")
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.ErrorIs(t, s.Set(ctx, "x", "1"), ErrStoreClosed)

	_, err = s.Keys(ctx)
	assert.ErrorIs(t, err, ErrStoreClosed)

	assert.ErrorIs(t, s.Close(), ErrStoreClosed)
}

func TestDefaultMemoryStoreSeedsKnownKeys(t *testing.T) {
	ctx := context.Background()
	s := NewDefaultMemoryStore()

	assert.Equal(t, DefaultHeartbeatInterval, GetInt(ctx, s, KeyHeartbeatInterval, -1))
	assert.Equal(t, DefaultTransactionMessageRetryInterval, GetInt(ctx, s, KeyTransactionMessageRetryInterval, -1))
	assert.Equal(t, DefaultTransactionMessageAttempts, GetInt(ctx, s, KeyTransactionMessageAttempts, -1))
}

func TestGetIntFallsBackOnUnparseable(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, "Bad", "not-a-number"))

	assert.Equal(t, 7, GetInt(ctx, s, "Bad", 7))
	assert.Equal(t, 7, GetInt(ctx, s, "Missing", 7))
}

func TestKeysListsAllEntries(t *testing.T) {
	ctx := context.Background()
	s := NewDefaultMemoryStore()
	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		KeyHeartbeatInterval,
		KeyTransactionMessageRetryInterval,
		KeyTransactionMessageAttempts,
	}, keys)
}
