package kvstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzpsarthak13/kv-bridge/internal/core"
)

func TestMemoryStoreBasic(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	status, err := store.Set(ctx, "key1", "bar")
	require.NoError(t, err)
	assert.Equal(t, core.StatusOK, status)

	value, err := store.Get(ctx, "key1")
	require.NoError(t, err)
	assert.True(t, value.Present)
	assert.Equal(t, "bar", value.String)

	value, err = store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, value.Present)

	count, err := store.Del(ctx, "key1", "missing")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	value, err = store.Get(ctx, "key1")
	require.NoError(t, err)
	assert.False(t, value.Present)
}

func TestMemoryStoreMSetMGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	status, err := store.MSet(ctx, "a", "1", "b", "2", "c", "3")
	require.NoError(t, err)
	assert.Equal(t, core.StatusOK, status)

	_, err = store.MSet(ctx, "a", "1", "dangling")
	assert.Error(t, err)

	values, err := store.MGet(ctx, "a", "missing", "c")
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.Equal(t, core.Value{String: "1", Present: true}, values[0])
	assert.False(t, values[1].Present)
	assert.Equal(t, core.Value{String: "3", Present: true}, values[2])
}

func TestMemoryStoreExists(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Set(ctx, "a", "1")
	require.NoError(t, err)

	flags, err := store.Exists(ctx, "a", "b", "a")
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, flags)
}

func TestMemoryStoreFlushAll(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.MSet(ctx, "a", "1", "b", "2")
	require.NoError(t, err)

	status, err := store.FlushAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.StatusOK, status)

	keys, err := store.Keys(ctx, "?")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestMemoryStoreKeysGlob(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	seed := []string{"user/1", "user/2", "session/abc", "hello", "hallo", "h*llo", "ac", "bc", "cc"}
	for _, k := range seed {
		_, err := store.Set(ctx, k, "v")
		require.NoError(t, err)
	}

	cases := []struct {
		pattern string
		want    []string
	}{
		{"user/*", []string{"user/1", "user/2"}},
		{"h?llo", []string{"hello", "hallo", "h*llo"}},
		{"[ab]c", []string{"ac", "bc"}},
		{"[^ab]c", []string{"cc"}},
		{`h\*llo`, []string{"h*llo"}},
		{"*", seed},
		{"nomatch/*", []string{}},
	}

	for _, tc := range cases {
		keys, err := store.Keys(ctx, tc.pattern)
		require.NoError(t, err, "pattern %q", tc.pattern)
		assert.ElementsMatch(t, tc.want, keys, "pattern %q", tc.pattern)
	}
}

func TestMemoryTxQueuesUntilExec(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	tx := store.Tx()

	status, err := tx.Set(ctx, "k", "v1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusQueued, status)

	_, err = tx.Set(ctx, "k", "v2")
	require.NoError(t, err)
	_, err = tx.MSet(ctx, "a", "1", "b", "2")
	require.NoError(t, err)
	_, err = tx.Del(ctx, "a")
	require.NoError(t, err)

	// Nothing applied before commit.
	value, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, value.Present)

	results, err := tx.Exec(ctx)
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, "SET", results[0].Command)
	assert.Equal(t, "DEL", results[3].Command)
	assert.Equal(t, int64(1), results[3].Value)

	// Applied in enqueue order: the second SET wins.
	value, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, core.Value{String: "v2", Present: true}, value)

	value, err = store.Get(ctx, "b")
	require.NoError(t, err)
	assert.True(t, value.Present)
	value, err = store.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, value.Present)
}

func TestMemoryTxQueuedReadsReturnPlaceholders(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Set(ctx, "k", "committed")
	require.NoError(t, err)

	tx := store.Tx()
	value, err := tx.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, value.Present)

	values, err := tx.MGet(ctx, "k", "other")
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.False(t, values[0].Present)

	results, err := tx.Exec(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, core.Value{String: "committed", Present: true}, results[0].Value)
}

func TestMemoryStoreClosed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Close())

	_, err := store.Set(ctx, "k", "v")
	assert.Error(t, err)
	_, err = store.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, store.Ping(ctx))
}
