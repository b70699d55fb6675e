package kvbridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryBaseConfig() *Config {
	config := DefaultConfig()
	config.KVStore.Type = "memory"
	return config
}

func TestRegistryGetCachesPerAddress(t *testing.T) {
	r := NewRegistry(memoryBaseConfig())
	defer r.CloseAll()

	a1, err := r.Get("node-a:6379")
	require.NoError(t, err)
	a2, err := r.Get("node-a:6379")
	require.NoError(t, err)
	assert.Same(t, a1, a2)

	b, err := r.Get("node-b:6379")
	require.NoError(t, err)
	assert.NotSame(t, a1, b)
	assert.Equal(t, 2, r.Len())

	// Distinct addresses are backed by distinct stores.
	ctx := context.Background()
	_, err = a1.SetValue(ctx, "k", "v")
	require.NoError(t, err)
	value, err := b.GetValue(ctx, "k")
	require.NoError(t, err)
	assert.False(t, value.Present)
}

func TestRegistryGetRejectsEmptyAddress(t *testing.T) {
	r := NewRegistry(memoryBaseConfig())
	_, err := r.Get("")
	assert.Error(t, err)
	_, err = r.Session("")
	assert.Error(t, err)
}

func TestRegistriesDoNotShareInstances(t *testing.T) {
	r1 := NewRegistry(memoryBaseConfig())
	defer r1.CloseAll()
	r2 := NewRegistry(memoryBaseConfig())
	defer r2.CloseAll()

	f1, err := r1.Get("node-a:6379")
	require.NoError(t, err)
	f2, err := r2.Get("node-a:6379")
	require.NoError(t, err)
	assert.NotSame(t, f1, f2)
}

func TestRegistrySessionIsDeferredAndUncached(t *testing.T) {
	r := NewRegistry(memoryBaseConfig())
	defer r.CloseAll()

	s1, err := r.Session("node-a:6379")
	require.NoError(t, err)
	defer s1.Close()
	assert.Equal(t, ModeDeferred, s1.Mode())
	assert.Equal(t, 0, r.Len())

	s2, err := r.Session("node-a:6379")
	require.NoError(t, err)
	defer s2.Close()
	assert.NotSame(t, s1, s2)

	// A cached immediate facade for the same address is a separate object.
	f, err := r.Get("node-a:6379")
	require.NoError(t, err)
	assert.Equal(t, ModeImmediate, f.Mode())
}

func TestRegistryCloseAllEmpties(t *testing.T) {
	r := NewRegistry(memoryBaseConfig())

	_, err := r.Get("node-a:6379")
	require.NoError(t, err)
	_, err = r.Get("node-b:6379")
	require.NoError(t, err)
	require.Equal(t, 2, r.Len())

	require.NoError(t, r.CloseAll())
	assert.Equal(t, 0, r.Len())
}

func TestRegistryNilBaseUsesDefaults(t *testing.T) {
	r := NewRegistry(nil)
	assert.Equal(t, 0, r.Len())
}
