package registry_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzpsarthak13/kv-bridge/internal/registry"

	// Registers the store validators.
	_ "github.com/rzpsarthak13/kv-bridge/internal/kvstore"
)

func TestDefaults(t *testing.T) {
	cm := registry.NewConfigManager()
	config := cm.GetConfig()

	assert.Equal(t, "redis", config.KVStore.Type)
	assert.Equal(t, []string{"localhost:6379"}, config.KVStore.RedisConfig.Endpoints)
	assert.Equal(t, 5*time.Second, config.KVStore.DialTimeout)
	assert.Equal(t, "immediate", config.Facade.Mode)
	assert.Equal(t, 5000, config.Facade.ChunkSize)
	assert.Equal(t, 0, config.Facade.ThrottleRate)
}

func TestLoadFromYAML(t *testing.T) {
	cm := registry.NewConfigManager()
	err := cm.LoadFromYAML([]byte(`
kvstore:
  type: redis
  redis_config:
    endpoints:
      - redis-a:6379
    db: 2
facade:
  mode: deferred
  chunk_size: 250
  throttle_rate: 10
`))
	require.NoError(t, err)

	config := cm.GetConfig()
	assert.Equal(t, []string{"redis-a:6379"}, config.KVStore.RedisConfig.Endpoints)
	assert.Equal(t, 2, config.KVStore.RedisConfig.DB)
	assert.Equal(t, "deferred", config.Facade.Mode)
	assert.Equal(t, 250, config.Facade.ChunkSize)
	assert.Equal(t, 10, config.Facade.ThrottleRate)

	// Unset fields keep their defaults.
	assert.Equal(t, 10, config.KVStore.RedisConfig.PoolSize)
}

func TestLoadFromYAMLRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"unknown store type", "kvstore:\n  type: dynamodb\n"},
		{"bad mode", "facade:\n  mode: eventually\n"},
		{"zero chunk size", "facade:\n  mode: immediate\n  chunk_size: -1\n"},
		{"bad db", "kvstore:\n  type: redis\n  redis_config:\n    endpoints: [x:1]\n    db: 99\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cm := registry.NewConfigManager()
			assert.Error(t, cm.LoadFromYAML([]byte(tc.yaml)))
		})
	}
}

func TestLoadFromJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"kvstore":{"type":"memory"},"facade":{"mode":"immediate","chunk_size":100}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cm := registry.NewConfigManager()
	require.NoError(t, cm.LoadFromFile(path))

	config := cm.GetConfig()
	assert.Equal(t, "memory", config.KVStore.Type)
	assert.Equal(t, 100, config.Facade.ChunkSize)
}

func TestLoadFromFileUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	cm := registry.NewConfigManager()
	assert.ErrorContains(t, cm.LoadFromFile(path), "unsupported config file format")
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("KV_BRIDGE_KVSTORE_TYPE", "memory")
	t.Setenv("KV_BRIDGE_FACADE_MODE", "deferred")
	t.Setenv("KV_BRIDGE_FACADE_CHUNK_SIZE", "42")
	t.Setenv("KV_BRIDGE_FACADE_THROTTLE_RATE", "7")

	cm := registry.NewConfigManager()
	require.NoError(t, cm.LoadFromEnv())

	config := cm.GetConfig()
	assert.Equal(t, "memory", config.KVStore.Type)
	assert.Equal(t, "deferred", config.Facade.Mode)
	assert.Equal(t, 42, config.Facade.ChunkSize)
	assert.Equal(t, 7, config.Facade.ThrottleRate)
}

func TestOverlayEnvWinsOverFile(t *testing.T) {
	cm := registry.NewConfigManager()
	require.NoError(t, cm.LoadFromYAML([]byte(`
kvstore:
  type: redis
  redis_config:
    endpoints:
      - redis-a:6379
    db: 2
facade:
  mode: immediate
  chunk_size: 250
`)))

	t.Setenv("KV_BRIDGE_FACADE_MODE", "deferred")
	t.Setenv("KV_BRIDGE_FACADE_CHUNK_SIZE", "7")
	require.NoError(t, cm.OverlayEnv())

	config := cm.GetConfig()
	assert.Equal(t, "deferred", config.Facade.Mode)
	assert.Equal(t, 7, config.Facade.ChunkSize)

	// File values without an env override survive the overlay.
	assert.Equal(t, []string{"redis-a:6379"}, config.KVStore.RedisConfig.Endpoints)
	assert.Equal(t, 2, config.KVStore.RedisConfig.DB)
}

func TestOverlayEnvRejectsInvalid(t *testing.T) {
	cm := registry.NewConfigManager()
	t.Setenv("KV_BRIDGE_FACADE_MODE", "eventually")
	assert.Error(t, cm.OverlayEnv())
}

func TestOverlayEnvWithoutVariablesIsNoop(t *testing.T) {
	cm := registry.NewConfigManager()
	before := *cm.GetConfig()
	require.NoError(t, cm.OverlayEnv())
	assert.Equal(t, before, *cm.GetConfig())
}
