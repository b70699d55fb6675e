package client

import (
	"fmt"
	"sync"

	"github.com/rzpsarthak13/kv-bridge/internal/core"
	"github.com/rzpsarthak13/kv-bridge/internal/kvstore"
	"github.com/rzpsarthak13/kv-bridge/internal/registry"
)

// ConfigProvider is an interface to provide configuration as YAML without
// importing the public package.
type ConfigProvider interface {
	GetYAML() ([]byte, error)
}

// Impl owns the configured store handle and the loaded configuration.
// The public facade package wraps it.
type Impl struct {
	mu        sync.Mutex
	configMgr *registry.ConfigManager
	store     core.Store
	closed    bool
}

// NewImpl loads configuration from the provider, validates it, and opens
// the configured store.
func NewImpl(configProvider ConfigProvider) (*Impl, error) {
	if configProvider == nil {
		return nil, fmt.Errorf("config provider cannot be nil")
	}

	configMgr := registry.NewConfigManager()
	yamlData, err := configProvider.GetYAML()
	if err != nil {
		return nil, fmt.Errorf("failed to get config YAML: %w", err)
	}
	if err := configMgr.LoadFromYAML(yamlData); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := configMgr.OverlayEnv(); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	impl := &Impl{configMgr: configMgr}
	if err := impl.initializeStore(); err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	return impl, nil
}

// initializeStore creates the store handle through the factory registry.
func (c *Impl) initializeStore() error {
	config := c.configMgr.GetConfig()

	store, err := kvstore.Create(kvstore.StoreConfig{
		Type:         config.KVStore.Type,
		Endpoints:    config.KVStore.RedisConfig.Endpoints,
		Password:     config.KVStore.RedisConfig.Password,
		DB:           config.KVStore.RedisConfig.DB,
		MaxRetries:   config.KVStore.MaxRetries,
		PoolSize:     config.KVStore.RedisConfig.PoolSize,
		MinIdleConns: config.KVStore.RedisConfig.MinIdleConns,
		DialTimeout:  config.KVStore.DialTimeout,
		ReadTimeout:  config.KVStore.ReadTimeout,
		WriteTimeout: config.KVStore.WriteTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}

	c.store = store
	return nil
}

// Store returns the opened store handle.
func (c *Impl) Store() core.Store {
	return c.store
}

// Config returns the loaded internal configuration.
func (c *Impl) Config() *registry.InternalConfig {
	return c.configMgr.GetConfig()
}

// Close closes the store connection. Safe to call more than once.
func (c *Impl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.store.Close()
}
