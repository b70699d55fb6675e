package kvbridge

import (
	"time"
)

// Config represents the root configuration for the kv-bridge client.
type Config struct {
	// KVStore contains configuration for the key-value store backend.
	KVStore KVStoreConfig `yaml:"kvstore" json:"kvstore"`

	// Facade contains execution-mode and batching configuration.
	Facade FacadeConfig `yaml:"facade" json:"facade"`
}

// KVStoreConfig contains configuration for the key-value store backend.
type KVStoreConfig struct {
	// Type specifies the store type. Currently supports "redis" or "memory".
	Type string `yaml:"type" json:"type"`

	// RedisConfig contains Redis-specific configuration. Ignored for the
	// memory backend.
	RedisConfig RedisConfig `yaml:"redis_config,omitempty" json:"redis_config,omitempty"`

	// MaxRetries is the maximum number of retries for failed operations.
	MaxRetries int `yaml:"max_retries,omitempty" json:"max_retries,omitempty"`

	// DialTimeout is the timeout for establishing connections.
	DialTimeout time.Duration `yaml:"dial_timeout,omitempty" json:"dial_timeout,omitempty"`

	// ReadTimeout is the timeout for read operations.
	ReadTimeout time.Duration `yaml:"read_timeout,omitempty" json:"read_timeout,omitempty"`

	// WriteTimeout is the timeout for write operations.
	WriteTimeout time.Duration `yaml:"write_timeout,omitempty" json:"write_timeout,omitempty"`
}

// RedisConfig contains Redis-specific configuration.
type RedisConfig struct {
	// Endpoints is a list of store endpoints. For single-node Redis, use a
	// single endpoint.
	Endpoints []string `yaml:"endpoints" json:"endpoints"`

	// Password is the authentication password for Redis.
	Password string `yaml:"password,omitempty" json:"password,omitempty"`

	// DB is the Redis database number (0-15).
	DB int `yaml:"db,omitempty" json:"db,omitempty"`

	// PoolSize is the connection pool size per node.
	PoolSize int `yaml:"pool_size,omitempty" json:"pool_size,omitempty"`

	// MinIdleConns is the minimum number of idle connections in the pool.
	MinIdleConns int `yaml:"min_idle_conns,omitempty" json:"min_idle_conns,omitempty"`
}

// FacadeConfig contains execution-mode and batching configuration.
type FacadeConfig struct {
	// Mode is the execution mode bound for the facade's lifetime:
	// "immediate" or "deferred".
	Mode string `yaml:"mode" json:"mode"`

	// ChunkSize is the maximum number of key-value pairs or keys processed
	// in one store round trip during a batched operation.
	ChunkSize int `yaml:"chunk_size" json:"chunk_size"`

	// ThrottleRate is the maximum number of batched round trips per second.
	// Zero disables throttling.
	ThrottleRate int `yaml:"throttle_rate,omitempty" json:"throttle_rate,omitempty"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		KVStore: KVStoreConfig{
			Type: "redis",
			RedisConfig: RedisConfig{
				Endpoints:    []string{"localhost:6379"},
				PoolSize:     10,
				MinIdleConns: 5,
			},
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Facade: FacadeConfig{
			Mode:      "immediate",
			ChunkSize: 5000,
		},
	}
}
