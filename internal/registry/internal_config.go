package registry

import (
	"time"
)

// InternalConfig represents the internal configuration structure.
// This is a copy of the public Config type to avoid import cycles.
type InternalConfig struct {
	KVStore InternalKVStoreConfig `yaml:"kvstore" json:"kvstore"`
	Facade  InternalFacadeConfig  `yaml:"facade" json:"facade"`
}

// InternalKVStoreConfig contains configuration for the key-value store.
// Backends are selected by Type through the factory registry.
type InternalKVStoreConfig struct {
	Type         string              `yaml:"type" json:"type"`
	RedisConfig  InternalRedisConfig `yaml:"redis_config,omitempty" json:"redis_config,omitempty"`
	MaxRetries   int                 `yaml:"max_retries,omitempty" json:"max_retries,omitempty"`
	DialTimeout  time.Duration       `yaml:"dial_timeout,omitempty" json:"dial_timeout,omitempty"`
	ReadTimeout  time.Duration       `yaml:"read_timeout,omitempty" json:"read_timeout,omitempty"`
	WriteTimeout time.Duration       `yaml:"write_timeout,omitempty" json:"write_timeout,omitempty"`
}

// InternalRedisConfig contains Redis-specific configuration.
type InternalRedisConfig struct {
	Endpoints    []string `yaml:"endpoints" json:"endpoints"`
	Password     string   `yaml:"password,omitempty" json:"password,omitempty"`
	DB           int      `yaml:"db,omitempty" json:"db,omitempty"`
	PoolSize     int      `yaml:"pool_size,omitempty" json:"pool_size,omitempty"`
	MinIdleConns int      `yaml:"min_idle_conns,omitempty" json:"min_idle_conns,omitempty"`
}

// InternalFacadeConfig contains facade-level configuration: execution
// mode, bulk chunking, and optional batch throttling.
type InternalFacadeConfig struct {
	// Mode is the execution mode bound at construction: "immediate" or
	// "deferred".
	Mode string `yaml:"mode" json:"mode"`

	// ChunkSize is the maximum number of key-value pairs or keys
	// processed in one store round trip during a batched operation.
	ChunkSize int `yaml:"chunk_size" json:"chunk_size"`

	// ThrottleRate is the maximum number of batched round trips per
	// second. Zero disables throttling.
	ThrottleRate int `yaml:"throttle_rate,omitempty" json:"throttle_rate,omitempty"`
}
