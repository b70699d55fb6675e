package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigValidator is the Strategy interface for validating configuration.
// Each backend (Redis, memory, etc.) provides its own validator to validate
// backend-specific configuration.
type ConfigValidator interface {
	// Validate validates the internal configuration for this store type.
	Validate(config *InternalConfig) error

	// Type returns the type identifier for this validator (e.g., "redis", "memory").
	Type() string
}

var (
	// validatorRegistry stores all registered config validators.
	validatorRegistry = make(map[string]ConfigValidator)

	// validatorRegistryMutex protects the validator registry from concurrent access.
	validatorRegistryMutex sync.RWMutex
)

// RegisterValidator registers a config validator.
// This is called automatically by each implementation's init() function.
// Panics if validator is nil, type is empty, or type is already registered.
func RegisterValidator(validator ConfigValidator) {
	if validator == nil {
		panic("validator cannot be nil")
	}
	if validator.Type() == "" {
		panic("validator type cannot be empty")
	}

	validatorRegistryMutex.Lock()
	defer validatorRegistryMutex.Unlock()

	if _, exists := validatorRegistry[validator.Type()]; exists {
		panic(fmt.Sprintf("validator for type %q is already registered", validator.Type()))
	}

	validatorRegistry[validator.Type()] = validator
}

// GetValidator retrieves a validator by type.
// Returns the validator and true if found, nil and false otherwise.
func GetValidator(validatorType string) (ConfigValidator, bool) {
	validatorRegistryMutex.RLock()
	defer validatorRegistryMutex.RUnlock()

	validator, exists := validatorRegistry[validatorType]
	return validator, exists
}

// ConfigManager handles loading and managing configuration from various sources.
type ConfigManager struct {
	config *InternalConfig
}

// NewConfigManager creates a new configuration manager with default configuration.
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		config: defaultInternalConfig(),
	}
}

// defaultInternalConfig returns a configuration with sensible defaults.
func defaultInternalConfig() *InternalConfig {
	return &InternalConfig{
		KVStore: InternalKVStoreConfig{
			Type: "redis",
			RedisConfig: InternalRedisConfig{
				Endpoints:    []string{"localhost:6379"},
				DB:           0,
				PoolSize:     10,
				MinIdleConns: 5,
			},
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Facade: InternalFacadeConfig{
			Mode:      "immediate",
			ChunkSize: 5000,
		},
	}
}

// LoadFromFile loads configuration from a YAML or JSON file.
// The file format is determined by the file extension (.yaml, .yml, or .json).
func (cm *ConfigManager) LoadFromFile(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".yaml", ".yml":
		return cm.LoadFromYAML(data)
	case ".json":
		return cm.LoadFromJSON(data)
	default:
		return fmt.Errorf("unsupported config file format: %s (supported: .yaml, .yml, .json)", ext)
	}
}

// LoadFromYAML loads configuration from YAML data.
func (cm *ConfigManager) LoadFromYAML(data []byte) error {
	config := defaultInternalConfig()
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	if err := cm.validateConfig(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cm.config = config
	return nil
}

// LoadFromJSON loads configuration from JSON data.
func (cm *ConfigManager) LoadFromJSON(data []byte) error {
	config := defaultInternalConfig()
	if len(data) > 0 {
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse JSON config: %w", err)
		}
	}

	if err := cm.validateConfig(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cm.config = config
	return nil
}

// LoadFromEnv loads configuration from environment variables on top of
// defaults. Environment variables follow the pattern: KV_BRIDGE_<SECTION>_<KEY>
// Examples:
//   - KV_BRIDGE_KVSTORE_TYPE=redis
//   - KV_BRIDGE_KVSTORE_ENDPOINTS=localhost:6379,localhost:6380
//   - KV_BRIDGE_FACADE_MODE=deferred
//   - KV_BRIDGE_FACADE_CHUNK_SIZE=1000
func (cm *ConfigManager) LoadFromEnv() error {
	config := defaultInternalConfig()
	applyEnvOverrides(config)

	if err := cm.validateConfig(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cm.config = config
	return nil
}

// OverlayEnv applies KV_BRIDGE_* environment overrides on top of the
// currently loaded configuration. Construction runs it after file loading,
// so the environment wins over the file and caller-supplied options still
// win over both.
func (cm *ConfigManager) OverlayEnv() error {
	config := *cm.config
	applyEnvOverrides(&config)

	if err := cm.validateConfig(&config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cm.config = &config
	return nil
}

// applyEnvOverrides mutates config with any KV_BRIDGE_* variables present
// in the environment. Unset variables leave the existing values untouched.
func applyEnvOverrides(config *InternalConfig) {
	// KV Store configuration
	if val := os.Getenv("KV_BRIDGE_KVSTORE_TYPE"); val != "" {
		config.KVStore.Type = val
	}
	if val := os.Getenv("KV_BRIDGE_KVSTORE_ENDPOINTS"); val != "" {
		config.KVStore.RedisConfig.Endpoints = strings.Split(val, ",")
	}
	if val := os.Getenv("KV_BRIDGE_KVSTORE_PASSWORD"); val != "" {
		config.KVStore.RedisConfig.Password = val
	}
	if val := os.Getenv("KV_BRIDGE_KVSTORE_DB"); val != "" {
		var db int
		if _, err := fmt.Sscanf(val, "%d", &db); err == nil {
			config.KVStore.RedisConfig.DB = db
		}
	}
	if val := os.Getenv("KV_BRIDGE_KVSTORE_POOL_SIZE"); val != "" {
		var size int
		if _, err := fmt.Sscanf(val, "%d", &size); err == nil {
			config.KVStore.RedisConfig.PoolSize = size
		}
	}
	if val := os.Getenv("KV_BRIDGE_KVSTORE_MAX_RETRIES"); val != "" {
		var retries int
		if _, err := fmt.Sscanf(val, "%d", &retries); err == nil {
			config.KVStore.MaxRetries = retries
		}
	}
	if val := os.Getenv("KV_BRIDGE_KVSTORE_DIAL_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			config.KVStore.DialTimeout = d
		}
	}

	// Facade configuration
	if val := os.Getenv("KV_BRIDGE_FACADE_MODE"); val != "" {
		config.Facade.Mode = val
	}
	if val := os.Getenv("KV_BRIDGE_FACADE_CHUNK_SIZE"); val != "" {
		var size int
		if _, err := fmt.Sscanf(val, "%d", &size); err == nil {
			config.Facade.ChunkSize = size
		}
	}
	if val := os.Getenv("KV_BRIDGE_FACADE_THROTTLE_RATE"); val != "" {
		var rate int
		if _, err := fmt.Sscanf(val, "%d", &rate); err == nil {
			config.Facade.ThrottleRate = rate
		}
	}
}

// GetConfig returns the current internal configuration.
func (cm *ConfigManager) GetConfig() *InternalConfig {
	return cm.config
}

// validateConfig validates the configuration and returns an error if invalid.
// Store-specific validation is delegated to the registered validator for the
// configured type.
func (cm *ConfigManager) validateConfig(config *InternalConfig) error {
	if config.KVStore.Type == "" {
		return fmt.Errorf("kvstore.type is required")
	}

	validator, exists := GetValidator(config.KVStore.Type)
	if !exists {
		return fmt.Errorf("unsupported store type: %s", config.KVStore.Type)
	}
	if err := validator.Validate(config); err != nil {
		return fmt.Errorf("kvstore validation failed: %w", err)
	}

	// Facade configuration
	if config.Facade.Mode != "immediate" && config.Facade.Mode != "deferred" {
		return fmt.Errorf("facade.mode must be 'immediate' or 'deferred'")
	}
	if config.Facade.ChunkSize <= 0 {
		return fmt.Errorf("facade.chunk_size must be greater than 0")
	}
	if config.Facade.ThrottleRate < 0 {
		return fmt.Errorf("facade.throttle_rate must be non-negative")
	}

	return nil
}
