package kvstore

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/rzpsarthak13/kv-bridge/internal/core"
	"github.com/rzpsarthak13/kv-bridge/internal/registry"
)

// RedisStore implements the core.Store interface using Redis.
type RedisStore struct {
	client *redis.Client
	closed bool
}

// NewRedisStore creates a new Redis store implementation and verifies
// connectivity with a ping before returning.
func NewRedisStore(config StoreConfig) (*RedisStore, error) {
	if len(config.Endpoints) == 0 {
		return nil, fmt.Errorf("at least one endpoint is required")
	}

	client := redis.NewClient(redisOptions(config))

	ctx, cancel := context.WithTimeout(context.Background(), config.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client: client,
		closed: false,
	}, nil
}

// redisOptions maps the store configuration onto go-redis client options.
// Single-node Redis only; cluster topologies are out of scope here.
func redisOptions(config StoreConfig) *redis.Options {
	return &redis.Options{
		Addr:         config.Endpoints[0],
		Password:     config.Password,
		DB:           config.DB,
		MaxRetries:   config.MaxRetries,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
}

// Set executes the Redis SET command.
func (r *RedisStore) Set(ctx context.Context, key, value string) (string, error) {
	if r.closed {
		return "", fmt.Errorf("store is closed")
	}

	status, err := r.client.Set(ctx, key, value, 0).Result()
	if err != nil {
		log.Printf("[REDIS] ERROR: Failed to set key %s: %v", key, err)
		return "", fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return status, nil
}

// Get executes the Redis GET command. A missing key is reported through
// the Value presence flag, not an error.
func (r *RedisStore) Get(ctx context.Context, key string) (core.Value, error) {
	if r.closed {
		return core.Value{}, fmt.Errorf("store is closed")
	}

	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return core.Value{}, nil
	}
	if err != nil {
		log.Printf("[REDIS] ERROR: Failed to get key %s: %v", key, err)
		return core.Value{}, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return core.Value{String: val, Present: true}, nil
}

// MSet executes the Redis MSET command with a flat key/value list.
func (r *RedisStore) MSet(ctx context.Context, pairs ...string) (string, error) {
	if r.closed {
		return "", fmt.Errorf("store is closed")
	}
	if len(pairs)%2 != 0 {
		return "", fmt.Errorf("MSET requires an even number of arguments, got %d", len(pairs))
	}

	args := make([]interface{}, len(pairs))
	for i, p := range pairs {
		args[i] = p
	}
	status, err := r.client.MSet(ctx, args...).Result()
	if err != nil {
		log.Printf("[REDIS] ERROR: Failed to mset %d pairs: %v", len(pairs)/2, err)
		return "", fmt.Errorf("failed to mset %d pairs: %w", len(pairs)/2, err)
	}
	return status, nil
}

// MGet executes the Redis MGET command, preserving input order and flagging
// absent entries.
func (r *RedisStore) MGet(ctx context.Context, keys ...string) ([]core.Value, error) {
	if r.closed {
		return nil, fmt.Errorf("store is closed")
	}
	if len(keys) == 0 {
		return []core.Value{}, nil
	}

	raw, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		log.Printf("[REDIS] ERROR: Failed to mget %d keys: %v", len(keys), err)
		return nil, fmt.Errorf("failed to mget %d keys: %w", len(keys), err)
	}

	values := make([]core.Value, len(raw))
	for i, v := range raw {
		if s, ok := v.(string); ok {
			values[i] = core.Value{String: s, Present: true}
		}
	}
	return values, nil
}

// Del executes the Redis DEL command and returns the removed count.
func (r *RedisStore) Del(ctx context.Context, keys ...string) (int64, error) {
	if r.closed {
		return 0, fmt.Errorf("store is closed")
	}
	if len(keys) == 0 {
		return 0, nil
	}

	count, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to delete %d keys: %w", len(keys), err)
	}
	return count, nil
}

// Keys executes the Redis KEYS command with a glob-style pattern.
func (r *RedisStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	if r.closed {
		return nil, fmt.Errorf("store is closed")
	}

	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys for pattern %q: %w", pattern, err)
	}
	return keys, nil
}

// Exists reports per-key existence. One EXISTS per key, issued on a
// non-transactional pipeline so the whole check is a single round trip.
func (r *RedisStore) Exists(ctx context.Context, keys ...string) ([]bool, error) {
	if r.closed {
		return nil, fmt.Errorf("store is closed")
	}
	if len(keys) == 0 {
		return []bool{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.Exists(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to check existence of %d keys: %w", len(keys), err)
	}

	flags := make([]bool, len(keys))
	for i, cmd := range cmds {
		flags[i] = cmd.Val() > 0
	}
	return flags, nil
}

// FlushAll executes the Redis FLUSHALL command. Full, intentional wipe.
func (r *RedisStore) FlushAll(ctx context.Context) (string, error) {
	if r.closed {
		return "", fmt.Errorf("store is closed")
	}

	status, err := r.client.FlushAll(ctx).Result()
	if err != nil {
		log.Printf("[REDIS] ERROR: Failed to flushall: %v", err)
		return "", fmt.Errorf("failed to flushall: %w", err)
	}
	log.Printf("[REDIS] FLUSHALL executed")
	return status, nil
}

// Tx returns a fresh MULTI/EXEC transaction buffer.
func (r *RedisStore) Tx() core.Tx {
	return &redisTx{pipe: r.client.TxPipeline()}
}

// Ping tests connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	if r.closed {
		return fmt.Errorf("store is closed")
	}
	return r.client.Ping(ctx).Err()
}

// Close closes the connection to the store.
func (r *RedisStore) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.client.Close()
}

// redisTx queues commands on a TxPipeline (MULTI) and applies them in
// enqueue order on Exec. Queued verbs return placeholder acknowledgments;
// the true results surface in the Exec result list.
type redisTx struct {
	pipe redis.Pipeliner
	ops  []queuedOp
}

type queuedOp struct {
	name string
	cmd  redis.Cmder
}

func (t *redisTx) enqueue(name string, cmd redis.Cmder) {
	t.ops = append(t.ops, queuedOp{name: name, cmd: cmd})
}

func (t *redisTx) Set(ctx context.Context, key, value string) (string, error) {
	t.enqueue("SET", t.pipe.Set(ctx, key, value, 0))
	return core.StatusQueued, nil
}

func (t *redisTx) Get(ctx context.Context, key string) (core.Value, error) {
	t.enqueue("GET", t.pipe.Get(ctx, key))
	return core.Value{}, nil
}

func (t *redisTx) MSet(ctx context.Context, pairs ...string) (string, error) {
	if len(pairs)%2 != 0 {
		return "", fmt.Errorf("MSET requires an even number of arguments, got %d", len(pairs))
	}
	args := make([]interface{}, len(pairs))
	for i, p := range pairs {
		args[i] = p
	}
	t.enqueue("MSET", t.pipe.MSet(ctx, args...))
	return core.StatusQueued, nil
}

func (t *redisTx) MGet(ctx context.Context, keys ...string) ([]core.Value, error) {
	t.enqueue("MGET", t.pipe.MGet(ctx, keys...))
	return make([]core.Value, len(keys)), nil
}

func (t *redisTx) Del(ctx context.Context, keys ...string) (int64, error) {
	t.enqueue("DEL", t.pipe.Del(ctx, keys...))
	return 0, nil
}

func (t *redisTx) FlushAll(ctx context.Context) (string, error) {
	t.enqueue("FLUSHALL", t.pipe.FlushAll(ctx))
	return core.StatusQueued, nil
}

// Exec commits the queued commands. go-redis reports the first
// command error (redis.Nil excluded); per-operation outcomes are
// collected from the queued commands themselves.
func (t *redisTx) Exec(ctx context.Context) ([]core.TxResult, error) {
	_, execErr := t.pipe.Exec(ctx)

	results := make([]core.TxResult, len(t.ops))
	for i, op := range t.ops {
		res := core.TxResult{Command: op.name}
		if err := op.cmd.Err(); err != nil && err != redis.Nil {
			res.Err = err
		} else {
			res.Value = commandValue(op.cmd)
		}
		results[i] = res
	}

	if execErr != nil && execErr != redis.Nil {
		return results, fmt.Errorf("failed to exec transaction: %w", execErr)
	}
	return results, nil
}

// commandValue extracts a command's natural result for the Exec result list.
func commandValue(cmd redis.Cmder) interface{} {
	switch c := cmd.(type) {
	case *redis.StatusCmd:
		return c.Val()
	case *redis.StringCmd:
		if c.Err() == redis.Nil {
			return core.Value{}
		}
		return core.Value{String: c.Val(), Present: true}
	case *redis.IntCmd:
		return c.Val()
	case *redis.SliceCmd:
		raw := c.Val()
		values := make([]core.Value, len(raw))
		for i, v := range raw {
			if s, ok := v.(string); ok {
				values[i] = core.Value{String: s, Present: true}
			}
		}
		return values
	default:
		return nil
	}
}

// RedisStoreFactory implements the StoreFactory interface for Redis.
type RedisStoreFactory struct{}

// Type returns the type identifier for this factory.
func (f *RedisStoreFactory) Type() string {
	return "redis"
}

// Validate validates the Redis-specific configuration.
func (f *RedisStoreFactory) Validate(config StoreConfig) error {
	if config.Type != "redis" {
		return fmt.Errorf("invalid type for Redis factory: %s", config.Type)
	}
	if len(config.Endpoints) == 0 {
		return fmt.Errorf("at least one endpoint is required for Redis")
	}
	if config.DB < 0 || config.DB > 15 {
		return fmt.Errorf("Redis DB must be between 0 and 15, got: %d", config.DB)
	}
	if config.PoolSize <= 0 {
		return fmt.Errorf("pool_size must be greater than 0, got: %d", config.PoolSize)
	}
	if config.MinIdleConns < 0 {
		return fmt.Errorf("min_idle_conns must be non-negative, got: %d", config.MinIdleConns)
	}
	if config.DialTimeout <= 0 {
		return fmt.Errorf("dial_timeout must be greater than 0, got: %v", config.DialTimeout)
	}
	if config.ReadTimeout <= 0 {
		return fmt.Errorf("read_timeout must be greater than 0, got: %v", config.ReadTimeout)
	}
	if config.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be greater than 0, got: %v", config.WriteTimeout)
	}
	return nil
}

// Create creates a new Redis store instance based on the provided configuration.
func (f *RedisStoreFactory) Create(config StoreConfig) (core.Store, error) {
	store, err := NewRedisStore(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis store: %w", err)
	}
	return store, nil
}

// RedisConfigValidator implements the registry.ConfigValidator interface for Redis.
type RedisConfigValidator struct{}

// Type returns the type identifier for this validator.
func (v *RedisConfigValidator) Type() string {
	return "redis"
}

// Validate validates the Redis-specific configuration in the internal config.
func (v *RedisConfigValidator) Validate(config *registry.InternalConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	kvConfig := config.KVStore
	if kvConfig.Type != "redis" {
		return fmt.Errorf("invalid type for Redis validator: %s", kvConfig.Type)
	}

	redisConfig := kvConfig.RedisConfig
	if len(redisConfig.Endpoints) == 0 {
		return fmt.Errorf("at least one endpoint is required for Redis")
	}
	if redisConfig.DB < 0 || redisConfig.DB > 15 {
		return fmt.Errorf("Redis DB must be between 0 and 15, got: %d", redisConfig.DB)
	}
	if redisConfig.PoolSize <= 0 {
		return fmt.Errorf("pool_size must be greater than 0, got: %d", redisConfig.PoolSize)
	}
	if redisConfig.MinIdleConns < 0 {
		return fmt.Errorf("min_idle_conns must be non-negative, got: %d", redisConfig.MinIdleConns)
	}
	if kvConfig.DialTimeout <= 0 {
		return fmt.Errorf("dial_timeout must be greater than 0, got: %v", kvConfig.DialTimeout)
	}
	if kvConfig.ReadTimeout <= 0 {
		return fmt.Errorf("read_timeout must be greater than 0, got: %v", kvConfig.ReadTimeout)
	}
	if kvConfig.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be greater than 0, got: %v", kvConfig.WriteTimeout)
	}
	if kvConfig.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative, got: %d", kvConfig.MaxRetries)
	}
	return nil
}

// init auto-registers the Redis factory and validator on package initialization.
func init() {
	RegisterFactory(&RedisStoreFactory{})
	registry.RegisterValidator(&RedisConfigValidator{})
}
