package kvstore

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/rzpsarthak13/kv-bridge/internal/core"
	"github.com/rzpsarthak13/kv-bridge/internal/registry"
)

// MemoryStore implements the core.Store interface on an in-process map.
// It mirrors the Redis command semantics, including glob-style KEYS
// matching and a queued transaction buffer, which makes it useful both as
// a lightweight backend and as a test double.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]string
	closed bool
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]string),
	}
}

func (m *MemoryStore) Set(ctx context.Context, key, value string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", fmt.Errorf("store is closed")
	}
	m.setLocked(key, value)
	return core.StatusOK, nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) (core.Value, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return core.Value{}, fmt.Errorf("store is closed")
	}
	return m.getLocked(key), nil
}

func (m *MemoryStore) MSet(ctx context.Context, pairs ...string) (string, error) {
	if len(pairs)%2 != 0 {
		return "", fmt.Errorf("MSET requires an even number of arguments, got %d", len(pairs))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", fmt.Errorf("store is closed")
	}
	m.msetLocked(pairs)
	return core.StatusOK, nil
}

func (m *MemoryStore) MGet(ctx context.Context, keys ...string) ([]core.Value, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, fmt.Errorf("store is closed")
	}
	return m.mgetLocked(keys), nil
}

func (m *MemoryStore) Del(ctx context.Context, keys ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, fmt.Errorf("store is closed")
	}
	return m.delLocked(keys), nil
}

func (m *MemoryStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	re, err := globToRegexp(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, fmt.Errorf("store is closed")
	}

	keys := make([]string, 0)
	for k := range m.data {
		if re.MatchString(k) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *MemoryStore) Exists(ctx context.Context, keys ...string) ([]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, fmt.Errorf("store is closed")
	}

	flags := make([]bool, len(keys))
	for i, k := range keys {
		_, flags[i] = m.data[k]
	}
	return flags, nil
}

func (m *MemoryStore) FlushAll(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", fmt.Errorf("store is closed")
	}
	m.flushLocked()
	return core.StatusOK, nil
}

// Tx returns a fresh transaction buffer. Queued operations apply under a
// single lock acquisition on Exec, so no interleaving from other callers
// is observable mid-commit.
func (m *MemoryStore) Tx() core.Tx {
	return &memoryTx{store: m}
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return fmt.Errorf("store is closed")
	}
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Locked helpers shared by immediate execution and transaction commit.
// Callers hold m.mu.

func (m *MemoryStore) setLocked(key, value string) {
	m.data[key] = value
}

func (m *MemoryStore) getLocked(key string) core.Value {
	v, ok := m.data[key]
	return core.Value{String: v, Present: ok}
}

func (m *MemoryStore) msetLocked(pairs []string) {
	for i := 0; i+1 < len(pairs); i += 2 {
		m.data[pairs[i]] = pairs[i+1]
	}
}

func (m *MemoryStore) mgetLocked(keys []string) []core.Value {
	values := make([]core.Value, len(keys))
	for i, k := range keys {
		v, ok := m.data[k]
		values[i] = core.Value{String: v, Present: ok}
	}
	return values
}

func (m *MemoryStore) delLocked(keys []string) int64 {
	var count int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			count++
		}
	}
	return count
}

func (m *MemoryStore) flushLocked() {
	m.data = make(map[string]string)
}

// memoryTx queues closures over the store's locked helpers and applies
// them in enqueue order under one lock acquisition.
type memoryTx struct {
	store *MemoryStore
	ops   []memoryOp
}

type memoryOp struct {
	name  string
	apply func() interface{}
}

func (t *memoryTx) Set(ctx context.Context, key, value string) (string, error) {
	t.ops = append(t.ops, memoryOp{name: "SET", apply: func() interface{} {
		t.store.setLocked(key, value)
		return core.StatusOK
	}})
	return core.StatusQueued, nil
}

func (t *memoryTx) Get(ctx context.Context, key string) (core.Value, error) {
	t.ops = append(t.ops, memoryOp{name: "GET", apply: func() interface{} {
		return t.store.getLocked(key)
	}})
	return core.Value{}, nil
}

func (t *memoryTx) MSet(ctx context.Context, pairs ...string) (string, error) {
	if len(pairs)%2 != 0 {
		return "", fmt.Errorf("MSET requires an even number of arguments, got %d", len(pairs))
	}
	queued := make([]string, len(pairs))
	copy(queued, pairs)
	t.ops = append(t.ops, memoryOp{name: "MSET", apply: func() interface{} {
		t.store.msetLocked(queued)
		return core.StatusOK
	}})
	return core.StatusQueued, nil
}

func (t *memoryTx) MGet(ctx context.Context, keys ...string) ([]core.Value, error) {
	queued := make([]string, len(keys))
	copy(queued, keys)
	t.ops = append(t.ops, memoryOp{name: "MGET", apply: func() interface{} {
		return t.store.mgetLocked(queued)
	}})
	return make([]core.Value, len(keys)), nil
}

func (t *memoryTx) Del(ctx context.Context, keys ...string) (int64, error) {
	queued := make([]string, len(keys))
	copy(queued, keys)
	t.ops = append(t.ops, memoryOp{name: "DEL", apply: func() interface{} {
		return t.store.delLocked(queued)
	}})
	return 0, nil
}

func (t *memoryTx) FlushAll(ctx context.Context) (string, error) {
	t.ops = append(t.ops, memoryOp{name: "FLUSHALL", apply: func() interface{} {
		t.store.flushLocked()
		return core.StatusOK
	}})
	return core.StatusQueued, nil
}

func (t *memoryTx) Exec(ctx context.Context) ([]core.TxResult, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.store.closed {
		return nil, fmt.Errorf("store is closed")
	}

	results := make([]core.TxResult, len(t.ops))
	for i, op := range t.ops {
		results[i] = core.TxResult{Command: op.name, Value: op.apply()}
	}
	return results, nil
}

// globToRegexp translates a Redis KEYS glob into an anchored regexp.
// Supported syntax: '*' (any run), '?' (any one), '[...]' classes with a
// leading '^' for negation, and backslash escapes. Unlike path globs, '/'
// has no special meaning in keys.
func globToRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '\\':
			if i+1 < len(pattern) {
				i++
				b.WriteString(regexp.QuoteMeta(string(pattern[i])))
			} else {
				b.WriteString(`\\`)
			}
		case '[':
			j := i + 1
			if j < len(pattern) && pattern[j] == '^' {
				j++
			}
			for j < len(pattern) && pattern[j] != ']' {
				j++
			}
			if j >= len(pattern) {
				// Unterminated class, treat literally as Redis does.
				b.WriteString(regexp.QuoteMeta(string(c)))
			} else {
				b.WriteString(pattern[i : j+1])
				i = j
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// MemoryStoreFactory implements the StoreFactory interface for the
// in-process backend.
type MemoryStoreFactory struct{}

// Type returns the type identifier for this factory.
func (f *MemoryStoreFactory) Type() string {
	return "memory"
}

// Validate validates the memory-specific configuration. The backend has
// no tunables beyond its type.
func (f *MemoryStoreFactory) Validate(config StoreConfig) error {
	if config.Type != "memory" {
		return fmt.Errorf("invalid type for memory factory: %s", config.Type)
	}
	return nil
}

// Create creates a new in-process store instance.
func (f *MemoryStoreFactory) Create(config StoreConfig) (core.Store, error) {
	return NewMemoryStore(), nil
}

// MemoryConfigValidator implements the registry.ConfigValidator interface
// for the in-process backend.
type MemoryConfigValidator struct{}

// Type returns the type identifier for this validator.
func (v *MemoryConfigValidator) Type() string {
	return "memory"
}

// Validate validates the memory-specific configuration.
func (v *MemoryConfigValidator) Validate(config *registry.InternalConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if config.KVStore.Type != "memory" {
		return fmt.Errorf("invalid type for memory validator: %s", config.KVStore.Type)
	}
	return nil
}

// init auto-registers the memory factory and validator on package initialization.
func init() {
	RegisterFactory(&MemoryStoreFactory{})
	registry.RegisterValidator(&MemoryConfigValidator{})
}
