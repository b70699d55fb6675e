package kvbridge

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/rzpsarthak13/kv-bridge/internal/client"
	"github.com/rzpsarthak13/kv-bridge/internal/core"
)

// Mode is the execution mode a facade is bound to for its lifetime.
type Mode int

const (
	// ModeImmediate executes every operation against the store
	// synchronously; results are immediately observable.
	ModeImmediate Mode = iota

	// ModeDeferred queues every operation into a transaction buffer;
	// nothing is observable by other clients until ExecMulti commits all
	// queued operations atomically in enqueue order.
	ModeDeferred
)

// String returns the mode name used in configuration files.
func (m Mode) String() string {
	if m == ModeDeferred {
		return "deferred"
	}
	return "immediate"
}

// Pair is one key-value pair of a bulk write.
type Pair struct {
	Key   string
	Value string
}

// Quantifier selects how CheckExists reduces per-key existence flags.
type Quantifier string

const (
	// All reduces to true iff every key exists.
	All Quantifier = "ALL"

	// Any reduces to true iff at least one key exists.
	Any Quantifier = "ANY"

	// Raw performs no reduction; callers read the per-key flags.
	Raw Quantifier = "RAW"
)

// DefaultChunkSize is the chunk size used when none is configured.
const DefaultChunkSize = 5000

// Facade is the uniform client surface over the key-value store. A facade
// operates in exactly one mode for its lifetime; deferred facades hold one
// transaction buffer, obtained at construction and spent at commit.
//
// The facade adds no locking of its own: the store handle serializes
// command execution per connection, and a deferred facade is a
// single-session object.
//
// Typical usage:
//
//	f, _ := kvbridge.New(config)
//	defer f.Close()
//
//	f.SetValue(ctx, "k", "v")
//	f.DeleteByPattern(ctx, "session/*")
type Facade struct {
	store     core.Store
	tx        core.Tx // non-nil iff ModeDeferred
	mode      Mode
	chunkSize int
	limiter   *rate.Limiter
	committed bool

	impl *client.Impl // non-nil when the facade owns the connection
}

// Option configures a facade at construction time.
type Option func(*Facade)

// WithMode binds the execution mode, overriding the configured one.
func WithMode(mode Mode) Option {
	return func(f *Facade) {
		f.mode = mode
	}
}

// WithChunkSize overrides the maximum number of pairs or keys per batched
// store round trip.
func WithChunkSize(n int) Option {
	return func(f *Facade) {
		f.chunkSize = n
	}
}

// WithThrottle caps batched round trips at opsPerSec. Zero removes the cap.
func WithThrottle(opsPerSec int) Option {
	return func(f *Facade) {
		if opsPerSec > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(opsPerSec), 1)
		} else {
			f.limiter = nil
		}
	}
}

// configProvider implements client.ConfigProvider to provide config as
// YAML without import cycles.
type configProvider struct {
	config *Config
}

func (cp *configProvider) GetYAML() ([]byte, error) {
	return yaml.Marshal(cp.config)
}

// New creates a facade from configuration: it opens the configured store
// backend, binds the execution mode, and (in deferred mode) obtains the
// transaction buffer. The facade owns the connection; call Close when done.
func New(config *Config, opts ...Option) (*Facade, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	impl, err := client.NewImpl(&configProvider{config: config})
	if err != nil {
		return nil, err
	}

	internal := impl.Config()
	f := &Facade{
		store:     impl.Store(),
		chunkSize: internal.Facade.ChunkSize,
		impl:      impl,
	}
	if internal.Facade.Mode == "deferred" {
		f.mode = ModeDeferred
	}
	if internal.Facade.ThrottleRate > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(internal.Facade.ThrottleRate), 1)
	}
	for _, opt := range opts {
		opt(f)
	}
	if err := f.finish(); err != nil {
		impl.Close()
		return nil, err
	}
	return f, nil
}

// NewWithStore creates a facade around an existing store handle. The
// caller keeps ownership of the store; Close on the facade will not close
// it. This is the dependency-injection constructor used by tests and by
// callers with custom backends.
func NewWithStore(store core.Store, opts ...Option) (*Facade, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}

	f := &Facade{
		store:     store,
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(f)
	}
	if err := f.finish(); err != nil {
		return nil, err
	}
	return f, nil
}

// finish validates options and binds the transaction buffer for deferred
// facades. The buffer is created exactly once and reused until commit.
func (f *Facade) finish() error {
	if f.chunkSize <= 0 {
		return fmt.Errorf("chunk size must be greater than 0, got: %d", f.chunkSize)
	}
	if f.mode == ModeDeferred {
		f.tx = f.store.Tx()
	}
	return nil
}

// Mode returns the execution mode the facade was constructed in.
func (f *Facade) Mode() Mode {
	return f.mode
}

// Close releases the store connection if the facade owns it.
func (f *Facade) Close() error {
	if f.impl != nil {
		return f.impl.Close()
	}
	return nil
}

// commands returns the execution target for the facade's mode: the store
// handle in immediate mode, the transaction buffer in deferred mode.
func (f *Facade) commands() core.Commands {
	if f.mode == ModeDeferred {
		return f.tx
	}
	return f.store
}

// guard rejects operations on a deferred facade whose buffer was already
// committed.
func (f *Facade) guard() error {
	if f.mode == ModeDeferred && f.committed {
		return ErrTransactionSpent
	}
	return nil
}

// SetValue stores a single key-value pair. Returns "OK" in immediate mode
// and "QUEUED" in deferred mode.
func (f *Facade) SetValue(ctx context.Context, key, value string) (string, error) {
	if err := f.guard(); err != nil {
		return "", err
	}
	if key == "" {
		return "", fmt.Errorf("key must not be empty")
	}

	status, err := f.commands().Set(ctx, key, value)
	if err != nil {
		return "", storeErr("SET", err)
	}
	return status, nil
}

// GetValue retrieves a single value. Absence is reported through the
// Value presence flag. In deferred mode the read is queued and the
// returned Value is a placeholder; the committed value appears in the
// ExecMulti result list.
func (f *Facade) GetValue(ctx context.Context, key string) (core.Value, error) {
	if err := f.guard(); err != nil {
		return core.Value{}, err
	}

	value, err := f.commands().Get(ctx, key)
	if err != nil {
		return core.Value{}, storeErr("GET", err)
	}
	return value, nil
}

// SetValues stores an ordered sequence of pairs, split into contiguous
// chunks of at most the configured chunk size, one MSET round trip per
// chunk, strictly sequentially. The first failing chunk aborts the
// remainder and surfaces its error; chunks already applied stay applied.
func (f *Facade) SetValues(ctx context.Context, pairs []Pair) (string, error) {
	if err := f.guard(); err != nil {
		return "", err
	}
	for _, p := range pairs {
		if p.Key == "" {
			return "", fmt.Errorf("key must not be empty")
		}
	}
	if len(pairs) == 0 {
		return core.StatusOK, nil
	}

	status := core.StatusOK
	batches := (len(pairs) + f.chunkSize - 1) / f.chunkSize
	err := f.forEachChunk(ctx, len(pairs), func(batch, lo, hi int) error {
		flat := make([]string, 0, (hi-lo)*2)
		for _, p := range pairs[lo:hi] {
			flat = append(flat, p.Key, p.Value)
		}
		s, err := f.commands().MSet(ctx, flat...)
		if err != nil {
			log.Printf("[FACADE] MSET batch %d/%d failed: %v", batch+1, batches, err)
			return storeErr("MSET", err)
		}
		status = s
		return nil
	})
	if err != nil {
		return "", err
	}
	return status, nil
}

// GetValues retrieves values for the given keys in one MGET round trip,
// order-preserving, with absent entries flagged through the Value
// presence flag.
func (f *Facade) GetValues(ctx context.Context, keys []string) ([]core.Value, error) {
	if err := f.guard(); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []core.Value{}, nil
	}

	values, err := f.commands().MGet(ctx, keys...)
	if err != nil {
		return nil, storeErr("MGET", err)
	}
	return values, nil
}

// GetKeysByPattern lists the keys matching a glob-style pattern. Listing
// always executes against the store directly, even in deferred mode, since
// only committed state has knowable keys.
func (f *Facade) GetKeysByPattern(ctx context.Context, pattern string) ([]string, error) {
	if err := f.guard(); err != nil {
		return nil, err
	}

	keys, err := f.store.Keys(ctx, pattern)
	if err != nil {
		return nil, storeErr("KEYS", err)
	}
	return keys, nil
}

// DeleteByPattern deletes every key matching the pattern. The bare
// match-everything wildcard is rejected before any store round trip; an
// explicit full wipe must go through FlushAll. Listing and deletion are
// two separate round trips: keys created in between may survive.
func (f *Facade) DeleteByPattern(ctx context.Context, pattern string) (string, error) {
	if err := f.guard(); err != nil {
		return "", err
	}
	if err := validatePattern(pattern); err != nil {
		return "", err
	}
	return f.deleteResolved(ctx, []string{pattern})
}

// DeleteByPatterns deletes every key matching any of the patterns. All
// patterns are validated before any store round trip; one bare wildcard
// rejects the whole call. Matches are concatenated without de-duplication
// (deleting the same key twice in one flush is harmless) and deleted
// through the chunked path.
func (f *Facade) DeleteByPatterns(ctx context.Context, patterns []string) (string, error) {
	if err := f.guard(); err != nil {
		return "", err
	}
	if len(patterns) == 0 {
		return "", &InvalidPatternError{Reason: "pattern list must not be empty"}
	}
	for _, p := range patterns {
		if err := validatePattern(p); err != nil {
			return "", err
		}
	}
	return f.deleteResolved(ctx, patterns)
}

// deleteResolved resolves each pattern to its matching keys against
// committed state, then deletes the concatenated key set in chunks.
func (f *Facade) deleteResolved(ctx context.Context, patterns []string) (string, error) {
	var keys []string
	for _, p := range patterns {
		matched, err := f.store.Keys(ctx, p)
		if err != nil {
			return "", storeErr("KEYS", err)
		}
		keys = append(keys, matched...)
	}
	if len(keys) == 0 {
		return core.StatusOK, nil
	}

	log.Printf("[FACADE] deleting %d keys matched by %d pattern(s)", len(keys), len(patterns))
	err := f.forEachChunk(ctx, len(keys), func(batch, lo, hi int) error {
		if _, err := f.commands().Del(ctx, keys[lo:hi]...); err != nil {
			return storeErr("DEL", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return core.StatusOK, nil
}

// CheckExists checks existence of the given keys and reduces the per-key
// flags according to the quantifier: All is true iff every key exists, Any
// iff at least one does. The flags slice always matches the input order
// and length; with Raw the reduced bool is left false and callers read the
// flags. Existence always consults the store directly: a queued check has
// no answer to reduce before commit.
func (f *Facade) CheckExists(ctx context.Context, quantifier Quantifier, keys ...string) (bool, []bool, error) {
	if err := f.guard(); err != nil {
		return false, nil, err
	}
	switch quantifier {
	case All, Any, Raw:
	default:
		return false, nil, fmt.Errorf("unknown quantifier: %q", quantifier)
	}

	flags, err := f.store.Exists(ctx, keys...)
	if err != nil {
		return false, nil, storeErr("EXISTS", err)
	}

	switch quantifier {
	case All:
		for _, ok := range flags {
			if !ok {
				return false, flags, nil
			}
		}
		return true, flags, nil
	case Any:
		for _, ok := range flags {
			if ok {
				return true, flags, nil
			}
		}
		return false, flags, nil
	default:
		return false, flags, nil
	}
}

// FlushAll wipes the whole database. This is the explicit, intentional
// full wipe; the wildcard guardrails of the pattern-delete path do not
// apply here. In deferred mode the wipe is queued like any other command.
func (f *Facade) FlushAll(ctx context.Context) (string, error) {
	if err := f.guard(); err != nil {
		return "", err
	}

	status, err := f.commands().FlushAll(ctx)
	if err != nil {
		return "", storeErr("FLUSHALL", err)
	}
	return status, nil
}

// ExecMulti commits all queued operations atomically in enqueue order and
// returns the store's per-operation result list. Only valid on a facade
// constructed in deferred mode. After commit the buffer is spent: any
// further operation on this facade fails with ErrTransactionSpent.
func (f *Facade) ExecMulti(ctx context.Context) ([]core.TxResult, error) {
	if f.mode != ModeDeferred {
		return nil, ErrNotInTransactionMode
	}
	if f.committed {
		return nil, ErrTransactionSpent
	}
	f.committed = true

	results, err := f.tx.Exec(ctx)
	if err != nil {
		return results, storeErr("EXEC", err)
	}
	log.Printf("[FACADE] committed %d queued operation(s)", len(results))
	return results, nil
}

// forEachChunk runs fn over contiguous [lo, hi) windows of at most
// chunkSize elements, strictly sequentially, stopping at the first error.
// When a throttle is configured, each chunk waits for a limiter token
// before dispatch.
func (f *Facade) forEachChunk(ctx context.Context, n int, fn func(batch, lo, hi int) error) error {
	for batch, lo := 0, 0; lo < n; batch, lo = batch+1, lo+f.chunkSize {
		hi := lo + f.chunkSize
		if hi > n {
			hi = n
		}
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		if err := fn(batch, lo, hi); err != nil {
			return err
		}
	}
	return nil
}

// validatePattern rejects patterns that must never reach the store
// through a delete path.
func validatePattern(pattern string) error {
	if pattern == "" {
		return &InvalidPatternError{Reason: "pattern must not be empty"}
	}
	if pattern == "*" {
		return &InvalidPatternError{Pattern: pattern, Reason: "bare wildcard would wipe the whole database, use FlushAll instead"}
	}
	return nil
}
