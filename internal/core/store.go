package core

import (
	"context"
)

// Status strings returned by write commands. StatusOK is the store's
// acknowledgment of an applied command; StatusQueued is the placeholder
// acknowledgment returned when a command is enqueued into a transaction
// buffer and its true result is unknowable until Exec.
const (
	StatusOK     = "OK"
	StatusQueued = "QUEUED"
)

// Value is a string value read from the store together with its presence
// flag. Present is false when the key was absent (or when the read was
// queued into a transaction buffer and nothing has applied yet).
type Value struct {
	String  string
	Present bool
}

// TxResult is the per-operation result of a committed transaction buffer,
// in enqueue order.
type TxResult struct {
	// Command is the store command name that was queued (e.g. "SET", "MGET").
	Command string

	// Value is the command's natural result: a status string, a string
	// value, a slice of values, or an integer count.
	Value interface{}

	// Err is the per-operation error, if the store reported one.
	Err error
}

// Commands is the verb set shared by immediate execution and a transaction
// buffer. On a Store the commands execute synchronously and return their
// natural results; on a Tx they enqueue and return placeholders.
type Commands interface {
	// Set stores a key-value pair. Returns StatusOK (or StatusQueued).
	Set(ctx context.Context, key, value string) (string, error)

	// Get retrieves a value by key. An absent key is reported through
	// Value.Present, not an error.
	Get(ctx context.Context, key string) (Value, error)

	// MSet stores multiple pairs from a flat key/value list in one
	// round trip. len(pairs) must be even.
	MSet(ctx context.Context, pairs ...string) (string, error)

	// MGet retrieves multiple values, order-preserving, absent entries
	// flagged through Value.Present.
	MGet(ctx context.Context, keys ...string) ([]Value, error)

	// Del removes the given keys and returns the number removed.
	Del(ctx context.Context, keys ...string) (int64, error)

	// FlushAll wipes the whole database. Intentional and explicit; the
	// wildcard guardrails of the facade do not apply here.
	FlushAll(ctx context.Context) (string, error)
}

// Store defines the capability consumed from the external key-value store.
// Implementations wrap Redis or an in-process map; the store handle
// serializes command execution per connection, callers add no locking.
type Store interface {
	Commands

	// Keys returns the keys matching a glob-style pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Exists reports per-key existence, matching input order and length.
	Exists(ctx context.Context, keys ...string) ([]bool, error)

	// Tx returns a fresh transaction buffer. Commands issued on the
	// buffer queue without contacting the store until Exec.
	Tx() Tx

	// Ping tests connectivity.
	Ping(ctx context.Context) error

	// Close closes the connection to the store and releases resources.
	Close() error
}

// Tx is a transaction buffer: the same verb set as immediate execution,
// queued for a single atomic, in-order commit. A buffer must not be reused
// after Exec.
type Tx interface {
	Commands

	// Exec commits all queued operations atomically in enqueue order and
	// returns the per-operation result list.
	Exec(ctx context.Context) ([]TxResult, error)
}
