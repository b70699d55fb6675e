package kvbridge

import (
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
)

// Registry caches one facade per target address. It is an explicit object
// handed to callers rather than process-wide state, so independent
// registries (and tests) never share instances.
//
// Only immediate-mode facades are cached: a deferred facade is a
// single-session object whose buffer is spent at commit, so sharing one
// across callers would be wrong. Deferred sessions are created fresh
// through Session.
type Registry struct {
	base      *Config
	instances *xsync.MapOf[string, *Facade]
}

// NewRegistry creates a registry that derives per-address configuration
// from base. A nil base uses DefaultConfig.
func NewRegistry(base *Config) *Registry {
	if base == nil {
		base = DefaultConfig()
	}
	return &Registry{
		base:      base,
		instances: xsync.NewMapOf[string, *Facade](),
	}
}

// configFor clones the base configuration pointed at addr.
func (r *Registry) configFor(addr string) *Config {
	cfg := *r.base
	cfg.KVStore.RedisConfig.Endpoints = []string{addr}
	cfg.Facade.Mode = "immediate"
	return &cfg
}

// Get returns the cached immediate-mode facade for addr, creating it on
// first use. Concurrent first calls may race to construct; the loser's
// instance is closed and the winner's is returned to everyone.
func (r *Registry) Get(addr string) (*Facade, error) {
	if addr == "" {
		return nil, fmt.Errorf("address must not be empty")
	}
	if f, ok := r.instances.Load(addr); ok {
		return f, nil
	}

	f, err := New(r.configFor(addr))
	if err != nil {
		return nil, err
	}
	if existing, loaded := r.instances.LoadOrStore(addr, f); loaded {
		f.Close()
		return existing, nil
	}
	return f, nil
}

// Session creates a fresh deferred-mode facade for addr. Sessions are not
// cached; each one owns its own connection and transaction buffer and must
// be closed by the caller after ExecMulti.
func (r *Registry) Session(addr string, opts ...Option) (*Facade, error) {
	if addr == "" {
		return nil, fmt.Errorf("address must not be empty")
	}

	cfg := r.configFor(addr)
	cfg.Facade.Mode = "deferred"
	return New(cfg, opts...)
}

// CloseAll closes every cached facade and empties the registry. The first
// close error is returned; all facades are closed regardless.
func (r *Registry) CloseAll() error {
	var firstErr error
	r.instances.Range(func(addr string, f *Facade) bool {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		r.instances.Delete(addr)
		return true
	})
	return firstErr
}

// Len returns the number of cached facades.
func (r *Registry) Len() int {
	return r.instances.Size()
}
