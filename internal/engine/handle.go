package engine

import (
	"context"
	"sync"
	"sync/atomic"
)

// Loader produces the process engine. It runs at most once.
type Loader func(ctx context.Context) (Engine, error)

// Handle is the shared, lazily-initialized reference to the engine. The
// first Resolve performs the load and may block for a long time; later
// calls return the cached result immediately, even under concurrent first
// use. A load failure is cached too: startup failure is fatal and is not
// retried.
type Handle struct {
	load Loader

	once   sync.Once
	eng    Engine
	err    error
	loaded atomic.Bool
}

// NewHandle creates a handle that loads the engine on first Resolve.
func NewHandle(load Loader) *Handle {
	return &Handle{load: load}
}

// Resolve returns the shared engine, loading it on first use.
func (h *Handle) Resolve(ctx context.Context) (Engine, error) {
	h.once.Do(func() {
		h.eng, h.err = h.load(ctx)
		if h.err == nil {
			h.loaded.Store(true)
		}
	})
	return h.eng, h.err
}

// Loaded reports whether the engine has been loaded successfully.
func (h *Handle) Loaded() bool {
	return h.loaded.Load()
}
