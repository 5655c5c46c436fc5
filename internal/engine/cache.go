package engine

import (
	"context"
	"sync"
)

// StateCache caches voice conditioning state for the process lifetime.
//
// Computation is serialized per voice: concurrent first requests for the
// same voice share a single computation, and requests for different voices
// never block each other. A failed computation is evicted so a later
// request may retry; only successful states are pinned.
type StateCache struct {
	mu      sync.Mutex
	entries map[string]*stateEntry
}

type stateEntry struct {
	ready chan struct{} // closed once state/err are set
	state *VoiceState
	err   error
}

// NewStateCache creates an empty cache.
func NewStateCache() *StateCache {
	return &StateCache{entries: make(map[string]*stateEntry)}
}

// StateFor returns the cached state for voiceName, computing it via eng on
// first use. Callers validate voice membership before calling; the cache
// passes any name through to the engine.
func (c *StateCache) StateFor(ctx context.Context, eng Engine, voiceName string) (*VoiceState, error) {
	c.mu.Lock()
	if e, ok := c.entries[voiceName]; ok {
		c.mu.Unlock()
		select {
		case <-e.ready:
			return e.state, e.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	e := &stateEntry{ready: make(chan struct{})}
	c.entries[voiceName] = e
	c.mu.Unlock()

	e.state, e.err = eng.ConditionVoice(ctx, voiceName)
	if e.err != nil {
		c.mu.Lock()
		delete(c.entries, voiceName)
		c.mu.Unlock()
	}
	close(e.ready)

	return e.state, e.err
}

// Cached reports whether a state for voiceName has been computed.
func (c *StateCache) Cached(voiceName string) bool {
	c.mu.Lock()
	e, ok := c.entries[voiceName]
	c.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case <-e.ready:
		return e.err == nil
	default:
		return false
	}
}
