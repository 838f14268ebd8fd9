// Package query is the client-side query cache. Reads go through Fetch, which
// serves fresh cached data or calls the backend and stores the result; writes
// replace entries directly; invalidation marks entries stale so the next read
// refetches.
//
// Every entry carries a generation counter. Starting a fetch and every write
// bump it, and a fetch only stores its result if the generation is unchanged
// when it returns. A read that raced a newer read, a write, or an
// invalidation therefore never overwrites the newer state.
package query

import (
	"context"
	"sync"
	"time"

	"github.com/julianstephens/sutra/internal/logger"
)

// State is a point-in-time view of one cache entry
type State struct {
	Data      any
	HasData   bool
	Err       error
	Stale     bool
	Fetching  bool
	UpdatedAt time.Time
}

type entry struct {
	data      any
	hasData   bool
	err       error
	stale     bool
	gen       uint64
	inflight  int
	updatedAt time.Time
}

// Client is the cache for one session. The zero value is not usable; call NewClient.
type Client struct {
	mu      sync.Mutex
	entries map[Key]*entry
	now     func() time.Time
}

// NewClient returns an empty cache.
func NewClient() *Client {
	return &Client{
		entries: make(map[Key]*entry),
		now:     time.Now,
	}
}

// lookup returns the entry for key, creating it if needed. c.mu must be held.
func (c *Client) lookup(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

// live reports whether e is still the entry stored for key. c.mu must be held.
func (c *Client) live(key Key, e *entry) bool {
	return c.entries[key] == e
}

// Fetch returns the cached value for key when it is present and fresh.
// Otherwise it calls fn and, unless the fetch was superseded meanwhile,
// stores the result or the error.
func Fetch[T any](ctx context.Context, c *Client, key Key, fn func(ctx context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	e := c.lookup(key)
	if e.hasData && !e.stale && e.err == nil {
		if v, ok := e.data.(T); ok {
			c.mu.Unlock()
			logger.Debug("Cache hit", "key", key)
			return v, nil
		}
	}
	e.gen++
	gen := e.gen
	e.inflight++
	c.mu.Unlock()

	logger.Debug("Cache miss", "key", key)
	v, err := fn(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	e.inflight--
	if !c.live(key, e) || e.gen != gen {
		logger.Debug("Discarding superseded fetch", "key", key)
		return v, err
	}
	if err != nil {
		e.err = err
		return v, err
	}
	e.data = v
	e.hasData = true
	e.err = nil
	e.stale = false
	e.updatedAt = c.now()
	return v, nil
}

// GetData returns the cached value for key without fetching.
func GetData[T any](c *Client, key Key) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	e, ok := c.entries[key]
	if !ok || !e.hasData {
		return zero, false
	}
	v, ok := e.data.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// SetData replaces the cached value for key and marks it fresh.
func SetData[T any](c *Client, key Key, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(key, v)
}

func (c *Client) set(key Key, v any) {
	e := c.lookup(key)
	e.gen++
	e.data = v
	e.hasData = true
	e.err = nil
	e.stale = false
	e.updatedAt = c.now()
}

// UpdateData replaces the cached value for key with fn(current). The read
// and the write happen under one lock.
func UpdateData[T any](c *Client, key Key, fn func(current T, ok bool) T) T {
	c.mu.Lock()
	defer c.mu.Unlock()
	var current T
	ok := false
	if e, found := c.entries[key]; found && e.hasData {
		current, ok = e.data.(T)
	}
	next := fn(current, ok)
	c.set(key, next)
	return next
}

// RemoveData drops the entry for key. An in-flight fetch for key will not store its result.
func (c *Client) RemoveData(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.gen++
		delete(c.entries, key)
	}
}

// State returns a snapshot of the entry for key.
func (c *Client) State(key Key) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return State{}
	}
	return State{
		Data:      e.data,
		HasData:   e.hasData,
		Err:       e.err,
		Stale:     e.stale,
		Fetching:  e.inflight > 0,
		UpdatedAt: e.updatedAt,
	}
}

func (c *Client) invalidate(e *entry) {
	e.stale = true
	e.gen++
}

// Invalidate marks key stale so the next Fetch calls the backend.
func (c *Client) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.invalidate(e)
	}
	logger.Debug("Invalidated query", "key", key)
}

// InvalidateName marks every key with the given name stale, whatever its parameter.
func (c *Client) InvalidateName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if k.Name == name {
			c.invalidate(e)
		}
	}
	logger.Debug("Invalidated queries", "name", name)
}

// InvalidateAll marks every entry stale.
func (c *Client) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		c.invalidate(e)
	}
	logger.Debug("Invalidated all queries")
}

// Clear drops every entry. Fetches still in flight will not store their results.
func (c *Client) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		e.gen++
	}
	c.entries = make(map[Key]*entry)
	logger.Debug("Cleared query cache")
}

// Keys returns the keys currently cached.
func (c *Client) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]Key, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}
