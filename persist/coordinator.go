// Package persist keeps the category collection durable across two tiers: a
// fast local cache written synchronously, and an authoritative remote
// document store written behind a debounce window.
package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"mytubes/category"
	"mytubes/internal/logging"
)

// CacheKey is the local cache key holding the category collection snapshot.
const CacheKey = "mytubes_categories"

// DefaultDebounce is the quiescence window before a deferred remote write.
const DefaultDebounce = 2 * time.Second

// LocalCache is the fast local tier. Writes may fail (quota); the coordinator
// logs and drops such failures.
type LocalCache interface {
	Get(key string) (json.RawMessage, bool)
	Set(key string, payload interface{}, ttl time.Duration) error
}

// RemoteStore is the authoritative remote tier, a named-document store.
// Find returns an empty handle with a nil error when no document exists.
type RemoteStore interface {
	Find(ctx context.Context, name string) (string, error)
	Read(ctx context.Context, id string) ([]byte, error)
	Create(ctx context.Context, name string, content []byte) (string, error)
	Update(ctx context.Context, id string, content []byte) error
}

// Options configures a Coordinator.
type Options struct {
	// DocumentName is the well-known name of the remote document.
	DocumentName string
	// Debounce is the quiescence window before flushing to the remote store.
	// Zero means DefaultDebounce.
	Debounce time.Duration
}

// Coordinator reconciles the in-memory category collection with the local
// cache and the remote document store. The remote document wins on load; the
// local cache absorbs every save synchronously while remote writes are
// debounced and best-effort.
type Coordinator struct {
	cache   LocalCache
	remote  RemoteStore
	docName string
	window  time.Duration

	mu      sync.Mutex
	fileID  string // remote handle, resolved at most once per session
	timer   *time.Timer
	pending []byte // latest serialized state awaiting a remote flush
	closed  bool
}

// New creates a coordinator over the two storage tiers.
func New(cache LocalCache, remote RemoteStore, opts Options) *Coordinator {
	window := opts.Debounce
	if window <= 0 {
		window = DefaultDebounce
	}
	return &Coordinator{
		cache:   cache,
		remote:  remote,
		docName: opts.DocumentName,
		window:  window,
	}
}

// Load populates col from storage. The local cache is consulted first for an
// instant, possibly stale result; the remote document then overwrites it
// unconditionally when present and well-formed. An empty or absent remote
// document triggers a one-shot best-effort migration of non-empty local
// state. Remote failures fall back silently to whatever the cache produced.
func (c *Coordinator) Load(ctx context.Context, col *category.Collection) {
	if raw, ok := c.cache.Get(CacheKey); ok {
		if cached, err := category.ParseCollection(raw); err != nil {
			logging.Warn("cached categories unreadable, starting empty", "err", err)
		} else {
			col.Replace(cached)
		}
	}

	fileID, err := c.remote.Find(ctx, c.docName)
	if err != nil {
		logging.Warn("remote categories lookup failed, using local cache", "err", err)
		return
	}

	if fileID == "" {
		c.migrate(ctx, col)
		return
	}

	c.mu.Lock()
	c.fileID = fileID
	c.mu.Unlock()

	raw, err := c.remote.Read(ctx, fileID)
	if err != nil {
		logging.Warn("remote categories read failed, using local cache", "err", err)
		return
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		c.migrate(ctx, col)
		return
	}

	remote, err := category.ParseCollection(raw)
	if err != nil {
		// A document that exists but fails validation is never trusted,
		// and never overwritten by migration either.
		logging.Warn("remote categories document rejected, using local cache", "err", err)
		return
	}

	// Remote wins: overwrite memory and the local cache.
	col.Replace(remote)
	if err := c.cache.Set(CacheKey, col, 0); err != nil {
		logging.Warn("cache write failed", "key", CacheKey, "err", err)
	}
}

// migrate pushes non-empty local state to an empty remote store. One shot,
// best effort: failure is logged and the in-memory model is unaffected.
func (c *Coordinator) migrate(ctx context.Context, col *category.Collection) {
	if col.IsEmpty() {
		return
	}
	raw, err := json.Marshal(col)
	if err != nil {
		logging.Warn("categories migration skipped", "err", err)
		return
	}
	if err := c.writeRemote(ctx, raw); err != nil {
		logging.Warn("categories migration failed", "err", err)
	}
}

// Save persists col: the local cache is written synchronously, then a remote
// write of this exact snapshot is scheduled. Saves arriving inside the
// debounce window supersede the pending snapshot and restart the timer, so a
// burst of edits produces a single remote write carrying the final state.
func (c *Coordinator) Save(col *category.Collection) {
	if err := c.cache.Set(CacheKey, col, 0); err != nil {
		logging.Warn("cache write failed", "key", CacheKey, "err", err)
	}

	raw, err := json.Marshal(col)
	if err != nil {
		logging.Warn("categories snapshot failed", "err", err)
		return
	}
	c.schedule(raw)
}

// schedule transitions the write timer from idle (or pending) to pending with
// a fresh deadline.
func (c *Coordinator) schedule(snapshot []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.pending = snapshot
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.window, c.flushPending)
}

// flushPending is the timer callback: it sends the latest pending snapshot.
// Failures are logged and dropped; there is no retry.
func (c *Coordinator) flushPending() {
	c.mu.Lock()
	snapshot := c.pending
	c.pending = nil
	c.timer = nil
	c.mu.Unlock()

	if snapshot == nil {
		return
	}
	if err := c.writeRemote(context.Background(), snapshot); err != nil {
		logging.Warn("remote categories save failed", "err", err)
	}
}

// Flush sends any pending snapshot immediately. Call before process exit,
// where waiting out the debounce window is not an option.
func (c *Coordinator) Flush(ctx context.Context) error {
	c.mu.Lock()
	snapshot := c.pending
	c.pending = nil
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()

	if snapshot == nil {
		return nil
	}
	return c.writeRemote(ctx, snapshot)
}

// Close cancels any pending remote write. Part of sign-out teardown; the
// remote handle is forgotten with the session.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.pending = nil
	c.fileID = ""
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// writeRemote updates the remote document in place when the handle is known,
// rediscovering or creating the document otherwise and caching the new
// handle for the rest of the session.
func (c *Coordinator) writeRemote(ctx context.Context, content []byte) error {
	c.mu.Lock()
	fileID := c.fileID
	c.mu.Unlock()

	if fileID == "" {
		found, err := c.remote.Find(ctx, c.docName)
		if err != nil {
			return err
		}
		fileID = found
	}

	if fileID == "" {
		created, err := c.remote.Create(ctx, c.docName, content)
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.fileID = created
		c.mu.Unlock()
		return nil
	}

	if err := c.remote.Update(ctx, fileID, content); err != nil {
		return err
	}
	c.mu.Lock()
	c.fileID = fileID
	c.mu.Unlock()
	return nil
}
