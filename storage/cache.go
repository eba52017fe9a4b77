package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	schemaVersion = "1.0"
	lockTimeout   = 5 * time.Second
)

// Entry is a cached payload with an optional absolute expiry.
// A zero Expiry means the entry never expires.
type Entry struct {
	Payload json.RawMessage `json:"payload"`
	Expiry  time.Time       `json:"expiry,omitzero"`
}

// FileCache implements a key-value cache backed by a single JSON file.
// Reads past an entry's expiry evict it; stale data is never returned.
// Safe for concurrent use.
type FileCache struct {
	path string
	lock *FileLock
	data *cacheData
	mu   sync.RWMutex

	// now is swappable for tests.
	now func() time.Time
}

// cacheData is the top-level JSON structure.
type cacheData struct {
	Version   string            `json:"version"`
	UpdatedAt time.Time         `json:"updated_at"`
	Entries   map[string]*Entry `json:"entries"`
}

// NewFileCache opens the cache file at the given path, creating it if absent.
func NewFileCache(path string) (*FileCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, &StorageError{Op: "create", Entity: "cache", ID: path, Err: err}
	}

	c := &FileCache{
		path: path,
		lock: NewFileLock(path),
		now:  time.Now,
	}

	if err := c.lock.Lock(lockTimeout); err != nil {
		return nil, err
	}

	if err := c.load(); err != nil {
		c.lock.Unlock()
		return nil, err
	}

	return c, nil
}

// load reads the JSON file into memory. Creates empty data if the file doesn't exist.
func (c *FileCache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.data = newCacheData()
			// Save immediately to catch permission errors early
			return c.save()
		}
		return &StorageError{Op: "read", Entity: "cache", Err: err}
	}

	c.data = &cacheData{}
	if err := json.Unmarshal(data, c.data); err != nil {
		return &StorageError{Op: "read", Entity: "cache", Err: ErrStorageCorrupt}
	}

	if c.data.Entries == nil {
		c.data.Entries = make(map[string]*Entry)
	}

	return nil
}

// save persists the data to disk atomically.
func (c *FileCache) save() error {
	c.data.UpdatedAt = c.now()

	writer, err := NewAtomicWriter(c.path)
	if err != nil {
		return &StorageError{Op: "write", Entity: "cache", Err: err}
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(c.data); err != nil {
		writer.Abort()
		return &StorageError{Op: "write", Entity: "cache", Err: err}
	}

	if err := writer.Commit(); err != nil {
		return &StorageError{Op: "write", Entity: "cache", Err: err}
	}

	return nil
}

// Get returns the payload for key, or ok=false if the key is absent or
// expired. Expired entries are evicted on read.
func (c *FileCache) Get(key string) (json.RawMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.data.Entries[key]
	if !exists {
		return nil, false
	}

	if !entry.Expiry.IsZero() && c.now().After(entry.Expiry) {
		delete(c.data.Entries, key)
		// Best-effort persistence of the eviction
		c.save()
		return nil, false
	}

	return entry.Payload, true
}

// GetJSON unmarshals the payload for key into out. Returns ok=false if the
// key is absent, expired, or the payload does not parse.
func (c *FileCache) GetJSON(key string, out interface{}) bool {
	payload, ok := c.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return false
	}
	return true
}

// Set stores payload under key. A zero ttl means the entry never expires.
func (c *FileCache) Set(key string, payload interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return &StorageError{Op: "write", Entity: "cache", ID: key, Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &Entry{Payload: raw}
	if ttl > 0 {
		entry.Expiry = c.now().Add(ttl)
	}
	c.data.Entries[key] = entry

	return c.save()
}

// Remove deletes the entry for key. Removing an absent key is a no-op.
func (c *FileCache) Remove(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.data.Entries[key]; !exists {
		return nil
	}
	delete(c.data.Entries, key)

	return c.save()
}

// Close releases resources held by the cache.
func (c *FileCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lock.Unlock()
}

func newCacheData() *cacheData {
	return &cacheData{
		Version: schemaVersion,
		Entries: make(map[string]*Entry),
	}
}
