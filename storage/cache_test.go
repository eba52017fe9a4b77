package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestCache(t *testing.T) *FileCache {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.json")
	c, err := NewFileCache(path)
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCacheSetGetRoundtrip(t *testing.T) {
	c := newTestCache(t)

	if err := c.Set("key", map[string]int{"n": 42}, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got map[string]int
	if !c.GetJSON("key", &got) {
		t.Fatal("GetJSON() = false, want true")
	}
	if got["n"] != 42 {
		t.Errorf("payload n = %d, want 42", got["n"])
	}
}

func TestCacheMissingKey(t *testing.T) {
	c := newTestCache(t)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get() on missing key = true, want false")
	}
}

func TestCacheExpiryEvictsLazily(t *testing.T) {
	c := newTestCache(t)

	now := time.Now()
	c.now = func() time.Time { return now }

	if err := c.Set("short", "payload", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Still fresh
	if _, ok := c.Get("short"); !ok {
		t.Fatal("Get() before expiry = false, want true")
	}

	// Advance past expiry: read must evict, never return stale data
	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("short"); ok {
		t.Fatal("Get() after expiry = true, want false")
	}

	// Entry is gone even if the clock moves back
	now = now.Add(-2 * time.Minute)
	if _, ok := c.Get("short"); ok {
		t.Error("expired entry was not evicted")
	}
}

func TestCacheZeroTTLNeverExpires(t *testing.T) {
	c := newTestCache(t)

	now := time.Now()
	c.now = func() time.Time { return now }

	if err := c.Set("forever", "payload", 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	now = now.Add(1000 * time.Hour)
	if _, ok := c.Get("forever"); !ok {
		t.Error("entry with zero TTL expired")
	}
}

func TestCacheRemove(t *testing.T) {
	c := newTestCache(t)

	if err := c.Set("key", "payload", 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Remove("key"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, ok := c.Get("key"); ok {
		t.Error("Get() after Remove() = true, want false")
	}

	// Removing an absent key is a no-op
	if err := c.Remove("key"); err != nil {
		t.Errorf("Remove() on absent key error = %v", err)
	}
}

func TestCachePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	c, err := NewFileCache(path)
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	if err := c.Set("key", "hello", 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	c.Close()

	c2, err := NewFileCache(path)
	if err != nil {
		t.Fatalf("NewFileCache() reopen error = %v", err)
	}
	defer c2.Close()

	var got string
	if !c2.GetJSON("key", &got) || got != "hello" {
		t.Errorf("reopened cache: got %q, want %q", got, "hello")
	}
}

func TestCacheCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewFileCache(path)
	if err == nil {
		t.Fatal("NewFileCache() on corrupt file: error = nil, want error")
	}
	var storErr *StorageError
	if !errors.As(err, &storErr) {
		t.Errorf("error type = %T, want *StorageError", err)
	}
}

func TestCachePayloadIsRawJSON(t *testing.T) {
	c := newTestCache(t)

	type snapshot struct {
		IDs []string `json:"ids"`
	}
	if err := c.Set("snap", snapshot{IDs: []string{"a", "b"}}, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	raw, ok := c.Get("snap")
	if !ok {
		t.Fatal("Get() = false, want true")
	}
	var decoded snapshot
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("payload does not parse: %v", err)
	}
	if len(decoded.IDs) != 2 {
		t.Errorf("len(IDs) = %d, want 2", len(decoded.IDs))
	}
}
