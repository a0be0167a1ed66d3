package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const entryExt = ".json"

// FileCache is a TTL cache of upstream response bodies, one file per key.
// Writes go through a temp file and a rename, so concurrent fetches of the
// same URL never leave a torn entry behind.
type FileCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

type cacheEntry struct {
	Key       string    `json:"key"`
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewFileCache creates the cache directory if needed.
func NewFileCache(dir string, ttl time.Duration) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, err
	}

	return &FileCache{
		dir: dir,
		ttl: ttl,
		now: time.Now,
	}, nil
}

// DefaultCacheDir returns $XDG_CACHE_HOME/sunmap, ~/.cache/sunmap or a temp dir.
func DefaultCacheDir() string {
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return filepath.Join(xdgCache, "sunmap")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "sunmap-cache")
	}

	return filepath.Join(home, ".cache", "sunmap")
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string {
	return c.dir
}

func (c *FileCache) path(key string) string {
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(hash[:])+entryExt)
}

// Get returns the cached body for key if present and not expired.
func (c *FileCache) Get(key string) ([]byte, bool) {
	filename := c.path(key)

	entry, ok := c.read(filename)
	if !ok {
		_ = os.Remove(filename)
		return nil, false
	}
	if entry.Key != key {
		return nil, false
	}
	return entry.Data, true
}

// Set stores value under key for the cache TTL.
func (c *FileCache) Set(key string, value []byte) error {
	data, err := json.Marshal(cacheEntry{
		Key:       key,
		Data:      value,
		ExpiresAt: c.now().Add(c.ttl),
	})
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.dir, "entry-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.path(key))
}

// Clear removes every entry and returns how many were removed.
func (c *FileCache) Clear() (int, error) {
	return c.sweep(func(string) bool { return true })
}

// Cleanup removes expired or unreadable entries and returns how many were removed.
func (c *FileCache) Cleanup() (int, error) {
	return c.sweep(func(filename string) bool {
		_, ok := c.read(filename)
		return !ok
	})
}

func (c *FileCache) sweep(remove func(filename string) bool) (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != entryExt {
			continue
		}
		filename := filepath.Join(c.dir, entry.Name())
		if !remove(filename) {
			continue
		}
		if err := os.Remove(filename); err == nil {
			removed++
		}
	}
	return removed, nil
}

// read loads an entry; it reports false for missing, corrupt or expired entries.
func (c *FileCache) read(filename string) (cacheEntry, bool) {
	// #nosec G304 -- filename is derived from a hash or from ReadDir within the cache directory
	data, err := os.ReadFile(filename)
	if err != nil {
		return cacheEntry{}, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return cacheEntry{}, false
	}

	if c.now().After(entry.ExpiresAt) {
		return cacheEntry{}, false
	}

	return entry, true
}
