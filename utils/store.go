package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ErrNotFound is returned by GetJSON when a key has never been written
var ErrNotFound = errors.New("key not found")

// Store is the persistence contract: opaque JSON documents addressed by string keys.
// A single Set is atomic; there are no multi-key transactions.
type Store interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
	Set(ctx context.Context, key string, value json.RawMessage) error
}

// GetJSON decodes the document under key into dst
func GetJSON(ctx context.Context, store Store, key string, dst any) error {
	raw, found, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it under key
func SetJSON(ctx context.Context, store Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return store.Set(ctx, key, raw)
}

// FileStore keeps one JSON file per key under a directory
type FileStore struct {
	dir   string
	mutex sync.Mutex
}

// NewFileStore creates the directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, key)
	return filepath.Join(s.dir, safe+".json")
}

// Get reads the file for key
func (s *FileStore) Get(_ context.Context, key string) (json.RawMessage, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, false, nil
	}
	return json.RawMessage(data), true, nil
}

// Set replaces the file for key through a temp file and rename
func (s *FileStore) Set(_ context.Context, key string, value json.RawMessage) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	tmpName := tmp.Name()

	var indented bytes.Buffer
	if err := json.Indent(&indented, value, "", "  "); err != nil {
		indented.Reset()
		indented.Write(value)
	}

	if _, err := tmp.Write(indented.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// CachedStore serves reads from a process-local cache in front of another store
type CachedStore struct {
	inner Store
	cache *TTLCache[string, json.RawMessage]
}

// NewCachedStore wraps inner with a read cache
func NewCachedStore(inner Store, ttl time.Duration) *CachedStore {
	return &CachedStore{
		inner: inner,
		cache: NewTTLCache[string, json.RawMessage](ttl),
	}
}

// Cache exposes the read cache so its eviction can be scheduled
func (s *CachedStore) Cache() *TTLCache[string, json.RawMessage] {
	return s.cache
}

// Get returns the cached copy when present
func (s *CachedStore) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	if raw, ok := s.cache.Get(key); ok {
		return cloneRaw(raw), true, nil
	}

	raw, found, err := s.inner.Get(ctx, key)
	if err != nil || !found {
		return raw, found, err
	}
	s.cache.Set(key, cloneRaw(raw))
	return raw, true, nil
}

// Set writes through and refreshes the cache on success
func (s *CachedStore) Set(ctx context.Context, key string, value json.RawMessage) error {
	if err := s.inner.Set(ctx, key, value); err != nil {
		s.cache.Delete(key)
		return err
	}
	s.cache.Set(key, cloneRaw(value))
	return nil
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}

// LayeredStore reads the primary store first and falls back to a secondary one.
// Writes go to both; a key found only in the secondary is copied into the primary.
type LayeredStore struct {
	primary   Store
	secondary Store
}

// NewLayeredStore combines a primary (database) store with a secondary (file) store
func NewLayeredStore(primary, secondary Store) *LayeredStore {
	return &LayeredStore{primary: primary, secondary: secondary}
}

// Get reads through both layers
func (s *LayeredStore) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	raw, found, err := s.primary.Get(ctx, key)
	if err == nil && found {
		return raw, true, nil
	}
	if err != nil {
		BotLogf("STORE", "Primary read of %s failed, falling back to file: %v", key, err)
	}

	raw, found, ferr := s.secondary.Get(ctx, key)
	if ferr != nil {
		return nil, false, errors.Join(err, ferr)
	}
	if !found {
		return nil, false, err
	}

	if err == nil {
		if merr := s.primary.Set(ctx, key, raw); merr != nil {
			BotLogf("STORE", "Migration of %s to primary failed: %v", key, merr)
		} else {
			BotLogf("STORE", "Migrated %s from file to primary", key)
		}
	}
	return raw, true, nil
}

// Set writes both layers; the primary failing is an error since reads prefer it
func (s *LayeredStore) Set(ctx context.Context, key string, value json.RawMessage) error {
	perr := s.primary.Set(ctx, key, value)
	if serr := s.secondary.Set(ctx, key, value); serr != nil {
		BotLogf("STORE", "File write of %s failed: %v", key, serr)
	}
	return perr
}
