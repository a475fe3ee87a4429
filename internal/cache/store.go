// Package cache provides file-backed persistence for authentication state.
//
// Serialized Access snapshots are written as JSON files named by the SHA-256
// of their cache key (normally the auth or service endpoint URL), so a later
// process can restore a client purely from the cached blob without any
// credentials. Files are created with 0600 permissions in a 0700 directory;
// token values are never logged.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"idctl/internal/access"
	"idctl/pkg/logging"
)

// DefaultStorageDir is the default directory for cached tokens, relative to
// the user home directory.
const DefaultStorageDir = ".config/idctl/tokens"

// Store caches Access snapshots in memory with optional file persistence.
type Store struct {
	mu         sync.RWMutex
	storageDir string
	entries    map[string]*access.Access
	fileMode   bool
}

// Config configures a Store.
type Config struct {
	// StorageDir is the directory for cache files.
	// Defaults to ~/.config/idctl/tokens.
	StorageDir string

	// FileMode enables file persistence. If false, entries are in-memory only.
	FileMode bool
}

// NewStore creates a Store, creating the storage directory when file
// persistence is enabled.
func NewStore(cfg Config) (*Store, error) {
	storageDir := cfg.StorageDir
	if storageDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		storageDir = filepath.Join(homeDir, DefaultStorageDir)
	}

	s := &Store{
		storageDir: storageDir,
		entries:    make(map[string]*access.Access),
		fileMode:   cfg.FileMode,
	}

	if cfg.FileMode {
		if err := os.MkdirAll(storageDir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create token cache directory: %w", err)
		}
	}

	return s, nil
}

// Dir returns the storage directory backing this store.
func (s *Store) Dir() string { return s.storageDir }

// Put stores an Access under key, replacing any previous entry wholesale.
func (s *Store) Put(key string, a *access.Access) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fileKey := s.fileKey(key)
	s.entries[fileKey] = a

	if s.fileMode {
		if err := s.writeFile(fileKey, a); err != nil {
			logging.Warn("TokenCache", "Failed to persist access for %s: %v", key, err)
			return fmt.Errorf("failed to persist access: %w", err)
		}
		logging.Debug("TokenCache", "Persisted access for %s (scoped=%t)", key, a.Scoped)
	}
	return nil
}

// Get returns the cached Access for key, or nil if none exists or the cached
// token has expired. Expired entries are evicted from memory.
func (s *Store) Get(key string) *access.Access {
	fileKey := s.fileKey(key)

	// Fast path with read lock.
	s.mu.RLock()
	if a, ok := s.entries[fileKey]; ok && a.Valid() {
		s.mu.RUnlock()
		return a
	}
	s.mu.RUnlock()

	// Slow path with write lock for cache population and cleanup.
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.entries[fileKey]; ok {
		if a.Valid() {
			return a
		}
		delete(s.entries, fileKey)
		return nil
	}

	if s.fileMode {
		a, err := s.readFile(fileKey)
		if err == nil && a.Valid() {
			s.entries[fileKey] = a
			return a
		}
	}
	return nil
}

// Delete removes the cache entry for key from memory and disk.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fileKey := s.fileKey(key)
	delete(s.entries, fileKey)

	if s.fileMode {
		err := os.Remove(filepath.Join(s.storageDir, fileKey+".json"))
		if err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	logging.Debug("TokenCache", "Deleted cached access for %s", key)
	return nil
}

// Clear removes all cached entries, in memory and on disk.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*access.Access)

	if !s.fileMode {
		return nil
	}

	dirEntries, err := os.ReadDir(s.storageDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read token cache directory: %w", err)
	}
	for _, entry := range dirEntries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(s.storageDir, entry.Name())); err != nil {
			return fmt.Errorf("failed to remove cache file %s: %w", entry.Name(), err)
		}
	}
	logging.Info("TokenCache", "Cleared all cached tokens")
	return nil
}

// fileKey derives a filesystem-safe identifier for a cache key.
func (s *Store) fileKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:16])
}

func (s *Store) writeFile(fileKey string, a *access.Access) error {
	data, err := a.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.storageDir, fileKey+".json"), data, 0600)
}

func (s *Store) readFile(fileKey string) (*access.Access, error) {
	// #nosec G304 -- path is derived from a hashed key, not user input
	data, err := os.ReadFile(filepath.Join(s.storageDir, fileKey+".json"))
	if err != nil {
		return nil, err
	}
	return access.Unmarshal(data)
}
