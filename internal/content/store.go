package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// MaxDocumentBytes is the ceiling on a serialized document. Oversized
// payloads are rejected before any file is touched.
const MaxDocumentBytes = 50000

// Store is a JSON-document store over flat files: one file per key,
// read and replaced wholesale. Writes to the same key are serialized by a
// per-key mutex; the store assumes at most a handful of concurrent admins,
// not a write-heavy workload.
type Store struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a Store rooted at dir. The directory is created lazily on
// first write so read-only deployments need no writable disk.
func NewStore(dir string) *Store {
	return &Store{dir: dir, locks: make(map[string]*sync.Mutex)}
}

// Read returns the document stored under key, or nil if absent. Absence is
// not an error; callers fall back to their defaults.
func (s *Store) Read(key string) (json.RawMessage, error) {
	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read content %s: %w", key, err)
	}
	return json.RawMessage(data), nil
}

// Write replaces the document stored under key. The payload must be a JSON
// object and its formatted serialization must fit MaxDocumentBytes; both are
// checked before anything is written. Key validity and the write allow-list
// are the caller's boundary checks (ResolveKey, WriteAllowed).
func (s *Store) Write(key string, data json.RawMessage) error {
	if !isJSONObject(data) {
		return ErrNotObject
	}

	var formatted bytes.Buffer
	if err := json.Indent(&formatted, data, "", "  "); err != nil {
		return fmt.Errorf("%w: %v", ErrNotObject, err)
	}
	if formatted.Len() > MaxDocumentBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, formatted.Len(), MaxDocumentBytes)
	}

	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create content directory: %w", err)
	}
	if err := os.WriteFile(s.path(key), formatted.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write content %s: %w", key, err)
	}

	log.Debug().Str("key", key).Int("bytes", formatted.Len()).Msg("Content document written")
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *Store) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

// isJSONObject reports whether data is a syntactically valid JSON object
// (not an array, scalar, or garbage).
func isJSONObject(data json.RawMessage) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	return json.Valid(data)
}
