// Package gallery implements the legacy locally-stored gallery: a JSON record
// list plus backing files on disk, with ids kept densely numbered per type.
// The hosted-media subsystem (internal/media) uses non-sequential ids and
// never renumbers; this package exists for the older galleries that predate it.
package gallery

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrNotFound means no record exists for the given id.
var ErrNotFound = errors.New("gallery item not found")

// Item is one legacy gallery record. IDs are "img-N" or "vid-N" with N dense
// from 1 within each type; the backing filename is derived from the id.
type Item struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Path        string `json:"path"`
	Title       string `json:"title"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
}

// Store is the file-backed gallery list. All mutations hold the store-wide
// mutex: renumbering touches many records and files at once, so per-item
// locking would not be enough.
type Store struct {
	mu          sync.Mutex
	filesDir    string
	recordsPath string

	// rename is swappable so tests can inject failures.
	rename func(oldPath, newPath string) error
}

// NewStore creates a Store rooted at dir: records in gallery.json, backing
// files under files/.
func NewStore(dir string) *Store {
	return &Store{
		filesDir:    filepath.Join(dir, "files"),
		recordsPath: filepath.Join(dir, "gallery.json"),
		rename:      os.Rename,
	}
}

// List returns all gallery items in stored order.
func (s *Store) List() ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Add appends an item and writes its backing file. Used by seeding and by
// the legacy import path; new media belongs in the hosted subsystem.
func (s *Store) Add(item Item, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.filesDir, 0o755); err != nil {
		return fmt.Errorf("create gallery files directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.filesDir, filepath.Base(item.Path)), data, 0o644); err != nil {
		return fmt.Errorf("write gallery file %s: %w", item.Path, err)
	}

	items = append(items, item)
	return s.save(items)
}

// Delete removes the item with the given id and its backing file, then
// renumbers the remaining same-type items so their ids are dense from 1
// again. Returns the full updated list. A missing backing file does not
// abort the delete.
func (s *Store) Delete(id string) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, item := range items {
		if item.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	target := items[idx]
	if err := os.Remove(filepath.Join(s.filesDir, filepath.Base(target.Path))); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove gallery file %s: %w", target.Path, err)
	}

	items = append(items[:idx], items[idx+1:]...)

	prefix, _, ok := splitID(target.ID)
	if ok {
		s.renumber(items, prefix)
	}

	if err := s.save(items); err != nil {
		return nil, err
	}

	log.Info().Str("id", id).Int("remaining", len(items)).Msg("Gallery item deleted")
	return items, nil
}

// Renumber runs the renumbering pass for both prefixes without deleting
// anything, compacting gaps left by earlier partial failures.
func (s *Store) Renumber() ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return nil, err
	}
	s.renumber(items, "img")
	s.renumber(items, "vid")
	if err := s.save(items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) load() ([]Item, error) {
	data, err := os.ReadFile(s.recordsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read gallery records: %w", err)
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode gallery records: %w", err)
	}
	return items, nil
}

func (s *Store) save(items []Item) error {
	if items == nil {
		items = []Item{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode gallery records: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.recordsPath), 0o755); err != nil {
		return fmt.Errorf("create gallery directory: %w", err)
	}
	if err := os.WriteFile(s.recordsPath, data, 0o644); err != nil {
		return fmt.Errorf("write gallery records: %w", err)
	}
	return nil
}
