package gallery

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir())
}

func seed(t *testing.T, s *Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		typ := "image"
		ext := ".jpg"
		if len(id) >= 3 && id[:3] == "vid" {
			typ = "video"
			ext = ".mp4"
		}
		item := Item{
			ID:    id,
			Type:  typ,
			Path:  "files/" + id + ext,
			Title: "Item " + id,
		}
		if err := s.Add(item, []byte("data-"+id)); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func fileNames(t *testing.T, s *Store) map[string]bool {
	t.Helper()
	entries, err := os.ReadDir(s.filesDir)
	if err != nil {
		t.Fatalf("read files dir: %v", err)
	}
	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}
	return names
}

// --- Delete + Renumber Tests ---

func TestDelete_RenumbersToDenseSequence(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, "img-1", "img-2", "img-3", "img-4")

	items, err := s.Delete("img-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"img-1", "img-2", "img-3"}
	if diff := cmp.Diff(want, ids(items)); diff != "" {
		t.Errorf("id sequence mismatch (-want +got):\n%s", diff)
	}

	names := fileNames(t, s)
	for _, name := range []string{"img-1.jpg", "img-2.jpg", "img-3.jpg"} {
		if !names[name] {
			t.Errorf("expected backing file %s to exist", name)
		}
	}
	if names["img-4.jpg"] {
		t.Error("expected img-4.jpg renamed away")
	}
}

func TestDelete_OtherTypeUntouchedAndOrderPreserved(t *testing.T) {
	s := newTestStore(t)
	// Interleaved types; list order is insertion order.
	seed(t, s, "img-1", "vid-1", "img-2", "vid-2", "img-3")

	items, err := s.Delete("img-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// img-2 and img-3 shift down; vids keep ids and everyone keeps
	// relative position.
	want := []string{"vid-1", "img-1", "vid-2", "img-2"}
	if diff := cmp.Diff(want, ids(items)); diff != "" {
		t.Errorf("order/mapping mismatch (-want +got):\n%s", diff)
	}
}

func TestDelete_MissingBackingFileTolerated(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, "img-1", "img-2")
	if err := os.Remove(filepath.Join(s.filesDir, "img-1.jpg")); err != nil {
		t.Fatalf("remove backing file: %v", err)
	}

	if _, err := s.Delete("img-1"); err != nil {
		t.Errorf("expected delete to proceed despite missing file, got %v", err)
	}
}

func TestDelete_UnknownIdNotFound(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, "img-1")
	if _, err := s.Delete("img-99"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete_PersistsRenumberedList(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, "img-1", "img-2", "img-3")
	s.Delete("img-1")

	// Reload from disk through a fresh store: every rename must have
	// reached the persisted list, not just the in-memory view.
	fresh := NewStore(filepath.Dir(s.recordsPath))
	items, err := fresh.List()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	want := []string{"img-1", "img-2"}
	if diff := cmp.Diff(want, ids(items)); diff != "" {
		t.Errorf("persisted list mismatch (-want +got):\n%s", diff)
	}
	for _, item := range items {
		if item.Path != "files/"+item.ID+".jpg" {
			t.Errorf("expected path to track id, got %+v", item)
		}
	}
}

// --- Renumber Pass Tests ---

func TestRenumber_CompactsExistingGaps(t *testing.T) {
	s := newTestStore(t)
	// Gaps from prior deletes: {img-1, img-3, img-5} plus an unrelated vid.
	seed(t, s, "img-1", "img-3", "vid-2", "img-5")

	items, err := s.Renumber()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"img-1", "img-2", "vid-1", "img-3"}
	if diff := cmp.Diff(want, ids(items)); diff != "" {
		t.Errorf("compacted sequence mismatch (-want +got):\n%s", diff)
	}

	names := fileNames(t, s)
	for _, name := range []string{"img-1.jpg", "img-2.jpg", "img-3.jpg", "vid-1.mp4"} {
		if !names[name] {
			t.Errorf("expected backing file %s after compaction", name)
		}
	}
}

func TestRenumber_AlreadyDenseIsNoOp(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, "img-1", "img-2", "img-3")

	before, _ := s.List()
	after, err := s.Renumber()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(before, after, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("expected no-op on dense sequence (-before +after):\n%s", diff)
	}
}

func TestRenumber_RenameFailureLeavesGapAndContinues(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, "img-2", "img-4", "img-6")

	// Fail only the first rename (img-2 -> img-1).
	failed := false
	realRename := s.rename
	s.rename = func(oldPath, newPath string) error {
		if !failed {
			failed = true
			return errors.New("permission denied")
		}
		return realRename(oldPath, newPath)
	}

	items, err := s.Renumber()
	if err != nil {
		t.Fatalf("expected renumber to continue past a failed rename, got %v", err)
	}

	// The failed item keeps img-2; its number stays reserved so the rest
	// compact around it without ever duplicating an id.
	want := []string{"img-2", "img-1", "img-3"}
	if diff := cmp.Diff(want, ids(items)); diff != "" {
		t.Errorf("post-failure sequence mismatch (-want +got):\n%s", diff)
	}

	seen := map[string]bool{}
	for _, id := range ids(items) {
		if seen[id] {
			t.Fatalf("duplicate id %q after failed rename: %v", id, ids(items))
		}
		seen[id] = true
	}

	// With renames working again the set is already dense, so the recovery
	// pass is a no-op.
	s.rename = realRename
	items, err = s.Renumber()
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if diff := cmp.Diff(want, ids(items)); diff != "" {
		t.Errorf("recovery pass changed a dense set (-want +got):\n%s", diff)
	}
}
