package gallery

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// renumber re-sequences the same-prefix items in the canonical slice so
// their numeric suffixes are exactly 1..count, renaming backing files to
// match. It mutates items in place through indices into the one canonical
// list — there is no second copy whose updates could be lost — and never
// reorders the slice.
//
// A failed rename is logged and skipped: the list keeps that item's old id,
// leaving a temporary gap the next pass will compact. Callers tolerate this
// eventual consistency.
func (s *Store) renumber(items []Item, prefix string) {
	// Indices of same-prefix items, sorted ascending by numeric suffix.
	// Other-prefix items are untouched and keep their positions.
	var view []int
	for i, item := range items {
		if p, _, ok := splitID(item.ID); ok && p == prefix {
			view = append(view, i)
		}
	}
	sort.Slice(view, func(a, b int) bool {
		_, na, _ := splitID(items[view[a]].ID)
		_, nb, _ := splitID(items[view[b]].ID)
		return na < nb
	})

	// taken tracks numbers already in use after this pass: assigned targets
	// plus the current numbers of items whose rename failed. Skipping taken
	// numbers means a failure produces a gap, never a duplicate id.
	taken := make(map[int]bool, len(view))
	next := 1
	for _, i := range view {
		_, current, _ := splitID(items[i].ID)
		for taken[next] {
			next++
		}
		if current == next {
			taken[current] = true
			next++
			continue
		}

		oldName := filepath.Base(items[i].Path)
		ext := filepath.Ext(oldName)
		newID := fmt.Sprintf("%s-%d", prefix, next)
		newName := newID + ext

		oldPath := filepath.Join(s.filesDir, oldName)
		newPath := filepath.Join(s.filesDir, newName)
		if err := s.rename(oldPath, newPath); err != nil {
			log.Warn().Err(err).
				Str("from", items[i].ID).
				Str("to", newID).
				Msg("Gallery renumber rename failed; leaving gap for next pass")
			taken[current] = true
			continue
		}

		items[i].ID = newID
		items[i].Path = filepath.ToSlash(filepath.Join("files", newName))
		taken[next] = true
		next++
	}
}

// splitID parses "img-7" into ("img", 7, true). Anything else is not a
// renumberable id.
func splitID(id string) (prefix string, n int, ok bool) {
	idx := strings.LastIndexByte(id, '-')
	if idx <= 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(id[idx+1:])
	if err != nil || n <= 0 {
		return "", 0, false
	}
	return id[:idx], n, true
}
