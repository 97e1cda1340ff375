// Package content implements the JSON-document content store and the key
// validation that gates access to it. Documents are flat files named by a
// composite "section-subsection" key and replaced wholesale on every write.
package content

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Error taxonomy. Handlers map these to HTTP statuses, so "not allowed" must
// stay distinct from "malformed".
var (
	ErrMalformedKey = errors.New("malformed content key")
	ErrNotAllowed   = errors.New("content key not allowed")
	ErrTooLarge     = errors.New("content document too large")
	ErrNotObject    = errors.New("content document must be a JSON object")
)

// segmentPattern is the sole defense against path traversal into the store:
// nothing outside this class — no separators, no dots — ever reaches a
// filename.
var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// writeAllowList is the fixed set of keys the content API may create or
// overwrite. Reads are not restricted to it; unknown keys just read as null.
var writeAllowList = map[string]bool{
	"home-hero":            true,
	"home-about":           true,
	"home-stats":           true,
	"home-notices":         true,
	"about-mission":        true,
	"about-history":        true,
	"academics-curriculum": true,
	"academics-calendar":   true,
	"admissions-process":   true,
	"admissions-fees":      true,
	"contact-info":         true,
	"gallery-media":        true,
	"faculty-records":      true,
}

// ResolveKey validates both segments and resolves them to a storage key.
// Segments are matched against [A-Za-z0-9_-]+, lower-cased, and joined with
// a hyphen. Any other character is ErrMalformedKey.
func ResolveKey(section, subsection string) (string, error) {
	if !segmentPattern.MatchString(section) || !segmentPattern.MatchString(subsection) {
		return "", fmt.Errorf("%w: %q/%q", ErrMalformedKey, section, subsection)
	}
	return strings.ToLower(section) + "-" + strings.ToLower(subsection), nil
}

// WriteAllowed reports whether the content API may write the resolved key.
func WriteAllowed(key string) bool {
	return writeAllowList[key]
}
