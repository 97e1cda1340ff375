package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dpsweb/school-web/internal/auth"
	"github.com/dpsweb/school-web/internal/content"
)

// recordsKey is the content-store key holding the hosted media record list.
const recordsKey = "gallery-media"

// hostCallTimeout bounds every call to the external host. A timeout lands in
// the same best-effort-failure category as a host error.
const hostCallTimeout = 30 * time.Second

// Per-type file policy, enforced before any network call.
const (
	MaxImageBytes int64 = 10 * 1024 * 1024
	MaxVideoBytes int64 = 100 * 1024 * 1024
)

var imageContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var videoContentTypes = map[string]bool{
	"video/mp4":       true,
	"video/quicktime": true,
	"video/webm":      true,
}

var (
	// ErrUnsupportedType covers both an unknown media type and a MIME type
	// outside the per-type allow-list.
	ErrUnsupportedType = errors.New("unsupported media type")
	// ErrTooLarge means the declared size exceeds the per-type ceiling.
	ErrTooLarge = errors.New("media file too large")
	// ErrNotFound means no record exists for the given id.
	ErrNotFound = errors.New("media record not found")
)

// Record is one hosted media item. The id is timestamp-based and
// non-sequential; the hosted subsystem never renumbers.
type Record struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	Key         string    `json:"key"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// recordsDoc is the content-store document wrapping the list.
type recordsDoc struct {
	Items []Record `json:"items"`
}

// UploadInput is everything the guard needs to admit an upload.
type UploadInput struct {
	Filename    string
	ContentType string
	Type        string // "image" or "video"
	Title       string
	Category    string
	Description string
	Size        int64
	ReplaceID   string // when set, the upload replaces an existing record's asset
	Body        io.Reader
}

// Guard wraps upload/delete against the media host. Every call verifies the
// presented Basic-Auth credentials before touching the host or the store.
type Guard struct {
	verifier auth.Verifier
	host     Host
	store    *content.Store

	now func() time.Time
}

// NewGuard creates a Guard.
func NewGuard(verifier auth.Verifier, host Host, store *content.Store) *Guard {
	return &Guard{verifier: verifier, host: host, store: store, now: time.Now}
}

// List returns all hosted media records.
func (g *Guard) List(_ context.Context) ([]Record, error) {
	doc, err := g.loadRecords()
	if err != nil {
		return nil, err
	}
	return doc.Items, nil
}

// Upload admits a new asset or replaces an existing one.
//
// Order of operations keeps the store consistent: policy checks first, then
// the host upload, and only after that succeeds is the record written — a
// failed upload leaves zero store mutations. On replace, the old host asset
// is deleted best-effort after the new upload succeeds; an orphaned old
// asset is an acceptable residual cost, an aborted replacement is not.
func (g *Guard) Upload(ctx context.Context, authHeader string, in UploadInput) (*Record, error) {
	if err := g.authorize(authHeader); err != nil {
		return nil, err
	}

	maxSize, err := policyFor(in.Type, in.ContentType)
	if err != nil {
		return nil, err
	}
	if in.Size <= 0 || in.Size > maxSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, in.Size, maxSize)
	}

	doc, err := g.loadRecords()
	if err != nil {
		return nil, err
	}

	// Resolve the replace target before uploading so a bad id fails fast.
	replaceIdx := -1
	if in.ReplaceID != "" {
		for i, rec := range doc.Items {
			if rec.ID == in.ReplaceID {
				replaceIdx = i
				break
			}
		}
		if replaceIdx < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, in.ReplaceID)
		}
	}

	key := uuid.NewString() + "/" + filepath.Base(in.Filename)

	hostCtx, cancel := context.WithTimeout(ctx, hostCallTimeout)
	defer cancel()
	url, err := g.host.Upload(hostCtx, key, in.ContentType, in.Body)
	if err != nil {
		return nil, fmt.Errorf("host upload failed: %w", err)
	}

	rec := Record{
		ID:          "media-" + strconv.FormatInt(g.now().UnixMilli(), 10),
		Type:        in.Type,
		Title:       in.Title,
		Category:    in.Category,
		Description: in.Description,
		URL:         url,
		Key:         key,
		UploadedAt:  g.now().UTC(),
	}

	if replaceIdx >= 0 {
		old := doc.Items[replaceIdx]
		g.bestEffortHostDelete(ctx, old.Key, "replace old asset")
		rec.ID = old.ID // a replacement keeps the record's identity
		doc.Items[replaceIdx] = rec
	} else {
		doc.Items = append(doc.Items, rec)
	}

	if err := g.saveRecords(doc); err != nil {
		return nil, err
	}

	log.Info().Str("id", rec.ID).Str("type", rec.Type).Str("key", rec.Key).Msg("Media record stored")
	return &rec, nil
}

// Delete removes a hosted media record and its asset. The host delete is
// best-effort and runs before the record removal: a record pointing at a
// missing asset is recoverable by re-running delete, an orphaned asset with
// no record is just storage cost.
func (g *Guard) Delete(ctx context.Context, authHeader, id string) error {
	if err := g.authorize(authHeader); err != nil {
		return err
	}

	doc, err := g.loadRecords()
	if err != nil {
		return err
	}

	idx := -1
	for i, rec := range doc.Items {
		if rec.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	g.bestEffortHostDelete(ctx, doc.Items[idx].Key, "delete asset")

	doc.Items = append(doc.Items[:idx], doc.Items[idx+1:]...)
	if err := g.saveRecords(doc); err != nil {
		return err
	}

	log.Info().Str("id", id).Msg("Media record deleted")
	return nil
}

// authorize verifies the Basic-Auth header. A missing or malformed header is
// a verification failure, not a crash; auth.ErrNotConfigured passes through
// so handlers can answer 5xx instead of 401.
func (g *Guard) authorize(authHeader string) error {
	username, password, ok := auth.DecodeBasic(authHeader)
	if !ok {
		return auth.ErrInvalidCredentials
	}
	return g.verifier.Verify(username, password)
}

func (g *Guard) bestEffortHostDelete(ctx context.Context, key, op string) {
	hostCtx, cancel := context.WithTimeout(ctx, hostCallTimeout)
	defer cancel()
	if err := g.host.Delete(hostCtx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Str("op", op).Msg("Best-effort host delete failed; continuing")
	}
}

func policyFor(mediaType, contentType string) (int64, error) {
	switch mediaType {
	case "image":
		if !imageContentTypes[contentType] {
			return 0, fmt.Errorf("%w: %s for image", ErrUnsupportedType, contentType)
		}
		return MaxImageBytes, nil
	case "video":
		if !videoContentTypes[contentType] {
			return 0, fmt.Errorf("%w: %s for video", ErrUnsupportedType, contentType)
		}
		return MaxVideoBytes, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, mediaType)
	}
}

func (g *Guard) loadRecords() (*recordsDoc, error) {
	raw, err := g.store.Read(recordsKey)
	if err != nil {
		return nil, err
	}
	doc := &recordsDoc{}
	if raw == nil {
		return doc, nil
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("decode media records: %w", err)
	}
	return doc, nil
}

func (g *Guard) saveRecords(doc *recordsDoc) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode media records: %w", err)
	}
	return g.store.Write(recordsKey, data)
}
