// Package faculty manages faculty records: name, role, quote, and a hosted
// image reference. Records live in the content store under one document.
// The ids "principal" and "vice-principal" are reserved for the leadership
// pages, but storage and guard logic treat every record uniformly.
package faculty

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/rs/zerolog/log"

	"github.com/dpsweb/school-web/internal/auth"
	"github.com/dpsweb/school-web/internal/content"
)

// recordsKey is the content-store key holding the faculty record list.
const recordsKey = "faculty-records"

// Role values. Fixed small enum; anything else is rejected at the boundary.
const (
	RolePrincipal     = "principal"
	RoleVicePrincipal = "vice-principal"
	RoleTeacher       = "teacher"
	RoleStaff         = "staff"
)

var validRoles = map[string]bool{
	RolePrincipal:     true,
	RoleVicePrincipal: true,
	RoleTeacher:       true,
	RoleStaff:         true,
}

// ReservedIDs are excluded from generic listings by presentation layers.
var ReservedIDs = []string{"principal", "vice-principal"}

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

var (
	ErrNotFound    = errors.New("faculty record not found")
	ErrInvalidRole = errors.New("invalid faculty role")
	ErrInvalidID   = errors.New("invalid faculty id")
	ErrDuplicateID = errors.New("faculty id already exists")
)

// Record is one faculty member.
type Record struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Quote    string `json:"quote,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

type recordsDoc struct {
	Items []Record `json:"items"`
}

// Store is the faculty record store. Mutations require a verified Basic-Auth
// credential, same as the media guard.
type Store struct {
	verifier auth.Verifier
	content  *content.Store
}

// NewStore creates a Store.
func NewStore(verifier auth.Verifier, contentStore *content.Store) *Store {
	return &Store{verifier: verifier, content: contentStore}
}

// List returns all faculty records in stored order.
func (s *Store) List() ([]Record, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Items, nil
}

// Get returns the record with the given id.
func (s *Store) Get(id string) (*Record, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range doc.Items {
		if doc.Items[i].ID == id {
			return &doc.Items[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Create adds a new record.
func (s *Store) Create(authHeader string, rec Record) (*Record, error) {
	if err := s.authorize(authHeader); err != nil {
		return nil, err
	}
	if err := validate(rec); err != nil {
		return nil, err
	}

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, existing := range doc.Items {
		if existing.ID == rec.ID {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
		}
	}

	doc.Items = append(doc.Items, rec)
	if err := s.save(doc); err != nil {
		return nil, err
	}

	log.Info().Str("id", rec.ID).Str("role", rec.Role).Msg("Faculty record created")
	return &rec, nil
}

// Update replaces the record with the given id wholesale.
func (s *Store) Update(authHeader, id string, rec Record) (*Record, error) {
	if err := s.authorize(authHeader); err != nil {
		return nil, err
	}
	rec.ID = id
	if err := validate(rec); err != nil {
		return nil, err
	}

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range doc.Items {
		if doc.Items[i].ID == id {
			doc.Items[i] = rec
			if err := s.save(doc); err != nil {
				return nil, err
			}
			log.Info().Str("id", id).Msg("Faculty record updated")
			return &rec, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Delete removes the record with the given id.
func (s *Store) Delete(authHeader, id string) error {
	if err := s.authorize(authHeader); err != nil {
		return err
	}

	doc, err := s.load()
	if err != nil {
		return err
	}
	for i := range doc.Items {
		if doc.Items[i].ID == id {
			doc.Items = append(doc.Items[:i], doc.Items[i+1:]...)
			if err := s.save(doc); err != nil {
				return err
			}
			log.Info().Str("id", id).Msg("Faculty record deleted")
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (s *Store) authorize(authHeader string) error {
	username, password, ok := auth.DecodeBasic(authHeader)
	if !ok {
		return auth.ErrInvalidCredentials
	}
	return s.verifier.Verify(username, password)
}

func validate(rec Record) error {
	if !idPattern.MatchString(rec.ID) {
		return fmt.Errorf("%w: %q", ErrInvalidID, rec.ID)
	}
	if !validRoles[rec.Role] {
		return fmt.Errorf("%w: %q", ErrInvalidRole, rec.Role)
	}
	if rec.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidID)
	}
	return nil
}

func (s *Store) load() (*recordsDoc, error) {
	raw, err := s.content.Read(recordsKey)
	if err != nil {
		return nil, err
	}
	doc := &recordsDoc{}
	if raw == nil {
		return doc, nil
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("decode faculty records: %w", err)
	}
	return doc, nil
}

func (s *Store) save(doc *recordsDoc) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode faculty records: %w", err)
	}
	return s.content.Write(recordsKey, data)
}
