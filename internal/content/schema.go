package content

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Per-key document schemas. Keys with a registered schema get strict decoding
// at the API boundary, so a malformed document never corrupts downstream
// readers; keys without one accept any JSON object.

// HeroDoc is the home-hero document.
type HeroDoc struct {
	Heading    string `json:"heading"`
	Subheading string `json:"subheading,omitempty"`
	ImageURL   string `json:"imageUrl,omitempty"`
	CTAText    string `json:"ctaText,omitempty"`
	CTALink    string `json:"ctaLink,omitempty"`
}

// NoticesDoc is the home-notices document.
type NoticesDoc struct {
	Notices []Notice `json:"notices"`
}

// Notice is one dated announcement.
type Notice struct {
	Title string `json:"title"`
	Date  string `json:"date,omitempty"`
	Body  string `json:"body,omitempty"`
	Link  string `json:"link,omitempty"`
}

// ContactDoc is the contact-info document.
type ContactDoc struct {
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	MapURL  string `json:"mapUrl,omitempty"`
}

// schemaChecks maps a content key to its strict decoder.
var schemaChecks = map[string]func(json.RawMessage) error{
	"home-hero":    strictDecode[HeroDoc],
	"home-notices": strictDecode[NoticesDoc],
	"contact-info": strictDecode[ContactDoc],
}

// ValidateSchema checks data against the schema registered for key, if any.
// Returns ErrNotObject-wrapped detail on a schema violation.
func ValidateSchema(key string, data json.RawMessage) error {
	check, ok := schemaChecks[key]
	if !ok {
		return nil
	}
	if err := check(data); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotObject, key, err)
	}
	return nil
}

func strictDecode[T any](data json.RawMessage) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var doc T
	return dec.Decode(&doc)
}
