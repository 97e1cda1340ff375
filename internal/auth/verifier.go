// Package auth implements the admin credential verifier and the session
// cookie issuer for the school-web admin API.
//
// The site has exactly one admin identity: a process-wide (username,
// password) pair loaded from the environment at startup. Verification is a
// constant-time comparison against those secrets. This plaintext shared
// secret is suitable only for single-admin, low-stakes deployments; swap in
// a different Verifier implementation for anything multi-admin.
package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"
)

// ErrNotConfigured is returned when either configured secret is absent.
// Callers must surface this as a server error (5xx), never a 401.
var ErrNotConfigured = errors.New("admin credentials not configured")

// ErrInvalidCredentials is returned when the presented pair does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Verifier checks a presented credential pair against a configured secret.
// Implementations decide the comparison strategy (plaintext equality,
// salted hash, external identity provider).
type Verifier interface {
	// Verify returns nil on a match, ErrInvalidCredentials on a mismatch,
	// and ErrNotConfigured when the server has no secrets to compare against.
	Verify(username, password string) error
}

// StaticVerifier compares against a fixed in-process credential pair.
type StaticVerifier struct {
	username string
	password string
}

// NewStaticVerifier creates a StaticVerifier for the configured secrets.
// Surrounding whitespace is trimmed once here so Verify compares like for like.
func NewStaticVerifier(username, password string) *StaticVerifier {
	return &StaticVerifier{
		username: strings.TrimSpace(username),
		password: strings.TrimSpace(password),
	}
}

// Verify implements Verifier. Both comparisons always run so timing does not
// reveal which field mismatched.
func (v *StaticVerifier) Verify(username, password string) error {
	if v.username == "" || v.password == "" {
		return ErrNotConfigured
	}

	userOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(v.username))
	passOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(password)), []byte(v.password))
	if userOK&passOK == 1 {
		return nil
	}
	return ErrInvalidCredentials
}

// Credentials is the JSON login body accepted by the login endpoint.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// DecodeBasic extracts a credential pair from an Authorization header value.
// Returns ok=false for a missing header, a non-Basic scheme, malformed
// base64, or a payload without a colon — all of which callers treat as a
// verification failure, never a crash.
func DecodeBasic(header string) (username, password string, ok bool) {
	const prefix = "Basic "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", "", false
	}

	raw, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}

	// Split on the first colon; passwords may contain colons themselves.
	pair := string(raw)
	idx := strings.IndexByte(pair, ':')
	if idx < 0 {
		return "", "", false
	}
	return pair[:idx], pair[idx+1:], true
}
