// Package config loads the server configuration from the environment.
// Secrets (the admin credential pair) are only ever read here; the rest of
// the codebase receives them through the Config struct and never touches
// os.Getenv directly.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Environment variable names.
const (
	EnvAdminUsername  = "SCHOOL_ADMIN_USERNAME"
	EnvAdminPassword  = "SCHOOL_ADMIN_PASSWORD"
	EnvDataDir        = "SCHOOL_DATA_DIR"
	EnvMediaBucket    = "SCHOOL_MEDIA_BUCKET"
	EnvMediaBaseURL   = "SCHOOL_MEDIA_BASE_URL"
	EnvRateLimitTable = "SCHOOL_RATELIMIT_TABLE"
	EnvLogLevel       = "SCHOOL_LOG_LEVEL"
)

// Config holds all runtime configuration for the school-web server.
type Config struct {
	// AdminUsername and AdminPassword are the single shared-secret admin
	// credential pair. Either being empty means the server is misconfigured
	// and every credential check must fail with a distinct 5xx signal.
	AdminUsername string
	AdminPassword string

	// DataDir is the root for the content store and legacy gallery files.
	DataDir string

	// MediaBucket is the S3 bucket backing the hosted media subsystem.
	// MediaBaseURL is the public URL prefix for objects in that bucket.
	MediaBucket  string
	MediaBaseURL string

	// RateLimitTable, when set, selects the DynamoDB-backed rate-limit
	// counter store instead of the in-memory one.
	RateLimitTable string
}

// Load reads configuration from the environment. Credentials may be absent;
// callers surface that as a misconfiguration at request time, not at boot,
// so read-only deployments still start.
func Load() Config {
	return Config{
		AdminUsername:  strings.TrimSpace(os.Getenv(EnvAdminUsername)),
		AdminPassword:  strings.TrimSpace(os.Getenv(EnvAdminPassword)),
		DataDir:        envOrDefault(EnvDataDir, "data"),
		MediaBucket:    os.Getenv(EnvMediaBucket),
		MediaBaseURL:   os.Getenv(EnvMediaBaseURL),
		RateLimitTable: os.Getenv(EnvRateLimitTable),
	}
}

// ValidateForMedia checks the settings the hosted-media subsystem needs.
func (c Config) ValidateForMedia() error {
	if c.MediaBucket == "" {
		return fmt.Errorf("%s is required for media endpoints", EnvMediaBucket)
	}
	return nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
