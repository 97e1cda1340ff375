package config

import "testing"

func TestLoad_TrimsCredentials(t *testing.T) {
	t.Setenv(EnvAdminUsername, "  admin  ")
	t.Setenv(EnvAdminPassword, "\tsecret\n")

	cfg := Load()
	if cfg.AdminUsername != "admin" {
		t.Errorf("expected trimmed username %q, got %q", "admin", cfg.AdminUsername)
	}
	if cfg.AdminPassword != "secret" {
		t.Errorf("expected trimmed password %q, got %q", "secret", cfg.AdminPassword)
	}
}

func TestLoad_DataDirDefault(t *testing.T) {
	t.Setenv(EnvDataDir, "")
	if cfg := Load(); cfg.DataDir != "data" {
		t.Errorf("expected default data dir %q, got %q", "data", cfg.DataDir)
	}

	t.Setenv(EnvDataDir, "/srv/school")
	if cfg := Load(); cfg.DataDir != "/srv/school" {
		t.Errorf("expected data dir %q, got %q", "/srv/school", cfg.DataDir)
	}
}

func TestValidateForMedia(t *testing.T) {
	cfg := Config{}
	if err := cfg.ValidateForMedia(); err == nil {
		t.Error("expected error without a media bucket")
	}

	cfg.MediaBucket = "school-media"
	if err := cfg.ValidateForMedia(); err != nil {
		t.Errorf("expected no error with a bucket, got %v", err)
	}
}
