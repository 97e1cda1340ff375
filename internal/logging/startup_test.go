package logging

import "testing"

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("SCHOOL_TEST_VAR", "")
	if got := EnvOrDefault("SCHOOL_TEST_VAR", "fallback"); got != "fallback" {
		t.Errorf("expected %q for unset variable, got %q", "fallback", got)
	}

	t.Setenv("SCHOOL_TEST_VAR", "set")
	if got := EnvOrDefault("SCHOOL_TEST_VAR", "fallback"); got != "set" {
		t.Errorf("expected %q, got %q", "set", got)
	}
}

func TestStartupLogger_BuildChain(t *testing.T) {
	// The builder accumulates without emitting; Log() must not panic with
	// every field populated.
	sl := NewStartupLogger("school-web").
		CommitHash("abc1234").
		BuildTime("2026-08-28T00:00:00Z").
		S3Bucket("media", "school-media").
		DynamoTable("rateLimit", "school-ratelimit").
		DataDir("content", "data").
		Feature("media", true).
		Config("port", "8080")

	if sl.commitHash != "abc1234" {
		t.Errorf("expected commit hash recorded, got %q", sl.commitHash)
	}
	if sl.s3Buckets["media"] != "school-media" {
		t.Errorf("expected bucket recorded, got %q", sl.s3Buckets["media"])
	}
	sl.Log()
}
