package config

import (
	"testing"
	"time"
)

func TestEnvStr(t *testing.T) {
	t.Setenv("TEST_STR", "hello")
	if v := envStr("TEST_STR", "fallback"); v != "hello" {
		t.Fatalf("expected hello, got %s", v)
	}
	if v := envStr("TEST_STR_MISSING", "fallback"); v != "fallback" {
		t.Fatalf("expected fallback, got %s", v)
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	if v := envInt("TEST_INT", 0); v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
	// Missing and malformed values fall back to the default.
	if v := envInt("TEST_INT_MISSING", 99); v != 99 {
		t.Fatalf("expected fallback 99, got %d", v)
	}
	t.Setenv("TEST_INT_BAD", "abc")
	if v := envInt("TEST_INT_BAD", 7); v != 7 {
		t.Fatalf("expected fallback 7, got %d", v)
	}
}

func TestEnvBool(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")
	if !envBool("TEST_BOOL", false) {
		t.Fatal("expected true")
	}
	t.Setenv("TEST_BOOL_BAD", "yep")
	if envBool("TEST_BOOL_BAD", false) {
		t.Fatal("expected fallback false for malformed value")
	}
}

func TestEnvDuration(t *testing.T) {
	t.Setenv("TEST_DUR", "5s")
	if v := envDuration("TEST_DUR", 0); v != 5*time.Second {
		t.Fatalf("expected 5s, got %s", v)
	}
	t.Setenv("TEST_DUR_BAD", "five-seconds")
	if v := envDuration("TEST_DUR_BAD", time.Minute); v != time.Minute {
		t.Fatalf("expected fallback 1m, got %s", v)
	}
}

func TestLoadSucceedsWithDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected Load() to succeed with defaults, got: %v", err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.ChangeFeedCapacity != 1000 {
		t.Fatalf("expected default change feed capacity 1000, got %d", cfg.ChangeFeedCapacity)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv("PLANLINE_CHANGE_FEED_CAPACITY", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected Load() to fail with zero change feed capacity")
	}

	t.Setenv("PLANLINE_CHANGE_FEED_CAPACITY", "1000")
	t.Setenv("PLANLINE_RATE_LIMIT_PER_MINUTE", "-5")
	if _, err := Load(); err == nil {
		t.Fatal("expected Load() to fail with negative rate limit")
	}
}
