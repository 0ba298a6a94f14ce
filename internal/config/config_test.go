package config

import (
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.TargetScore != 10 {
		t.Fatalf("expected target score 10, got %d", cfg.TargetScore)
	}
	if cfg.MaxRooms <= 0 {
		t.Fatal("expected a positive room cap")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MAX_ROOMS", "7")
	t.Setenv("EVICT_TIMEOUT", "90s")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":9000" {
		t.Fatalf("expected :9000, got %s", cfg.Addr)
	}
	if cfg.MaxRooms != 7 {
		t.Fatalf("expected 7 rooms, got %d", cfg.MaxRooms)
	}
	if cfg.EvictTimeout != 90*time.Second {
		t.Fatalf("expected 90s evict timeout, got %v", cfg.EvictTimeout)
	}
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("MAX_ROOMS", "lots")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for unparseable MAX_ROOMS")
	}
}
