// Copyright 2025 James Ross
package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("WORKER_COUNT")
	cfg, err := Load("nonexistent.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Worker.Count != 1 {
		t.Fatalf("expected default worker count 1, got %d", cfg.Worker.Count)
	}
	if cfg.Redis.URL == "" {
		t.Fatalf("expected default redis url")
	}
	if cfg.API.Prefix != "/v1" {
		t.Fatalf("expected default api prefix /v1, got %q", cfg.API.Prefix)
	}
}

func TestValidateFails(t *testing.T) {
	cfg := defaultConfig()
	cfg.Worker.Count = 0
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for worker.count < 1")
	}
	cfg = defaultConfig()
	cfg.API.Port = 70000
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for invalid api.port")
	}
	cfg = defaultConfig()
	cfg.Admission.MaxInflight = -1
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for negative admission.max_inflight")
	}
}
