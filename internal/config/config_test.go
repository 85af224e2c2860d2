package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StartingClaims != 4 || cfg.ClaimsPerHour != 2.0 || cfg.MaxClaims != 50 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Fatalf("default backend = %q", cfg.Storage.Backend)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	body := []byte(`
starting_claims: 8
claims_per_hour: 0.5
max_claims: 100
pvp_in_player_claims: false
storage:
  backend: memory
`)
	if err := os.WriteFile(p, body, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StartingClaims != 8 || cfg.ClaimsPerHour != 0.5 || cfg.MaxClaims != 100 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.PvPInPlayerClaims {
		t.Fatalf("pvp_in_player_claims should be false")
	}
	if cfg.Storage.Backend != "memory" {
		t.Fatalf("backend = %q", cfg.Storage.Backend)
	}
	// Untouched keys keep defaults.
	if cfg.ClaimBufferSize != 2 {
		t.Fatalf("claim_buffer_size = %d", cfg.ClaimBufferSize)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte("max_claims: 0\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(p); err == nil {
		t.Fatalf("expected validation error for max_claims: 0")
	}

	if err := os.WriteFile(p, []byte("storage:\n  backend: redis\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(p); err == nil {
		t.Fatalf("expected validation error for unknown backend")
	}
}
