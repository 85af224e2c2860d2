// Package config loads the server configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"landwarden.gg/internal/claim/quota"
)

type Config struct {
	Listen string `yaml:"listen"`

	StartingClaims    int     `yaml:"starting_claims"`
	ClaimsPerHour     float64 `yaml:"claims_per_hour"`
	MaxClaims         int     `yaml:"max_claims"`
	ClaimBufferSize   int     `yaml:"claim_buffer_size"`
	PvPInPlayerClaims bool    `yaml:"pvp_in_player_claims"`

	PlaytimeSaveIntervalSecs int `yaml:"playtime_save_interval"`

	// AllowedOrigins are Origin header values accepted on the websocket
	// upgrade beyond same-host requests. "*" allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`

	Storage Storage `yaml:"storage"`

	AuditDir string `yaml:"audit_dir"`

	BlockGroupsPath string `yaml:"block_groups"`
}

type Storage struct {
	// Backend is one of "sqlite", "bolt", "memory".
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

func Defaults() Config {
	return Config{
		Listen:                   ":8080",
		StartingClaims:           4,
		ClaimsPerHour:            2.0,
		MaxClaims:                50,
		ClaimBufferSize:          2,
		PvPInPlayerClaims:        true,
		PlaytimeSaveIntervalSecs: 60,
		Storage:                  Storage{Backend: "sqlite", Path: "./data/claims.db"},
		AuditDir:                 "./data/audit",
	}
}

// Load reads a YAML config. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config.yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config.yaml: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.StartingClaims < 0 {
		return fmt.Errorf("starting_claims must be >= 0")
	}
	if c.ClaimsPerHour < 0 {
		return fmt.Errorf("claims_per_hour must be >= 0")
	}
	if c.MaxClaims < 1 {
		return fmt.Errorf("max_claims must be >= 1")
	}
	if c.ClaimBufferSize < 0 {
		return fmt.Errorf("claim_buffer_size must be >= 0")
	}
	if c.PlaytimeSaveIntervalSecs < 10 {
		return fmt.Errorf("playtime_save_interval must be >= 10")
	}
	switch c.Storage.Backend {
	case "sqlite", "bolt", "memory":
	default:
		return fmt.Errorf("storage.backend must be sqlite, bolt or memory")
	}
	return nil
}

// QuotaLimits extracts the server-wide quota settings.
func (c Config) QuotaLimits() quota.Limits {
	return quota.Limits{
		StartingClaims: c.StartingClaims,
		ClaimsPerHour:  c.ClaimsPerHour,
		MaxClaims:      c.MaxClaims,
	}
}
