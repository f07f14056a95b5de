package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"cricketpark/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("CRICKETPARK_DB_PATH", filepath.Join(tmpDir, "park.db"))

	yamlContent := `
app:
  name: "parks"
database:
  path: "${CRICKETPARK_DB_PATH}"
cache:
  venue_ttl: 90s
outbox:
  enabled: true
  poll_interval: 500ms
api:
  enabled: true
  auth:
    enabled: true
    api_keys:
      - key: "k1"
        name: "front"
        permissions: ["bookings:write"]
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Database.Path != filepath.Join(tmpDir, "park.db") {
		t.Errorf("expected expanded database path, got %s", cfg.Database.Path)
	}
	if cfg.Cache.VenueTTL != 90*time.Second {
		t.Errorf("expected venue ttl 90s, got %s", cfg.Cache.VenueTTL)
	}
	if cfg.Outbox.PollInterval != 500*time.Millisecond {
		t.Errorf("expected poll interval 500ms, got %s", cfg.Outbox.PollInterval)
	}
	if !cfg.API.HTTP.Enabled {
		t.Errorf("expected http api enabled by default when api is enabled")
	}
	if len(cfg.API.Auth.APIKeys) != 1 || cfg.API.Auth.APIKeys[0].Name != "front" {
		t.Errorf("expected 1 api key named front")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     Config{Database: DatabaseConfig{Path: "path"}},
			wantErr: false,
		},
		{
			name:    "missing database path",
			cfg:     Config{},
			wantErr: true,
		},
		{
			name: "negative rps",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				API:      APIConfig{RateLimit: APIRateLimitConfig{RPS: -1}},
			},
			wantErr: true,
		},
		{
			name: "backup without storage",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Backup:   BackupConfig{Enabled: true},
			},
			wantErr: true,
		},
		{
			name: "duplicate api key",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				API: APIConfig{Auth: APIAuthConfig{APIKeys: []APIClientKey{
					{Key: "a", Name: "one"},
					{Key: "a", Name: "two"},
				}}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.API.HTTP.Port != 8080 {
		t.Errorf("expected default http port 8080, got %d", cfg.API.HTTP.Port)
	}
	if cfg.API.GRPC.Port != 8081 {
		t.Errorf("expected default gRPC port 8081, got %d", cfg.API.GRPC.Port)
	}
	if cfg.Cache.VenueTTL != models.DefaultVenueCacheTTL*time.Second {
		t.Errorf("unexpected venue ttl %s", cfg.Cache.VenueTTL)
	}
	if cfg.Booking.RateLimitPerMinute != models.DefaultBookingRateLimit {
		t.Errorf("expected default booking rate limit %d, got %d", models.DefaultBookingRateLimit, cfg.Booking.RateLimitPerMinute)
	}
	if cfg.Outbox.Channel != "bookings:events" {
		t.Errorf("unexpected outbox channel %s", cfg.Outbox.Channel)
	}
	if cfg.Database.BusyTimeoutMS != 5000 {
		t.Errorf("expected busy timeout 5000, got %d", cfg.Database.BusyTimeoutMS)
	}
}

func TestValidateAPIKeys(t *testing.T) {
	tests := []struct {
		name    string
		keys    []APIClientKey
		wantErr bool
	}{
		{name: "Valid keys", keys: []APIClientKey{{Key: "a"}, {Key: "b"}}},
		{name: "Empty key", keys: []APIClientKey{{Key: "", Name: "x"}}, wantErr: true},
		{name: "No keys", keys: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAPIKeys(tt.keys)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAPIKeys() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
