package config

import (
	"testing"
	"time"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig()
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.PollInterval != 3*time.Second {
		t.Errorf("expected 3s poll interval, got %s", cfg.PollInterval)
	}
	if cfg.PollTimeout != 8*time.Minute {
		t.Errorf("expected 8m poll timeout, got %s", cfg.PollTimeout)
	}
	if cfg.StorageRefinementBucket != "refinementRenders" {
		t.Errorf("unexpected refinement bucket %q", cfg.StorageRefinementBucket)
	}
}

func TestSupabaseCredentials(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantURL string
		wantKey string
	}{
		{
			name:    "production uses production pair",
			cfg:     Config{AppEnv: "production", SupabaseURL: "https://prod", SupabaseServiceRoleKey: "pk", SupabaseDevURL: "https://dev", SupabaseDevServiceRoleKey: "dk"},
			wantURL: "https://prod",
			wantKey: "pk",
		},
		{
			name:    "development uses development pair",
			cfg:     Config{AppEnv: "development", SupabaseURL: "https://prod", SupabaseServiceRoleKey: "pk", SupabaseDevURL: "https://dev", SupabaseDevServiceRoleKey: "dk"},
			wantURL: "https://dev",
			wantKey: "dk",
		},
		{
			name:    "development without dev project falls back",
			cfg:     Config{AppEnv: "", SupabaseURL: "https://prod", SupabaseServiceRoleKey: "pk"},
			wantURL: "https://prod",
			wantKey: "pk",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, key := tt.cfg.SupabaseCredentials()
			if url != tt.wantURL || key != tt.wantKey {
				t.Errorf("expected (%s, %s), got (%s, %s)", tt.wantURL, tt.wantKey, url, key)
			}
		})
	}
}

func TestEnvironment(t *testing.T) {
	if (Config{AppEnv: "PRODUCTION"}).Environment() != EnvProduction {
		t.Error("expected case-insensitive production match")
	}
	if (Config{AppEnv: "staging"}).Environment() != EnvDevelopment {
		t.Error("expected unknown env to map to development")
	}
}
