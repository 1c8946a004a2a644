package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_PUBLIC_URL", "postgres://public")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "5000" {
		t.Errorf("Port = %q, want 5000", cfg.Port)
	}
	if cfg.ReportCacheTTL != 24*time.Hour {
		t.Errorf("ReportCacheTTL = %s, want 24h", cfg.ReportCacheTTL)
	}
	if cfg.DatabaseURL != "postgres://public" {
		t.Errorf("DatabaseURL = %q, want fallback to DATABASE_PUBLIC_URL", cfg.DatabaseURL)
	}
	if !cfg.UsePostgres() {
		t.Error("UsePostgres() = false, want true")
	}
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")

	if _, err := Load(); err == nil {
		t.Error("expected error when DISCORD_TOKEN is missing")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{DiscordToken: "x", ReportCacheTTL: time.Hour, Timezone: "Europe/Paris"}, false},
		{"zero ttl", Config{DiscordToken: "x", Timezone: "UTC"}, true},
		{"bad timezone", Config{DiscordToken: "x", ReportCacheTTL: time.Hour, Timezone: "Mars/Olympus"}, true},
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
