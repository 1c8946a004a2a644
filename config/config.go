package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all process-level configuration for the bot
type Config struct {
	// Discord
	DiscordToken string
	ClientID     string
	GuildID      string

	// Storage
	DatabaseURL string
	DataDir     string

	// External services
	UnbelievaBoatToken string
	RankingURL         string

	// Dashboard
	DashboardPassword string
	SessionSecret     string
	Port              string

	// Runtime
	LogLevel       string
	ReportCacheTTL time.Duration
	Timezone       string
}

// Load reads configuration from the environment, after an optional .env file
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		DiscordToken:       v.GetString("DISCORD_TOKEN"),
		ClientID:           v.GetString("DISCORD_CLIENT_ID"),
		GuildID:            v.GetString("GUILD_ID"),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		DataDir:            v.GetString("DATA_DIR"),
		UnbelievaBoatToken: v.GetString("UNBELIEVABOAT_TOKEN"),
		RankingURL:         v.GetString("TOPSERVEURS_RANKING_URL"),
		DashboardPassword:  v.GetString("DASHBOARD_PASSWORD"),
		SessionSecret:      v.GetString("SESSION_SECRET"),
		Port:               v.GetString("PORT"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		ReportCacheTTL:     v.GetDuration("REPORT_CACHE_TTL"),
		Timezone:           v.GetString("TIMEZONE"),
	}

	// Railway exposes the external URL under a second name
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = v.GetString("DATABASE_PUBLIC_URL")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("PORT", "5000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REPORT_CACHE_TTL", "24h")
	v.SetDefault("TIMEZONE", "Europe/Paris")
	v.SetDefault("SESSION_SECRET", "arki-dashboard-secret-key-2024")
}

// Validate checks required fields and value ranges
func (c *Config) Validate() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	if c.ReportCacheTTL <= 0 {
		return fmt.Errorf("REPORT_CACHE_TTL must be positive, got %s", c.ReportCacheTTL)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// UsePostgres reports whether a database URL was provided
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}
