// Package daemon manages the bloom daemon lifecycle and configuration.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/bloom-journal/bloom/internal/app/engagement"
	"github.com/bloom-journal/bloom/internal/domain"
)

// Config holds all daemon configuration.
type Config struct {
	API       APIConfig       `toml:"api"`
	Garden    GardenConfig    `toml:"garden"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Logging   LoggingConfig   `toml:"logging"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// GardenConfig tunes the reward economy.
type GardenConfig struct {
	TokenCap       int   `toml:"token_cap"`
	CapClaimGrants bool  `toml:"cap_claim_grants"`
	WaterXP        int64 `toml:"water_xp"`
}

// SchedulerConfig controls background jobs.
type SchedulerConfig struct {
	Enabled      bool   `toml:"enabled"`
	DailyResetAt string `toml:"daily_reset_at"` // local "HH:MM" or "HH:MM:SS"
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Mode  string `toml:"mode"` // "dev" or "prod"
	Level string `toml:"level"`
}

// TelemetryConfig controls metrics exposure.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8764,
		},
		Garden: GardenConfig{
			TokenCap:       domain.TokenCap,
			CapClaimGrants: true,
			WaterXP:        domain.WaterXP,
		},
		Scheduler: SchedulerConfig{
			Enabled:      true,
			DailyResetAt: "00:00:05",
		},
		Logging: LoggingConfig{
			Mode:  "dev",
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
	}
}

// Policy converts the garden section to an engagement policy.
func (g GardenConfig) Policy() engagement.Policy {
	return engagement.Policy{
		TokenCap:       g.TokenCap,
		CapClaimGrants: g.CapClaimGrants,
		WaterXP:        g.WaterXP,
	}
}

// Validate checks values that would otherwise fail later at startup.
func (c Config) Validate() error {
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port out of range: %d", c.API.Port)
	}
	if c.Garden.TokenCap < 1 {
		return fmt.Errorf("garden.token_cap must be at least 1, got %d", c.Garden.TokenCap)
	}
	if c.Garden.WaterXP < 1 {
		return fmt.Errorf("garden.water_xp must be positive, got %d", c.Garden.WaterXP)
	}
	if _, err := ParseClock(c.Scheduler.DailyResetAt); err != nil {
		return fmt.Errorf("scheduler.daily_reset_at: %w", err)
	}
	return nil
}

// ParseClock parses a wall-clock time of day ("HH:MM" or "HH:MM:SS").
func ParseClock(s string) (time.Duration, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		t, err := time.Parse(layout, strings.TrimSpace(s))
		if err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q, want HH:MM[:SS]", s)
}

// LoadConfig reads $BLOOM_HOME/config.toml over the defaults. A .env file in
// the working directory or in BLOOM_HOME is loaded into the environment
// first; variables already set take precedence.
func LoadConfig() (Config, error) {
	if err := loadEnvFile(".env"); err != nil {
		return Config{}, err
	}
	if err := loadEnvFile(filepath.Join(bloomHome(), ".env")); err != nil {
		return Config{}, err
	}
	return LoadConfigFrom(filepath.Join(bloomHome(), "config.toml"))
}

// LoadConfigFrom reads the config file at path over the defaults, then
// applies BLOOM_LOG_LEVEL and BLOOM_LOG_MODE overrides.
func LoadConfigFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("stat config: %w", err)
	}

	if v := os.Getenv("BLOOM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BLOOM_LOG_MODE"); v != "" {
		cfg.Logging.Mode = v
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SaveConfig writes the config to $BLOOM_HOME/config.toml.
func SaveConfig(cfg Config) error {
	return SaveConfigTo(filepath.Join(bloomHome(), "config.toml"), cfg)
}

// SaveConfigTo writes the config to path.
func SaveConfigTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

func loadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

// bloomHome returns the bloom data directory.
func bloomHome() string {
	if env := os.Getenv("BLOOM_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".bloom")
}

// BloomHome is exported for use by other packages.
func BloomHome() string {
	return bloomHome()
}
