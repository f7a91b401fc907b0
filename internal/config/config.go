// Package config loads service configuration from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"catercost/internal/domain/measure"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Units    UnitsConfig
	Costing  CostingConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
	Env  string
}

// LogConfig holds logger options.
type LogConfig struct {
	Level string
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
}

// UnitsConfig controls the unit graph and its cache.
type UnitsConfig struct {
	CacheTTL        time.Duration
	CacheListen     bool
	CountUnitIDs    []measure.UnitID
	DefaultDecimals int
}

// CostingConfig holds aggregation switches.
type CostingConfig struct {
	PriceExcludedLines bool
}

// Development reports whether the service runs in development mode.
func (c *Config) Development() bool {
	return c.Server.Env == "development"
}

// UnitOptions returns the measure options derived from configuration.
func (c *Config) UnitOptions() []measure.Option {
	return []measure.Option{
		measure.WithCountUnits(c.Units.CountUnitIDs...),
		measure.WithDefaultDecimals(c.Units.DefaultDecimals),
	}
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// A missing .env is fine when the environment is set directly.
		_ = godotenv.Load()
	}

	p := &parser{}
	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
			Env:  getenvWithDefault("APP_ENV", "development"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			MaxConns: int32(p.int("DB_MAX_CONNS", 20)),
			MinConns: int32(p.int("DB_MIN_CONNS", 2)),
		},
		Units: UnitsConfig{
			CacheTTL:        p.duration("UNIT_CACHE_TTL", 5*time.Minute),
			CacheListen:     p.bool("UNIT_CACHE_LISTEN", true),
			CountUnitIDs:    p.unitIDs("COUNT_UNIT_IDS", "1,3"),
			DefaultDecimals: p.int("DEFAULT_DECIMALS", 3),
		},
		Costing: CostingConfig{
			PriceExcludedLines: p.bool("PRICE_EXCLUDED_LINES", false),
		},
	}

	if err := errors.Join(errors.Join(p.errs...), cfg.Validate()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing or inconsistent field at once.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("APP_PORT must be provided"))
	}
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL must be provided"))
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, errors.New("DB_MAX_CONNS must be positive"))
	}
	if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, errors.New("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS"))
	}
	if c.Units.CacheTTL < 0 {
		errs = append(errs, errors.New("UNIT_CACHE_TTL must not be negative"))
	}
	if c.Units.DefaultDecimals < 0 {
		errs = append(errs, errors.New("DEFAULT_DECIMALS must not be negative"))
	}
	return errors.Join(errs...)
}

// parser collects conversion failures so Load can report them together.
type parser struct {
	errs []error
}

func (p *parser) int(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) bool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) unitIDs(key, fallback string) []measure.UnitID {
	raw := getenvWithDefault(key, fallback)
	var ids []measure.UnitID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		ids = append(ids, measure.UnitID(v))
	}
	return ids
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
