// Package config provides application configuration management.
// Configuration is loaded from PDFDEDUPE_ prefixed environment variables,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/sbkohel/pdf-dedupe/phash"
)

// Prefix is prepended to every variable name.
const Prefix = "PDFDEDUPE_"

// ErrInvalid is wrapped by validation errors.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all application configuration.
type Config struct {
	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// Rendering and hashing
	DPI       float64 `env:"DPI" envDefault:"150"`
	Page      int     `env:"PAGE" envDefault:"0"`
	Algorithm string  `env:"ALGORITHM" envDefault:"average"`

	// Grouping
	Threshold       int `env:"THRESHOLD" envDefault:"8"`
	RegionTolerance int `env:"REGION_TOLERANCE" envDefault:"0"`

	// Worker pool size; 0 uses GOMAXPROCS
	Workers int `env:"WORKERS" envDefault:"0"`

	// Hash cache
	Cache     string        `env:"CACHE" envDefault:"none"`
	CachePath string        `env:"CACHE_PATH" envDefault:".pdfdedupe-cache.json"`
	RedisURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"720h"`

	// Report format: text, json or html
	Report string `env:"REPORT" envDefault:"text"`

	// OCR confirmation of visual groups
	OCRConfirm       bool    `env:"OCR_CONFIRM" envDefault:"false"`
	OCRMinSimilarity float64 `env:"OCR_MIN_SIMILARITY" envDefault:"0.8"`
}

// Load reads .env from the working directory when present, then parses
// the environment.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is not an
// error; variables already set in the environment win over the file.
func LoadFile(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: Prefix}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges. Errors wrap ErrInvalid.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log level %q", c.LogLevel)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return invalid("log format %q", c.LogFormat)
	}
	if c.DPI <= 0 || c.DPI > 1200 {
		return invalid("dpi %v out of range (0, 1200]", c.DPI)
	}
	if c.Page < 0 {
		return invalid("page %d is negative", c.Page)
	}
	if _, err := phash.ParseAlgorithm(c.Algorithm); err != nil {
		return invalid("%v", err)
	}
	if c.Threshold < 0 || c.Threshold > 64 {
		return invalid("threshold %d out of range 0..64", c.Threshold)
	}
	if c.RegionTolerance < 0 || c.RegionTolerance > 64 {
		return invalid("region tolerance %d out of range 0..64", c.RegionTolerance)
	}
	if c.Workers < 0 {
		return invalid("workers %d is negative", c.Workers)
	}
	switch c.Cache {
	case "none", "file", "redis":
	default:
		return invalid("cache backend %q", c.Cache)
	}
	switch c.Report {
	case "text", "json", "html":
	default:
		return invalid("report format %q", c.Report)
	}
	if c.OCRMinSimilarity < 0 || c.OCRMinSimilarity > 1 {
		return invalid("ocr min similarity %v out of range 0..1", c.OCRMinSimilarity)
	}
	return nil
}

// HashAlgorithm returns the validated hash algorithm.
func (c *Config) HashAlgorithm() phash.Algorithm {
	alg, _ := phash.ParseAlgorithm(c.Algorithm)
	return alg
}
