// Package config defines the portal's configuration and how it is loaded.
//
// Precedence (low -> high): defaults from New, the YAML file named by
// AMC_CONFIG (or WithFile), AMC_* environment variables. Command-line flags
// are applied by cmd/server after Load.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/amc-portal/amc"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database file.
	DBPath string `koanf:"db_path"`

	// BucketDir is the root directory for uploaded files.
	BucketDir string `koanf:"bucket_dir"`

	// ExpiryWindowDays flags contracts ending within this many days.
	ExpiryWindowDays int `koanf:"expiry_window_days"`

	// LowHoursThreshold flags clients with less than this fraction of their
	// period allocation left. A decimal string such as "0.10".
	LowHoursThreshold string `koanf:"low_hours_threshold"`

	// DefaultAnnualHours is used for clients without an hour budget.
	DefaultAnnualHours int `koanf:"default_annual_hours"`

	// LenientPaymentTerms treats unknown payment terms as Monthly.
	LenientPaymentTerms bool `koanf:"lenient_payment_terms"`

	// RiskScanInterval is how often the background risk scan runs; 0 disables it.
	RiskScanInterval time.Duration `koanf:"risk_scan_interval"`

	// AllowedOrigins lists CORS origins for the dashboard.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// MaxUploadMB caps multipart uploads.
	MaxUploadMB int `koanf:"max_upload_mb"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":8080",
		DBPath:              "./amc.db",
		BucketDir:           "./data/buckets",
		ExpiryWindowDays:    amc.DefaultExpiryWindowDays,
		LowHoursThreshold:   amc.DefaultLowHoursThreshold.String(),
		DefaultAnnualHours:  amc.DefaultAnnualHours,
		LenientPaymentTerms: false,
		RiskScanInterval:    time.Hour,
		AllowedOrigins:      []string{"*"},
		MaxUploadMB:         20,
	}
}

// Validate checks that the configuration can start a server.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.DBPath == "" {
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	}
	if c.BucketDir == "" {
		return fmt.Errorf("%w: bucket_dir must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.RiskScanInterval < 0 {
		return fmt.Errorf("%w: risk_scan_interval must not be negative", ErrInvalidConfig)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("%w: max_upload_mb must be positive", ErrInvalidConfig)
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	return nil
}

// Policy builds the engine policy from the configured thresholds.
func (c *Config) Policy() (amc.Policy, error) {
	threshold, err := decimal.NewFromString(c.LowHoursThreshold)
	if err != nil {
		return amc.Policy{}, fmt.Errorf("%w: low_hours_threshold %q is not a number", ErrInvalidConfig, c.LowHoursThreshold)
	}

	p := amc.Policy{
		ExpiryWindowDays:    c.ExpiryWindowDays,
		LowHoursThreshold:   threshold,
		DefaultAnnualHours:  decimal.NewFromInt(int64(c.DefaultAnnualHours)),
		LenientPaymentTerms: c.LenientPaymentTerms,
	}
	if err := p.Validate(); err != nil {
		return amc.Policy{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return p, nil
}

// MaxUploadBytes returns MaxUploadMB in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}
