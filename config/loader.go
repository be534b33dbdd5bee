package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "AMC_"
	envFileVar = "AMC_CONFIG"
)

type loadOptions struct {
	path string
}

// Option customizes Load.
type Option func(*loadOptions)

// WithFile loads the given YAML file instead of the one named by AMC_CONFIG.
func WithFile(path string) Option {
	return func(o *loadOptions) {
		if path != "" {
			o.path = path
		}
	}
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New)
//  2. file (YAML) if AMC_CONFIG is set or WithFile is given
//  3. env (prefix AMC_)
func Load(ctx context.Context, opts ...Option) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o := loadOptions{path: os.Getenv(envFileVar)}
	for _, opt := range opts {
		opt(&o)
	}

	base := New()
	k := koanf.New(".")

	if o.path != "" {
		if err := k.Load(file.Provider(o.path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, o.path, err)
		}
	}

	// AMC_DB_PATH -> db_path. Underscores are kept to match the koanf tags.
	envProvider := env.ProviderWithValue(envPrefix, ".", envValue)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// listKeys are read from env as comma-separated values.
var listKeys = map[string]bool{
	"allowed_origins": true,
}

func envValue(name, value string) (string, any) {
	key := strings.TrimPrefix(strings.ToLower(name), strings.ToLower(envPrefix))
	if !listKeys[key] {
		return key, value
	}

	items := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return key, items
}
