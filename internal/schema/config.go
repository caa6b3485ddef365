package schema

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config carries the runtime tunables for store-touching operations.
// Validation and type checking are pure and need none of this.
type Config struct {
	// MaxConcurrentIntrospections caps simultaneous catalog read
	// batches during verify-all scans.
	MaxConcurrentIntrospections int `env:"SCHEMAKIT_MAX_INTROSPECTIONS" envDefault:"4"`

	// IntrospectBatchSize is how many tables one catalog round trip
	// covers.
	IntrospectBatchSize int `env:"SCHEMAKIT_INTROSPECT_BATCH" envDefault:"64"`

	// IntrospectTimeout bounds each catalog read.
	IntrospectTimeout time.Duration `env:"SCHEMAKIT_INTROSPECT_TIMEOUT" envDefault:"30s"`

	// ApplyTimeout bounds one migration unit application, advisory
	// lock wait included.
	ApplyTimeout time.Duration `env:"SCHEMAKIT_APPLY_TIMEOUT" envDefault:"2m"`
}

// DefaultConfig returns the built-in tunables.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentIntrospections: 4,
		IntrospectBatchSize:         64,
		IntrospectTimeout:           30 * time.Second,
		ApplyTimeout:                2 * time.Minute,
	}
}

// ConfigFromEnv reads tunables from the environment, falling back to
// the defaults above.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse schema config from environment: %w", err)
	}
	return cfg.normalized(), nil
}

func (c Config) normalized() Config {
	if c.MaxConcurrentIntrospections < 1 {
		c.MaxConcurrentIntrospections = 1
	}
	if c.IntrospectBatchSize < 1 {
		c.IntrospectBatchSize = 1
	}
	if c.IntrospectTimeout <= 0 {
		c.IntrospectTimeout = 30 * time.Second
	}
	if c.ApplyTimeout <= 0 {
		c.ApplyTimeout = 2 * time.Minute
	}
	return c
}
