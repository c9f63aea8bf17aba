package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/mode"
)

// Config is the process configuration shared by every binary.
type Config struct {
	DBPath            string        `env:"SESSION_DB"         envDefault:"session.db"`
	NarrativeAddr     string        `env:"NARRATIVE_ADDR"`
	TableFile         string        `env:"SESSION_TABLE_FILE"`
	LogLevel          string        `env:"LOG_LEVEL"          envDefault:"info"`
	OverrideDuration  time.Duration `env:"OVERRIDE_DURATION"  envDefault:"20s"`
	OverrideIntensity float64       `env:"OVERRIDE_INTENSITY" envDefault:"1.0"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates Config from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the controller would otherwise clamp silently.
func (c Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("SESSION_DB must not be empty"))
	}
	if c.OverrideDuration <= 0 {
		errs = append(errs, fmt.Errorf("OVERRIDE_DURATION %s must be positive", c.OverrideDuration))
	}
	if c.OverrideIntensity < 0 || c.OverrideIntensity > 1 {
		errs = append(errs, fmt.Errorf("OVERRIDE_INTENSITY %.3f outside [0,1]", c.OverrideIntensity))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Logger builds a production zap logger at LogLevel, or debug when verbose.
func (c Config) Logger(verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// Table loads the transition table, applying TableFile when set.
func (c Config) Table() (*mode.Table, error) {
	return mode.LoadTable(c.TableFile)
}
