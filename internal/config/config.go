// Package config loads runtime settings from SPELLBOUND_* environment
// variables. Command-line flags override them in main.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/text/language"
)

// Config holds runtime settings.
type Config struct {
	LogLevel    string        `env:"SPELLBOUND_LOG_LEVEL"     envDefault:"info"`
	LogFormat   string        `env:"SPELLBOUND_LOG_FORMAT"    envDefault:"console"`
	LogFile     string        `env:"SPELLBOUND_LOG_FILE"`
	Lang        string        `env:"SPELLBOUND_LANG"          envDefault:"en"`
	TickRate    time.Duration `env:"SPELLBOUND_TICK_RATE"     envDefault:"100ms"`
	SaveDir     string        `env:"SPELLBOUND_SAVE_DIR"`
	RelayAddr   string        `env:"SPELLBOUND_RELAY_ADDR"`
	MaxRunTicks int           `env:"SPELLBOUND_MAX_RUN_TICKS" envDefault:"10000"`
}

// Load parses the environment and fills in derived defaults.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.SaveDir == "" {
		cfg.SaveDir = DefaultSaveDir()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultSaveDir returns ~/.spellbound/saves, or a relative directory when
// the home directory is unknown.
func DefaultSaveDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".spellbound", "saves")
	}
	return filepath.Join(home, ".spellbound", "saves")
}

// Validate checks settings that env parsing alone cannot.
func (c Config) Validate() error {
	var errs []error
	if c.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("tick rate must be positive, got %s", c.TickRate))
	}
	if c.MaxRunTicks <= 0 {
		errs = append(errs, fmt.Errorf("max run ticks must be positive, got %d", c.MaxRunTicks))
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log format must be console or json, got %q", c.LogFormat))
	}
	if _, err := language.Parse(c.Lang); err != nil {
		errs = append(errs, fmt.Errorf("language %q: %w", c.Lang, err))
	}
	return errors.Join(errs...)
}

// Language returns the configured narration language, English when unset
// or invalid.
func (c Config) Language() language.Tag {
	tag, err := language.Parse(c.Lang)
	if err != nil {
		return language.English
	}
	return tag
}
