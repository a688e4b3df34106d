package config

import (
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "console" {
		t.Errorf("unexpected log defaults: %+v", cfg)
	}
	if cfg.TickRate != 100*time.Millisecond {
		t.Errorf("TickRate = %s, want 100ms", cfg.TickRate)
	}
	if cfg.MaxRunTicks != 10000 {
		t.Errorf("MaxRunTicks = %d, want 10000", cfg.MaxRunTicks)
	}
	if !strings.HasSuffix(cfg.SaveDir, "saves") {
		t.Errorf("SaveDir = %q, want a default saves directory", cfg.SaveDir)
	}
	if cfg.RelayAddr != "" {
		t.Errorf("relay should be off by default, got %q", cfg.RelayAddr)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SPELLBOUND_LOG_LEVEL", "debug")
	t.Setenv("SPELLBOUND_LOG_FORMAT", "json")
	t.Setenv("SPELLBOUND_LANG", "ja")
	t.Setenv("SPELLBOUND_TICK_RATE", "50ms")
	t.Setenv("SPELLBOUND_SAVE_DIR", "/tmp/saves")
	t.Setenv("SPELLBOUND_RELAY_ADDR", ":8080")
	t.Setenv("SPELLBOUND_MAX_RUN_TICKS", "25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := Config{
		LogLevel:    "debug",
		LogFormat:   "json",
		Lang:        "ja",
		TickRate:    50 * time.Millisecond,
		SaveDir:     "/tmp/saves",
		RelayAddr:   ":8080",
		MaxRunTicks: 25,
	}
	if cfg != want {
		t.Errorf("got %+v, want %+v", cfg, want)
	}
	if cfg.Language() != language.Japanese {
		t.Errorf("Language() = %v, want ja", cfg.Language())
	}
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("SPELLBOUND_MAX_RUN_TICKS", "lots")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Config)
		want string
	}{
		{"zero tick rate", func(c *Config) { c.TickRate = 0 }, "tick rate"},
		{"negative run cap", func(c *Config) { c.MaxRunTicks = -1 }, "max run ticks"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "log format"},
		{"bad language", func(c *Config) { c.Lang = "not a language!" }, "language"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{LogFormat: "console", Lang: "en", TickRate: time.Second, MaxRunTicks: 1}
			tt.edit(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.want)
			}
		})
	}
}

func TestLanguageFallback(t *testing.T) {
	if got := (Config{Lang: "!!"}).Language(); got != language.English {
		t.Errorf("Language() = %v, want en", got)
	}
}
