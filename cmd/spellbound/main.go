// Spellbound plays scripted cutscenes and dialogue from Lua, JSON, or YAML
// content, in a terminal or headless behind a WebSocket relay.
// Flags override the SPELLBOUND_* environment; run without arguments for usage.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nathoo/spellbound/cli"
	"github.com/nathoo/spellbound/engine"
	"github.com/nathoo/spellbound/internal/config"
	"github.com/nathoo/spellbound/internal/logger"
	"github.com/nathoo/spellbound/loader"
	"github.com/nathoo/spellbound/relay"
	"github.com/nathoo/spellbound/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = "Usage: spellbound [--version] [--plain] [--headless] [--script <file>] [--trace] " +
	"[--lang <tag>] [--relay <addr>] [--tick-rate <duration>] <content_path>"

type options struct {
	plain      bool
	headless   bool
	trace      bool
	scriptFile string
	path       string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading configuration: %v\n", err)
		os.Exit(1)
	}

	opts, err := parseArgs(os.Args[1:], &cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n%s\n", err, usage)
		os.Exit(1)
	}
	if opts == nil {
		fmt.Printf("spellbound %s (commit %s, built %s)\n", version, commit, date)
		return
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, *opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseArgs applies command-line flags on top of cfg. It returns nil
// options for --version.
func parseArgs(args []string, cfg *config.Config) (*options, error) {
	opts := &options{}
	value := func(i *int, flag string) (string, error) {
		if *i+1 >= len(args) {
			return "", fmt.Errorf("%s requires a value", flag)
		}
		*i++
		return args[*i], nil
	}

	for i := 0; i < len(args); i++ {
		var err error
		switch args[i] {
		case "--version":
			return nil, nil
		case "--plain":
			opts.plain = true
		case "--headless":
			opts.headless = true
		case "--trace":
			opts.trace = true
		case "--script":
			opts.scriptFile, err = value(&i, "--script")
		case "--lang":
			cfg.Lang, err = value(&i, "--lang")
		case "--relay":
			cfg.RelayAddr, err = value(&i, "--relay")
		case "--tick-rate":
			var raw string
			if raw, err = value(&i, "--tick-rate"); err == nil {
				cfg.TickRate, err = time.ParseDuration(raw)
			}
		default:
			if opts.path == "" {
				opts.path = args[i]
			}
		}
		if err != nil {
			return nil, err
		}
	}

	if opts.path == "" {
		return nil, errors.New("missing content path")
	}
	return opts, nil
}

func run(cfg config.Config, opts options) error {
	interactive := !opts.headless && opts.scriptFile == "" && !opts.plain && isTerminal()

	// The TUI owns the terminal; log to a file or not at all.
	log := zap.NewNop()
	if !interactive || cfg.LogFile != "" {
		var err error
		if log, err = logger.New(cfg); err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
	}
	defer func() { _ = log.Sync() }()

	defs, err := loader.Load(opts.path, log.Named("loader"))
	if err != nil {
		return fmt.Errorf("loading content: %w", err)
	}

	eng := engine.New(defs, log.Named("engine"))
	eng.Lang = cfg.Language()
	eng.MaxRunTicks = cfg.MaxRunTicks

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var hub *relay.Hub
	if cfg.RelayAddr != "" {
		hub = relay.NewHub(log.Named("relay"))
		go func() {
			if err := hub.ListenAndServe(ctx, cfg.RelayAddr); err != nil {
				log.Error("relay stopped", zap.Error(err))
			}
		}()
	}

	switch {
	case opts.headless:
		return runHeadless(ctx, eng, hub, cfg.TickRate, log)

	case opts.scriptFile != "":
		// Script mode: read commands from the file and echo them.
		f, err := os.Open(opts.scriptFile)
		if err != nil {
			return fmt.Errorf("opening script: %w", err)
		}
		defer f.Close()
		c := newCLI(eng, cfg, hub, opts)
		c.In = f
		c.EchoInput = true
		c.Run()
		return nil

	case !interactive:
		newCLI(eng, cfg, hub, opts).Run()
		return nil
	}

	return tui.Run(eng, tui.Options{
		SaveDir:  cfg.SaveDir,
		TickRate: cfg.TickRate,
		Relay:    hub,
		Trace:    opts.trace,
	})
}

func newCLI(eng *engine.Engine, cfg config.Config, hub *relay.Hub, opts options) *cli.CLI {
	c := cli.New(eng, cfg.SaveDir)
	c.Relay = hub
	c.Trace = opts.trace
	return c
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
