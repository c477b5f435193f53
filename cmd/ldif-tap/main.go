// Package main provides the ldif-tap command line interface.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/marlon-costa-dc/ldif-tap/internal/config"
	"github.com/marlon-costa-dc/ldif-tap/internal/sink"
	"github.com/marlon-costa-dc/ldif-tap/internal/tap"
)

// Version information, settable at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the CLI and returns an exit code. Separated from main to
// facilitate testing.
func run(args []string) int {
	fs := flag.NewFlagSet("ldif-tap", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	configPath := fs.String("config", "", "Path to YAML configuration file (required)")
	outPath := fs.String("out", "-", "Output file for records, - for stdout")
	logLevel := fs.String("log-level", "info", "Log level: trace, debug, info, warn, error")
	logFormat := fs.String("log-format", "console", "Log format: console or json")
	showVersion := fs.Bool("version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Printf("ldif-tap %s (%s)\n", version, commit)
		return 0
	}

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "ldif-tap: -config is required")
		fs.Usage()
		return 2
	}

	log, err := newLogger(*logLevel, *logFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ldif-tap: %v\n", err)
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return 1
	}

	out := os.Stdout
	if *outPath != "-" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Error().Err(err).Msg("cannot create output file")
			return 1
		}
		defer f.Close()
		out = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	writer := sink.NewJSONLWriter(out, cfg.BatchSize, log)
	stats, err := tap.New(cfg, writer, log).Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		return 1
	}

	log.Info().
		Int("entries", stats.EntriesEmitted).
		Int("files", stats.FilesProcessed).
		Msg("done")

	return 0
}

// newLogger builds the process logger. Console format writes
// human-readable lines to stderr; json writes structured events.
func newLogger(level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var log zerolog.Logger
	switch format {
	case "console":
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	case "json":
		log = zerolog.New(os.Stderr)
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q", format)
	}

	return log.Level(lvl).With().Timestamp().Logger(), nil
}
