// Command pdfdedupe finds visually near-duplicate PDF files in a folder.
//
// Usage:
//
//	pdfdedupe [distinct] [flags] <folder>
//	pdfdedupe hashes [flags] <folder>
//	pdfdedupe groups [flags] <folder>
//	pdfdedupe find [flags] <folder> <file>
//	pdfdedupe regions [flags] <folder> <file>
//	pdfdedupe exact [flags] <folder>
//	pdfdedupe render [flags] <pdf>
//
// Defaults come from PDFDEDUPE_ environment variables and an optional .env
// file; flags override them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sbkohel/pdf-dedupe/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// errUsage marks errors caused by bad command lines.
var errUsage = errors.New("usage")

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "pdfdedupe: %v\n", err)
		return 2
	}

	name := "distinct"
	if len(args) > 0 {
		if _, ok := commands[args[0]]; ok {
			name, args = args[0], args[1:]
		}
	}
	cmd := commands[name]

	fs := flag.NewFlagSet("pdfdedupe "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: pdfdedupe %s [flags] %s\n", name, cmd.args)
		fs.PrintDefaults()
	}
	opts := bindFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "pdfdedupe: %v\n", err)
		return 2
	}
	if fs.NArg() != cmd.nargs {
		fs.Usage()
		return 2
	}

	logger := initLogger(cfg, stderr)
	a, err := newApp(ctx, cfg, opts, logger, stdout)
	if err != nil {
		logger.Error("failed to start", "error", err)
		return 1
	}
	defer a.close()

	if err := cmd.run(ctx, a, fs.Args()); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "pdfdedupe: %v\n", err)
			return 2
		}
		if errors.Is(err, context.Canceled) {
			logger.Warn("interrupted")
			return 1
		}
		logger.Error("command failed", "command", name, "error", err)
		return 1
	}
	return 0
}

// initLogger builds the slog logger from configuration. Logs go to w so
// that reports on stdout stay clean.
func initLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
