package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/sbkohel/pdf-dedupe/cache"
	"github.com/sbkohel/pdf-dedupe/export"
	"github.com/sbkohel/pdf-dedupe/internal/config"
	"github.com/sbkohel/pdf-dedupe/internal/metrics"
	"github.com/sbkohel/pdf-dedupe/ocr"
	"github.com/sbkohel/pdf-dedupe/scan"
)

// cliOptions holds flags that have no configuration variable.
type cliOptions struct {
	out       string
	languages string
}

// bindFlags registers the flags shared by all commands. Configuration
// fields are updated in place.
func bindFlags(fs *flag.FlagSet, cfg *config.Config) *cliOptions {
	opts := &cliOptions{}
	fs.Float64Var(&cfg.DPI, "dpi", cfg.DPI, "rendering resolution")
	fs.IntVar(&cfg.Page, "page", cfg.Page, "0-based page index to compare")
	fs.StringVar(&cfg.Algorithm, "algorithm", cfg.Algorithm, "hash algorithm: average, difference or perception")
	fs.IntVar(&cfg.Threshold, "threshold", cfg.Threshold, "maximum Hamming distance between duplicates")
	fs.IntVar(&cfg.RegionTolerance, "tolerance", cfg.RegionTolerance, "maximum per-region distance for region-wise groups")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent files, 0 for GOMAXPROCS")
	fs.StringVar(&cfg.Cache, "cache", cfg.Cache, "hash cache: none, file or redis")
	fs.StringVar(&cfg.CachePath, "cache-path", cfg.CachePath, "file cache location")
	fs.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "redis cache address")
	fs.StringVar(&cfg.Report, "report", cfg.Report, "report format: text, json or html")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: text or json")
	fs.BoolVar(&cfg.OCRConfirm, "ocr", cfg.OCRConfirm, "confirm groups by comparing recognized text")
	fs.Float64Var(&cfg.OCRMinSimilarity, "min-similarity", cfg.OCRMinSimilarity, "minimum text similarity for -ocr")
	fs.StringVar(&opts.languages, "languages", ocr.DefaultLanguage, "OCR languages joined by +")
	fs.StringVar(&opts.out, "out", "", "output directory, or PNG file for render")
	return opts
}

// app carries what commands share.
type app struct {
	cfg     *config.Config
	opts    *cliOptions
	logger  *slog.Logger
	stdout  io.Writer
	format  export.Format
	store   cache.Store
	metrics *metrics.InMemoryRecorder
	scanner *scan.Scanner
}

func newApp(ctx context.Context, cfg *config.Config, opts *cliOptions, logger *slog.Logger, stdout io.Writer) (*app, error) {
	format, err := export.ParseFormat(cfg.Report)
	if err != nil {
		return nil, err
	}
	store, err := cache.Open(ctx, cache.Options{
		Backend:  cfg.Cache,
		Path:     cfg.CachePath,
		RedisURL: cfg.RedisURL,
		TTL:      cfg.CacheTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	rec := metrics.NewInMemory()
	return &app{
		cfg:     cfg,
		opts:    opts,
		logger:  logger,
		stdout:  stdout,
		format:  format,
		store:   store,
		metrics: rec,
		scanner: scan.New(scan.Options{
			DPI:       cfg.DPI,
			Page:      cfg.Page,
			Algorithm: cfg.HashAlgorithm(),
			Workers:   cfg.Workers,
			Cache:     store,
			Metrics:   rec,
			Logger:    logger,
		}),
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("failed to close cache", "error", err)
	}
	s := a.metrics.Snapshot()
	a.logger.Debug("run finished",
		"files_scanned", s.FilesScanned,
		"files_failed", s.FilesFailed,
		"cache_hits", s.CacheHits,
		"cache_misses", s.CacheMisses,
		"renders", s.RenderDurationCount,
	)
}

// report adds scan failures to r and writes it to stdout.
func (a *app) report(r *export.Report, failures []scan.Failure) error {
	for _, f := range failures {
		r.AddFailure(f.Name, f.Err)
	}
	return r.Write(a.stdout, a.format)
}
