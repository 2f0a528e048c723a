package scan

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sbkohel/pdf-dedupe/cache"
	"github.com/sbkohel/pdf-dedupe/dedupe"
	"github.com/sbkohel/pdf-dedupe/internal/metrics"
	"github.com/sbkohel/pdf-dedupe/phash"
	"github.com/sbkohel/pdf-dedupe/reader"
	"github.com/sbkohel/pdf-dedupe/render"
)

// Result types shared with the grouping package.
type (
	FileHash    = dedupe.FileHash
	FileRegions = dedupe.FileRegions
	FileDigest  = dedupe.FileDigest
)

// Failure records a file that could not be processed.
type Failure struct {
	Name string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Name, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Options configure a Scanner. Zero values select the defaults.
type Options struct {
	// DPI is the rendering resolution, render.DefaultDPI when zero.
	DPI float64
	// Page is the 0-based page that is hashed.
	Page int
	// Algorithm defaults to the average hash.
	Algorithm phash.Algorithm
	// Workers bounds concurrent files; GOMAXPROCS when zero.
	Workers int

	Cache   cache.Store
	Metrics metrics.Recorder
	Logger  *slog.Logger
}

// Scanner hashes folders of PDF files.
type Scanner struct {
	dpi       float64
	page      int
	algorithm phash.Algorithm
	workers   int
	cache     cache.Store
	metrics   metrics.Recorder
	logger    *slog.Logger
}

// New creates a Scanner.
func New(opts Options) *Scanner {
	s := &Scanner{
		dpi:       opts.DPI,
		page:      opts.Page,
		algorithm: opts.Algorithm,
		workers:   opts.Workers,
		cache:     opts.Cache,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
	}
	if s.dpi <= 0 {
		s.dpi = render.DefaultDPI
	}
	if s.algorithm == "" {
		s.algorithm = phash.AverageHash
	}
	if s.workers <= 0 {
		s.workers = runtime.GOMAXPROCS(0)
	}
	if s.cache == nil {
		s.cache = cache.Noop{}
	}
	if s.metrics == nil {
		s.metrics = metrics.NewNoop()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "scan")
	return s
}

// ListPDFs returns the names of regular files in folder ending in .pdf in
// any letter case, sorted. A missing folder has no files.
func ListPDFs(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", folder, err)
	}
	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Hashes hashes the configured page of every PDF in folder.
func (s *Scanner) Hashes(ctx context.Context, folder string) ([]FileHash, []Failure, error) {
	entries, names, failures, err := s.analyzeFolder(ctx, folder)
	if err != nil {
		return nil, failures, err
	}
	out := make([]FileHash, len(entries))
	for i, e := range entries {
		out[i] = FileHash{Name: names[i], Hash: e.Hash}
	}
	return out, failures, nil
}

// RegionHashes hashes the top, middle and bottom of the configured page of
// every PDF in folder.
func (s *Scanner) RegionHashes(ctx context.Context, folder string) ([]FileRegions, []Failure, error) {
	entries, names, failures, err := s.analyzeFolder(ctx, folder)
	if err != nil {
		return nil, failures, err
	}
	out := make([]FileRegions, len(entries))
	for i, e := range entries {
		out[i] = FileRegions{Name: names[i], Regions: e.Regions}
	}
	return out, failures, nil
}

// Digests computes the MD5 digest of every PDF in folder.
func (s *Scanner) Digests(ctx context.Context, folder string) ([]FileDigest, []Failure, error) {
	names, err := ListPDFs(folder)
	if err != nil {
		return nil, nil, err
	}
	digests, ok, failures, err := forEach(ctx, s, folder, names, func(_ context.Context, _ string, data []byte) (string, error) {
		sum := md5.Sum(data)
		return hex.EncodeToString(sum[:]), nil
	})
	if err != nil {
		return nil, failures, err
	}
	var out []FileDigest
	for i, d := range digests {
		if ok[i] {
			out = append(out, FileDigest{Name: names[i], Digest: d})
		}
	}
	return out, failures, nil
}

// FindDuplicatesForFile returns the duplicate group of name within folder,
// name included, or nil when it has no duplicates or is not in folder.
func (s *Scanner) FindDuplicatesForFile(ctx context.Context, folder, name string, threshold int) (dedupe.Group, error) {
	hashes, _, err := s.Hashes(ctx, folder)
	if err != nil {
		return nil, err
	}
	return dedupe.FindDuplicatesFor(dedupe.GroupDuplicates(hashes, threshold), name), nil
}

// RenderFile renders the configured page of one file.
func (s *Scanner) RenderFile(ctx context.Context, path string) (*image.RGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, data)
}

func (s *Scanner) render(ctx context.Context, data []byte) (*image.RGBA, error) {
	doc, err := reader.NewReader(data)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	img, err := render.RenderPage(ctx, doc, s.page, render.Options{DPI: s.dpi, Logger: s.logger})
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveRenderDuration(time.Since(start))
	return img, nil
}

// analyzeFolder returns the cache entries of the files that could be
// processed, with their names, in file order.
func (s *Scanner) analyzeFolder(ctx context.Context, folder string) ([]cache.Entry, []string, []Failure, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveScanDuration(time.Since(start)) }()

	names, err := ListPDFs(folder)
	if err != nil {
		return nil, nil, nil, err
	}
	results, ok, failures, err := forEach(ctx, s, folder, names, s.analyze)
	if err != nil {
		return nil, nil, failures, err
	}
	var (
		entries []cache.Entry
		kept    []string
	)
	for i, e := range results {
		if ok[i] {
			entries = append(entries, e)
			kept = append(kept, names[i])
		}
	}
	s.logger.Debug("folder scanned", "folder", folder, "files", len(names), "failed", len(failures))
	return entries, kept, failures, nil
}

// analyze renders and hashes one file, or returns its cached entry.
func (s *Scanner) analyze(ctx context.Context, name string, data []byte) (cache.Entry, error) {
	key := cache.Key(data, s.algorithm, s.dpi, s.page)
	entry, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache lookup failed", "file", name, "error", err)
	}
	if hit && len(entry.Regions) > 0 {
		s.metrics.IncCacheHit()
		return entry, nil
	}
	s.metrics.IncCacheMiss()

	img, err := s.render(ctx, data)
	if err != nil {
		return cache.Entry{}, err
	}
	hash, err := s.algorithm.Compute(img)
	if err != nil {
		return cache.Entry{}, err
	}
	regions, err := phash.Regions(img, s.algorithm)
	if err != nil {
		return cache.Entry{}, err
	}
	entry = cache.Entry{
		Hash:      hash,
		Regions:   regions,
		Algorithm: s.algorithm,
		DPI:       s.dpi,
		Page:      s.page,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.cache.Put(ctx, key, entry); err != nil {
		s.logger.Warn("cache store failed", "file", name, "error", err)
	}
	return entry, nil
}

// forEach runs work on every named file with the scanner's worker pool.
// Results are indexed like names; ok marks the files that succeeded.
// Cancellation stops dispatching files and is returned as the error.
func forEach[T any](ctx context.Context, s *Scanner, folder string, names []string,
	work func(ctx context.Context, name string, data []byte) (T, error)) ([]T, []bool, []Failure, error) {
	results := make([]T, len(names))
	errs := make([]error, len(names))
	ok := make([]bool, len(names))

	workers := s.workers
	if workers > len(names) {
		workers = len(names)
	}
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				data, err := os.ReadFile(filepath.Join(folder, names[i]))
				if err == nil {
					results[i], err = work(ctx, names[i], data)
				}
				errs[i] = err
				ok[i] = err == nil
			}
		}()
	}

dispatch:
	for i := range names {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, nil, err
	}

	var failures []Failure
	for i, err := range errs {
		if err == nil {
			s.metrics.IncFileScanned()
			continue
		}
		s.metrics.IncFileFailed()
		s.logger.Error("failed to process file", "file", names[i], "error", err)
		failures = append(failures, Failure{Name: names[i], Err: err})
	}
	return results, ok, failures, nil
}
