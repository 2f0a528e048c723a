// Package cache stores page hashes keyed by file content, so unchanged
// files are not rendered again on the next scan.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/sbkohel/pdf-dedupe/phash"
)

// Common cache errors.
var (
	ErrUnknownBackend = errors.New("unknown cache backend")
)

// Entry is the cached result for one file.
type Entry struct {
	Hash      phash.Hash         `json:"hash"`
	Regions   phash.RegionHashes `json:"regions,omitempty"`
	Algorithm phash.Algorithm    `json:"algorithm"`
	DPI       float64            `json:"dpi"`
	Page      int                `json:"page"`
	CreatedAt time.Time          `json:"created_at"`
}

// Store is a hash cache. Implementations are safe for concurrent use.
type Store interface {
	// Get returns the entry for key; ok is false on a miss.
	Get(ctx context.Context, key string) (entry Entry, ok bool, err error)
	// Put stores an entry, replacing any previous one.
	Put(ctx context.Context, key string, entry Entry) error
	// Close releases the store, flushing pending writes.
	Close() error
}

// Key derives the cache key of a file's content rendered with the given
// parameters.
func Key(content []byte, alg phash.Algorithm, dpi float64, page int) string {
	return fmt.Sprintf("%016x:%s:%g:%d", xxhash.Sum64(content), alg, dpi, page)
}

// Options select and configure a backend.
type Options struct {
	// Backend is none, file or redis.
	Backend string
	// Path is the JSON file of the file backend.
	Path string
	// RedisURL addresses the redis backend.
	RedisURL string
	// TTL bounds the lifetime of redis entries; zero keeps them forever.
	TTL time.Duration
}

// Open returns the configured backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", "none":
		return Noop{}, nil
	case "file":
		return NewFile(opts.Path)
	case "redis":
		return NewRedis(ctx, opts.RedisURL, opts.TTL)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
}

// Noop is a Store that never hits.
type Noop struct{}

// Get always misses.
func (Noop) Get(context.Context, string) (Entry, bool, error) { return Entry{}, false, nil }

// Put discards the entry.
func (Noop) Put(context.Context, string, Entry) error { return nil }

// Close is a no-op.
func (Noop) Close() error { return nil }
