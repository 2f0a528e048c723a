// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events of a scan.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// File metrics
	IncFileScanned()
	IncFileFailed()

	// Cache metrics
	IncCacheHit()
	IncCacheMiss()

	// Timing
	ObserveRenderDuration(duration time.Duration)
	ObserveScanDuration(duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
