package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	FilesScanned          uint64
	FilesFailed           uint64
	CacheHits             uint64
	CacheMisses           uint64
	RenderDurationCount   uint64
	RenderDurationTotalNs int64
	ScanDurationTotalNs   int64
}

// InMemoryRecorder stores metrics in memory for tests and run summaries.
type InMemoryRecorder struct {
	filesScanned          uint64
	filesFailed           uint64
	cacheHits             uint64
	cacheMisses           uint64
	renderDurationCount   uint64
	renderDurationTotalNs int64
	scanDurationTotalNs   int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		FilesScanned:          atomic.LoadUint64(&m.filesScanned),
		FilesFailed:           atomic.LoadUint64(&m.filesFailed),
		CacheHits:             atomic.LoadUint64(&m.cacheHits),
		CacheMisses:           atomic.LoadUint64(&m.cacheMisses),
		RenderDurationCount:   atomic.LoadUint64(&m.renderDurationCount),
		RenderDurationTotalNs: atomic.LoadInt64(&m.renderDurationTotalNs),
		ScanDurationTotalNs:   atomic.LoadInt64(&m.scanDurationTotalNs),
	}
}

// IncFileScanned increments the scanned file counter.
func (m *InMemoryRecorder) IncFileScanned() {
	atomic.AddUint64(&m.filesScanned, 1)
}

// IncFileFailed increments the failed file counter.
func (m *InMemoryRecorder) IncFileFailed() {
	atomic.AddUint64(&m.filesFailed, 1)
}

// IncCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncCacheHit() {
	atomic.AddUint64(&m.cacheHits, 1)
}

// IncCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncCacheMiss() {
	atomic.AddUint64(&m.cacheMisses, 1)
}

// ObserveRenderDuration records the time taken to render one page.
func (m *InMemoryRecorder) ObserveRenderDuration(duration time.Duration) {
	atomic.AddUint64(&m.renderDurationCount, 1)
	atomic.AddInt64(&m.renderDurationTotalNs, duration.Nanoseconds())
}

// ObserveScanDuration records the time taken by a whole folder scan.
func (m *InMemoryRecorder) ObserveScanDuration(duration time.Duration) {
	atomic.AddInt64(&m.scanDurationTotalNs, duration.Nanoseconds())
}
