package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncFileScanned is a no-op.
func (n *NoopRecorder) IncFileScanned() {}

// IncFileFailed is a no-op.
func (n *NoopRecorder) IncFileFailed() {}

// IncCacheHit is a no-op.
func (n *NoopRecorder) IncCacheHit() {}

// IncCacheMiss is a no-op.
func (n *NoopRecorder) IncCacheMiss() {}

// ObserveRenderDuration is a no-op.
func (n *NoopRecorder) ObserveRenderDuration(duration time.Duration) {}

// ObserveScanDuration is a no-op.
func (n *NoopRecorder) ObserveScanDuration(duration time.Duration) {}
