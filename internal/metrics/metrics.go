package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects process-wide gateway counters
type Metrics struct {
	// Request metrics
	TotalRequests atomic.Uint64
	InfoRequests  atomic.Uint64

	// Download stream metrics
	DownloadsStarted   atomic.Uint64
	DownloadsCompleted atomic.Uint64
	DownloadsCancelled atomic.Uint64
	ActiveDownloads    atomic.Int64
	BytesStreamed      atomic.Uint64

	// System metrics
	TotalErrors atomic.Uint64
	StartedAt   time.Time

	// Per-platform metrics
	platformStats sync.Map // platform domain -> *PlatformStats
}

// PlatformStats tracks download counters per platform
type PlatformStats struct {
	Started   atomic.Uint64
	Completed atomic.Uint64
	Cancelled atomic.Uint64
}

var globalMetrics = &Metrics{StartedAt: time.Now()}

// Get returns the global metrics instance
func Get() *Metrics {
	return globalMetrics
}

// IncrementRequests increments total request counter
func (m *Metrics) IncrementRequests() {
	m.TotalRequests.Add(1)
}

// RecordInfoRequest counts a metadata lookup
func (m *Metrics) RecordInfoRequest() {
	m.InfoRequests.Add(1)
}

// RecordError counts a request that ended in an error response
func (m *Metrics) RecordError() {
	m.TotalErrors.Add(1)
}

// RecordDownloadStart counts a streaming session spawn
func (m *Metrics) RecordDownloadStart(platform string) {
	m.DownloadsStarted.Add(1)
	m.ActiveDownloads.Add(1)
	m.forPlatform(platform).Started.Add(1)
}

// RecordDownloadEnd counts a finished session; cancelled marks the
// client-disconnect path
func (m *Metrics) RecordDownloadEnd(platform string, cancelled bool) {
	m.ActiveDownloads.Add(-1)
	if cancelled {
		m.DownloadsCancelled.Add(1)
		m.forPlatform(platform).Cancelled.Add(1)
	} else {
		m.DownloadsCompleted.Add(1)
		m.forPlatform(platform).Completed.Add(1)
	}
}

// AddBytesStreamed accumulates streamed payload size
func (m *Metrics) AddBytesStreamed(n int) {
	if n > 0 {
		m.BytesStreamed.Add(uint64(n))
	}
}

func (m *Metrics) forPlatform(platform string) *PlatformStats {
	if platform == "" {
		platform = "other"
	}
	if stats, ok := m.platformStats.Load(platform); ok {
		return stats.(*PlatformStats)
	}
	stats, _ := m.platformStats.LoadOrStore(platform, &PlatformStats{})
	return stats.(*PlatformStats)
}

// GetSnapshot returns a point-in-time view for the metrics endpoint
func (m *Metrics) GetSnapshot() map[string]interface{} {
	platforms := make(map[string]interface{})
	m.platformStats.Range(func(key, value interface{}) bool {
		stats := value.(*PlatformStats)
		platforms[key.(string)] = map[string]uint64{
			"started":   stats.Started.Load(),
			"completed": stats.Completed.Load(),
			"cancelled": stats.Cancelled.Load(),
		}
		return true
	})

	return map[string]interface{}{
		"total_requests":      m.TotalRequests.Load(),
		"info_requests":       m.InfoRequests.Load(),
		"downloads_started":   m.DownloadsStarted.Load(),
		"downloads_completed": m.DownloadsCompleted.Load(),
		"downloads_cancelled": m.DownloadsCancelled.Load(),
		"active_downloads":    m.ActiveDownloads.Load(),
		"bytes_streamed":      m.BytesStreamed.Load(),
		"total_errors":        m.TotalErrors.Load(),
		"uptime_seconds":      int64(time.Since(m.StartedAt).Seconds()),
		"platforms":           platforms,
	}
}
