package visibility

import (
	"sync"
	"time"
)

// Metrics accumulates statistics across propagation passes.
//
// Passes record into it from the propagating goroutine; Snapshot may be
// called from any goroutine.
type Metrics struct {
	mutex   sync.RWMutex
	summary MetricsSummary
}

// MetricsSummary is a point-in-time copy of Metrics.
type MetricsSummary struct {
	Passes          int           `json:"passes" yaml:"passes"`
	TruncatedPasses int           `json:"truncated_passes" yaml:"truncated_passes"`
	TotalVisited    int           `json:"total_visited" yaml:"total_visited"`
	TotalUpdated    int           `json:"total_updated" yaml:"total_updated"`
	TotalPruned     int           `json:"total_pruned" yaml:"total_pruned"`
	TotalMissing    int           `json:"total_missing" yaml:"total_missing"`
	TotalDuration   time.Duration `json:"total_duration" yaml:"total_duration"`
	LastDuration    time.Duration `json:"last_duration" yaml:"last_duration"`
	Last            Stats         `json:"last" yaml:"last"`
}

// NewMetrics creates an empty collector.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Record adds one pass.
func (m *Metrics) Record(stats Stats, duration time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.summary.Passes++
	if stats.Truncated {
		m.summary.TruncatedPasses++
	}
	m.summary.TotalVisited += stats.Visited
	m.summary.TotalUpdated += stats.Updated
	m.summary.TotalPruned += stats.Pruned
	m.summary.TotalMissing += stats.Missing
	m.summary.TotalDuration += duration
	m.summary.LastDuration = duration
	m.summary.Last = stats
}

// Snapshot returns the totals recorded so far.
func (m *Metrics) Snapshot() MetricsSummary {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.summary
}

// UpdateRate returns the fraction of visits that changed a node, or 0 before
// any visit.
func (s MetricsSummary) UpdateRate() float64 {
	if s.TotalVisited == 0 {
		return 0
	}
	return float64(s.TotalUpdated) / float64(s.TotalVisited)
}

// Reset clears all recorded passes.
func (m *Metrics) Reset() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.summary = MetricsSummary{}
}
