package metrics

import (
	"sync"
	"time"

	"github.com/newsforge/newsforge/internal/news"
)

// Metrics aggregates pipeline counters across runs for the monitoring
// endpoints.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	Runs         int64
	TicksSkipped int64
	Fetched      int64
	Staged       int64
	Processed    int64
	NLPSuccess   int64
	NLPFail      int64

	// Timings
	LastRunDuration time.Duration
	TotalDuration   time.Duration

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

// RecordRun folds one pipeline run into the counters.
func (m *Metrics) RecordRun(run news.PipelineRun, staged int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Runs++
	m.Fetched += int64(run.Fetched)
	m.Staged += int64(staged)
	m.Processed += int64(run.Processed)
	m.NLPSuccess += int64(run.NLPSuccess)
	m.NLPFail += int64(run.NLPFail)

	m.LastRunDuration = duration
	m.TotalDuration += duration
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

// RecordSkippedTick counts scheduler ticks dropped by the single-flight guard.
func (m *Metrics) RecordSkippedTick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TicksSkipped++
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"runs":                 m.Runs,
		"ticks_skipped":        m.TicksSkipped,
		"fetched":              m.Fetched,
		"staged":               m.Staged,
		"processed":            m.Processed,
		"nlp_success":          m.NLPSuccess,
		"nlp_fail":             m.NLPFail,
		"last_run_duration_ms": m.LastRunDuration.Milliseconds(),
		"last_run_time":        m.LastRunTime.Format(time.RFC3339),
		"last_error_time":      m.LastErrorTime.Format(time.RFC3339),
		"last_error":           m.LastError,
		"is_healthy":           m.IsHealthy,
	}
}
