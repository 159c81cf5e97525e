// Package monitoring records the duration, row count and allocation delta of
// each pipeline step.
package monitoring

import (
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// StepMetrics describes one executed pipeline step.
type StepMetrics struct {
	Step        string        `json:"step"`
	Duration    time.Duration `json:"duration"`
	Rows        int64         `json:"rows"`
	MemoryDelta int64         `json:"memory_delta"`
	Failed      bool          `json:"failed"`
}

// StepCollector collects metrics for pipeline steps. A disabled collector
// runs steps without measuring them.
type StepCollector struct {
	mu      sync.RWMutex
	steps   []StepMetrics
	enabled bool
}

// NewStepCollector creates a collector.
func NewStepCollector(enabled bool) *StepCollector {
	return &StepCollector{enabled: enabled}
}

// IsEnabled reports whether steps are measured.
func (sc *StepCollector) IsEnabled() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.enabled
}

// Record runs fn as the named step. fn returns the number of rows the step
// produced. Failed steps are recorded too.
func (sc *StepCollector) Record(step string, fn func() (int, error)) error {
	if !sc.IsEnabled() {
		_, err := fn()
		return err
	}

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	start := time.Now()

	rows, err := fn()

	duration := time.Since(start)
	runtime.ReadMemStats(&after)

	m := StepMetrics{
		Step:        step,
		Duration:    duration,
		Rows:        int64(rows),
		MemoryDelta: int64(after.TotalAlloc - before.TotalAlloc), //nolint:gosec // allocation deltas fit in int64
		Failed:      err != nil,
	}

	sc.mu.Lock()
	sc.steps = append(sc.steps, m)
	sc.mu.Unlock()

	return err
}

// Steps returns a copy of the recorded steps in execution order.
func (sc *StepCollector) Steps() []StepMetrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	result := make([]StepMetrics, len(sc.steps))
	copy(result, sc.steps)
	return result
}

// Summary aggregates the recorded steps.
func (sc *StepCollector) Summary() Summary {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	var s Summary
	for _, m := range sc.steps {
		s.Steps++
		s.TotalDuration += m.Duration
		s.TotalRows += m.Rows
		s.TotalMemory += m.MemoryDelta
		if m.Failed {
			s.Failed++
		}
	}
	return s
}

// Summary provides aggregate statistics over recorded steps.
type Summary struct {
	Steps         int           `json:"steps"`
	Failed        int           `json:"failed"`
	TotalDuration time.Duration `json:"total_duration"`
	TotalRows     int64         `json:"total_rows"`
	TotalMemory   int64         `json:"total_memory"`
}

// Log writes one debug line per step and an info line with the totals.
func (sc *StepCollector) Log(logger *zerolog.Logger) {
	if !sc.IsEnabled() {
		return
	}
	for _, m := range sc.Steps() {
		logger.Debug().
			Str("step", m.Step).
			Dur("duration", m.Duration).
			Int64("rows", m.Rows).
			Int64("memory_delta", m.MemoryDelta).
			Bool("failed", m.Failed).
			Msg("step metrics")
	}
	s := sc.Summary()
	logger.Info().
		Int("steps", s.Steps).
		Int("failed", s.Failed).
		Dur("total_duration", s.TotalDuration).
		Int64("total_rows", s.TotalRows).
		Msg("pipeline metrics")
}
