package telemetry

import (
	"log/slog"
	"sync"
	"time"
)

// PerfCollector tracks batch throughput over a rolling window of run
// durations. Observe is called from worker goroutines, so the collector
// is safe for concurrent use.
type PerfCollector struct {
	mu sync.Mutex

	windowSize  int
	samples     []time.Duration
	writeIndex  int
	sampleCount int

	completed int
	started   time.Time
}

// NewPerfCollector creates a collector averaging over windowSize runs.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 64
	}
	return &PerfCollector{
		windowSize: windowSize,
		samples:    make([]time.Duration, windowSize),
		started:    time.Now(),
	}
}

// Observe records one finished run's wall-clock duration.
func (p *PerfCollector) Observe(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.samples[p.writeIndex] = d
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
	p.completed++
}

// PerfStats holds aggregated throughput statistics.
type PerfStats struct {
	Completed int
	Elapsed   time.Duration

	AvgRunDuration time.Duration
	MinRunDuration time.Duration
	MaxRunDuration time.Duration

	RunsPerSecond float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := PerfStats{
		Completed: p.completed,
		Elapsed:   time.Since(p.started),
	}
	if p.sampleCount == 0 {
		return stats
	}

	var total, minRun, maxRun time.Duration
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s
		if i == 0 || s < minRun {
			minRun = s
		}
		if s > maxRun {
			maxRun = s
		}
	}

	stats.AvgRunDuration = total / time.Duration(p.sampleCount)
	stats.MinRunDuration = minRun
	stats.MaxRunDuration = maxRun
	if stats.Elapsed > 0 {
		stats.RunsPerSecond = float64(p.completed) / stats.Elapsed.Seconds()
	}
	return stats
}

// LogStats logs throughput statistics.
func (s PerfStats) LogStats() {
	slog.Info("perf",
		"completed", s.Completed,
		"elapsed_ms", s.Elapsed.Milliseconds(),
		"avg_run_us", s.AvgRunDuration.Microseconds(),
		"min_run_us", s.MinRunDuration.Microseconds(),
		"max_run_us", s.MaxRunDuration.Microseconds(),
		"runs_per_sec", int(s.RunsPerSecond),
	)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("completed", s.Completed),
		slog.Int64("elapsed_ms", s.Elapsed.Milliseconds()),
		slog.Int64("avg_run_us", s.AvgRunDuration.Microseconds()),
		slog.Int64("min_run_us", s.MinRunDuration.Microseconds()),
		slog.Int64("max_run_us", s.MaxRunDuration.Microseconds()),
		slog.Float64("runs_per_sec", s.RunsPerSecond),
	)
}

// PerfStatsCSV is a flat struct for CSV export of throughput stats.
type PerfStatsCSV struct {
	Completed  int     `csv:"completed"`
	ElapsedSec float64 `csv:"elapsed_sec"`
	AvgRunUS   int64   `csv:"avg_run_us"`
	MinRunUS   int64   `csv:"min_run_us"`
	MaxRunUS   int64   `csv:"max_run_us"`
	RunsPerSec float64 `csv:"runs_per_sec"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV() PerfStatsCSV {
	return PerfStatsCSV{
		Completed:  s.Completed,
		ElapsedSec: s.Elapsed.Seconds(),
		AvgRunUS:   s.AvgRunDuration.Microseconds(),
		MinRunUS:   s.MinRunDuration.Microseconds(),
		MaxRunUS:   s.MaxRunDuration.Microseconds(),
		RunsPerSec: s.RunsPerSecond,
	}
}
