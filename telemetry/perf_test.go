package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollectorStats(t *testing.T) {
	pc := NewPerfCollector(8)

	for i := 1; i <= 5; i++ {
		pc.Observe(time.Duration(i) * time.Millisecond)
	}

	stats := pc.Stats()
	if stats.Completed != 5 {
		t.Errorf("Completed = %d, want 5", stats.Completed)
	}
	if stats.AvgRunDuration != 3*time.Millisecond {
		t.Errorf("AvgRunDuration = %v, want 3ms", stats.AvgRunDuration)
	}
	if stats.MinRunDuration != 1*time.Millisecond {
		t.Errorf("MinRunDuration = %v, want 1ms", stats.MinRunDuration)
	}
	if stats.MaxRunDuration != 5*time.Millisecond {
		t.Errorf("MaxRunDuration = %v, want 5ms", stats.MaxRunDuration)
	}
	if stats.RunsPerSecond <= 0 {
		t.Errorf("RunsPerSecond = %f, want > 0", stats.RunsPerSecond)
	}
	if stats.Elapsed <= 0 {
		t.Errorf("Elapsed = %v, want > 0", stats.Elapsed)
	}
}

func TestPerfCollectorRollingWindow(t *testing.T) {
	pc := NewPerfCollector(2)

	pc.Observe(10 * time.Millisecond)
	pc.Observe(20 * time.Millisecond)
	pc.Observe(30 * time.Millisecond)
	pc.Observe(40 * time.Millisecond)

	stats := pc.Stats()

	// Completed counts every run, the window only shapes the averages.
	if stats.Completed != 4 {
		t.Errorf("Completed = %d, want 4", stats.Completed)
	}
	if stats.MinRunDuration != 30*time.Millisecond {
		t.Errorf("MinRunDuration = %v, want 30ms", stats.MinRunDuration)
	}
	if stats.MaxRunDuration != 40*time.Millisecond {
		t.Errorf("MaxRunDuration = %v, want 40ms", stats.MaxRunDuration)
	}
	if stats.AvgRunDuration != 35*time.Millisecond {
		t.Errorf("AvgRunDuration = %v, want 35ms", stats.AvgRunDuration)
	}
}

func TestPerfCollectorEmpty(t *testing.T) {
	pc := NewPerfCollector(0)

	stats := pc.Stats()
	if stats.Completed != 0 {
		t.Errorf("Completed = %d, want 0", stats.Completed)
	}
	if stats.AvgRunDuration != 0 {
		t.Errorf("AvgRunDuration = %v, want 0", stats.AvgRunDuration)
	}
}

func TestPerfStatsCSV(t *testing.T) {
	stats := PerfStats{
		Completed:      100,
		Elapsed:        2 * time.Second,
		AvgRunDuration: 500 * time.Microsecond,
		MinRunDuration: 100 * time.Microsecond,
		MaxRunDuration: 900 * time.Microsecond,
		RunsPerSecond:  50,
	}

	row := stats.ToCSV()
	if row.Completed != 100 {
		t.Errorf("Completed = %d, want 100", row.Completed)
	}
	if row.ElapsedSec != 2 {
		t.Errorf("ElapsedSec = %f, want 2", row.ElapsedSec)
	}
	if row.AvgRunUS != 500 {
		t.Errorf("AvgRunUS = %d, want 500", row.AvgRunUS)
	}
	if row.RunsPerSec != 50 {
		t.Errorf("RunsPerSec = %f, want 50", row.RunsPerSec)
	}
}
