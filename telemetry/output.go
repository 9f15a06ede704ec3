package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/lchant/loom/config"
)

// OutputManager handles structured run output with CSV and JSON files.
// A nil manager is valid and drops everything, so callers never branch
// on whether output is enabled.
type OutputManager struct {
	dir            string
	trajectoryFile *os.File
	eventsFile     *os.File
	livesFile      *os.File
	perfFile       *os.File

	// Track if headers have been written
	trajectoryHeaderWritten bool
	eventsHeaderWritten     bool
	livesHeaderWritten      bool
	perfHeaderWritten       bool
}

// NewOutputManager creates an output manager and initializes the output
// directory. Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "trajectory.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating trajectory.csv: %w", err)
	}
	om.trajectoryFile = f

	f, err = os.Create(filepath.Join(dir, "events.csv"))
	if err != nil {
		om.trajectoryFile.Close()
		return nil, fmt.Errorf("creating events.csv: %w", err)
	}
	om.eventsFile = f

	f, err = os.Create(filepath.Join(dir, "lives.csv"))
	if err != nil {
		om.trajectoryFile.Close()
		om.eventsFile.Close()
		return nil, fmt.Errorf("creating lives.csv: %w", err)
	}
	om.livesFile = f

	f, err = os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		om.trajectoryFile.Close()
		om.eventsFile.Close()
		om.livesFile.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	return om, nil
}

// WriteConfig saves the effective configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteSnapshot appends one year to trajectory.csv.
func (om *OutputManager) WriteSnapshot(s Snapshot) error {
	if om == nil {
		return nil
	}

	records := []Snapshot{s}

	if !om.trajectoryHeaderWritten {
		if err := gocsv.Marshal(records, om.trajectoryFile); err != nil {
			return fmt.Errorf("writing trajectory: %w", err)
		}
		om.trajectoryHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.trajectoryFile); err != nil {
			return fmt.Errorf("writing trajectory: %w", err)
		}
	}

	return nil
}

// WriteEvent appends a detected event to events.csv.
func (om *OutputManager) WriteEvent(e Event) error {
	if om == nil {
		return nil
	}

	records := []Event{e}

	if !om.eventsHeaderWritten {
		if err := gocsv.Marshal(records, om.eventsFile); err != nil {
			return fmt.Errorf("writing event: %w", err)
		}
		om.eventsHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.eventsFile); err != nil {
			return fmt.Errorf("writing event: %w", err)
		}
	}

	return nil
}

// WriteLife appends a completed run's stats to lives.csv.
func (om *OutputManager) WriteLife(ls LifeStats) error {
	if om == nil {
		return nil
	}

	records := []LifeStats{ls}

	if !om.livesHeaderWritten {
		if err := gocsv.Marshal(records, om.livesFile); err != nil {
			return fmt.Errorf("writing life: %w", err)
		}
		om.livesHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.livesFile); err != nil {
			return fmt.Errorf("writing life: %w", err)
		}
	}

	return nil
}

// WritePerf appends a throughput sample to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats) error {
	if om == nil {
		return nil
	}

	records := []PerfStatsCSV{stats.ToCSV()}

	if !om.perfHeaderWritten {
		if err := gocsv.Marshal(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
		om.perfHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
	}

	return nil
}

// WriteSummary saves the cohort digest as JSON.
func (om *OutputManager) WriteSummary(cs CohortSummary) error {
	if om == nil {
		return nil
	}

	data, err := json.MarshalIndent(cs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, "summary.json"), data, 0644); err != nil {
		return fmt.Errorf("writing summary.json: %w", err)
	}
	return nil
}

// WriteHallOfFame saves the hall of fame as JSON.
func (om *OutputManager) WriteHallOfFame(hof *HallOfFame) error {
	if om == nil || hof == nil {
		return nil
	}

	data, err := hof.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshaling hall of fame: %w", err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, "hall_of_fame.json"), data, 0644); err != nil {
		return fmt.Errorf("writing hall_of_fame.json: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error

	if om.trajectoryFile != nil {
		if err := om.trajectoryFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if om.eventsFile != nil {
		if err := om.eventsFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if om.livesFile != nil {
		if err := om.livesFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if om.perfFile != nil {
		if err := om.perfFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
