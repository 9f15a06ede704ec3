// Package runstore archives finished runs in SQLite so batches can be
// inspected and replayed after the process exits.
package runstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/lchant/loom/telemetry"
)

// Store wraps a SQLite connection holding run metadata and per-year
// snapshots.
type Store struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	st := &Store{conn: conn}
	if err := st.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return st, nil
}

// Close closes the database connection.
func (st *Store) Close() error {
	return st.conn.Close()
}

func (st *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		seed INTEGER NOT NULL,
		final_age INTEGER NOT NULL,
		died INTEGER NOT NULL,
		final_wealth REAL NOT NULL,
		peak_wealth REAL NOT NULL,
		final_income REAL NOT NULL,
		property_value REAL NOT NULL,
		final_education REAL NOT NULL,
		final_score REAL NOT NULL,
		elite_years INTEGER NOT NULL,
		window_outcome TEXT NOT NULL,
		final_city TEXT NOT NULL,
		cities_lived INTEGER NOT NULL,
		years_studied INTEGER NOT NULL,
		years_worked INTEGER NOT NULL,
		moves INTEGER NOT NULL,
		ventures INTEGER NOT NULL,
		ventures_won INTEGER NOT NULL,
		events INTEGER NOT NULL,
		stats_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		age INTEGER NOT NULL,
		wealth REAL NOT NULL,
		income REAL NOT NULL,
		health REAL NOT NULL,
		stress REAL NOT NULL,
		city TEXT NOT NULL,
		era TEXT NOT NULL,
		action TEXT NOT NULL,
		window_status TEXT NOT NULL,
		data_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_run ON snapshots(run_id, year);
	CREATE INDEX IF NOT EXISTS idx_runs_wealth ON runs(final_wealth);
	`
	_, err := st.conn.Exec(schema)
	return err
}

// RunRecord is one archived run as listed from the runs table.
type RunRecord struct {
	ID            string  `db:"id"`
	CreatedAt     string  `db:"created_at"`
	Seed          uint64  `db:"seed"`
	FinalAge      int     `db:"final_age"`
	Died          bool    `db:"died"`
	FinalWealth   float64 `db:"final_wealth"`
	PeakWealth    float64 `db:"peak_wealth"`
	FinalScore    float64 `db:"final_score"`
	EliteYears    int     `db:"elite_years"`
	WindowOutcome string  `db:"window_outcome"`
	FinalCity     string  `db:"final_city"`
	Moves         int     `db:"moves"`
	Ventures      int     `db:"ventures"`
}

// SaveRun writes one run's stats and full trajectory in a single
// transaction and returns the new run id.
func (st *Store) SaveRun(ls telemetry.LifeStats, traj telemetry.Trajectory) (string, error) {
	statsJSON, err := json.Marshal(ls)
	if err != nil {
		return "", fmt.Errorf("marshal stats: %w", err)
	}

	tx, err := st.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	id := uuid.NewString()
	died := 0
	if ls.Died {
		died = 1
	}

	_, err = tx.Exec(`INSERT INTO runs
		(id, created_at, seed, final_age, died, final_wealth, peak_wealth,
		 final_income, property_value, final_education, final_score,
		 elite_years, window_outcome, final_city, cities_lived,
		 years_studied, years_worked, moves, ventures, ventures_won,
		 events, stats_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339), ls.Seed, ls.FinalAge, died,
		ls.FinalWealth, ls.PeakWealth, ls.FinalIncome, ls.PropertyValue,
		ls.FinalEducation, ls.FinalScore, ls.EliteYears, ls.WindowOutcome,
		ls.FinalCity, ls.CitiesLived, ls.YearsStudied, ls.YearsWorked,
		ls.Moves, ls.Ventures, ls.VenturesWon, ls.Events, string(statsJSON),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Preparex(`INSERT INTO snapshots
		(run_id, year, age, wealth, income, health, stress, city, era,
		 action, window_status, data_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, s := range traj.Snapshots {
		dataJSON, err := json.Marshal(s)
		if err != nil {
			return "", fmt.Errorf("marshal snapshot year %d: %w", s.Year, err)
		}
		_, err = stmt.Exec(
			id, s.Year, s.Age, s.Wealth, s.Income, s.Health, s.Stress,
			s.City, s.Era, s.Action, s.WindowStatus, string(dataJSON),
		)
		if err != nil {
			return "", fmt.Errorf("insert snapshot year %d: %w", s.Year, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

const runColumns = `id, created_at, seed, final_age, died, final_wealth,
	peak_wealth, final_score, elite_years, window_outcome, final_city,
	moves, ventures`

// ListRuns returns the most recently archived runs.
func (st *Store) ListRuns(limit int) ([]RunRecord, error) {
	var runs []RunRecord
	err := st.conn.Select(&runs,
		"SELECT "+runColumns+" FROM runs ORDER BY created_at DESC, id LIMIT ?",
		limit,
	)
	return runs, err
}

// BestRuns returns the archived runs with the highest final wealth.
func (st *Store) BestRuns(limit int) ([]RunRecord, error) {
	var runs []RunRecord
	err := st.conn.Select(&runs,
		"SELECT "+runColumns+" FROM runs ORDER BY final_wealth DESC, id LIMIT ?",
		limit,
	)
	return runs, err
}

// CountRuns reports how many runs the archive holds.
func (st *Store) CountRuns() (int, error) {
	var n int
	err := st.conn.Get(&n, "SELECT COUNT(*) FROM runs")
	return n, err
}

// LoadStats restores the full LifeStats of an archived run.
func (st *Store) LoadStats(runID string) (telemetry.LifeStats, error) {
	var statsJSON string
	if err := st.conn.Get(&statsJSON,
		"SELECT stats_json FROM runs WHERE id = ?", runID); err != nil {
		return telemetry.LifeStats{}, fmt.Errorf("load run %s: %w", runID, err)
	}

	var ls telemetry.LifeStats
	if err := json.Unmarshal([]byte(statsJSON), &ls); err != nil {
		return telemetry.LifeStats{}, fmt.Errorf("unmarshal stats: %w", err)
	}
	return ls, nil
}

// LoadTrajectory restores the year-by-year trajectory of an archived run.
func (st *Store) LoadTrajectory(runID string) (telemetry.Trajectory, error) {
	var seed uint64
	if err := st.conn.Get(&seed,
		"SELECT seed FROM runs WHERE id = ?", runID); err != nil {
		return telemetry.Trajectory{}, fmt.Errorf("load run %s: %w", runID, err)
	}

	var rows []string
	if err := st.conn.Select(&rows,
		"SELECT data_json FROM snapshots WHERE run_id = ? ORDER BY year",
		runID); err != nil {
		return telemetry.Trajectory{}, fmt.Errorf("load snapshots: %w", err)
	}

	traj := telemetry.Trajectory{
		Version:   telemetry.SnapshotVersion,
		Seed:      seed,
		Snapshots: make([]telemetry.Snapshot, 0, len(rows)),
	}
	for _, data := range rows {
		var s telemetry.Snapshot
		if err := json.Unmarshal([]byte(data), &s); err != nil {
			return telemetry.Trajectory{}, fmt.Errorf("unmarshal snapshot: %w", err)
		}
		traj.Snapshots = append(traj.Snapshots, s)
	}
	return traj, nil
}
