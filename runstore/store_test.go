package runstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lchant/loom/telemetry"
)

func openForTest(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleLife(seed uint64, wealth float64) telemetry.LifeStats {
	return telemetry.LifeStats{
		Seed:          seed,
		FinalAge:      85,
		FinalWealth:   wealth,
		PeakWealth:    wealth * 1.2,
		FinalIncome:   3000,
		FinalScore:    0.62,
		EliteYears:    3,
		WindowOutcome: "captured",
		FinalCity:     "harbor",
		CitiesLived:   2,
		YearsStudied:  12,
		YearsWorked:   40,
		Moves:         1,
		Ventures:      2,
		VenturesWon:   1,
		Events:        5,
	}
}

func sampleTrajectory(seed uint64) telemetry.Trajectory {
	return telemetry.Trajectory{
		Version: telemetry.SnapshotVersion,
		Seed:    seed,
		Snapshots: []telemetry.Snapshot{
			{Year: 1990, Age: 20, Wealth: 5000, Income: 800, Health: 0.9,
				Stress: 0.2, City: "capital", Era: "early_reform",
				WindowStatus: "open", Action: "study"},
			{Year: 1991, Age: 21, Wealth: 6200, Income: 1500, Health: 0.89,
				Stress: 0.25, City: "harbor", Era: "early_reform",
				WindowStatus: "captured", Action: "move"},
		},
	}
}

func TestSaveRunRoundTrip(t *testing.T) {
	st := openForTest(t)

	ls := sampleLife(42, 90000)
	id, err := st.SaveRun(ls, sampleTrajectory(42))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := st.LoadStats(id)
	require.NoError(t, err)
	assert.Equal(t, ls, got)

	traj, err := st.LoadTrajectory(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), traj.Seed)
	require.Len(t, traj.Snapshots, 2)
	assert.Equal(t, 1990, traj.Snapshots[0].Year)
	assert.Equal(t, "harbor", traj.Snapshots[1].City)
	assert.Equal(t, "captured", traj.Snapshots[1].WindowStatus)
	assert.Equal(t, 6200.0, traj.Snapshots[1].Wealth)
}

func TestListAndBestRuns(t *testing.T) {
	st := openForTest(t)

	_, err := st.SaveRun(sampleLife(1, 10000), sampleTrajectory(1))
	require.NoError(t, err)
	_, err = st.SaveRun(sampleLife(2, 50000), sampleTrajectory(2))
	require.NoError(t, err)
	_, err = st.SaveRun(sampleLife(3, 30000), sampleTrajectory(3))
	require.NoError(t, err)

	n, err := st.CountRuns()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	runs, err := st.ListRuns(10)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
	for _, r := range runs {
		assert.NotEmpty(t, r.ID)
		assert.NotEmpty(t, r.CreatedAt)
		assert.Equal(t, "captured", r.WindowOutcome)
	}

	best, err := st.BestRuns(2)
	require.NoError(t, err)
	require.Len(t, best, 2)
	assert.Equal(t, 50000.0, best[0].FinalWealth)
	assert.Equal(t, 30000.0, best[1].FinalWealth)
	assert.Equal(t, uint64(2), best[0].Seed)
}

func TestLoadUnknownRun(t *testing.T) {
	st := openForTest(t)

	_, err := st.LoadStats("no-such-run")
	assert.Error(t, err)

	_, err = st.LoadTrajectory("no-such-run")
	assert.Error(t, err)
}

func TestSaveRunEmptyTrajectory(t *testing.T) {
	st := openForTest(t)

	id, err := st.SaveRun(sampleLife(7, 1000), telemetry.Trajectory{Seed: 7})
	require.NoError(t, err)

	traj, err := st.LoadTrajectory(id)
	require.NoError(t, err)
	assert.Empty(t, traj.Snapshots)
}
