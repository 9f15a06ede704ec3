package telemetry

import (
	"math"
	"testing"
)

func TestQuantiles(t *testing.T) {
	p10, p50, p90 := Quantiles([]float64{10, 1, 9, 2, 8, 3, 7, 4, 6, 5})
	if p10 != 1 || p50 != 5 || p90 != 9 {
		t.Errorf("quantiles = %v %v %v, want 1 5 9", p10, p50, p90)
	}

	p10, p50, p90 = Quantiles(nil)
	if p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty series should return all zeros")
	}
}

func TestMean(t *testing.T) {
	if m := Mean([]float64{1, 2, 3, 4}); math.Abs(m-2.5) > 1e-9 {
		t.Errorf("mean = %v, want 2.5", m)
	}
	if m := Mean(nil); m != 0 {
		t.Errorf("mean of empty = %v, want 0", m)
	}
}

func TestCollectorFoldsLife(t *testing.T) {
	c := NewCollector(42)

	years := []Snapshot{
		{Age: 18, Wealth: 1000, Income: 500, Stress: 0.2, Health: 0.9, Action: "study", City: "capital"},
		{Age: 19, Wealth: 2000, Income: 1500, Stress: 0.4, Health: 0.85, Action: "work", City: "capital"},
		{Age: 20, Wealth: 1500, Income: 1400, Stress: 0.8, Health: 0.6, Action: "move", City: "harbor"},
		{Age: 21, Wealth: 4000, Income: 2000, Stress: 0.5, Health: 0.7, Action: "risk", ActionSuccess: "success", City: "harbor", Elite: true},
		{Age: 22, Wealth: 3000, Income: 1800, Stress: 0.6, Health: 0.75, Action: "risk", ActionSuccess: "failure",
			City: "harbor", Elite: true, WindowStatus: "captured", Education: 0.7, Score: 0.82, PropertyValue: 500},
	}
	for _, s := range years {
		c.Record(s)
	}
	c.RecordEvents(2)
	c.RecordEvents(1)

	ls := c.Flush(false)

	if ls.Seed != 42 || ls.FinalAge != 22 || ls.Died {
		t.Fatalf("framing = %+v", ls)
	}
	if ls.FinalWealth != 3000 || ls.PeakWealth != 4000 {
		t.Errorf("wealth = %v peak %v", ls.FinalWealth, ls.PeakWealth)
	}
	if ls.FinalIncome != 1800 || ls.PeakIncome != 2000 {
		t.Errorf("income = %v peak %v", ls.FinalIncome, ls.PeakIncome)
	}
	if ls.StressPeak != 0.8 || ls.HealthMin != 0.6 {
		t.Errorf("vitals = stress %v health %v", ls.StressPeak, ls.HealthMin)
	}
	if ls.YearsStudied != 1 || ls.YearsWorked != 1 || ls.Moves != 1 {
		t.Errorf("action tally = %+v", ls)
	}
	if ls.Ventures != 2 || ls.VenturesWon != 1 {
		t.Errorf("ventures = %d won %d", ls.Ventures, ls.VenturesWon)
	}
	if ls.EliteYears != 2 {
		t.Errorf("elite years = %d", ls.EliteYears)
	}
	if ls.CitiesLived != 2 || ls.FinalCity != "harbor" {
		t.Errorf("cities = %d final %s", ls.CitiesLived, ls.FinalCity)
	}
	if ls.WindowOutcome != "captured" {
		t.Errorf("window outcome = %s", ls.WindowOutcome)
	}
	if ls.Events != 3 {
		t.Errorf("events = %d", ls.Events)
	}
	if math.Abs(ls.WealthMean-2300) > 1e-9 {
		t.Errorf("wealth mean = %v", ls.WealthMean)
	}
}

func TestCohortSummaryShares(t *testing.T) {
	c := NewCohort()
	c.Add(LifeStats{Seed: 1, FinalAge: 80, FinalWealth: 10000, WindowOutcome: "captured", EliteYears: 5, FinalCity: "capital"})
	c.Add(LifeStats{Seed: 2, FinalAge: 60, FinalWealth: 2000, WindowOutcome: "missed", FinalCity: "crossroads", Died: true})
	c.Add(LifeStats{Seed: 3, FinalAge: 70, FinalWealth: 6000, PropertyValue: 4000, WindowOutcome: "not_applicable", FinalCity: "capital"})

	cs := c.Summary()
	if cs.Runs != 3 {
		t.Fatalf("runs = %d", cs.Runs)
	}
	if math.Abs(cs.CaptureShare-1.0/3) > 1e-9 || math.Abs(cs.MissShare-1.0/3) > 1e-9 {
		t.Errorf("shares = capture %v miss %v", cs.CaptureShare, cs.MissShare)
	}
	if math.Abs(cs.EliteShare-1.0/3) > 1e-9 {
		t.Errorf("elite share = %v", cs.EliteShare)
	}
	if math.Abs(cs.DeathShare-1.0/3) > 1e-9 {
		t.Errorf("death share = %v", cs.DeathShare)
	}
	// Property folds into net wealth: 10000, 2000, 10000.
	if math.Abs(cs.FinalWealthMean-22000.0/3) > 1e-9 {
		t.Errorf("wealth mean = %v", cs.FinalWealthMean)
	}
	if cs.CitiesSettled != 2 {
		t.Errorf("cities settled = %d", cs.CitiesSettled)
	}
	if math.Abs(cs.FinalAgeMean-70) > 1e-9 {
		t.Errorf("age mean = %v", cs.FinalAgeMean)
	}

	if empty := NewCohort().Summary(); empty.Runs != 0 {
		t.Errorf("empty cohort summary = %+v", empty)
	}
}
