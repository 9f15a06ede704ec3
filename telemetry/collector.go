package telemetry

// Collector folds a run's snapshots into LifeStats as they stream past,
// so a batch never has to hold full trajectories in memory.
type Collector struct {
	seed uint64

	wealth []float64
	stress []float64

	peakWealth float64
	peakIncome float64
	stressPeak float64
	healthMin  float64

	eliteYears   int
	yearsStudied int
	yearsWorked  int
	moves        int
	ventures     int
	venturesWon  int
	events       int

	cities map[string]struct{}

	last Snapshot
	seen bool
}

// NewCollector creates a collector for one run.
func NewCollector(seed uint64) *Collector {
	return &Collector{
		seed:      seed,
		healthMin: 1,
		cities:    make(map[string]struct{}),
	}
}

// Record folds one year into the running aggregates.
func (c *Collector) Record(s Snapshot) {
	c.wealth = append(c.wealth, s.Wealth)
	c.stress = append(c.stress, s.Stress)

	if s.Wealth > c.peakWealth {
		c.peakWealth = s.Wealth
	}
	if s.Income > c.peakIncome {
		c.peakIncome = s.Income
	}
	if s.Stress > c.stressPeak {
		c.stressPeak = s.Stress
	}
	if s.Health < c.healthMin {
		c.healthMin = s.Health
	}

	if s.Elite {
		c.eliteYears++
	}

	switch s.Action {
	case "study":
		c.yearsStudied++
	case "work":
		c.yearsWorked++
	case "move":
		c.moves++
	case "risk":
		c.ventures++
		if s.ActionSuccess == "success" {
			c.venturesWon++
		}
	}

	c.cities[s.City] = struct{}{}

	c.last = s
	c.seen = true
}

// RecordEvents bumps the detected event count.
func (c *Collector) RecordEvents(n int) {
	c.events += n
}

// Flush produces the LifeStats for the recorded run. died reports
// whether the run ended before its age horizon.
func (c *Collector) Flush(died bool) LifeStats {
	p10, p50, p90 := Quantiles(c.wealth)

	ls := LifeStats{
		Seed:     c.seed,
		FinalAge: c.last.Age,
		Died:     died,

		FinalWealth:   c.last.Wealth,
		PeakWealth:    c.peakWealth,
		FinalIncome:   c.last.Income,
		PeakIncome:    c.peakIncome,
		PropertyValue: c.last.PropertyValue,

		WealthMean: Mean(c.wealth),
		WealthP10:  p10,
		WealthP50:  p50,
		WealthP90:  p90,

		StressMean: Mean(c.stress),
		StressPeak: c.stressPeak,
		HealthMin:  c.healthMin,

		FinalEducation: c.last.Education,
		FinalScore:     c.last.Score,
		EliteYears:     c.eliteYears,
		WindowOutcome:  c.last.WindowStatus,
		FinalCity:      c.last.City,
		CitiesLived:    len(c.cities),

		YearsStudied: c.yearsStudied,
		YearsWorked:  c.yearsWorked,
		Moves:        c.moves,
		Ventures:     c.ventures,
		VenturesWon:  c.venturesWon,

		Events: c.events,
	}
	if !c.seen {
		ls.HealthMin = 0
	}
	return ls
}
