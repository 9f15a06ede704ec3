package telemetry

import (
	"log/slog"

	"github.com/lchant/loom/country"
	"gonum.org/v1/gonum/stat"
)

// Cohort accumulates per-run stats across a batch.
type Cohort struct {
	lives []LifeStats
}

// NewCohort creates an empty cohort.
func NewCohort() *Cohort {
	return &Cohort{}
}

// Add records one completed life.
func (c *Cohort) Add(ls LifeStats) {
	c.lives = append(c.lives, ls)
}

// Count returns the number of recorded lives.
func (c *Cohort) Count() int {
	return len(c.lives)
}

// All returns the recorded lives in insertion order.
func (c *Cohort) All() []LifeStats {
	return c.lives
}

// ActiveCityCount returns the number of distinct final cities.
func (c *Cohort) ActiveCityCount() int {
	seen := make(map[string]struct{})
	for _, ls := range c.lives {
		seen[ls.FinalCity] = struct{}{}
	}
	return len(seen)
}

// CohortSummary is the batch-level digest written to summary.json.
type CohortSummary struct {
	Runs int `json:"runs"`

	FinalWealthMean float64 `json:"final_wealth_mean"`
	FinalWealthStd  float64 `json:"final_wealth_std"`
	FinalWealthP10  float64 `json:"final_wealth_p10"`
	FinalWealthP50  float64 `json:"final_wealth_p50"`
	FinalWealthP90  float64 `json:"final_wealth_p90"`
	PeakWealthMean  float64 `json:"peak_wealth_mean"`

	FinalAgeMean float64 `json:"final_age_mean"`
	DeathShare   float64 `json:"death_share"`

	EliteShare    float64 `json:"elite_share"`
	EliteYearsAvg float64 `json:"elite_years_avg"`
	CaptureShare  float64 `json:"capture_share"`
	MissShare     float64 `json:"miss_share"`

	CitiesSettled int `json:"cities_settled"`
}

// Summary computes the cohort digest. Wealth counts property, matching
// the scoring view of net worth.
func (c *Cohort) Summary() CohortSummary {
	n := len(c.lives)
	if n == 0 {
		return CohortSummary{}
	}

	wealth := make([]float64, n)
	peaks := make([]float64, n)
	ages := make([]float64, n)
	var eliteYears float64
	var elites, captures, misses, deaths int

	for i, ls := range c.lives {
		wealth[i] = ls.FinalWealth + ls.PropertyValue
		peaks[i] = ls.PeakWealth
		ages[i] = float64(ls.FinalAge)
		eliteYears += float64(ls.EliteYears)
		if ls.EliteYears > 0 {
			elites++
		}
		switch ls.WindowOutcome {
		case country.WindowCaptured.String():
			captures++
		case country.WindowMissed.String():
			misses++
		}
		if ls.Died {
			deaths++
		}
	}

	p10, p50, p90 := Quantiles(wealth)
	cs := CohortSummary{
		Runs: n,

		FinalWealthMean: stat.Mean(wealth, nil),
		FinalWealthP10:  p10,
		FinalWealthP50:  p50,
		FinalWealthP90:  p90,
		PeakWealthMean:  stat.Mean(peaks, nil),

		FinalAgeMean: stat.Mean(ages, nil),
		DeathShare:   float64(deaths) / float64(n),

		EliteShare:    float64(elites) / float64(n),
		EliteYearsAvg: eliteYears / float64(n),
		CaptureShare:  float64(captures) / float64(n),
		MissShare:     float64(misses) / float64(n),

		CitiesSettled: c.ActiveCityCount(),
	}
	if n > 1 {
		cs.FinalWealthStd = stat.StdDev(wealth, nil)
	}
	return cs
}

// LogSummary logs the cohort digest using slog.
func (s CohortSummary) LogSummary() {
	slog.Info("cohort",
		"runs", s.Runs,
		"final_wealth_mean", s.FinalWealthMean,
		"final_wealth_p50", s.FinalWealthP50,
		"final_wealth_p90", s.FinalWealthP90,
		"final_age_mean", s.FinalAgeMean,
		"death_share", s.DeathShare,
		"elite_share", s.EliteShare,
		"capture_share", s.CaptureShare,
		"miss_share", s.MissShare,
		"cities_settled", s.CitiesSettled,
	)
}
