package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// LifeStats flattens one completed trajectory into a single row, used
// for the per-run CSV, the hall of fame, and the cohort summary.
type LifeStats struct {
	Seed     uint64 `csv:"seed" json:"seed"`
	FinalAge int    `csv:"final_age" json:"final_age"`
	Died     bool   `csv:"died" json:"died"`

	// Economic endpoints
	FinalWealth   float64 `csv:"final_wealth" json:"final_wealth"`
	PeakWealth    float64 `csv:"peak_wealth" json:"peak_wealth"`
	FinalIncome   float64 `csv:"final_income" json:"final_income"`
	PeakIncome    float64 `csv:"peak_income" json:"peak_income"`
	PropertyValue float64 `csv:"property_value" json:"property_value"`

	// Wealth over the whole life
	WealthMean float64 `csv:"wealth_mean" json:"wealth_mean"`
	WealthP10  float64 `csv:"wealth_p10" json:"wealth_p10"`
	WealthP50  float64 `csv:"wealth_p50" json:"wealth_p50"`
	WealthP90  float64 `csv:"wealth_p90" json:"wealth_p90"`

	// Vital extremes
	StressMean float64 `csv:"stress_mean" json:"stress_mean"`
	StressPeak float64 `csv:"stress_peak" json:"stress_peak"`
	HealthMin  float64 `csv:"health_min" json:"health_min"`

	// Standing at the end
	FinalEducation float64 `csv:"final_education" json:"final_education"`
	FinalScore     float64 `csv:"final_score" json:"final_score"`
	EliteYears     int     `csv:"elite_years" json:"elite_years"`
	WindowOutcome  string  `csv:"window_outcome" json:"window_outcome"`
	FinalCity      string  `csv:"final_city" json:"final_city"`
	CitiesLived    int     `csv:"cities_lived" json:"cities_lived"`

	// Action tally
	YearsStudied int `csv:"years_studied" json:"years_studied"`
	YearsWorked  int `csv:"years_worked" json:"years_worked"`
	Moves        int `csv:"moves" json:"moves"`
	Ventures     int `csv:"ventures" json:"ventures"`
	VenturesWon  int `csv:"ventures_won" json:"ventures_won"`

	Events int `csv:"events" json:"events"`
}

// Quantiles returns the 10th, 50th, and 90th percentiles of an
// unsorted series. Zeros for an empty series.
func Quantiles(values []float64) (p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return p10, p50, p90
}

// Mean returns the arithmetic mean, zero for an empty series.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// LogValue implements slog.LogValuer for structured logging.
func (s LifeStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("seed", s.Seed),
		slog.Int("final_age", s.FinalAge),
		slog.Bool("died", s.Died),
		slog.Float64("final_wealth", s.FinalWealth),
		slog.Float64("peak_wealth", s.PeakWealth),
		slog.Float64("final_income", s.FinalIncome),
		slog.Float64("wealth_p50", s.WealthP50),
		slog.Float64("stress_peak", s.StressPeak),
		slog.Float64("health_min", s.HealthMin),
		slog.Float64("final_education", s.FinalEducation),
		slog.Float64("final_score", s.FinalScore),
		slog.Int("elite_years", s.EliteYears),
		slog.String("window_outcome", s.WindowOutcome),
		slog.String("final_city", s.FinalCity),
		slog.Int("cities_lived", s.CitiesLived),
		slog.Int("years_studied", s.YearsStudied),
		slog.Int("years_worked", s.YearsWorked),
		slog.Int("moves", s.Moves),
		slog.Int("ventures", s.Ventures),
		slog.Int("ventures_won", s.VenturesWon),
		slog.Int("events", s.Events),
	)
}

// LogStats logs the life stats using slog.
func (s LifeStats) LogStats() {
	slog.Info("life",
		"seed", s.Seed,
		"final_age", s.FinalAge,
		"died", s.Died,
		"final_wealth", s.FinalWealth,
		"peak_wealth", s.PeakWealth,
		"final_income", s.FinalIncome,
		"wealth_p50", s.WealthP50,
		"stress_peak", s.StressPeak,
		"health_min", s.HealthMin,
		"final_score", s.FinalScore,
		"elite_years", s.EliteYears,
		"window_outcome", s.WindowOutcome,
		"final_city", s.FinalCity,
		"moves", s.Moves,
		"ventures", s.Ventures,
		"events", s.Events,
	)
}
