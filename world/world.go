// Package world implements the base layer of structural forces: the short
// economic cycle, the long Kondratiev wave, monotone technology drift, the
// inequality walk, and the Pareto split that hands elites and masses
// different multipliers for the same action.
package world

import (
	"math"

	"github.com/lchant/loom/config"
	"github.com/lchant/loom/rng"
)

// Model is the base world state. One instance per run, advanced exactly once
// per simulated year before any action resolves.
type Model struct {
	BaseYear int
	Year     int

	EconomicCycle  float64 // [-1,1] short cycle position
	Technology     float64 // [0,1] monotone non-decreasing
	Inequality     float64 // [0,1]
	SocialMobility float64 // [floor,1], recomputed from inequality

	world  config.WorldConfig
	score  config.ScoreConfig
	pareto config.ParetoConfig
	chance config.MobilityChanceConfig
}

// New builds the base world at the configured base year.
func New(cfg *config.Config) *Model {
	m := &Model{
		BaseYear:   cfg.Simulation.BaseYear,
		Year:       cfg.Simulation.BaseYear,
		Technology: cfg.World.InitialTechnology,
		Inequality: cfg.World.InitialInequality,
		world:      cfg.World,
		score:      cfg.Score,
		pareto:     cfg.Pareto,
		chance:     cfg.MobilityChance,
	}
	m.SocialMobility = m.mobilityFrom(m.Inequality)
	return m
}

// Advance steps the world one year: new cycle position, technology drift,
// inequality walk, and the mobility recomputation that follows from it.
func (m *Model) Advance(r rng.Source) {
	m.Year++
	elapsed := float64(m.Year - m.BaseYear)

	cycle := math.Sin(elapsed/m.world.CyclePeriodYears*2*math.Pi) * m.world.CycleAmplitude
	cycle += r.Normal(0, m.world.CycleNoiseStd)
	m.EconomicCycle = clamp(cycle, -1, 1)

	growth := r.Normal(m.world.TechDriftMean, m.world.TechDriftStd)
	if growth < 0 {
		growth = 0
	}
	m.Technology = math.Min(1, m.Technology+growth)

	drift := r.Normal(m.Technology*m.world.InequalityTechCoupling, m.world.InequalityNoiseStd)
	m.Inequality = clamp(m.Inequality+drift, 0, 1)

	m.SocialMobility = m.mobilityFrom(m.Inequality)
}

// AdvanceTo fast-forwards the world to the given year. Used at run start so
// a late birth cohort inherits the accumulated drift since the base year.
func (m *Model) AdvanceTo(year int, r rng.Source) {
	for m.Year < year {
		m.Advance(r)
	}
}

func (m *Model) mobilityFrom(inequality float64) float64 {
	return math.Max(m.world.MobilityFloor, 1-inequality)
}

// KondratievPhase returns the position in the long wave, in [0,1).
func (m *Model) KondratievPhase() float64 {
	period := m.world.KondratievPeriodYears
	return float64((m.Year-m.BaseYear)%period) / float64(period)
}

// KondratievEffect returns the long-wave multiplier for the current year.
// Four phases of equal length: recovery 1.0-1.2, expansion 1.2-1.5,
// stagnation 1.0-0.8, recession 0.8-0.5.
func (m *Model) KondratievEffect() float64 {
	phase := m.KondratievPhase()
	switch {
	case phase < 0.25:
		return 1.0 + (phase/0.25)*0.2
	case phase < 0.5:
		return 1.2 + ((phase-0.25)/0.25)*0.3
	case phase < 0.75:
		return 1.0 - ((phase-0.5)/0.25)*0.2
	default:
		return 0.8 - ((phase-0.75)/0.25)*0.3
	}
}

// EconomicClimate rescales the cycle to [0,1] for income formulas.
func (m *Model) EconomicClimate() float64 {
	return (m.EconomicCycle + 1) / 2
}

// PersonScore computes the composite standing score. The birth weight grows
// with inequality, and the weights intentionally sum above one: the score is
// an amplifier input, not a probability.
func (m *Model) PersonScore(birthClass, education, skillDepth, socialCapital, wealth float64) float64 {
	norm := math.Min(1, math.Log10(math.Max(1, wealth/m.score.WealthNormScale)+1)/m.score.WealthNormDivisor)
	birthWeight := m.score.BirthBaseWeight + m.Inequality*m.score.BirthInequalityWeight
	return birthClass*birthWeight +
		education*m.score.EducationWeight +
		skillDepth*m.score.SkillWeight +
		socialCapital*m.score.SocialWeight +
		norm*m.score.WealthWeight
}

// Elite reports whether the score clears the Pareto threshold.
func (m *Model) Elite(score float64) bool {
	return score >= m.pareto.EliteScoreThreshold
}

func (m *Model) eliteScale() float64 {
	return 1 + m.Inequality*m.pareto.EliteInequalityGain
}

func (m *Model) massScale() float64 {
	return 1 - m.Inequality*m.pareto.MassInequalityDrag
}

// WealthMultiplier returns the asymmetric wealth-accumulation multiplier.
// The elite branch strictly dominates the mass branch for every valid
// inequality level.
func (m *Model) WealthMultiplier(score float64) float64 {
	if m.Elite(score) {
		return m.pareto.EliteWealthBase * m.eliteScale()
	}
	return m.pareto.MassWealthBase * m.massScale()
}

// OpportunityMultiplier returns the asymmetric opportunity-access multiplier.
func (m *Model) OpportunityMultiplier(score float64) float64 {
	if m.Elite(score) {
		return m.pareto.EliteWealthBase * m.eliteScale()
	}
	return m.pareto.MassWealthBase * m.massScale()
}

// TechBenefitMultiplier returns the asymmetric technology-benefit multiplier.
func (m *Model) TechBenefitMultiplier(score float64) float64 {
	if m.Elite(score) {
		return (1 + m.Technology*m.pareto.EliteTechGain) * m.eliteScale()
	}
	return (m.pareto.MassTechBase + m.Technology*m.pareto.MassTechGain) * m.massScale()
}

// SocialMobilityChance returns the probability of an upward class move this
// year. Low scores are hard-capped regardless of world mobility, and elites
// get a flat retention chance instead of the tiered table.
func (m *Model) SocialMobilityChance(score float64) float64 {
	if m.Elite(score) {
		return m.chance.EliteRetention
	}
	switch {
	case score < m.chance.LowScore:
		return m.SocialMobility * m.chance.LowFactor
	case score < m.chance.MidScore:
		return m.SocialMobility * m.chance.MidFactor
	default:
		return m.chance.HighChance
	}
}

func clamp(v, low, high float64) float64 {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
