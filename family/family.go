// Package family implements the demographic policy engine: fertility policy
// periods keyed on birth year, family structure generation, the only-child
// effect bundle with its one-time midlife penalty, and the caregiver burden
// that re-derives from parent age every year.
package family

import (
	"fmt"
	"math"
	"sort"

	"github.com/lchant/loom/config"
	"github.com/lchant/loom/person"
	"github.com/lchant/loom/rng"
)

// State is one person's family structure. Generated once at birth;
// caregiver burden is the only field recomputed as the run advances.
type State struct {
	Siblings         int
	OnlyChild        bool
	ParentalPressure float64
	Support          float64 // intergenerational support
	CaregiverBurden  float64
	WealthShare      float64
	PolicyPeriod     string
}

// Engine resolves fertility policy periods and applies family effects.
// Immutable after construction, shareable across runs by reference.
type Engine struct {
	periods []config.FertilityConfig
	family  config.FamilyConfig
	genGap  int
	elder   int
}

// NewEngine validates the policy period table and builds the engine.
// The table follows the same half-open, gap-free interval rules as eras.
func NewEngine(cfg *config.Config) (*Engine, error) {
	periods := cfg.Fertility
	if len(periods) == 0 {
		return nil, fmt.Errorf("family: policy period table is empty")
	}
	for i, p := range periods {
		if p.Name == "" {
			return nil, fmt.Errorf("family: periods[%d] has no name", i)
		}
		last := i == len(periods)-1
		if !last && p.EndYear <= p.StartYear {
			return nil, fmt.Errorf("family: period %q has end year %d before start %d", p.Name, p.EndYear, p.StartYear)
		}
		if i > 0 && p.StartYear != periods[i-1].EndYear {
			return nil, fmt.Errorf("family: period %q starts at %d, previous ends at %d", p.Name, p.StartYear, periods[i-1].EndYear)
		}
	}
	return &Engine{
		periods: periods,
		family:  cfg.Family,
		genGap:  cfg.Simulation.GenerationGap,
		elder:   cfg.Simulation.ElderThreshold,
	}, nil
}

// ResolvePeriod returns the policy period containing the birth year,
// clamping outside years to the nearest period.
func (e *Engine) ResolvePeriod(birthYear int) config.FertilityConfig {
	i := sort.Search(len(e.periods), func(i int) bool {
		return e.periods[i].StartYear > birthYear
	})
	if i == 0 {
		return e.periods[0]
	}
	return e.periods[i-1]
}

// Generate draws a family structure for the birth year. Strict periods pin
// sibling counts near the cap through the only-child roll; weak periods draw
// from a gaussian around the cap.
func (e *Engine) Generate(birthYear int, familyWealth float64, urban bool, r rng.Source) *State {
	period := e.ResolvePeriod(birthYear)

	onlyProb := period.OnlyChildProb
	if urban {
		onlyProb = math.Min(1, onlyProb+e.family.UrbanOnlyChildBonus)
	}

	var siblings int
	if period.Enforcement > 0.5 {
		switch {
		case r.Bool(onlyProb):
			siblings = 0
		case period.FertilityCap < 1.5:
			siblings = r.IntN(2)
		default:
			siblings = r.IntN(3)
		}
	} else {
		siblings = int(r.Normal(period.FertilityCap, e.family.SiblingSigma))
		if siblings < 0 {
			siblings = 0
		}
		if siblings > e.family.MaxSiblings {
			siblings = e.family.MaxSiblings
		}
	}

	st := &State{
		Siblings:     siblings,
		OnlyChild:    siblings == 0,
		WealthShare:  familyWealth / (float64(siblings) + e.family.WealthShareOffset),
		PolicyPeriod: period.Name,
	}
	if st.OnlyChild {
		st.ParentalPressure = e.family.OnlyChildPressureBase + r.Uniform(0, e.family.OnlyChildPressureSpan)
		st.Support = e.family.OnlyChildSupportBase + r.Uniform(0, e.family.OnlyChildSupportSpan)
	} else {
		st.ParentalPressure = e.family.SiblingPressureBase + r.Uniform(0, e.family.SiblingPressureSpan)
		st.Support = e.family.SiblingSupportBase + r.Uniform(0, e.family.SiblingSupportSpan)
	}
	return st
}

// ShapePersonality applies the one-time only-child personality adjustment
// at birth. No-op for persons with siblings.
func (e *Engine) ShapePersonality(p *person.Personality, fs *State) {
	if !fs.OnlyChild {
		return
	}
	p.Conscientiousness = math.Min(1, p.Conscientiousness+0.1)
	p.SocialDrive = math.Max(0, p.SocialDrive-0.1)
	p.Resilience = math.Max(0, p.Resilience-0.1)
}

// StudyBoost returns the education investment multiplier: concentrated
// parental resources boost an only child's study gains.
func (e *Engine) StudyBoost(fs *State) float64 {
	if fs.OnlyChild {
		return e.family.StudyBoost
	}
	return 1
}

// ApplyYearlyEffects adds the recurring only-child costs: pressure-derived
// stress scaled by competition intensity, creeping loneliness, and the
// one-time midlife penalty after the midlife age. The penalty latches on a
// person flag, so re-simulating the same ages never stacks it.
func (e *Engine) ApplyYearlyEffects(ps *person.State, fs *State, competition float64) {
	if !fs.OnlyChild {
		return
	}
	ps.Stress += e.family.PressureStressRate * fs.ParentalPressure * (0.5 + competition)
	ps.Loneliness += e.family.LonelinessRate
	if ps.Age > e.family.MidlifeAge && !ps.Flags.Has(person.FlagMidlifeApplied) {
		ps.Stress += e.family.MidlifeStress
		ps.Flags = ps.Flags.Set(person.FlagMidlifeApplied)
	}
	ps.Clamp()
}

// UpdateCaregiverBurden re-derives the burden from parent age. Only children
// absorb the full ramp; siblings divide it by household size. The midlife
// increment rides on the latch flag, so the derivation stays idempotent.
func (e *Engine) UpdateCaregiverBurden(fs *State, age int, midlifeLatched bool) {
	parentAge := age + e.genGap
	burden := e.family.CaregiverRamp * math.Max(0, float64(parentAge-e.elder))
	if !fs.OnlyChild {
		burden /= float64(fs.Siblings + 1)
	}
	if midlifeLatched {
		burden += e.family.MidlifeBurden
	}
	fs.CaregiverBurden = math.Min(1, burden)
}

// CompetitionIntensity sums the structural competition terms: base, only
// child, tier-one city, and a strict policy period in the given year.
// All four together reach exactly 1.0.
func (e *Engine) CompetitionIntensity(fs *State, tierOne bool, year int) float64 {
	c := e.family.CompetitionBase
	if fs.OnlyChild {
		c += e.family.CompetitionOnlyChild
	}
	if tierOne {
		c += e.family.CompetitionTierOne
	}
	if e.ResolvePeriod(year).Strict {
		c += e.family.CompetitionStrictEra
	}
	return person.Clamp01(c)
}
