// Package country implements the era state machine layered over the base
// world: an ordered, gap-free table of policy segments resolved by year,
// per-action era modifiers, and the per-person opportunity window whose
// miss or capture permanently rescales mobility.
package country

import (
	"fmt"
	"sort"

	"github.com/lchant/loom/config"
	"github.com/lchant/loom/person"
)

// Model resolves years to era policies and applies era-level modifiers.
// The era table is immutable after construction and safe to share across
// runs by reference.
type Model struct {
	eras   []config.EraConfig
	window config.WindowConfig
}

// New validates the era table and builds the model. Table problems are
// construction failures, never patched at resolve time.
func New(cfg *config.Config) (*Model, error) {
	eras := cfg.Eras
	if len(eras) == 0 {
		return nil, fmt.Errorf("country: era table is empty")
	}
	seen := make(map[string]bool, len(eras))
	for i, era := range eras {
		if era.Name == "" {
			return nil, fmt.Errorf("country: eras[%d] has no name", i)
		}
		if seen[era.Name] {
			return nil, fmt.Errorf("country: duplicate era %q", era.Name)
		}
		seen[era.Name] = true

		last := i == len(eras)-1
		if !last && era.EndYear <= era.StartYear {
			return nil, fmt.Errorf("country: era %q has end year %d before start %d", era.Name, era.EndYear, era.StartYear)
		}
		if last && era.EndYear != 0 && era.EndYear <= era.StartYear {
			return nil, fmt.Errorf("country: era %q has end year %d before start %d", era.Name, era.EndYear, era.StartYear)
		}
		if i > 0 && era.StartYear != eras[i-1].EndYear {
			return nil, fmt.Errorf("country: era %q starts at %d, previous ends at %d", era.Name, era.StartYear, eras[i-1].EndYear)
		}
	}
	return &Model{eras: eras, window: cfg.Window}, nil
}

// Resolve returns the era policy containing year. Years past the final
// segment clamp to the ongoing era; years before the first clamp to it.
func (m *Model) Resolve(year int) config.EraConfig {
	return m.eras[m.ResolveIndex(year)]
}

// ResolveIndex returns the index of the era containing year.
func (m *Model) ResolveIndex(year int) int {
	i := sort.Search(len(m.eras), func(i int) bool {
		return m.eras[i].StartYear > year
	})
	if i == 0 {
		return 0
	}
	return i - 1
}

// WindowEligible reports whether the era containing year declares a window.
func (m *Model) WindowEligible(year int) bool {
	return m.Resolve(year).Window
}

// ActionModifier returns the era-level multiplier for an action's gains.
// Study rides the education return, risk rides the era risk/reward, work
// rides market freedom, and a missed window permanently taxes the two
// mobility actions.
func (m *Model) ActionModifier(year int, a person.Action, win WindowState) float64 {
	era := m.Resolve(year)
	mod := 1.0
	switch a {
	case person.ActionStudy:
		mod *= era.EducationReturn * (1 - era.StudyShock)
	case person.ActionWork:
		mod *= 0.5 + era.MarketFreedom
	case person.ActionRisk:
		mod *= era.RiskReward * (1 - era.RiskPenalty)
	}
	if win == WindowMissed && (a == person.ActionRisk || a == person.ActionMove) {
		mod *= m.window.MissPenalty
	}
	return mod
}

// EffectiveSocialMobility combines base-world mobility, the era's mobility
// factor, and the person's permanent window factor.
func (m *Model) EffectiveSocialMobility(base float64, year int, win *WindowTracker) float64 {
	return person.Clamp01(base * m.Resolve(year).Mobility * win.MobilityFactor())
}

// EffectiveInequality blends base-world inequality with the era baseline.
// Reporting context only; the Pareto split reads the base world directly.
func (m *Model) EffectiveInequality(base float64, year int) float64 {
	return person.Clamp01((base + m.Resolve(year).Inequality) / 2)
}
