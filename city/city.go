// Package city implements the local layer of the cascade: tiered income
// and living-cost multipliers, per-action city modifiers, and the registry
// a move action draws its destination from. A move rebinds the whole City
// reference; local parameters never blend between cities.
package city

import (
	"fmt"

	"github.com/lchant/loom/config"
	"github.com/lchant/loom/person"
)

// UnknownCityError is the typed rejection for a move naming a city the
// registry does not hold. The caller may retry with a different name.
type UnknownCityError struct {
	Name string
}

func (e *UnknownCityError) Error() string {
	return fmt.Sprintf("unknown city %q", e.Name)
}

// City is one immutable local parameter set with its tier multipliers
// resolved at construction.
type City struct {
	Config config.CityConfig

	IncomeMult  float64 // income-ceiling tier factor
	CostMult    float64 // living-cost tier factor
	MobilityAdj float64 // additive move-success adjustment

	modifiers config.CityModifiersConfig
}

// Name returns the city identifier.
func (c *City) Name() string {
	return c.Config.Name
}

// TierOne reports whether elite competition marks this as a first-tier city.
func (c *City) TierOne() bool {
	return c.Config.EliteCompetition >= c.modifiers.TierOneCompetition
}

// HighVariance reports whether risk success in this city draws a volatile base.
func (c *City) HighVariance() bool {
	return c.Config.HighVariance
}

// RiskRewardFor returns the city risk/reward multiplier, degraded past the
// city's age penalty threshold.
func (c *City) RiskRewardFor(age int) float64 {
	rr := c.Config.RiskReward * (1 + c.Config.MarketFreedomDelta)
	if age > c.Config.AgePenaltyThreshold {
		rr *= c.modifiers.AgePenaltyFactor
	}
	return rr
}

// ApplyModifiers is the city step of the cascade: the per-action local
// factor on the effect's gains, the income tier on economic gains of the
// earning actions, and the living-cost dampener on wealth gains.
func (c *City) ApplyModifiers(e *person.Effect, a person.Action, age int) {
	switch a {
	case person.ActionStudy:
		if c.Config.PolicyBonus > c.modifiers.StudyBonusThreshold {
			e.AmplifyGains(1 + c.Config.PolicyBonus*c.modifiers.StudyBonusGain)
		}
	case person.ActionWork:
		e.AmplifyGains(1 + c.Config.PolicyBonus*c.modifiers.WorkBonusGain)
		e.AmplifyClass(person.ClassEconomic, c.IncomeMult)
	case person.ActionRisk:
		e.AmplifyGains(c.RiskRewardFor(age))
		e.AmplifyClass(person.ClassEconomic, c.IncomeMult)
	case person.ActionRelation:
		e.AmplifyGains(1 + (1-c.Config.EliteCompetition)*c.modifiers.RelationStabilityGain)
	}
	e.AmplifyAttr(person.AttrWealth, 1-c.modifiers.CostDampening*(c.CostMult-1))
}

// Registry holds the immutable city table, shared across runs by reference.
type Registry struct {
	cities map[string]*City
	names  []string
}

// NewRegistry resolves every city's tiers and builds the registry. A tier
// name missing from the tier tables is a construction failure.
func NewRegistry(cfg *config.Config) (*Registry, error) {
	if len(cfg.Cities) == 0 {
		return nil, fmt.Errorf("city: city table is empty")
	}
	r := &Registry{cities: make(map[string]*City, len(cfg.Cities))}
	for _, cc := range cfg.Cities {
		if cc.Name == "" {
			return nil, fmt.Errorf("city: unnamed city in table")
		}
		if _, dup := r.cities[cc.Name]; dup {
			return nil, fmt.Errorf("city: duplicate city %q", cc.Name)
		}
		c, err := newCity(cc, cfg.CityTiers, cfg.CityModifiers)
		if err != nil {
			return nil, err
		}
		r.cities[cc.Name] = c
		r.names = append(r.names, cc.Name)
	}
	return r, nil
}

func newCity(cc config.CityConfig, tiers config.CityTiersConfig, mods config.CityModifiersConfig) (*City, error) {
	income, ok := tiers.Income[cc.IncomeTier]
	if !ok {
		return nil, fmt.Errorf("city %q: unknown income tier %q", cc.Name, cc.IncomeTier)
	}
	cost, ok := tiers.Cost[cc.CostTier]
	if !ok {
		return nil, fmt.Errorf("city %q: unknown cost tier %q", cc.Name, cc.CostTier)
	}
	mobility, ok := tiers.Mobility[cc.MobilityTier]
	if !ok {
		return nil, fmt.Errorf("city %q: unknown mobility tier %q", cc.Name, cc.MobilityTier)
	}
	return &City{
		Config:      cc,
		IncomeMult:  income,
		CostMult:    cost,
		MobilityAdj: mobility,
		modifiers:   mods,
	}, nil
}

// Get returns the named city or an UnknownCityError.
func (r *Registry) Get(name string) (*City, error) {
	c, ok := r.cities[name]
	if !ok {
		return nil, &UnknownCityError{Name: name}
	}
	return c, nil
}

// Names returns the city names in table order.
func (r *Registry) Names() []string {
	return r.names
}

// Default returns the first city in the table.
func (r *Registry) Default() *City {
	return r.cities[r.names[0]]
}
