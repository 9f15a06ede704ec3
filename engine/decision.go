package engine

import (
	"math"

	"github.com/lchant/loom/config"
	"github.com/lchant/loom/person"
	"github.com/lchant/loom/rng"
)

// DecisionEngine filters actions through eligibility predicates and
// picks one per year. Rest carries no predicate, so the available set
// is never empty.
type DecisionEngine struct {
	elig config.EligibilityConfig
	dec  config.DecisionConfig
}

// NewDecisionEngine builds a decision engine from configuration.
func NewDecisionEngine(cfg *config.Config) *DecisionEngine {
	return &DecisionEngine{elig: cfg.Eligibility, dec: cfg.Decision}
}

// Eligible reports whether the action's predicate holds for the state.
// Study stays open past the age cap while education is incomplete.
func (d *DecisionEngine) Eligible(a person.Action, ps *person.State) bool {
	switch a {
	case person.ActionStudy:
		if ps.Age < d.elig.StudyMinAge || ps.Energy <= d.elig.StudyMinEnergy {
			return false
		}
		return ps.Age <= d.elig.StudyMaxAge || ps.Education < d.elig.StudyEducationCap
	case person.ActionWork:
		return ps.Age >= d.elig.WorkMinAge && ps.Health > d.elig.WorkMinHealth
	case person.ActionRest:
		return true
	case person.ActionMove:
		return ps.Age >= d.elig.MoveMinAge && ps.Age <= d.elig.MoveMaxAge &&
			ps.Energy > d.elig.MoveMinEnergy
	case person.ActionRisk:
		return ps.Age >= d.elig.RiskMinAge && ps.Age <= d.elig.RiskMaxAge &&
			ps.Energy > d.elig.RiskMinEnergy
	case person.ActionRelation:
		return ps.Loneliness > d.elig.RelationMinLoneliness ||
			ps.SocialCapital > d.elig.RelationMinSocial
	}
	return false
}

// Available returns the eligible actions in canonical order.
func (d *DecisionEngine) Available(ps *person.State) []person.Action {
	out := make([]person.Action, 0, len(person.Actions()))
	for _, a := range person.Actions() {
		if d.Eligible(a, ps) {
			out = append(out, a)
		}
	}
	return out
}

// Validate rejects a requested action whose predicate fails. Nothing is
// mutated either way.
func (d *DecisionEngine) Validate(a person.Action, ps *person.State) error {
	if d.Eligible(a, ps) {
		return nil
	}
	return &IneligibleActionError{Action: a, Age: ps.Age, Reason: d.reason(a, ps)}
}

func (d *DecisionEngine) reason(a person.Action, ps *person.State) string {
	switch a {
	case person.ActionStudy:
		if ps.Age < d.elig.StudyMinAge {
			return "below study age"
		}
		if ps.Energy <= d.elig.StudyMinEnergy {
			return "energy too low"
		}
		return "past study age with education complete"
	case person.ActionWork:
		if ps.Age < d.elig.WorkMinAge {
			return "below working age"
		}
		return "health too low"
	case person.ActionMove:
		if ps.Age < d.elig.MoveMinAge || ps.Age > d.elig.MoveMaxAge {
			return "outside moving age range"
		}
		return "energy too low"
	case person.ActionRisk:
		if ps.Age < d.elig.RiskMinAge || ps.Age > d.elig.RiskMaxAge {
			return "outside risk age range"
		}
		return "energy too low"
	case person.ActionRelation:
		return "neither lonely nor connected enough to invest"
	}
	return "unknown action"
}

// affinity weights an eligible action for auto-selection: a base rate
// plus personality pulls and the pressing state signals.
func (d *DecisionEngine) affinity(a person.Action, ps *person.State, pp person.Personality) float64 {
	switch a {
	case person.ActionStudy:
		return d.dec.StudyBase + d.dec.StudyOpenness*pp.Openness
	case person.ActionWork:
		return d.dec.WorkBase + d.dec.WorkConscientiousness*pp.Conscientiousness
	case person.ActionRest:
		fatigue := math.Max(ps.Stress, 1-ps.Energy)
		return d.dec.RestBase + d.dec.RestFatigue*fatigue
	case person.ActionMove:
		return d.dec.MoveBase + d.dec.MoveRiskPref*pp.RiskPreference +
			d.dec.MoveInstabilityBonus*(1-ps.EmploymentStability)
	case person.ActionRisk:
		return d.dec.RiskBase + d.dec.RiskPrefWeight*pp.RiskPreference
	case person.ActionRelation:
		return d.dec.RelationBase + d.dec.RelationSocialDrive*pp.SocialDrive +
			d.dec.RelationLonelinessBonus*ps.Loneliness
	}
	return 0
}

// AutoSelect draws one action from the eligible set, weighted by
// affinity. A single uniform draw keeps the stream position independent
// of how many actions happen to be eligible.
func (d *DecisionEngine) AutoSelect(ps *person.State, pp person.Personality, r rng.Source) person.Action {
	avail := d.Available(ps)
	total := 0.0
	for _, a := range avail {
		total += d.affinity(a, ps, pp)
	}
	if total <= 0 {
		return person.ActionRest
	}
	u := r.Uniform(0, total)
	for _, a := range avail {
		u -= d.affinity(a, ps, pp)
		if u < 0 {
			return a
		}
	}
	return avail[len(avail)-1]
}
