package engine

import (
	"github.com/lchant/loom/city"
	"github.com/lchant/loom/config"
	"github.com/lchant/loom/country"
	"github.com/lchant/loom/family"
	"github.com/lchant/loom/person"
	"github.com/lchant/loom/rng"
)

// baseNoiseStd jitters base effect magnitudes, a gaussian factor
// centred on 1.
const baseNoiseStd = 0.1

// Success probabilities stay inside these bounds so no branch is ever
// certain either way.
const (
	minSuccessProb = 0.05
	maxSuccessProb = 0.95
)

const (
	occupationStudent = "student"
	occupationWorker  = "worker"
)

// TransitionEngine owns the yearly effect cascade: a base action effect
// layered with world, country, family, and city multipliers, an
// optional stochastic branch, and one clamped mutation at the end.
type TransitionEngine struct {
	actions  config.ActionsConfig
	elig     config.EligibilityConfig
	pareto   config.ParetoConfig
	aging    config.AgingConfig
	property config.PropertyConfig

	country *country.Model
	cities  *city.Registry
	family  *family.Engine
}

// NewTransitionEngine builds the engine on top of the structural layers.
func NewTransitionEngine(cfg *config.Config, cm *country.Model, reg *city.Registry, fam *family.Engine) *TransitionEngine {
	return &TransitionEngine{
		actions:  cfg.Actions,
		elig:     cfg.Eligibility,
		pareto:   cfg.Pareto,
		aging:    cfg.Aging,
		property: cfg.Property,
		country:  cm,
		cities:   reg,
		family:   fam,
	}
}

// Outcome describes what an applied action did beyond the state mutation.
type Outcome struct {
	Action   person.Action
	Score    float64 // composite score behind the structural multipliers
	Branched bool    // move and risk resolve a success draw
	Success  bool    // valid only when Branched
	MovedTo  string  // destination city name on a move
	Captured bool    // the action captured the open window this year
}

// multipliers are the structural amplifiers resolved once per year.
// They scale gain deltas only; costs always pass through.
type multipliers struct {
	kondratiev  float64 // long-wave phase, economic gains
	wealth      float64 // asymmetric wealth amplifier, economic gains
	tech        float64 // technology benefit, human-capital gains
	social      float64 // opportunity clamped to the configured band
	opportunity float64 // raw opportunity, feeds success probabilities
	country     float64 // era action modifier, all gains
	study       float64 // family study amplifier, identity elsewhere
}

func (t *TransitionEngine) resolveMultipliers(run *Run, a person.Action, score float64) multipliers {
	m := multipliers{
		kondratiev:  run.World.KondratievEffect(),
		wealth:      run.World.WealthMultiplier(score),
		tech:        run.World.TechBenefitMultiplier(score),
		opportunity: run.World.OpportunityMultiplier(score),
		country:     t.country.ActionModifier(run.Year, a, run.Window.State()),
		study:       1,
	}
	m.social = clampRange(m.opportunity, t.pareto.OpportunityBandLow, t.pareto.OpportunityBandHigh)
	if a == person.ActionStudy {
		m.study = t.family.StudyBoost(run.Family)
	}
	return m
}

// amplify layers the structural multipliers onto an effect in cascade
// order, the local city last.
func (t *TransitionEngine) amplify(e *person.Effect, m multipliers, cty *city.City, a person.Action, age int) {
	e.AmplifyClass(person.ClassEconomic, m.kondratiev)
	e.AmplifyClass(person.ClassEconomic, m.wealth)
	e.AmplifyClass(person.ClassHuman, m.tech)
	e.AmplifyClass(person.ClassSocial, m.social)
	e.AmplifyGains(m.country)
	if m.study != 1 {
		e.AmplifyAttr(person.AttrEducation, m.study)
	}
	cty.ApplyModifiers(e, a, age)
}

// Apply runs one action through the cascade and mutates the person
// exactly once. Branching actions draw their success after the
// multipliers are resolved, and the branch deltas pass through the same
// chain as the base effect.
func (t *TransitionEngine) Apply(run *Run, choice Choice) (Outcome, error) {
	ps := run.State
	out := Outcome{Action: choice.Action}

	// Resolve a move destination up front so an unknown city rejects
	// the whole action before anything mutates.
	var dest *city.City
	if choice.Action == person.ActionMove {
		var err error
		dest, err = t.moveDestination(run, choice.City)
		if err != nil {
			return out, err
		}
	}

	score := run.World.PersonScore(run.Profile.FamilyClass, ps.Education, ps.SkillDepth, ps.SocialCapital, ps.Wealth)
	out.Score = score
	m := t.resolveMultipliers(run, choice.Action, score)

	// A move resolves in the destination: its modifiers shape the
	// arrival year and its tier feeds the success odds.
	cty := run.City
	if dest != nil {
		cty = dest
	}

	eff := t.baseEffect(run, choice.Action)
	t.amplify(eff, m, cty, choice.Action, ps.Age)

	switch choice.Action {
	case person.ActionMove:
		out.Branched = true
		out.Success = run.rng.Bool(t.moveSuccessProb(run, dest, m.opportunity))
		br := t.moveBranch(out.Success)
		t.amplify(br, m, cty, choice.Action, ps.Age)
		eff.Append(br.Deltas...)
		run.City = dest
		out.MovedTo = dest.Name()
	case person.ActionRisk:
		out.Branched = true
		out.Success = run.rng.Bool(t.riskSuccessProb(run, m.opportunity))
		br := t.riskBranch(ps, out.Success)
		t.amplify(br, m, cty, choice.Action, ps.Age)
		eff.Append(br.Deltas...)
	}

	eff.ApplyTo(ps)
	t.applyEraAmbient(run, choice.Action)

	switch choice.Action {
	case person.ActionStudy:
		ps.Occupation = occupationStudent
	case person.ActionWork:
		ps.Occupation = occupationWorker
		ps.Flags = ps.Flags.Set(person.FlagEverWorked)
	}

	if choice.Action == person.ActionMove || choice.Action == person.ActionRisk {
		out.Captured = run.Window.RecordQualifyingAction(ps.Education, ps.SkillDepth)
	}
	return out, nil
}

func (t *TransitionEngine) baseEffect(run *Run, a person.Action) *person.Effect {
	switch a {
	case person.ActionStudy:
		return t.studyEffect(run)
	case person.ActionWork:
		return t.workEffect(run)
	case person.ActionRest:
		return t.restEffect(run)
	case person.ActionMove:
		return t.moveEffect()
	case person.ActionRisk:
		return t.riskEffect()
	case person.ActionRelation:
		return t.relationEffect(run)
	}
	return person.NewEffect()
}

// studyEffect grows education and skills from learning ability, lifted
// by the technology level. An adult who studies forgoes income.
func (t *TransitionEngine) studyEffect(run *Run) *person.Effect {
	sc := t.actions.Study
	ps := run.State

	gain := ps.LearningAbility * (sc.TechFloor + sc.TechGain*run.World.Technology) * sc.GainRate
	gain *= noiseFactor(run.rng)
	if gain < 0 {
		gain = 0
	}

	eff := person.NewEffect(
		person.Gain(person.AttrEducation, gain),
		person.Gain(person.AttrSkillDepth, gain*sc.DepthRatio),
		person.Gain(person.AttrSkillBreadth, gain*sc.BreadthRatio),
		person.Add(person.AttrEnergy, -sc.EnergyCost),
		person.Add(person.AttrStress, sc.StressCost),
	)
	if ps.Age >= t.elig.WorkMinAge {
		eff.Append(person.Scale(person.AttrIncome, sc.AdultIncomeScale))
	}
	return eff
}

// workEffect decays income toward a retention floor and exposes only
// the raise above it to the multipliers, so structure amplifies the
// year's improvement rather than the whole salary.
func (t *TransitionEngine) workEffect(run *Run) *person.Effect {
	wc := t.actions.Work
	ps := run.State

	skill := ps.SkillDepth*wc.DepthMix + ps.SkillBreadth*wc.BreadthMix
	base := (skill*wc.SkillWeight + ps.Education*wc.EducationWeight +
		run.World.EconomicClimate()*wc.EconomyWeight) * wc.IncomeScale
	offer := base * run.rng.Normal(1, wc.IncomeNoiseStd)

	floor := ps.Income * wc.IncomeRetention
	raise := offer - floor
	if raise < 0 {
		raise = 0
	}

	eff := person.NewEffect(
		person.Scale(person.AttrIncome, wc.IncomeRetention),
		person.Gain(person.AttrIncome, raise),
	)

	expected := floor + raise
	savings := expected * wc.SavingsRate
	if ps.Flags.Has(person.FlagPropertyOwner) {
		savings *= 1 + t.property.SupportBonus
	}
	savings += expected * wc.SupportRate * run.Family.Support
	eff.Append(person.Gain(person.AttrWealth, savings))

	if run.Personality.Conscientiousness > wc.DiligenceThreshold {
		eff.Append(
			person.Gain(person.AttrEmploymentStability, wc.StabilityGain),
			person.Gain(person.AttrSkillDepth, wc.DepthGain),
		)
	}

	eff.Append(
		person.Add(person.AttrEnergy, -wc.EnergyCost),
		person.Add(person.AttrStress, wc.StressCost),
	)
	if ps.Stress > wc.OverworkStress {
		eff.Append(person.Add(person.AttrHealth, -wc.OverworkHealthCost))
	}
	return eff
}

// restEffect recovers the vital fields, stronger with resilience, at
// the cost of an income slide.
func (t *TransitionEngine) restEffect(run *Run) *person.Effect {
	rc := t.actions.Rest

	rec := rc.RecoveryRate * (1 + run.Personality.Resilience) * noiseFactor(run.rng)
	if rec < 0 {
		rec = 0
	}

	return person.NewEffect(
		person.Gain(person.AttrEnergy, rec),
		person.Add(person.AttrStress, -rec*rc.StressReliefRatio),
		person.Gain(person.AttrHealth, rec*rc.HealthRatio),
		person.Gain(person.AttrMentalHealth, rec*rc.MentalRatio),
		person.Scale(person.AttrIncome, rc.IncomeScale),
	)
}

// moveEffect carries the unconditional relocation costs. The payoff
// lands in the branch.
func (t *TransitionEngine) moveEffect() *person.Effect {
	mc := t.actions.Move
	return person.NewEffect(
		person.Add(person.AttrWealth, -mc.WealthCost),
		person.Add(person.AttrEnergy, -mc.EnergyCost),
		person.Add(person.AttrStress, mc.StressCost),
	)
}

func (t *TransitionEngine) moveBranch(success bool) *person.Effect {
	mc := t.actions.Move
	if success {
		return person.NewEffect(
			person.Gain(person.AttrEmploymentStability, mc.StabilityGain),
			person.ScaleGain(person.AttrIncome, mc.IncomeBoost),
			person.Gain(person.AttrSocialCapital, mc.SocialGain),
		)
	}
	return person.NewEffect(
		person.Add(person.AttrEmploymentStability, -mc.StabilityLoss),
		person.Scale(person.AttrIncome, mc.IncomeDrop),
		person.Add(person.AttrStress, mc.FailStress),
	)
}

// riskEffect carries the unconditional venture costs.
func (t *TransitionEngine) riskEffect() *person.Effect {
	rc := t.actions.Risk
	return person.NewEffect(
		person.Add(person.AttrEnergy, -rc.EnergyCost),
		person.Add(person.AttrStress, rc.StressCost),
	)
}

func (t *TransitionEngine) riskBranch(ps *person.State, success bool) *person.Effect {
	rc := t.actions.Risk
	if success {
		payout := rc.PayoutBase + ps.Wealth*rc.PayoutWealthRatio
		if payout < 0 {
			payout = 0
		}
		return person.NewEffect(
			person.Gain(person.AttrWealth, payout),
			person.ScaleGain(person.AttrIncome, rc.IncomeBoost),
			person.Gain(person.AttrSocialCapital, rc.SocialGain),
		)
	}
	loss := ps.Wealth * rc.LossRatio
	if loss < 0 {
		loss = 0 // debt is not compounded by a failed venture
	}
	return person.NewEffect(
		person.Add(person.AttrWealth, -loss),
		person.Add(person.AttrStress, rc.FailStress),
		person.Add(person.AttrEmploymentStability, -rc.StabilityLoss),
	)
}

// relationEffect builds social capital, paced by social drive, and
// relieves loneliness in proportion.
func (t *TransitionEngine) relationEffect(run *Run) *person.Effect {
	rc := t.actions.Relation

	gain := rc.GainRate * (1 + run.Personality.SocialDrive) * noiseFactor(run.rng)
	if gain < 0 {
		gain = 0
	}

	return person.NewEffect(
		person.Gain(person.AttrSocialCapital, gain),
		person.Add(person.AttrLoneliness, -gain*rc.LonelinessReliefRatio),
		person.Gain(person.AttrMentalHealth, gain*rc.MentalRatio),
		person.Add(person.AttrEnergy, -rc.EnergyCost),
		person.Add(person.AttrWealth, -rc.WealthCost),
	)
}

// moveSuccessProb gives the odds of a move paying off: a base lifted by
// an open window, adjusted by the destination's mobility tier, then
// scaled by the person's opportunity standing.
func (t *TransitionEngine) moveSuccessProb(run *Run, dest *city.City, opportunity float64) float64 {
	mc := t.actions.Move
	base := mc.BaseSuccess
	if run.Window.State() == country.WindowOpen {
		base = mc.WindowSuccess
	}
	base += dest.MobilityAdj
	p := base * (t.pareto.SuccessProbBase + t.pareto.SuccessProbGain*opportunity)
	return clampRange(p, minSuccessProb, maxSuccessProb)
}

// riskSuccessProb gives the odds of a venture succeeding. High-variance
// cities redraw the base every attempt.
func (t *TransitionEngine) riskSuccessProb(run *Run, opportunity float64) float64 {
	rc := t.actions.Risk
	base := rc.BaseSuccess
	if run.City.HighVariance() {
		base = rc.VarianceLow + run.rng.Uniform(0, rc.VarianceSpan)
	}
	if run.Window.State() == country.WindowOpen {
		base *= rc.WindowBonus
	}
	p := base * (t.pareto.SuccessProbBase + t.pareto.SuccessProbGain*opportunity)
	return clampRange(p, minSuccessProb, maxSuccessProb)
}

// moveDestination resolves an explicit destination or draws one from
// the other cities in table order.
func (t *TransitionEngine) moveDestination(run *Run, name string) (*city.City, error) {
	if name != "" {
		return t.cities.Get(name)
	}
	candidates := make([]string, 0, len(t.cities.Names()))
	for _, n := range t.cities.Names() {
		if n != run.City.Name() {
			candidates = append(candidates, n)
		}
	}
	if len(candidates) == 0 {
		return run.City, nil
	}
	return t.cities.Get(candidates[run.rng.IntN(len(candidates))])
}

// applyEraAmbient charges the era's background tolls: a health cost for
// working through a disruption and a yearly mental drag where one is set.
func (t *TransitionEngine) applyEraAmbient(run *Run, a person.Action) {
	era := t.country.Resolve(run.Year)
	if era.HealthExposure > 0 && a == person.ActionWork {
		run.State.Health -= era.HealthExposure
	}
	if era.MentalLoad > 0 {
		run.State.MentalHealth -= era.MentalLoad
	}
	run.State.Clamp()
}

// ApplyNaturalAging applies the deterministic wear of one year: health
// decline past the decay age, steeper senior decline, slow cognitive
// fade, and a stress drift up to the mid ceiling.
func (t *TransitionEngine) ApplyNaturalAging(ps *person.State) {
	ag := t.aging
	if ps.Age > ag.HealthDecayAge {
		ps.Health -= float64(ps.Age-ag.HealthDecayAge) * ag.HealthDecayRate
	}
	if ps.Age > ag.SeniorAge {
		ps.Health -= ag.SeniorHealthDecay
		ps.Energy -= ag.SeniorEnergyDecay
	}
	if ps.Age > ag.CognitiveDecayAge {
		ps.LearningAbility *= ag.LearningRetention
		ps.SkillDepth *= ag.SkillRetention
	}
	if ps.Stress < ag.StressDriftCeiling {
		ps.Stress += ag.StressDrift
	}
	ps.Clamp()
}

func noiseFactor(r rng.Source) float64 {
	return r.Normal(1, baseNoiseStd)
}

func clampRange(v, low, high float64) float64 {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
