// Package engine wires the structural layers into a reproducible life
// simulation: one action per year, run through the decision and
// transition engines against the world, country, family, and city
// models.
package engine

import (
	"fmt"

	"github.com/lchant/loom/city"
	"github.com/lchant/loom/config"
	"github.com/lchant/loom/country"
	"github.com/lchant/loom/family"
	"github.com/lchant/loom/person"
	"github.com/lchant/loom/rng"
	"github.com/lchant/loom/telemetry"
	"github.com/lchant/loom/world"
)

// Choice is a scripted decision for one age. City names a move
// destination; left empty, a destination is drawn.
type Choice struct {
	Action person.Action
	City   string
}

// RunParams frames one life.
type RunParams struct {
	Profile     person.BirthProfile
	Personality person.Personality
	City        string // starting city; empty picks the table's first
	MaxAge      int    // 0 uses the configured default
	Seed        uint64
	Choices     map[int]Choice // scripted actions by age; other ages auto-select
	Source      rng.Source     // overrides Seed when set, for tests
}

// Result is a finished life.
type Result struct {
	Seed       uint64
	Snapshots  []telemetry.Snapshot
	Final      person.State
	Family     family.State
	FinalAge   int
	City       string
	Window     country.WindowState
	EliteYears int
	Died       bool // health reached zero before the terminal age
}

// Run is the mutable state of one life in progress.
type Run struct {
	Profile     person.BirthProfile
	Personality person.Personality
	State       *person.State
	Family      *family.State
	Window      *country.WindowTracker
	World       *world.Model
	City        *city.City
	Year        int

	rng rng.Source
}

// Simulator owns the immutable layers and runs lives against them. It
// is safe for concurrent use: every run carries its own mutable state.
type Simulator struct {
	cfg        *config.Config
	country    *country.Model
	cities     *city.Registry
	family     *family.Engine
	decisions  *DecisionEngine
	transition *TransitionEngine
}

// NewSimulator validates the configured tables and builds the layers.
func NewSimulator(cfg *config.Config) (*Simulator, error) {
	cm, err := country.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("country model: %w", err)
	}
	reg, err := city.NewRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("city registry: %w", err)
	}
	fam, err := family.NewEngine(cfg)
	if err != nil {
		return nil, fmt.Errorf("family engine: %w", err)
	}
	return &Simulator{
		cfg:        cfg,
		country:    cm,
		cities:     reg,
		family:     fam,
		decisions:  NewDecisionEngine(cfg),
		transition: NewTransitionEngine(cfg, cm, reg, fam),
	}, nil
}

// Decisions exposes the decision engine for callers that pre-validate
// scripted choices.
func (s *Simulator) Decisions() *DecisionEngine {
	return s.decisions
}

// Cities exposes the city registry.
func (s *Simulator) Cities() *city.Registry {
	return s.cities
}

// Run simulates one life year by year. The same params and seed always
// produce the same snapshots.
func (s *Simulator) Run(p RunParams) (*Result, error) {
	if p.Profile.BirthYear < s.cfg.Simulation.BaseYear {
		return nil, fmt.Errorf("birth year %d precedes base year %d", p.Profile.BirthYear, s.cfg.Simulation.BaseYear)
	}

	r := p.Source
	if r == nil {
		r = rng.NewSeeded(p.Seed)
	}

	start := s.cities.Default()
	if p.City != "" {
		var err error
		start, err = s.cities.Get(p.City)
		if err != nil {
			return nil, err
		}
	}

	maxAge := p.MaxAge
	if maxAge <= 0 {
		maxAge = s.cfg.Simulation.DefaultMaxAge
	}

	run := &Run{
		Profile:     p.Profile,
		Personality: p.Personality,
		State:       person.NewState(p.Profile),
		Window:      country.NewWindowTracker(s.cfg.Window),
		World:       world.New(s.cfg),
		City:        start,
		rng:         r,
	}
	familyWealth := p.Profile.FamilyClass * s.cfg.Family.BaseWealthScale
	run.Family = s.family.Generate(p.Profile.BirthYear, familyWealth, p.Profile.Urban(), r)
	s.family.ShapePersonality(&run.Personality, run.Family)

	res := &Result{Seed: p.Seed, Snapshots: make([]telemetry.Snapshot, 0, maxAge)}

	startAge := s.cfg.Simulation.StartAge
	run.World.AdvanceTo(p.Profile.BirthYear+startAge, r)

	for age := startAge; age <= maxAge; age++ {
		run.State.Age = age
		run.Year = p.Profile.BirthYear + age
		if age > startAge {
			run.World.Advance(r)
		}

		era := s.country.Resolve(run.Year)
		run.Window.Observe(era.Window)

		choice, scripted := p.Choices[age]
		if scripted {
			if err := s.decisions.Validate(choice.Action, run.State); err != nil {
				return nil, fmt.Errorf("age %d: %w", age, err)
			}
		} else {
			choice = Choice{Action: s.decisions.AutoSelect(run.State, run.Personality, r)}
		}

		out, err := s.transition.Apply(run, choice)
		if err != nil {
			return nil, fmt.Errorf("age %d: %w", age, err)
		}

		s.transition.ApplyNaturalAging(run.State)

		competition := s.family.CompetitionIntensity(run.Family, run.City.TierOne(), run.Year)
		s.family.ApplyYearlyEffects(run.State, run.Family, competition)
		s.family.UpdateCaregiverBurden(run.Family, age, run.State.Flags.Has(person.FlagMidlifeApplied))

		s.applyProperty(run)
		s.applyClassRoll(run, out.Score)

		if run.State.Flags.Has(person.FlagElite) {
			res.EliteYears++
		}
		res.Snapshots = append(res.Snapshots, s.snapshot(run, era.Name, out, competition))

		if !run.State.Alive() {
			res.Died = true
			break
		}
	}

	res.Final = *run.State
	res.Family = *run.Family
	res.FinalAge = run.State.Age
	res.City = run.City.Name()
	res.Window = run.Window.State()
	return res, nil
}

// applyProperty appreciates held property with the economic cycle and
// latches a one-way purchase when age and wealth qualify. The local
// cost tier sets the bar.
func (s *Simulator) applyProperty(run *Run) {
	pc := s.cfg.Property
	ps := run.State

	if ps.Flags.Has(person.FlagPropertyOwner) {
		ps.PropertyValue *= 1 + pc.AppreciationBase*run.World.EconomicCycle
		if ps.PropertyValue < 0 {
			ps.PropertyValue = 0
		}
		return
	}
	if ps.Age < pc.MinAge || ps.Age > pc.MaxAge {
		return
	}
	if ps.Wealth < pc.WealthThreshold*run.City.CostMult {
		return
	}

	stake := ps.Wealth * pc.ConversionRatio
	ps.Wealth -= stake
	ps.PropertyValue = stake
	ps.Flags = ps.Flags.Set(person.FlagPropertyOwner)
}

// applyClassRoll updates the elite flag with exactly one draw a year. A
// breakthrough roll is gated by the mobility chance and the window
// factor: qualified and lucky ascends, unqualified and unlucky falls.
func (s *Simulator) applyClassRoll(run *Run, score float64) {
	chance := run.World.SocialMobilityChance(score)
	p := person.Clamp01(chance * run.Window.MobilityFactor())
	lucky := run.rng.Bool(p)
	qualified := run.World.Elite(score)
	switch {
	case lucky && qualified:
		run.State.Flags = run.State.Flags.Set(person.FlagElite)
	case !lucky && !qualified:
		run.State.Flags = run.State.Flags.Clear(person.FlagElite)
	}
}

func (s *Simulator) snapshot(run *Run, era string, out Outcome, competition float64) telemetry.Snapshot {
	ps := run.State
	success := ""
	if out.Branched {
		success = "failure"
		if out.Success {
			success = "success"
		}
	}
	return telemetry.Snapshot{
		Year: run.Year,
		Age:  ps.Age,

		Health:       ps.Health,
		MentalHealth: ps.MentalHealth,
		Energy:       ps.Energy,
		Stress:       ps.Stress,

		Education:       ps.Education,
		SkillDepth:      ps.SkillDepth,
		SkillBreadth:    ps.SkillBreadth,
		LearningAbility: ps.LearningAbility,

		Income:        ps.Income,
		Wealth:        ps.Wealth,
		PropertyValue: ps.PropertyValue,

		Occupation:          ps.Occupation,
		EmploymentStability: ps.EmploymentStability,
		SocialCapital:       ps.SocialCapital,
		Loneliness:          ps.Loneliness,

		Era:          era,
		City:         run.City.Name(),
		WindowStatus: run.Window.State().String(),

		Action:        out.Action.String(),
		ActionSuccess: success,

		Siblings:        run.Family.Siblings,
		OnlyChild:       run.Family.OnlyChild,
		CaregiverBurden: run.Family.CaregiverBurden,
		Competition:     competition,

		Score:               out.Score,
		Elite:               ps.Flags.Has(person.FlagElite),
		PropertyOwner:       ps.Flags.Has(person.FlagPropertyOwner),
		KondratievEffect:    run.World.KondratievEffect(),
		EffectiveMobility:   s.country.EffectiveSocialMobility(run.World.SocialMobility, run.Year, run.Window),
		EffectiveInequality: s.country.EffectiveInequality(run.World.Inequality, run.Year),
	}
}
