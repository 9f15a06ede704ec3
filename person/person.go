// Package person defines the simulated individual: the immutable birth
// circumstances, the slow-changing personality, and the mutable year-to-year
// state that actions and world forces operate on.
package person

// Region values for BirthProfile.
const (
	RegionUrban = "urban"
	RegionRural = "rural"
)

// BirthProfile captures the circumstances a person is born into.
// Created once at run start and never mutated; every layer that needs the
// birth year references this record rather than copying it.
type BirthProfile struct {
	BirthYear          int
	Region             string
	FamilyClass        float64 // [0,1] economic standing of the family
	ParentsEducation   float64 // [0,1]
	FamilyStability    float64 // [0,1]
	GeneticHealth      float64 // [0,1]
	CognitivePotential float64 // [0,1]
}

// Urban reports whether the profile is an urban birth.
func (b BirthProfile) Urban() bool {
	return b.Region == RegionUrban
}

// Personality holds the five slow-changing dispositions, each in [0,1].
// Ordinary actions never mutate these; only rare structural events
// (family shaping at birth) adjust them.
type Personality struct {
	Openness          float64
	Conscientiousness float64
	RiskPreference    float64
	SocialDrive       float64
	Resilience        float64
}

// State is the mutable per-year condition of a person. Bounded fields stay
// in [0,1] after every mutation. Wealth is signed, Income and PropertyValue
// are non-negative; all three are unbounded above.
type State struct {
	Age int

	Health       float64
	MentalHealth float64
	Energy       float64
	Stress       float64

	Education       float64
	SkillDepth      float64
	SkillBreadth    float64
	LearningAbility float64

	Income        float64
	Wealth        float64
	PropertyValue float64

	Occupation          string
	EmploymentStability float64
	SocialCapital       float64
	Loneliness          float64

	Flags Flag
}

// NewState derives the initial state from a birth profile. Stability buffers
// the stress and loneliness baselines, class seeds starting wealth, parents'
// education gives a small head start, and cognitive potential becomes the
// learning ability that study gains scale from.
func NewState(b BirthProfile) *State {
	s := &State{
		Health:          b.GeneticHealth,
		MentalHealth:    0.7 + 0.2*b.FamilyStability,
		Energy:          0.8,
		Stress:          0.2 - 0.1*b.FamilyStability,
		Education:       0.3 * b.ParentsEducation,
		LearningAbility: b.CognitivePotential,
		Wealth:          10000 * b.FamilyClass,
		SocialCapital:   0.3 * b.FamilyStability,
		Loneliness:      0.3 - 0.2*b.FamilyStability,
	}
	if b.Urban() {
		s.Flags = s.Flags.Set(FlagUrban)
	}
	s.Clamp()
	return s
}

// Value returns the current value of a mutable attribute.
func (s *State) Value(a Attr) float64 {
	switch a {
	case AttrHealth:
		return s.Health
	case AttrMentalHealth:
		return s.MentalHealth
	case AttrEnergy:
		return s.Energy
	case AttrStress:
		return s.Stress
	case AttrEducation:
		return s.Education
	case AttrSkillDepth:
		return s.SkillDepth
	case AttrSkillBreadth:
		return s.SkillBreadth
	case AttrLearningAbility:
		return s.LearningAbility
	case AttrIncome:
		return s.Income
	case AttrWealth:
		return s.Wealth
	case AttrEmploymentStability:
		return s.EmploymentStability
	case AttrSocialCapital:
		return s.SocialCapital
	case AttrLoneliness:
		return s.Loneliness
	}
	return 0
}

func (s *State) setValue(a Attr, v float64) {
	switch a {
	case AttrHealth:
		s.Health = v
	case AttrMentalHealth:
		s.MentalHealth = v
	case AttrEnergy:
		s.Energy = v
	case AttrStress:
		s.Stress = v
	case AttrEducation:
		s.Education = v
	case AttrSkillDepth:
		s.SkillDepth = v
	case AttrSkillBreadth:
		s.SkillBreadth = v
	case AttrLearningAbility:
		s.LearningAbility = v
	case AttrIncome:
		s.Income = v
	case AttrWealth:
		s.Wealth = v
	case AttrEmploymentStability:
		s.EmploymentStability = v
	case AttrSocialCapital:
		s.SocialCapital = v
	case AttrLoneliness:
		s.Loneliness = v
	}
}

// Clamp pulls every bounded field back into its declared range. Out-of-range
// values after an effect are a modeling convenience to correct, never an error.
func (s *State) Clamp() {
	s.Health = clamp01(s.Health)
	s.MentalHealth = clamp01(s.MentalHealth)
	s.Energy = clamp01(s.Energy)
	s.Stress = clamp01(s.Stress)
	s.Education = clamp01(s.Education)
	s.SkillDepth = clamp01(s.SkillDepth)
	s.SkillBreadth = clamp01(s.SkillBreadth)
	s.LearningAbility = clamp01(s.LearningAbility)
	s.EmploymentStability = clamp01(s.EmploymentStability)
	s.SocialCapital = clamp01(s.SocialCapital)
	s.Loneliness = clamp01(s.Loneliness)
	if s.Income < 0 {
		s.Income = 0
	}
	if s.PropertyValue < 0 {
		s.PropertyValue = 0
	}
	// Wealth stays signed: debt is a legal state.
}

// Alive reports whether the person can take another year.
func (s *State) Alive() bool {
	return s.Health > 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Clamp01 bounds v to [0,1]. Shared by the layers that compose multipliers.
func Clamp01(v float64) float64 {
	return clamp01(v)
}
