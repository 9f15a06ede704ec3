package person

// Attr identifies one mutable state attribute. Effects address attributes
// through this enum so that world-level amplifiers can scale whole classes
// of gains without knowing which action produced them.
type Attr uint8

const (
	AttrHealth Attr = iota
	AttrMentalHealth
	AttrEnergy
	AttrStress
	AttrEducation
	AttrSkillDepth
	AttrSkillBreadth
	AttrLearningAbility
	AttrIncome
	AttrWealth
	AttrEmploymentStability
	AttrSocialCapital
	AttrLoneliness
)

func (a Attr) String() string {
	switch a {
	case AttrHealth:
		return "health"
	case AttrMentalHealth:
		return "mental_health"
	case AttrEnergy:
		return "energy"
	case AttrStress:
		return "stress"
	case AttrEducation:
		return "education"
	case AttrSkillDepth:
		return "skill_depth"
	case AttrSkillBreadth:
		return "skill_breadth"
	case AttrLearningAbility:
		return "learning_ability"
	case AttrIncome:
		return "income"
	case AttrWealth:
		return "wealth"
	case AttrEmploymentStability:
		return "employment_stability"
	case AttrSocialCapital:
		return "social_capital"
	case AttrLoneliness:
		return "loneliness"
	}
	return "unknown"
}

// AttrClass groups attributes by which structural multiplier applies to
// their gains: economic gains ride the wealth multiplier, human-capital
// gains ride the technology benefit, social gains ride opportunity, and
// vital attributes are never amplified.
type AttrClass uint8

const (
	ClassVital AttrClass = iota
	ClassEconomic
	ClassHuman
	ClassSocial
)

// Class returns the amplification class of the attribute.
func (a Attr) Class() AttrClass {
	switch a {
	case AttrIncome, AttrWealth:
		return ClassEconomic
	case AttrEducation, AttrSkillDepth, AttrSkillBreadth, AttrLearningAbility:
		return ClassHuman
	case AttrSocialCapital, AttrEmploymentStability:
		return ClassSocial
	}
	return ClassVital
}
