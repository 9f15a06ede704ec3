// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Simulation     SimulationConfig     `yaml:"simulation"`
	World          WorldConfig          `yaml:"world"`
	Score          ScoreConfig          `yaml:"score"`
	Pareto         ParetoConfig         `yaml:"pareto"`
	MobilityChance MobilityChanceConfig `yaml:"mobility_chance"`
	Window         WindowConfig         `yaml:"window"`
	Eras           []EraConfig          `yaml:"eras"`
	Fertility      []FertilityConfig    `yaml:"fertility"`
	Family         FamilyConfig         `yaml:"family"`
	CityTiers      CityTiersConfig      `yaml:"city_tiers"`
	Cities         []CityConfig         `yaml:"cities"`
	CityModifiers  CityModifiersConfig  `yaml:"city_modifiers"`
	Actions        ActionsConfig        `yaml:"actions"`
	Eligibility    EligibilityConfig    `yaml:"eligibility"`
	Decision       DecisionConfig       `yaml:"decision"`
	Aging          AgingConfig          `yaml:"aging"`
	Property       PropertyConfig       `yaml:"property"`
	Telemetry      TelemetryConfig      `yaml:"telemetry"`
	HallOfFame     HallOfFameConfig     `yaml:"hall_of_fame"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimulationConfig holds run-level framing parameters.
type SimulationConfig struct {
	BaseYear      int `yaml:"base_year"`       // Year the world clock starts
	DefaultMaxAge int `yaml:"default_max_age"` // Terminal age when the caller supplies none
	StartAge      int `yaml:"start_age"`       // First simulated age
	GenerationGap int `yaml:"generation_gap"`  // Parent age minus person age
	ElderThreshold int `yaml:"elder_threshold"` // Parent age at which caregiving begins
}

// WorldConfig holds base-world drift and cycle parameters.
type WorldConfig struct {
	InitialTechnology      float64 `yaml:"initial_technology"`
	InitialInequality      float64 `yaml:"initial_inequality"`
	CyclePeriodYears       float64 `yaml:"cycle_period_years"`
	CycleAmplitude         float64 `yaml:"cycle_amplitude"`
	CycleNoiseStd          float64 `yaml:"cycle_noise_std"`
	TechDriftMean          float64 `yaml:"tech_drift_mean"`
	TechDriftStd           float64 `yaml:"tech_drift_std"`
	InequalityTechCoupling float64 `yaml:"inequality_tech_coupling"`
	InequalityNoiseStd     float64 `yaml:"inequality_noise_std"`
	MobilityFloor          float64 `yaml:"mobility_floor"`
	KondratievPeriodYears  int     `yaml:"kondratiev_period_years"`
}

// ScoreConfig holds the composite person-score weights.
// The weights may sum above 1.0; the score is an amplifier, not a probability.
type ScoreConfig struct {
	BirthBaseWeight       float64 `yaml:"birth_base_weight"`
	BirthInequalityWeight float64 `yaml:"birth_inequality_weight"`
	EducationWeight       float64 `yaml:"education_weight"`
	SkillWeight           float64 `yaml:"skill_weight"`
	SocialWeight          float64 `yaml:"social_weight"`
	WealthWeight          float64 `yaml:"wealth_weight"`
	WealthNormScale       float64 `yaml:"wealth_norm_scale"`
	WealthNormDivisor     float64 `yaml:"wealth_norm_divisor"`
}

// ParetoConfig holds the asymmetric elite/mass multiplier parameters.
type ParetoConfig struct {
	EliteScoreThreshold float64 `yaml:"elite_score_threshold"`
	EliteWealthBase     float64 `yaml:"elite_wealth_base"`
	MassWealthBase      float64 `yaml:"mass_wealth_base"`
	EliteInequalityGain float64 `yaml:"elite_inequality_gain"`
	MassInequalityDrag  float64 `yaml:"mass_inequality_drag"`
	EliteTechGain       float64 `yaml:"elite_tech_gain"`
	MassTechBase        float64 `yaml:"mass_tech_base"`
	MassTechGain        float64 `yaml:"mass_tech_gain"`
	OpportunityBandLow  float64 `yaml:"opportunity_band_low"`  // Floor for social-gain amplification
	OpportunityBandHigh float64 `yaml:"opportunity_band_high"` // Ceiling for social-gain amplification
	SuccessProbBase     float64 `yaml:"success_prob_base"`     // p factor = base + gain*opportunity
	SuccessProbGain     float64 `yaml:"success_prob_gain"`
}

// MobilityChanceConfig holds the tiered upward-mobility probability table.
type MobilityChanceConfig struct {
	LowScore       float64 `yaml:"low_score"`
	MidScore       float64 `yaml:"mid_score"`
	LowFactor      float64 `yaml:"low_factor"`
	MidFactor      float64 `yaml:"mid_factor"`
	HighChance     float64 `yaml:"high_chance"`
	EliteRetention float64 `yaml:"elite_retention"`
}

// WindowConfig holds the one-time opportunity window parameters.
type WindowConfig struct {
	CaptureEducation float64 `yaml:"capture_education"` // Education needed for a qualifying action
	CaptureSkill     float64 `yaml:"capture_skill"`     // Skill depth alternative to education
	CaptureBonus     float64 `yaml:"capture_bonus"`     // Permanent mobility multiplier on capture
	MissPenalty      float64 `yaml:"miss_penalty"`      // Permanent mobility multiplier on miss
}

// EraConfig defines one historical segment of the country model.
// Intervals are half-open [StartYear, EndYear); EndYear 0 marks the
// ongoing final era.
type EraConfig struct {
	Name            string  `yaml:"name"`
	StartYear       int     `yaml:"start_year"`
	EndYear         int     `yaml:"end_year"`
	Mobility        float64 `yaml:"mobility"`
	Inequality      float64 `yaml:"inequality"`
	EducationReturn float64 `yaml:"education_return"`
	RiskReward      float64 `yaml:"risk_reward"`
	MarketFreedom   float64 `yaml:"market_freedom"`
	Window          bool    `yaml:"window"`
	StudyShock      float64 `yaml:"study_shock"`      // Fractional study-gain loss during disruption
	HealthExposure  float64 `yaml:"health_exposure"`  // Yearly health cost of working through disruption
	RiskPenalty     float64 `yaml:"risk_penalty"`     // Extra loss ratio on failed risks
	MentalLoad      float64 `yaml:"mental_load"`      // Yearly mental-health drag
}

// FertilityConfig defines one family-policy period, keyed on birth year.
type FertilityConfig struct {
	Name           string  `yaml:"name"`
	StartYear      int     `yaml:"start_year"`
	EndYear        int     `yaml:"end_year"`
	FertilityCap   float64 `yaml:"fertility_cap"`
	Enforcement    float64 `yaml:"enforcement"`
	OnlyChildProb  float64 `yaml:"only_child_prob"`
	Strict         bool    `yaml:"strict"` // Marks the era that feeds competition intensity
}

// FamilyConfig holds family-structure generation and pressure parameters.
type FamilyConfig struct {
	BaseWealthScale       float64 `yaml:"base_wealth_scale"`
	UrbanOnlyChildBonus   float64 `yaml:"urban_only_child_bonus"`
	MaxSiblings           int     `yaml:"max_siblings"`
	SiblingSigma          float64 `yaml:"sibling_sigma"`
	WealthShareOffset     float64 `yaml:"wealth_share_offset"`
	OnlyChildPressureBase float64 `yaml:"only_child_pressure_base"`
	OnlyChildPressureSpan float64 `yaml:"only_child_pressure_span"`
	SiblingPressureBase   float64 `yaml:"sibling_pressure_base"`
	SiblingPressureSpan   float64 `yaml:"sibling_pressure_span"`
	OnlyChildSupportBase  float64 `yaml:"only_child_support_base"`
	OnlyChildSupportSpan  float64 `yaml:"only_child_support_span"`
	SiblingSupportBase    float64 `yaml:"sibling_support_base"`
	SiblingSupportSpan    float64 `yaml:"sibling_support_span"`
	StudyBoost            float64 `yaml:"study_boost"`
	PressureStressRate    float64 `yaml:"pressure_stress_rate"`
	LonelinessRate        float64 `yaml:"loneliness_rate"`
	MidlifeAge            int     `yaml:"midlife_age"`
	MidlifeStress         float64 `yaml:"midlife_stress"`
	MidlifeBurden         float64 `yaml:"midlife_burden"`
	CaregiverRamp         float64 `yaml:"caregiver_ramp"`
	CompetitionBase       float64 `yaml:"competition_base"`
	CompetitionOnlyChild  float64 `yaml:"competition_only_child"`
	CompetitionTierOne    float64 `yaml:"competition_tier_one"`
	CompetitionStrictEra  float64 `yaml:"competition_strict_era"`
}

// CityTiersConfig maps tier names to their multipliers.
type CityTiersConfig struct {
	Income   map[string]float64 `yaml:"income"`
	Cost     map[string]float64 `yaml:"cost"`
	Mobility map[string]float64 `yaml:"mobility"` // Additive adjustment to move success
}

// CityConfig defines one city's immutable local parameters.
type CityConfig struct {
	Name                string  `yaml:"name"`
	IncomeTier          string  `yaml:"income_tier"`
	CostTier            string  `yaml:"cost_tier"`
	PolicyBonus         float64 `yaml:"policy_bonus"`
	MarketFreedomDelta  float64 `yaml:"market_freedom_delta"`
	EliteCompetition    float64 `yaml:"elite_competition"`
	MobilityTier        string  `yaml:"mobility_tier"`
	RiskReward          float64 `yaml:"risk_reward"`
	AgePenaltyThreshold int     `yaml:"age_penalty_threshold"`
	HighVariance        bool    `yaml:"high_variance"`
}

// CityModifiersConfig holds the shared city modifier tuning.
type CityModifiersConfig struct {
	StudyBonusThreshold   float64 `yaml:"study_bonus_threshold"`
	StudyBonusGain        float64 `yaml:"study_bonus_gain"`
	WorkBonusGain         float64 `yaml:"work_bonus_gain"`
	RelationStabilityGain float64 `yaml:"relation_stability_gain"`
	CostDampening         float64 `yaml:"cost_dampening"`
	AgePenaltyFactor      float64 `yaml:"age_penalty_factor"`
	TierOneCompetition    float64 `yaml:"tier_one_competition"`
}

// ActionsConfig groups per-action tuning.
type ActionsConfig struct {
	Study    StudyConfig    `yaml:"study"`
	Work     WorkConfig     `yaml:"work"`
	Rest     RestConfig     `yaml:"rest"`
	Move     MoveConfig     `yaml:"move"`
	Risk     RiskConfig     `yaml:"risk"`
	Relation RelationConfig `yaml:"relation"`
}

// StudyConfig holds study action parameters.
type StudyConfig struct {
	GainRate         float64 `yaml:"gain_rate"`
	TechFloor        float64 `yaml:"tech_floor"`
	TechGain         float64 `yaml:"tech_gain"`
	DepthRatio       float64 `yaml:"depth_ratio"`
	BreadthRatio     float64 `yaml:"breadth_ratio"`
	EnergyCost       float64 `yaml:"energy_cost"`
	StressCost       float64 `yaml:"stress_cost"`
	AdultIncomeScale float64 `yaml:"adult_income_scale"`
}

// WorkConfig holds work action parameters.
type WorkConfig struct {
	SkillWeight        float64 `yaml:"skill_weight"`
	EducationWeight    float64 `yaml:"education_weight"`
	EconomyWeight      float64 `yaml:"economy_weight"`
	DepthMix           float64 `yaml:"depth_mix"`
	BreadthMix         float64 `yaml:"breadth_mix"`
	IncomeScale        float64 `yaml:"income_scale"`
	IncomeRetention    float64 `yaml:"income_retention"`
	IncomeNoiseStd     float64 `yaml:"income_noise_std"`
	SavingsRate        float64 `yaml:"savings_rate"`
	SupportRate        float64 `yaml:"support_rate"`
	EnergyCost         float64 `yaml:"energy_cost"`
	StressCost         float64 `yaml:"stress_cost"`
	OverworkStress     float64 `yaml:"overwork_stress"`
	OverworkHealthCost float64 `yaml:"overwork_health_cost"`
	DiligenceThreshold float64 `yaml:"diligence_threshold"`
	StabilityGain      float64 `yaml:"stability_gain"`
	DepthGain          float64 `yaml:"depth_gain"`
}

// RestConfig holds rest action parameters.
type RestConfig struct {
	RecoveryRate      float64 `yaml:"recovery_rate"`
	StressReliefRatio float64 `yaml:"stress_relief_ratio"`
	HealthRatio       float64 `yaml:"health_ratio"`
	MentalRatio       float64 `yaml:"mental_ratio"`
	IncomeScale       float64 `yaml:"income_scale"`
}

// MoveConfig holds move action parameters.
type MoveConfig struct {
	WealthCost    float64 `yaml:"wealth_cost"`
	EnergyCost    float64 `yaml:"energy_cost"`
	StressCost    float64 `yaml:"stress_cost"`
	BaseSuccess   float64 `yaml:"base_success"`
	WindowSuccess float64 `yaml:"window_success"`
	StabilityGain float64 `yaml:"stability_gain"`
	IncomeBoost   float64 `yaml:"income_boost"`
	SocialGain    float64 `yaml:"social_gain"`
	StabilityLoss float64 `yaml:"stability_loss"`
	IncomeDrop    float64 `yaml:"income_drop"`
	FailStress    float64 `yaml:"fail_stress"`
}

// RiskConfig holds risk action parameters.
type RiskConfig struct {
	EnergyCost       float64 `yaml:"energy_cost"`
	StressCost       float64 `yaml:"stress_cost"`
	BaseSuccess      float64 `yaml:"base_success"`
	VarianceLow      float64 `yaml:"variance_low"`
	VarianceSpan     float64 `yaml:"variance_span"`
	WindowBonus      float64 `yaml:"window_bonus"`
	PayoutBase       float64 `yaml:"payout_base"`
	PayoutWealthRatio float64 `yaml:"payout_wealth_ratio"`
	IncomeBoost      float64 `yaml:"income_boost"`
	SocialGain       float64 `yaml:"social_gain"`
	LossRatio        float64 `yaml:"loss_ratio"`
	FailStress       float64 `yaml:"fail_stress"`
	StabilityLoss    float64 `yaml:"stability_loss"`
}

// RelationConfig holds relationship action parameters.
type RelationConfig struct {
	GainRate             float64 `yaml:"gain_rate"`
	LonelinessReliefRatio float64 `yaml:"loneliness_relief_ratio"`
	MentalRatio          float64 `yaml:"mental_ratio"`
	EnergyCost           float64 `yaml:"energy_cost"`
	WealthCost           float64 `yaml:"wealth_cost"`
}

// EligibilityConfig holds the action eligibility predicates' thresholds.
type EligibilityConfig struct {
	StudyMinAge          int     `yaml:"study_min_age"`
	StudyMaxAge          int     `yaml:"study_max_age"`
	StudyEducationCap    float64 `yaml:"study_education_cap"`
	StudyMinEnergy       float64 `yaml:"study_min_energy"`
	WorkMinAge           int     `yaml:"work_min_age"`
	WorkMinHealth        float64 `yaml:"work_min_health"`
	MoveMinAge           int     `yaml:"move_min_age"`
	MoveMaxAge           int     `yaml:"move_max_age"`
	MoveMinEnergy        float64 `yaml:"move_min_energy"`
	RiskMinAge           int     `yaml:"risk_min_age"`
	RiskMaxAge           int     `yaml:"risk_max_age"`
	RiskMinEnergy        float64 `yaml:"risk_min_energy"`
	RelationMinLoneliness float64 `yaml:"relation_min_loneliness"`
	RelationMinSocial    float64 `yaml:"relation_min_social"`
}

// DecisionConfig holds auto-select affinity weights.
type DecisionConfig struct {
	StudyBase             float64 `yaml:"study_base"`
	StudyOpenness         float64 `yaml:"study_openness"`
	WorkBase              float64 `yaml:"work_base"`
	WorkConscientiousness float64 `yaml:"work_conscientiousness"`
	RestBase              float64 `yaml:"rest_base"`
	RestFatigue           float64 `yaml:"rest_fatigue"`
	MoveBase              float64 `yaml:"move_base"`
	MoveRiskPref          float64 `yaml:"move_risk_pref"`
	MoveInstabilityBonus  float64 `yaml:"move_instability_bonus"`
	RiskBase              float64 `yaml:"risk_base"`
	RiskPrefWeight        float64 `yaml:"risk_pref_weight"`
	RelationBase          float64 `yaml:"relation_base"`
	RelationSocialDrive   float64 `yaml:"relation_social_drive"`
	RelationLonelinessBonus float64 `yaml:"relation_loneliness_bonus"`
}

// AgingConfig holds the deterministic natural-aging parameters.
type AgingConfig struct {
	HealthDecayAge     int     `yaml:"health_decay_age"`
	HealthDecayRate    float64 `yaml:"health_decay_rate"`
	SeniorAge          int     `yaml:"senior_age"`
	SeniorHealthDecay  float64 `yaml:"senior_health_decay"`
	SeniorEnergyDecay  float64 `yaml:"senior_energy_decay"`
	CognitiveDecayAge  int     `yaml:"cognitive_decay_age"`
	LearningRetention  float64 `yaml:"learning_retention"`
	SkillRetention     float64 `yaml:"skill_retention"`
	StressDrift        float64 `yaml:"stress_drift"`
	StressDriftCeiling float64 `yaml:"stress_drift_ceiling"`
}

// PropertyConfig holds the one-way property purchase parameters.
type PropertyConfig struct {
	MinAge           int     `yaml:"min_age"`
	MaxAge           int     `yaml:"max_age"`
	WealthThreshold  float64 `yaml:"wealth_threshold"`
	ConversionRatio  float64 `yaml:"conversion_ratio"`
	AppreciationBase float64 `yaml:"appreciation_base"`
	SupportBonus     float64 `yaml:"support_bonus"`
}

// TelemetryConfig holds life-event detection thresholds.
type TelemetryConfig struct {
	HistorySize      int     `yaml:"history_size"`
	WealthShockDrop  float64 `yaml:"wealth_shock_drop"`
	WealthShockFloor float64 `yaml:"wealth_shock_floor"`
	BurnoutStress    float64 `yaml:"burnout_stress"`
	BurnoutEnergy    float64 `yaml:"burnout_energy"`
}

// HallOfFameConfig holds batch hall-of-fame settings.
type HallOfFameConfig struct {
	Size             int     `yaml:"size"`
	WealthWeight     float64 `yaml:"wealth_weight"`
	EliteYearsWeight float64 `yaml:"elite_years_weight"`
	LongevityWeight  float64 `yaml:"longevity_weight"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	CityIndex    map[string]int // city name -> index into Cities
	EraIndex     map[string]int // era name -> index into Eras
	DefaultCity  string         // first city in the table
	HorizonYear  int            // last closed era boundary, for summaries
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Compute derived values
	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.CityIndex = make(map[string]int, len(c.Cities))
	for i, city := range c.Cities {
		c.Derived.CityIndex[city.Name] = i
	}
	if len(c.Cities) > 0 {
		c.Derived.DefaultCity = c.Cities[0].Name
	}

	c.Derived.EraIndex = make(map[string]int, len(c.Eras))
	horizon := c.Simulation.BaseYear
	for i, era := range c.Eras {
		c.Derived.EraIndex[era.Name] = i
		if era.EndYear > horizon {
			horizon = era.EndYear
		}
	}
	c.Derived.HorizonYear = horizon

	if c.Simulation.DefaultMaxAge == 0 {
		c.Simulation.DefaultMaxAge = 85
	}
	if c.Simulation.StartAge == 0 {
		c.Simulation.StartAge = 1
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
