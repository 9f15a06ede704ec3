package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds one simulated year of a life, flattened so the same
// struct serves CSV rows and JSON replay.
type Snapshot struct {
	Year int `csv:"year" json:"year"`
	Age  int `csv:"age" json:"age"`

	// Vital condition
	Health       float64 `csv:"health" json:"health"`
	MentalHealth float64 `csv:"mental_health" json:"mental_health"`
	Energy       float64 `csv:"energy" json:"energy"`
	Stress       float64 `csv:"stress" json:"stress"`

	// Human capital
	Education       float64 `csv:"education" json:"education"`
	SkillDepth      float64 `csv:"skill_depth" json:"skill_depth"`
	SkillBreadth    float64 `csv:"skill_breadth" json:"skill_breadth"`
	LearningAbility float64 `csv:"learning_ability" json:"learning_ability"`

	// Economic position
	Income        float64 `csv:"income" json:"income"`
	Wealth        float64 `csv:"wealth" json:"wealth"`
	PropertyValue float64 `csv:"property_value" json:"property_value"`

	// Social position
	Occupation          string  `csv:"occupation" json:"occupation"`
	EmploymentStability float64 `csv:"employment_stability" json:"employment_stability"`
	SocialCapital       float64 `csv:"social_capital" json:"social_capital"`
	Loneliness          float64 `csv:"loneliness" json:"loneliness"`

	// Structural context
	Era          string `csv:"era" json:"era"`
	City         string `csv:"city" json:"city"`
	WindowStatus string `csv:"window_status" json:"window_status"`

	// The year's action and, for branching actions, how it resolved
	Action        string `csv:"action" json:"action"`
	ActionSuccess string `csv:"action_success" json:"action_success,omitempty"`

	// Family context
	Siblings        int     `csv:"siblings" json:"siblings"`
	OnlyChild       bool    `csv:"only_child" json:"only_child"`
	CaregiverBurden float64 `csv:"caregiver_burden" json:"caregiver_burden"`
	Competition     float64 `csv:"competition" json:"competition"`

	// Derived structural readings
	Score               float64 `csv:"score" json:"score"`
	Elite               bool    `csv:"elite" json:"elite"`
	PropertyOwner       bool    `csv:"property_owner" json:"property_owner"`
	KondratievEffect    float64 `csv:"kondratiev_effect" json:"kondratiev_effect"`
	EffectiveMobility   float64 `csv:"effective_mobility" json:"effective_mobility"`
	EffectiveInequality float64 `csv:"effective_inequality" json:"effective_inequality"`
}

// Trajectory wraps a complete run for JSON replay.
type Trajectory struct {
	Version   int        `json:"version"`
	Seed      uint64     `json:"seed"`
	Snapshots []Snapshot `json:"snapshots"`
}

// SaveTrajectory writes a trajectory to disk.
// Returns the filepath where it was saved.
func SaveTrajectory(tr *Trajectory, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create trajectory dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("trajectory_%d.json", tr.Seed))

	data, err := json.MarshalIndent(tr, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal trajectory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write trajectory: %w", err)
	}

	return path, nil
}

// LoadTrajectory reads a trajectory from disk.
func LoadTrajectory(path string) (*Trajectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trajectory: %w", err)
	}

	var tr Trajectory
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, fmt.Errorf("unmarshal trajectory: %w", err)
	}

	return &tr, nil
}
