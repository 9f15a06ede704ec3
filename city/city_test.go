package city

import (
	"errors"
	"math"
	"testing"

	"github.com/lchant/loom/config"
	"github.com/lchant/loom/person"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	r, err := NewRegistry(cfg)
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	return r
}

func TestRegistryLookup(t *testing.T) {
	r := testRegistry(t)

	want := []string{"capital", "harbor", "delta", "crossroads"}
	got := r.Names()
	if len(got) != len(want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q (table order preserved)", i, got[i], want[i])
		}
	}

	if r.Default().Name() != "capital" {
		t.Errorf("default = %q, want capital", r.Default().Name())
	}

	c, err := r.Get("delta")
	if err != nil {
		t.Fatalf("Get(delta): %v", err)
	}
	if c.IncomeMult != 1.5 || c.CostMult != 2.0 || c.MobilityAdj != 0.2 {
		t.Errorf("delta tiers = %v/%v/%v, want 1.5/2.0/0.2", c.IncomeMult, c.CostMult, c.MobilityAdj)
	}
}

func TestUnknownCity(t *testing.T) {
	r := testRegistry(t)
	_, err := r.Get("atlantis")
	if err == nil {
		t.Fatal("expected error for unknown city")
	}
	var unknown *UnknownCityError
	if !errors.As(err, &unknown) {
		t.Fatalf("error %T is not UnknownCityError", err)
	}
	if unknown.Name != "atlantis" {
		t.Errorf("error names %q, want atlantis", unknown.Name)
	}
}

func TestNewRegistryRejectsBadTiers(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	cfg.Cities = append([]config.CityConfig{}, cfg.Cities...)
	cfg.Cities[0].CostTier = "astronomical"
	if _, err := NewRegistry(cfg); err == nil {
		t.Error("expected construction error for unknown cost tier")
	}

	if _, err := NewRegistry(&config.Config{}); err == nil {
		t.Error("expected construction error for empty city table")
	}
}

func TestTierOne(t *testing.T) {
	r := testRegistry(t)
	tests := []struct {
		name string
		want bool
	}{
		{"capital", true},
		{"harbor", true},
		{"delta", false},
		{"crossroads", false},
	}
	for _, tt := range tests {
		c, err := r.Get(tt.name)
		if err != nil {
			t.Fatal(err)
		}
		if c.TierOne() != tt.want {
			t.Errorf("%s tier one = %v, want %v", tt.name, c.TierOne(), tt.want)
		}
	}
}

func TestRiskRewardAgePenalty(t *testing.T) {
	r := testRegistry(t)
	delta, _ := r.Get("delta")

	young := delta.RiskRewardFor(30)
	if want := 1.8 * 1.3; math.Abs(young-want) > 1e-9 {
		t.Errorf("risk reward at 30 = %v, want %v", young, want)
	}
	old := delta.RiskRewardFor(40)
	if want := 1.8 * 1.3 * 0.7; math.Abs(old-want) > 1e-9 {
		t.Errorf("risk reward at 40 = %v, want %v (age penalty)", old, want)
	}
	boundary := delta.RiskRewardFor(35)
	if boundary != young {
		t.Errorf("risk reward at threshold age = %v, want %v (penalty starts past it)", boundary, young)
	}

	capital, _ := r.Get("capital")
	if got := capital.RiskRewardFor(70); math.Abs(got-0.6) > 1e-9 {
		t.Errorf("capital risk reward at 70 = %v, want 0.6 (threshold 99 never triggers)", got)
	}
}

func TestApplyModifiersStudy(t *testing.T) {
	r := testRegistry(t)

	capital, _ := r.Get("capital") // policy bonus 0.4 clears the 0.3 threshold
	e := person.NewEffect(person.Gain(person.AttrEducation, 0.1))
	capital.ApplyModifiers(e, person.ActionStudy, 20)
	if want := 0.1 * (1 + 0.4*0.5); math.Abs(e.Deltas[0].Add-want) > 1e-9 {
		t.Errorf("capital study gain = %v, want %v", e.Deltas[0].Add, want)
	}

	harbor, _ := r.Get("harbor") // policy bonus 0.2 stays under the threshold
	e = person.NewEffect(person.Gain(person.AttrEducation, 0.1))
	harbor.ApplyModifiers(e, person.ActionStudy, 20)
	if math.Abs(e.Deltas[0].Add-0.1) > 1e-9 {
		t.Errorf("harbor study gain = %v, want 0.1 untouched", e.Deltas[0].Add)
	}
}

func TestApplyModifiersWork(t *testing.T) {
	r := testRegistry(t)
	capital, _ := r.Get("capital")

	e := person.NewEffect(
		person.Gain(person.AttrWealth, 1000),
		person.Gain(person.AttrSkillDepth, 0.01),
		person.Add(person.AttrEnergy, -0.15),
	)
	capital.ApplyModifiers(e, person.ActionWork, 30)

	// Wealth gain: action factor 1.12, income tier 1.5, cost dampener 0.8.
	if want := 1000 * 1.12 * 1.5 * 0.8; math.Abs(e.Deltas[0].Add-want) > 1e-9 {
		t.Errorf("work wealth gain = %v, want %v", e.Deltas[0].Add, want)
	}
	// Skill gain rides only the action factor.
	if want := 0.01 * 1.12; math.Abs(e.Deltas[1].Add-want) > 1e-9 {
		t.Errorf("work skill gain = %v, want %v", e.Deltas[1].Add, want)
	}
	// Costs never amplified.
	if e.Deltas[2].Add != -0.15 {
		t.Errorf("energy cost = %v, want untouched -0.15", e.Deltas[2].Add)
	}
}

func TestApplyModifiersCostDampening(t *testing.T) {
	r := testRegistry(t)

	tests := []struct {
		city string
		want float64
	}{
		{"capital", 0.8},    // very high cost 3.0
		{"delta", 0.9},      // high cost 2.0
		{"crossroads", 1.0}, // medium cost 1.0
	}
	for _, tt := range tests {
		c, _ := r.Get(tt.city)
		e := person.NewEffect(person.Gain(person.AttrWealth, 100))
		c.ApplyModifiers(e, person.ActionRest, 30)
		if want := 100 * tt.want; math.Abs(e.Deltas[0].Add-want) > 1e-9 {
			t.Errorf("%s rest wealth gain = %v, want %v", tt.city, e.Deltas[0].Add, want)
		}
	}
}

func TestApplyModifiersRelation(t *testing.T) {
	r := testRegistry(t)
	crossroads, _ := r.Get("crossroads") // elite competition 0.5

	e := person.NewEffect(person.Gain(person.AttrSocialCapital, 0.1))
	crossroads.ApplyModifiers(e, person.ActionRelation, 30)
	if want := 0.1 * (1 + 0.5*0.4); math.Abs(e.Deltas[0].Add-want) > 1e-9 {
		t.Errorf("relation gain = %v, want %v", e.Deltas[0].Add, want)
	}
}
