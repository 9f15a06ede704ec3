package family

import (
	"math"
	"testing"

	"github.com/lchant/loom/config"
	"github.com/lchant/loom/person"
)

// scriptSource feeds predetermined draws so structure generation branches
// can be pinned exactly. Exhausted queues return zero values.
type scriptSource struct {
	uniforms []float64 // fraction of the requested range
	normals  []float64 // absolute values
	bools    []bool
	ints     []int
}

func (s *scriptSource) Uniform(low, high float64) float64 {
	var v float64
	if len(s.uniforms) > 0 {
		v, s.uniforms = s.uniforms[0], s.uniforms[1:]
	}
	return low + (high-low)*v
}

func (s *scriptSource) Normal(mean, std float64) float64 {
	var v float64
	if len(s.normals) > 0 {
		v, s.normals = s.normals[0], s.normals[1:]
	}
	return v
}

func (s *scriptSource) Bool(p float64) bool {
	var v bool
	if len(s.bools) > 0 {
		v, s.bools = s.bools[0], s.bools[1:]
	}
	return v
}

func (s *scriptSource) IntN(n int) int {
	var v int
	if len(s.ints) > 0 {
		v, s.ints = s.ints[0], s.ints[1:]
	}
	return v
}

func testEngine(t *testing.T) *Engine {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("building engine: %v", err)
	}
	return e
}

func TestNewEngineRejectsMalformedTable(t *testing.T) {
	bad := &config.Config{Fertility: []config.FertilityConfig{
		{Name: "a", StartYear: 1949, EndYear: 1979},
		{Name: "b", StartYear: 1985, EndYear: 0},
	}}
	if _, err := NewEngine(bad); err == nil {
		t.Error("expected error for gapped period table")
	}
	if _, err := NewEngine(&config.Config{}); err == nil {
		t.Error("expected error for empty period table")
	}
}

func TestResolvePeriodBoundaries(t *testing.T) {
	e := testEngine(t)
	tests := []struct {
		year int
		want string
	}{
		{1949, "unrestricted"},
		{1970, "unrestricted"},
		{1971, "guidance"},
		{1979, "one_child"},
		{2015, "one_child"},
		{2016, "two_child"},
		{2021, "pronatal"},
		{2050, "pronatal"},
		{1900, "unrestricted"},
	}
	for _, tt := range tests {
		if got := e.ResolvePeriod(tt.year).Name; got != tt.want {
			t.Errorf("ResolvePeriod(%d) = %q, want %q", tt.year, got, tt.want)
		}
	}
}

func TestGenerateStrictPeriod(t *testing.T) {
	e := testEngine(t)

	t.Run("only child roll", func(t *testing.T) {
		r := &scriptSource{bools: []bool{true}, uniforms: []float64{0, 0}}
		st := e.Generate(1990, 90000, true, r)
		if !st.OnlyChild || st.Siblings != 0 {
			t.Fatalf("siblings = %d only = %v, want only child", st.Siblings, st.OnlyChild)
		}
		if math.Abs(st.WealthShare-180000) > 1e-9 {
			t.Errorf("wealth share = %v, want 180000 (wealth / 0.5)", st.WealthShare)
		}
		if math.Abs(st.ParentalPressure-0.6) > 1e-9 {
			t.Errorf("pressure = %v, want 0.6 base", st.ParentalPressure)
		}
		if math.Abs(st.Support-0.2) > 1e-9 {
			t.Errorf("support = %v, want 0.2 base", st.Support)
		}
		if st.PolicyPeriod != "one_child" {
			t.Errorf("period = %q, want one_child", st.PolicyPeriod)
		}
	})

	t.Run("sibling roll stays under tight cap", func(t *testing.T) {
		r := &scriptSource{bools: []bool{false}, ints: []int{1}, uniforms: []float64{1, 1}}
		st := e.Generate(1990, 90000, true, r)
		if st.OnlyChild || st.Siblings != 1 {
			t.Fatalf("siblings = %d, want 1", st.Siblings)
		}
		if math.Abs(st.WealthShare-60000) > 1e-9 {
			t.Errorf("wealth share = %v, want 60000 (wealth / 1.5)", st.WealthShare)
		}
		if math.Abs(st.ParentalPressure-0.6) > 1e-9 {
			t.Errorf("pressure = %v, want 0.6 (base 0.3 + span 0.3)", st.ParentalPressure)
		}
		if math.Abs(st.Support-0.8) > 1e-9 {
			t.Errorf("support = %v, want 0.8 (base 0.5 + span 0.3)", st.Support)
		}
	})
}

func TestGenerateWeakPeriod(t *testing.T) {
	e := testEngine(t)

	tests := []struct {
		name     string
		draw     float64
		siblings int
		only     bool
	}{
		{"gaussian truncates down", 3.7, 3, false},
		{"high draw caps at five", 8.4, 5, false},
		{"negative draw floors at zero", -1.2, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &scriptSource{normals: []float64{tt.draw}, uniforms: []float64{0, 0}}
			st := e.Generate(1960, 50000, false, r)
			if st.Siblings != tt.siblings || st.OnlyChild != tt.only {
				t.Errorf("siblings = %d only = %v, want %d / %v", st.Siblings, st.OnlyChild, tt.siblings, tt.only)
			}
		})
	}
}

func TestShapePersonality(t *testing.T) {
	e := testEngine(t)

	p := person.Personality{Conscientiousness: 0.95, SocialDrive: 0.05, Resilience: 0.5, Openness: 0.7}
	e.ShapePersonality(&p, &State{OnlyChild: true})
	if p.Conscientiousness != 1.0 {
		t.Errorf("conscientiousness = %v, want clamped 1.0", p.Conscientiousness)
	}
	if p.SocialDrive != 0.0 {
		t.Errorf("social drive = %v, want clamped 0.0", p.SocialDrive)
	}
	if math.Abs(p.Resilience-0.4) > 1e-9 {
		t.Errorf("resilience = %v, want 0.4", p.Resilience)
	}
	if p.Openness != 0.7 {
		t.Errorf("openness = %v, want untouched 0.7", p.Openness)
	}

	q := person.Personality{Conscientiousness: 0.5}
	e.ShapePersonality(&q, &State{OnlyChild: false})
	if q.Conscientiousness != 0.5 {
		t.Error("sibling personality should be untouched")
	}
}

func TestStudyBoost(t *testing.T) {
	e := testEngine(t)
	if got := e.StudyBoost(&State{OnlyChild: true}); got != 1.4 {
		t.Errorf("only-child boost = %v, want 1.4", got)
	}
	if got := e.StudyBoost(&State{OnlyChild: false}); got != 1 {
		t.Errorf("sibling boost = %v, want 1", got)
	}
}

func TestMidlifePenaltyAppliedExactlyOnce(t *testing.T) {
	e := testEngine(t)
	fs := &State{OnlyChild: true, ParentalPressure: 0.5}
	ps := &person.State{Age: 44, Health: 1}

	for age := 44; age <= 50; age++ {
		ps.Age = age
		e.ApplyYearlyEffects(ps, fs, 0.5)
	}

	if !ps.Flags.Has(person.FlagMidlifeApplied) {
		t.Fatal("midlife flag not latched")
	}
	// Seven years of pressure stress at 0.02*0.5*(0.5+0.5) plus one 0.2 step.
	wantStress := 7*0.01 + 0.2
	if math.Abs(ps.Stress-wantStress) > 1e-9 {
		t.Errorf("stress = %v, want %v (penalty exactly once)", ps.Stress, wantStress)
	}
	wantLoneliness := 7 * 0.015
	if math.Abs(ps.Loneliness-wantLoneliness) > 1e-9 {
		t.Errorf("loneliness = %v, want %v", ps.Loneliness, wantLoneliness)
	}
}

func TestYearlyEffectsSkipSiblings(t *testing.T) {
	e := testEngine(t)
	ps := &person.State{Age: 48, Health: 1}
	e.ApplyYearlyEffects(ps, &State{OnlyChild: false, ParentalPressure: 0.9}, 1.0)
	if ps.Stress != 0 || ps.Loneliness != 0 || ps.Flags.Has(person.FlagMidlifeApplied) {
		t.Error("yearly only-child effects applied to a person with siblings")
	}
}

func TestCaregiverBurdenRecompute(t *testing.T) {
	e := testEngine(t)

	t.Run("only child absorbs full ramp", func(t *testing.T) {
		fs := &State{OnlyChild: true}
		e.UpdateCaregiverBurden(fs, 50, false)
		if want := 0.02 * 18; math.Abs(fs.CaregiverBurden-want) > 1e-9 {
			t.Errorf("burden = %v, want %v (parent age 78)", fs.CaregiverBurden, want)
		}
		// Recompute is idempotent, not accumulating.
		e.UpdateCaregiverBurden(fs, 50, false)
		if want := 0.02 * 18; math.Abs(fs.CaregiverBurden-want) > 1e-9 {
			t.Errorf("burden after recompute = %v, want unchanged %v", fs.CaregiverBurden, want)
		}
	})

	t.Run("midlife latch adds its step", func(t *testing.T) {
		fs := &State{OnlyChild: true}
		e.UpdateCaregiverBurden(fs, 50, true)
		if want := 0.02*18 + 0.3; math.Abs(fs.CaregiverBurden-want) > 1e-9 {
			t.Errorf("burden = %v, want %v", fs.CaregiverBurden, want)
		}
	})

	t.Run("siblings divide the ramp", func(t *testing.T) {
		fs := &State{Siblings: 3}
		e.UpdateCaregiverBurden(fs, 50, false)
		if want := 0.02 * 18 / 4; math.Abs(fs.CaregiverBurden-want) > 1e-9 {
			t.Errorf("burden = %v, want %v", fs.CaregiverBurden, want)
		}
	})

	t.Run("young parents carry nothing", func(t *testing.T) {
		fs := &State{OnlyChild: true}
		e.UpdateCaregiverBurden(fs, 20, false)
		if fs.CaregiverBurden != 0 {
			t.Errorf("burden = %v, want 0 before elder threshold", fs.CaregiverBurden)
		}
	})

	t.Run("burden caps at one", func(t *testing.T) {
		fs := &State{OnlyChild: true}
		e.UpdateCaregiverBurden(fs, 80, true)
		if fs.CaregiverBurden != 1 {
			t.Errorf("burden = %v, want capped 1.0", fs.CaregiverBurden)
		}
	})
}

func TestCompetitionIntensity(t *testing.T) {
	e := testEngine(t)
	only := &State{OnlyChild: true}
	sibs := &State{Siblings: 2}

	tests := []struct {
		name    string
		fs      *State
		tierOne bool
		year    int
		want    float64
	}{
		{"all four terms reach exactly one", only, true, 1990, 1.0},
		{"base only", sibs, false, 2025, 0.3},
		{"only child in strict period", only, false, 1990, 0.7},
		{"siblings in tier one strict", sibs, true, 1990, 0.8},
		{"only child outside strict period", only, false, 2025, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.CompetitionIntensity(tt.fs, tt.tierOne, tt.year); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("intensity = %v, want %v", got, tt.want)
			}
		})
	}
}
