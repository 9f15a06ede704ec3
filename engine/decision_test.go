package engine

import (
	"errors"
	"reflect"
	"testing"

	"github.com/lchant/loom/person"
)

func TestEligibilityPredicates(t *testing.T) {
	sim := newTestSim(t)
	dec := sim.Decisions()

	cases := []struct {
		name   string
		action person.Action
		state  person.State
		want   bool
	}{
		{"study before school age", person.ActionStudy, person.State{Age: 5, Energy: 0.9}, false},
		{"study at school age", person.ActionStudy, person.State{Age: 6, Energy: 0.9}, true},
		{"study past cap with unfinished education", person.ActionStudy, person.State{Age: 35, Energy: 0.9, Education: 0.5}, true},
		{"study past cap fully educated", person.ActionStudy, person.State{Age: 35, Energy: 0.9, Education: 0.9}, false},
		{"study at the energy bar", person.ActionStudy, person.State{Age: 20, Energy: 0.3}, false},
		{"study just above the energy bar", person.ActionStudy, person.State{Age: 20, Energy: 0.31}, true},

		{"work under age", person.ActionWork, person.State{Age: 17, Health: 0.9}, false},
		{"work of age", person.ActionWork, person.State{Age: 18, Health: 0.9}, true},
		{"work at the health bar", person.ActionWork, person.State{Age: 30, Health: 0.2}, false},
		{"work just above the health bar", person.ActionWork, person.State{Age: 30, Health: 0.21}, true},

		{"rest is always open", person.ActionRest, person.State{Age: 99}, true},

		{"move under age", person.ActionMove, person.State{Age: 15, Energy: 0.9}, false},
		{"move at the floor", person.ActionMove, person.State{Age: 16, Energy: 0.9}, true},
		{"move at the ceiling", person.ActionMove, person.State{Age: 50, Energy: 0.9}, true},
		{"move past the ceiling", person.ActionMove, person.State{Age: 51, Energy: 0.9}, false},
		{"move drained", person.ActionMove, person.State{Age: 30, Energy: 0.3}, false},

		{"risk under age", person.ActionRisk, person.State{Age: 15, Energy: 0.9}, false},
		{"risk at the floor", person.ActionRisk, person.State{Age: 16, Energy: 0.9}, true},
		{"risk at the ceiling", person.ActionRisk, person.State{Age: 60, Energy: 0.9}, true},
		{"risk past the ceiling", person.ActionRisk, person.State{Age: 61, Energy: 0.9}, false},
		{"risk at the energy bar", person.ActionRisk, person.State{Age: 30, Energy: 0.2}, false},
		{"risk just above the energy bar", person.ActionRisk, person.State{Age: 30, Energy: 0.21}, true},

		{"relation when lonely", person.ActionRelation, person.State{Age: 30, Loneliness: 0.41}, true},
		{"relation when connected", person.ActionRelation, person.State{Age: 30, SocialCapital: 0.51}, true},
		{"relation at both bars", person.ActionRelation, person.State{Age: 30, Loneliness: 0.4, SocialCapital: 0.5}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := dec.Eligible(tc.action, &tc.state); got != tc.want {
				t.Fatalf("Eligible(%s) = %v, want %v", tc.action, got, tc.want)
			}
		})
	}
}

func TestAvailableNeverEmpty(t *testing.T) {
	sim := newTestSim(t)
	dec := sim.Decisions()

	// A drained elder fails every predicate except rest.
	ps := &person.State{
		Age: 70, Energy: 0.05, Health: 0.1,
		Loneliness: 0.3, SocialCapital: 0.4, Education: 0.9,
	}
	got := dec.Available(ps)
	if !reflect.DeepEqual(got, []person.Action{person.ActionRest}) {
		t.Fatalf("available = %v, want only rest", got)
	}
}

func TestValidateRejectsWithoutMutation(t *testing.T) {
	sim := newTestSim(t)
	dec := sim.Decisions()

	ps := &person.State{Age: 10, Health: 0.9, Energy: 0.8}
	before := *ps

	err := dec.Validate(person.ActionWork, ps)
	var ineligible *IneligibleActionError
	if !errors.As(err, &ineligible) {
		t.Fatalf("expected IneligibleActionError, got %v", err)
	}
	if ineligible.Action != person.ActionWork || ineligible.Age != 10 {
		t.Fatalf("error fields = %+v", ineligible)
	}
	if ineligible.Reason != "below working age" {
		t.Fatalf("reason = %q", ineligible.Reason)
	}
	if *ps != before {
		t.Fatal("validation mutated the state")
	}

	if err := dec.Validate(person.ActionRest, ps); err != nil {
		t.Fatalf("rest rejected: %v", err)
	}
}

// A child with maximal openness faces a study/rest split of 1.0 to
// 0.28; the single uniform draw walks the eligible set in canonical
// order, so the fraction determines the pick exactly.
func TestAutoSelectWeightsByAffinity(t *testing.T) {
	sim := newTestSim(t)
	dec := sim.Decisions()

	ps := &person.State{Age: 10, Energy: 0.9, Stress: 0.1}
	pp := person.Personality{Openness: 1.0}

	avail := dec.Available(ps)
	if !reflect.DeepEqual(avail, []person.Action{person.ActionStudy, person.ActionRest}) {
		t.Fatalf("available = %v", avail)
	}

	if got := dec.AutoSelect(ps, pp, &scriptSource{uniforms: []float64{0.5}}); got != person.ActionStudy {
		t.Fatalf("draw below the study weight picked %s", got)
	}
	if got := dec.AutoSelect(ps, pp, &scriptSource{uniforms: []float64{0.9}}); got != person.ActionRest {
		t.Fatalf("draw past the study weight picked %s", got)
	}
}

func TestAutoSelectSkipsIneligibleActions(t *testing.T) {
	sim := newTestSim(t)
	dec := sim.Decisions()

	// Maximal risk preference cannot surface risk before its age floor.
	ps := &person.State{Age: 10, Energy: 0.9}
	pp := person.Personality{RiskPreference: 1.0, Openness: 0.5}

	for _, frac := range []float64{0, 0.25, 0.5, 0.75, 0.999} {
		got := dec.AutoSelect(ps, pp, &scriptSource{uniforms: []float64{frac}})
		if got != person.ActionStudy && got != person.ActionRest {
			t.Fatalf("fraction %v picked ineligible %s", frac, got)
		}
	}
}
