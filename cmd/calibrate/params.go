package main

import (
	"github.com/lchant/loom/person"
)

// ParamSpec defines a single calibratable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Starting value
}

// ParamVector holds the set of all calibratable parameters, one per
// personality dimension.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard personality parameter set.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "openness", Min: 0, Max: 1, Default: 0.5},
			{Name: "conscientiousness", Min: 0, Max: 1, Default: 0.5},
			{Name: "risk_preference", Min: 0, Max: 1, Default: 0.5},
			{Name: "social_drive", Min: 0, Max: 1, Default: 0.5},
			{Name: "resilience", Min: 0, Max: 1, Default: 0.5},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the starting values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// Personality builds a Personality from parameter values.
// Order must match Specs order.
func (pv *ParamVector) Personality(values []float64) person.Personality {
	clamped := pv.Clamp(values)
	return person.Personality{
		Openness:          clamped[0],
		Conscientiousness: clamped[1],
		RiskPreference:    clamped[2],
		SocialDrive:       clamped[3],
		Resilience:        clamped[4],
	}
}

// Extract returns the parameter values of a Personality as a slice.
func (pv *ParamVector) Extract(p person.Personality) []float64 {
	return []float64{
		p.Openness,
		p.Conscientiousness,
		p.RiskPreference,
		p.SocialDrive,
		p.Resilience,
	}
}
