// Package gear turns the five globoid worm design inputs into the torus
// radii, tooth widths and angular offsets shared by every tooth-edge curve.
package gear

import (
	"fmt"
	"math"
)

// PressureAngle is the fixed tooth pressure angle in degrees.
const PressureAngle = 20.0

// integralTolerance bounds the relative float noise accepted when checking
// that the total tooth count is a whole number (e.g. 360/100*5).
const integralTolerance = 1e-9

// Parameters are the gear-design inputs for one generation run.
type Parameters struct {
	Module      float64 `json:"module"`
	ArcAngle    float64 `json:"arc_angle"` // degrees of the torus covered by the visible arc
	TeethInArc  int     `json:"teeth_in_arc"`
	RefRadius   float64 `json:"ref_radius"`   // worm waist reference radius
	FalloffRate float64 `json:"falloff_rate"` // 0 disables falloff
}

// Constants are the derived geometric values. They are pure functions of
// Parameters and are never mutated after Derive returns.
type Constants struct {
	Parameters

	ToothCount       int     `json:"tooth_count"`
	CenterDistance   float64 `json:"center_distance"`
	MinorRadius      float64 `json:"minor_radius"` // r
	MajorRadius      float64 `json:"major_radius"` // R
	AngleScale       float64 `json:"angle_scale"`
	ToothTopWidth    float64 `json:"tooth_top_width"`
	ToothBottomWidth float64 `json:"tooth_bottom_width"`
	DeltaTip         float64 `json:"delta_tip"`
	DeltaRoot        float64 `json:"delta_root"`
}

// DefaultParameters is a 20-tooth worm over a 90 degree arc, without falloff.
func DefaultParameters() Parameters {
	return Parameters{Module: 0.2, ArcAngle: 90, TeethInArc: 5, RefRadius: 1.2}
}

// TotalTeeth returns (360/ArcAngle)*TeethInArc without rounding.
func (p Parameters) TotalTeeth() float64 {
	return (360 / p.ArcAngle) * float64(p.TeethInArc)
}

// Validate checks the parameters in the order the derivation needs them and
// returns the first violation as a *ValidationError.
func (p Parameters) Validate() error {
	if !(p.Module > 0) {
		return invalidGeometry("module", fmt.Sprintf("must be greater than 0, got %g", p.Module))
	}
	if !(p.ArcAngle > 0 && p.ArcAngle < 180) {
		return invalidGeometry("arc_angle", fmt.Sprintf("must be >0 and <180 degrees, got %g", p.ArcAngle))
	}
	if p.TeethInArc <= 0 {
		return invalidGeometry("teeth_in_arc", fmt.Sprintf("must be positive, got %d", p.TeethInArc))
	}
	total := p.TotalTeeth()
	if !isIntegral(total) {
		return invalidGeometry("teeth_in_arc",
			fmt.Sprintf("total number of teeth (360/%g)*%d = %.6f must be an integer", p.ArcAngle, p.TeethInArc, total))
	}
	if !(p.RefRadius >= 2*p.Module) {
		return invalidGeometry("ref_radius",
			fmt.Sprintf("must be at least 2*module (%g), got %g", 2*p.Module, p.RefRadius))
	}
	if p.FalloffRate != 0 && !(p.FalloffRate >= 1) {
		return &ValidationError{
			Field:   "falloff_rate",
			Message: fmt.Sprintf("must be 0 or >= 1, got %g", p.FalloffRate),
			Err:     ErrInvalidFalloffRate,
		}
	}
	return nil
}

func isIntegral(v float64) bool {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return false
	}
	return math.Abs(v-math.Round(v)) <= integralTolerance*math.Max(1, math.Abs(v))
}

// Derive validates p and computes the constants used by every curve.
func Derive(p Parameters) (Constants, error) {
	if err := p.Validate(); err != nil {
		return Constants{}, err
	}

	m := p.Module
	n := int(math.Round(p.TotalTeeth()))
	alpha := PressureAngle * math.Pi / 180

	top := m * (math.Pi/2 - 2*math.Tan(alpha))
	bottom := top + 2*m*2.25*math.Tan(alpha)

	r := m * float64(n) / 2

	return Constants{
		Parameters:       p,
		ToothCount:       n,
		CenterDistance:   p.RefRadius + m*float64(n)/2,
		MinorRadius:      r,
		MajorRadius:      p.RefRadius + r,
		AngleScale:       360 / p.ArcAngle,
		ToothTopWidth:    top,
		ToothBottomWidth: bottom,
		DeltaTip:         math.Atan(top / (2 * (r - m))),
		DeltaRoot:        math.Atan(bottom / (2 * (r + 1.25*m))),
	}, nil
}

// TipRadius is the base radius of the tooth-tip curves, r - module.
func (c Constants) TipRadius() float64 {
	return c.MinorRadius - c.Module
}

// RootRadius is the base radius of the tooth-root curves, r + 1.25*module.
func (c Constants) RootRadius() float64 {
	return c.MinorRadius + 1.25*c.Module
}
