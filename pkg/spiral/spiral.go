// Package spiral defines the four tooth-edge curves of a globoid worm and
// samples them at uniform parameter steps.
//
// Each curve winds TeethInArc times around the torus axis while sweeping
// through the torus minor circle. The parameter u runs over [-1, 1].
package spiral

import (
	"math"

	"github.com/chazu/globoid/pkg/gear"
	"gonum.org/v1/gonum/spatial/r3"
)

// Role identifies one of the four tooth edges.
type Role int

const (
	TipTop Role = iota
	TipBottom
	RootTop
	RootBottom
)

// NumRoles is the number of tooth-edge curves in a run.
const NumRoles = 4

// Roles lists every role in curve index order.
var Roles = [NumRoles]Role{TipTop, TipBottom, RootTop, RootBottom}

func (r Role) String() string {
	switch r {
	case TipTop:
		return "tip-top"
	case TipBottom:
		return "tip-bottom"
	case RootTop:
		return "root-top"
	case RootBottom:
		return "root-bottom"
	default:
		return "unknown"
	}
}

// Label is the human-readable name used for sketches and reports.
func (r Role) Label() string {
	switch r {
	case TipTop:
		return "Tooth Tip, Top"
	case TipBottom:
		return "Tooth Tip, Bottom"
	case RootTop:
		return "Tooth Root, Top"
	case RootBottom:
		return "Tooth Root, Bottom"
	default:
		return "Unknown"
	}
}

// ParseRole returns the role whose String form is name.
func ParseRole(name string) (Role, bool) {
	for _, r := range Roles {
		if r.String() == name {
			return r, true
		}
	}
	return 0, false
}

// Valid reports whether r is one of the four roles.
func (r Role) Valid() bool {
	return r >= TipTop && r <= RootBottom
}

// Curve is one closed-form tooth-edge curve. It is an immutable value; all
// methods are pure.
type Curve struct {
	Role       Role
	BaseRadius float64 // ρ₀, the radius at u = 0 without falloff
	Delta      float64 // angular offset in the minor circle
	Falloff    float64 // 0 disables the radius taper
	MaxRadius  float64 // radius the taper approaches at u = ±1

	module      float64
	majorRadius float64
	angleScale  float64
	teethInArc  int
}

// New instantiates the four curves for c in role order.
func New(c gear.Constants) [NumRoles]Curve {
	mk := func(role Role, base, delta, falloff, max float64) Curve {
		return Curve{
			Role:        role,
			BaseRadius:  base,
			Delta:       delta,
			Falloff:     falloff,
			MaxRadius:   max,
			module:      c.Module,
			majorRadius: c.MajorRadius,
			angleScale:  c.AngleScale,
			teethInArc:  c.TeethInArc,
		}
	}
	tip, root := c.TipRadius(), c.RootRadius()
	return [NumRoles]Curve{
		mk(TipTop, tip, -c.DeltaTip, c.FalloffRate, root),
		mk(TipBottom, tip, c.DeltaTip, c.FalloffRate, root),
		mk(RootTop, root, -c.DeltaRoot, 0, 0),
		mk(RootBottom, root, c.DeltaRoot, 0, 0),
	}
}

// Radius returns the local minor-circle radius at u. Without falloff it is
// constant. With falloff it equals BaseRadius at u = 0 and blends toward
// EndRadius at u = ±1; powers are taken on |u| so fractional rates stay real.
func (c Curve) Radius(u float64) float64 {
	if c.Falloff <= 0 {
		return c.BaseRadius
	}
	return c.BaseRadius + (c.EndRadius()-c.BaseRadius)*c.blend(u)
}

// EndRadius is the radius reached at u = ±1: MaxRadius less a tenth of a
// module of tip clearance when falloff is enabled, BaseRadius otherwise.
func (c Curve) EndRadius() float64 {
	if c.Falloff <= 0 {
		return c.BaseRadius
	}
	return c.MaxRadius - 0.1*c.module
}

// blend is 6*(|u|^(4f)/2 - |u|^(6f)/3): 0 at u = 0, 1 at u = ±1, with zero
// slope at both ends.
func (c Curve) blend(u float64) float64 {
	a := math.Abs(u)
	return 6 * (math.Pow(a, 4*c.Falloff)/2 - math.Pow(a, 6*c.Falloff)/3)
}

// minorAngle is the position in the torus minor circle at u.
func (c Curve) minorAngle(u float64) float64 {
	return u*math.Pi/c.angleScale + c.Delta
}

// axisAngle is the rotation about the torus axis at u.
func (c Curve) axisAngle(u float64) float64 {
	return u * math.Pi * float64(c.teethInArc)
}

// AxisDistance is the distance of At(u) from the torus axis,
// R - radius(u)*cos(u*π/angleScale + δ).
func (c Curve) AxisDistance(u float64) float64 {
	return c.majorRadius - c.Radius(u)*math.Cos(c.minorAngle(u))
}

// At evaluates the curve at parameter u.
func (c Curve) At(u float64) r3.Vec {
	rho := c.Radius(u)
	phi := c.minorAngle(u)
	d := c.majorRadius - rho*math.Cos(phi)
	theta := c.axisAngle(u)
	return r3.Vec{
		X: -d * math.Cos(theta),
		Y: -d * math.Sin(theta),
		Z: -rho * math.Sin(phi),
	}
}
