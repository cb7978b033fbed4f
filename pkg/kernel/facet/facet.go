// Package facet implements the kernel.Kernel interface as a pure-Go
// faceted (polyhedral) modeler. Curves through points are natural cubic
// splines, lofts are ruled triangle strips guided by their rails, patches
// are fans over their boundary loop, and stitching welds the boundaries of
// neighbouring surfaces within the merge tolerance and verifies the result
// is a closed 2-manifold.
package facet

import (
	"fmt"
	"math"

	"github.com/chazu/globoid/pkg/kernel"
	"github.com/chazu/globoid/pkg/kernel/sdfx"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/spatial/r3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

// DefaultSubdivisions is the number of loft facets between adjacent rails.
const DefaultSubdivisions = 2

// coincidence is the distance below which two points are the same point.
const coincidence = 1e-9

// Kernel implements kernel.Kernel. It records every entity it creates so a
// caller can inspect or discard partial geometry after a failed run.
// A Kernel is not safe for concurrent use.
type Kernel struct {
	// Subdivisions controls how many facets each loft span gets along the
	// section splines. Values below 1 are treated as 1.
	Subdivisions int

	planes   []*plane
	curves   []*curve
	surfaces []*surface
	shells   []*Shell
}

// New returns a new Kernel with default subdivisions.
func New() *Kernel {
	return &Kernel{Subdivisions: DefaultSubdivisions}
}

// Stats counts the entities created so far.
type Stats struct {
	Planes  int
	Splines int
	Lines   int
	Lofts   int
	Patches int
	Shells  int
}

// Stats returns the number of entities created since New or Reset.
func (k *Kernel) Stats() Stats {
	s := Stats{Planes: len(k.planes), Shells: len(k.shells)}
	for _, c := range k.curves {
		if c.line {
			s.Lines++
		} else {
			s.Splines++
		}
	}
	for _, sf := range k.surfaces {
		switch sf.kind {
		case surfaceLoft:
			s.Lofts++
		case surfacePatch:
			s.Patches++
		}
	}
	return s
}

// Reset discards every entity. Handles obtained earlier become foreign to
// the kernel and are rejected by later operations.
func (k *Kernel) Reset() {
	for _, p := range k.planes {
		p.k = nil
	}
	for _, c := range k.curves {
		c.k = nil
	}
	for _, s := range k.surfaces {
		s.k = nil
	}
	for _, s := range k.shells {
		s.k = nil
	}
	k.planes, k.curves, k.surfaces, k.shells = nil, nil, nil, nil
}

func (k *Kernel) subdivisions() int {
	if k.Subdivisions < 1 {
		return 1
	}
	return k.Subdivisions
}

// ---------------------------------------------------------------------------
// Planes and curves
// ---------------------------------------------------------------------------

type plane struct {
	k    *Kernel
	name string
}

func (p *plane) Name() string { return p.name }

// curve is a spline through its points, or a straight line when line is set.
// It is parameterized by point index: t in [0, len(points)-1].
type curve struct {
	k      *Kernel
	plane  *plane
	points []r3.Vec
	fit    [3]interp.Predictor
	line   bool
}

func (c *curve) Start() r3.Vec { return c.points[0] }
func (c *curve) End() r3.Vec   { return c.points[len(c.points)-1] }

// at evaluates the curve at t. Integral t returns the stored point exactly so
// that neighbouring lofts sharing a section produce identical vertices.
func (c *curve) at(t float64) r3.Vec {
	if i := int(t); float64(i) == t && i >= 0 && i < len(c.points) {
		return c.points[i]
	}
	if c.line {
		return r3.Add(c.points[0], r3.Scale(t, r3.Sub(c.points[1], c.points[0])))
	}
	return r3.Vec{
		X: c.fit[0].Predict(t),
		Y: c.fit[1].Predict(t),
		Z: c.fit[2].Predict(t),
	}
}

// SketchPlane returns a named planar reference owned by this kernel.
func (k *Kernel) SketchPlane(name string) (kernel.Plane, error) {
	p := &plane{k: k, name: name}
	k.planes = append(k.planes, p)
	return p, nil
}

func (k *Kernel) ownPlane(p kernel.Plane) (*plane, error) {
	fp, ok := p.(*plane)
	if !ok || fp.k != k {
		return nil, fmt.Errorf("facet: plane %v was not created by this kernel", p)
	}
	return fp, nil
}

func (k *Kernel) ownCurve(c kernel.Curve) (*curve, error) {
	fc, ok := c.(*curve)
	if !ok || fc.k != k {
		return nil, fmt.Errorf("facet: curve %T was not created by this kernel", c)
	}
	return fc, nil
}

// CurveThroughPoints fits an interpolating spline through points in order.
// Two points give a straight segment; three or more a natural cubic spline
// per coordinate.
func (k *Kernel) CurveThroughPoints(p kernel.Plane, points []r3.Vec) (kernel.Curve, error) {
	fp, err := k.ownPlane(p)
	if err != nil {
		return nil, err
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("facet: spline needs at least 2 points, got %d: %w", len(points), kernel.ErrDegenerateGeometry)
	}
	for i := 1; i < len(points); i++ {
		if r3.Norm(r3.Sub(points[i], points[i-1])) <= coincidence {
			return nil, fmt.Errorf("facet: spline points %d and %d coincide: %w", i-1, i, kernel.ErrDegenerateGeometry)
		}
	}

	c := &curve{k: k, plane: fp, points: append([]r3.Vec(nil), points...)}
	if c.fit, err = fitSpline(c.points); err != nil {
		return nil, fmt.Errorf("facet: fit spline: %w", err)
	}
	k.curves = append(k.curves, c)
	return c, nil
}

func fitSpline(points []r3.Vec) ([3]interp.Predictor, error) {
	var out [3]interp.Predictor
	n := len(points)
	ts := make([]float64, n)
	cols := [3][]float64{make([]float64, n), make([]float64, n), make([]float64, n)}
	for i, p := range points {
		ts[i] = float64(i)
		cols[0][i], cols[1][i], cols[2][i] = p.X, p.Y, p.Z
	}
	for d, ys := range cols {
		var f interp.FittablePredictor
		if n >= 3 {
			f = &interp.NaturalCubic{}
		} else {
			f = &interp.PiecewiseLinear{}
		}
		if err := f.Fit(ts, ys); err != nil {
			return out, err
		}
		out[d] = f
	}
	return out, nil
}

// LineSegment creates a straight line from a to b.
func (k *Kernel) LineSegment(p kernel.Plane, a, b r3.Vec) (kernel.Curve, error) {
	fp, err := k.ownPlane(p)
	if err != nil {
		return nil, err
	}
	if r3.Norm(r3.Sub(b, a)) <= coincidence {
		return nil, fmt.Errorf("facet: line endpoints coincide at %v: %w", a, kernel.ErrDegenerateGeometry)
	}
	c := &curve{k: k, plane: fp, points: []r3.Vec{a, b}, line: true}
	k.curves = append(k.curves, c)
	return c, nil
}

// ---------------------------------------------------------------------------
// Surfaces
// ---------------------------------------------------------------------------

type surfaceKind int

const (
	surfaceLoft surfaceKind = iota
	surfacePatch
)

type surface struct {
	k    *Kernel
	kind surfaceKind
	tris [][3]r3.Vec
}

// BoundingBox returns the axis-aligned bounding box.
func (s *surface) BoundingBox() (min, max r3.Vec) {
	return boundingBox(s.tris)
}

// Triangles returns the facets of the surface.
func (s *surface) Triangles() [][3]r3.Vec {
	return s.tris
}

func (k *Kernel) ownSurface(s kernel.Surface) (*surface, error) {
	fs, ok := s.(*surface)
	if !ok || fs.k != k {
		return nil, fmt.Errorf("facet: surface %T was not created by this kernel", s)
	}
	return fs, nil
}

func boundingBox(tris [][3]r3.Vec) (min, max r3.Vec) {
	if len(tris) == 0 {
		return r3.Vec{}, r3.Vec{}
	}
	min = r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max = r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, t := range tris {
		for _, v := range t {
			min = r3.Vec{X: math.Min(min.X, v.X), Y: math.Min(min.Y, v.Y), Z: math.Min(min.Z, v.Z)}
			max = r3.Vec{X: math.Max(max.X, v.X), Y: math.Max(max.Y, v.Y), Z: math.Max(max.Z, v.Z)}
		}
	}
	return min, max
}

func triangleArea(t [3]r3.Vec) float64 {
	return r3.Norm(r3.Cross(r3.Sub(t[1], t[0]), r3.Sub(t[2], t[0]))) / 2
}

// ToMesh converts a stitched shell to a flat-shaded triangle mesh.
func (k *Kernel) ToMesh(s kernel.Shell) (*kernel.Mesh, error) {
	sh, ok := s.(*Shell)
	if !ok || sh.k != k {
		return nil, fmt.Errorf("facet: shell %T was not created by this kernel", s)
	}
	return sdfx.ToMesh(sdfx.Triangles(sh, 1), ""), nil
}
