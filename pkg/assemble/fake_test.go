package assemble_test

import (
	"fmt"

	"github.com/chazu/globoid/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// recorder is a kernel that builds nothing and records every call. An
// operation listed in fail returns that error instead.
type recorder struct {
	calls []string
	fail  map[string]error

	lofts []loftCall
}

type loftCall struct {
	a, b  kernel.Curve
	rails int
}

var _ kernel.Kernel = (*recorder)(nil)

type fakePlane struct{}

func (fakePlane) Name() string { return "fake" }

type fakeCurve struct {
	start, end r3.Vec
}

func (c *fakeCurve) Start() r3.Vec { return c.start }
func (c *fakeCurve) End() r3.Vec   { return c.end }

type fakeSurface struct{}

func (fakeSurface) BoundingBox() (min, max r3.Vec) { return }

type fakeShell struct{ fakeSurface }

func (fakeShell) Closed() bool           { return true }
func (fakeShell) Triangles() [][3]r3.Vec { return nil }

func (r *recorder) record(op string) error {
	r.calls = append(r.calls, op)
	if err, ok := r.fail[op]; ok {
		return fmt.Errorf("recorder %s: %w", op, err)
	}
	return nil
}

func (r *recorder) count(op string) int {
	n := 0
	for _, c := range r.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (r *recorder) SketchPlane(name string) (kernel.Plane, error) {
	return fakePlane{}, r.record("plane")
}

func (r *recorder) CurveThroughPoints(p kernel.Plane, pts []r3.Vec) (kernel.Curve, error) {
	if err := r.record("curve"); err != nil {
		return nil, err
	}
	return &fakeCurve{start: pts[0], end: pts[len(pts)-1]}, nil
}

func (r *recorder) LineSegment(p kernel.Plane, a, b r3.Vec) (kernel.Curve, error) {
	if err := r.record("line"); err != nil {
		return nil, err
	}
	return &fakeCurve{start: a, end: b}, nil
}

func (r *recorder) Loft(a, b kernel.Curve, rails []kernel.Curve) (kernel.Surface, error) {
	if err := r.record("loft"); err != nil {
		return nil, err
	}
	r.lofts = append(r.lofts, loftCall{a: a, b: b, rails: len(rails)})
	return fakeSurface{}, nil
}

func (r *recorder) Patch(loop []kernel.Curve) (kernel.Surface, error) {
	if err := r.record("patch"); err != nil {
		return nil, err
	}
	return fakeSurface{}, nil
}

func (r *recorder) Stitch(surfaces []kernel.Surface, tol float64) (kernel.Shell, error) {
	if err := r.record("stitch"); err != nil {
		return nil, err
	}
	return fakeShell{}, nil
}

func (r *recorder) ToMesh(s kernel.Shell) (*kernel.Mesh, error) {
	return &kernel.Mesh{}, r.record("mesh")
}
