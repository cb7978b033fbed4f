package assemble

import (
	"fmt"
	"io"

	"github.com/chazu/globoid/pkg/gear"
	"github.com/chazu/globoid/pkg/kernel"
	"github.com/chazu/globoid/pkg/spiral"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultTolerance is the stitch merge distance used when Options leaves it
// unset, roughly 1mm at the usual modeling scale.
const DefaultTolerance = 0.1

// Options tune a generation run. The zero value uses the defaults.
type Options struct {
	Samples   int     // N; 0 means spiral.DefaultSamples
	Tolerance float64 // stitch tolerance; 0 means DefaultTolerance
	Pairs     []Pair  // nil means DefaultPairs()

	// Equations, when set, receives the symbolic form of each curve.
	Equations io.Writer
}

func (o Options) withDefaults() Options {
	if o.Samples == 0 {
		o.Samples = spiral.DefaultSamples
	}
	if o.Tolerance == 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.Pairs == nil {
		o.Pairs = DefaultPairs()
	}
	return o
}

// Result is everything one run built. Kernel handles stay owned by the
// kernel that created them.
type Result struct {
	Constants      gear.Constants
	CenterDistance float64

	Curves   [spiral.NumRoles]spiral.Curve
	Samples  [spiral.NumRoles]spiral.SampledCurve
	Sections [spiral.NumRoles]kernel.Curve

	RailSets []RailSet
	Lofts    []kernel.Surface

	StartLoop []r3.Vec
	EndLoop   []r3.Vec
	Patches   [2]kernel.Surface

	Shell kernel.Shell
}

// Generate builds the worm tooth shell for p on plane using k.
//
// All inputs are validated and every rail and boundary point is computed
// before the first kernel call, so invalid parameters leave the kernel
// untouched. A kernel failure is returned wrapped and is not retried; any
// entities already created stay in k for the caller to discard.
func Generate(k kernel.Kernel, plane kernel.Plane, p gear.Parameters, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	c, err := gear.Derive(p)
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	if !(opts.Tolerance > 0) {
		return nil, fmt.Errorf("assemble: stitch tolerance must be positive, got %g", opts.Tolerance)
	}
	if err := ValidatePairs(opts.Pairs); err != nil {
		return nil, err
	}

	res := &Result{Constants: c, CenterDistance: c.CenterDistance}
	res.Curves = spiral.New(c)
	if opts.Equations != nil {
		if err := spiral.WriteEquations(opts.Equations, res.Curves); err != nil {
			return nil, fmt.Errorf("assemble: write equations: %w", err)
		}
	}

	if res.Samples, err = spiral.SampleAll(res.Curves, opts.Samples); err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	for _, pair := range opts.Pairs {
		rs, err := BuildRails(pair, res.Samples[pair.A], res.Samples[pair.B])
		if err != nil {
			return nil, err
		}
		res.RailSets = append(res.RailSets, rs)
	}
	if res.StartLoop, res.EndLoop, err = BoundaryLoops(res.RailSets); err != nil {
		return nil, err
	}

	// Kernel construction.
	for _, role := range spiral.Roles {
		sc, err := k.CurveThroughPoints(plane, res.Samples[role].Points)
		if err != nil {
			return nil, fmt.Errorf("assemble: curve %s: %w", role, err)
		}
		res.Sections[role] = sc
	}

	for _, rs := range res.RailSets {
		surf, err := loft(k, plane, res.Sections, rs)
		if err != nil {
			return nil, err
		}
		res.Lofts = append(res.Lofts, surf)
	}

	for i, loop := range [2][]r3.Vec{res.StartLoop, res.EndLoop} {
		patch, err := capLoop(k, plane, loop)
		if err != nil {
			return nil, fmt.Errorf("assemble: %s patch: %w", loopName(i), err)
		}
		res.Patches[i] = patch
	}

	surfaces := append(append([]kernel.Surface(nil), res.Lofts...), res.Patches[:]...)
	shell, err := k.Stitch(surfaces, opts.Tolerance)
	if err != nil {
		return nil, fmt.Errorf("assemble: stitch %d surfaces at tolerance %g: %w", len(surfaces), opts.Tolerance, err)
	}
	res.Shell = shell
	return res, nil
}

// loft creates a line per rail and lofts the pair's sections through them.
func loft(k kernel.Kernel, plane kernel.Plane, sections [spiral.NumRoles]kernel.Curve, rs RailSet) (kernel.Surface, error) {
	lines := make([]kernel.Curve, len(rs.Rails))
	for i, r := range rs.Rails {
		l, err := k.LineSegment(plane, r.A, r.B)
		if err != nil {
			return nil, fmt.Errorf("assemble: %s rail %d: %w", rs.Pair, r.Index, err)
		}
		lines[i] = l
	}
	surf, err := k.Loft(sections[rs.Pair.A], sections[rs.Pair.B], lines)
	if err != nil {
		return nil, fmt.Errorf("assemble: loft %s: %w", rs.Pair, err)
	}
	return surf, nil
}

// capLoop joins the loop points in order, closes back to the first and patches
// the result.
func capLoop(k kernel.Kernel, plane kernel.Plane, loop []r3.Vec) (kernel.Surface, error) {
	edges := make([]kernel.Curve, len(loop))
	for i, p := range loop {
		l, err := k.LineSegment(plane, p, loop[(i+1)%len(loop)])
		if err != nil {
			return nil, err
		}
		edges[i] = l
	}
	return k.Patch(edges)
}

func loopName(i int) string {
	if i == 0 {
		return "start"
	}
	return "end"
}
