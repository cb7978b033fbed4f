package assemble_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/chazu/globoid/pkg/assemble"
	"github.com/chazu/globoid/pkg/gear"
	"github.com/chazu/globoid/pkg/kernel"
	"github.com/chazu/globoid/pkg/kernel/facet"
	"github.com/chazu/globoid/pkg/spiral"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func baseParams() gear.Parameters {
	return gear.Parameters{Module: 0.2, ArcAngle: 90, TeethInArc: 5, RefRadius: 1.2}
}

func TestGenerateScenarios(t *testing.T) {
	tests := []struct {
		name      string
		arc       float64
		teeth     int
		wantTeeth int
		wantDist  float64
	}{
		{"90 degrees, 5 teeth", 90, 5, 20, 3.2},
		{"100 degrees, 5 teeth", 100, 5, 18, 3.0},
		{"90 degrees, 3 teeth", 90, 3, 12, 2.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseParams()
			p.ArcAngle, p.TeethInArc = tt.arc, tt.teeth

			k := facet.New()
			plane, err := k.SketchPlane("xy")
			require.NoError(t, err)

			res, err := assemble.Generate(k, plane, p, assemble.Options{})
			require.NoError(t, err)

			assert.Equal(t, tt.wantTeeth, res.Constants.ToothCount)
			assert.InDelta(t, tt.wantDist, res.CenterDistance, 1e-9)
			assert.Len(t, res.Lofts, 4)
			assert.NotNil(t, res.Patches[0])
			assert.NotNil(t, res.Patches[1])

			require.NotNil(t, res.Shell)
			assert.True(t, res.Shell.Closed())
			shell := res.Shell.(*facet.Shell)
			assert.Equal(t, 2, shell.EulerCharacteristic())
			assert.Greater(t, shell.Volume(), 0.0)

			n := spiral.DefaultSamples
			assert.Equal(t, facet.Stats{
				Planes:  1,
				Splines: 4,
				Lines:   4*(n+1) + 8,
				Lofts:   4,
				Patches: 2,
				Shells:  1,
			}, k.Stats())

			mesh, err := k.ToMesh(res.Shell)
			require.NoError(t, err)
			assert.Equal(t, shell.FaceCount(), mesh.TriangleCount())
		})
	}
}

// TestGenerateClosedShells runs the facet kernel across parameter sets whose
// rails come close to the stitch tolerance.
func TestGenerateClosedShells(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*gear.Parameters)
	}{
		{"falloff 1", func(p *gear.Parameters) { p.FalloffRate = 1 }},
		{"falloff 2", func(p *gear.Parameters) { p.FalloffRate = 2 }},
		{"falloff 5", func(p *gear.Parameters) { p.FalloffRate = 5 }},
		{"module 0.1", func(p *gear.Parameters) { p.Module = 0.1 }},
		{"module 0.15, falloff 1", func(p *gear.Parameters) { p.Module, p.FalloffRate = 0.15, 1 }},
		{"120 degrees, 1 tooth", func(p *gear.Parameters) { p.ArcAngle, p.TeethInArc = 120, 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseParams()
			tt.mutate(&p)

			k := facet.New()
			plane, err := k.SketchPlane("xy")
			require.NoError(t, err)

			res, err := assemble.Generate(k, plane, p, assemble.Options{})
			require.NoError(t, err)

			require.NotNil(t, res.Shell)
			assert.True(t, res.Shell.Closed())
			shell := res.Shell.(*facet.Shell)
			assert.Equal(t, 2, shell.EulerCharacteristic())
			assert.Greater(t, shell.Volume(), 0.0)
		})
	}
}

func TestGenerateShellStaysInsideTorus(t *testing.T) {
	k := facet.New()
	plane, _ := k.SketchPlane("xy")
	res, err := assemble.Generate(k, plane, baseParams(), assemble.Options{})
	require.NoError(t, err)

	// Every vertex lies between the tip and root radii of the minor circle
	// around the torus core, up to spline error between samples.
	c := res.Constants
	for _, tri := range res.Shell.Triangles() {
		for _, p := range tri {
			core := r3.Scale(c.MajorRadius/r3.Norm(r3.Vec{X: p.X, Y: p.Y}), r3.Vec{X: p.X, Y: p.Y})
			rho := r3.Norm(r3.Sub(p, core))
			assert.GreaterOrEqual(t, rho, c.TipRadius()-0.15)
			assert.LessOrEqual(t, rho, c.RootRadius()+0.15)
		}
	}
}

func TestGenerateCallSequence(t *testing.T) {
	rec := &recorder{}
	res, err := assemble.Generate(rec, fakePlane{}, baseParams(), assemble.Options{Samples: 10})
	require.NoError(t, err)

	assert.Equal(t, 4, rec.count("curve"))
	assert.Equal(t, 4*11+2*4, rec.count("line"))
	assert.Equal(t, 4, rec.count("loft"))
	assert.Equal(t, 2, rec.count("patch"))
	assert.Equal(t, 1, rec.count("stitch"))
	assert.Equal(t, "stitch", rec.calls[len(rec.calls)-1])
	for i := 0; i < 4; i++ {
		assert.Equal(t, "curve", rec.calls[i])
	}

	// Each loft gets its pair's sections and one rail per sample.
	for i, pair := range assemble.DefaultPairs() {
		call := rec.lofts[i]
		assert.Same(t, res.Sections[pair.A], call.a, "loft %d section A", i)
		assert.Same(t, res.Sections[pair.B], call.b, "loft %d section B", i)
		assert.Equal(t, 11, call.rails)
	}
}

func TestGenerateValidatesBeforeKernelCalls(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*gear.Parameters, *assemble.Options)
		want   error
	}{
		{"non-integral tooth count", func(p *gear.Parameters, _ *assemble.Options) { p.ArcAngle = 91 }, gear.ErrInvalidGearGeometry},
		{"falloff between 0 and 1", func(p *gear.Parameters, _ *assemble.Options) { p.FalloffRate = 0.5 }, gear.ErrInvalidFalloffRate},
		{"ref radius too small", func(p *gear.Parameters, _ *assemble.Options) { p.RefRadius = 0.1 }, gear.ErrInvalidGearGeometry},
		{"odd sample count", func(_ *gear.Parameters, o *assemble.Options) { o.Samples = 51 }, spiral.ErrInvalidSampleCount},
		{"bad pairs", func(_ *gear.Parameters, o *assemble.Options) { o.Pairs = assemble.DefaultPairs()[:3] }, assemble.ErrInvalidPairs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseParams()
			var opts assemble.Options
			tt.mutate(&p, &opts)

			rec := &recorder{}
			res, err := assemble.Generate(rec, fakePlane{}, p, opts)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, res)
			assert.Empty(t, rec.calls, "no kernel call may precede validation")
		})
	}

	rec := &recorder{}
	_, err := assemble.Generate(rec, fakePlane{}, baseParams(), assemble.Options{Tolerance: -1})
	assert.Error(t, err)
	assert.Empty(t, rec.calls)
}

func TestGenerateSurfacesKernelFailures(t *testing.T) {
	tests := []struct {
		op   string
		err  error
		last string
	}{
		{"loft", kernel.ErrLoftConstructionFailed, "loft"},
		{"patch", kernel.ErrOpenBoundaryLoop, "patch"},
		{"stitch", kernel.ErrStitchIncomplete, "stitch"},
		{"line", kernel.ErrDegenerateGeometry, "line"},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			rec := &recorder{fail: map[string]error{tt.op: tt.err}}
			res, err := assemble.Generate(rec, fakePlane{}, baseParams(), assemble.Options{})
			assert.ErrorIs(t, err, tt.err)
			assert.Nil(t, res)
			assert.Equal(t, 1, rec.count(tt.op), "failed operation is not retried")
			assert.Equal(t, tt.last, rec.calls[len(rec.calls)-1], "nothing runs after the failure")
		})
	}
}

func TestGenerateWithFalloff(t *testing.T) {
	p := baseParams()
	p.FalloffRate = 1
	rec := &recorder{}
	res, err := assemble.Generate(rec, fakePlane{}, p, assemble.Options{})
	require.NoError(t, err)

	tip := res.Curves[spiral.TipTop]
	assert.Equal(t, tip.BaseRadius, tip.Radius(0))
	assert.InDelta(t, res.Constants.RootRadius()-0.1*p.Module, tip.Radius(1), 1e-12)
	assert.Equal(t, res.Curves[spiral.RootTop].BaseRadius, res.Curves[spiral.RootTop].Radius(1))
}

func TestGenerateWritesEquations(t *testing.T) {
	var buf bytes.Buffer
	_, err := assemble.Generate(&recorder{}, fakePlane{}, baseParams(), assemble.Options{Equations: &buf})
	require.NoError(t, err)
	out := buf.String()
	for _, role := range spiral.Roles {
		assert.Contains(t, out, role.Label())
	}
	assert.Equal(t, 4, strings.Count(out, "x(u) ="))
}

func TestValidatePairs(t *testing.T) {
	tt, tb, rt, rb := spiral.TipTop, spiral.TipBottom, spiral.RootTop, spiral.RootBottom
	tests := []struct {
		name  string
		pairs []assemble.Pair
		ok    bool
	}{
		{"default", assemble.DefaultPairs(), true},
		{"reversed cycle", []assemble.Pair{{tt, rt}, {rt, rb}, {rb, tb}, {tb, tt}}, true},
		{"rotated start", []assemble.Pair{{rb, rt}, {rt, tt}, {tt, tb}, {tb, rb}}, true},
		{"too few", []assemble.Pair{{tt, tb}, {tb, tt}}, false},
		{"self pair", []assemble.Pair{{tt, tt}, {tt, tb}, {tb, rb}, {rb, tt}}, false},
		{"broken chain", []assemble.Pair{{tt, tb}, {rb, rt}, {tb, rb}, {rt, tt}}, false},
		{"two cycles", []assemble.Pair{{tt, tb}, {tb, tt}, {rt, rb}, {rb, rt}}, false},
		{"unknown role", []assemble.Pair{{tt, tb}, {tb, 7}, {7, rt}, {rt, tt}}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := assemble.ValidatePairs(tc.pairs)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, assemble.ErrInvalidPairs)
			}
		})
	}
}

func sampled(t *testing.T, n int) [spiral.NumRoles]spiral.SampledCurve {
	t.Helper()
	c, err := gear.Derive(baseParams())
	require.NoError(t, err)
	s, err := spiral.SampleAll(spiral.New(c), n)
	require.NoError(t, err)
	return s
}

func TestBuildRails(t *testing.T) {
	s := sampled(t, 8)
	pair := assemble.Pair{A: spiral.TipTop, B: spiral.RootTop}
	rs, err := assemble.BuildRails(pair, s[pair.A], s[pair.B])
	require.NoError(t, err)

	require.Len(t, rs.Rails, 9)
	for j, r := range rs.Rails {
		assert.Equal(t, j, r.Index)
		assert.Equal(t, spiral.Param(j, 8), r.U)
		assert.Equal(t, s[pair.A].Points[j], r.A)
		assert.Equal(t, s[pair.B].Points[j], r.B)
	}
	assert.Equal(t, -1.0, rs.First().U)
	assert.Equal(t, 1.0, rs.Last().U)
}

func TestBuildRailsRejectsCoincidentPoints(t *testing.T) {
	s := sampled(t, 4)
	_, err := assemble.BuildRails(assemble.Pair{A: spiral.TipTop, B: spiral.TipBottom}, s[spiral.TipTop], s[spiral.TipTop])
	assert.ErrorIs(t, err, kernel.ErrDegenerateGeometry)

	short := sampled(t, 2)
	_, err = assemble.BuildRails(assemble.Pair{A: spiral.TipTop, B: spiral.TipBottom}, s[spiral.TipTop], short[spiral.TipBottom])
	assert.Error(t, err)
}

func TestBoundaryLoops(t *testing.T) {
	s := sampled(t, 6)
	var sets []assemble.RailSet
	for _, pair := range assemble.DefaultPairs() {
		rs, err := assemble.BuildRails(pair, s[pair.A], s[pair.B])
		require.NoError(t, err)
		sets = append(sets, rs)
	}

	start, end, err := assemble.BoundaryLoops(sets)
	require.NoError(t, err)
	require.Len(t, start, 4)
	require.Len(t, end, 4)
	for i, pair := range assemble.DefaultPairs() {
		assert.Equal(t, s[pair.A].Points[0], start[i])
		assert.Equal(t, s[pair.A].Points[6], end[i])
	}

	// Each loop point is also the B end of the previous pair's rail, so
	// consecutive loop edges coincide with the first and last rails.
	for i := range sets {
		prev := sets[(i+len(sets)-1)%len(sets)]
		assert.Equal(t, prev.First().B, start[i])
		assert.Equal(t, prev.Last().B, end[i])
	}
}

func TestBoundaryLoopsRejectsShortOrMisalignedSets(t *testing.T) {
	s := sampled(t, 6)
	pairs := assemble.DefaultPairs()
	build := func(p assemble.Pair, a, b spiral.SampledCurve) assemble.RailSet {
		rs, err := assemble.BuildRails(p, a, b)
		require.NoError(t, err)
		return rs
	}

	two := []assemble.RailSet{
		build(pairs[0], s[pairs[0].A], s[pairs[0].B]),
		build(pairs[1], s[pairs[1].A], s[pairs[1].B]),
	}
	_, _, err := assemble.BoundaryLoops(two)
	assert.ErrorIs(t, err, kernel.ErrOpenBoundaryLoop)

	_, _, err = assemble.BoundaryLoops(nil)
	assert.ErrorIs(t, err, kernel.ErrOpenBoundaryLoop)

	// A truncated set ends at u=0 while the others end at u=1.
	truncated := build(pairs[2], s[pairs[2].A], s[pairs[2].B])
	truncated.Rails = truncated.Rails[:4]
	sets := []assemble.RailSet{two[0], two[1], truncated, build(pairs[3], s[pairs[3].A], s[pairs[3].B])}
	_, _, err = assemble.BoundaryLoops(sets)
	assert.Error(t, err)
}
