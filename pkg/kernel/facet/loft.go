package facet

import (
	"fmt"

	"github.com/chazu/globoid/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Loft builds a ruled surface between two sections. Rail i must run from
// point i of sectionA to point i of sectionB; the surface passes through
// every rail and is straight across each cross-section.
func (k *Kernel) Loft(sectionA, sectionB kernel.Curve, rails []kernel.Curve) (kernel.Surface, error) {
	a, err := k.ownCurve(sectionA)
	if err != nil {
		return nil, err
	}
	b, err := k.ownCurve(sectionB)
	if err != nil {
		return nil, err
	}
	n := len(a.points)
	if len(b.points) != n {
		return nil, fmt.Errorf("facet: loft sections have %d and %d points: %w",
			n, len(b.points), kernel.ErrLoftConstructionFailed)
	}
	if len(rails) != n {
		return nil, fmt.Errorf("facet: loft has %d rails for %d section points: %w",
			len(rails), n, kernel.ErrLoftConstructionFailed)
	}

	for i, r := range rails {
		rc, err := k.ownCurve(r)
		if err != nil {
			return nil, err
		}
		if !rc.line {
			return nil, fmt.Errorf("facet: loft rail %d is not a line: %w", i, kernel.ErrLoftConstructionFailed)
		}
		if r3.Norm(r3.Sub(rc.End(), rc.Start())) <= coincidence {
			return nil, fmt.Errorf("facet: loft rail %d has zero length: %w", i, kernel.ErrDegenerateGeometry)
		}
		if r3.Norm(r3.Sub(rc.Start(), a.points[i])) > coincidence ||
			r3.Norm(r3.Sub(rc.End(), b.points[i])) > coincidence {
			return nil, fmt.Errorf("facet: loft rail %d does not connect the sections at index %d: %w",
				i, i, kernel.ErrLoftConstructionFailed)
		}
	}

	sub := k.subdivisions()
	tris := make([][3]r3.Vec, 0, 2*(n-1)*sub)
	for i := 0; i < n-1; i++ {
		for s := 0; s < sub; s++ {
			t0 := float64(i) + float64(s)/float64(sub)
			t1 := float64(i) + float64(s+1)/float64(sub)
			if s+1 == sub {
				t1 = float64(i + 1)
			}
			a0, a1 := a.at(t0), a.at(t1)
			b0, b1 := b.at(t0), b.at(t1)

			lower := [3]r3.Vec{a0, b0, b1}
			upper := [3]r3.Vec{a0, b1, a1}
			if triangleArea(lower) <= coincidence*coincidence && triangleArea(upper) <= coincidence*coincidence {
				return nil, fmt.Errorf("facet: loft span %d collapses: %w", i, kernel.ErrLoftConstructionFailed)
			}
			tris = append(tris, lower, upper)
		}
	}

	sf := &surface{k: k, kind: surfaceLoft, tris: tris}
	k.surfaces = append(k.surfaces, sf)
	return sf, nil
}
