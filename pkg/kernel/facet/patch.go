package facet

import (
	"fmt"

	"github.com/chazu/globoid/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Patch caps a closed loop of lines with a fan of triangles around the loop
// centroid. The loop must chain end-to-start and return to its first point.
// Facet winding follows loop order.
func (k *Kernel) Patch(loop []kernel.Curve) (kernel.Surface, error) {
	if len(loop) < 3 {
		return nil, fmt.Errorf("facet: patch loop has %d edges: %w", len(loop), kernel.ErrOpenBoundaryLoop)
	}

	corners := make([]r3.Vec, len(loop))
	for i, c := range loop {
		lc, err := k.ownCurve(c)
		if err != nil {
			return nil, err
		}
		if !lc.line {
			return nil, fmt.Errorf("facet: patch edge %d is not a line", i)
		}
		next := loop[(i+1)%len(loop)]
		if r3.Norm(r3.Sub(lc.End(), next.Start())) > coincidence {
			return nil, fmt.Errorf("facet: patch edge %d ends at %v but edge %d starts at %v: %w",
				i, lc.End(), (i+1)%len(loop), next.Start(), kernel.ErrOpenBoundaryLoop)
		}
		corners[i] = lc.Start()
	}
	if distinctPoints(corners) < 3 {
		return nil, fmt.Errorf("facet: patch loop has fewer than 3 distinct corners: %w", kernel.ErrOpenBoundaryLoop)
	}

	var centroid r3.Vec
	for _, p := range corners {
		centroid = r3.Add(centroid, p)
	}
	centroid = r3.Scale(1/float64(len(corners)), centroid)

	tris := make([][3]r3.Vec, 0, len(corners))
	for i := range corners {
		tris = append(tris, [3]r3.Vec{centroid, corners[i], corners[(i+1)%len(corners)]})
	}

	sf := &surface{k: k, kind: surfacePatch, tris: tris}
	k.surfaces = append(k.surfaces, sf)
	return sf, nil
}

func distinctPoints(pts []r3.Vec) int {
	var seen []r3.Vec
outer:
	for _, p := range pts {
		for _, q := range seen {
			if r3.Norm(r3.Sub(p, q)) <= coincidence {
				continue outer
			}
		}
		seen = append(seen, p)
	}
	return len(seen)
}
