package assemble

import (
	"fmt"

	"github.com/chazu/globoid/pkg/kernel"
	"github.com/chazu/globoid/pkg/spiral"
	"gonum.org/v1/gonum/spatial/r3"
)

// coincident is the distance below which two rail endpoints are the same.
const coincident = 1e-9

// Rail is the straight segment joining the points of a pair's two curves
// at one sample index.
type Rail struct {
	Index int
	U     float64
	A, B  r3.Vec
}

// RailSet is every rail of one pair, in sample order.
type RailSet struct {
	Pair  Pair
	Rails []Rail
}

// BuildRails joins a.Points[j] to b.Points[j] for every j. The curves must
// have been sampled with the same N.
func BuildRails(pair Pair, a, b spiral.SampledCurve) (RailSet, error) {
	if a.Len() != b.Len() {
		return RailSet{}, fmt.Errorf("assemble: %s has %d and %d samples", pair, a.Len(), b.Len())
	}
	rs := RailSet{Pair: pair, Rails: make([]Rail, a.Len())}
	for j := range a.Points {
		if a.Params[j] != b.Params[j] {
			return RailSet{}, fmt.Errorf("assemble: %s sample %d at u=%g and u=%g", pair, j, a.Params[j], b.Params[j])
		}
		if r3.Norm(r3.Sub(b.Points[j], a.Points[j])) <= coincident {
			return RailSet{}, fmt.Errorf("assemble: %s rail %d endpoints coincide at %v: %w",
				pair, j, a.Points[j], kernel.ErrDegenerateGeometry)
		}
		rs.Rails[j] = Rail{Index: j, U: a.Params[j], A: a.Points[j], B: b.Points[j]}
	}
	return rs, nil
}

// First returns rail 0.
func (rs RailSet) First() Rail { return rs.Rails[0] }

// Last returns rail N.
func (rs RailSet) Last() Rail { return rs.Rails[len(rs.Rails)-1] }

// BoundaryLoops collects the A endpoint of the first rail of each set into
// the start loop and of the last rail into the end loop, in set order.
// Every set must begin and end at the same parameter, so both loops cut
// across the band at a single helical position.
func BoundaryLoops(sets []RailSet) (start, end []r3.Vec, err error) {
	if len(sets) == 0 {
		return nil, nil, fmt.Errorf("assemble: no rail sets: %w", kernel.ErrOpenBoundaryLoop)
	}
	first, last := sets[0].First().U, sets[0].Last().U
	for _, rs := range sets {
		if len(rs.Rails) == 0 {
			return nil, nil, fmt.Errorf("assemble: %s has no rails: %w", rs.Pair, kernel.ErrOpenBoundaryLoop)
		}
		if rs.First().U != first || rs.Last().U != last {
			return nil, nil, fmt.Errorf("assemble: %s spans u=[%g,%g], want [%g,%g]",
				rs.Pair, rs.First().U, rs.Last().U, first, last)
		}
		start = append(start, rs.First().A)
		end = append(end, rs.Last().A)
	}
	if n := distinct(start); n < 3 {
		return nil, nil, fmt.Errorf("assemble: start loop has %d distinct points: %w", n, kernel.ErrOpenBoundaryLoop)
	}
	if n := distinct(end); n < 3 {
		return nil, nil, fmt.Errorf("assemble: end loop has %d distinct points: %w", n, kernel.ErrOpenBoundaryLoop)
	}
	return start, end, nil
}

func distinct(pts []r3.Vec) int {
	n := 0
	for i, p := range pts {
		dup := false
		for _, q := range pts[:i] {
			if r3.Norm(r3.Sub(p, q)) <= coincident {
				dup = true
				break
			}
		}
		if !dup {
			n++
		}
	}
	return n
}
