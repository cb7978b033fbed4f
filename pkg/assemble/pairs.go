// Package assemble turns the four sampled tooth-edge curves into one closed
// shell using a geometry kernel: a ruled loft per curve pair guided by a
// rail at every sample index, a patch over each open end, and a final
// stitch. The assembler never mutates its inputs and never retries a
// failed kernel operation.
package assemble

import (
	"errors"
	"fmt"

	"github.com/chazu/globoid/pkg/spiral"
)

// ErrInvalidPairs reports curve pairs that do not form a single cycle over
// every role.
var ErrInvalidPairs = errors.New("curve pairs must form a single cycle over all roles")

// Pair names the two curves bounding one loft. Rails run from A to B.
type Pair struct {
	A, B spiral.Role
}

func (p Pair) String() string {
	return p.A.String() + "->" + p.B.String()
}

// DefaultPairs walks tip-top, tip-bottom, root-bottom, root-top and back,
// giving the tooth tip, one flank, the root and the other flank.
func DefaultPairs() []Pair {
	return []Pair{
		{spiral.TipTop, spiral.TipBottom},
		{spiral.TipBottom, spiral.RootBottom},
		{spiral.RootBottom, spiral.RootTop},
		{spiral.RootTop, spiral.TipTop},
	}
}

// ValidatePairs checks that pairs form one closed cycle: every role is the
// A side of exactly one pair, and each pair's B is the next pair's A. The
// boundary loops depend on this ordering.
func ValidatePairs(pairs []Pair) error {
	if len(pairs) != spiral.NumRoles {
		return fmt.Errorf("assemble: got %d pairs, want %d: %w", len(pairs), spiral.NumRoles, ErrInvalidPairs)
	}
	var seen [spiral.NumRoles]bool
	for i, p := range pairs {
		if !p.A.Valid() || !p.B.Valid() {
			return fmt.Errorf("assemble: pair %d (%d,%d) names an unknown role: %w", i, p.A, p.B, ErrInvalidPairs)
		}
		if p.A == p.B {
			return fmt.Errorf("assemble: pair %d joins %s to itself: %w", i, p.A, ErrInvalidPairs)
		}
		if seen[p.A] {
			return fmt.Errorf("assemble: %s starts more than one pair: %w", p.A, ErrInvalidPairs)
		}
		seen[p.A] = true
		if next := pairs[(i+1)%len(pairs)]; p.B != next.A {
			return fmt.Errorf("assemble: pair %d ends at %s but pair %d starts at %s: %w",
				i, p.B, (i+1)%len(pairs), next.A, ErrInvalidPairs)
		}
	}
	return nil
}
