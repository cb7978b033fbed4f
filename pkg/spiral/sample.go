package spiral

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultSamples is the default number of parameter steps per curve.
const DefaultSamples = 50

const (
	uMin = -1.0
	uMax = 1.0
)

// ErrInvalidSampleCount reports a sample count that is odd or below 2.
var ErrInvalidSampleCount = errors.New("sample count must be even and at least 2")

// SampledCurve holds N+1 points of one curve in increasing u order. Index j
// refers to the same parameter value on every curve sampled with the same N.
type SampledCurve struct {
	Role   Role
	Params []float64
	Points []r3.Vec
}

// Len returns the number of points.
func (s SampledCurve) Len() int {
	return len(s.Points)
}

// Steps returns N, the number of parameter steps.
func (s SampledCurve) Steps() int {
	return len(s.Points) - 1
}

// Param returns u_j = -1 + 2*j/n. The product is formed before the division
// so that u is exactly 0 at j = n/2.
func Param(j, n int) float64 {
	return uMin + (uMax-uMin)*float64(j)/float64(n)
}

// Sample evaluates c at n+1 uniform parameter values over [-1, 1].
func Sample(c Curve, n int) (SampledCurve, error) {
	if n < 2 || n%2 != 0 {
		return SampledCurve{}, fmt.Errorf("spiral: sample %s with n=%d: %w", c.Role, n, ErrInvalidSampleCount)
	}
	s := SampledCurve{
		Role:   c.Role,
		Params: make([]float64, n+1),
		Points: make([]r3.Vec, n+1),
	}
	for j := 0; j <= n; j++ {
		u := Param(j, n)
		s.Params[j] = u
		s.Points[j] = c.At(u)
	}
	return s, nil
}

// SampleAll samples every curve with the same n.
func SampleAll(curves [NumRoles]Curve, n int) ([NumRoles]SampledCurve, error) {
	var out [NumRoles]SampledCurve
	for i, c := range curves {
		s, err := Sample(c, n)
		if err != nil {
			return out, err
		}
		out[i] = s
	}
	return out, nil
}
