package spiral

import (
	"fmt"
	"io"
	"strings"
)

// Equations returns the symbolic form of the curve. It is a debugging aid
// and has no effect on geometry.
func (c Curve) Equations() string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- %s: base radius %.4f, delta %.4f ---\n", c.Role.Label(), c.BaseRadius, c.Delta)
	fmt.Fprintf(&b, "x(u) = -( %.4f - radius(u) * cos(u*pi/%.4f + %.4f) ) * cos(u*pi*%d)\n",
		c.majorRadius, c.angleScale, c.Delta, c.teethInArc)
	fmt.Fprintf(&b, "y(u) = -( %.4f - radius(u) * cos(u*pi/%.4f + %.4f) ) * sin(u*pi*%d)\n",
		c.majorRadius, c.angleScale, c.Delta, c.teethInArc)
	fmt.Fprintf(&b, "z(u) = - radius(u) * sin(u*pi/%.4f + %.4f)\n", c.angleScale, c.Delta)
	if c.Falloff > 0 {
		fmt.Fprintf(&b, "radius(u) = %.4f + (%.4f) * 6 * (|u|^%g/2 - |u|^%g/3)\n",
			c.BaseRadius, c.EndRadius()-c.BaseRadius, 4*c.Falloff, 6*c.Falloff)
	} else {
		fmt.Fprintf(&b, "radius(u) = %.4f\n", c.BaseRadius)
	}
	return b.String()
}

// WriteEquations writes the symbolic form of every curve to w.
func WriteEquations(w io.Writer, curves [NumRoles]Curve) error {
	for _, c := range curves {
		if _, err := io.WriteString(w, c.Equations()); err != nil {
			return err
		}
	}
	return nil
}
