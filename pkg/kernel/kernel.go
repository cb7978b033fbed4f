// Package kernel defines the abstract geometry kernel capability contract.
// The worm generator only needs sketch planes, fitted curves, straight
// lines, guided lofts, boundary patches and stitching; implementations
// (facet) provide them behind this interface so the generator can move
// between kernels without changes.
package kernel

import "gonum.org/v1/gonum/spatial/r3"

// Plane is an opaque planar reference that curves are sketched on.
type Plane interface {
	Name() string
}

// Curve is an opaque handle to a fitted spline or a straight line.
type Curve interface {
	Start() r3.Vec
	End() r3.Vec
}

// Surface is an opaque handle to a lofted or patched surface.
type Surface interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max r3.Vec)
}

// Shell is the stitched union of surfaces.
type Shell interface {
	BoundingBox() (min, max r3.Vec)
	// Closed reports whether the shell is a single closed 2-manifold.
	Closed() bool
	// Triangles returns the shell faces with outward winding.
	Triangles() [][3]r3.Vec
}

// Kernel is the geometry kernel capability contract.
// A kernel instance is owned by a single generation run.
type Kernel interface {
	// Sketching
	SketchPlane(name string) (Plane, error)
	CurveThroughPoints(p Plane, points []r3.Vec) (Curve, error)
	LineSegment(p Plane, a, b r3.Vec) (Curve, error)

	// Surfaces
	Loft(sectionA, sectionB Curve, rails []Curve) (Surface, error)
	Patch(loop []Curve) (Surface, error)

	// Stitching
	Stitch(surfaces []Surface, tolerance float64) (Shell, error)

	// Mesh output
	ToMesh(s Shell) (*Mesh, error)
}
