package kernel

import "errors"

// Construction failures reported by kernels. Implementations wrap these
// with context; callers match with errors.Is.
var (
	ErrDegenerateGeometry     = errors.New("degenerate geometry")
	ErrLoftConstructionFailed = errors.New("loft construction failed")
	ErrOpenBoundaryLoop       = errors.New("open boundary loop")
	ErrStitchIncomplete       = errors.New("stitch incomplete")
)
