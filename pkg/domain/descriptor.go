package domain

import (
	"math"

	dErrors "rollcall/pkg/domain-errors"
)

// DescriptorLen is the fixed dimensionality of a face descriptor. It is set
// by the external extraction model and every stored or queried vector must
// have exactly this length.
const DescriptorLen = 128

// Descriptor is a fixed-length face vector produced by the external
// extraction capability. Descriptors carry no semantics beyond pairwise
// Euclidean distance; in particular they are never logged or returned to
// API callers.
type Descriptor []float32

// Validate checks the shape invariant. All entry points must call this
// before any storage access.
func (d Descriptor) Validate() error {
	if len(d) != DescriptorLen {
		return dErrors.Newf(dErrors.CodeInvalidDescriptor,
			"descriptor must have %d elements, got %d", DescriptorLen, len(d))
	}
	return nil
}

// DistanceTo returns the Euclidean distance between two descriptors of equal
// length. The accumulation runs in float64 so the result does not depend on
// float32 rounding of intermediate sums.
func (d Descriptor) DistanceTo(other Descriptor) float64 {
	var sum float64
	for i := range d {
		diff := float64(d[i]) - float64(other[i])
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// Clone returns an independent copy so stored reference vectors cannot be
// mutated through a shared backing array.
func (d Descriptor) Clone() Descriptor {
	out := make(Descriptor, len(d))
	copy(out, d)
	return out
}
