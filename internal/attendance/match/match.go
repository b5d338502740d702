// Package match implements the nearest-descriptor search at the heart of the
// recognition workflow.
package match

import (
	"bytes"
	"math"
	"sort"

	"github.com/google/uuid"

	dirmodels "rollcall/internal/directory/models"
	"rollcall/pkg/domain"
)

// DefaultThreshold is the maximum Euclidean distance at which two
// descriptors are considered the same person. 0.6 is the conventional
// operating point for 128-dimensional face embeddings.
const DefaultThreshold = 0.6

// Result is the outcome of a nearest-descriptor scan. Candidate is nil and
// Distance is +Inf when the scanned set was empty. A non-nil Candidate says
// nothing about recognition: the caller compares Distance against its
// threshold.
type Result struct {
	Candidate *dirmodels.Candidate
	Distance  float64
}

// FindBest runs a linear scan over the candidate set and returns the
// candidate with the minimum Euclidean distance to the query.
//
// The scan order is fixed by sorting on candidate id ascending, so ties
// deterministically resolve to the smallest id regardless of how the store
// happened to return the slice. O(n·d); fine for departmental headcounts,
// and the first thing to revisit if cardinalities ever grow past that.
func FindBest(query domain.Descriptor, candidates []*dirmodels.Candidate) (Result, error) {
	if err := query.Validate(); err != nil {
		return Result{}, err
	}

	ordered := make([]*dirmodels.Candidate, len(candidates))
	copy(ordered, candidates)
	sort.Slice(ordered, func(i, j int) bool {
		a, b := uuid.UUID(ordered[i].ID), uuid.UUID(ordered[j].ID)
		return bytes.Compare(a[:], b[:]) < 0
	})

	best := Result{Candidate: nil, Distance: math.Inf(1)}
	for _, c := range ordered {
		d := query.DistanceTo(c.Descriptor)
		if d < best.Distance {
			best = Result{Candidate: c, Distance: d}
		}
	}
	return best, nil
}

// Recognized reports whether the result clears the distance threshold.
func (r Result) Recognized(threshold float64) bool {
	return r.Candidate != nil && r.Distance <= threshold
}
