package match

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dirmodels "rollcall/internal/directory/models"
	"rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

func descriptorWith(first float32) domain.Descriptor {
	d := make(domain.Descriptor, domain.DescriptorLen)
	d[0] = first
	return d
}

func candidateWith(name string, descriptor domain.Descriptor) *dirmodels.Candidate {
	return &dirmodels.Candidate{
		ID:         domain.NewCandidateID(),
		Name:       name,
		Descriptor: descriptor,
	}
}

func TestFindBest(t *testing.T) {
	t.Run("exact match has distance zero", func(t *testing.T) {
		ref := descriptorWith(0.4)
		cand := candidateWith("Ada", ref.Clone())

		best, err := FindBest(ref, []*dirmodels.Candidate{cand})
		require.NoError(t, err)
		assert.Equal(t, cand.ID, best.Candidate.ID)
		assert.Equal(t, 0.0, best.Distance)
	})

	t.Run("picks the nearest candidate", func(t *testing.T) {
		query := descriptorWith(0.0)
		near := candidateWith("Near", descriptorWith(0.1))
		far := candidateWith("Far", descriptorWith(0.9))

		best, err := FindBest(query, []*dirmodels.Candidate{far, near})
		require.NoError(t, err)
		assert.Equal(t, near.ID, best.Candidate.ID)
		assert.InDelta(t, 0.1, best.Distance, 1e-6)
	})

	t.Run("empty set yields no candidate and infinite distance", func(t *testing.T) {
		best, err := FindBest(descriptorWith(0), nil)
		require.NoError(t, err)
		assert.Nil(t, best.Candidate)
		assert.True(t, math.IsInf(best.Distance, 1))
		assert.False(t, best.Recognized(DefaultThreshold))
	})

	t.Run("rejects malformed query before scanning", func(t *testing.T) {
		_, err := FindBest(make(domain.Descriptor, 12), nil)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidDescriptor))
	})

	t.Run("ties resolve to the smallest candidate id", func(t *testing.T) {
		ref := descriptorWith(0.3)
		a := candidateWith("A", ref.Clone())
		b := candidateWith("B", ref.Clone())

		// Same descriptor, so both are at the same distance. The winner
		// must not depend on input order.
		first, err := FindBest(ref, []*dirmodels.Candidate{a, b})
		require.NoError(t, err)
		second, err := FindBest(ref, []*dirmodels.Candidate{b, a})
		require.NoError(t, err)

		assert.Equal(t, first.Candidate.ID, second.Candidate.ID)

		wantID := a.ID
		if uuid.UUID(b.ID).String() < uuid.UUID(a.ID).String() {
			wantID = b.ID
		}
		assert.Equal(t, wantID, first.Candidate.ID)
	})
}

func TestRecognized(t *testing.T) {
	cand := candidateWith("Ada", descriptorWith(0))

	t.Run("distance equal to threshold is recognized", func(t *testing.T) {
		r := Result{Candidate: cand, Distance: DefaultThreshold}
		assert.True(t, r.Recognized(DefaultThreshold))
	})

	t.Run("distance above threshold is not recognized", func(t *testing.T) {
		r := Result{Candidate: cand, Distance: DefaultThreshold + 1e-9}
		assert.False(t, r.Recognized(DefaultThreshold))
	})

	t.Run("missing candidate is never recognized", func(t *testing.T) {
		r := Result{Candidate: nil, Distance: 0}
		assert.False(t, r.Recognized(DefaultThreshold))
	})
}
