package candidate

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"rollcall/internal/directory/models"
	"rollcall/internal/scope"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded candidate store for tests and single-node
// development runs. Candidates are immutable after Create, so handing out
// the stored pointers is safe.
type InMemory struct {
	mu           sync.RWMutex
	byID         map[id.CandidateID]*models.Candidate
	byUsername   map[string]id.CandidateID
	byEnrollment map[string]id.CandidateID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:         make(map[id.CandidateID]*models.Candidate),
		byUsername:   make(map[string]id.CandidateID),
		byEnrollment: make(map[string]id.CandidateID),
	}
}

// Create inserts the candidate if both its username (case-insensitive) and
// enrollment id are still free. Returns sentinel.ErrAlreadyUsed otherwise.
func (s *InMemory) Create(_ context.Context, cand *models.Candidate) error {
	userKey := strings.ToLower(cand.Username)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byUsername[userKey]; taken {
		return sentinel.ErrAlreadyUsed
	}
	if _, taken := s.byEnrollment[cand.EnrollmentID]; taken {
		return sentinel.ErrAlreadyUsed
	}
	s.byID[cand.ID] = cand
	s.byUsername[userKey] = cand.ID
	s.byEnrollment[cand.EnrollmentID] = cand.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, candID id.CandidateID) (*models.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cand, ok := s.byID[candID]; ok {
		return cand, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByUsername(_ context.Context, username string) (*models.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if candID, ok := s.byUsername[strings.ToLower(username)]; ok {
		return s.byID[candID], nil
	}
	return nil, sentinel.ErrNotFound
}

// ListInScope returns the candidates covered by the filter, ordered by
// candidate id ascending. An empty filter yields an empty slice, never the
// whole store.
func (s *InMemory) ListInScope(_ context.Context, filter scope.Filter) ([]*models.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !filter.CandidateID.IsNil() {
		if cand, ok := s.byID[filter.CandidateID]; ok {
			return []*models.Candidate{cand}, nil
		}
		return nil, nil
	}

	var out []*models.Candidate
	for _, cand := range s.byID {
		if filter.AllowsDepartment(cand.DepartmentID) {
			out = append(out, cand)
		}
	}
	sortByID(out)
	return out, nil
}

// ListByIDs returns the candidates for the given ids, skipping unknown ones.
// Used to enrich attendance records for display.
func (s *InMemory) ListByIDs(_ context.Context, ids []id.CandidateID) ([]*models.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Candidate, 0, len(ids))
	for _, candID := range ids {
		if cand, ok := s.byID[candID]; ok {
			out = append(out, cand)
		}
	}
	return out, nil
}

func sortByID(cands []*models.Candidate) {
	sort.Slice(cands, func(i, j int) bool {
		a, b := uuid.UUID(cands[i].ID), uuid.UUID(cands[j].ID)
		return bytes.Compare(a[:], b[:]) < 0
	})
}
