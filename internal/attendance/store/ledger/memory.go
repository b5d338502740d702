package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"rollcall/internal/attendance/models"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

type dayKey struct {
	candidate id.CandidateID
	day       int64 // unix seconds of local midnight
}

// InMemory is a mutex-guarded ledger for tests and single-node development
// runs. One lock covers both the day index and the append log, so the
// check-then-insert in MarkOnce is atomic with respect to concurrent marks.
type InMemory struct {
	mu      sync.Mutex
	records []*models.Record
	byDay   map[dayKey]*models.Record
}

func NewInMemory() *InMemory {
	return &InMemory{byDay: make(map[dayKey]*models.Record)}
}

// MarkOnce appends rec unless a record for the same candidate already exists
// on rec.Timestamp's calendar day. Returns the surviving record and whether
// this call created it. Exactly one of two concurrent calls for the same
// candidate and day observes created=true.
func (s *InMemory) MarkOnce(_ context.Context, rec *models.Record) (*models.Record, bool, error) {
	key := dayKey{candidate: rec.CandidateID, day: models.DayOf(rec.Timestamp).Unix()}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byDay[key]; ok {
		return existing, false, nil
	}
	s.records = append(s.records, rec)
	s.byDay[key] = rec
	return rec, true, nil
}

// FindOnDay returns the candidate's record for the calendar day containing
// at, or sentinel.ErrNotFound.
func (s *InMemory) FindOnDay(_ context.Context, candID id.CandidateID, at time.Time) (*models.Record, error) {
	key := dayKey{candidate: candID, day: models.DayOf(at).Unix()}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.byDay[key]; ok {
		return rec, nil
	}
	return nil, sentinel.ErrNotFound
}

// Query returns matching records sorted by timestamp descending, capped at
// f.Limit when positive.
func (s *InMemory) Query(_ context.Context, f QueryFilter) ([]*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Record
	for _, rec := range s.records {
		if !f.matchesTime(rec.Timestamp) {
			continue
		}
		if !f.CandidateID.IsNil() {
			if rec.CandidateID != f.CandidateID {
				continue
			}
		} else if !containsDept(f.DepartmentIDs, rec.DepartmentID) {
			continue
		}
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func containsDept(deptIDs []id.DepartmentID, deptID id.DepartmentID) bool {
	for _, d := range deptIDs {
		if d == deptID {
			return true
		}
	}
	return false
}
