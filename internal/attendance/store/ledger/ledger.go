// Package ledger persists the append-only attendance record store.
//
// Both implementations guarantee the daily-uniqueness rule: at most one
// record per candidate per local calendar day, enforced atomically against
// concurrent marks. InMemory serializes check-then-insert under one mutex;
// Postgres relies on a unique index over (candidate_id, day).
package ledger

import (
	"time"

	id "rollcall/pkg/domain"
)

// QueryFilter narrows a record listing. CandidateID takes precedence over
// DepartmentIDs when set. Start/End bound the timestamp as [Start, End).
// A filter with neither candidate nor departments matches nothing.
type QueryFilter struct {
	CandidateID   id.CandidateID
	DepartmentIDs []id.DepartmentID
	Start         *time.Time
	End           *time.Time
	Limit         int
}

func (f QueryFilter) matchesTime(ts time.Time) bool {
	if f.Start != nil && ts.Before(*f.Start) {
		return false
	}
	if f.End != nil && !ts.Before(*f.End) {
		return false
	}
	return true
}
