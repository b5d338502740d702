package models

import (
	"time"

	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

// Status classifies an attendance record.
type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
	StatusLate    Status = "Late"
)

// IsValid reports whether the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate:
		return true
	}
	return false
}

// Record is one attendance event in the append-only ledger.
//
// Invariants:
//   - At most one record per (CandidateID, local calendar day); the store
//     enforces this, see store/ledger
//   - DepartmentID is denormalized from the candidate at creation time and
//     is safe to trust forever because candidates are never re-parented
//   - Records are never mutated or deleted by this core
//
// The recognition path only ever writes StatusPresent. Absent and Late exist
// for manual or future policy-driven writers.
type Record struct {
	ID           id.RecordID     `json:"id"`
	CandidateID  id.CandidateID  `json:"candidate_id"`
	DepartmentID id.DepartmentID `json:"department_id"`
	Timestamp    time.Time       `json:"timestamp"`
	Status       Status          `json:"status"`
}

func NewRecord(recID id.RecordID, candID id.CandidateID, deptID id.DepartmentID, status Status, ts time.Time) (*Record, error) {
	if candID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "attendance record requires a candidate")
	}
	if deptID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "attendance record requires a department")
	}
	if !status.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "unknown attendance status %q", status)
	}
	return &Record{
		ID:           recID,
		CandidateID:  candID,
		DepartmentID: deptID,
		Timestamp:    ts,
		Status:       status,
	}, nil
}

// DayOf truncates a timestamp to its local calendar day. The ledger's
// daily-uniqueness window is [DayOf(t), DayOf(t)+24h) in the server's
// location, matching how capture stations operate on a site-local day.
func DayOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
