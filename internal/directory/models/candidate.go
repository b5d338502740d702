package models

import (
	"strings"
	"time"

	"rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

// Candidate is an enrolled person with exactly one reference descriptor.
//
// Invariants:
//   - DepartmentID is set at enrollment and never changes
//   - EnrollmentID and Username are non-empty and globally unique (store-enforced)
//   - Descriptor has exactly domain.DescriptorLen elements
//   - A candidate is immutable after enrollment except for attendance
//     history growth, which lives in the ledger, not here
//
// The descriptor and credential hash must never appear in API responses;
// both carry json:"-" and response types re-state the visible fields anyway.
type Candidate struct {
	ID           domain.CandidateID  `json:"id"`
	DepartmentID domain.DepartmentID `json:"department_id"`
	Name         string              `json:"name"`
	EnrollmentID string              `json:"enrollment_id"`
	Username     string              `json:"username"`
	PassHash     string              `json:"-"`
	Descriptor   domain.Descriptor   `json:"-"`
	CreatedAt    time.Time           `json:"created_at"`
}

func NewCandidate(candID domain.CandidateID, deptID domain.DepartmentID, name, enrollmentID, username, passHash string, descriptor domain.Descriptor, now time.Time) (*Candidate, error) {
	if deptID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "candidate must belong to a department")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "candidate name cannot be empty")
	}
	enrollmentID = strings.TrimSpace(enrollmentID)
	if enrollmentID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "enrollment id cannot be empty")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "candidate username cannot be empty")
	}
	if passHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "candidate credential hash cannot be empty")
	}
	if err := descriptor.Validate(); err != nil {
		return nil, err
	}
	return &Candidate{
		ID:           candID,
		DepartmentID: deptID,
		Name:         name,
		EnrollmentID: enrollmentID,
		Username:     username,
		PassHash:     passHash,
		Descriptor:   descriptor.Clone(),
		CreatedAt:    now,
	}, nil
}
