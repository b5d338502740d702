package models

import (
	"strings"
	"time"

	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

// Department is the middle tier of the tenant hierarchy.
//
// Invariants:
//   - InstitutionID is set at creation and never changes (no re-parenting)
//   - Name is non-empty and at most 128 characters
//   - ManagerUsername is non-empty and unique across departments (store-enforced)
//
// The no-re-parenting rule is what makes the denormalized department id on
// attendance records safe: a record's department id is correct forever.
type Department struct {
	ID              id.DepartmentID  `json:"id"`
	InstitutionID   id.InstitutionID `json:"institution_id"`
	Name            string           `json:"name"`
	ManagerUsername string           `json:"manager_username"`
	ManagerPassHash string           `json:"-"`
	CreatedAt       time.Time        `json:"created_at"`
}

func NewDepartment(deptID id.DepartmentID, instID id.InstitutionID, name, managerUsername, managerPassHash string, now time.Time) (*Department, error) {
	if instID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "department must belong to an institution")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "department name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "department name must be 128 characters or less")
	}
	if strings.TrimSpace(managerUsername) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "department manager username cannot be empty")
	}
	if managerPassHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "department manager credential hash cannot be empty")
	}
	return &Department{
		ID:              deptID,
		InstitutionID:   instID,
		Name:            name,
		ManagerUsername: strings.TrimSpace(managerUsername),
		ManagerPassHash: managerPassHash,
		CreatedAt:       now,
	}, nil
}
