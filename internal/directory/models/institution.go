package models

import (
	"strings"
	"time"

	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

// Institution is the root tenant of the hierarchy.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - AdminUsername is non-empty and unique across institutions (store-enforced)
//   - CreatedAt is immutable after construction
//
// Departments are owned by exactly one institution and are never re-parented,
// so deleting or suspending an institution is a boundary for every candidate
// below it. This core only reads institutions; lifecycle management is an
// administrative concern.
type Institution struct {
	ID            id.InstitutionID `json:"id"`
	Name          string           `json:"name"`
	AdminUsername string           `json:"admin_username"`
	AdminPassHash string           `json:"-"`
	CreatedAt     time.Time        `json:"created_at"`
}

func NewInstitution(instID id.InstitutionID, name, adminUsername, adminPassHash string, now time.Time) (*Institution, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "institution name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "institution name must be 128 characters or less")
	}
	if strings.TrimSpace(adminUsername) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "institution admin username cannot be empty")
	}
	if adminPassHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "institution admin credential hash cannot be empty")
	}
	return &Institution{
		ID:            instID,
		Name:          name,
		AdminUsername: strings.TrimSpace(adminUsername),
		AdminPassHash: adminPassHash,
		CreatedAt:     now,
	}, nil
}
