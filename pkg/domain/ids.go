// Package domain holds shared domain primitives: typed IDs and the face
// descriptor type. Typed IDs make cross-entity assignment a compile error,
// which matters in a tenancy model where institution, department and
// candidate ids travel through the same code paths.
package domain

import (
	"github.com/google/uuid"

	dErrors "rollcall/pkg/domain-errors"
)

// Typed entity identifiers. Conversions between them must be explicit.
type (
	InstitutionID uuid.UUID
	DepartmentID  uuid.UUID
	CandidateID   uuid.UUID
	RecordID      uuid.UUID
)

func (id InstitutionID) String() string { return uuid.UUID(id).String() }
func (id DepartmentID) String() string  { return uuid.UUID(id).String() }
func (id CandidateID) String() string   { return uuid.UUID(id).String() }
func (id RecordID) String() string      { return uuid.UUID(id).String() }

func (id InstitutionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id DepartmentID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id CandidateID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id RecordID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }

// Defined types do not inherit uuid.UUID's text marshaling, so each ID
// restates it; without this, JSON encoding would emit raw byte arrays.

func (id InstitutionID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id DepartmentID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id CandidateID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id RecordID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }

func (id *InstitutionID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *DepartmentID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *CandidateID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *RecordID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(id).UnmarshalText(b) }

// NewInstitutionID returns a fresh random institution id.
func NewInstitutionID() InstitutionID { return InstitutionID(uuid.New()) }

// NewDepartmentID returns a fresh random department id.
func NewDepartmentID() DepartmentID { return DepartmentID(uuid.New()) }

// NewCandidateID returns a fresh random candidate id.
func NewCandidateID() CandidateID { return CandidateID(uuid.New()) }

// NewRecordID returns a fresh random attendance record id.
func NewRecordID() RecordID { return RecordID(uuid.New()) }

// parseUUID enforces the shared ID invariant: valid, non-empty, non-nil.
func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeBadRequest, "%s id is required", kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeBadRequest, "invalid %s id", kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeBadRequest, "%s id cannot be the nil uuid", kind)
	}
	return u, nil
}

// ParseInstitutionID validates and returns an InstitutionID.
func ParseInstitutionID(s string) (InstitutionID, error) {
	u, err := parseUUID(s, "institution")
	return InstitutionID(u), err
}

// ParseDepartmentID validates and returns a DepartmentID.
func ParseDepartmentID(s string) (DepartmentID, error) {
	u, err := parseUUID(s, "department")
	return DepartmentID(u), err
}

// ParseCandidateID validates and returns a CandidateID.
func ParseCandidateID(s string) (CandidateID, error) {
	u, err := parseUUID(s, "candidate")
	return CandidateID(u), err
}
