// Package scope computes which candidates a caller may see or act upon.
//
// The caller's role is modelled as a closed set of variants rather than a
// role string re-checked throughout the core: each variant carries only the
// claim it needs, and dispatch happens once, in the Resolver.
package scope

import (
	id "rollcall/pkg/domain"
)

// Role names for token claims and logging.
const (
	RoleInstitutionAdmin  = "institution_admin"
	RoleDepartmentManager = "department_manager"
	RoleCandidateSelf     = "candidate_self"
)

// Caller is the authenticated identity a request acts as. Implementations
// are the three role variants below; the interface is sealed so the Resolver
// switch is exhaustive.
type Caller interface {
	Role() string
	sealed()
}

// InstitutionAdmin may see and mark every candidate whose department belongs
// to its institution.
type InstitutionAdmin struct {
	InstitutionID id.InstitutionID
}

func (InstitutionAdmin) Role() string { return RoleInstitutionAdmin }
func (InstitutionAdmin) sealed()      {}

// DepartmentManager may see and mark candidates of its own department only.
type DepartmentManager struct {
	DepartmentID id.DepartmentID
}

func (DepartmentManager) Role() string { return RoleDepartmentManager }
func (DepartmentManager) sealed()      {}

// CandidateSelf may see exactly its own records and may not mark attendance.
type CandidateSelf struct {
	CandidateID id.CandidateID
}

func (CandidateSelf) Role() string { return RoleCandidateSelf }
func (CandidateSelf) sealed()      {}
