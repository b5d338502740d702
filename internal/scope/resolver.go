package scope

import (
	"context"

	dirmodels "rollcall/internal/directory/models"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

// Filter is the candidate-set predicate a role resolves to. Exactly one of
// the two fields is populated: a single candidate id for self-scope, or a
// set of department ids for manager and admin scopes. Stores interpret it.
type Filter struct {
	CandidateID   id.CandidateID
	DepartmentIDs []id.DepartmentID
}

// AllowsDepartment reports whether the filter covers the given department.
func (f Filter) AllowsDepartment(deptID id.DepartmentID) bool {
	for _, d := range f.DepartmentIDs {
		if d == deptID {
			return true
		}
	}
	return false
}

// Empty reports whether the filter matches no candidates at all. An admin of
// an institution with no departments resolves to an empty filter, which must
// yield an empty candidate set rather than an unscoped query.
func (f Filter) Empty() bool {
	return f.CandidateID.IsNil() && len(f.DepartmentIDs) == 0
}

// DepartmentLister is the one lookup the resolver needs: expanding an
// institution into its department ids.
type DepartmentLister interface {
	ListByInstitution(ctx context.Context, instID id.InstitutionID) ([]*dirmodels.Department, error)
}

// Resolver turns a Caller into a candidate Filter. Pure computation apart
// from the institution→departments lookup for admins.
type Resolver struct {
	departments DepartmentLister
}

func NewResolver(departments DepartmentLister) *Resolver {
	return &Resolver{departments: departments}
}

// CandidateScope computes the candidate filter for a caller.
// Returns Forbidden for a nil caller; unknown variants cannot exist because
// the Caller interface is sealed.
func (r *Resolver) CandidateScope(ctx context.Context, caller Caller) (Filter, error) {
	switch c := caller.(type) {
	case InstitutionAdmin:
		if c.InstitutionID.IsNil() {
			return Filter{}, dErrors.New(dErrors.CodeForbidden, "caller has no institution claim")
		}
		depts, err := r.departments.ListByInstitution(ctx, c.InstitutionID)
		if err != nil {
			return Filter{}, dErrors.Wrap(err, dErrors.CodeInternal, "list institution departments")
		}
		deptIDs := make([]id.DepartmentID, 0, len(depts))
		for _, d := range depts {
			deptIDs = append(deptIDs, d.ID)
		}
		return Filter{DepartmentIDs: deptIDs}, nil
	case DepartmentManager:
		if c.DepartmentID.IsNil() {
			return Filter{}, dErrors.New(dErrors.CodeForbidden, "caller has no department claim")
		}
		return Filter{DepartmentIDs: []id.DepartmentID{c.DepartmentID}}, nil
	case CandidateSelf:
		if c.CandidateID.IsNil() {
			return Filter{}, dErrors.New(dErrors.CodeForbidden, "caller has no candidate claim")
		}
		return Filter{CandidateID: c.CandidateID}, nil
	default:
		return Filter{}, dErrors.New(dErrors.CodeForbidden, "unknown caller role")
	}
}

// CanMark reports whether the caller's role may mark attendance. Candidates
// cannot mark themselves through the recognition path.
func CanMark(caller Caller) bool {
	switch caller.(type) {
	case InstitutionAdmin, DepartmentManager:
		return true
	default:
		return false
	}
}
