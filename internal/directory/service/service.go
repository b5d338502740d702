// Package service implements directory administration: institution
// registration, department creation and candidate enrollment.
package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	dirmetrics "rollcall/internal/directory/metrics"
	"rollcall/internal/directory/models"
	"rollcall/internal/scope"
	"rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/sentinel"
	"rollcall/pkg/requestcontext"
)

// InstitutionStore is the institution persistence surface.
type InstitutionStore interface {
	Create(ctx context.Context, inst *models.Institution) error
	FindByID(ctx context.Context, instID domain.InstitutionID) (*models.Institution, error)
	FindByAdminUsername(ctx context.Context, username string) (*models.Institution, error)
}

// DepartmentStore is the department persistence surface.
type DepartmentStore interface {
	Create(ctx context.Context, dept *models.Department) error
	FindByID(ctx context.Context, deptID domain.DepartmentID) (*models.Department, error)
	FindByManagerUsername(ctx context.Context, username string) (*models.Department, error)
	ListByInstitution(ctx context.Context, instID domain.InstitutionID) ([]*models.Department, error)
}

// CandidateStore is the candidate persistence surface.
type CandidateStore interface {
	Create(ctx context.Context, cand *models.Candidate) error
	FindByID(ctx context.Context, candID domain.CandidateID) (*models.Candidate, error)
	FindByUsername(ctx context.Context, username string) (*models.Candidate, error)
}

// Service orchestrates directory writes. All credential secrets are bcrypt
// hashed here, before any store sees them.
type Service struct {
	institutions InstitutionStore
	departments  DepartmentStore
	candidates   CandidateStore
	metrics      *dirmetrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics attaches Prometheus metrics; nil-safe at every call site.
func WithMetrics(m *dirmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(institutions InstitutionStore, departments DepartmentStore, candidates CandidateStore, opts ...Option) *Service {
	s := &Service{
		institutions: institutions,
		departments:  departments,
		candidates:   candidates,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInstitution creates a new root tenant with its admin credential.
func (s *Service) RegisterInstitution(ctx context.Context, name, adminUsername, password string) (*models.Institution, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	inst, err := models.NewInstitution(domain.NewInstitutionID(), name, adminUsername, hash, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.institutions.Create(ctx, inst); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "admin username is already taken")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create institution")
	}
	if s.metrics != nil {
		s.metrics.InstitutionsCreated.Inc()
	}
	return inst, nil
}

// CreateDepartment creates a department under the caller's institution.
// Only an institution admin may create departments, and only under itself.
func (s *Service) CreateDepartment(ctx context.Context, caller scope.Caller, name, managerUsername, password string) (*models.Department, error) {
	admin, ok := caller.(scope.InstitutionAdmin)
	if !ok {
		return nil, dErrors.New(dErrors.CodeForbidden, "only institution admins can create departments")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	dept, err := models.NewDepartment(domain.NewDepartmentID(), admin.InstitutionID, name, managerUsername, hash, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.departments.Create(ctx, dept); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "manager username is already taken")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create department")
	}
	if s.metrics != nil {
		s.metrics.DepartmentsCreated.Inc()
	}
	return dept, nil
}

// EnrollmentRequest carries the fields of a candidate enrollment. The
// descriptor comes from the external extraction capability and must already
// be the full reference vector.
type EnrollmentRequest struct {
	DepartmentID domain.DepartmentID
	Name         string
	EnrollmentID string
	Username     string
	Password     string
	Descriptor   domain.Descriptor
}

// EnrollCandidate creates a candidate with its reference descriptor.
// A department manager enrolls into its own department only; an institution
// admin may enroll into any department of its institution.
func (s *Service) EnrollCandidate(ctx context.Context, caller scope.Caller, req EnrollmentRequest) (*models.Candidate, error) {
	if err := req.Descriptor.Validate(); err != nil {
		return nil, err
	}

	deptID := req.DepartmentID
	switch c := caller.(type) {
	case scope.DepartmentManager:
		if !deptID.IsNil() && deptID != c.DepartmentID {
			return nil, dErrors.New(dErrors.CodeForbidden, "cannot enroll candidates outside your department")
		}
		deptID = c.DepartmentID
	case scope.InstitutionAdmin:
		if deptID.IsNil() {
			return nil, dErrors.New(dErrors.CodeBadRequest, "department id is required")
		}
		dept, err := s.departments.FindByID(ctx, deptID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "department not found")
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "look up department")
		}
		if dept.InstitutionID != c.InstitutionID {
			return nil, dErrors.New(dErrors.CodeForbidden, "cannot enroll candidates outside your institution")
		}
	default:
		return nil, dErrors.New(dErrors.CodeForbidden, "only admins and managers can enroll candidates")
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	cand, err := models.NewCandidate(domain.NewCandidateID(), deptID, req.Name,
		req.EnrollmentID, req.Username, hash, req.Descriptor, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.candidates.Create(ctx, cand); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "candidate username or enrollment id is already taken")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "enroll candidate")
	}
	if s.metrics != nil {
		s.metrics.CandidatesEnrolled.Inc()
	}
	return cand, nil
}

// ListDepartments returns the departments of the caller's institution.
func (s *Service) ListDepartments(ctx context.Context, caller scope.Caller) ([]*models.Department, error) {
	admin, ok := caller.(scope.InstitutionAdmin)
	if !ok {
		return nil, dErrors.New(dErrors.CodeForbidden, "only institution admins can list departments")
	}
	depts, err := s.departments.ListByInstitution(ctx, admin.InstitutionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list departments")
	}
	return depts, nil
}

func hashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", dErrors.New(dErrors.CodeBadRequest, "password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "hash password")
	}
	return string(hash), nil
}
