// Package service implements credential login for the three roles and token
// lifecycle (issue on login, revoke on logout).
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	dirmodels "rollcall/internal/directory/models"
	"rollcall/internal/jwttoken"
	"rollcall/internal/scope"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/sentinel"
)

// DefaultTokenTTL bounds how long an issued access token stays valid.
const DefaultTokenTTL = 12 * time.Hour

// InstitutionReader resolves institution admin credentials.
type InstitutionReader interface {
	FindByAdminUsername(ctx context.Context, username string) (*dirmodels.Institution, error)
}

// DepartmentReader resolves department manager credentials.
type DepartmentReader interface {
	FindByManagerUsername(ctx context.Context, username string) (*dirmodels.Department, error)
}

// CandidateReader resolves candidate self-service credentials.
type CandidateReader interface {
	FindByUsername(ctx context.Context, username string) (*dirmodels.Candidate, error)
}

// TokenRevocationList records tokens invalidated before expiry.
type TokenRevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// LoginResult carries the issued token and the identity it represents.
type LoginResult struct {
	Token   string
	Caller  scope.Caller
	Subject uuid.UUID
	Name    string
}

// Service authenticates the three role types against the directory stores.
type Service struct {
	institutions InstitutionReader
	departments  DepartmentReader
	candidates   CandidateReader
	tokens       *jwttoken.Service
	revocation   TokenRevocationList
	tokenTTL     time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithTokenTTL overrides the access token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) { s.tokenTTL = ttl }
}

func New(institutions InstitutionReader, departments DepartmentReader, candidates CandidateReader,
	tokens *jwttoken.Service, revocation TokenRevocationList, opts ...Option) *Service {
	s := &Service{
		institutions: institutions,
		departments:  departments,
		candidates:   candidates,
		tokens:       tokens,
		revocation:   revocation,
		tokenTTL:     DefaultTokenTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login verifies the credential for the given role and issues an access
// token. Unknown usernames and bad passwords both report the same
// unauthorized error so the endpoint does not leak which usernames exist.
func (s *Service) Login(ctx context.Context, role, username, password string) (*LoginResult, error) {
	var (
		caller  scope.Caller
		subject uuid.UUID
		name    string
		hash    string
	)
	switch role {
	case scope.RoleInstitutionAdmin:
		inst, err := s.institutions.FindByAdminUsername(ctx, username)
		if err != nil {
			return nil, loginErr(err)
		}
		caller = scope.InstitutionAdmin{InstitutionID: inst.ID}
		subject, name, hash = uuid.UUID(inst.ID), inst.Name, inst.AdminPassHash
	case scope.RoleDepartmentManager:
		dept, err := s.departments.FindByManagerUsername(ctx, username)
		if err != nil {
			return nil, loginErr(err)
		}
		caller = scope.DepartmentManager{DepartmentID: dept.ID}
		subject, name, hash = uuid.UUID(dept.ID), dept.Name, dept.ManagerPassHash
	case scope.RoleCandidateSelf:
		cand, err := s.candidates.FindByUsername(ctx, username)
		if err != nil {
			return nil, loginErr(err)
		}
		caller = scope.CandidateSelf{CandidateID: cand.ID}
		subject, name, hash = uuid.UUID(cand.ID), cand.Name, cand.PassHash
	default:
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown role")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.tokens.GenerateAccessToken(caller, subject, s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "sign access token")
	}
	return &LoginResult{Token: token, Caller: caller, Subject: subject, Name: name}, nil
}

// Logout revokes the presented token until its natural expiry.
func (s *Service) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return err
	}
	ttl := s.tokenTTL
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if err := s.revocation.RevokeToken(ctx, claims.ID, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "revoke token")
	}
	return nil
}

// IsTokenRevoked implements the middleware revocation check.
func (s *Service) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return s.revocation.IsRevoked(ctx, jti)
}

func loginErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "look up credential")
}
