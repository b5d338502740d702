package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"rollcall/internal/scope"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

// Claims are the access-token claims. Subject is the authenticated entity's
// id; exactly one scope claim is set, matching the role.
type Claims struct {
	Role          string `json:"role"`
	InstitutionID string `json:"institution_id,omitempty"`
	DepartmentID  string `json:"department_id,omitempty"`
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
}

func NewService(signingKey, issuer string) *Service {
	return &Service{signingKey: []byte(signingKey), issuer: issuer}
}

// GenerateAccessToken signs a token for the caller. subject is the id of the
// authenticated entity (institution, department or candidate).
func (s *Service) GenerateAccessToken(caller scope.Caller, subject uuid.UUID, expiresIn time.Duration) (string, error) {
	claims := Claims{
		Role: caller.Role(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	}
	switch c := caller.(type) {
	case scope.InstitutionAdmin:
		claims.InstitutionID = c.InstitutionID.String()
	case scope.DepartmentManager:
		claims.DepartmentID = c.DepartmentID.String()
	case scope.CandidateSelf:
		// Subject already carries the candidate id.
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// ValidateToken parses and verifies a token string.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// Caller reconstructs the scope variant the token was issued for.
func (c *Claims) Caller() (scope.Caller, error) {
	switch c.Role {
	case scope.RoleInstitutionAdmin:
		instID, err := id.ParseInstitutionID(c.InstitutionID)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token missing institution claim")
		}
		return scope.InstitutionAdmin{InstitutionID: instID}, nil
	case scope.RoleDepartmentManager:
		deptID, err := id.ParseDepartmentID(c.DepartmentID)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token missing department claim")
		}
		return scope.DepartmentManager{DepartmentID: deptID}, nil
	case scope.RoleCandidateSelf:
		candID, err := id.ParseCandidateID(c.Subject)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token missing candidate subject")
		}
		return scope.CandidateSelf{CandidateID: candID}, nil
	default:
		return nil, dErrors.New(dErrors.CodeUnauthorized, "unknown role claim")
	}
}
