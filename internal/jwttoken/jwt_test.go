package jwttoken

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/scope"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService("test-signing-key", "rollcall-test")

	t.Run("admin token carries the institution claim", func(t *testing.T) {
		instID := id.NewInstitutionID()
		token, err := svc.GenerateAccessToken(scope.InstitutionAdmin{InstitutionID: instID}, uuid.UUID(instID), time.Hour)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, scope.RoleInstitutionAdmin, claims.Role)
		assert.NotEmpty(t, claims.ID, "every token needs a jti for revocation")

		caller, err := claims.Caller()
		require.NoError(t, err)
		assert.Equal(t, scope.InstitutionAdmin{InstitutionID: instID}, caller)
	})

	t.Run("manager token carries the department claim", func(t *testing.T) {
		deptID := id.NewDepartmentID()
		token, err := svc.GenerateAccessToken(scope.DepartmentManager{DepartmentID: deptID}, uuid.UUID(deptID), time.Hour)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		caller, err := claims.Caller()
		require.NoError(t, err)
		assert.Equal(t, scope.DepartmentManager{DepartmentID: deptID}, caller)
	})

	t.Run("candidate token scopes to the subject", func(t *testing.T) {
		candID := id.NewCandidateID()
		token, err := svc.GenerateAccessToken(scope.CandidateSelf{CandidateID: candID}, uuid.UUID(candID), time.Hour)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		caller, err := claims.Caller()
		require.NoError(t, err)
		assert.Equal(t, scope.CandidateSelf{CandidateID: candID}, caller)
	})
}

func TestValidateTokenRejections(t *testing.T) {
	svc := NewService("test-signing-key", "rollcall-test")

	t.Run("rejects an expired token", func(t *testing.T) {
		instID := id.NewInstitutionID()
		token, err := svc.GenerateAccessToken(scope.InstitutionAdmin{InstitutionID: instID}, uuid.UUID(instID), -time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("rejects a token signed with a different key", func(t *testing.T) {
		other := NewService("other-key", "rollcall-test")
		instID := id.NewInstitutionID()
		token, err := other.GenerateAccessToken(scope.InstitutionAdmin{InstitutionID: instID}, uuid.UUID(instID), time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		require.Error(t, err)
	})
}
