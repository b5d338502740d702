package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "rollcall/pkg/domain-errors"
)

func TestParseCandidateID(t *testing.T) {
	t.Run("round-trips a generated id", func(t *testing.T) {
		candID := NewCandidateID()
		parsed, err := ParseCandidateID(candID.String())
		require.NoError(t, err)
		assert.Equal(t, candID, parsed)
	})

	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseCandidateID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects malformed uuid", func(t *testing.T) {
		_, err := ParseCandidateID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects the nil uuid", func(t *testing.T) {
		_, err := ParseCandidateID("00000000-0000-0000-0000-000000000000")
		require.Error(t, err)
	})
}

func TestIDJSONEncoding(t *testing.T) {
	candID := NewCandidateID()

	encoded, err := json.Marshal(candID)
	require.NoError(t, err)
	assert.Equal(t, `"`+candID.String()+`"`, string(encoded), "ids must encode as uuid strings")

	var decoded CandidateID
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, candID, decoded)
}

func TestIDNilChecks(t *testing.T) {
	var instID InstitutionID
	assert.True(t, instID.IsNil())
	assert.False(t, NewInstitutionID().IsNil())

	var deptID DepartmentID
	assert.True(t, deptID.IsNil())
	assert.False(t, NewDepartmentID().IsNil())
}
