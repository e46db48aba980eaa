package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusportal/admission/internal/shared/authorization"
)

func TestJWTService_GenerateAndVerify(t *testing.T) {
	svc := NewJWTService("test-secret", 15)

	token, err := svc.Generate("student-42", authorization.RoleAdmin)
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "student-42", claims.UserID)
	assert.Equal(t, "student-42", claims.Subject)
	assert.Equal(t, authorization.RoleAdmin, claims.Role)
}

func TestJWTService_Verify_WrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", 15).Generate("student-42", authorization.RoleUser)
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", 15).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_Verify_Expired(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return issued }

	token, err := svc.Generate("student-42", authorization.RoleUser)
	require.NoError(t, err)

	svc.clock = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_Verify_RejectsOtherAlgorithms(t *testing.T) {
	svc := NewJWTService("test-secret", 15)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "student-42"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_Verify_UnknownRoleIsUser(t *testing.T) {
	svc := NewJWTService("test-secret", 15)

	token, err := svc.Generate("student-42", authorization.UserRole("superuser"))
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, authorization.RoleUser, claims.Role)
}

func TestJWTService_Generate_RequiresUserID(t *testing.T) {
	_, err := NewJWTService("test-secret", 15).Generate("", authorization.RoleUser)
	assert.Error(t, err)
}
