package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestGenerateAndValidate(t *testing.T) {
	tok, err := GenerateToken(testSecret, "larder", "user-1", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(testSecret, "larder", tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateWrongSecret(t *testing.T) {
	tok, err := GenerateToken(testSecret, "", "user-1", time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken("other-secret", "", tok)
	assert.Error(t, err)
}

func TestValidateWrongIssuer(t *testing.T) {
	tok, err := GenerateToken(testSecret, "someone-else", "user-1", time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken(testSecret, "larder", tok)
	assert.Error(t, err)
}

func TestValidateExpired(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ValidateToken(testSecret, "", tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidateRejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ValidateToken(testSecret, "", tok)
	assert.Error(t, err)
}

func TestValidateMissingSubject(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ValidateToken(testSecret, "", tok)
	assert.True(t, errors.Is(err, ErrMissingSubject))
}

func TestGenerateRequiresUser(t *testing.T) {
	_, err := GenerateToken(testSecret, "", "", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSubject)
}
