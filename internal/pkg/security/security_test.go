package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_RoundTrip(t *testing.T) {
	token, err := GenerateToken(42, "tutor")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, []string{"tutor"}, claims.Roles)
	assert.Equal(t, defaultJWTIssuer, claims.Issuer)

	sig, err := ExtractSignature(token)
	require.NoError(t, err)
	assert.NotEmpty(t, sig)
}

func TestToken_Tampered(t *testing.T) {
	token, err := GenerateToken(1, "student")
	require.NoError(t, err)

	_, err = ValidateToken(token + "x")
	assert.Error(t, err)

	_, err = ExtractSignature("not-a-token")
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NoError(t, CheckPasswordHash("s3cret!", hash))
	assert.ErrorIs(t, CheckPasswordHash("wrong", hash), ErrPasswordMismatch)

	_, err = HashPassword("")
	assert.ErrorIs(t, err, ErrPasswordEmpty)
}
