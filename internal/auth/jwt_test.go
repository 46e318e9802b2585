package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_TokenTypesAreNotInterchangeable(t *testing.T) {
	svc := NewJWTService("secret", "notes")

	access, refresh, err := svc.GenerateTokenPair("user-1", "a@example.com", "alice", "user", "session-1")
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "session-1", claims.SessionID)
	assert.Equal(t, "alice", claims.Username)

	_, err = svc.ValidateAccessToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	claims, err = svc.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "session-1", claims.SessionID)
}

func TestJWTService_RejectsForeignSignatureAndIssuer(t *testing.T) {
	svc := NewJWTService("secret", "notes")

	access, _, err := NewJWTService("other-secret", "notes").GenerateTokenPair("u", "", "", "", "s")
	require.NoError(t, err)
	_, err = svc.ValidateAccessToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	access, _, err = NewJWTService("secret", "someone-else").GenerateTokenPair("u", "", "", "", "s")
	require.NoError(t, err)
	_, err = svc.ValidateAccessToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractTokenFromBearer(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromBearer("Bearer abc"))
	assert.Equal(t, "abc", ExtractTokenFromBearer("bearer abc"))
	assert.Equal(t, "", ExtractTokenFromBearer("Basic abc"))
	assert.Equal(t, "", ExtractTokenFromBearer("abc"))
}

func TestHashToken(t *testing.T) {
	assert.Equal(t, HashToken("x"), HashToken("x"))
	assert.NotEqual(t, HashToken("x"), HashToken("y"))
	assert.Len(t, HashToken("x"), 64)
}
