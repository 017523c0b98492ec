package jwtutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", time.Hour, "session-1")
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", claims.SessionID)
	assert.Equal(t, "session-1", claims.Subject)
}

func TestParseTokenRejects(t *testing.T) {
	token, err := GenerateToken("secret", time.Hour, "session-1")
	require.NoError(t, err)

	_, err = ParseToken("other", token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := GenerateToken("secret", -time.Minute, "session-1")
	require.NoError(t, err)
	_, err = ParseToken("secret", expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken("secret", "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateTokenNeedsSecret(t *testing.T) {
	_, err := GenerateToken(" ", time.Hour, "s")
	assert.Error(t, err)
}
