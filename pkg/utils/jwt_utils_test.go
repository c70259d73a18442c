package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateAccessToken(7, "waiter1", "waiter")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "waiter1", claims.Username)
	assert.Equal(t, "waiter", claims.Role)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	SetJWTSecret("first-secret")
	token, err := GenerateAccessToken(7, "waiter1", "waiter")
	require.NoError(t, err)

	SetJWTSecret("second-secret")
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	SetJWTSecret("test-secret")
	_, err := ValidateToken("not-a-token")
	assert.Error(t, err)
}
