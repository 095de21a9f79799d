package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParse(t *testing.T) {
	token, err := Sign("user-1", "session-1", time.Hour)
	require.NoError(t, err)

	claims, err := Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "session-1", claims.SessionID)
}

func TestParseRejectsExpired(t *testing.T) {
	token, err := Sign("user-1", "session-1", -time.Minute)
	require.NoError(t, err)

	_, err = Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	token, err := Sign("user-1", "session-1", time.Hour)
	require.NoError(t, err)

	old := secret
	t.Cleanup(func() { secret = old })
	SetSecret("another-secret")

	_, err = Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("not.a.token")
	assert.Error(t, err)
}
