package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "habitat/pkg/domain"
	dErrors "habitat/pkg/domain-errors"
	"habitat/pkg/requestcontext"
)

var (
	jwtService = NewJWTService("test-signing-key-0123456789", "test-issuer")
	userID     = id.UserID(uuid.New())
	sessionID  = id.SessionID(uuid.New())
)

func Test_GenerateAndValidate(t *testing.T) {
	token, err := jwtService.GenerateAccessToken(userID, sessionID, requestcontext.RoleResident, time.Hour)
	require.NoError(t, err)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, sessionID.String(), claims.SessionID)
	assert.Equal(t, "resident", claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_ValidateToken_Rejects(t *testing.T) {
	t.Run("garbage", func(t *testing.T) {
		_, err := jwtService.ValidateToken("invalid-token-string")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("expired", func(t *testing.T) {
		token, err := jwtService.GenerateAccessToken(userID, sessionID, requestcontext.RoleResident, -time.Hour)
		require.NoError(t, err)
		_, err = jwtService.ValidateToken(token)
		require.Error(t, err)
		assert.Equal(t, "token has expired", err.Error())
	})

	t.Run("other issuer", func(t *testing.T) {
		other := NewJWTService("test-signing-key-0123456789", "someone-else")
		token, err := other.GenerateAccessToken(userID, sessionID, requestcontext.RoleProvider, time.Hour)
		require.NoError(t, err)
		_, err = jwtService.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("other key", func(t *testing.T) {
		other := NewJWTService("a-completely-different-key", "test-issuer")
		token, err := other.GenerateAccessToken(userID, sessionID, requestcontext.RoleProvider, time.Hour)
		require.NoError(t, err)
		_, err = jwtService.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func Test_MiddlewareAdapter(t *testing.T) {
	token, err := jwtService.GenerateAccessToken(userID, sessionID, requestcontext.RoleProvider, time.Hour)
	require.NoError(t, err)

	claims, err := NewMiddlewareAdapter(jwtService).ValidateToken(token)
	require.NoError(t, err)
	session, err := claims.Session()
	require.NoError(t, err)
	assert.Equal(t, userID, session.UserID)
	assert.Equal(t, requestcontext.RoleProvider, session.Role)
}
