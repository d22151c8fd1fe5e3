package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitat/internal/auth"
	"habitat/pkg/platform/secrets"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("JWT_SIGNING_KEY", "govctl-test-signing-key")
	t.Setenv("JWT_ISSUER", "habitat-test")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAdminToken(t *testing.T) {
	out, err := execute(t, "token", "admin")
	require.NoError(t, err)

	var token, hash string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		key, value, ok := strings.Cut(line, ":")
		require.True(t, ok)
		switch key {
		case "token":
			token = strings.TrimSpace(value)
		case "hash":
			hash = strings.TrimSpace(value)
		}
	}
	require.NotEmpty(t, token)
	assert.True(t, secrets.IsHash(hash))
	assert.NoError(t, secrets.Verify(token, hash))
}

func TestSessionToken(t *testing.T) {
	user := uuid.NewString()

	out, err := execute(t, "token", "session", "--user", user, "--role", "provider")
	require.NoError(t, err)

	claims, err := auth.NewJWTService("govctl-test-signing-key", "habitat-test").ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, user, claims.UserID)
	assert.Equal(t, "provider", claims.Role)

	_, err = execute(t, "token", "session", "--user", user, "--role", "admin")
	assert.Error(t, err)

	_, err = execute(t, "token", "session", "--user", "not-a-uuid")
	assert.Error(t, err)
}

func TestSweepInMemory(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")

	out, err := execute(t, "sweep")
	require.NoError(t, err)
	assert.Equal(t, "expired 0 request(s)\n", out)

	out, err = execute(t, "reconcile")
	require.NoError(t, err)
	assert.Equal(t, "committed 0 request(s)\n", out)
}

func TestPostgresOnlyCommands(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")

	_, err := execute(t, "migrate")
	assert.ErrorIs(t, err, errPostgresOnly)

	_, err = execute(t, "seed", "--file", "seed.json")
	assert.ErrorIs(t, err, errPostgresOnly)
}
