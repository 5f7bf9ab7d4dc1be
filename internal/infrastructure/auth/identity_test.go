package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spoolgate/backend/internal/infrastructure/auth"
	"github.com/spoolgate/backend/internal/infrastructure/config"
)

func newTestProvider(t *testing.T, blacklist auth.TokenBlacklist) *auth.IdentityProvider {
	t.Helper()
	hash, err := auth.HashPassword("hunter2")
	require.NoError(t, err)
	store, err := auth.NewCredentialStore([]auth.User{
		{Username: "alice", Password: hash, Role: auth.RoleAdmin},
		{Username: "bob", Password: hash, Role: auth.RoleOperator},
	})
	require.NoError(t, err)

	jwtSvc := auth.NewJWTService(config.AuthConfig{
		JWTSecret:       "test-secret-key-at-least-32-chars",
		Issuer:          "spoolgate",
		TokenExpiration: time.Hour,
	})
	return auth.NewIdentityProvider(jwtSvc, store, blacklist, nil)
}

func TestIdentityProvider_LoginVerify(t *testing.T) {
	provider := newTestProvider(t, nil)
	ctx := context.Background()

	token, user, err := provider.Login(ctx, "alice", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.Password)

	identity, err := provider.Verify(ctx, token.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.Subject)
	assert.True(t, identity.IsAdmin())
	assert.Equal(t, token.JTI, identity.TokenID)

	token, _, err = provider.Login(ctx, "bob", "hunter2")
	require.NoError(t, err)
	identity, err = provider.Verify(ctx, token.Token)
	require.NoError(t, err)
	assert.False(t, identity.IsAdmin())
}

func TestIdentityProvider_LoginRejected(t *testing.T) {
	provider := newTestProvider(t, nil)

	_, _, err := provider.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, _, err = provider.Login(context.Background(), "mallory", "hunter2")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestIdentityProvider_Revoke(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	provider := newTestProvider(t, blacklist)
	ctx := context.Background()

	token, _, err := provider.Login(ctx, "alice", "hunter2")
	require.NoError(t, err)
	identity, err := provider.Verify(ctx, token.Token)
	require.NoError(t, err)

	require.NoError(t, provider.Revoke(ctx, identity))
	assert.Equal(t, 1, blacklist.Len())

	_, err = provider.Verify(ctx, token.Token)
	assert.ErrorIs(t, err, auth.ErrTokenBlacklisted)

	// Revoking an identity without a token id is a no-op
	require.NoError(t, provider.Revoke(ctx, auth.Identity{Subject: "alice"}))
}

type failingBlacklist struct{}

func (failingBlacklist) AddToBlacklist(context.Context, string, time.Duration) error {
	return errors.New("unavailable")
}

func (failingBlacklist) IsBlacklisted(context.Context, string) (bool, error) {
	return false, errors.New("unavailable")
}

func TestIdentityProvider_BlacklistUnavailable(t *testing.T) {
	provider := newTestProvider(t, failingBlacklist{})
	ctx := context.Background()

	token, _, err := provider.Login(ctx, "alice", "hunter2")
	require.NoError(t, err)

	_, err = provider.Verify(ctx, token.Token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestLoadCredentials_SeedsDefaultAdmin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "users.json")
	core, logs := observer.New(zap.WarnLevel)

	store, err := auth.LoadCredentials(path, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 1, logs.FilterMessageSnippet("seeding default admin").Len())
	require.FileExists(t, path)

	user, err := store.Authenticate(context.Background(), "admin", "admin")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, user.Role)

	// The seeded file stores a hash, never the plain password
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"password": "admin"`)

	// A second load reads the file instead of seeding again
	_, err = auth.LoadCredentials(path, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessageSnippet("seeding default admin").Len())
}

func TestLoadCredentials_ExistingFile(t *testing.T) {
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)
	data, err := json.Marshal(map[string]any{"users": []auth.User{
		{Username: "frontdesk", Password: hash, Role: auth.RoleOperator},
	}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	store, err := auth.LoadCredentials(path, nil)
	require.NoError(t, err)

	_, err = store.Authenticate(context.Background(), "admin", "admin")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	user, err := store.Authenticate(context.Background(), "frontdesk", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleOperator, user.Role)
}

func TestLoadCredentials_Invalid(t *testing.T) {
	dir := t.TempDir()

	garbled := filepath.Join(dir, "garbled.json")
	require.NoError(t, os.WriteFile(garbled, []byte("{"), 0o600))
	_, err := auth.LoadCredentials(garbled, nil)
	assert.Error(t, err)

	_, err = auth.NewCredentialStore([]auth.User{{Username: "a", Password: "x"}, {Username: "a", Password: "y"}})
	assert.ErrorContains(t, err, "duplicate")

	_, err = auth.NewCredentialStore([]auth.User{{Username: "a"}})
	assert.Error(t, err)
}
