package identity

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/helpdesk/internal/config"
	"github.com/opsdesk/helpdesk/internal/repository"
	apperrors "github.com/opsdesk/helpdesk/pkg/util"
)

type memCredentialRepo struct {
	byEmail map[string]repository.Credential
}

func newMemCredentialRepo() *memCredentialRepo {
	return &memCredentialRepo{byEmail: map[string]repository.Credential{}}
}

func (m *memCredentialRepo) Create(_ context.Context, cred *repository.Credential) error {
	m.byEmail[cred.Email] = *cred
	return nil
}

func (m *memCredentialRepo) GetByEmail(_ context.Context, email string) (*repository.Credential, error) {
	cred, ok := m.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &cred, nil
}

func (m *memCredentialRepo) Delete(_ context.Context, profileID string) error {
	for email, cred := range m.byEmail {
		if cred.ProfileID == profileID {
			delete(m.byEmail, email)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func testAuthConfig() config.AuthConfig {
	// MinCost keeps the bcrypt work factor cheap under test
	return config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5, BcryptCost: 4}
}

func TestJWTProviderRoundTrip(t *testing.T) {
	ctx := context.Background()
	provider := NewJWTProvider(testAuthConfig(), newMemCredentialRepo())

	require.NoError(t, provider.Register(ctx, "p-1", "alice@example.com", "hunter2hunter2"))

	token, expires, err := provider.IssueToken(ctx, "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expires.IsZero())

	ident, err := provider.Verify(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "p-1", ident.SubjectID)
	require.Equal(t, "alice@example.com", ident.Email)
}

func TestJWTProviderDuplicateRegistration(t *testing.T) {
	ctx := context.Background()
	provider := NewJWTProvider(testAuthConfig(), newMemCredentialRepo())

	require.NoError(t, provider.Register(ctx, "p-1", "alice@example.com", "hunter2hunter2"))
	err := provider.Register(ctx, "p-2", "alice@example.com", "hunter2hunter2")
	require.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

func TestJWTProviderBadCredentials(t *testing.T) {
	ctx := context.Background()
	provider := NewJWTProvider(testAuthConfig(), newMemCredentialRepo())

	require.NoError(t, provider.Register(ctx, "p-1", "alice@example.com", "hunter2hunter2"))

	_, _, err := provider.IssueToken(ctx, "alice@example.com", "wrong")
	require.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)

	_, _, err = provider.IssueToken(ctx, "nobody@example.com", "hunter2hunter2")
	require.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)
}

func TestJWTProviderRejectsForeignTokens(t *testing.T) {
	ctx := context.Background()
	creds := newMemCredentialRepo()
	provider := NewJWTProvider(testAuthConfig(), creds)
	other := NewJWTProvider(config.AuthConfig{JWTSecret: "other-secret", AccessTokenTTLMinutes: 5, BcryptCost: 4}, creds)

	require.NoError(t, provider.Register(ctx, "p-1", "alice@example.com", "hunter2hunter2"))
	token, _, err := provider.IssueToken(ctx, "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)

	_, err = other.Verify(ctx, token)
	require.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)

	_, err = provider.Verify(ctx, "not.a.token")
	require.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)
}

func TestJWTProviderDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	provider := NewJWTProvider(testAuthConfig(), newMemCredentialRepo())

	require.NoError(t, provider.Register(ctx, "p-1", "alice@example.com", "hunter2hunter2"))
	require.NoError(t, provider.Delete(ctx, "p-1"))
	require.NoError(t, provider.Delete(ctx, "p-1"))

	_, _, err := provider.IssueToken(ctx, "alice@example.com", "hunter2hunter2")
	require.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)
}
