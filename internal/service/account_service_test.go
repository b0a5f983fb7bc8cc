package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opsdesk/helpdesk/internal/domain"
	"github.com/opsdesk/helpdesk/internal/identity"
	apperrors "github.com/opsdesk/helpdesk/pkg/util"
)

type fakeProvider struct {
	registered  map[string]string // email -> subjectID
	registerErr error
	deleted     []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{registered: map[string]string{}}
}

func (f *fakeProvider) Register(_ context.Context, subjectID, email, _ string) error {
	if f.registerErr != nil {
		return f.registerErr
	}
	f.registered[email] = subjectID
	return nil
}

func (f *fakeProvider) IssueToken(_ context.Context, email, _ string) (string, time.Time, error) {
	if _, ok := f.registered[email]; !ok {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	return "token-" + email, time.Now().Add(time.Hour), nil
}

func (f *fakeProvider) Verify(_ context.Context, token string) (*identity.Identity, error) {
	return nil, apperrors.NewUnauthorized("invalid token")
}

func (f *fakeProvider) Delete(_ context.Context, subjectID string) error {
	f.deleted = append(f.deleted, subjectID)
	return nil
}

func TestAccountServiceRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path defaults to the user role", func(t *testing.T) {
		profiles := newFakeProfileRepo()
		provider := newFakeProvider()
		svc := NewAccountService(profiles, provider, zap.NewNop())

		profile, err := svc.Register(ctx, "Alice@Example.com", "hunter2hunter2", "")
		require.NoError(t, err)
		require.Equal(t, "alice@example.com", profile.Email)
		require.Equal(t, domain.RoleUser, profile.Role)
		require.NotEmpty(t, profile.ID)
		require.Equal(t, profile.ID, provider.registered["alice@example.com"])
	})

	t.Run("malformed email", func(t *testing.T) {
		svc := NewAccountService(newFakeProfileRepo(), newFakeProvider(), zap.NewNop())
		_, err := svc.Register(ctx, "not-an-email", "hunter2hunter2", domain.RoleUser)
		require.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	})

	t.Run("short password", func(t *testing.T) {
		svc := NewAccountService(newFakeProfileRepo(), newFakeProvider(), zap.NewNop())
		_, err := svc.Register(ctx, "alice@example.com", "short", domain.RoleUser)
		require.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		profiles := newFakeProfileRepo()
		svc := NewAccountService(profiles, newFakeProvider(), zap.NewNop())

		_, err := svc.Register(ctx, "alice@example.com", "hunter2hunter2", domain.RoleUser)
		require.NoError(t, err)
		_, err = svc.Register(ctx, "alice@example.com", "hunter2hunter2", domain.RoleUser)
		require.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
	})

	t.Run("enrollment failure rolls back the profile", func(t *testing.T) {
		profiles := newFakeProfileRepo()
		provider := newFakeProvider()
		provider.registerErr = errors.New("provider down")
		svc := NewAccountService(profiles, provider, zap.NewNop())

		_, err := svc.Register(ctx, "alice@example.com", "hunter2hunter2", domain.RoleUser)
		require.Error(t, err)
		_, err = profiles.GetByEmail(ctx, "alice@example.com")
		require.Error(t, err)
	})
}

func TestAccountServiceIssueToken(t *testing.T) {
	ctx := context.Background()
	profiles := newFakeProfileRepo()
	provider := newFakeProvider()
	svc := NewAccountService(profiles, provider, zap.NewNop())

	_, err := svc.Register(ctx, "alice@example.com", "hunter2hunter2", domain.RoleUser)
	require.NoError(t, err)

	token, expires, err := svc.IssueToken(ctx, " Alice@Example.com ", "hunter2hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.True(t, expires.After(time.Now()))

	_, _, err = svc.IssueToken(ctx, "nobody@example.com", "hunter2hunter2")
	require.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)
}
