package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/opsdesk/helpdesk/internal/domain"
	"github.com/opsdesk/helpdesk/internal/identity"
	"github.com/opsdesk/helpdesk/internal/repository"
	apperrors "github.com/opsdesk/helpdesk/pkg/util"
)

// AccountService coordinates registration and login against the
// identity provider collaborator.
type AccountService struct {
	profiles repository.ProfileRepository
	provider identity.Provider
	logger   *zap.Logger
}

// NewAccountService builds the service.
func NewAccountService(profiles repository.ProfileRepository, provider identity.Provider, logger *zap.Logger) *AccountService {
	return &AccountService{profiles: profiles, provider: provider, logger: logger}
}

// Register creates a profile and enrolls the credentials with the
// identity provider.
func (s *AccountService) Register(ctx context.Context, email, password string, role domain.Role) (*domain.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperrors.NewValidationError("invalid email", map[string]any{"email": email})
	}
	if len(password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": role})
	}

	if _, err := s.profiles.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	profile := &domain.Profile{Email: email, Role: role}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := s.provider.Register(ctx, profile.ID, email, password); err != nil {
		// Keep profile and credential stores consistent on enrollment failure.
		if delErr := s.profiles.DeleteWithClientCounts(ctx, profile.ID); delErr != nil {
			s.logger.Error("failed to roll back profile after identity enrollment failure",
				zap.String("profile_id", profile.ID), zap.Error(delErr))
		}
		return nil, err
	}
	return profile, nil
}

// IssueToken exchanges credentials for a bearer token at the bundled
// identity provider, standing in for the hosted provider's token
// endpoint.
func (s *AccountService) IssueToken(ctx context.Context, email, password string) (string, time.Time, error) {
	return s.provider.IssueToken(ctx, strings.ToLower(strings.TrimSpace(email)), password)
}
