package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/opsdesk/helpdesk/internal/domain"
	"github.com/opsdesk/helpdesk/internal/identity"
	"github.com/opsdesk/helpdesk/internal/repository"
	apperrors "github.com/opsdesk/helpdesk/pkg/util"
)

// AdminService covers profile and client administration.
type AdminService struct {
	profiles repository.ProfileRepository
	clients  repository.ClientRepository
	provider identity.Provider
	logger   *zap.Logger
}

// AdminDependencies bundles collaborators for the admin service.
type AdminDependencies struct {
	ProfileRepo repository.ProfileRepository
	ClientRepo  repository.ClientRepository
	Provider    identity.Provider
	Logger      *zap.Logger
}

// NewAdminService builds the service.
func NewAdminService(deps AdminDependencies) *AdminService {
	return &AdminService{
		profiles: deps.ProfileRepo,
		clients:  deps.ClientRepo,
		provider: deps.Provider,
		logger:   deps.Logger,
	}
}

// ProfileUpdateInput carries an admin profile mutation. Nil fields are
// left untouched.
type ProfileUpdateInput struct {
	Role        *domain.Role
	ClientID    *string
	ClearClient bool
}

// GetUser fetches one profile.
func (s *AdminService) GetUser(ctx context.Context, id string) (*domain.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return profile, nil
}

// ListUsers returns profiles for the admin screens.
func (s *AdminService) ListUsers(ctx context.Context, limit, offset int) ([]domain.Profile, error) {
	profiles, err := s.profiles.List(ctx, limit, offset)
	return profiles, apperrors.MapError(err)
}

// UpdateUser applies role/client changes. The write and the client
// user_count adjustment share one transaction.
func (s *AdminService) UpdateUser(ctx context.Context, id string, input ProfileUpdateInput) (*domain.Profile, error) {
	profile, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": *input.Role})
		}
		profile.Role = *input.Role
	}
	switch {
	case input.ClearClient:
		profile.ClientID = nil
	case input.ClientID != nil:
		if _, err := s.clients.GetByID(ctx, *input.ClientID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("client", map[string]any{"client_id": *input.ClientID})
			}
			return nil, apperrors.MapError(err)
		}
		profile.ClientID = input.ClientID
	}

	if err := s.profiles.UpdateWithClientCounts(ctx, profile); err != nil {
		return nil, apperrors.MapError(err)
	}
	return profile, nil
}

// DeleteUser removes the profile (transactionally with its client
// user_count) and cascades to the identity provider.
func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.GetUser(ctx, id); err != nil {
		return err
	}
	if err := s.provider.Delete(ctx, id); err != nil {
		return err
	}
	return apperrors.MapError(s.profiles.DeleteWithClientCounts(ctx, id))
}

// CreateClient registers a client organization.
func (s *AdminService) CreateClient(ctx context.Context, client *domain.Client) error {
	if client.Name == "" {
		return apperrors.NewValidationError("name required", nil)
	}
	return apperrors.MapError(s.clients.Create(ctx, client))
}

// GetClient fetches one client.
func (s *AdminService) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("client", map[string]any{"client_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return client, nil
}

// ListClients returns client organizations.
func (s *AdminService) ListClients(ctx context.Context, limit, offset int) ([]domain.Client, error) {
	clients, err := s.clients.List(ctx, limit, offset)
	return clients, apperrors.MapError(err)
}

// UpdateClient applies contact-field edits. user_count is never written
// here.
func (s *AdminService) UpdateClient(ctx context.Context, client *domain.Client) error {
	err := s.clients.Update(ctx, client)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("client", map[string]any{"client_id": client.ID})
	}
	return apperrors.MapError(err)
}

// DeleteClient removes a client organization.
func (s *AdminService) DeleteClient(ctx context.Context, id string) error {
	err := s.clients.Delete(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("client", map[string]any{"client_id": id})
	}
	return apperrors.MapError(err)
}
