package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opsdesk/helpdesk/internal/domain"
	apperrors "github.com/opsdesk/helpdesk/pkg/util"
)

type fakeClientRepo struct {
	byID map[string]domain.Client
}

func newFakeClientRepo(clients ...domain.Client) *fakeClientRepo {
	f := &fakeClientRepo{byID: map[string]domain.Client{}}
	for _, c := range clients {
		f.byID[c.ID] = c
	}
	return f
}

func (f *fakeClientRepo) Create(_ context.Context, client *domain.Client) error {
	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	f.byID[client.ID] = *client
	return nil
}

func (f *fakeClientRepo) Update(_ context.Context, client *domain.Client) error {
	if _, ok := f.byID[client.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.byID[client.ID] = *client
	return nil
}

func (f *fakeClientRepo) GetByID(_ context.Context, id string) (*domain.Client, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &c, nil
}

func (f *fakeClientRepo) List(_ context.Context, _, _ int) ([]domain.Client, error) {
	var out []domain.Client
	for _, c := range f.byID {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeClientRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.byID, id)
	return nil
}

func newTestAdminService(profiles *fakeProfileRepo, clients *fakeClientRepo, provider *fakeProvider) *AdminService {
	return NewAdminService(AdminDependencies{
		ProfileRepo: profiles,
		ClientRepo:  clients,
		Provider:    provider,
		Logger:      zap.NewNop(),
	})
}

func TestAdminServiceUpdateUser(t *testing.T) {
	ctx := context.Background()
	client := domain.Client{ID: "client-1", Name: "Acme"}

	t.Run("role change", func(t *testing.T) {
		profiles := newFakeProfileRepo(domain.Profile{ID: "p-1", Email: "alice@example.com", Role: domain.RoleUser})
		svc := newTestAdminService(profiles, newFakeClientRepo(client), newFakeProvider())

		role := domain.RoleSupport
		updated, err := svc.UpdateUser(ctx, "p-1", ProfileUpdateInput{Role: &role})
		require.NoError(t, err)
		require.Equal(t, domain.RoleSupport, updated.Role)
	})

	t.Run("invalid role", func(t *testing.T) {
		profiles := newFakeProfileRepo(domain.Profile{ID: "p-1", Email: "alice@example.com", Role: domain.RoleUser})
		svc := newTestAdminService(profiles, newFakeClientRepo(client), newFakeProvider())

		role := domain.Role("SUPERVISOR")
		_, err := svc.UpdateUser(ctx, "p-1", ProfileUpdateInput{Role: &role})
		require.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	})

	t.Run("attach to a client requires it to exist", func(t *testing.T) {
		profiles := newFakeProfileRepo(domain.Profile{ID: "p-1", Email: "alice@example.com", Role: domain.RoleUser})
		svc := newTestAdminService(profiles, newFakeClientRepo(client), newFakeProvider())

		ghost := "client-ghost"
		_, err := svc.UpdateUser(ctx, "p-1", ProfileUpdateInput{ClientID: &ghost})
		require.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)

		id := client.ID
		updated, err := svc.UpdateUser(ctx, "p-1", ProfileUpdateInput{ClientID: &id})
		require.NoError(t, err)
		require.NotNil(t, updated.ClientID)
		require.Equal(t, client.ID, *updated.ClientID)
	})

	t.Run("clear client wins over a client id", func(t *testing.T) {
		clientID := client.ID
		profiles := newFakeProfileRepo(domain.Profile{ID: "p-1", Email: "alice@example.com", Role: domain.RoleUser, ClientID: &clientID})
		svc := newTestAdminService(profiles, newFakeClientRepo(client), newFakeProvider())

		updated, err := svc.UpdateUser(ctx, "p-1", ProfileUpdateInput{ClientID: &clientID, ClearClient: true})
		require.NoError(t, err)
		require.Nil(t, updated.ClientID)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc := newTestAdminService(newFakeProfileRepo(), newFakeClientRepo(), newFakeProvider())
		_, err := svc.UpdateUser(ctx, "missing", ProfileUpdateInput{})
		require.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
	})
}

func TestAdminServiceDeleteUserCascadesToProvider(t *testing.T) {
	ctx := context.Background()
	profiles := newFakeProfileRepo(domain.Profile{ID: "p-1", Email: "alice@example.com", Role: domain.RoleUser})
	provider := newFakeProvider()
	svc := newTestAdminService(profiles, newFakeClientRepo(), provider)

	require.NoError(t, svc.DeleteUser(ctx, "p-1"))
	require.Equal(t, []string{"p-1"}, provider.deleted)

	_, err := profiles.GetByID(ctx, "p-1")
	require.Error(t, err)
}

func TestAdminServiceClients(t *testing.T) {
	ctx := context.Background()
	svc := newTestAdminService(newFakeProfileRepo(), newFakeClientRepo(), newFakeProvider())

	t.Run("name required", func(t *testing.T) {
		err := svc.CreateClient(ctx, &domain.Client{})
		require.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	})

	t.Run("crud round trip", func(t *testing.T) {
		client := &domain.Client{Name: "Acme", ContactEmail: "it@acme.example"}
		require.NoError(t, svc.CreateClient(ctx, client))
		require.NotEmpty(t, client.ID)

		got, err := svc.GetClient(ctx, client.ID)
		require.NoError(t, err)
		require.Equal(t, "Acme", got.Name)

		got.ContactPhone = "555-0100"
		require.NoError(t, svc.UpdateClient(ctx, got))

		require.NoError(t, svc.DeleteClient(ctx, client.ID))
		_, err = svc.GetClient(ctx, client.ID)
		require.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
	})

	t.Run("update unknown client", func(t *testing.T) {
		err := svc.UpdateClient(ctx, &domain.Client{ID: "ghost", Name: "Ghost"})
		require.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
	})
}
