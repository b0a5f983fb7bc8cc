package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opsdesk/helpdesk/internal/domain"
	"github.com/opsdesk/helpdesk/internal/events"
	"github.com/opsdesk/helpdesk/internal/lifecycle"
	"github.com/opsdesk/helpdesk/internal/repository"
	apperrors "github.com/opsdesk/helpdesk/pkg/util"
)

type fakeTicketRepo struct {
	byID        map[string]domain.Ticket
	order       []string
	listErr     error
	updateCalls int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{byID: map[string]domain.Ticket{}}
}

func (f *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	ticket.ID = uuid.NewString()
	now := time.Now()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	f.byID[ticket.ID] = *ticket
	f.order = append(f.order, ticket.ID)
	return nil
}

func (f *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := f.byID[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.updateCalls++
	f.byID[ticket.ID] = *ticket
	return nil
}

func (f *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (f *fakeTicketRepo) LastCreated(_ context.Context) (*domain.Ticket, error) {
	if len(f.order) == 0 {
		return nil, pgx.ErrNoRows
	}
	t := f.byID[f.order[len(f.order)-1]]
	return &t, nil
}

func (f *fakeTicketRepo) AppendComment(_ context.Context, id string, comment domain.Comment) error {
	t, ok := f.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	t.Comments = append(t.Comments, comment)
	f.byID[id] = t
	return nil
}

func (f *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.Ticket
	for _, id := range f.order {
		t := f.byID[id]
		if filter.ReporterID != nil && t.ReporterID != *filter.ReporterID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTicketRepo) SummaryCounts(_ context.Context) (*repository.SummaryCounts, error) {
	counts := &repository.SummaryCounts{ByStatus: map[domain.TicketStatus]int{}}
	for _, t := range f.byID {
		counts.Total++
		counts.ByStatus[t.Status]++
	}
	return counts, nil
}

func (f *fakeTicketRepo) StatusSummary(_ context.Context) ([]repository.StatusPriorityCount, error) {
	return nil, nil
}

func (f *fakeTicketRepo) DeleteAll(_ context.Context) error {
	f.byID = map[string]domain.Ticket{}
	f.order = nil
	return nil
}

type fakeProfileRepo struct {
	byEmail  map[string]domain.Profile
	rolesErr error
}

func newFakeProfileRepo(profiles ...domain.Profile) *fakeProfileRepo {
	f := &fakeProfileRepo{byEmail: map[string]domain.Profile{}}
	for _, p := range profiles {
		f.byEmail[p.Email] = p
	}
	return f
}

func (f *fakeProfileRepo) Create(_ context.Context, profile *domain.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	f.byEmail[profile.Email] = *profile
	return nil
}

func (f *fakeProfileRepo) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	for _, p := range f.byEmail {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeProfileRepo) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	p, ok := f.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

func (f *fakeProfileRepo) List(_ context.Context, _, _ int) ([]domain.Profile, error) {
	return nil, nil
}

func (f *fakeProfileRepo) ListByRoles(_ context.Context, roles ...domain.Role) ([]domain.Profile, error) {
	if f.rolesErr != nil {
		return nil, f.rolesErr
	}
	var out []domain.Profile
	for _, p := range f.byEmail {
		for _, r := range roles {
			if p.Role == r {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeProfileRepo) UpdateWithClientCounts(_ context.Context, profile *domain.Profile) error {
	f.byEmail[profile.Email] = *profile
	return nil
}

func (f *fakeProfileRepo) DeleteWithClientCounts(_ context.Context, id string) error {
	for email, p := range f.byEmail {
		if p.ID == id {
			delete(f.byEmail, email)
			return nil
		}
	}
	return pgx.ErrNoRows
}

type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func newTestTicketService(tickets *fakeTicketRepo, profiles *fakeProfileRepo, dispatcher *recordingDispatcher) *TicketService {
	return NewTicketService(TicketDependencies{
		TicketRepo:  tickets,
		ProfileRepo: profiles,
		Dispatcher:  dispatcher,
		Logger:      zap.NewNop(),
	})
}

var (
	endUser  = lifecycle.Actor{ID: "user-1", Email: "alice@example.com", Role: domain.RoleUser}
	agent    = lifecycle.Actor{ID: "staff-1", Email: "bob@example.com", Role: domain.RoleSupport}
	validNew = TicketCreateInput{
		Category:         domain.TicketCategoryHardware,
		ShortDescription: "monitor flickers",
	}
)

func TestTicketServiceCreateDefaults(t *testing.T) {
	tickets := newFakeTicketRepo()
	profiles := newFakeProfileRepo(domain.Profile{ID: agent.ID, Email: agent.Email, Role: domain.RoleSupport})
	dispatcher := &recordingDispatcher{}
	svc := newTestTicketService(tickets, profiles, dispatcher)

	created, err := svc.Create(context.Background(), endUser, validNew)
	require.NoError(t, err)
	require.Equal(t, "TKT-00001", created.DisplayID)
	require.Equal(t, domain.TicketStatusOpen, created.Status)
	require.Equal(t, domain.TicketPriorityLow, created.Priority)
	require.Equal(t, endUser.ID, created.ReporterID)
	require.Equal(t, endUser.Email, created.ReporterEmail)

	require.Len(t, dispatcher.published, 1)
	event := dispatcher.published[0]
	require.Equal(t, events.EventTicketCreated, event.Type)
	require.Len(t, event.Intents, 2) // reporter confirmation + one staff notice
	require.Equal(t, endUser.ID, event.Intents[0].UserID)
	require.Equal(t, domain.NotificationTicketCreated, event.Intents[0].Type)
	require.Equal(t, agent.ID, event.Intents[1].UserID)
}

func TestTicketServiceCreateSequencesDisplayIDs(t *testing.T) {
	tickets := newFakeTicketRepo()
	svc := newTestTicketService(tickets, newFakeProfileRepo(), &recordingDispatcher{})

	for i, want := range []string{"TKT-00001", "TKT-00002", "TKT-00003"} {
		created, err := svc.Create(context.Background(), endUser, validNew)
		require.NoError(t, err, "ticket %d", i)
		require.Equal(t, want, created.DisplayID)
	}
}

func TestTicketServiceCreateValidation(t *testing.T) {
	svc := newTestTicketService(newFakeTicketRepo(), newFakeProfileRepo(), &recordingDispatcher{})

	_, err := svc.Create(context.Background(), endUser, TicketCreateInput{
		Category:         domain.TicketCategory("NETWORK"),
		ShortDescription: "x",
	})
	require.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	_, err = svc.Create(context.Background(), endUser, TicketCreateInput{
		Category: domain.TicketCategorySoftware,
	})
	require.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	_, err = svc.Create(context.Background(), endUser, TicketCreateInput{
		Category:         domain.TicketCategorySoftware,
		ShortDescription: "x",
		Priority:         domain.TicketPriority("URGENT"),
	})
	require.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestTicketServiceCreateSurvivesStaffLookupFailure(t *testing.T) {
	tickets := newFakeTicketRepo()
	profiles := newFakeProfileRepo()
	profiles.rolesErr = errors.New("connection refused")
	dispatcher := &recordingDispatcher{}
	svc := newTestTicketService(tickets, profiles, dispatcher)

	created, err := svc.Create(context.Background(), endUser, validNew)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	// reporter confirmation still goes out
	require.Len(t, dispatcher.published, 1)
	require.Len(t, dispatcher.published[0].Intents, 1)
	require.Equal(t, endUser.ID, dispatcher.published[0].Intents[0].UserID)
}

func TestTicketServiceUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown ticket", func(t *testing.T) {
		svc := newTestTicketService(newFakeTicketRepo(), newFakeProfileRepo(), &recordingDispatcher{})
		_, err := svc.Update(ctx, agent, "missing", lifecycle.UpdateInput{})
		require.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
	})

	t.Run("unknown assignee email", func(t *testing.T) {
		tickets := newFakeTicketRepo()
		svc := newTestTicketService(tickets, newFakeProfileRepo(), &recordingDispatcher{})
		created, err := svc.Create(ctx, endUser, validNew)
		require.NoError(t, err)

		ghost := "ghost@example.com"
		_, err = svc.Update(ctx, agent, created.ID, lifecycle.UpdateInput{AssignedToEmail: &ghost})
		require.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
	})

	t.Run("assignment persists and publishes", func(t *testing.T) {
		tickets := newFakeTicketRepo()
		profiles := newFakeProfileRepo(domain.Profile{ID: agent.ID, Email: agent.Email, Role: domain.RoleSupport})
		dispatcher := &recordingDispatcher{}
		svc := newTestTicketService(tickets, profiles, dispatcher)

		created, err := svc.Create(ctx, endUser, validNew)
		require.NoError(t, err)
		dispatcher.published = nil

		email := agent.Email
		updated, err := svc.Update(ctx, lifecycle.Actor{ID: "admin-1", Email: "carol@example.com", Role: domain.RoleAdmin},
			created.ID, lifecycle.UpdateInput{AssignedToEmail: &email})
		require.NoError(t, err)
		require.NotNil(t, updated.AssignedToID)
		require.Equal(t, agent.ID, *updated.AssignedToID)

		stored, err := tickets.GetByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.AssignedToEmail)
		require.Equal(t, agent.Email, *stored.AssignedToEmail)

		require.Len(t, dispatcher.published, 1)
		require.Equal(t, events.EventTicketUpdated, dispatcher.published[0].Type)
	})

	t.Run("last write wins on overlapping patches", func(t *testing.T) {
		tickets := newFakeTicketRepo()
		svc := newTestTicketService(tickets, newFakeProfileRepo(), &recordingDispatcher{})

		created, err := svc.Create(ctx, endUser, validNew)
		require.NoError(t, err)

		first := "flickers on boot"
		second := "flickers constantly"
		_, err = svc.Update(ctx, endUser, created.ID, lifecycle.UpdateInput{ShortDescription: &first})
		require.NoError(t, err)
		_, err = svc.Update(ctx, endUser, created.ID, lifecycle.UpdateInput{ShortDescription: &second})
		require.NoError(t, err)

		stored, err := tickets.GetByID(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, second, stored.ShortDescription)
	})

	t.Run("engine rejection leaves the store untouched", func(t *testing.T) {
		tickets := newFakeTicketRepo()
		dispatcher := &recordingDispatcher{}
		svc := newTestTicketService(tickets, newFakeProfileRepo(), dispatcher)

		created, err := svc.Create(ctx, endUser, validNew)
		require.NoError(t, err)
		dispatcher.published = nil

		other := lifecycle.Actor{ID: "user-2", Email: "mallory@example.com", Role: domain.RoleUser}
		desc := "hijack"
		_, err = svc.Update(ctx, other, created.ID, lifecycle.UpdateInput{ShortDescription: &desc})
		require.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
		require.Zero(t, tickets.updateCalls)
		require.Empty(t, dispatcher.published)
	})
}

func TestTicketServiceAddComment(t *testing.T) {
	ctx := context.Background()
	tickets := newFakeTicketRepo()
	dispatcher := &recordingDispatcher{}
	svc := newTestTicketService(tickets, newFakeProfileRepo(), dispatcher)

	created, err := svc.Create(ctx, endUser, validNew)
	require.NoError(t, err)
	dispatcher.published = nil

	updated, err := svc.AddComment(ctx, agent, created.ID, "looking into it")
	require.NoError(t, err)
	require.Len(t, updated.Comments, 1)

	stored, err := tickets.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, stored.Comments, 1)
	require.Equal(t, "looking into it", stored.Comments[0].Text)
	require.Equal(t, agent.Email, stored.Comments[0].Commenter)

	require.Len(t, dispatcher.published, 1)
	require.Equal(t, events.EventTicketCommentAdded, dispatcher.published[0].Type)
}

func TestTicketServiceGetForCaller(t *testing.T) {
	ctx := context.Background()
	tickets := newFakeTicketRepo()
	svc := newTestTicketService(tickets, newFakeProfileRepo(), &recordingDispatcher{})

	created, err := svc.Create(ctx, endUser, validNew)
	require.NoError(t, err)

	t.Run("reporter can view", func(t *testing.T) {
		got, err := svc.GetForCaller(ctx, endUser, created.ID)
		require.NoError(t, err)
		require.Equal(t, created.ID, got.ID)
	})

	t.Run("other end-user cannot", func(t *testing.T) {
		other := lifecycle.Actor{ID: "user-2", Email: "mallory@example.com", Role: domain.RoleUser}
		_, err := svc.GetForCaller(ctx, other, created.ID)
		require.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
	})

	t.Run("staff can view", func(t *testing.T) {
		_, err := svc.GetForCaller(ctx, agent, created.ID)
		require.NoError(t, err)
	})

	t.Run("reporter keeps read access after closure", func(t *testing.T) {
		status := domain.TicketStatusClosed
		_, err := svc.Update(ctx, agent, created.ID, lifecycle.UpdateInput{Status: &status})
		require.NoError(t, err)

		got, err := svc.GetForCaller(ctx, endUser, created.ID)
		require.NoError(t, err)
		require.Equal(t, domain.TicketStatusClosed, got.Status)
	})
}

func TestTicketServiceListMineScopesToReporter(t *testing.T) {
	ctx := context.Background()
	tickets := newFakeTicketRepo()
	svc := newTestTicketService(tickets, newFakeProfileRepo(), &recordingDispatcher{})

	_, err := svc.Create(ctx, endUser, validNew)
	require.NoError(t, err)
	other := lifecycle.Actor{ID: "user-2", Email: "mallory@example.com", Role: domain.RoleUser}
	_, err = svc.Create(ctx, other, validNew)
	require.NoError(t, err)

	mine, err := svc.ListMine(ctx, endUser, repository.TicketFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, endUser.ID, mine[0].ReporterID)

	all, err := svc.ListAll(ctx, repository.TicketFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestTicketServiceExportCSV(t *testing.T) {
	ctx := context.Background()
	tickets := newFakeTicketRepo()
	svc := newTestTicketService(tickets, newFakeProfileRepo(), &recordingDispatcher{})

	_, err := svc.Create(ctx, endUser, validNew)
	require.NoError(t, err)

	raw, err := svc.ExportCSV(ctx)
	require.NoError(t, err)
	lines := string(raw)
	require.Contains(t, lines, "display_id,status,priority,category,short_description")
	require.Contains(t, lines, "TKT-00001,OPEN,LOW,HARDWARE,monitor flickers")
}

func TestTicketServicePurge(t *testing.T) {
	ctx := context.Background()
	tickets := newFakeTicketRepo()
	svc := newTestTicketService(tickets, newFakeProfileRepo(), &recordingDispatcher{})

	_, err := svc.Create(ctx, endUser, validNew)
	require.NoError(t, err)

	require.NoError(t, svc.Purge(ctx))

	all, err := svc.ListAll(ctx, repository.TicketFilter{})
	require.NoError(t, err)
	require.Empty(t, all)

	// sequence restarts after a purge
	created, err := svc.Create(ctx, endUser, validNew)
	require.NoError(t, err)
	require.Equal(t, "TKT-00001", created.DisplayID)
}
