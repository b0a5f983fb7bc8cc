package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opsdesk/helpdesk/internal/domain"
	"github.com/opsdesk/helpdesk/internal/events"
	"github.com/opsdesk/helpdesk/internal/lifecycle"
)

type fakeNotificationRepo struct {
	created   []domain.Notification
	createErr error
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, *n)
	return nil
}

func (f *fakeNotificationRepo) ListByUser(_ context.Context, userID string, _, _ int) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range f.created {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, userID, id string) error {
	for i, n := range f.created {
		if n.UserID == userID && n.ID == id {
			f.created[i].Read = true
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeNotificationRepo) MarkAllRead(_ context.Context, userID string) error {
	for i, n := range f.created {
		if n.UserID == userID {
			f.created[i].Read = true
		}
	}
	return nil
}

func (f *fakeNotificationRepo) Delete(_ context.Context, userID, id string) error {
	for i, n := range f.created {
		if n.UserID == userID && n.ID == id {
			f.created = append(f.created[:i], f.created[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeNotificationRepo) DeleteAllForUser(_ context.Context, userID string) error {
	var kept []domain.Notification
	for _, n := range f.created {
		if n.UserID != userID {
			kept = append(kept, n)
		}
	}
	f.created = kept
	return nil
}

func TestNotificationServicePersistsIntents(t *testing.T) {
	repo := &fakeNotificationRepo{}
	dispatcher := events.NewInMemoryDispatcher()
	svc := NewNotificationService(repo, dispatcher, zap.NewNop())
	svc.RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: "t-1",
		Intents: []lifecycle.NotificationIntent{
			{UserID: "user-1", TicketID: "t-1", Type: domain.NotificationStatusChanged, Message: "status changed"},
			{UserID: "staff-1", TicketID: "t-1", Type: domain.NotificationStatusChanged, Message: "status changed"},
		},
	})
	require.NoError(t, err)

	require.Len(t, repo.created, 2)
	require.Equal(t, "user-1", repo.created[0].UserID)
	require.Equal(t, "staff-1", repo.created[1].UserID)
	require.Equal(t, domain.NotificationStatusChanged, repo.created[0].Type)
	require.False(t, repo.created[0].Read)
}

func TestNotificationServiceSwallowsWriteFailures(t *testing.T) {
	repo := &fakeNotificationRepo{createErr: errors.New("write refused")}
	dispatcher := events.NewInMemoryDispatcher()
	svc := NewNotificationService(repo, dispatcher, zap.NewNop())
	svc.RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		Type: events.EventTicketCreated,
		Intents: []lifecycle.NotificationIntent{
			{UserID: "user-1", TicketID: "t-1", Type: domain.NotificationTicketCreated, Message: "created"},
		},
	})
	require.NoError(t, err)
	require.Empty(t, repo.created)
}

func TestNotificationServiceOwnerScopedReads(t *testing.T) {
	ctx := context.Background()
	repo := &fakeNotificationRepo{created: []domain.Notification{
		{ID: "n-1", UserID: "user-1", Message: "one"},
		{ID: "n-2", UserID: "user-2", Message: "two"},
		{ID: "n-3", UserID: "user-1", Message: "three"},
	}}
	svc := NewNotificationService(repo, nil, zap.NewNop())

	mine, err := svc.ListForUser(ctx, "user-1", 50, 0)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	require.NoError(t, svc.MarkRead(ctx, "user-1", "n-1"))
	require.True(t, repo.created[0].Read)

	// cannot touch another owner's notification
	err = svc.MarkRead(ctx, "user-1", "n-2")
	require.Error(t, err)

	require.NoError(t, svc.DeleteAll(ctx, "user-1"))
	left, err := svc.ListForUser(ctx, "user-2", 50, 0)
	require.NoError(t, err)
	require.Len(t, left, 1)
}
