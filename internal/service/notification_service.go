package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/opsdesk/helpdesk/internal/domain"
	"github.com/opsdesk/helpdesk/internal/events"
	"github.com/opsdesk/helpdesk/internal/repository"
	apperrors "github.com/opsdesk/helpdesk/pkg/util"
)

// NotificationService persists the lifecycle engine's intent outbox and
// serves owner-scoped notification reads. Intent persistence is
// best-effort: a failed write is logged and never fails the ticket
// mutation that produced it.
type NotificationService struct {
	notifications repository.NotificationRepository
	dispatcher    events.Dispatcher
	logger        *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(notifications repository.NotificationRepository, dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

// RegisterHandlers subscribes to ticket events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleIntents)
	n.dispatcher.Subscribe(events.EventTicketUpdated, n.handleIntents)
	n.dispatcher.Subscribe(events.EventTicketCommentAdded, n.handleIntents)
}

func (n *NotificationService) handleIntents(ctx context.Context, event events.Event) error {
	for _, intent := range event.Intents {
		record := &domain.Notification{
			UserID:   intent.UserID,
			TicketID: intent.TicketID,
			Type:     intent.Type,
			Message:  intent.Message,
		}
		if err := n.notifications.Create(ctx, record); err != nil {
			n.logger.Warn("notification write failed",
				zap.String("user_id", intent.UserID),
				zap.String("ticket_id", intent.TicketID),
				zap.String("type", string(intent.Type)),
				zap.Error(err))
		}
	}
	return nil
}

// ListForUser returns the owner's notifications.
func (n *NotificationService) ListForUser(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error) {
	list, err := n.notifications.ListByUser(ctx, userID, limit, offset)
	return list, apperrors.MapError(err)
}

// MarkRead flips the read flag on one owned notification.
func (n *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return apperrors.MapError(n.notifications.MarkRead(ctx, userID, id))
}

// MarkAllRead flips the read flag on all of the owner's notifications.
func (n *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	return apperrors.MapError(n.notifications.MarkAllRead(ctx, userID))
}

// Delete removes one owned notification.
func (n *NotificationService) Delete(ctx context.Context, userID, id string) error {
	return apperrors.MapError(n.notifications.Delete(ctx, userID, id))
}

// DeleteAll removes every notification owned by the user.
func (n *NotificationService) DeleteAll(ctx context.Context, userID string) error {
	return apperrors.MapError(n.notifications.DeleteAllForUser(ctx, userID))
}
