package domain

import "time"

// NotificationType enumerates fan-out notice kinds.
type NotificationType string

const (
	NotificationTicketCreated   NotificationType = "TICKET_CREATED"
	NotificationNewTicket       NotificationType = "NEW_TICKET"
	NotificationStatusChanged   NotificationType = "STATUS_CHANGED"
	NotificationTicketReopened  NotificationType = "TICKET_REOPENED"
	NotificationAssigned        NotificationType = "ASSIGNED"
	NotificationUnassigned      NotificationType = "UNASSIGNED"
	NotificationReassignedAway  NotificationType = "REASSIGNED_AWAY"
	NotificationCommentAdded    NotificationType = "COMMENT_ADDED"
)

// Notification is immutable once created except for the Read flag.
type Notification struct {
	ID        string
	UserID    string
	TicketID  string
	Type      NotificationType
	Message   string
	Read      bool
	CreatedAt time.Time
}
