package events

import (
	"time"

	"github.com/opsdesk/helpdesk/internal/lifecycle"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket_created"
	EventTicketUpdated      EventType = "ticket_updated"
	EventTicketCommentAdded EventType = "ticket_comment_added"
)

// Event represents a domain event emitted by services. Intents carry the
// pending notification outbox computed by the lifecycle engine; the
// notification subscriber persists them best-effort.
type Event struct {
	ID        string                         `json:"id"`
	Type      EventType                      `json:"type"`
	TicketID  string                         `json:"ticket_id"`
	Actor     lifecycle.Actor                `json:"actor"`
	Timestamp time.Time                      `json:"timestamp"`
	Intents   []lifecycle.NotificationIntent `json:"intents"`
}
