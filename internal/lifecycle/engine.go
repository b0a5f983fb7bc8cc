package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/opsdesk/helpdesk/internal/domain"
	apperrors "github.com/opsdesk/helpdesk/pkg/util"
)

// Actor identifies the authenticated caller of a mutation.
type Actor struct {
	ID    string
	Email string
	Role  domain.Role
}

// UpdateInput carries a partial ticket mutation. Nil pointer fields were
// absent from the request and leave the stored value untouched.
type UpdateInput struct {
	RequestForEmail  *string
	Category         *domain.TicketCategory
	ShortDescription *string
	LongDescription  *string
	ContactNumber    *string
	HostnameAssetID  *string
	Priority         *domain.TicketPriority
	Status           *domain.TicketStatus
	AssignedToEmail  *string
	ClosureNotes     *string
	TimeSpentMinutes *int
	Attachments      []domain.Attachment
}

// NotificationIntent is one pending notification produced by a mutation.
// Intents are dispatched best-effort by a separate component; the engine
// itself performs no I/O.
type NotificationIntent struct {
	UserID   string
	TicketID string
	Type     domain.NotificationType
	Message  string
}

// Outcome bundles the post-mutation ticket state with its intent outbox.
type Outcome struct {
	Ticket  domain.Ticket
	Intents []NotificationIntent
}

// ApplyUpdate validates and applies a partial mutation against the
// current ticket state. resolvedAssignee must be the profile matching a
// non-empty input.AssignedToEmail, pre-resolved by the caller; it is
// ignored otherwise.
func ApplyUpdate(now time.Time, ticket domain.Ticket, actor Actor, input UpdateInput, resolvedAssignee *domain.Profile) (*Outcome, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if actor.Role == domain.RoleUser {
		if ticket.ReporterID != actor.ID {
			return nil, apperrors.NewForbidden("only the reporter may edit this ticket")
		}
		if ticket.Status.Terminal() {
			return nil, apperrors.NewForbidden("ticket is closed for edits")
		}
		if input.AssignedToEmail != nil {
			return nil, apperrors.NewForbidden("assignment requires a staff role")
		}
	}

	prevStatus := ticket.Status
	prevAssigneeID := ticket.AssignedToID

	mergeFields(&ticket, input)

	var intents []NotificationIntent

	if input.AssignedToEmail != nil {
		assignIntents, err := applyAssignment(&ticket, actor, *input.AssignedToEmail, resolvedAssignee, prevAssigneeID)
		if err != nil {
			return nil, err
		}
		intents = append(intents, assignIntents...)
	}

	if input.Status != nil && *input.Status != prevStatus {
		intents = append(intents, applyStatusChange(&ticket, now, actor, prevStatus, input.TimeSpentMinutes)...)
	}

	ticket.UpdatedAt = now
	return &Outcome{Ticket: ticket, Intents: intents}, nil
}

// ApplyComment appends a thread entry. Terminal tickets reject comments
// for every role, staff included.
func ApplyComment(now time.Time, ticket domain.Ticket, actor Actor, text string) (*Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewValidationError("comment_text required", nil)
	}
	if actor.Role == domain.RoleUser && ticket.ReporterID != actor.ID {
		return nil, apperrors.NewForbidden("only the reporter may comment on this ticket")
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewForbidden("cannot comment on a ticket in terminal status")
	}

	ticket.Comments = append(ticket.Comments, domain.Comment{
		Text:      strings.TrimSpace(text),
		Commenter: actor.Email,
		Timestamp: now,
	})
	ticket.UpdatedAt = now

	var intents []NotificationIntent
	if ticket.ReporterID != actor.ID {
		intents = append(intents, NotificationIntent{
			UserID:   ticket.ReporterID,
			TicketID: ticket.ID,
			Type:     domain.NotificationCommentAdded,
			Message:  fmt.Sprintf("New comment on ticket %s", ticket.DisplayID),
		})
	}
	if ticket.AssignedToID != nil && *ticket.AssignedToID != actor.ID {
		intents = append(intents, NotificationIntent{
			UserID:   *ticket.AssignedToID,
			TicketID: ticket.ID,
			Type:     domain.NotificationCommentAdded,
			Message:  fmt.Sprintf("New comment on ticket %s", ticket.DisplayID),
		})
	}
	return &Outcome{Ticket: ticket, Intents: intents}, nil
}

// CreationIntents produces the fan-out for a freshly created ticket: the
// reporter (end-users only) gets a confirmation, every staff profile a
// new-ticket notice. Duplicate deliveries to the same user are accepted.
func CreationIntents(ticket domain.Ticket, actor Actor, staff []domain.Profile) []NotificationIntent {
	var intents []NotificationIntent
	if actor.Role == domain.RoleUser {
		intents = append(intents, NotificationIntent{
			UserID:   ticket.ReporterID,
			TicketID: ticket.ID,
			Type:     domain.NotificationTicketCreated,
			Message:  fmt.Sprintf("Your ticket %s has been created", ticket.DisplayID),
		})
	}
	for _, p := range staff {
		intents = append(intents, NotificationIntent{
			UserID:   p.ID,
			TicketID: ticket.ID,
			Type:     domain.NotificationNewTicket,
			Message:  fmt.Sprintf("New ticket %s: %s", ticket.DisplayID, ticket.ShortDescription),
		})
	}
	return intents
}

func validateInput(input UpdateInput) error {
	if input.Status != nil && !input.Status.Valid() {
		return apperrors.NewValidationError("invalid status", map[string]any{"status": *input.Status})
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return apperrors.NewValidationError("invalid priority", map[string]any{"priority": *input.Priority})
	}
	if input.Category != nil && !input.Category.Valid() {
		return apperrors.NewValidationError("invalid category", map[string]any{"category": *input.Category})
	}
	if input.ShortDescription != nil && len(*input.ShortDescription) > domain.ShortDescriptionMaxLen {
		return apperrors.NewValidationError("short_description exceeds 250 characters", nil)
	}
	return nil
}

func mergeFields(ticket *domain.Ticket, input UpdateInput) {
	if input.RequestForEmail != nil {
		ticket.RequestForEmail = *input.RequestForEmail
	}
	if input.Category != nil {
		ticket.Category = *input.Category
	}
	if input.ShortDescription != nil {
		ticket.ShortDescription = *input.ShortDescription
	}
	if input.LongDescription != nil {
		ticket.LongDescription = *input.LongDescription
	}
	if input.ContactNumber != nil {
		ticket.ContactNumber = *input.ContactNumber
	}
	if input.HostnameAssetID != nil {
		ticket.HostnameAssetID = *input.HostnameAssetID
	}
	if input.Priority != nil {
		ticket.Priority = *input.Priority
	}
	if input.ClosureNotes != nil {
		ticket.ClosureNotes = *input.ClosureNotes
	}
	if len(input.Attachments) > 0 {
		// Union onto the existing set; nothing is overwritten and
		// duplicate pairs are stored as sent.
		ticket.Attachments = append(ticket.Attachments, input.Attachments...)
	}
	if input.Status != nil {
		ticket.Status = *input.Status
	}
}

func applyAssignment(ticket *domain.Ticket, actor Actor, email string, assignee *domain.Profile, prevAssigneeID *string) ([]NotificationIntent, error) {
	var intents []NotificationIntent
	if strings.TrimSpace(email) == "" {
		ticket.AssignedToID = nil
		ticket.AssignedToEmail = nil
		if prevAssigneeID != nil {
			intents = append(intents, NotificationIntent{
				UserID:   *prevAssigneeID,
				TicketID: ticket.ID,
				Type:     domain.NotificationUnassigned,
				Message:  fmt.Sprintf("You were unassigned from ticket %s", ticket.DisplayID),
			})
		}
		return intents, nil
	}

	if assignee == nil {
		return nil, apperrors.NewNotFound("assignee", map[string]any{"email": email})
	}
	if !assignee.Role.IsStaff() {
		return nil, apperrors.NewInvalidAssignee(email)
	}

	ticket.AssignedToID = &assignee.ID
	assigneeEmail := assignee.Email
	ticket.AssignedToEmail = &assigneeEmail

	if assignee.ID != actor.ID {
		intents = append(intents, NotificationIntent{
			UserID:   assignee.ID,
			TicketID: ticket.ID,
			Type:     domain.NotificationAssigned,
			Message:  fmt.Sprintf("Ticket %s was assigned to you", ticket.DisplayID),
		})
	}
	if prevAssigneeID != nil && *prevAssigneeID != assignee.ID {
		intents = append(intents, NotificationIntent{
			UserID:   *prevAssigneeID,
			TicketID: ticket.ID,
			Type:     domain.NotificationReassignedAway,
			Message:  fmt.Sprintf("Ticket %s was reassigned", ticket.DisplayID),
		})
	}
	return intents, nil
}

func applyStatusChange(ticket *domain.Ticket, now time.Time, actor Actor, prevStatus domain.TicketStatus, explicitTimeSpent *int) []NotificationIntent {
	newStatus := ticket.Status

	switch {
	case !prevStatus.Terminal() && newStatus.Terminal():
		resolved := now
		ticket.ResolvedAt = &resolved
		ticket.ClosedByEmail = actor.Email
		if explicitTimeSpent != nil {
			spent := *explicitTimeSpent
			ticket.TimeSpentMinutes = &spent
		} else {
			spent := int(now.Sub(ticket.CreatedAt).Round(time.Minute) / time.Minute)
			ticket.TimeSpentMinutes = &spent
		}
	case prevStatus.Terminal() && !newStatus.Terminal():
		ticket.ResolvedAt = nil
		ticket.TimeSpentMinutes = nil
		ticket.ClosureNotes = ""
		ticket.ClosedByEmail = ""
	default:
		return nil
	}

	noticeType := domain.NotificationStatusChanged
	message := fmt.Sprintf("Ticket %s status changed to %s", ticket.DisplayID, newStatus)
	if prevStatus.Terminal() && !newStatus.Terminal() {
		noticeType = domain.NotificationTicketReopened
		message = fmt.Sprintf("Ticket %s was reopened", ticket.DisplayID)
	}

	intents := []NotificationIntent{{
		UserID:   ticket.ReporterID,
		TicketID: ticket.ID,
		Type:     noticeType,
		Message:  message,
	}}
	if ticket.AssignedToID != nil && *ticket.AssignedToID != actor.ID {
		intents = append(intents, NotificationIntent{
			UserID:   *ticket.AssignedToID,
			TicketID: ticket.ID,
			Type:     noticeType,
			Message:  message,
		})
	}
	return intents
}
