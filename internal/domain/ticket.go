package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusHold       TicketStatus = "HOLD"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// Valid reports whether the status is a known value.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusHold, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// Terminal reports whether the status restricts further edits.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// Valid reports whether the priority is a known value.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// TicketCategory enumerates request categories.
type TicketCategory string

const (
	TicketCategorySoftware     TicketCategory = "SOFTWARE"
	TicketCategoryHardware     TicketCategory = "HARDWARE"
	TicketCategoryTroubleshoot TicketCategory = "TROUBLESHOOT"
)

// Valid reports whether the category is a known value.
func (c TicketCategory) Valid() bool {
	switch c {
	case TicketCategorySoftware, TicketCategoryHardware, TicketCategoryTroubleshoot:
		return true
	}
	return false
}

// ShortDescriptionMaxLen caps the ticket summary length.
const ShortDescriptionMaxLen = 250

// Comment is one append-only thread entry on a ticket.
type Comment struct {
	Text      string    `json:"text"`
	Commenter string    `json:"commenter"`
	Timestamp time.Time `json:"timestamp"`
}

// Attachment references an uploaded file in the object store.
type Attachment struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
}

// Ticket is the aggregate for one support request.
type Ticket struct {
	ID               string
	DisplayID        string
	ReporterID       string
	ReporterEmail    string
	RequestForEmail  string
	Category         TicketCategory
	ShortDescription string
	LongDescription  string
	ContactNumber    string
	HostnameAssetID  string
	Priority         TicketPriority
	Status           TicketStatus
	AssignedToID     *string
	AssignedToEmail  *string
	Comments         []Comment
	Attachments      []Attachment
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ResolvedAt       *time.Time
	TimeSpentMinutes *int
	ClosureNotes     string
	ClosedByEmail    string
}
