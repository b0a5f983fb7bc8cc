package dto

import (
	"time"

	"github.com/opsdesk/helpdesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	RequestForEmail  string                `json:"request_for_email"`
	Category         domain.TicketCategory `json:"category"`
	ShortDescription string                `json:"short_description"`
	LongDescription  string                `json:"long_description"`
	ContactNumber    string                `json:"contact_number"`
	Priority         domain.TicketPriority `json:"priority"`
	HostnameAssetID  string                `json:"hostname_asset_id"`
	Attachments      []AttachmentRequest   `json:"attachments"`
}

// UpdateTicketRequest carries a partial mutation; absent fields stay
// untouched.
type UpdateTicketRequest struct {
	RequestForEmail  *string                `json:"request_for_email"`
	Category         *domain.TicketCategory `json:"category"`
	ShortDescription *string                `json:"short_description"`
	LongDescription  *string                `json:"long_description"`
	ContactNumber    *string                `json:"contact_number"`
	HostnameAssetID  *string                `json:"hostname_asset_id"`
	Priority         *domain.TicketPriority `json:"priority"`
	Status           *domain.TicketStatus   `json:"status"`
	AssignedToEmail  *string                `json:"assigned_to_email"`
	ClosureNotes     *string                `json:"closure_notes"`
	TimeSpentMinutes *int                   `json:"time_spent_minutes"`
	Attachments      []AttachmentRequest    `json:"attachments"`
}

// AddCommentRequest payload.
type AddCommentRequest struct {
	CommentText string `json:"comment_text"`
}

// AttachmentRequest describes attachment input.
type AttachmentRequest struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
}

// TicketCreatedResponse is the minimal creation acknowledgement.
type TicketCreatedResponse struct {
	ID        string `json:"id"`
	DisplayID string `json:"display_id"`
}

// CommentResponse is one thread entry.
type CommentResponse struct {
	Text      string    `json:"text"`
	Commenter string    `json:"commenter"`
	Timestamp time.Time `json:"timestamp"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
}

// TicketResponse provides full ticket info.
type TicketResponse struct {
	ID               string                `json:"id"`
	DisplayID        string                `json:"display_id"`
	ReporterID       string                `json:"reporter_id"`
	ReporterEmail    string                `json:"reporter_email"`
	RequestForEmail  string                `json:"request_for_email"`
	Category         domain.TicketCategory `json:"category"`
	ShortDescription string                `json:"short_description"`
	LongDescription  string                `json:"long_description"`
	ContactNumber    string                `json:"contact_number"`
	HostnameAssetID  string                `json:"hostname_asset_id"`
	Priority         domain.TicketPriority `json:"priority"`
	Status           domain.TicketStatus   `json:"status"`
	AssignedToID     *string               `json:"assigned_to_id"`
	AssignedToEmail  *string               `json:"assigned_to_email"`
	Comments         []CommentResponse     `json:"comments"`
	Attachments      []AttachmentResponse  `json:"attachments"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
	ResolvedAt       *time.Time            `json:"resolved_at"`
	TimeSpentMinutes *int                  `json:"time_spent_minutes"`
	ClosureNotes     string                `json:"closure_notes"`
	ClosedByEmail    string                `json:"closed_by_email"`
}

// SummaryCountsResponse aggregates per-status totals.
type SummaryCountsResponse struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	InProgress int `json:"in_progress"`
	Hold       int `json:"hold"`
	Resolved   int `json:"resolved"`
	Closed     int `json:"closed"`
}

// StatusSummaryRow is one breakdown entry.
type StatusSummaryRow struct {
	Status   domain.TicketStatus   `json:"status"`
	Priority domain.TicketPriority `json:"priority"`
	Count    int                   `json:"count"`
}

// UploadedFileResponse describes one stored attachment.
type UploadedFileResponse struct {
	URL              string `json:"url"`
	OriginalFilename string `json:"originalFilename"`
}
