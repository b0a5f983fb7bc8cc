package dto

import (
	"time"

	"github.com/opsdesk/helpdesk/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

// RegisterResponse acknowledgement.
type RegisterResponse struct {
	UserID string `json:"user_id"`
}

// TokenRequest payload for the bundled identity provider's token endpoint.
type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries the issued bearer token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the authenticated caller's profile.
type UserResponse struct {
	ID       string      `json:"id"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"role"`
	ClientID *string     `json:"client_id,omitempty"`
}

// UpdateUserRequest carries an admin profile mutation.
type UpdateUserRequest struct {
	Role     *domain.Role `json:"role"`
	ClientID *string      `json:"client_id"`
}

// NotificationResponse is one notification row.
type NotificationResponse struct {
	ID        string                  `json:"id"`
	TicketID  string                  `json:"ticket_id,omitempty"`
	Type      domain.NotificationType `json:"type"`
	Message   string                  `json:"message"`
	Read      bool                    `json:"read"`
	CreatedAt time.Time               `json:"created_at"`
}

// ClientRequest payload for client CRUD.
type ClientRequest struct {
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
}

// ClientResponse is one client row.
type ClientResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ContactEmail string    `json:"contact_email"`
	ContactPhone string    `json:"contact_phone"`
	UserCount    int       `json:"user_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
