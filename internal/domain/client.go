package domain

import "time"

// Client represents an organization whose users file tickets. UserCount
// is a derived counter kept consistent with profile membership through
// the transactional profile update/delete paths.
type Client struct {
	ID           string
	Name         string
	ContactEmail string
	ContactPhone string
	UserCount    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
