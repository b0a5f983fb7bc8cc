package identity

import (
	"context"
	"time"
)

// Identity is the verified subject behind a bearer token.
type Identity struct {
	SubjectID string
	Email     string
}

// Provider abstracts the external identity provider the service
// delegates authentication to. The bundled implementation is JWT-backed
// so the service runs standalone; a hosted provider can be swapped in
// behind the same interface.
type Provider interface {
	Register(ctx context.Context, subjectID, email, password string) error
	IssueToken(ctx context.Context, email, password string) (string, time.Time, error)
	Verify(ctx context.Context, token string) (*Identity, error)
	Delete(ctx context.Context, subjectID string) error
}
