package identity

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/opsdesk/helpdesk/internal/config"
	"github.com/opsdesk/helpdesk/internal/repository"
	apperrors "github.com/opsdesk/helpdesk/pkg/util"
)

// jwtProvider is the bundled Provider implementation: bcrypt credential
// storage plus HS256 bearer tokens.
type jwtProvider struct {
	credentials repository.CredentialRepository
	tokens      *TokenManager
	bcryptCost  int
}

// NewJWTProvider builds the JWT-backed identity provider.
func NewJWTProvider(cfg config.AuthConfig, credentials repository.CredentialRepository) Provider {
	return &jwtProvider{
		credentials: credentials,
		tokens:      NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost:  cfg.BcryptCost,
	}
}

func (p *jwtProvider) Register(ctx context.Context, subjectID, email, password string) error {
	if _, err := p.credentials.GetByEmail(ctx, email); err == nil {
		return apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewDependencyError("identity provider", err)
	}

	hash, err := HashPassword(password, p.bcryptCost)
	if err != nil {
		return err
	}
	return p.credentials.Create(ctx, &repository.Credential{
		ProfileID:    subjectID,
		Email:        email,
		PasswordHash: hash,
	})
}

func (p *jwtProvider) IssueToken(ctx context.Context, email, password string) (string, time.Time, error) {
	cred, err := p.credentials.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return "", time.Time{}, apperrors.NewDependencyError("identity provider", err)
	}
	if err := ComparePassword(cred.PasswordHash, password); err != nil {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	return p.tokens.GenerateToken(cred.ProfileID, cred.Email)
}

func (p *jwtProvider) Verify(_ context.Context, token string) (*Identity, error) {
	claims, err := p.tokens.ParseToken(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid token")
	}
	return &Identity{SubjectID: claims.SubjectID, Email: claims.Email}, nil
}

func (p *jwtProvider) Delete(ctx context.Context, subjectID string) error {
	err := p.credentials.Delete(ctx, subjectID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewDependencyError("identity provider", err)
	}
	return nil
}
