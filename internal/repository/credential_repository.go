package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Credential stores the bundled identity provider's password material.
type Credential struct {
	ProfileID    string
	Email        string
	PasswordHash string
}

// CredentialRepository backs the JWT identity provider.
type CredentialRepository interface {
	Create(ctx context.Context, cred *Credential) error
	GetByEmail(ctx context.Context, email string) (*Credential, error)
	Delete(ctx context.Context, profileID string) error
}

type credentialRepository struct {
	pool *pgxpool.Pool
}

// NewCredentialRepository returns a Postgres-backed implementation.
func NewCredentialRepository(pool *pgxpool.Pool) CredentialRepository {
	return &credentialRepository{pool: pool}
}

func (r *credentialRepository) Create(ctx context.Context, cred *Credential) error {
	const query = `INSERT INTO credentials (profile_id, email, password_hash) VALUES ($1, $2, $3)`
	_, err := r.pool.Exec(ctx, query, cred.ProfileID, cred.Email, cred.PasswordHash)
	return err
}

func (r *credentialRepository) GetByEmail(ctx context.Context, email string) (*Credential, error) {
	const query = `SELECT profile_id, email, password_hash FROM credentials WHERE email=$1`
	var cred Credential
	if err := r.pool.QueryRow(ctx, query, email).Scan(&cred.ProfileID, &cred.Email, &cred.PasswordHash); err != nil {
		return nil, err
	}
	return &cred, nil
}

func (r *credentialRepository) Delete(ctx context.Context, profileID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM credentials WHERE profile_id=$1`, profileID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
