package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsdesk/helpdesk/internal/domain"
)

// ProfileRepository defines persistence access for identity-linked
// profiles. UpdateWithClientCounts and DeleteWithClientCounts run inside
// a transaction so the client user_count stays consistent with profile
// membership; these are the only multi-document transactional paths in
// the service.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	List(ctx context.Context, limit, offset int) ([]domain.Profile, error)
	ListByRoles(ctx context.Context, roles ...domain.Role) ([]domain.Profile, error)
	UpdateWithClientCounts(ctx context.Context, profile *domain.Profile) error
	DeleteWithClientCounts(ctx context.Context, id string) error
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository returns a Postgres-backed implementation.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

const profileColumns = `id, email, role, client_id, created_at, updated_at`

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	const query = `
        INSERT INTO profiles (email, role, client_id)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		profile.Email,
		profile.Role,
		profile.ClientID,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return err
	}
	if profile.ClientID != nil {
		_, err = r.pool.Exec(ctx,
			`UPDATE clients SET user_count = user_count + 1, updated_at=NOW() WHERE id=$1`,
			*profile.ClientID)
	}
	return err
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	const query = `SELECT ` + profileColumns + ` FROM profiles WHERE id=$1`
	return scanProfile(r.pool.QueryRow(ctx, query, id))
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	const query = `SELECT ` + profileColumns + ` FROM profiles WHERE email=$1`
	return scanProfile(r.pool.QueryRow(ctx, query, email))
}

func (r *profileRepository) List(ctx context.Context, limit, offset int) ([]domain.Profile, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `SELECT ` + profileColumns + ` FROM profiles ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProfiles(rows)
}

func (r *profileRepository) ListByRoles(ctx context.Context, roles ...domain.Role) ([]domain.Profile, error) {
	const query = `SELECT ` + profileColumns + ` FROM profiles WHERE role = ANY($1)`
	roleStrings := make([]string, len(roles))
	for i, role := range roles {
		roleStrings[i] = string(role)
	}
	rows, err := r.pool.Query(ctx, query, roleStrings)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProfiles(rows)
}

// UpdateWithClientCounts persists role/client changes and adjusts the
// affected client user_count columns in the same transaction.
func (r *profileRepository) UpdateWithClientCounts(ctx context.Context, profile *domain.Profile) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var prevClientID *string
	if err := tx.QueryRow(ctx, `SELECT client_id FROM profiles WHERE id=$1 FOR UPDATE`, profile.ID).
		Scan(&prevClientID); err != nil {
		return err
	}

	cmd, err := tx.Exec(ctx,
		`UPDATE profiles SET email=$1, role=$2, client_id=$3, updated_at=NOW() WHERE id=$4`,
		profile.Email, profile.Role, profile.ClientID, profile.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if !sameClient(prevClientID, profile.ClientID) {
		if prevClientID != nil {
			if _, err := tx.Exec(ctx,
				`UPDATE clients SET user_count = user_count - 1, updated_at=NOW() WHERE id=$1`,
				*prevClientID); err != nil {
				return err
			}
		}
		if profile.ClientID != nil {
			if _, err := tx.Exec(ctx,
				`UPDATE clients SET user_count = user_count + 1, updated_at=NOW() WHERE id=$1`,
				*profile.ClientID); err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

// DeleteWithClientCounts removes the profile and decrements its client
// user_count in the same transaction.
func (r *profileRepository) DeleteWithClientCounts(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var clientID *string
	if err := tx.QueryRow(ctx, `SELECT client_id FROM profiles WHERE id=$1 FOR UPDATE`, id).
		Scan(&clientID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM profiles WHERE id=$1`, id); err != nil {
		return err
	}
	if clientID != nil {
		if _, err := tx.Exec(ctx,
			`UPDATE clients SET user_count = user_count - 1, updated_at=NOW() WHERE id=$1`,
			*clientID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func sameClient(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var profile domain.Profile
	if err := row.Scan(
		&profile.ID,
		&profile.Email,
		&profile.Role,
		&profile.ClientID,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}

func scanProfiles(rows pgx.Rows) ([]domain.Profile, error) {
	var result []domain.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *profile)
	}
	return result, rows.Err()
}
