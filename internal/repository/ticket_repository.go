package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsdesk/helpdesk/internal/domain"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	ReporterID  *string
	AssigneeID  *string
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	Categories  []domain.TicketCategory
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// SummaryCounts aggregates ticket totals per status.
type SummaryCounts struct {
	Total    int
	ByStatus map[domain.TicketStatus]int
}

// StatusPriorityCount is one row of the status/priority breakdown.
type StatusPriorityCount struct {
	Status   domain.TicketStatus
	Priority domain.TicketPriority
	Count    int
}

// TicketRepository encapsulates ticket persistence. Comments are
// append-only at the store level; Update never rewrites them.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	LastCreated(ctx context.Context) (*domain.Ticket, error)
	AppendComment(ctx context.Context, id string, comment domain.Comment) error
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	SummaryCounts(ctx context.Context) (*SummaryCounts, error)
	StatusSummary(ctx context.Context) ([]StatusPriorityCount, error)
	DeleteAll(ctx context.Context) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, display_id, reporter_id, reporter_email, request_for_email, category,
        short_description, long_description, contact_number, hostname_asset_id, priority, status,
        assigned_to_id, assigned_to_email, comments, attachments, created_at, updated_at,
        resolved_at, time_spent_minutes, closure_notes, closed_by_email`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (display_id, reporter_id, reporter_email, request_for_email, category,
            short_description, long_description, contact_number, hostname_asset_id, priority, status,
            assigned_to_id, assigned_to_email, comments, attachments)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        RETURNING id, created_at, updated_at`
	if ticket.Comments == nil {
		ticket.Comments = []domain.Comment{}
	}
	if ticket.Attachments == nil {
		ticket.Attachments = []domain.Attachment{}
	}
	return r.pool.QueryRow(ctx, query,
		ticket.DisplayID,
		ticket.ReporterID,
		ticket.ReporterEmail,
		ticket.RequestForEmail,
		ticket.Category,
		ticket.ShortDescription,
		ticket.LongDescription,
		ticket.ContactNumber,
		ticket.HostnameAssetID,
		ticket.Priority,
		ticket.Status,
		ticket.AssignedToID,
		ticket.AssignedToEmail,
		ticket.Comments,
		ticket.Attachments,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET request_for_email=$1, category=$2, short_description=$3,
            long_description=$4, contact_number=$5, hostname_asset_id=$6, priority=$7, status=$8,
            assigned_to_id=$9, assigned_to_email=$10, attachments=$11, resolved_at=$12,
            time_spent_minutes=$13, closure_notes=$14, closed_by_email=$15, updated_at=NOW()
        WHERE id=$16`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.RequestForEmail,
		ticket.Category,
		ticket.ShortDescription,
		ticket.LongDescription,
		ticket.ContactNumber,
		ticket.HostnameAssetID,
		ticket.Priority,
		ticket.Status,
		ticket.AssignedToID,
		ticket.AssignedToEmail,
		ticket.Attachments,
		ticket.ResolvedAt,
		ticket.TimeSpentMinutes,
		ticket.ClosureNotes,
		ticket.ClosedByEmail,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	row := r.pool.QueryRow(ctx, query, id)
	return scanTicket(row)
}

// LastCreated returns the most recently created ticket, used by the
// display-id generator. Returns pgx.ErrNoRows when the store is empty.
func (r *ticketRepository) LastCreated(ctx context.Context) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets ORDER BY created_at DESC LIMIT 1`, ticketColumns)
	row := r.pool.QueryRow(ctx, query)
	return scanTicket(row)
}

func (r *ticketRepository) AppendComment(ctx context.Context, id string, comment domain.Comment) error {
	const query = `
        UPDATE tickets SET comments = comments || jsonb_build_array($1::jsonb), updated_at=NOW()
        WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, comment, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ReporterID != nil {
		args = append(args, *filter.ReporterID)
		clauses = append(clauses, fmt.Sprintf("reporter_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assigned_to_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, cat := range filter.Categories {
			args = append(args, cat)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("category IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(short_description) LIKE %s OR LOWER(long_description) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) SummaryCounts(ctx context.Context) (*SummaryCounts, error) {
	const query = `SELECT status, COUNT(*) FROM tickets GROUP BY status`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := &SummaryCounts{ByStatus: make(map[domain.TicketStatus]int)}
	for rows.Next() {
		var status domain.TicketStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts.ByStatus[status] = count
		counts.Total += count
	}
	return counts, rows.Err()
}

func (r *ticketRepository) StatusSummary(ctx context.Context) ([]StatusPriorityCount, error) {
	const query = `SELECT status, priority, COUNT(*) FROM tickets GROUP BY status, priority ORDER BY status, priority`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StatusPriorityCount
	for rows.Next() {
		var row StatusPriorityCount
		if err := rows.Scan(&row.Status, &row.Priority, &row.Count); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// DeleteAll clears the whole store. Admin danger operation.
func (r *ticketRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM tickets`)
	return err
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.DisplayID,
		&ticket.ReporterID,
		&ticket.ReporterEmail,
		&ticket.RequestForEmail,
		&ticket.Category,
		&ticket.ShortDescription,
		&ticket.LongDescription,
		&ticket.ContactNumber,
		&ticket.HostnameAssetID,
		&ticket.Priority,
		&ticket.Status,
		&ticket.AssignedToID,
		&ticket.AssignedToEmail,
		&ticket.Comments,
		&ticket.Attachments,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
		&ticket.TimeSpentMinutes,
		&ticket.ClosureNotes,
		&ticket.ClosedByEmail,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
