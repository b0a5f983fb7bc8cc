package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/opsdesk/helpdesk/internal/domain"
	"github.com/opsdesk/helpdesk/internal/events"
	"github.com/opsdesk/helpdesk/internal/lifecycle"
	"github.com/opsdesk/helpdesk/internal/persistence"
	"github.com/opsdesk/helpdesk/internal/repository"
	apperrors "github.com/opsdesk/helpdesk/pkg/util"
)

const (
	summaryCountsCacheKey = "stats:summary-counts"
	statusSummaryCacheKey = "stats:status-summary"
)

// TicketService coordinates ticket workflows around the lifecycle engine.
type TicketService struct {
	tickets    repository.TicketRepository
	profiles   repository.ProfileRepository
	dispatcher events.Dispatcher
	cache      *persistence.Redis
	statsTTL   time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	ProfileRepo repository.ProfileRepository
	Dispatcher  events.Dispatcher
	Cache       *persistence.Redis
	StatsTTL    time.Duration
	Logger      *zap.Logger
	Now         func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	RequestForEmail  string
	Category         domain.TicketCategory
	ShortDescription string
	LongDescription  string
	ContactNumber    string
	Priority         domain.TicketPriority
	HostnameAssetID  string
	Attachments      []domain.Attachment
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		profiles:   deps.ProfileRepo,
		dispatcher: deps.Dispatcher,
		cache:      deps.Cache,
		statsTTL:   deps.StatsTTL,
		logger:     deps.Logger,
		now:        now,
	}
}

// Create validates input, mints the display id from the last-created
// ticket, persists the record, and fans out creation notices.
func (s *TicketService) Create(ctx context.Context, actor lifecycle.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	if !input.Category.Valid() {
		return nil, apperrors.NewValidationError("invalid category", map[string]any{"category": input.Category})
	}
	if strings.TrimSpace(input.ShortDescription) == "" {
		return nil, apperrors.NewValidationError("short_description required", nil)
	}
	if len(input.ShortDescription) > domain.ShortDescriptionMaxLen {
		return nil, apperrors.NewValidationError("short_description exceeds 250 characters", nil)
	}
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityLow
	}
	if !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": input.Priority})
	}

	displayID, err := s.nextDisplayID(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	ticket := &domain.Ticket{
		DisplayID:        displayID,
		ReporterID:       actor.ID,
		ReporterEmail:    actor.Email,
		RequestForEmail:  input.RequestForEmail,
		Category:         input.Category,
		ShortDescription: strings.TrimSpace(input.ShortDescription),
		LongDescription:  input.LongDescription,
		ContactNumber:    input.ContactNumber,
		HostnameAssetID:  input.HostnameAssetID,
		Priority:         input.Priority,
		Status:           domain.TicketStatusOpen,
		Attachments:      input.Attachments,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidateStats(ctx)

	staff, err := s.profiles.ListByRoles(ctx, domain.RoleSupport, domain.RoleAdmin)
	if err != nil {
		// Fan-out is best-effort; the ticket is already persisted.
		s.logger.Warn("failed to list staff for creation fan-out", zap.Error(err))
		staff = nil
	}
	s.publish(ctx, events.EventTicketCreated, ticket.ID, actor, lifecycle.CreationIntents(*ticket, actor, staff))
	return ticket, nil
}

// Update applies a partial mutation through the lifecycle engine.
func (s *TicketService) Update(ctx context.Context, actor lifecycle.Actor, ticketID string, input lifecycle.UpdateInput) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	var assignee *domain.Profile
	if input.AssignedToEmail != nil && strings.TrimSpace(*input.AssignedToEmail) != "" {
		assignee, err = s.profiles.GetByEmail(ctx, strings.TrimSpace(*input.AssignedToEmail))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("assignee", map[string]any{"email": *input.AssignedToEmail})
			}
			return nil, apperrors.MapError(err)
		}
	}

	outcome, err := lifecycle.ApplyUpdate(s.now(), *ticket, actor, input, assignee)
	if err != nil {
		return nil, err
	}

	if err := s.tickets.Update(ctx, &outcome.Ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidateStats(ctx)
	s.publish(ctx, events.EventTicketUpdated, outcome.Ticket.ID, actor, outcome.Intents)
	return &outcome.Ticket, nil
}

// AddComment appends a thread entry through the lifecycle engine.
func (s *TicketService) AddComment(ctx context.Context, actor lifecycle.Actor, ticketID, text string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	outcome, err := lifecycle.ApplyComment(s.now(), *ticket, actor, text)
	if err != nil {
		return nil, err
	}

	appended := outcome.Ticket.Comments[len(outcome.Ticket.Comments)-1]
	if err := s.tickets.AppendComment(ctx, ticket.ID, appended); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.EventTicketCommentAdded, ticket.ID, actor, outcome.Intents)
	return &outcome.Ticket, nil
}

// GetForCaller fetches a ticket, scoping end-users to their own tickets.
// Terminal tickets stay viewable by their reporter.
func (s *TicketService) GetForCaller(ctx context.Context, actor lifecycle.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if !actor.Role.IsStaff() && ticket.ReporterID != actor.ID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

// ListMine returns the caller's own tickets.
func (s *TicketService) ListMine(ctx context.Context, actor lifecycle.Actor, filter repository.TicketFilter) ([]domain.Ticket, error) {
	reporterID := actor.ID
	filter.ReporterID = &reporterID
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	return tickets, apperrors.MapError(err)
}

// ListAll returns tickets across all reporters. Staff only; the role
// gate is enforced at the route.
func (s *TicketService) ListAll(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	return tickets, apperrors.MapError(err)
}

// ExportCSV renders all tickets as CSV.
func (s *TicketService) ExportCSV(ctx context.Context) ([]byte, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{Limit: 10000})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{
		"display_id", "status", "priority", "category", "short_description",
		"reporter_email", "request_for_email", "assigned_to_email",
		"created_at", "updated_at", "resolved_at", "time_spent_minutes",
	}
	if err := w.Write(header); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	for i := range tickets {
		t := &tickets[i]
		assignedTo := ""
		if t.AssignedToEmail != nil {
			assignedTo = *t.AssignedToEmail
		}
		resolvedAt := ""
		if t.ResolvedAt != nil {
			resolvedAt = t.ResolvedAt.Format(time.RFC3339)
		}
		timeSpent := ""
		if t.TimeSpentMinutes != nil {
			timeSpent = strconv.Itoa(*t.TimeSpentMinutes)
		}
		record := []string{
			t.DisplayID, string(t.Status), string(t.Priority), string(t.Category), t.ShortDescription,
			t.ReporterEmail, t.RequestForEmail, assignedTo,
			t.CreatedAt.Format(time.RFC3339), t.UpdatedAt.Format(time.RFC3339), resolvedAt, timeSpent,
		}
		if err := w.Write(record); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return buf.Bytes(), nil
}

// SummaryCounts returns per-status totals, served from the Redis cache
// when warm.
func (s *TicketService) SummaryCounts(ctx context.Context) (*repository.SummaryCounts, error) {
	var cached repository.SummaryCounts
	if s.cacheGet(ctx, summaryCountsCacheKey, &cached) {
		return &cached, nil
	}
	counts, err := s.tickets.SummaryCounts(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.cacheSet(ctx, summaryCountsCacheKey, counts)
	return counts, nil
}

// StatusSummary returns the status/priority breakdown, cached like
// SummaryCounts.
func (s *TicketService) StatusSummary(ctx context.Context) ([]repository.StatusPriorityCount, error) {
	var cached []repository.StatusPriorityCount
	if s.cacheGet(ctx, statusSummaryCacheKey, &cached) {
		return cached, nil
	}
	rows, err := s.tickets.StatusSummary(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.cacheSet(ctx, statusSummaryCacheKey, rows)
	return rows, nil
}

// Purge clears the whole ticket store. Admin danger operation.
func (s *TicketService) Purge(ctx context.Context) error {
	if err := s.tickets.DeleteAll(ctx); err != nil {
		return apperrors.MapError(err)
	}
	s.invalidateStats(ctx)
	return nil
}

func (s *TicketService) nextDisplayID(ctx context.Context) (string, error) {
	last, err := s.tickets.LastCreated(ctx)
	lastDisplayID := ""
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return "", err
		}
	} else {
		lastDisplayID = last.DisplayID
	}
	next, ok := lifecycle.NextDisplayID(lastDisplayID)
	if !ok {
		s.logger.Warn("malformed or missing last display id; restarting sequence",
			zap.String("last_display_id", lastDisplayID))
	}
	return next, nil
}

func (s *TicketService) publish(ctx context.Context, eventType events.EventType, ticketID string, actor lifecycle.Actor, intents []lifecycle.NotificationIntent) {
	if s.dispatcher == nil || len(intents) == 0 {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     actor,
		Timestamp: s.now(),
		Intents:   intents,
	})
}

func (s *TicketService) cacheGet(ctx context.Context, key string, dest any) bool {
	if s.cache == nil || s.cache.Client == nil {
		return false
	}
	raw, err := s.cache.Client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (s *TicketService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Client.Set(ctx, key, raw, s.statsTTL).Err(); err != nil {
		s.logger.Debug("stats cache write failed", zap.Error(err))
	}
}

func (s *TicketService) invalidateStats(ctx context.Context) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	if err := s.cache.Client.Del(ctx, summaryCountsCacheKey, statusSummaryCacheKey).Err(); err != nil {
		s.logger.Debug("stats cache invalidation failed", zap.Error(err))
	}
}
