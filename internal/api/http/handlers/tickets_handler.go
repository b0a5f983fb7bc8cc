package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/opsdesk/helpdesk/internal/api/dto"
	"github.com/opsdesk/helpdesk/internal/auth"
	"github.com/opsdesk/helpdesk/internal/domain"
	"github.com/opsdesk/helpdesk/internal/lifecycle"
	"github.com/opsdesk/helpdesk/internal/repository"
	"github.com/opsdesk/helpdesk/internal/service"
	apperrors "github.com/opsdesk/helpdesk/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketCreateInput{
		RequestForEmail:  req.RequestForEmail,
		Category:         req.Category,
		ShortDescription: req.ShortDescription,
		LongDescription:  req.LongDescription,
		ContactNumber:    req.ContactNumber,
		Priority:         req.Priority,
		HostnameAssetID:  req.HostnameAssetID,
		Attachments:      attachmentsFromRequest(req.Attachments),
	}
	ticket, err := h.service.Create(c.UserContext(), principal.Actor(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.TicketCreatedResponse{
		ID:        ticket.ID,
		DisplayID: ticket.DisplayID,
	})
}

// Update PATCH /ticket/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := lifecycle.UpdateInput{
		RequestForEmail:  req.RequestForEmail,
		Category:         req.Category,
		ShortDescription: req.ShortDescription,
		LongDescription:  req.LongDescription,
		ContactNumber:    req.ContactNumber,
		HostnameAssetID:  req.HostnameAssetID,
		Priority:         req.Priority,
		Status:           req.Status,
		AssignedToEmail:  req.AssignedToEmail,
		ClosureNotes:     req.ClosureNotes,
		TimeSpentMinutes: req.TimeSpentMinutes,
		Attachments:      attachmentsFromRequest(req.Attachments),
	}
	ticket, err := h.service.Update(c.UserContext(), principal.Actor(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(ticketResponse(ticket))
}

// AddComment POST /ticket/:id/add_comment.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.AddComment(c.UserContext(), principal.Actor(), c.Params("id"), req.CommentText)
	if err != nil {
		return err
	}
	return c.JSON(ticketResponse(ticket))
}

// Get GET /ticket/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.GetForCaller(c.UserContext(), principal.Actor(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(ticketResponse(ticket))
}

// ListMine GET /tickets/my.
func (h *TicketsHandler) ListMine(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	tickets, err := h.service.ListMine(c.UserContext(), principal.Actor(), parseTicketQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(tickets)})
}

// ListAll GET /tickets/all. Staff only (gated at the route).
func (h *TicketsHandler) ListAll(c *fiber.Ctx) error {
	tickets, err := h.service.ListAll(c.UserContext(), parseTicketQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(tickets)})
}

// Export GET /tickets/export. Staff only.
func (h *TicketsHandler) Export(c *fiber.Ctx) error {
	data, err := h.service.ExportCSV(c.UserContext())
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="tickets.csv"`)
	return c.Send(data)
}

// SummaryCounts GET /tickets/summary-counts. Staff only.
func (h *TicketsHandler) SummaryCounts(c *fiber.Ctx) error {
	counts, err := h.service.SummaryCounts(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.SummaryCountsResponse{
		Total:      counts.Total,
		Open:       counts.ByStatus[domain.TicketStatusOpen],
		InProgress: counts.ByStatus[domain.TicketStatusInProgress],
		Hold:       counts.ByStatus[domain.TicketStatusHold],
		Resolved:   counts.ByStatus[domain.TicketStatusResolved],
		Closed:     counts.ByStatus[domain.TicketStatusClosed],
	})
}

// StatusSummary GET /tickets/status-summary. Staff only.
func (h *TicketsHandler) StatusSummary(c *fiber.Ctx) error {
	rows, err := h.service.StatusSummary(c.UserContext())
	if err != nil {
		return err
	}
	resp := make([]dto.StatusSummaryRow, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, dto.StatusSummaryRow{
			Status:   row.Status,
			Priority: row.Priority,
			Count:    row.Count,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Purge DELETE /admin/tickets. Admin danger operation.
func (h *TicketsHandler) Purge(c *fiber.Ctx) error {
	if err := h.service.Purge(c.UserContext()); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseTicketQuery(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.TrimSpace(part)))
		}
	}
	if categoryStr := c.Query("category"); categoryStr != "" {
		for _, part := range strings.Split(categoryStr, ",") {
			filter.Categories = append(filter.Categories, domain.TicketCategory(strings.TrimSpace(part)))
		}
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func attachmentsFromRequest(reqs []dto.AttachmentRequest) []domain.Attachment {
	if len(reqs) == 0 {
		return nil
	}
	attachments := make([]domain.Attachment, 0, len(reqs))
	for _, att := range reqs {
		attachments = append(attachments, domain.Attachment{
			URL:      att.URL,
			FileName: att.FileName,
		})
	}
	return attachments
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	comments := make([]dto.CommentResponse, 0, len(ticket.Comments))
	for _, comment := range ticket.Comments {
		comments = append(comments, dto.CommentResponse{
			Text:      comment.Text,
			Commenter: comment.Commenter,
			Timestamp: comment.Timestamp,
		})
	}
	attachments := make([]dto.AttachmentResponse, 0, len(ticket.Attachments))
	for _, att := range ticket.Attachments {
		attachments = append(attachments, dto.AttachmentResponse{
			URL:      att.URL,
			FileName: att.FileName,
		})
	}
	return dto.TicketResponse{
		ID:               ticket.ID,
		DisplayID:        ticket.DisplayID,
		ReporterID:       ticket.ReporterID,
		ReporterEmail:    ticket.ReporterEmail,
		RequestForEmail:  ticket.RequestForEmail,
		Category:         ticket.Category,
		ShortDescription: ticket.ShortDescription,
		LongDescription:  ticket.LongDescription,
		ContactNumber:    ticket.ContactNumber,
		HostnameAssetID:  ticket.HostnameAssetID,
		Priority:         ticket.Priority,
		Status:           ticket.Status,
		AssignedToID:     ticket.AssignedToID,
		AssignedToEmail:  ticket.AssignedToEmail,
		Comments:         comments,
		Attachments:      attachments,
		CreatedAt:        ticket.CreatedAt,
		UpdatedAt:        ticket.UpdatedAt,
		ResolvedAt:       ticket.ResolvedAt,
		TimeSpentMinutes: ticket.TimeSpentMinutes,
		ClosureNotes:     ticket.ClosureNotes,
		ClosedByEmail:    ticket.ClosedByEmail,
	}
}

func ticketResponses(tickets []domain.Ticket) []dto.TicketResponse {
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return items
}
