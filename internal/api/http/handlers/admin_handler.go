package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/opsdesk/helpdesk/internal/api/dto"
	"github.com/opsdesk/helpdesk/internal/domain"
	"github.com/opsdesk/helpdesk/internal/service"
	apperrors "github.com/opsdesk/helpdesk/pkg/util"
)

// AdminHandler covers profile and client administration endpoints.
type AdminHandler struct {
	service *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{service: adminService}
}

// GetUser GET /admin/users/:uid.
func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	profile, err := h.service.GetUser(c.UserContext(), c.Params("uid"))
	if err != nil {
		return err
	}
	return c.JSON(userResponse(profile))
}

// ListUsers GET /api/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	profiles, err := h.service.ListUsers(c.UserContext(), pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(profiles))
	for i := range profiles {
		items = append(items, userResponse(&profiles[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateUser PATCH /admin/users/:uid.
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.ProfileUpdateInput{Role: req.Role}
	if req.ClientID != nil {
		if *req.ClientID == "" {
			input.ClearClient = true
		} else {
			input.ClientID = req.ClientID
		}
	}
	profile, err := h.service.UpdateUser(c.UserContext(), c.Params("uid"), input)
	if err != nil {
		return err
	}
	return c.JSON(userResponse(profile))
}

// DeleteUser DELETE /admin/users/:uid.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	if err := h.service.DeleteUser(c.UserContext(), c.Params("uid")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// CreateClient POST /api/clients.
func (h *AdminHandler) CreateClient(c *fiber.Ctx) error {
	var req dto.ClientRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	client := &domain.Client{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
	}
	if err := h.service.CreateClient(c.UserContext(), client); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(clientResponse(client))
}

// GetClient GET /api/clients/:id.
func (h *AdminHandler) GetClient(c *fiber.Ctx) error {
	client, err := h.service.GetClient(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(clientResponse(client))
}

// ListClients GET /api/clients.
func (h *AdminHandler) ListClients(c *fiber.Ctx) error {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	clients, err := h.service.ListClients(c.UserContext(), pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.ClientResponse, 0, len(clients))
	for i := range clients {
		items = append(items, clientResponse(&clients[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateClient PATCH /api/clients/:id.
func (h *AdminHandler) UpdateClient(c *fiber.Ctx) error {
	var req dto.ClientRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	client, err := h.service.GetClient(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if req.Name != "" {
		client.Name = req.Name
	}
	if req.ContactEmail != "" {
		client.ContactEmail = req.ContactEmail
	}
	if req.ContactPhone != "" {
		client.ContactPhone = req.ContactPhone
	}
	if err := h.service.UpdateClient(c.UserContext(), client); err != nil {
		return err
	}
	return c.JSON(clientResponse(client))
}

// DeleteClient DELETE /api/clients/:id.
func (h *AdminHandler) DeleteClient(c *fiber.Ctx) error {
	if err := h.service.DeleteClient(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func userResponse(profile *domain.Profile) dto.UserResponse {
	return dto.UserResponse{
		ID:       profile.ID,
		Email:    profile.Email,
		Role:     profile.Role,
		ClientID: profile.ClientID,
	}
}

func clientResponse(client *domain.Client) dto.ClientResponse {
	return dto.ClientResponse{
		ID:           client.ID,
		Name:         client.Name,
		ContactEmail: client.ContactEmail,
		ContactPhone: client.ContactPhone,
		UserCount:    client.UserCount,
		CreatedAt:    client.CreatedAt,
		UpdatedAt:    client.UpdatedAt,
	}
}
