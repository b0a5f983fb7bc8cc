package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/opsdesk/helpdesk/internal/domain"
	apperrors "github.com/opsdesk/helpdesk/pkg/util"
)

// Capability names one permission in the role matrix.
type Capability string

const (
	CapCreateTicket   Capability = "create_ticket"
	CapViewAllTickets Capability = "view_all_tickets"
	CapAssignTickets  Capability = "assign_tickets"
	CapExportTickets  Capability = "export_tickets"
	CapViewStats      Capability = "view_stats"
	CapManageUsers    Capability = "manage_users"
	CapManageClients  Capability = "manage_clients"
	CapPurgeTickets   Capability = "purge_tickets"
)

// roleCapabilities is the explicit capability matrix. Ownership-scoped
// permissions (reading or editing your own ticket) are enforced by the
// lifecycle engine, not listed here.
var roleCapabilities = map[domain.Role]map[Capability]bool{
	domain.RoleUser: {
		CapCreateTicket: true,
	},
	domain.RoleSupport: {
		CapCreateTicket:   true,
		CapViewAllTickets: true,
		CapAssignTickets:  true,
		CapExportTickets:  true,
		CapViewStats:      true,
	},
	domain.RoleAdmin: {
		CapCreateTicket:   true,
		CapViewAllTickets: true,
		CapAssignTickets:  true,
		CapExportTickets:  true,
		CapViewStats:      true,
		CapManageUsers:    true,
		CapManageClients:  true,
		CapPurgeTickets:   true,
	},
}

// RoleCan reports whether the role holds the capability.
func RoleCan(role domain.Role, cap Capability) bool {
	return roleCapabilities[role][cap]
}

// RequireCapability rejects callers whose role lacks the capability.
func RequireCapability(cap Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("missing authenticated principal")
		}
		if !RoleCan(principal.Profile.Role, cap) {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
