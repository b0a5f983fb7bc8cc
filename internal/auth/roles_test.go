package auth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opsdesk/helpdesk/internal/domain"
)

func TestRoleCan(t *testing.T) {
	tests := []struct {
		role domain.Role
		cap  Capability
		want bool
	}{
		{domain.RoleUser, CapCreateTicket, true},
		{domain.RoleUser, CapViewAllTickets, false},
		{domain.RoleUser, CapAssignTickets, false},
		{domain.RoleUser, CapExportTickets, false},
		{domain.RoleUser, CapManageUsers, false},
		{domain.RoleUser, CapPurgeTickets, false},
		{domain.RoleSupport, CapCreateTicket, true},
		{domain.RoleSupport, CapViewAllTickets, true},
		{domain.RoleSupport, CapAssignTickets, true},
		{domain.RoleSupport, CapExportTickets, true},
		{domain.RoleSupport, CapViewStats, true},
		{domain.RoleSupport, CapManageUsers, false},
		{domain.RoleSupport, CapManageClients, false},
		{domain.RoleSupport, CapPurgeTickets, false},
		{domain.RoleAdmin, CapViewAllTickets, true},
		{domain.RoleAdmin, CapManageUsers, true},
		{domain.RoleAdmin, CapManageClients, true},
		{domain.RoleAdmin, CapPurgeTickets, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.cap), func(t *testing.T) {
			require.Equal(t, tt.want, RoleCan(tt.role, tt.cap))
		})
	}
}

func TestRoleCanUnknownRole(t *testing.T) {
	require.False(t, RoleCan(domain.Role("GUEST"), CapCreateTicket))
	require.False(t, RoleCan("", CapCreateTicket))
}
