package access

import (
	"testing"

	"github.com/Strob0t/ServicePulse/internal/domain/user"
)

func TestCanAccess(t *testing.T) {
	tests := []struct {
		role   user.Role
		action Action
		want   bool
	}{
		{user.RoleOwner, PlatformManage, true},
		{user.RoleOwner, CatalogWrite, false},
		{user.RoleAdmin, CatalogWrite, true},
		{user.RoleAdmin, PlatformManage, false},
		{user.RoleAdmin, AuditRead, true},
		{user.RoleStaff, TicketsManage, true},
		{user.RoleStaff, CatalogWrite, false},
		{user.RoleStaff, SettingsWrite, false},
		{user.RoleStaff, UploadsWrite, true},
		{user.RoleCustomer, CatalogRead, true},
		{user.RoleCustomer, UploadsWrite, false},
		{"GUEST", CatalogRead, false},
		{user.RoleAdmin, "unknown.action", false},
	}
	for _, tt := range tests {
		if got := CanAccess(tt.role, tt.action); got != tt.want {
			t.Errorf("CanAccess(%s, %s) = %v, want %v", tt.role, tt.action, got, tt.want)
		}
	}
}

func TestCanAccess_Deterministic(t *testing.T) {
	for range 100 {
		if !CanAccess(user.RoleAdmin, MarketingWrite) {
			t.Fatal("expected admin to write marketing")
		}
	}
}
