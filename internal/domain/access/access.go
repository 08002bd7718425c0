// Package access holds the static role-to-action permission table.
package access

import "github.com/Strob0t/ServicePulse/internal/domain/user"

// Action names a protected operation.
type Action string

const (
	CatalogRead     Action = "catalog.read"
	CatalogWrite    Action = "catalog.write"
	MarketingWrite  Action = "marketing.write"
	SettingsWrite   Action = "settings.write"
	TicketsManage   Action = "tickets.manage"
	UploadsWrite    Action = "uploads.write"
	AuditRead       Action = "audit.read"
	UsersManage     Action = "users.manage"
	PlatformManage  Action = "platform.manage"
	AccountReadSelf Action = "account.read"
)

var table = map[user.Role]map[Action]bool{
	user.RoleOwner: {
		PlatformManage:  true,
		AccountReadSelf: true,
	},
	user.RoleAdmin: {
		CatalogRead:     true,
		CatalogWrite:    true,
		MarketingWrite:  true,
		SettingsWrite:   true,
		TicketsManage:   true,
		UploadsWrite:    true,
		AuditRead:       true,
		UsersManage:     true,
		AccountReadSelf: true,
	},
	user.RoleStaff: {
		CatalogRead:     true,
		TicketsManage:   true,
		UploadsWrite:    true,
		AccountReadSelf: true,
	},
	user.RoleCustomer: {
		CatalogRead:     true,
		AccountReadSelf: true,
	},
}

// CanAccess reports whether role may perform action. Unknown roles and
// actions are denied. OWNER only holds platform actions; tenant work is
// done through a tenant-scoped account.
func CanAccess(role user.Role, action Action) bool {
	return table[role][action]
}
