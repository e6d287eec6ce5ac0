package security

import (
	"fmt"
	"log/slog"
)

// Role represents a staff role at the circulation desk
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleLibrarian Role = "librarian"
	RoleAssistant Role = "assistant"
)

// Permission represents an action permission
type Permission string

const (
	PermRegisterMember  Permission = "register_member"
	PermAddBook         Permission = "add_book"
	PermCirculate       Permission = "circulate" // borrow, return, reserve, cancel
	PermCollectFines    Permission = "collect_fines"
	PermRepairCredit    Permission = "repair_credit"
	PermRenewLoans      Permission = "renew_loans"
	PermSettleInventory Permission = "settle_inventory" // lost and damaged copies
	PermProcessQueue    Permission = "process_queue"
	PermViewEvents      Permission = "view_events"
	PermManageStaff     Permission = "manage_staff"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermRegisterMember,
		PermAddBook,
		PermCirculate,
		PermCollectFines,
		PermRepairCredit,
		PermRenewLoans,
		PermSettleInventory,
		PermProcessQueue,
		PermViewEvents,
		PermManageStaff,
	},
	RoleLibrarian: {
		PermRegisterMember,
		PermAddBook,
		PermCirculate,
		PermCollectFines,
		PermRepairCredit,
		PermRenewLoans,
		PermSettleInventory,
		PermProcessQueue,
		PermViewEvents,
	},
	RoleAssistant: {
		PermCirculate,
		PermCollectFines,
		PermViewEvents,
	},
}

// AuthorizationService handles authorization checks
type AuthorizationService struct {
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{logger: logger}
}

// HasPermission checks if a role has a specific permission
func (as *AuthorizationService) HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}
	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// ValidatePermission validates that a role has a specific permission
func (as *AuthorizationService) ValidatePermission(role Role, permission Permission) error {
	if !as.HasPermission(role, permission) {
		as.logger.Warn("permission denied",
			slog.String("role", string(role)),
			slog.String("permission", string(permission)),
		)
		return fmt.Errorf("permission denied: %s role cannot %s", role, permission)
	}
	return nil
}

// GetRolePermissions returns all permissions for a role
func (as *AuthorizationService) GetRolePermissions(role Role) []Permission {
	return RolePermissions[role]
}
