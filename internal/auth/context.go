package auth

import (
	"context"

	"github.com/formula-lab/crm-api/internal/domain"
)

// UserContext holds authenticated user information
type UserContext struct {
	UserID      string
	DisplayName string
	Email       string
	Roles       []domain.UserRoleType
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok && user != nil
}

// HasRole checks if user has a specific role
func (u *UserContext) HasRole(role domain.UserRoleType) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole checks if user has any of the specified roles
func (u *UserContext) HasAnyRole(roles ...domain.UserRoleType) bool {
	for _, role := range roles {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}

// IsSuperAdmin checks if user is a super admin
func (u *UserContext) IsSuperAdmin() bool {
	return u.HasRole(domain.RoleSuperAdmin)
}

// Actor returns the name recorded on notes, links and audit entries
func (u *UserContext) Actor() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Email != "" {
		return u.Email
	}
	return u.UserID
}

// HasPermission checks if user has a specific permission based on their roles
func (u *UserContext) HasPermission(permission domain.PermissionType) bool {
	if u.IsSuperAdmin() {
		return true
	}
	for _, role := range u.Roles {
		if hasRolePermission(role, permission) {
			return true
		}
	}
	return false
}

// Permissions returns the effective permissions of the user
func (u *UserContext) Permissions() []domain.PermissionType {
	perms := make([]domain.PermissionType, 0, len(domain.AllPermissions))
	for _, p := range domain.AllPermissions {
		if u.HasPermission(p) {
			perms = append(perms, p)
		}
	}
	return perms
}

// RolesAsStrings returns roles as a slice of strings
func (u *UserContext) RolesAsStrings() []string {
	result := make([]string, len(u.Roles))
	for i, role := range u.Roles {
		result[i] = string(role)
	}
	return result
}

// rolePermissions is the default permission set per role. Super admins hold
// every permission and are handled before this table is consulted.
var rolePermissions = map[domain.UserRoleType][]domain.PermissionType{
	domain.RoleAdmin: {
		domain.PermissionContactsRead, domain.PermissionContactsWrite, domain.PermissionContactsDelete,
		domain.PermissionRequestsRead, domain.PermissionRequestsWrite, domain.PermissionRequestsDelete,
		domain.PermissionCustomersRead, domain.PermissionCustomersWrite, domain.PermissionCustomersDelete,
		domain.PermissionCasesRead, domain.PermissionCasesWrite,
		domain.PermissionOrdersRead, domain.PermissionOrdersWrite,
		domain.PermissionConversationsRead, domain.PermissionConversationsWrite,
		domain.PermissionSettingsRead, domain.PermissionSettingsWrite,
		domain.PermissionSyncRun,
		domain.PermissionReportsView, domain.PermissionReportsExport,
		domain.PermissionIntegrations,
		domain.PermissionSystemAuditLogs,
	},
	domain.RoleSales: {
		domain.PermissionContactsRead, domain.PermissionContactsWrite,
		domain.PermissionRequestsRead, domain.PermissionRequestsWrite,
		domain.PermissionCustomersRead, domain.PermissionCustomersWrite,
		domain.PermissionCasesRead, domain.PermissionCasesWrite,
		domain.PermissionOrdersRead,
		domain.PermissionConversationsRead, domain.PermissionConversationsWrite,
		domain.PermissionSettingsRead,
		domain.PermissionReportsView,
	},
	domain.RoleProduction: {
		domain.PermissionRequestsRead,
		domain.PermissionCustomersRead,
		domain.PermissionCasesRead,
		domain.PermissionOrdersRead, domain.PermissionOrdersWrite,
		domain.PermissionSettingsRead,
		domain.PermissionReportsView,
	},
	domain.RoleViewer: {
		domain.PermissionContactsRead,
		domain.PermissionRequestsRead,
		domain.PermissionCustomersRead,
		domain.PermissionCasesRead,
		domain.PermissionOrdersRead,
		domain.PermissionConversationsRead,
		domain.PermissionSettingsRead,
		domain.PermissionReportsView,
	},
	domain.RoleAPIService: {
		domain.PermissionContactsRead, domain.PermissionContactsWrite,
		domain.PermissionRequestsRead, domain.PermissionRequestsWrite,
		domain.PermissionCustomersRead, domain.PermissionCustomersWrite,
		domain.PermissionConversationsRead, domain.PermissionConversationsWrite,
		domain.PermissionSyncRun,
	},
}

func hasRolePermission(role domain.UserRoleType, permission domain.PermissionType) bool {
	for _, p := range rolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}
