package rbac

// Roles understood by the default policy.
const (
	RoleStudent    = "student"
	RoleTA         = "ta"
	RoleTeacher    = "teacher"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	RoleStudent: {
		"quiz:view",
		"attempt:create",
		"attempt:save",
		"attempt:submit",
		"attempt:view-own",
		"asset:view",
		"user:change_password",
	},
	RoleTA: {
		"quiz:view",
		"attempt:view-assigned",
		"attempt:grade",
		"asset:view",
		"user:change_password",
	},
	RoleTeacher: {
		"bank:*",
		"quiz:*",
		"attempt:view-all",
		"attempt:grade",
		"analytics:view",
		"asset:*",
		"enrollment:manage",
		"users:list",
		"user:change_password",
	},
	RoleAdmin: {
		"*", // everything
	},
	RoleSuperAdmin: {
		"*",
	},
}
