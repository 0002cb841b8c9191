package models

type UserRole string
type ApplicationStatus string

const (
	UserRoleClient   UserRole = "CLIENT"
	UserRoleEmployee UserRole = "EMPLOYEE"
	UserRoleSupplier UserRole = "SUPPLIER"
	UserRoleDriver   UserRole = "DRIVER"
	UserRoleAdmin    UserRole = "ADMIN"

	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusApproved ApplicationStatus = "approved"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// ValidRoles - все допустимые роли пользователя
var ValidRoles = []UserRole{
	UserRoleClient,
	UserRoleEmployee,
	UserRoleSupplier,
	UserRoleDriver,
	UserRoleAdmin,
}

// IsValidRole проверяет, что роль входит в список допустимых
func IsValidRole(role UserRole) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// StaffRoles - роли, доступные через заявку на работу
var StaffRoles = []UserRole{
	UserRoleEmployee,
	UserRoleSupplier,
	UserRoleDriver,
}

// IsStaffRole проверяет, что роль можно запросить через заявку
func IsStaffRole(role UserRole) bool {
	for _, r := range StaffRoles {
		if r == role {
			return true
		}
	}
	return false
}
