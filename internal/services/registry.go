package services

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	AuthService             AuthService
	TwoFactorService        TwoFactorService
	RoleService             RoleService
	StaffApplicationService StaffApplicationService
}
