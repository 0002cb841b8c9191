package handlers

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler             *AuthHandler
	TwoFactorHandler        *TwoFactorHandler
	AdminHandler            *AdminHandler
	StaffApplicationHandler *StaffApplicationHandler
}
