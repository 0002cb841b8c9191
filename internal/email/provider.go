package email

// Provider определяет интерфейс для отправки email
type Provider interface {
	// Send отправляет простое email сообщение
	Send(email *Email) error

	// SendWithTemplate отправляет email используя шаблон
	SendWithTemplate(templateName string, data TemplateData, email *Email) error

	// SendVerificationCode отправляет код подтверждения регистрации
	SendVerificationCode(to, code string) error

	// SendTwoFactorDisableLink отправляет ссылку отключения 2FA
	SendTwoFactorDisableLink(to, link string) error

	// SendApplicationReviewed уведомляет о решении по заявке на штатную роль
	SendApplicationReviewed(to, desiredRole, status, comment string) error

	// Validate проверяет конфигурацию провайдера
	Validate() error

	// Close закрывает соединение с провайдером
	Close() error
}

// TemplateRenderer определяет интерфейс для рендеринга шаблонов
type TemplateRenderer interface {
	// Render рендерит шаблон с данными
	Render(templateName string, data TemplateData) (string, error)

	// AddTemplate добавляет шаблон в рендерер
	AddTemplate(name string, template string) error

	// LoadTemplates загружает шаблоны из директории
	LoadTemplates(dirPath string) error
}
