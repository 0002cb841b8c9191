package email

import "sync"

// MockProvider собирает письма в память. Используется в тестах и в
// окружениях без настроенного SMTP.
type MockProvider struct {
	mu   sync.Mutex
	Sent []*Email
}

// NewMockProvider создает новый mock-провайдер
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) Send(email *Email) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Sent = append(p.Sent, email)
	return nil
}

func (p *MockProvider) SendWithTemplate(templateName string, data TemplateData, email *Email) error {
	return p.Send(email)
}

func (p *MockProvider) SendVerificationCode(to, code string) error {
	return p.Send(&Email{To: []string{to}, Subject: "Подтверждение регистрации", Body: code})
}

func (p *MockProvider) SendTwoFactorDisableLink(to, link string) error {
	return p.Send(&Email{To: []string{to}, Subject: "Отключение двухфакторной аутентификации", Body: link})
}

func (p *MockProvider) SendApplicationReviewed(to, desiredRole, status, comment string) error {
	return p.Send(&Email{To: []string{to}, Subject: "Решение по вашей заявке", Body: status})
}

func (p *MockProvider) Validate() error { return nil }

func (p *MockProvider) Close() error { return nil }

// LastSent возвращает последнее отправленное письмо
func (p *MockProvider) LastSent() *Email {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Sent) == 0 {
		return nil
	}
	return p.Sent[len(p.Sent)-1]
}
