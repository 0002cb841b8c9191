package email

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPProvider реализует Provider поверх gomail
type SMTPProvider struct {
	config   *SMTPConfig
	dialer   *gomail.Dialer
	renderer TemplateRenderer
}

// NewSMTPProvider создает новый SMTP провайдер
func NewSMTPProvider(config *SMTPConfig, renderer TemplateRenderer) *SMTPProvider {
	dialer := gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)

	return &SMTPProvider{
		config:   config,
		dialer:   dialer,
		renderer: renderer,
	}
}

// Send отправляет email сообщение
func (p *SMTPProvider) Send(email *Email) error {
	if err := p.Validate(); err != nil {
		return err
	}

	m := gomail.NewMessage()

	from := email.From
	if from == "" {
		from = p.config.FromEmail
	}
	if p.config.FromName != "" {
		m.SetAddressHeader("From", from, p.config.FromName)
	} else {
		m.SetHeader("From", from)
	}

	m.SetHeader("To", email.To...)
	m.SetHeader("Subject", email.Subject)

	if email.HTMLBody != "" {
		m.SetBody("text/html", email.HTMLBody)
		if email.Body != "" {
			m.AddAlternative("text/plain", email.Body)
		}
	} else {
		m.SetBody("text/plain", email.Body)
	}

	if err := p.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendWithTemplate отправляет email используя шаблон
func (p *SMTPProvider) SendWithTemplate(templateName string, data TemplateData, email *Email) error {
	if p.renderer == nil {
		return fmt.Errorf("template renderer is not configured")
	}

	htmlBody, err := p.renderer.Render(templateName, data)
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}

	email.HTMLBody = htmlBody
	return p.Send(email)
}

// SendVerificationCode отправляет код подтверждения регистрации
func (p *SMTPProvider) SendVerificationCode(to, code string) error {
	return p.SendWithTemplate(TemplateVerificationCode, TemplateData{
		"Code": code,
	}, &Email{
		To:      []string{to},
		Subject: "Подтверждение регистрации",
		Body:    fmt.Sprintf("Ваш код подтверждения: %s. Код действует 15 минут.", code),
	})
}

// SendTwoFactorDisableLink отправляет ссылку отключения 2FA
func (p *SMTPProvider) SendTwoFactorDisableLink(to, link string) error {
	return p.SendWithTemplate(TemplateTwoFactorDisable, TemplateData{
		"Link": link,
	}, &Email{
		To:      []string{to},
		Subject: "Отключение двухфакторной аутентификации",
		Body:    fmt.Sprintf("Для отключения двухфакторной аутентификации перейдите по ссылке: %s. Ссылка действует 1 час.", link),
	})
}

// SendApplicationReviewed уведомляет о решении по заявке на штатную роль
func (p *SMTPProvider) SendApplicationReviewed(to, desiredRole, status, comment string) error {
	return p.SendWithTemplate(TemplateApplicationReviewed, TemplateData{
		"Role":    desiredRole,
		"Status":  status,
		"Comment": comment,
	}, &Email{
		To:      []string{to},
		Subject: "Решение по вашей заявке",
		Body:    fmt.Sprintf("Ваша заявка на роль %s: %s. %s", desiredRole, status, comment),
	})
}

// Validate проверяет конфигурацию SMTP
func (p *SMTPProvider) Validate() error {
	if p.config.Host == "" {
		return fmt.Errorf("SMTP host is required")
	}

	if p.config.Port <= 0 || p.config.Port > 65535 {
		return fmt.Errorf("invalid SMTP port: %d", p.config.Port)
	}

	return nil
}

// Close закрывает соединение (gomail открывает соединение на каждую отправку)
func (p *SMTPProvider) Close() error {
	return nil
}
