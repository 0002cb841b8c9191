package email

// Email - исходящее письмо. Сервисы заполняют либо Body, либо
// HTMLBody (через шаблон), расширенные поля вроде вложений здесь
// не нужны
type Email struct {
	From     string
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

// TemplateData представляет данные для шаблонов писем
type TemplateData map[string]interface{}
