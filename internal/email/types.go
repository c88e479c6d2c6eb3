package email

// Attachment - вложение (PDF отчёта)
type Attachment struct {
	Name        string
	Content     []byte
	ContentType string
}

type Email struct {
	To          []string
	Subject     string
	Body        string
	HTMLBody    string
	Attachments []Attachment
}

// TemplateData - данные для шаблонов писем
type TemplateData map[string]interface{}

// Provider отправляет готовое письмо
type Provider interface {
	Send(email *Email) error
}
