package email

import (
	"fmt"
	"html/template"
	"strings"
	"sync"
)

const (
	TemplateWelcome     = "welcome"
	TemplateReceipt     = "receipt"
	TemplateReportReady = "report_ready"
)

// TemplateManager хранит разобранные HTML-шаблоны писем
type TemplateManager struct {
	templates map[string]*template.Template
	mutex     sync.RWMutex
}

// NewTemplateManager создаёт менеджер со встроенными шаблонами
func NewTemplateManager() *TemplateManager {
	tm := &TemplateManager{templates: make(map[string]*template.Template)}
	for name, text := range builtinTemplates {
		// встроенные шаблоны проверены тестом, ошибка тут - баг в коде
		if err := tm.AddTemplate(name, text); err != nil {
			panic(err)
		}
	}
	return tm
}

func (tm *TemplateManager) Render(templateName string, data TemplateData) (string, error) {
	tm.mutex.RLock()
	tpl, exists := tm.templates[templateName]
	tm.mutex.RUnlock()

	if !exists {
		return "", fmt.Errorf("template not found: %s", templateName)
	}

	var buf strings.Builder
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// AddTemplate добавляет или заменяет шаблон
func (tm *TemplateManager) AddTemplate(name string, templateStr string) error {
	tpl, err := template.New(name).Parse(templateStr)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	tm.mutex.Lock()
	tm.templates[name] = tpl
	tm.mutex.Unlock()
	return nil
}

var builtinTemplates = map[string]string{
	TemplateWelcome: `<!DOCTYPE html>
<html>
<body style="font-family: Helvetica, Arial, sans-serif; color: #0A1628;">
    <h1>Welcome to InvestorIQ, {{.Name}}!</h1>
    <p>Your account is ready. Upload a property document and purchase a report package to get your first investment analysis.</p>
    <p>Questions? Contact us at {{.SupportEmail}}.</p>
</body>
</html>`,

	TemplateReceipt: `<!DOCTYPE html>
<html>
<body style="font-family: Helvetica, Arial, sans-serif; color: #0A1628;">
    <h1>Payment received</h1>
    <p>Hi {{.Name}}, thank you for purchasing the <strong>{{.PackageName}}</strong>.</p>
    <table>
        <tr><td>Amount</td><td>{{.Amount}} {{.Currency}}</td></tr>
        <tr><td>Reports credited</td><td>{{.Reports}}</td></tr>
        <tr><td>Available reports</td><td>{{.Balance}}</td></tr>
        <tr><td>Reference</td><td>{{.SessionID}}</td></tr>
    </table>
</body>
</html>`,

	TemplateReportReady: `<!DOCTYPE html>
<html>
<body style="font-family: Helvetica, Arial, sans-serif; color: #0A1628;">
    <h1>Your report is ready</h1>
    <p>Hi {{.Name}}, the investment analysis for <strong>{{.PropertyName}}</strong> is complete.</p>
    <p>The PDF report is attached to this email and available in your dashboard.</p>
</body>
</html>`,
}
