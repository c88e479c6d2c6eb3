package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinTemplatesRender(t *testing.T) {
	tm := NewTemplateManager()

	html, err := tm.Render(TemplateReceipt, TemplateData{
		"Name":        "Alice",
		"PackageName": "5 Report Bundle",
		"Amount":      "2250.00",
		"Currency":    "USD",
		"Reports":     5,
		"Balance":     5,
		"SessionID":   "cs_test_1",
	})
	require.NoError(t, err)
	assert.Contains(t, html, "5 Report Bundle")
	assert.Contains(t, html, "cs_test_1")

	html, err = tm.Render(TemplateWelcome, TemplateData{"Name": "<script>"})
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")

	_, err = tm.Render("missing", nil)
	assert.Error(t, err)
}

func TestSMTPConfigValidate(t *testing.T) {
	_, err := NewSMTPProvider(SMTPConfig{})
	assert.Error(t, err)

	p, err := NewSMTPProvider(SMTPConfig{Host: "smtp.example.com", Port: 587, FromEmail: "reports@investoriq.app"})
	require.NoError(t, err)
	assert.Error(t, p.Send(&Email{Subject: "no recipients"}))
}

func TestMockProviderRecords(t *testing.T) {
	m := NewMockProvider()
	require.NoError(t, m.Send(&Email{To: []string{"a@x.com"}, Subject: "hi"}))

	sent := m.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "hi", sent[0].Subject)
}
