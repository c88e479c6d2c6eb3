package email

import "sync"

// MockProvider используется в тестах и локально, когда SMTP не настроен.
// Письма не уходят, а складываются в память.
type MockProvider struct {
	mu   sync.Mutex
	sent []Email
}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (m *MockProvider) Send(email *Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, *email)
	return nil
}

// Sent возвращает копию отправленных писем
func (m *MockProvider) Sent() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Email, len(m.sent))
	copy(out, m.sent)
	return out
}
