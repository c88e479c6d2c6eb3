package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// FakeProvider - провайдер в памяти для локальной разработки и тестов.
// Вебхук: JSON {"id","type","session_id","payment_status"}, подпись - hex HMAC-SHA256 тела.
type FakeProvider struct {
	secret string

	mu       sync.Mutex
	sessions map[string]*CheckoutStatus

	statusCalls atomic.Int64
	// StatusErr - если задан, GetCheckoutStatus возвращает эту ошибку
	StatusErr error
}

func NewFakeProvider(secret string) *FakeProvider {
	return &FakeProvider{secret: secret, sessions: make(map[string]*CheckoutStatus)}
}

func (f *FakeProvider) Name() string { return "fake" }

func (f *FakeProvider) CreateCheckoutSession(_ context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	id := "cs_fake_" + uuid.NewString()

	meta := make(map[string]string, len(req.Metadata))
	for k, v := range req.Metadata {
		meta[k] = v
	}

	f.mu.Lock()
	f.sessions[id] = &CheckoutStatus{
		SessionID:     id,
		Status:        SessionOpen,
		PaymentStatus: PaymentUnpaid,
		AmountTotal:   req.Amount,
		Currency:      req.Currency,
		Metadata:      meta,
	}
	f.mu.Unlock()

	return &CheckoutSession{SessionID: id, URL: "https://checkout.fake.local/pay/" + id}, nil
}

func (f *FakeProvider) GetCheckoutStatus(_ context.Context, sessionID string) (*CheckoutStatus, error) {
	f.statusCalls.Add(1)
	if f.StatusErr != nil {
		return nil, f.StatusErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("fake: no such session %s", sessionID)
	}
	cp := *s
	return &cp, nil
}

// MarkPaid имитирует успешную оплату
func (f *FakeProvider) MarkPaid(sessionID string) {
	f.setStatus(sessionID, SessionComplete, PaymentPaid)
}

// MarkExpired имитирует истёкшую сессию
func (f *FakeProvider) MarkExpired(sessionID string) {
	f.setStatus(sessionID, SessionExpired, PaymentUnpaid)
}

func (f *FakeProvider) setStatus(sessionID, status, paymentStatus string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[sessionID]; ok {
		s.Status = status
		s.PaymentStatus = paymentStatus
	}
}

// StatusCalls - сколько раз опрашивали провайдера
func (f *FakeProvider) StatusCalls() int64 {
	return f.statusCalls.Load()
}

type fakeEvent struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	SessionID     string `json:"session_id"`
	PaymentStatus string `json:"payment_status"`
}

func (f *FakeProvider) ParseWebhook(body []byte, signature string) (*WebhookEvent, error) {
	expected := f.Sign(body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, ErrInvalidSignature
	}

	var e fakeEvent
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if e.SessionID == "" {
		return nil, fmt.Errorf("%w: session_id is required", ErrMalformedPayload)
	}
	return &WebhookEvent{
		EventID:       e.ID,
		Type:          e.Type,
		SessionID:     e.SessionID,
		PaymentStatus: e.PaymentStatus,
	}, nil
}

// Sign возвращает подпись тела вебхука
func (f *FakeProvider) Sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(f.secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// PaidEvent собирает подписанное тело вебхука об оплате
func (f *FakeProvider) PaidEvent(sessionID string) (body []byte, signature string) {
	body, _ = json.Marshal(fakeEvent{
		ID:            "evt_" + uuid.NewString(),
		Type:          "checkout.session.completed",
		SessionID:     sessionID,
		PaymentStatus: PaymentPaid,
	})
	return body, f.Sign(body)
}
