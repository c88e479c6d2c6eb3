package payments

import (
	"context"
	"errors"
)

var (
	// ErrInvalidSignature - подпись вебхука не сошлась
	ErrInvalidSignature = errors.New("payments: invalid webhook signature")
	// ErrMalformedPayload - подпись верна (или не требуется), но тело не разобрать
	ErrMalformedPayload = errors.New("payments: malformed webhook payload")
	// ErrUnknownProvider - в конфиге указан неизвестный провайдер
	ErrUnknownProvider = errors.New("payments: unknown provider")
)

// Статусы сессии, общие для всех провайдеров (в терминах Stripe Checkout)
const (
	SessionOpen     = "open"
	SessionComplete = "complete"
	SessionExpired  = "expired"

	PaymentPaid     = "paid"
	PaymentUnpaid   = "unpaid"
	PaymentRefunded = "refunded"
)

type CheckoutRequest struct {
	Amount        float64 // в основных единицах валюты (доллары)
	Currency      string
	ProductName   string
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
	Metadata      map[string]string
}

type CheckoutSession struct {
	SessionID string
	URL       string
}

type CheckoutStatus struct {
	SessionID     string
	Status        string
	PaymentStatus string
	AmountTotal   float64
	Currency      string
	Metadata      map[string]string
}

func (s *CheckoutStatus) IsPaid() bool {
	return s.PaymentStatus == PaymentPaid
}

// WebhookEvent - проверенное уведомление провайдера
type WebhookEvent struct {
	EventID       string
	Type          string
	SessionID     string
	PaymentStatus string
	// Ack - тело ответа, которого ждёт провайдер (Robokassa: "OK<InvId>")
	Ack string
}

func (e *WebhookEvent) IsPaid() bool {
	return e.PaymentStatus == PaymentPaid
}

// Provider - внешний платёжный провайдер
type Provider interface {
	Name() string
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	GetCheckoutStatus(ctx context.Context, sessionID string) (*CheckoutStatus, error)

	// ParseWebhook проверяет подпись и разбирает тело.
	// Ошибки: ErrInvalidSignature, ErrMalformedPayload.
	ParseWebhook(body []byte, signature string) (*WebhookEvent, error)
}
