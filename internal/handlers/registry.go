package handlers

import (
	"investoriq_backend/internal/services"
	"investoriq_backend/internal/validator"
)

// AppHandlers содержит все хэндлеры приложения
type AppHandlers struct {
	AuthHandler         *AuthHandler
	PropertyHandler     *PropertyHandler
	AnalysisHandler     *AnalysisHandler
	PaymentHandler      *PaymentHandler
	WebhookHandler      *WebhookHandler
	SampleReportHandler *SampleReportHandler
	HealthHandler       *HealthHandler
}

func NewAppHandlers(container *services.ServiceContainer, v *validator.Validator) *AppHandlers {
	base := NewBaseHandler(v)
	return &AppHandlers{
		AuthHandler:         NewAuthHandler(base, container.AuthService),
		PropertyHandler:     NewPropertyHandler(base, container.PropertyService),
		AnalysisHandler:     NewAnalysisHandler(base, container.AnalysisService),
		PaymentHandler:      NewPaymentHandler(base, container.PaymentService),
		WebhookHandler:      NewWebhookHandler(base, container.PaymentService),
		SampleReportHandler: NewSampleReportHandler(base, container.SampleReportService),
		HealthHandler:       NewHealthHandler(base),
	}
}
