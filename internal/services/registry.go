package services

import (
	"time"

	"investoriq_backend/internal/auth"
	"investoriq_backend/internal/email"
	"investoriq_backend/internal/llm"
	"investoriq_backend/internal/metrics"
	"investoriq_backend/internal/payments"
	"investoriq_backend/internal/report"
	"investoriq_backend/internal/repositories"
	"investoriq_backend/internal/storage"
)

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	AuthService         AuthService
	PropertyService     PropertyService
	AnalysisService     AnalysisService
	PaymentService      PaymentService
	SampleReportService SampleReportService
	CreditLedger        CreditLedger
	EmailService        EmailService
}

// Dependencies - внешние зависимости сервисов
type Dependencies struct {
	Tokens       *auth.TokenManager
	LLM          llm.Completer
	Payments     payments.Provider
	Email        email.Provider
	Storage      storage.Storage
	Renderer     report.Renderer
	Metrics      *metrics.Collector
	UploadLimits UploadLimits
	StepTimeout  time.Duration
	SupportEmail string
}

func NewServiceContainer(deps Dependencies) *ServiceContainer {
	userRepo := repositories.NewUserRepository()
	propertyRepo := repositories.NewPropertyRepository()
	analysisRepo := repositories.NewAnalysisRepository()
	paymentRepo := repositories.NewPaymentRepository()

	renderer := deps.Renderer
	if renderer == nil {
		renderer = report.NewPDFRenderer()
	}

	ledger := NewCreditLedger(userRepo)
	emailService := NewEmailService(deps.Email, deps.SupportEmail)

	return &ServiceContainer{
		AuthService:     NewAuthService(userRepo, deps.Tokens, emailService),
		PropertyService: NewPropertyService(propertyRepo, deps.Storage, deps.UploadLimits),
		AnalysisService: NewAnalysisService(AnalysisDeps{
			UserRepo:     userRepo,
			PropertyRepo: propertyRepo,
			AnalysisRepo: analysisRepo,
			Ledger:       ledger,
			Parser:       llm.NewParser(deps.LLM),
			Generator:    llm.NewGenerator(deps.LLM),
			Renderer:     renderer,
			Storage:      deps.Storage,
			Emails:       emailService,
			Metrics:      deps.Metrics,
			StepTimeout:  deps.StepTimeout,
		}),
		PaymentService:      NewPaymentService(deps.Payments, paymentRepo, userRepo, ledger, emailService, deps.Metrics),
		SampleReportService: NewSampleReportService(renderer, deps.Storage),
		CreditLedger:        ledger,
		EmailService:        emailService,
	}
}
