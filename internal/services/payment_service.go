package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"investoriq_backend/internal/logger"
	"investoriq_backend/internal/metrics"
	"investoriq_backend/internal/models"
	"investoriq_backend/internal/payments"
	"investoriq_backend/internal/repositories"
	"investoriq_backend/internal/services/dto"
	"investoriq_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReconcileResult - состояние сессии после сверки
type ReconcileResult struct {
	SessionID       string
	Status          string
	PaymentStatus   string
	ReportsCredited int
	// Granted - кредиты начислены именно этим вызовом
	Granted bool
}

func (r *ReconcileResult) IsCredited() bool {
	return r.ReportsCredited > 0
}

// PaymentService - покупка пакетов и сверка платежей.
// Опрос клиента и вебхук провайдера сходятся в Reconcile,
// кредиты за сессию начисляются не больше одного раза.
type PaymentService interface {
	Packages() *dto.PackagesResponse
	CreateCheckout(ctx context.Context, db *gorm.DB, userID string, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	Reconcile(ctx context.Context, db *gorm.DB, sessionID string) (*ReconcileResult, error)

	// GetStatus - опрос клиента, только по своей сессии
	GetStatus(ctx context.Context, db *gorm.DB, userID, sessionID string) (*dto.PaymentStatusResponse, error)

	// HandleWebhook проверяет подпись и сверяет оплаченную сессию
	HandleWebhook(ctx context.Context, db *gorm.DB, body []byte, signature string) (*payments.WebhookEvent, error)
	ProviderName() string
}

type paymentService struct {
	provider    payments.Provider
	paymentRepo repositories.PaymentRepository
	userRepo    repositories.UserRepository
	ledger      CreditLedger
	emails      EmailService
	metrics     *metrics.Collector
}

func NewPaymentService(
	provider payments.Provider,
	paymentRepo repositories.PaymentRepository,
	userRepo repositories.UserRepository,
	ledger CreditLedger,
	emails EmailService,
	collector *metrics.Collector,
) PaymentService {
	return &paymentService{
		provider:    provider,
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		ledger:      ledger,
		emails:      emails,
		metrics:     collector,
	}
}

func (s *paymentService) ProviderName() string {
	return s.provider.Name()
}

func (s *paymentService) Packages() *dto.PackagesResponse {
	list := make([]models.Package, 0, len(models.PackageOrder))
	for _, id := range models.PackageOrder {
		list = append(list, models.Packages[id])
	}
	return &dto.PackagesResponse{Currency: models.DefaultCurrency, Packages: list}
}

func (s *paymentService) CreateCheckout(ctx context.Context, db *gorm.DB, userID string, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	pkg, ok := models.LookupPackage(req.PackageID)
	if !ok {
		return nil, apperrors.ErrUnknownPackage
	}

	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.DatabaseError(err)
	}

	origin := strings.TrimRight(req.OriginURL, "/")
	metadata := map[string]string{
		"user_id":    user.ID,
		"package_id": pkg.ID,
		"reports":    strconv.Itoa(pkg.Credits),
	}

	session, err := s.provider.CreateCheckoutSession(ctx, payments.CheckoutRequest{
		Amount:        pkg.Amount,
		Currency:      models.DefaultCurrency,
		ProductName:   pkg.Name,
		SuccessURL:    origin + "/payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     origin + "/pricing",
		CustomerEmail: user.Email,
		Metadata:      metadata,
	})
	if err != nil {
		logger.CtxWithError(ctx, "failed to create checkout session", err, "provider", s.provider.Name())
		return nil, apperrors.ErrExternalService(err, "payment", "Payment provider unavailable")
	}

	txn := &models.PaymentTransaction{
		UserID:        user.ID,
		SessionID:     session.SessionID,
		Provider:      s.provider.Name(),
		PackageID:     pkg.ID,
		Amount:        pkg.Amount,
		Currency:      models.DefaultCurrency,
		PaymentStatus: models.PaymentStatusPending,
		Metadata:      toJSONMap(metadata),
	}
	if err := s.paymentRepo.Create(db, txn); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	logger.CtxInfo(ctx, "checkout session created", "session_id", session.SessionID, "package_id", pkg.ID)
	return &dto.CheckoutResponse{URL: session.URL, SessionID: session.SessionID}, nil
}

func (s *paymentService) Reconcile(ctx context.Context, db *gorm.DB, sessionID string) (*ReconcileResult, error) {
	ctx = logger.WithSessionID(ctx, sessionID)

	txn, err := s.paymentRepo.FindBySessionID(db, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.DatabaseError(err)
	}

	if txn.ReportsCredited > 0 {
		s.metrics.Reconciled("already_credited")
		return creditedResult(txn), nil
	}

	status, err := s.provider.GetCheckoutStatus(ctx, sessionID)
	if err != nil {
		s.metrics.Reconciled("provider_error")
		logger.PaymentLog(s.provider.Name(), sessionID, "provider_error", err)
		return nil, apperrors.ErrExternalService(err, "payment", "Payment provider unavailable")
	}

	if !status.IsPaid() {
		s.mirrorStatus(ctx, db, sessionID, status)
		s.metrics.Reconciled("pending")
		return &ReconcileResult{
			SessionID:     sessionID,
			Status:        status.Status,
			PaymentStatus: status.PaymentStatus,
		}, nil
	}

	pkg, ok := models.LookupPackage(txn.PackageID)
	if !ok {
		return nil, apperrors.InternalError(fmt.Errorf("transaction %s has unknown package %q", sessionID, txn.PackageID))
	}

	var (
		won     bool
		balance int
	)
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		won, err = s.paymentRepo.MarkCredited(tx, sessionID, pkg.Credits)
		if err != nil {
			return apperrors.DatabaseError(err)
		}
		if !won {
			return nil
		}
		balance, err = s.ledger.Credit(ctx, tx, txn.UserID, pkg.Credits)
		return err
	})
	if err != nil {
		logger.PaymentLog(s.provider.Name(), sessionID, "credit_failed", err)
		return nil, err
	}

	if !won {
		// другой наблюдатель успел раньше
		s.metrics.Reconciled("lost_race")
		logger.PaymentLog(s.provider.Name(), sessionID, "lost_race", nil)

		current, err := s.paymentRepo.FindBySessionID(db, sessionID)
		if err != nil {
			return nil, apperrors.DatabaseError(err)
		}
		return creditedResult(current), nil
	}

	s.metrics.Reconciled("credited")
	s.metrics.CreditsGranted(pkg.Credits)
	logger.PaymentLog(s.provider.Name(), sessionID, "credited", nil)

	txn.ReportsCredited = pkg.Credits
	txn.PaymentStatus = models.PaymentStatusPaid
	if user, err := s.userRepo.FindByID(db, txn.UserID); err == nil {
		s.emails.SendPaymentReceipt(ctx, user, txn, pkg, balance)
	}

	result := creditedResult(txn)
	result.Granted = true
	return result, nil
}

func (s *paymentService) GetStatus(ctx context.Context, db *gorm.DB, userID, sessionID string) (*dto.PaymentStatusResponse, error) {
	txn, err := s.paymentRepo.FindBySessionID(db, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.DatabaseError(err)
	}
	if txn.UserID != userID {
		return nil, apperrors.ErrTransactionNotFound
	}

	result, err := s.Reconcile(ctx, db, sessionID)
	if err != nil {
		return nil, err
	}
	return &dto.PaymentStatusResponse{
		Status:          result.Status,
		PaymentStatus:   result.PaymentStatus,
		ReportsCredited: result.ReportsCredited,
	}, nil
}

func (s *paymentService) HandleWebhook(ctx context.Context, db *gorm.DB, body []byte, signature string) (*payments.WebhookEvent, error) {
	event, err := s.provider.ParseWebhook(body, signature)
	if err != nil {
		logger.CtxWarn(ctx, "webhook rejected", "provider", s.provider.Name(), "error", err.Error())
		switch {
		case errors.Is(err, payments.ErrInvalidSignature):
			return nil, apperrors.ErrInvalidSignature
		case errors.Is(err, payments.ErrMalformedPayload):
			return nil, apperrors.ErrMalformedPayload
		default:
			return nil, apperrors.ErrMalformedPayload
		}
	}

	if event.SessionID == "" || !event.IsPaid() {
		logger.CtxDebug(ctx, "webhook ignored", "event_id", event.EventID, "type", event.Type)
		return event, nil
	}

	if _, err := s.Reconcile(ctx, db, event.SessionID); err != nil {
		if errors.Is(err, apperrors.ErrTransactionNotFound) {
			// сессия создана не нами, провайдеру отвечаем 200, чтобы не ретраил
			logger.CtxWarn(ctx, "webhook for unknown session", "session_id", event.SessionID, "event_id", event.EventID)
			return event, nil
		}
		return nil, err
	}
	return event, nil
}

// mirrorStatus переносит терминальный неоплаченный статус в payment_status.
// reports_credited не трогается.
func (s *paymentService) mirrorStatus(ctx context.Context, db *gorm.DB, sessionID string, status *payments.CheckoutStatus) {
	var mirrored models.PaymentStatus
	switch {
	case status.Status == payments.SessionExpired:
		mirrored = models.PaymentStatusExpired
	case status.PaymentStatus == payments.PaymentRefunded:
		mirrored = models.PaymentStatusFailed
	default:
		return
	}
	if err := s.paymentRepo.UpdateStatus(db, sessionID, mirrored); err != nil {
		logger.CtxWithError(ctx, "failed to mirror payment status", err, "status", mirrored)
	}
}

func creditedResult(txn *models.PaymentTransaction) *ReconcileResult {
	return &ReconcileResult{
		SessionID:       txn.SessionID,
		Status:          payments.SessionComplete,
		PaymentStatus:   payments.PaymentPaid,
		ReportsCredited: txn.ReportsCredited,
	}
}

func toJSONMap(m map[string]string) datatypes.JSONMap {
	out := make(datatypes.JSONMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
