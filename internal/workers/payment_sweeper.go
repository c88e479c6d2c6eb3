package workers

import (
	"context"
	"time"

	"investoriq_backend/internal/logger"
	"investoriq_backend/internal/models"
	"investoriq_backend/internal/repositories"
	"investoriq_backend/internal/services"

	"gorm.io/gorm"
)

const (
	DefaultSweepInterval = 5 * time.Minute
	defaultSweepMinAge   = 2 * time.Minute
	// checkout-сессия Stripe живёт не дольше 24ч, Robokassa сама не истекает
	defaultSweepMaxAge = 48 * time.Hour
	sweepBatch         = 50
)

// PaymentSweeper периодически сверяет зависшие pending-сессии:
// клиент закрыл вкладку до опроса, а вебхук не дошёл.
// Сверка идёт через тот же Reconcile, повторное начисление исключено.
type PaymentSweeper struct {
	db          *gorm.DB
	paymentRepo repositories.PaymentRepository
	payments    services.PaymentService
	interval    time.Duration
	minAge      time.Duration
	maxAge      time.Duration
	now         func() time.Time
}

func NewPaymentSweeper(db *gorm.DB, paymentRepo repositories.PaymentRepository, payments services.PaymentService, interval time.Duration) *PaymentSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &PaymentSweeper{
		db:          db,
		paymentRepo: paymentRepo,
		payments:    payments,
		interval:    interval,
		minAge:      defaultSweepMinAge,
		maxAge:      defaultSweepMaxAge,
		now:         time.Now,
	}
}

// Start запускает фоновый цикл до отмены ctx
func (w *PaymentSweeper) Start(ctx context.Context) {
	go w.loop(ctx)
}

func (w *PaymentSweeper) loop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Payment sweeper stopped")
			return
		case <-ticker.C:
			if _, err := w.SweepOnce(ctx); err != nil {
				logger.Error("Payment sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce сверяет одну пачку и возвращает число сессий, по которым начислены кредиты.
// Каждая проверенная сессия уходит в конец очереди, неоплаченные старше maxAge помечаются expired.
func (w *PaymentSweeper) SweepOnce(ctx context.Context) (int, error) {
	db := w.db.WithContext(ctx)
	now := w.now()

	pending, err := w.paymentRepo.FindPending(db, w.payments.ProviderName(), now.Add(-w.minAge), sweepBatch)
	if err != nil {
		return 0, err
	}

	granted, expired := 0, 0
	for _, txn := range pending {
		if ctx.Err() != nil {
			return granted, ctx.Err()
		}
		if err := w.paymentRepo.MarkChecked(db, txn.SessionID, now); err != nil {
			return granted, err
		}

		credited := false
		result, err := w.payments.Reconcile(ctx, w.db, txn.SessionID)
		if err != nil {
			logger.Warn("Sweep reconcile failed", "session_id", txn.SessionID, "error", err)
		} else {
			credited = result.IsCredited()
			if result.Granted {
				granted++
			}
		}

		if !credited && txn.CreatedAt.Before(now.Add(-w.maxAge)) {
			if err := w.paymentRepo.UpdateStatus(db, txn.SessionID, models.PaymentStatusExpired); err != nil {
				logger.Warn("Failed to expire stale session", "session_id", txn.SessionID, "error", err)
				continue
			}
			expired++
		}
	}

	if len(pending) > 0 {
		logger.Info("Payment sweep finished", "checked", len(pending), "granted", granted, "expired", expired)
	}
	return granted, nil
}
