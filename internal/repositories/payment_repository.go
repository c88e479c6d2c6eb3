package repositories

import (
	"errors"
	"time"

	"investoriq_backend/internal/models"

	"gorm.io/gorm"
)

var ErrTransactionNotFound = errors.New("payment transaction not found")

type PaymentRepository interface {
	Create(db *gorm.DB, tx *models.PaymentTransaction) error
	FindBySessionID(db *gorm.DB, sessionID string) (*models.PaymentTransaction, error)

	// MarkCredited - compare-and-set reports_credited 0 -> credits.
	// Возвращает false, если другой наблюдатель уже зачислил кредиты.
	MarkCredited(db *gorm.DB, sessionID string, credits int) (bool, error)

	// UpdateStatus меняет payment_status только у ещё не зачисленной сессии
	UpdateStatus(db *gorm.DB, sessionID string, status models.PaymentStatus) error

	// FindPending - незачисленные pending-сессии провайдера, созданные раньше before.
	// Сначала ни разу не проверенные, затем по давности последней проверки.
	FindPending(db *gorm.DB, provider string, before time.Time, limit int) ([]models.PaymentTransaction, error)

	// MarkChecked записывает время фоновой сверки
	MarkChecked(db *gorm.DB, sessionID string, at time.Time) error
}

type paymentRepository struct{}

func NewPaymentRepository() PaymentRepository {
	return &paymentRepository{}
}

func (r *paymentRepository) Create(db *gorm.DB, tx *models.PaymentTransaction) error {
	return db.Create(tx).Error
}

func (r *paymentRepository) FindBySessionID(db *gorm.DB, sessionID string) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	if err := db.Where("session_id = ?", sessionID).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &tx, nil
}

func (r *paymentRepository) MarkCredited(db *gorm.DB, sessionID string, credits int) (bool, error) {
	result := db.Model(&models.PaymentTransaction{}).
		Where("session_id = ? AND reports_credited = 0", sessionID).
		Updates(map[string]interface{}{
			"reports_credited": credits,
			"payment_status":   models.PaymentStatusPaid,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *paymentRepository) UpdateStatus(db *gorm.DB, sessionID string, status models.PaymentStatus) error {
	return db.Model(&models.PaymentTransaction{}).
		Where("session_id = ? AND reports_credited = 0", sessionID).
		Update("payment_status", status).Error
}

func (r *paymentRepository) FindPending(db *gorm.DB, provider string, before time.Time, limit int) ([]models.PaymentTransaction, error) {
	var list []models.PaymentTransaction
	err := db.Where("provider = ? AND payment_status = ? AND reports_credited = 0 AND created_at < ?",
		provider, models.PaymentStatusPending, before).
		Order("last_checked_at IS NOT NULL").
		Order("last_checked_at ASC").
		Order("created_at ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *paymentRepository) MarkChecked(db *gorm.DB, sessionID string, at time.Time) error {
	return db.Model(&models.PaymentTransaction{}).
		Where("session_id = ?", sessionID).
		UpdateColumn("last_checked_at", at).Error
}
