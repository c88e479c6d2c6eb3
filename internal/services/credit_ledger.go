package services

import (
	"context"
	"errors"
	"fmt"

	"investoriq_backend/internal/logger"
	"investoriq_backend/internal/models"
	"investoriq_backend/internal/repositories"
	"investoriq_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// CreditLedger - единственное место, где меняется users.available_credits.
// db может быть транзакцией вызывающего: тогда изменение коммитится вместе с ней.
type CreditLedger interface {
	Debit(ctx context.Context, db *gorm.DB, userID string) (int, error)
	Credit(ctx context.Context, db *gorm.DB, userID string, amount int) (int, error)
	Balance(ctx context.Context, db *gorm.DB, userID string) (int, error)
}

type creditLedger struct {
	userRepo repositories.UserRepository
}

func NewCreditLedger(userRepo repositories.UserRepository) CreditLedger {
	return &creditLedger{userRepo: userRepo}
}

// Debit списывает один кредит условным UPDATE, баланс не уходит ниже нуля
func (l *creditLedger) Debit(ctx context.Context, db *gorm.DB, userID string) (int, error) {
	var balance int
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.User{}).
			Where("id = ? AND available_credits > 0", userID).
			UpdateColumn("available_credits", gorm.Expr("available_credits - ?", 1))
		if result.Error != nil {
			return apperrors.DatabaseError(result.Error)
		}

		if result.RowsAffected == 0 {
			exists, err := l.userRepo.Exists(tx, userID)
			if err != nil {
				return apperrors.DatabaseError(err)
			}
			if !exists {
				return apperrors.ErrNotFound(repositories.ErrUserNotFound, "credits", "User not found")
			}
			return apperrors.ErrInsufficientCredits
		}

		var err error
		balance, err = l.readBalance(tx, userID)
		return err
	})
	if err != nil {
		return 0, err
	}

	logger.CtxDebug(ctx, "credit debited", "user_id", userID, "balance", balance)
	return balance, nil
}

// Credit начисляет amount кредитов. Идемпотентность обеспечивает вызывающий.
func (l *creditLedger) Credit(ctx context.Context, db *gorm.DB, userID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, apperrors.ValidationError(map[string]string{
			"amount": fmt.Sprintf("must be positive, got %d", amount),
		})
	}

	var balance int
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumn("available_credits", gorm.Expr("available_credits + ?", amount))
		if result.Error != nil {
			return apperrors.DatabaseError(result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound(repositories.ErrUserNotFound, "credits", "User not found")
		}

		var err error
		balance, err = l.readBalance(tx, userID)
		return err
	})
	if err != nil {
		return 0, err
	}

	logger.CtxInfo(ctx, "credits granted", "user_id", userID, "amount", amount, "balance", balance)
	return balance, nil
}

func (l *creditLedger) Balance(ctx context.Context, db *gorm.DB, userID string) (int, error) {
	user, err := l.userRepo.FindByID(db.WithContext(ctx), userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return 0, apperrors.ErrNotFound(err, "credits", "User not found")
		}
		return 0, apperrors.DatabaseError(err)
	}
	return user.AvailableCredits, nil
}

func (l *creditLedger) readBalance(tx *gorm.DB, userID string) (int, error) {
	user, err := l.userRepo.FindByID(tx, userID)
	if err != nil {
		return 0, apperrors.DatabaseError(err)
	}
	return user.AvailableCredits, nil
}
