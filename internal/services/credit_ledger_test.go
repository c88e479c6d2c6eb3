package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"investoriq_backend/internal/repositories"
	"investoriq_backend/pkg/apperrors"
	"investoriq_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func requireCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestCreditLedger_DebitAndCredit(t *testing.T) {
	db := helpers.NewTestDB(t)
	ledger := NewCreditLedger(repositories.NewUserRepository())
	ctx := context.Background()
	user := helpers.CreateUser(t, db, "ledger@x.com", 1)

	balance, err := ledger.Debit(ctx, db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)

	_, err = ledger.Debit(ctx, db, user.ID)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientCredits)
	assert.Equal(t, 0, helpers.Balance(t, db, user.ID))

	balance, err = ledger.Credit(ctx, db, user.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, balance)

	balance, err = ledger.Balance(ctx, db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, balance)
}

func TestCreditLedger_Errors(t *testing.T) {
	db := helpers.NewTestDB(t)
	ledger := NewCreditLedger(repositories.NewUserRepository())
	ctx := context.Background()
	user := helpers.CreateUser(t, db, "errors@x.com", 0)

	_, err := ledger.Debit(ctx, db, "missing-user")
	requireCode(t, err, apperrors.CodeNotFound)

	_, err = ledger.Credit(ctx, db, "missing-user", 1)
	requireCode(t, err, apperrors.CodeNotFound)

	_, err = ledger.Credit(ctx, db, user.ID, 0)
	requireCode(t, err, apperrors.CodeValidationFailed)

	_, err = ledger.Credit(ctx, db, user.ID, -3)
	requireCode(t, err, apperrors.CodeValidationFailed)
	assert.Equal(t, 0, helpers.Balance(t, db, user.ID))
}

func TestCreditLedger_DebitRollsBackWithCallerTransaction(t *testing.T) {
	db := helpers.NewTestDB(t)
	ledger := NewCreditLedger(repositories.NewUserRepository())
	user := helpers.CreateUser(t, db, "rollback@x.com", 3)

	errAbort := errors.New("abort")
	err := db.Transaction(func(tx *gorm.DB) error {
		balance, err := ledger.Debit(context.Background(), tx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, balance)
		return errAbort
	})
	assert.ErrorIs(t, err, errAbort)
	assert.Equal(t, 3, helpers.Balance(t, db, user.ID))
}

func TestCreditLedger_ConcurrentDebitsNeverGoNegative(t *testing.T) {
	db := helpers.NewTestDB(t)
	ledger := NewCreditLedger(repositories.NewUserRepository())
	user := helpers.CreateUser(t, db, "race@x.com", 5)

	var ok, insufficient atomic.Int32
	var g errgroup.Group
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			_, err := ledger.Debit(context.Background(), db, user.ID)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, apperrors.ErrInsufficientCredits):
				insufficient.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(5), ok.Load())
	assert.Equal(t, int32(15), insufficient.Load())
	assert.Equal(t, 0, helpers.Balance(t, db, user.ID))
}

func TestCreditLedger_ConcurrentDebitsAndCredits(t *testing.T) {
	db := helpers.NewTestDB(t)
	ledger := NewCreditLedger(repositories.NewUserRepository())
	user := helpers.CreateUser(t, db, "mixed@x.com", 2)

	var debited atomic.Int32
	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			_, err := ledger.Credit(context.Background(), db, user.ID, 1)
			return err
		})
		g.Go(func() error {
			_, err := ledger.Debit(context.Background(), db, user.ID)
			if err == nil {
				debited.Add(1)
				return nil
			}
			if errors.Is(err, apperrors.ErrInsufficientCredits) {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	balance := helpers.Balance(t, db, user.ID)
	assert.GreaterOrEqual(t, balance, 0)
	assert.Equal(t, 2+10-int(debited.Load()), balance)
}
