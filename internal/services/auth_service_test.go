package services

import (
	"context"
	"testing"
	"time"

	"investoriq_backend/internal/auth"
	"investoriq_backend/internal/email"
	"investoriq_backend/internal/repositories"
	"investoriq_backend/internal/services/dto"
	"investoriq_backend/pkg/apperrors"
	"investoriq_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(mail *email.MockProvider) (AuthService, *auth.TokenManager) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return NewAuthService(repositories.NewUserRepository(), tokens, NewEmailService(mail, "support@investoriq.app")), tokens
}

func TestAuthService_RegisterLoginMe(t *testing.T) {
	db := helpers.NewTestDB(t)
	mail := email.NewMockProvider()
	svc, tokens := newAuthService(mail)
	ctx := context.Background()

	reg, err := svc.Register(ctx, db, &dto.RegisterRequest{Email: "  New@X.com ", Password: "secret1", Name: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", reg.User.Email)
	assert.Equal(t, 0, reg.User.AvailableReports)

	claims, err := tokens.Parse(reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID)

	sent := mail.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"new@x.com"}, sent[0].To)

	login, err := svc.Login(ctx, db, &dto.LoginRequest{Email: "NEW@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)

	me, err := svc.Me(ctx, db, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", me.Name)
}

func TestAuthService_RegisterRejects(t *testing.T) {
	db := helpers.NewTestDB(t)
	svc, _ := newAuthService(email.NewMockProvider())
	ctx := context.Background()
	helpers.CreateUser(t, db, "taken@x.com", 0)

	_, err := svc.Register(ctx, db, &dto.RegisterRequest{Email: "TAKEN@x.com", Password: "secret1", Name: "Bob"})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)

	_, err = svc.Register(ctx, db, &dto.RegisterRequest{Email: "short@x.com", Password: "123", Name: "Bob"})
	requireCode(t, err, apperrors.CodeValidationFailed)
}

func TestAuthService_LoginFailures(t *testing.T) {
	db := helpers.NewTestDB(t)
	svc, _ := newAuthService(email.NewMockProvider())
	ctx := context.Background()
	helpers.CreateUser(t, db, "user@x.com", 0)

	_, err := svc.Login(ctx, db, &dto.LoginRequest{Email: "user@x.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, db, &dto.LoginRequest{Email: "nobody@x.com", Password: "password123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Me(ctx, db, "missing")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
