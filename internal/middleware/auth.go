package middleware

import (
	"errors"
	"strings"

	"investoriq_backend/internal/auth"
	"investoriq_backend/internal/logger"
	"investoriq_backend/internal/repositories"
	"investoriq_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const userIDKey = "userID"

// AuthMiddleware - проверка Bearer-токена. Пользователь из токена должен существовать.
func AuthMiddleware(tokens *auth.TokenManager, db *gorm.DB, userRepo repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authorization header missing or invalid"))
			return
		}

		claims, err := tokens.Parse(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				apperrors.HandleError(c, apperrors.ErrTokenExpired)
				return
			}
			apperrors.HandleError(c, apperrors.ErrInvalidToken)
			return
		}

		exists, err := userRepo.Exists(db.WithContext(c.Request.Context()), claims.UserID)
		if err != nil {
			apperrors.HandleError(c, apperrors.DatabaseError(err))
			return
		}
		if !exists {
			apperrors.HandleError(c, apperrors.ErrUserNotFound)
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

// GetUserID извлекает ID пользователя из контекста
func GetUserID(c *gin.Context) string {
	id, _ := c.Get(userIDKey)
	s, _ := id.(string)
	return s
}
