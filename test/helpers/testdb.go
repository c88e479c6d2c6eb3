package helpers

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"investoriq_backend/internal/auth"
	"investoriq_backend/internal/database"
	"investoriq_backend/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewTestDB поднимает отдельную in-memory sqlite на тест и мигрирует схему
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := database.Open(database.DriverSQLite, dsn)
	require.NoError(t, err, "Не удалось открыть тестовую БД")
	require.NoError(t, database.AutoMigrate(db), "Миграция тестовой БД не должна падать")

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateUser создает пользователя с заданным балансом кредитов.
// Пароль всегда "password123".
func CreateUser(t *testing.T, db *gorm.DB, email string, credits int) *models.User {
	t.Helper()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	user := &models.User{
		Email:            email,
		PasswordHash:     hash,
		Name:             "Test Investor",
		AvailableCredits: credits,
	}
	require.NoError(t, db.Create(user).Error, "Не удалось создать пользователя %s", email)
	t.Logf("✅ [Helper] Создан пользователь %s (credits: %d)", email, credits)
	return user
}

// CreateProperty создает объект пользователя без реального файла
func CreateProperty(t *testing.T, db *gorm.DB, userID, name string) *models.Property {
	t.Helper()

	p := &models.Property{
		UserID:       userID,
		PropertyName: name,
		PropertyType: models.PropertyTypeOffMarket,
		FilePath:     "uploads/" + name + ".txt",
		UploadedAt:   time.Now().UTC(),
		Status:       models.PropertyStatusUploaded,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// Balance читает текущий баланс из БД
func Balance(t *testing.T, db *gorm.DB, userID string) int {
	t.Helper()

	var u models.User
	require.NoError(t, db.Select("available_credits").First(&u, "id = ?", userID).Error)
	return u.AvailableCredits
}
