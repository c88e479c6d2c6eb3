package repositories

import (
	"errors"

	"investoriq_backend/internal/models"

	"gorm.io/gorm"
)

var ErrPropertyNotFound = errors.New("property not found")

// PropertyRepository - загруженные документы объектов
type PropertyRepository interface {
	Create(db *gorm.DB, property *models.Property) error

	// FindByIDForUser - объект только если он принадлежит пользователю
	FindByIDForUser(db *gorm.DB, id, userID string) (*models.Property, error)
	FindByUser(db *gorm.DB, userID string, limit int) ([]models.Property, error)
	UpdateStatus(db *gorm.DB, id string, status models.PropertyStatus) error
}

type propertyRepository struct{}

func NewPropertyRepository() PropertyRepository {
	return &propertyRepository{}
}

func (r *propertyRepository) Create(db *gorm.DB, property *models.Property) error {
	return db.Create(property).Error
}

func (r *propertyRepository) FindByIDForUser(db *gorm.DB, id, userID string) (*models.Property, error) {
	var p models.Property
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPropertyNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *propertyRepository) FindByUser(db *gorm.DB, userID string, limit int) ([]models.Property, error) {
	var list []models.Property
	err := db.Where("user_id = ?", userID).
		Order("uploaded_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *propertyRepository) UpdateStatus(db *gorm.DB, id string, status models.PropertyStatus) error {
	result := db.Model(&models.Property{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPropertyNotFound
	}
	return nil
}
