package dto

import (
	"time"

	"investoriq_backend/internal/models"
)

// UploadPropertyRequest - поля multipart-формы (кроме файла)
type UploadPropertyRequest struct {
	PropertyName string `form:"property_name" json:"property_name" validate:"required,max=255"`
	PropertyType string `form:"property_type" json:"property_type" validate:"required,property_type"`
}

type UploadPropertyResponse struct {
	PropertyID string                `json:"property_id"`
	Status     models.PropertyStatus `json:"status"`
}

type PropertyResponse struct {
	ID           string                `json:"id"`
	UserID       string                `json:"user_id"`
	PropertyName string                `json:"property_name"`
	PropertyType models.PropertyType   `json:"property_type"`
	FilePath     string                `json:"file_path"`
	UploadedAt   time.Time             `json:"uploaded_at"`
	Status       models.PropertyStatus `json:"status"`
}

func NewPropertyResponse(p *models.Property) *PropertyResponse {
	return &PropertyResponse{
		ID:           p.ID,
		UserID:       p.UserID,
		PropertyName: p.PropertyName,
		PropertyType: p.PropertyType,
		FilePath:     p.FilePath,
		UploadedAt:   p.UploadedAt,
		Status:       p.Status,
	}
}
