package models

import "time"

type Property struct {
	BaseModel
	UserID       string         `gorm:"type:varchar(36);not null;index"`
	PropertyName string         `gorm:"not null;size:255"`
	PropertyType PropertyType   `gorm:"type:varchar(20);not null"`
	FilePath     string         `gorm:"not null"` // ключ в storage
	UploadedAt   time.Time      `gorm:"not null"`
	Status       PropertyStatus `gorm:"type:varchar(20);not null;default:'uploaded'"`
}
