package models

type User struct {
	BaseModel
	Email            string `gorm:"uniqueIndex;not null;size:255"`
	PasswordHash     string `gorm:"not null"`
	Name             string `gorm:"size:255"`
	AvailableCredits int    `gorm:"not null;default:0;check:available_credits >= 0"`

	Properties []Property `gorm:"foreignKey:UserID"`
}
