package models

import (
	"time"

	"gorm.io/datatypes"
)

// PaymentTransaction - одна checkout-сессия провайдера.
// ReportsCredited меняется 0 -> N ровно один раз (CAS в PaymentService).
type PaymentTransaction struct {
	BaseModel
	UserID          string            `gorm:"type:varchar(36);not null;index"`
	SessionID       string            `gorm:"not null;uniqueIndex;size:255"`
	Provider        string            `gorm:"type:varchar(20);not null"`
	PackageID       string            `gorm:"type:varchar(32);not null"`
	Amount          float64           `gorm:"not null"`
	Currency        string            `gorm:"type:varchar(8);not null"`
	PaymentStatus   PaymentStatus     `gorm:"type:varchar(20);not null;default:'pending'"`
	ReportsCredited int               `gorm:"not null;default:0"`
	Metadata        datatypes.JSONMap `gorm:"type:json"`
	// LastCheckedAt - последняя фоновая сверка; sweeper берёт давно не проверенные первыми
	LastCheckedAt *time.Time `gorm:"index"`
}
