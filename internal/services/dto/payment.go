package dto

import "investoriq_backend/internal/models"

// CheckoutRequest - POST /payments/checkout
type CheckoutRequest struct {
	PackageID string `json:"package_id" validate:"required,package_id"`
	OriginURL string `json:"origin_url" validate:"required,url"`
}

type CheckoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

// PaymentStatusResponse - GET /payments/status/:session_id.
// reports_credited есть только у зачисленной сессии.
type PaymentStatusResponse struct {
	Status          string `json:"status"`
	PaymentStatus   string `json:"payment_status"`
	ReportsCredited int    `json:"reports_credited,omitempty"`
}

type PackagesResponse struct {
	Currency string           `json:"currency"`
	Packages []models.Package `json:"packages"`
}
