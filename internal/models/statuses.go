package models

type PropertyType string
type PropertyStatus string
type AnalysisStatus string
type PaymentStatus string

const (
	PropertyTypeOffMarket PropertyType = "off_market"
	PropertyTypeMLS       PropertyType = "mls"

	PropertyStatusUploaded   PropertyStatus = "uploaded"
	PropertyStatusProcessing PropertyStatus = "processing"
	PropertyStatusCompleted  PropertyStatus = "completed"
	PropertyStatusFailed     PropertyStatus = "failed"

	AnalysisStatusPending    AnalysisStatus = "pending"
	AnalysisStatusGenerating AnalysisStatus = "generating"
	AnalysisStatusCompleted  AnalysisStatus = "completed"
	AnalysisStatusFailed     AnalysisStatus = "failed"

	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusFailed  PaymentStatus = "failed"
	PaymentStatusExpired PaymentStatus = "expired"
)

// IsTerminal - анализ больше не меняет статус
func (s AnalysisStatus) IsTerminal() bool {
	return s == AnalysisStatusCompleted || s == AnalysisStatusFailed
}

func (t PropertyType) IsValid() bool {
	return t == PropertyTypeOffMarket || t == PropertyTypeMLS
}
