package dto

import (
	"time"

	"investoriq_backend/internal/models"
)

// GenerateAnalysisResponse - ответ POST /analysis/generate/:property_id
type GenerateAnalysisResponse struct {
	AnalysisID string                `json:"analysis_id"`
	Status     models.AnalysisStatus `json:"status"`
}

// AnalysisResponse - отчёт для клиента. failure_reason наружу не отдаём.
type AnalysisResponse struct {
	ID           string                 `json:"id"`
	UserID       string                 `json:"user_id"`
	PropertyID   string                 `json:"property_id"`
	PropertyName string                 `json:"property_name"`
	AnalysisData models.AnalysisPayload `json:"analysis_data"`
	PDFPath      *string                `json:"pdf_path"`
	CreatedAt    time.Time              `json:"created_at"`
	Status       models.AnalysisStatus  `json:"status"`
	Error        string                 `json:"error,omitempty"`
}

func NewAnalysisResponse(r *models.AnalysisReport) *AnalysisResponse {
	resp := &AnalysisResponse{
		ID:           r.ID,
		UserID:       r.UserID,
		PropertyID:   r.PropertyID,
		PropertyName: r.PropertyName,
		AnalysisData: r.AnalysisData.Data(),
		PDFPath:      r.PDFPath,
		CreatedAt:    r.CreatedAt,
		Status:       r.Status,
	}
	if r.Status == models.AnalysisStatusFailed {
		resp.Error = "Analysis failed. Your credits were not charged."
	}
	return resp
}

// ReportFile - PDF для скачивания
type ReportFile struct {
	FileName string
	Content  []byte
}

// SampleReportInfo - GET /sample-report
type SampleReportInfo struct {
	Available   bool   `json:"available"`
	Property    string `json:"property,omitempty"`
	Units       int    `json:"units,omitempty"`
	Type        string `json:"type,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
	Message     string `json:"message,omitempty"`
}
