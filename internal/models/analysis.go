package models

import (
	"gorm.io/datatypes"
)

// AnalysisReport - не более одного на объект (уникальный property_id)
type AnalysisReport struct {
	BaseModel
	UserID        string                              `gorm:"type:varchar(36);not null;index"`
	PropertyID    string                              `gorm:"type:varchar(36);not null;uniqueIndex"`
	PropertyName  string                              `gorm:"not null;size:255"`
	AnalysisData  datatypes.JSONType[AnalysisPayload] `gorm:"type:json"`
	PDFPath       *string
	Status        AnalysisStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	FailureReason string         `gorm:"size:512"`
}

// AnalysisPayload - то, что лежит в analysis_data
type AnalysisPayload struct {
	Property *PropertyData `json:"property_data,omitempty"`
	Analysis *AnalysisData `json:"analysis,omitempty"`
}
