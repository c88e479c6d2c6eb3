package repositories

import (
	"errors"
	"time"

	"investoriq_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrAnalysisNotFound = errors.New("analysis not found")
	// ErrAnalysisExists - на объект уже есть отчёт (уникальный property_id)
	ErrAnalysisExists = errors.New("analysis already exists for property")
)

type AnalysisRepository interface {
	Create(db *gorm.DB, report *models.AnalysisReport) error
	FindByID(db *gorm.DB, id string) (*models.AnalysisReport, error)
	FindByIDForUser(db *gorm.DB, id, userID string) (*models.AnalysisReport, error)
	FindByProperty(db *gorm.DB, propertyID string) (*models.AnalysisReport, error)
	FindByUser(db *gorm.DB, userID string, limit int) ([]models.AnalysisReport, error)

	// UpdateStatus меняет статус только из ожидаемого (from), чтобы
	// завершённый отчёт нельзя было случайно перезаписать.
	UpdateStatus(db *gorm.DB, id string, from, to models.AnalysisStatus, reason string) error
	Complete(db *gorm.DB, report *models.AnalysisReport) error

	// FindUnfinished - отчёты в pending/generating, не обновлявшиеся с before
	FindUnfinished(db *gorm.DB, before time.Time) ([]models.AnalysisReport, error)
}

type analysisRepository struct{}

func NewAnalysisRepository() AnalysisRepository {
	return &analysisRepository{}
}

func (r *analysisRepository) Create(db *gorm.DB, report *models.AnalysisReport) error {
	if err := db.Create(report).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAnalysisExists
		}
		return err
	}
	return nil
}

func (r *analysisRepository) FindByID(db *gorm.DB, id string) (*models.AnalysisReport, error) {
	return r.findOne(db.Where("id = ?", id))
}

func (r *analysisRepository) FindByIDForUser(db *gorm.DB, id, userID string) (*models.AnalysisReport, error) {
	return r.findOne(db.Where("id = ? AND user_id = ?", id, userID))
}

func (r *analysisRepository) FindByProperty(db *gorm.DB, propertyID string) (*models.AnalysisReport, error) {
	return r.findOne(db.Where("property_id = ?", propertyID))
}

func (r *analysisRepository) findOne(q *gorm.DB) (*models.AnalysisReport, error) {
	var report models.AnalysisReport
	if err := q.First(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnalysisNotFound
		}
		return nil, err
	}
	return &report, nil
}

func (r *analysisRepository) FindByUser(db *gorm.DB, userID string, limit int) ([]models.AnalysisReport, error) {
	var list []models.AnalysisReport
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *analysisRepository) UpdateStatus(db *gorm.DB, id string, from, to models.AnalysisStatus, reason string) error {
	result := db.Model(&models.AnalysisReport{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "failure_reason": reason})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAnalysisNotFound
	}
	return nil
}

// Complete сохраняет результат и переводит generating -> completed
func (r *analysisRepository) Complete(db *gorm.DB, report *models.AnalysisReport) error {
	result := db.Model(&models.AnalysisReport{}).
		Where("id = ? AND status = ?", report.ID, models.AnalysisStatusGenerating).
		Updates(map[string]interface{}{
			"analysis_data": report.AnalysisData,
			"pdf_path":      report.PDFPath,
			"status":        models.AnalysisStatusCompleted,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAnalysisNotFound
	}
	report.Status = models.AnalysisStatusCompleted
	return nil
}

func (r *analysisRepository) FindUnfinished(db *gorm.DB, before time.Time) ([]models.AnalysisReport, error) {
	var list []models.AnalysisReport
	err := db.Where("status IN ? AND updated_at < ?",
		[]models.AnalysisStatus{models.AnalysisStatusPending, models.AnalysisStatusGenerating}, before).
		Find(&list).Error
	return list, err
}
