package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"investoriq_backend/internal/llm"
	"investoriq_backend/internal/logger"
	"investoriq_backend/internal/metrics"
	"investoriq_backend/internal/models"
	"investoriq_backend/internal/report"
	"investoriq_backend/internal/repositories"
	"investoriq_backend/internal/services/dto"
	"investoriq_backend/internal/storage"
	"investoriq_backend/pkg/apperrors"

	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultStepTimeout = 90 * time.Second

	// reasonDebitRace - кредит успели потратить, пока шла генерация
	reasonDebitRace = "insufficient credits at completion"
	// reasonInterrupted - процесс остановился, пока шёл анализ
	reasonInterrupted = "interrupted before completion"

	maxFailureReason = 512
	listLimit        = 100
)

// Шаги конвейера анализа
const (
	stepLoad     = "load"
	stepParse    = "parse"
	stepGenerate = "generate"
	stepRender   = "render"
)

// stepResult - итог одного шага; step всегда заполнен
type stepResult struct {
	step string
	err  error
}

func (r stepResult) failed() bool { return r.err != nil }

// pipelineOutput - то, что шаги успели произвести
type pipelineOutput struct {
	text     string
	property *models.PropertyData
	analysis *models.AnalysisData
	pdf      []byte
	pdfKey   string
}

type AnalysisService interface {
	// StartAnalysis: проверка кредита -> разбор -> анализ -> PDF -> списание.
	// Сбой внешнего шага даёт отчёт со статусом failed, а не ошибку.
	StartAnalysis(ctx context.Context, db *gorm.DB, propertyID, userID string) (*models.AnalysisReport, error)
	GetAnalysis(ctx context.Context, db *gorm.DB, analysisID, userID string) (*models.AnalysisReport, error)
	ListAnalyses(ctx context.Context, db *gorm.DB, userID string) ([]models.AnalysisReport, error)
	DownloadReport(ctx context.Context, db *gorm.DB, analysisID, userID string) (*dto.ReportFile, error)

	// FailInterrupted переводит в failed отчёты, застрявшие в pending/generating
	// дольше staleAfter. Вызывается при старте процесса.
	FailInterrupted(ctx context.Context, db *gorm.DB, staleAfter time.Duration) (int, error)
}

type AnalysisDeps struct {
	UserRepo     repositories.UserRepository
	PropertyRepo repositories.PropertyRepository
	AnalysisRepo repositories.AnalysisRepository
	Ledger       CreditLedger
	Parser       llm.Parser
	Generator    llm.Generator
	Renderer     report.Renderer
	Storage      storage.Storage
	Emails       EmailService
	Metrics      *metrics.Collector
	StepTimeout  time.Duration
}

type analysisService struct {
	AnalysisDeps
	inflight singleflight.Group
}

func NewAnalysisService(deps AnalysisDeps) AnalysisService {
	if deps.StepTimeout <= 0 {
		deps.StepTimeout = DefaultStepTimeout
	}
	return &analysisService{AnalysisDeps: deps}
}

func (s *analysisService) StartAnalysis(ctx context.Context, db *gorm.DB, propertyID, userID string) (*models.AnalysisReport, error) {
	balance, err := s.Ledger.Balance(ctx, db, userID)
	if err != nil {
		return nil, err
	}
	if balance <= 0 {
		return nil, apperrors.ErrInsufficientCredits
	}

	property, err := s.PropertyRepo.FindByIDForUser(db, propertyID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrPropertyNotFound) {
			return nil, apperrors.ErrPropertyNotFound
		}
		return nil, apperrors.DatabaseError(err)
	}

	// параллельные запросы на один объект ждут первый.
	// Запуск общий, поэтому отмена запроса его не прерывает, шаги ограничены StepTimeout.
	runCtx := context.WithoutCancel(ctx)
	v, err, _ := s.inflight.Do(property.ID, func() (interface{}, error) {
		return s.run(runCtx, db.WithContext(runCtx), property)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.AnalysisReport), nil
}

func (s *analysisService) run(ctx context.Context, db *gorm.DB, property *models.Property) (*models.AnalysisReport, error) {
	existing, err := s.AnalysisRepo.FindByProperty(db, property.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repositories.ErrAnalysisNotFound) {
		return nil, apperrors.DatabaseError(err)
	}

	rep := &models.AnalysisReport{
		UserID:       property.UserID,
		PropertyID:   property.ID,
		PropertyName: property.PropertyName,
		Status:       models.AnalysisStatusPending,
	}
	if err := s.AnalysisRepo.Create(db, rep); err != nil {
		if errors.Is(err, repositories.ErrAnalysisExists) {
			// другой процесс создал отчёт раньше
			existing, err := s.AnalysisRepo.FindByProperty(db, property.ID)
			if err != nil {
				return nil, apperrors.DatabaseError(err)
			}
			return existing, nil
		}
		return nil, apperrors.DatabaseError(err)
	}

	if err := s.AnalysisRepo.UpdateStatus(db, rep.ID, models.AnalysisStatusPending, models.AnalysisStatusGenerating, ""); err != nil {
		if failErr := s.AnalysisRepo.UpdateStatus(db, rep.ID, models.AnalysisStatusPending, models.AnalysisStatusFailed, "start failed"); failErr != nil {
			logger.CtxWithError(ctx, "failed to mark analysis failed", failErr, "analysis_id", rep.ID)
		}
		return nil, apperrors.DatabaseError(err)
	}
	rep.Status = models.AnalysisStatusGenerating
	if err := s.PropertyRepo.UpdateStatus(db, property.ID, models.PropertyStatusProcessing); err != nil {
		logger.CtxWithError(ctx, "failed to mark property processing", err, "property_id", property.ID)
	}
	logger.AnalysisLog(rep.ID, "start", string(rep.Status), nil)

	out, res := s.pipeline(ctx, property, rep.ID)
	if res.failed() {
		return s.fail(ctx, db, rep, res)
	}
	return s.complete(ctx, db, rep, out)
}

// pipeline выполняет шаги по очереди до первого сбоя
func (s *analysisService) pipeline(ctx context.Context, property *models.Property, analysisID string) (*pipelineOutput, stepResult) {
	out := &pipelineOutput{pdfKey: fmt.Sprintf("reports/report_%s.pdf", analysisID)}

	steps := []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		{stepLoad, func(ctx context.Context) error {
			data, err := storage.ReadAll(ctx, s.Storage, property.FilePath)
			if err != nil {
				return err
			}
			out.text = llm.DocumentText(data)
			return nil
		}},
		{stepParse, func(ctx context.Context) error {
			var err error
			out.property, err = s.Parser.Parse(ctx, out.text, property.PropertyName)
			return err
		}},
		{stepGenerate, func(ctx context.Context) error {
			var err error
			out.analysis, err = s.Generator.Generate(ctx, out.property, property.PropertyName)
			return err
		}},
		{stepRender, func(ctx context.Context) error {
			pdf, err := s.Renderer.Render(property.PropertyName, out.analysis)
			if err != nil {
				return err
			}
			out.pdf = pdf
			return s.Storage.Save(ctx, out.pdfKey, bytes.NewReader(pdf), "application/pdf")
		}},
	}

	for _, st := range steps {
		res := s.runStep(ctx, analysisID, st.name, st.fn)
		if res.failed() {
			return out, res
		}
	}
	return out, stepResult{}
}

func (s *analysisService) runStep(ctx context.Context, analysisID, name string, fn func(ctx context.Context) error) stepResult {
	stepCtx, cancel := context.WithTimeout(ctx, s.StepTimeout)
	defer cancel()

	start := time.Now()
	err := fn(stepCtx)
	if err != nil && errors.Is(stepCtx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("timed out after %s: %w", s.StepTimeout, err)
	}

	status := "ok"
	if err != nil {
		status = "failed"
	}
	logger.AnalysisLog(analysisID, name, status, err)
	logger.CtxDebug(ctx, "analysis step finished", "analysis_id", analysisID, "step", name, "duration_ms", time.Since(start).Milliseconds())
	return stepResult{step: name, err: err}
}

// complete: отчёт completed, объект completed и списание - одной транзакцией
func (s *analysisService) complete(ctx context.Context, db *gorm.DB, rep *models.AnalysisReport, out *pipelineOutput) (*models.AnalysisReport, error) {
	rep.AnalysisData = datatypes.NewJSONType(models.AnalysisPayload{
		Property: out.property,
		Analysis: out.analysis,
	})
	rep.PDFPath = &out.pdfKey

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.AnalysisRepo.Complete(tx, rep); err != nil {
			return apperrors.DatabaseError(err)
		}
		if err := s.PropertyRepo.UpdateStatus(tx, rep.PropertyID, models.PropertyStatusCompleted); err != nil {
			return apperrors.DatabaseError(err)
		}
		_, err := s.Ledger.Debit(ctx, tx, rep.UserID)
		return err
	})
	if err != nil {
		rep.Status = models.AnalysisStatusGenerating
		rep.PDFPath = nil
		if delErr := s.Storage.Delete(ctx, out.pdfKey); delErr != nil {
			logger.CtxWithError(ctx, "failed to delete orphaned report", delErr, "key", out.pdfKey)
		}

		reason := "completion failed"
		if errors.Is(err, apperrors.ErrInsufficientCredits) {
			reason = reasonDebitRace
		}
		s.markFailed(ctx, db, rep, reason)
		logger.AnalysisLog(rep.ID, "complete", string(models.AnalysisStatusFailed), err)
		return nil, err
	}

	s.Metrics.CreditDebited()
	s.Metrics.AnalysisFinished(string(models.AnalysisStatusCompleted))
	logger.AnalysisLog(rep.ID, "complete", string(rep.Status), nil)

	if user, err := s.UserRepo.FindByID(db, rep.UserID); err == nil {
		s.Emails.SendReportReady(ctx, user, rep, out.pdf)
	}
	return rep, nil
}

// fail: отчёт и объект failed, кредит не списывается
func (s *analysisService) fail(ctx context.Context, db *gorm.DB, rep *models.AnalysisReport, res stepResult) (*models.AnalysisReport, error) {
	logger.CtxWithError(ctx, "analysis failed", res.err, "analysis_id", rep.ID, "step", res.step)
	s.markFailed(ctx, db, rep, fmt.Sprintf("%s: %v", res.step, res.err))
	return rep, nil
}

func (s *analysisService) markFailed(ctx context.Context, db *gorm.DB, rep *models.AnalysisReport, reason string) {
	if len(reason) > maxFailureReason {
		reason = reason[:maxFailureReason]
	}
	if err := s.AnalysisRepo.UpdateStatus(db.WithContext(ctx), rep.ID, models.AnalysisStatusGenerating, models.AnalysisStatusFailed, reason); err != nil {
		logger.CtxWithError(ctx, "failed to mark analysis failed", err, "analysis_id", rep.ID)
	}
	if err := s.PropertyRepo.UpdateStatus(db.WithContext(ctx), rep.PropertyID, models.PropertyStatusFailed); err != nil {
		logger.CtxWithError(ctx, "failed to mark property failed", err, "property_id", rep.PropertyID)
	}
	rep.Status = models.AnalysisStatusFailed
	rep.FailureReason = reason
	s.Metrics.AnalysisFinished(string(models.AnalysisStatusFailed))
}

func (s *analysisService) GetAnalysis(ctx context.Context, db *gorm.DB, analysisID, userID string) (*models.AnalysisReport, error) {
	rep, err := s.AnalysisRepo.FindByIDForUser(db.WithContext(ctx), analysisID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrAnalysisNotFound) {
			return nil, apperrors.ErrAnalysisNotFound
		}
		return nil, apperrors.DatabaseError(err)
	}
	return rep, nil
}

func (s *analysisService) ListAnalyses(ctx context.Context, db *gorm.DB, userID string) ([]models.AnalysisReport, error) {
	list, err := s.AnalysisRepo.FindByUser(db.WithContext(ctx), userID, listLimit)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return list, nil
}

func (s *analysisService) DownloadReport(ctx context.Context, db *gorm.DB, analysisID, userID string) (*dto.ReportFile, error) {
	rep, err := s.GetAnalysis(ctx, db, analysisID, userID)
	if err != nil {
		return nil, err
	}
	if rep.Status != models.AnalysisStatusCompleted || rep.PDFPath == nil {
		return nil, apperrors.ErrReportNotReady
	}

	content, err := storage.ReadAll(ctx, s.Storage, *rep.PDFPath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.ErrReportNotReady
		}
		return nil, apperrors.ErrExternalService(err, "storage", "Failed to read report")
	}
	return &dto.ReportFile{FileName: reportFileName(rep.PropertyName), Content: content}, nil
}

func (s *analysisService) FailInterrupted(ctx context.Context, db *gorm.DB, staleAfter time.Duration) (int, error) {
	db = db.WithContext(ctx)
	stale, err := s.AnalysisRepo.FindUnfinished(db, time.Now().Add(-staleAfter))
	if err != nil {
		return 0, apperrors.DatabaseError(err)
	}

	failed := 0
	for i := range stale {
		rep := &stale[i]
		if err := s.AnalysisRepo.UpdateStatus(db, rep.ID, rep.Status, models.AnalysisStatusFailed, reasonInterrupted); err != nil {
			if !errors.Is(err, repositories.ErrAnalysisNotFound) {
				logger.CtxWithError(ctx, "failed to fail interrupted analysis", err, "analysis_id", rep.ID)
			}
			continue
		}
		if err := s.PropertyRepo.UpdateStatus(db, rep.PropertyID, models.PropertyStatusFailed); err != nil {
			logger.CtxWithError(ctx, "failed to mark property failed", err, "property_id", rep.PropertyID)
		}
		s.Metrics.AnalysisFinished(string(models.AnalysisStatusFailed))
		logger.AnalysisLog(rep.ID, "recover", string(models.AnalysisStatusFailed), nil)
		failed++
	}
	return failed, nil
}
