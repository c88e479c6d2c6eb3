package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"investoriq_backend/internal/logger"
	"investoriq_backend/internal/models"
	"investoriq_backend/internal/repositories"
	"investoriq_backend/internal/services/dto"
	"investoriq_backend/internal/storage"
	"investoriq_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PropertyService interface {
	Upload(ctx context.Context, db *gorm.DB, userID string, req *dto.UploadPropertyRequest, file *multipart.FileHeader) (*dto.UploadPropertyResponse, error)
	List(ctx context.Context, db *gorm.DB, userID string) ([]*dto.PropertyResponse, error)
	Get(ctx context.Context, db *gorm.DB, propertyID, userID string) (*dto.PropertyResponse, error)
}

type UploadLimits struct {
	MaxSize           int64
	AllowedExtensions []string
}

type propertyService struct {
	propertyRepo repositories.PropertyRepository
	storage      storage.Storage
	limits       UploadLimits
}

func NewPropertyService(propertyRepo repositories.PropertyRepository, store storage.Storage, limits UploadLimits) PropertyService {
	return &propertyService{
		propertyRepo: propertyRepo,
		storage:      store,
		limits:       limits,
	}
}

// Upload сохраняет документ в storage и создаёт объект со статусом uploaded
func (s *propertyService) Upload(ctx context.Context, db *gorm.DB, userID string, req *dto.UploadPropertyRequest, file *multipart.FileHeader) (*dto.UploadPropertyResponse, error) {
	propertyType := models.PropertyType(req.PropertyType)
	if !propertyType.IsValid() {
		return nil, apperrors.ValidationError(map[string]string{"property_type": "must be off_market or mls"})
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext == "" {
		ext = ".txt"
	}
	if !s.extensionAllowed(ext) {
		return nil, apperrors.ErrInvalidFileType.WithDetails(map[string]interface{}{
			"extension": ext,
			"allowed":   s.limits.AllowedExtensions,
		})
	}
	if s.limits.MaxSize > 0 && file.Size > s.limits.MaxSize {
		return nil, apperrors.ErrFileTooLarge.WithDetails(map[string]int64{"max_size": s.limits.MaxSize})
	}

	src, err := file.Open()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	property := &models.Property{
		UserID:       userID,
		PropertyName: strings.TrimSpace(req.PropertyName),
		PropertyType: propertyType,
		UploadedAt:   time.Now().UTC(),
		Status:       models.PropertyStatusUploaded,
	}
	property.ID = uuid.NewString()
	property.FilePath = "uploads/" + property.ID + ext

	if err := s.storage.Save(ctx, property.FilePath, bytes.NewReader(content), file.Header.Get("Content-Type")); err != nil {
		return nil, apperrors.ErrExternalService(err, "storage", "Failed to store file")
	}

	if err := s.propertyRepo.Create(db, property); err != nil {
		if delErr := s.storage.Delete(ctx, property.FilePath); delErr != nil {
			logger.CtxWithError(ctx, "failed to clean up upload", delErr, "key", property.FilePath)
		}
		return nil, apperrors.DatabaseError(err)
	}

	logger.CtxInfo(ctx, "property uploaded", "property_id", property.ID, "size", len(content))
	return &dto.UploadPropertyResponse{PropertyID: property.ID, Status: property.Status}, nil
}

func (s *propertyService) List(ctx context.Context, db *gorm.DB, userID string) ([]*dto.PropertyResponse, error) {
	list, err := s.propertyRepo.FindByUser(db.WithContext(ctx), userID, listLimit)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	out := make([]*dto.PropertyResponse, 0, len(list))
	for i := range list {
		out = append(out, dto.NewPropertyResponse(&list[i]))
	}
	return out, nil
}

func (s *propertyService) Get(ctx context.Context, db *gorm.DB, propertyID, userID string) (*dto.PropertyResponse, error) {
	p, err := s.propertyRepo.FindByIDForUser(db.WithContext(ctx), propertyID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrPropertyNotFound) {
			return nil, apperrors.ErrPropertyNotFound
		}
		return nil, apperrors.DatabaseError(err)
	}
	return dto.NewPropertyResponse(p), nil
}

func (s *propertyService) extensionAllowed(ext string) bool {
	if len(s.limits.AllowedExtensions) == 0 {
		return true
	}
	for _, allowed := range s.limits.AllowedExtensions {
		if strings.EqualFold(allowed, ext) {
			return true
		}
	}
	return false
}
