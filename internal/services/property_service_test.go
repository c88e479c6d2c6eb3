package services

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"investoriq_backend/internal/models"
	"investoriq_backend/internal/repositories"
	"investoriq_backend/internal/services/dto"
	"investoriq_backend/internal/storage"
	"investoriq_backend/pkg/apperrors"
	"investoriq_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileHeader собирает multipart.FileHeader так же, как его получает gin
func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func newPropertyService(t *testing.T) (PropertyService, storage.Storage) {
	t.Helper()
	store, err := storage.NewLocalStorage(storage.Config{BasePath: t.TempDir()})
	require.NoError(t, err)
	return NewPropertyService(repositories.NewPropertyRepository(), store, UploadLimits{
		MaxSize:           64,
		AllowedExtensions: []string{".pdf", ".txt"},
	}), store
}

func TestPropertyService_UploadStoresDocument(t *testing.T) {
	db := helpers.NewTestDB(t)
	svc, store := newPropertyService(t)
	ctx := context.Background()
	user := helpers.CreateUser(t, db, "upload@x.com", 0)

	res, err := svc.Upload(ctx, db, user.ID, &dto.UploadPropertyRequest{
		PropertyName: " 12 King St ",
		PropertyType: "mls",
	}, fileHeader(t, "listing.TXT", []byte("12 units")))
	require.NoError(t, err)
	assert.Equal(t, models.PropertyStatusUploaded, res.Status)

	got, err := svc.Get(ctx, db, res.PropertyID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "12 King St", got.PropertyName)
	assert.Equal(t, models.PropertyTypeMLS, got.PropertyType)
	assert.Equal(t, "uploads/"+res.PropertyID+".txt", got.FilePath)

	data, err := storage.ReadAll(ctx, store, got.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "12 units", string(data))

	list, err := svc.List(ctx, db, user.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPropertyService_UploadRejects(t *testing.T) {
	db := helpers.NewTestDB(t)
	svc, _ := newPropertyService(t)
	ctx := context.Background()
	user := helpers.CreateUser(t, db, "reject@x.com", 0)

	_, err := svc.Upload(ctx, db, user.ID, &dto.UploadPropertyRequest{PropertyName: "A", PropertyType: "condo"},
		fileHeader(t, "a.pdf", []byte("x")))
	requireCode(t, err, apperrors.CodeValidationFailed)

	_, err = svc.Upload(ctx, db, user.ID, &dto.UploadPropertyRequest{PropertyName: "A", PropertyType: "mls"},
		fileHeader(t, "a.exe", []byte("x")))
	assert.ErrorIs(t, err, apperrors.ErrInvalidFileType)

	_, err = svc.Upload(ctx, db, user.ID, &dto.UploadPropertyRequest{PropertyName: "A", PropertyType: "mls"},
		fileHeader(t, "big.pdf", bytes.Repeat([]byte("x"), 65)))
	assert.ErrorIs(t, err, apperrors.ErrFileTooLarge)

	var n int64
	require.NoError(t, db.Model(&models.Property{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestPropertyService_GetForeignProperty(t *testing.T) {
	db := helpers.NewTestDB(t)
	svc, _ := newPropertyService(t)
	owner := helpers.CreateUser(t, db, "own@x.com", 0)
	other := helpers.CreateUser(t, db, "oth@x.com", 0)
	p := helpers.CreateProperty(t, db, owner.ID, "Mine")

	_, err := svc.Get(context.Background(), db, p.ID, other.ID)
	assert.ErrorIs(t, err, apperrors.ErrPropertyNotFound)
}
