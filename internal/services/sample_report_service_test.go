package services

import (
	"context"
	"testing"

	"investoriq_backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleReportService_RendersOnce(t *testing.T) {
	store, err := storage.NewLocalStorage(storage.Config{BasePath: t.TempDir()})
	require.NoError(t, err)
	renderer := &stubRenderer{}
	svc := NewSampleReportService(renderer, store)
	ctx := context.Background()

	info := svc.Info(ctx)
	assert.True(t, info.Available)
	assert.Equal(t, 12, info.Units)
	assert.Equal(t, "/api/sample-report/download", info.DownloadURL)

	// дальше PDF берётся из storage
	renderer.err = errLLMDown

	file, err := svc.Download(ctx)
	require.NoError(t, err)
	assert.Equal(t, SampleReportFileName, file.FileName)
	assert.Equal(t, "%PDF-1.4 "+sampleProperty, string(file.Content))

	exists, err := store.Exists(ctx, sampleReportKey)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSampleReportService_RenderFailure(t *testing.T) {
	store, err := storage.NewLocalStorage(storage.Config{BasePath: t.TempDir()})
	require.NoError(t, err)
	svc := NewSampleReportService(&stubRenderer{err: errLLMDown}, store)

	info := svc.Info(context.Background())
	assert.False(t, info.Available)
	assert.NotEmpty(t, info.Message)

	_, err = svc.Download(context.Background())
	require.Error(t, err)
}
