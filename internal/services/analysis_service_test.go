package services

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"investoriq_backend/internal/models"
	"investoriq_backend/pkg/apperrors"
	"investoriq_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestAnalysisService_SuccessDebitsOneCredit(t *testing.T) {
	f := newAnalysisFixture(t)
	ctx := context.Background()
	user := helpers.CreateUser(t, f.db, "investor@x.com", 2)
	property := f.property(t, user.ID, "Main St")

	rep, err := f.svc.StartAnalysis(ctx, f.db, property.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisStatusCompleted, rep.Status)
	require.NotNil(t, rep.PDFPath)
	assert.Equal(t, "reports/report_"+rep.ID+".pdf", *rep.PDFPath)
	assert.Equal(t, 1, helpers.Balance(t, f.db, user.ID))

	stored, err := f.svc.GetAnalysis(ctx, f.db, rep.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisStatusCompleted, stored.Status)
	payload := stored.AnalysisData.Data()
	require.NotNil(t, payload.Analysis)
	assert.Equal(t, "Solid deal", string(payload.Analysis.ExecutiveSummary))

	var p models.Property
	require.NoError(t, f.db.First(&p, "id = ?", property.ID).Error)
	assert.Equal(t, models.PropertyStatusCompleted, p.Status)

	sent := f.mail.Sent()
	require.Len(t, sent, 1)
	require.Len(t, sent[0].Attachments, 1)
	assert.Equal(t, "Main St_analysis.pdf", sent[0].Attachments[0].Name)
}

func TestAnalysisService_SecondRequestReturnsSameReport(t *testing.T) {
	f := newAnalysisFixture(t)
	ctx := context.Background()
	user := helpers.CreateUser(t, f.db, "twice@x.com", 3)
	property := f.property(t, user.ID, "Oak Ave")

	first, err := f.svc.StartAnalysis(ctx, f.db, property.ID, user.ID)
	require.NoError(t, err)
	second, err := f.svc.StartAnalysis(ctx, f.db, property.ID, user.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int32(1), f.generator.calls.Load())
	assert.Equal(t, 2, helpers.Balance(t, f.db, user.ID))
	assert.Equal(t, int64(1), countReports(t, f.db, property.ID))
}

func TestAnalysisService_ZeroCreditsCreatesNothing(t *testing.T) {
	f := newAnalysisFixture(t)
	user := helpers.CreateUser(t, f.db, "broke@x.com", 0)
	property := f.property(t, user.ID, "Elm St")

	_, err := f.svc.StartAnalysis(context.Background(), f.db, property.ID, user.ID)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientCredits)
	assert.Zero(t, countReports(t, f.db, property.ID))
	assert.Zero(t, f.parser.calls.Load())
}

func TestAnalysisService_ForeignPropertyIsNotFound(t *testing.T) {
	f := newAnalysisFixture(t)
	owner := helpers.CreateUser(t, f.db, "owner@x.com", 1)
	intruder := helpers.CreateUser(t, f.db, "intruder@x.com", 1)
	property := f.property(t, owner.ID, "Pine Rd")

	_, err := f.svc.StartAnalysis(context.Background(), f.db, property.ID, intruder.ID)
	assert.ErrorIs(t, err, apperrors.ErrPropertyNotFound)
	assert.Equal(t, 1, helpers.Balance(t, f.db, intruder.ID))
	assert.Zero(t, countReports(t, f.db, property.ID))
}

func TestAnalysisService_GeneratorFailureKeepsCredit(t *testing.T) {
	f := newAnalysisFixture(t)
	ctx := context.Background()
	f.generator.err = errLLMDown
	user := helpers.CreateUser(t, f.db, "fail@x.com", 1)
	property := f.property(t, user.ID, "Birch Ln")

	rep, err := f.svc.StartAnalysis(ctx, f.db, property.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisStatusFailed, rep.Status)
	assert.True(t, strings.HasPrefix(rep.FailureReason, "generate:"), rep.FailureReason)
	assert.Equal(t, 1, helpers.Balance(t, f.db, user.ID))

	stored, err := f.svc.GetAnalysis(ctx, f.db, rep.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisStatusFailed, stored.Status)
	assert.Nil(t, stored.PDFPath)

	var p models.Property
	require.NoError(t, f.db.First(&p, "id = ?", property.ID).Error)
	assert.Equal(t, models.PropertyStatusFailed, p.Status)

	_, err = f.svc.DownloadReport(ctx, f.db, rep.ID, user.ID)
	assert.ErrorIs(t, err, apperrors.ErrReportNotReady)
	assert.Empty(t, f.mail.Sent())
}

func TestAnalysisService_ParserFailureStopsPipeline(t *testing.T) {
	f := newAnalysisFixture(t)
	f.parser.err = errLLMDown
	user := helpers.CreateUser(t, f.db, "parse@x.com", 1)
	property := f.property(t, user.ID, "Cedar Ct")

	rep, err := f.svc.StartAnalysis(context.Background(), f.db, property.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisStatusFailed, rep.Status)
	assert.Contains(t, rep.FailureReason, "parse")
	assert.Zero(t, f.generator.calls.Load())
	assert.Equal(t, 1, helpers.Balance(t, f.db, user.ID))
}

func TestAnalysisService_MissingDocumentFailsAtLoad(t *testing.T) {
	f := newAnalysisFixture(t)
	user := helpers.CreateUser(t, f.db, "nodoc@x.com", 1)
	property := helpers.CreateProperty(t, f.db, user.ID, "Ghost St")

	rep, err := f.svc.StartAnalysis(context.Background(), f.db, property.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisStatusFailed, rep.Status)
	assert.True(t, strings.HasPrefix(rep.FailureReason, "load:"), rep.FailureReason)
	assert.Zero(t, f.parser.calls.Load())
}

func TestAnalysisService_StepTimeoutFailsAnalysis(t *testing.T) {
	f := newAnalysisFixture(t)
	f.deps.StepTimeout = 50 * time.Millisecond
	f.svc = NewAnalysisService(f.deps)
	f.generator.hook = func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	user := helpers.CreateUser(t, f.db, "slow@x.com", 1)
	property := f.property(t, user.ID, "Slow Rd")

	rep, err := f.svc.StartAnalysis(context.Background(), f.db, property.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisStatusFailed, rep.Status)
	assert.Contains(t, rep.FailureReason, "timed out")
	assert.Equal(t, 1, helpers.Balance(t, f.db, user.ID))
}

func TestAnalysisService_CreditSpentDuringGenerationFailsReport(t *testing.T) {
	f := newAnalysisFixture(t)
	ctx := context.Background()
	user := helpers.CreateUser(t, f.db, "racer@x.com", 1)
	property := f.property(t, user.ID, "Race Blvd")

	// последний кредит уходит, пока идёт генерация
	f.generator.hook = func(ctx context.Context) error {
		_, err := f.ledger.Debit(ctx, f.db, user.ID)
		return err
	}

	_, err := f.svc.StartAnalysis(ctx, f.db, property.ID, user.ID)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientCredits)
	assert.Equal(t, 0, helpers.Balance(t, f.db, user.ID))

	var rep models.AnalysisReport
	require.NoError(t, f.db.First(&rep, "property_id = ?", property.ID).Error)
	assert.Equal(t, models.AnalysisStatusFailed, rep.Status)
	assert.Equal(t, reasonDebitRace, rep.FailureReason)
	assert.Nil(t, rep.PDFPath)

	exists, err := f.store.Exists(ctx, "reports/report_"+rep.ID+".pdf")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAnalysisService_ConcurrentRequestsRunOnce(t *testing.T) {
	f := newAnalysisFixture(t)
	ctx := context.Background()
	user := helpers.CreateUser(t, f.db, "burst@x.com", 3)
	property := f.property(t, user.ID, "Burst Way")

	f.generator.hook = func(ctx context.Context) error {
		time.Sleep(50 * time.Millisecond)
		return nil
	}

	ids := make([]string, 5)
	var g errgroup.Group
	for i := range ids {
		g.Go(func() error {
			rep, err := f.svc.StartAnalysis(ctx, f.db, property.ID, user.ID)
			if err != nil {
				return err
			}
			ids[i] = rep.ID
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Equal(t, int32(1), f.generator.calls.Load())
	assert.Equal(t, int64(1), countReports(t, f.db, property.ID))
	assert.Equal(t, 2, helpers.Balance(t, f.db, user.ID))
}

func TestAnalysisService_CancelledRequestStillPersists(t *testing.T) {
	f := newAnalysisFixture(t)
	user := helpers.CreateUser(t, f.db, "gone@x.com", 1)
	property := f.property(t, user.ID, "Gone St")

	ctx, cancel := context.WithCancel(context.Background())
	var cancelled atomic.Bool
	f.generator.hook = func(context.Context) error {
		cancel()
		cancelled.Store(true)
		return nil
	}

	rep, err := f.svc.StartAnalysis(ctx, f.db, property.ID, user.ID)
	require.True(t, cancelled.Load())
	require.NoError(t, err)

	assert.Equal(t, models.AnalysisStatusCompleted, rep.Status)

	// отмена запроса не прерывает анализ
	stored, err := f.svc.GetAnalysis(context.Background(), f.db, rep.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisStatusCompleted, stored.Status)
	assert.Empty(t, stored.FailureReason)
	assert.Equal(t, 0, helpers.Balance(t, f.db, user.ID))
}

func TestAnalysisService_JoinedCallerSurvivesFirstCallerCancel(t *testing.T) {
	f := newAnalysisFixture(t)
	user := helpers.CreateUser(t, f.db, "joined@x.com", 2)
	property := f.property(t, user.ID, "Shared Ln")

	started := make(chan struct{})
	release := make(chan struct{})
	f.generator.hook = func(ctx context.Context) error {
		close(started)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return ctx.Err()
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	type outcome struct {
		rep *models.AnalysisReport
		err error
	}
	resA := make(chan outcome, 1)
	resB := make(chan outcome, 1)

	go func() {
		rep, err := f.svc.StartAnalysis(ctxA, f.db, property.ID, user.ID)
		resA <- outcome{rep, err}
	}()
	<-started

	go func() {
		rep, err := f.svc.StartAnalysis(context.Background(), f.db, property.ID, user.ID)
		resB <- outcome{rep, err}
	}()
	time.Sleep(100 * time.Millisecond)

	cancelA()
	time.Sleep(20 * time.Millisecond)
	close(release)

	a, b := <-resA, <-resB
	require.NoError(t, a.err)
	require.NoError(t, b.err)
	assert.Equal(t, a.rep.ID, b.rep.ID)
	assert.Equal(t, models.AnalysisStatusCompleted, a.rep.Status)
	assert.Equal(t, models.AnalysisStatusCompleted, b.rep.Status)
	assert.Equal(t, int32(1), f.generator.calls.Load())
	assert.Equal(t, 1, helpers.Balance(t, f.db, user.ID))

	// повторный запрос отдаёт готовый отчёт
	again, err := f.svc.StartAnalysis(context.Background(), f.db, property.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisStatusCompleted, again.Status)
	assert.Equal(t, 1, helpers.Balance(t, f.db, user.ID))
}

func TestAnalysisService_FailInterruptedReleasesStuckReports(t *testing.T) {
	f := newAnalysisFixture(t)
	ctx := context.Background()
	user := helpers.CreateUser(t, f.db, "stuck@x.com", 1)
	stuck := f.property(t, user.ID, "Stuck Ct")
	fresh := f.property(t, user.ID, "Fresh Ct")

	stuckRep := &models.AnalysisReport{
		UserID:       user.ID,
		PropertyID:   stuck.ID,
		PropertyName: stuck.PropertyName,
		Status:       models.AnalysisStatusGenerating,
	}
	require.NoError(t, f.db.Create(stuckRep).Error)
	require.NoError(t, f.db.Model(&models.AnalysisReport{}).Where("id = ?", stuckRep.ID).
		UpdateColumn("updated_at", time.Now().Add(-time.Hour)).Error)

	freshRep := &models.AnalysisReport{
		UserID:       user.ID,
		PropertyID:   fresh.ID,
		PropertyName: fresh.PropertyName,
		Status:       models.AnalysisStatusGenerating,
	}
	require.NoError(t, f.db.Create(freshRep).Error)

	n, err := f.svc.FailInterrupted(ctx, f.db, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.svc.GetAnalysis(ctx, f.db, stuckRep.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisStatusFailed, got.Status)
	assert.Equal(t, reasonInterrupted, got.FailureReason)

	var p models.Property
	require.NoError(t, f.db.First(&p, "id = ?", stuck.ID).Error)
	assert.Equal(t, models.PropertyStatusFailed, p.Status)

	got, err = f.svc.GetAnalysis(ctx, f.db, freshRep.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisStatusGenerating, got.Status)

	// повторный проход ничего не меняет
	n, err = f.svc.FailInterrupted(ctx, f.db, 10*time.Minute)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, helpers.Balance(t, f.db, user.ID))
}

func TestAnalysisService_DownloadCompletedReport(t *testing.T) {
	f := newAnalysisFixture(t)
	ctx := context.Background()
	user := helpers.CreateUser(t, f.db, "dl@x.com", 1)
	other := helpers.CreateUser(t, f.db, "dl-other@x.com", 0)
	property := f.property(t, user.ID, "Harbor View")

	rep, err := f.svc.StartAnalysis(ctx, f.db, property.ID, user.ID)
	require.NoError(t, err)

	file, err := f.svc.DownloadReport(ctx, f.db, rep.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Harbor View_analysis.pdf", file.FileName)
	assert.True(t, bytes.HasPrefix(file.Content, []byte("%PDF")))

	_, err = f.svc.DownloadReport(ctx, f.db, rep.ID, other.ID)
	assert.ErrorIs(t, err, apperrors.ErrAnalysisNotFound)

	list, err := f.svc.ListAnalyses(ctx, f.db, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, rep.ID, list[0].ID)
}
