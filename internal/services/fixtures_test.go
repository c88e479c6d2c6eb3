package services

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"investoriq_backend/internal/email"
	"investoriq_backend/internal/logger"
	"investoriq_backend/internal/models"
	"investoriq_backend/internal/repositories"
	"investoriq_backend/internal/storage"
	"investoriq_backend/test/helpers"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	logger.Init("test")
}

type stubParser struct {
	err   error
	calls atomic.Int32
}

func (p *stubParser) Parse(ctx context.Context, content, propertyName string) (*models.PropertyData, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return &models.PropertyData{Address: models.Text(propertyName), Units: "12", AskingPrice: "4200000"}, nil
}

// stubGenerator; hook вызывается до возврата результата
type stubGenerator struct {
	err   error
	hook  func(ctx context.Context) error
	calls atomic.Int32
}

func (g *stubGenerator) Generate(ctx context.Context, property *models.PropertyData, propertyName string) (*models.AnalysisData, error) {
	g.calls.Add(1)
	if g.hook != nil {
		if err := g.hook(ctx); err != nil {
			return nil, err
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	return &models.AnalysisData{
		ExecutiveSummary: "Solid deal",
		FinancialAnalysis: &models.FinancialAnalysis{
			PurchasePrice: "4200000",
			CapRate:       "5.1%",
		},
	}, nil
}

type stubRenderer struct {
	err error
}

func (r *stubRenderer) Render(propertyName string, analysis *models.AnalysisData) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-1.4 " + propertyName), nil
}

var errLLMDown = errors.New("llm: upstream unavailable")

type analysisFixture struct {
	db        *gorm.DB
	store     storage.Storage
	ledger    CreditLedger
	parser    *stubParser
	generator *stubGenerator
	renderer  *stubRenderer
	mail      *email.MockProvider
	deps      AnalysisDeps
	svc       AnalysisService
}

func newAnalysisFixture(t *testing.T) *analysisFixture {
	t.Helper()

	db := helpers.NewTestDB(t)
	store, err := storage.NewLocalStorage(storage.Config{BasePath: t.TempDir()})
	require.NoError(t, err)

	f := &analysisFixture{
		db:        db,
		store:     store,
		ledger:    NewCreditLedger(repositories.NewUserRepository()),
		parser:    &stubParser{},
		generator: &stubGenerator{},
		renderer:  &stubRenderer{},
		mail:      email.NewMockProvider(),
	}
	f.deps = AnalysisDeps{
		UserRepo:     repositories.NewUserRepository(),
		PropertyRepo: repositories.NewPropertyRepository(),
		AnalysisRepo: repositories.NewAnalysisRepository(),
		Ledger:       f.ledger,
		Parser:       f.parser,
		Generator:    f.generator,
		Renderer:     f.renderer,
		Storage:      store,
		Emails:       NewEmailService(f.mail, "support@investoriq.app"),
		StepTimeout:  2 * time.Second,
	}
	f.svc = NewAnalysisService(f.deps)
	return f
}

// property создаёт объект и кладёт его документ в storage
func (f *analysisFixture) property(t *testing.T, userID, name string) *models.Property {
	t.Helper()
	p := helpers.CreateProperty(t, f.db, userID, name)
	require.NoError(t, f.store.Save(context.Background(), p.FilePath, bytes.NewReader([]byte("12 units, asking $4.2M")), "text/plain"))
	return p
}

func countReports(t *testing.T, db *gorm.DB, propertyID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.AnalysisReport{}).Where("property_id = ?", propertyID).Count(&n).Error)
	return n
}
