package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investoriq_backend/internal/models"
)

// stubCompleter отдаёт заранее заданный ответ и запоминает запрос
type stubCompleter struct {
	reply      string
	err        error
	lastSystem string
	lastPrompt string
}

func (s *stubCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	s.lastSystem, s.lastPrompt = system, prompt
	return s.reply, s.err
}

func TestParser_StructuredResponse(t *testing.T) {
	llm := &stubCompleter{reply: `{"address":"2845 Bloor St W","city":"Toronto","units":12,"asking_price":4200000}`}

	data, err := NewParser(llm).Parse(context.Background(), "doc body", "Bloor")
	require.NoError(t, err)

	assert.False(t, data.IsFallback())
	assert.Equal(t, models.Text("Toronto"), data.City)
	assert.Equal(t, models.Text("12"), data.Units)
	assert.Contains(t, llm.lastSystem, "real estate data parser")
	assert.Contains(t, llm.lastPrompt, "doc body")
}

func TestParser_TruncatesDocument(t *testing.T) {
	llm := &stubCompleter{reply: `{}`}
	long := strings.Repeat("a", maxDocumentChars) + "TAIL_MARKER"

	_, err := NewParser(llm).Parse(context.Background(), long, "Long")
	require.NoError(t, err)
	assert.NotContains(t, llm.lastPrompt, "TAIL_MARKER")
}

func TestParser_FallbackOnProse(t *testing.T) {
	llm := &stubCompleter{reply: "Sorry, the document is unreadable."}

	data, err := NewParser(llm).Parse(context.Background(), "???", "Bad")
	require.NoError(t, err)

	assert.True(t, data.IsFallback())
	assert.Equal(t, "Sorry, the document is unreadable.", data.RawContent)
}

func TestParser_TransportErrorIsReturned(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := NewParser(&stubCompleter{err: boom}).Parse(context.Background(), "x", "X")
	assert.ErrorIs(t, err, boom)
}

func TestGenerator_StructuredResponse(t *testing.T) {
	llm := &stubCompleter{reply: "Analysis follows.\n" + `{
		"executive_summary": "Solid cash flow.",
		"financial_analysis": {"purchase_price": 4200000, "cap_rate": "6.1%"},
		"investment_recommendation": {"recommended_strategy": "Buy and Hold", "deal_rating": 8},
		"action_items": ["Order inspection", "Verify rent roll"]
	}`}

	property := &models.PropertyData{City: "Toronto", Units: "12"}
	a, err := NewGenerator(llm).Generate(context.Background(), property, "Bloor")
	require.NoError(t, err)

	assert.False(t, a.IsFallback())
	assert.Equal(t, models.Text("Solid cash flow."), a.ExecutiveSummary)
	require.NotNil(t, a.FinancialAnalysis)
	assert.Equal(t, models.Text("4200000"), a.FinancialAnalysis.PurchasePrice)
	require.NotNil(t, a.InvestmentRecommendation)
	assert.Equal(t, models.Text("8"), a.InvestmentRecommendation.DealRating)
	assert.Len(t, a.ActionItems, 2)
	assert.Contains(t, llm.lastPrompt, `"city": "Toronto"`)
	assert.Contains(t, llm.lastSystem, "real estate investment analyst")
}

func TestGenerator_FallbackKeepsRawText(t *testing.T) {
	llm := &stubCompleter{reply: "The property looks fine overall."}

	a, err := NewGenerator(llm).Generate(context.Background(), &models.PropertyData{}, "X")
	require.NoError(t, err)
	assert.True(t, a.IsFallback())
	assert.Equal(t, "The property looks fine overall.", a.RawAnalysis)
}
