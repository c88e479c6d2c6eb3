package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investoriq_backend/internal/models"
)

func TestPDFRenderer_FullAnalysis(t *testing.T) {
	analysis := &models.AnalysisData{
		ExecutiveSummary: "A 12-unit walk-up with upside — café on ground floor.",
		PropertyOverview: &models.PropertyOverview{
			Description: "Mixed-use building",
			Strengths:   models.TextList{"Transit", "Retail frontage"},
		},
		FinancialAnalysis: &models.FinancialAnalysis{
			PurchasePrice: "4200000",
			CapRate:       "6.1%",
			TotalROI5Year: "57%",
		},
		RiskAssessment: &models.RiskAssessment{OverallRiskLevel: "medium"},
		InvestmentRecommendation: &models.InvestmentRecommendation{
			RecommendedStrategy: "Buy and Hold",
			DealRating:          "8",
		},
		ActionItems: models.TextList{"Order inspection"},
	}

	pdf, err := NewPDFRenderer().Render("2845 Bloor Street West, Toronto", analysis)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
	assert.Greater(t, len(pdf), 1000)
}

func TestPDFRenderer_FallbackAndEmpty(t *testing.T) {
	r := NewPDFRenderer()

	pdf, err := r.Render("Raw", &models.AnalysisData{RawAnalysis: "free-form text from the model"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))

	pdf, err = r.Render("Nil", nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "$4,200,000", money("4200000"))
	assert.Equal(t, "$999", money("999"))
	assert.Equal(t, "-$1,000", money("-1000"))
	assert.Equal(t, "$1,250,000", money("$1,250,000"))
	assert.Equal(t, "ask broker", money("ask broker"))
	assert.Equal(t, "N/A", money(""))
}
