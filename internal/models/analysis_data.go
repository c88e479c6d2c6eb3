package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Text - значение, которое модель может вернуть и строкой, и числом.
// Хранится как строка, числа без потери форматируются через strconv.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case '{', '[':
		// вложенный объект сохраняем как есть
		*t = Text(data)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err == nil {
			*t = Text(n.String())
			return nil
		}
		*t = Text(strings.Trim(string(data), `"`))
	}
	return nil
}

func (t Text) String() string { return string(t) }

// Float - числовое значение, если оно есть
func (t Text) Float() (float64, bool) {
	s := strings.NewReplacer("$", "", ",", "", "%", "").Replace(strings.TrimSpace(string(t)))
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// TextList - список строк. Модель иногда отдаёт одну строку вместо массива.
type TextList []Text

func (l *TextList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var items []Text
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var one Text
	if err := one.UnmarshalJSON(data); err != nil {
		return err
	}
	if one == "" {
		*l = nil
		return nil
	}
	*l = TextList{one}
	return nil
}

// PropertyData - результат разбора документа.
// Error/RawContent заполняются, если модель не вернула JSON.
type PropertyData struct {
	Address        Text `json:"address,omitempty"`
	City           Text `json:"city,omitempty"`
	State          Text `json:"state,omitempty"`
	ZipCode        Text `json:"zip_code,omitempty"`
	PropertyType   Text `json:"property_type,omitempty"`
	Units          Text `json:"units,omitempty"`
	AskingPrice    Text `json:"asking_price,omitempty"`
	SquareFeet     Text `json:"square_feet,omitempty"`
	YearBuilt      Text `json:"year_built,omitempty"`
	CurrentRent    Text `json:"current_rent,omitempty"`
	Expenses       Text `json:"expenses,omitempty"`
	OccupancyRate  Text `json:"occupancy_rate,omitempty"`
	AdditionalInfo Text `json:"additional_info,omitempty"`

	Error      string `json:"error,omitempty"`
	RawContent string `json:"raw_content,omitempty"`
}

// IsFallback - разбор не удался, есть только сырой текст
func (p PropertyData) IsFallback() bool {
	return p.Error != ""
}

type PropertyOverview struct {
	Description Text     `json:"description,omitempty"`
	Strengths   TextList `json:"strengths,omitempty"`
	Weaknesses  TextList `json:"weaknesses,omitempty"`
}

type FinancialAnalysis struct {
	PurchasePrice      Text `json:"purchase_price,omitempty"`
	EstimatedValue     Text `json:"estimated_value,omitempty"`
	CapRate            Text `json:"cap_rate,omitempty"`
	CashOnCashReturn   Text `json:"cash_on_cash_return,omitempty"`
	AnnualCashFlow     Text `json:"annual_cash_flow,omitempty"`
	TotalROI5Year      Text `json:"total_roi_5year,omitempty"`
	BreakEvenOccupancy Text `json:"break_even_occupancy,omitempty"`
}

type MarketAnalysis struct {
	MarketOverview   Text     `json:"market_overview,omitempty"`
	DemandDrivers    TextList `json:"demand_drivers,omitempty"`
	SupplyFactors    TextList `json:"supply_factors,omitempty"`
	CompetitionLevel Text     `json:"competition_level,omitempty"`
	MarketTrend      Text     `json:"market_trend,omitempty"`
}

type RiskAssessment struct {
	OverallRiskLevel     Text     `json:"overall_risk_level,omitempty"`
	KeyRisks             TextList `json:"key_risks,omitempty"`
	MitigationStrategies TextList `json:"mitigation_strategies,omitempty"`
}

type InvestmentRecommendation struct {
	RecommendedStrategy Text     `json:"recommended_strategy,omitempty"`
	OfferRecommendation Text     `json:"offer_recommendation,omitempty"`
	NegotiationPoints   TextList `json:"negotiation_points,omitempty"`
	DealRating          Text     `json:"deal_rating,omitempty"`
	Reasoning           Text     `json:"reasoning,omitempty"`
}

// AnalysisData - инвестиционный анализ.
// RawAnalysis заполняется, если модель не вернула JSON.
type AnalysisData struct {
	ExecutiveSummary         Text                      `json:"executive_summary,omitempty"`
	PropertyOverview         *PropertyOverview         `json:"property_overview,omitempty"`
	FinancialAnalysis        *FinancialAnalysis        `json:"financial_analysis,omitempty"`
	MarketAnalysis           *MarketAnalysis           `json:"market_analysis,omitempty"`
	RiskAssessment           *RiskAssessment           `json:"risk_assessment,omitempty"`
	InvestmentRecommendation *InvestmentRecommendation `json:"investment_recommendation,omitempty"`
	ActionItems              TextList                  `json:"action_items,omitempty"`

	RawAnalysis string `json:"raw_analysis,omitempty"`
}

func (a AnalysisData) IsFallback() bool {
	return a.RawAnalysis != ""
}
