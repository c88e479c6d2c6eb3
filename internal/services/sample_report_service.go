package services

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"investoriq_backend/internal/logger"
	"investoriq_backend/internal/models"
	"investoriq_backend/internal/report"
	"investoriq_backend/internal/services/dto"
	"investoriq_backend/internal/storage"
	"investoriq_backend/pkg/apperrors"
)

const (
	sampleReportKey      = "reports/sample_report.pdf"
	SampleReportFileName = "InvestorIQ_Sample_Report_Toronto.pdf"
	sampleProperty       = "2845 Bloor Street West, Toronto"
)

// SampleReportService - демонстрационный отчёт для лендинга.
// PDF рендерится один раз и дальше берётся из storage.
type SampleReportService interface {
	Info(ctx context.Context) *dto.SampleReportInfo
	Download(ctx context.Context) (*dto.ReportFile, error)
}

type sampleReportService struct {
	renderer report.Renderer
	storage  storage.Storage
	mu       sync.Mutex
}

func NewSampleReportService(renderer report.Renderer, store storage.Storage) SampleReportService {
	return &sampleReportService{renderer: renderer, storage: store}
}

func (s *sampleReportService) Info(ctx context.Context) *dto.SampleReportInfo {
	if err := s.ensure(ctx); err != nil {
		logger.CtxWithError(ctx, "sample report unavailable", err)
		return &dto.SampleReportInfo{Available: false, Message: "Sample report not yet available"}
	}
	return &dto.SampleReportInfo{
		Available:   true,
		Property:    sampleProperty,
		Units:       12,
		Type:        "Multifamily",
		DownloadURL: "/api/sample-report/download",
	}
}

func (s *sampleReportService) Download(ctx context.Context) (*dto.ReportFile, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, apperrors.ErrExternalService(err, "sample_report", "Sample report not available")
	}
	content, err := storage.ReadAll(ctx, s.storage, sampleReportKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.ErrNotFound(err, "sample_report", "Sample report not available")
		}
		return nil, apperrors.ErrExternalService(err, "storage", "Failed to read sample report")
	}
	return &dto.ReportFile{FileName: SampleReportFileName, Content: content}, nil
}

// ensure рендерит и сохраняет PDF, если его ещё нет
func (s *sampleReportService) ensure(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.storage.Exists(ctx, sampleReportKey)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	pdf, err := s.renderer.Render(sampleProperty, sampleAnalysis())
	if err != nil {
		return err
	}
	if err := s.storage.Save(ctx, sampleReportKey, bytes.NewReader(pdf), "application/pdf"); err != nil {
		return err
	}
	logger.CtxInfo(ctx, "sample report generated", "key", sampleReportKey, "size", len(pdf))
	return nil
}

func sampleAnalysis() *models.AnalysisData {
	return &models.AnalysisData{
		ExecutiveSummary: "2845 Bloor Street West is a 12-unit multifamily building in Toronto's Bloor West Village. " +
			"The asset is fully leased with rents roughly 18% below market, offering a value-add path through " +
			"unit turnover and light renovations. At the recommended entry price the deal produces a stable " +
			"cash yield with meaningful upside over a five-year hold.",
		PropertyOverview: &models.PropertyOverview{
			Description: "Three-storey walk-up built in 1962 with 12 two-bedroom units, on-site laundry and 8 surface parking spaces.",
			Strengths: models.TextList{
				"Transit-oriented location steps from Runnymede subway station",
				"100% occupancy with a long waiting list",
				"Below-market rents provide organic upside",
			},
			Weaknesses: models.TextList{
				"Original electrical panels require upgrade",
				"Rent control limits increases on sitting tenants",
			},
		},
		FinancialAnalysis: &models.FinancialAnalysis{
			PurchasePrice:      "4850000",
			EstimatedValue:     "5200000",
			CapRate:            "4.6%",
			CashOnCashReturn:   "6.2%",
			AnnualCashFlow:     "118000",
			TotalROI5Year:      "38.5",
			BreakEvenOccupancy: "78%",
		},
		MarketAnalysis: &models.MarketAnalysis{
			MarketOverview: "West-end Toronto rental demand remains strong with vacancy under 2%.",
			DemandDrivers: models.TextList{
				"Population growth from immigration",
				"High home ownership costs keep renters in the market",
			},
			SupplyFactors: models.TextList{
				"Limited purpose-built rental completions in the neighbourhood",
			},
			CompetitionLevel: "Moderate",
			MarketTrend:      "Rents trending up 4-6% annually",
		},
		RiskAssessment: &models.RiskAssessment{
			OverallRiskLevel: "Low to Moderate",
			KeyRisks: models.TextList{
				"Capital expenditure on building systems",
				"Interest rate exposure at refinancing",
			},
			MitigationStrategies: models.TextList{
				"Holdback for electrical and boiler work negotiated at closing",
				"Fixed-rate CMHC-insured financing",
			},
		},
		InvestmentRecommendation: &models.InvestmentRecommendation{
			RecommendedStrategy: "Value-add hold",
			OfferRecommendation: "Offer $4.65M with a $150K capex credit",
			NegotiationPoints: models.TextList{
				"Age of mechanical systems",
				"Below-market in-place rents",
			},
			DealRating: "8",
			Reasoning:  "Strong location and durable demand outweigh near-term capital needs.",
		},
		ActionItems: models.TextList{
			"Order building condition assessment",
			"Verify rent roll against leases",
			"Obtain CMHC financing quote",
		},
	}
}
