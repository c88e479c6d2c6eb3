package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"investoriq_backend/internal/models"

	"github.com/go-pdf/fpdf"
)

// Renderer превращает анализ в PDF
type Renderer interface {
	Render(propertyName string, analysis *models.AnalysisData) ([]byte, error)
}

type rgb struct{ r, g, b int }

var (
	colorTitle   = rgb{0x0A, 0x16, 0x28}
	colorHeading = rgb{0x10, 0xB9, 0x81}
	colorBody    = rgb{0x33, 0x33, 0x33}
	colorRowFill = rgb{0xF5, 0xF5, 0xDC}
)

const notAvailable = "N/A"

// PDFRenderer рисует отчёт на Letter с базовыми шрифтами.
// Текст переводится в cp1252, неподдерживаемые символы теряются.
type PDFRenderer struct{}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

func (r *PDFRenderer) Render(propertyName string, analysis *models.AnalysisData) ([]byte, error) {
	if analysis == nil {
		analysis = &models.AnalysisData{}
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetTitle("InvestorIQ Property Analysis Report", true)
	pdf.SetCreator("InvestorIQ", true)
	pdf.AddPage()

	w := &writer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	w.title("InvestorIQ Property Analysis Report")
	w.subtitle(propertyName)

	w.heading("Executive Summary")
	switch {
	case analysis.ExecutiveSummary != "":
		w.paragraph(analysis.ExecutiveSummary.String())
	case analysis.IsFallback():
		w.paragraph(analysis.RawAnalysis)
	default:
		w.paragraph("Analysis in progress")
	}

	w.heading("Property Overview")
	if ov := analysis.PropertyOverview; ov != nil {
		w.labeled("Description", orNA(ov.Description))
		w.bullets("Strengths", ov.Strengths)
		w.bullets("Weaknesses", ov.Weaknesses)
	} else {
		w.labeled("Description", notAvailable)
	}

	pdf.AddPage()
	w.heading("Financial Analysis")
	fin := analysis.FinancialAnalysis
	if fin == nil {
		fin = &models.FinancialAnalysis{}
	}
	w.table([][2]string{
		{"Metric", "Value"},
		{"Purchase Price", money(fin.PurchasePrice)},
		{"Estimated Value", orNA(fin.EstimatedValue)},
		{"Cap Rate", orNA(fin.CapRate)},
		{"Cash on Cash Return", orNA(fin.CashOnCashReturn)},
		{"Annual Cash Flow", orNA(fin.AnnualCashFlow)},
	})
	if roi, ok := fin.TotalROI5Year.Float(); ok && roi > 0 {
		w.roiChart(roi)
	}

	if m := analysis.MarketAnalysis; m != nil {
		w.heading("Market Analysis")
		w.labeled("Overview", orNA(m.MarketOverview))
		w.labeled("Competition", orNA(m.CompetitionLevel))
		w.labeled("Trend", orNA(m.MarketTrend))
		w.bullets("Demand Drivers", m.DemandDrivers)
	}

	if risk := analysis.RiskAssessment; risk != nil {
		w.heading("Risk Assessment")
		w.labeled("Overall Risk", orNA(risk.OverallRiskLevel))
		w.bullets("Key Risks", risk.KeyRisks)
		w.bullets("Mitigation", risk.MitigationStrategies)
	}

	w.heading("Investment Recommendation")
	rec := analysis.InvestmentRecommendation
	if rec == nil {
		rec = &models.InvestmentRecommendation{}
	}
	w.labeled("Recommended Strategy", orNA(rec.RecommendedStrategy))
	w.labeled("Offer Recommendation", orNA(rec.OfferRecommendation))
	w.labeled("Deal Rating", orNA(rec.DealRating)+"/10")
	w.labeled("Reasoning", orNA(rec.Reasoning))

	if len(analysis.ActionItems) > 0 {
		w.bullets("Action Items", analysis.ActionItems)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

type writer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (w *writer) color(c rgb) { w.pdf.SetTextColor(c.r, c.g, c.b) }

func (w *writer) title(s string) {
	w.color(colorTitle)
	w.pdf.SetFont("Helvetica", "B", 24)
	w.pdf.MultiCell(0, 12, w.tr(s), "", "C", false)
	w.pdf.Ln(6)
}

func (w *writer) subtitle(s string) {
	w.color(colorTitle)
	w.pdf.SetFont("Helvetica", "B", 16)
	w.pdf.MultiCell(0, 9, w.tr(s), "", "C", false)
	w.pdf.Ln(8)
}

func (w *writer) heading(s string) {
	w.pdf.Ln(3)
	w.color(colorHeading)
	w.pdf.SetFont("Helvetica", "B", 16)
	w.pdf.CellFormat(0, 10, w.tr(s), "", 1, "L", false, 0, "")
	w.pdf.Ln(1)
}

func (w *writer) paragraph(s string) {
	w.color(colorBody)
	w.pdf.SetFont("Helvetica", "", 11)
	w.pdf.MultiCell(0, 5.5, w.tr(s), "", "L", false)
	w.pdf.Ln(3)
}

func (w *writer) labeled(label, value string) {
	w.color(colorBody)
	w.pdf.SetFont("Helvetica", "B", 11)
	w.pdf.Write(5.5, w.tr(label+": "))
	w.pdf.SetFont("Helvetica", "", 11)
	w.pdf.Write(5.5, w.tr(value))
	w.pdf.Ln(8)
}

func (w *writer) bullets(label string, items models.TextList) {
	if len(items) == 0 {
		return
	}
	w.color(colorBody)
	w.pdf.SetFont("Helvetica", "B", 11)
	w.pdf.CellFormat(0, 6, w.tr(label), "", 1, "L", false, 0, "")
	w.pdf.SetFont("Helvetica", "", 11)
	for _, item := range items {
		w.pdf.MultiCell(0, 5.5, w.tr("- "+item.String()), "", "L", false)
	}
	w.pdf.Ln(3)
}

func (w *writer) table(rows [][2]string) {
	const colW, rowH = 85.0, 8.0
	for i, row := range rows {
		if i == 0 {
			w.pdf.SetFillColor(colorHeading.r, colorHeading.g, colorHeading.b)
			w.pdf.SetTextColor(255, 255, 255)
			w.pdf.SetFont("Helvetica", "B", 12)
		} else {
			w.pdf.SetFillColor(colorRowFill.r, colorRowFill.g, colorRowFill.b)
			w.color(colorBody)
			w.pdf.SetFont("Helvetica", "", 11)
		}
		w.pdf.CellFormat(colW, rowH, w.tr(row[0]), "1", 0, "L", true, 0, "")
		w.pdf.CellFormat(colW, rowH, w.tr(row[1]), "1", 1, "L", true, 0, "")
	}
	w.pdf.Ln(6)
}

// roiChart - столбики накопленного ROI по годам при равномерном росте
func (w *writer) roiChart(total float64) {
	const (
		chartH = 40.0
		barW   = 14.0
		gap    = 8.0
	)
	w.color(colorTitle)
	w.pdf.SetFont("Helvetica", "B", 12)
	w.pdf.CellFormat(0, 8, "5-Year ROI Projection", "", 1, "L", false, 0, "")

	left, _, _, _ := w.pdf.GetMargins()
	top := w.pdf.GetY() + 2
	base := top + chartH

	w.pdf.SetDrawColor(180, 180, 180)
	w.pdf.Line(left, base, left+5*(barW+gap), base)

	w.pdf.SetFillColor(colorHeading.r, colorHeading.g, colorHeading.b)
	w.pdf.SetFont("Helvetica", "", 9)
	w.color(colorBody)
	for year := 1; year <= 5; year++ {
		v := total * float64(year) / 5
		h := chartH * float64(year) / 5
		x := left + float64(year-1)*(barW+gap) + gap/2
		w.pdf.Rect(x, base-h, barW, h, "F")
		w.pdf.SetXY(x-2, base-h-5)
		w.pdf.CellFormat(barW+4, 4, strconv.FormatFloat(v, 'f', 1, 64)+"%", "", 0, "C", false, 0, "")
		w.pdf.SetXY(x-2, base+1)
		w.pdf.CellFormat(barW+4, 4, fmt.Sprintf("Year %d", year), "", 0, "C", false, 0, "")
	}
	w.pdf.SetXY(left, base+8)
}

func orNA(t models.Text) string {
	if strings.TrimSpace(t.String()) == "" {
		return notAvailable
	}
	return t.String()
}

// money форматирует число как $1,234,567; нечисловое значение отдаёт как есть
func money(t models.Text) string {
	f, ok := t.Float()
	if !ok {
		return orNA(t)
	}
	neg := f < 0
	if neg {
		f = -f
	}
	digits := strconv.FormatFloat(f, 'f', 0, 64)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}
