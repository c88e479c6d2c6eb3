package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"investoriq_backend/internal/logger"
	"investoriq_backend/internal/models"
)

// Generator строит инвестиционный анализ по разобранным данным объекта
type Generator interface {
	Generate(ctx context.Context, property *models.PropertyData, propertyName string) (*models.AnalysisData, error)
}

type AnalysisGenerator struct {
	llm Completer
}

func NewGenerator(llm Completer) *AnalysisGenerator {
	return &AnalysisGenerator{llm: llm}
}

func (g *AnalysisGenerator) Generate(ctx context.Context, property *models.PropertyData, propertyName string) (*models.AnalysisData, error) {
	propertyJSON, err := json.MarshalIndent(property, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal property data: %w", err)
	}

	raw, err := g.llm.Complete(ctx, analystSystem, analysisPrompt(propertyName, string(propertyJSON)))
	if err != nil {
		return nil, err
	}

	var analysis models.AnalysisData
	stage := ExtractJSON(raw, &analysis)
	if stage == StageNone {
		logger.CtxWarn(ctx, "generator returned non-JSON response", "property", propertyName)
		return &models.AnalysisData{RawAnalysis: raw}, nil
	}

	logger.CtxDebug(ctx, "analysis generated", "property", propertyName, "stage", stage.String())
	return &analysis, nil
}
