package llm

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"investoriq_backend/internal/logger"
	"investoriq_backend/internal/models"
)

// Parser извлекает структурированные данные объекта из текста документа.
// Ошибка означает сбой вызова модели; неразборчивый ответ ошибкой не является.
type Parser interface {
	Parse(ctx context.Context, content, propertyName string) (*models.PropertyData, error)
}

type DocumentParser struct {
	llm Completer
}

func NewParser(llm Completer) *DocumentParser {
	return &DocumentParser{llm: llm}
}

func (p *DocumentParser) Parse(ctx context.Context, content, propertyName string) (*models.PropertyData, error) {
	raw, err := p.llm.Complete(ctx, parserSystem, parserPrompt(propertyName, truncate(content, maxDocumentChars)))
	if err != nil {
		return nil, err
	}

	var data models.PropertyData
	stage := ExtractJSON(raw, &data)
	if stage == StageNone {
		logger.CtxWarn(ctx, "parser returned non-JSON response", "property", propertyName)
		return &models.PropertyData{
			Error:      "unable to parse model response",
			RawContent: raw,
		}, nil
	}

	logger.CtxDebug(ctx, "property document parsed", "property", propertyName, "stage", stage.String())
	return &data, nil
}

// DocumentText превращает загруженный файл в текст для модели:
// невалидный UTF-8 и управляющие символы отбрасываются.
func DocumentText(data []byte) string {
	s := strings.ToValidUTF8(string(data), "")
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '\r' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// truncate обрезает по символам, не разрывая руну
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
