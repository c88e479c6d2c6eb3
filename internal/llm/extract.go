package llm

import (
	"encoding/json"
	"strings"
)

// Stage - каким способом удалось достать JSON из ответа модели
type Stage int

const (
	// StageNone - JSON не найден, вызывающий строит fallback с сырым текстом
	StageNone Stage = iota
	// StageStrict - весь ответ является JSON-объектом
	StageStrict
	// StageEmbedded - JSON найден внутри текста (первый сбалансированный {...})
	StageEmbedded
)

func (s Stage) String() string {
	switch s {
	case StageStrict:
		return "strict"
	case StageEmbedded:
		return "embedded"
	default:
		return "none"
	}
}

// ExtractJSON декодирует ответ модели в v в два этапа:
// сначала весь текст, затем первый сбалансированный объект внутри него.
// При StageNone содержимое v не определено.
func ExtractJSON(text string, v any) Stage {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") && json.Unmarshal([]byte(trimmed), v) == nil {
		return StageStrict
	}

	obj, ok := firstObject(trimmed)
	if !ok {
		return StageNone
	}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return StageNone
	}
	return StageEmbedded
}

// firstObject возвращает первый сбалансированный {...}.
// Скобки внутри строковых литералов не считаются.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
