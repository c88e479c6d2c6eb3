package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name  string `json:"name"`
	Units int    `json:"units"`
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		stage Stage
		want  sample
	}{
		{
			name:  "strict object",
			input: `{"name":"Bloor","units":12}`,
			stage: StageStrict,
			want:  sample{Name: "Bloor", Units: 12},
		},
		{
			name:  "markdown fence",
			input: "Here you go:\n```json\n{\"name\":\"Bloor\",\"units\":12}\n```",
			stage: StageEmbedded,
			want:  sample{Name: "Bloor", Units: 12},
		},
		{
			name:  "braces inside strings",
			input: `Result: {"name":"a } tricky { name \" quote","units":3} trailing {junk`,
			stage: StageEmbedded,
			want:  sample{Name: `a } tricky { name " quote`, Units: 3},
		},
		{
			name:  "nested objects",
			input: `prefix {"name":"n","units":2,"extra":{"deep":{"x":1}}} suffix`,
			stage: StageEmbedded,
			want:  sample{Name: "n", Units: 2},
		},
		{
			name:  "no json at all",
			input: "I cannot analyse this document.",
			stage: StageNone,
		},
		{
			name:  "unbalanced",
			input: `{"name":"n"`,
			stage: StageNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got sample
			stage := ExtractJSON(tt.input, &got)
			assert.Equal(t, tt.stage, stage)
			if tt.stage != StageNone {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestTruncate_KeepsRunesIntact(t *testing.T) {
	assert.Equal(t, "héll", truncate("héllo", 4))
	assert.Equal(t, "abc", truncate("abc", 10))
}

func TestDocumentText_DropsBinaryNoise(t *testing.T) {
	in := []byte("Units: 12\x00\x01\nPrice: $1M\xff\xfe")
	assert.Equal(t, "Units: 12\nPrice: $1M", DocumentText(in))
}
