package hover_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/pinels/pkg/analysis"
	"github.com/walteh/pinels/pkg/hover"
	"github.com/walteh/pinels/pkg/position"
	"github.com/walteh/pinels/pkg/symbols"
)

func analyzeAt(t *testing.T, content string) (*analysis.Document, int) {
	t.Helper()
	offset := strings.Index(content, "|")
	require.GreaterOrEqual(t, offset, 0, "missing cursor marker")
	content = content[:offset] + content[offset+1:]

	cat, err := symbols.LoadDefault(context.Background())
	require.NoError(t, err)
	doc, err := analysis.Analyze(context.Background(), cat, content)
	require.NoError(t, err)
	return doc, offset
}

func TestAt(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantPos position.RawPosition
	}{
		{
			name:    "builtin function",
			content: "x = ta.sm|a(close, 14)",
			want: "```pine\nta.sma(source: series int/float, length: series int) → series float\n```\n\n" +
				"Simple moving average.",
			wantPos: position.NewBasicPosition("sma", 7),
		},
		{
			name:    "namespace",
			content: "x = t|a.sma(close, 14)",
			want:    "```pine\nnamespace ta\n```\n\nTechnical analysis functions.",
			wantPos: position.NewBasicPosition("ta", 4),
		},
		{
			name:    "builtin variable",
			content: "x = close|",
			want:    "```pine\nclose: series float\n```\n\nClosing price of the current bar.",
			wantPos: position.NewBasicPosition("close", 4),
		},
		{
			name:    "annotation",
			content: "//@vers|ion=6",
			want:    "```pine\nannotation @version\n```\n\nDeclares the PineScript version of the script.",
			wantPos: position.NewBasicPosition("@version", 2),
		},
		{
			name:    "keyword",
			content: "i|f close > 1\n    x = 1",
			want:    "```pine\nif\n```\n\nConditional statement or expression.",
			wantPos: position.NewBasicPosition("if", 0),
		},
		{
			name: "documented user function",
			content: "//@function Doubles a value.\n" +
				"//@param x value to double\n" +
				"//@returns twice x\n" +
				"double(float x) => x * 2\n" +
				"y = dou|ble(1.0)",
			want: "```pine\ndouble(float x)\n```\n\nDoubles a value.\n\n- `x`: value to double\n\nReturns: twice x",
			wantPos: position.NewBasicPosition("double", 104),
		},
		{
			name:    "parameter used in the body",
			content: "double(float x) => x| * 2",
			want:    "```pine\n(parameter) float x\n```",
			wantPos: position.NewBasicPosition("x", 19),
		},
		{
			name:    "user type field",
			content: "type P\n    float x = 1.0\np = P.new()\nv = p.x|",
			want:    "```pine\nfloat P.x\n```",
			wantPos: position.NewBasicPosition("x", 43),
		},
		{
			name:    "user type",
			content: "type P\n    float x = 1.0\np = |P.new()",
			want:    "```pine\ntype P\n    float x = 1.0\n```",
			wantPos: position.NewBasicPosition("P", 29),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, offset := analyzeAt(t, tt.content)
			got := hover.At(context.Background(), doc, offset)
			require.NotNil(t, got)
			require.Len(t, got.Content, 1)
			assert.Equal(t, tt.want, got.Content[0])
			assert.Equal(t, tt.wantPos, got.Position)
		})
	}
}

func TestAtNothing(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "whitespace", content: "x = 1 |  + 2"},
		{name: "unknown identifier", content: "x = foo|bar"},
		{name: "comment body", content: "// some |words"},
		{name: "empty document", content: "|"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, offset := analyzeAt(t, tt.content)
			assert.Nil(t, hover.At(context.Background(), doc, offset))
		})
	}
}
