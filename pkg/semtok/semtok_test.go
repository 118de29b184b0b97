package semtok_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/pinels/pkg/analysis"
	"github.com/walteh/pinels/pkg/position"
	"github.com/walteh/pinels/pkg/semtok"
	"github.com/walteh/pinels/pkg/symbols"
)

/*
Test Organization:
----------------

	+----------------+
	|  Test Groups   |
	+----------------+
	       |
	+------+-------+
	|              |
	Mapping      Encoding
	|              |
	Builtins     Same line
	Locals       Line deltas
	Trivia       Multi-line split

Mapping checks which classified tokens are painted and how; encoding checks
the five-integer relative format.
*/

func analyze(t *testing.T, text string) *analysis.Document {
	t.Helper()
	cat, err := symbols.LoadDefault(context.Background())
	require.NoError(t, err)
	doc, err := analysis.Analyze(context.Background(), cat, text)
	require.NoError(t, err)
	return doc
}

func TestFromClassified(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []semtok.Token
	}{
		{
			name:  "namespace call",
			input: "x = ta.sma(close, 14)",
			expected: []semtok.Token{
				{Type: semtok.TokenOperator, Range: position.NewBasicPosition("=", 2)},
				{Type: semtok.TokenNamespace, Modifier: semtok.ModifierDefaultLibrary, Range: position.NewBasicPosition("ta", 4)},
				{Type: semtok.TokenFunction, Modifier: semtok.ModifierDefaultLibrary, Range: position.NewBasicPosition("sma", 7)},
				{Type: semtok.TokenVariable, Modifier: semtok.ModifierDefaultLibrary, Range: position.NewBasicPosition("close", 11)},
				{Type: semtok.TokenNumber, Range: position.NewBasicPosition("14", 18)},
			},
		},
		{
			name:  "annotation comment",
			input: "//@version=6",
			expected: []semtok.Token{
				{Type: semtok.TokenComment, Range: position.NewBasicPosition("//", 0)},
				{Type: semtok.TokenDecorator, Range: position.NewBasicPosition("@version", 2)},
				{Type: semtok.TokenComment, Range: position.NewBasicPosition("=6", 10)},
			},
		},
		{
			name:  "constant and colour",
			input: "c = color.red\nd = #ff0000",
			expected: []semtok.Token{
				{Type: semtok.TokenOperator, Range: position.NewBasicPosition("=", 2)},
				{Type: semtok.TokenNamespace, Modifier: semtok.ModifierDefaultLibrary, Range: position.NewBasicPosition("color", 4)},
				{Type: semtok.TokenVariable, Modifier: semtok.ModifierDefaultLibrary | semtok.ModifierReadonly, Range: position.NewBasicPosition("red", 10)},
				{Type: semtok.TokenOperator, Range: position.NewBasicPosition("=", 16)},
				{Type: semtok.TokenNumber, Range: position.NewBasicPosition("#ff0000", 18)},
			},
		},
		{
			name:  "user type declaration",
			input: "type P\n    int x",
			expected: []semtok.Token{
				{Type: semtok.TokenKeyword, Range: position.NewBasicPosition("type", 0)},
				{Type: semtok.TokenTypeName, Modifier: semtok.ModifierDeclaration, Range: position.NewBasicPosition("P", 5)},
				{Type: semtok.TokenTypeName, Modifier: semtok.ModifierDefaultLibrary, Range: position.NewBasicPosition("int", 11)},
				{Type: semtok.TokenProperty, Modifier: semtok.ModifierDeclaration, Range: position.NewBasicPosition("x", 15)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := semtok.FromClassified(analyze(t, tt.input))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestEncode(t *testing.T) {
	text := "a = 1\n  b = 2"
	m := position.NewMapper(text)
	tokens := []semtok.Token{
		{Type: semtok.TokenVariable, Range: position.NewBasicPosition("a", 0)},
		{Type: semtok.TokenOperator, Range: position.NewBasicPosition("=", 2)},
		{Type: semtok.TokenVariable, Modifier: semtok.ModifierDeclaration, Range: position.NewBasicPosition("b", 8)},
	}

	assert.Equal(t, []uint32{
		0, 0, 1, uint32(semtok.TokenVariable), 0,
		0, 2, 1, uint32(semtok.TokenOperator), 0,
		1, 2, 1, uint32(semtok.TokenVariable), uint32(semtok.ModifierDeclaration),
	}, semtok.Encode(tokens, m))
}

func TestEncodeSplitsMultilineTokens(t *testing.T) {
	text := "x /* one\ntwo */ y"
	m := position.NewMapper(text)
	tokens := []semtok.Token{
		{Type: semtok.TokenComment, Range: position.NewBasicPosition("/* one\ntwo */", 2)},
	}

	assert.Equal(t, []uint32{
		0, 2, 6, uint32(semtok.TokenComment), 0,
		1, 0, 6, uint32(semtok.TokenComment), 0,
	}, semtok.Encode(tokens, m))
}

func TestEncodeCountsUTF16(t *testing.T) {
	text := `s = "😀" + x`
	m := position.NewMapper(text)
	tokens := []semtok.Token{
		{Type: semtok.TokenString, Range: position.NewBasicPosition(`"😀"`, 4)},
		{Type: semtok.TokenOperator, Range: position.NewBasicPosition("+", 11)},
	}

	assert.Equal(t, []uint32{
		0, 4, 4, uint32(semtok.TokenString), 0,
		0, 5, 1, uint32(semtok.TokenOperator), 0,
	}, semtok.Encode(tokens, m))
}

func TestLegend(t *testing.T) {
	assert.Equal(t, "namespace", semtok.TokenNamespace.String())
	assert.Equal(t, "comment", semtok.TokenComment.String())
	assert.Len(t, semtok.TokenTypes, int(semtok.TokenComment)+1)
	assert.Equal(t, "readonly|defaultLibrary", (semtok.ModifierReadonly | semtok.ModifierDefaultLibrary).String())
}
