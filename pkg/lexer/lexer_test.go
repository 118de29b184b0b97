package lexer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/pinels/pkg/diff"
	"github.com/walteh/pinels/pkg/lexer"
)

type tok struct {
	kind lexer.Kind
	text string
}

// significant drops whitespace and the trailing EndOfInput token.
func significant(tokens []lexer.Token) []tok {
	var out []tok
	for _, t := range tokens {
		if t.Kind == lexer.Whitespace || t.Kind == lexer.EndOfInput {
			continue
		}
		out = append(out, tok{t.Kind, t.Text})
	}
	return out
}

func requireContiguous(t *testing.T, src string, tokens []lexer.Token) {
	t.Helper()
	require.NotEmpty(t, tokens)
	var sb strings.Builder
	prev := 0
	for _, tk := range tokens {
		require.Equal(t, prev, tk.Start, "gap or overlap before %s", tk)
		require.Equal(t, src[tk.Start:tk.End], tk.Text)
		sb.WriteString(tk.Text)
		prev = tk.End
	}
	last := tokens[len(tokens)-1]
	assert.Equal(t, lexer.EndOfInput, last.Kind)
	assert.Equal(t, len(src), last.Start)
	assert.Equal(t, src, sb.String())
}

func TestTokenizeContiguity(t *testing.T) {
	inputs := []string{
		"",
		"//@version=6\nindicator(\"My Script\", overlay=true)\nplot(ta.sma(close, 14))\n",
		"s = \"a\\\"b\" // trailing\n",
		"x := 'unterminated\ny = 2",
		"/* block\n comment */ a=1",
		"/* never closed",
		"c = #ff0000\nd = #12345\ne = #\n",
		"n = 1.5e-5 + .5 - 3x\n",
		"ñame = 1 € 2",
		"a\r\nb\tc",
		"\"\\",
		"@",
		"// @param x the value\n",
	}
	for _, src := range inputs {
		t.Run(src, func(t *testing.T) {
			requireContiguous(t, src, lexer.Tokenize(src))
		})
	}
}

func TestTokenizeEscapedQuote(t *testing.T) {
	src := `s = "a\"b"`
	got := significant(lexer.Tokenize(src))
	require.Equal(t, []tok{
		{lexer.Identifier, "s"},
		{lexer.Operator, "="},
		{lexer.StringLiteral, `"a\"b"`},
	}, got)
}

func TestTokenizeStrings(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		want         string
		unterminated bool
	}{
		{name: "double quoted", input: `"abc" x`, want: `"abc"`},
		{name: "single quoted", input: `'it"s' x`, want: `'it"s'`},
		{name: "escaped backslash before quote", input: `"a\\" b`, want: `"a\\"`},
		{name: "single quote escaped", input: `'don\'t'`, want: `'don\'t'`},
		{name: "stops at line break", input: "\"abc\nnext", want: `"abc`, unterminated: true},
		{name: "backslash does not eat line break", input: "\"abc\\\nnext", want: "\"abc\\", unterminated: true},
		{name: "end of input", input: `"abc`, want: `"abc`, unterminated: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := lexer.Tokenize(tt.input)
			requireContiguous(t, tt.input, tokens)
			require.Equal(t, lexer.StringLiteral, tokens[0].Kind)
			assert.Equal(t, tt.want, tokens[0].Text)
			assert.Equal(t, tt.unterminated, tokens[0].Flags.Has(lexer.Unterminated))
		})
	}
}

func TestTokenizeOperators(t *testing.T) {
	tests := []struct {
		input string
		want  []tok
	}{
		{"x := 1", []tok{{lexer.Identifier, "x"}, {lexer.Operator, ":="}, {lexer.NumberLiteral, "1"}}},
		{"a=>b", []tok{{lexer.Identifier, "a"}, {lexer.Operator, "=>"}, {lexer.Identifier, "b"}}},
		{"a==b!=c", []tok{{lexer.Identifier, "a"}, {lexer.Operator, "=="}, {lexer.Identifier, "b"}, {lexer.Operator, "!="}, {lexer.Identifier, "c"}}},
		{"a<=b>=c", []tok{{lexer.Identifier, "a"}, {lexer.Operator, "<="}, {lexer.Identifier, "b"}, {lexer.Operator, ">="}, {lexer.Identifier, "c"}}},
		{"c ? a : b", []tok{{lexer.Identifier, "c"}, {lexer.Operator, "?"}, {lexer.Identifier, "a"}, {lexer.Operator, ":"}, {lexer.Identifier, "b"}}},
		{"i += 1", []tok{{lexer.Identifier, "i"}, {lexer.Operator, "+="}, {lexer.NumberLiteral, "1"}}},
		{"f(a, b)[0];", []tok{
			{lexer.Identifier, "f"}, {lexer.Punctuation, "("}, {lexer.Identifier, "a"}, {lexer.Punctuation, ","},
			{lexer.Identifier, "b"}, {lexer.Punctuation, ")"}, {lexer.Punctuation, "["}, {lexer.NumberLiteral, "0"},
			{lexer.Punctuation, "]"}, {lexer.Punctuation, ";"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, significant(lexer.Tokenize(tt.input)))
		})
	}
}

func TestTokenizeOffsets(t *testing.T) {
	diff.RequireEqual(t, []lexer.Token{
		{Kind: lexer.Identifier, Start: 0, End: 1, Text: "x"},
		{Kind: lexer.Whitespace, Start: 1, End: 2, Text: " "},
		{Kind: lexer.Operator, Start: 2, End: 4, Text: ":="},
		{Kind: lexer.Whitespace, Start: 4, End: 5, Text: " "},
		{Kind: lexer.StringLiteral, Start: 5, End: 8, Text: "\"ab", Flags: lexer.Unterminated},
		{Kind: lexer.EndOfInput, Start: 8, End: 8},
	}, lexer.Tokenize("x := \"ab"))
}

func TestTokenizeNamespaceAccess(t *testing.T) {
	got := significant(lexer.Tokenize("ta.sma"))
	assert.Equal(t, []tok{{lexer.Identifier, "ta"}, {lexer.Punctuation, "."}, {lexer.Identifier, "sma"}}, got)
}

func TestTokenizeNumbers(t *testing.T) {
	tests := []struct {
		input     string
		want      []tok
		malformed bool
	}{
		{input: "42", want: []tok{{lexer.NumberLiteral, "42"}}},
		{input: "3.14", want: []tok{{lexer.NumberLiteral, "3.14"}}},
		{input: "1e-5", want: []tok{{lexer.NumberLiteral, "1e-5"}}},
		{input: "2.5E+10", want: []tok{{lexer.NumberLiteral, "2.5E+10"}}},
		{input: ".5", want: []tok{{lexer.NumberLiteral, ".5"}}},
		{input: "1.", want: []tok{{lexer.NumberLiteral, "1"}, {lexer.Punctuation, "."}}},
		{input: "3x", want: []tok{{lexer.NumberLiteral, "3"}, {lexer.Identifier, "x"}}, malformed: true},
		{input: "1e", want: []tok{{lexer.NumberLiteral, "1"}, {lexer.Identifier, "e"}}, malformed: true},
		{input: "a.b", want: []tok{{lexer.Identifier, "a"}, {lexer.Punctuation, "."}, {lexer.Identifier, "b"}}},
		{input: "x[1].5", want: []tok{
			{lexer.Identifier, "x"}, {lexer.Punctuation, "["}, {lexer.NumberLiteral, "1"},
			{lexer.Punctuation, "]"}, {lexer.Punctuation, "."}, {lexer.NumberLiteral, "5"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := lexer.Tokenize(tt.input)
			assert.Equal(t, tt.want, significant(tokens))
			assert.Equal(t, tt.malformed, tokens[0].Flags.Has(lexer.Malformed))
		})
	}
}

func TestTokenizeComments(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []tok
	}{
		{
			name:  "line comment",
			input: "a // note\nb",
			want:  []tok{{lexer.Identifier, "a"}, {lexer.Comment, "// note"}, {lexer.Identifier, "b"}},
		},
		{
			name:  "version annotation",
			input: "//@version=6\n",
			want:  []tok{{lexer.Comment, "//"}, {lexer.Annotation, "@version"}, {lexer.Comment, "=6"}},
		},
		{
			name:  "annotation after blanks",
			input: "// @param length bars back",
			want:  []tok{{lexer.Comment, "// "}, {lexer.Annotation, "@param"}, {lexer.Comment, " length bars back"}},
		},
		{
			name:  "bare marker",
			input: "//@",
			want:  []tok{{lexer.Comment, "//"}, {lexer.Annotation, "@"}},
		},
		{
			name:  "at sign later in comment is text",
			input: "// mail me@home",
			want:  []tok{{lexer.Comment, "// mail me@home"}},
		},
		{
			name:  "block comment",
			input: "/* a\nb */x",
			want:  []tok{{lexer.Comment, "/* a\nb */"}, {lexer.Identifier, "x"}},
		},
		{
			name:  "string hides comment marker",
			input: `"http://x"`,
			want:  []tok{{lexer.StringLiteral, `"http://x"`}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, significant(lexer.Tokenize(tt.input)))
		})
	}
}

func TestTokenizeUnterminatedBlockComment(t *testing.T) {
	tokens := lexer.Tokenize("x /* open\nstill")
	require.Len(t, tokens, 4)
	assert.Equal(t, lexer.Comment, tokens[2].Kind)
	assert.True(t, tokens[2].Flags.Has(lexer.Unterminated))
}

func TestTokenizeColorsAndUnknown(t *testing.T) {
	tests := []struct {
		input     string
		first     tok
		malformed bool
	}{
		{input: "#ff00aa", first: tok{lexer.ColorLiteral, "#ff00aa"}},
		{input: "#FF00AA80", first: tok{lexer.ColorLiteral, "#FF00AA80"}},
		{input: "#12345", first: tok{lexer.Punctuation, "#"}, malformed: true},
		{input: "#ff00aaz", first: tok{lexer.Punctuation, "#"}, malformed: true},
		{input: "€", first: tok{lexer.Punctuation, "€"}, malformed: true},
		{input: "`", first: tok{lexer.Punctuation, "`"}, malformed: true},
		{input: "ñame", first: tok{lexer.Identifier, "ñame"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := lexer.Tokenize(tt.input)
			requireContiguous(t, tt.input, tokens)
			assert.Equal(t, tt.first, tok{tokens[0].Kind, tokens[0].Text})
			assert.Equal(t, tt.malformed, tokens[0].Flags.Has(lexer.Malformed))
		})
	}
}

func TestTokenizeWhitespaceRuns(t *testing.T) {
	tokens := lexer.Tokenize("a \t\n  b")
	require.Len(t, tokens, 4)
	assert.Equal(t, lexer.Whitespace, tokens[1].Kind)
	assert.Equal(t, " \t\n  ", tokens[1].Text)
}

func TestTokenizeIdempotent(t *testing.T) {
	src := "//@version=5\ntype P\n    float x = 1.0\np = P.new()\nplot(p.x, color=#00ff00)\n"
	assert.Equal(t, lexer.Tokenize(src), lexer.Tokenize(src))
}
