package completion_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/pinels/pkg/analysis"
	"github.com/walteh/pinels/pkg/completion"
	"github.com/walteh/pinels/pkg/lexer"
	"github.com/walteh/pinels/pkg/symbols"
)

func labels(cands []completion.Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.DisplayText
	}
	return out
}

func resolve(t *testing.T, content string) []completion.Candidate {
	t.Helper()
	text, offset := cursor(content)
	return completion.Resolve(analyze(t, text), offset)
}

func TestNamespaceCompletion(t *testing.T) {
	cands := resolve(t, "ta.|")
	require.NotEmpty(t, cands)

	for _, c := range cands {
		assert.True(t, strings.HasPrefix(c.QualifiedName, "ta."), "%s is outside ta", c.QualifiedName)
		assert.NotEqual(t, completion.SourceKeyword, c.Source)
	}
	got := labels(cands)
	assert.Contains(t, got, "sma")
	assert.Contains(t, got, "ema")
	assert.Contains(t, got, "rsi")
	assert.Equal(t, "sma", got[0], "catalog order is kept")

	sma := cands[0]
	assert.Equal(t, lexer.Function, sma.Kind)
	assert.Contains(t, sma.Detail, "ta.sma(source:")
	assert.NotEmpty(t, sma.Documentation)
}

func TestMemberPrefixFilter(t *testing.T) {
	got := labels(resolve(t, "x = ta.rs|"))
	assert.Equal(t, []string{"rsi"}, got)

	assert.Empty(t, resolve(t, "x = ta.RS|"), "prefix matching is case-sensitive")
	assert.Empty(t, resolve(t, "x = nosuch.|"))
}

func TestVersionGating(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{name: "version 5", content: "//@version=5\nm = matrix|", want: false},
		{name: "version 6", content: "//@version=6\nm = matrix|", want: true},
		{name: "no directive defaults to latest", content: "m = matrix|", want: true},
		{name: "unsupported directive uses latest", content: "//@version=4\nm = matrix|", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contains(resolve(t, tt.content), "matrix"))
		})
	}

	v6 := labels(resolve(t, "//@version=6\nm = matrix.|"))
	assert.Contains(t, v6, "new")
	assert.Empty(t, resolve(t, "//@version=5\nm = matrix.|"))
}

func contains(cands []completion.Candidate, label string) bool {
	for _, c := range cands {
		if c.DisplayText == label {
			return true
		}
	}
	return false
}

func TestAnnotationCompletion(t *testing.T) {
	all := resolve(t, "//@|")
	require.NotEmpty(t, all)
	for _, c := range all {
		assert.True(t, strings.HasPrefix(c.DisplayText, "@"))
		assert.Equal(t, lexer.Annotation, c.Kind)
	}
	assert.Contains(t, labels(all), "@description")

	assert.Equal(t, []string{"@version"}, labels(resolve(t, "//@ver|")))
	assert.Equal(t, []string{"@param"}, labels(resolve(t, "//@function f\n//@pa|")))
}

func TestParameterCompletion(t *testing.T) {
	got := labels(resolve(t, "plot(close, |)"))
	assert.Contains(t, got, "title=")
	assert.Contains(t, got, "color=")
	for _, l := range got {
		assert.True(t, strings.HasSuffix(l, "="), "%s is not a named argument", l)
	}

	got = labels(resolve(t, `plot(close, title="c", |)`))
	assert.NotContains(t, got, "title=")
	assert.Contains(t, got, "linewidth=")

	got = labels(resolve(t, "plot(close, display=|)"))
	require.NotEmpty(t, got)
	for _, l := range got {
		assert.True(t, strings.HasPrefix(l, "display."), "%s is not a display constant", l)
	}

	got = labels(resolve(t, `indicator("x", overlay=|)`))
	assert.Equal(t, []string{"true", "false"}, got)
}

func TestParameterCompletionForUserEnum(t *testing.T) {
	src := `enum Mode
    fast
    slow

run(Mode m, int n = 1) => n

run(|)
`
	got := labels(resolve(t, src))
	assert.Equal(t, []string{"m=", "n=", "Mode.fast", "Mode.slow"}, got)
}

func TestNoCandidatesInStringsAndComments(t *testing.T) {
	assert.Empty(t, resolve(t, `s = "ab|c"`))
	assert.Empty(t, resolve(t, "// t|ext"))
	assert.NotEmpty(t, resolve(t, `s = "abc|`))
}

func TestOffsetsAreClamped(t *testing.T) {
	text := "x = ta.sma(close, 14)"
	doc := analyze(t, text)

	assert.NotPanics(t, func() {
		assert.Equal(t, completion.Resolve(doc, 0), completion.Resolve(doc, -3))
		assert.Equal(t, completion.Resolve(doc, len(text)), completion.Resolve(doc, len(text)+50))
	})
}

func TestLocalDeclarations(t *testing.T) {
	src := `//@type A pair.
type Pair
    float a
    int b

enum Side
    buy
    sell

method total(Pair p) => p.a + p.b

p = Pair.new()
`
	t.Run("top level ranks locals first, alphabetically", func(t *testing.T) {
		cands := resolve(t, src+"x = |")
		require.Greater(t, len(cands), 4)
		assert.Equal(t, []string{"Pair", "Side", "p", "total"}, labels(cands[:4]))
		for _, c := range cands[:4] {
			assert.Equal(t, completion.SourceLocal, c.Source)
		}
		assert.Equal(t, completion.SourceKeyword, cands[len(cands)-1].Source)
	})

	t.Run("fields and methods of a typed variable", func(t *testing.T) {
		got := labels(resolve(t, src+"x = p.|"))
		assert.Equal(t, []string{"a", "b", "total"}, got)
	})

	t.Run("type constructors", func(t *testing.T) {
		cands := resolve(t, src+"x = Pair.|")
		assert.Equal(t, []string{"new", "copy"}, labels(cands))
		assert.Equal(t, "Pair.new(a: float, b: int) → Pair", cands[0].Detail)
		assert.Equal(t, "A pair.", cands[0].Documentation)
	})

	t.Run("enum members", func(t *testing.T) {
		assert.Equal(t, []string{"buy", "sell"}, labels(resolve(t, src+"x = Side.|")))
	})
}

func TestParametersInBody(t *testing.T) {
	pair := "type Pair\n    float a\n    int b\n\n"

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "method block body",
			text: pair + "method total(Pair p) =>\n    p.|",
			want: []string{"a", "b", "total"},
		},
		{
			name: "method single line body",
			text: pair + "method total(Pair this) => this.|",
			want: []string{"a", "b", "total"},
		},
		{
			name: "function block body after other statements",
			text: pair + "sum(Pair q) =>\n    s = 0.0\n    q.|",
			want: []string{"a", "b"},
		},
		{
			name: "parameter out of scope",
			text: pair + "sum(Pair q) => q.a\nx = q.|",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := labels(resolve(t, tt.text))
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuiltinMethodsOnTypedVariables(t *testing.T) {
	got := labels(resolve(t, "var a = array.new_float()\na.pu|"))
	assert.Equal(t, []string{"push"}, got)
}

func TestLocalWinsOverBuiltin(t *testing.T) {
	cands := resolve(t, "nz(x) => x\ny = n|")
	require.NotEmpty(t, cands)

	assert.Equal(t, "nz", cands[0].DisplayText)
	assert.Equal(t, completion.SourceLocal, cands[0].Source)
	count := 0
	for _, c := range cands {
		if c.DisplayText == "nz" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestRankingIsStable(t *testing.T) {
	text, offset := cursor("type Z\n    int a\nx = |")
	doc := analyze(t, text)

	first := completion.Resolve(doc, offset)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, completion.Resolve(doc, offset))
	}
	for i := 1; i < len(first); i++ {
		assert.Less(t, first[i-1].SortText, first[i].SortText)
	}
}

func TestOptions(t *testing.T) {
	text, offset := cursor("x = |")
	doc := analyze(t, text)

	noKeywords := completion.ResolveWith(doc, offset, completion.Options{})
	for _, c := range noKeywords {
		assert.NotEqual(t, completion.SourceKeyword, c.Source)
	}

	limited := completion.ResolveWith(doc, offset, completion.Options{Keywords: true, Limit: 3})
	assert.Len(t, limited, 3)
}

func TestResolveWithFixtureCatalog(t *testing.T) {
	cat, err := symbols.Load(context.Background(), strings.NewReader(`
keywords:
  - { name: if }
namespaces:
  - name: demo
    functions:
      - { sig: 'b() -> int' }
      - { sig: 'a() -> int' }
`))
	require.NoError(t, err)
	doc, err := analysis.Analyze(context.Background(), cat, "demo.")
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a"}, labels(completion.Resolve(doc, 5)), "catalog order, not alphabetical")
}
