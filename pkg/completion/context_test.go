package completion_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/pinels/pkg/analysis"
	"github.com/walteh/pinels/pkg/completion"
	"github.com/walteh/pinels/pkg/symbols"
)

func analyze(t *testing.T, content string) *analysis.Document {
	t.Helper()
	cat, err := symbols.LoadDefault(context.Background())
	require.NoError(t, err)
	doc, err := analysis.Analyze(context.Background(), cat, content)
	require.NoError(t, err)
	return doc
}

// cursor splits content at the | marker.
func cursor(content string) (string, int) {
	i := strings.Index(content, "|")
	if i < 0 {
		return content, len(content)
	}
	return content[:i] + content[i+1:], i
}

func TestNewContext(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantKind  completion.PositionKind
		wantPre   string
		wantOwner string
	}{
		{
			name:     "empty document",
			content:  "|",
			wantKind: completion.TopLevel,
		},
		{
			name:     "partial word",
			content:  "x = clo|",
			wantKind: completion.TopLevel,
			wantPre:  "clo",
		},
		{
			name:     "cursor inside word",
			content:  "x = cl|ose",
			wantKind: completion.TopLevel,
			wantPre:  "cl",
		},
		{
			name:      "after dot",
			content:   "ta.|",
			wantKind:  completion.MemberAccess,
			wantOwner: "ta",
		},
		{
			name:      "after dot with prefix",
			content:   "x = strategy.commission.per|",
			wantKind:  completion.MemberAccess,
			wantPre:   "per",
			wantOwner: "strategy.commission",
		},
		{
			name:     "open paren of known call",
			content:  "plot(|",
			wantKind: completion.ParameterValue,
		},
		{
			name:     "after comma",
			content:  "plot(close, ti|",
			wantKind: completion.ParameterValue,
			wantPre:  "ti",
		},
		{
			name:     "unknown call",
			content:  "foo(|",
			wantKind: completion.TopLevel,
		},
		{
			name:     "annotation",
			content:  "//@ver|",
			wantKind: completion.AnnotationTag,
			wantPre:  "@ver",
		},
		{
			name:     "string literal",
			content:  `s = "ab|c"`,
			wantKind: completion.StringLiteral,
		},
		{
			name:     "comment",
			content:  "// some te|xt",
			wantKind: completion.Comment,
		},
		{
			name:     "end of line comment",
			content:  "x = 1 // note|",
			wantKind: completion.Comment,
		},
		{
			name:     "unterminated string degrades",
			content:  `s = "abc|`,
			wantKind: completion.TopLevel,
		},
		{
			name:     "unterminated block comment degrades",
			content:  "/* open|",
			wantKind: completion.TopLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, offset := cursor(tt.content)
			ctx := completion.NewContext(analyze(t, text), offset)
			assert.Equal(t, tt.wantKind, ctx.PositionKind, "got %s", ctx.PositionKind)
			assert.Equal(t, tt.wantPre, ctx.Prefix)
			assert.Equal(t, tt.wantOwner, ctx.EnclosingNamespacePrefix)
			assert.Equal(t, offset-len(tt.wantPre), ctx.PrefixStart)
		})
	}
}

func TestNewContextClampsOffsets(t *testing.T) {
	doc := analyze(t, "x = 1")

	assert.Equal(t, 0, completion.NewContext(doc, -10).CursorOffset)
	assert.Equal(t, 5, completion.NewContext(doc, 99).CursorOffset)
}

func TestNewContextNamedValue(t *testing.T) {
	text, offset := cursor("plot(close, display=|)")
	ctx := completion.NewContext(analyze(t, text), offset)

	assert.Equal(t, completion.ParameterValue, ctx.PositionKind)
	assert.True(t, ctx.NamedValue)
	require.NotNil(t, ctx.Call)
	assert.Equal(t, "display", ctx.Call.Current)
	assert.Equal(t, 1, ctx.Call.Arg)
}
