package diagnostic_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/pinels/pkg/analysis"
	"github.com/walteh/pinels/pkg/diagnostic"
	"github.com/walteh/pinels/pkg/position"
	"github.com/walteh/pinels/pkg/symbols"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     []*diagnostic.Diagnostic
	}{
		{
			name:     "clean script",
			template: "//@version=6\nx = ta.sma(close, 14)",
			want:     nil,
		},
		{
			name:     "missing version",
			template: "x = 1",
			want: []*diagnostic.Diagnostic{
				{
					Message:  "missing //@version directive, assuming v6",
					Code:     diagnostic.CodeMissingVersion,
					Location: position.NewBasicPosition("", 0),
					Severity: diagnostic.SeverityInformation,
				},
			},
		},
		{
			name:     "unsupported version",
			template: "//@version=4\nx = 1",
			want: []*diagnostic.Diagnostic{
				{
					Message:  "unsupported PineScript version 4, using v6",
					Code:     diagnostic.CodeUnsupportedVersion,
					Location: position.NewBasicPosition("@version=4", 2),
					Severity: diagnostic.SeverityWarning,
				},
			},
		},
		{
			name:     "unterminated string",
			template: "//@version=6\ns = \"abc\nx = 1",
			want: []*diagnostic.Diagnostic{
				{
					Message:  "unterminated string literal",
					Code:     diagnostic.CodeUnterminatedString,
					Location: position.NewBasicPosition(`"abc`, 17),
					Severity: diagnostic.SeverityError,
				},
			},
		},
		{
			name:     "unterminated block comment",
			template: "//@version=6\n/* open",
			want: []*diagnostic.Diagnostic{
				{
					Message:  "unterminated block comment",
					Code:     diagnostic.CodeUnterminatedComment,
					Location: position.NewBasicPosition("/* open", 13),
					Severity: diagnostic.SeverityError,
				},
			},
		},
		{
			name:     "malformed number",
			template: "//@version=6\nx = 12ab",
			want: []*diagnostic.Diagnostic{
				{
					Message:  "malformed number 12ab",
					Code:     diagnostic.CodeMalformedNumber,
					Location: position.NewBasicPosition("12", 17),
					Severity: diagnostic.SeverityError,
				},
			},
		},
		{
			name:     "invalid colour",
			template: "//@version=6\nc = #12zz",
			want: []*diagnostic.Diagnostic{
				{
					Message:  "invalid colour literal #12zz: expected 6 or 8 hex digits",
					Code:     diagnostic.CodeInvalidColor,
					Location: position.NewBasicPosition("#12zz", 17),
					Severity: diagnostic.SeverityError,
				},
			},
		},
		{
			name:     "unexpected character",
			template: "//@version=6\nx = 1 € 2",
			want: []*diagnostic.Diagnostic{
				{
					Message:  `unexpected character "€"`,
					Code:     diagnostic.CodeUnexpectedCharacter,
					Location: position.NewBasicPosition("€", 19),
					Severity: diagnostic.SeverityError,
				},
			},
		},
		{
			name:     "name from a later version",
			template: "//@version=5\nm = matrix.new<float>()\nt = syminfo.main_tickerid",
			want: []*diagnostic.Diagnostic{
				{
					Message:  "matrix is not available in PineScript v5 (added in v6)",
					Code:     diagnostic.CodeVersionUnavailable,
					Location: position.NewBasicPosition("matrix", 17),
					Severity: diagnostic.SeverityWarning,
				},
				{
					Message:  "syminfo.main_tickerid is not available in PineScript v5 (added in v6)",
					Code:     diagnostic.CodeVersionUnavailable,
					Location: position.NewBasicPosition("main_tickerid", 49),
					Severity: diagnostic.SeverityWarning,
				},
			},
		},
		{
			name:     "member written after a spaced dot",
			template: "//@version=5\nt = syminfo . main_tickerid",
			want: []*diagnostic.Diagnostic{
				{
					Message:  "syminfo.main_tickerid is not available in PineScript v5 (added in v6)",
					Code:     diagnostic.CodeVersionUnavailable,
					Location: position.NewBasicPosition("main_tickerid", 27),
					Severity: diagnostic.SeverityWarning,
				},
			},
		},
		{
			name:     "member split from its owner by a comment",
			template: "//@version=5\nt = syminfo./* note */main_tickerid",
			want: []*diagnostic.Diagnostic{
				{
					Message:  "syminfo.main_tickerid is not available in PineScript v5 (added in v6)",
					Code:     diagnostic.CodeVersionUnavailable,
					Location: position.NewBasicPosition("main_tickerid", 35),
					Severity: diagnostic.SeverityWarning,
				},
			},
		},
		{
			name:     "user declarations shadow later names",
			template: "//@version=5\nmatrix = 1\nx = matrix",
			want:     nil,
		},
	}

	cat, err := symbols.LoadDefault(context.Background())
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			doc, err := analysis.Analyze(ctx, cat, tt.template)
			require.NoError(t, err)

			got := diagnostic.Collect(ctx, cat, doc)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateOptions(t *testing.T) {
	ctx := context.Background()
	cat, err := symbols.LoadDefault(ctx)
	require.NoError(t, err)
	doc, err := analysis.Analyze(ctx, cat, "x = 12ab")
	require.NoError(t, err)

	t.Run("missing version off", func(t *testing.T) {
		got := diagnostic.NewGenerator(cat, diagnostic.Options{}).Generate(ctx, doc)
		require.Len(t, got, 1)
		assert.Equal(t, diagnostic.CodeMalformedNumber, got[0].Code)
	})

	t.Run("disabled code", func(t *testing.T) {
		opts := diagnostic.DefaultOptions()
		opts.Disabled = []string{diagnostic.CodeMalformedNumber}
		got := diagnostic.NewGenerator(cat, opts).Generate(ctx, doc)
		require.Len(t, got, 1)
		assert.Equal(t, diagnostic.CodeMissingVersion, got[0].Code)
	})

	t.Run("without catalog", func(t *testing.T) {
		v5, err := analysis.Analyze(ctx, cat, "//@version=5\nm = matrix.new<int>()")
		require.NoError(t, err)
		assert.Empty(t, diagnostic.NewGenerator(nil, diagnostic.DefaultOptions()).Generate(ctx, v5))
	})
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "error", diagnostic.SeverityError.String())
	assert.Equal(t, "info", diagnostic.SeverityInformation.String())
	assert.Equal(t, "unknown", diagnostic.Severity(9).String())
}
