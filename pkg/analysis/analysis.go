// Package analysis runs the lexing and classification pipeline for one
// document and exposes the result as an immutable snapshot.
//
//	text ─► lexer.Tokenize ─► version ─► classify.Collect ─► classify.Classify ─► Document
//
// Every editor feature (completion, hover, signature help, inlay hints,
// diagnostics, semantic tokens) reads a Document and nothing else.
package analysis

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/pinels/pkg/classify"
	"github.com/walteh/pinels/pkg/lexer"
	"github.com/walteh/pinels/pkg/symbols"
)

// VersionDirective describes the //@version=N comment of a script.
type VersionDirective struct {
	// Declared is false when the script has no directive.
	Declared bool
	// Raw is the number written in the directive.
	Raw int
	// Start and End cover the annotation and its value.
	Start int
	End   int
}

// Document is the analysed state of one text. It is never mutated.
type Document struct {
	Text       string
	Tokens     []lexer.Token
	Classified []classify.Token
	Decls      *classify.Declarations
	Table      *symbols.Table
	Version    symbols.Version
	Directive  VersionDirective
}

// Analyze tokenizes and classifies text against the catalog table selected by
// the script's version directive. Scripts without a directive use the latest
// version. The context is checked between passes so a superseded request can
// be abandoned.
func Analyze(ctx context.Context, cat *symbols.Catalog, text string) (*Document, error) {
	return AnalyzeWith(ctx, cat, text, symbols.Latest)
}

// AnalyzeWith is Analyze with the version used for scripts that declare none
// or declare an unsupported one.
func AnalyzeWith(ctx context.Context, cat *symbols.Catalog, text string, fallback symbols.Version) (*Document, error) {
	if cat == nil {
		return nil, errors.New("analysis needs a symbol catalog")
	}

	tokens := lexer.Tokenize(text)
	if err := ctx.Err(); err != nil {
		return nil, errors.Errorf("after lexing: %w", err)
	}

	dir := DetectVersion(tokens)
	version := fallback
	if !version.Supported() {
		version = symbols.Latest
	}
	if dir.Declared && symbols.Version(dir.Raw).Supported() {
		version = symbols.Version(dir.Raw)
	}
	table := cat.Table(version)

	decls := classify.Collect(tokens)
	if err := ctx.Err(); err != nil {
		return nil, errors.Errorf("after collecting declarations: %w", err)
	}

	classified := classify.Classify(tokens, table, decls)
	if err := ctx.Err(); err != nil {
		return nil, errors.Errorf("after classifying: %w", err)
	}

	zerolog.Ctx(ctx).Trace().
		Int("tokens", len(tokens)).
		Int("declarations", len(decls.All())).
		Stringer("version", version).
		Msg("analysed document")

	return &Document{
		Text:       text,
		Tokens:     tokens,
		Classified: classified,
		Decls:      decls,
		Table:      table,
		Version:    version,
		Directive:  dir,
	}, nil
}

// DetectVersion finds the first //@version=N directive.
func DetectVersion(tokens []lexer.Token) VersionDirective {
	for i, t := range tokens {
		if t.Kind != lexer.Annotation || t.Text != "@version" {
			continue
		}
		if i+1 >= len(tokens) || tokens[i+1].Kind != lexer.Comment {
			continue
		}
		value := strings.TrimSpace(tokens[i+1].Text)
		if !strings.HasPrefix(value, "=") {
			continue
		}
		value = strings.TrimSpace(strings.TrimPrefix(value, "="))
		end := 0
		for end < len(value) && value[end] >= '0' && value[end] <= '9' {
			end++
		}
		n, err := strconv.Atoi(value[:end])
		if err != nil {
			continue
		}
		return VersionDirective{Declared: true, Raw: n, Start: t.Start, End: tokens[i+1].End}
	}
	return VersionDirective{}
}

// Clamp limits offset to the bounds of the text.
func (d *Document) Clamp(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(d.Text) {
		return len(d.Text)
	}
	return offset
}

// IndexAt returns the index of the token containing offset. At a boundary
// the token starting there wins. The final offset maps to EndOfInput.
func (d *Document) IndexAt(offset int) int {
	offset = d.Clamp(offset)
	lo, hi := 0, len(d.Tokens)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if d.Tokens[mid].End <= offset {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// PrevSignificant returns the index of the closest token before i that is
// not whitespace, comment or annotation, or -1.
func (d *Document) PrevSignificant(i int) int {
	for j := i - 1; j >= 0; j-- {
		if !d.Tokens[j].Kind.Trivia() && d.Tokens[j].Kind != lexer.EndOfInput {
			return j
		}
	}
	return -1
}

// NextSignificant returns the index of the closest significant token after i
// or -1.
func (d *Document) NextSignificant(i int) int {
	for j := i + 1; j < len(d.Tokens); j++ {
		if !d.Tokens[j].Kind.Trivia() && d.Tokens[j].Kind != lexer.EndOfInput {
			return j
		}
	}
	return -1
}

// Resolvable returns the classified token touching offset that carries a
// meaning worth describing, preferring the token ending at the offset when the
// cursor sits right after a word.
func (d *Document) Resolvable(offset int) (classify.Token, bool) {
	i := d.IndexAt(offset)
	for _, j := range []int{i, i - 1} {
		if j < 0 || j >= len(d.Classified) {
			continue
		}
		t := d.Classified[j]
		if t.Start <= offset && offset <= t.End && t.Kind != lexer.Whitespace && t.Kind != lexer.EndOfInput && t.Kind != lexer.Comment {
			return t, true
		}
	}
	return classify.Token{}, false
}
