// Package diagnostic reports problems found in an analysed PineScript
// document. Diagnostics are advisory: malformed input never makes Generate
// fail.
package diagnostic

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/walteh/pinels/pkg/analysis"
	"github.com/walteh/pinels/pkg/classify"
	"github.com/walteh/pinels/pkg/lexer"
	"github.com/walteh/pinels/pkg/position"
	"github.com/walteh/pinels/pkg/symbols"
)

// Severity uses the LSP numbering.
type Severity int

const (
	SeverityError       Severity = 1
	SeverityWarning     Severity = 2
	SeverityInformation Severity = 3
	SeverityHint        Severity = 4
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

const (
	CodeUnterminatedString  = "unterminated-string"
	CodeUnterminatedComment = "unterminated-comment"
	CodeUnexpectedCharacter = "unexpected-character"
	CodeMalformedNumber     = "malformed-number"
	CodeInvalidColor        = "invalid-color"
	CodeMissingVersion      = "missing-version"
	CodeUnsupportedVersion  = "unsupported-version"
	CodeVersionUnavailable  = "version-unavailable"
)

// Diagnostic represents a single diagnostic message
type Diagnostic struct {
	Message  string
	Code     string
	Location position.RawPosition
	Severity Severity
}

// Options select which diagnostics are reported.
type Options struct {
	// MissingVersion reports scripts without a //@version directive.
	MissingVersion bool
	// Disabled lists codes that are never reported.
	Disabled []string
}

func DefaultOptions() Options {
	return Options{MissingVersion: true}
}

// Generator produces diagnostics for documents analysed against one catalog.
type Generator struct {
	catalog *symbols.Catalog
	opts    Options
}

func NewGenerator(cat *symbols.Catalog, opts Options) *Generator {
	return &Generator{catalog: cat, opts: opts}
}

// Collect runs a generator with the default options.
func Collect(ctx context.Context, cat *symbols.Catalog, doc *analysis.Document) []*Diagnostic {
	return NewGenerator(cat, DefaultOptions()).Generate(ctx, doc)
}

// Generate returns the diagnostics of doc ordered by offset.
func (g *Generator) Generate(ctx context.Context, doc *analysis.Document) []*Diagnostic {
	var out []*Diagnostic
	add := func(d *Diagnostic) {
		if d != nil && !slices.Contains(g.opts.Disabled, d.Code) {
			out = append(out, d)
		}
	}

	add(g.version(doc))
	for i, t := range doc.Tokens {
		add(lexical(doc, i, t))
	}
	if g.catalog != nil {
		for i, t := range doc.Classified {
			add(g.availability(doc, i, t))
		}
	}

	slices.SortStableFunc(out, func(a, b *Diagnostic) int {
		return a.Location.Offset - b.Location.Offset
	})

	zerolog.Ctx(ctx).Debug().Int("count", len(out)).Msg("generated diagnostics")
	return out
}

func (g *Generator) version(doc *analysis.Document) *Diagnostic {
	dir := doc.Directive
	switch {
	case !dir.Declared:
		if !g.opts.MissingVersion {
			return nil
		}
		return &Diagnostic{
			Message:  fmt.Sprintf("missing //@version directive, assuming v%d", doc.Version),
			Code:     CodeMissingVersion,
			Location: position.NewBasicPosition("", 0),
			Severity: SeverityInformation,
		}
	case !symbols.Version(dir.Raw).Supported():
		return &Diagnostic{
			Message:  fmt.Sprintf("unsupported PineScript version %d, using v%d", dir.Raw, doc.Version),
			Code:     CodeUnsupportedVersion,
			Location: position.NewBasicPosition(doc.Text[dir.Start:dir.End], dir.Start),
			Severity: SeverityWarning,
		}
	}
	return nil
}

func lexical(doc *analysis.Document, i int, t lexer.Token) *Diagnostic {
	switch {
	case t.Flags.Has(lexer.Unterminated) && t.Kind == lexer.StringLiteral:
		return errorAt(t, CodeUnterminatedString, "unterminated string literal")
	case t.Flags.Has(lexer.Unterminated) && t.Kind == lexer.Comment:
		return errorAt(t, CodeUnterminatedComment, "unterminated block comment")
	case !t.Flags.Has(lexer.Malformed):
		return nil
	case t.Kind == lexer.NumberLiteral:
		if i > 0 && doc.Tokens[i-1].Text == "#" && doc.Tokens[i-1].End == t.Start {
			// already part of an invalid colour literal
			return nil
		}
		return errorAt(t, CodeMalformedNumber, fmt.Sprintf("malformed number %s", glued(doc, i).Text))
	case t.Text == "#":
		lit := glued(doc, i)
		return &Diagnostic{
			Message:  fmt.Sprintf("invalid colour literal %s: expected 6 or 8 hex digits", lit.Text),
			Code:     CodeInvalidColor,
			Location: lit,
			Severity: SeverityError,
		}
	default:
		return errorAt(t, CodeUnexpectedCharacter, "unexpected character "+strconv.Quote(t.Text))
	}
}

// glued extends token i with the identifier or number written right after
// it, so "12ab" or "#12zz" is reported as one word.
func glued(doc *analysis.Document, i int) position.RawPosition {
	t := doc.Tokens[i]
	end := t.End
	for j := i + 1; j < len(doc.Tokens); j++ {
		n := doc.Tokens[j]
		if n.Start != end || (n.Kind != lexer.Identifier && n.Kind != lexer.NumberLiteral) {
			break
		}
		end = n.End
	}
	return position.NewBasicPosition(doc.Text[t.Start:end], t.Start)
}

func errorAt(t lexer.Token, code, msg string) *Diagnostic {
	return &Diagnostic{
		Message:  msg,
		Code:     code,
		Location: position.NewBasicPosition(t.Text, t.Start),
		Severity: SeverityError,
	}
}

// availability flags names the active table does not know but a later
// version does.
func (g *Generator) availability(doc *analysis.Document, i int, t classify.Token) *Diagnostic {
	if t.Kind != lexer.Identifier {
		return nil
	}
	path := t.Text
	if dot := doc.PrevSignificant(i); dot >= 0 && doc.Tokens[dot].Is(lexer.Punctuation, ".") {
		o := doc.PrevSignificant(dot)
		if o < 0 || doc.Classified[o].Kind != lexer.Namespace {
			return nil
		}
		path = doc.Classified[o].Path + "." + t.Text
	} else if doc.Decls != nil && declared(doc, t.Text) {
		return nil
	}

	since, ok := g.introduced(doc.Version, path)
	if !ok {
		return nil
	}
	return &Diagnostic{
		Message:  fmt.Sprintf("%s is not available in PineScript v%d (added in v%d)", path, doc.Version, since),
		Code:     CodeVersionUnavailable,
		Location: position.NewBasicPosition(t.Text, t.Start),
		Severity: SeverityWarning,
	}
}

// introduced returns the first supported version after current that knows
// path as an entry or a namespace.
func (g *Generator) introduced(current symbols.Version, path string) (symbols.Version, bool) {
	for _, v := range symbols.SupportedVersions {
		if v <= current {
			continue
		}
		table := g.catalog.Table(v)
		if table == nil {
			continue
		}
		if _, ok := table.Lookup(path); ok {
			return v, true
		}
		if table.IsNamespace(path) {
			return v, true
		}
	}
	return 0, false
}

func declared(doc *analysis.Document, name string) bool {
	if _, ok := doc.Decls.Lookup(name); ok {
		return true
	}
	_, ok := doc.Decls.Variable(name)
	return ok || doc.Decls.Assigned(name)
}
