// Package hover provides functionality for generating hover information.
package hover

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/walteh/pinels/pkg/analysis"
	"github.com/walteh/pinels/pkg/classify"
	"github.com/walteh/pinels/pkg/lexer"
	"github.com/walteh/pinels/pkg/position"
	"github.com/walteh/pinels/pkg/symbols"
)

// HoverInfo represents the information to be displayed in a hover tooltip
type HoverInfo struct {
	// Content is the markdown content to display
	Content []string
	// Position is the token the hover applies to
	Position position.RawPosition
}

// At describes the token under offset. It returns nil when the token has no
// known meaning.
func At(ctx context.Context, doc *analysis.Document, offset int) *HoverInfo {
	tok, ok := doc.Resolvable(offset)
	if !ok {
		return nil
	}
	zerolog.Ctx(ctx).Debug().Str("token", tok.String()).Msg("hover")

	var content string
	switch {
	case tok.Kind == lexer.Annotation:
		if a, ok := doc.Table.Annotation(tok.Text); ok {
			content = section("annotation "+a.Name, a.Doc)
		}
	case tok.Kind == lexer.Namespace:
		if ns, ok := doc.Table.Namespace(tok.Path); ok {
			content = section("namespace "+ns.Path, ns.Doc)
		}
	case tok.Member != nil:
		content = member(tok)
	case tok.Local != nil:
		content = local(tok)
	case tok.Symbol != nil:
		content = entry(tok.Symbol)
	}
	if content == "" {
		return nil
	}
	return &HoverInfo{
		Content:  []string{content},
		Position: position.NewBasicPosition(tok.Text, tok.Start),
	}
}

// section renders a pine code block followed by optional prose.
func section(code string, doc ...string) string {
	var sb strings.Builder
	sb.WriteString("```pine\n")
	sb.WriteString(code)
	sb.WriteString("\n```")
	for _, d := range doc {
		if d == "" {
			continue
		}
		sb.WriteString("\n\n")
		sb.WriteString(d)
	}
	return sb.String()
}

func entry(e *symbols.Entry) string {
	switch e.Kind {
	case symbols.KindFunction:
		labels := make([]string, len(e.Signatures))
		for i, s := range e.Signatures {
			labels[i] = s.Label(e.QualifiedName)
		}
		return section(strings.Join(labels, "\n"), e.Doc)
	case symbols.KindVariable, symbols.KindConstant:
		return section(e.QualifiedName+": "+e.ValueType, e.Doc)
	case symbols.KindType:
		return section("type "+e.QualifiedName, e.Doc)
	case symbols.KindKeyword:
		return section(e.Name, e.Doc)
	default:
		return section(e.QualifiedName, e.Doc)
	}
}

func local(tok classify.Token) string {
	d := tok.Local
	switch d.Kind {
	case classify.DeclType:
		if tok.Kind == lexer.Method {
			return section(analysis.LocalSignature(tok).Label(d.Name+"."+tok.Text), d.Doc)
		}
		lines := []string{"type " + d.Name}
		for _, m := range d.Members {
			line := "    " + strings.TrimSpace(m.Type+" "+m.Name)
			if m.Default != "" {
				line += " = " + m.Default
			}
			lines = append(lines, line)
		}
		return section(strings.Join(lines, "\n"), d.Doc)
	case classify.DeclEnum:
		lines := []string{"enum " + d.Name}
		for _, m := range d.Members {
			lines = append(lines, "    "+m.Name)
		}
		return section(strings.Join(lines, "\n"), d.Doc)
	case classify.DeclFunction, classify.DeclMethod:
		return section(d.Signature(), d.Doc, paramDocs(d), returns(d))
	case classify.DeclVariable:
		return section(d.Type+" "+d.Name, d.Doc)
	}
	return ""
}

func member(tok classify.Token) string {
	d, m := tok.Local, tok.Member
	switch tok.Kind {
	case lexer.Field:
		return section(fmt.Sprintf("%s %s.%s", m.Type, d.Name, m.Name), m.Doc)
	case lexer.EnumMember:
		return section(d.Name+"."+m.Name, m.Doc)
	case lexer.Parameter:
		return section(strings.TrimSpace("(parameter) "+m.Type+" "+m.Name), m.Doc)
	}
	return ""
}

func paramDocs(d *classify.Declaration) string {
	var lines []string
	for _, m := range d.Members {
		if m.Doc != "" {
			lines = append(lines, fmt.Sprintf("- `%s`: %s", m.Name, m.Doc))
		}
	}
	return strings.Join(lines, "\n")
}

func returns(d *classify.Declaration) string {
	if d.Returns == "" {
		return ""
	}
	return "Returns: " + d.Returns
}
