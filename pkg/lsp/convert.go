package lsp

import (
	"github.com/walteh/pinels/pkg/classify"
	"github.com/walteh/pinels/pkg/completion"
	"github.com/walteh/pinels/pkg/diagnostic"
	"github.com/walteh/pinels/pkg/lexer"
	"github.com/walteh/pinels/pkg/lsp/protocol"
	"github.com/walteh/pinels/pkg/position"
)

func toPlace(p protocol.Position) position.Place {
	return position.Place{Line: int(p.Line), Character: int(p.Character)}
}

func fromPlace(p position.Place) protocol.Position {
	return protocol.Position{Line: uint32(p.Line), Character: uint32(p.Character)}
}

func toRange(m *position.Mapper, start, end int) protocol.Range {
	r := m.Range(start, end)
	return protocol.Range{Start: fromPlace(r.Start), End: fromPlace(r.End)}
}

func markdown(value string) *protocol.MarkupContent {
	if value == "" {
		return nil
	}
	return &protocol.MarkupContent{Kind: protocol.Markdown, Value: value}
}

func completionItemKind(k lexer.Kind) protocol.CompletionItemKind {
	switch k {
	case lexer.Namespace:
		return protocol.ModuleCompletion
	case lexer.Function:
		return protocol.FunctionCompletion
	case lexer.Method:
		return protocol.MethodCompletion
	case lexer.Type:
		return protocol.StructCompletion
	case lexer.Enum:
		return protocol.EnumCompletion
	case lexer.EnumMember:
		return protocol.EnumMemberCompletion
	case lexer.Field:
		return protocol.FieldCompletion
	case lexer.Variable, lexer.Parameter:
		return protocol.VariableCompletion
	case lexer.Constant:
		return protocol.ConstantCompletion
	case lexer.Keyword:
		return protocol.KeywordCompletion
	case lexer.ColorLiteral:
		return protocol.ColorCompletion
	case lexer.StringLiteral, lexer.NumberLiteral:
		return protocol.ValueCompletion
	default:
		return protocol.TextCompletion
	}
}

func toCompletionItem(m *position.Mapper, ctx *completion.Context, c completion.Candidate) protocol.CompletionItem {
	text := c.InsertText
	if text == "" {
		text = c.DisplayText
	}
	return protocol.CompletionItem{
		Label:         c.DisplayText,
		Kind:          completionItemKind(c.Kind),
		Detail:        c.Detail,
		Documentation: markdown(c.Documentation),
		SortText:      c.SortText,
		FilterText:    c.DisplayText,
		TextEdit: &protocol.TextEdit{
			Range:   toRange(m, ctx.PrefixStart, ctx.CursorOffset),
			NewText: text,
		},
	}
}

func toSeverity(s diagnostic.Severity) protocol.DiagnosticSeverity {
	switch s {
	case diagnostic.SeverityError:
		return protocol.SeverityError
	case diagnostic.SeverityWarning:
		return protocol.SeverityWarning
	case diagnostic.SeverityHint:
		return protocol.SeverityHint
	default:
		return protocol.SeverityInformation
	}
}

func toDiagnostic(m *position.Mapper, d *diagnostic.Diagnostic) protocol.Diagnostic {
	return protocol.Diagnostic{
		Range:    toRange(m, d.Location.Offset, d.Location.End()),
		Severity: toSeverity(d.Severity),
		Code:     d.Code,
		Source:   "pinels",
		Message:  d.Message,
	}
}

func symbolKind(k classify.DeclKind) protocol.SymbolKind {
	switch k {
	case classify.DeclType:
		return protocol.StructSymbol
	case classify.DeclEnum:
		return protocol.EnumSymbol
	case classify.DeclMethod:
		return protocol.MethodSymbol
	case classify.DeclFunction:
		return protocol.FunctionSymbol
	default:
		return protocol.VariableSymbol
	}
}

func toDocumentSymbol(m *position.Mapper, d *classify.Declaration) protocol.DocumentSymbol {
	sym := protocol.DocumentSymbol{
		Name:           d.Name,
		Kind:           symbolKind(d.Kind),
		Range:          toRange(m, d.Start, d.End),
		SelectionRange: toRange(m, d.Start, d.End),
	}
	switch d.Kind {
	case classify.DeclFunction, classify.DeclMethod:
		sym.Detail = d.Signature()
	case classify.DeclVariable:
		sym.Detail = d.Type
	case classify.DeclType, classify.DeclEnum:
		kind := protocol.FieldSymbol
		if d.Kind == classify.DeclEnum {
			kind = protocol.EnumMemberSymbol
		}
		for _, member := range d.Members {
			sym.Children = append(sym.Children, protocol.DocumentSymbol{
				Name:           member.Name,
				Detail:         member.Type,
				Kind:           kind,
				Range:          toRange(m, member.Start, member.End),
				SelectionRange: toRange(m, member.Start, member.End),
			})
		}
	}
	return sym
}
