/*
Package semtok provides semantic token support for PineScript.

Core Functions:
-------------

	  +------------+
	  | Classified |
	  | Tokens     |
	  +------------+
	         |
	  FromClassified
	         |
	         v
	  +------------+
	  | Semantic   |
	  | Tokens     |
	  +------------+
	         |
	      Encode
	         |
	         v
	  [dLine, dChar, len, type, mods] ...
*/
package semtok

import (
	"strings"

	"github.com/walteh/pinels/pkg/analysis"
	"github.com/walteh/pinels/pkg/classify"
	"github.com/walteh/pinels/pkg/lexer"
	"github.com/walteh/pinels/pkg/position"
)

// FromClassified returns one semantic token per painted classified token,
// in document order.
func FromClassified(doc *analysis.Document) []Token {
	var out []Token
	for _, t := range doc.Classified {
		typ, ok := tokenType(t.Kind)
		if !ok || t.Len() == 0 {
			continue
		}
		out = append(out, Token{
			Type:     typ,
			Modifier: modifiers(t),
			Range:    position.NewBasicPosition(t.Text, t.Start),
		})
	}
	return out
}

func tokenType(k lexer.Kind) (TokenType, bool) {
	switch k {
	case lexer.Namespace:
		return TokenNamespace, true
	case lexer.Type:
		return TokenTypeName, true
	case lexer.Enum:
		return TokenEnum, true
	case lexer.Function:
		return TokenFunction, true
	case lexer.Method:
		return TokenMethod, true
	case lexer.Variable, lexer.Constant:
		return TokenVariable, true
	case lexer.Parameter:
		return TokenParameter, true
	case lexer.Field:
		return TokenProperty, true
	case lexer.EnumMember:
		return TokenEnumMember, true
	case lexer.Keyword:
		return TokenKeyword, true
	case lexer.Annotation:
		return TokenDecorator, true
	case lexer.Operator:
		return TokenOperator, true
	case lexer.StringLiteral:
		return TokenString, true
	case lexer.NumberLiteral, lexer.ColorLiteral:
		return TokenNumber, true
	case lexer.Comment:
		return TokenComment, true
	default:
		return 0, false
	}
}

func modifiers(t classify.Token) TokenModifier {
	m := ModifierNone
	if t.Modifiers.Has(classify.ModDeclaration) {
		m |= ModifierDeclaration
	}
	if t.Modifiers.Has(classify.ModReadonly) {
		m |= ModifierReadonly
	}
	if t.Modifiers.Has(classify.ModDefaultLibrary) {
		m |= ModifierDefaultLibrary
	}
	return m
}

// Encode packs tokens into the LSP relative format: five integers per
// token holding the line delta, the start character delta (relative to the
// previous token when on the same line), the length in UTF-16 units, the type
// and the modifier bits. Tokens spanning several lines are split per line.
func Encode(tokens []Token, m *position.Mapper) []uint32 {
	data := make([]uint32, 0, len(tokens)*5)
	prevLine, prevChar := 0, 0

	emit := func(start, end int, tok Token) {
		if end <= start {
			return
		}
		s, e := m.Place(start), m.Place(end)
		length := e.Character - s.Character
		if length <= 0 {
			return
		}
		deltaChar := s.Character
		if s.Line == prevLine {
			deltaChar -= prevChar
		}
		data = append(data,
			uint32(s.Line-prevLine),
			uint32(deltaChar),
			uint32(length),
			uint32(tok.Type),
			uint32(tok.Modifier),
		)
		prevLine, prevChar = s.Line, s.Character
	}

	for _, tok := range tokens {
		start := tok.Range.Offset
		if !strings.ContainsAny(tok.Range.Text, "\r\n") {
			emit(start, tok.Range.End(), tok)
			continue
		}
		first, last := m.Line(start), m.Line(tok.Range.End())
		for line := first; line <= last; line++ {
			lineStart, lineEnd := max(start, m.LineStart(line)), min(tok.Range.End(), m.LineEnd(line))
			emit(lineStart, lineEnd, tok)
		}
	}
	return data
}
