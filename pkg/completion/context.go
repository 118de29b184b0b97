package completion

import (
	"strings"

	"github.com/walteh/pinels/pkg/analysis"
	"github.com/walteh/pinels/pkg/classify"
	"github.com/walteh/pinels/pkg/lexer"
)

type PositionKind uint8

const (
	TopLevel PositionKind = iota
	MemberAccess
	ParameterValue
	AnnotationTag
	StringLiteral
	Comment
)

func (k PositionKind) String() string {
	switch k {
	case MemberAccess:
		return "member-access"
	case ParameterValue:
		return "parameter-value"
	case AnnotationTag:
		return "annotation-tag"
	case StringLiteral:
		return "string-literal"
	case Comment:
		return "comment"
	default:
		return "top-level"
	}
}

// Context is what the resolver knows about the cursor position.
type Context struct {
	CursorOffset int
	// Prefix is the partial word before the cursor; candidates must start
	// with it.
	Prefix string
	// PrefixStart is where a chosen candidate's text replaces the prefix.
	PrefixStart    int
	PrecedingToken classify.Token
	// EnclosingNamespacePrefix names the namespace or type whose members are
	// offered after a dot.
	EnclosingNamespacePrefix string
	// Owner is the token before the dot for MemberAccess.
	Owner        classify.Token
	PositionKind PositionKind
	Call         *analysis.Call
	// NamedValue is set when the cursor follows "name=" inside a call.
	NamedValue bool
}

// NewContext derives the completion context for a cursor offset. Offsets
// outside the text are clamped.
func NewContext(doc *analysis.Document, offset int) *Context {
	offset = doc.Clamp(offset)
	c := &Context{CursorOffset: offset, PrefixStart: offset}

	i := doc.IndexAt(offset)
	word := -1

	if t := doc.Tokens[i]; t.Start < offset {
		switch t.Kind {
		case lexer.StringLiteral:
			if t.Flags.Has(lexer.Unterminated) {
				return c
			}
			c.PositionKind = StringLiteral
			return c
		case lexer.Comment:
			if t.Flags.Has(lexer.Unterminated) {
				return c
			}
			c.PositionKind = Comment
			return c
		case lexer.Annotation:
			c.annotation(doc, t, offset)
			return c
		case lexer.Identifier:
			word = i
		}
	} else if i > 0 {
		prev := doc.Tokens[i-1]
		switch {
		case prev.End != offset:
		case prev.Kind == lexer.Annotation:
			c.annotation(doc, prev, offset)
			return c
		case prev.Kind == lexer.Comment && strings.HasPrefix(prev.Text, "//"):
			c.PositionKind = Comment
			return c
		case prev.Kind == lexer.Comment && prev.Flags.Has(lexer.Unterminated):
			return c
		case prev.Kind == lexer.StringLiteral && prev.Flags.Has(lexer.Unterminated):
			return c
		case prev.Kind == lexer.Identifier:
			word = i - 1
		}
	}

	anchor := i
	if word >= 0 {
		t := doc.Tokens[word]
		c.Prefix = doc.Text[t.Start:offset]
		c.PrefixStart = t.Start
		anchor = word
	}

	p := doc.PrevSignificant(anchor)
	if p < 0 {
		return c
	}
	c.PrecedingToken = doc.Classified[p]

	if c.PrecedingToken.Is(lexer.Punctuation, ".") {
		c.PositionKind = MemberAccess
		if o := doc.PrevSignificant(p); o >= 0 {
			c.Owner = doc.Classified[o]
			c.EnclosingNamespacePrefix = ownerName(c.Owner)
		}
		return c
	}

	call, ok := doc.CallAt(offset)
	if !ok || len(doc.Signatures(call)) == 0 {
		return c
	}
	switch {
	case c.PrecedingToken.Is(lexer.Punctuation, "("), c.PrecedingToken.Is(lexer.Punctuation, ","):
		c.PositionKind = ParameterValue
		c.Call = call
	case c.PrecedingToken.Is(lexer.Operator, "=") && call.Current != "":
		c.PositionKind = ParameterValue
		c.Call = call
		c.NamedValue = true
	}
	return c
}

func (c *Context) annotation(doc *analysis.Document, t lexer.Token, offset int) {
	c.PositionKind = AnnotationTag
	c.Prefix = doc.Text[t.Start:offset]
	c.PrefixStart = t.Start
	c.PrecedingToken = classify.Token{Token: t}
}

func ownerName(owner classify.Token) string {
	switch {
	case owner.Kind == lexer.Namespace:
		return owner.Path
	case owner.Local != nil && owner.Member == nil && (owner.Kind == lexer.Type || owner.Kind == lexer.Enum):
		return owner.Local.Name
	default:
		return owner.ValueType
	}
}
