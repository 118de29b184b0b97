// Package classify assigns semantic categories to lexer tokens.
//
// Classification runs in two passes over the same token slice:
//
//	tokens ──► Collect ──► Declarations (types, enums, methods, functions, typed variables)
//	   │                        │
//	   └──────────► Classify ◄──┘ + symbols.Table
//	                   │
//	                   ▼
//	             []Token (one per input token, same offsets)
//
// An identifier that is not the right-hand side of a dot resolves in this
// order: keyword, namespace root, local declaration, catalog entry. Anything
// left over stays an Identifier. After a dot the name is resolved against
// whatever the token before the dot denotes.
package classify

import (
	"github.com/walteh/pinels/pkg/lexer"
	"github.com/walteh/pinels/pkg/symbols"
)

type Modifier uint8

const (
	ModDeclaration Modifier = 1 << iota
	ModReadonly
	ModDefaultLibrary
)

func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// Token is a lexer token with its resolved meaning.
type Token struct {
	lexer.Token
	Modifiers Modifier
	// Symbol is the catalog entry the token refers to.
	Symbol *symbols.Entry
	// Local is the user declaration the token refers to or declares.
	Local *Declaration
	// Member is the field, enum member or parameter the token names.
	Member *Member
	// Path is the full namespace path of a Namespace token.
	Path string
	// ValueType is the type of the value the token denotes, when known.
	ValueType string
}

// Classify resolves every token of a document. The result has exactly one
// Token per input token.
func Classify(tokens []lexer.Token, table *symbols.Table, decls *Declarations) []Token {
	if decls == nil {
		decls = Collect(tokens)
	}
	c := &classifier{
		table:  table,
		decls:  decls,
		tokens: tokens,
		out:    make([]Token, len(tokens)),
	}
	for i, t := range tokens {
		c.out[i] = Token{Token: t}
		if !t.Kind.Trivia() && t.Kind != lexer.EndOfInput {
			c.sig = append(c.sig, i)
		}
	}
	c.run()
	return c.out
}

type classifier struct {
	table  *symbols.Table
	decls  *Declarations
	tokens []lexer.Token
	out    []Token
	sig    []int
	calls  []bool
}

func (c *classifier) at(k int) lexer.Token {
	if k < 0 || k >= len(c.sig) {
		return lexer.Token{}
	}
	return c.tokens[c.sig[k]]
}

func (c *classifier) run() {
	for k, idx := range c.sig {
		t := c.tokens[idx]
		prev, next := c.at(k-1), c.at(k+1)
		switch {
		case t.Is(lexer.Punctuation, "("):
			c.calls = append(c.calls, prev.Kind == lexer.Identifier || prev.Is(lexer.Operator, ">"))
		case t.Is(lexer.Punctuation, ")"):
			if len(c.calls) > 0 {
				c.calls = c.calls[:len(c.calls)-1]
			}
		case t.Kind == lexer.Identifier:
			c.identifier(k, &c.out[idx], prev, next)
		}
	}
}

func (c *classifier) inCall() bool {
	return len(c.calls) > 0 && c.calls[len(c.calls)-1]
}

func (c *classifier) identifier(k int, out *Token, prev, next lexer.Token) {
	if def, ok := c.decls.defs[out.Start]; ok {
		out.Kind = def.kind
		out.Modifiers |= ModDeclaration
		out.Local = def.decl
		out.Member = def.member
		switch {
		case def.member != nil:
			out.ValueType = def.member.Type
		case def.decl.Kind == DeclVariable:
			out.ValueType = def.decl.Type
		}
		return
	}

	if prev.Is(lexer.Punctuation, ".") {
		if k >= 2 {
			c.member(out, &c.out[c.sig[k-2]], next)
		}
		return
	}

	if c.inCall() && next.Is(lexer.Operator, "=") && (prev.Is(lexer.Punctuation, "(") || prev.Is(lexer.Punctuation, ",")) {
		out.Kind = lexer.Parameter
		return
	}

	name := out.Text
	if kw, ok := c.table.Keyword(name); ok {
		out.Kind = lexer.Keyword
		out.Symbol = kw
		return
	}

	if decl, m, ok := c.decls.Parameter(name, out.Start); ok {
		out.Kind = lexer.Parameter
		out.Local = decl
		out.Member = m
		out.ValueType = m.Type
		return
	}

	if c.table.IsNamespace(name) {
		if _, global := c.table.Lookup(name); !global || next.Is(lexer.Punctuation, ".") {
			out.Kind = lexer.Namespace
			out.Path = name
			out.Modifiers |= ModDefaultLibrary
			return
		}
	}

	if c.local(out, name, next) {
		return
	}

	if e, ok := c.table.Lookup(name); ok {
		c.entry(out, e, next)
	}
}

func (c *classifier) local(out *Token, name string, next lexer.Token) bool {
	if d, ok := c.decls.Lookup(name); ok {
		out.Local = d
		switch d.Kind {
		case DeclType:
			out.Kind = lexer.Type
		case DeclEnum:
			out.Kind = lexer.Enum
		default:
			out.Kind = lexer.Function
		}
		return true
	}
	if ms := c.decls.MethodsNamed(name); len(ms) > 0 && next.Is(lexer.Punctuation, "(") {
		out.Kind = lexer.Method
		out.Local = ms[0]
		return true
	}
	if v, ok := c.decls.Variable(name); ok {
		out.Kind = lexer.Variable
		out.Local = v
		out.ValueType = v.Type
		return true
	}
	return false
}

func (c *classifier) entry(out *Token, e *symbols.Entry, next lexer.Token) {
	out.Symbol = e
	out.Modifiers |= ModDefaultLibrary
	switch e.Kind {
	case symbols.KindFunction:
		if e.ValueType != "" && !next.Is(lexer.Punctuation, "(") {
			out.Kind = lexer.Variable
			out.ValueType = e.ValueType
			return
		}
		out.Kind = lexer.Function
	case symbols.KindVariable:
		out.Kind = lexer.Variable
		out.ValueType = e.ValueType
	case symbols.KindConstant:
		out.Kind = lexer.Constant
		out.ValueType = e.ValueType
		out.Modifiers |= ModReadonly
	case symbols.KindType:
		out.Kind = lexer.Type
	}
}

// member resolves the name after a dot against the token before it.
func (c *classifier) member(out *Token, owner *Token, next lexer.Token) {
	name := out.Text
	switch {
	case owner.Kind == lexer.Namespace:
		path := owner.Path + "." + name
		if c.table.IsNamespace(path) {
			if _, isEntry := c.table.Lookup(path); !isEntry || next.Is(lexer.Punctuation, ".") {
				out.Kind = lexer.Namespace
				out.Path = path
				out.Modifiers |= ModDefaultLibrary
				return
			}
		}
		if e, ok := c.table.Lookup(path); ok {
			c.entry(out, e, next)
		}

	case owner.Local != nil && owner.Member == nil && (owner.Kind == lexer.Type || owner.Kind == lexer.Enum):
		c.localMember(out, owner.Local, name, true)

	case owner.ValueType != "":
		c.valueMember(out, owner.ValueType, name)
	}
}

// localMember resolves name inside a user type or enum. static is true when
// the owner is the type itself rather than a value of it.
func (c *classifier) localMember(out *Token, d *Declaration, name string, static bool) {
	if d.Kind == DeclEnum {
		if m, ok := d.Member(name); ok {
			out.Kind = lexer.EnumMember
			out.Local = d
			out.Member = m
			out.ValueType = d.Name
			out.Modifiers |= ModReadonly
		}
		return
	}
	if static && (name == "new" || name == "copy") {
		out.Kind = lexer.Method
		out.Local = d
		out.ValueType = d.Name
		return
	}
	if m, ok := d.Member(name); ok {
		out.Kind = lexer.Field
		out.Local = d
		out.Member = m
		out.ValueType = m.Type
		return
	}
	for _, method := range c.decls.MethodsOf(d.Name) {
		if method.Name == name {
			out.Kind = lexer.Method
			out.Local = method
			return
		}
	}
}

func (c *classifier) valueMember(out *Token, typ, name string) {
	base := baseType(typ)
	if d, ok := c.decls.Type(base); ok {
		c.localMember(out, d, name, false)
		return
	}
	for _, method := range c.decls.MethodsOf(base) {
		if method.Name == name {
			out.Kind = lexer.Method
			out.Local = method
			return
		}
	}
	for _, e := range c.table.MethodsOf(typ) {
		if e.Name == name {
			out.Kind = lexer.Method
			out.Symbol = e
			out.Modifiers |= ModDefaultLibrary
			return
		}
	}
}
