package analysis

import (
	"github.com/walteh/pinels/pkg/classify"
	"github.com/walteh/pinels/pkg/lexer"
	"github.com/walteh/pinels/pkg/symbols"
)

// Call describes the function call enclosing a cursor.
type Call struct {
	Callee      classify.Token
	CalleeIndex int
	// Open is the token index of the opening parenthesis.
	Open int
	// Arg is the zero-based index of the argument under the cursor.
	Arg int
	// Named lists every named argument of the call.
	Named []string
	// Current is the named argument the cursor is in, if any.
	Current string
	// MethodSyntax is true for value.method(...) calls where the receiver
	// fills the first parameter.
	MethodSyntax bool
}

// CallAt finds the innermost call whose argument list contains offset.
func (d *Document) CallAt(offset int) (*Call, bool) {
	offset = d.Clamp(offset)

	depth, arg, argStart := 0, 0, -1
	for j := d.IndexAt(offset); j >= 0; j-- {
		t := d.Tokens[j]
		if t.Start >= offset || t.Kind.Trivia() {
			continue
		}
		switch {
		case t.Is(lexer.Punctuation, ")") || t.Is(lexer.Punctuation, "]"):
			depth++
		case t.Is(lexer.Punctuation, "["):
			if depth == 0 {
				return nil, false
			}
			depth--
		case t.Is(lexer.Punctuation, ","):
			if depth == 0 {
				if argStart < 0 {
					argStart = j
				}
				arg++
			}
		case t.Is(lexer.Punctuation, "("):
			if depth > 0 {
				depth--
				continue
			}
			if argStart < 0 {
				argStart = j
			}
			return d.call(j, arg, argStart, offset)
		}
	}
	return nil, false
}

func (d *Document) call(open, arg, argStart, offset int) (*Call, bool) {
	calleeIdx := d.PrevSignificant(open)
	if calleeIdx < 0 {
		return nil, false
	}
	callee := d.Classified[calleeIdx]
	if callee.Is(lexer.Operator, ">") {
		// generic call such as array.new<float>(
		calleeIdx = d.genericCallee(calleeIdx)
		if calleeIdx < 0 {
			return nil, false
		}
		callee = d.Classified[calleeIdx]
	}
	switch callee.Kind {
	case lexer.Function, lexer.Method, lexer.Identifier:
	default:
		return nil, false
	}

	c := &Call{Callee: callee, CalleeIndex: calleeIdx, Open: open, Arg: arg}
	if dot := d.PrevSignificant(calleeIdx); dot >= 0 && d.Tokens[dot].Is(lexer.Punctuation, ".") && callee.Kind == lexer.Method {
		owner := d.PrevSignificant(dot)
		c.MethodSyntax = owner >= 0 && !(d.Classified[owner].Kind == lexer.Type || d.Classified[owner].Kind == lexer.Namespace)
	}

	first := d.NextSignificant(argStart)
	if first >= 0 && d.Tokens[first].Kind == lexer.Identifier {
		if eq := d.NextSignificant(first); eq >= 0 && d.Tokens[eq].Is(lexer.Operator, "=") && d.Tokens[eq].End <= offset {
			c.Current = d.Tokens[first].Text
		}
	}

	depth := 0
	for j := d.NextSignificant(open); j >= 0; j = d.NextSignificant(j) {
		t := d.Tokens[j]
		switch {
		case t.Is(lexer.Punctuation, "(") || t.Is(lexer.Punctuation, "["):
			depth++
		case t.Is(lexer.Punctuation, ")") || t.Is(lexer.Punctuation, "]"):
			if depth == 0 {
				return c, true
			}
			depth--
		case depth == 0 && t.Kind == lexer.Identifier:
			prev, next := d.PrevSignificant(j), d.NextSignificant(j)
			if next >= 0 && d.Tokens[next].Is(lexer.Operator, "=") && prev >= 0 &&
				(d.Tokens[prev].Is(lexer.Punctuation, "(") || d.Tokens[prev].Is(lexer.Punctuation, ",")) {
				c.Named = append(c.Named, t.Text)
			}
		}
	}
	return c, true
}

// genericCallee walks back from the closing > of a type argument list to
// the function name before the matching <.
func (d *Document) genericCallee(closeIdx int) int {
	depth := 0
	for j := closeIdx; j >= 0; j = d.PrevSignificant(j) {
		switch {
		case d.Tokens[j].Is(lexer.Operator, ">"):
			depth++
		case d.Tokens[j].Is(lexer.Operator, "<"):
			depth--
			if depth == 0 {
				return d.PrevSignificant(j)
			}
		}
	}
	return -1
}

// Signatures returns the parameter lists the callee accepts, dropping the
// receiver for method-syntax calls.
func (d *Document) Signatures(c *Call) []symbols.Signature {
	var sigs []symbols.Signature
	switch {
	case c.Callee.Symbol != nil && c.Callee.Symbol.Kind == symbols.KindFunction:
		sigs = c.Callee.Symbol.Signatures
	case c.Callee.Local != nil:
		sigs = []symbols.Signature{LocalSignature(c.Callee)}
	}
	if !c.MethodSyntax {
		return sigs
	}
	out := make([]symbols.Signature, 0, len(sigs))
	for _, s := range sigs {
		if len(s.Params) > 0 {
			s.Params = s.Params[1:]
		}
		out = append(out, s)
	}
	return out
}

// LocalSignature converts a user function, method or type constructor into a
// signature. T.new takes every field as an optional argument.
func LocalSignature(callee classify.Token) symbols.Signature {
	decl := callee.Local
	ctor := decl.Kind == classify.DeclType && (callee.Text == "new" || callee.Text == "copy")
	sig := symbols.Signature{Params: make([]symbols.Param, 0, len(decl.Members))}
	if ctor && callee.Text == "copy" {
		sig.Params = append(sig.Params, symbols.Param{Name: "id", Type: decl.Name})
		sig.Returns = decl.Name
		return sig
	}
	for _, m := range decl.Members {
		sig.Params = append(sig.Params, symbols.Param{
			Name:     m.Name,
			Type:     m.Type,
			Default:  m.Default,
			Optional: ctor || m.Default != "",
		})
	}
	if ctor {
		sig.Returns = decl.Name
	}
	return sig
}

// CalleeName is the name shown for a call in signature help.
func CalleeName(c *Call) string {
	switch {
	case c.Callee.Symbol != nil:
		return c.Callee.Symbol.QualifiedName
	case c.Callee.Local != nil && c.Callee.Local.Kind == classify.DeclType:
		return c.Callee.Local.Name + "." + c.Callee.Text
	default:
		return c.Callee.Text
	}
}
