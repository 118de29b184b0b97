// Package inlay computes parameter name hints for call arguments.
package inlay

import (
	"github.com/walteh/pinels/pkg/analysis"
	"github.com/walteh/pinels/pkg/lexer"
)

// Hint is a label rendered just before Offset.
type Hint struct {
	Offset int
	Label  string
}

// Hints returns a "name:" hint before every positional argument that follows
// a comma in a call to a known function. The first argument and named
// arguments get none.
func Hints(doc *analysis.Document) []Hint {
	var out []Hint
	for j, t := range doc.Tokens {
		if !t.Is(lexer.Punctuation, ",") {
			continue
		}
		arg := doc.NextSignificant(j)
		if arg < 0 || closes(doc.Tokens[arg]) || named(doc, arg) {
			continue
		}
		start := doc.Tokens[arg].Start
		call, ok := doc.CallAt(start)
		if !ok {
			continue
		}
		sigs := doc.Signatures(call)
		if len(sigs) == 0 {
			continue
		}
		sig := sigs[0]
		for _, s := range sigs {
			if s.Accepts(call.Arg+1) && len(s.Params) > call.Arg {
				sig = s
				break
			}
		}
		if call.Arg >= len(sig.Params) || sig.Params[call.Arg].Variadic {
			continue
		}
		out = append(out, Hint{Offset: start, Label: sig.Params[call.Arg].Name + ":"})
	}
	return out
}

func closes(t lexer.Token) bool {
	return t.Is(lexer.Punctuation, ")") || t.Kind == lexer.EndOfInput
}

func named(doc *analysis.Document, i int) bool {
	if doc.Tokens[i].Kind != lexer.Identifier {
		return false
	}
	next := doc.NextSignificant(i)
	return next >= 0 && doc.Tokens[next].Is(lexer.Operator, "=")
}
