// Package signature builds signature help for the call enclosing a cursor.
package signature

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/walteh/pinels/pkg/analysis"
	"github.com/walteh/pinels/pkg/symbols"
)

type Param struct {
	Label string
	Doc   string
}

type Signature struct {
	Label  string
	Doc    string
	Params []Param
}

// Help lists every overload of the callee. ActiveParameter indexes into the
// Params of the active signature.
type Help struct {
	Signatures      []Signature
	ActiveSignature int
	ActiveParameter int
}

// At returns help for the innermost call around offset, or nil when the
// cursor is not inside the argument list of a known callee.
func At(ctx context.Context, doc *analysis.Document, offset int) *Help {
	call, ok := doc.CallAt(offset)
	if !ok {
		return nil
	}
	sigs := doc.Signatures(call)
	if len(sigs) == 0 {
		return nil
	}

	name := analysis.CalleeName(call)
	help := &Help{Signatures: make([]Signature, len(sigs))}
	for i, s := range sigs {
		help.Signatures[i] = convert(call, name, s)
	}
	help.ActiveSignature = active(call, sigs)
	help.ActiveParameter = call.Arg
	if call.Current != "" {
		if i := sigs[help.ActiveSignature].ParamIndex(call.Current); i >= 0 {
			help.ActiveParameter = i
		}
	}

	zerolog.Ctx(ctx).Debug().
		Str("callee", name).
		Int("signatures", len(sigs)).
		Int("active_signature", help.ActiveSignature).
		Int("active_parameter", help.ActiveParameter).
		Msg("signature help")

	return help
}

// active picks the first overload that takes the arguments written so far,
// preferring one that knows every named argument.
func active(call *analysis.Call, sigs []symbols.Signature) int {
	fallback := -1
	for i, s := range sigs {
		if !s.Accepts(call.Arg + 1) {
			continue
		}
		if fallback < 0 {
			fallback = i
		}
		if knowsAll(s, call.Named) {
			return i
		}
	}
	return max(fallback, 0)
}

func knowsAll(s symbols.Signature, names []string) bool {
	for _, n := range names {
		if s.ParamIndex(n) < 0 {
			return false
		}
	}
	return true
}

func convert(call *analysis.Call, name string, s symbols.Signature) Signature {
	out := Signature{
		Label:  s.Label(name),
		Params: make([]Param, len(s.Params)),
	}
	switch {
	case call.Callee.Symbol != nil:
		out.Doc = call.Callee.Symbol.Doc
	case call.Callee.Local != nil:
		out.Doc = call.Callee.Local.Doc
	}
	for i, p := range s.Params {
		out.Params[i].Label = p.String()
		if call.Callee.Local != nil {
			if m, ok := call.Callee.Local.Member(p.Name); ok {
				out.Params[i].Doc = m.Doc
			}
		}
	}
	return out
}
