// Package completion turns a cursor position into a ranked list of
// candidates.
//
//	Document + offset ─► NewContext ─► PositionKind
//	                                      │
//	      TopLevel ─────── locals, namespace roots, globals, keywords
//	      MemberAccess ─── members of the namespace / type before the dot
//	      ParameterValue ─ name= arguments and values for the parameter type
//	      AnnotationTag ── the //@ vocabulary
//	      StringLiteral, Comment ─ nothing
//
// Candidates are filtered by exact, case-sensitive prefix and ranked locals
// first, then catalog symbols in catalog order, then keywords. When a local
// and a built-in share a label the local wins.
package completion

import (
	"fmt"
	"sort"
	"strings"

	"github.com/walteh/pinels/pkg/analysis"
	"github.com/walteh/pinels/pkg/classify"
	"github.com/walteh/pinels/pkg/lexer"
	"github.com/walteh/pinels/pkg/symbols"
)

type Source uint8

const (
	SourceLocal Source = iota
	SourceBuiltin
	SourceKeyword
)

func (s Source) String() string {
	switch s {
	case SourceLocal:
		return "local"
	case SourceBuiltin:
		return "builtin"
	default:
		return "keyword"
	}
}

// Candidate carries everything a UI needs to render and insert a
// suggestion.
type Candidate struct {
	DisplayText   string
	InsertText    string
	Kind          lexer.Kind
	Detail        string
	Documentation string
	QualifiedName string
	Source        Source
	SortText      string

	order int
}

// Options tune the candidate list.
type Options struct {
	// Keywords includes language keywords at top level.
	Keywords bool
	// Limit caps the number of candidates; zero means no cap.
	Limit int
}

func DefaultOptions() Options {
	return Options{Keywords: true}
}

// Resolve returns the ranked candidates for offset with default options.
func Resolve(doc *analysis.Document, offset int) []Candidate {
	return ResolveWith(doc, offset, DefaultOptions())
}

func ResolveWith(doc *analysis.Document, offset int, opts Options) []Candidate {
	_, cands := ResolveContext(doc, offset, opts)
	return cands
}

// ResolveContext is Resolve that also returns the derived context.
func ResolveContext(doc *analysis.Document, offset int, opts Options) (*Context, []Candidate) {
	ctx := NewContext(doc, offset)
	r := &resolver{doc: doc, ctx: ctx, opts: opts}

	switch ctx.PositionKind {
	case TopLevel:
		r.topLevel()
	case MemberAccess:
		r.members()
	case ParameterValue:
		r.parameters()
	case AnnotationTag:
		r.annotations()
	}
	return ctx, r.ranked()
}

type resolver struct {
	doc   *analysis.Document
	ctx   *Context
	opts  Options
	cands []Candidate
	// orderBase pushes value candidates after named arguments.
	orderBase int
}

func (r *resolver) add(c Candidate) {
	if !strings.HasPrefix(c.DisplayText, r.ctx.Prefix) {
		return
	}
	if c.InsertText == "" {
		c.InsertText = c.DisplayText
	}
	if c.QualifiedName == "" {
		c.QualifiedName = c.DisplayText
	}
	c.order += r.orderBase
	r.cands = append(r.cands, c)
}

// ranked sorts by source, then catalog order, then qualified name, and drops
// later candidates whose label was already taken.
func (r *resolver) ranked() []Candidate {
	sort.SliceStable(r.cands, func(i, j int) bool {
		a, b := r.cands[i], r.cands[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.order != b.order {
			return a.order < b.order
		}
		return a.QualifiedName < b.QualifiedName
	})

	seen := map[string]bool{}
	out := make([]Candidate, 0, len(r.cands))
	for _, c := range r.cands {
		if seen[c.DisplayText] {
			continue
		}
		seen[c.DisplayText] = true
		out = append(out, c)
	}
	if r.opts.Limit > 0 && len(out) > r.opts.Limit {
		out = out[:r.opts.Limit]
	}
	for i := range out {
		out[i].SortText = fmt.Sprintf("%05d", i)
	}
	return out
}

func (r *resolver) topLevel() {
	for _, d := range r.doc.Decls.All() {
		r.add(localCandidate(d))
	}
	t := r.doc.Table
	for _, ns := range t.Roots() {
		r.add(namespaceCandidate(ns))
	}
	for _, e := range t.Globals() {
		r.add(entryCandidate(e, e.Name))
	}
	if r.opts.Keywords {
		for _, kw := range t.Keywords() {
			r.add(Candidate{
				DisplayText:   kw.Name,
				Kind:          lexer.Keyword,
				Detail:        "keyword",
				Documentation: kw.Doc,
				Source:        SourceKeyword,
				order:         kw.Order,
			})
		}
	}
}

func (r *resolver) members() {
	owner := r.ctx.Owner
	t := r.doc.Table
	switch {
	case owner.Kind == lexer.Namespace:
		for _, ns := range t.SubNamespaces(owner.Path) {
			r.add(namespaceCandidate(ns))
		}
		for _, e := range t.Members(owner.Path) {
			r.add(entryCandidate(e, e.Name))
		}

	case owner.Local != nil && owner.Member == nil && owner.Kind == lexer.Enum:
		r.enumMembers(owner.Local, false)

	case owner.Local != nil && owner.Member == nil && owner.Kind == lexer.Type:
		for i, name := range []string{"new", "copy"} {
			qn := owner.Local.Name + "." + name
			sig := analysis.LocalSignature(classify.Token{Token: lexer.Token{Text: name}, Local: owner.Local})
			r.add(Candidate{
				DisplayText:   name,
				Kind:          lexer.Method,
				Detail:        sig.Label(qn),
				Documentation: owner.Local.Doc,
				QualifiedName: qn,
				Source:        SourceLocal,
				order:         i,
			})
		}

	case owner.ValueType != "":
		r.valueMembers(owner.ValueType)
	}
}

func (r *resolver) valueMembers(typ string) {
	base := symbols.BaseType(typ)
	fields := 0
	if d, ok := r.doc.Decls.Type(base); ok && d.Kind == classify.DeclType {
		fields = len(d.Members)
		for i, m := range d.Members {
			r.add(Candidate{
				DisplayText:   m.Name,
				Kind:          lexer.Field,
				Detail:        strings.TrimSpace(m.Type + " " + m.Name),
				Documentation: m.Doc,
				QualifiedName: d.Name + "." + m.Name,
				Source:        SourceLocal,
				order:         i,
			})
		}
	}
	for i, m := range r.doc.Decls.MethodsOf(base) {
		c := localCandidate(m)
		c.order = fields + i
		r.add(c)
	}
	for _, e := range r.doc.Table.MethodsOf(typ) {
		c := entryCandidate(e, e.Name)
		c.Kind = lexer.Method
		r.add(c)
	}
}

func (r *resolver) enumMembers(d *classify.Declaration, qualified bool) {
	for i, m := range d.Members {
		label := m.Name
		if qualified {
			label = d.Name + "." + m.Name
		}
		r.add(Candidate{
			DisplayText:   label,
			Kind:          lexer.EnumMember,
			Detail:        d.Name + "." + m.Name,
			Documentation: m.Doc,
			QualifiedName: d.Name + "." + m.Name,
			Source:        SourceLocal,
			order:         i,
		})
	}
}

func (r *resolver) parameters() {
	call := r.ctx.Call
	sigs := r.doc.Signatures(call)

	if !r.ctx.NamedValue {
		named := map[string]bool{}
		for _, n := range call.Named {
			named[n] = true
		}
		seen := map[string]bool{}
		pos := 0
		for _, sig := range sigs {
			for _, p := range sig.Params {
				if named[p.Name] || seen[p.Name] || p.Variadic {
					continue
				}
				seen[p.Name] = true
				r.add(Candidate{
					DisplayText:   p.Name + "=",
					Kind:          lexer.Parameter,
					Detail:        p.String(),
					QualifiedName: analysis.CalleeName(call) + "." + p.Name,
					Source:        SourceLocal,
					order:         pos,
				})
				pos++
			}
		}
	}

	if p, ok := targetParam(sigs, call, r.ctx.NamedValue); ok {
		r.orderBase = 1 << 20
		r.values(p)
	}
}

// targetParam picks the parameter receiving the value at the cursor: the
// named one after "name=", else the positional one.
func targetParam(sigs []symbols.Signature, call *analysis.Call, named bool) (symbols.Param, bool) {
	for _, sig := range sigs {
		if named {
			if i := sig.ParamIndex(call.Current); i >= 0 {
				return sig.Params[i], true
			}
			continue
		}
		switch {
		case call.Arg < len(sig.Params):
			return sig.Params[call.Arg], true
		case len(sig.Params) > 0 && sig.Params[len(sig.Params)-1].Variadic:
			return sig.Params[len(sig.Params)-1], true
		}
	}
	return symbols.Param{}, false
}

// values offers literals that fit a parameter: booleans, the constants of
// the namespace its default comes from, colours and user enum members.
func (r *resolver) values(p symbols.Param) {
	t := r.doc.Table
	base := p.BaseType()

	switch base {
	case "bool":
		for _, name := range []string{"true", "false"} {
			c := Candidate{DisplayText: name, Kind: lexer.Constant, Detail: "const bool", Source: SourceBuiltin}
			if e, ok := t.Lookup(name); ok {
				c = entryCandidate(e, name)
			}
			r.add(c)
		}
		return
	case "color":
		r.namespaceConstants("color")
		return
	}

	if d, ok := r.doc.Decls.Type(base); ok && d.Kind == classify.DeclEnum {
		r.enumMembers(d, true)
		return
	}

	if i := strings.LastIndexByte(p.Default, '.'); i > 0 {
		r.namespaceConstants(p.Default[:i])
	}
}

func (r *resolver) namespaceConstants(ns string) {
	for _, e := range r.doc.Table.Members(ns) {
		if e.Kind == symbols.KindConstant {
			c := entryCandidate(e, e.QualifiedName)
			c.Source = SourceBuiltin
			r.add(c)
		}
	}
}

func (r *resolver) annotations() {
	for _, a := range r.doc.Table.Annotations() {
		r.add(Candidate{
			DisplayText:   a.Name,
			Kind:          lexer.Annotation,
			Detail:        "annotation",
			Documentation: a.Doc,
			Source:        SourceBuiltin,
			order:         a.Order,
		})
	}
}

func namespaceCandidate(ns *symbols.Namespace) Candidate {
	return Candidate{
		DisplayText:   ns.Name(),
		Kind:          lexer.Namespace,
		Detail:        "namespace " + ns.Path,
		Documentation: ns.Doc,
		QualifiedName: ns.Path,
		Source:        SourceBuiltin,
		order:         ns.Order,
	}
}

func entryCandidate(e *symbols.Entry, label string) Candidate {
	return Candidate{
		DisplayText:   label,
		Kind:          entryKind(e),
		Detail:        e.Detail(),
		Documentation: e.Doc,
		QualifiedName: e.QualifiedName,
		Source:        SourceBuiltin,
		order:         e.Order,
	}
}

func entryKind(e *symbols.Entry) lexer.Kind {
	switch e.Kind {
	case symbols.KindFunction:
		return lexer.Function
	case symbols.KindVariable:
		return lexer.Variable
	case symbols.KindConstant:
		return lexer.Constant
	case symbols.KindType:
		return lexer.Type
	case symbols.KindKeyword:
		return lexer.Keyword
	default:
		return lexer.Annotation
	}
}

func localCandidate(d *classify.Declaration) Candidate {
	c := Candidate{
		DisplayText:   d.Name,
		Documentation: d.Doc,
		Source:        SourceLocal,
	}
	switch d.Kind {
	case classify.DeclType:
		c.Kind, c.Detail = lexer.Type, "type "+d.Name
	case classify.DeclEnum:
		c.Kind, c.Detail = lexer.Enum, "enum "+d.Name
	case classify.DeclMethod:
		c.Kind, c.Detail = lexer.Method, d.Signature()
	case classify.DeclFunction:
		c.Kind, c.Detail = lexer.Function, d.Signature()
	case classify.DeclVariable:
		c.Kind, c.Detail = lexer.Variable, d.Type+" "+d.Name
	}
	return c
}
