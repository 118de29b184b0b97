package classify

import (
	"slices"
	"sort"
	"strings"

	"github.com/walteh/pinels/pkg/lexer"
)

type DeclKind uint8

const (
	DeclType DeclKind = iota + 1
	DeclEnum
	DeclMethod
	DeclFunction
	DeclVariable
)

func (k DeclKind) String() string {
	switch k {
	case DeclType:
		return "type"
	case DeclEnum:
		return "enum"
	case DeclMethod:
		return "method"
	case DeclFunction:
		return "function"
	case DeclVariable:
		return "variable"
	default:
		return "unknown"
	}
}

// Member is a field of a type, a member of an enum or a parameter of a
// function or method.
type Member struct {
	Name    string
	Type    string
	Default string
	Doc     string
	Start   int
	End     int
}

// Declaration is a user-authored name found in the document.
type Declaration struct {
	Name  string
	Kind  DeclKind
	Start int
	End   int
	// Members holds fields, enum members or parameters in source order.
	Members []Member
	// Receiver is the base type a method is declared on.
	Receiver string
	// Type is the declared type of a variable.
	Type     string
	Exported bool
	Doc      string
	Returns  string
	// BodyStart and BodyEnd bound the offsets where the parameters of a
	// function or method are in scope.
	BodyStart int
	BodyEnd   int
}

func (d *Declaration) Member(name string) (*Member, bool) {
	for i := range d.Members {
		if d.Members[i].Name == name {
			return &d.Members[i], true
		}
	}
	return nil, false
}

// Signature renders a function or method header.
func (d *Declaration) Signature() string {
	parts := make([]string, len(d.Members))
	for i, m := range d.Members {
		p := m.Name
		if m.Type != "" {
			p = m.Type + " " + p
		}
		if m.Default != "" {
			p += " = " + m.Default
		}
		parts[i] = p
	}
	prefix := ""
	if d.Kind == DeclMethod {
		prefix = "method "
	}
	return prefix + d.Name + "(" + strings.Join(parts, ", ") + ")"
}

type definition struct {
	kind   lexer.Kind
	decl   *Declaration
	member *Member
}

// Declarations indexes every declaration of one document. It is built by
// Collect and read-only afterwards.
type Declarations struct {
	all       []*Declaration
	named     map[string]*Declaration
	methods   map[string][]*Declaration
	variables map[string]*Declaration
	assigned  map[string]bool
	defs      map[int]definition
}

func newDeclarations() *Declarations {
	return &Declarations{
		named:     map[string]*Declaration{},
		methods:   map[string][]*Declaration{},
		variables: map[string]*Declaration{},
		assigned:  map[string]bool{},
		defs:      map[int]definition{},
	}
}

// All returns the declarations in document order.
func (d *Declarations) All() []*Declaration {
	return d.all
}

// Lookup finds a type, enum or function by name.
func (d *Declarations) Lookup(name string) (*Declaration, bool) {
	decl, ok := d.named[name]
	return decl, ok
}

// Type finds a user type or enum by name.
func (d *Declarations) Type(name string) (*Declaration, bool) {
	decl, ok := d.named[name]
	if !ok || (decl.Kind != DeclType && decl.Kind != DeclEnum) {
		return nil, false
	}
	return decl, true
}

func (d *Declarations) MethodsNamed(name string) []*Declaration {
	return d.methods[name]
}

// MethodsOf lists methods whose receiver has the given base type, sorted by
// name.
func (d *Declarations) MethodsOf(receiver string) []*Declaration {
	var out []*Declaration
	for _, decl := range d.all {
		if decl.Kind == DeclMethod && decl.Receiver == receiver {
			out = append(out, decl)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (d *Declarations) Variable(name string) (*Declaration, bool) {
	decl, ok := d.variables[name]
	return decl, ok
}

// Assigned reports whether name is the target of a plain "name = ..."
// assignment whose type could not be inferred.
func (d *Declarations) Assigned(name string) bool {
	return d.assigned[name]
}

// Parameter finds the parameter called name of the function or method whose
// body contains offset.
func (d *Declarations) Parameter(name string, offset int) (*Declaration, *Member, bool) {
	for _, decl := range d.all {
		if decl.Kind != DeclFunction && decl.Kind != DeclMethod {
			continue
		}
		if offset < decl.BodyStart || offset >= decl.BodyEnd {
			continue
		}
		if m, ok := decl.Member(name); ok {
			return decl, m, true
		}
	}
	return nil, nil, false
}

func (d *Declarations) add(decl *Declaration, kind lexer.Kind) {
	d.all = append(d.all, decl)
	d.defs[decl.Start] = definition{kind: kind, decl: decl}
	switch decl.Kind {
	case DeclMethod:
		d.methods[decl.Name] = append(d.methods[decl.Name], decl)
	case DeclVariable:
		if _, ok := d.variables[decl.Name]; !ok {
			d.variables[decl.Name] = decl
		}
	default:
		if _, ok := d.named[decl.Name]; !ok {
			d.named[decl.Name] = decl
		}
	}
}

func (d *Declarations) defineMembers(decl *Declaration, kind lexer.Kind) {
	for i := range decl.Members {
		m := &decl.Members[i]
		d.defs[m.Start] = definition{kind: kind, decl: decl, member: m}
	}
}

// line is one source line reduced to its code tokens and annotation tags.
type line struct {
	indented bool
	code     []lexer.Token
	tags     []tag
}

type tag struct {
	name string
	text string
}

func splitLines(tokens []lexer.Token) []line {
	var lines []line
	cur := line{}
	for i, t := range tokens {
		switch t.Kind {
		case lexer.Whitespace:
			nl := strings.LastIndexAny(t.Text, "\r\n")
			if nl < 0 {
				if i == 0 {
					cur.indented = true
				}
				continue
			}
			lines = append(lines, cur)
			cur = line{indented: nl < len(t.Text)-1}
		case lexer.Annotation:
			tg := tag{name: t.Text}
			if i+1 < len(tokens) && tokens[i+1].Kind == lexer.Comment {
				tg.text = strings.TrimSpace(tokens[i+1].Text)
			}
			cur.tags = append(cur.tags, tg)
		case lexer.Comment, lexer.EndOfInput:
		default:
			cur.code = append(cur.code, t)
		}
	}
	return append(lines, cur)
}

// Collect indexes the declarations of a whole document. It runs before
// classification so that references may precede their declaration.
func Collect(tokens []lexer.Token) *Declarations {
	d := newDeclarations()
	lines := splitLines(tokens)

	var docs []tag
	for i := 0; i < len(lines); i++ {
		ln := lines[i]
		if len(ln.code) == 0 {
			docs = append(docs, ln.tags...)
			continue
		}
		if !ln.indented {
			if next, ok := d.topLevel(lines, i, docs); ok {
				i = next - 1
				docs = nil
				continue
			}
		}
		d.variable(ln.code, docs)
		docs = nil
	}
	return d
}

// topLevel recognises type, enum, method and function headers. It returns
// the index of the first line after the declaration.
func (d *Declarations) topLevel(lines []line, i int, docs []tag) (int, bool) {
	code := lines[i].code
	exported := false
	if code[0].Is(lexer.Identifier, "export") && len(code) > 1 {
		code = code[1:]
		exported = true
	}
	if len(code) < 2 || code[0].Kind != lexer.Identifier {
		return 0, false
	}

	switch {
	case code[0].Text == "type" && code[1].Kind == lexer.Identifier:
		decl := declFrom(code[1], DeclType, exported)
		next := collectBlock(lines, i+1, func(c []lexer.Token) {
			if m, ok := parseField(c); ok {
				decl.Members = append(decl.Members, m)
			}
		})
		applyDocs(decl, docs, "@type")
		d.add(decl, lexer.Type)
		d.defineMembers(decl, lexer.Field)
		return next, true

	case code[0].Text == "enum" && code[1].Kind == lexer.Identifier:
		decl := declFrom(code[1], DeclEnum, exported)
		next := collectBlock(lines, i+1, func(c []lexer.Token) {
			if m, ok := parseEnumMember(c); ok {
				decl.Members = append(decl.Members, m)
			}
		})
		applyDocs(decl, docs, "@enum")
		d.add(decl, lexer.Enum)
		d.defineMembers(decl, lexer.EnumMember)
		return next, true

	case code[0].Text == "method" && len(code) >= 3 && code[1].Kind == lexer.Identifier && code[2].Is(lexer.Punctuation, "("):
		params, ok := parseParams(code, 2)
		if !ok {
			return 0, false
		}
		decl := declFrom(code[1], DeclMethod, exported)
		decl.Members = params
		if len(params) > 0 {
			decl.Receiver = baseType(params[0].Type)
		}
		applyDocs(decl, docs, "@function")
		bodyScope(decl, lines, i, code)
		d.add(decl, lexer.Method)
		d.defineMembers(decl, lexer.Parameter)
		return i + 1, true

	case code[1].Is(lexer.Punctuation, "("):
		params, ok := parseParams(code, 1)
		if !ok {
			return 0, false
		}
		decl := declFrom(code[0], DeclFunction, exported)
		decl.Members = params
		applyDocs(decl, docs, "@function")
		bodyScope(decl, lines, i, code)
		d.add(decl, lexer.Function)
		d.defineMembers(decl, lexer.Parameter)
		return i + 1, true
	}
	return 0, false
}

// bodyScope spans the rest of the header line after "=>" and the indented
// lines that follow it. The body lines are still scanned as statements.
func bodyScope(decl *Declaration, lines []line, i int, header []lexer.Token) {
	arrow := slices.IndexFunc(header, func(t lexer.Token) bool { return t.Is(lexer.Operator, "=>") })
	if arrow < 0 {
		return
	}
	decl.BodyStart = header[arrow].End
	decl.BodyEnd = header[len(header)-1].End
	collectBlock(lines, i+1, func(c []lexer.Token) {
		decl.BodyEnd = c[len(c)-1].End
	})
}

var statementWords = map[string]bool{
	"if": true, "else": true, "for": true, "while": true, "switch": true, "and": true, "or": true,
	"not": true, "import": true, "export": true, "method": true, "type": true, "enum": true, "return": true,
}

// variable recognises "[var|varip] T name = ..." and "name = T.new(...)".
func (d *Declarations) variable(code []lexer.Token, docs []tag) {
	start := 0
	if code[0].Is(lexer.Identifier, "var") || code[0].Is(lexer.Identifier, "varip") {
		start = 1
	}
	eq := -1
	for j := start; j < len(code); j++ {
		if code[j].Is(lexer.Operator, "=") {
			eq = j
			break
		}
	}
	if eq <= start || code[eq-1].Kind != lexer.Identifier || code[start].Kind != lexer.Identifier || statementWords[code[start].Text] {
		return
	}

	typ := ""
	if eq-1 > start {
		if !isTypeExpr(code[start : eq-1]) {
			return
		}
		typ = joinTokens(code[start : eq-1])
	} else {
		typ = constructedType(code[eq+1:])
	}
	if typ == "" {
		if eq == start+1 {
			d.assigned[code[start].Text] = true
		}
		return
	}

	decl := declFrom(code[eq-1], DeclVariable, false)
	decl.Type = typ
	applyDocs(decl, docs, "@variable")
	d.add(decl, lexer.Variable)
}

// constructedType recognises T.new(...), T.new<...>(...) and the typed
// array.new_float(...) family on the right-hand side of an assignment.
func constructedType(rhs []lexer.Token) string {
	if len(rhs) < 4 || rhs[0].Kind != lexer.Identifier || !rhs[1].Is(lexer.Punctuation, ".") || rhs[2].Kind != lexer.Identifier {
		return ""
	}
	owner, ctor := rhs[0].Text, rhs[2].Text
	switch {
	case ctor == "new" && rhs[3].Is(lexer.Operator, "<"):
		for j := 4; j < len(rhs); j++ {
			if rhs[j].Is(lexer.Operator, ">") {
				return owner + joinTokens(rhs[3:j+1])
			}
		}
		return owner
	case ctor == "new" || ctor == "copy":
		return owner
	case strings.HasPrefix(ctor, "new_"):
		return owner + "<" + strings.TrimPrefix(ctor, "new_") + ">"
	}
	return ""
}

func isTypeExpr(toks []lexer.Token) bool {
	for _, t := range toks {
		switch {
		case t.Kind == lexer.Identifier:
		case t.Kind == lexer.Punctuation && strings.Contains(".,[]", t.Text):
		case t.Is(lexer.Operator, "<"), t.Is(lexer.Operator, ">"):
		default:
			return false
		}
	}
	return true
}

// collectBlock feeds every indented line after start to fn and returns the
// index following the last one consumed.
func collectBlock(lines []line, start int, fn func([]lexer.Token)) int {
	end := start
	for j := start; j < len(lines); j++ {
		if len(lines[j].code) == 0 {
			continue
		}
		if !lines[j].indented {
			break
		}
		fn(lines[j].code)
		end = j + 1
	}
	return end
}

func parseField(code []lexer.Token) (Member, bool) {
	if code[0].Is(lexer.Identifier, "varip") {
		code = code[1:]
	}
	nameIdx, def := len(code)-1, ""
	for j, t := range code {
		if t.Is(lexer.Operator, "=") {
			nameIdx = j - 1
			def = joinTokens(code[j+1:])
			break
		}
	}
	if nameIdx < 1 || code[nameIdx].Kind != lexer.Identifier {
		return Member{}, false
	}
	return Member{
		Name:    code[nameIdx].Text,
		Type:    joinTokens(code[:nameIdx]),
		Default: def,
		Start:   code[nameIdx].Start,
		End:     code[nameIdx].End,
	}, true
}

func parseEnumMember(code []lexer.Token) (Member, bool) {
	if code[0].Kind != lexer.Identifier {
		return Member{}, false
	}
	m := Member{Name: code[0].Text, Start: code[0].Start, End: code[0].End}
	if len(code) >= 3 && code[1].Is(lexer.Operator, "=") && code[2].Kind == lexer.StringLiteral {
		m.Doc = strings.Trim(code[2].Text, `"'`)
	}
	return m, true
}

// parseParams reads the parameter list opening at code[open] and requires
// "=>" right after the closing parenthesis.
func parseParams(code []lexer.Token, open int) ([]Member, bool) {
	var (
		params  []Member
		current []lexer.Token
		depth   int
	)
	flush := func() {
		if m, ok := parseParam(current); ok {
			params = append(params, m)
		}
		current = nil
	}
	for j := open + 1; j < len(code); j++ {
		t := code[j]
		switch {
		case t.Is(lexer.Punctuation, "(") || t.Is(lexer.Punctuation, "[") || t.Is(lexer.Operator, "<"):
			depth++
		case t.Is(lexer.Punctuation, "]") || t.Is(lexer.Operator, ">"):
			depth--
		case t.Is(lexer.Punctuation, ")"):
			if depth > 0 {
				depth--
				break
			}
			flush()
			if j+1 < len(code) && code[j+1].Is(lexer.Operator, "=>") {
				return params, true
			}
			return nil, false
		case t.Is(lexer.Punctuation, ",") && depth == 0:
			flush()
			continue
		}
		current = append(current, t)
	}
	return nil, false
}

func parseParam(toks []lexer.Token) (Member, bool) {
	if len(toks) == 0 {
		return Member{}, false
	}
	nameIdx, def := len(toks)-1, ""
	for j, t := range toks {
		if t.Is(lexer.Operator, "=") {
			nameIdx = j - 1
			def = joinTokens(toks[j+1:])
			break
		}
	}
	if nameIdx < 0 || toks[nameIdx].Kind != lexer.Identifier {
		return Member{}, false
	}
	return Member{
		Name:    toks[nameIdx].Text,
		Type:    joinTokens(toks[:nameIdx]),
		Default: def,
		Start:   toks[nameIdx].Start,
		End:     toks[nameIdx].End,
	}, true
}

func declFrom(name lexer.Token, kind DeclKind, exported bool) *Declaration {
	return &Declaration{Name: name.Text, Kind: kind, Start: name.Start, End: name.End, Exported: exported}
}

// applyDocs attaches "//@tag description" comments preceding a declaration.
func applyDocs(decl *Declaration, docs []tag, main string) {
	for _, tg := range docs {
		switch tg.name {
		case main, "@description":
			decl.Doc = tg.text
		case "@returns":
			decl.Returns = tg.text
		case "@param", "@field":
			name, desc, _ := strings.Cut(tg.text, " ")
			if m, ok := decl.Member(name); ok {
				m.Doc = strings.TrimSpace(desc)
			}
		}
	}
}

// joinTokens rebuilds source-like text from tokens, putting a single space
// between adjacent words and after commas.
func joinTokens(toks []lexer.Token) string {
	var sb strings.Builder
	for j, t := range toks {
		if j > 0 {
			prev := toks[j-1]
			if (prev.Kind == lexer.Identifier && t.Kind == lexer.Identifier) || prev.Is(lexer.Punctuation, ",") {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(t.Text)
	}
	return sb.String()
}

func baseType(typ string) string {
	if i := strings.LastIndexByte(typ, ' '); i >= 0 {
		typ = typ[i+1:]
	}
	if i := strings.IndexByte(typ, '<'); i >= 0 {
		typ = typ[:i]
	}
	return strings.TrimSuffix(typ, "[]")
}
