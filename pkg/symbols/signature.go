package symbols

import (
	"strings"
	"sync"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"gitlab.com/tozd/go/errors"
)

// Catalog signatures are written the way the reference manual shows them:
//
//	sma(source: series float, length: series int) -> series float
//	label.new(x: series int, y: series float, text?: series string = "") -> series label
//	max(number...: series float) -> series float
var (
	signatureRules = lexer.Rules{
		"Root": {
			{Name: "whitespace", Pattern: `\s+`, Action: nil},
			{Name: "String", Pattern: `"(?:\\.|[^"])*"`, Action: nil},
			{Name: "Color", Pattern: `#[0-9a-fA-F]{6,8}`, Action: nil},
			{Name: "Number", Pattern: `\d+(?:\.\d+)?`, Action: nil},
			{Name: "Arrow", Pattern: `->`, Action: nil},
			{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`, Action: nil},
			{Name: "Punct", Pattern: `[(),:=<>\[\]?./\-]`, Action: nil},
		},
	}

	signatureLexer = lexer.MustStateful(signatureRules)
)

type signatureNode struct {
	Name       string       `parser:"@Ident"`
	TypeParams []string     `parser:"( '<' @Ident ( ',' @Ident )* '>' )?"`
	Params     []*paramNode `parser:"'(' ( @@ ( ',' @@ )* )? ')'"`
	Returns    *returnNode  `parser:"( Arrow @@ )?"`
}

// returnNode is a single type or a tuple such as [series float, series float].
type returnNode struct {
	Tuple  []*typeNode `parser:"  '[' @@ ( ',' @@ )* ']'"`
	Single *typeNode   `parser:"| @@"`
}

func (r *returnNode) String() string {
	if r == nil {
		return ""
	}
	if r.Single != nil {
		return r.Single.String()
	}
	parts := make([]string, len(r.Tuple))
	for i, t := range r.Tuple {
		parts[i] = t.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

type paramNode struct {
	Name     string    `parser:"@Ident"`
	Variadic bool      `parser:"@( '.' '.' '.' )?"`
	Optional bool      `parser:"@'?'?"`
	Type     *typeNode `parser:"( ':' @@ )?"`
	Default  string    `parser:"( '=' @( String | Color | '-'? Number | Ident ( '.' Ident )* ) )?"`
}

type typeNode struct {
	Qualifier string      `parser:"@( 'series' | 'simple' | 'input' | 'const' )?"`
	Name      string      `parser:"@Ident ( @( '.' | '/' ) @Ident )*"`
	Args      []*typeNode `parser:"( '<' @@ ( ',' @@ )* '>' )?"`
	Array     bool        `parser:"@( '[' ']' )?"`
}

func (t *typeNode) String() string {
	if t == nil {
		return ""
	}
	var sb strings.Builder
	if t.Qualifier != "" {
		sb.WriteString(t.Qualifier)
		sb.WriteByte(' ')
	}
	sb.WriteString(t.Name)
	if len(t.Args) > 0 {
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = a.String()
		}
		sb.WriteString("<" + strings.Join(args, ", ") + ">")
	}
	if t.Array {
		sb.WriteString("[]")
	}
	return sb.String()
}

var signatureParser = sync.OnceValue(func() *participle.Parser[signatureNode] {
	return participle.MustBuild[signatureNode](
		participle.Lexer(signatureLexer),
		participle.Elide("whitespace"),
		participle.UseLookahead(2),
	)
})

// ParseSignature parses one catalog signature line into the bare function
// name and its Signature.
func ParseSignature(src string) (string, Signature, error) {
	node, err := signatureParser().ParseString("", src)
	if err != nil {
		return "", Signature{}, errors.Errorf("parsing signature %q: %w", src, err)
	}

	sig := Signature{
		Params:  make([]Param, 0, len(node.Params)),
		Returns: node.Returns.String(),
	}
	seen := map[string]bool{}
	for i, p := range node.Params {
		if seen[p.Name] {
			return "", Signature{}, errors.Errorf("signature %q: duplicate parameter %q", src, p.Name)
		}
		seen[p.Name] = true
		if p.Variadic && i != len(node.Params)-1 {
			return "", Signature{}, errors.Errorf("signature %q: variadic parameter %q must be last", src, p.Name)
		}
		sig.Params = append(sig.Params, Param{
			Name:     p.Name,
			Type:     p.Type.String(),
			Default:  p.Default,
			Optional: p.Optional || p.Default != "",
			Variadic: p.Variadic,
		})
	}

	return node.Name, sig, nil
}

func sameParams(a, b Signature) bool {
	if len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if a.Params[i].Name != b.Params[i].Name || a.Params[i].Type != b.Params[i].Type {
			return false
		}
	}
	return true
}
