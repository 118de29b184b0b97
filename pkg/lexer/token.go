package lexer

import "fmt"

// Kind is the category of a token. The lexer only ever produces the raw
// kinds (Identifier, Operator, literals, Comment, Annotation, Punctuation,
// Whitespace, EndOfInput); the classifier refines identifiers into the rest.
type Kind uint8

const (
	Whitespace Kind = iota
	Identifier
	Keyword
	Namespace
	Function
	Type
	Enum
	Method
	Annotation
	Operator
	StringLiteral
	NumberLiteral
	ColorLiteral
	Comment
	Punctuation
	Variable
	Constant
	Field
	EnumMember
	Parameter
	EndOfInput
)

var kindNames = [...]string{
	Whitespace:    "Whitespace",
	Identifier:    "Identifier",
	Keyword:       "Keyword",
	Namespace:     "Namespace",
	Function:      "Function",
	Type:          "Type",
	Enum:          "Enum",
	Method:        "Method",
	Annotation:    "Annotation",
	Operator:      "Operator",
	StringLiteral: "StringLiteral",
	NumberLiteral: "NumberLiteral",
	ColorLiteral:  "ColorLiteral",
	Comment:       "Comment",
	Punctuation:   "Punctuation",
	Variable:      "Variable",
	Constant:      "Constant",
	Field:         "Field",
	EnumMember:    "EnumMember",
	Parameter:     "Parameter",
	EndOfInput:    "EndOfInput",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Trivia reports whether tokens of this kind carry no syntax.
func (k Kind) Trivia() bool {
	return k == Whitespace || k == Comment || k == Annotation
}

// Flags mark degraded tokens produced from malformed input.
type Flags uint8

const (
	// Unterminated is set on a string that hit a line break or the end of
	// input before its closing quote, and on a block comment without "*/".
	Unterminated Flags = 1 << iota
	// Malformed is set on unknown characters, bad colour literals and numbers
	// glued to a following identifier.
	Malformed
)

func (f Flags) Has(flag Flags) bool {
	return f&flag != 0
}

// Token is a half-open byte range [Start, End) of the source.
type Token struct {
	Kind  Kind
	Start int
	End   int
	Text  string
	Flags Flags
}

func (t Token) Len() int {
	return t.End - t.Start
}

// Contains reports whether offset falls inside the token. The end offset
// counts as inside so that a cursor right after an identifier belongs to it.
func (t Token) Contains(offset int) bool {
	return offset >= t.Start && offset <= t.End
}

func (t Token) Is(kind Kind, text string) bool {
	return t.Kind == kind && t.Text == text
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d", t.Kind, t.Text, t.Start)
}
