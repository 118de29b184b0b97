/*
Token Types and Modifiers:
------------------------
This file defines the legend shared with the client.

	+-------------+     +-----------+
	| TokenType   | --> | Position  |
	+-------------+     +-----------+
	      |                  |
	      v                  v
	[Namespace,        [Offset, Text]
	 Function,
	 Keyword,
	 etc.]

The numeric value of a TokenType is its index in TokenTypes; modifiers are
bit flags in the order of TokenModifiers.
*/
package semtok

import (
	"github.com/walteh/pinels/pkg/position"
)

// TokenType represents the semantic meaning of a token
type TokenType uint32

const (
	TokenNamespace TokenType = iota
	TokenTypeName
	TokenEnum
	TokenFunction
	TokenMethod
	TokenVariable
	TokenParameter
	TokenProperty
	TokenEnumMember
	TokenKeyword
	TokenDecorator
	TokenOperator
	TokenString
	TokenNumber
	TokenComment
)

// TokenTypes is the legend advertised in the server capabilities.
var TokenTypes = []string{
	"namespace",
	"type",
	"enum",
	"function",
	"method",
	"variable",
	"parameter",
	"property",
	"enumMember",
	"keyword",
	"decorator",
	"operator",
	"string",
	"number",
	"comment",
}

func (t TokenType) String() string {
	if int(t) < len(TokenTypes) {
		return TokenTypes[t]
	}
	return "unknown"
}

// TokenModifier represents additional characteristics of a token
type TokenModifier uint32

const (
	ModifierNone        TokenModifier = 0
	ModifierDeclaration TokenModifier = 1 << (iota - 1)
	ModifierReadonly
	ModifierDefaultLibrary
)

var TokenModifiers = []string{
	"declaration",
	"readonly",
	"defaultLibrary",
}

func (m TokenModifier) String() string {
	if m == ModifierNone {
		return "none"
	}
	out := ""
	for i, name := range TokenModifiers {
		if m&(1<<i) != 0 {
			if out != "" {
				out += "|"
			}
			out += name
		}
	}
	return out
}

// Token represents a semantic token with its type, modifiers, and position
type Token struct {
	Type     TokenType
	Modifier TokenModifier
	Range    position.RawPosition
}
