package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type state uint8

const (
	stateDefault state = iota
	stateLineComment
	stateBlockComment
	stateString
	stateAnnotationTag
)

var twoCharOperators = [...]string{":=", "=>", "==", "!=", "<=", ">=", "+=", "-=", "*=", "/=", "%="}

const (
	oneCharOperators = "+-*/%=<>?:!"
	punctuation      = "()[]{},.;"
)

// Lexer scans one source text. It is a single left-to-right pass where every
// step emits at most one token and picks the next state.
type Lexer struct {
	src    string
	pos    int
	state  state
	delim  byte
	tokens []Token
}

// Tokenize splits src into contiguous tokens ending with a zero-length
// EndOfInput token. It never fails: malformed input yields flagged tokens.
func Tokenize(src string) []Token {
	l := &Lexer{src: src, tokens: make([]Token, 0, len(src)/3+1)}
	for l.pos < len(l.src) {
		l.step()
	}
	l.tokens = append(l.tokens, Token{Kind: EndOfInput, Start: len(src), End: len(src)})
	return l.tokens
}

func (l *Lexer) step() {
	switch l.state {
	case stateLineComment:
		l.lexLineComment()
	case stateBlockComment:
		l.lexBlockComment()
	case stateString:
		l.lexString()
	case stateAnnotationTag:
		l.lexAnnotationTag()
	default:
		l.lexDefault()
	}
}

func (l *Lexer) emit(kind Kind, end int, flags Flags) {
	l.tokens = append(l.tokens, Token{
		Kind:  kind,
		Start: l.pos,
		End:   end,
		Text:  l.src[l.pos:end],
		Flags: flags,
	})
	l.pos = end
}

func (l *Lexer) peek(off int) byte {
	if l.pos+off < len(l.src) {
		return l.src[l.pos+off]
	}
	return 0
}

func (l *Lexer) lexDefault() {
	c := l.src[l.pos]
	switch {
	case isSpace(c):
		end := l.pos
		for end < len(l.src) && isSpace(l.src[end]) {
			end++
		}
		l.emit(Whitespace, end, 0)
	case c == '/' && l.peek(1) == '/':
		end := l.pos + 2
		for end < len(l.src) && (l.src[end] == ' ' || l.src[end] == '\t') {
			end++
		}
		if end < len(l.src) && l.src[end] == '@' {
			l.emit(Comment, end, 0)
			l.state = stateAnnotationTag
			return
		}
		l.state = stateLineComment
	case c == '/' && l.peek(1) == '*':
		l.state = stateBlockComment
	case c == '"' || c == '\'':
		l.delim = c
		l.state = stateString
	case isDigit(c) || (c == '.' && isDigit(l.peek(1)) && !l.afterOperand()):
		l.lexNumber()
	case c == '#':
		l.lexColor()
	case isIdentStart(c):
		l.emit(Identifier, l.scanIdent(l.pos), 0)
	case c >= utf8.RuneSelf:
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if r != utf8.RuneError && unicode.IsLetter(r) {
			l.emit(Identifier, l.scanIdent(l.pos), 0)
			return
		}
		l.emit(Punctuation, l.pos+size, Malformed)
	default:
		l.lexOperator()
	}
}

func (l *Lexer) lexOperator() {
	rest := l.src[l.pos:]
	for _, op := range twoCharOperators {
		if strings.HasPrefix(rest, op) {
			l.emit(Operator, l.pos+2, 0)
			return
		}
	}
	c := rest[0]
	switch {
	case strings.IndexByte(oneCharOperators, c) >= 0:
		l.emit(Operator, l.pos+1, 0)
	case strings.IndexByte(punctuation, c) >= 0:
		l.emit(Punctuation, l.pos+1, 0)
	default:
		l.emit(Punctuation, l.pos+1, Malformed)
	}
}

func (l *Lexer) lexLineComment() {
	end := l.pos
	for end < len(l.src) && l.src[end] != '\n' && l.src[end] != '\r' {
		end++
	}
	l.state = stateDefault
	if end > l.pos {
		l.emit(Comment, end, 0)
	}
}

func (l *Lexer) lexBlockComment() {
	l.state = stateDefault
	if idx := strings.Index(l.src[l.pos+2:], "*/"); idx >= 0 {
		l.emit(Comment, l.pos+2+idx+2, 0)
		return
	}
	l.emit(Comment, len(l.src), Unterminated)
}

// lexAnnotationTag emits "@word" and hands the rest of the line to the
// comment state.
func (l *Lexer) lexAnnotationTag() {
	end := l.pos + 1
	for end < len(l.src) && isIdentPart(l.src[end]) {
		end++
	}
	l.emit(Annotation, end, 0)
	l.state = stateLineComment
}

func (l *Lexer) lexString() {
	l.state = stateDefault
	i := l.pos + 1
	for i < len(l.src) {
		switch c := l.src[i]; {
		case c == '\\':
			if i+1 < len(l.src) && !isLineBreak(l.src[i+1]) {
				i += 2
				continue
			}
			i++
		case isLineBreak(c):
			l.emit(StringLiteral, i, Unterminated)
			return
		case c == l.delim:
			l.emit(StringLiteral, i+1, 0)
			return
		default:
			i++
		}
	}
	l.emit(StringLiteral, len(l.src), Unterminated)
}

func (l *Lexer) lexNumber() {
	end := l.scanDigits(l.pos)
	if end < len(l.src) && l.src[end] == '.' && end+1 < len(l.src) && isDigit(l.src[end+1]) {
		end = l.scanDigits(end + 1)
	}
	if end < len(l.src) && (l.src[end] == 'e' || l.src[end] == 'E') {
		exp := end + 1
		if exp < len(l.src) && (l.src[exp] == '+' || l.src[exp] == '-') {
			exp++
		}
		if exp < len(l.src) && isDigit(l.src[exp]) {
			end = l.scanDigits(exp)
		}
	}
	var flags Flags
	if end < len(l.src) && isIdentStart(l.src[end]) {
		flags = Malformed
	}
	l.emit(NumberLiteral, end, flags)
}

func (l *Lexer) lexColor() {
	end := l.pos + 1
	for end < len(l.src) && isHex(l.src[end]) {
		end++
	}
	n := end - l.pos - 1
	if (n == 6 || n == 8) && (end == len(l.src) || !isIdentPart(l.src[end])) {
		l.emit(ColorLiteral, end, 0)
		return
	}
	l.emit(Punctuation, l.pos+1, Malformed)
}

func (l *Lexer) scanDigits(i int) int {
	for i < len(l.src) && isDigit(l.src[i]) {
		i++
	}
	return i
}

func (l *Lexer) scanIdent(i int) int {
	for i < len(l.src) {
		c := l.src[i]
		if c < utf8.RuneSelf {
			if !isIdentPart(c) {
				return i
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(l.src[i:])
		if r == utf8.RuneError || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return i
		}
		i += size
	}
	return i
}

// afterOperand reports whether the last significant token ends an operand,
// in which case a following '.' is member access and not a number.
func (l *Lexer) afterOperand() bool {
	for i := len(l.tokens) - 1; i >= 0; i-- {
		t := l.tokens[i]
		if t.Kind == Whitespace {
			return false
		}
		switch t.Kind {
		case Identifier, NumberLiteral, StringLiteral, ColorLiteral:
			return true
		case Punctuation:
			return t.Text == ")" || t.Text == "]"
		default:
			return false
		}
	}
	return false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isLineBreak(c byte) bool {
	return c == '\n' || c == '\r'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
