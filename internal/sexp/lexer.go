package sexp

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokLParen
	tokRParen
	tokName
	tokInt
	tokChar
	tokEndMarker
	tokFlag
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokName:
		return "name"
	case tokInt:
		return "integer"
	case tokChar:
		return "character literal"
	case tokEndMarker:
		return "<EOF>"
	case tokFlag:
		return "flag"
	default:
		return "token"
	}
}

// Pos is a 1-based line and column in the description text.
type Pos struct {
	Line int
	Col  int
}

type token struct {
	kind tokenKind
	text string
	char rune
	pos  Pos
}

type lexer struct {
	src  []byte
	off  int
	line int
	col  int
}

func newLexer(src []byte) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

func (lx *lexer) pos() Pos { return Pos{Line: lx.line, Col: lx.col} }

func (lx *lexer) peekRune() (rune, int) {
	if lx.off >= len(lx.src) {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRune(lx.src[lx.off:])
}

func (lx *lexer) advance() rune {
	r, w := lx.peekRune()
	if w == 0 {
		return utf8.RuneError
	}
	lx.off += w
	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	return r
}

func (lx *lexer) skipTrivia() {
	for lx.off < len(lx.src) {
		r, _ := lx.peekRune()
		switch {
		case r == ';':
			for lx.off < len(lx.src) {
				if lx.advance() == '\n' {
					break
				}
			}
		case unicode.IsSpace(r):
			lx.advance()
		default:
			return
		}
	}
}

func isNameRune(r rune) bool {
	return r == '_' || r == '-' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (lx *lexer) next() (token, error) {
	lx.skipTrivia()
	start := lx.pos()
	if lx.off >= len(lx.src) {
		return token{kind: tokEOF, pos: start}, nil
	}

	r, _ := lx.peekRune()
	switch {
	case r == '(':
		lx.advance()
		return token{kind: tokLParen, text: "(", pos: start}, nil
	case r == ')':
		lx.advance()
		return token{kind: tokRParen, text: ")", pos: start}, nil
	case r == '\'':
		return lx.lexChar(start)
	case r == '"':
		return lx.lexQuotedName(start)
	case r == '<':
		return lx.lexEndMarker(start)
	case r == ':':
		lx.advance()
		name := lx.lexWhile(isNameRune)
		if name == "" {
			return token{}, errorf(start, "expected flag name after ':'")
		}
		return token{kind: tokFlag, text: name, pos: start}, nil
	case r >= '0' && r <= '9':
		return token{kind: tokInt, text: lx.lexWhile(isNameRune), pos: start}, nil
	case isNameRune(r):
		return token{kind: tokName, text: lx.lexWhile(isNameRune), pos: start}, nil
	default:
		return token{}, errorf(start, "unexpected character %q", r)
	}
}

func (lx *lexer) lexWhile(pred func(rune) bool) string {
	var sb strings.Builder
	for lx.off < len(lx.src) {
		r, _ := lx.peekRune()
		if !pred(r) {
			break
		}
		sb.WriteRune(lx.advance())
	}
	return sb.String()
}

func (lx *lexer) lexEndMarker(start Pos) (token, error) {
	const marker = "<EOF>"
	if !strings.HasPrefix(string(lx.src[lx.off:]), marker) {
		return token{}, errorf(start, "expected %s", marker)
	}
	for range marker {
		lx.advance()
	}
	return token{kind: tokEndMarker, text: marker, pos: start}, nil
}

func (lx *lexer) lexChar(start Pos) (token, error) {
	lx.advance() // '
	if lx.off >= len(lx.src) {
		return token{}, errorf(start, "unterminated character literal")
	}
	r := lx.advance()
	if r == '\\' {
		if lx.off >= len(lx.src) {
			return token{}, errorf(start, "unterminated character literal")
		}
		esc := lx.advance()
		switch esc {
		case 'n':
			r = '\n'
		case 't':
			r = '\t'
		case 'r':
			r = '\r'
		case '\\', '\'':
			r = esc
		default:
			return token{}, errorf(start, "unknown escape \\%c", esc)
		}
	} else if r == '\'' {
		return token{}, errorf(start, "empty character literal")
	}
	if lx.off >= len(lx.src) || lx.advance() != '\'' {
		return token{}, errorf(start, "unterminated character literal")
	}
	if r == 0 {
		return token{}, errorf(start, "NUL lookahead is written as <EOF>")
	}
	return token{kind: tokChar, char: r, pos: start}, nil
}

// IsPlainName reports whether name can be written without quotes.
func IsPlainName(name string) bool {
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		return false
	}
	for _, r := range name {
		if !isNameRune(r) {
			return false
		}
	}
	return true
}

// QuoteName returns name as it is written in the description format: bare
// when plain, otherwise in double quotes with '"' and '\\' escaped.
func QuoteName(name string) string {
	if IsPlainName(name) {
		return name
	}
	var sb strings.Builder
	sb.Grow(len(name) + 2)
	sb.WriteByte('"')
	for _, r := range name {
		if r == '"' || r == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	sb.WriteByte('"')
	return sb.String()
}

func (lx *lexer) lexQuotedName(start Pos) (token, error) {
	lx.advance() // "
	var sb strings.Builder
	for {
		if lx.off >= len(lx.src) {
			return token{}, errorf(start, "unterminated quoted name")
		}
		r := lx.advance()
		switch r {
		case '"':
			if sb.Len() == 0 {
				return token{}, errorf(start, "empty quoted name")
			}
			return token{kind: tokName, text: sb.String(), pos: start}, nil
		case '\\':
			if lx.off >= len(lx.src) {
				return token{}, errorf(start, "unterminated quoted name")
			}
			esc := lx.advance()
			if esc != '"' && esc != '\\' {
				return token{}, errorf(start, "unknown escape \\%c in quoted name", esc)
			}
			sb.WriteRune(esc)
		default:
			sb.WriteRune(r)
		}
	}
}
