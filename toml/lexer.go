package toml

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// lexer splits a TOML document into tokens
type lexer struct {
	input []byte
	pos   int // byte offset of the next unread rune
	line  int
	col   int
}

func newLexer(input []byte) *lexer {
	return &lexer{
		input: input,
		line:  1,
	}
}

// next returns the next token in the stream
func (l *lexer) next() token {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return l.newToken(tokEOF, "")
	}

	ch := l.peek()

	// Newlines terminate key/value statements
	if ch == '\n' {
		l.advance()
		return l.newToken(tokNewline, "\n")
	}

	if ch == '#' {
		return l.readComment()
	}

	switch ch {
	case '=':
		l.advance()
		return l.newToken(tokEqual, "=")
	case '.':
		l.advance()
		return l.newToken(tokDot, ".")
	case ',':
		l.advance()
		return l.newToken(tokComma, ",")
	case '[':
		l.advance()
		return l.newToken(tokLBracket, "[")
	case ']':
		l.advance()
		return l.newToken(tokRBracket, "]")
	case '{':
		l.advance()
		return l.newToken(tokLBrace, "{")
	case '}':
		l.advance()
		return l.newToken(tokRBrace, "}")
	case '"':
		if l.hasPrefix(`"""`) {
			return l.readMultilineString('"')
		}
		return l.readBasicString()
	case '\'':
		if l.hasPrefix("'''") {
			return l.readMultilineString('\'')
		}
		return l.readLiteralString()
	}

	if isDigit(ch) || ch == '+' || ch == '-' || isAlpha(ch) || ch == '_' {
		return l.readBareOrNumber()
	}

	l.advance()
	return l.newToken(tokError, fmt.Sprintf("unexpected character: %c", ch))
}

func (l *lexer) newToken(kind tokenKind, text string) token {
	return token{kind: kind, text: text, line: l.line, col: l.col}
}

func (l *lexer) advance() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, w := utf8.DecodeRune(l.input[l.pos:])
	l.pos += w
	if r == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return r
}

func (l *lexer) peek() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRune(l.input[l.pos:])
	return r
}

func (l *lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		ch := l.peek()
		if ch != ' ' && ch != '\t' && ch != '\r' {
			return
		}
		l.advance()
	}
}

func (l *lexer) readComment() token {
	l.advance() // '#'
	start := l.pos
	for l.pos < len(l.input) && l.peek() != '\n' {
		l.advance()
	}
	return l.newToken(tokComment, string(l.input[start:l.pos]))
}

// readBasicString reads a double-quoted string and resolves its escapes
func (l *lexer) readBasicString() token {
	l.advance() // opening quote
	var sb strings.Builder

	for l.pos < len(l.input) {
		ch := l.advance()
		switch ch {
		case '\n':
			return l.newToken(tokError, "unterminated string (newlines not allowed in basic strings)")
		case '"':
			return l.newToken(tokString, sb.String())
		case '\\':
			r, err := l.readEscape()
			if err != nil {
				return l.newToken(tokError, err.Error())
			}
			sb.WriteRune(r)
		default:
			if ch == utf8.RuneError && !l.validRuneBehind() {
				return l.newToken(tokError, "invalid UTF-8 in string")
			}
			sb.WriteRune(ch)
		}
	}
	return l.newToken(tokError, "unterminated string")
}

// readLiteralString reads a single-quoted string verbatim
func (l *lexer) readLiteralString() token {
	l.advance() // opening quote
	start := l.pos
	for l.pos < len(l.input) {
		switch l.peek() {
		case '\n':
			return l.newToken(tokError, "unterminated literal string")
		case '\'':
			lit := string(l.input[start:l.pos])
			l.advance()
			return l.newToken(tokString, lit)
		}
		l.advance()
	}
	return l.newToken(tokError, "unterminated literal string")
}

func (l *lexer) hasPrefix(s string) bool {
	return bytes.HasPrefix(l.input[l.pos:], []byte(s))
}

// readMultilineString reads a """basic""" or '''literal''' string. A newline
// right after the opening delimiter is trimmed; basic strings resolve escapes
// and drop a line-ending backslash together with the whitespace after it.
func (l *lexer) readMultilineString(quote rune) token {
	for i := 0; i < 3; i++ {
		l.advance()
	}
	if l.hasPrefix("\r\n") {
		l.advance()
	}
	if l.peek() == '\n' {
		l.advance()
	}

	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.peek()
		if ch == quote && l.hasPrefix(strings.Repeat(string(quote), 3)) {
			run := 0
			for l.pos+run < len(l.input) && rune(l.input[l.pos+run]) == quote {
				run++
			}
			if run > 5 {
				return l.newToken(tokError, "too many quotes closing multi-line string")
			}
			// Up to two quotes before the delimiter belong to the string
			sb.WriteString(strings.Repeat(string(quote), run-3))
			for i := 0; i < run; i++ {
				l.advance()
			}
			return l.newToken(tokString, sb.String())
		}

		l.advance()
		switch {
		case ch == '\\' && quote == '"':
			if l.atLineEndingBackslash() {
				l.skipBlankLines()
				continue
			}
			r, err := l.readEscape()
			if err != nil {
				return l.newToken(tokError, err.Error())
			}
			sb.WriteRune(r)
		case ch == utf8.RuneError && !l.validRuneBehind():
			return l.newToken(tokError, "invalid UTF-8 in string")
		default:
			sb.WriteRune(ch)
		}
	}
	return l.newToken(tokError, "unterminated multi-line string")
}

// atLineEndingBackslash reports whether only spaces remain before the next newline
func (l *lexer) atLineEndingBackslash() bool {
	for i := l.pos; i < len(l.input); i++ {
		switch l.input[i] {
		case ' ', '\t', '\r':
		case '\n':
			return true
		default:
			return false
		}
	}
	return false
}

func (l *lexer) skipBlankLines() {
	for l.pos < len(l.input) {
		switch l.peek() {
		case ' ', '\t', '\r', '\n':
			l.advance()
		default:
			return
		}
	}
}

// readEscape decodes the escape sequence following a backslash
func (l *lexer) readEscape() (rune, error) {
	if l.pos >= len(l.input) {
		return 0, fmt.Errorf("unterminated escape sequence")
	}
	ch := l.advance()
	switch ch {
	case '"':
		return '"', nil
	case '\\':
		return '\\', nil
	case 'b':
		return '\b', nil
	case 'f':
		return '\f', nil
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 't':
		return '\t', nil
	case 'u':
		return l.readUnicodeEscape(4)
	case 'U':
		return l.readUnicodeEscape(8)
	}
	return 0, fmt.Errorf("invalid escape sequence: \\%c", ch)
}

func (l *lexer) readUnicodeEscape(digits int) (rune, error) {
	if l.pos+digits > len(l.input) {
		return 0, fmt.Errorf("short unicode escape")
	}
	hex := string(l.input[l.pos : l.pos+digits])
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid unicode escape: %s", hex)
	}
	r := rune(v)
	if !utf8.ValidRune(r) {
		return 0, fmt.Errorf("invalid unicode scalar: %s", hex)
	}
	for i := 0; i < digits; i++ {
		l.advance()
	}
	return r, nil
}

// validRuneBehind reports whether a decoded RuneError was a literal U+FFFD
func (l *lexer) validRuneBehind() bool {
	r, size := utf8.DecodeLastRune(l.input[:l.pos])
	return r == utf8.RuneError && size == 3
}

func (l *lexer) readBareOrNumber() token {
	start := l.pos
	firstCh := l.peek()
	// Numbers start with digit or sign; bare keys start with alpha/_
	isNumber := isDigit(firstCh) || firstCh == '+' || firstCh == '-'

	for l.pos < len(l.input) {
		ch := l.peek()
		if isAlpha(ch) || isDigit(ch) || ch == '_' || ch == '-' || ch == '+' {
			l.advance()
		} else if ch == '.' && isNumber {
			l.advance()
		} else {
			break
		}
	}
	lit := string(l.input[start:l.pos])

	if lit == "true" || lit == "false" {
		return l.newToken(tokBool, lit)
	}

	// Prefixed integers: 0x, 0o, 0b with optional sign
	checkLit := strings.TrimLeft(lit, "+-")
	if len(checkLit) > 2 && checkLit[0] == '0' {
		switch checkLit[1] {
		case 'x', 'X', 'o', 'O', 'b', 'B':
			return l.newToken(tokInteger, lit)
		}
	}

	// Letters other than an exponent marker make this a bare key
	hasLetter := false
	for _, r := range lit {
		if isAlpha(r) && r != 'e' && r != 'E' {
			hasLetter = true
			break
		}
	}

	if !hasLetter && isNumber {
		if strings.ContainsAny(lit, ".eE") {
			return l.newToken(tokFloat, lit)
		}
		return l.newToken(tokInteger, lit)
	}

	return l.newToken(tokIdent, lit)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
