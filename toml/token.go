package toml

import "fmt"

// tokenKind classifies lexer output
type tokenKind uint8

const (
	tokError tokenKind = iota
	tokEOF
	tokComment
	tokNewline

	tokIdent   // bare key
	tokString  // "basic" or 'literal', already unescaped
	tokInteger // 123, 0x7f, 1_000
	tokFloat   // 1.5, 6e-3
	tokBool

	tokEqual
	tokDot
	tokComma
	tokLBracket
	tokRBracket
	tokLBrace
	tokRBrace
)

var tokenKindNames = [...]string{
	tokError:    "error",
	tokEOF:      "end of input",
	tokComment:  "comment",
	tokNewline:  "newline",
	tokIdent:    "key",
	tokString:   "string",
	tokInteger:  "integer",
	tokFloat:    "float",
	tokBool:     "boolean",
	tokEqual:    "'='",
	tokDot:      "'.'",
	tokComma:    "','",
	tokLBracket: "'['",
	tokRBracket: "']'",
	tokLBrace:   "'{'",
	tokRBrace:   "'}'",
}

func (k tokenKind) String() string {
	if int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return fmt.Sprintf("tokenKind(%d)", k)
}

// token is one lexeme with the position of its first rune
type token struct {
	kind      tokenKind
	text      string
	line, col int
}

// String renders the token for error messages
func (t token) String() string {
	switch t.kind {
	case tokEOF, tokNewline:
		return t.kind.String()
	case tokError:
		return "invalid input: " + t.text
	}
	if len(t.text) > 20 {
		return fmt.Sprintf("%s %q...", t.kind, t.text[:20])
	}
	return fmt.Sprintf("%s %q", t.kind, t.text)
}
