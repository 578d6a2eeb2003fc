package toml

import (
	"fmt"
	"strconv"
	"strings"
)

// parser builds a map[string]any tree from a TOML token stream
type parser struct {
	lex     *lexer
	cur     token
	peek    token
	root    map[string]any
	current map[string]any // table receiving key/value pairs
}

func newParser(input []byte) *parser {
	p := &parser{
		lex:  newLexer(input),
		root: make(map[string]any),
	}
	p.advance()
	p.advance()
	p.current = p.root
	return p
}

func (p *parser) advance() {
	p.cur = p.peek
	p.peek = p.lex.next()

	for p.peek.kind == tokComment {
		p.peek = p.lex.next()
	}
}

// parse consumes the whole document
func (p *parser) parse() (map[string]any, error) {
	for p.cur.kind != tokEOF {
		if p.cur.kind == tokNewline {
			p.advance()
			continue
		}

		if err := p.parseStatement(); err != nil {
			return nil, err
		}
		if err := p.expectLineEnd(); err != nil {
			return nil, err
		}
	}
	return p.root, nil
}

func (p *parser) parseStatement() error {
	switch p.cur.kind {
	case tokLBracket:
		return p.parseTableDeclaration()
	case tokIdent, tokString:
		return p.parseKeyValuePair(p.current)
	case tokError:
		return fmt.Errorf("line %d col %d: %s", p.cur.line, p.cur.col, p.cur.text)
	default:
		return fmt.Errorf("line %d col %d: unexpected %s", p.cur.line, p.cur.col, p.cur)
	}
}

// expectLineEnd rejects trailing tokens after a complete statement
func (p *parser) expectLineEnd() error {
	switch p.cur.kind {
	case tokNewline, tokEOF:
		return nil
	case tokError:
		return fmt.Errorf("line %d col %d: %s", p.cur.line, p.cur.col, p.cur.text)
	}
	return fmt.Errorf("line %d col %d: expected end of line, got %s", p.cur.line, p.cur.col, p.cur)
}

// parseTableDeclaration handles [key] and [[key]]
func (p *parser) parseTableDeclaration() error {
	isArray := false
	if p.peek.kind == tokLBracket {
		p.advance()
		isArray = true
	}
	p.advance()

	keys, err := p.parseKeyParts()
	if err != nil {
		return err
	}

	if isArray {
		if p.cur.kind != tokRBracket {
			return fmt.Errorf("expected closing bracket for array table at line %d", p.cur.line)
		}
		p.advance()
	}

	if p.cur.kind != tokRBracket {
		return fmt.Errorf("expected closing bracket for table at line %d", p.cur.line)
	}
	p.advance()

	return p.setTableScope(keys, isArray)
}

// setTableScope walks the dotted header path from root, creating tables as needed
func (p *parser) setTableScope(keys []string, isArrayOfTables bool) error {
	table := p.root

	for i, key := range keys {
		if i == len(keys)-1 {
			if isArrayOfTables {
				var list []map[string]any
				if val, exists := table[key]; exists {
					l, ok := val.([]map[string]any)
					if !ok {
						return fmt.Errorf("key conflict: %s is not an array of tables", key)
					}
					list = l
				}
				entry := make(map[string]any)
				table[key] = append(list, entry)
				p.current = entry
				return nil
			}

			if val, exists := table[key]; exists {
				m, ok := val.(map[string]any)
				if !ok {
					return fmt.Errorf("key conflict: %s is not a table", key)
				}
				p.current = m
				return nil
			}
			m := make(map[string]any)
			table[key] = m
			p.current = m
			return nil
		}

		next, err := descend(table, key)
		if err != nil {
			return err
		}
		table = next
	}
	return nil
}

// descend returns the table under key, creating it when absent
// An array of tables resolves to its last element
func descend(table map[string]any, key string) (map[string]any, error) {
	val, exists := table[key]
	if !exists {
		m := make(map[string]any)
		table[key] = m
		return m, nil
	}
	switch v := val.(type) {
	case map[string]any:
		return v, nil
	case []map[string]any:
		if len(v) == 0 {
			return nil, fmt.Errorf("cannot traverse empty array table %s", key)
		}
		return v[len(v)-1], nil
	}
	return nil, fmt.Errorf("intermediate key %s is not a table", key)
}

func (p *parser) parseKeyValuePair(scope map[string]any) error {
	keys, err := p.parseKeyParts()
	if err != nil {
		return err
	}

	if p.cur.kind != tokEqual {
		return fmt.Errorf("expected '=' after key at line %d, got %s", p.cur.line, p.cur.String())
	}
	p.advance()

	val, err := p.parseValue()
	if err != nil {
		return err
	}

	return p.assignValue(scope, keys, val)
}

func (p *parser) assignValue(scope map[string]any, keys []string, val any) error {
	table := scope
	for i, key := range keys {
		if i == len(keys)-1 {
			if _, exists := table[key]; exists {
				return fmt.Errorf("duplicate key %s at line %d", key, p.cur.line)
			}
			table[key] = val
			return nil
		}

		if existing, exists := table[key]; exists {
			m, ok := existing.(map[string]any)
			if !ok {
				return fmt.Errorf("intermediate key %s is not a table", key)
			}
			table = m
			continue
		}
		m := make(map[string]any)
		table[key] = m
		table = m
	}
	return nil
}

func (p *parser) parseKeyParts() ([]string, error) {
	var keys []string

	for {
		if p.cur.kind != tokIdent && p.cur.kind != tokString {
			return nil, fmt.Errorf("expected key at line %d, got %s", p.cur.line, p.cur.String())
		}
		keys = append(keys, p.cur.text)
		p.advance()

		if p.cur.kind != tokDot {
			return keys, nil
		}
		p.advance()
	}
}

func (p *parser) parseValue() (any, error) {
	switch p.cur.kind {
	case tokString:
		val := p.cur.text
		p.advance()
		return val, nil
	case tokInteger:
		val, err := parseInteger(p.cur.text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", p.cur.line, err)
		}
		p.advance()
		return val, nil
	case tokFloat:
		val, err := parseFloat(p.cur.text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", p.cur.line, err)
		}
		p.advance()
		return val, nil
	case tokBool:
		val := p.cur.text == "true"
		p.advance()
		return val, nil
	case tokLBracket:
		return p.parseArray()
	case tokLBrace:
		return p.parseInlineTable()
	}
	return nil, fmt.Errorf("unexpected value token %s at line %d", p.cur.String(), p.cur.line)
}

func (p *parser) parseArray() ([]any, error) {
	p.advance() // [
	arr := make([]any, 0)

	for p.cur.kind != tokRBracket {
		if p.cur.kind == tokNewline {
			p.advance()
			continue
		}
		if p.cur.kind == tokEOF {
			return nil, fmt.Errorf("unterminated array at line %d", p.cur.line)
		}

		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)

		for p.cur.kind == tokNewline {
			p.advance()
		}
		if p.cur.kind == tokComma {
			p.advance()
		} else if p.cur.kind != tokRBracket {
			return nil, fmt.Errorf("expected comma or closing bracket in array at line %d", p.cur.line)
		}
	}
	p.advance() // ]
	return arr, nil
}

func (p *parser) parseInlineTable() (map[string]any, error) {
	p.advance() // {
	m := make(map[string]any)

	for p.cur.kind != tokRBrace {
		if p.cur.kind == tokEOF || p.cur.kind == tokNewline {
			return nil, fmt.Errorf("unterminated inline table at line %d", p.cur.line)
		}

		keys, err := p.parseKeyParts()
		if err != nil {
			return nil, err
		}
		if p.cur.kind != tokEqual {
			return nil, fmt.Errorf("expected '=' in inline table at line %d", p.cur.line)
		}
		p.advance()

		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if err := p.assignValue(m, keys, val); err != nil {
			return nil, err
		}

		if p.cur.kind == tokComma {
			p.advance()
		} else if p.cur.kind != tokRBrace {
			return nil, fmt.Errorf("expected comma or closing brace in inline table at line %d", p.cur.line)
		}
	}
	p.advance() // }
	return m, nil
}

// parseInteger accepts decimal, 0x/0o/0b prefixed and underscore-separated integers
func parseInteger(lit string) (int, error) {
	if strings.Contains(lit, "__") || strings.HasPrefix(lit, "_") || strings.HasSuffix(lit, "_") {
		return 0, fmt.Errorf("invalid integer %q", lit)
	}
	clean := strings.ReplaceAll(lit, "_", "")
	body := strings.TrimLeft(clean, "+-")
	if len(body) > 1 && body[0] == '0' && isDigit(rune(body[1])) {
		return 0, fmt.Errorf("invalid integer %q: leading zero", lit)
	}
	val, err := strconv.ParseInt(clean, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", lit)
	}
	return int(val), nil
}

func parseFloat(lit string) (float64, error) {
	clean := strings.ReplaceAll(lit, "_", "")
	body := strings.TrimLeft(clean, "+-")
	if body == "" || body[0] == '.' || strings.HasSuffix(body, ".") ||
		strings.Contains(body, ".e") || strings.Contains(body, ".E") {
		return 0, fmt.Errorf("invalid float %q", lit)
	}
	val, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float %q", lit)
	}
	return val, nil
}
