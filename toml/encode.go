package toml

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Marshal returns the TOML encoding of v, which must be a struct or map.
//
// Output rules:
//   - scalars of a table are written before its sub-tables
//   - struct fields keep declaration order, map keys are sorted
//   - nil pointers, unexported fields and empty `omitempty` fields are skipped
//   - NaN and infinite floats are rejected, dates are not supported
func Marshal(v any) ([]byte, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, fmt.Errorf("marshal: cannot marshal nil pointer")
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct && rv.Kind() != reflect.Map {
		return nil, fmt.Errorf("marshal: root must be struct or map, got %v", rv.Kind())
	}

	var buf bytes.Buffer
	if err := encodeTable(&buf, rv, ""); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// entry is one key of a table with its resolved value
type entry struct {
	key string
	val reflect.Value
}

func encodeTable(buf *bytes.Buffer, rv reflect.Value, prefix string) error {
	entries, err := tableEntries(rv)
	if err != nil {
		return err
	}

	var tables []entry
	for _, e := range entries {
		if isTable(e.val) {
			tables = append(tables, e)
			continue
		}
		writeKey(buf, e.key)
		buf.WriteString(" = ")
		if err := encodeValue(buf, e.val); err != nil {
			return fmt.Errorf("key %q: %w", e.key, err)
		}
		buf.WriteByte('\n')
	}

	for _, e := range tables {
		path := quoteKey(e.key)
		if prefix != "" {
			path = prefix + "." + path
		}

		if e.val.Kind() == reflect.Struct || e.val.Kind() == reflect.Map {
			buf.WriteString("\n[" + path + "]\n")
			if err := encodeTable(buf, e.val, path); err != nil {
				return err
			}
			continue
		}

		for i := 0; i < e.val.Len(); i++ {
			elem := indirect(e.val.Index(i))
			if !elem.IsValid() {
				continue
			}
			buf.WriteString("\n[[" + path + "]]\n")
			if err := encodeTable(buf, elem, path); err != nil {
				return err
			}
		}
	}
	return nil
}

// tableEntries lists the encodable keys of a struct or map
func tableEntries(rv reflect.Value) ([]entry, error) {
	var entries []entry

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("map key must be string, got %v", rv.Type().Key().Kind())
		}
		for _, k := range rv.MapKeys() {
			val := indirect(rv.MapIndex(k))
			if !val.IsValid() {
				continue
			}
			entries = append(entries, entry{key: k.String(), val: val})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	case reflect.Struct:
		typ := rv.Type()
		for i := 0; i < rv.NumField(); i++ {
			field := typ.Field(i)
			if !field.IsExported() {
				continue
			}
			key := field.Name
			name, opts, _ := strings.Cut(field.Tag.Get("toml"), ",")
			if name == "-" {
				continue
			}
			if name != "" {
				key = name
			}

			val := indirect(rv.Field(i))
			if !val.IsValid() {
				continue
			}
			if tagOptions(opts).has("omitempty") && val.IsZero() {
				continue
			}
			entries = append(entries, entry{key: key, val: val})
		}
	}
	return entries, nil
}

// indirect unwraps interfaces and pointers, returning the zero Value for nil
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// isTable reports whether v renders as [table] or [[array of tables]]
func isTable(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Struct, reflect.Map:
		return true
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return false
		}
		elem := indirect(v.Index(0))
		return elem.Kind() == reflect.Struct || elem.Kind() == reflect.Map
	}
	return false
}

// encodeValue writes a scalar or inline array
func encodeValue(buf *bytes.Buffer, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Bool:
		buf.WriteString(strconv.FormatBool(v.Bool()))

	case reflect.String:
		writeString(buf, v.String())

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		buf.WriteString(strconv.FormatInt(v.Int(), 10))

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		if u > math.MaxInt64 {
			return fmt.Errorf("integer %d exceeds int64", u)
		}
		buf.WriteString(strconv.FormatUint(u, 10))

	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("unsupported float value %v", f)
		}
		bits := 64
		if v.Kind() == reflect.Float32 {
			bits = 32
		}
		str := strconv.FormatFloat(f, 'f', -1, bits)
		if !strings.ContainsAny(str, ".eE") {
			str += ".0"
		}
		buf.WriteString(str)

	case reflect.Slice, reflect.Array:
		buf.WriteByte('[')
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				buf.WriteString(", ")
			}
			elem := indirect(v.Index(i))
			if !elem.IsValid() {
				return fmt.Errorf("nil element at index %d", i)
			}
			if err := encodeValue(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')

	default:
		return fmt.Errorf("unsupported type: %v", v.Kind())
	}
	return nil
}

func writeKey(buf *bytes.Buffer, key string) {
	buf.WriteString(quoteKey(key))
}

// quoteKey returns key bare when the lexer would read it back as an identifier
func quoteKey(key string) string {
	if isBareKey(key) {
		return key
	}
	var buf bytes.Buffer
	writeString(&buf, key)
	return buf.String()
}

func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(buf, `\u%04X`, r)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}

// isBareKey mirrors the lexer: a key made of A-Za-z0-9_- that the lexer
// would not classify as a boolean or number
func isBareKey(s string) bool {
	if s == "" || s == "true" || s == "false" {
		return false
	}
	for _, r := range s {
		if !isAlpha(r) && !isDigit(r) && r != '_' && r != '-' {
			return false
		}
	}
	// Leading digit or sign sends the lexer down the number path
	return !isDigit(rune(s[0])) && s[0] != '-'
}
