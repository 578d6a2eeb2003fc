package toml

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
)

// ErrMissingKey is returned when a field tagged `required` has no key in the document
var ErrMissingKey = errors.New("missing required key")

// Unmarshal parses TOML data and stores the result in the value pointed to by v.
func Unmarshal(data []byte, v any) error {
	p := newParser(data)
	parsedMap, err := p.parse()
	if err != nil {
		return err
	}
	return Decode(parsedMap, v)
}

// Decode maps a parsed document onto v using reflection.
// Struct keys come from the `toml` tag, falling back to the field name.
// A `required` tag option makes an absent key fail the whole decode.
func Decode(data any, v any) error {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer")
	}

	return decodeValue(data, val.Elem())
}

func decodeValue(data any, val reflect.Value) error {
	if data == nil {
		return nil
	}

	switch val.Kind() {
	case reflect.Ptr:
		newVal := reflect.New(val.Type().Elem())
		if err := decodeValue(data, newVal.Elem()); err != nil {
			return err
		}
		val.Set(newVal)

	case reflect.Struct:
		dataMap, ok := data.(map[string]any)
		if !ok {
			return fmt.Errorf("expected table for struct, got %T", data)
		}
		return decodeStruct(dataMap, val)

	case reflect.Slice:
		dataSlice, ok := data.([]any)
		if !ok {
			// Arrays of tables come out of the parser as []map[string]any
			mapSlice, ok := data.([]map[string]any)
			if !ok {
				return fmt.Errorf("expected array, got %T", data)
			}
			dataSlice = make([]any, len(mapSlice))
			for i, m := range mapSlice {
				dataSlice[i] = m
			}
		}

		newSlice := reflect.MakeSlice(val.Type(), len(dataSlice), len(dataSlice))
		for i := range dataSlice {
			if err := decodeValue(dataSlice[i], newSlice.Index(i)); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
		val.Set(newSlice)

	case reflect.Map:
		if val.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("only map[string]T is supported")
		}
		dataMap, ok := data.(map[string]any)
		if !ok {
			return fmt.Errorf("expected table, got %T", data)
		}

		newMap := reflect.MakeMap(val.Type())
		elemType := val.Type().Elem()
		for k, vData := range dataMap {
			newVal := reflect.New(elemType).Elem()
			if err := decodeValue(vData, newVal); err != nil {
				return fmt.Errorf("map key %s: %w", k, err)
			}
			newMap.SetMapIndex(reflect.ValueOf(k).Convert(val.Type().Key()), newVal)
		}
		val.Set(newMap)

	case reflect.Interface:
		val.Set(reflect.ValueOf(data))

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := data.(int)
		if !ok {
			return fmt.Errorf("cannot convert %T to integer", data)
		}
		if val.OverflowInt(int64(i)) {
			return fmt.Errorf("integer %d overflows %s", i, val.Type())
		}
		val.SetInt(int64(i))

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		i, ok := data.(int)
		if !ok {
			return fmt.Errorf("cannot convert %T to integer", data)
		}
		if i < 0 || val.OverflowUint(uint64(i)) {
			return fmt.Errorf("integer %d out of range for %s", i, val.Type())
		}
		val.SetUint(uint64(i))

	case reflect.Float32, reflect.Float64:
		f, ok := toFloat(data)
		if !ok {
			return fmt.Errorf("cannot convert %T to float", data)
		}
		if val.Kind() == reflect.Float32 && math.Abs(f) > math.MaxFloat32 {
			return fmt.Errorf("float %g overflows float32", f)
		}
		val.SetFloat(f)

	case reflect.String:
		s, ok := data.(string)
		if !ok {
			return fmt.Errorf("cannot convert %T to string", data)
		}
		val.SetString(s)

	case reflect.Bool:
		b, ok := data.(bool)
		if !ok {
			return fmt.Errorf("cannot convert %T to bool", data)
		}
		val.SetBool(b)

	default:
		return fmt.Errorf("unsupported target kind %s", val.Kind())
	}

	return nil
}

func decodeStruct(data map[string]any, val reflect.Value) error {
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		if !fieldType.IsExported() {
			continue
		}

		key, opts := fieldType.Name, tagOptions("")
		if tag := fieldType.Tag.Get("toml"); tag != "" {
			name, rest, _ := strings.Cut(tag, ",")
			if name == "-" {
				continue
			}
			if name != "" {
				key = name
			}
			opts = tagOptions(rest)
		}

		vData, ok := data[key]
		if !ok {
			if opts.has("required") {
				return fmt.Errorf("%w: %s", ErrMissingKey, key)
			}
			continue
		}
		if err := decodeValue(vData, field); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

// tagOptions is the comma-separated remainder of a struct tag
type tagOptions string

func (o tagOptions) has(name string) bool {
	for _, opt := range strings.Split(string(o), ",") {
		if opt == name {
			return true
		}
	}
	return false
}

// toFloat widens parser numbers; integers are accepted where a float is expected
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
