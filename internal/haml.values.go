package internal

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Rendered forms of scalar values
const (
	ValueTextTrue  = "True"
	ValueTextFalse = "False"
	ValueTextNone  = "None"
)

// Repr delimiters
const (
	reprQuote     = "'"
	reprListOpen  = "["
	reprListClose = "]"
	reprDictOpen  = "{"
	reprDictClose = "}"
	reprItemSep   = ", "
	reprKeySep    = ": "
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

var reprEscaper = strings.NewReplacer(
	`\`, `\\`,
	"'", `\'`,
	"\n", `\n`,
	"\t", `\t`,
	"\r", `\r`,
)

// CopyValue returns v with every nested map[string]any and []any copied,
// so assignments made by a render never reach the caller's values. Shared
// and cyclic references keep their shape in the copy.
func CopyValue(v any) any {
	return copyValue(v, make(map[copyKey]any))
}

// copyKey identifies a map or slice backing store already copied
type copyKey struct {
	ptr uintptr
	len int
}

func copyValue(v any, seen map[copyKey]any) any {
	switch val := v.(type) {
	case map[string]any:
		if val == nil {
			return val
		}
		key := copyKey{ptr: reflect.ValueOf(val).Pointer(), len: -1}
		if done, ok := seen[key]; ok {
			return done
		}
		out := make(map[string]any, len(val))
		seen[key] = out
		for k, item := range val {
			out[k] = copyValue(item, seen)
		}
		return out
	case []any:
		if len(val) == 0 {
			return val
		}
		key := copyKey{ptr: reflect.ValueOf(val).Pointer(), len: len(val)}
		if done, ok := seen[key]; ok {
			return done
		}
		out := make([]any, len(val))
		seen[key] = out
		for i, item := range val {
			out[i] = copyValue(item, seen)
		}
		return out
	default:
		return v
	}
}

// EscapeHTML replaces the characters & < > " with their entities
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// ToString converts a value to the text written into the output.
// nil renders empty, booleans render as True/False, whole numbers have no
// decimal point and containers render in their literal form.
func ToString(v any) string {
	if v == nil {
		return StringValueEmpty
	}
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return ValueTextTrue
		}
		return ValueTextFalse
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, IntBase10)
	case float64:
		return formatNumber(val)
	case float32:
		return formatNumber(float64(val))
	case []byte:
		return string(val)
	case fmt.Stringer:
		return val.String()
	case error:
		return val.Error()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return Repr(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), IntBase10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), IntBase10)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Repr renders a value in literal form: strings are single-quoted and
// nil is None. Map keys are sorted.
func Repr(v any) string {
	if v == nil {
		return ValueTextNone
	}
	switch val := v.(type) {
	case string:
		return reprQuote + reprEscaper.Replace(val) + reprQuote
	case []any:
		return reprList(val)
	case map[string]any:
		return reprMap(val)
	case bool, int, int64, float64, float32:
		return ToString(val)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items, _ := toSlice(v, "", 0)
		return reprList(items)
	case reflect.Map:
		return reprMap(toStringMap(rv))
	default:
		return ToString(v)
	}
}

func reprList(items []any) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = Repr(item)
	}
	return reprListOpen + strings.Join(parts, reprItemSep) + reprListClose
}

func reprMap(m map[string]any) string {
	keys := sortedKeys(m)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = Repr(k) + reprKeySep + Repr(m[k])
	}
	return reprDictOpen + strings.Join(parts, reprItemSep) + reprDictClose
}

func formatNumber(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, FloatFormatFlag, FloatPrecisionAll, FloatBitSize64)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, FloatFormatFlag, 0, FloatBitSize64)
	}
	return strconv.FormatFloat(f, FloatFormatGeneral, FloatPrecisionAll, FloatBitSize64)
}

// toStringMap converts any map value with string-convertible keys
func toStringMap(rv reflect.Value) map[string]any {
	result := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		result[ToString(iter.Key().Interface())] = iter.Value().Interface()
	}
	return result
}

// asMap returns v as a map[string]any when it is any kind of map
func asMap(v any) (map[string]any, bool) {
	switch val := v.(type) {
	case map[string]any:
		return val, true
	case map[string]string:
		result := make(map[string]any, len(val))
		for k, s := range val {
			result[k] = s
		}
		return result, true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, false
	}
	return toStringMap(rv), true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// toNumber converts numeric values, including booleans, to float64
func toNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case float32:
		return float64(val), true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	}
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

// toIndex converts a whole number to an int index
func toIndex(v any) (int, bool) {
	if _, isBool := v.(bool); isBool {
		return 0, false
	}
	f, ok := toNumber(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// typeName returns the name used for a value in error messages
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "NoneType"
	case string:
		return "str"
	case bool:
		return "bool"
	case float64, float32, int, int64:
		return "number"
	case []any:
		return "list"
	case map[string]any:
		return "dict"
	}
	return reflect.TypeOf(v).String()
}
