package internal

import (
	"math"
	"reflect"
	"strconv"
	"strings"
)

// registerTypeFuncs registers type conversion and inspection functions
func registerTypeFuncs(r *FuncRegistry) {
	// str(x) - output text of any value
	r.MustRegister(&Func{
		Name:    FuncNameStr,
		MinArgs: 0,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			if len(args) == 0 {
				return StringValueEmpty, nil
			}
			return ToString(args[ArgIndexFirst]), nil
		},
	})

	// repr(x) - literal form of any value
	r.MustRegister(&Func{
		Name:    FuncNameRepr,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			return Repr(args[ArgIndexFirst]), nil
		},
	})

	// int(x) - truncates toward zero
	r.MustRegister(&Func{
		Name:    FuncNameInt,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			f, err := anyToFloat(args[ArgIndexFirst], FuncNameInt, ArgIndexFirst)
			if err != nil {
				return nil, err
			}
			return math.Trunc(f), nil
		},
	})

	// float(x)
	r.MustRegister(&Func{
		Name:    FuncNameFloat,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			return anyToFloat(args[ArgIndexFirst], FuncNameFloat, ArgIndexFirst)
		},
	})

	// bool(x)
	r.MustRegister(&Func{
		Name:    FuncNameBool,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			return isTruthy(args[ArgIndexFirst]), nil
		},
	})

	// typeOf(x) string
	r.MustRegister(&Func{
		Name:    FuncNameTypeOf,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			return typeName(args[ArgIndexFirst]), nil
		},
	})

	// isNil(x) bool
	r.MustRegister(&Func{
		Name:    FuncNameIsNil,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			return args[ArgIndexFirst] == nil, nil
		},
	})

	// isEmpty(x) bool
	r.MustRegister(&Func{
		Name:    FuncNameIsEmpty,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			return isEmpty(args[ArgIndexFirst]), nil
		},
	})
}

// anyToFloat converts numbers, booleans and numeric strings to float64
func anyToFloat(v any, funcName string, argIndex int) (float64, error) {
	if v == nil {
		return 0, nil
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), FloatBitSize64)
		if err != nil {
			return 0, NewFuncTypeError(ErrMsgFuncConversionFailed, funcName, argIndex)
		}
		return f, nil
	}
	if f, ok := toNumber(v); ok {
		return f, nil
	}
	return 0, NewFuncTypeError(ErrMsgFuncConversionFailed, funcName, argIndex)
}

// isTruthy determines the truthiness of a value
// Truthiness rules:
// - nil -> false
// - bool -> value
// - string -> len(s) > 0
// - numbers -> n != 0
// - list/dict -> len(x) > 0
func isTruthy(v any) bool {
	if v == nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return len(val) > 0
	case float64:
		return val != 0
	case int:
		return val != 0
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	}
	if f, ok := toNumber(v); ok {
		return f != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface, reflect.Func:
		return !rv.IsNil()
	default:
		return true
	}
}

// isEmpty checks if a value is nil or has zero length
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch val := v.(type) {
	case string:
		return len(val) == 0
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
			return rv.Len() == 0
		default:
			return false
		}
	}
}
