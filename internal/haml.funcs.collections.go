package internal

import (
	"math"
	"reflect"
	"sort"
)

// registerCollectionFuncs registers list and dict functions
func registerCollectionFuncs(r *FuncRegistry) {
	// len(x) - length of string, list or dict
	r.MustRegister(&Func{
		Name:    FuncNameLen,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			n, err := getLength(args[ArgIndexFirst], FuncNameLen, ArgIndexFirst)
			if err != nil {
				return nil, err
			}
			return float64(n), nil
		},
	})

	// first(list) - first element or None
	r.MustRegister(&Func{
		Name:    FuncNameFirst,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			slice, err := toSlice(args[ArgIndexFirst], FuncNameFirst, ArgIndexFirst)
			if err != nil || len(slice) == 0 {
				return nil, err
			}
			return slice[0], nil
		},
	})

	// last(list) - last element or None
	r.MustRegister(&Func{
		Name:    FuncNameLast,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			slice, err := toSlice(args[ArgIndexFirst], FuncNameLast, ArgIndexFirst)
			if err != nil || len(slice) == 0 {
				return nil, err
			}
			return slice[len(slice)-1], nil
		},
	})

	// keys(dict) - sorted keys
	r.MustRegister(&Func{
		Name:    FuncNameKeys,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			m, ok := asMap(args[ArgIndexFirst])
			if !ok {
				return nil, NewFuncTypeError(ErrMsgFuncExpectedMap, FuncNameKeys, ArgIndexFirst)
			}
			keys := sortedKeys(m)
			result := make([]any, len(keys))
			for i, k := range keys {
				result[i] = k
			}
			return result, nil
		},
	})

	// values(dict) - values ordered by key
	r.MustRegister(&Func{
		Name:    FuncNameValues,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			m, ok := asMap(args[ArgIndexFirst])
			if !ok {
				return nil, NewFuncTypeError(ErrMsgFuncExpectedMap, FuncNameValues, ArgIndexFirst)
			}
			keys := sortedKeys(m)
			values := make([]any, len(keys))
			for i, k := range keys {
				values[i] = m[k]
			}
			return values, nil
		},
	})

	// items(dict) - [key, value] pairs ordered by key
	r.MustRegister(&Func{
		Name:    FuncNameItems,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			m, ok := asMap(args[ArgIndexFirst])
			if !ok {
				return nil, NewFuncTypeError(ErrMsgFuncExpectedMap, FuncNameItems, ArgIndexFirst)
			}
			keys := sortedKeys(m)
			pairs := make([]any, len(keys))
			for i, k := range keys {
				pairs[i] = []any{k, m[k]}
			}
			return pairs, nil
		},
	})

	// has(dict, key) bool
	r.MustRegister(&Func{
		Name:    FuncNameHas,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(args []any) (any, error) {
			m, ok := asMap(args[ArgIndexFirst])
			if !ok {
				return nil, NewFuncTypeError(ErrMsgFuncExpectedMap, FuncNameHas, ArgIndexFirst)
			}
			key, ok := toString(args[ArgIndexSecond])
			if !ok {
				return nil, NewFuncTypeError(ErrMsgFuncExpectedStringKey, FuncNameHas, ArgIndexSecond)
			}
			_, exists := m[key]
			return exists, nil
		},
	})

	// range(stop), range(start, stop), range(start, stop, step)
	r.MustRegister(&Func{
		Name:    FuncNameRange,
		MinArgs: 1,
		MaxArgs: 3,
		Fn:      rangeFunc,
	})

	// sorted(list) - new list in ascending order
	r.MustRegister(&Func{
		Name:    FuncNameSorted,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			slice, err := toSlice(args[ArgIndexFirst], FuncNameSorted, ArgIndexFirst)
			if err != nil {
				return nil, err
			}
			result := append([]any(nil), slice...)
			sort.SliceStable(result, func(i, j int) bool {
				less, _ := compareLess(result[i], result[j])
				return less
			})
			return result, nil
		},
	})

	// enumerate(list) - [index, item] pairs
	r.MustRegister(&Func{
		Name:    FuncNameEnumerate,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			slice, err := toSlice(args[ArgIndexFirst], FuncNameEnumerate, ArgIndexFirst)
			if err != nil {
				return nil, err
			}
			pairs := make([]any, len(slice))
			for i, item := range slice {
				pairs[i] = []any{float64(i), item}
			}
			return pairs, nil
		},
	})
}

func rangeFunc(args []any) (any, error) {
	bounds := make([]float64, len(args))
	for i, arg := range args {
		n, ok := toIndex(arg)
		if !ok {
			return nil, NewFuncTypeError(ErrMsgFuncExpectedNumber, FuncNameRange, i)
		}
		bounds[i] = float64(n)
	}

	start, stop, step := 0.0, bounds[ArgIndexFirst], 1.0
	if len(bounds) > 1 {
		start, stop = bounds[ArgIndexFirst], bounds[ArgIndexSecond]
	}
	if len(bounds) > 2 {
		step = bounds[ArgIndexThird]
	}
	if step == 0 {
		return nil, NewFuncError(ErrMsgFuncRangeStep, FuncNameRange)
	}

	count := math.Ceil((stop - start) / step)
	if count <= 0 {
		return []any{}, nil
	}
	if count > MaxRangeLength {
		return nil, NewFuncError(ErrMsgFuncRangeTooLarge, FuncNameRange)
	}

	result := make([]any, int(count))
	for i := range result {
		result[i] = start + float64(i)*step
	}
	return result, nil
}

// getLength returns the length of strings, lists and dicts
func getLength(v any, funcName string, argIndex int) (int, error) {
	if v == nil {
		return 0, nil
	}

	switch val := v.(type) {
	case string:
		return len([]rune(val)), nil
	case []any:
		return len(val), nil
	case map[string]any:
		return len(val), nil
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
			return rv.Len(), nil
		default:
			return 0, NewFuncTypeError(ErrMsgFuncExpectedSlice, funcName, argIndex)
		}
	}
}

// toSlice converts any slice or array to []any
func toSlice(v any, funcName string, argIndex int) ([]any, error) {
	if v == nil {
		return nil, nil
	}

	switch val := v.(type) {
	case []any:
		return val, nil
	case []string:
		result := make([]any, len(val))
		for i, s := range val {
			result[i] = s
		}
		return result, nil
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, NewFuncTypeError(ErrMsgFuncExpectedSlice, funcName, argIndex)
		}
		result := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			result[i] = rv.Index(i).Interface()
		}
		return result, nil
	}
}
