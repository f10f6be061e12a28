package internal

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Argument index constants for error reporting
const (
	ArgIndexFirst  = 0
	ArgIndexSecond = 1
	ArgIndexThird  = 2
)

// registerStringFuncs registers string manipulation functions
func registerStringFuncs(r *FuncRegistry) {
	// upper(s), lower(s), trim(s), escape(s)
	unary := map[string]func(string) string{
		FuncNameUpper:  strings.ToUpper,
		FuncNameLower:  strings.ToLower,
		FuncNameTrim:   strings.TrimSpace,
		FuncNameEscape: EscapeHTML,
	}
	for name, fn := range unary {
		r.MustRegister(stringFunc(name, 1, func(s []string) any { return fn(s[ArgIndexFirst]) }))
	}

	// title(s), capitalize(s); casers are not safe for concurrent use
	r.MustRegister(stringFunc(FuncNameTitle, 1, func(s []string) any {
		return cases.Title(language.Und).String(s[ArgIndexFirst])
	}))
	r.MustRegister(stringFunc(FuncNameCapitalize, 1, func(s []string) any {
		return capitalize(s[ArgIndexFirst])
	}))

	// trimPrefix(s, prefix) string
	r.MustRegister(stringFunc(FuncNameTrimPrefix, 2, func(s []string) any {
		return strings.TrimPrefix(s[ArgIndexFirst], s[ArgIndexSecond])
	}))

	// trimSuffix(s, suffix) string
	r.MustRegister(stringFunc(FuncNameTrimSuffix, 2, func(s []string) any {
		return strings.TrimSuffix(s[ArgIndexFirst], s[ArgIndexSecond])
	}))

	// hasPrefix(s, prefix) bool
	r.MustRegister(stringFunc(FuncNameHasPrefix, 2, func(s []string) any {
		return strings.HasPrefix(s[ArgIndexFirst], s[ArgIndexSecond])
	}))

	// hasSuffix(s, suffix) bool
	r.MustRegister(stringFunc(FuncNameHasSuffix, 2, func(s []string) any {
		return strings.HasSuffix(s[ArgIndexFirst], s[ArgIndexSecond])
	}))

	// replace(s, old, new) string
	r.MustRegister(stringFunc(FuncNameReplace, 3, func(s []string) any {
		return strings.ReplaceAll(s[ArgIndexFirst], s[ArgIndexSecond], s[ArgIndexThird])
	}))

	// split(s, sep) list
	r.MustRegister(stringFunc(FuncNameSplit, 2, func(s []string) any {
		parts := strings.Split(s[ArgIndexFirst], s[ArgIndexSecond])
		result := make([]any, len(parts))
		for i, p := range parts {
			result[i] = p
		}
		return result
	}))

	// contains(haystack, needle) bool - strings, lists and dicts
	r.MustRegister(&Func{
		Name:    FuncNameContains,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(args []any) (any, error) {
			found, err := containsValue(args[ArgIndexFirst], args[ArgIndexSecond])
			if err != nil {
				return nil, NewFuncTypeError(ErrMsgFuncExpectedSlice, FuncNameContains, ArgIndexFirst)
			}
			return found, nil
		},
	})

	// join(items, sep) string
	r.MustRegister(&Func{
		Name:    FuncNameJoin,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(args []any) (any, error) {
			sep, ok := args[ArgIndexSecond].(string)
			if !ok {
				return nil, NewFuncTypeError(ErrMsgFuncExpectedString, FuncNameJoin, ArgIndexSecond)
			}
			items, err := toSlice(args[ArgIndexFirst], FuncNameJoin, ArgIndexFirst)
			if err != nil {
				return nil, err
			}
			strs := make([]string, len(items))
			for i, item := range items {
				strs[i] = ToString(item)
			}
			return strings.Join(strs, sep), nil
		},
	})
}

// capitalize upper-cases the first rune and lower-cases the rest
func capitalize(s string) string {
	_, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return cases.Upper(language.Und).String(s[:size]) + cases.Lower(language.Und).String(s[size:])
}

// stringFunc builds a fixed-arity function whose arguments must all be strings
func stringFunc(name string, arity int, fn func(s []string) any) *Func {
	return &Func{
		Name:    name,
		MinArgs: arity,
		MaxArgs: arity,
		Fn: func(args []any) (any, error) {
			strs := make([]string, len(args))
			for i, arg := range args {
				s, ok := toString(arg)
				if !ok {
					return nil, NewFuncTypeError(ErrMsgFuncExpectedString, name, i)
				}
				strs[i] = s
			}
			return fn(strs), nil
		},
	}
}

// toString accepts strings, Stringers and nil as string arguments
func toString(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return StringValueEmpty, true
	case string:
		return val, true
	case interface{ String() string }:
		return val.String(), true
	default:
		return StringValueEmpty, false
	}
}
