package internal

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Func is a Go function callable from template expressions
type Func struct {
	Name    string
	MinArgs int
	MaxArgs int // -1 for variadic
	Fn      func(args []any) (any, error)
}

// Call checks the argument count and invokes the function
func (f *Func) Call(args []any) (any, error) {
	argCount := len(args)
	if argCount < f.MinArgs {
		return nil, NewFuncArgError(ErrMsgFuncTooFewArgs, f.Name, f.MinArgs, argCount)
	}
	if f.MaxArgs >= 0 && argCount > f.MaxArgs {
		return nil, NewFuncArgError(ErrMsgFuncTooManyArgs, f.Name, f.MaxArgs, argCount)
	}

	result, err := f.Fn(args)
	if err != nil {
		return nil, NewFuncExecError(f.Name, err)
	}
	return result, nil
}

// FuncRegistry holds the functions visible to every template of an engine
type FuncRegistry struct {
	funcs map[string]*Func
	mu    sync.RWMutex
}

// NewFuncRegistry creates an empty function registry
func NewFuncRegistry() *FuncRegistry {
	return &FuncRegistry{
		funcs: make(map[string]*Func),
	}
}

// Register adds a function to the registry
func (r *FuncRegistry) Register(f *Func) error {
	if f == nil {
		return NewFuncRegistryError(ErrMsgFuncNilFunc, "")
	}
	if f.Name == "" {
		return NewFuncRegistryError(ErrMsgFuncEmptyName, "")
	}
	if f.Fn == nil {
		return NewFuncRegistryError(ErrMsgFuncNilImpl, f.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.funcs[f.Name]; exists {
		return NewFuncRegistryError(ErrMsgFuncAlreadyExists, f.Name)
	}

	r.funcs[f.Name] = f
	return nil
}

// MustRegister adds a function and panics on error
func (r *FuncRegistry) MustRegister(f *Func) {
	if err := r.Register(f); err != nil {
		panic(err)
	}
}

// Get retrieves a function by name
func (r *FuncRegistry) Get(name string) (*Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.funcs[name]
	return f, ok
}

// Has checks if a function is registered
func (r *FuncRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.funcs[name]
	return ok
}

// Call invokes a function by name with the given arguments
func (r *FuncRegistry) Call(name string, args []any) (any, error) {
	f, ok := r.Get(name)
	if !ok {
		return nil, NewFuncError(ErrMsgFuncNotFound, name)
	}
	return f.Call(args)
}

// List returns all registered function names in sorted order
func (r *FuncRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered functions
func (r *FuncRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.funcs)
}

// FuncError reports a failed registration or call of a builtin or
// registered function. Only the fields relevant to the failure are set;
// ArgIndex is -1 when no single argument is at fault.
type FuncError struct {
	Message  string
	FuncName string
	ArgIndex int
	Expected int // arity errors only
	Actual   int
	Cause    error
}

func newFuncError(message, funcName string) *FuncError {
	return &FuncError{Message: message, FuncName: funcName, ArgIndex: -1}
}

// NewFuncRegistryError reports a rejected registration; funcName may be empty
func NewFuncRegistryError(message, funcName string) *FuncError {
	return newFuncError(message, funcName)
}

// NewFuncError reports a call-level failure of funcName
func NewFuncError(message, funcName string) *FuncError {
	return newFuncError(message, funcName)
}

// NewFuncArgError reports a call with the wrong number of arguments
func NewFuncArgError(message, funcName string, expected, actual int) *FuncError {
	e := newFuncError(message, funcName)
	e.Expected, e.Actual = expected, actual
	return e
}

// NewFuncExecError wraps an error returned by a function implementation
func NewFuncExecError(funcName string, cause error) *FuncError {
	e := newFuncError(ErrMsgFuncFailed, funcName)
	e.Cause = cause
	return e
}

// NewFuncTypeError reports an argument of the wrong type
func NewFuncTypeError(message, funcName string, argIndex int) *FuncError {
	e := newFuncError(message, funcName)
	e.ArgIndex = argIndex
	return e
}

func (e *FuncError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.FuncName != "" {
		b.WriteString(": ")
		b.WriteString(e.FuncName)
	}
	switch {
	case e.Expected != 0 || e.Actual != 0:
		fmt.Fprintf(&b, " (expected %d, got %d)", e.Expected, e.Actual)
	case e.ArgIndex >= 0:
		fmt.Fprintf(&b, " (argument %d)", e.ArgIndex)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the implementation's error, if any
func (e *FuncError) Unwrap() error {
	return e.Cause
}

// Function error messages
const (
	ErrMsgFuncNilFunc           = "function cannot be nil"
	ErrMsgFuncNilImpl           = "function has no implementation"
	ErrMsgFuncEmptyName         = "function name cannot be empty"
	ErrMsgFuncAlreadyExists     = "function already registered"
	ErrMsgFuncNotFound          = "function not found"
	ErrMsgFuncFailed            = "function failed"
	ErrMsgFuncTooFewArgs        = "too few arguments"
	ErrMsgFuncTooManyArgs       = "too many arguments"
	ErrMsgFuncExpectedString    = "expected string argument"
	ErrMsgFuncExpectedSlice     = "expected list argument"
	ErrMsgFuncExpectedMap       = "expected dict argument"
	ErrMsgFuncExpectedNumber    = "expected number argument"
	ErrMsgFuncExpectedStringKey = "expected string key"
	ErrMsgFuncConversionFailed  = "type conversion failed"
	ErrMsgFuncRangeStep         = "range step cannot be zero"
	ErrMsgFuncRangeTooLarge     = "range too large"
)

// Built-in function names
const (
	FuncNameLen        = "len"
	FuncNameContains   = "contains"
	FuncNameUpper      = "upper"
	FuncNameLower      = "lower"
	FuncNameTrim       = "trim"
	FuncNameTitle      = "title"
	FuncNameCapitalize = "capitalize"
	FuncNameTrimPrefix = "trimPrefix"
	FuncNameTrimSuffix = "trimSuffix"
	FuncNameHasPrefix  = "hasPrefix"
	FuncNameHasSuffix  = "hasSuffix"
	FuncNameReplace    = "replace"
	FuncNameSplit      = "split"
	FuncNameJoin       = "join"
	FuncNameEscape     = "escape"
	FuncNameFirst      = "first"
	FuncNameLast       = "last"
	FuncNameKeys       = "keys"
	FuncNameValues     = "values"
	FuncNameItems      = "items"
	FuncNameHas        = "has"
	FuncNameRange      = "range"
	FuncNameSorted     = "sorted"
	FuncNameEnumerate  = "enumerate"
	FuncNameStr        = "str"
	FuncNameInt        = "int"
	FuncNameFloat      = "float"
	FuncNameBool       = "bool"
	FuncNameRepr       = "repr"
	FuncNameTypeOf     = "typeOf"
	FuncNameIsNil      = "isNil"
	FuncNameIsEmpty    = "isEmpty"
	FuncNameDefault    = "default"
	FuncNameCoalesce   = "coalesce"
)

// String value constants for type conversions
const (
	StringValueEmpty = ""
)

// Numeric constants for conversions
const (
	FloatFormatFlag    = 'f'
	FloatFormatGeneral = 'g'
	FloatPrecisionAll  = -1
	FloatBitSize64     = 64
	IntBase10          = 10
)

// MaxRangeLength bounds the list built by range()
const MaxRangeLength = 1000000

// RegisterBuiltinFuncs registers all built-in functions with the registry
func RegisterBuiltinFuncs(r *FuncRegistry) {
	registerStringFuncs(r)
	registerCollectionFuncs(r)
	registerTypeFuncs(r)
	registerUtilFuncs(r)
}
