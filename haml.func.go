package haml

import (
	"go.uber.org/zap"

	"github.com/itsatony/go-haml/internal"
)

// Func represents a custom function callable from template expressions.
type Func struct {
	// Name is the identifier used in templates (e.g., "money" for money(x))
	Name string
	// MinArgs is the minimum number of arguments required
	MinArgs int
	// MaxArgs is the maximum number of arguments allowed (-1 for variadic)
	MaxArgs int
	// Fn is the function implementation
	Fn func(args []any) (any, error)
}

// RegisterFunc registers a custom function for use in expressions.
//
// Example:
//
//	engine.RegisterFunc(&haml.Func{
//	    Name:    "money",
//	    MinArgs: 1,
//	    MaxArgs: 1,
//	    Fn: func(args []any) (any, error) {
//	        return fmt.Sprintf("$%.2f", args[0]), nil
//	    },
//	})
//
// The function can then be used in templates:
//
//	%span.price= money(item.price)
func (e *Engine) RegisterFunc(f *Func) error {
	if f == nil {
		return NewFuncRegisterError("", internal.NewFuncRegistryError(internal.ErrMsgFuncNilFunc, ""))
	}

	err := e.funcs.Register(&internal.Func{
		Name:    f.Name,
		MinArgs: f.MinArgs,
		MaxArgs: f.MaxArgs,
		Fn:      f.Fn,
	})
	if err != nil {
		return NewFuncRegisterError(f.Name, err)
	}

	e.logger.Debug(LogMsgFuncRegistered, zap.String(LogFieldFunction, f.Name))
	return nil
}

// MustRegisterFunc registers a custom function and panics on error.
func (e *Engine) MustRegisterFunc(f *Func) {
	if err := e.RegisterFunc(f); err != nil {
		panic(err)
	}
}

// HasFunc checks if a function is registered with the given name.
func (e *Engine) HasFunc(name string) bool {
	return e.funcs.Has(name)
}

// ListFuncs returns all registered function names.
func (e *Engine) ListFuncs() []string {
	return e.funcs.List()
}

// FuncCount returns the number of registered functions.
func (e *Engine) FuncCount() int {
	return e.funcs.Count()
}
