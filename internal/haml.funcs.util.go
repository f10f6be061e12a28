package internal

// registerUtilFuncs registers utility functions
func registerUtilFuncs(r *FuncRegistry) {
	// default(x, fallback) - fallback if x is None or empty
	r.MustRegister(&Func{
		Name:    FuncNameDefault,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(args []any) (any, error) {
			if isEmpty(args[ArgIndexFirst]) {
				return args[ArgIndexSecond], nil
			}
			return args[ArgIndexFirst], nil
		},
	})

	// coalesce(args...) - first non-empty value
	r.MustRegister(&Func{
		Name:    FuncNameCoalesce,
		MinArgs: 1,
		MaxArgs: -1, // Variadic
		Fn: func(args []any) (any, error) {
			for _, arg := range args {
				if !isEmpty(arg) {
					return arg, nil
				}
			}
			return nil, nil
		},
	})
}
