package internal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ModuleResolver compiles the template named by a dotted module path
type ModuleResolver interface {
	ResolveModule(ctx context.Context, name string) (*Program, error)
}

// InterpreterConfig bounds the work a single render may do
type InterpreterConfig struct {
	MaxImportDepth    int
	MaxLoopIterations int
	MaxCallDepth      int
}

// DefaultInterpreterConfig returns the default interpreter limits
func DefaultInterpreterConfig() InterpreterConfig {
	return InterpreterConfig{
		MaxImportDepth:    DefaultMaxImportDepth,
		MaxLoopIterations: DefaultMaxLoopIterations,
		MaxCallDepth:      DefaultMaxCallDepth,
	}
}

// Interpreter executes compiled programs against a Runtime
type Interpreter struct {
	funcs    *FuncRegistry
	resolver ModuleResolver
	config   InterpreterConfig
	logger   *zap.Logger
}

// NewInterpreter creates an interpreter. resolver may be nil, in which case
// import statements fail at runtime.
func NewInterpreter(funcs *FuncRegistry, resolver ModuleResolver, config InterpreterConfig, logger *zap.Logger) *Interpreter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if funcs == nil {
		funcs = NewFuncRegistry()
		RegisterBuiltinFuncs(funcs)
	}
	logger.Debug(LogMsgInterpreterCreated)
	return &Interpreter{
		funcs:    funcs,
		resolver: resolver,
		config:   config,
		logger:   logger,
	}
}

// Execute runs program, writing to rt. scope holds the caller's bindings
// and receives the program's top-level assignments.
func (in *Interpreter) Execute(ctx context.Context, program *Program, rt *Runtime, scope *Scope) error {
	in.logger.Debug(LogMsgExecuteStart, zap.Int(LogFieldInstructions, program.Len()))

	st := &execState{interp: in, rt: rt, root: scope}
	if err := st.run(ctx, program.Body, scope); err != nil {
		return err
	}

	in.logger.Debug(LogMsgExecuteEnd)
	return nil
}

// execState is shared by a render, its imported modules and the template
// functions they define.
type execState struct {
	interp      *Interpreter
	rt          *Runtime
	root        *Scope
	importDepth int
	callDepth   int
}

func (st *execState) run(ctx context.Context, body []*Instr, scope *Scope) error {
	chainTaken := false

	for _, instr := range body {
		if err := ctx.Err(); err != nil {
			return NewRuntimeError(ErrMsgRuntime, instr.Line, err)
		}

		switch instr.Op {
		case OpWriteLiteral:
			st.rt.WriteLiteral(instr.Text)

		case OpWriteExpr:
			val, err := st.eval(ctx, scope, instr.Expr)
			if err != nil {
				return wrapRuntime(instr, err)
			}
			if instr.Escape {
				st.rt.WriteEscaped(ToString(val))
			} else {
				st.rt.WriteLiteral(ToString(val))
			}

		case OpAttrs:
			var dynamic map[string]any
			if instr.Expr != nil {
				val, err := st.eval(ctx, scope, instr.Expr)
				if err != nil {
					return wrapRuntime(instr, err)
				}
				m, ok := asMap(val)
				if !ok && val != nil {
					return NewRuntimeError(ErrMsgAttrsNotMapping, instr.Line, nil)
				}
				dynamic = m
			}
			st.rt.MergeAttributes(dynamic, instr.Static)

		case OpIndent:
			st.rt.EmitIndent()

		case OpEntab:
			st.rt.EnterBlock()

		case OpDetab:
			st.rt.LeaveBlock()

		case OpStatement:
			taken, err := st.statement(ctx, instr, scope, chainTaken)
			if err != nil {
				return wrapRuntime(instr, err)
			}
			chainTaken = taken
		}
	}
	return nil
}

// statement executes one statement. chainTaken reports whether an earlier
// branch of the current if chain ran; the result is the new chain state.
func (st *execState) statement(ctx context.Context, instr *Instr, scope *Scope, chainTaken bool) (bool, error) {
	switch s := instr.Stmt.(type) {
	case *IfStmt:
		return st.branch(ctx, instr, scope, s.Cond)

	case *ElifStmt:
		if chainTaken {
			return true, nil
		}
		return st.branch(ctx, instr, scope, s.Cond)

	case *ElseStmt:
		if chainTaken {
			return false, nil
		}
		return false, st.run(ctx, instr.Body, scope)

	case *ForStmt:
		return false, st.forLoop(ctx, instr, s, scope)

	case *DefStmt:
		scope.Set(s.Name, &UserFunc{
			Name:    s.Name,
			Params:  s.Params,
			Body:    instr.Body,
			closure: scope,
			state:   st,
		})

	case *AssignStmt:
		return false, st.assign(ctx, s, scope)

	case *ImportStmt:
		return false, st.importModule(ctx, s, scope)

	case *RaiseStmt:
		message := ErrMsgRaised
		if s.Value != nil {
			val, err := st.eval(ctx, scope, s.Value)
			if err != nil {
				return false, err
			}
			message = ToString(val)
		}
		return false, NewRuntimeError(message, instr.Line, nil)

	case *PassStmt:

	case *ExprStmt:
		if _, err := st.eval(ctx, scope, s.Expr); err != nil {
			return false, err
		}
	}
	return false, nil
}

func (st *execState) branch(ctx context.Context, instr *Instr, scope *Scope, cond ExprNode) (bool, error) {
	val, err := st.eval(ctx, scope, cond)
	if err != nil {
		return false, err
	}
	if !isTruthy(val) {
		return false, nil
	}
	return true, st.run(ctx, instr.Body, scope)
}

func (st *execState) forLoop(ctx context.Context, instr *Instr, s *ForStmt, scope *Scope) error {
	val, err := st.eval(ctx, scope, s.Iter)
	if err != nil {
		return err
	}
	items, err := iterValues(val)
	if err != nil {
		return err
	}
	if limit := st.interp.config.MaxLoopIterations; limit > 0 && len(items) > limit {
		return NewRuntimeError(ErrMsgLoopLimitExceeded, instr.Line, nil)
	}
	st.interp.logger.Debug(LogMsgForStart, zap.Int(LogFieldLine, instr.Line), zap.Int(LogFieldItems, len(items)))

	for _, item := range items {
		if err := bindLoopVars(scope, s.Vars, item); err != nil {
			return NewRuntimeError(ErrMsgUnpackMismatch, instr.Line, err)
		}
		if err := st.run(ctx, instr.Body, scope); err != nil {
			return err
		}
	}
	return nil
}

func (st *execState) assign(ctx context.Context, s *AssignStmt, scope *Scope) error {
	val, err := st.eval(ctx, scope, s.Value)
	if err != nil {
		return err
	}

	if s.Op != ExprTokenTypeAssign {
		current, err := st.eval(ctx, scope, s.Target)
		if err != nil {
			return err
		}
		op := ExprTokenTypePlus
		if s.Op == ExprTokenTypeMinusAssign {
			op = ExprTokenTypeMinus
		}
		if val, err = arithmetic(op, current, val); err != nil {
			return err
		}
	}

	switch target := s.Target.(type) {
	case *IdentifierNode:
		scope.Set(target.Name, val)
		return nil
	case *IndexNode:
		obj, err := st.eval(ctx, scope, target.Object)
		if err != nil {
			return err
		}
		idx, err := st.eval(ctx, scope, target.Index)
		if err != nil {
			return err
		}
		return setIndex(obj, idx, val)
	}
	return NewExprEvalError(ErrMsgStmtInvalidTarget, s.Target.String())
}

func (st *execState) importModule(ctx context.Context, s *ImportStmt, scope *Scope) error {
	resolver := st.interp.resolver
	if resolver == nil {
		return NewExprEvalError(ErrMsgNoModuleResolver, s.Module)
	}
	if st.importDepth >= st.interp.config.MaxImportDepth {
		return NewExprEvalError(ErrMsgImportDepthExceeded, s.Module)
	}
	st.interp.logger.Debug(LogMsgModuleImport,
		zap.String(LogFieldModule, s.Module),
		zap.String(LogFieldAlias, s.BindName()),
		zap.Int(LogFieldDepth, st.importDepth+1))

	program, err := resolver.ResolveModule(ctx, s.Module)
	if err != nil {
		return err
	}

	moduleScope := st.root.Child()
	child := &execState{
		interp:      st.interp,
		rt:          st.rt,
		root:        st.root,
		importDepth: st.importDepth + 1,
		callDepth:   st.callDepth,
	}
	if err := child.run(ctx, program.Body, moduleScope); err != nil {
		return err
	}

	scope.Set(s.BindName(), moduleScope.Locals())
	return nil
}

func (st *execState) eval(ctx context.Context, scope *Scope, expr ExprNode) (any, error) {
	return NewExprEvaluator(ctx, st.interp.funcs, scope).Evaluate(expr)
}

// UserFunc is a function defined by a def statement. Calling it renders its
// body into the runtime of the render that defined it.
type UserFunc struct {
	Name    string
	Params  []string
	Body    []*Instr
	closure *Scope
	state   *execState
}

// Call binds args to the parameters and runs the body in a new scope
func (f *UserFunc) Call(ctx context.Context, args []any) (any, error) {
	if len(args) != len(f.Params) {
		return nil, NewFuncArgError(ErrMsgArgCountMismatch, f.Name, len(f.Params), len(args))
	}
	st := f.state
	if st.callDepth >= st.interp.config.MaxCallDepth {
		return nil, NewFuncError(ErrMsgCallDepthExceeded, f.Name)
	}
	st.interp.logger.Debug(LogMsgUserFuncCall,
		zap.String(LogFieldFunction, f.Name),
		zap.Int(LogFieldDepth, st.callDepth+1))

	local := f.closure.Child()
	for i, param := range f.Params {
		local.Set(param, args[i])
	}

	st.callDepth++
	defer func() { st.callDepth-- }()
	return nil, st.run(ctx, f.Body, local)
}

// String returns a short description of the function
func (f *UserFunc) String() string {
	return fmt.Sprintf("<function %s(%s)>", f.Name, strings.Join(f.Params, ", "))
}

// iterValues lists the items a for loop visits. Dicts yield sorted keys and
// strings yield characters.
func iterValues(val any) ([]any, error) {
	switch v := val.(type) {
	case nil:
		return nil, NewExprEvalError(ErrMsgNotIterable, typeName(val))
	case string:
		items := make([]any, 0, len(v))
		for _, r := range v {
			items = append(items, string(r))
		}
		return items, nil
	}

	if m, ok := asMap(val); ok {
		keys := sortedKeys(m)
		items := make([]any, len(keys))
		for i, k := range keys {
			items[i] = k
		}
		return items, nil
	}

	items, err := toSlice(val, "", 0)
	if err != nil {
		return nil, NewExprEvalError(ErrMsgNotIterable, typeName(val))
	}
	return items, nil
}

func bindLoopVars(scope *Scope, vars []string, item any) error {
	if len(vars) == 1 {
		scope.Set(vars[0], item)
		return nil
	}
	parts, err := toSlice(item, "", 0)
	if err != nil || item == nil || len(parts) != len(vars) {
		return NewExprEvalError(ErrMsgUnpackMismatch, Repr(item))
	}
	for i, name := range vars {
		scope.Set(name, parts[i])
	}
	return nil
}

// setIndex assigns into a dict or list in place
func setIndex(obj, idx, val any) error {
	switch target := obj.(type) {
	case map[string]any:
		target[ToString(idx)] = val
		return nil
	case []any:
		i, err := normalizeIndex(idx, len(target))
		if err != nil {
			return err
		}
		target[i] = val
		return nil
	}
	return NewExprEvalError(ErrMsgExprNotSubscriptable, typeName(obj))
}

// wrapRuntime attaches the instruction's line to errors that lack one
func wrapRuntime(instr *Instr, err error) error {
	var rtErr *RuntimeError
	if errors.As(err, &rtErr) {
		return err
	}
	return NewRuntimeError(ErrMsgRuntime, instr.Line, err)
}
