package internal

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Callable is a value that template expressions can call, such as a
// function defined with a def statement.
type Callable interface {
	Call(ctx context.Context, args []any) (any, error)
}

// ExprEvaluator evaluates expression AST nodes against a scope
type ExprEvaluator struct {
	ctx   context.Context
	funcs *FuncRegistry
	scope *Scope
}

// NewExprEvaluator creates a new expression evaluator
func NewExprEvaluator(ctx context.Context, funcs *FuncRegistry, scope *Scope) *ExprEvaluator {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ExprEvaluator{
		ctx:   ctx,
		funcs: funcs,
		scope: scope,
	}
}

// Evaluate evaluates an expression and returns the result
func (e *ExprEvaluator) Evaluate(node ExprNode) (any, error) {
	if node == nil {
		return nil, NewExprEvalError(ErrMsgExprNilNode, "")
	}

	switch n := node.(type) {
	case *LiteralNode:
		return n.Value, nil

	case *IdentifierNode:
		return e.evaluateIdentifier(n), nil

	case *UnaryNode:
		return e.evaluateUnary(n)

	case *BinaryNode:
		return e.evaluateBinary(n)

	case *CallNode:
		return e.evaluateCall(n)

	case *IndexNode:
		return e.evaluateIndex(n)

	case *AttrNode:
		obj, err := e.Evaluate(n.Object)
		if err != nil {
			return nil, err
		}
		return getAttr(obj, n.Name), nil

	case *ListNode:
		items := make([]any, len(n.Items))
		for i, item := range n.Items {
			val, err := e.Evaluate(item)
			if err != nil {
				return nil, err
			}
			items[i] = val
		}
		return items, nil

	case *DictNode:
		return e.evaluateDict(n)

	default:
		return nil, NewExprEvalError(ErrMsgExprUnknownNodeType, fmt.Sprintf("%T", node))
	}
}

// EvaluateBool evaluates an expression and coerces the result to a boolean
func (e *ExprEvaluator) EvaluateBool(node ExprNode) (bool, error) {
	result, err := e.Evaluate(node)
	if err != nil {
		return false, err
	}
	return isTruthy(result), nil
}

// evaluateIdentifier resolves a name through the scope, then the function
// registry. Unknown names evaluate to nil.
func (e *ExprEvaluator) evaluateIdentifier(node *IdentifierNode) any {
	if e.scope != nil {
		if val, found := e.scope.Get(node.Name); found {
			return val
		}
	}
	if e.funcs != nil {
		if f, found := e.funcs.Get(node.Name); found {
			return f
		}
	}
	return nil
}

// evaluateUnary evaluates a unary operation
func (e *ExprEvaluator) evaluateUnary(node *UnaryNode) (any, error) {
	right, err := e.Evaluate(node.Right)
	if err != nil {
		return nil, err
	}

	switch node.Op {
	case ExprTokenTypeNot:
		return !isTruthy(right), nil
	case ExprTokenTypeMinus, ExprTokenTypePlus:
		n, ok := toNumber(right)
		if !ok {
			return nil, NewExprEvalError(ErrMsgExprBadOperand, fmt.Sprintf("%s %s", node.Op, typeName(right)))
		}
		if node.Op == ExprTokenTypeMinus {
			return -n, nil
		}
		return n, nil
	default:
		return nil, NewExprEvalError(ErrMsgExprUnknownOperator, string(node.Op))
	}
}

// evaluateBinary evaluates a binary operation
func (e *ExprEvaluator) evaluateBinary(node *BinaryNode) (any, error) {
	// and/or short-circuit and yield one of their operands
	if node.Op == ExprTokenTypeAnd || node.Op == ExprTokenTypeOr {
		left, err := e.Evaluate(node.Left)
		if err != nil {
			return nil, err
		}
		if isTruthy(left) == (node.Op == ExprTokenTypeOr) {
			return left, nil
		}
		return e.Evaluate(node.Right)
	}

	left, err := e.Evaluate(node.Left)
	if err != nil {
		return nil, err
	}

	right, err := e.Evaluate(node.Right)
	if err != nil {
		return nil, err
	}

	switch node.Op {
	case ExprTokenTypeEq:
		return compareEqual(left, right), nil
	case ExprTokenTypeNeq:
		return !compareEqual(left, right), nil
	case ExprTokenTypeLt:
		return compareLess(left, right)
	case ExprTokenTypeGt:
		return compareLess(right, left)
	case ExprTokenTypeLte:
		result, err := compareLess(right, left)
		if err != nil {
			return nil, err
		}
		return !result, nil
	case ExprTokenTypeGte:
		result, err := compareLess(left, right)
		if err != nil {
			return nil, err
		}
		return !result, nil
	case ExprTokenTypeIn:
		return containsValue(right, left)
	case ExprTokenTypeNotIn:
		found, err := containsValue(right, left)
		if err != nil {
			return nil, err
		}
		return !found, nil
	default:
		return arithmetic(node.Op, left, right)
	}
}

// evaluateCall evaluates the callee and invokes it
func (e *ExprEvaluator) evaluateCall(node *CallNode) (any, error) {
	callee, err := e.Evaluate(node.Callee)
	if err != nil {
		return nil, err
	}

	args := make([]any, len(node.Args))
	for i, argNode := range node.Args {
		val, err := e.Evaluate(argNode)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}

	if callee == nil {
		return nil, NewExprEvalError(ErrMsgExprNotCallable, node.Callee.String())
	}
	return CallValue(e.ctx, callee, args)
}

func (e *ExprEvaluator) evaluateIndex(node *IndexNode) (any, error) {
	obj, err := e.Evaluate(node.Object)
	if err != nil {
		return nil, err
	}
	idx, err := e.Evaluate(node.Index)
	if err != nil {
		return nil, err
	}
	return getIndex(obj, idx)
}

func (e *ExprEvaluator) evaluateDict(node *DictNode) (any, error) {
	result := make(map[string]any, len(node.Keys))
	for i := range node.Keys {
		key, err := e.Evaluate(node.Keys[i])
		if err != nil {
			return nil, err
		}
		val, err := e.Evaluate(node.Values[i])
		if err != nil {
			return nil, err
		}
		result[ToString(key)] = val
	}
	return result, nil
}

// CallValue invokes any callable value: a registered Func, a Callable or a
// plain Go function.
func CallValue(ctx context.Context, callee any, args []any) (any, error) {
	switch fn := callee.(type) {
	case *Func:
		return fn.Call(args)
	case Callable:
		return fn.Call(ctx, args)
	case func(args []any) (any, error):
		return fn(args)
	}

	rv := reflect.ValueOf(callee)
	if rv.Kind() != reflect.Func {
		return nil, NewExprEvalError(ErrMsgExprNotCallable, typeName(callee))
	}
	return callReflect(rv, args)
}

// callReflect calls a Go function value, converting arguments to its
// parameter types. A trailing error result is returned as the call error.
func callReflect(fn reflect.Value, args []any) (any, error) {
	ft := fn.Type()
	if ft.IsVariadic() {
		if len(args) < ft.NumIn()-1 {
			return nil, NewExprEvalError(ErrMsgExprArgCount, ft.String())
		}
	} else if len(args) != ft.NumIn() {
		return nil, NewExprEvalError(ErrMsgExprArgCount, ft.String())
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var pt reflect.Type
		if ft.IsVariadic() && i >= ft.NumIn()-1 {
			pt = ft.In(ft.NumIn() - 1).Elem()
		} else {
			pt = ft.In(i)
		}
		v, err := convertArg(arg, pt)
		if err != nil {
			return nil, err
		}
		in[i] = v
	}

	out := fn.Call(in)
	if len(out) == 0 {
		return nil, nil
	}
	last := out[len(out)-1]
	if last.Type().Implements(errorType) {
		if !last.IsNil() {
			return nil, last.Interface().(error)
		}
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0].Interface(), nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func convertArg(arg any, pt reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(pt), nil
	}
	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(pt) {
		return v, nil
	}
	if f, ok := toNumber(arg); ok && isNumericKind(pt.Kind()) {
		return reflect.ValueOf(f).Convert(pt), nil
	}
	if v.Type().ConvertibleTo(pt) && v.Kind() == pt.Kind() {
		return v.Convert(pt), nil
	}
	return reflect.Value{}, NewExprEvalError(ErrMsgExprBadArgument, fmt.Sprintf("%s to %s", typeName(arg), pt))
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// getAttr reads a dict key, struct field or method. Missing attributes are nil.
func getAttr(obj any, name string) any {
	if obj == nil {
		return nil
	}
	if m, ok := obj.(map[string]any); ok {
		return m[name]
	}

	rv := reflect.ValueOf(obj)
	if method := rv.MethodByName(name); method.IsValid() {
		return method.Interface()
	}
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		val := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !val.IsValid() {
			return nil
		}
		return val.Interface()
	case reflect.Struct:
		field := rv.FieldByName(name)
		if !field.IsValid() || !field.CanInterface() {
			return nil
		}
		return field.Interface()
	default:
		return nil
	}
}

// getIndex subscripts lists, strings and dicts. List and string indexes may
// be negative.
func getIndex(obj, idx any) (any, error) {
	if obj == nil {
		return nil, NewExprEvalError(ErrMsgExprNotSubscriptable, typeName(obj))
	}

	if m, ok := asMap(obj); ok {
		return m[ToString(idx)], nil
	}

	if s, ok := obj.(string); ok {
		runes := []rune(s)
		i, err := normalizeIndex(idx, len(runes))
		if err != nil {
			return nil, err
		}
		return string(runes[i]), nil
	}

	items, err := toSlice(obj, "", 0)
	if err != nil {
		if attr := getAttr(obj, ToString(idx)); attr != nil {
			return attr, nil
		}
		return nil, NewExprEvalError(ErrMsgExprNotSubscriptable, typeName(obj))
	}
	i, err := normalizeIndex(idx, len(items))
	if err != nil {
		return nil, err
	}
	return items[i], nil
}

func normalizeIndex(idx any, length int) (int, error) {
	i, ok := toIndex(idx)
	if !ok {
		return 0, NewExprEvalError(ErrMsgExprBadIndex, typeName(idx))
	}
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, NewExprEvalError(ErrMsgExprIndexRange, ToString(idx))
	}
	return i, nil
}

// containsValue implements the in operator
func containsValue(container, item any) (bool, error) {
	switch c := container.(type) {
	case string:
		s, ok := item.(string)
		if !ok {
			return false, NewExprEvalError(ErrMsgExprBadOperand, "in str requires str, not "+typeName(item))
		}
		return strings.Contains(c, s), nil
	case nil:
		return false, NewExprEvalError(ErrMsgExprNotIterable, typeName(container))
	}

	if m, ok := asMap(container); ok {
		_, found := m[ToString(item)]
		return found, nil
	}

	items, err := toSlice(container, "", 0)
	if err != nil {
		return false, NewExprEvalError(ErrMsgExprNotIterable, typeName(container))
	}
	for _, v := range items {
		if compareEqual(v, item) {
			return true, nil
		}
	}
	return false, nil
}

// arithmetic applies + - * / // % with number, string and list operands
func arithmetic(op ExprTokenType, left, right any) (any, error) {
	ln, lok := toNumber(left)
	rn, rok := toNumber(right)
	if lok && rok {
		switch op {
		case ExprTokenTypePlus:
			return ln + rn, nil
		case ExprTokenTypeMinus:
			return ln - rn, nil
		case ExprTokenTypeStar:
			return ln * rn, nil
		case ExprTokenTypeSlash:
			if rn == 0 {
				return nil, NewExprEvalError(ErrMsgExprDivisionByZero, "")
			}
			return ln / rn, nil
		case ExprTokenTypeDoubleSlash:
			if rn == 0 {
				return nil, NewExprEvalError(ErrMsgExprDivisionByZero, "")
			}
			return math.Floor(ln / rn), nil
		case ExprTokenTypePercent:
			if rn == 0 {
				return nil, NewExprEvalError(ErrMsgExprDivisionByZero, "")
			}
			r := math.Mod(ln, rn)
			if r != 0 && (r < 0) != (rn < 0) {
				r += rn
			}
			return r, nil
		}
		return nil, NewExprEvalError(ErrMsgExprUnknownOperator, string(op))
	}

	switch op {
	case ExprTokenTypePlus:
		if ls, ok := left.(string); ok {
			if rs, ok := right.(string); ok {
				return ls + rs, nil
			}
		}
		if ll, ok := left.([]any); ok {
			if rl, ok := right.([]any); ok {
				result := make([]any, 0, len(ll)+len(rl))
				return append(append(result, ll...), rl...), nil
			}
		}
	case ExprTokenTypeStar:
		if ls, ok := left.(string); ok && rok {
			return strings.Repeat(ls, repeatCount(rn)), nil
		}
		if ll, ok := left.([]any); ok && rok {
			result := make([]any, 0, len(ll)*repeatCount(rn))
			for i := 0; i < repeatCount(rn); i++ {
				result = append(result, ll...)
			}
			return result, nil
		}
	}

	return nil, NewExprEvalError(ErrMsgExprBadOperand,
		fmt.Sprintf("%s %s %s", typeName(left), op, typeName(right)))
}

func repeatCount(n float64) int {
	if n <= 0 {
		return 0
	}
	return int(n)
}

// Comparison helper functions

// compareEqual checks if two values are equal
func compareEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	aNum, aIsNum := toNumber(a)
	bNum, bIsNum := toNumber(b)
	if aIsNum && bIsNum {
		return aNum == bNum
	}

	aStr, aIsStr := a.(string)
	bStr, bIsStr := b.(string)
	if aIsStr || bIsStr {
		return aIsStr && bIsStr && aStr == bStr
	}

	if am, ok := asMap(a); ok {
		bm, ok := asMap(b)
		if !ok || len(am) != len(bm) {
			return false
		}
		for k, av := range am {
			bv, found := bm[k]
			if !found || !compareEqual(av, bv) {
				return false
			}
		}
		return true
	}

	aList, aErr := toSlice(a, "", 0)
	bList, bErr := toSlice(b, "", 0)
	if aErr == nil && bErr == nil {
		if len(aList) != len(bList) {
			return false
		}
		for i := range aList {
			if !compareEqual(aList[i], bList[i]) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(a, b)
}

// compareLess checks if a < b for numbers, strings and lists
func compareLess(a, b any) (bool, error) {
	aNum, aIsNum := toNumber(a)
	bNum, bIsNum := toNumber(b)
	if aIsNum && bIsNum {
		return aNum < bNum, nil
	}

	aStr, aIsStr := a.(string)
	bStr, bIsStr := b.(string)
	if aIsStr && bIsStr {
		return aStr < bStr, nil
	}

	aList, aIsList := a.([]any)
	bList, bIsList := b.([]any)
	if aIsList && bIsList {
		for i := 0; i < len(aList) && i < len(bList); i++ {
			if compareEqual(aList[i], bList[i]) {
				continue
			}
			return compareLess(aList[i], bList[i])
		}
		return len(aList) < len(bList), nil
	}

	return false, NewExprEvalError(ErrMsgExprTypeMismatch, fmt.Sprintf("cannot compare %s and %s", typeName(a), typeName(b)))
}

// ExprEvalError represents an expression evaluation error
type ExprEvalError struct {
	Message string
	Detail  string
}

// NewExprEvalError creates a new expression evaluation error
func NewExprEvalError(message, detail string) *ExprEvalError {
	return &ExprEvalError{
		Message: message,
		Detail:  detail,
	}
}

// Error implements the error interface
func (e *ExprEvalError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

// Expression evaluator error messages
const (
	ErrMsgExprNilNode          = "nil expression node"
	ErrMsgExprUnknownNodeType  = "unknown expression node type"
	ErrMsgExprUnknownOperator  = "unknown operator"
	ErrMsgExprTypeMismatch     = "type mismatch in comparison"
	ErrMsgExprBadOperand       = "unsupported operand types"
	ErrMsgExprDivisionByZero   = "division by zero"
	ErrMsgExprNotCallable      = "value is not callable"
	ErrMsgExprArgCount         = "wrong number of arguments"
	ErrMsgExprBadArgument      = "cannot convert argument"
	ErrMsgExprNotSubscriptable = "value is not subscriptable"
	ErrMsgExprBadIndex         = "index must be a whole number"
	ErrMsgExprIndexRange       = "index out of range"
	ErrMsgExprNotIterable      = "value is not iterable"
)

// EvaluateExpression parses and evaluates an expression string
func EvaluateExpression(ctx context.Context, expr string, funcs *FuncRegistry, scope *Scope) (any, error) {
	node, err := ParseExpression(expr)
	if err != nil {
		return nil, err
	}

	evaluator := NewExprEvaluator(ctx, funcs, scope)
	return evaluator.Evaluate(node)
}
