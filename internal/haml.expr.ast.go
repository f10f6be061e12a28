package internal

import (
	"fmt"
	"strings"
)

// ExprNodeType identifies the type of expression AST node
type ExprNodeType int

// Expression node type constants
const (
	ExprNodeTypeLiteral ExprNodeType = iota
	ExprNodeTypeIdentifier
	ExprNodeTypeUnary
	ExprNodeTypeBinary
	ExprNodeTypeCall
	ExprNodeTypeIndex
	ExprNodeTypeAttr
	ExprNodeTypeList
	ExprNodeTypeDict
)

// Expression node type names for debugging
const (
	ExprNodeTypeNameLiteral    = "LITERAL"
	ExprNodeTypeNameIdentifier = "IDENTIFIER"
	ExprNodeTypeNameUnary      = "UNARY"
	ExprNodeTypeNameBinary     = "BINARY"
	ExprNodeTypeNameCall       = "CALL"
	ExprNodeTypeNameIndex      = "INDEX"
	ExprNodeTypeNameAttr       = "ATTR"
	ExprNodeTypeNameList       = "LIST"
	ExprNodeTypeNameDict       = "DICT"
)

// String returns the string representation of the node type
func (t ExprNodeType) String() string {
	switch t {
	case ExprNodeTypeLiteral:
		return ExprNodeTypeNameLiteral
	case ExprNodeTypeIdentifier:
		return ExprNodeTypeNameIdentifier
	case ExprNodeTypeUnary:
		return ExprNodeTypeNameUnary
	case ExprNodeTypeBinary:
		return ExprNodeTypeNameBinary
	case ExprNodeTypeCall:
		return ExprNodeTypeNameCall
	case ExprNodeTypeIndex:
		return ExprNodeTypeNameIndex
	case ExprNodeTypeAttr:
		return ExprNodeTypeNameAttr
	case ExprNodeTypeList:
		return ExprNodeTypeNameList
	case ExprNodeTypeDict:
		return ExprNodeTypeNameDict
	default:
		return ExprNodeTypeNameLiteral
	}
}

// ExprTokenTypeNotIn is the synthetic operator produced for "not in"
const ExprTokenTypeNotIn ExprTokenType = "NOT_IN"

// ExprNode is the interface for all expression AST nodes
type ExprNode interface {
	// Type returns the node type
	Type() ExprNodeType
	// String returns a string representation for debugging
	String() string
	// exprNode is a marker method to ensure type safety
	exprNode()
}

// LiteralKind identifies the kind of literal value
type LiteralKind int

// Literal kind constants
const (
	LiteralKindString LiteralKind = iota
	LiteralKindNumber
	LiteralKindBool
	LiteralKindNil
)

// LiteralNode represents a literal value (string, number, bool, nil)
type LiteralNode struct {
	Value any
	Kind  LiteralKind
}

func (n *LiteralNode) Type() ExprNodeType { return ExprNodeTypeLiteral }
func (n *LiteralNode) exprNode()          {}

func (n *LiteralNode) String() string {
	switch n.Kind {
	case LiteralKindString:
		return fmt.Sprintf("%q", n.Value)
	case LiteralKindNil:
		return ExprKeywordNone
	default:
		return Repr(n.Value)
	}
}

// IdentifierNode represents a variable reference
type IdentifierNode struct {
	Name string
}

func (n *IdentifierNode) Type() ExprNodeType { return ExprNodeTypeIdentifier }
func (n *IdentifierNode) exprNode()          {}

func (n *IdentifierNode) String() string {
	return n.Name
}

// UnaryNode represents a unary operation (e.g., not x, -x)
type UnaryNode struct {
	Op    ExprTokenType
	Right ExprNode
}

func (n *UnaryNode) Type() ExprNodeType { return ExprNodeTypeUnary }
func (n *UnaryNode) exprNode()          {}

func (n *UnaryNode) String() string {
	return fmt.Sprintf("(%s %s)", n.Op, n.Right.String())
}

// BinaryNode represents a binary operation (e.g., a and b, a + b)
type BinaryNode struct {
	Left  ExprNode
	Op    ExprTokenType
	Right ExprNode
}

func (n *BinaryNode) Type() ExprNodeType { return ExprNodeTypeBinary }
func (n *BinaryNode) exprNode()          {}

func (n *BinaryNode) String() string {
	return fmt.Sprintf("(%s %s %s)", n.Left.String(), n.Op, n.Right.String())
}

// CallNode represents a call of any callable value (e.g., len(items), mod.nav())
type CallNode struct {
	Callee ExprNode
	Args   []ExprNode
}

func (n *CallNode) Type() ExprNodeType { return ExprNodeTypeCall }
func (n *CallNode) exprNode()          {}

func (n *CallNode) String() string {
	return fmt.Sprintf("%s(%s)", n.Callee.String(), joinExprNodes(n.Args))
}

// IndexNode represents a subscript (e.g., items[0], user['name'])
type IndexNode struct {
	Object ExprNode
	Index  ExprNode
}

func (n *IndexNode) Type() ExprNodeType { return ExprNodeTypeIndex }
func (n *IndexNode) exprNode()          {}

func (n *IndexNode) String() string {
	return fmt.Sprintf("%s[%s]", n.Object.String(), n.Index.String())
}

// AttrNode represents attribute access (e.g., user.name)
type AttrNode struct {
	Object ExprNode
	Name   string
}

func (n *AttrNode) Type() ExprNodeType { return ExprNodeTypeAttr }
func (n *AttrNode) exprNode()          {}

func (n *AttrNode) String() string {
	return n.Object.String() + "." + n.Name
}

// ListNode represents a list literal
type ListNode struct {
	Items []ExprNode
}

func (n *ListNode) Type() ExprNodeType { return ExprNodeTypeList }
func (n *ListNode) exprNode()          {}

func (n *ListNode) String() string {
	return "[" + joinExprNodes(n.Items) + "]"
}

// DictNode represents a dict literal; keys keep source order
type DictNode struct {
	Keys   []ExprNode
	Values []ExprNode
}

func (n *DictNode) Type() ExprNodeType { return ExprNodeTypeDict }
func (n *DictNode) exprNode()          {}

func (n *DictNode) String() string {
	pairs := make([]string, len(n.Keys))
	for i := range n.Keys {
		pairs[i] = n.Keys[i].String() + ": " + n.Values[i].String()
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

func joinExprNodes(nodes []ExprNode) string {
	parts := make([]string, len(nodes))
	for i, node := range nodes {
		parts[i] = node.String()
	}
	return strings.Join(parts, ", ")
}

// NewLiteralString creates a string literal node
func NewLiteralString(value string) *LiteralNode {
	return &LiteralNode{Value: value, Kind: LiteralKindString}
}

// NewLiteralNumber creates a number literal node
func NewLiteralNumber(value float64) *LiteralNode {
	return &LiteralNode{Value: value, Kind: LiteralKindNumber}
}

// NewLiteralBool creates a boolean literal node
func NewLiteralBool(value bool) *LiteralNode {
	return &LiteralNode{Value: value, Kind: LiteralKindBool}
}

// NewLiteralNil creates a nil literal node
func NewLiteralNil() *LiteralNode {
	return &LiteralNode{Value: nil, Kind: LiteralKindNil}
}

// NewIdentifier creates an identifier node
func NewIdentifier(name string) *IdentifierNode {
	return &IdentifierNode{Name: name}
}

// NewUnary creates a unary operation node
func NewUnary(op ExprTokenType, right ExprNode) *UnaryNode {
	return &UnaryNode{Op: op, Right: right}
}

// NewBinary creates a binary operation node
func NewBinary(left ExprNode, op ExprTokenType, right ExprNode) *BinaryNode {
	return &BinaryNode{Left: left, Op: op, Right: right}
}

// NewCall creates a call node
func NewCall(callee ExprNode, args []ExprNode) *CallNode {
	return &CallNode{Callee: callee, Args: args}
}
