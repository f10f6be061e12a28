package internal

import (
	"fmt"
	"strings"
)

// Node is one template line as assembled by the parser. The set of node
// kinds is closed; the compiler switches over them.
type Node interface {
	// Pos returns the position of the node's first token
	Pos() Position
	// String returns a string representation for debugging
	String() string
	node()
}

// TagNode is an element line such as %p#id.cls{'a': 1}= expr
type TagNode struct {
	pos        Position
	Name       string
	ID         string
	Classes    []string
	Dict       ExprNode // nil without a {...} dictionary
	DictSource string
	SelfClose  bool
	InnerTrim  bool
	OuterTrim  bool
	// Value is literal inline content; Script replaces it for "= expr".
	Value    string
	HasValue bool
	Script   *ScriptNode
}

// NewTagNode creates a tag node with the default tag name
func NewTagNode(pos Position) *TagNode {
	return &TagNode{pos: pos, Name: DefaultTagName}
}

func (n *TagNode) Pos() Position { return n.pos }
func (n *TagNode) node()         {}

func (n *TagNode) String() string {
	var sb strings.Builder
	sb.WriteString("%" + n.Name)
	if n.ID != "" {
		sb.WriteString("#" + n.ID)
	}
	for _, c := range n.Classes {
		sb.WriteString("." + c)
	}
	if n.DictSource != "" {
		sb.WriteString(n.DictSource)
	}
	if n.SelfClose {
		sb.WriteString("/")
	}
	switch {
	case n.Script != nil:
		sb.WriteString(n.Script.Sigil + " " + n.Script.Source)
	case n.HasValue:
		sb.WriteString(" " + n.Value)
	}
	return sb.String()
}

// StaticAttrs returns the id and class attributes in declaration order
func (n *TagNode) StaticAttrs() []Attr {
	var attrs []Attr
	if n.ID != "" {
		attrs = append(attrs, Attr{Name: AttrID, Value: n.ID})
	}
	if len(n.Classes) > 0 {
		attrs = append(attrs, Attr{Name: AttrClass, Value: strings.Join(n.Classes, ClassSeparator)})
	}
	return attrs
}

// ContentNode is a line of plain text
type ContentNode struct {
	pos  Position
	Text string
}

// NewContentNode creates a content node
func NewContentNode(text string, pos Position) *ContentNode {
	return &ContentNode{pos: pos, Text: text}
}

func (n *ContentNode) Pos() Position  { return n.pos }
func (n *ContentNode) String() string { return fmt.Sprintf("content(%q)", n.Text) }
func (n *ContentNode) node()          {}

// CommentNode is an HTML comment, optionally conditional
type CommentNode struct {
	pos         Position
	Text        string
	Condition   string
	Conditional bool
}

func (n *CommentNode) Pos() Position { return n.pos }
func (n *CommentNode) node()         {}

func (n *CommentNode) String() string {
	if n.Conditional {
		return fmt.Sprintf("comment[%s](%q)", n.Condition, n.Text)
	}
	return fmt.Sprintf("comment(%q)", n.Text)
}

// DoctypeNode is a !!! line
type DoctypeNode struct {
	pos     Position
	XML     bool
	Charset string // XML declaration only
	Variant string
}

func (n *DoctypeNode) Pos() Position { return n.pos }
func (n *DoctypeNode) node()         {}

func (n *DoctypeNode) String() string {
	if n.XML {
		return "doctype(XML " + n.Charset + ")"
	}
	return "doctype(" + n.Variant + ")"
}

// ScriptNode writes the value of an expression
type ScriptNode struct {
	pos    Position
	Sigil  string
	Source string
	Expr   ExprNode
}

func (n *ScriptNode) Pos() Position  { return n.pos }
func (n *ScriptNode) String() string { return n.Sigil + " " + n.Source }
func (n *ScriptNode) node()          {}

// SilentScriptNode runs a statement without writing output
type SilentScriptNode struct {
	pos    Position
	Source string
	Stmt   Stmt
}

func (n *SilentScriptNode) Pos() Position  { return n.pos }
func (n *SilentScriptNode) String() string { return SigilSilent + " " + n.Source }
func (n *SilentScriptNode) node()          {}
