package internal

import (
	"fmt"
	"strings"
)

// OpCode identifies a program instruction
type OpCode int

// Program instructions; each maps to one runtime operation or to statement
// execution
const (
	OpWriteLiteral OpCode = iota
	OpWriteExpr
	OpAttrs
	OpIndent
	OpEntab
	OpDetab
	OpStatement
)

// Instruction names used in program listings
const (
	OpNameWriteLiteral = "write"
	OpNameWriteExpr    = "write_expr"
	OpNameWriteEscaped = "write_escaped"
	OpNameAttrs        = "attrs"
	OpNameIndent       = "indent"
	OpNameEntab        = "entab"
	OpNameDetab        = "detab"
)

// Program listing layout
const (
	listingIndent = "    "
	listingNone   = "None"
)

// Attr is a static attribute written by tag shorthand
type Attr struct {
	Name  string
	Value string
}

// Instr is one instruction of a compiled program
type Instr struct {
	Op   OpCode
	Line int
	// Text is the literal of OpWriteLiteral.
	Text string
	// Expr and Source are set on OpWriteExpr and on OpAttrs with a dictionary.
	Expr   ExprNode
	Source string
	Escape bool
	Static []Attr
	// Stmt and Body are set on OpStatement; Body is nil for simple statements.
	Stmt Stmt
	Body []*Instr
}

// Program is the compiled, re-entrant form of a template
type Program struct {
	Body []*Instr
}

// Len returns the number of instructions including nested bodies
func (p *Program) Len() int {
	return countInstrs(p.Body)
}

func countInstrs(body []*Instr) int {
	n := len(body)
	for _, instr := range body {
		n += countInstrs(instr.Body)
	}
	return n
}

// String renders a readable listing of the program, one instruction per
// line with statement bodies indented.
func (p *Program) String() string {
	var sb strings.Builder
	writeListing(&sb, p.Body, 0)
	return sb.String()
}

func writeListing(sb *strings.Builder, body []*Instr, level int) {
	prefix := strings.Repeat(listingIndent, level)
	for _, instr := range body {
		sb.WriteString(prefix)
		switch instr.Op {
		case OpWriteLiteral:
			fmt.Fprintf(sb, "%s(%s)", OpNameWriteLiteral, Repr(instr.Text))
		case OpWriteExpr:
			name := OpNameWriteExpr
			if instr.Escape {
				name = OpNameWriteEscaped
			}
			fmt.Fprintf(sb, "%s(%s)", name, instr.Source)
		case OpAttrs:
			dynamic := listingNone
			if instr.Expr != nil {
				dynamic = instr.Source
			}
			fmt.Fprintf(sb, "%s(%s, %s)", OpNameAttrs, dynamic, staticListing(instr.Static))
		case OpIndent:
			sb.WriteString(OpNameIndent + "()")
		case OpEntab:
			sb.WriteString(OpNameEntab + "()")
		case OpDetab:
			sb.WriteString(OpNameDetab + "()")
		case OpStatement:
			sb.WriteString(instr.Stmt.String())
		}
		sb.WriteString(OutputNewline)
		if instr.Op == OpStatement && instr.Stmt.IsBlock() {
			if len(instr.Body) == 0 {
				sb.WriteString(prefix + listingIndent + StmtKeywordPass + OutputNewline)
			}
			writeListing(sb, instr.Body, level+1)
		}
	}
}

func staticListing(attrs []Attr) string {
	parts := make([]string, len(attrs))
	for i, a := range attrs {
		parts[i] = Repr(a.Name) + reprKeySep + Repr(a.Value)
	}
	return reprDictOpen + strings.Join(parts, reprItemSep) + reprDictClose
}
