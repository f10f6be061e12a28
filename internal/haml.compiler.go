package internal

import (
	"go.uber.org/zap"
)

// DoctypeTable maps an output format and doctype variant to the doctype
// markup. The empty variant is the format's default.
type DoctypeTable map[string]map[string]string

// DefaultDoctypes returns the doctype markup for html5, html4 and xhtml
func DefaultDoctypes() DoctypeTable {
	xhtmlTransitional := `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">`
	html4Transitional := `<!DOCTYPE html PUBLIC "-//W3C//DTD HTML 4.01 Transitional//EN" "http://www.w3.org/TR/html4/loose.dtd">`
	return DoctypeTable{
		FormatXHTML: {
			DoctypeVariantDefault:      xhtmlTransitional,
			DoctypeVariantTransitional: xhtmlTransitional,
			DoctypeVariantStrict:       `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">`,
			DoctypeVariantFrameset:     `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Frameset//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-frameset.dtd">`,
			DoctypeVariantBasic:        `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML Basic 1.1//EN" "http://www.w3.org/TR/xhtml-basic/xhtml-basic11.dtd">`,
			DoctypeVariantMobile:       `<!DOCTYPE html PUBLIC "-//WAPFORUM//DTD XHTML Mobile 1.2//EN" "http://www.openmobilealliance.org/tech/DTD/xhtml-mobile12.dtd">`,
		},
		FormatHTML4: {
			DoctypeVariantDefault:      html4Transitional,
			DoctypeVariantTransitional: html4Transitional,
			DoctypeVariantStrict:       `<!DOCTYPE html PUBLIC "-//W3C//DTD HTML 4.01//EN" "http://www.w3.org/TR/html4/strict.dtd">`,
			DoctypeVariantFrameset:     `<!DOCTYPE html PUBLIC "-//W3C//DTD HTML 4.01 Frameset//EN" "http://www.w3.org/TR/html4/frameset.dtd">`,
		},
		FormatHTML5: {
			DoctypeVariantDefault: `<!doctype html>`,
		},
	}
}

// Lookup returns the markup for format and variant. Unknown variants fall
// back to the format's default.
func (t DoctypeTable) Lookup(format, variant string) string {
	variants, ok := t[format]
	if !ok {
		variants = t[FormatHTML5]
	}
	if markup, ok := variants[variant]; ok {
		return markup
	}
	return variants[DoctypeVariantDefault]
}

// CompilerConfig is the immutable configuration of a compilation
type CompilerConfig struct {
	Format   string
	Escape   bool
	Doctypes DoctypeTable
}

// DefaultCompilerConfig returns html5 output without default escaping
func DefaultCompilerConfig() CompilerConfig {
	return CompilerConfig{
		Format:   FormatHTML5,
		Doctypes: DefaultDoctypes(),
	}
}

// Fixed tag sets
var (
	selfClosingTags = map[string]bool{"img": true, "input": true, "link": true, "br": true}
	autoClosingTags = map[string]bool{"script": true}
)

// Markup fragments written by the compiler
const (
	markupTagOpen          = "<"
	markupTagEnd           = ">"
	markupSelfCloseEnd     = "/>"
	markupCloseTagOpen     = "</"
	markupCommentOpen      = "<!--"
	markupCommentClose     = "-->"
	markupCondCommentOpen  = "<!--["
	markupCondCommentEnd   = "]>"
	markupCondCommentClose = "<![endif]-->"
	markupXMLDeclOpen      = `<?xml version="1.0" encoding="`
	markupXMLDeclClose     = `"?>`
)

// blockFrame is a statement body being filled, or the program root
type blockFrame struct {
	instr *Instr
	// chain is true while the last statement of this body is an if or elif.
	chain bool
}

// Compiler receives open and close events for nodes and emits a Program.
// A Compiler is single-use.
type Compiler struct {
	config    CompilerConfig
	openStack []Node
	lastNode  Node
	trimNext  bool
	blocks    []*blockFrame
	logger    *zap.Logger
}

// NewCompiler creates a compiler for one template
func NewCompiler(config CompilerConfig, logger *zap.Logger) *Compiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Format == "" {
		config.Format = FormatHTML5
	}
	if config.Doctypes == nil {
		config.Doctypes = DefaultDoctypes()
	}
	logger.Debug(LogMsgCompilerCreated, zap.String(LogFieldFormat, config.Format))
	return &Compiler{
		config: config,
		blocks: []*blockFrame{{instr: &Instr{Op: OpStatement}}},
		logger: logger,
	}
}

// Open closes every open node deeper than depth, then opens node
func (c *Compiler) Open(node Node, depth int) error {
	for len(c.openStack) > depth {
		if err := c.closeTop(); err != nil {
			return err
		}
	}

	c.lastNode = node
	if err := c.openNode(node); err != nil {
		return err
	}
	c.openStack = append(c.openStack, node)
	return nil
}

// CloseAll closes every open node, most recent first
func (c *Compiler) CloseAll() error {
	for len(c.openStack) > 0 {
		if err := c.closeTop(); err != nil {
			return err
		}
	}
	return nil
}

// Program returns the compiled program
func (c *Compiler) Program() *Program {
	return &Program{Body: c.blocks[0].instr.Body}
}

// BlockDepth returns the number of statement bodies currently open
func (c *Compiler) BlockDepth() int {
	return len(c.blocks) - 1
}

func (c *Compiler) closeTop() error {
	node := c.openStack[len(c.openStack)-1]
	c.openStack = c.openStack[:len(c.openStack)-1]
	return c.closeNode(node)
}

func (c *Compiler) openNode(node Node) error {
	switch n := node.(type) {
	case *TagNode:
		if err := c.openTag(n); err != nil {
			return err
		}
	case *ContentNode:
		c.push(n.Text, false, false, n.pos.Line)
	case *ScriptNode:
		c.pushExpr(n, c.escapeFor(n.Sigil))
	case *CommentNode:
		text := markupCommentOpen
		if n.Conditional {
			text = markupCondCommentOpen + n.Condition + markupCondCommentEnd
		}
		if n.Text != "" {
			text += " " + n.Text
		}
		c.push(text, false, false, n.pos.Line)
	case *DoctypeNode:
		c.push(c.doctypeMarkup(n), false, false, n.pos.Line)
	case *SilentScriptNode:
		return c.openStatement(n)
	}

	c.emit(&Instr{Op: OpEntab, Line: node.Pos().Line})
	return nil
}

func (c *Compiler) closeNode(node Node) error {
	if stmt, ok := node.(*SilentScriptNode); ok {
		return c.closeStatement(stmt)
	}

	c.emit(&Instr{Op: OpDetab, Line: node.Pos().Line})

	switch n := node.(type) {
	case *TagNode:
		return c.closeTag(n)
	case *ContentNode, *DoctypeNode:
		return c.noNesting(node, ErrMsgIllegalNesting)
	case *CommentNode:
		end := markupCommentClose
		if n.Conditional {
			end = markupCondCommentClose
		}
		if n.Text != "" {
			c.writeLiteral(" "+end, n.pos.Line)
		} else {
			c.push(end, false, false, n.pos.Line)
		}
	}
	return nil
}

func (c *Compiler) openTag(tag *TagNode) error {
	line := tag.pos.Line
	if tag.SelfClose && tag.HasValue {
		return &NestingError{Message: ErrMsgSelfCloseContent, Position: tag.pos}
	}

	c.push(markupTagOpen+tag.Name, tag.InnerTrim, tag.OuterTrim, line)
	if static := tag.StaticAttrs(); tag.Dict != nil || len(static) > 0 {
		c.emit(&Instr{Op: OpAttrs, Line: line, Expr: tag.Dict, Source: tag.DictSource, Static: static})
	}

	switch {
	case tag.Script != nil:
		c.writeLiteral(markupTagEnd, line)
		c.writeExpr(tag.Script, c.escapeFor(tag.Script.Sigil))
	case tag.HasValue:
		c.writeLiteral(markupTagEnd+tag.Value, line)
	case tag.SelfClose || selfClosingTags[tag.Name]:
		c.writeLiteral(markupSelfCloseEnd, line)
	default:
		c.writeLiteral(markupTagEnd, line)
	}
	return nil
}

func (c *Compiler) closeTag(tag *TagNode) error {
	if tag.HasValue || tag.SelfClose {
		if err := c.noNesting(tag, ErrMsgIllegalNesting); err != nil {
			return err
		}
	}

	isLast := c.lastNode == Node(tag)
	autoClose := tag.HasValue || (autoClosingTags[tag.Name] && isLast) || isLast
	selfClose := !tag.HasValue && (tag.SelfClose || selfClosingTags[tag.Name])
	closing := markupCloseTagOpen + tag.Name + markupTagEnd

	if autoClose && !selfClose {
		c.writeLiteral(closing, tag.pos.Line)
	}
	if autoClose || selfClose {
		c.trimNext = tag.OuterTrim
	} else {
		c.push(closing, tag.OuterTrim, tag.InnerTrim, tag.pos.Line)
	}
	return nil
}

func (c *Compiler) openStatement(n *SilentScriptNode) error {
	frame := c.blocks[len(c.blocks)-1]
	switch n.Stmt.Kind() {
	case StmtKindElif, StmtKindElse:
		if !frame.chain {
			return NewSyntaxError(ErrMsgOrphanElse, n.Source, n.pos, nil)
		}
	}

	instr := &Instr{Op: OpStatement, Line: n.pos.Line, Source: n.Source, Stmt: n.Stmt}
	c.emit(instr)
	c.blocks = append(c.blocks, &blockFrame{instr: instr})
	return nil
}

func (c *Compiler) closeStatement(n *SilentScriptNode) error {
	c.blocks = c.blocks[:len(c.blocks)-1]
	if !n.Stmt.IsBlock() && c.lastNode != Node(n) {
		return NewSyntaxError(ErrMsgStatementNoBlock, n.Source, n.pos, nil)
	}
	return nil
}

// noNesting fails when a node other than n was opened after n
func (c *Compiler) noNesting(n Node, message string) error {
	if c.lastNode != n {
		return &NestingError{Message: message, Position: c.lastNode.Pos()}
	}
	return nil
}

// push writes text on a new indented line unless outer trim or the
// previous close asked for it to be glued on.
func (c *Compiler) push(text string, inner, outer bool, line int) {
	c.indent(outer, line)
	c.writeLiteral(text, line)
	c.trimNext = inner
}

func (c *Compiler) pushExpr(n *ScriptNode, escape bool) {
	c.indent(false, n.pos.Line)
	c.writeExpr(n, escape)
	c.trimNext = false
}

func (c *Compiler) indent(outer bool, line int) {
	if !outer && !c.trimNext {
		c.emit(&Instr{Op: OpIndent, Line: line})
	}
}

func (c *Compiler) writeLiteral(text string, line int) {
	c.emit(&Instr{Op: OpWriteLiteral, Line: line, Text: text})
}

func (c *Compiler) writeExpr(n *ScriptNode, escape bool) {
	c.emit(&Instr{Op: OpWriteExpr, Line: n.pos.Line, Expr: n.Expr, Source: n.Source, Escape: escape})
}

// emit appends to the innermost open body, merging adjacent literals
func (c *Compiler) emit(instr *Instr) {
	frame := c.blocks[len(c.blocks)-1]
	body := frame.instr.Body

	if instr.Op == OpWriteLiteral && len(body) > 0 {
		if prev := body[len(body)-1]; prev.Op == OpWriteLiteral {
			prev.Text += instr.Text
			return
		}
	}

	frame.chain = false
	if instr.Op == OpStatement {
		switch instr.Stmt.Kind() {
		case StmtKindIf, StmtKindElif:
			frame.chain = true
		}
	}
	frame.instr.Body = append(body, instr)
}

func (c *Compiler) escapeFor(sigil string) bool {
	switch sigil {
	case SigilEscape:
		return true
	case SigilRaw:
		return false
	default:
		return c.config.Escape
	}
}

func (c *Compiler) doctypeMarkup(n *DoctypeNode) string {
	if n.XML {
		charset := n.Charset
		if charset == "" {
			charset = DefaultXMLCharset
		}
		return markupXMLDeclOpen + charset + markupXMLDeclClose
	}
	return c.config.Doctypes.Lookup(c.config.Format, n.Variant)
}
