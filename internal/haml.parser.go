package internal

import (
	"go.uber.org/zap"
)

// Parser assembles nodes from the lexer's tokens and hands each one to the
// compiler as soon as it is complete.
type Parser struct {
	lexer    *Lexer
	compiler *Compiler
	current  Token
	depth    int
	nodes    int
	logger   *zap.Logger
}

// NewParser creates a parser reading from lexer and driving compiler
func NewParser(lexer *Lexer, compiler *Compiler, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgParserCreated)
	return &Parser{
		lexer:    lexer,
		compiler: compiler,
		logger:   logger,
	}
}

// Parse consumes the whole token stream and returns the compiled program
func (p *Parser) Parse() (*Program, error) {
	p.logger.Debug(LogMsgParserStart)
	if err := p.advance(); err != nil {
		return nil, err
	}

	for {
		switch p.current.Type {
		case TokenTypeEOF:
			if err := p.compiler.CloseAll(); err != nil {
				return nil, err
			}
			program := p.compiler.Program()
			p.logger.Debug(LogMsgParserEnd,
				zap.Int(LogFieldNodes, p.nodes),
				zap.Int(LogFieldInstructions, program.Len()))
			return program, nil

		case TokenTypeLineBreak:
			p.depth = p.current.Depth
			if err := p.advance(); err != nil {
				return nil, err
			}

		default:
			node, err := p.parseObject()
			if err != nil {
				return nil, err
			}
			if err := p.compiler.Open(node, p.depth); err != nil {
				return nil, err
			}
			p.nodes++
			if !p.check(TokenTypeLineBreak) && !p.check(TokenTypeEOF) {
				return nil, p.newUnexpectedTokenError()
			}
		}
	}
}

// parseObject reduces the tokens of one line to a node
func (p *Parser) parseObject() (Node, error) {
	tok := p.current

	switch tok.Type {
	case TokenTypeTagName, TokenTypeID, TokenTypeClassName:
		return p.parseElement()

	case TokenTypeContent:
		return NewContentNode(tok.Value, tok.Position), p.advance()

	case TokenTypeScript:
		script, err := p.parseScript()
		if err != nil {
			return nil, err
		}
		return script, p.advance()

	case TokenTypeSilentScript:
		stmt, err := ParseStatement(tok.Value)
		if err != nil {
			return nil, NewSyntaxError(ErrMsgInvalidStatement, tok.Value, tok.Position, err)
		}
		return &SilentScriptNode{pos: tok.Position, Source: tok.Value, Stmt: stmt}, p.advance()

	case TokenTypeComment, TokenTypeCondComment:
		comment := &CommentNode{
			pos:         tok.Position,
			Condition:   tok.Value,
			Conditional: tok.Type == TokenTypeCondComment,
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.check(TokenTypeCommentText) {
			comment.Text = p.current.Value
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		return comment, nil

	case TokenTypeDoctype:
		doctype := &DoctypeNode{pos: tok.Position}
		if err := p.advance(); err != nil {
			return nil, err
		}
		switch p.current.Type {
		case TokenTypeXMLType:
			doctype.XML = true
			doctype.Charset = p.current.Value
		case TokenTypeHTMLType:
			doctype.Variant = p.current.Value
		default:
			return doctype, nil
		}
		return doctype, p.advance()

	default:
		return nil, p.newUnexpectedTokenError()
	}
}

// parseElement reduces tag := name? (id | class)* trim? dict? selfclose? (value | script)?
func (p *Parser) parseElement() (*TagNode, error) {
	tag := NewTagNode(p.current.Position)

	if p.check(TokenTypeTagName) {
		tag.Name = p.current.Value
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	for p.check(TokenTypeID) || p.check(TokenTypeClassName) {
		if p.check(TokenTypeID) {
			tag.ID = p.current.Value
		} else {
			tag.Classes = append(tag.Classes, p.current.Value)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	if p.check(TokenTypeTrim) {
		switch p.current.Value {
		case TrimInner:
			tag.InnerTrim = true
		case TrimOuter:
			tag.OuterTrim = true
		default:
			tag.InnerTrim, tag.OuterTrim = true, true
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	if p.check(TokenTypeDict) {
		tok := p.current
		dict, err := ParseExpression(tok.Value)
		if err != nil {
			return nil, NewSyntaxError(ErrMsgInvalidExpression, tok.Value, tok.Position, err)
		}
		tag.Dict, tag.DictSource = dict, tok.Value
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	if p.check(TokenTypeSelfClose) {
		tag.SelfClose = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	switch p.current.Type {
	case TokenTypeValue:
		tag.Value, tag.HasValue = p.current.Value, true
	case TokenTypeScript:
		script, err := p.parseScript()
		if err != nil {
			return nil, err
		}
		tag.Script, tag.HasValue = script, true
	default:
		return tag, nil
	}
	return tag, p.advance()
}

func (p *Parser) parseScript() (*ScriptNode, error) {
	tok := p.current
	expr, err := ParseExpression(tok.Value)
	if err != nil {
		return nil, NewSyntaxError(ErrMsgInvalidExpression, tok.Value, tok.Position, err)
	}
	return &ScriptNode{pos: tok.Position, Sigil: tok.Sigil, Source: tok.Value, Expr: expr}, nil
}

// Helper methods

func (p *Parser) advance() error {
	tok, err := p.lexer.Next()
	if err != nil {
		return err
	}
	p.current = tok
	return nil
}

func (p *Parser) check(tokenType TokenType) bool {
	return p.current.Type == tokenType
}

func (p *Parser) newUnexpectedTokenError() error {
	return NewSyntaxError(ErrMsgUnexpectedToken, p.current.String(), p.current.Position, nil)
}

// Compile lexes, parses and compiles source in a single pass. Skipped
// illegal characters are returned as diagnostics alongside the program.
func Compile(source string, config CompilerConfig, logger *zap.Logger) (*Program, []*LexError, error) {
	lexer := NewLexer(source, logger)
	compiler := NewCompiler(config, logger)
	program, err := NewParser(lexer, compiler, logger).Parse()
	if err != nil {
		return nil, lexer.Diagnostics(), err
	}
	return program, lexer.Diagnostics(), nil
}
