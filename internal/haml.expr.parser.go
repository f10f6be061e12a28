package internal

import "fmt"

// ExprParser parses expression tokens into an AST
type ExprParser struct {
	tokens []ExprToken
	pos    int
}

// NewExprParser creates a new expression parser
func NewExprParser(tokens []ExprToken) *ExprParser {
	return &ExprParser{
		tokens: tokens,
		pos:    0,
	}
}

// Parse parses the expression and returns the root AST node
func (p *ExprParser) Parse() (ExprNode, error) {
	if len(p.tokens) == 0 || (len(p.tokens) == 1 && p.tokens[0].Type == ExprTokenTypeEOF) {
		return nil, NewExprParseError(ErrMsgExprEmptyExpression, 0, "")
	}

	node, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if !p.isAtEnd() {
		return nil, NewExprParseError(ErrMsgExprUnexpectedToken, p.peek().Pos, p.peek().Value)
	}

	return node, nil
}

// parseExpression parses a full expression (lowest precedence)
func (p *ExprParser) parseExpression() (ExprNode, error) {
	return p.parseOr()
}

// parseOr parses OR expressions
func (p *ExprParser) parseOr() (ExprNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.match(ExprTokenTypeOr) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = NewBinary(left, ExprTokenTypeOr, right)
	}

	return left, nil
}

// parseAnd parses AND expressions
func (p *ExprParser) parseAnd() (ExprNode, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	for p.match(ExprTokenTypeAnd) {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = NewBinary(left, ExprTokenTypeAnd, right)
	}

	return left, nil
}

// parseNot parses logical negation
func (p *ExprParser) parseNot() (ExprNode, error) {
	if p.match(ExprTokenTypeNot) {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return NewUnary(ExprTokenTypeNot, right), nil
	}

	return p.parseComparison()
}

// parseComparison parses ==, !=, <, >, <=, >=, in and not in
func (p *ExprParser) parseComparison() (ExprNode, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	for {
		var op ExprTokenType
		switch {
		case p.matchAny(ExprTokenTypeEq, ExprTokenTypeNeq, ExprTokenTypeLt, ExprTokenTypeGt,
			ExprTokenTypeLte, ExprTokenTypeGte, ExprTokenTypeIn):
			op = p.previous().Type
		case p.check(ExprTokenTypeNot) && p.checkNext(ExprTokenTypeIn):
			p.advance()
			p.advance()
			op = ExprTokenTypeNotIn
		default:
			return left, nil
		}

		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = NewBinary(left, op, right)
	}
}

// parseAdditive parses + and -
func (p *ExprParser) parseAdditive() (ExprNode, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for p.matchAny(ExprTokenTypePlus, ExprTokenTypeMinus) {
		op := p.previous().Type
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = NewBinary(left, op, right)
	}

	return left, nil
}

// parseMultiplicative parses *, /, // and %
func (p *ExprParser) parseMultiplicative() (ExprNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for p.matchAny(ExprTokenTypeStar, ExprTokenTypeSlash, ExprTokenTypeDoubleSlash, ExprTokenTypePercent) {
		op := p.previous().Type
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = NewBinary(left, op, right)
	}

	return left, nil
}

// parseUnary parses unary minus and plus
func (p *ExprParser) parseUnary() (ExprNode, error) {
	if p.matchAny(ExprTokenTypeMinus, ExprTokenTypePlus) {
		op := p.previous().Type
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return NewUnary(op, right), nil
	}

	return p.parsePostfix()
}

// parsePostfix parses calls, subscripts and attribute access
func (p *ExprParser) parsePostfix() (ExprNode, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.match(ExprTokenTypeLParen):
			args, err := p.parseSequence(ExprTokenTypeRParen)
			if err != nil {
				return nil, err
			}
			node = NewCall(node, args)
		case p.match(ExprTokenTypeLBracket):
			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if !p.match(ExprTokenTypeRBracket) {
				return nil, NewExprParseError(ErrMsgExprExpectedRBracket, p.currentPos(), "")
			}
			node = &IndexNode{Object: node, Index: index}
		case p.match(ExprTokenTypeDot):
			if !p.match(ExprTokenTypeIdentifier) {
				return nil, NewExprParseError(ErrMsgExprExpectedName, p.currentPos(), "")
			}
			node = &AttrNode{Object: node, Name: p.previous().Value}
		default:
			return node, nil
		}
	}
}

// parseSequence parses comma-separated expressions up to the closing token.
// A trailing comma is allowed.
func (p *ExprParser) parseSequence(closing ExprTokenType) ([]ExprNode, error) {
	var items []ExprNode

	for !p.check(closing) {
		item, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		items = append(items, item)

		if !p.match(ExprTokenTypeComma) {
			break
		}
	}

	if !p.match(closing) {
		return nil, NewExprParseError(closingMessage(closing), p.currentPos(), "")
	}

	return items, nil
}

// parseDict parses the body of a dict literal after the opening brace
func (p *ExprParser) parseDict() (ExprNode, error) {
	dict := &DictNode{}

	for !p.check(ExprTokenTypeRBrace) {
		key, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if !p.match(ExprTokenTypeColon) {
			return nil, NewExprParseError(ErrMsgExprExpectedColon, p.currentPos(), "")
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		dict.Keys = append(dict.Keys, key)
		dict.Values = append(dict.Values, value)

		if !p.match(ExprTokenTypeComma) {
			break
		}
	}

	if !p.match(ExprTokenTypeRBrace) {
		return nil, NewExprParseError(ErrMsgExprExpectedRBrace, p.currentPos(), "")
	}

	return dict, nil
}

// parsePrimary parses literals, identifiers, groups, lists and dicts
func (p *ExprParser) parsePrimary() (ExprNode, error) {
	if p.match(ExprTokenTypeString) {
		return NewLiteralString(p.previous().Literal.(string)), nil
	}

	if p.match(ExprTokenTypeNumber) {
		return NewLiteralNumber(p.previous().Literal.(float64)), nil
	}

	if p.match(ExprTokenTypeBool) {
		return NewLiteralBool(p.previous().Literal.(bool)), nil
	}

	if p.match(ExprTokenTypeNil) {
		return NewLiteralNil(), nil
	}

	if p.match(ExprTokenTypeIdentifier) {
		return NewIdentifier(p.previous().Value), nil
	}

	// Parenthesized expression; a comma makes it a tuple, kept as a list
	if p.match(ExprTokenTypeLParen) {
		if p.match(ExprTokenTypeRParen) {
			return &ListNode{}, nil
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if p.match(ExprTokenTypeComma) {
			rest, err := p.parseSequence(ExprTokenTypeRParen)
			if err != nil {
				return nil, err
			}
			return &ListNode{Items: append([]ExprNode{expr}, rest...)}, nil
		}
		if !p.match(ExprTokenTypeRParen) {
			return nil, NewExprParseError(ErrMsgExprExpectedRParen, p.currentPos(), "")
		}
		return expr, nil
	}

	if p.match(ExprTokenTypeLBracket) {
		items, err := p.parseSequence(ExprTokenTypeRBracket)
		if err != nil {
			return nil, err
		}
		return &ListNode{Items: items}, nil
	}

	if p.match(ExprTokenTypeLBrace) {
		return p.parseDict()
	}

	if p.isAtEnd() {
		return nil, NewExprParseError(ErrMsgExprUnexpectedEOF, p.currentPos(), "")
	}

	return nil, NewExprParseError(ErrMsgExprUnexpectedToken, p.peek().Pos, p.peek().Value)
}

func closingMessage(closing ExprTokenType) string {
	switch closing {
	case ExprTokenTypeRBracket:
		return ErrMsgExprExpectedRBracket
	case ExprTokenTypeRBrace:
		return ErrMsgExprExpectedRBrace
	default:
		return ErrMsgExprExpectedRParen
	}
}

// Helper methods

// match checks if the current token matches and advances if so
func (p *ExprParser) match(tokenType ExprTokenType) bool {
	if p.check(tokenType) {
		p.advance()
		return true
	}
	return false
}

// matchAny checks if the current token matches any of the given types
func (p *ExprParser) matchAny(types ...ExprTokenType) bool {
	for _, t := range types {
		if p.match(t) {
			return true
		}
	}
	return false
}

// check returns true if the current token is of the given type
func (p *ExprParser) check(tokenType ExprTokenType) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Type == tokenType
}

// checkNext returns true if the token after the current one is of the given type
func (p *ExprParser) checkNext(tokenType ExprTokenType) bool {
	if p.pos+1 >= len(p.tokens) {
		return false
	}
	return p.tokens[p.pos+1].Type == tokenType
}

// advance moves to the next token and returns the previous one
func (p *ExprParser) advance() ExprToken {
	if !p.isAtEnd() {
		p.pos++
	}
	return p.previous()
}

// peek returns the current token
func (p *ExprParser) peek() ExprToken {
	if p.pos >= len(p.tokens) {
		return ExprToken{Type: ExprTokenTypeEOF, Pos: p.currentPos()}
	}
	return p.tokens[p.pos]
}

// previous returns the previous token
func (p *ExprParser) previous() ExprToken {
	if p.pos == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.pos-1]
}

// isAtEnd returns true if we've consumed all tokens
func (p *ExprParser) isAtEnd() bool {
	return p.pos >= len(p.tokens) || p.tokens[p.pos].Type == ExprTokenTypeEOF
}

// currentPos returns the current position for error reporting
func (p *ExprParser) currentPos() int {
	if p.pos >= len(p.tokens) {
		if len(p.tokens) > 0 {
			return p.tokens[len(p.tokens)-1].Pos
		}
		return 0
	}
	return p.tokens[p.pos].Pos
}

// ExprParseError represents an error during expression parsing
type ExprParseError struct {
	Message string
	Pos     int
	Detail  string
}

// NewExprParseError creates a new expression parse error
func NewExprParseError(message string, pos int, detail string) *ExprParseError {
	return &ExprParseError{
		Message: message,
		Pos:     pos,
		Detail:  detail,
	}
}

// Error implements the error interface
func (e *ExprParseError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s at position %d: %s", e.Message, e.Pos, e.Detail)
	}
	return fmt.Sprintf("%s at position %d", e.Message, e.Pos)
}

// Expression parser error messages
const (
	ErrMsgExprEmptyExpression  = "empty expression"
	ErrMsgExprUnexpectedToken  = "unexpected token"
	ErrMsgExprExpectedRParen   = "expected closing parenthesis"
	ErrMsgExprExpectedRBracket = "expected closing bracket"
	ErrMsgExprExpectedRBrace   = "expected closing brace"
	ErrMsgExprExpectedColon    = "expected ':' in dict literal"
	ErrMsgExprExpectedName     = "expected attribute name after '.'"
	ErrMsgExprUnexpectedEOF    = "unexpected end of expression"
)

// ParseExpression is a convenience function that tokenizes and parses an expression string
func ParseExpression(expr string) (ExprNode, error) {
	tokenizer := NewExprTokenizer(expr)
	tokens, err := tokenizer.Tokenize()
	if err != nil {
		return nil, err
	}

	parser := NewExprParser(tokens)
	return parser.Parse()
}
