package internal

import (
	"fmt"
	"strings"
)

// StmtKind identifies the kind of a silent-script statement
type StmtKind int

// Statement kinds
const (
	StmtKindExpr StmtKind = iota
	StmtKindAssign
	StmtKindFor
	StmtKindIf
	StmtKindElif
	StmtKindElse
	StmtKindDef
	StmtKindImport
	StmtKindRaise
	StmtKindPass
)

// Statement keywords
const (
	StmtKeywordFor    = "for"
	StmtKeywordIf     = "if"
	StmtKeywordElif   = "elif"
	StmtKeywordElse   = "else"
	StmtKeywordDef    = "def"
	StmtKeywordImport = "import"
	StmtKeywordAs     = "as"
	StmtKeywordRaise  = "raise"
	StmtKeywordPass   = "pass"
)

// Stmt is a parsed silent-script statement
type Stmt interface {
	// Kind returns the statement kind
	Kind() StmtKind
	// IsBlock reports whether nested template lines form the statement's body
	IsBlock() bool
	// String renders the statement for program listings
	String() string
	stmt()
}

// ExprStmt evaluates an expression for its side effects
type ExprStmt struct {
	Expr ExprNode
}

func (s *ExprStmt) Kind() StmtKind { return StmtKindExpr }
func (s *ExprStmt) IsBlock() bool  { return false }
func (s *ExprStmt) String() string { return s.Expr.String() }
func (s *ExprStmt) stmt()          {}

// AssignStmt binds a name or subscript; Op is ASSIGN, PLUS_ASSIGN or MINUS_ASSIGN
type AssignStmt struct {
	Target ExprNode
	Op     ExprTokenType
	Value  ExprNode
}

func (s *AssignStmt) Kind() StmtKind { return StmtKindAssign }
func (s *AssignStmt) IsBlock() bool  { return false }
func (s *AssignStmt) stmt()          {}

func (s *AssignStmt) String() string {
	op := "="
	switch s.Op {
	case ExprTokenTypePlusAssign:
		op = ExprOpPlusAssign
	case ExprTokenTypeMinusAssign:
		op = ExprOpMinusAssign
	}
	return fmt.Sprintf("%s %s %s", s.Target.String(), op, s.Value.String())
}

// ForStmt iterates Iter, binding one or two loop variables
type ForStmt struct {
	Vars []string
	Iter ExprNode
}

func (s *ForStmt) Kind() StmtKind { return StmtKindFor }
func (s *ForStmt) IsBlock() bool  { return true }
func (s *ForStmt) stmt()          {}

func (s *ForStmt) String() string {
	return fmt.Sprintf("for %s in %s:", strings.Join(s.Vars, ", "), s.Iter.String())
}

// IfStmt starts a conditional chain
type IfStmt struct {
	Cond ExprNode
}

func (s *IfStmt) Kind() StmtKind { return StmtKindIf }
func (s *IfStmt) IsBlock() bool  { return true }
func (s *IfStmt) String() string { return "if " + s.Cond.String() + ":" }
func (s *IfStmt) stmt()          {}

// ElifStmt continues a conditional chain
type ElifStmt struct {
	Cond ExprNode
}

func (s *ElifStmt) Kind() StmtKind { return StmtKindElif }
func (s *ElifStmt) IsBlock() bool  { return true }
func (s *ElifStmt) String() string { return "elif " + s.Cond.String() + ":" }
func (s *ElifStmt) stmt()          {}

// ElseStmt ends a conditional chain
type ElseStmt struct{}

func (s *ElseStmt) Kind() StmtKind { return StmtKindElse }
func (s *ElseStmt) IsBlock() bool  { return true }
func (s *ElseStmt) String() string { return "else:" }
func (s *ElseStmt) stmt()          {}

// DefStmt defines a template function whose body renders at call time
type DefStmt struct {
	Name   string
	Params []string
}

func (s *DefStmt) Kind() StmtKind { return StmtKindDef }
func (s *DefStmt) IsBlock() bool  { return true }
func (s *DefStmt) stmt()          {}

func (s *DefStmt) String() string {
	return fmt.Sprintf("def %s(%s):", s.Name, strings.Join(s.Params, ", "))
}

// ImportStmt loads another template as a module
type ImportStmt struct {
	Module string
	Alias  string
}

func (s *ImportStmt) Kind() StmtKind { return StmtKindImport }
func (s *ImportStmt) IsBlock() bool  { return false }
func (s *ImportStmt) stmt()          {}

func (s *ImportStmt) String() string {
	if s.Alias != "" && s.Alias != lastDottedPart(s.Module) {
		return fmt.Sprintf("import %s as %s", s.Module, s.Alias)
	}
	return "import " + s.Module
}

// BindName returns the name the module is bound to
func (s *ImportStmt) BindName() string {
	if s.Alias != "" {
		return s.Alias
	}
	return lastDottedPart(s.Module)
}

// RaiseStmt aborts rendering with an error
type RaiseStmt struct {
	Value ExprNode // may be nil
}

func (s *RaiseStmt) Kind() StmtKind { return StmtKindRaise }
func (s *RaiseStmt) IsBlock() bool  { return false }
func (s *RaiseStmt) stmt()          {}

func (s *RaiseStmt) String() string {
	if s.Value == nil {
		return StmtKeywordRaise
	}
	return StmtKeywordRaise + " " + s.Value.String()
}

// PassStmt does nothing
type PassStmt struct{}

func (s *PassStmt) Kind() StmtKind { return StmtKindPass }
func (s *PassStmt) IsBlock() bool  { return false }
func (s *PassStmt) String() string { return StmtKeywordPass }
func (s *PassStmt) stmt()          {}

func lastDottedPart(name string) string {
	if i := strings.LastIndexByte(name, CharDot); i >= 0 {
		return name[i+1:]
	}
	return name
}

// ParseStatement parses the source of a silent script
func ParseStatement(source string) (Stmt, error) {
	tokens, err := NewExprTokenizer(source).Tokenize()
	if err != nil {
		return nil, err
	}
	if len(tokens) <= 1 {
		return nil, NewExprParseError(ErrMsgExprEmptyExpression, 0, "")
	}

	sp := &stmtParser{tokens: tokens}
	first := tokens[0]
	if first.Type == ExprTokenTypeIdentifier {
		switch first.Value {
		case StmtKeywordFor:
			return sp.parseFor()
		case StmtKeywordIf:
			cond, err := sp.blockExpression(1)
			if err != nil {
				return nil, err
			}
			return &IfStmt{Cond: cond}, nil
		case StmtKeywordElif:
			cond, err := sp.blockExpression(1)
			if err != nil {
				return nil, err
			}
			return &ElifStmt{Cond: cond}, nil
		case StmtKeywordElse:
			if err := sp.expectBlockEnd(1); err != nil {
				return nil, err
			}
			return &ElseStmt{}, nil
		case StmtKeywordDef:
			return sp.parseDef()
		case StmtKeywordImport:
			return sp.parseImport()
		case StmtKeywordRaise:
			if len(tokens) == 2 {
				return &RaiseStmt{}, nil
			}
			value, err := parseTokenRange(tokens, 1, len(tokens)-1)
			if err != nil {
				return nil, err
			}
			return &RaiseStmt{Value: value}, nil
		case StmtKeywordPass:
			if len(tokens) != 2 {
				return nil, NewExprParseError(ErrMsgExprUnexpectedToken, tokens[1].Pos, tokens[1].Value)
			}
			return &PassStmt{}, nil
		}
	}

	if idx := findAssignment(tokens); idx >= 0 {
		return sp.parseAssign(idx)
	}

	expr, err := NewExprParser(tokens).Parse()
	if err != nil {
		return nil, err
	}
	return &ExprStmt{Expr: expr}, nil
}

// stmtParser holds the token stream of one statement
type stmtParser struct {
	tokens []ExprToken
}

// end returns the index of the EOF token, dropping one trailing colon
func (sp *stmtParser) blockEnd() int {
	end := len(sp.tokens) - 1
	if end > 0 && sp.tokens[end-1].Type == ExprTokenTypeColon {
		end--
	}
	return end
}

func (sp *stmtParser) expectBlockEnd(from int) error {
	if end := sp.blockEnd(); from != end {
		tok := sp.tokens[from]
		return NewExprParseError(ErrMsgExprUnexpectedToken, tok.Pos, tok.Value)
	}
	return nil
}

func (sp *stmtParser) blockExpression(from int) (ExprNode, error) {
	return parseTokenRange(sp.tokens, from, sp.blockEnd())
}

func (sp *stmtParser) parseFor() (Stmt, error) {
	var vars []string
	i := 1
	for {
		tok := sp.tokens[i]
		if tok.Type != ExprTokenTypeIdentifier {
			return nil, NewExprParseError(ErrMsgStmtExpectedLoopVar, tok.Pos, tok.Value)
		}
		vars = append(vars, tok.Value)
		i++
		if sp.tokens[i].Type != ExprTokenTypeComma {
			break
		}
		i++
	}
	if sp.tokens[i].Type != ExprTokenTypeIn {
		return nil, NewExprParseError(ErrMsgStmtExpectedIn, sp.tokens[i].Pos, sp.tokens[i].Value)
	}
	iter, err := sp.blockExpression(i + 1)
	if err != nil {
		return nil, err
	}
	return &ForStmt{Vars: vars, Iter: iter}, nil
}

func (sp *stmtParser) parseDef() (Stmt, error) {
	end := sp.blockEnd()
	if end < 4 || sp.tokens[1].Type != ExprTokenTypeIdentifier ||
		sp.tokens[2].Type != ExprTokenTypeLParen || sp.tokens[end-1].Type != ExprTokenTypeRParen {
		return nil, NewExprParseError(ErrMsgStmtInvalidDef, sp.tokens[0].Pos, "")
	}

	def := &DefStmt{Name: sp.tokens[1].Value}
	for i := 3; i < end-1; i++ {
		tok := sp.tokens[i]
		if tok.Type != ExprTokenTypeIdentifier {
			return nil, NewExprParseError(ErrMsgStmtInvalidDef, tok.Pos, tok.Value)
		}
		def.Params = append(def.Params, tok.Value)
		i++
		if i < end-1 && sp.tokens[i].Type != ExprTokenTypeComma {
			return nil, NewExprParseError(ErrMsgStmtInvalidDef, sp.tokens[i].Pos, sp.tokens[i].Value)
		}
	}
	return def, nil
}

func (sp *stmtParser) parseImport() (Stmt, error) {
	var parts []string
	i := 1
	for {
		tok := sp.tokens[i]
		if tok.Type != ExprTokenTypeIdentifier {
			return nil, NewExprParseError(ErrMsgStmtInvalidImport, tok.Pos, tok.Value)
		}
		parts = append(parts, tok.Value)
		i++
		if sp.tokens[i].Type != ExprTokenTypeDot {
			break
		}
		i++
	}

	stmt := &ImportStmt{Module: strings.Join(parts, ".")}
	if tok := sp.tokens[i]; tok.Type == ExprTokenTypeIdentifier && tok.Value == StmtKeywordAs {
		alias := sp.tokens[i+1]
		if alias.Type != ExprTokenTypeIdentifier {
			return nil, NewExprParseError(ErrMsgStmtInvalidImport, alias.Pos, alias.Value)
		}
		stmt.Alias = alias.Value
		i += 2
	}
	if sp.tokens[i].Type != ExprTokenTypeEOF {
		return nil, NewExprParseError(ErrMsgExprUnexpectedToken, sp.tokens[i].Pos, sp.tokens[i].Value)
	}
	return stmt, nil
}

func (sp *stmtParser) parseAssign(idx int) (Stmt, error) {
	target, err := parseTokenRange(sp.tokens, 0, idx)
	if err != nil {
		return nil, err
	}
	switch target.(type) {
	case *IdentifierNode, *IndexNode:
	default:
		return nil, NewExprParseError(ErrMsgStmtInvalidTarget, sp.tokens[0].Pos, target.String())
	}

	value, err := parseTokenRange(sp.tokens, idx+1, len(sp.tokens)-1)
	if err != nil {
		return nil, err
	}
	return &AssignStmt{Target: target, Op: sp.tokens[idx].Type, Value: value}, nil
}

// findAssignment returns the index of a top-level assignment operator, or -1
func findAssignment(tokens []ExprToken) int {
	depth := 0
	for i, tok := range tokens {
		switch tok.Type {
		case ExprTokenTypeLParen, ExprTokenTypeLBracket, ExprTokenTypeLBrace:
			depth++
		case ExprTokenTypeRParen, ExprTokenTypeRBracket, ExprTokenTypeRBrace:
			depth--
		case ExprTokenTypeAssign, ExprTokenTypePlusAssign, ExprTokenTypeMinusAssign:
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// parseTokenRange parses tokens[from:to] as a complete expression
func parseTokenRange(tokens []ExprToken, from, to int) (ExprNode, error) {
	if from >= to {
		pos := 0
		if from < len(tokens) {
			pos = tokens[from].Pos
		}
		return nil, NewExprParseError(ErrMsgExprEmptyExpression, pos, "")
	}
	sub := make([]ExprToken, 0, to-from+1)
	sub = append(sub, tokens[from:to]...)
	sub = append(sub, ExprToken{Type: ExprTokenTypeEOF, Pos: tokens[to-1].Pos})
	return NewExprParser(sub).Parse()
}

// Statement parser error messages
const (
	ErrMsgStmtExpectedLoopVar = "expected loop variable"
	ErrMsgStmtExpectedIn      = "expected 'in' in for statement"
	ErrMsgStmtInvalidDef      = "invalid function definition"
	ErrMsgStmtInvalidImport   = "invalid import statement"
	ErrMsgStmtInvalidTarget   = "cannot assign to expression"
)
