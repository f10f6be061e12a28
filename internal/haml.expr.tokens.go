package internal

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ExprTokenType represents the type of an expression token
type ExprTokenType string

// Expression token type constants
const (
	ExprTokenTypeIdentifier ExprTokenType = "IDENT"
	ExprTokenTypeString     ExprTokenType = "STRING"
	ExprTokenTypeNumber     ExprTokenType = "NUMBER"
	ExprTokenTypeBool       ExprTokenType = "BOOL"
	ExprTokenTypeNil        ExprTokenType = "NIL"
	ExprTokenTypeLParen     ExprTokenType = "LPAREN"
	ExprTokenTypeRParen     ExprTokenType = "RPAREN"
	ExprTokenTypeLBracket   ExprTokenType = "LBRACKET"
	ExprTokenTypeRBracket   ExprTokenType = "RBRACKET"
	ExprTokenTypeLBrace     ExprTokenType = "LBRACE"
	ExprTokenTypeRBrace     ExprTokenType = "RBRACE"
	ExprTokenTypeComma      ExprTokenType = "COMMA"
	ExprTokenTypeColon      ExprTokenType = "COLON"
	ExprTokenTypeDot        ExprTokenType = "DOT"

	// Assignment
	ExprTokenTypeAssign      ExprTokenType = "ASSIGN"
	ExprTokenTypePlusAssign  ExprTokenType = "PLUS_ASSIGN"
	ExprTokenTypeMinusAssign ExprTokenType = "MINUS_ASSIGN"

	// Arithmetic
	ExprTokenTypePlus        ExprTokenType = "PLUS"
	ExprTokenTypeMinus       ExprTokenType = "MINUS"
	ExprTokenTypeStar        ExprTokenType = "STAR"
	ExprTokenTypeSlash       ExprTokenType = "SLASH"
	ExprTokenTypeDoubleSlash ExprTokenType = "DOUBLE_SLASH"
	ExprTokenTypePercent     ExprTokenType = "PERCENT"

	// Logic and comparison
	ExprTokenTypeAnd ExprTokenType = "AND"
	ExprTokenTypeOr  ExprTokenType = "OR"
	ExprTokenTypeNot ExprTokenType = "NOT"
	ExprTokenTypeIn  ExprTokenType = "IN"
	ExprTokenTypeEq  ExprTokenType = "EQ"
	ExprTokenTypeNeq ExprTokenType = "NEQ"
	ExprTokenTypeLt  ExprTokenType = "LT"
	ExprTokenTypeGt  ExprTokenType = "GT"
	ExprTokenTypeLte ExprTokenType = "LTE"
	ExprTokenTypeGte ExprTokenType = "GTE"

	ExprTokenTypeEOF ExprTokenType = "EOF"
)

// Expression operator strings
const (
	ExprOpAnd         = "&&"
	ExprOpOr          = "||"
	ExprOpNot         = "!"
	ExprOpEq          = "=="
	ExprOpNeq         = "!="
	ExprOpLt          = "<"
	ExprOpGt          = ">"
	ExprOpLte         = "<="
	ExprOpGte         = ">="
	ExprOpPlusAssign  = "+="
	ExprOpMinusAssign = "-="
	ExprOpDoubleSlash = "//"
)

// Expression keyword constants
const (
	ExprKeywordTrue     = "true"
	ExprKeywordFalse    = "false"
	ExprKeywordNil      = "nil"
	ExprKeywordTrueAlt  = "True"
	ExprKeywordFalseAlt = "False"
	ExprKeywordNone     = "None"
	ExprKeywordAnd      = "and"
	ExprKeywordOr       = "or"
	ExprKeywordNot      = "not"
	ExprKeywordIn       = "in"
)

// tripleQuoteLen is the length of a triple-quote delimiter
const tripleQuoteLen = 3

// ExprToken represents a token in an expression
type ExprToken struct {
	Type    ExprTokenType
	Value   string
	Pos     int
	Literal any // Parsed value for literals
}

// String returns a string representation of the token
func (t ExprToken) String() string {
	return fmt.Sprintf("%s(%q)@%d", t.Type, t.Value, t.Pos)
}

// ExprTokenizer tokenizes expression strings
type ExprTokenizer struct {
	input string
	pos   int
	len   int
}

// NewExprTokenizer creates a new expression tokenizer
func NewExprTokenizer(input string) *ExprTokenizer {
	return &ExprTokenizer{
		input: input,
		pos:   0,
		len:   len(input),
	}
}

// Tokenize converts the input into a slice of tokens
func (t *ExprTokenizer) Tokenize() ([]ExprToken, error) {
	var tokens []ExprToken

	for {
		t.skipWhitespace()
		if t.pos >= t.len {
			tokens = append(tokens, ExprToken{Type: ExprTokenTypeEOF, Pos: t.pos})
			break
		}

		token, err := t.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}

	return tokens, nil
}

// nextToken reads the next token from the input
func (t *ExprTokenizer) nextToken() (ExprToken, error) {
	startPos := t.pos
	ch := t.peek()

	// String literals
	if ch == CharDoubleQuote || ch == CharSingleQuote {
		return t.readString()
	}

	// Numbers
	if isASCIIDigit(ch) || (ch == CharDot && t.pos+1 < t.len && isASCIIDigit(t.input[t.pos+1])) {
		return t.readNumber()
	}

	// Identifiers and keywords
	if unicode.IsLetter(rune(ch)) || ch == CharUnderscore {
		return t.readIdentifier()
	}

	// Two-character operators
	if t.pos+1 < t.len {
		twoChar := t.input[t.pos : t.pos+2]
		var tokType ExprTokenType
		switch twoChar {
		case ExprOpAnd:
			tokType = ExprTokenTypeAnd
		case ExprOpOr:
			tokType = ExprTokenTypeOr
		case ExprOpEq:
			tokType = ExprTokenTypeEq
		case ExprOpNeq:
			tokType = ExprTokenTypeNeq
		case ExprOpLte:
			tokType = ExprTokenTypeLte
		case ExprOpGte:
			tokType = ExprTokenTypeGte
		case ExprOpPlusAssign:
			tokType = ExprTokenTypePlusAssign
		case ExprOpMinusAssign:
			tokType = ExprTokenTypeMinusAssign
		case ExprOpDoubleSlash:
			tokType = ExprTokenTypeDoubleSlash
		}
		if tokType != "" {
			t.pos += 2
			return ExprToken{Type: tokType, Value: twoChar, Pos: startPos}, nil
		}
	}

	// Single-character tokens
	t.pos++
	value := string(ch)
	switch ch {
	case '(':
		return ExprToken{Type: ExprTokenTypeLParen, Value: value, Pos: startPos}, nil
	case ')':
		return ExprToken{Type: ExprTokenTypeRParen, Value: value, Pos: startPos}, nil
	case '[':
		return ExprToken{Type: ExprTokenTypeLBracket, Value: value, Pos: startPos}, nil
	case ']':
		return ExprToken{Type: ExprTokenTypeRBracket, Value: value, Pos: startPos}, nil
	case '{':
		return ExprToken{Type: ExprTokenTypeLBrace, Value: value, Pos: startPos}, nil
	case '}':
		return ExprToken{Type: ExprTokenTypeRBrace, Value: value, Pos: startPos}, nil
	case ',':
		return ExprToken{Type: ExprTokenTypeComma, Value: value, Pos: startPos}, nil
	case ':':
		return ExprToken{Type: ExprTokenTypeColon, Value: value, Pos: startPos}, nil
	case '.':
		return ExprToken{Type: ExprTokenTypeDot, Value: value, Pos: startPos}, nil
	case '=':
		return ExprToken{Type: ExprTokenTypeAssign, Value: value, Pos: startPos}, nil
	case '+':
		return ExprToken{Type: ExprTokenTypePlus, Value: value, Pos: startPos}, nil
	case '-':
		return ExprToken{Type: ExprTokenTypeMinus, Value: value, Pos: startPos}, nil
	case '*':
		return ExprToken{Type: ExprTokenTypeStar, Value: value, Pos: startPos}, nil
	case '/':
		return ExprToken{Type: ExprTokenTypeSlash, Value: value, Pos: startPos}, nil
	case '%':
		return ExprToken{Type: ExprTokenTypePercent, Value: value, Pos: startPos}, nil
	case '!':
		return ExprToken{Type: ExprTokenTypeNot, Value: ExprOpNot, Pos: startPos}, nil
	case '<':
		return ExprToken{Type: ExprTokenTypeLt, Value: ExprOpLt, Pos: startPos}, nil
	case '>':
		return ExprToken{Type: ExprTokenTypeGt, Value: ExprOpGt, Pos: startPos}, nil
	}

	return ExprToken{}, NewExprTokenError(ErrMsgExprUnexpectedChar, startPos, value)
}

// readString reads a single, double or triple-quoted string literal
func (t *ExprTokenizer) readString() (ExprToken, error) {
	startPos := t.pos
	quote := t.input[t.pos]
	delim := string(quote)
	if strings.HasPrefix(t.input[t.pos:], strings.Repeat(delim, tripleQuoteLen)) {
		delim = strings.Repeat(delim, tripleQuoteLen)
	}
	triple := len(delim) == tripleQuoteLen
	t.pos += len(delim)

	var sb strings.Builder
	for t.pos < t.len {
		ch := t.input[t.pos]
		if strings.HasPrefix(t.input[t.pos:], delim) {
			t.pos += len(delim)
			value := sb.String()
			return ExprToken{
				Type:    ExprTokenTypeString,
				Value:   value,
				Pos:     startPos,
				Literal: value,
			}, nil
		}
		if ch == CharNewline && !triple {
			break
		}
		if ch == CharBackslash && t.pos+1 < t.len {
			t.pos++
			escaped := t.input[t.pos]
			switch escaped {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			case '\'':
				sb.WriteByte('\'')
			case '\n':
				// line continuation inside a string
			default:
				sb.WriteByte('\\')
				sb.WriteByte(escaped)
			}
			t.pos++
			continue
		}
		sb.WriteByte(ch)
		t.pos++
	}

	return ExprToken{}, NewExprTokenError(ErrMsgExprUnterminatedStr, startPos, "")
}

// readNumber reads a numeric literal
func (t *ExprTokenizer) readNumber() (ExprToken, error) {
	startPos := t.pos
	hasDecimal := false

	for t.pos < t.len {
		ch := t.input[t.pos]
		if ch == CharDot {
			if hasDecimal || t.pos+1 >= t.len || !isASCIIDigit(t.input[t.pos+1]) {
				break
			}
			hasDecimal = true
			t.pos++
			continue
		}
		if !isASCIIDigit(ch) {
			break
		}
		t.pos++
	}

	value := t.input[startPos:t.pos]
	literal, err := strconv.ParseFloat(value, FloatBitSize64)
	if err != nil {
		return ExprToken{}, NewExprTokenError(ErrMsgExprInvalidNumber, startPos, value)
	}

	return ExprToken{
		Type:    ExprTokenTypeNumber,
		Value:   value,
		Pos:     startPos,
		Literal: literal,
	}, nil
}

// readIdentifier reads an identifier or keyword
func (t *ExprTokenizer) readIdentifier() (ExprToken, error) {
	startPos := t.pos

	for t.pos < t.len {
		ch := rune(t.input[t.pos])
		if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && ch != CharUnderscore {
			break
		}
		t.pos++
	}

	value := t.input[startPos:t.pos]

	switch value {
	case ExprKeywordTrue, ExprKeywordTrueAlt:
		return ExprToken{Type: ExprTokenTypeBool, Value: value, Pos: startPos, Literal: true}, nil
	case ExprKeywordFalse, ExprKeywordFalseAlt:
		return ExprToken{Type: ExprTokenTypeBool, Value: value, Pos: startPos, Literal: false}, nil
	case ExprKeywordNil, ExprKeywordNone:
		return ExprToken{Type: ExprTokenTypeNil, Value: value, Pos: startPos, Literal: nil}, nil
	case ExprKeywordAnd:
		return ExprToken{Type: ExprTokenTypeAnd, Value: value, Pos: startPos}, nil
	case ExprKeywordOr:
		return ExprToken{Type: ExprTokenTypeOr, Value: value, Pos: startPos}, nil
	case ExprKeywordNot:
		return ExprToken{Type: ExprTokenTypeNot, Value: value, Pos: startPos}, nil
	case ExprKeywordIn:
		return ExprToken{Type: ExprTokenTypeIn, Value: value, Pos: startPos}, nil
	}

	return ExprToken{Type: ExprTokenTypeIdentifier, Value: value, Pos: startPos}, nil
}

// peek returns the current character without advancing
func (t *ExprTokenizer) peek() byte {
	if t.pos >= t.len {
		return 0
	}
	return t.input[t.pos]
}

// skipWhitespace skips whitespace, line continuations and # comments
func (t *ExprTokenizer) skipWhitespace() {
	for t.pos < t.len {
		ch := t.input[t.pos]
		switch {
		case unicode.IsSpace(rune(ch)):
			t.pos++
		case ch == CharBackslash && t.pos+1 < t.len && t.input[t.pos+1] == CharNewline:
			t.pos += 2
		case ch == CharHash:
			t.skipComment()
		default:
			return
		}
	}
}

// skipComment advances to the next newline without consuming it
func (t *ExprTokenizer) skipComment() {
	for t.pos < t.len && t.input[t.pos] != CharNewline {
		t.pos++
	}
}

func isASCIIDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// ScanMode selects how ScanEmbedded decides where a fragment ends
type ScanMode int

// Scan modes
const (
	// ScanModeDict ends just past the '}' that balances the opening '{'.
	ScanModeDict ScanMode = iota
	// ScanModeScript ends at the first newline outside strings and brackets.
	ScanModeScript
)

// ScanEmbedded finds the end offset of an embedded code fragment that starts
// at start. Strings, comments and bracket nesting follow the expression
// language, so braces or '#' inside string literals never end a fragment and
// a fragment may span lines.
func ScanEmbedded(input string, start int, mode ScanMode) (int, error) {
	t := &ExprTokenizer{input: input, pos: start, len: len(input)}
	depth := 0

	for t.pos < t.len {
		ch := t.input[t.pos]
		switch ch {
		case CharSingleQuote, CharDoubleQuote:
			if _, err := t.readString(); err != nil {
				return t.pos, err
			}
		case CharHash:
			t.skipComment()
		case CharBackslash:
			t.pos++
			if t.pos < t.len && t.input[t.pos] == CharNewline {
				t.pos++
			}
		case CharNewline:
			if mode == ScanModeScript && depth == 0 {
				return t.pos, nil
			}
			t.pos++
		case CharLParen, CharLBracket, CharLBrace:
			depth++
			t.pos++
		case CharRParen, CharRBracket, CharRBrace:
			depth--
			if depth < 0 {
				return t.pos, NewExprTokenError(ErrMsgExprUnbalanced, t.pos, string(ch))
			}
			t.pos++
			if mode == ScanModeDict && depth == 0 {
				return t.pos, nil
			}
		default:
			t.pos++
		}
	}

	if mode == ScanModeDict || depth > 0 {
		return t.pos, NewExprTokenError(ErrMsgExprUnbalanced, start, "")
	}
	return t.pos, nil
}

// ExprTokenError represents an error during expression tokenization
type ExprTokenError struct {
	Message string
	Pos     int
	Detail  string
}

// NewExprTokenError creates a new expression token error
func NewExprTokenError(message string, pos int, detail string) *ExprTokenError {
	return &ExprTokenError{
		Message: message,
		Pos:     pos,
		Detail:  detail,
	}
}

// Error implements the error interface
func (e *ExprTokenError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s at position %d: %s", e.Message, e.Pos, e.Detail)
	}
	return fmt.Sprintf("%s at position %d", e.Message, e.Pos)
}

// Expression tokenizer error messages
const (
	ErrMsgExprUnexpectedChar  = "unexpected character"
	ErrMsgExprUnterminatedStr = "unterminated string"
	ErrMsgExprInvalidNumber   = "invalid number"
	ErrMsgExprUnbalanced      = "unbalanced brackets"
)
