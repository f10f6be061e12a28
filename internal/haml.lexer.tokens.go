package internal

import "fmt"

// Position represents a location in the source text
type Position struct {
	Offset int // Byte offset from start of input
	Line   int // 1-based line number
	Column int // 1-based column number
}

// String returns a human-readable position
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value string
	// Sigil is set on script tokens: "=", "&=" or "!=".
	Sigil string
	// Depth is set on line-break tokens to the indentation depth of the following line.
	Depth    int
	Position Position
}

// String returns a string representation of the token
func (t Token) String() string {
	switch t.Type {
	case TokenTypeLineBreak:
		return fmt.Sprintf("%s(depth=%d) @ %s", t.Type, t.Depth, t.Position)
	case TokenTypeScript:
		return fmt.Sprintf("%s(%s %q) @ %s", t.Type, t.Sigil, t.Value, t.Position)
	}
	if t.Value == "" {
		return fmt.Sprintf("%s @ %s", t.Type, t.Position)
	}
	return fmt.Sprintf("%s(%q) @ %s", t.Type, t.Value, t.Position)
}

// IsEOF returns true if this is an EOF token
func (t Token) IsEOF() bool {
	return t.Type == TokenTypeEOF
}

// NewToken creates a token of the given type
func NewToken(tokenType TokenType, value string, pos Position) Token {
	return Token{Type: tokenType, Value: value, Position: pos}
}

// NewLineBreakToken creates a line-break token carrying the next line's depth
func NewLineBreakToken(depth int, pos Position) Token {
	return Token{Type: TokenTypeLineBreak, Depth: depth, Position: pos}
}

// NewScriptToken creates a script token with its sigil
func NewScriptToken(sigil, source string, pos Position) Token {
	return Token{Type: TokenTypeScript, Value: source, Sigil: sigil, Position: pos}
}

// NewEOFToken creates an EOF token
func NewEOFToken(pos Position) Token {
	return Token{Type: TokenTypeEOF, Position: pos}
}
