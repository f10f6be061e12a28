package internal

import (
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Lexer turns template source into tokens one logical line at a time.
// Tokens are pulled with Next so the parser and compiler run interleaved
// with lexing.
type Lexer struct {
	source      string
	pos         int   // Current byte offset
	lineStarts  []int // Offsets of the first byte of each line
	state       lexState
	indent      *IndentTracker
	silentDepth int
	queue       []Token
	done        bool
	diagnostics []*LexError
	logger      *zap.Logger
}

// NewLexer creates a lexer over source. The source must not contain
// carriage returns.
func NewLexer(source string, logger *zap.Logger) *Lexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgLexerCreated, zap.Int(LogFieldSource, len(source)))

	lineStarts := []int{0}
	for i := 0; i < len(source); i++ {
		if source[i] == CharNewline {
			lineStarts = append(lineStarts, i+1)
		}
	}

	return &Lexer{
		source:     source,
		lineStarts: lineStarts,
		state:      lexStateInitial,
		indent:     NewIndentTracker(),
		logger:     logger,
	}
}

// Next returns the next token. After the EOF token every call returns EOF again.
func (l *Lexer) Next() (Token, error) {
	for len(l.queue) == 0 {
		if l.done {
			return NewEOFToken(l.position(len(l.source))), nil
		}
		if l.pos >= len(l.source) {
			l.done = true
			l.emit(NewEOFToken(l.position(len(l.source))))
			break
		}
		if err := l.lexLine(); err != nil {
			return Token{}, err
		}
	}

	tok := l.queue[0]
	l.queue = l.queue[1:]
	return tok, nil
}

// Tokenize lexes the whole source and returns the token stream ending in EOF
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.IsEOF() {
			break
		}
	}
	l.logger.Debug(LogMsgTokenizerEnd, zap.Int(LogFieldTokens, len(tokens)))
	return tokens, nil
}

// Diagnostics returns the illegal characters skipped so far
func (l *Lexer) Diagnostics() []*LexError {
	return l.diagnostics
}

// lexLine handles the indentation of the line starting at l.pos and then
// the line's content.
func (l *Lexer) lexLine() error {
	lineStart := l.pos
	run := l.readWhile(isIndentChar)

	if l.atLineEnd() {
		l.endLine()
		return nil
	}

	if l.state == lexStateSilent {
		if l.indent.Measure(run) > l.silentDepth {
			l.skipLine()
			return nil
		}
		l.indent.Pop()
	}
	l.state = lexStateInitial

	depth, err := l.indent.Process(run)
	if err != nil {
		return &IndentError{Message: err.Error(), Position: l.position(lineStart)}
	}
	l.emit(NewLineBreakToken(depth, l.position(lineStart)))

	return l.lexInitial()
}

// lexInitial dispatches on the first character of a line
func (l *Lexer) lexInitial() error {
	for !l.atLineEnd() {
		start := l.pos
		ch := l.peek()

		switch {
		case l.matchStr(DoctypeMarker):
			return l.lexDoctype()
		case l.matchStr(SilentCommentMarker):
			l.startSilent()
			return nil
		case l.matchStr(SigilEscape):
			return l.lexScript(TokenTypeScript, SigilEscape)
		case l.matchStr(SigilRaw):
			return l.lexScript(TokenTypeScript, SigilRaw)
		case ch == CharEquals:
			return l.lexScript(TokenTypeScript, SigilDefault)
		case ch == CharDash:
			return l.lexScript(TokenTypeSilentScript, SigilSilent)
		case ch == CharSlash:
			return l.lexComment()
		case ch == CharPercent && isTagNameStart(l.peekAt(1)):
			l.pos++
			l.emit(NewToken(TokenTypeTagName, l.readWhile(isTagNameChar), l.position(start)))
			return l.lexTag()
		case ch == CharHash && isIDStart(l.peekAt(1)),
			ch == CharDot && isClassStart(l.peekAt(1)):
			return l.lexTag()
		case ch == CharBackslash:
			l.pos++
			return l.lexContent()
		case ch == CharSpace || ch == CharTab:
			l.pos++
		case ch == CharPercent || ch == CharHash || ch == CharDot ||
			ch == CharAmpersand || ch == CharBang:
			l.illegal()
		default:
			return l.lexContent()
		}
	}
	l.endLine()
	return nil
}

// lexTag scans shorthands, trim markers, dictionaries, the self-close
// marker and the inline value that may follow a tag name.
func (l *Lexer) lexTag() error {
	l.state = lexStateTag

	for !l.atLineEnd() {
		start := l.pos
		ch := l.peek()

		switch {
		case ch == CharHash && isIDStart(l.peekAt(1)):
			l.pos++
			l.emit(NewToken(TokenTypeID, l.readWhile(isIDChar), l.position(start)))
		case ch == CharDot && isClassStart(l.peekAt(1)):
			l.pos++
			l.emit(NewToken(TokenTypeClassName, l.readWhile(isIDChar), l.position(start)))
		case l.matchStr(TrimBoth) || l.matchStr(TrimBothReversed):
			l.pos += len(TrimBoth)
			l.emit(NewToken(TokenTypeTrim, TrimBoth, l.position(start)))
		case ch == CharLess || ch == CharGreater:
			l.pos++
			l.emit(NewToken(TokenTypeTrim, string(ch), l.position(start)))
		case ch == CharLBrace:
			if err := l.lexDict(); err != nil {
				return err
			}
		case ch == CharSlash:
			l.pos++
			l.emit(NewToken(TokenTypeSelfClose, "", l.position(start)))
		case l.matchStr(SigilEscape):
			return l.lexScript(TokenTypeScript, SigilEscape)
		case l.matchStr(SigilRaw):
			return l.lexScript(TokenTypeScript, SigilRaw)
		case ch == CharEquals:
			return l.lexScript(TokenTypeScript, SigilDefault)
		case ch == CharBackslash:
			l.pos++
			return l.lexValue()
		case ch == CharSpace || ch == CharTab:
			l.readWhile(isIndentChar)
			next := l.peek()
			if l.atLineEnd() || next == CharLBrace || next == CharEquals ||
				l.matchStr(SigilEscape) || l.matchStr(SigilRaw) {
				continue
			}
			if next == CharBackslash {
				l.pos++
			}
			return l.lexValue()
		case ch == CharRBrace || ch == CharAmpersand || ch == CharBang ||
			ch == CharPercent || ch == CharDash:
			l.illegal()
		default:
			return l.lexValue()
		}
	}
	l.endLine()
	return nil
}

// lexDict captures a {...} dictionary, which may span lines
func (l *Lexer) lexDict() error {
	start := l.pos
	end, err := ScanEmbedded(l.source, start, ScanModeDict)
	if err != nil {
		return NewSyntaxError(ErrMsgUnterminatedDict, "", l.position(start), err)
	}
	l.emit(NewToken(TokenTypeDict, l.source[start:end], l.position(start)))
	l.pos = end
	return nil
}

// lexScript captures the embedded code after a sigil up to the first
// newline outside strings and brackets.
func (l *Lexer) lexScript(tokenType TokenType, sigil string) error {
	start := l.pos
	l.pos += len(sigil)
	end, err := ScanEmbedded(l.source, l.pos, ScanModeScript)
	if err != nil {
		return NewSyntaxError(ErrMsgUnterminatedScript, "", l.position(start), err)
	}

	code := strings.TrimSpace(l.source[l.pos:end])
	l.emit(Token{Type: tokenType, Value: code, Sigil: sigil, Position: l.position(start)})
	l.pos = end
	l.endLine()
	return nil
}

// lexContent emits the rest of the line as plain text
func (l *Lexer) lexContent() error {
	start := l.pos
	text := l.joinMultiline(strings.TrimRight(l.readLine(), " \t"))
	if text != "" {
		l.emit(NewToken(TokenTypeContent, text, l.position(start)))
	}
	l.endLine()
	return nil
}

// lexValue emits the rest of the line as a tag's inline value
func (l *Lexer) lexValue() error {
	start := l.pos
	text := l.joinMultiline(strings.TrimSpace(l.readLine()))
	if text != "" {
		l.emit(NewToken(TokenTypeValue, text, l.position(start)))
	}
	l.endLine()
	return nil
}

// joinMultiline folds the following "... |" lines into text when text
// itself ends with the multiline marker.
func (l *Lexer) joinMultiline(text string) string {
	if !isMultilineText(text) {
		return text
	}

	prev := l.state
	l.state = lexStateMultiline
	parts := []string{trimMultiline(text)}
	for l.peek() == CharNewline {
		lineEnd := strings.IndexByte(l.source[l.pos+1:], CharNewline)
		if lineEnd < 0 {
			lineEnd = len(l.source)
		} else {
			lineEnd += l.pos + 1
		}
		line := strings.TrimSpace(l.source[l.pos+1 : lineEnd])
		if !isMultilineText(line) {
			break
		}
		parts = append(parts, trimMultiline(line))
		l.pos = lineEnd
	}
	l.state = prev

	return strings.Join(parts, " ")
}

// lexComment handles "/", "/ text" and "/[condition] text"
func (l *Lexer) lexComment() error {
	l.state = lexStateComment
	start := l.pos
	l.pos++

	if l.peek() == CharLBracket {
		line := l.source[l.pos:l.lineEnd()]
		closing := strings.IndexByte(line, CharRBracket)
		if closing < 0 {
			return NewSyntaxError(ErrMsgUnterminatedCond, "", l.position(start), nil)
		}
		l.emit(NewToken(TokenTypeCondComment, line[1:closing], l.position(start)))
		l.pos += closing + 1
	} else {
		l.emit(NewToken(TokenTypeComment, "", l.position(start)))
	}

	textStart := l.pos
	if text := strings.TrimSpace(l.readLine()); text != "" {
		l.emit(NewToken(TokenTypeCommentText, text, l.position(textStart)))
	}
	l.endLine()
	return nil
}

// lexDoctype handles "!!!", "!!! variant" and "!!! XML [charset]"
func (l *Lexer) lexDoctype() error {
	l.state = lexStateDoctype
	start := l.pos
	l.pos += len(DoctypeMarker)
	l.emit(NewToken(TokenTypeDoctype, "", l.position(start)))

	argStart := l.pos
	fields := strings.Fields(l.readLine())
	if len(fields) > 0 {
		if strings.EqualFold(fields[0], DoctypeXMLKeyword) {
			charset := ""
			if len(fields) > 1 {
				charset = fields[1]
			}
			l.emit(NewToken(TokenTypeXMLType, charset, l.position(argStart)))
		} else {
			l.emit(NewToken(TokenTypeHTMLType, strings.ToLower(fields[0]), l.position(argStart)))
		}
	}
	l.endLine()
	return nil
}

// startSilent enters a silent comment block; deeper lines are discarded
func (l *Lexer) startSilent() {
	l.indent.Push()
	l.silentDepth = l.indent.Depth()
	l.state = lexStateSilent
	l.skipLine()
}

func (l *Lexer) illegal() {
	ch := string(l.peek())
	pos := l.position(l.pos)
	l.diagnostics = append(l.diagnostics, &LexError{Message: ErrMsgIllegalCharacter, Char: ch, Position: pos})
	l.logger.Warn(LogMsgIllegalCharacter,
		zap.String(LogFieldCharacter, ch),
		zap.Int(LogFieldLine, pos.Line),
		zap.Int(LogFieldColumn, pos.Column))
	l.pos++
}

// Helper methods

func (l *Lexer) emit(tok Token) {
	l.queue = append(l.queue, tok)
}

// position converts a byte offset to a Position
func (l *Lexer) position(offset int) Position {
	line := sort.SearchInts(l.lineStarts, offset+1) - 1
	if line < 0 {
		line = 0
	}
	return Position{Offset: offset, Line: line + 1, Column: offset - l.lineStarts[line] + 1}
}

func (l *Lexer) peek() byte {
	return l.peekAt(0)
}

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.source) {
		return 0
	}
	return l.source[l.pos+n]
}

func (l *Lexer) matchStr(s string) bool {
	return strings.HasPrefix(l.source[l.pos:], s)
}

func (l *Lexer) atLineEnd() bool {
	return l.pos >= len(l.source) || l.source[l.pos] == CharNewline
}

// lineEnd returns the offset of the newline ending the current line
func (l *Lexer) lineEnd() int {
	if i := strings.IndexByte(l.source[l.pos:], CharNewline); i >= 0 {
		return l.pos + i
	}
	return len(l.source)
}

// readLine consumes up to, not including, the newline
func (l *Lexer) readLine() string {
	end := l.lineEnd()
	text := l.source[l.pos:end]
	l.pos = end
	return text
}

func (l *Lexer) readWhile(accept func(byte) bool) string {
	start := l.pos
	for l.pos < len(l.source) && accept(l.source[l.pos]) {
		l.pos++
	}
	return l.source[start:l.pos]
}

// endLine consumes the newline, if any, ending the current line
func (l *Lexer) endLine() {
	if l.pos < len(l.source) && l.source[l.pos] == CharNewline {
		l.pos++
	}
}

func (l *Lexer) skipLine() {
	l.readLine()
	l.endLine()
}

func isIndentChar(ch byte) bool {
	return ch == CharSpace || ch == CharTab
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isTagNameStart(ch byte) bool {
	return isLetter(ch)
}

func isTagNameChar(ch byte) bool {
	return isLetter(ch) || isASCIIDigit(ch) || ch == CharUnderscore || ch == CharColon || ch == CharDash
}

func isIDStart(ch byte) bool {
	return isLetter(ch) || ch == CharUnderscore
}

func isClassStart(ch byte) bool {
	return isIDStart(ch) || ch == CharDash
}

func isIDChar(ch byte) bool {
	return isLetter(ch) || isASCIIDigit(ch) || ch == CharUnderscore || ch == CharDash
}

func isMultilineText(text string) bool {
	if !strings.HasSuffix(text, MultilineSuffix) || len(text) < 2 {
		return false
	}
	return isIndentChar(text[len(text)-2])
}

func trimMultiline(text string) string {
	return strings.TrimSpace(strings.TrimSuffix(text, MultilineSuffix))
}
