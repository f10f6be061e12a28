package internal

// TokenType represents the type of a lexical token
type TokenType string

// Token type constants
const (
	TokenTypeLineBreak    TokenType = "LF"
	TokenTypeDoctype      TokenType = "DOCTYPE"
	TokenTypeHTMLType     TokenType = "HTMLTYPE"
	TokenTypeXMLType      TokenType = "XMLTYPE"
	TokenTypeTagName      TokenType = "TAGNAME"
	TokenTypeID           TokenType = "ID"
	TokenTypeClassName    TokenType = "CLASSNAME"
	TokenTypeValue        TokenType = "VALUE"
	TokenTypeContent      TokenType = "CONTENT"
	TokenTypeTrim         TokenType = "TRIM"
	TokenTypeDict         TokenType = "DICT"
	TokenTypeSelfClose    TokenType = "SELFCLOSE"
	TokenTypeScript       TokenType = "SCRIPT"
	TokenTypeSilentScript TokenType = "SILENTSCRIPT"
	TokenTypeComment      TokenType = "COMMENT"
	TokenTypeCondComment  TokenType = "CONDCOMMENT"
	TokenTypeCommentText  TokenType = "COMMENTTEXT"
	TokenTypeEOF          TokenType = "EOF"
)

// lexState is one of the exclusive lexer states
type lexState int

// Lexer states
const (
	lexStateInitial lexState = iota
	lexStateTag
	lexStateSilent
	lexStateDoctype
	lexStateComment
	lexStateMultiline
)

// Lexer state names for debugging
const (
	LexStateNameInitial   = "initial"
	LexStateNameTag       = "tag"
	LexStateNameSilent    = "silent"
	LexStateNameDoctype   = "doctype"
	LexStateNameComment   = "comment"
	LexStateNameMultiline = "multiline-value"
)

func (s lexState) String() string {
	switch s {
	case lexStateTag:
		return LexStateNameTag
	case lexStateSilent:
		return LexStateNameSilent
	case lexStateDoctype:
		return LexStateNameDoctype
	case lexStateComment:
		return LexStateNameComment
	case lexStateMultiline:
		return LexStateNameMultiline
	default:
		return LexStateNameInitial
	}
}

// Character constants
const (
	CharNewline     = '\n'
	CharSpace       = ' '
	CharTab         = '\t'
	CharPercent     = '%'
	CharHash        = '#'
	CharDot         = '.'
	CharDash        = '-'
	CharEquals      = '='
	CharAmpersand   = '&'
	CharBang        = '!'
	CharSlash       = '/'
	CharBackslash   = '\\'
	CharLBrace      = '{'
	CharRBrace      = '}'
	CharLBracket    = '['
	CharRBracket    = ']'
	CharLParen      = '('
	CharRParen      = ')'
	CharLess        = '<'
	CharGreater     = '>'
	CharColon       = ':'
	CharUnderscore  = '_'
	CharDoubleQuote = '"'
	CharSingleQuote = '\''
)

// Markup prefixes and sigils
const (
	DoctypeMarker       = "!!!"
	SilentCommentMarker = "-#"
	SigilEscape         = "&="
	SigilRaw            = "!="
	SigilDefault        = "="
	SigilSilent         = "-"
	TrimInner           = "<"
	TrimOuter           = ">"
	TrimBoth            = "<>"
	TrimBothReversed    = "><"
	DoctypeXMLKeyword   = "XML"
	MultilineSuffix     = "|"
)

// Tag and attribute names
const (
	DefaultTagName = "div"
	AttrID         = "id"
	AttrClass      = "class"
	ClassSeparator = " "
)

// Doctype variants
const (
	DoctypeVariantDefault      = ""
	DoctypeVariantStrict       = "strict"
	DoctypeVariantTransitional = "transitional"
	DoctypeVariantFrameset     = "frameset"
	DoctypeVariantBasic        = "basic"
	DoctypeVariantMobile       = "mobile"
	DefaultXMLCharset          = "utf-8"
)

// Output formats
const (
	FormatHTML5 = "html5"
	FormatHTML4 = "html4"
	FormatXHTML = "xhtml"
)

// Indentation of rendered output
const (
	OutputIndentUnit = "  "
	OutputNewline    = "\n"
)

// Log messages
const (
	LogMsgLexerCreated       = "lexer created"
	LogMsgTokenizerEnd       = "tokenization complete"
	LogMsgIllegalCharacter   = "illegal character skipped"
	LogMsgParserCreated      = "parser created"
	LogMsgParserStart        = "starting parse"
	LogMsgParserEnd          = "parse complete"
	LogMsgCompilerCreated    = "compiler created"
	LogMsgInterpreterCreated = "interpreter created"
	LogMsgExecuteStart       = "starting execution"
	LogMsgExecuteEnd         = "execution complete"
	LogMsgModuleImport       = "importing module"
	LogMsgForStart           = "starting for loop"
	LogMsgUserFuncCall       = "calling template function"
)

// Log field names
const (
	LogFieldSource       = "source_length"
	LogFieldTokens       = "token_count"
	LogFieldNodes        = "node_count"
	LogFieldInstructions = "instruction_count"
	LogFieldLine         = "line"
	LogFieldColumn       = "column"
	LogFieldCharacter    = "character"
	LogFieldDepth        = "depth"
	LogFieldFormat       = "format"
	LogFieldModule       = "module"
	LogFieldAlias        = "alias"
	LogFieldFunction     = "function"
	LogFieldItems        = "item_count"
	LogFieldOutputLength = "output_length"
)

// Error format string constants (for Error() methods)
const (
	ErrFmtWithPosition = "%s at %s"
	ErrFmtWithDetail   = "%s: %s"
	ErrFmtWithCause    = "%s: %v"
	ErrFmtLine         = "line %d: %s"
)

// Compile error messages
const (
	ErrMsgIllegalCharacter   = "illegal character"
	ErrMsgIndentMixed        = "mixed indentation"
	ErrMsgIndentNotMultiple  = "indentation is not a multiple of the indent unit"
	ErrMsgIndentJump         = "invalid indentation"
	ErrMsgUnterminatedDict   = "unterminated attribute dictionary"
	ErrMsgUnterminatedScript = "unterminated script"
	ErrMsgUnterminatedCond   = "unterminated comment condition"
	ErrMsgUnexpectedToken    = "unexpected token"
	ErrMsgInvalidExpression  = "invalid expression"
	ErrMsgInvalidStatement   = "invalid statement"
	ErrMsgIllegalNesting     = "illegal nesting"
	ErrMsgSelfCloseContent   = "self-closing tags cannot have content"
	ErrMsgStatementNoBlock   = "statement does not take a nested block"
	ErrMsgOrphanElse         = "elif/else without a matching if"
)

// Runtime error messages
const (
	ErrMsgRuntime             = "runtime error"
	ErrMsgAttrsNotMapping     = "attribute dictionary must evaluate to a mapping"
	ErrMsgNotIterable         = "value is not iterable"
	ErrMsgUnpackMismatch      = "cannot unpack value into loop variables"
	ErrMsgNoModuleResolver    = "imports are not available"
	ErrMsgImportDepthExceeded = "maximum import depth exceeded"
	ErrMsgLoopLimitExceeded   = "loop iteration limit exceeded"
	ErrMsgRaised              = "raised"
	ErrMsgArgCountMismatch    = "wrong number of arguments"
	ErrMsgCallDepthExceeded   = "maximum call depth exceeded"
)

// Interpreter defaults
const (
	DefaultMaxImportDepth    = 32
	DefaultMaxLoopIterations = 100000
	DefaultMaxCallDepth      = 256
)
