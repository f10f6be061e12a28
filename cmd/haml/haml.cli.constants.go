package main

// Command names
const (
	CmdNameRender   = "render"
	CmdNameCompile  = "compile"
	CmdNameValidate = "validate"
	CmdNameVersion  = "version"
	CmdNameHelp     = "help"
)

// Flag names - long form
const (
	FlagTemplate   = "template"
	FlagData       = "data"
	FlagDataFile   = "data-file"
	FlagOutput     = "output"
	FlagFormat     = "format"
	FlagEscape     = "escape"
	FlagImportPath = "path"
	FlagStorage    = "storage"
	FlagDSN        = "dsn"
	FlagDebug      = "debug"
	FlagStrictMode = "strict"
)

// Flag names - short form
const (
	FlagTemplateShort   = "t"
	FlagDataShort       = "d"
	FlagDataFileShort   = "f"
	FlagOutputShort     = "o"
	FlagFormatShort     = "F"
	FlagEscapeShort     = "e"
	FlagImportPathShort = "p"
)

// Flag default values
const (
	FlagDefaultTemplate     = InputSourceStdin
	FlagDefaultOutput       = "-" // stdout
	FlagDefaultFormat       = OutputFormatText
	FlagDefaultMarkupFormat = "html5"
)

// Output formats
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
)

// Exit codes
const (
	ExitCodeSuccess         = 0
	ExitCodeError           = 1
	ExitCodeUsageError      = 2
	ExitCodeValidationError = 3
	ExitCodeInputError      = 4
)

// Input source indicators
const (
	InputSourceStdin = "-"
)

// Error messages - ALL must be constants
const (
	ErrMsgUnknownCommand      = "unknown command"
	ErrMsgInvalidFlags        = "invalid arguments"
	ErrMsgInvalidData         = "invalid data"
	ErrMsgReadFileFailed      = "failed to read template"
	ErrMsgWriteOutputFailed   = "failed to write output"
	ErrMsgCompileFailed       = "template compilation failed"
	ErrMsgRenderFailed        = "template rendering failed"
	ErrMsgInvalidFormat       = "invalid output format"
	ErrMsgEngineFailed        = "failed to create engine"
	ErrMsgStorageFailed       = "failed to open storage"
	ErrMsgStorageConflict     = "--path and --storage are mutually exclusive"
	ErrMsgDataNotMapping      = "data must be a mapping"
	ErrMsgUnexpectedArguments = "unexpected arguments"
)

// Help text templates
const (
	HelpMainUsage = `haml - HAML template compiler

Usage:
    haml <command> [options]

Commands:
    render      Render a template with data
    compile     Print the compiled program of a template
    validate    Validate a template without executing
    version     Show version information
    help        Show help for a command

Use "haml help <command>" for more information about a command.`

	HelpRenderUsage = `Render a template with data

Usage:
    haml render [options]

Options:
    -t, --template <file>   Template file (default: "-" for stdin)
    -d, --data <doc>        JSON or YAML data document
    -f, --data-file <file>  JSON or YAML data file
    -o, --output <file>     Output file (default: stdout)
    -F, --format <format>   Markup format: html5, html4, xhtml (default: html5)
    -e, --escape            Escape script output by default
    -p, --path <dir>        Resolve imports from a template directory
                            (default: the directory of --template)
    --storage <driver>      Resolve imports from a storage driver (memory, filesystem, postgres)
    --dsn <conn>            Connection string for --storage
    --debug                 Log compiler and runtime activity to stderr

Examples:
    haml render -t page.haml -d '{"title": "Home"}'
    haml render -t page.haml -f data.yaml -p templates/
    cat page.haml | haml render -F xhtml -e
    haml render -t page.haml --storage postgres --dsn postgres://localhost/haml`

	HelpCompileUsage = `Print the compiled program of a template

Usage:
    haml compile [options]

Options:
    -t, --template <file>   Template file (default: "-" for stdin)
    -F, --format <format>   Markup format: html5, html4, xhtml (default: html5)
    -e, --escape            Escape script output by default

Examples:
    haml compile -t page.haml
    echo '%p= title' | haml compile`

	HelpValidateUsage = `Validate a template without executing

Usage:
    haml validate [options]

Options:
    -t, --template <file>   Template file (default: "-" for stdin)
    -F, --format <format>   Output format: text, json (default: text)
    --strict                Treat diagnostics as errors

Examples:
    haml validate -t page.haml
    haml validate -t page.haml --strict -F json`

	HelpVersionUsage = `Show version information

Usage:
    haml version [options]

Options:
    -F, --format <format>   Output format: text, json (default: text)`

	HelpHelpUsage = `Show help for a command

Usage:
    haml help [command]

Commands:
    render      Show help for render command
    compile     Show help for compile command
    validate    Show help for validate command
    version     Show help for version command`
)

// Version output format templates
const (
	VersionTextTemplate = "go-haml version %s\nCommit: %s\nBranch: %s\nBuilt: %s\nGo: %s"
	VersionUnknown      = "unknown"
)

// Validation output format templates
const (
	ValidationTextSuccess     = "Template is valid"
	ValidationTextIssueHeader = "Validation issues:"
	ValidationTextIssueFormat = "  [%s] %s at line %d, column %d"
	ValidationTextSummary     = "%d error(s), %d warning(s)"
)

// Severity names for output
const (
	SeverityNameError   = "ERROR"
	SeverityNameWarning = "WARNING"
)

// CLI metadata
const (
	CLIName = "haml"
)

// File permission constant
const (
	FilePermissions = 0644
)

// Format string constants
const (
	FmtErrorWithDetail = "%s: %s\n"
	FmtErrorWithCause  = "%s: %v\n"
	FmtErrorAtPosition = "%s: %v (%s)\n"
	FmtDiagnostic      = "warning: %s %q at line %d, column %d\n"
	FmtWrapped         = "%s: %v"
	FmtNewline         = "\n"
)
