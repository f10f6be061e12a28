package haml

import "time"

// Engine defaults
const (
	DefaultMaxImportDepth    = 32
	DefaultMaxLoopIterations = 100000
	DefaultMaxCallDepth      = 256
)

// Error codes for cuserr categorization
const (
	ErrCodeIndent  = "HAML_INDENT"
	ErrCodeSyntax  = "HAML_SYNTAX"
	ErrCodeNesting = "HAML_NESTING"
	ErrCodeRuntime = "HAML_RUNTIME"
	ErrCodeImport  = "HAML_IMPORT"
	ErrCodeStorage = "HAML_STORAGE"
	ErrCodeConfig  = "HAML_CONFIG"
)

// Error kinds stored under MetaKeyKind
const (
	ErrKindIndent  = "indent"
	ErrKindSyntax  = "syntax"
	ErrKindNesting = "nesting"
	ErrKindRuntime = "runtime"
	ErrKindImport  = "import"
	ErrKindStorage = "storage"
	ErrKindConfig  = "config"
)

// Metadata keys for cuserr.WithMetadata
const (
	MetaKeyLine     = "line"
	MetaKeyColumn   = "column"
	MetaKeyKind     = "kind"
	MetaKeyModule   = "module"
	MetaKeyTemplate = "template_name"
	MetaKeyOption   = "option"
	MetaKeyValue    = "value"
	MetaKeyFuncName = "func_name"
)

// Log messages
const (
	LogMsgEngineCreated   = "haml engine created"
	LogMsgCompileStart    = "compiling template"
	LogMsgCompileEnd      = "template compiled"
	LogMsgProgramListing  = "compiled program"
	LogMsgRenderStart     = "rendering template"
	LogMsgRenderEnd       = "template rendered"
	LogMsgModuleCompiled  = "module compiled"
	LogMsgModuleCacheHit  = "module cache hit"
	LogMsgStorageLoad     = "loading template from storage"
	LogMsgFuncRegistered  = "function registered"
	LogMsgDiagnosticFound = "template diagnostic"
)

// Log field names
const (
	LogFieldFormat       = "format"
	LogFieldEscape       = "escape"
	LogFieldSourceLength = "source_length"
	LogFieldInstructions = "instruction_count"
	LogFieldDiagnostics  = "diagnostic_count"
	LogFieldProgram      = "program"
	LogFieldOutputLength = "output_length"
	LogFieldTemplate     = "template"
	LogFieldModule       = "module"
	LogFieldVersion      = "version"
	LogFieldFunction     = "function"
	LogFieldLine         = "line"
	LogFieldColumn       = "column"
	LogFieldMessage      = "message"
)

// Storage driver names
const (
	StorageDriverNameMemory     = "memory"
	StorageDriverNameFilesystem = "filesystem"
	StorageDriverNamePostgres   = "postgres"
)

// Storage ID prefixes
const (
	TemplateIDPrefix = "tmpl_"
	templateIDBytes  = 12
)

// Template names are dotted paths of these segments
const (
	TemplateNameSeparator = "."
	templateNamePattern   = `^[A-Za-z0-9_-]+(\.[A-Za-z0-9_-]+)*$`
)

// Filesystem storage constants
const (
	FilesystemDirPermissions  = 0755
	FilesystemFilePermissions = 0644
	FilesystemTemplateSuffix  = ".haml"
	FilesystemMetaSuffix      = ".meta.yaml"
)

// Cache defaults
const (
	DefaultCacheTTL         = 5 * time.Minute
	DefaultCacheMaxEntries  = 1000
	DefaultNegativeCacheTTL = 30 * time.Second
)

// PostgreSQL storage driver configuration defaults
const (
	PostgresDriverName             = "postgres"
	PostgresTablePrefix            = "haml_"
	PostgresDefaultMaxOpenConns    = 25
	PostgresDefaultMaxIdleConns    = 5
	PostgresDefaultConnMaxLifetime = 5 * time.Minute
	PostgresDefaultConnMaxIdleTime = 5 * time.Minute
	PostgresDefaultQueryTimeout    = 30 * time.Second
)
