package haml

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/itsatony/go-cuserr"

	"github.com/itsatony/go-haml/internal"
)

// Error message constants
const (
	// Compile errors
	ErrMsgCompileFailed = "template compilation failed"
	ErrMsgIndentFailed  = "invalid indentation"
	ErrMsgNestingFailed = "illegal nesting"

	// Render errors
	ErrMsgRenderFailed = "template rendering failed"

	// Import and load errors
	ErrMsgImportNoStorage = "imports require a template storage"
	ErrMsgImportFailed    = "module import failed"
	ErrMsgTemplateLoad    = "template load failed"

	// Configuration errors
	ErrMsgInvalidFormat  = "unknown output format"
	ErrMsgInvalidLimit   = "limit must be positive"
	ErrMsgTemplateExists = "template already registered"

	// Function registration errors
	ErrMsgFuncRegister = "function registration failed"

	// Storage errors
	ErrMsgTemplateNotFound     = "template not found"
	ErrMsgVersionNotFound      = "template version not found"
	ErrMsgInvalidTemplateName  = "invalid template name"
	ErrMsgNilStoredTemplate    = "stored template is nil"
	ErrMsgStorageClosed        = "storage is closed"
	ErrMsgStorageReadFailed    = "failed to read template"
	ErrMsgStorageWriteFailed   = "failed to write template"
	ErrMsgStorageDeleteFailed  = "failed to delete template"
	ErrMsgStorageListFailed    = "failed to list templates"
	ErrMsgStorageOpenFailed    = "failed to open storage"
	ErrMsgStorageMigrateFailed = "failed to migrate storage schema"
	ErrMsgEmptyConnString      = "connection string is empty"
	ErrMsgEmptyRootDir         = "storage root directory is empty"
	ErrMsgUnknownDriver        = "unknown storage driver"
	ErrMsgNilDriver            = "storage driver is nil"
	ErrMsgDriverExists         = "storage driver already registered"
	ErrMsgIDGeneration         = "failed to generate template id"
)

// Error format strings
const (
	errFmtStorage      = "%s: %s"
	errFmtStorageCause = "%s: %s: %v"
)

// Position is a location in template source
type Position struct {
	Offset int // Byte offset from start
	Line   int // 1-indexed line number
	Column int // 1-indexed column number
}

// String returns a human-readable position string
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// ErrorPosition returns the source position recorded on an error returned by
// Compile, Render or Template.Execute. The second result is false when the
// error carries no position.
func ErrorPosition(err error) (Position, bool) {
	var custom *cuserr.CustomError
	if errors.As(err, &custom) {
		if line, ok := custom.GetMetadata(MetaKeyLine); ok {
			pos := Position{}
			pos.Line, _ = strconv.Atoi(line)
			if col, ok := custom.GetMetadata(MetaKeyColumn); ok {
				pos.Column, _ = strconv.Atoi(col)
			}
			return pos, pos.Line > 0
		}
	}
	if pos, ok := internal.ErrorPosition(err); ok {
		return Position{Offset: pos.Offset, Line: pos.Line, Column: pos.Column}, true
	}
	return Position{}, false
}

// ErrorKind returns the kind recorded on a haml error ("indent", "syntax",
// "nesting", "runtime", "import", "storage" or "config"), or "" when err is
// not one.
func ErrorKind(err error) string {
	var custom *cuserr.CustomError
	if errors.As(err, &custom) {
		if kind, ok := custom.GetMetadata(MetaKeyKind); ok {
			return kind
		}
	}
	return ""
}

// NewCompileError converts an internal compile error into a public error
func NewCompileError(cause error) error {
	code, kind, msg := ErrCodeSyntax, ErrKindSyntax, ErrMsgCompileFailed

	var indentErr *internal.IndentError
	var nestingErr *internal.NestingError
	switch {
	case errors.As(cause, &indentErr):
		code, kind, msg = ErrCodeIndent, ErrKindIndent, ErrMsgIndentFailed
	case errors.As(cause, &nestingErr):
		code, kind, msg = ErrCodeNesting, ErrKindNesting, ErrMsgNestingFailed
	}

	err := cuserr.WrapStdError(cause, code, msg).
		WithMetadata(MetaKeyKind, kind)
	if pos, ok := internal.ErrorPosition(cause); ok {
		err = err.
			WithMetadata(MetaKeyLine, strconv.Itoa(pos.Line)).
			WithMetadata(MetaKeyColumn, strconv.Itoa(pos.Column))
	}
	return err
}

// NewRuntimeError converts an error raised while executing a template into
// a public error. Import errors keep their kind and gain the importing line.
func NewRuntimeError(cause error) error {
	var custom *cuserr.CustomError
	if errors.As(cause, &custom) && ErrorKind(custom) == ErrKindImport {
		if pos, ok := internal.ErrorPosition(cause); ok {
			if _, has := custom.GetMetadata(MetaKeyLine); !has {
				custom = custom.WithMetadata(MetaKeyLine, strconv.Itoa(pos.Line))
			}
		}
		return custom
	}

	err := cuserr.WrapStdError(cause, ErrCodeRuntime, ErrMsgRenderFailed).
		WithMetadata(MetaKeyKind, ErrKindRuntime)
	if pos, ok := internal.ErrorPosition(cause); ok {
		err = err.WithMetadata(MetaKeyLine, strconv.Itoa(pos.Line))
	}
	return err
}

// NewImportError creates an error for a module that could not be imported
func NewImportError(module string, cause error) error {
	var err *cuserr.CustomError
	if cause != nil {
		err = cuserr.WrapStdError(cause, ErrCodeImport, ErrMsgImportFailed)
	} else {
		err = cuserr.NewValidationError(ErrCodeImport, ErrMsgImportNoStorage)
	}
	return err.
		WithMetadata(MetaKeyKind, ErrKindImport).
		WithMetadata(MetaKeyModule, module)
}

// NewTemplateLoadError wraps a storage failure while loading a named template
func NewTemplateLoadError(name string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeStorage, ErrMsgTemplateLoad).
		WithMetadata(MetaKeyKind, ErrKindStorage).
		WithMetadata(MetaKeyTemplate, name)
}

// NewConfigError creates an error for an invalid engine option
func NewConfigError(msg, option, value string) error {
	return cuserr.NewValidationError(ErrCodeConfig, msg).
		WithMetadata(MetaKeyKind, ErrKindConfig).
		WithMetadata(MetaKeyOption, option).
		WithMetadata(MetaKeyValue, value)
}

// NewFuncRegisterError wraps a function registry failure
func NewFuncRegisterError(name string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeConfig, ErrMsgFuncRegister).
		WithMetadata(MetaKeyKind, ErrKindConfig).
		WithMetadata(MetaKeyFuncName, name)
}

// StorageError is returned by TemplateStorage implementations
type StorageError struct {
	Message string
	Name    string
	Version int
	Cause   error
}

// Error implements the error interface
func (e *StorageError) Error() string {
	subject := e.Name
	if e.Version > 0 {
		subject = fmt.Sprintf("%s@v%d", e.Name, e.Version)
	}
	if e.Cause != nil {
		return fmt.Sprintf(errFmtStorageCause, e.Message, subject, e.Cause)
	}
	return fmt.Sprintf(errFmtStorage, e.Message, subject)
}

// Unwrap returns the underlying error
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a storage error
func NewStorageError(msg, name string, cause error) *StorageError {
	return &StorageError{Message: msg, Name: name, Cause: cause}
}

// NewTemplateNotFoundError creates a storage error for a missing template
func NewTemplateNotFoundError(name string) *StorageError {
	return &StorageError{Message: ErrMsgTemplateNotFound, Name: name}
}

// NewVersionNotFoundError creates a storage error for a missing version
func NewVersionNotFoundError(name string, version int) *StorageError {
	return &StorageError{Message: ErrMsgVersionNotFound, Name: name, Version: version}
}

// IsNotFound reports whether err is a missing template or version
func IsNotFound(err error) bool {
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		return false
	}
	return storageErr.Message == ErrMsgTemplateNotFound || storageErr.Message == ErrMsgVersionNotFound
}
