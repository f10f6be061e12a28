package haml

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/itsatony/go-haml/internal"
)

// Format selects the markup dialect: doctype defaults, boolean attribute
// rendering and self-closing tag syntax.
type Format string

// Output formats
const (
	FormatHTML5 Format = internal.FormatHTML5
	FormatHTML4 Format = internal.FormatHTML4
	FormatXHTML Format = internal.FormatXHTML
)

// ParseFormat converts a case-insensitive format name into a Format
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatHTML5:
		return FormatHTML5, nil
	case FormatHTML4:
		return FormatHTML4, nil
	case FormatXHTML:
		return FormatXHTML, nil
	}
	return "", NewConfigError(ErrMsgInvalidFormat, optionFormat, s)
}

// String returns the format name
func (f Format) String() string {
	return string(f)
}

// valid reports whether f names a known format
func (f Format) valid() bool {
	return f == FormatHTML5 || f == FormatHTML4 || f == FormatXHTML
}

// Option names reported in config errors
const (
	optionFormat            = "format"
	optionMaxImportDepth    = "max_import_depth"
	optionMaxLoopIterations = "max_loop_iterations"
	optionMaxCallDepth      = "max_call_depth"
	optionTemplate          = "template"
)

// Option is a functional option for configuring the Engine.
type Option func(*engineConfig)

// engineConfig holds the internal configuration for an Engine.
type engineConfig struct {
	format            Format
	escape            bool
	debug             bool
	maxImportDepth    int
	maxLoopIterations int
	maxCallDepth      int
	globals           map[string]any
	storage           TemplateStorage
	logger            *zap.Logger
}

// defaultEngineConfig returns the default engine configuration.
func defaultEngineConfig() *engineConfig {
	return &engineConfig{
		format:            FormatHTML5,
		escape:            false,
		maxImportDepth:    DefaultMaxImportDepth,
		maxLoopIterations: DefaultMaxLoopIterations,
		maxCallDepth:      DefaultMaxCallDepth,
		globals:           make(map[string]any),
	}
}

// WithFormat sets the output format.
// Default: FormatHTML5
func WithFormat(format Format) Option {
	return func(c *engineConfig) {
		c.format = format
	}
}

// WithEscape makes plain "=" scripts HTML-escape their output.
// "&=" always escapes and "!=" never does.
// Default: false
func WithEscape(escape bool) Option {
	return func(c *engineConfig) {
		c.escape = escape
	}
}

// WithDebug logs the compiled program listing of every template at Info.
func WithDebug(debug bool) Option {
	return func(c *engineConfig) {
		c.debug = debug
	}
}

// WithMaxImportDepth bounds nested module imports.
// Default: 32
func WithMaxImportDepth(depth int) Option {
	return func(c *engineConfig) {
		c.maxImportDepth = depth
	}
}

// WithMaxLoopIterations bounds the iterations of a single for loop.
// Default: 100000
func WithMaxLoopIterations(n int) Option {
	return func(c *engineConfig) {
		c.maxLoopIterations = n
	}
}

// WithMaxCallDepth bounds nested calls of template-defined functions.
// Default: 256
func WithMaxCallDepth(depth int) Option {
	return func(c *engineConfig) {
		c.maxCallDepth = depth
	}
}

// WithGlobals sets bindings visible to every render. Render data shadows them.
func WithGlobals(globals map[string]any) Option {
	return func(c *engineConfig) {
		for k, v := range globals {
			c.globals[k] = v
		}
	}
}

// WithStorage sets the storage used by RenderTemplate and by import statements.
func WithStorage(storage TemplateStorage) Option {
	return func(c *engineConfig) {
		c.storage = storage
	}
}

// WithLogger sets the logger for the engine.
// Default: nil (no logging)
func WithLogger(logger *zap.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

// validate checks option values
func (c *engineConfig) validate() error {
	if !c.format.valid() {
		return NewConfigError(ErrMsgInvalidFormat, optionFormat, string(c.format))
	}
	limits := []struct {
		option string
		value  int
	}{
		{optionMaxImportDepth, c.maxImportDepth},
		{optionMaxLoopIterations, c.maxLoopIterations},
		{optionMaxCallDepth, c.maxCallDepth},
	}
	for _, l := range limits {
		if l.value <= 0 {
			return NewConfigError(ErrMsgInvalidLimit, l.option, strconv.Itoa(l.value))
		}
	}
	return nil
}

func (c *engineConfig) compilerConfig() internal.CompilerConfig {
	config := internal.DefaultCompilerConfig()
	config.Format = string(c.format)
	config.Escape = c.escape
	return config
}

func (c *engineConfig) interpreterConfig() internal.InterpreterConfig {
	return internal.InterpreterConfig{
		MaxImportDepth:    c.maxImportDepth,
		MaxLoopIterations: c.maxLoopIterations,
		MaxCallDepth:      c.maxCallDepth,
	}
}
