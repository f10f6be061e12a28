package haml

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/itsatony/go-haml/internal"
)

// Engine compiles and renders HAML templates. It owns the function
// registry, named templates and the compiled module cache shared by every
// render. An Engine is safe for concurrent use.
type Engine struct {
	config    *engineConfig
	funcs     *internal.FuncRegistry
	interp    *internal.Interpreter
	templates map[string]*Template // Named templates for import
	tmplMu    sync.RWMutex         // Protects templates map
	modules   map[string]*compiledModule
	modMu     sync.RWMutex // Protects modules map
	modFlight singleflight.Group
	logger    *zap.Logger
}

// New creates a new haml Engine with the given options.
func New(opts ...Option) (*Engine, error) {
	config := defaultEngineConfig()
	for _, opt := range opts {
		opt(config)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	logger := config.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	funcs := internal.NewFuncRegistry()
	internal.RegisterBuiltinFuncs(funcs)

	e := &Engine{
		config:    config,
		funcs:     funcs,
		templates: make(map[string]*Template),
		modules:   make(map[string]*compiledModule),
		logger:    logger,
	}
	e.interp = internal.NewInterpreter(funcs, &moduleImporter{engine: e}, config.interpreterConfig(), logger)

	logger.Debug(LogMsgEngineCreated,
		zap.String(LogFieldFormat, config.format.String()),
		zap.Bool(LogFieldEscape, config.escape))
	return e, nil
}

// MustNew creates a new Engine and panics if there's an error.
func MustNew(opts ...Option) *Engine {
	engine, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return engine
}

// Compile compiles a template source string into a Template.
// The returned Template can be executed multiple times with different data.
func (e *Engine) Compile(source string) (*Template, error) {
	source = normalizeSource(source)
	if source == "" {
		return &Template{engine: e, empty: true}, nil
	}

	e.logger.Debug(LogMsgCompileStart, zap.Int(LogFieldSourceLength, len(source)))

	program, lexErrs, err := internal.Compile(source, e.config.compilerConfig(), e.logger)
	if err != nil {
		return nil, NewCompileError(err)
	}

	tmpl := &Template{
		source:      source,
		program:     program,
		diagnostics: toDiagnostics(lexErrs),
		engine:      e,
	}

	e.logger.Debug(LogMsgCompileEnd,
		zap.Int(LogFieldInstructions, program.Len()),
		zap.Int(LogFieldDiagnostics, len(tmpl.diagnostics)))
	if e.config.debug {
		e.logger.Info(LogMsgProgramListing, zap.String(LogFieldProgram, program.String()))
	}
	return tmpl, nil
}

// MustCompile compiles source and panics on error.
func (e *Engine) MustCompile(source string) *Template {
	tmpl, err := e.Compile(source)
	if err != nil {
		panic(err)
	}
	return tmpl
}

// Render is a convenience method that compiles and executes in one step.
// For templates that will be rendered multiple times, use Compile instead.
func (e *Engine) Render(ctx context.Context, source string, data map[string]any) (string, error) {
	tmpl, err := e.Compile(source)
	if err != nil {
		return "", err
	}
	return tmpl.Execute(ctx, data)
}

// RenderTemplate renders a named template. Templates registered with
// RegisterTemplate take precedence over the engine's storage.
func (e *Engine) RenderTemplate(ctx context.Context, name string, data map[string]any) (string, error) {
	tmpl, err := e.lookupTemplate(ctx, name)
	if err != nil {
		return "", err
	}
	return tmpl.Execute(ctx, data)
}

// RegisterTemplate compiles source and registers it under a dotted name,
// making it available to RenderTemplate and import statements.
// Returns an error if the name is invalid or already registered.
func (e *Engine) RegisterTemplate(name, source string) error {
	if err := ValidateTemplateName(name); err != nil {
		return err
	}

	tmpl, err := e.Compile(source)
	if err != nil {
		return err
	}

	e.tmplMu.Lock()
	defer e.tmplMu.Unlock()
	if _, exists := e.templates[name]; exists {
		return NewConfigError(ErrMsgTemplateExists, optionTemplate, name)
	}
	e.templates[name] = tmpl
	return nil
}

// UnregisterTemplate removes a registered template.
// Returns true if the template was found and removed.
func (e *Engine) UnregisterTemplate(name string) bool {
	e.tmplMu.Lock()
	defer e.tmplMu.Unlock()
	if _, exists := e.templates[name]; !exists {
		return false
	}
	delete(e.templates, name)
	return true
}

// HasTemplate checks if a template is registered under name.
func (e *Engine) HasTemplate(name string) bool {
	e.tmplMu.RLock()
	defer e.tmplMu.RUnlock()
	_, exists := e.templates[name]
	return exists
}

// ListTemplates returns the sorted names of registered templates.
func (e *Engine) ListTemplates() []string {
	e.tmplMu.RLock()
	defer e.tmplMu.RUnlock()
	names := make([]string, 0, len(e.templates))
	for name := range e.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Storage returns the engine's template storage, or nil.
func (e *Engine) Storage() TemplateStorage {
	return e.config.storage
}

// Format returns the engine's output format.
func (e *Engine) Format() Format {
	return e.config.format
}

func (e *Engine) registeredTemplate(name string) (*Template, bool) {
	e.tmplMu.RLock()
	defer e.tmplMu.RUnlock()
	tmpl, ok := e.templates[name]
	return tmpl, ok
}

// lookupTemplate finds name among registered templates, then in storage.
func (e *Engine) lookupTemplate(ctx context.Context, name string) (*Template, error) {
	if tmpl, ok := e.registeredTemplate(name); ok {
		return tmpl, nil
	}
	if e.config.storage == nil {
		return nil, NewTemplateLoadError(name, NewTemplateNotFoundError(name))
	}

	e.logger.Debug(LogMsgStorageLoad, zap.String(LogFieldTemplate, name))
	stored, err := e.config.storage.Get(ctx, name)
	if err != nil {
		return nil, NewTemplateLoadError(name, err)
	}
	return e.compileStored(stored)
}

// normalizeSource drops carriage returns and surrounding whitespace
func normalizeSource(source string) string {
	source = strings.ReplaceAll(source, "\r", "")
	return strings.TrimFunc(source, isSpace)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\v' || r == '\f'
}
