package haml

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/itsatony/go-haml/internal"
)

// compiledModule is a stored template compiled for import
type compiledModule struct {
	revision string
	tmpl     *Template
}

// moduleImporter resolves import statements against the engine's
// registered templates and storage.
type moduleImporter struct {
	engine *Engine
}

// ResolveModule implements internal.ModuleResolver
func (m *moduleImporter) ResolveModule(ctx context.Context, name string) (*internal.Program, error) {
	e := m.engine
	if tmpl, ok := e.registeredTemplate(name); ok {
		return tmpl.programOrEmpty(), nil
	}

	storage := e.config.storage
	if storage == nil {
		return nil, NewImportError(name, nil)
	}

	e.logger.Debug(LogMsgStorageLoad, zap.String(LogFieldModule, name))
	stored, err := storage.Get(ctx, name)
	if err != nil {
		return nil, NewImportError(name, err)
	}

	tmpl, err := e.compileStored(stored)
	if err != nil {
		return nil, NewImportError(name, err)
	}
	return tmpl.programOrEmpty(), nil
}

// compileStored compiles a stored template, reusing the cached program
// while the stored revision is unchanged.
func (e *Engine) compileStored(stored *StoredTemplate) (*Template, error) {
	revision := fmt.Sprintf("%s:%d:%d", stored.ID, stored.Version, stored.UpdatedAt.UnixNano())

	e.modMu.RLock()
	cached, ok := e.modules[stored.Name]
	e.modMu.RUnlock()
	if ok && cached.revision == revision {
		e.logger.Debug(LogMsgModuleCacheHit,
			zap.String(LogFieldModule, stored.Name),
			zap.Int(LogFieldVersion, stored.Version))
		return cached.tmpl, nil
	}

	// Concurrent imports of the same revision share one compilation.
	v, err, _ := e.modFlight.Do(stored.Name+"@"+revision, func() (any, error) {
		tmpl, err := e.Compile(stored.Source)
		if err != nil {
			return nil, err
		}

		e.modMu.Lock()
		e.modules[stored.Name] = &compiledModule{revision: revision, tmpl: tmpl}
		e.modMu.Unlock()

		e.logger.Debug(LogMsgModuleCompiled,
			zap.String(LogFieldModule, stored.Name),
			zap.Int(LogFieldVersion, stored.Version))
		return tmpl, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Template), nil
}

// InvalidateModules drops every compiled module so the next import or
// RenderTemplate reloads from storage.
func (e *Engine) InvalidateModules() {
	e.modMu.Lock()
	defer e.modMu.Unlock()
	e.modules = make(map[string]*compiledModule)
}

// programOrEmpty returns the template's program, or an empty one for a
// template compiled from blank source.
func (t *Template) programOrEmpty() *internal.Program {
	if t.empty || t.program == nil {
		return &internal.Program{}
	}
	return t.program
}
