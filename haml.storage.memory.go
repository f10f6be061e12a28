package haml

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStorage is an in-memory implementation of TemplateStorage.
// It keeps every saved version and is primarily intended for tests and
// for engines whose templates are registered at startup.
type MemoryStorage struct {
	mu        sync.RWMutex
	templates map[string][]*StoredTemplate // name -> versions (newest first)
	closed    bool
}

// MemoryStorageDriver is the driver for creating MemoryStorage instances.
type MemoryStorageDriver struct{}

func init() {
	RegisterStorageDriver(StorageDriverNameMemory, &MemoryStorageDriver{})
}

// Open creates a new MemoryStorage instance.
// The connection string is ignored for memory storage.
func (d *MemoryStorageDriver) Open(connectionString string) (TemplateStorage, error) {
	return NewMemoryStorage(), nil
}

// NewMemoryStorage creates a new in-memory template storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		templates: make(map[string][]*StoredTemplate),
	}
}

// view runs fn under the read lock once ctx and the open state are checked.
func (s *MemoryStorage) view(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return NewStorageClosedError()
	}
	return fn()
}

// update is view with the write lock.
func (s *MemoryStorage) update(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return NewStorageClosedError()
	}
	return fn()
}

// Get returns the newest version of name.
func (s *MemoryStorage) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	var found *StoredTemplate
	err := s.view(ctx, func() error {
		versions := s.templates[name]
		if len(versions) == 0 {
			return NewTemplateNotFoundError(name)
		}
		found = copyStoredTemplate(versions[0])
		return nil
	})
	return found, err
}

// GetVersion returns one specific version of name.
func (s *MemoryStorage) GetVersion(ctx context.Context, name string, version int) (*StoredTemplate, error) {
	var found *StoredTemplate
	err := s.view(ctx, func() error {
		for _, tmpl := range s.templates[name] {
			if tmpl.Version == version {
				found = copyStoredTemplate(tmpl)
				return nil
			}
		}
		return NewVersionNotFoundError(name, version)
	})
	return found, err
}

// Save records tmpl as the next version of its name and stamps the
// assigned ID, version and timestamps back onto tmpl.
func (s *MemoryStorage) Save(ctx context.Context, tmpl *StoredTemplate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateForSave(tmpl); err != nil {
		return err
	}
	id, err := generateTemplateID()
	if err != nil {
		return err
	}

	return s.update(ctx, func() error {
		versions := s.templates[tmpl.Name]
		next := 1
		if len(versions) > 0 {
			next = versions[0].Version + 1
		}

		now := time.Now()
		stored := &StoredTemplate{
			ID:        id,
			Name:      tmpl.Name,
			Source:    tmpl.Source,
			Version:   next,
			Metadata:  copyStringMap(tmpl.Metadata),
			CreatedAt: now,
			UpdatedAt: now,
		}
		stamp(tmpl, stored)

		// newest first
		s.templates[tmpl.Name] = append([]*StoredTemplate{stored}, versions...)
		return nil
	})
}

// Delete removes every version of name.
func (s *MemoryStorage) Delete(ctx context.Context, name string) error {
	return s.update(ctx, func() error {
		if _, ok := s.templates[name]; !ok {
			return NewTemplateNotFoundError(name)
		}
		delete(s.templates, name)
		return nil
	})
}

// Exists reports whether name has at least one version.
func (s *MemoryStorage) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.view(ctx, func() error {
		exists = len(s.templates[name]) > 0
		return nil
	})
	return exists, err
}

// List returns the sorted names of all stored templates.
func (s *MemoryStorage) List(ctx context.Context) ([]string, error) {
	var names []string
	err := s.view(ctx, func() error {
		names = make([]string, 0, len(s.templates))
		for name := range s.templates {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil
	})
	return names, err
}

// ListVersions returns the version numbers of name, newest first.
func (s *MemoryStorage) ListVersions(ctx context.Context, name string) ([]int, error) {
	var result []int
	err := s.view(ctx, func() error {
		result = make([]int, 0, len(s.templates[name]))
		for _, tmpl := range s.templates[name] {
			result = append(result, tmpl.Version)
		}
		return nil
	})
	return result, err
}

// Close marks the storage closed and drops its contents.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.templates = nil
	return nil
}
