package haml

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// FilesystemStorage stores templates as plain .haml files below a root
// directory. The dotted name a.b maps to <root>/a/b.haml, falling back to
// the flat file <root>/a.b.haml, so hand-written template trees work
// without any metadata. Saving through the storage
// also writes a YAML sidecar with the version bookkeeping and keeps older
// versions under a history directory.
//
// Directory structure:
//
//	<root>/
//	  layout.haml
//	  partials/
//	    nav.haml
//	    nav.meta.yaml      # id, version, timestamps, metadata
//	  .history/
//	    partials.nav/
//	      v1.haml
type FilesystemStorage struct {
	mu     sync.RWMutex
	root   string
	closed bool
}

// filesystemHistoryDir holds superseded versions
const filesystemHistoryDir = ".history"

// filesystemMeta is the sidecar document written next to a template
type filesystemMeta struct {
	ID        TemplateID        `yaml:"id"`
	Version   int               `yaml:"version"`
	Metadata  map[string]string `yaml:"metadata,omitempty"`
	CreatedAt time.Time         `yaml:"created_at"`
	UpdatedAt time.Time         `yaml:"updated_at"`
}

// FilesystemStorageDriver is the driver for creating FilesystemStorage instances.
type FilesystemStorageDriver struct{}

func init() {
	RegisterStorageDriver(StorageDriverNameFilesystem, &FilesystemStorageDriver{})
}

// Open creates a new FilesystemStorage instance.
// The connection string is the root directory path.
func (d *FilesystemStorageDriver) Open(connectionString string) (TemplateStorage, error) {
	return NewFilesystemStorage(connectionString)
}

// NewFilesystemStorage creates a new filesystem-based template storage.
// The root directory will be created if it doesn't exist.
func NewFilesystemStorage(root string) (*FilesystemStorage, error) {
	if root == "" {
		return nil, &StorageError{Message: ErrMsgEmptyRootDir}
	}
	if err := os.MkdirAll(root, FilesystemDirPermissions); err != nil {
		return nil, NewStorageError(ErrMsgStorageOpenFailed, root, err)
	}
	return &FilesystemStorage{root: root}, nil
}

// Root returns the storage root directory.
func (s *FilesystemStorage) Root() string {
	return s.root
}

// Get retrieves the current version of a template by name.
func (s *FilesystemStorage) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateTemplateName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}
	return s.load(name)
}

// GetVersion retrieves a specific version of a template.
func (s *FilesystemStorage) GetVersion(ctx context.Context, name string, version int) (*StoredTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateTemplateName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}

	current, err := s.load(name)
	if err != nil {
		if IsNotFound(err) {
			return nil, NewVersionNotFoundError(name, version)
		}
		return nil, err
	}
	if current.Version == version {
		return current, nil
	}

	source, err := os.ReadFile(s.historyPath(name, version))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewVersionNotFoundError(name, version)
		}
		return nil, NewStorageError(ErrMsgStorageReadFailed, name, err)
	}
	return &StoredTemplate{Name: name, Source: string(source), Version: version}, nil
}

// Save writes the template file and its sidecar, moving the previous
// version into history.
func (s *FilesystemStorage) Save(ctx context.Context, tmpl *StoredTemplate) error {
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

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}

	now := time.Now()
	stored := &StoredTemplate{
		ID:        id,
		Name:      tmpl.Name,
		Source:    tmpl.Source,
		Version:   1,
		Metadata:  copyStringMap(tmpl.Metadata),
		CreatedAt: now,
		UpdatedAt: now,
	}

	previous, err := s.load(tmpl.Name)
	switch {
	case err == nil:
		stored.Version = previous.Version + 1
		if err := s.archive(previous); err != nil {
			return err
		}
	case !IsNotFound(err):
		return err
	}

	path := s.templatePath(tmpl.Name)
	if err := os.MkdirAll(filepath.Dir(path), FilesystemDirPermissions); err != nil {
		return NewStorageError(ErrMsgStorageWriteFailed, tmpl.Name, err)
	}
	if err := os.WriteFile(path, []byte(stored.Source), FilesystemFilePermissions); err != nil {
		return NewStorageError(ErrMsgStorageWriteFailed, tmpl.Name, err)
	}
	if err := s.writeMeta(stored); err != nil {
		return err
	}

	stamp(tmpl, stored)
	return nil
}

// Delete removes the template, its sidecar and its history.
func (s *FilesystemStorage) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateTemplateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}

	if err := os.Remove(s.templatePath(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewTemplateNotFoundError(name)
		}
		return NewStorageError(ErrMsgStorageDeleteFailed, name, err)
	}
	if err := os.Remove(s.metaPath(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return NewStorageError(ErrMsgStorageDeleteFailed, name, err)
	}
	if err := os.RemoveAll(filepath.Join(s.root, filesystemHistoryDir, name)); err != nil {
		return NewStorageError(ErrMsgStorageDeleteFailed, name, err)
	}
	return nil
}

// Exists checks if a template file exists for name.
func (s *FilesystemStorage) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if ValidateTemplateName(name) != nil {
		return false, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, NewStorageClosedError()
	}

	_, err := os.Stat(s.templatePath(name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, NewStorageError(ErrMsgStorageReadFailed, name, err)
}

// List walks the root and returns the dotted names of all .haml files.
// Hidden directories and files whose path is not a valid name are skipped.
func (s *FilesystemStorage) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}

	var names []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), FilesystemTemplateSuffix) {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		name := strings.ReplaceAll(strings.TrimSuffix(filepath.ToSlash(rel), FilesystemTemplateSuffix), "/", TemplateNameSeparator)
		if ValidateTemplateName(name) == nil {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, NewStorageError(ErrMsgStorageListFailed, s.root, err)
	}

	// a.b may exist both nested and flat
	sort.Strings(names)
	return slices.Compact(names), nil
}

// ListVersions returns all version numbers for a template, newest first.
func (s *FilesystemStorage) ListVersions(ctx context.Context, name string) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateTemplateName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}

	current, err := s.load(name)
	if err != nil {
		if IsNotFound(err) {
			return []int{}, nil
		}
		return nil, err
	}

	versions := []int{current.Version}
	entries, err := os.ReadDir(filepath.Join(s.root, filesystemHistoryDir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, NewStorageError(ErrMsgStorageReadFailed, name, err)
	}
	for _, entry := range entries {
		base := strings.TrimSuffix(entry.Name(), FilesystemTemplateSuffix)
		if v, err := strconv.Atoi(strings.TrimPrefix(base, "v")); err == nil && v != current.Version {
			versions = append(versions, v)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(versions)))
	return versions, nil
}

// Close marks the storage as closed.
func (s *FilesystemStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// load reads the current template and its sidecar. A template without a
// sidecar is version 1 stamped with the file's modification time.
func (s *FilesystemStorage) load(name string) (*StoredTemplate, error) {
	path := s.templatePath(name)
	source, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewTemplateNotFoundError(name)
		}
		return nil, NewStorageError(ErrMsgStorageReadFailed, name, err)
	}

	stored := &StoredTemplate{Name: name, Source: string(source), Version: 1}

	meta, err := s.readMeta(name)
	if err != nil {
		return nil, err
	}
	if meta != nil {
		stored.ID = meta.ID
		stored.Version = meta.Version
		stored.Metadata = meta.Metadata
		stored.CreatedAt = meta.CreatedAt
		stored.UpdatedAt = meta.UpdatedAt
		return stored, nil
	}

	if info, err := os.Stat(path); err == nil {
		stored.CreatedAt = info.ModTime()
		stored.UpdatedAt = info.ModTime()
	}
	return stored, nil
}

func (s *FilesystemStorage) readMeta(name string) (*filesystemMeta, error) {
	data, err := os.ReadFile(s.metaPath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, NewStorageError(ErrMsgStorageReadFailed, name, err)
	}

	var meta filesystemMeta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, NewStorageError(ErrMsgStorageReadFailed, name, err)
	}
	return &meta, nil
}

func (s *FilesystemStorage) writeMeta(stored *StoredTemplate) error {
	data, err := yaml.Marshal(&filesystemMeta{
		ID:        stored.ID,
		Version:   stored.Version,
		Metadata:  stored.Metadata,
		CreatedAt: stored.CreatedAt,
		UpdatedAt: stored.UpdatedAt,
	})
	if err != nil {
		return NewStorageError(ErrMsgStorageWriteFailed, stored.Name, err)
	}
	if err := os.WriteFile(s.metaPath(stored.Name), data, FilesystemFilePermissions); err != nil {
		return NewStorageError(ErrMsgStorageWriteFailed, stored.Name, err)
	}
	return nil
}

// archive copies the current version into history
func (s *FilesystemStorage) archive(stored *StoredTemplate) error {
	path := s.historyPath(stored.Name, stored.Version)
	if err := os.MkdirAll(filepath.Dir(path), FilesystemDirPermissions); err != nil {
		return NewStorageError(ErrMsgStorageWriteFailed, stored.Name, err)
	}
	if err := os.WriteFile(path, []byte(stored.Source), FilesystemFilePermissions); err != nil {
		return NewStorageError(ErrMsgStorageWriteFailed, stored.Name, err)
	}
	return nil
}

func (s *FilesystemStorage) templatePath(name string) string {
	return s.basePath(name) + FilesystemTemplateSuffix
}

func (s *FilesystemStorage) metaPath(name string) string {
	return s.basePath(name) + FilesystemMetaSuffix
}

// basePath maps a.b to <root>/a/b. When only the flat sibling file
// <root>/a.b.haml exists, that file is used instead.
func (s *FilesystemStorage) basePath(name string) string {
	parts := strings.Split(name, TemplateNameSeparator)
	nested := filepath.Join(append([]string{s.root}, parts...)...)
	if len(parts) == 1 {
		return nested
	}
	if _, err := os.Stat(nested + FilesystemTemplateSuffix); err == nil {
		return nested
	}
	flat := filepath.Join(s.root, name)
	if _, err := os.Stat(flat + FilesystemTemplateSuffix); err == nil {
		return flat
	}
	return nested
}

func (s *FilesystemStorage) historyPath(name string, version int) string {
	return filepath.Join(s.root, filesystemHistoryDir, name, "v"+strconv.Itoa(version)+FilesystemTemplateSuffix)
}
