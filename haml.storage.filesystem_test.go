package haml

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFilesystemStorage(t *testing.T) *FilesystemStorage {
	t.Helper()
	storage, err := NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)
	return storage
}

func writeTemplateFile(t *testing.T, root, rel, source string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), FilesystemDirPermissions))
	require.NoError(t, os.WriteFile(path, []byte(source), FilesystemFilePermissions))
}

func TestNewFilesystemStorage(t *testing.T) {
	t.Run("creates root", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "nested", "templates")
		storage, err := NewFilesystemStorage(root)
		require.NoError(t, err)
		assert.Equal(t, root, storage.Root())
		assert.DirExists(t, root)
	})

	t.Run("rejects empty root", func(t *testing.T) {
		_, err := NewFilesystemStorage("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgEmptyRootDir)
	})
}

func TestFilesystemStorage_SaveAndGet(t *testing.T) {
	storage := newTestFilesystemStorage(t)
	ctx := context.Background()

	tmpl := &StoredTemplate{
		Name:     "partials.nav",
		Source:   "%ul\n  %li home",
		Metadata: map[string]string{"owner": "web"},
	}
	require.NoError(t, storage.Save(ctx, tmpl))
	assert.Equal(t, 1, tmpl.Version)
	assert.NotEmpty(t, tmpl.ID)

	assert.FileExists(t, filepath.Join(storage.Root(), "partials", "nav.haml"))
	assert.FileExists(t, filepath.Join(storage.Root(), "partials", "nav.meta.yaml"))

	got, err := storage.Get(ctx, "partials.nav")
	require.NoError(t, err)
	assert.Equal(t, tmpl.ID, got.ID)
	assert.Equal(t, "%ul\n  %li home", got.Source)
	assert.Equal(t, 1, got.Version)
	assert.Equal(t, "web", got.Metadata["owner"])
	assert.True(t, tmpl.CreatedAt.Equal(got.CreatedAt))
}

func TestFilesystemStorage_HandWrittenTemplates(t *testing.T) {
	storage := newTestFilesystemStorage(t)
	ctx := context.Background()

	writeTemplateFile(t, storage.Root(), "layout.haml", "%html")
	writeTemplateFile(t, storage.Root(), "partials/footer.haml", "%footer")
	writeTemplateFile(t, storage.Root(), "partials/readme.txt", "ignored")
	writeTemplateFile(t, storage.Root(), ".hidden/secret.haml", "%p")
	writeTemplateFile(t, storage.Root(), "bad name.haml", "%p")

	got, err := storage.Get(ctx, "partials.footer")
	require.NoError(t, err)
	assert.Equal(t, "%footer", got.Source)
	assert.Equal(t, 1, got.Version)
	assert.False(t, got.UpdatedAt.IsZero())
	assert.Empty(t, got.ID)

	names, err := storage.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"layout", "partials.footer"}, names)

	exists, err := storage.Exists(ctx, "layout")
	require.NoError(t, err)
	assert.True(t, exists)

	// saving over a hand-written file starts history at its implicit version
	require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "layout", Source: "%html\n  %body"}))
	versions, err := storage.ListVersions(ctx, "layout")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, versions)
}

func TestFilesystemStorage_Versions(t *testing.T) {
	storage := newTestFilesystemStorage(t)
	ctx := context.Background()

	for _, source := range []string{"%p one", "%p two", "%p three"} {
		require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "page", Source: source}))
	}

	latest, err := storage.Get(ctx, "page")
	require.NoError(t, err)
	assert.Equal(t, 3, latest.Version)
	assert.Equal(t, "%p three", latest.Source)

	tests := []struct {
		version  int
		expected string
	}{
		{1, "%p one"},
		{2, "%p two"},
		{3, "%p three"},
	}
	for _, tt := range tests {
		got, err := storage.GetVersion(ctx, "page", tt.version)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got.Source)
		assert.Equal(t, tt.version, got.Version)
	}

	_, err = storage.GetVersion(ctx, "page", 7)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	_, err = storage.GetVersion(ctx, "missing", 1)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	versions, err := storage.ListVersions(ctx, "page")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 1}, versions)

	versions, err = storage.ListVersions(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestFilesystemStorage_Delete(t *testing.T) {
	storage := newTestFilesystemStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "a.b", Source: "%p 1"}))
	require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "a.b", Source: "%p 2"}))

	require.NoError(t, storage.Delete(ctx, "a.b"))

	assert.NoFileExists(t, filepath.Join(storage.Root(), "a", "b.haml"))
	assert.NoFileExists(t, filepath.Join(storage.Root(), "a", "b.meta.yaml"))
	assert.NoDirExists(t, filepath.Join(storage.Root(), filesystemHistoryDir, "a.b"))

	exists, err := storage.Exists(ctx, "a.b")
	require.NoError(t, err)
	assert.False(t, exists)

	err = storage.Delete(ctx, "a.b")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestFilesystemStorage_InvalidNames(t *testing.T) {
	storage := newTestFilesystemStorage(t)
	ctx := context.Background()

	for _, name := range []string{"../escape", "a/b", "", "a..b"} {
		_, err := storage.Get(ctx, name)
		require.Error(t, err, name)
		assert.Contains(t, err.Error(), ErrMsgInvalidTemplateName)

		exists, err := storage.Exists(ctx, name)
		require.NoError(t, err)
		assert.False(t, exists)
	}
}

func TestFilesystemStorage_Closed(t *testing.T) {
	storage := newTestFilesystemStorage(t)
	ctx := context.Background()
	require.NoError(t, storage.Close())

	_, err := storage.Get(ctx, "a")
	assert.Contains(t, err.Error(), ErrMsgStorageClosed)
	err = storage.Save(ctx, &StoredTemplate{Name: "a", Source: "%p"})
	assert.Contains(t, err.Error(), ErrMsgStorageClosed)
	_, err = storage.List(ctx)
	assert.Contains(t, err.Error(), ErrMsgStorageClosed)
}

func TestFilesystemStorage_FlatSiblingFile(t *testing.T) {
	storage := newTestFilesystemStorage(t)
	ctx := context.Background()
	writeTemplateFile(t, storage.Root(), "widgets.card.haml", "%div.card")

	got, err := storage.Get(ctx, "widgets.card")
	require.NoError(t, err)
	assert.Equal(t, "%div.card", got.Source)

	exists, err := storage.Exists(ctx, "widgets.card")
	require.NoError(t, err)
	assert.True(t, exists)

	t.Run("saving updates the flat file", func(t *testing.T) {
		require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "widgets.card", Source: "%div.card.v2"}))

		data, err := os.ReadFile(filepath.Join(storage.Root(), "widgets.card.haml"))
		require.NoError(t, err)
		assert.Equal(t, "%div.card.v2", string(data))
		assert.NoDirExists(t, filepath.Join(storage.Root(), "widgets"))
	})

	t.Run("nested file wins and names are listed once", func(t *testing.T) {
		writeTemplateFile(t, storage.Root(), "widgets/card.haml", "%div.nested")

		got, err := storage.Get(ctx, "widgets.card")
		require.NoError(t, err)
		assert.Equal(t, "%div.nested", got.Source)

		names, err := storage.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"widgets.card"}, names)
	})
}
