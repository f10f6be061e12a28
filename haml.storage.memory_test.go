package haml

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_NewMemoryStorage(t *testing.T) {
	storage := NewMemoryStorage()
	require.NotNil(t, storage)
	assert.NotNil(t, storage.templates)
	assert.False(t, storage.closed)
}

func TestMemoryStorage_Save(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	t.Run("saves new template", func(t *testing.T) {
		tmpl := &StoredTemplate{
			Name:     "greeting",
			Source:   "%p Hello",
			Metadata: map[string]string{"author": "test"},
		}

		err := storage.Save(ctx, tmpl)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(string(tmpl.ID), TemplateIDPrefix))
		assert.Equal(t, 1, tmpl.Version)
		assert.False(t, tmpl.CreatedAt.IsZero())
		assert.False(t, tmpl.UpdatedAt.IsZero())
	})

	t.Run("creates new version for existing template", func(t *testing.T) {
		for i, source := range []string{"%p v1", "%p v2", "%p v3"} {
			tmpl := &StoredTemplate{Name: "versioned", Source: source}
			require.NoError(t, storage.Save(ctx, tmpl))
			assert.Equal(t, i+1, tmpl.Version)
		}
	})

	t.Run("rejects invalid names", func(t *testing.T) {
		for _, name := range []string{"", "a..b", "has space", ".leading"} {
			err := storage.Save(ctx, &StoredTemplate{Name: name, Source: "%p"})
			require.Error(t, err, name)
			assert.Contains(t, err.Error(), ErrMsgInvalidTemplateName)
		}
	})

	t.Run("rejects nil template", func(t *testing.T) {
		err := storage.Save(ctx, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgNilStoredTemplate)
	})

	t.Run("stored copy is independent of caller", func(t *testing.T) {
		meta := map[string]string{"k": "v"}
		tmpl := &StoredTemplate{Name: "isolated", Source: "%p", Metadata: meta}
		require.NoError(t, storage.Save(ctx, tmpl))

		meta["k"] = "changed"
		got, err := storage.Get(ctx, "isolated")
		require.NoError(t, err)
		assert.Equal(t, "v", got.Metadata["k"])

		got.Source = "%div"
		again, err := storage.Get(ctx, "isolated")
		require.NoError(t, err)
		assert.Equal(t, "%p", again.Source)
	})
}

func TestMemoryStorage_GetAndVersions(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	for _, source := range []string{"%p one", "%p two"} {
		require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "page", Source: source}))
	}

	latest, err := storage.Get(ctx, "page")
	require.NoError(t, err)
	assert.Equal(t, "%p two", latest.Source)
	assert.Equal(t, 2, latest.Version)

	first, err := storage.GetVersion(ctx, "page", 1)
	require.NoError(t, err)
	assert.Equal(t, "%p one", first.Source)

	_, err = storage.GetVersion(ctx, "page", 9)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	versions, err := storage.ListVersions(ctx, "page")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, versions)

	versions, err = storage.ListVersions(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, versions)

	_, err = storage.Get(ctx, "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestMemoryStorage_DeleteExistsList(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	for _, name := range []string{"b.two", "a.one", "c"} {
		require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: name, Source: "%p"}))
	}

	names, err := storage.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.one", "b.two", "c"}, names)

	exists, err := storage.Exists(ctx, "c")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, storage.Delete(ctx, "c"))

	exists, err = storage.Exists(ctx, "c")
	require.NoError(t, err)
	assert.False(t, exists)

	err = storage.Delete(ctx, "c")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestMemoryStorage_Closed(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()
	require.NoError(t, storage.Close())

	_, err := storage.Get(ctx, "a")
	assert.Contains(t, err.Error(), ErrMsgStorageClosed)
	_, err = storage.GetVersion(ctx, "a", 1)
	assert.Contains(t, err.Error(), ErrMsgStorageClosed)
	err = storage.Save(ctx, &StoredTemplate{Name: "a"})
	assert.Contains(t, err.Error(), ErrMsgStorageClosed)
	err = storage.Delete(ctx, "a")
	assert.Contains(t, err.Error(), ErrMsgStorageClosed)
	_, err = storage.Exists(ctx, "a")
	assert.Contains(t, err.Error(), ErrMsgStorageClosed)
	_, err = storage.List(ctx)
	assert.Contains(t, err.Error(), ErrMsgStorageClosed)
	_, err = storage.ListVersions(ctx, "a")
	assert.Contains(t, err.Error(), ErrMsgStorageClosed)
}

func TestMemoryStorage_ContextCancelled(t *testing.T) {
	storage := NewMemoryStorage()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := storage.Get(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
	err = storage.Save(ctx, &StoredTemplate{Name: "a"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStorage_Concurrent(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "shared", Source: "%p"}))
			_, err := storage.Get(ctx, "shared")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	versions, err := storage.ListVersions(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, versions, 20)
	assert.Equal(t, 20, versions[0])
}
