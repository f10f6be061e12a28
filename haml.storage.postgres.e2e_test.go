//go:build integration

package haml

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgresContainer creates an ephemeral PostgreSQL container for testing.
func setupPostgresContainer(t *testing.T) (*PostgresStorage, func()) {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15",
		postgres.WithDatabase("haml_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	storage, err := NewPostgresStorage(PostgresConfig{
		ConnectionString: connStr,
		AutoMigrate:      true,
		QueryTimeout:     30 * time.Second,
	})
	require.NoError(t, err, "failed to create postgres storage")

	cleanup := func() {
		if storage != nil {
			_ = storage.Close()
		}
		if container != nil {
			_ = container.Terminate(ctx)
		}
	}

	return storage, cleanup
}

func TestPostgres_E2E_BasicCRUD(t *testing.T) {
	storage, cleanup := setupPostgresContainer(t)
	defer cleanup()
	ctx := context.Background()

	t.Run("Save", func(t *testing.T) {
		tmpl := &StoredTemplate{
			Name:     "partials.nav",
			Source:   "- title = 'Menu'\n- def item(label)\n  %li= label",
			Metadata: map[string]string{"author": "test"},
		}

		err := storage.Save(ctx, tmpl)
		require.NoError(t, err)
		assert.NotEmpty(t, tmpl.ID)
		assert.Equal(t, 1, tmpl.Version)
		assert.False(t, tmpl.CreatedAt.IsZero())
	})

	t.Run("Get", func(t *testing.T) {
		tmpl, err := storage.Get(ctx, "partials.nav")
		require.NoError(t, err)
		assert.Equal(t, "partials.nav", tmpl.Name)
		assert.Contains(t, tmpl.Source, "def item")
		assert.Equal(t, 1, tmpl.Version)
		assert.Equal(t, "test", tmpl.Metadata["author"])
	})

	t.Run("Exists", func(t *testing.T) {
		exists, err := storage.Exists(ctx, "partials.nav")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = storage.Exists(ctx, "nonexistent")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("GetNotFound", func(t *testing.T) {
		_, err := storage.Get(ctx, "nonexistent")
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
	})

	t.Run("List", func(t *testing.T) {
		require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "layout", Source: "%html"}))
		names, err := storage.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"layout", "partials.nav"}, names)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, storage.Delete(ctx, "layout"))

		exists, err := storage.Exists(ctx, "layout")
		require.NoError(t, err)
		assert.False(t, exists)

		err = storage.Delete(ctx, "layout")
		assert.True(t, IsNotFound(err))
	})
}

func TestPostgres_E2E_Versioning(t *testing.T) {
	storage, cleanup := setupPostgresContainer(t)
	defer cleanup()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		tmpl := &StoredTemplate{Name: "page", Source: fmt.Sprintf("%%p v%d", i)}
		require.NoError(t, storage.Save(ctx, tmpl))
		assert.Equal(t, i, tmpl.Version)
	}

	latest, err := storage.Get(ctx, "page")
	require.NoError(t, err)
	assert.Equal(t, 3, latest.Version)
	assert.Equal(t, "%p v3", latest.Source)

	v1, err := storage.GetVersion(ctx, "page", 1)
	require.NoError(t, err)
	assert.Equal(t, "%p v1", v1.Source)

	_, err = storage.GetVersion(ctx, "page", 42)
	assert.True(t, IsNotFound(err))

	versions, err := storage.ListVersions(ctx, "page")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 1}, versions)
}

func TestPostgres_E2E_ConcurrentSaves(t *testing.T) {
	storage, cleanup := setupPostgresContainer(t)
	defer cleanup()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "shared", Source: fmt.Sprintf("%%p %d", i)}))
		}(i)
	}
	wg.Wait()

	versions, err := storage.ListVersions(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, versions, 10)
	assert.Equal(t, 10, versions[0])
}

func TestPostgres_E2E_MigrationsIdempotent(t *testing.T) {
	storage, cleanup := setupPostgresContainer(t)
	defer cleanup()

	require.NoError(t, storage.RunMigrations(context.Background()))

	applied, err := storage.appliedMigrations(context.Background())
	require.NoError(t, err)
	assert.Len(t, applied, len(storage.migrations()))
}

func TestPostgres_E2E_EngineImports(t *testing.T) {
	storage, cleanup := setupPostgresContainer(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, storage.Save(ctx, &StoredTemplate{
		Name:   "partials.nav",
		Source: "- title = 'Menu'\n- def item(label)\n  %li= label",
	}))
	require.NoError(t, storage.Save(ctx, &StoredTemplate{
		Name:   "pages.home",
		Source: "- import partials.nav\n%ul\n  - nav.item(user)\n%p= nav.title",
	}))

	engine := MustNew(WithStorage(NewCachedStorage(storage, DefaultCacheConfig())))
	result, err := engine.RenderTemplate(ctx, "pages.home", map[string]any{"user": "ann"})
	require.NoError(t, err)
	assert.Equal(t, "<ul>\n  <li>ann</li>\n</ul>\n<p>Menu</p>\n", result)
}
