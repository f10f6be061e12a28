package haml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDriver struct{}

func (stubDriver) Open(string) (TemplateStorage, error) {
	return NewMemoryStorage(), nil
}

func TestStorageDriverRegistry(t *testing.T) {
	drivers := ListStorageDrivers()
	assert.Contains(t, drivers, StorageDriverNameMemory)
	assert.Contains(t, drivers, StorageDriverNameFilesystem)
	assert.Contains(t, drivers, StorageDriverNamePostgres)
	assert.IsNonDecreasing(t, drivers)

	RegisterStorageDriver("stub_registry_test", stubDriver{})
	assert.Contains(t, ListStorageDrivers(), "stub_registry_test")

	assert.Panics(t, func() { RegisterStorageDriver("stub_registry_test", stubDriver{}) })
	assert.Panics(t, func() { RegisterStorageDriver("nil_driver", nil) })
}

func TestOpenStorage(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		storage, err := OpenStorage(StorageDriverNameMemory, "")
		require.NoError(t, err)
		assert.IsType(t, &MemoryStorage{}, storage)
		require.NoError(t, storage.Close())
	})

	t.Run("filesystem", func(t *testing.T) {
		root := t.TempDir()
		storage, err := OpenStorage(StorageDriverNameFilesystem, root)
		require.NoError(t, err)
		fsStorage, ok := storage.(*FilesystemStorage)
		require.True(t, ok)
		assert.Equal(t, root, fsStorage.Root())
	})

	t.Run("postgres without connection string", func(t *testing.T) {
		_, err := OpenStorage(StorageDriverNamePostgres, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgEmptyConnString)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := OpenStorage("nope", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgUnknownDriver)
		assert.Contains(t, err.Error(), "nope")
	})
}

func TestValidateTemplateName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"layout", true},
		{"partials.nav", true},
		{"a.b-c.d_e", true},
		{"v2", true},
		{"", false},
		{".nav", false},
		{"nav.", false},
		{"a..b", false},
		{"a/b", false},
		{"with space", false},
		{"ünï", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTemplateName(tt.name)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), ErrMsgInvalidTemplateName)
		})
	}
}

func TestGenerateTemplateID(t *testing.T) {
	seen := make(map[TemplateID]bool)
	for i := 0; i < 50; i++ {
		id, err := generateTemplateID()
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(id), TemplateIDPrefix))
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestCopyStoredTemplate(t *testing.T) {
	assert.Nil(t, copyStoredTemplate(nil))

	original := &StoredTemplate{Name: "a", Source: "%p", Version: 2, Metadata: map[string]string{"k": "v"}}
	clone := copyStoredTemplate(original)
	assert.Equal(t, original, clone)

	clone.Metadata["k"] = "changed"
	assert.Equal(t, "v", original.Metadata["k"])
}
