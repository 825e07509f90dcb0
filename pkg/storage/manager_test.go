package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureAlbumDir(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	dir, err := m.EnsureAlbumDir("Julio 2013")
	require.NoError(t, err)
	assert.DirExists(t, dir)

	// second call is a no-op
	again, err := m.EnsureAlbumDir("Julio 2013")
	require.NoError(t, err)
	assert.Equal(t, dir, again)
}

func TestEnsureAlbumDirSanitizesTitle(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	dir, err := m.EnsureAlbumDir("trip: a/b")
	require.NoError(t, err)
	assert.Equal(t, "trip- a-b", filepath.Base(dir))
}

func TestSaveIsAtomic(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	path := filepath.Join(m.BaseDir(), "555_Original.jpg")
	written, err := m.Save(path, strings.NewReader("jpegbytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(9), written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jpegbytes", string(data))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestExistsRequiresNonEmptyFile(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	path := filepath.Join(m.BaseDir(), "555_Original.jpg")
	assert.False(t, m.Exists(path))

	require.NoError(t, os.WriteFile(path, nil, 0644))
	assert.False(t, m.Exists(path), "zero-byte file must not count as downloaded")

	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	assert.True(t, m.Exists(path))

	assert.False(t, m.Exists(m.BaseDir()), "directories are not files")
}

func TestDelete(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	path := filepath.Join(m.BaseDir(), "bad.jpg")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, m.Delete(path))
	assert.NoFileExists(t, path)

	// deleting a missing file is fine
	assert.NoError(t, m.Delete(path))
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "untitled", SanitizeName("  "))
	assert.Equal(t, "a-b", SanitizeName("a\\b"))
	assert.Equal(t, "plain", SanitizeName("plain"))
}
