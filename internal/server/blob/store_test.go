package blob

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRead_RoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	data := []byte("Hello Webstack!\n")
	path, err := store.Write(data)
	require.NoError(t, err)
	require.FileExists(t, path)

	got, err := store.Read(path, "")
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestWrite_CreatesRootLazily(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "blobs")
	store := NewStore(root)

	path, err := store.Write([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, root, filepath.Dir(path))
}

func TestWrite_DistinctPaths(t *testing.T) {
	store := NewStore(t.TempDir())

	p1, err := store.Write([]byte("same"))
	require.NoError(t, err)
	p2, err := store.Write([]byte("same"))
	require.NoError(t, err)

	assert.NotEqual(t, p1, p2)
}

func TestVariantPath_NamingConvention(t *testing.T) {
	assert.Equal(t, "/data/abc_small", VariantPath("/data/abc", "small"))
}

func TestWriteVariant_ReadBack(t *testing.T) {
	store := NewStore(t.TempDir())

	path, err := store.Write([]byte("original"))
	require.NoError(t, err)

	require.NoError(t, store.WriteVariant(path, "small", []byte("tiny")))

	got, err := store.Read(path, "small")
	require.NoError(t, err)
	assert.Equal(t, []byte("tiny"), got)

	// The original stays untouched.
	got, err = store.Read(path, "")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)
}

func TestRead_MissingBlob(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Read(filepath.Join(store.Root(), "nope"), "")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRead_MissingVariant(t *testing.T) {
	store := NewStore(t.TempDir())

	path, err := store.Write([]byte("original"))
	require.NoError(t, err)

	_, err = store.Read(path, "medium")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRead_EmptyPath(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Read("", "")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRead_DirectoryIsNotABlob(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	dir := filepath.Join(root, "subdir")
	require.NoError(t, os.Mkdir(dir, 0o755))

	_, err := store.Read(dir, "")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}
