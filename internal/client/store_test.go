package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.json")
	s := NewFileStore(path)

	v, err := s.Get(TokenKey)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.Set(TokenKey, "tok-1"))
	require.NoError(t, s.Set("other", "x"))

	reopened := NewFileStore(path)
	v, err = reopened.Get(TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", v)

	require.NoError(t, reopened.Delete(TokenKey))
	require.NoError(t, reopened.Delete("never-set"))
	v, err = s.Get(TokenKey)
	require.NoError(t, err)
	assert.Empty(t, v)
	v, err = s.Get("other")
	require.NoError(t, err)
	assert.Equal(t, "x", v)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path).Get(TokenKey)
	assert.Error(t, err)
}
