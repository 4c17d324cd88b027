package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPutAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir, "https://files.test/backups")
	require.NoError(t, err)

	obj, err := store.Put(context.Background(), "company-3/backup.json.gz", strings.NewReader("payload"), 7, "application/gzip")
	require.NoError(t, err)
	assert.Equal(t, int64(7), obj.Size)
	assert.Equal(t, "https://files.test/backups/company-3/backup.json.gz", obj.URL)

	data, err := os.ReadFile(filepath.Join(dir, "company-3", "backup.json.gz"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	require.NoError(t, store.Delete(context.Background(), obj.Key))
	_, err = os.Stat(filepath.Join(dir, "company-3", "backup.json.gz"))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, store.Delete(context.Background(), obj.Key))
}

func TestLocalRejectsTraversal(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "")
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "../escape.txt", strings.NewReader("x"), 1, "text/plain")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "ftp"})
	assert.Error(t, err)
}
