package blob

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	fs, err := NewFileStore(dir, "/uploads")
	assert.NoError(t, err, "expected no error creating file store")
	assert.NotNil(t, fs, "expected file store to be non-nil")

	info, err := os.Stat(dir)
	assert.NoError(t, err, "expected upload dir to exist")
	assert.True(t, info.IsDir(), "expected upload path to be a directory")
}

func TestFileStorePut(t *testing.T) {
	fs, err := NewFileStore(t.TempDir(), "/uploads")
	assert.NoError(t, err, "expected no error creating file store")

	obj, err := fs.Put("photo.png", strings.NewReader("image-bytes"))
	assert.NoError(t, err, "expected no error storing blob")
	assert.NotEmpty(t, obj.StorageId, "expected a storage id")
	assert.True(t, strings.HasSuffix(obj.StorageId, ".png"), "expected original extension to be kept")
	assert.Equal(t, "/uploads/"+obj.StorageId, obj.URL, "expected URL under the base path")

	data, err := os.ReadFile(filepath.Join(fs.Dir(), obj.StorageId))
	assert.NoError(t, err, "expected stored blob to be readable")
	assert.Equal(t, "image-bytes", string(data), "expected blob contents to round-trip")
}

func TestFileStorePut_UniqueIds(t *testing.T) {
	fs, err := NewFileStore(t.TempDir(), "/uploads")
	assert.NoError(t, err, "expected no error creating file store")

	a, err := fs.Put("a.txt", strings.NewReader("a"))
	assert.NoError(t, err)
	b, err := fs.Put("a.txt", strings.NewReader("b"))
	assert.NoError(t, err)

	assert.NotEqual(t, a.StorageId, b.StorageId, "expected distinct storage ids for same filename")
}
