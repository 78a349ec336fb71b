// Package blob is the binary storage boundary for uploaded attachments.
// The chat core only sees the Store interface and the returned object
// reference.
package blob

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/teris-io/shortid"
)

// Object is the public reference to a stored blob.
type Object struct {
	URL       string `json:"url"`
	StorageId string `json:"storage_id"`
}

type Store interface {
	Put(filename string, r io.Reader) (Object, error)
}

// FileStore stores blobs on the local filesystem under a single
// directory and serves them back under baseURL.
type FileStore struct {
	dir     string
	baseURL string
}

func NewFileStore(dir, baseURL string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	return &FileStore{dir: dir, baseURL: baseURL}, nil
}

// Put writes the blob under a generated storage ID, keeping the original
// file extension so the serving layer can infer a content type.
func (fs *FileStore) Put(filename string, r io.Reader) (Object, error) {
	sid, err := shortid.Generate()
	if err != nil {
		return Object{}, fmt.Errorf("generate storage id: %w", err)
	}

	storageId := sid + filepath.Ext(filename)

	f, err := os.Create(filepath.Join(fs.dir, storageId))
	if err != nil {
		return Object{}, fmt.Errorf("create blob: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return Object{}, fmt.Errorf("write blob: %w", err)
	}

	return Object{
		URL:       path.Join(fs.baseURL, storageId),
		StorageId: storageId,
	}, nil
}

// Dir returns the directory blobs are stored in, for static serving.
func (fs *FileStore) Dir() string {
	return fs.dir
}
