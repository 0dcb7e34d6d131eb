package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// PublicPrefix is the URL path under which uploads are served.
const PublicPrefix = "/uploads"

var allowedExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// ImageStore keeps uploaded product images on the local filesystem.
type ImageStore struct {
	dir string
}

func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ImageStore{dir: dir}, nil
}

func (s *ImageStore) Dir() string {
	return s.dir
}

// Save writes r under a fresh UUID name, keeping the upload's extension when
// it is a known image type, and returns the public relative path.
func (s *ImageStore) Save(filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if !allowedExt[ext] {
		ext = ""
	}
	name := uuid.NewString() + ext

	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}

	return path.Join(PublicPrefix, name), nil
}

// Remove deletes an image previously returned by Save.
func (s *ImageStore) Remove(publicPath string) error {
	name := path.Base(publicPath)
	if !strings.HasPrefix(publicPath, PublicPrefix+"/") || name == "." || name == "/" {
		return fmt.Errorf("not an upload path: %q", publicPath)
	}
	return os.Remove(filepath.Join(s.dir, name))
}
