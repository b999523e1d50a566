package imagestore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"auction-house/internal/config"
	"auction-house/utils"
)

var ErrImageTooLarge = errors.New("image exceeds size limit")

// BlobStore accepts uploaded image bytes and returns a stable reference
// string; listings store only the reference.
type BlobStore interface {
	Save(filename string, r io.Reader) (string, error)
}

// DiskStore writes images into a configured directory under a unique
// name, keeping the original extension.
type DiskStore struct {
	dir     string
	maxSize int64
}

func NewDiskStore(cfg config.UploadConfig) (*DiskStore, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", cfg.Dir, err)
	}
	return &DiskStore{dir: cfg.Dir, maxSize: cfg.MaxSizeBytes}, nil
}

// Save stores the image and returns its reference. The write is staged to
// the final name directly; a failed copy removes the partial file.
func (s *DiskStore) Save(filename string, r io.Reader) (string, error) {
	ref := utils.GenerateID() + filepath.Ext(filename)
	path := filepath.Join(s.dir, ref)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}

	var src io.Reader = r
	if s.maxSize > 0 {
		src = io.LimitReader(r, s.maxSize+1)
	}

	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.maxSize > 0 && n > s.maxSize {
		err = ErrImageTooLarge
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write image: %w", err)
	}
	return ref, nil
}
