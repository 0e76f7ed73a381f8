package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Uploader stores probe images on disk under random names and returns the
// public URL they are served from.
type Uploader struct {
	dir string
}

// NewUploader creates an uploader writing into dir, creating it if missing.
func NewUploader(dir string) (*Uploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &Uploader{dir: dir}, nil
}

// Save writes the image under a uuid name, keeping the original extension.
func (u *Uploader) Save(data []byte, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		ext = ".jpg"
	}

	name := uuid.NewString() + ext
	path := filepath.Join(u.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing upload: %w", err)
	}
	return "/uploads/" + name, nil
}

// Dir returns the directory uploads are written to.
func (u *Uploader) Dir() string {
	return u.dir
}
