package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalUploader copies objects into a directory served at a public base URL
type LocalUploader struct {
	dir           string
	publicBaseURL string
}

// NewLocalUploader creates dir if needed
func NewLocalUploader(dir, publicBaseURL string) (*LocalUploader, error) {
	if dir == "" {
		dir = filepath.Join("tmp", "storage")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}
	if publicBaseURL == "" {
		publicBaseURL = "/files"
	}
	return &LocalUploader{dir: dir, publicBaseURL: publicBaseURL}, nil
}

// Dir is the directory objects are written to
func (u *LocalUploader) Dir() string {
	return u.dir
}

func (u *LocalUploader) pathFor(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid object key: %q", key)
	}
	return filepath.Join(u.dir, clean), nil
}

// Upload copies the file into the storage directory
func (u *LocalUploader) Upload(_ context.Context, obj Object) (string, error) {
	dest, err := u.pathFor(obj.Key)
	if err != nil {
		return "", &UploadError{Key: obj.Key, Cause: err}
	}
	if err := copyFile(obj.Path, dest); err != nil {
		return "", &UploadError{Key: obj.Key, Cause: err}
	}
	return joinURL(u.publicBaseURL, filepath.ToSlash(obj.Key)), nil
}

// Delete removes the stored object; a missing object is not an error
func (u *LocalUploader) Delete(_ context.Context, key string) error {
	dest, err := u.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
