package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidName is returned for names that are empty or would leave the upload directory.
var ErrInvalidName = errors.New("invalid file name")

// UploadDir is the flat directory holding uploaded and renamed files.
type UploadDir struct {
	root string
}

func NewUploadDir(root string) (*UploadDir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &UploadDir{root: abs}, nil
}

func (d *UploadDir) Root() string {
	return d.root
}

// Path resolves name inside the directory. Names containing separators or
// pointing outside the directory are rejected.
func (d *UploadDir) Path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	p := filepath.Join(d.root, name)
	if filepath.Dir(p) != d.root {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return p, nil
}

// Save writes data under name, replacing any existing file, and returns its path.
func (d *UploadDir) Save(name string, data []byte) (string, error) {
	p, err := d.Path(name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return p, nil
}

// Import moves an external file into the directory under name.
func (d *UploadDir) Import(src, name string) (string, error) {
	dst, err := d.Path(name)
	if err != nil {
		return "", err
	}
	if err := os.Rename(src, dst); err != nil {
		return "", fmt.Errorf("failed to move %s into upload directory: %w", src, err)
	}
	return dst, nil
}

// Rename is the commit step of the pipeline.
func (d *UploadDir) Rename(from, to string) (string, error) {
	src, err := d.Path(from)
	if err != nil {
		return "", err
	}
	dst, err := d.Path(to)
	if err != nil {
		return "", err
	}
	if err := os.Rename(src, dst); err != nil {
		return "", fmt.Errorf("failed to rename %s to %s: %w", from, to, err)
	}
	return dst, nil
}

// Remove deletes name; a missing file is not an error.
func (d *UploadDir) Remove(name string) error {
	p, err := d.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}

// Open returns the named regular file for download.
func (d *UploadDir) Open(name string) (*os.File, os.FileInfo, error) {
	p, err := d.Path(name)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, fmt.Errorf("%s: %w", name, os.ErrNotExist)
	}

	return f, info, nil
}
