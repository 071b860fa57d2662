// Package local implements a filesystem-backed blob store.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"csvdataset/internal/blobstore"
)

func init() {
	blobstore.Register("local", func(_ context.Context, cfg blobstore.Config) (blobstore.Store, error) {
		return New(cfg.Dir, cfg.BaseURL)
	})
}

// Store keeps each blob as one file under dir.
type Store struct {
	dir     string
	baseURL string
}

// New returns a Store rooted at dir, creating it if needed. When baseURL is
// empty, Ref.URL is a file:// URL.
func New(dir, baseURL string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("local blobstore: dir is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("local blobstore: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("local blobstore: mkdir %s: %w", abs, err)
	}
	return &Store{dir: abs, baseURL: baseURL}, nil
}

// Put writes obj to a temporary file and renames it into place.
func (s *Store) Put(ctx context.Context, obj blobstore.Object) (blobstore.Ref, error) {
	if err := ctx.Err(); err != nil {
		return blobstore.Ref{}, err
	}
	id := blobstore.NewKey("", obj.Name)
	f, err := os.CreateTemp(s.dir, ".put-*")
	if err != nil {
		return blobstore.Ref{}, fmt.Errorf("create temp in %s: %w", s.dir, err)
	}
	tmp := f.Name()
	_, werr := f.Write(obj.Data)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(tmp)
		return blobstore.Ref{}, fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, id)); err != nil {
		_ = os.Remove(tmp)
		return blobstore.Ref{}, fmt.Errorf("rename %s: %w", tmp, err)
	}
	return blobstore.Ref{ID: id, URL: s.url(id)}, nil
}

// Get reads the blob stored under id.
func (s *Store) Get(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(id)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, blobstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return b, nil
}

// Delete removes the blob; a missing file is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", p, err)
	}
	return nil
}

// path rejects ids that would escape dir.
func (s *Store) path(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("local blobstore: invalid id %q", id)
	}
	return filepath.Join(s.dir, id), nil
}

func (s *Store) url(id string) string {
	if s.baseURL != "" {
		return blobstore.JoinURL(s.baseURL, id)
	}
	return "file://" + filepath.ToSlash(filepath.Join(s.dir, id))
}
