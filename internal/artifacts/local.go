package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Lllllllleong/reportlabeler/internal/failure"
)

// LocalStore writes artifacts into one flat directory.
type LocalStore struct {
	dir string
}

// NewLocalStore creates dir if needed and checks that it is writable.
func NewLocalStore(dir string) (*LocalStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("artifact directory is required")
	}
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(dir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("failed to create artifact directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to stat artifact directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("artifact path %s is not a directory", dir)
	}

	probe, err := os.CreateTemp(dir, ".writable-*")
	if err != nil {
		return nil, fmt.Errorf("artifact directory is not writable: %w", err)
	}
	_ = probe.Close()
	if err := os.Remove(probe.Name()); err != nil {
		return nil, fmt.Errorf("failed to clean up probe file: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Dir returns the artifact directory.
func (s *LocalStore) Dir() string { return s.dir }

// Put writes data to a hidden temp file in the artifact directory and
// renames it into place once it is flushed and closed. Readers never see a
// partial file under name.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := validName(name); err != nil {
		return "", failure.New(failure.KindPersist, "put "+name, err)
	}
	if err := ctx.Err(); err != nil {
		return "", failure.New(failure.KindPersist, "put "+name, err)
	}
	if err := s.write(name, data); err != nil {
		return "", failure.New(failure.KindPersist, "put "+name, err)
	}
	return "file://" + filepath.Join(s.dir, name), nil
}

func (s *LocalStore) write(name string, data []byte) (err error) {
	tmp, err := os.CreateTemp(s.dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	closed := false
	defer func() {
		if !closed {
			_ = tmp.Close()
		}
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	closed = true
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
