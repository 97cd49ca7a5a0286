package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/compliancebinder/internal/common"
)

// LocalStore keeps bodies as flat files in one directory. Every access goes
// through an *os.Root, so no name can resolve outside that directory, even
// through symlinks.
type LocalStore struct {
	dir  string
	root *os.Root
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open upload dir: %w", err)
	}
	return &LocalStore{dir: dir, root: root}, nil
}

func (s *LocalStore) Put(ctx context.Context, storedName string, r io.Reader, limit int64) (int64, error) {
	if err := checkStoredName(storedName); err != nil {
		return 0, err
	}

	f, err := s.root.OpenFile(storedName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return 0, common.ErrorConflict
		}
		return 0, fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}

	n, err := copyLimited(f, contextReader{ctx: ctx, r: r}, limit)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("%w: %v", common.ErrStorageUnavailable, cerr)
	}
	if err != nil {
		_ = s.root.Remove(storedName)
		return 0, err
	}
	return n, nil
}

func (s *LocalStore) Open(_ context.Context, storedName string) (io.ReadCloser, error) {
	if err := checkStoredName(storedName); err != nil {
		return nil, common.ErrorNotFound
	}
	f, err := s.root.Open(storedName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	return f, nil
}

func (s *LocalStore) Delete(_ context.Context, storedName string) error {
	if err := checkStoredName(storedName); err != nil {
		return err
	}
	if err := s.root.Remove(storedName); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *LocalStore) Usage(_ context.Context) (int64, error) {
	var total int64
	err := fs.WalkDir(s.root.FS(), ".", func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	return total, nil
}

func (s *LocalStore) Check(_ context.Context) error {
	info, err := s.root.Stat(".")
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", common.ErrStorageUnavailable, s.dir)
	}
	return nil
}

func (s *LocalStore) Describe() (string, string) {
	return "local", s.dir
}

func (s *LocalStore) Close() error {
	return s.root.Close()
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
