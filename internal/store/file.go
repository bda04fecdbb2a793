package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofrs/flock"

	"github.com/nibzard/task-cli/internal/logging"
	"github.com/nibzard/task-cli/internal/task"
)

const (
	// DefaultLockTimeout bounds how long Update and View wait for the lock.
	DefaultLockTimeout = 2 * time.Second

	lockRetryDelay = 25 * time.Millisecond
	filePerm       = 0o644
	dirPerm        = 0o755
)

// FileOptions controls FileStore behavior.
type FileOptions struct {
	// AtomicWrite writes to a temp file in the same directory and renames it
	// over the tasks file.
	AtomicWrite bool

	// Lock takes an advisory lock on "<path>.lock" for each Update and View.
	Lock bool

	// LockTimeout bounds lock acquisition. Zero means DefaultLockTimeout.
	LockTimeout time.Duration

	// Logger receives debug traces. Nil discards them.
	Logger *log.Logger
}

// FileStore keeps the collection in a single JSON file.
type FileStore struct {
	path   string
	opts   FileOptions
	logger *log.Logger
}

// NewFileStore creates a store backed by path. The file need not exist.
func NewFileStore(path string, opts FileOptions) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("tasks file path is empty")
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = DefaultLockTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &FileStore{
		path:   path,
		opts:   opts,
		logger: logger,
	}, nil
}

// Path returns the tasks file path.
func (s *FileStore) Path() string {
	return s.path
}

// LockPath returns the advisory lock file path.
func (s *FileStore) LockPath() string {
	return s.path + ".lock"
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context) (task.Collection, error) {
	if err := canceled(ctx); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("tasks file not found, starting empty", "path", s.path)
			return task.Collection{}, nil
		}
		return nil, fmt.Errorf("read tasks file %s: %w: %w", s.path, ErrIOFailure, err)
	}

	tasks, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load tasks file %s: %w", s.path, err)
	}
	s.logger.Debug("loaded tasks", "path", s.path, "count", len(tasks))
	return tasks, nil
}

// Save implements Store.
func (s *FileStore) Save(ctx context.Context, tasks task.Collection) error {
	if err := canceled(ctx); err != nil {
		return err
	}

	data, err := Encode(tasks)
	if err != nil {
		return err
	}

	if err := s.ensureDir(); err != nil {
		return err
	}

	if s.opts.AtomicWrite {
		err = writeAtomic(s.path, data)
	} else {
		err = os.WriteFile(s.path, data, filePerm)
	}
	if err != nil {
		return fmt.Errorf("write tasks file %s: %w: %w", s.path, ErrIOFailure, err)
	}
	s.logger.Debug("saved tasks", "path", s.path, "count", len(tasks), "atomic", s.opts.AtomicWrite)
	return nil
}

// Update implements Store.
func (s *FileStore) Update(ctx context.Context, fn UpdateFunc) error {
	unlock, err := s.acquire(ctx, true)
	if err != nil {
		return err
	}
	defer unlock()

	tasks, err := s.Load(ctx)
	if err != nil {
		return err
	}
	next, err := fn(tasks)
	if err != nil {
		return err
	}
	return s.Save(ctx, next)
}

// View implements Store.
func (s *FileStore) View(ctx context.Context, fn ViewFunc) error {
	unlock, err := s.acquire(ctx, false)
	if err != nil {
		return err
	}
	defer unlock()

	tasks, err := s.Load(ctx)
	if err != nil {
		return err
	}
	return fn(tasks)
}

// acquire takes the advisory lock when enabled and returns its release func.
func (s *FileStore) acquire(ctx context.Context, exclusive bool) (func(), error) {
	if !s.opts.Lock {
		return func() {}, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.ensureDir(); err != nil {
		return nil, err
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.opts.LockTimeout)
	defer cancel()

	fl := flock.New(s.LockPath())
	var (
		locked bool
		err    error
	)
	if exclusive {
		locked, err = fl.TryLockContext(lockCtx, lockRetryDelay)
	} else {
		locked, err = fl.TryRLockContext(lockCtx, lockRetryDelay)
	}
	if err != nil || !locked {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err == nil {
			err = lockCtx.Err()
		}
		return nil, fmt.Errorf("tasks file is locked (%s): %w: %w", s.LockPath(), ErrIOFailure, err)
	}
	s.logger.Debug("acquired lock", "path", s.LockPath(), "exclusive", exclusive)

	return func() {
		if err := fl.Unlock(); err != nil {
			s.logger.Warn("release lock", "path", s.LockPath(), "err", err)
		}
	}, nil
}

func (s *FileStore) ensureDir() error {
	dir := filepath.Dir(s.path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create directory %s: %w: %w", dir, ErrIOFailure, err)
	}
	return nil
}

// writeAtomic writes data to a temp file next to path and renames it into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
