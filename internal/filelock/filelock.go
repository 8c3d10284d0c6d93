// Package filelock serializes writers of the same output file across
// goroutines and processes and replaces files atomically, so an exported report
// is either the old content or the new content, never a mix.
package filelock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// DefaultRetryDelay is how often Acquire polls a held lock.
const DefaultRetryDelay = 50 * time.Millisecond

// Lock is an exclusive advisory lock on a sidecar file.
type Lock struct {
	flock *flock.Flock
	path  string
}

// New returns a lock backed by the file at path. Nothing is created until the
// lock is taken.
func New(path string) *Lock {
	return &Lock{flock: flock.New(path), path: path}
}

// ForFile returns the lock guarding target, stored next to it as "<target>.lock".
func ForFile(target string) *Lock {
	return New(target + ".lock")
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Acquire blocks until the lock is held or ctx is done.
func (l *Lock) Acquire(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	locked, err := l.flock.TryLockContext(ctx, DefaultRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire lock on %s", l.path)
	}
	return nil
}

// TryAcquire takes the lock only if it is free.
func (l *Lock) TryAcquire() (bool, error) {
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to try lock on %s: %w", l.path, err)
	}
	return acquired, nil
}

// Release drops the lock.
func (l *Lock) Release() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}

// AtomicWrite writes data to a temporary file in the target's directory and
// renames it over path. On failure the previous file is left untouched.
func AtomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	committed = true
	return nil
}

// WriteFile holds the target's sidecar lock while atomically replacing it.
func WriteFile(ctx context.Context, path string, data []byte, perm os.FileMode) error {
	lock := ForFile(path)
	if err := lock.Acquire(ctx); err != nil {
		return err
	}
	defer lock.Release()

	return AtomicWrite(path, data, perm)
}
