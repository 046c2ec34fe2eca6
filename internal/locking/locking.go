// Package locking guards the persisted build graph against concurrent
// mutation by separate build invocations.
package locking

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// BuildGraphLocker holds a cross-process advisory lock on a build graph
// file. The lock is acquired before the graph is loaded and released after
// it is stored or abandoned, including on error paths. It does not protect
// against in-process races; that is the caller's job.
type BuildGraphLocker struct {
	lock   *flock.Flock
	logger *slog.Logger
}

// New creates a locker for the given build graph file. The lock file lives
// next to the graph under a ".lock" suffix.
func New(buildGraphFilePath string, logger *slog.Logger) *BuildGraphLocker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &BuildGraphLocker{
		lock:   flock.New(buildGraphFilePath + ".lock"),
		logger: logger,
	}
}

// Lock attempts to take the advisory lock without blocking. A held lock
// means another build is operating on the same graph, which is a user
// error rather than something to wait out.
func (l *BuildGraphLocker) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.lock.Path()), 0o755); err != nil {
		return fmt.Errorf("failed to create build directory: %w", err)
	}

	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock build graph: %w", err)
	}
	if !locked {
		return fmt.Errorf("build graph %s is locked by another process", l.lock.Path())
	}

	l.logger.Debug("acquired build graph lock", "path", l.lock.Path())
	return nil
}

// Unlock releases the lock. Releasing an unheld lock is a no-op.
func (l *BuildGraphLocker) Unlock() error {
	if !l.lock.Locked() {
		return nil
	}
	l.logger.Debug("releasing build graph lock", "path", l.lock.Path())
	return l.lock.Unlock()
}
