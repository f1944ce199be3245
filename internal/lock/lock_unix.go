//go:build unix

package lock

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Acquire takes an exclusive flock(2) on the file at path, creating it if
// needed. The lock is advisory and tied to the returned handle; it is dropped
// automatically if the process dies, so a crashed writer never leaves a stale
// lock behind.
func Acquire(path string) (*FileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("lock: open %q: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK || err == unix.EAGAIN {
			return nil, fmt.Errorf("lock: %q: %w", path, ErrHeld)
		}
		return nil, fmt.Errorf("lock: flock %q: %w", path, err)
	}
	return &FileLock{f: f}, nil
}

// Release drops the lock and closes the handle. The lock file itself is left
// in place; removing it would race with a concurrent Acquire on the same
// path.
func (l *FileLock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	unlockErr := unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	closeErr := l.f.Close()
	l.f = nil
	if unlockErr != nil {
		return fmt.Errorf("lock: unlock: %w", unlockErr)
	}
	return closeErr
}
