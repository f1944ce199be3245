//go:build windows

package lock

import (
	"fmt"
	"os"
)

// Acquire creates the lock file and succeeds unconditionally. flock(2)
// semantics have no direct Windows equivalent, so mutual exclusion between
// processes is not enforced there; callers that need it must arrange it
// externally.
func Acquire(path string) (*FileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("lock: open %q: %w", path, err)
	}
	return &FileLock{f: f}, nil
}

// Release closes the lock file handle.
func (l *FileLock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}
