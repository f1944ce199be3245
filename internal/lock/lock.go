// Package lock provides an exclusive advisory file lock used to enforce the
// single-writer discipline on an on-disk index.
//
// The lock is per-process and non-blocking: if another process already holds
// the lock file, Acquire fails immediately with ErrHeld instead of waiting.
package lock

import (
	"errors"
	"os"
)

// ErrHeld is returned by Acquire when the lock file is already locked by
// another process.
var ErrHeld = errors.New("lock: already held by another process")

// FileLock is a held advisory lock. The zero value is not usable; obtain one
// via Acquire and release it with Release.
type FileLock struct {
	f *os.File
}
