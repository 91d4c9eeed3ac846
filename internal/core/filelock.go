package core

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"
)

// lockRetryInterval is how long a writer sleeps between acquisition
// attempts while the lock is held elsewhere.
const lockRetryInterval = 25 * time.Millisecond

// acquireLock takes the store's exclusive advisory lock. It retries a
// non-blocking flock until timeout elapses, then fails with
// StoreLockedError. The returned unlock function releases the lock and
// closes the file; callers defer it on every path.
func acquireLock(path string, timeout time.Duration) (unlock func() error, err error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for {
		err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			break
		}
		if errors.Is(err, syscall.EINTR) {
			continue
		}
		if !errors.Is(err, syscall.EWOULDBLOCK) {
			f.Close()
			return nil, fmt.Errorf("acquiring store lock: %w", err)
		}
		if time.Now().After(deadline) {
			f.Close()
			return nil, &StoreLockedError{Path: path, Timeout: timeout}
		}
		time.Sleep(lockRetryInterval)
	}

	return func() error {
		defer f.Close()
		return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}, nil
}
