package main

import (
	"fmt"
	"os"
	"syscall"
)

// lockFilePermissions matches the standard config file permissions (owner
// rw, group/other r).
const lockFilePermissions = 0o644

// collectionLockName is the lock file's name within a collection root.
const collectionLockName = ".arcadekeep.lock"

// acquireCollectionLock takes an exclusive, non-blocking flock on path so
// two mutating commands (import, sync, delete, migrate-types, mass-import)
// never race against the same sqlite file from this process tree. Returns
// a cleanup function that releases the lock and closes the file; callers
// run it whether or not the command itself succeeded.
func acquireCollectionLock(path string) (cleanup func(), err error) {
	if path == "" {
		return nil, fmt.Errorf("collection lock path is empty")
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, lockFilePermissions)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("another collection command is already running against this collection root (could not lock %s)", path)
	}

	if err := f.Truncate(0); err != nil {
		f.Close()
		return nil, fmt.Errorf("truncating lock file: %w", err)
	}

	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing lock file: %w", err)
	}

	return func() {
		f.Close()
	}, nil
}
