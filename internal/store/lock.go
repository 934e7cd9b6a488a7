package store

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

var ErrLocked = errors.New("data dir is in use by another engine")

// LockDir takes an exclusive lock on dataDir so only one engine process
// writes the database. Call Unlock on the result at shutdown.
func LockDir(dataDir string) (*flock.Flock, error) {
	fl := flock.New(filepath.Join(dataDir, "engine.lock"))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", dataDir, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return fl, nil
}
