package tthsdctl

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/tthsd/engine/internal/config"
)

// instanceLock is the single-instance guard for the demo CLI's TUI mode,
// adapted from the teacher's cmd/lock.go: same gofrs/flock file lock, moved
// under this engine's own state directory.
var instanceLock *flock.Flock

// acquireLock tries to become the sole running TUI instance against
// config.GetTTHSDDir(). Returns true if this process holds the lock.
func acquireLock() (bool, error) {
	if err := config.EnsureDirs(); err != nil {
		return false, fmt.Errorf("ensure state dir: %w", err)
	}
	lockPath := filepath.Join(config.GetTTHSDDir(), "tthsdctl.lock")
	fl := flock.New(lockPath)
	locked, err := fl.TryLock()
	if err != nil {
		return false, fmt.Errorf("try lock: %w", err)
	}
	if locked {
		instanceLock = fl
	}
	return locked, nil
}

func releaseLock() {
	if instanceLock != nil {
		_ = instanceLock.Unlock()
	}
}
