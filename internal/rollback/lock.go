package rollback

import (
	"os"
	"path/filepath"

	"upi-recon-engine/pkg/errors"
)

// runLock is the one process-global mutex per run (§4.7 Locking): a single
// exclusive lock file acquired with O_EXCL, refusing any cascading rollback
// while one is already in progress.
type runLock struct {
	path  string
	runID string
}

func newRunLock(outputDir, runID string) *runLock {
	return &runLock{path: filepath.Join(outputDir, runID+".rollback.lock"), runID: runID}
}

// Acquire creates the lock file with O_EXCL. Failure (file already exists)
// means another rollback is in progress; callers surface CodeLockBusy
// immediately, no retries at this layer.
func (l *runLock) Acquire() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return errors.RollbackError(errors.CodeLockBusy, l.runID, "", nil).
				WithContext("lock_path", l.path).
				WithSuggestion("wait for the in-progress rollback to finish or inspect rollback_history.json for a stuck entry")
		}
		return errors.FileError(errors.CodeDirectoryError, l.path, err)
	}
	return f.Close()
}

// Release removes the lock file. Safe to call even if the lock was never
// acquired (os.Remove on a missing file is a no-op for our purposes).
func (l *runLock) Release() {
	_ = os.Remove(l.path)
}
