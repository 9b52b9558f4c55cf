// Package atomicfile provides the write-tempfile-fsync-rename discipline
// used by every persisted-state writer in this module: the carry-over
// store, report emitter, settlement ledger, rollback manager, and audit
// trail all route their writes through WriteFile/WriteJSON so that a reader
// never observes a half-written file.
package atomicfile

import (
	"encoding/json"
	"os"
	"path/filepath"

	reconerrors "upi-recon-engine/pkg/errors"
)

// WriteFile stages data to a tempfile in dir, fsyncs it, then renames it
// over path. dir must be the same filesystem as path (enforced by creating
// the tempfile alongside the target) so the rename is atomic.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return reconerrors.FileError(reconerrors.CodeDirectoryError, dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return reconerrors.FileError(reconerrors.CodeDirectoryError, dir, err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return reconerrors.FileError(reconerrors.CodeFileCorrupted, path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return reconerrors.FileError(reconerrors.CodeFileCorrupted, path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return reconerrors.FileError(reconerrors.CodeFileCorrupted, path, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return reconerrors.FileError(reconerrors.CodeFilePermission, path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return reconerrors.FileError(reconerrors.CodeDirectoryError, path, err)
	}
	return nil
}

// WriteJSON marshals v with indentation and writes it atomically.
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return reconerrors.InternalError(reconerrors.CodeUnexpectedError, "marshal json for "+path, err)
	}
	return WriteFile(path, data, 0o644)
}

// ReadJSON reads and unmarshals path into v. Callers that treat a missing
// or corrupt file as empty state (the carry-over store, §4.4) should check
// os.IsNotExist themselves rather than treating every error as fatal.
func ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
