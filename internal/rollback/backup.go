package rollback

import (
	"io"
	"os"
	"path/filepath"

	"upi-recon-engine/pkg/errors"
)

// copyTree recursively copies src to dst, creating dst and all parents.
// Used by the WHOLE_PROCESS level to preserve the output tree before
// deleting it.
func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target, info.Mode())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.FileError(errors.CodeDirectoryError, filepath.Dir(dst), err)
	}
	in, err := os.Open(src)
	if err != nil {
		return errors.FileError(errors.CodeFileNotFound, src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return errors.FileError(errors.CodeDirectoryError, dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return errors.FileError(errors.CodeFileCorrupted, dst, err)
	}
	return out.Sync()
}
