package lookup

import (
	"path/filepath"
)

func recordsPath(runDir string) string {
	return filepath.Join(runDir, "recon_output.json")
}
