package rollback

import (
	"os"
	"path/filepath"

	"upi-recon-engine/internal/atomicfile"
	"upi-recon-engine/internal/models"
)

func reconOutputPath(runDir string) string      { return filepath.Join(runDir, "recon_output.json") }
func accountingOutputPath(runDir string) string { return filepath.Join(runDir, "accounting_output.json") }
func uploadedFilesPath(runDir string) string    { return filepath.Join(runDir, "uploaded_files.json") }

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// loadReconOutput reads recon_output.json (map RRN -> Record, §6.2).
func loadReconOutput(runDir string) (map[string]*models.Record, error) {
	out := map[string]*models.Record{}
	if err := atomicfile.ReadJSON(reconOutputPath(runDir), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func saveReconOutput(runDir string, records map[string]*models.Record) error {
	return atomicfile.WriteJSON(reconOutputPath(runDir), records)
}

// loadAccountingOutput reads accounting_output.json (the voucher list, §6.2).
func loadAccountingOutput(runDir string) ([]*models.Voucher, error) {
	var out []*models.Voucher
	if err := atomicfile.ReadJSON(accountingOutputPath(runDir), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func saveAccountingOutput(runDir string, vouchers []*models.Voucher) error {
	return atomicfile.WriteJSON(accountingOutputPath(runDir), vouchers)
}

// loadUploadedFiles reads the run's uploaded-files list, treating a missing
// file as an empty list (mirrors the carry-over store's "missing is empty"
// read discipline, §4.4).
func loadUploadedFiles(runDir string) ([]string, error) {
	var out []string
	if err := atomicfile.ReadJSON(uploadedFilesPath(runDir), &out); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}

func saveUploadedFiles(runDir string, files []string) error {
	return atomicfile.WriteJSON(uploadedFilesPath(runDir), files)
}

func removeFromList(list []string, name string) []string {
	out := list[:0]
	for _, f := range list {
		if filepath.Base(f) != name {
			out = append(out, f)
		}
	}
	return out
}
