package settlement

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"upi-recon-engine/internal/atomicfile"
	"upi-recon-engine/internal/models"
	"upi-recon-engine/internal/tablewrite"
	"upi-recon-engine/pkg/errors"
)

// TTUMCategories is the fixed category set of §4.6.
var TTUMCategories = []string{"DRC", "RRC", "TCC", "RET", "RECOVERY", "REFUND"}

var ttumHeaders = []string{
	"RRN", "UPI_Tran_ID", "Amount", "Tran_Date", "Direction", "TTUM_Type", "Exception_Type", "Category",
}

// ttumCategory assigns a record carrying TTUMRequired=true to one of the
// six §4.6 categories, following the same priority structure as the
// ANNEXURE_IV Flag derivation (§4.5) but over the TTUM category set.
func ttumCategory(r *models.Record) string {
	exc := string(r.ExceptionType)
	switch {
	case strings.Contains(exc, "RECOVERY"):
		return "RECOVERY"
	case strings.Contains(exc, "REFUND"):
		return "REFUND"
	case r.NPCI != nil && r.NPCI.RC.IsDeemed(), strings.Contains(exc, "TCC"):
		return "TCC"
	case strings.Contains(exc, "RET"), strings.Contains(exc, "RETURN"),
		strings.Contains(exc, "TIMEOUT"), strings.Contains(exc, "NPCI_FAILED"):
		return "RET"
	case strings.Contains(string(r.Status), "MISMATCH"), strings.Contains(string(r.Status), "PARTIAL"):
		return "RRC"
	default:
		return "DRC"
	}
}

// DownloadMeta is the persisted shape of ttum/download_meta.json, read by
// the Rollback Manager's ACCOUNTING precondition (§4.7).
type DownloadMeta struct {
	IsDownloaded bool      `json:"is_downloaded"`
	DownloadedAt time.Time `json:"downloaded_at"`
	DownloadedBy string    `json:"downloaded_by"`
}

// EmitTTUMFiles writes one CSV+XLSX twin per category under
// ttum/cycle_<id>/, selecting rows per the §4.3 decision rules (any record
// with TTUMRequired=true), and (re)initialises download_meta.json if it
// does not already exist.
func EmitTTUMFiles(ttumDir, cycleID string, records []*models.Record) error {
	cycleDir := filepath.Join(ttumDir, "cycle_"+cycleID)
	if err := os.MkdirAll(cycleDir, 0o755); err != nil {
		return errors.FileError(errors.CodeDirectoryError, cycleDir, err)
	}

	byCategory := make(map[string][][]string, len(TTUMCategories))
	for _, r := range records {
		if !r.TTUMRequired {
			continue
		}
		rep := r.AnySource()
		if rep == nil {
			continue
		}
		cat := ttumCategory(r)
		row := []string{
			rep.RRN, rep.UPITranID, rep.Amount.StringFixed(2), rep.TranDate.Format("2006-01-02"),
			string(r.Direction), string(r.TTUMType), string(r.ExceptionType), cat,
		}
		byCategory[cat] = append(byCategory[cat], row)
	}

	for _, cat := range TTUMCategories {
		if err := tablewrite.WriteTwin(tablewrite.BasePath(cycleDir, cat), ttumHeaders, byCategory[cat]); err != nil {
			return err
		}
	}

	metaPath := filepath.Join(ttumDir, "download_meta.json")
	if _, err := os.Stat(metaPath); os.IsNotExist(err) {
		return atomicfile.WriteJSON(metaPath, &DownloadMeta{})
	}
	return nil
}

// MarkDownloaded records that the TTUM output was downloaded, read back by
// the Rollback Manager before permitting an ACCOUNTING-level rollback.
func MarkDownloaded(ttumDir, downloadedBy string, at time.Time) error {
	metaPath := filepath.Join(ttumDir, "download_meta.json")
	meta := &DownloadMeta{IsDownloaded: true, DownloadedAt: at, DownloadedBy: downloadedBy}
	return atomicfile.WriteJSON(metaPath, meta)
}

// ReadDownloadMeta loads the current download_meta.json, if present.
func ReadDownloadMeta(ttumDir string) (*DownloadMeta, error) {
	metaPath := filepath.Join(ttumDir, "download_meta.json")
	meta := &DownloadMeta{}
	if err := atomicfile.ReadJSON(metaPath, meta); err != nil {
		return nil, err
	}
	return meta, nil
}
