package rollback

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"upi-recon-engine/internal/atomicfile"
)

func historyPath(outputDir string) string {
	return filepath.Join(outputDir, "rollback_history.json")
}

func loadHistory(outputDir string) (*History, error) {
	h := &History{}
	if err := atomicfile.ReadJSON(historyPath(outputDir), h); err != nil {
		if os.IsNotExist(err) {
			return h, nil
		}
		return nil, err
	}
	return h, nil
}

func saveHistory(outputDir string, h *History) error {
	return atomicfile.WriteJSON(historyPath(outputDir), h)
}

// nextRollbackID allocates RB_<LEVEL_SHORT>_<SEQ>_<MMDD>, SEQ being the
// count of prior entries at this level plus one.
func nextRollbackID(h *History, level Level, now time.Time) string {
	seq := 1
	for _, e := range h.Entries {
		if e.Level == level {
			seq++
		}
	}
	return fmt.Sprintf("RB_%s_%d_%s", level.shortCode(), seq, now.Format("0102"))
}

// appendEntry records e in outputDir's rollback_history.json.
func appendEntry(outputDir string, e *Entry) error {
	h, err := loadHistory(outputDir)
	if err != nil {
		return err
	}
	h.Entries = append(h.Entries, e)
	return saveHistory(outputDir, h)
}

// updateEntry rewrites the entry matching rollbackID in place (status/finish
// time/detail transitions only — history is otherwise append-only).
func updateEntry(outputDir, rollbackID string, mutate func(*Entry)) error {
	h, err := loadHistory(outputDir)
	if err != nil {
		return err
	}
	for _, e := range h.Entries {
		if e.RollbackID == rollbackID {
			mutate(e)
			return saveHistory(outputDir, h)
		}
	}
	return fmt.Errorf("rollback entry %s not found", rollbackID)
}
