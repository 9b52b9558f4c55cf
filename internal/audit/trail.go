package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"upi-recon-engine/internal/atomicfile"
	"upi-recon-engine/pkg/logger"

	"github.com/google/uuid"
)

// DefaultMaxEntriesPerFile is the §6.4 max_audit_entries_per_file default.
const DefaultMaxEntriesPerFile = 10000

// Trail is the audit log for one run's audit_logs directory.
type Trail struct {
	dir          string
	maxPerFile   int
	sourceSystem string
	logger       logger.Logger
}

// NewTrail constructs a Trail writing into dir (typically <run>/audit_logs).
// maxPerFile <= 0 resolves to DefaultMaxEntriesPerFile.
func NewTrail(dir string, maxPerFile int, sourceSystem string, log logger.Logger) *Trail {
	if maxPerFile <= 0 {
		maxPerFile = DefaultMaxEntriesPerFile
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Trail{dir: dir, maxPerFile: maxPerFile, sourceSystem: sourceSystem, logger: log.WithComponent("audit")}
}

func (t *Trail) activePath(now time.Time) string {
	return filepath.Join(t.dir, "audit_trail_"+now.Format("20060102")+".json")
}

// Record appends a new Event to today's active log file, sealing the
// current file first if it has reached the configured entry cap.
func (t *Trail) Record(action, runID, userID string, level logger.Level, details map[string]interface{}) (*Event, error) {
	now := time.Now()
	ev := &Event{
		AuditID:      uuid.NewString(),
		Action:       action,
		RunID:        runID,
		UserID:       userID,
		Level:        level,
		Timestamp:    now,
		Details:      details,
		SourceSystem: t.sourceSystem,
	}

	path := t.activePath(now)
	log, err := t.loadLog(path)
	if err != nil {
		return nil, err
	}
	if len(log.Entries) >= t.maxPerFile {
		if err := t.seal(path, now); err != nil {
			return nil, err
		}
		log = &dayLog{}
	}
	log.Entries = append(log.Entries, ev)
	if err := atomicfile.WriteJSON(path, log); err != nil {
		return nil, err
	}
	t.logger.WithField("audit_id", ev.AuditID).WithField("action", action).Debug("audit event recorded")
	return ev, nil
}

// seal renames the current active file, appending a time-of-day suffix, so
// a fresh file can start accumulating entries for the rest of the same day.
func (t *Trail) seal(path string, now time.Time) error {
	sealed := strings.TrimSuffix(path, ".json") + "_" + now.Format("150405") + ".json"
	return os.Rename(path, sealed)
}

func (t *Trail) loadLog(path string) (*dayLog, error) {
	log := &dayLog{}
	if err := atomicfile.ReadJSON(path, log); err != nil {
		if os.IsNotExist(err) {
			return &dayLog{}, nil
		}
		return nil, err
	}
	return log, nil
}

// dayFiles returns every audit_trail_*.json file in t.dir, active and sealed.
func (t *Trail) dayFiles() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(t.dir, "audit_trail_*.json"))
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Query returns every recorded Event matching filter, across all day files
// (active and sealed), ordered by timestamp.
func (t *Trail) Query(filter Filter) ([]*Event, error) {
	files, err := t.dayFiles()
	if err != nil {
		return nil, err
	}
	var out []*Event
	for _, f := range files {
		log, err := t.loadLog(f)
		if err != nil {
			return nil, err
		}
		for _, e := range log.Entries {
			if filter.matches(e) {
				out = append(out, e)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// Resolve marks the entry identified by auditID as resolved=true in place,
// via a read-modify-atomic-rewrite of whichever day file holds it. Every
// other field of the entry, and every other entry, is left untouched.
func (t *Trail) Resolve(auditID string) error {
	files, err := t.dayFiles()
	if err != nil {
		return err
	}
	for _, f := range files {
		log, err := t.loadLog(f)
		if err != nil {
			return err
		}
		for _, e := range log.Entries {
			if e.AuditID == auditID {
				e.Resolved = true
				return atomicfile.WriteJSON(f, log)
			}
		}
	}
	return fmt.Errorf("audit entry %s not found", auditID)
}
