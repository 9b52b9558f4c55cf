package rollback

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"upi-recon-engine/internal/models"
	"upi-recon-engine/internal/settlement"
	"upi-recon-engine/pkg/errors"
	"upi-recon-engine/pkg/logger"
)

var cycleIDPattern = regexp.MustCompile(`^([1-9]|10)C$`)

// Manager implements the five rollback levels of §4.7. outputRoot is the
// directory that holds every run's subdirectory plus the shared
// rollback_history.json and per-run lock files.
type Manager struct {
	outputRoot string
	logger     logger.Logger
}

// NewManager constructs a Manager, threading the logger in explicitly per
// the donor's NewX(cfg, logger) constructor convention.
func NewManager(outputRoot string, log logger.Logger) *Manager {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Manager{outputRoot: outputRoot, logger: log.WithComponent("rollback")}
}

// Execute runs one rollback lifecycle: acquire lock, validate pre-state,
// snapshot, mutate atomically, update status, release. Once the history
// Entry exists it is returned, also on failure, so callers can inspect
// BackupPath/Detail; failures before that point (a cancelled context, the
// lock, pre-state validation, loading or saving history) return a nil
// Entry.
func (m *Manager) Execute(ctx context.Context, req Request) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.RunID == "" {
		return nil, errors.ValidationError(errors.CodeMissingField, "run_id", req.RunID, nil)
	}
	runDir := filepath.Join(m.outputRoot, req.RunID)

	lock := newRunLock(m.outputRoot, req.RunID)
	if err := lock.Acquire(); err != nil {
		return nil, err
	}
	defer lock.Release()

	if err := m.validatePreState(req, runDir); err != nil {
		return nil, err
	}

	now := time.Now()
	hist, err := loadHistory(m.outputRoot)
	if err != nil {
		return nil, err
	}
	id := nextRollbackID(hist, req.Level, now)
	entry := &Entry{RollbackID: id, Level: req.Level, RunID: req.RunID, Status: StatusPending, Reason: req.Reason, StartedAt: now}
	hist.Entries = append(hist.Entries, entry)
	if err := saveHistory(m.outputRoot, hist); err != nil {
		return nil, err
	}

	if err := updateEntry(m.outputRoot, id, func(e *Entry) { e.Status = StatusInProgress }); err != nil {
		return entry, err
	}
	entry.Status = StatusInProgress
	m.logger.WithField("rollback_id", id).Infof("starting %s rollback for run %s", req.Level, req.RunID)

	if err := ctx.Err(); err != nil {
		_ = updateEntry(m.outputRoot, id, func(e *Entry) { e.Status = StatusFailed; e.FinishedAt = time.Now(); e.Detail = err.Error() })
		entry.Status = StatusFailed
		return entry, err
	}

	detail, backupPath, mutErr := m.mutate(req, runDir, id, now)
	finish := time.Now()
	if mutErr != nil {
		_ = updateEntry(m.outputRoot, id, func(e *Entry) {
			e.Status = StatusFailed
			e.FinishedAt = finish
			e.Detail = mutErr.Error()
			e.BackupPath = backupPath
		})
		entry.Status = StatusFailed
		entry.FinishedAt = finish
		entry.Detail = mutErr.Error()
		entry.BackupPath = backupPath
		m.logger.WithError(mutErr).WithField("rollback_id", id).Error("rollback failed, backup preserved")
		return entry, mutErr
	}

	_ = updateEntry(m.outputRoot, id, func(e *Entry) {
		e.Status = StatusCompleted
		e.FinishedAt = finish
		e.Detail = detail
		e.BackupPath = backupPath
	})
	entry.Status = StatusCompleted
	entry.FinishedAt = finish
	entry.Detail = detail
	entry.BackupPath = backupPath
	m.logger.WithField("rollback_id", id).Info("rollback completed: " + detail)
	return entry, nil
}

func (m *Manager) validatePreState(req Request, runDir string) error {
	switch req.Level {
	case LevelWholeProcess:
		if !pathExists(runDir) {
			return errors.RollbackError(errors.CodePreconditionFailed, req.RunID, string(req.Level), nil).
				WithSuggestion("run directory does not exist")
		}
		if req.Reason == "" {
			return errors.ValidationError(errors.CodeMissingField, "reason", req.Reason, nil).
				WithSuggestion("WHOLE_PROCESS rollback requires an explicit reason")
		}
		if !req.Confirm {
			return errors.RollbackError(errors.CodePreconditionFailed, req.RunID, string(req.Level), nil).
				WithSuggestion("WHOLE_PROCESS rollback requires explicit confirmation")
		}
	case LevelIngestion:
		if req.FileName == "" {
			return errors.ValidationError(errors.CodeMissingField, "file_name", req.FileName, nil)
		}
	case LevelMidRecon:
		if !pathExists(reconOutputPath(runDir)) {
			return errors.RollbackError(errors.CodePreconditionFailed, req.RunID, string(req.Level), nil).
				WithSuggestion("recon_output.json does not exist for this run")
		}
	case LevelCycleWise:
		if !pathExists(reconOutputPath(runDir)) {
			return errors.RollbackError(errors.CodePreconditionFailed, req.RunID, string(req.Level), nil).
				WithSuggestion("recon_output.json does not exist for this run")
		}
		if !cycleIDPattern.MatchString(req.CycleID) {
			return errors.ValidationError(errors.CodeInvalidData, "cycle_id", req.CycleID, nil)
		}
	case LevelAccounting:
		if !pathExists(accountingOutputPath(runDir)) {
			return errors.RollbackError(errors.CodePreconditionFailed, req.RunID, string(req.Level), nil).
				WithSuggestion("accounting_output.json does not exist for this run")
		}
		meta, err := settlement.ReadDownloadMeta(filepath.Join(runDir, "ttum"))
		if err == nil && meta.IsDownloaded {
			return errors.RollbackError(errors.CodePreconditionFailed, req.RunID, string(req.Level), nil).
				WithSuggestion("TTUM output has already been downloaded; accounting rollback is no longer safe")
		}
	default:
		return errors.ValidationError(errors.CodeInvalidData, "level", string(req.Level), nil)
	}
	return nil
}

func (m *Manager) mutate(req Request, runDir, id string, now time.Time) (detail, backupPath string, err error) {
	switch req.Level {
	case LevelWholeProcess:
		return m.mutateWholeProcess(req, runDir, now)
	case LevelIngestion:
		return m.mutateIngestion(req, runDir)
	case LevelMidRecon:
		return m.mutateMidRecon(req, runDir, id, now)
	case LevelCycleWise:
		return m.mutateCycleWise(req, runDir, id, now)
	case LevelAccounting:
		return m.mutateAccounting(req, runDir, id, now)
	default:
		return "", "", fmt.Errorf("unknown rollback level %s", req.Level)
	}
}

func (m *Manager) mutateWholeProcess(req Request, runDir string, now time.Time) (string, string, error) {
	backupPath := filepath.Join(m.outputRoot, "backups", req.RunID+"_"+now.Format("20060102T150405"))
	if err := copyTree(runDir, backupPath); err != nil {
		return "", "", err
	}
	if err := os.RemoveAll(runDir); err != nil {
		return "", backupPath, errors.FileError(errors.CodeDirectoryError, runDir, err)
	}
	return "output tree backed up and deleted; run metadata reset", backupPath, nil
}

func (m *Manager) mutateIngestion(req Request, runDir string) (string, string, error) {
	files, err := loadUploadedFiles(runDir)
	if err != nil {
		return "", "", err
	}
	target := filepath.Join(runDir, req.FileName)
	if pathExists(target) {
		if err := os.Remove(target); err != nil {
			return "", "", errors.FileError(errors.CodeDirectoryError, target, err)
		}
	}
	if err := saveUploadedFiles(runDir, removeFromList(files, req.FileName)); err != nil {
		return "", "", err
	}
	return fmt.Sprintf("removed %s from run folder and uploaded-files list", req.FileName), "", nil
}

func (m *Manager) mutateMidRecon(req Request, runDir, id string, now time.Time) (string, string, error) {
	records, err := loadReconOutput(runDir)
	if err != nil {
		return "", "", err
	}
	targets := toSet(req.RRNs)
	flipped := 0
	for rrn, rec := range records {
		if len(targets) > 0 && !targets[rrn] {
			continue
		}
		if rec.Status != models.StatusMatched {
			continue
		}
		rec.Snapshot(id, now)
		rec.Status = models.StatusOrphan
		flipped++
	}
	if err := saveReconOutput(runDir, records); err != nil {
		return "", "", err
	}
	return fmt.Sprintf("%d matched record(s) flipped to ORPHAN", flipped), "", nil
}

func (m *Manager) mutateCycleWise(req Request, runDir, id string, now time.Time) (string, string, error) {
	records, err := loadReconOutput(runDir)
	if err != nil {
		return "", "", err
	}
	flipped := 0
	for _, rec := range records {
		if rec.CycleID != req.CycleID || rec.Status != models.StatusMatched {
			continue
		}
		rec.Snapshot(id, now)
		rec.Status = models.StatusOrphan
		flipped++
	}
	if err := saveReconOutput(runDir, records); err != nil {
		return "", "", err
	}
	for _, sub := range []string{"reports", "ttum", "annexure", "audit"} {
		_ = os.RemoveAll(filepath.Join(runDir, sub, "cycle_"+req.CycleID))
	}
	return fmt.Sprintf("%d matched record(s) in cycle %s flipped to ORPHAN; cycle artefacts deleted", flipped, req.CycleID), "", nil
}

func (m *Manager) mutateAccounting(req Request, runDir, id string, now time.Time) (string, string, error) {
	vouchers, err := loadAccountingOutput(runDir)
	if err != nil {
		return "", "", err
	}
	flipped := 0
	for _, v := range vouchers {
		if v.Status != models.VoucherGenerated {
			continue
		}
		v.RollbackMetadata = append(v.RollbackMetadata, models.VoucherRollbackSnapshot{
			RollbackID:     id,
			Timestamp:      now,
			PriorStatus:    v.Status,
			PriorGLEntries: v.GLEntries,
		})
		v.Status = models.VoucherPending
		v.GLEntries = nil
		flipped++
	}
	if err := saveAccountingOutput(runDir, vouchers); err != nil {
		return "", "", err
	}
	return fmt.Sprintf("%d generated voucher(s) reverted to PENDING", flipped), "", nil
}

func toSet(items []string) map[string]bool {
	if len(items) == 0 {
		return nil
	}
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}
