package reporter

import (
	"context"
	"os"
	"time"

	"upi-recon-engine/internal/models"
	"upi-recon-engine/pkg/errors"
	"upi-recon-engine/pkg/logger"
)

// Emitter writes the §4.5 report set for a finalised reconciliation result.
// It generalises the donor reporter's ReportGenerator from a single
// matched/unmatched transaction-vs-statement comparison to the five-file,
// direction-split, CSV+XLSX-twin report set this specification requires.
type Emitter struct {
	logger logger.Logger
}

// NewEmitter constructs an Emitter.
func NewEmitter() *Emitter {
	return &Emitter{logger: logger.GetGlobalLogger().WithComponent("reporter")}
}

// Emit writes every §4.5 report under reportsDir: the three pairwise
// match reports, the unmatched ageing report, the hanging report, and the
// two ANNEXURE_IV files, each as a CSV+XLSX twin. asOf is the reference
// time for ageing buckets (normally time.Now(), passed in so callers keep
// control of wall-clock dependence).
func (e *Emitter) Emit(ctx context.Context, reportsDir string, records []*models.Record, asOf time.Time) error {
	if err := ctx.Err(); err != nil {
		return errors.ReconciliationError(errors.CodeProcessingError, "reporter.emit", err)
	}
	if err := os.MkdirAll(reportsDir, 0o755); err != nil {
		return errors.FileError(errors.CodeDirectoryError, reportsDir, err)
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"pairwise", func() error { return emitPairwiseReports(reportsDir, records) }},
		{"ageing", func() error { return emitAgeingReports(reportsDir, records, asOf) }},
		{"hanging", func() error { return emitHangingReports(reportsDir, records) }},
		{"annexure", func() error { return emitAnnexureReports(reportsDir, records, asOf) }},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return errors.ReconciliationError(errors.CodeProcessingError, "reporter.emit", err)
		}
		if err := step.fn(); err != nil {
			e.logger.WithField("report", step.name).WithError(err).Error("report emission failed")
			return err
		}
	}

	e.logger.WithField("count", len(records)).Info("reports emitted")
	return nil
}
