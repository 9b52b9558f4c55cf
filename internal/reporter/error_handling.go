package reporter

import (
	"context"
	"time"

	"upi-recon-engine/internal/models"
	"upi-recon-engine/pkg/errors"
	"upi-recon-engine/pkg/logger"
)

// SafeEmitter wraps Emitter with input validation and structured
// logging around the emission call, matching the donor reporter's
// SafeReportGenerator discipline (validate, log start/end, wrap the
// underlying error with operation context).
type SafeEmitter struct {
	*Emitter
	logger logger.Logger
}

// NewSafeEmitter constructs a SafeEmitter. A nil logger falls back to the
// global logger, same as the donor's NewSafeReportGenerator.
func NewSafeEmitter(log logger.Logger) *SafeEmitter {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &SafeEmitter{
		Emitter: NewEmitter(),
		logger:  log.WithComponent("reporter.safe"),
	}
}

// EmitSafely validates inputs, emits the report set, and wraps any failure
// with reconciliation error context.
func (s *SafeEmitter) EmitSafely(ctx context.Context, reportsDir string, records []*models.Record, asOf time.Time) error {
	if err := s.validateInputs(reportsDir, records); err != nil {
		s.logger.WithError(err).Error("report emission input validation failed")
		return err
	}

	s.logger.WithField("reports_dir", reportsDir).Info("starting report emission")

	if err := s.Emit(ctx, reportsDir, records, asOf); err != nil {
		s.logger.WithError(err).Error("report emission failed")
		return s.wrapEmissionError(err)
	}

	s.logger.Info("report emission completed")
	return nil
}

func (s *SafeEmitter) validateInputs(reportsDir string, records []*models.Record) error {
	if reportsDir == "" {
		return errors.ValidationError(errors.CodeMissingField, "reports_dir", "", nil).
			WithSuggestion("provide an output directory for reports")
	}
	if records == nil {
		return errors.ValidationError(errors.CodeMissingField, "records", nil, nil).
			WithSuggestion("provide the reconciliation result's record set, even if empty")
	}
	return nil
}

func (s *SafeEmitter) wrapEmissionError(err error) error {
	if reconcilerErr, ok := errors.AsReconcilerError(err); ok {
		return reconcilerErr
	}
	return errors.InternalError(errors.CodeProcessingError, "report_emission", err).
		WithSuggestion("check the output directory and disk space, then retry")
}
