// Package reconciler provides high-level orchestration for the
// reconciliation process: it drives one cycle end to end — parsing the
// five source file types, running the matching engine, persisting the
// carry-over and final records, emitting reports, and generating
// settlement/GL artefacts — coordinating internal/parsers,
// internal/normalizer, internal/matcher, internal/reporter,
// internal/settlement, internal/lookup, and internal/audit the way the
// donor's ReconciliationService coordinated its own parser/matcher pair.
package reconciler

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"upi-recon-engine/internal/audit"
	"upi-recon-engine/internal/lookup"
	"upi-recon-engine/internal/matcher"
	"upi-recon-engine/internal/models"
	"upi-recon-engine/internal/parsers"
	"upi-recon-engine/internal/reporter"
	"upi-recon-engine/internal/settlement"
	"upi-recon-engine/pkg/logger"
)

// Config holds the orchestration-level settings that are not already
// owned by matcher.Config (tolerances, cut-off) — the paths each cycle
// reads from and writes under, and the audit trail's rotation threshold.
type Config struct {
	OutputRoot             string
	SourceSystem           string
	MaxAuditEntriesPerFile int
}

// DefaultConfig returns sensible defaults for everything Config does not
// require the caller to set explicitly.
func DefaultConfig() *Config {
	return &Config{
		SourceSystem:           "reconciler",
		MaxAuditEntriesPerFile: audit.DefaultMaxEntriesPerFile,
	}
}

// Validate checks the fields ProcessCycle cannot run without.
func (c *Config) Validate() error {
	if c.OutputRoot == "" {
		return fmt.Errorf("output root is required")
	}
	return nil
}

// CycleRequest describes one reconciliation cycle's inputs.
type CycleRequest struct {
	RunID   string
	CycleID string // one of "1C".."10C"
	UserID  string

	CBSFiles    []string
	SwitchFiles []string
	NPCIFiles   []string
	NTSLFiles   []string
	Adjustments []string // adjustment input files, consumed by Step 0
}

// Validate checks the request has enough to run a cycle.
func (r *CycleRequest) Validate() error {
	if r.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if r.CycleID == "" {
		return fmt.Errorf("cycle id is required")
	}
	if len(r.CBSFiles) == 0 && len(r.SwitchFiles) == 0 && len(r.NPCIFiles) == 0 && len(r.NTSLFiles) == 0 {
		return fmt.Errorf("at least one source file is required")
	}
	return nil
}

// CycleResult summarises one ProcessCycle call.
type CycleResult struct {
	RunID           string
	CycleID         string
	Records         []*models.Record
	Vouchers        []*models.Voucher
	MatchedCount    int
	ExceptionCount  int
	TTUMCount       int
	ProcessedAt     time.Time
	Duration        time.Duration
}

// Service ties the per-cycle pipeline together, holding the dependencies
// that don't change between cycles (config, matching tunables, reader,
// logger); the audit trail is built per cycle in ProcessCycle. Generalises the donor's ReconciliationService, which held
// a transaction parser, bank statement parser, and matching engine
// assembled once at construction time.
type Service struct {
	cfg         *Config
	matchConfig *matcher.Config
	reader      *parsers.Reader
	logger      logger.Logger
}

// NewService constructs a Service. matchConfig may be nil (resolves to
// matcher.DefaultConfig()).
func NewService(cfg *Config, matchConfig *matcher.Config) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if matchConfig == nil {
		matchConfig = matcher.DefaultConfig()
	}
	if err := matchConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matching configuration: %w", err)
	}
	return &Service{
		cfg:         cfg,
		matchConfig: matchConfig,
		reader:      parsers.NewReader(parsers.DefaultReaderConfig()),
		logger:      logger.GetGlobalLogger().WithComponent("reconciler"),
	}, nil
}

func (s *Service) runDir(runID string) string {
	return filepath.Join(s.cfg.OutputRoot, runID)
}

// ProcessCycle runs one cycle end to end: parse -> match -> persist
// carry-over and records -> emit reports -> generate settlement artefacts
// -> record an audit trail entry. ctx.Err() is checked at each phase
// boundary. A cancel seen while parsing or matching aborts before any
// cycle output is written (the audit trail still records CYCLE_START and
// CYCLE_FAILED); a cancel seen after matching aborts with
// hanging_state.json, recon_output.json and any reports already emitted
// left in place.
func (s *Service) ProcessCycle(ctx context.Context, req *CycleRequest) (*CycleResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	start := time.Now()
	runDir := s.runDir(req.RunID)
	trail := audit.NewTrail(filepath.Join(runDir, "audit_logs"), s.cfg.MaxAuditEntriesPerFile, s.cfg.SourceSystem, s.logger)

	if _, err := trail.Record("CYCLE_START", req.RunID, req.UserID, logger.InfoLevel, map[string]interface{}{"cycle_id": req.CycleID}); err != nil {
		s.logger.WithError(err).Warn("failed to record cycle start audit event")
	}

	result, err := s.runCycle(ctx, req, runDir)
	if err != nil {
		if _, auditErr := trail.Record("CYCLE_FAILED", req.RunID, req.UserID, logger.ErrorLevel, map[string]interface{}{"cycle_id": req.CycleID, "error": err.Error()}); auditErr != nil {
			s.logger.WithError(auditErr).Warn("failed to record cycle failure audit event")
		}
		return nil, err
	}

	result.ProcessedAt = start
	result.Duration = time.Since(start)
	if _, err := trail.Record("CYCLE_COMPLETE", req.RunID, req.UserID, logger.InfoLevel, map[string]interface{}{
		"cycle_id": req.CycleID, "matched": result.MatchedCount, "exceptions": result.ExceptionCount,
	}); err != nil {
		s.logger.WithError(err).Warn("failed to record cycle completion audit event")
	}
	return result, nil
}

func (s *Service) runCycle(ctx context.Context, req *CycleRequest, runDir string) (*CycleResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cbs, err := s.parseSources(ctx, req.CBSFiles, models.SourceCBS)
	if err != nil {
		return nil, err
	}
	sw, err := s.parseSources(ctx, req.SwitchFiles, models.SourceSwitch)
	if err != nil {
		return nil, err
	}
	npci, err := s.parseSources(ctx, req.NPCIFiles, models.SourceNPCI)
	if err != nil {
		return nil, err
	}
	ntsl, err := s.parseSources(ctx, req.NTSLFiles, models.SourceNTSL)
	if err != nil {
		return nil, err
	}
	adjustments, err := s.parseAdjustments(ctx, req.Adjustments)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	carryOver, err := loadCarryOverState(runDir)
	if err != nil {
		return nil, err
	}

	engine := matcher.NewEngine(s.matchConfig, req.CycleID, cbs, sw, npci, ntsl, adjustments, carryOver)
	matchResult, err := engine.Reconcile(ctx)
	if err != nil {
		return nil, err
	}

	if err := saveCarryOverState(runDir, matchResult.NextCarryOver); err != nil {
		return nil, err
	}

	svc := lookup.NewService()
	for _, rec := range matchResult.Records {
		svc.Set(rec.Key, rec)
	}
	if err := svc.Persist(runDir); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	emitter := reporter.NewSafeEmitter(s.logger)
	if err := emitter.EmitSafely(ctx, filepath.Join(runDir, "reports", "cycle_"+req.CycleID), matchResult.Records, time.Now()); err != nil {
		return nil, err
	}
	vouchers, err := s.emitAccountingArtefacts(runDir, req.CycleID, matchResult.Records)
	if err != nil {
		return nil, err
	}

	return summarizeCycle(req, matchResult.Records, vouchers), nil
}

func (s *Service) emitAccountingArtefacts(runDir, cycleID string, records []*models.Record) ([]*models.Voucher, error) {
	vouchers, err := settlement.CreateVouchers(records)
	if err != nil {
		return nil, err
	}
	settlement.PostVouchers(vouchers)
	if err := settlement.WriteGLStatement(filepath.Join(runDir, "gl_statement"), vouchers); err != nil {
		return nil, err
	}
	if err := saveAccountingOutput(runDir, vouchers); err != nil {
		return nil, err
	}
	if err := settlement.EmitTTUMFiles(filepath.Join(runDir, "ttum"), cycleID, records); err != nil {
		return nil, err
	}
	return vouchers, nil
}

func summarizeCycle(req *CycleRequest, records []*models.Record, vouchers []*models.Voucher) *CycleResult {
	matched, exceptions, ttum := 0, 0, 0
	for _, r := range records {
		if r.Status == models.StatusMatched || r.Status == models.StatusForceMatched {
			matched++
		}
		if r.ExceptionType != "" {
			exceptions++
		}
		if r.TTUMRequired {
			ttum++
		}
	}
	return &CycleResult{
		RunID:          req.RunID,
		CycleID:        req.CycleID,
		Records:        records,
		Vouchers:       vouchers,
		MatchedCount:   matched,
		ExceptionCount: exceptions,
		TTUMCount:      ttum,
	}
}
