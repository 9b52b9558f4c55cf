package matcher

import (
	"context"
	"time"

	"upi-recon-engine/internal/models"
	reconerrors "upi-recon-engine/pkg/errors"
	"upi-recon-engine/pkg/logger"

	"github.com/shopspring/decimal"
)

// Engine runs the eight ordered matching steps across the CBS, Switch,
// NPCI, and NTSL arenas for one reconciliation cycle, generalising the
// donor's single confidence-scored MatchingEngine.Reconcile() pass into a
// deterministic classifier (§4.2).
type Engine struct {
	Config *Config
	CycleID string

	CBS    *Arena
	Switch *Arena
	NPCI   *Arena
	NTSL   *Arena

	Adjustments []models.AdjustmentRow
	CarryOver   *models.CarryOverState

	logger logger.Logger
}

// NewEngine constructs an Engine with the given cycle ID and source rows.
// Each arena's insertion order is the order rows appear in the argument
// slice, which must match the order rows were read from their input file.
func NewEngine(cfg *Config, cycleID string, cbs, sw, npci, ntsl []models.Transaction, adjustments []models.AdjustmentRow, carryOver *models.CarryOverState) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if carryOver == nil {
		carryOver = &models.CarryOverState{}
	}
	return &Engine{
		Config:      cfg,
		CycleID:     cycleID,
		CBS:         NewArena(models.SourceCBS, cbs),
		Switch:      NewArena(models.SourceSwitch, sw),
		NPCI:        NewArena(models.SourceNPCI, npci),
		NTSL:        NewArena(models.SourceNTSL, ntsl),
		Adjustments: adjustments,
		CarryOver:   carryOver,
		logger:      logger.GetGlobalLogger().WithComponent("matcher"),
	}
}

// Result is the outcome of one cycle's Reconcile call: the finalised
// cross-source records and the carry-over state to persist for the next
// cycle (§4.4).
type Result struct {
	Records       []*models.Record
	NextCarryOver *models.CarryOverState
}

// Reconcile runs the eight steps in their fixed order, then the
// carry-over interaction, then assembles final cross-source records.
// Each step is side-effect only on the arenas; a step that cannot proceed
// returns a ReconciliationError and no partial arena state is surfaced
// (the caller discards the Engine on error, §4.2 Failure semantics).
func (e *Engine) Reconcile(ctx context.Context) (*Result, error) {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"step0_adjustments", e.step0Adjustments},
		{"step1_cutoff", e.step1CutOff},
		{"step2_self_match", e.step2SelfMatch},
		{"step3_settlement_lumps", e.step3SettlementLumps},
		{"step4_double_debit_credit", e.step4DoubleDebitCredit},
		{"step5_three_way_match", e.step5ThreeWayMatch},
		{"step6_deemed_accepted", e.step6DeemedAccepted},
		{"step7_npci_declines", e.step7NPCIDeclines},
		{"step8_failed_auto_reversal", e.step8FailedAutoReversal},
	}

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return nil, reconerrors.ReconciliationError(reconerrors.CodeMatchingFailed, s.name, err)
		}
		if err := s.fn(ctx); err != nil {
			return nil, reconerrors.ReconciliationError(reconerrors.CodeMatchingFailed, s.name, err)
		}
	}

	nextCarryOver, err := e.resolveCarryOver()
	if err != nil {
		return nil, reconerrors.ReconciliationError(reconerrors.CodeMatchingFailed, "carry_over", err)
	}

	records := e.applyExceptionMatrixAndAssemble()

	return &Result{Records: records, NextCarryOver: nextCarryOver}, nil
}

// --- Step 0: Adjustment pre-pass -------------------------------------------------

func (e *Engine) step0Adjustments(ctx context.Context) error {
	for _, adj := range e.Adjustments {
		switch adj.Type {
		case models.AdjustmentForceMatch:
			e.markAllSourcesByRRN(adj.RRN, models.StatusForceMatched, models.ExceptionAdjustmentForce)
		case models.AdjustmentAmountCorrection:
			for _, idx := range e.CBS.ByRRN(adj.RRN) {
				e.CBS.SetAmount(idx, adj.Amount)
			}
			for _, idx := range e.Switch.ByRRN(adj.RRN) {
				e.Switch.SetAmount(idx, adj.Amount)
			}
			for _, idx := range e.NPCI.ByRRN(adj.RRN) {
				e.NPCI.SetAmount(idx, adj.Amount)
			}
		case models.AdjustmentStatusOverride:
			e.markAllSourcesByRRN(adj.RRN, adj.Status, models.ExceptionNone)
		}
	}
	return nil
}

func (e *Engine) markAllSourcesByRRN(rrn string, status models.Status, exceptionType models.ExceptionType) {
	for _, idx := range e.CBS.ByRRN(rrn) {
		e.CBS.Mark(idx, status, exceptionType)
	}
	for _, idx := range e.Switch.ByRRN(rrn) {
		e.Switch.Mark(idx, status, exceptionType)
	}
	for _, idx := range e.NPCI.ByRRN(rrn) {
		e.NPCI.Mark(idx, status, exceptionType)
	}
}

// --- Step 1: Cut-off detection ---------------------------------------------------

func (e *Engine) step1CutOff(ctx context.Context) error {
	for _, idx := range e.NPCI.UnprocessedIndices() {
		npciRow := e.NPCI.Rows[idx]

		if e.Config.IsCutOff(npciRow.TranTime) {
			e.NPCI.Mark(idx, models.StatusHanging, models.ExceptionCutOff)
			continue
		}

		if e.hasAmountMismatchCandidate(e.CBS, npciRow) || e.hasAmountMismatchCandidate(e.Switch, npciRow) {
			e.NPCI.Mark(idx, models.StatusHanging, models.ExceptionCutOff)
		}
	}

	for _, idx := range e.Switch.UnprocessedIndices() {
		row := e.Switch.Rows[idx]
		if row.RRN == "" {
			continue
		}
		if len(e.NPCI.ByRRN(row.RRN)) == 0 {
			e.Switch.Mark(idx, models.StatusHanging, models.ExceptionSwitchOnly)
		}
	}
	return nil
}

// hasAmountMismatchCandidate looks for an unprocessed row in arena with
// the same RRN and a date within ±1 day whose amount differs by more than
// 0.01 from npciRow's amount.
func (e *Engine) hasAmountMismatchCandidate(arena *Arena, npciRow models.Transaction) bool {
	for _, idx := range arena.ByRRN(npciRow.RRN) {
		if arena.IsProcessed(idx) {
			continue
		}
		row := arena.Rows[idx]
		if !withinDays(row.TranDate, npciRow.TranDate, 1) {
			continue
		}
		if absDiff(row.Amount, npciRow.Amount) > 0.01 {
			return true
		}
	}
	return false
}

// --- Step 2: Self-match ----------------------------------------------------------

func (e *Engine) step2SelfMatch(ctx context.Context) error {
	for _, arena := range []*Arena{e.CBS, e.Switch, e.NPCI, e.NTSL} {
		e.selfMatchWithinArena(arena)
	}
	return nil
}

func (e *Engine) selfMatchWithinArena(arena *Arena) {
	type groupKey struct {
		upiID  string
		rrn    string
		date   string
		amount string
	}
	groups := make(map[groupKey][]int)
	for i, row := range arena.Rows {
		if arena.IsProcessed(i) {
			continue
		}
		k := groupKey{row.UPITranID, row.RRN, row.TranDate.Format("2006-01-02"), row.Amount.StringFixed(2)}
		groups[k] = append(groups[k], i)
	}
	for _, idxs := range groups {
		if len(idxs) != 2 {
			continue
		}
		a, b := arena.Rows[idxs[0]], arena.Rows[idxs[1]]
		if oppositeSign(a.DrCr, b.DrCr) {
			arena.Mark(idxs[0], models.StatusMatched, models.ExceptionSelfMatched)
			arena.Mark(idxs[1], models.StatusMatched, models.ExceptionSelfMatched)
		}
	}
}

func oppositeSign(a, b models.DrCr) bool {
	return (a == models.DrCrDebit && b == models.DrCrCredit) || (a == models.DrCrCredit && b == models.DrCrDebit)
}

// --- Step 3: Settlement lumps -----------------------------------------------------

func (e *Engine) step3SettlementLumps(ctx context.Context) error {
	candidates := make([]int, 0)
	for _, idx := range e.CBS.UnprocessedIndices() {
		row := e.CBS.Rows[idx]
		if row.RRN == "" && row.Amount.GreaterThan(decimal.NewFromFloat(e.Config.SettlementLumpThreshold)) {
			candidates = append(candidates, idx)
		}
	}
	used := make(map[int]bool)
	for i := 0; i < len(candidates); i++ {
		if used[candidates[i]] {
			continue
		}
		for j := i + 1; j < len(candidates); j++ {
			if used[candidates[j]] {
				continue
			}
			a, b := e.CBS.Rows[candidates[i]], e.CBS.Rows[candidates[j]]
			if a.Amount.Equal(b.Amount) && oppositeSign(a.DrCr, b.DrCr) {
				e.CBS.Mark(candidates[i], models.StatusMatched, models.ExceptionSettlementEntry)
				e.CBS.Mark(candidates[j], models.StatusMatched, models.ExceptionSettlementEntry)
				used[candidates[i]] = true
				used[candidates[j]] = true
				break
			}
		}
	}
	return nil
}

// --- Step 4: Double debit/credit --------------------------------------------------

func (e *Engine) step4DoubleDebitCredit(ctx context.Context) error {
	type rowRef struct {
		arena *Arena
		idx   int
	}
	type groupKey struct {
		arena *Arena
		rrn   string
	}
	groups := make(map[groupKey][]rowRef)
	for _, arena := range []*Arena{e.CBS, e.Switch} {
		for _, idx := range arena.UnprocessedIndices() {
			rrn := arena.Rows[idx].RRN
			if rrn == "" {
				continue
			}
			key := groupKey{arena, rrn}
			groups[key] = append(groups[key], rowRef{arena, idx})
		}
	}

	for _, refs := range groups {
		if len(refs) == 2 {
			a, b := e.rowOf(refs[0]), e.rowOf(refs[1])
			if oppositeSign(a.DrCr, b.DrCr) {
				refs[0].arena.Mark(refs[0].idx, models.StatusMatched, models.ExceptionSelfMatched)
				refs[1].arena.Mark(refs[1].idx, models.StatusMatched, models.ExceptionSelfMatched)
				continue
			}
		}
		if len(refs) < 2 {
			continue
		}
		hasDebit, hasCredit := false, false
		for _, ref := range refs {
			switch e.rowOf(ref).DrCr {
			case models.DrCrDebit:
				hasDebit = true
			case models.DrCrCredit:
				hasCredit = true
			}
		}
		ttumType := models.TTUMInvestigation
		if hasDebit && hasCredit {
			ttumType = models.TTUMReversal
		}
		for _, ref := range refs {
			ref.arena.Mark(ref.idx, models.StatusUnmatched, models.ExceptionDoubleDebitCredit)
			ref.arena.MarkTTUM(ref.idx, ttumType, models.TCCNone)
		}
	}
	return nil
}

func (e *Engine) rowOf(ref struct {
	arena *Arena
	idx   int
}) models.Transaction {
	return ref.arena.Rows[ref.idx]
}

// --- Step 5: Three-way strict match -----------------------------------------------

func (e *Engine) step5ThreeWayMatch(ctx context.Context) error {
	for _, npciIdx := range e.NPCI.UnprocessedIndices() {
		npciRow := e.NPCI.Rows[npciIdx]
		if !npciRow.RC.IsSuccess() {
			continue
		}

		matched := false
		for _, keySet := range MatchStepConfigs() {
			cbsIdx := e.findCandidate(e.CBS, npciRow, keySet)
			if cbsIdx < 0 {
				continue
			}
			switchIdx := e.findCandidate(e.Switch, npciRow, keySet)
			if switchIdx < 0 {
				continue
			}
			e.CBS.Mark(cbsIdx, models.StatusMatched, models.ExceptionNone)
			e.Switch.Mark(switchIdx, models.StatusMatched, models.ExceptionNone)
			e.NPCI.Mark(npciIdx, models.StatusMatched, models.ExceptionNone)
			matched = true
			break
		}
		_ = matched
	}
	return nil
}

// findCandidate returns the first unprocessed row index in arena
// satisfying keySet against reference, or -1. "First" means lowest index
// in the arena's insertion order (deterministic tie-break, §4.2).
func (e *Engine) findCandidate(arena *Arena, reference models.Transaction, keySet KeySet) int {
	var pool []int
	switch {
	case keySet.RequireRRN && reference.RRN != "":
		pool = arena.ByRRN(reference.RRN)
	case keySet.RequireUPIID && reference.UPITranID != "":
		pool = arena.ByUPITranID(reference.UPITranID)
	default:
		return -1
	}
	for _, idx := range pool {
		if arena.IsProcessed(idx) {
			continue
		}
		row := arena.Rows[idx]
		if keySet.RequireRRN && row.RRN != reference.RRN {
			continue
		}
		if keySet.RequireUPIID && row.UPITranID != reference.UPITranID {
			continue
		}
		if keySet.RequireAmount && absDiff(row.Amount, reference.Amount) >= e.Config.AmountTolerance {
			continue
		}
		if keySet.RequireDate && !e.Config.DatesEqual(row.TranDate, reference.TranDate) {
			continue
		}
		return idx
	}
	return -1
}

// --- Step 6: Deemed-accepted -------------------------------------------------------

func (e *Engine) step6DeemedAccepted(ctx context.Context) error {
	for _, npciIdx := range e.NPCI.UnprocessedIndices() {
		npciRow := e.NPCI.Rows[npciIdx]
		if !npciRow.RC.IsDeemed() {
			continue
		}

		cbsDebitIdx := -1
		for _, idx := range e.CBS.ByRRN(npciRow.RRN) {
			if !e.CBS.IsProcessed(idx) && e.CBS.Rows[idx].DrCr == models.DrCrDebit {
				cbsDebitIdx = idx
				break
			}
		}

		if cbsDebitIdx >= 0 {
			e.CBS.Mark(cbsDebitIdx, models.StatusMatched, models.ExceptionTCC102)
			e.NPCI.Mark(npciIdx, models.StatusMatched, models.ExceptionTCC102)
			for _, idx := range e.Switch.ByRRN(npciRow.RRN) {
				if !e.Switch.IsProcessed(idx) {
					e.Switch.Mark(idx, models.StatusMatched, models.ExceptionTCC102)
				}
			}
			continue
		}

		e.NPCI.Mark(npciIdx, models.StatusUnmatched, models.ExceptionTCC103)
		e.NPCI.MarkTTUM(npciIdx, models.TTUMBeneficiaryCredit, models.TCC103)
	}
	return nil
}

// --- Step 7: NPCI declines ----------------------------------------------------------

func (e *Engine) step7NPCIDeclines(ctx context.Context) error {
	for _, npciIdx := range e.NPCI.UnprocessedIndices() {
		npciRow := e.NPCI.Rows[npciIdx]
		if !npciRow.RC.IsFail() {
			continue
		}

		for _, idx := range e.CBS.ByRRN(npciRow.RRN) {
			if e.CBS.IsProcessed(idx) {
				continue
			}
			e.CBS.Mark(idx, models.StatusUnmatched, models.ExceptionNPCIFailed)
			e.CBS.MarkTTUM(idx, models.TTUMReversal, models.TCCNone)
		}
		e.NPCI.Mark(npciIdx, models.StatusUnmatched, models.ExceptionNPCIDeclined)
	}
	return nil
}

// --- Step 8: Failed auto-reversal ----------------------------------------------------

func (e *Engine) step8FailedAutoReversal(ctx context.Context) error {
	groups := make(map[string][]int)
	for _, idx := range e.NPCI.UnprocessedIndices() {
		rrn := e.NPCI.Rows[idx].RRN
		if rrn == "" {
			continue
		}
		groups[rrn] = append(groups[rrn], idx)
	}

	for rrn, idxs := range groups {
		if len(idxs) != 2 {
			continue
		}
		a, b := e.NPCI.Rows[idxs[0]], e.NPCI.Rows[idxs[1]]
		if !a.Amount.Equal(b.Amount) || !oppositeSign(a.DrCr, b.DrCr) {
			continue
		}

		cbsIdxs := e.CBS.UnprocessedByRRNOnly(rrn)
		if len(cbsIdxs) != 1 {
			continue
		}

		e.NPCI.Mark(idxs[0], models.StatusUnmatched, models.ExceptionFailedAutoReversal)
		e.NPCI.MarkTTUM(idxs[0], models.TTUMReversal, models.TCCNone)
		e.NPCI.Mark(idxs[1], models.StatusUnmatched, models.ExceptionFailedAutoReversal)
		e.NPCI.MarkTTUM(idxs[1], models.TTUMReversal, models.TCCNone)
		e.CBS.Mark(cbsIdxs[0], models.StatusUnmatched, models.ExceptionFailedAutoReversal)
		e.CBS.MarkTTUM(cbsIdxs[0], models.TTUMReversal, models.TCCNone)
	}
	return nil
}

// --- helpers -------------------------------------------------------------------------

func withinDays(a, b time.Time, days int) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= time.Duration(days)*24*time.Hour
}

func absDiff(a, b decimal.Decimal) float64 {
	f, _ := a.Sub(b).Abs().Float64()
	return f
}
