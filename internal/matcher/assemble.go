package matcher

import (
	"upi-recon-engine/internal/exceptionmatrix"
	"upi-recon-engine/internal/models"
)

// applyExceptionMatrixAndAssemble runs the exception matrix (§4.3) over
// whatever CBS rows remain unprocessed after the eight steps, then builds
// the final cross-source Records for every key observed in any arena.
func (e *Engine) applyExceptionMatrixAndAssemble() []*models.Record {
	matrix := exceptionmatrix.New()

	for _, cbsIdx := range e.CBS.UnprocessedIndices() {
		cbsRow := e.CBS.Rows[cbsIdx]

		switchState := exceptionmatrix.StateFailed
		var switchIdx = -1
		if idx := e.Switch.FirstUnprocessedByRRN(cbsRow.RRN); idx >= 0 {
			switchState = exceptionmatrix.StateSuccess
			switchIdx = idx
		}

		npciState := exceptionmatrix.StateFailed
		var npciIdx = -1
		if idxs := e.NPCI.ByRRN(cbsRow.RRN); len(idxs) > 0 {
			idx := idxs[0]
			npciIdx = idx
			row := e.NPCI.Rows[idx]
			switch {
			case row.RC.IsSuccess():
				npciState = exceptionmatrix.StateSuccess
			case row.RC.IsDeemed():
				npciState = exceptionmatrix.StateDeemed
			default:
				npciState = exceptionmatrix.StateFailed
			}
		}

		direction := models.DirectionFromDrCr(cbsRow.DrCr)

		action, known := matrix.Lookup(exceptionmatrix.StateSuccess, switchState, npciState, direction)
		if !known {
			e.logger.WithField("cbs_rrn", cbsRow.RRN).
				WithField("switch_state", switchState).
				WithField("npci_state", npciState).
				WithField("direction", direction).
				Warn("unknown exception matrix tuple, defaulting to UNMATCHED")
			action = exceptionmatrix.ActionUnmatched
		}

		effect := exceptionmatrix.EffectFor(action)
		e.CBS.Mark(cbsIdx, effect.CBSStatus, effect.ExceptionType)
		if effect.TTUMRequired {
			e.CBS.MarkTTUM(cbsIdx, effect.TTUMType, effect.TCCType)
		}
		if switchIdx >= 0 {
			e.Switch.Mark(switchIdx, effect.SwitchStatus, effect.ExceptionType)
			if effect.TTUMRequired {
				e.Switch.MarkTTUM(switchIdx, effect.TTUMType, effect.TCCType)
			}
		}
		if npciIdx >= 0 && !e.NPCI.IsProcessed(npciIdx) {
			e.NPCI.Mark(npciIdx, effect.NPCIStatus, effect.ExceptionType)
			if effect.TTUMRequired {
				e.NPCI.MarkTTUM(npciIdx, effect.TTUMType, effect.TCCType)
			}
		}
	}

	return e.assembleRecords()
}

// directionOf derives a record's report-facing direction from the
// Tran_Type keyword first, falling back to Dr/Cr (§4.5: "Direction
// inferred from Tran_Type keywords else from Dr_Cr"). It is not used for
// the exception matrix lookup, whose direction input is Dr_Cr only
// (§4.3) — see the direct models.DirectionFromDrCr call in
// applyExceptionMatrixAndAssemble.
func (e *Engine) directionOf(row models.Transaction) models.Direction {
	switch {
	case containsFold(row.TranType, "INWARD"):
		return models.DirectionInward
	case containsFold(row.TranType, "OUTWARD"):
		return models.DirectionOutward
	default:
		return models.DirectionFromDrCr(row.DrCr)
	}
}

func containsFold(s, substr string) bool {
	return len(s) >= len(substr) && indexFold(s, substr) >= 0
}

func indexFold(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if equalFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'a' && ca <= 'z' {
			ca -= 'a' - 'A'
		}
		if cb >= 'a' && cb <= 'z' {
			cb -= 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// assembleRecords walks every arena and groups rows by key (RRN, falling
// back to UPI_Tran_ID) into the final cross-source Records, in first-seen
// order across CBS, Switch, NPCI, NTSL.
func (e *Engine) assembleRecords() []*models.Record {
	byKey := make(map[string]*models.Record)
	var order []string

	assign := func(arena *Arena, setField func(r *models.Record, t *models.Transaction)) {
		for i := range arena.Rows {
			row := arena.Rows[i]
			key := row.Key()
			if key == "" {
				continue
			}
			rec, ok := byKey[key]
			if !ok {
				rec = &models.Record{Key: key, CycleID: e.CycleID}
				byKey[key] = rec
				order = append(order, key)
			}
			rowCopy := row
			setField(rec, &rowCopy)

			status := arena.Status(i)
			if rec.Status == "" || statusRank(status) > statusRank(rec.Status) {
				rec.Status = status
				rec.ExceptionType = arena.ExceptionType(i)
			}
			if arena.TTUMRequired(i) {
				rec.TTUMRequired = true
				rec.TTUMType = arena.TTUMType(i)
			}
			if arena.TCCType(i) != models.TCCNone {
				rec.TCCType = arena.TCCType(i)
			}
			if rec.Direction == models.DirectionUnknown {
				rec.Direction = e.directionOf(row)
			}
		}
	}

	assign(e.CBS, func(r *models.Record, t *models.Transaction) { r.CBS = t })
	assign(e.Switch, func(r *models.Record, t *models.Transaction) { r.Switch = t })
	assign(e.NPCI, func(r *models.Record, t *models.Transaction) { r.NPCI = t })
	assign(e.NTSL, func(r *models.Record, t *models.Transaction) { r.NTSL = t })

	records := make([]*models.Record, 0, len(order))
	for _, key := range order {
		records = append(records, byKey[key])
	}
	return records
}

// statusRank orders statuses so the most specific/terminal one wins when a
// key is touched by more than one arena with differing dispositions.
func statusRank(s models.Status) int {
	switch s {
	case models.StatusUnmatched:
		return 0
	case models.StatusOrphan:
		return 1
	case models.StatusHanging:
		return 2
	case models.StatusPartialMismatch, models.StatusMismatch, models.StatusPartialMatch:
		return 3
	case models.StatusDuplicate, models.StatusException:
		return 4
	case models.StatusForceMatched:
		return 5
	case models.StatusMatched:
		return 6
	default:
		return -1
	}
}
