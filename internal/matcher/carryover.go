package matcher

import "upi-recon-engine/internal/models"

// resolveCarryOver implements the carry-over interaction of §4.2/§4.4:
// prior-cycle hanging entries resolve if their RRN now appears in NPCI,
// otherwise age by one cycle; entries reaching the configured threshold
// are force-closed with an auto TTUM against the matching Switch row.
// The return value is the next cycle's store: aged-but-unresolved entries
// plus newly observed hanging rows from this cycle.
func (e *Engine) resolveCarryOver() (*models.CarryOverState, error) {
	next := &models.CarryOverState{LastCycleID: e.CycleID}

	for _, entry := range e.CarryOver.Entries {
		if len(e.NPCI.ByRRN(entry.RRN)) > 0 {
			continue // resolved: dropped from carry-over
		}

		entry.CyclesPersisted++
		entry.LastCycleID = e.CycleID

		if entry.CyclesPersisted >= e.Config.CarryOverTTUMThreshold {
			if idx := e.Switch.FirstByRRN(entry.RRN); idx >= 0 {
				ttumType := models.TTUMReversal
				if entry.DrCr == models.DrCrCredit {
					ttumType = models.TTUMBeneficiaryCredit
				}
				e.Switch.Mark(idx, models.StatusUnmatched, models.ExceptionCarryOverTTUM)
				e.Switch.MarkTTUM(idx, ttumType, models.TCCNone)
			}
			continue // force-closed, dropped from next cycle's store
		}

		next.Entries = append(next.Entries, entry)
	}

	for idx := range e.NPCI.Rows {
		if e.NPCI.Status(idx) != models.StatusHanging {
			continue
		}
		row := e.NPCI.Rows[idx]
		next.Entries = append(next.Entries, &models.CarryOverEntry{
			RRN:             row.RRN,
			Amount:          row.Amount,
			DrCr:            row.DrCr,
			Reason:          string(e.NPCI.ExceptionType(idx)),
			FirstSeenCycle:  e.CycleID,
			LastCycleID:     e.CycleID,
			CyclesPersisted: 0,
		})
	}
	for idx := range e.Switch.Rows {
		if e.Switch.Status(idx) != models.StatusHanging {
			continue
		}
		row := e.Switch.Rows[idx]
		next.Entries = append(next.Entries, &models.CarryOverEntry{
			RRN:             row.RRN,
			Amount:          row.Amount,
			DrCr:            row.DrCr,
			Reason:          string(e.Switch.ExceptionType(idx)),
			FirstSeenCycle:  e.CycleID,
			LastCycleID:     e.CycleID,
			CyclesPersisted: 0,
		})
	}

	return next, nil
}
