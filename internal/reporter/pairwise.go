package reporter

import (
	"upi-recon-engine/internal/models"
)

var pairwiseHeaders = []string{
	"RRN", "UPI_Tran_ID", "Amount_A", "Amount_B", "Tran_Date", "Direction", "Status",
}

// pairName is one of the three §4.5 pairwise comparisons.
type pairName string

const (
	pairGLSwitch    pairName = "GL_vs_Switch"
	pairSwitchNPCI  pairName = "Switch_vs_NPCI"
	pairGLNPCI      pairName = "GL_vs_NPCI"
)

func pairTransactions(r *models.Record, pair pairName) (a, b *models.Transaction) {
	switch pair {
	case pairGLSwitch:
		return r.CBS, r.Switch
	case pairSwitchNPCI:
		return r.Switch, r.NPCI
	case pairGLNPCI:
		return r.CBS, r.NPCI
	default:
		return nil, nil
	}
}

// buildPairwiseRows emits one row per MATCHED record where both named
// sources are present with equal amount and date, split by direction
// (§4.5). Returns inward and outward row sets.
func buildPairwiseRows(records []*models.Record, pair pairName) (inward, outward [][]string) {
	for _, r := range records {
		if r.Status != models.StatusMatched {
			continue
		}
		a, b := pairTransactions(r, pair)
		if a == nil || b == nil {
			continue
		}
		if !a.Amount.Equal(b.Amount) {
			continue
		}
		if !a.TranDate.Equal(b.TranDate) {
			continue
		}

		row := []string{
			a.RRN,
			a.UPITranID,
			a.Amount.StringFixed(2),
			b.Amount.StringFixed(2),
			a.TranDate.Format("2006-01-02"),
			string(r.Direction),
			string(r.Status),
		}

		if r.Direction == models.DirectionOutward {
			outward = append(outward, row)
		} else {
			inward = append(inward, row)
		}
	}
	return inward, outward
}

// emitPairwiseReports writes the three GL_vs_Switch/Switch_vs_NPCI/GL_vs_NPCI
// reports, each split into an Inward and an Outward file.
func emitPairwiseReports(reportsDir string, records []*models.Record) error {
	for _, pair := range []pairName{pairGLSwitch, pairSwitchNPCI, pairGLNPCI} {
		inward, outward := buildPairwiseRows(records, pair)
		if err := writeTableTwin(reportBasePath(reportsDir, string(pair)+"_Inward"), pairwiseHeaders, inward); err != nil {
			return err
		}
		if err := writeTableTwin(reportBasePath(reportsDir, string(pair)+"_Outward"), pairwiseHeaders, outward); err != nil {
			return err
		}
	}
	return nil
}
