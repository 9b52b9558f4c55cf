package reporter

import "upi-recon-engine/internal/models"

var hangingHeaders = []string{
	"RRN", "UPI_Tran_ID", "Amount", "Tran_Date", "Exception_Type", "TTUM_Required", "TTUM_Type",
}

// buildHangingRows emits one row per record with status=HANGING (§4.5),
// split by direction.
func buildHangingRows(records []*models.Record) (inward, outward [][]string) {
	for _, r := range records {
		if r.Status != models.StatusHanging {
			continue
		}
		rep := r.AnySource()
		if rep == nil {
			continue
		}
		ttumRequired := "false"
		if r.TTUMRequired {
			ttumRequired = "true"
		}
		row := []string{
			rep.RRN,
			rep.UPITranID,
			rep.Amount.StringFixed(2),
			rep.TranDate.Format("2006-01-02"),
			string(r.ExceptionType),
			ttumRequired,
			string(r.TTUMType),
		}
		if r.Direction == models.DirectionOutward {
			outward = append(outward, row)
		} else {
			inward = append(inward, row)
		}
	}
	return inward, outward
}

func emitHangingReports(reportsDir string, records []*models.Record) error {
	inward, outward := buildHangingRows(records)
	if err := writeTableTwin(reportBasePath(reportsDir, "Hanging_Inward"), hangingHeaders, inward); err != nil {
		return err
	}
	return writeTableTwin(reportBasePath(reportsDir, "Hanging_Outward"), hangingHeaders, outward)
}
