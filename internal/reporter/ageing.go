package reporter

import (
	"strconv"
	"time"

	"upi-recon-engine/internal/models"
)

var ageingHeaders = []string{
	"RRN", "UPI_Tran_ID", "Amount", "Tran_Date", "Status", "Exception_Type", "Age_Days", "Bucket",
}

// buildAgeingRows emits one row per unmatched record (any status other than
// MATCHED/FORCE_MATCHED), aged against asOf and bucketed per §4.5.
func buildAgeingRows(records []*models.Record, asOf time.Time) (inward, outward [][]string) {
	for _, r := range records {
		if r.Status == models.StatusMatched || r.Status == models.StatusForceMatched {
			continue
		}
		rep := r.AnySource()
		if rep == nil {
			continue
		}
		ageDays := int(asOf.Sub(rep.TranDate).Hours() / 24)
		if ageDays < 0 {
			ageDays = 0
		}
		row := []string{
			rep.RRN,
			rep.UPITranID,
			rep.Amount.StringFixed(2),
			rep.TranDate.Format("2006-01-02"),
			string(r.Status),
			string(r.ExceptionType),
			strconv.Itoa(ageDays),
			ageingBucket(ageDays),
		}
		if r.Direction == models.DirectionOutward {
			outward = append(outward, row)
		} else {
			inward = append(inward, row)
		}
	}
	return inward, outward
}

func emitAgeingReports(reportsDir string, records []*models.Record, asOf time.Time) error {
	inward, outward := buildAgeingRows(records, asOf)
	if err := writeTableTwin(reportBasePath(reportsDir, "Unmatched_Inward_Ageing"), ageingHeaders, inward); err != nil {
		return err
	}
	return writeTableTwin(reportBasePath(reportsDir, "Unmatched_Outward_Ageing"), ageingHeaders, outward)
}
