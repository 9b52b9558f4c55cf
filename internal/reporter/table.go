package reporter

import (
	"upi-recon-engine/internal/tablewrite"
)

// writeTableTwin delegates to the shared tablewrite package (§4.4/§4.5
// emission discipline: build the row buffer, stage to a temp file, fsync,
// atomic rename, applied uniformly to CSV and XLSX).
func writeTableTwin(basePath string, headers []string, rows [][]string) error {
	return tablewrite.WriteTwin(basePath, headers, rows)
}

func reportBasePath(reportsDir, name string) string {
	return tablewrite.BasePath(reportsDir, name)
}

// ageingBucket buckets an age in days per §4.5's Unmatched_*_Ageing rule.
func ageingBucket(days int) string {
	switch {
	case days <= 1:
		return "0-1 days"
	case days <= 3:
		return "2-3 days"
	default:
		return ">3 days"
	}
}
