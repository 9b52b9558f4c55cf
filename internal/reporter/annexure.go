package reporter

import (
	"strconv"
	"strings"
	"time"

	"upi-recon-engine/internal/models"
)

// annexureFlag is one of the five NPCI adjustment flags §4.5 derives.
type annexureFlag string

const (
	flagDRC   annexureFlag = "DRC"
	flagRRC   annexureFlag = "RRC"
	flagCrAdj annexureFlag = "Cr Adj"
	flagTCC   annexureFlag = "TCC"
	flagRET   annexureFlag = "RET"
)

var annexureHeaders = []string{
	"Bankadjref", "Flag", "shtdat", "adjsmt", "Shser", "Shcrd", "FileName", "reason", "specifyother",
}

// deriveAnnexureFlag applies the §4.5 Flag derivation rule, in its fixed
// priority order.
func deriveAnnexureFlag(r *models.Record) annexureFlag {
	rep := r.AnySource()
	rcDeemed := r.NPCI != nil && r.NPCI.RC.IsDeemed() // normalizer already folds an "RB"-prefixed code into RCDeemed
	exc := string(r.ExceptionType)

	switch {
	case rcDeemed, strings.Contains(exc, "TCC"):
		return flagTCC
	case strings.Contains(exc, "RET"), strings.Contains(exc, "RETURN"),
		strings.Contains(exc, "TIMEOUT"), strings.Contains(exc, "NPCI_FAILED"):
		return flagRET
	case strings.Contains(string(r.Status), "MISMATCH"), strings.Contains(string(r.Status), "PARTIAL"):
		return flagRRC
	case r.Status == models.StatusOrphan, r.Status == models.StatusUnmatched:
		return flagDRC
	case rep != nil && rep.DrCr == models.DrCrCredit:
		return flagCrAdj
	default:
		return flagDRC
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// buildAnnexureRows renders every record through the §4.5 ANNEXURE_IV
// schema, split into the TCC_RET and DRC_RRC files. Bankadjref uniqueness is
// enforced within each file by suffixing a running counter on collision.
func buildAnnexureRows(records []*models.Record, asOf time.Time) (tccRet, drcRrc [][]string) {
	seenTCCRet := map[string]int{}
	seenDRCRRC := map[string]int{}

	serial := 0
	for _, r := range records {
		rep := r.AnySource()
		if rep == nil {
			continue
		}
		flag := deriveAnnexureFlag(r)
		serial++

		ref := rep.RRN
		if ref == "" {
			ref = rep.UPITranID
		}

		shcrd := "C"
		if rep.DrCr == models.DrCrDebit {
			shcrd = "D"
		}

		reason := truncate(string(r.ExceptionType), 5)
		specifyOther := truncate(string(r.Status)+" "+string(r.ExceptionType), 400)

		row := []string{
			ref,
			string(flag),
			asOf.Format("2006-01-02"),
			rep.Amount.StringFixed(2),
			strconv.Itoa(serial),
			shcrd,
			string(rep.Source),
			reason,
			specifyOther,
		}

		switch flag {
		case flagTCC, flagRET:
			row[0] = dedupeRef(ref, seenTCCRet)
			tccRet = append(tccRet, row)
		default:
			row[0] = dedupeRef(ref, seenDRCRRC)
			drcRrc = append(drcRrc, row)
		}
	}
	return tccRet, drcRrc
}

func dedupeRef(ref string, seen map[string]int) string {
	n := seen[ref]
	seen[ref] = n + 1
	if n == 0 {
		return ref
	}
	return ref + "-" + strconv.Itoa(n)
}

func emitAnnexureReports(reportsDir string, records []*models.Record, asOf time.Time) error {
	tccRet, drcRrc := buildAnnexureRows(records, asOf)
	if err := writeTableTwin(reportBasePath(reportsDir, "ANNEXURE_IV_TCC_RET"), annexureHeaders, tccRet); err != nil {
		return err
	}
	return writeTableTwin(reportBasePath(reportsDir, "ANNEXURE_IV_DRC_RRC"), annexureHeaders, drcRrc)
}
