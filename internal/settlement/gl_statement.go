package settlement

import (
	"bytes"
	"encoding/csv"
	"path/filepath"

	"upi-recon-engine/internal/atomicfile"
	"upi-recon-engine/internal/models"
	"upi-recon-engine/pkg/errors"
)

var glStatementHeaders = []string{
	"Voucher_ID", "Type", "RRN", "Transaction_Date", "Status", "Account_Code", "Account_Name", "Debit", "Credit",
}

// WriteGLStatement emits a concatenated GL statement CSV (one row per
// voucher GL leg, so a balanced voucher contributes two rows) with the
// same atomic temp-file-plus-rename discipline as §4.5's report emitter
// (§4.6: "same atomic-write discipline as §4.5").
func WriteGLStatement(glDir string, vouchers []*models.Voucher) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(glStatementHeaders); err != nil {
		return wrapGLError(glDir, err)
	}
	for _, v := range vouchers {
		for _, e := range v.GLEntries {
			row := []string{
				v.VoucherID, string(v.Type), v.RRN, v.TransactionDate.Format("2006-01-02"), string(v.Status),
				e.AccountCode, e.AccountName, e.Debit.StringFixed(2), e.Credit.StringFixed(2),
			}
			if err := w.Write(row); err != nil {
				return wrapGLError(glDir, err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return wrapGLError(glDir, err)
	}

	path := filepath.Join(glDir, "gl_statement.csv")
	return atomicfile.WriteFile(path, buf.Bytes(), 0o644)
}

func wrapGLError(glDir string, err error) error {
	return errors.FileError(errors.CodeDirectoryError, glDir, err)
}
