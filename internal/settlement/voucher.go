package settlement

import (
	"upi-recon-engine/internal/models"
	"upi-recon-engine/pkg/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// balanceEpsilon is the maximum tolerated |Σdebits − Σcredits| before a
// voucher is rejected (§4.6).
var balanceEpsilon = decimal.NewFromFloat(0.01)

// CreateVouchers builds one voucher per eligible record: a PAYMENT voucher
// (Debit Bank, Credit Settlement-Receivable) for every MATCHED or
// FORCE_MATCHED record, and
// a SETTLEMENT voucher (Debit Suspense, Credit Settlement-Payable) for
// every PARTIAL/ORPHAN record. Records in any other status produce no
// voucher. Every voucher is validated before being returned; a voucher
// that fails balance validation is reported via the error, not silently
// dropped.
func CreateVouchers(records []*models.Record) ([]*models.Voucher, error) {
	var vouchers []*models.Voucher
	for _, r := range records {
		v := voucherFor(r)
		if v == nil {
			continue
		}
		if err := ValidateVoucher(v); err != nil {
			return nil, err
		}
		vouchers = append(vouchers, v)
	}
	return vouchers, nil
}

func voucherFor(r *models.Record) *models.Voucher {
	rep := r.AnySource()
	if rep == nil {
		return nil
	}

	switch {
	case r.Status == models.StatusMatched || r.Status == models.StatusForceMatched:
		return buildVoucher(models.VoucherPayment, rep, acctBank, acctSettlementReceivable)
	case r.Status == models.StatusPartialMatch || r.Status == models.StatusPartialMismatch || r.Status == models.StatusOrphan:
		return buildVoucher(models.VoucherSettlement, rep, acctSuspense, acctSettlementPayable)
	default:
		return nil
	}
}

func buildVoucher(vtype models.VoucherType, rep *models.Transaction, debit, credit Account) *models.Voucher {
	return &models.Voucher{
		VoucherID:       "VCH_" + uuid.NewString(),
		Type:            vtype,
		Amount:          rep.Amount,
		TransactionDate: rep.TranDate,
		RRN:             rep.RRN,
		Status:          models.VoucherGenerated,
		GLEntries: []models.GLEntry{
			{AccountCode: debit.Code, AccountName: debit.Name, Debit: rep.Amount, Credit: decimal.Zero},
			{AccountCode: credit.Code, AccountName: credit.Name, Debit: decimal.Zero, Credit: rep.Amount},
		},
	}
}

// ValidateVoucher enforces |Σdebits − Σcredits| < epsilon (§4.6).
func ValidateVoucher(v *models.Voucher) error {
	if v.BalanceDelta().Abs().GreaterThanOrEqual(balanceEpsilon) {
		return errors.ReconciliationError(errors.CodeDataInconsistent, "settlement.validate_voucher",
			nil).WithContext("voucher_id", v.VoucherID).WithContext("delta", v.BalanceDelta().String())
	}
	return nil
}

// PostVouchers walks vouchers and flips GENERATED -> POSTED, or POSTED ->
// stays unchanged. A voucher failing re-validation at posting time flips to
// FAILED instead of being silently skipped (§4.6: "Posting is a separate
// step ... failures flip to FAILED").
func PostVouchers(vouchers []*models.Voucher) {
	for _, v := range vouchers {
		if v.Status != models.VoucherGenerated {
			continue
		}
		if err := ValidateVoucher(v); err != nil {
			v.Status = models.VoucherFailed
			continue
		}
		v.Status = models.VoucherPosted
	}
}
