// Package settlement turns a finalised reconciliation result into the
// double-entry accounting artefacts of §4.6: vouchers, a posted GL
// statement, and per-category TTUM correction files.
package settlement

import "upi-recon-engine/internal/models"

// Account is one leg's static identity in the chart of accounts.
type Account struct {
	Code string
	Name string
}

var (
	acctBank                = Account{Code: "1001", Name: "Bank"}
	acctSettlementReceivable = Account{Code: "1002", Name: "Settlement Receivable"}
	acctSuspense            = Account{Code: "1003", Name: "Suspense"}
	acctSettlementPayable   = Account{Code: "2001", Name: "Settlement Payable"}
)

// ttumAccountKey indexes the static TTUM account map by category and
// direction, as §4.6 requires ("chosen from a static account map keyed by
// (category, direction)").
type ttumAccountKey struct {
	Category string
	Direction models.Direction
}

// ttumAccountMap is the default static mapping. Individual RRNs can be
// given other accounts through AccountResolver.SetOverride; nothing in
// this module loads overrides from configuration.
var ttumAccountMap = map[ttumAccountKey]struct{ Debit, Credit Account }{
	{"DRC", models.DirectionOutward}:      {acctSuspense, acctBank},
	{"DRC", models.DirectionInward}:       {acctBank, acctSuspense},
	{"RRC", models.DirectionOutward}:      {acctSuspense, acctSettlementPayable},
	{"RRC", models.DirectionInward}:       {acctSettlementReceivable, acctSuspense},
	{"TCC", models.DirectionOutward}:      {acctSettlementPayable, acctBank},
	{"TCC", models.DirectionInward}:       {acctBank, acctSettlementReceivable},
	{"RET", models.DirectionOutward}:      {acctSuspense, acctBank},
	{"RET", models.DirectionInward}:       {acctBank, acctSuspense},
	{"RECOVERY", models.DirectionOutward}: {acctSettlementReceivable, acctBank},
	{"RECOVERY", models.DirectionInward}:  {acctBank, acctSettlementReceivable},
	{"REFUND", models.DirectionOutward}:   {acctBank, acctSettlementPayable},
	{"REFUND", models.DirectionInward}:    {acctSettlementPayable, acctBank},
}

// AccountResolver resolves the debit/credit account pair for a TTUM row,
// consulting a per-RRN override map before falling back to the static
// category/direction table (§4.6, §6.4 `gl_accounts`).
type AccountResolver struct {
	overrides map[string]struct{ Debit, Credit Account } // keyed by RRN
}

// NewAccountResolver builds a resolver with no overrides.
func NewAccountResolver() *AccountResolver {
	return &AccountResolver{overrides: map[string]struct{ Debit, Credit Account }{}}
}

// SetOverride registers a per-RRN issuer-action account pair, taking
// precedence over the static map for that RRN.
func (a *AccountResolver) SetOverride(rrn string, debit, credit Account) {
	a.overrides[rrn] = struct{ Debit, Credit Account }{debit, credit}
}

// Resolve returns the debit/credit account pair for category/direction,
// checking the RRN override first.
func (a *AccountResolver) Resolve(rrn, category string, direction models.Direction) (debit, credit Account, ok bool) {
	if pair, found := a.overrides[rrn]; found {
		return pair.Debit, pair.Credit, true
	}
	pair, found := ttumAccountMap[ttumAccountKey{category, direction}]
	if !found {
		return Account{}, Account{}, false
	}
	return pair.Debit, pair.Credit, true
}
