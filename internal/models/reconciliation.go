package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// RollbackSnapshot captures a record's state immediately before a rollback
// mutation, so a later rollback (or audit) can see exactly what changed.
type RollbackSnapshot struct {
	RollbackID string    `json:"rollback_id"`
	Timestamp  time.Time `json:"timestamp"`
	PriorStatus Status   `json:"prior_status"`
	PriorExceptionType ExceptionType `json:"prior_exception_type"`
}

// Record is the cross-source reconciliation record keyed by RRN (or
// UPI_Tran_ID when RRN is absent). It holds at most one Transaction per
// source plus the disposition the matching engine and exception matrix
// assigned it.
type Record struct {
	Key    string `json:"key"`
	CBS    *Transaction `json:"cbs,omitempty"`
	Switch *Transaction `json:"switch,omitempty"`
	NPCI   *Transaction `json:"npci,omitempty"`
	NTSL   *Transaction `json:"ntsl,omitempty"`

	Status        Status        `json:"status"`
	ExceptionType ExceptionType `json:"exception_type,omitempty"`
	TTUMRequired  bool          `json:"ttum_required"`
	TTUMType      TTUMType      `json:"ttum_type"`
	TCCType       TCCType       `json:"tcc_type"`
	Direction     Direction     `json:"direction"`
	CycleID       string        `json:"cycle_id"`

	RollbackMetadata []RollbackSnapshot `json:"rollback_metadata,omitempty"`
}

// PopulatedSources returns how many of {CBS, Switch, NPCI} are non-nil.
func (r *Record) PopulatedSources() int {
	n := 0
	if r.CBS != nil {
		n++
	}
	if r.Switch != nil {
		n++
	}
	if r.NPCI != nil {
		n++
	}
	return n
}

// AnySource returns the first populated transaction, used when callers need
// representative metadata (amount, date, direction) regardless of which
// source it came from.
func (r *Record) AnySource() *Transaction {
	switch {
	case r.CBS != nil:
		return r.CBS
	case r.Switch != nil:
		return r.Switch
	case r.NPCI != nil:
		return r.NPCI
	case r.NTSL != nil:
		return r.NTSL
	default:
		return nil
	}
}

// Snapshot appends a RollbackSnapshot recording the record's current status
// before the caller mutates it.
func (r *Record) Snapshot(rollbackID string, now time.Time) {
	r.RollbackMetadata = append(r.RollbackMetadata, RollbackSnapshot{
		RollbackID:         rollbackID,
		Timestamp:          now,
		PriorStatus:        r.Status,
		PriorExceptionType: r.ExceptionType,
	})
}

// CarryOverEntry is a hanging RRN persisted across reconciliation cycles
// (§3.3). It survives until the RRN resolves in a later cycle's NPCI file
// or reaches the auto-TTUM age threshold.
type CarryOverEntry struct {
	RRN             string    `json:"rrn"`
	Amount          decimal.Decimal `json:"amount"`
	DrCr            DrCr      `json:"dr_cr"`
	Reason          string    `json:"reason"`
	FirstSeenCycle  string    `json:"first_seen_cycle"`
	LastCycleID     string    `json:"last_cycle_id"`
	CyclesPersisted int       `json:"cycles_persisted"`
}

func (c *CarryOverEntry) MarshalJSON() ([]byte, error) {
	type Alias CarryOverEntry
	return json.Marshal(&struct {
		Amount string `json:"amount"`
		*Alias
	}{
		Amount: c.Amount.StringFixed(2),
		Alias:  (*Alias)(c),
	})
}

func (c *CarryOverEntry) UnmarshalJSON(data []byte) error {
	type Alias CarryOverEntry
	aux := &struct {
		Amount string `json:"amount"`
		*Alias
	}{Alias: (*Alias)(c)}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	var err error
	c.Amount, err = decimal.NewFromString(aux.Amount)
	return err
}

// CarryOverState is the persisted shape of hanging_state.json (§4.4).
type CarryOverState struct {
	Entries     []*CarryOverEntry `json:"entries"`
	LastCycleID string            `json:"last_cycle_id"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// VoucherType classifies the accounting purpose of a voucher.
type VoucherType string

const (
	VoucherPayment    VoucherType = "PAYMENT"
	VoucherReversal   VoucherType = "REVERSAL"
	VoucherAdjustment VoucherType = "ADJUSTMENT"
	VoucherSettlement VoucherType = "SETTLEMENT"
)

// VoucherStatus tracks a voucher through generation and posting.
type VoucherStatus string

const (
	VoucherGenerated VoucherStatus = "GENERATED"
	VoucherPosted    VoucherStatus = "POSTED"
	VoucherFailed    VoucherStatus = "FAILED"
	VoucherReversed  VoucherStatus = "REVERSED"
	// VoucherPending is the state an ACCOUNTING-level rollback (§4.7) leaves
	// a voucher in: GL entries cleared, awaiting regeneration.
	VoucherPending VoucherStatus = "PENDING"
)

// GLEntry is one leg of a double-entry voucher.
type GLEntry struct {
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

func (e GLEntry) MarshalJSON() ([]byte, error) {
	type wire struct {
		AccountCode string `json:"account_code"`
		AccountName string `json:"account_name"`
		Debit       string `json:"debit"`
		Credit      string `json:"credit"`
	}
	return json.Marshal(wire{e.AccountCode, e.AccountName, e.Debit.StringFixed(2), e.Credit.StringFixed(2)})
}

// Voucher is a balanced double-entry accounting artefact created from a
// reconciliation Record (§3.4, §4.6).
type Voucher struct {
	VoucherID       string        `json:"voucher_id"`
	Type            VoucherType   `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionDate time.Time     `json:"transaction_date"`
	GLEntries       []GLEntry     `json:"gl_entries"`
	Status          VoucherStatus `json:"status"`
	RRN             string        `json:"rrn"`

	RollbackMetadata []VoucherRollbackSnapshot `json:"rollback_metadata,omitempty"`
}

// VoucherRollbackSnapshot is what the ACCOUNTING rollback level preserves
// before clearing a voucher's GL entries (§4.7).
type VoucherRollbackSnapshot struct {
	RollbackID string        `json:"rollback_id"`
	Timestamp  time.Time     `json:"timestamp"`
	PriorStatus VoucherStatus `json:"prior_status"`
	PriorGLEntries []GLEntry  `json:"prior_gl_entries"`
}

// BalanceDelta returns Σdebits − Σcredits; a voucher is valid when its
// absolute value is below the configured epsilon (default 0.01).
func (v *Voucher) BalanceDelta() decimal.Decimal {
	debits := decimal.Zero
	credits := decimal.Zero
	for _, e := range v.GLEntries {
		debits = debits.Add(e.Debit)
		credits = credits.Add(e.Credit)
	}
	return debits.Sub(credits)
}

func (v *Voucher) MarshalJSON() ([]byte, error) {
	type Alias Voucher
	return json.Marshal(&struct {
		Amount          string `json:"amount"`
		TransactionDate string `json:"transaction_date"`
		*Alias
	}{
		Amount:          v.Amount.StringFixed(2),
		TransactionDate: v.TransactionDate.Format("2006-01-02"),
		Alias:           (*Alias)(v),
	})
}

func (v *Voucher) UnmarshalJSON(data []byte) error {
	type Alias Voucher
	aux := &struct {
		Amount          string `json:"amount"`
		TransactionDate string `json:"transaction_date"`
		*Alias
	}{Alias: (*Alias)(v)}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	var err error
	v.Amount, err = decimal.NewFromString(aux.Amount)
	if err != nil {
		return err
	}
	v.TransactionDate, err = time.Parse("2006-01-02", aux.TransactionDate)
	return err
}
