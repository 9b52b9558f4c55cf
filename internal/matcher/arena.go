package matcher

import (
	"upi-recon-engine/internal/models"

	"github.com/shopspring/decimal"
)

// Arena holds one source's rows plus the parallel flag vectors the eight
// matching steps mutate in place. This generalises the donor's
// TransactionIndex/BankStatementIndex (internal/matcher/index.go): instead
// of one index over one entity type, an Arena is reusable across CBS,
// Switch, NPCI, and NTSL, and instead of a single matched-or-not bit it
// carries the full per-row disposition the eight-step classifier needs.
//
// Rows are never reordered and never removed — processed is a sticky flag,
// never reset, so row position is stable insertion order throughout a
// cycle. This is required for the deterministic tie-breaking in Step 5
// (first candidate by insertion order wins).
type Arena struct {
	Source models.Source
	Rows   []models.Transaction

	processed     []bool
	status        []models.Status
	exceptionType []models.ExceptionType
	ttumRequired  []bool
	ttumType      []models.TTUMType
	tccType       []models.TCCType

	byRRN    map[string][]int
	byUPIID  map[string][]int
}

// NewArena builds an Arena over rows, indexing each row by RRN and
// UPI_Tran_ID in insertion order.
func NewArena(source models.Source, rows []models.Transaction) *Arena {
	a := &Arena{
		Source:        source,
		Rows:          rows,
		processed:     make([]bool, len(rows)),
		status:        make([]models.Status, len(rows)),
		exceptionType: make([]models.ExceptionType, len(rows)),
		ttumRequired:  make([]bool, len(rows)),
		ttumType:      make([]models.TTUMType, len(rows)),
		tccType:       make([]models.TCCType, len(rows)),
		byRRN:         make(map[string][]int),
		byUPIID:       make(map[string][]int),
	}
	for i := range a.status {
		a.status[i] = models.StatusUnmatched
	}
	for i, row := range rows {
		if row.RRN != "" {
			a.byRRN[row.RRN] = append(a.byRRN[row.RRN], i)
		}
		if row.UPITranID != "" {
			a.byUPIID[row.UPITranID] = append(a.byUPIID[row.UPITranID], i)
		}
	}
	return a
}

func (a *Arena) Len() int { return len(a.Rows) }

// ByRRN returns row indices carrying rrn, in insertion order.
func (a *Arena) ByRRN(rrn string) []int { return a.byRRN[rrn] }

// ByUPITranID returns row indices carrying id, in insertion order.
func (a *Arena) ByUPITranID(id string) []int { return a.byUPIID[id] }

// FirstUnprocessedByRRN returns the first (lowest-index) unprocessed row
// carrying rrn, or -1. Deterministic: relies on byRRN preserving insertion
// order, never map iteration.
func (a *Arena) FirstUnprocessedByRRN(rrn string) int {
	for _, idx := range a.byRRN[rrn] {
		if !a.processed[idx] {
			return idx
		}
	}
	return -1
}

// FirstByRRN returns the first row index carrying rrn regardless of its
// processed state, or -1. Used where a later step must override an
// earlier step's disposition (e.g. carry-over force-close overriding a
// Step 1 SWITCH_ONLY hanging mark).
func (a *Arena) FirstByRRN(rrn string) int {
	idxs := a.byRRN[rrn]
	if len(idxs) == 0 {
		return -1
	}
	return idxs[0]
}

func (a *Arena) IsProcessed(idx int) bool { return a.processed[idx] }

func (a *Arena) Status(idx int) models.Status               { return a.status[idx] }
func (a *Arena) ExceptionType(idx int) models.ExceptionType { return a.exceptionType[idx] }
func (a *Arena) TTUMRequired(idx int) bool                  { return a.ttumRequired[idx] }
func (a *Arena) TTUMType(idx int) models.TTUMType           { return a.ttumType[idx] }
func (a *Arena) TCCType(idx int) models.TCCType             { return a.tccType[idx] }

// Mark sets a row's terminal disposition and flips its processed flag.
// Once processed, later steps must skip the row (callers check
// IsProcessed before considering a candidate).
func (a *Arena) Mark(idx int, status models.Status, exceptionType models.ExceptionType) {
	a.processed[idx] = true
	a.status[idx] = status
	a.exceptionType[idx] = exceptionType
}

// MarkTTUM additionally records that a row requires a TTUM/TCC corrective
// message, without altering its processed/status fields (call Mark first).
func (a *Arena) MarkTTUM(idx int, ttumType models.TTUMType, tccType models.TCCType) {
	a.ttumRequired[idx] = true
	a.ttumType[idx] = ttumType
	a.tccType[idx] = tccType
}

// SetAmount overwrites a row's amount in place, used by the Step 0
// adjustment pre-pass (AMOUNT_CORRECTION).
func (a *Arena) SetAmount(idx int, amount decimal.Decimal) {
	a.Rows[idx].Amount = amount
}

// UnprocessedByRRNOnly returns the unprocessed row indices carrying rrn,
// in insertion order.
func (a *Arena) UnprocessedByRRNOnly(rrn string) []int {
	out := make([]int, 0, 1)
	for _, idx := range a.byRRN[rrn] {
		if !a.processed[idx] {
			out = append(out, idx)
		}
	}
	return out
}

// UnprocessedIndices returns the indices of rows not yet marked, in
// insertion order.
func (a *Arena) UnprocessedIndices() []int {
	out := make([]int, 0, len(a.Rows))
	for i := range a.Rows {
		if !a.processed[i] {
			out = append(out, i)
		}
	}
	return out
}
