package models

import "github.com/shopspring/decimal"

// AdjustmentRow is one row of an adjustment input file, consumed by the
// matching engine's Step 0 pre-pass (§4.2) before any other step runs.
type AdjustmentRow struct {
	RRN    string
	Type   AdjustmentType
	Amount decimal.Decimal
	Status Status // populated only when Type == AdjustmentStatusOverride
}
