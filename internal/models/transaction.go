package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single row as reported by one source (CBS, Switch, NPCI,
// NTSL, or an adjustment file) after Normalizer coercion. Amount is always
// non-negative; sign information lives in DrCr.
type Transaction struct {
	UPITranID string          `json:"upi_tran_id"`
	RRN       string          `json:"rrn"`
	Amount    decimal.Decimal `json:"amount"`
	TranDate  time.Time       `json:"tran_date"`
	TranTime  time.Time       `json:"tran_time"`
	DrCr      DrCr            `json:"dr_cr"`
	RC        RC              `json:"rc"`
	TranType  string          `json:"tran_type"`
	SubType   string          `json:"sub_type"`
	PayerPSP  string          `json:"payer_psp,omitempty"`
	PayeePSP  string          `json:"payee_psp,omitempty"`
	MCC       string          `json:"mcc,omitempty"`
	Channel   string          `json:"channel,omitempty"`
	Source    Source          `json:"source"`
}

// Key returns the identity the matching engine groups rows by: RRN when
// present, falling back to UPITranID.
func (t *Transaction) Key() string {
	if t.RRN != "" {
		return t.RRN
	}
	return t.UPITranID
}

// Validate enforces the field-level invariants that survive Normalizer
// coercion: RRN, when present, must be exactly 12 digits (§8.3).
func (t *Transaction) Validate() error {
	if t.RRN == "" && t.UPITranID == "" {
		return fmt.Errorf("transaction has neither RRN nor UPI_Tran_ID")
	}
	if t.RRN != "" && !isTwelveDigits(t.RRN) {
		return fmt.Errorf("RRN %q is not exactly 12 digits", t.RRN)
	}
	if t.Amount.IsNegative() {
		return fmt.Errorf("amount %s must be non-negative", t.Amount.String())
	}
	if !t.Source.IsValid() {
		return fmt.Errorf("unknown source %q", t.Source)
	}
	return nil
}

func isTwelveDigits(s string) bool {
	if len(s) != 12 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MarshalJSON renders Amount and the two time fields in stable string form,
// matching the alias-struct idiom used throughout this codebase for
// decimal/time fields.
func (t *Transaction) MarshalJSON() ([]byte, error) {
	type Alias Transaction
	return json.Marshal(&struct {
		Amount   string `json:"amount"`
		TranDate string `json:"tran_date"`
		TranTime string `json:"tran_time"`
		*Alias
	}{
		Amount:   t.Amount.StringFixed(2),
		TranDate: t.TranDate.Format("2006-01-02"),
		TranTime: t.TranTime.Format(time.RFC3339),
		Alias:    (*Alias)(t),
	})
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	type Alias Transaction
	aux := &struct {
		Amount   string `json:"amount"`
		TranDate string `json:"tran_date"`
		TranTime string `json:"tran_time"`
		*Alias
	}{Alias: (*Alias)(t)}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	var err error
	t.Amount, err = decimal.NewFromString(aux.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount format: %w", err)
	}
	if t.TranDate, err = time.Parse("2006-01-02", aux.TranDate); err != nil {
		return fmt.Errorf("invalid tran_date format: %w", err)
	}
	if aux.TranTime != "" {
		if t.TranTime, err = time.Parse(time.RFC3339, aux.TranTime); err != nil {
			return fmt.Errorf("invalid tran_time format: %w", err)
		}
	}
	return nil
}

// NormalizeDrCr maps common source-system spellings to the canonical tag.
func NormalizeDrCr(raw string) DrCr {
	cleaned := strings.ToUpper(strings.TrimFunc(raw, func(r rune) bool {
		return !(r >= 'A' && r <= 'Z') && !(r >= 'a' && r <= 'z')
	}))
	switch cleaned {
	case "D", "DR", "DEBIT":
		return DrCrDebit
	case "C", "CR", "CREDIT":
		return DrCrCredit
	default:
		return DrCrUnspecified
	}
}

// NormalizeRC maps a raw response code string to the canonical RC tag.
func NormalizeRC(raw string) RC {
	trimmed := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case trimmed == "":
		return RC{Class: RCUnspecified}
	case strings.HasPrefix(trimmed, "RB"):
		return RC{Class: RCDeemed}
	case trimmed == "00" || trimmed == "0" || trimmed == "SUCCESS" || trimmed == "S":
		return RC{Class: RCSuccess}
	default:
		return RC{Class: RCFail, Code: trimmed}
	}
}
