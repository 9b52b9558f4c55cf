// Package normalizer maps heterogeneous source column names onto the
// canonical transaction field set and coerces raw string values into typed
// fields (amount, date, Dr/Cr, response code). It generalises the column
// alias lookup in the donor parsers package (a fixed per-bank alias map)
// into the three-layer synonym discovery the reconciliation engine needs
// across CBS, Switch, NPCI, NTSL, and adjustment files.
package normalizer

import (
	"fmt"
	"strings"
	"time"

	"upi-recon-engine/internal/models"
	"upi-recon-engine/pkg/errors"
	"upi-recon-engine/pkg/logger"

	"github.com/shopspring/decimal"
)

// Field is a canonical field name the normalizer can discover a column for.
type Field string

const (
	FieldUPITranID Field = "UPI_Tran_ID"
	FieldRRN       Field = "RRN"
	FieldAmount    Field = "Amount"
	FieldTranDate  Field = "Tran_Date"
	FieldTranTime  Field = "Tran_Time"
	FieldDrCr      Field = "Dr_Cr"
	FieldRC        Field = "RC"
	FieldTranType  Field = "Tran_Type"
	FieldSubType   Field = "Sub_Type"
	FieldPayerPSP  Field = "Payer_PSP"
	FieldPayeePSP  Field = "Payee_PSP"
	FieldMCC       Field = "MCC"
	FieldChannel   Field = "Channel"
)

// synonyms lists the case-insensitive header spellings recognised for each
// canonical field, tried via exact match first and substring match second.
var synonyms = map[Field][]string{
	FieldUPITranID: {"upi_tran_id", "upitranid", "upi_transaction_id", "upi id", "txn_id"},
	FieldRRN:       {"rrn", "retrieval_reference_number", "ref_no", "reference_number"},
	FieldAmount:    {"amount", "tran_amount", "transaction_amount", "amt"},
	FieldTranDate:  {"tran_date", "transaction_date", "txn_date", "date", "value_date"},
	FieldTranTime:  {"tran_time", "transaction_time", "txn_time", "time"},
	FieldDrCr:      {"dr_cr", "drcr", "debit_credit", "dc_indicator", "type"},
	FieldRC:        {"rc", "response_code", "resp_code", "status_code"},
	FieldTranType:  {"tran_type", "transaction_type", "network_type"},
	FieldSubType:   {"sub_type", "subtype", "tran_subtype"},
	FieldPayerPSP:  {"payer_psp", "payer_vpa_handle", "remitter_psp"},
	FieldPayeePSP:  {"payee_psp", "payee_vpa_handle", "beneficiary_psp"},
	FieldMCC:       {"mcc", "merchant_category_code"},
	FieldChannel:   {"channel", "tran_channel"},
}

var dateFormats = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
}

var timeFormats = []string{
	"15:04:05",
	"15:04",
}

// ColumnMap resolves canonical field -> actual header name for one input
// file, computed once per file via DiscoverColumns.
type ColumnMap map[Field]string

// DiscoverColumns implements the three-layer column discovery of §4.1: (a)
// case-insensitive exact synonym match, (b) substring match either
// direction, (c) none -> field absent from the map (downstream treats it as
// UNSPECIFIED).
func DiscoverColumns(headers []string) ColumnMap {
	result := make(ColumnMap)
	lowered := make(map[string]string, len(headers)) // lowercase -> original
	for _, h := range headers {
		lowered[strings.ToLower(strings.TrimSpace(h))] = h
	}

	for field, names := range synonyms {
		// Layer (a): exact match.
		found := false
		for _, name := range names {
			if original, ok := lowered[name]; ok {
				result[field] = original
				found = true
				break
			}
		}
		if found {
			continue
		}

		// Layer (b): substring match either direction.
		for header, original := range lowered {
			matched := false
			for _, name := range names {
				if strings.Contains(header, name) || strings.Contains(name, header) {
					matched = true
					break
				}
			}
			if matched {
				result[field] = original
				found = true
				break
			}
		}
		// Layer (c): field stays absent -> UNSPECIFIED downstream.
		_ = found
	}
	return result
}

// Normalizer coerces raw rows (already column-mapped by the caller's
// streaming reader) into canonical Transaction records.
type Normalizer struct {
	logger logger.Logger
}

func New() *Normalizer {
	return &Normalizer{logger: logger.GetGlobalLogger().WithComponent("normalizer")}
}

// Normalize converts one raw row plus its column map into a Transaction.
// Validation fails closed per §4.1: a row with neither RRN nor UPI_Tran_ID
// is dropped with a warning (caller decides whether to treat that as fatal
// for the file); a row with an unparseable amount returns a ParseError.
func (n *Normalizer) Normalize(row map[string]string, cols ColumnMap, source models.Source) (*models.Transaction, error) {
	rrn := strings.TrimSpace(field(row, cols, FieldRRN))
	upiID := strings.TrimSpace(field(row, cols, FieldUPITranID))

	if rrn == "" && upiID == "" {
		n.logger.WithField("source", source).Warn("row has neither RRN nor UPI_Tran_ID, dropping")
		return nil, errors.ValidationError(errors.CodeMissingField, "rrn_or_upi_tran_id", nil, nil).
			WithSuggestion("ensure every row carries either an RRN or a UPI transaction ID")
	}

	amountRaw := field(row, cols, FieldAmount)
	amount, err := parseAmount(amountRaw)
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidAmount, string(source), 0, string(FieldAmount), amountRaw, err)
	}

	dateRaw := field(row, cols, FieldTranDate)
	tranDate, err := parseDate(dateRaw)
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidDate, string(source), 0, string(FieldTranDate), dateRaw, err)
	}

	tranTime := tranDate
	if timeRaw := field(row, cols, FieldTranTime); timeRaw != "" {
		if t, err := parseTimeOfDay(tranDate, timeRaw); err == nil {
			tranTime = t
		}
	}

	return &models.Transaction{
		UPITranID: upiID,
		RRN:       rrn,
		Amount:    amount,
		TranDate:  tranDate,
		TranTime:  tranTime,
		DrCr:      models.NormalizeDrCr(field(row, cols, FieldDrCr)),
		RC:        models.NormalizeRC(field(row, cols, FieldRC)),
		TranType:  field(row, cols, FieldTranType),
		SubType:   field(row, cols, FieldSubType),
		PayerPSP:  field(row, cols, FieldPayerPSP),
		PayeePSP:  field(row, cols, FieldPayeePSP),
		MCC:       field(row, cols, FieldMCC),
		Channel:   field(row, cols, FieldChannel),
		Source:    source,
	}, nil
}

func field(row map[string]string, cols ColumnMap, f Field) string {
	if header, ok := cols[f]; ok {
		return row[header]
	}
	return ""
}

// parseAmount implements §4.1: decimal with two places, commas and currency
// symbols stripped.
func parseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return decimal.Decimal{}, fmt.Errorf("amount is empty")
	}
	cleaned = strings.NewReplacer(",", "", "$", "", "₹", "", "Rs.", "", "Rs", "").Replace(cleaned)
	cleaned = strings.TrimSpace(cleaned)
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return d.Round(2).Abs(), nil
}

// parseDate accepts ISO-8601, YYYY-MM-DD, DD-MM-YYYY, DD/MM/YYYY, and ISO
// with T time, per §4.1.
func parseDate(raw string) (time.Time, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	var lastErr error
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date %q: %w", raw, lastErr)
}

func parseTimeOfDay(date time.Time, raw string) (time.Time, error) {
	cleaned := strings.TrimSpace(raw)
	var lastErr error
	for _, layout := range timeFormats {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), t.Second(), 0, date.Location()), nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}
