package reconciler

import (
	"context"

	"upi-recon-engine/internal/models"
	"upi-recon-engine/internal/normalizer"
	reconerrors "upi-recon-engine/pkg/errors"

	"github.com/shopspring/decimal"
)

// parseSources streams every file in files, normalizes its rows once the
// column map for that file is known, and returns the combined
// transactions for source. internal/parsers.Reader.Stream discovers its
// column map from the header but only returns it once the whole file has
// been read, so each file's raw rows are buffered here and normalized in a
// second pass rather than row-by-row inside the callback. Rows with
// neither RRN nor UPI_Tran_ID are skipped (the normalizer logs a warning
// for each); any other normalization error aborts.
func (s *Service) parseSources(ctx context.Context, files []string, source models.Source) ([]models.Transaction, error) {
	var out []models.Transaction
	norm := normalizer.New()
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var raw []map[string]string
		cols, _, err := s.reader.Stream(ctx, file, func(rows []map[string]string) error {
			raw = append(raw, rows...)
			return nil
		})
		if err != nil {
			return nil, err
		}
		for _, row := range raw {
			txn, err := norm.Normalize(row, cols, source)
			if err != nil {
				if rerr, ok := reconerrors.AsReconcilerError(err); ok && rerr.Code == reconerrors.CodeMissingField {
					continue
				}
				return nil, err
			}
			out = append(out, *txn)
		}
	}
	return out, nil
}

// parseAdjustments streams adjustment input files (§4.2 Step 0) and reads
// each row's rrn/type/amount/status values from a fixed list of accepted
// header spellings (see parseAdjustmentRow); the synonym discovery used
// for transaction files is not applied, since adjustment files carry their
// own narrower header set rather than the five-source transaction schema.
func (s *Service) parseAdjustments(ctx context.Context, files []string) ([]models.AdjustmentRow, error) {
	var out []models.AdjustmentRow
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var raw []map[string]string
		_, _, err := s.reader.Stream(ctx, file, func(rows []map[string]string) error {
			raw = append(raw, rows...)
			return nil
		})
		if err != nil {
			return nil, err
		}
		for _, row := range raw {
			adj, err := parseAdjustmentRow(row)
			if err != nil {
				return nil, err
			}
			out = append(out, adj)
		}
	}
	return out, nil
}

func parseAdjustmentRow(row map[string]string) (models.AdjustmentRow, error) {
	rrn := firstNonEmpty(row, "rrn", "RRN", "Rrn")
	typeRaw := firstNonEmpty(row, "type", "Type", "adjustment_type", "Adjustment_Type", "Adjtype", "adjtype")
	amountRaw := firstNonEmpty(row, "amount", "Amount", "Adjamount", "adjamount")
	statusRaw := firstNonEmpty(row, "status", "Status")

	adjType, err := models.ParseAdjustmentType(typeRaw)
	if err != nil {
		return models.AdjustmentRow{}, err
	}

	adj := models.AdjustmentRow{RRN: rrn, Type: adjType}
	if amountRaw != "" {
		amount, err := decimal.NewFromString(amountRaw)
		if err != nil {
			return models.AdjustmentRow{}, err
		}
		adj.Amount = amount
	}
	if statusRaw != "" {
		adj.Status = models.Status(statusRaw)
	}
	return adj, nil
}

func firstNonEmpty(row map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := row[k]; ok && v != "" {
			return v
		}
	}
	return ""
}
