package parsers

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"upi-recon-engine/internal/normalizer"
	"upi-recon-engine/pkg/errors"
	"upi-recon-engine/pkg/logger"
)

// RowBatchCallback receives a batch of canonical source-agnostic rows
// (header name -> raw string value). This generalises the donor's
// per-entity batched callback (internal/parsers/streaming.go:
// func([]*Transaction) error) to a shape that carries no assumption about
// which of the five source file types produced the row.
type RowBatchCallback func(rows []map[string]string) error

// ReaderConfig controls batching and the underlying CSV dialect.
type ReaderConfig struct {
	Parse     *ParseConfig
	BatchSize int
}

// DefaultReaderConfig returns sensible defaults: standard CSV dialect,
// 500-row batches.
func DefaultReaderConfig() *ReaderConfig {
	return &ReaderConfig{Parse: DefaultParseConfig(), BatchSize: 500}
}

// Reader streams a source file (CSV or XLSX, chosen by extension) as
// batches of canonical rows, discovering the column map once from the
// file's header row via internal/normalizer.
type Reader struct {
	cfg    *ReaderConfig
	base   *BaseParser
	logger logger.Logger
}

func NewReader(cfg *ReaderConfig) *Reader {
	if cfg == nil {
		cfg = DefaultReaderConfig()
	}
	return &Reader{
		cfg:    cfg,
		base:   NewBaseParser(cfg.Parse),
		logger: logger.GetGlobalLogger().WithComponent("parsers.reader"),
	}
}

// Stream reads filePath and invokes callback with successive row batches.
// It dispatches on file extension: .xlsx via excelize's row iterator,
// anything else via encoding/csv. Returns the discovered column map
// (useful for callers that want to report which canonical fields a file
// carried) and the row count read.
func (r *Reader) Stream(ctx context.Context, filePath string, callback RowBatchCallback) (normalizer.ColumnMap, int, error) {
	if strings.EqualFold(filepath.Ext(filePath), ".xlsx") {
		return r.streamXLSX(ctx, filePath, callback)
	}
	return r.streamCSV(ctx, filePath, callback)
}

func (r *Reader) streamCSV(ctx context.Context, filePath string, callback RowBatchCallback) (normalizer.ColumnMap, int, error) {
	file, csvReader, err := r.base.OpenFile(filePath)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	parseCtx := NewParseContext(ctx)
	if err := r.base.ReadHeaders(csvReader, parseCtx, nil); err != nil {
		return nil, 0, err
	}
	cols := normalizer.DiscoverColumns(parseCtx.Headers)

	batch := make([]map[string]string, 0, r.cfg.BatchSize)
	total := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := callback(batch); err != nil {
			return err
		}
		batch = make([]map[string]string, 0, r.cfg.BatchSize)
		return nil
	}

	for {
		if parseCtx.IsCancelled() {
			return cols, total, errors.InternalError(errors.CodeUnexpectedError, "parsers.stream_csv", context.Canceled)
		}
		record, err := r.base.ReadRecord(csvReader, parseCtx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return cols, total, errors.ParseError(errors.CodeInvalidData, filePath, parseCtx.LineNumber, "", "", err)
		}

		row := make(map[string]string, len(parseCtx.Headers))
		for i, header := range parseCtx.Headers {
			if i < len(record) {
				row[header] = record[i]
			}
		}
		batch = append(batch, row)
		total++

		if len(batch) >= r.cfg.BatchSize {
			if err := flush(); err != nil {
				return cols, total, err
			}
		}
	}
	if err := flush(); err != nil {
		return cols, total, err
	}
	return cols, total, nil
}
