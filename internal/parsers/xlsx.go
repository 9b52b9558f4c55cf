package parsers

import (
	"context"

	"upi-recon-engine/internal/normalizer"
	"upi-recon-engine/pkg/errors"

	"github.com/xuri/excelize/v2"
)

// streamXLSX reads the first sheet of filePath via excelize's streaming
// row iterator (github.com/xuri/excelize/v2), treating row 1 as headers —
// the XLSX counterpart of streamCSV, feeding the same RowBatchCallback
// shape so callers never need to know which format a source file used.
func (r *Reader) streamXLSX(ctx context.Context, filePath string, callback RowBatchCallback) (normalizer.ColumnMap, int, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, 0, errors.FileError(errors.CodeFileCorrupted, filePath, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, 0, errors.FileError(errors.CodeFileCorrupted, filePath, nil)
	}

	rowsIter, err := f.Rows(sheet)
	if err != nil {
		return nil, 0, errors.FileError(errors.CodeFileCorrupted, filePath, err)
	}
	defer rowsIter.Close()

	var headers []string
	var cols normalizer.ColumnMap
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

	first := true
	for rowsIter.Next() {
		if ctx.Err() != nil {
			return cols, total, errors.InternalError(errors.CodeUnexpectedError, "parsers.stream_xlsx", ctx.Err())
		}
		cells, err := rowsIter.Columns()
		if err != nil {
			return cols, total, errors.ParseError(errors.CodeInvalidData, filePath, total+1, "", "", err)
		}

		if first {
			first = false
			headers = make([]string, len(cells))
			copy(headers, cells)
			cols = normalizer.DiscoverColumns(headers)
			continue
		}

		row := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(cells) {
				row[header] = cells[i]
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
