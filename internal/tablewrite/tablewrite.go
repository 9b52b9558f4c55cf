// Package tablewrite is the shared CSV+XLSX twin writer used by every
// component that emits tabular output (reporter, settlement): build the
// full row buffer, stage to a temp file, fsync, atomic rename — applied
// uniformly to both formats, per §4.4/§4.5's emission discipline.
package tablewrite

import (
	"bytes"
	"encoding/csv"
	"path/filepath"

	"upi-recon-engine/internal/atomicfile"
	"upi-recon-engine/pkg/errors"

	"github.com/xuri/excelize/v2"
)

// WriteTwin writes both basePath+".csv" and basePath+".xlsx" with the same
// header and rows.
func WriteTwin(basePath string, headers []string, rows [][]string) error {
	if err := WriteCSV(basePath+".csv", headers, rows); err != nil {
		return err
	}
	return WriteXLSX(basePath+".xlsx", headers, rows)
}

// WriteCSV renders headers+rows as CSV and writes it atomically.
func WriteCSV(path string, headers []string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if len(headers) > 0 {
		if err := w.Write(headers); err != nil {
			return errors.FileError(errors.CodeDirectoryError, path, err)
		}
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return errors.FileError(errors.CodeDirectoryError, path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.FileError(errors.CodeDirectoryError, path, err)
	}
	return atomicfile.WriteFile(path, buf.Bytes(), 0o644)
}

// WriteXLSX renders headers+rows into the first sheet of a workbook via
// excelize and writes it atomically.
func WriteXLSX(path string, headers []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	rowIdx := 1
	if len(headers) > 0 {
		if err := setRow(f, sheet, rowIdx, headers); err != nil {
			return errors.FileError(errors.CodeDirectoryError, path, err)
		}
		rowIdx++
	}
	for _, row := range rows {
		if err := setRow(f, sheet, rowIdx, row); err != nil {
			return errors.FileError(errors.CodeDirectoryError, path, err)
		}
		rowIdx++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return errors.FileError(errors.CodeDirectoryError, path, err)
	}
	return atomicfile.WriteFile(path, buf.Bytes(), 0o644)
}

func setRow(f *excelize.File, sheet string, rowIdx int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowIdx)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return f.SetSheetRow(sheet, cell, &cells)
}

// BasePath joins dir and name (without extension) for a twin write.
func BasePath(dir, name string) string {
	return filepath.Join(dir, name)
}
