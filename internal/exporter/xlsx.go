package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"IndexHistory/internal/model"
)

// SheetName is the worksheet holding the bars.
const SheetName = "Sheet1"

// WriteXLSX writes the series to a workbook at path. Dates are stored as
// text, prices and volumes as numbers and empty values as blank cells.
func WriteXLSX(path string, s *model.Series) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	hdr := header(s)
	row := make([]interface{}, len(hdr))
	for i, h := range hdr {
		row[i] = h
	}
	if err := sw.SetRow("A1", row); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i := range s.Bars {
		b := &s.Bars[i]
		row := make([]interface{}, 0, len(hdr))
		row = append(row, b.Date.Format(model.DateLayout))
		for _, c := range s.Columns {
			if v := b.Get(c); v.Valid {
				row = append(row, v.ValueOrZero())
			} else {
				row = append(row, nil)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// LoadXLSX reads a workbook written by WriteXLSX back into a series.
func LoadXLSX(path string) (*model.Series, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", SheetName, err)
	}
	return parseRecords(rows)
}
