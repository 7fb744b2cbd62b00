package exporter

import (
	"encoding/csv"
	"fmt"
	"os"

	"IndexHistory/internal/model"
)

// WriteCSV writes the series to path with the date as the leading column.
func WriteCSV(path string, s *model.Series) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header(s)); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i := range s.Bars {
		if err := writer.Write(record(s, &s.Bars[i])); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return file.Close()
}

// LoadCSV reads a file written by WriteCSV back into a series.
func LoadCSV(path string) (*model.Series, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return parseRecords(records)
}
