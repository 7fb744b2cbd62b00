package exporter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/guregu/null/v5"
	"github.com/rs/zerolog"

	"IndexHistory/internal/model"
)

// ErrNoData is returned when there is no series to save.
var ErrNoData = errors.New("no data to save")

const megabyte = 1024 * 1024

// SaveResult describes the files written by Save.
type SaveResult struct {
	CSVPath   string
	XLSXPath  string
	CSVBytes  int64
	XLSXBytes int64
}

func (r *SaveResult) CSVMegabytes() float64  { return float64(r.CSVBytes) / megabyte }
func (r *SaveResult) XLSXMegabytes() float64 { return float64(r.XLSXBytes) / megabyte }

// Persister writes a series as <Dir>/<base>.csv and <Dir>/<base>.xlsx.
type Persister struct {
	Dir    string
	Logger zerolog.Logger
}

// NewPersister creates a new Persister writing under dir.
func NewPersister(dir string, logger zerolog.Logger) *Persister {
	return &Persister{Dir: dir, Logger: logger}
}

// Save writes both files. Nothing is created when s is nil or empty.
func (p *Persister) Save(s *model.Series, base string) (*SaveResult, error) {
	if s.Len() == 0 {
		p.Logger.Error().Msg("no data to save")
		return nil, ErrNoData
	}
	res, err := p.save(s, base)
	if err != nil {
		p.Logger.Error().Err(err).Str("dir", p.Dir).Str("base", base).Msg("saving files failed")
		return nil, err
	}
	p.Logger.Info().
		Str("csv", res.CSVPath).
		Str("csv_size", humanize.IBytes(uint64(res.CSVBytes))).
		Str("xlsx", res.XLSXPath).
		Str("xlsx_size", humanize.IBytes(uint64(res.XLSXBytes))).
		Msg("saved files")
	return res, nil
}

func (p *Persister) save(s *model.Series, base string) (*SaveResult, error) {
	if err := os.MkdirAll(p.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	res := &SaveResult{
		CSVPath:  filepath.Join(p.Dir, base+".csv"),
		XLSXPath: filepath.Join(p.Dir, base+".xlsx"),
	}
	if err := WriteCSV(res.CSVPath, s); err != nil {
		removeFiles(res.CSVPath)
		return nil, fmt.Errorf("write csv: %w", err)
	}
	if err := WriteXLSX(res.XLSXPath, s); err != nil {
		removeFiles(res.CSVPath, res.XLSXPath)
		return nil, fmt.Errorf("write xlsx: %w", err)
	}

	var err error
	if res.CSVBytes, err = fileSize(res.CSVPath); err != nil {
		return nil, err
	}
	if res.XLSXBytes, err = fileSize(res.XLSXPath); err != nil {
		return nil, err
	}
	return res, nil
}

// removeFiles deletes regular files left by a failed save.
func removeFiles(paths ...string) {
	for _, p := range paths {
		if info, err := os.Lstat(p); err == nil && info.Mode().IsRegular() {
			os.Remove(p)
		}
	}
}

// Verify reloads both files and checks they hold the same rows and columns as s.
func Verify(s *model.Series, res *SaveResult) error {
	loaders := []struct {
		path string
		load func(string) (*model.Series, error)
	}{
		{res.CSVPath, LoadCSV},
		{res.XLSXPath, LoadXLSX},
	}
	for _, l := range loaders {
		got, err := l.load(l.path)
		if err != nil {
			return fmt.Errorf("reload %s: %w", l.path, err)
		}
		if got.Len() != s.Len() {
			return fmt.Errorf("reload %s: %d rows, want %d", l.path, got.Len(), s.Len())
		}
		if !sameColumns(got.Columns, s.Columns) {
			return fmt.Errorf("reload %s: columns %v, want %v", l.path, got.Columns, s.Columns)
		}
	}
	return nil
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Size(), nil
}

func sameColumns(a, b []model.Column) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func header(s *model.Series) []string {
	h := make([]string, 0, len(s.Columns)+1)
	h = append(h, "Date")
	for _, c := range s.Columns {
		h = append(h, string(c))
	}
	return h
}

func record(s *model.Series, b *model.Bar) []string {
	rec := make([]string, 0, len(s.Columns)+1)
	rec = append(rec, b.Date.Format(model.DateLayout))
	for _, c := range s.Columns {
		rec = append(rec, formatCell(b.Get(c)))
	}
	return rec
}

func formatCell(v null.Float) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.ValueOrZero(), 'f', -1, 64)
}

// parseRecords builds a series from a header row followed by data rows.
// Rows shorter than the header are padded with empty values.
func parseRecords(rows [][]string) (*model.Series, error) {
	if len(rows) == 0 {
		return nil, errors.New("missing header row")
	}
	hdr := rows[0]
	if len(hdr) == 0 || strings.TrimPrefix(hdr[0], "\ufeff") != "Date" {
		return nil, fmt.Errorf("first column must be Date, got %v", hdr)
	}
	s := &model.Series{}
	for _, name := range hdr[1:] {
		c, ok := model.ParseColumn(name)
		if !ok {
			return nil, fmt.Errorf("unknown column %q", name)
		}
		s.Columns = append(s.Columns, c)
	}

	for i, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		date, err := time.Parse(model.DateLayout, row[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing date: %w", i+1, err)
		}
		bar := model.Bar{Date: date}
		for j, c := range s.Columns {
			if j+1 >= len(row) || row[j+1] == "" {
				continue
			}
			v, err := strconv.ParseFloat(row[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: parsing %s: %w", i+1, c, err)
			}
			bar.Set(c, null.FloatFrom(v))
		}
		s.Bars = append(s.Bars, bar)
	}
	return s, nil
}
