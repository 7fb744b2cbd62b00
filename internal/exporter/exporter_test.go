package exporter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/guregu/null/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IndexHistory/internal/model"
)

func sampleSeries(t *testing.T) *model.Series {
	t.Helper()
	d := func(s string) time.Time {
		v, err := time.Parse(model.DateLayout, s)
		require.NoError(t, err)
		return v
	}
	return &model.Series{
		Symbol:  "^GSPC",
		Columns: model.CanonicalColumns,
		Bars: []model.Bar{
			{
				Date: d("2024-01-02"), Open: null.FloatFrom(4745.2), High: null.FloatFrom(4754.33),
				Low: null.FloatFrom(4722.67), Close: null.FloatFrom(4742.83), Volume: null.FloatFrom(3743050000),
			},
			{
				Date: d("2024-01-03"), Open: null.FloatFrom(4725.07), High: null.FloatFrom(4729.29),
				Low: null.FloatFrom(4699.71), Close: null.FloatFrom(4704.81), Volume: null.Float{},
			},
			{
				Date: d("2024-01-04"), Close: null.FloatFrom(4688.68),
			},
		},
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestPersister_SaveWritesTwoFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	p := NewPersister(dir, zerolog.Nop())

	res, err := p.Save(sampleSeries(t), "test")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"test.csv", "test.xlsx"}, listDir(t, dir))
	assert.Equal(t, filepath.Join(dir, "test.csv"), res.CSVPath)
	assert.Equal(t, filepath.Join(dir, "test.xlsx"), res.XLSXPath)
	assert.Greater(t, res.CSVBytes, int64(0))
	assert.Greater(t, res.XLSXBytes, int64(0))
	assert.InDelta(t, float64(res.CSVBytes)/(1024*1024), res.CSVMegabytes(), 1e-12)
}

func TestPersister_CSVLayout(t *testing.T) {
	dir := t.TempDir()
	res, err := NewPersister(dir, zerolog.Nop()).Save(sampleSeries(t), "test")
	require.NoError(t, err)

	raw, err := os.ReadFile(res.CSVPath)
	require.NoError(t, err)
	want := "Date,Open,High,Low,Close,Volume\n" +
		"2024-01-02,4745.2,4754.33,4722.67,4742.83,3743050000\n" +
		"2024-01-03,4725.07,4729.29,4699.71,4704.81,\n" +
		"2024-01-04,,,,4688.68,\n"
	assert.Equal(t, want, string(raw))
}

func TestPersister_RoundTrip(t *testing.T) {
	src := sampleSeries(t)
	res, err := NewPersister(t.TempDir(), zerolog.Nop()).Save(src, "test")
	require.NoError(t, err)
	require.NoError(t, Verify(src, res))

	for name, load := range map[string]func(string) (*model.Series, error){
		"csv":  LoadCSV,
		"xlsx": LoadXLSX,
	} {
		t.Run(name, func(t *testing.T) {
			path := res.CSVPath
			if name == "xlsx" {
				path = res.XLSXPath
			}
			got, err := load(path)
			require.NoError(t, err)
			require.Equal(t, src.Columns, got.Columns)
			require.Equal(t, src.Len(), got.Len())
			for i := range src.Bars {
				assert.True(t, src.Bars[i].Date.Equal(got.Bars[i].Date), "row %d date", i)
				for _, c := range src.Columns {
					want, have := src.Bars[i].Get(c), got.Bars[i].Get(c)
					assert.Equal(t, want.Valid, have.Valid, "row %d %s validity", i, c)
					assert.InDelta(t, want.ValueOrZero(), have.ValueOrZero(), 1e-9, "row %d %s", i, c)
				}
			}
		})
	}
}

func TestPersister_EmptySeriesWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	p := NewPersister(dir, zerolog.Nop())

	for _, s := range []*model.Series{nil, {Symbol: "^GSPC"}} {
		res, err := p.Save(s, "test")
		assert.ErrorIs(t, err, ErrNoData)
		assert.Nil(t, res)
	}
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "directory should not be created")
}

func TestPersister_DirectoryIsFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	res, err := NewPersister(blocker, zerolog.Nop()).Save(sampleSeries(t), "test")
	assert.Error(t, err)
	assert.Nil(t, res)
}

func TestVerify_DetectsMismatch(t *testing.T) {
	src := sampleSeries(t)
	res, err := NewPersister(t.TempDir(), zerolog.Nop()).Save(src, "test")
	require.NoError(t, err)

	longer := &model.Series{Columns: src.Columns, Bars: append(append([]model.Bar{}, src.Bars...), src.Bars[0])}
	assert.Error(t, Verify(longer, res))

	fewer := &model.Series{Columns: src.Columns[3:], Bars: src.Bars}
	assert.Error(t, Verify(fewer, res))
}

func TestLoadCSV_Errors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
		return path
	}

	_, err := LoadCSV(write("nodate.csv", "Open,Close\n1,2\n"))
	assert.Error(t, err)
	_, err = LoadCSV(write("unknown.csv", "Date,Dividends\n2024-01-02,1\n"))
	assert.Error(t, err)
	_, err = LoadCSV(write("baddate.csv", "Date,Close\n01/02/2024,1\n"))
	assert.Error(t, err)

	s, err := LoadCSV(write("bom.csv", "\ufeffDate,Close\n2024-01-02,1\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestPersister_XLSXFailureLeavesNoFiles(t *testing.T) {
	dir := t.TempDir()
	// a directory where the workbook should go makes SaveAs fail
	require.NoError(t, os.Mkdir(filepath.Join(dir, "test.xlsx"), 0755))

	res, err := NewPersister(dir, zerolog.Nop()).Save(sampleSeries(t), "test")
	require.Error(t, err)
	assert.Nil(t, res)

	_, statErr := os.Stat(filepath.Join(dir, "test.csv"))
	assert.True(t, os.IsNotExist(statErr), "csv should be removed after the xlsx write fails")
	assert.ElementsMatch(t, []string{"test.xlsx"}, listDir(t, dir))
}
