package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IndexHistory/internal/model"
)

func TestRESTProvider_FetchHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/bars/daily", r.URL.Path)
		assert.Equal(t, "^GSPC", r.URL.Query().Get("symbol"))
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("from"))
		assert.Equal(t, "2024-01-31", r.URL.Query().Get("to"))
		_, _ = w.Write([]byte(`[
			{"date": "2024-01-03", "close": 4704.8, "volume": 3950760000, "vwap": 4710.1},
			{"timestamp": 1704153600, "close": 4742.8, "volume": null, "vwap": 4740.0}
		]`))
	}))
	defer srv.Close()

	p := NewRESTProvider(srv.URL+"/", "", time.Second)
	tbl, err := p.FetchHistory(context.Background(), "^GSPC", day("2024-01-01"), day("2024-01-31"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Close"}, {"Volume"}, {"vwap"}}, tbl.Columns)

	s, err := Clean(tbl, "^GSPC")
	require.NoError(t, err)
	assert.Equal(t, []model.Column{model.Close, model.Volume}, s.Columns)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, day("2024-01-02"), s.Bars[0].Date)
	assert.False(t, s.Bars[0].Volume.Valid)
	assert.Equal(t, 4704.8, s.Bars[1].Close.ValueOrZero())
}

func TestRESTProvider_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		noData bool
	}{
		{name: "not found", status: http.StatusNotFound, body: `{"error":"unknown symbol"}`, noData: true},
		{name: "server error", status: http.StatusBadGateway, body: `upstream down`},
		{name: "object instead of array", status: http.StatusOK, body: `{"bars":[]}`},
		{name: "bad date", status: http.StatusOK, body: `[{"date":"03/01/2024","close":1}]`},
		{name: "missing date", status: http.StatusOK, body: `[{"close":1}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewRESTProvider(srv.URL, "", time.Second)
			_, err := p.FetchHistory(context.Background(), "X", day("2024-01-01"), day("2024-01-31"))
			require.Error(t, err)
			if tt.noData {
				assert.ErrorIs(t, err, ErrNoData)
			} else {
				assert.NotErrorIs(t, err, ErrNoData)
			}
		})
	}
}

func TestRESTProvider_EmptyArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	tbl, err := NewRESTProvider(srv.URL, "", time.Second).
		FetchHistory(context.Background(), "X", day("2024-01-01"), day("2024-01-31"))
	require.NoError(t, err)
	assert.True(t, tbl.Empty())
}
