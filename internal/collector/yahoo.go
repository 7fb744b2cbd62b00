package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/guregu/null/v5"
	"github.com/tidwall/gjson"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooProvider implements Provider using Yahoo Finance public chart API.
type YahooProvider struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooProvider creates a new Yahoo Finance provider with optional proxy support.
func NewYahooProvider(proxyURL string, timeout time.Duration) *YahooProvider {
	return &YahooProvider{
		BaseURL: yahooBaseURL,
		Client:  newHTTPClient(proxyURL, timeout),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

func (p *YahooProvider) Name() string { return "yahoo" }

func (p *YahooProvider) yahooSymbol(symbol string) string {
	if mapped, ok := p.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooFields maps chart API series to column names, in output order.
var yahooFields = []struct {
	path string
	name string
}{
	{"indicators.quote.0.open", "Open"},
	{"indicators.quote.0.high", "High"},
	{"indicators.quote.0.low", "Low"},
	{"indicators.quote.0.close", "Close"},
	{"indicators.adjclose.0.adjclose", "Adj Close"},
	{"indicators.quote.0.volume", "Volume"},
}

// FetchHistory downloads daily bars between start and end, both inclusive.
// Columns come back as [field, ticker] pairs.
func (p *YahooProvider) FetchHistory(ctx context.Context, symbol string, start, end time.Time) (*Table, error) {
	ticker := p.yahooSymbol(symbol)
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(end.AddDate(0, 0, 1).Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "history")
	q.Set("includeAdjustedClose", "true")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", p.BaseURL, url.PathEscape(ticker), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("yahoo decode: invalid json (status %d)", resp.StatusCode)
	}

	chart := gjson.GetBytes(body, "chart")
	if e := chart.Get("error"); e.Exists() && e.Type != gjson.Null {
		if e.Get("code").String() == "Not Found" {
			return nil, fmt.Errorf("yahoo: %s: %w", e.Get("description").String(), ErrNoData)
		}
		return nil, fmt.Errorf("yahoo api error: %s", e.Get("description").String())
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	result := chart.Get("result.0")
	return parseYahooResult(result, ticker), nil
}

// parseYahooResult converts one chart result into a table. A missing result
// yields an empty table.
func parseYahooResult(result gjson.Result, ticker string) *Table {
	t := &Table{}
	if !result.Exists() {
		return t
	}
	stamps := result.Get("timestamp").Array()
	if len(stamps) == 0 {
		return t
	}

	offset := result.Get("meta.gmtoffset").Int()
	for _, ts := range stamps {
		t.AddRow(time.Unix(ts.Int()+offset, 0).UTC())
	}

	for _, f := range yahooFields {
		values := result.Get(f.path)
		if !values.Exists() || !values.IsArray() {
			continue
		}
		col := t.AddColumn(f.name, ticker)
		for i, v := range values.Array() {
			if i >= len(t.Index) {
				break
			}
			t.Cells[i][col] = jsonCell(v)
		}
	}
	return t
}

// jsonCell converts a JSON number to a cell; null, missing and non-numeric values are empty.
func jsonCell(v gjson.Result) null.Float {
	if v.Type != gjson.Number {
		return null.Float{}
	}
	return null.FloatFrom(v.Float())
}
