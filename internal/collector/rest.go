package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"IndexHistory/internal/model"
)

// RESTProvider implements Provider against a generic daily bars REST endpoint
// that returns a JSON array of bar objects.
type RESTProvider struct {
	BaseURL string
	Client  *http.Client
}

// NewRESTProvider creates a new provider with optional proxy support.
func NewRESTProvider(baseURL, proxyURL string, timeout time.Duration) *RESTProvider {
	return &RESTProvider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  newHTTPClient(proxyURL, timeout),
	}
}

func (p *RESTProvider) Name() string { return "rest" }

// FetchHistory requests bars for symbol between start and end, both inclusive.
// Each object carries either a unix "timestamp" or a "date" string; every
// other key becomes a column, so the column set follows the response.
func (p *RESTProvider) FetchHistory(ctx context.Context, symbol string, start, end time.Time) (*Table, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("from", start.Format(model.DateLayout))
	q.Set("to", end.Format(model.DateLayout))
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?%s", p.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read bars: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("fetch bars: status 404: %w", ErrNoData)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("decode bars: invalid json")
	}
	data := gjson.ParseBytes(body)
	if !data.IsArray() {
		return nil, fmt.Errorf("decode bars: expected array, got %s", data.Type)
	}
	return parseRESTBars(data.Array())
}

func parseRESTBars(items []gjson.Result) (*Table, error) {
	t := &Table{}
	cols := make(map[string]int)
	for idx, item := range items {
		var date time.Time
		switch {
		case item.Get("timestamp").Exists():
			date = time.Unix(item.Get("timestamp").Int(), 0).UTC()
		case item.Get("date").Exists():
			d, err := time.Parse(model.DateLayout, item.Get("date").String())
			if err != nil {
				return nil, fmt.Errorf("parsing bar %d date: %w", idx, err)
			}
			date = d
		default:
			return nil, fmt.Errorf("bar %d has neither timestamp nor date", idx)
		}

		row := t.AddRow(date)
		item.ForEach(func(key, value gjson.Result) bool {
			k := key.String()
			if k == "timestamp" || k == "date" {
				return true
			}
			name := columnName(k)
			col, ok := cols[name]
			if !ok {
				col = t.AddColumn(name)
				cols[name] = col
			}
			t.Cells[row][col] = jsonCell(value)
			return true
		})
	}
	return t, nil
}

// columnName maps lower-case API keys such as "close" to canonical names.
func columnName(key string) string {
	for _, c := range model.CanonicalColumns {
		if strings.EqualFold(string(c), key) {
			return string(c)
		}
	}
	return key
}
