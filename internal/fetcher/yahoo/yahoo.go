// Package yahoo implements fetcher.Provider on top of the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/guregu/null/v6"

	"github.com/dreamjorge/StockStreamDB/internal/domain/models"
	"github.com/dreamjorge/StockStreamDB/internal/fetcher"
)

const (
	DefaultBaseURL = "https://query1.finance.yahoo.com"
	defaultTimeout = 30 * time.Second
	defaultAgent   = "Mozilla/5.0"
)

// Client calls GET {base}/v8/finance/chart/{symbol} for daily bars.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another host (tests, proxies).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTimeout sets the per-request socket timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header; Yahoo rejects empty agents.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New builds a Client with a 30s timeout.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		userAgent:  defaultAgent,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		GMTOffset int64  `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// History implements fetcher.Provider.
//
// Classification:
//   - transport errors, 429 and 5xx: *fetcher.TransientFetchError
//   - other non-200 statuses, undecodable bodies, chart.error, empty results: *fetcher.PermanentFetchError
//   - caller cancellation: the context error, unwrapped
func (c *Client) History(ctx context.Context, instrument string, r models.DateRange) (*fetcher.RawSeries, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(r.Start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(r.End.AddDate(0, 0, 1).Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "history")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(instrument), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fetcher.Permanent("build request", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fetcher.Transient(0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fetcher.Transient(resp.StatusCode, fmt.Errorf("read body: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fetcher.Transient(resp.StatusCode, errors.New(snippet(body)))
	default:
		return nil, fetcher.Permanent(fmt.Sprintf("status %d", resp.StatusCode), errors.New(snippet(body)))
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fetcher.Permanent("decode response", err)
	}
	if e := chart.Chart.Error; e != nil {
		return nil, fetcher.Permanent("provider error", fmt.Errorf("%s: %s", e.Code, e.Description))
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fetcher.Permanent("no history", nil)
	}

	return toSeries(instrument, chart.Chart.Result[0])
}

func toSeries(instrument string, res chartResult) (*fetcher.RawSeries, error) {
	if len(res.Indicators.Quote) == 0 {
		return nil, fetcher.Permanent("no quote block", nil)
	}
	quote := res.Indicators.Quote[0]
	n := len(res.Timestamp)
	if len(quote.Close) != n {
		return nil, fetcher.Permanent("malformed response", fmt.Errorf("%d timestamps but %d closes", n, len(quote.Close)))
	}

	series := &fetcher.RawSeries{Instrument: instrument, Rows: make([]fetcher.RawRow, 0, n)}
	for i, ts := range res.Timestamp {
		// Daily bars are stamped at the exchange open; shifting by the exchange offset keeps the trading date.
		date := models.DateOf(time.Unix(ts+res.Meta.GMTOffset, 0).UTC())
		series.Rows = append(series.Rows, fetcher.RawRow{
			Date:   date,
			Open:   null.FloatFromPtr(at(quote.Open, i)),
			High:   null.FloatFromPtr(at(quote.High, i)),
			Low:    null.FloatFromPtr(at(quote.Low, i)),
			Close:  null.FloatFromPtr(at(quote.Close, i)),
			Volume: null.IntFromPtr(at(quote.Volume, i)),
		})
	}
	return series, nil
}

// at tolerates short indicator arrays; a missing cell is absent, not zero.
func at[T any](xs []*T, i int) *T {
	if i < len(xs) {
		return xs[i]
	}
	return nil
}

func snippet(b []byte) string {
	const max = 256
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
