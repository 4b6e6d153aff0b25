package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gatilho/internal/market"

	"github.com/tidwall/gjson"
)

// AlphaVantage adapts the foreign-exchange endpoints (FX_INTRADAY / FX_DAILY).
// The API has no date-range parameters: it always returns the full series and
// the normalizer filters the requested window afterwards.
type AlphaVantage struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type AlphaVantageConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

func NewAlphaVantage(cfg AlphaVantageConfig) *AlphaVantage {
	base := cfg.BaseURL
	if base == "" {
		base = "https://www.alphavantage.co"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AlphaVantage{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(base, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (a *AlphaVantage) Name() string { return "alphavantage" }

func (a *AlphaVantage) FetchBars(ctx context.Context, symbol string, iv market.Interval, start, end time.Time) ([]market.RawBar, error) {
	pair := strings.ToUpper(strings.TrimSpace(symbol))
	if len(pair) != 6 {
		return nil, fmt.Errorf("%w: forex pair must be 6 characters, got %q", ErrInvalidInput, symbol)
	}
	if a.apiKey == "" {
		return nil, fmt.Errorf("%w: alphavantage api key not configured", ErrInvalidInput)
	}

	q := url.Values{}
	q.Set("from_symbol", pair[:3])
	q.Set("to_symbol", pair[3:])
	q.Set("outputsize", "full")
	q.Set("apikey", a.apiKey)
	if iv.Daily() {
		q.Set("function", "FX_DAILY")
	} else {
		q.Set("function", "FX_INTRADAY")
		q.Set("interval", iv.AlphaVantage)
	}

	body, err := a.get(ctx, "/query?"+q.Encode())
	if err != nil {
		return nil, err
	}
	if msg := gjson.GetBytes(body, "Error Message"); msg.Exists() {
		return nil, fmt.Errorf("%w: alphavantage: %s", ErrInvalidInput, msg.String())
	}
	// The free tier reports throttling as a 200 with a Note/Information field.
	if note := gjson.GetBytes(body, "Note"); note.Exists() {
		return nil, fmt.Errorf("%w: alphavantage: %s", ErrRateLimited, note.String())
	}
	if info := gjson.GetBytes(body, "Information"); info.Exists() {
		return nil, fmt.Errorf("%w: alphavantage: %s", ErrRateLimited, info.String())
	}

	series, ok := findTimeSeries(gjson.ParseBytes(body))
	if !ok {
		return nil, nil
	}
	var out []market.RawBar
	series.ForEach(func(key, value gjson.Result) bool {
		ts, err := parseAlphaVantageTime(key.String())
		if err != nil {
			return true // skip unparseable keys, keep scanning
		}
		out = append(out, market.RawBar{
			OpenTime: ts.UnixMilli(),
			Open:     value.Get(`1\. open`).String(),
			High:     value.Get(`2\. high`).String(),
			Low:      value.Get(`3\. low`).String(),
			Close:    value.Get(`4\. close`).String(),
			Volume:   nil, // FX series carry no volume
		})
		return true
	})
	return out, nil
}

func (a *AlphaVantage) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: alphavantage: %v", ErrUnavailable, err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: alphavantage: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: alphavantage: status %d", ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: alphavantage: status %d", ErrUnavailable, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: alphavantage: %v", ErrUnavailable, err)
	}
	return body, nil
}

// findTimeSeries locates the variably named "Time Series FX (...)" object.
func findTimeSeries(root gjson.Result) (gjson.Result, bool) {
	var series gjson.Result
	found := false
	root.ForEach(func(key, value gjson.Result) bool {
		if strings.HasPrefix(key.String(), "Time Series FX") {
			series = value
			found = true
			return false
		}
		return true
	})
	return series, found
}

func parseAlphaVantageTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
