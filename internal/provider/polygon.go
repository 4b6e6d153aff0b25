package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gatilho/internal/market"

	"github.com/tidwall/gjson"
)

// Polygon adapts the forex aggregates endpoint
// (/v2/aggs/ticker/C:{pair}/range/{multiplier}/{timespan}/{from}/{to}).
type Polygon struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type PolygonConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

func NewPolygon(cfg PolygonConfig) *Polygon {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.polygon.io"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Polygon{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(base, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *Polygon) Name() string { return "polygon" }

func (p *Polygon) FetchBars(ctx context.Context, symbol string, iv market.Interval, start, end time.Time) ([]market.RawBar, error) {
	pair := strings.ToUpper(strings.TrimSpace(symbol))
	if len(pair) != 6 {
		return nil, fmt.Errorf("%w: forex pair must be 6 characters, got %q", ErrInvalidInput, symbol)
	}
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: polygon api key not configured", ErrInvalidInput)
	}

	// The aggregates path takes inclusive calendar dates; end arrives exclusive.
	from := start.UTC().Format("2006-01-02")
	to := end.AddDate(0, 0, -1).UTC().Format("2006-01-02")
	path := fmt.Sprintf("/v2/aggs/ticker/C:%s/range/%d/%s/%s/%s?adjusted=true&sort=asc&limit=50000&apiKey=%s",
		pair, iv.PolygonMultiplier, iv.PolygonTimespan, from, to, p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: polygon: %v", ErrUnavailable, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: polygon: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: polygon: %v", ErrUnavailable, err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: polygon: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: polygon: status %d: %s", ErrInvalidInput, resp.StatusCode, gjson.GetBytes(body, "error").String())
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: polygon: status %d", ErrUnavailable, resp.StatusCode)
	}
	if status := gjson.GetBytes(body, "status").String(); status == "ERROR" {
		return nil, fmt.Errorf("%w: polygon: %s", ErrUnavailable, gjson.GetBytes(body, "error").String())
	}

	results := gjson.GetBytes(body, "results")
	if !results.Exists() {
		return nil, nil
	}
	var out []market.RawBar
	results.ForEach(func(_, r gjson.Result) bool {
		out = append(out, market.RawBar{
			OpenTime: r.Get("t").Int(),
			Open:     r.Get("o").Value(),
			High:     r.Get("h").Value(),
			Low:      r.Get("l").Value(),
			Close:    r.Get("c").Value(),
			Volume:   r.Get("v").Value(),
		})
		return true
	})
	return out, nil
}
