package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// TradingView adapts the scanner endpoint that backs the technical-analysis
// summary. Unlike the bar sources it returns a point-in-time indicator
// snapshot, so it sits outside the candle pipeline and is queried
// synchronously.
type TradingView struct {
	baseURL string
	client  *http.Client
}

type TradingViewConfig struct {
	BaseURL string
	Timeout time.Duration
}

func NewTradingView(cfg TradingViewConfig) *TradingView {
	base := cfg.BaseURL
	if base == "" {
		base = "https://scanner.tradingview.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &TradingView{baseURL: strings.TrimRight(base, "/"), client: &http.Client{Timeout: timeout}}
}

// TAQuery selects one symbol snapshot. Empty Exchange tries FX_IDC then OANDA.
type TAQuery struct {
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
	Screener string `json:"screener"`
	Interval string `json:"interval"`
}

// TASnapshot is the indicator summary for one symbol at one moment.
type TASnapshot struct {
	Symbol         string             `json:"symbol"`
	Exchange       string             `json:"exchange"`
	Time           time.Time          `json:"time"`
	Summary        string             `json:"summary"`
	MovingAverages string             `json:"moving_averages"`
	Oscillators    string             `json:"oscillators"`
	Indicators     map[string]float64 `json:"indicators"`
}

var taColumns = []string{"Recommend.All", "Recommend.MA", "Recommend.Other", "RSI", "Stoch.K", "Stoch.D", "CCI20", "ADX", "MACD.macd", "MACD.signal", "EMA10", "EMA20", "EMA30", "SMA10", "SMA20", "SMA30", "close"}

var taIntervalSuffix = map[string]string{
	"1m": "|1", "5m": "|5", "15m": "|15", "30m": "|30", "1h": "|60", "D": "",
}

// Summary fetches the snapshot, falling back across exchanges when none was
// requested (forex pairs are listed under several TradingView exchanges).
func (tv *TradingView) Summary(ctx context.Context, q TAQuery) (TASnapshot, error) {
	symbol := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(q.Symbol), "/", ""))
	if symbol == "" {
		return TASnapshot{}, fmt.Errorf("%w: empty symbol", ErrInvalidInput)
	}
	screener := strings.ToLower(strings.TrimSpace(q.Screener))
	if screener == "" {
		screener = "forex"
	}
	suffix, ok := taIntervalSuffix[q.Interval]
	if q.Interval == "" {
		suffix = taIntervalSuffix["1m"]
	} else if !ok {
		return TASnapshot{}, fmt.Errorf("%w: unsupported interval %q", ErrInvalidInput, q.Interval)
	}

	exchanges := []string{"FX_IDC", "OANDA"}
	if ex := strings.ToUpper(strings.TrimSpace(q.Exchange)); ex != "" {
		exchanges = []string{ex}
	}
	var lastErr error
	for _, ex := range exchanges {
		snap, err := tv.scan(ctx, screener, ex, symbol, suffix)
		if err == nil {
			return snap, nil
		}
		lastErr = err
	}
	return TASnapshot{}, lastErr
}

func (tv *TradingView) scan(ctx context.Context, screener, exchange, symbol, suffix string) (TASnapshot, error) {
	columns := make([]string, len(taColumns))
	for i, col := range taColumns {
		columns[i] = col + suffix
	}
	payload, _ := json.Marshal(map[string]any{
		"symbols": map[string]any{
			"tickers": []string{exchange + ":" + symbol},
			"query":   map[string]any{"types": []string{}},
		},
		"columns": columns,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tv.baseURL+"/"+screener+"/scan", bytes.NewReader(payload))
	if err != nil {
		return TASnapshot{}, fmt.Errorf("%w: tradingview: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := tv.client.Do(req)
	if err != nil {
		return TASnapshot{}, fmt.Errorf("%w: tradingview: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return TASnapshot{}, fmt.Errorf("%w: tradingview: status %d", ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode >= 300 {
		return TASnapshot{}, fmt.Errorf("%w: tradingview: status %d", ErrUnavailable, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return TASnapshot{}, fmt.Errorf("%w: tradingview: %v", ErrUnavailable, err)
	}

	values := gjson.GetBytes(body, "data.0.d")
	if !values.Exists() || len(values.Array()) != len(taColumns) {
		return TASnapshot{}, fmt.Errorf("%w: tradingview returned no data for %s:%s", ErrUnavailable, exchange, symbol)
	}
	indicators := make(map[string]float64, len(taColumns))
	for i, v := range values.Array() {
		indicators[taColumns[i]] = v.Float()
	}
	return TASnapshot{
		Symbol:         symbol,
		Exchange:       exchange,
		Time:           time.Now().UTC(),
		Summary:        rateRecommendation(indicators["Recommend.All"]),
		MovingAverages: rateRecommendation(indicators["Recommend.MA"]),
		Oscillators:    rateRecommendation(indicators["Recommend.Other"]),
		Indicators:     indicators,
	}, nil
}

// rateRecommendation maps the scanner's [-1,1] rating onto the label scale.
func rateRecommendation(v float64) string {
	switch {
	case v >= 0.5:
		return "STRONG_BUY"
	case v >= 0.1:
		return "BUY"
	case v > -0.1:
		return "NEUTRAL"
	case v > -0.5:
		return "SELL"
	default:
		return "STRONG_SELL"
	}
}
