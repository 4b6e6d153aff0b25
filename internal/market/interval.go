package market

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Interval describes one supported bar period together with the vocabulary
// each provider expects for it.
type Interval struct {
	Code     string
	Duration time.Duration

	Binance           string
	AlphaVantage      string // intraday interval; empty means the daily endpoint
	PolygonMultiplier int
	PolygonTimespan   string
}

// Daily reports whether the interval maps to a daily series.
func (iv Interval) Daily() bool { return iv.AlphaVantage == "" }

var supportedIntervals = map[string]Interval{
	"1m":  {Code: "1m", Duration: time.Minute, Binance: "1m", AlphaVantage: "1min", PolygonMultiplier: 1, PolygonTimespan: "minute"},
	"5m":  {Code: "5m", Duration: 5 * time.Minute, Binance: "5m", AlphaVantage: "5min", PolygonMultiplier: 5, PolygonTimespan: "minute"},
	"15m": {Code: "15m", Duration: 15 * time.Minute, Binance: "15m", AlphaVantage: "15min", PolygonMultiplier: 15, PolygonTimespan: "minute"},
	"30m": {Code: "30m", Duration: 30 * time.Minute, Binance: "30m", AlphaVantage: "30min", PolygonMultiplier: 30, PolygonTimespan: "minute"},
	"1h":  {Code: "1h", Duration: time.Hour, Binance: "1h", AlphaVantage: "60min", PolygonMultiplier: 1, PolygonTimespan: "hour"},
	"D":   {Code: "D", Duration: 24 * time.Hour, Binance: "1d", AlphaVantage: "", PolygonMultiplier: 1, PolygonTimespan: "day"},
}

// ParseInterval returns the canonical interval definition for a code.
func ParseInterval(code string) (Interval, error) {
	key := strings.TrimSpace(code)
	if iv, ok := supportedIntervals[key]; ok {
		return iv, nil
	}
	// interval codes are case-sensitive except the daily shorthand
	if strings.EqualFold(key, "d") {
		return supportedIntervals["D"], nil
	}
	if iv, ok := supportedIntervals[strings.ToLower(key)]; ok {
		return iv, nil
	}
	return Interval{}, fmt.Errorf("unsupported interval: %s", code)
}

// SupportedIntervals returns all interval codes, sorted.
func SupportedIntervals() []string {
	keys := make([]string, 0, len(supportedIntervals))
	for k := range supportedIntervals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
