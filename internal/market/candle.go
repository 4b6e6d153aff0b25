package market

import "time"

// Direction classifies a candle body: Call when it closed at or above its open.
type Direction string

const (
	Call Direction = "Call"
	Put  Direction = "Put"
)

// Classify derives the candle direction. A doji (close == open) counts as Call.
func Classify(open, close float64) Direction {
	if close >= open {
		return Call
	}
	return Put
}

// Candle is one OHLCV bar in the common shape shared by all providers.
type Candle struct {
	OpenTime  int64     `json:"open_time"` // Unix milliseconds, UTC
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Direction Direction `json:"direction"`
}

// Time returns the candle open time as UTC.
func (c Candle) Time() time.Time {
	return time.UnixMilli(c.OpenTime).UTC()
}

// RawBar is one provider-native row before coercion. Field types vary by
// provider (Binance delivers strings, Polygon numbers), so values stay untyped
// until Normalize runs.
type RawBar struct {
	OpenTime int64 // Unix milliseconds, UTC
	Open     any
	High     any
	Low      any
	Close    any
	Volume   any
}
