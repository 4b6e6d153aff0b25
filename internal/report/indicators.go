package report

import (
	talib "github.com/markcheno/go-talib"

	"gatilho/internal/market"
)

const (
	rsiPeriod = 14
	emaPeriod = 9
	smaPeriod = 21
)

// IndicatorSnapshot carries the closing-price indicators shown in the HTML
// summary. Ready is false when the series is too short to compute them.
type IndicatorSnapshot struct {
	Ready     bool
	LastClose float64
	RSI14     float64
	EMA9      float64
	SMA21     float64
}

// Indicators computes the snapshot over the full candle sequence.
func Indicators(candles []market.Candle) IndicatorSnapshot {
	if len(candles) <= smaPeriod {
		return IndicatorSnapshot{}
	}
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	rsi := talib.Rsi(closes, rsiPeriod)
	ema := talib.Ema(closes, emaPeriod)
	sma := talib.Sma(closes, smaPeriod)
	last := len(closes) - 1
	return IndicatorSnapshot{
		Ready:     true,
		LastClose: closes[last],
		RSI14:     rsi[last],
		EMA9:      ema[last],
		SMA21:     sma[last],
	}
}
