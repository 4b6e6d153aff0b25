package market

import (
	"sort"
	"time"

	"gatilho/internal/pkg/convert"
)

// NormalizeResult carries the cleaned candle sequence plus the number of raw
// rows excluded because a numeric field failed to coerce.
type NormalizeResult struct {
	Candles []Candle
	Dropped int
}

// Normalize converts raw provider rows into the common Candle shape.
//
// The sequence is filtered to [start, end+1d), sorted ascending by open time
// and de-duplicated keeping the first occurrence, so downstream consumers can
// rely on strictly increasing timestamps regardless of provider ordering or
// retransmission. end is the last requested calendar day; adding one day keeps
// every bar of that day regardless of provider timestamp granularity.
func Normalize(raws []RawBar, start, end time.Time) NormalizeResult {
	endExclusive := end.AddDate(0, 0, 1)
	startMs := start.UTC().UnixMilli()
	endMs := endExclusive.UTC().UnixMilli()

	out := make([]Candle, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		if raw.OpenTime < startMs || raw.OpenTime >= endMs {
			continue
		}
		c, ok := coerce(raw)
		if !ok {
			dropped++
			continue
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].OpenTime < out[j].OpenTime })

	dedup := out[:0]
	var lastTime int64 = -1
	for _, c := range out {
		if c.OpenTime == lastTime {
			continue
		}
		dedup = append(dedup, c)
		lastTime = c.OpenTime
	}
	return NormalizeResult{Candles: dedup, Dropped: dropped}
}

func coerce(raw RawBar) (Candle, bool) {
	open, err := convert.Float64E(raw.Open)
	if err != nil {
		return Candle{}, false
	}
	high, err := convert.Float64E(raw.High)
	if err != nil {
		return Candle{}, false
	}
	low, err := convert.Float64E(raw.Low)
	if err != nil {
		return Candle{}, false
	}
	closePx, err := convert.Float64E(raw.Close)
	if err != nil {
		return Candle{}, false
	}
	volume := 0.0
	if raw.Volume != nil {
		// Forex feeds often omit volume; a missing field is zero, a malformed
		// one still drops the row.
		if volume, err = convert.Float64E(raw.Volume); err != nil {
			return Candle{}, false
		}
	}
	return Candle{
		OpenTime:  raw.OpenTime,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePx,
		Volume:    volume,
		Direction: Classify(open, closePx),
	}, true
}
