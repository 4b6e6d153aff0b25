package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ms(value string) int64 {
	t, err := time.Parse("2006-01-02 15:04:05", value)
	if err != nil {
		panic(err)
	}
	return t.UTC().UnixMilli()
}

func TestClassify(t *testing.T) {
	assert.Equal(t, Call, Classify(1.0, 1.5))
	assert.Equal(t, Put, Classify(1.5, 1.0))
	// doji resolves to Call
	assert.Equal(t, Call, Classify(1.0, 1.0))
}

func TestNormalizeSortsAndDeduplicates(t *testing.T) {
	start, _ := ParseDate("2024-01-01")
	end, _ := ParseDate("2024-01-05")
	raws := []RawBar{
		{OpenTime: ms("2024-01-02 00:02:00"), Open: "1.0", High: "1.2", Low: "0.9", Close: "1.1", Volume: "10"},
		{OpenTime: ms("2024-01-02 00:01:00"), Open: "1.0", High: "1.1", Low: "0.9", Close: "0.8", Volume: "5"},
		// duplicate timestamp: provider retransmission, first occurrence wins
		{OpenTime: ms("2024-01-02 00:01:00"), Open: "9.9", High: "9.9", Low: "9.9", Close: "9.9", Volume: "0"},
	}
	res := Normalize(raws, start, end)
	require.Len(t, res.Candles, 2)
	assert.Zero(t, res.Dropped)
	assert.Equal(t, ms("2024-01-02 00:01:00"), res.Candles[0].OpenTime)
	assert.Equal(t, ms("2024-01-02 00:02:00"), res.Candles[1].OpenTime)
	assert.Equal(t, 1.0, res.Candles[0].Open)
	assert.Equal(t, Put, res.Candles[0].Direction)
	assert.Equal(t, Call, res.Candles[1].Direction)
}

func TestNormalizeCountsCoercionFailures(t *testing.T) {
	start, _ := ParseDate("2024-01-01")
	end, _ := ParseDate("2024-01-05")
	raws := []RawBar{
		{OpenTime: ms("2024-01-02 00:01:00"), Open: "abc", High: "1.1", Low: "0.9", Close: "1.0", Volume: "5"},
		{OpenTime: ms("2024-01-02 00:02:00"), Open: "1.0", High: "1.1", Low: "0.9", Close: "1.0", Volume: "5"},
	}
	res := Normalize(raws, start, end)
	assert.Len(t, res.Candles, 1)
	assert.Equal(t, 1, res.Dropped)
}

func TestNormalizeMissingVolumeIsZero(t *testing.T) {
	start, _ := ParseDate("2024-01-01")
	end, _ := ParseDate("2024-01-05")
	res := Normalize([]RawBar{
		{OpenTime: ms("2024-01-02 00:01:00"), Open: "1.0", High: "1.1", Low: "0.9", Close: "1.0"},
	}, start, end)
	require.Len(t, res.Candles, 1)
	assert.Zero(t, res.Candles[0].Volume)
}

func TestNormalizeIncludesFullEndDay(t *testing.T) {
	start, _ := ParseDate("2024-01-01")
	end, _ := ParseDate("2024-01-05")
	raws := []RawBar{
		{OpenTime: ms("2023-12-31 23:59:00"), Open: "1", High: "1", Low: "1", Close: "1"},
		{OpenTime: ms("2024-01-05 23:59:00"), Open: "1", High: "1", Low: "1", Close: "1"},
		{OpenTime: ms("2024-01-06 00:00:00"), Open: "1", High: "1", Low: "1", Close: "1"},
	}
	res := Normalize(raws, start, end)
	require.Len(t, res.Candles, 1)
	assert.Equal(t, ms("2024-01-05 23:59:00"), res.Candles[0].OpenTime)
}

func TestParseDateFormats(t *testing.T) {
	d, err := ParseDate("2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2024-01-05 13:45")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 5, 13, 45, 0, 0, time.UTC), d)

	_, err = ParseDate("05/01/2024")
	assert.Error(t, err)
}

func TestParseInterval(t *testing.T) {
	iv, err := ParseInterval("1m")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, iv.Duration)
	assert.Equal(t, "1min", iv.AlphaVantage)
	assert.False(t, iv.Daily())

	iv, err = ParseInterval("d")
	require.NoError(t, err)
	assert.True(t, iv.Daily())
	assert.Equal(t, "1d", iv.Binance)

	_, err = ParseInterval("7x")
	assert.Error(t, err)
}
