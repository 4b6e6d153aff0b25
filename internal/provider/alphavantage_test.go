package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatilho/internal/market"
)

const alphaVantageIntradayBody = `{
  "Meta Data": {"1. Information": "FX Intraday (1min) Time Series"},
  "Time Series FX (1min)": {
    "2024-01-02 10:01:00": {"1. open": "1.0940", "2. high": "1.0945", "3. low": "1.0938", "4. close": "1.0942"},
    "2024-01-02 10:00:00": {"1. open": "1.0935", "2. high": "1.0941", "3. low": "1.0933", "4. close": "1.0940"}
  }
}`

func testInterval(t *testing.T, code string) market.Interval {
	t.Helper()
	iv, err := market.ParseInterval(code)
	require.NoError(t, err)
	return iv
}

func testRange(t *testing.T) (time.Time, time.Time) {
	t.Helper()
	start, err := market.ParseDate("2024-01-02")
	require.NoError(t, err)
	end, err := market.ParseDate("2024-01-03")
	require.NoError(t, err)
	return start, end
}

func TestAlphaVantageFetchIntraday(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"function":    r.URL.Query().Get("function"),
			"from_symbol": r.URL.Query().Get("from_symbol"),
			"to_symbol":   r.URL.Query().Get("to_symbol"),
			"interval":    r.URL.Query().Get("interval"),
			"apikey":      r.URL.Query().Get("apikey"),
		}
		w.Write([]byte(alphaVantageIntradayBody))
	}))
	defer srv.Close()

	av := NewAlphaVantage(AlphaVantageConfig{APIKey: "demo", BaseURL: srv.URL})
	start, end := testRange(t)
	bars, err := av.FetchBars(context.Background(), "eurusd", testInterval(t, "1m"), start, end)
	require.NoError(t, err)

	assert.Equal(t, "FX_INTRADAY", gotQuery["function"])
	assert.Equal(t, "EUR", gotQuery["from_symbol"])
	assert.Equal(t, "USD", gotQuery["to_symbol"])
	assert.Equal(t, "1min", gotQuery["interval"])
	assert.Equal(t, "demo", gotQuery["apikey"])

	require.Len(t, bars, 2)
	// the API returns newest first; ordering is fixed by the normalizer
	assert.Equal(t, "1.0940", bars[0].Open)
	assert.Nil(t, bars[0].Volume)

	res := market.Normalize(bars, start, end)
	require.Len(t, res.Candles, 2)
	assert.Equal(t, 1.0935, res.Candles[0].Open)
}

func TestAlphaVantageDailyFunction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "FX_DAILY", r.URL.Query().Get("function"))
		assert.Empty(t, r.URL.Query().Get("interval"))
		w.Write([]byte(`{"Time Series FX (Daily)": {"2024-01-02": {"1. open": "1.09", "2. high": "1.10", "3. low": "1.08", "4. close": "1.095"}}}`))
	}))
	defer srv.Close()

	av := NewAlphaVantage(AlphaVantageConfig{APIKey: "demo", BaseURL: srv.URL})
	start, end := testRange(t)
	bars, err := av.FetchBars(context.Background(), "EURUSD", testInterval(t, "D"), start, end)
	require.NoError(t, err)
	require.Len(t, bars, 1)
}

func TestAlphaVantageRejectsBadPair(t *testing.T) {
	av := NewAlphaVantage(AlphaVantageConfig{APIKey: "demo"})
	start, end := testRange(t)
	for _, symbol := range []string{"EUR", "EURUSDX", ""} {
		_, err := av.FetchBars(context.Background(), symbol, testInterval(t, "1m"), start, end)
		assert.ErrorIs(t, err, ErrInvalidInput, "symbol %q", symbol)
	}
}

func TestAlphaVantageMissingKey(t *testing.T) {
	av := NewAlphaVantage(AlphaVantageConfig{})
	start, end := testRange(t)
	_, err := av.FetchBars(context.Background(), "EURUSD", testInterval(t, "1m"), start, end)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAlphaVantageThrottleNote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`))
	}))
	defer srv.Close()

	av := NewAlphaVantage(AlphaVantageConfig{APIKey: "demo", BaseURL: srv.URL})
	start, end := testRange(t)
	_, err := av.FetchBars(context.Background(), "EURUSD", testInterval(t, "1m"), start, end)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestAlphaVantageErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Error Message": "Invalid API call."}`))
	}))
	defer srv.Close()

	av := NewAlphaVantage(AlphaVantageConfig{APIKey: "demo", BaseURL: srv.URL})
	start, end := testRange(t)
	_, err := av.FetchBars(context.Background(), "EURUSD", testInterval(t, "1m"), start, end)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAlphaVantageEmptySeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Meta Data": {}}`))
	}))
	defer srv.Close()

	av := NewAlphaVantage(AlphaVantageConfig{APIKey: "demo", BaseURL: srv.URL})
	start, end := testRange(t)
	bars, err := av.FetchBars(context.Background(), "EURUSD", testInterval(t, "1m"), start, end)
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestAlphaVantageServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	av := NewAlphaVantage(AlphaVantageConfig{APIKey: "demo", BaseURL: srv.URL})
	start, end := testRange(t)
	_, err := av.FetchBars(context.Background(), "EURUSD", testInterval(t, "1m"), start, end)
	assert.ErrorIs(t, err, ErrUnavailable)
}
