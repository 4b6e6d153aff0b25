package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"gatilho/internal/market"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
)

const binanceMaxLimit = 1000

// Binance adapts the spot klines endpoint via the go-binance SDK. Historical
// data is public, so the client carries no credentials.
type Binance struct {
	client *binance.Client
}

type BinanceConfig struct {
	BaseURL string // override for tests; empty keeps the SDK default
	Timeout time.Duration
}

func NewBinance(cfg BinanceConfig) *Binance {
	client := binance.NewClient("", "")
	if cfg.BaseURL != "" {
		client.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client.HTTPClient = &http.Client{Timeout: timeout}
	return &Binance{client: client}
}

func (b *Binance) Name() string { return "binance" }

// FetchBars pages through the klines endpoint (1000 bars per call) until the
// exclusive end bound is reached.
func (b *Binance) FetchBars(ctx context.Context, symbol string, iv market.Interval, start, end time.Time) ([]market.RawBar, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", ErrInvalidInput)
	}

	startMs := start.UTC().UnixMilli()
	endMs := end.UTC().UnixMilli() - 1 // Binance endTime is inclusive
	var out []market.RawBar
	cursor := startMs
	for cursor <= endMs {
		kls, err := b.client.NewKlinesService().
			Symbol(symbol).
			Interval(iv.Binance).
			StartTime(cursor).
			EndTime(endMs).
			Limit(binanceMaxLimit).
			Do(ctx)
		if err != nil {
			return nil, classifyBinanceErr(symbol, err)
		}
		if len(kls) == 0 {
			break
		}
		for _, kl := range kls {
			if kl == nil {
				continue
			}
			out = append(out, market.RawBar{
				OpenTime: kl.OpenTime,
				Open:     kl.Open,
				High:     kl.High,
				Low:      kl.Low,
				Close:    kl.Close,
				Volume:   kl.Volume,
			})
		}
		last := kls[len(kls)-1].OpenTime
		if last <= cursor && len(kls) < binanceMaxLimit {
			break
		}
		cursor = last + 1
		if len(kls) < binanceMaxLimit {
			break
		}
	}
	return out, nil
}

// AvailableAssets lists all tradeable USDT spot symbols, sorted.
func (b *Binance) AvailableAssets(ctx context.Context) ([]string, error) {
	info, err := b.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, classifyBinanceErr("", err)
	}
	var symbols []string
	for _, s := range info.Symbols {
		if s.Status == "TRADING" && strings.HasSuffix(s.Symbol, "USDT") {
			symbols = append(symbols, s.Symbol)
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

func classifyBinanceErr(symbol string, err error) error {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case -1003, -1015: // TOO_MANY_REQUESTS / TOO_MANY_ORDERS
			return fmt.Errorf("%w: binance: %s", ErrRateLimited, apiErr.Message)
		case -1121, -1100, -1130: // invalid symbol / illegal characters / bad parameter
			return fmt.Errorf("%w: binance rejected %q: %s", ErrInvalidInput, symbol, apiErr.Message)
		}
		return fmt.Errorf("%w: binance api error %d: %s", ErrUnavailable, apiErr.Code, apiErr.Message)
	}
	return fmt.Errorf("%w: binance: %v", ErrUnavailable, err)
}
