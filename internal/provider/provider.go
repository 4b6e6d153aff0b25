// Package provider implements the market-data source adapters. Each adapter
// maps one upstream API onto the common RawBar shape; everything
// provider-specific (field names, interval vocabulary, error signalling) stays
// inside its adapter.
package provider

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"gatilho/internal/market"
)

// Sentinel errors shared by every adapter. Callers branch with errors.Is.
var (
	// ErrInvalidInput marks malformed parameters, rejected before any network call.
	ErrInvalidInput = errors.New("invalid input")
	// ErrRateLimited marks an exceeded provider quota. Never retried silently.
	ErrRateLimited = errors.New("provider rate limit exceeded")
	// ErrUnavailable marks a transient network or API failure.
	ErrUnavailable = errors.New("provider unavailable")
)

// BarSource fetches historical bars for one asset/interval/date-range triple.
// An empty result with a nil error means "no data for this combination" and is
// not a failure. end is exclusive.
type BarSource interface {
	Name() string
	FetchBars(ctx context.Context, symbol string, iv market.Interval, start, end time.Time) ([]market.RawBar, error)
}

// Registry resolves bar sources by name.
type Registry struct {
	sources map[string]BarSource
}

func NewRegistry(sources ...BarSource) *Registry {
	r := &Registry{sources: make(map[string]BarSource, len(sources))}
	for _, s := range sources {
		if s != nil {
			r.sources[strings.ToLower(s.Name())] = s
		}
	}
	return r
}

func (r *Registry) Lookup(name string) (BarSource, bool) {
	s, ok := r.sources[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// Names returns the registered source names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.sources))
	for k := range r.sources {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
