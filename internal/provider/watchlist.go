package provider

import (
	"bytes"
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed watchlist.yaml
var watchlistRaw []byte

var commonForex = loadWatchlist()

func loadWatchlist() []string {
	var cfg struct {
		Pairs []string `yaml:"pairs"`
	}
	dec := yaml.NewDecoder(bytes.NewReader(watchlistRaw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		// embedded file, a decode failure is a programming error
		panic("provider: bad watchlist.yaml: " + err.Error())
	}
	return cfg.Pairs
}

// SearchForex filters the common-pair watchlist by substring, ignoring case
// and slashes ("EUR/USD" matches EURUSD).
func SearchForex(query string) []string {
	q := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(query), "/", ""))
	out := make([]string, 0, len(commonForex))
	for _, pair := range commonForex {
		if strings.Contains(pair, q) {
			out = append(out, pair)
		}
	}
	return out
}
