package report

import (
	"github.com/shopspring/decimal"

	"gatilho/internal/trigger"
)

// OutcomeShare is one row of the outcome-frequency table.
type OutcomeShare struct {
	Outcome trigger.Outcome
	Count   int
	Percent float64 // rounded to 2 decimal places
}

// OutcomeShares tallies events per outcome in ladder order. All five rungs
// appear even when empty so the percentage column always covers 100%.
func OutcomeShares(events []trigger.Event) []OutcomeShare {
	counts := make(map[trigger.Outcome]int, len(trigger.Outcomes))
	for _, ev := range events {
		counts[ev.Outcome]++
	}
	total := decimal.NewFromInt(int64(len(events)))
	hundred := decimal.NewFromInt(100)

	out := make([]OutcomeShare, 0, len(trigger.Outcomes))
	for _, o := range trigger.Outcomes {
		share := OutcomeShare{Outcome: o, Count: counts[o]}
		if !total.IsZero() {
			share.Percent = decimal.NewFromInt(int64(counts[o])).
				Mul(hundred).
				Div(total).
				Round(2).
				InexactFloat64()
		}
		out = append(out, share)
	}
	return out
}
