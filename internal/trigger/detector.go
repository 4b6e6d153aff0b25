// Package trigger implements the candle trigger ("gatilho") detection over a
// normalized candle sequence, evaluating each trigger against a four-step
// martingale ladder.
package trigger

import (
	"fmt"

	"gatilho/internal/market"
)

// Outcome is one rung of the martingale ladder. The values match the labels
// written into reports.
type Outcome string

const (
	Win      Outcome = "WIN"
	WinGale1 Outcome = "WIN GALE 1"
	WinGale2 Outcome = "WIN GALE 2"
	WinGale3 Outcome = "WIN GALE 3"
	Loss     Outcome = "LOSS"
)

// Outcomes lists all outcomes in ladder order.
var Outcomes = []Outcome{Win, WinGale1, WinGale2, WinGale3, Loss}

// triggerMinutes marks the minute-of-hour values eligible to start an
// evaluation: the last minute of every five-minute block.
var triggerMinutes = map[int]bool{
	4: true, 9: true, 14: true, 19: true, 24: true, 29: true,
	34: true, 39: true, 44: true, 49: true, 54: true, 59: true,
}

// Event records one evaluated trigger candle.
type Event struct {
	TriggerTime      int64               `json:"trigger_time"` // open time of the trigger candle, Unix ms
	TriggerDirection market.Direction    `json:"trigger_direction"`
	Expected         [4]market.Direction `json:"expected_sequence"`
	Outcome          Outcome             `json:"outcome"`
}

// ExpectedSequence returns the four-candle sequence bet against a trigger of
// the given direction: two reversals followed by two continuations.
func ExpectedSequence(d market.Direction) [4]market.Direction {
	if d == market.Call {
		return [4]market.Direction{market.Put, market.Put, market.Call, market.Call}
	}
	return [4]market.Direction{market.Call, market.Call, market.Put, market.Put}
}

// Detect scans the candle sequence and emits one event per qualifying trigger
// candle. The cursor always advances a single step, so candles consumed by an
// evaluation are themselves re-examined as potential triggers.
//
// The input must be strictly ascending by open time (the normalizer
// guarantees this); Detect fails fast otherwise instead of producing silently
// wrong events.
func Detect(candles []market.Candle) ([]Event, error) {
	for i := 1; i < len(candles); i++ {
		if candles[i].OpenTime <= candles[i-1].OpenTime {
			return nil, fmt.Errorf("candles not strictly ascending at index %d (%d after %d)",
				i, candles[i].OpenTime, candles[i-1].OpenTime)
		}
	}

	var events []Event
	for i := 0; i < len(candles); i++ {
		c := candles[i]
		if !triggerMinutes[c.Time().Minute()] {
			continue
		}
		// need four candles after the trigger to resolve the ladder
		if i+4 >= len(candles) {
			continue
		}
		expected := ExpectedSequence(c.Direction)
		outcome := Loss
		switch {
		case candles[i+1].Direction == expected[0]:
			outcome = Win
		case candles[i+2].Direction == expected[1]:
			outcome = WinGale1
		case candles[i+3].Direction == expected[2]:
			outcome = WinGale2
		case candles[i+4].Direction == expected[3]:
			outcome = WinGale3
		}
		events = append(events, Event{
			TriggerTime:      c.OpenTime,
			TriggerDirection: c.Direction,
			Expected:         expected,
			Outcome:          outcome,
		})
	}
	return events, nil
}
