// Package report renders trigger events and raw candle batches into the CSV
// and HTML blobs bundled into downloadable artifacts.
package report

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"gatilho/internal/market"
	"gatilho/internal/trigger"
)

// File is one named blob destined for an artifact.
type File struct {
	Name string
	Body []byte
}

// Meta describes the job a report belongs to.
type Meta struct {
	Asset       string
	Source      string
	StartDate   string
	EndDate     string
	GeneratedAt time.Time
}

const timeLayout = "2006-01-02 15:04:05"

// SequenceString joins an expected sequence into the readable arrow form used
// in reports ("Put → Put → Call → Call").
func SequenceString(seq [4]market.Direction) string {
	return string(seq[0]) + " → " + string(seq[1]) + " → " + string(seq[2]) + " → " + string(seq[3])
}

// EventsCSV renders one row per trigger event. Column names follow the
// original report format consumed by downstream spreadsheets.
func EventsCSV(events []trigger.Event) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"Horario_Gatilho", "Cor_Gatilho", "Sequencia_Esperada", "Resultado_Final"})
	for _, ev := range events {
		_ = w.Write([]string{
			time.UnixMilli(ev.TriggerTime).UTC().Format(timeLayout),
			string(ev.TriggerDirection),
			SequenceString(ev.Expected),
			string(ev.Outcome),
		})
	}
	w.Flush()
	return buf.Bytes()
}

// CandlesCSV renders one row per candle, used by extract mode.
func CandlesCSV(candles []market.Candle) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"Open_Time", "Open", "High", "Low", "Close", "Volume", "Resultado"})
	for _, c := range candles {
		_ = w.Write([]string{
			c.Time().Format(timeLayout),
			formatFloat(c.Open),
			formatFloat(c.High),
			formatFloat(c.Low),
			formatFloat(c.Close),
			formatFloat(c.Volume),
			string(c.Direction),
		})
	}
	w.Flush()
	return buf.Bytes()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
