package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatilho/internal/market"
	"gatilho/internal/trigger"
)

func sampleEvents() []trigger.Event {
	base := time.Date(2024, 1, 2, 10, 4, 0, 0, time.UTC)
	return []trigger.Event{
		{
			TriggerTime:      base.UnixMilli(),
			TriggerDirection: market.Call,
			Expected:         trigger.ExpectedSequence(market.Call),
			Outcome:          trigger.Win,
		},
		{
			TriggerTime:      base.Add(5 * time.Minute).UnixMilli(),
			TriggerDirection: market.Put,
			Expected:         trigger.ExpectedSequence(market.Put),
			Outcome:          trigger.Loss,
		},
		{
			TriggerTime:      base.Add(10 * time.Minute).UnixMilli(),
			TriggerDirection: market.Call,
			Expected:         trigger.ExpectedSequence(market.Call),
			Outcome:          trigger.WinGale2,
		},
	}
}

func TestSequenceString(t *testing.T) {
	assert.Equal(t, "Put → Put → Call → Call", SequenceString(trigger.ExpectedSequence(market.Call)))
}

func TestEventsCSV(t *testing.T) {
	body := EventsCSV(sampleEvents())
	rows, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Horario_Gatilho", "Cor_Gatilho", "Sequencia_Esperada", "Resultado_Final"}, rows[0])
	assert.Equal(t, []string{"2024-01-02 10:04:00", "Call", "Put → Put → Call → Call", "WIN"}, rows[1])
	assert.Equal(t, []string{"2024-01-02 10:09:00", "Put", "Call → Call → Put → Put", "LOSS"}, rows[2])
	assert.Equal(t, "WIN GALE 2", rows[3][3])
}

func TestCandlesCSV(t *testing.T) {
	candles := []market.Candle{
		{
			OpenTime:  time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC).UnixMilli(),
			Open:      1.085,
			High:      1.0862,
			Low:       1.0841,
			Close:     1.0855,
			Volume:    120.5,
			Direction: market.Call,
		},
	}
	rows, err := csv.NewReader(bytes.NewReader(CandlesCSV(candles))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Open_Time", "Open", "High", "Low", "Close", "Volume", "Resultado"}, rows[0])
	assert.Equal(t, []string{"2024-01-02 10:00:00", "1.085", "1.0862", "1.0841", "1.0855", "120.5", "Call"}, rows[1])
}

func TestOutcomeSharesCoverAllRungs(t *testing.T) {
	shares := OutcomeShares(sampleEvents())
	require.Len(t, shares, 5)

	byOutcome := make(map[trigger.Outcome]OutcomeShare, len(shares))
	total := 0.0
	for _, s := range shares {
		byOutcome[s.Outcome] = s
		total += s.Percent
	}
	assert.Equal(t, 1, byOutcome[trigger.Win].Count)
	assert.Equal(t, 1, byOutcome[trigger.Loss].Count)
	assert.Equal(t, 1, byOutcome[trigger.WinGale2].Count)
	assert.Zero(t, byOutcome[trigger.WinGale1].Count)
	assert.InDelta(t, 33.33, byOutcome[trigger.Win].Percent, 0.001)
	assert.InDelta(t, 100.0, total, 0.1)
}

func TestOutcomeSharesEmpty(t *testing.T) {
	shares := OutcomeShares(nil)
	require.Len(t, shares, 5)
	for _, s := range shares {
		assert.Zero(t, s.Count)
		assert.Zero(t, s.Percent)
	}
}

func TestHTMLDeterministic(t *testing.T) {
	meta := Meta{
		Asset:       "EURUSD",
		Source:      "polygon",
		StartDate:   "2024-01-01",
		EndDate:     "2024-01-05",
		GeneratedAt: time.Date(2024, 1, 6, 12, 0, 0, 0, time.UTC),
	}
	events := sampleEvents()

	first, err := HTML(meta, events, IndicatorSnapshot{})
	require.NoError(t, err)
	second, err := HTML(meta, events, IndicatorSnapshot{})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	page := string(first)
	assert.Contains(t, page, "Relatório de Análise de Gatilho")
	assert.Contains(t, page, "EURUSD")
	assert.Contains(t, page, "2024-01-02 10:04:00")
	assert.Contains(t, page, "WIN GALE 2")
	// indicators section only renders once there is enough history
	assert.NotContains(t, page, "Indicadores")
}

func TestIndicatorsNeedHistory(t *testing.T) {
	short := make([]market.Candle, 10)
	snap := Indicators(short)
	assert.False(t, snap.Ready)

	closes := make([]market.Candle, 60)
	for i := range closes {
		closes[i] = market.Candle{Close: 1.0 + float64(i)*0.001}
	}
	snap = Indicators(closes)
	require.True(t, snap.Ready)
	assert.Equal(t, closes[59].Close, snap.LastClose)
	assert.Greater(t, snap.RSI14, 50.0) // monotonically rising series
	assert.Greater(t, snap.EMA9, 0.0)
	assert.Greater(t, snap.SMA21, 0.0)
}

func TestOutcomeChartRenders(t *testing.T) {
	file, err := OutcomeChart(Meta{Asset: "EURUSD"}, sampleEvents())
	require.NoError(t, err)
	assert.Equal(t, "grafico.html", file.Name)
	page := string(file.Body)
	assert.True(t, strings.Contains(page, "echarts"))
	assert.Contains(t, page, "WIN")
}
