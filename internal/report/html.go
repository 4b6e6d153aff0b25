package report

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"gatilho/internal/trigger"
)

const htmlTemplate = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Análise de Gatilho - {{.Meta.Asset}}</title>
<style>
body{font-family:Arial,sans-serif;margin:24px;}
table{border-collapse:collapse;width:100%;margin-bottom:24px;}
th,td{border:1px solid #ddd;padding:8px;text-align:left;}
th{background-color:#f2f2f2;}
</style></head><body>
<h1>Relatório de Análise de Gatilho</h1>
<h2>Ativo: {{.Meta.Asset}} ({{.Meta.Source}})</h2>
<p>Período: {{.Meta.StartDate}} a {{.Meta.EndDate}}</p>
<p>Data de Geração: {{.Generated}}</p>
<h3>Estatísticas de Resultado</h3>
<table>
<tr><th>Resultado</th><th>Ocorrências</th><th>%</th></tr>
{{range .Shares}}<tr><td>{{.Outcome}}</td><td>{{.Count}}</td><td>{{printf "%.2f" .Percent}}</td></tr>
{{end}}</table>
{{if .Indicators.Ready}}<h3>Indicadores (fechamento)</h3>
<table>
<tr><th>Último Fechamento</th><th>RSI(14)</th><th>EMA(9)</th><th>SMA(21)</th></tr>
<tr><td>{{printf "%.5f" .Indicators.LastClose}}</td><td>{{printf "%.2f" .Indicators.RSI14}}</td><td>{{printf "%.5f" .Indicators.EMA9}}</td><td>{{printf "%.5f" .Indicators.SMA21}}</td></tr>
</table>
{{end}}<h3>Detalhes das Operações</h3>
<table>
<tr><th>Horario_Gatilho</th><th>Cor_Gatilho</th><th>Sequencia_Esperada</th><th>Resultado_Final</th></tr>
{{range .Rows}}<tr><td>{{.Time}}</td><td>{{.Direction}}</td><td>{{.Sequence}}</td><td>{{.Outcome}}</td></tr>
{{end}}</table>
</body></html>
`

var reportTemplate = template.Must(template.New("report").Parse(htmlTemplate))

type htmlRow struct {
	Time      string
	Direction string
	Sequence  string
	Outcome   string
}

// HTML renders the analysis summary page. Output is byte-identical for
// identical input except for the generation timestamp in Meta.
func HTML(meta Meta, events []trigger.Event, indicators IndicatorSnapshot) ([]byte, error) {
	rows := make([]htmlRow, 0, len(events))
	for _, ev := range events {
		rows = append(rows, htmlRow{
			Time:      time.UnixMilli(ev.TriggerTime).UTC().Format(timeLayout),
			Direction: string(ev.TriggerDirection),
			Sequence:  SequenceString(ev.Expected),
			Outcome:   string(ev.Outcome),
		})
	}
	data := struct {
		Meta       Meta
		Generated  string
		Shares     []OutcomeShare
		Indicators IndicatorSnapshot
		Rows       []htmlRow
	}{
		Meta:       meta,
		Generated:  meta.GeneratedAt.UTC().Format(timeLayout),
		Shares:     OutcomeShares(events),
		Indicators: indicators,
		Rows:       rows,
	}
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering report html: %w", err)
	}
	return buf.Bytes(), nil
}
