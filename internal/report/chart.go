package report

import (
	"bytes"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"gatilho/internal/trigger"
)

// OutcomeChart renders the outcome distribution as a standalone bar-chart
// page, bundled into analysis artifacts next to the tabular report.
func OutcomeChart(meta Meta, events []trigger.Event) (File, error) {
	shares := OutcomeShares(events)

	labels := make([]string, 0, len(shares))
	values := make([]opts.BarData, 0, len(shares))
	for _, s := range shares {
		labels = append(labels, string(s.Outcome))
		values = append(values, opts.BarData{Value: s.Count})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Distribuição de Resultados - %s", meta.Asset),
			Subtitle: fmt.Sprintf("%s a %s", meta.StartDate, meta.EndDate),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels).AddSeries("Gatilhos", values)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		return File{}, fmt.Errorf("rendering outcome chart: %w", err)
	}
	return File{Name: "grafico.html", Body: buf.Bytes()}, nil
}
