package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	chart "github.com/wcharczuk/go-chart/v2"
)

// ChartWriter renders the top-N shares of a report as a PNG bar chart.
type ChartWriter struct {
	dir  string
	topN int
}

func NewChartWriter(dir string, topN int) *ChartWriter {
	if dir == "" {
		dir = "."
	}
	if topN <= 0 {
		topN = 20
	}
	return &ChartWriter{dir: dir, topN: topN}
}

func (w *ChartWriter) WriteReport(_ context.Context, rep Report) error {
	if len(rep.Rows) == 0 {
		return nil
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	limit := w.topN
	if limit > len(rep.Rows) {
		limit = len(rep.Rows)
	}

	bars := make([]chart.Value, 0, limit)
	for _, row := range rep.Rows[:limit] {
		bars = append(bars, chart.Value{
			Value: row.AmountPct,
			Label: shortAddress(row.Address),
		})
	}

	graph := chart.BarChart{
		Title:    fmt.Sprintf("%s top holders (%% of staked total)", rep.Contract),
		Height:   512,
		BarWidth: 40,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		Bars: bars,
	}

	path := filepath.Join(w.dir, rep.Contract+".png")
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	defer file.Close()

	if err := graph.Render(chart.PNG, file); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func shortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}
