package market

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/rferrell/papertrade/internal/models"
)

// RenderPriceChart renders a PNG line chart of a symbol's price history.
// Returns raw PNG bytes.
func RenderPriceChart(symbol string, quotes []*models.Quote) ([]byte, error) {
	if len(quotes) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(quotes))
	}

	xValues := make([]time.Time, len(quotes))
	yValues := make([]float64, len(quotes))
	for i, q := range quotes {
		xValues[i] = q.ObservedAt
		yValues[i] = q.PriceDecimal().InexactFloat64()
	}

	priceSeries := chart.TimeSeries{
		Name: symbol,
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: yValues,
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s Price", symbol),
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 02 15:04")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("$%.2f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{priceSeries},
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
