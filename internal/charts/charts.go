// Package charts renders report data as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"fintrack/internal/core"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no data to chart")

// minSliceShare hides pie slices below this percentage of the total.
const minSliceShare = 1.0

var (
	incomeColor  = drawing.ColorFromHex("2ecc71")
	expenseColor = drawing.ColorFromHex("e74c3c")
	netColor     = drawing.ColorFromHex("3498db")
)

type Generator struct {
	Width  int
	Height int
}

func NewGenerator() *Generator {
	return &Generator{Width: 1200, Height: 600}
}

func background() chart.Style {
	return chart.Style{
		Padding:   chart.Box{Top: 50, Left: 50, Right: 50, Bottom: 50},
		FillColor: chart.ColorWhite,
	}
}

// DailySeries draws income, expenses and the running net for one month.
func (g *Generator) DailySeries(title string, days []core.DailyTotals) ([]byte, error) {
	if len(days) < 2 {
		return nil, ErrNoData
	}

	xValues := make([]time.Time, len(days))
	income := make([]float64, len(days))
	expenses := make([]float64, len(days))
	running := make([]float64, len(days))

	var balance float64
	for i, d := range days {
		day, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			return nil, fmt.Errorf("parse day %q: %w", d.Date, err)
		}
		xValues[i] = day
		income[i] = d.Income.Float64()
		expenses[i] = d.Expenses.Float64()
		balance += d.Net.Float64()
		running[i] = balance
	}

	graph := chart.Chart{
		Title:      title,
		Width:      g.Width,
		Height:     g.Height,
		Background: background(),
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("02 Jan"),
		},
		YAxis: chart.YAxis{
			Range: valueRange(income, expenses, running),
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.0f", v.(float64))
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Income",
				XValues: xValues,
				YValues: income,
				Style:   chart.Style{StrokeColor: incomeColor, StrokeWidth: 2},
			},
			chart.TimeSeries{
				Name:    "Expenses",
				XValues: xValues,
				YValues: expenses,
				Style:   chart.Style{StrokeColor: expenseColor, StrokeWidth: 2},
			},
			chart.TimeSeries{
				Name:    "Net",
				XValues: xValues,
				YValues: running,
				Style: chart.Style{
					StrokeColor:     netColor,
					StrokeWidth:     2,
					StrokeDashArray: []float64{5.0, 5.0},
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render daily chart: %w", err)
	}
	return buf.Bytes(), nil
}

// CategoryPie draws the share of each category in totals.
func (g *Generator) CategoryPie(title string, totals []core.CategoryTotal) ([]byte, error) {
	var sum float64
	for _, t := range totals {
		sum += t.TotalAmount.Float64()
	}
	if sum <= 0 {
		return nil, ErrNoData
	}

	values := make([]chart.Value, 0, len(totals))
	for _, t := range totals {
		amount := t.TotalAmount.Float64()
		share := amount / sum * 100
		if share < minSliceShare {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %s (%.1f%%)", t.Category, t.TotalAmount, share),
			Value: amount,
		})
	}

	pie := chart.PieChart{
		Title:      title,
		Width:      g.Height,
		Height:     g.Height,
		Values:     values,
		Background: background(),
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render category chart: %w", err)
	}
	return buf.Bytes(), nil
}

// valueRange spans every series and never collapses to zero height, which
// the renderer rejects.
func valueRange(series ...[]float64) *chart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, s := range series {
		for _, v := range s {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if hi-lo < 1 {
		hi = lo + 1
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}
