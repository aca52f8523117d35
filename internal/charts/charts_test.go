package charts

import (
	"bytes"
	"errors"
	"testing"

	"fintrack/internal/core"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestDailySeries(t *testing.T) {
	g := NewGenerator()

	t.Run("renders a month", func(t *testing.T) {
		days := []core.DailyTotals{
			{Date: "2024-02-01", Day: 1, Income: core.Money{Cents: 500000}, Net: core.Money{Cents: 500000}},
			{Date: "2024-02-02", Day: 2, Expenses: core.Money{Cents: 2500}, Net: core.Money{Cents: -2500}},
			{Date: "2024-02-03", Day: 3},
		}
		png, err := g.DailySeries("February 2024", days)
		if err != nil {
			t.Fatalf("DailySeries() error = %v", err)
		}
		if !bytes.HasPrefix(png, pngMagic) {
			t.Error("output is not a PNG")
		}
	})

	t.Run("empty month still renders", func(t *testing.T) {
		days := []core.DailyTotals{{Date: "2024-03-01", Day: 1}, {Date: "2024-03-02", Day: 2}}
		if _, err := g.DailySeries("March 2024", days); err != nil {
			t.Fatalf("flat series should render, got %v", err)
		}
	})

	t.Run("too few points", func(t *testing.T) {
		if _, err := g.DailySeries("x", nil); !errors.Is(err, ErrNoData) {
			t.Errorf("expected ErrNoData, got %v", err)
		}
	})

	t.Run("bad date", func(t *testing.T) {
		days := []core.DailyTotals{{Date: "nope"}, {Date: "2024-03-02"}}
		if _, err := g.DailySeries("x", days); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestCategoryPie(t *testing.T) {
	g := NewGenerator()

	totals := []core.CategoryTotal{
		{Category: "Food & Dining", Kind: core.Expense, TotalAmount: core.Money{Cents: 30000}},
		{Category: "Transportation", Kind: core.Expense, TotalAmount: core.Money{Cents: 10000}},
		{Category: "Rounding", Kind: core.Expense, TotalAmount: core.Money{Cents: 1}},
	}
	png, err := g.CategoryPie("Spending", totals)
	if err != nil {
		t.Fatalf("CategoryPie() error = %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Error("output is not a PNG")
	}

	if _, err := g.CategoryPie("Spending", nil); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData for no totals, got %v", err)
	}
}
