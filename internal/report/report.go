// Package report derives read-only summaries from an owner's transactions:
// monthly and yearly totals, category breakdowns, trends and daily series.
//
// Months are half-open windows [first day, first day of next month) so the
// whole last day is counted. Sums are taken in integer cents.
package report

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/records"
	"fintrack/internal/storage"
)

// DefaultTopLimit applies when TopSpendingCategories is called with limit <= 0.
const DefaultTopLimit = 10

type Querier interface {
	Query(ctx context.Context, query string, args ...any) ([]storage.Row, error)
}

type Engine struct {
	db Querier
}

func New(db Querier) *Engine {
	return &Engine{db: db}
}

const sumCents = `SUM(CAST(ROUND(amount * 100) AS INTEGER))`

// MonthlySummary totals income and expenses of one calendar month. A month
// without transactions yields zeros.
func (e *Engine) MonthlySummary(ctx context.Context, owner int64, year, month int) (core.MonthlySummary, error) {
	w, err := core.NewMonthWindow(year, month)
	if err != nil {
		return core.MonthlySummary{}, err
	}
	return e.summary(ctx, owner, w)
}

func (e *Engine) summary(ctx context.Context, owner int64, w core.MonthWindow) (core.MonthlySummary, error) {
	rows, err := e.db.Query(ctx, `
		SELECT kind, COUNT(*) AS transaction_count, `+sumCents+` AS total_cents
		FROM transactions
		WHERE user_id = ?
		  AND datetime(occurred_at) >= datetime(?)
		  AND datetime(occurred_at) < datetime(?)
		GROUP BY kind`,
		owner, core.FormatTimestamp(w.Start), core.FormatTimestamp(w.End))
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("monthly summary %s: %w", w.Period(), err)
	}

	s := core.MonthlySummary{
		Year:      w.Year,
		Month:     w.Month,
		MonthName: w.MonthName(),
		Period:    w.Period(),
		StartDate: w.Start.Format("2006-01-02"),
		EndDate:   w.LastDay().Format("2006-01-02"),
	}
	for _, r := range rows {
		if core.Kind(r.String("kind")) == core.Deposit {
			s.TotalIncome = r.Cents("total_cents")
			s.IncomeCount = r.Int("transaction_count")
		} else {
			s.TotalExpenses = s.TotalExpenses.Add(r.Cents("total_cents"))
			s.ExpenseCount += r.Int("transaction_count")
		}
	}
	s.NetChange = s.TotalIncome.Sub(s.TotalExpenses)
	s.TotalCount = s.IncomeCount + s.ExpenseCount
	return s, nil
}

// MonthlyCategoryBreakdown totals one month per category and kind, largest
// first. Uncategorized transactions are left out.
func (e *Engine) MonthlyCategoryBreakdown(ctx context.Context, owner int64, year, month int) ([]core.CategoryTotal, error) {
	w, err := core.NewMonthWindow(year, month)
	if err != nil {
		return nil, err
	}
	rows, err := e.db.Query(ctx, `
		SELECT category, kind, COUNT(*) AS transaction_count, `+sumCents+` AS total_cents
		FROM transactions
		WHERE user_id = ?
		  AND datetime(occurred_at) >= datetime(?)
		  AND datetime(occurred_at) < datetime(?)
		  AND category IS NOT NULL
		GROUP BY category, kind
		ORDER BY total_cents DESC, category ASC`,
		owner, core.FormatTimestamp(w.Start), core.FormatTimestamp(w.End))
	if err != nil {
		return nil, fmt.Errorf("category breakdown %s: %w", w.Period(), err)
	}
	out := make([]core.CategoryTotal, 0, len(rows))
	for _, r := range rows {
		out = append(out, records.CategoryTotalFromRow(r))
	}
	return out, nil
}

// YearlyOverview returns all twelve months of year, zero-filled, plus totals.
func (e *Engine) YearlyOverview(ctx context.Context, owner int64, year int) (core.YearlyOverview, error) {
	jan, err := core.NewMonthWindow(year, 1)
	if err != nil {
		return core.YearlyOverview{}, err
	}
	rows, err := e.db.Query(ctx, `
		SELECT CAST(strftime('%m', occurred_at) AS INTEGER) AS month, kind,
		       COUNT(*) AS transaction_count, `+sumCents+` AS total_cents
		FROM transactions
		WHERE user_id = ?
		  AND datetime(occurred_at) >= datetime(?)
		  AND datetime(occurred_at) < datetime(?)
		GROUP BY month, kind
		ORDER BY month`,
		owner, core.FormatTimestamp(jan.Start), core.FormatTimestamp(jan.Start.AddDate(1, 0, 0)))
	if err != nil {
		return core.YearlyOverview{}, fmt.Errorf("yearly overview %d: %w", year, err)
	}

	ov := core.YearlyOverview{Year: year, Months: make([]core.MonthTotals, 12)}
	for i := range ov.Months {
		m, _ := core.NewMonthWindow(year, i+1)
		ov.Months[i] = core.MonthTotals{Month: i + 1, MonthName: m.MonthName()}
	}

	for _, r := range rows {
		idx := r.Int("month") - 1
		if idx < 0 || idx > 11 {
			continue
		}
		mt := &ov.Months[idx]
		if core.Kind(r.String("kind")) == core.Deposit {
			mt.Income = mt.Income.Add(r.Cents("total_cents"))
			mt.IncomeCount += r.Int("transaction_count")
		} else {
			mt.Expenses = mt.Expenses.Add(r.Cents("total_cents"))
			mt.ExpenseCount += r.Int("transaction_count")
		}
	}

	for i := range ov.Months {
		mt := &ov.Months[i]
		mt.Net = mt.Income.Sub(mt.Expenses)
		ov.Totals.Income = ov.Totals.Income.Add(mt.Income)
		ov.Totals.Expenses = ov.Totals.Expenses.Add(mt.Expenses)
		ov.Totals.Transactions += mt.IncomeCount + mt.ExpenseCount
	}
	ov.Totals.Net = ov.Totals.Income.Sub(ov.Totals.Expenses)
	return ov, nil
}

// TopSpendingCategories ranks expense categories by total within r.
func (e *Engine) TopSpendingCategories(ctx context.Context, owner int64, limit int, r core.DateRange) ([]core.CategoryTotal, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	query := `
		SELECT category, 'expense' AS kind, COUNT(*) AS transaction_count,
		       ` + sumCents + ` AS total_cents,
		       CAST(ROUND(AVG(amount) * 100) AS INTEGER) AS avg_cents
		FROM transactions
		WHERE user_id = ? AND kind = 'expense' AND category IS NOT NULL`
	args := []any{owner}

	from, to := r.Bounds()
	if from != "" {
		query += ` AND datetime(occurred_at) >= datetime(?)`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND datetime(occurred_at) < datetime(?)`
		args = append(args, to)
	}
	query += ` GROUP BY category ORDER BY total_cents DESC, category ASC LIMIT ?`
	args = append(args, limit)

	rows, err := e.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("top spending categories: %w", err)
	}
	out := make([]core.CategoryTotal, 0, len(rows))
	for _, row := range rows {
		out = append(out, records.CategoryTotalFromRow(row))
	}
	return out, nil
}

// SpendingTrends compares a month with the one before it.
func (e *Engine) SpendingTrends(ctx context.Context, owner int64, year, month int) (core.SpendingTrends, error) {
	w, err := core.NewMonthWindow(year, month)
	if err != nil {
		return core.SpendingTrends{}, err
	}
	cur, err := e.summary(ctx, owner, w)
	if err != nil {
		return core.SpendingTrends{}, err
	}
	prev, err := e.summary(ctx, owner, w.Previous())
	if err != nil {
		return core.SpendingTrends{}, err
	}
	return core.SpendingTrends{
		Current:  cur,
		Previous: prev,
		Trends: core.TrendDeltas{
			IncomeChangePct:  core.PercentChange(cur.TotalIncome, prev.TotalIncome),
			ExpenseChangePct: core.PercentChange(cur.TotalExpenses, prev.TotalExpenses),
			NetChange:        cur.NetChange.Sub(prev.NetChange),
		},
	}, nil
}

// DailySpending returns one zero-filled entry per calendar day of the month.
func (e *Engine) DailySpending(ctx context.Context, owner int64, year, month int) ([]core.DailyTotals, error) {
	w, err := core.NewMonthWindow(year, month)
	if err != nil {
		return nil, err
	}
	rows, err := e.db.Query(ctx, `
		SELECT DATE(occurred_at) AS day, kind, `+sumCents+` AS total_cents
		FROM transactions
		WHERE user_id = ?
		  AND datetime(occurred_at) >= datetime(?)
		  AND datetime(occurred_at) < datetime(?)
		GROUP BY day, kind
		ORDER BY day`,
		owner, core.FormatTimestamp(w.Start), core.FormatTimestamp(w.End))
	if err != nil {
		return nil, fmt.Errorf("daily spending %s: %w", w.Period(), err)
	}

	days := make([]core.DailyTotals, w.Days())
	index := make(map[string]int, len(days))
	for i := range days {
		d := w.Start.AddDate(0, 0, i)
		days[i] = core.DailyTotals{Date: d.Format("2006-01-02"), Day: d.Day()}
		index[days[i].Date] = i
	}

	for _, r := range rows {
		i, ok := index[r.String("day")]
		if !ok {
			continue
		}
		if core.Kind(r.String("kind")) == core.Deposit {
			days[i].Income = days[i].Income.Add(r.Cents("total_cents"))
		} else {
			days[i].Expenses = days[i].Expenses.Add(r.Cents("total_cents"))
		}
	}
	for i := range days {
		days[i].Net = days[i].Income.Sub(days[i].Expenses)
	}
	return days, nil
}
