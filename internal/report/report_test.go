package report

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/records"
	"fintrack/internal/storage"
)

type fixture struct {
	engine *Engine
	store  *records.Store
	owner  int64
	other  int64
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := storage.New(storage.Options{
		DSN:    filepath.Join(t.TempDir(), "report.db"),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(func() { db.Close() })

	store := records.NewStore(db)
	ctx := context.Background()
	a, err := store.Users.Create(ctx, core.User{GoogleID: "a", Email: "a@example.com", Name: "A"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := store.Users.Create(ctx, core.User{GoogleID: "b", Email: "b@example.com", Name: "B"})
	if err != nil {
		t.Fatal(err)
	}
	return fixture{engine: New(db), store: store, owner: a.ID, other: b.ID}
}

func (f fixture) add(t *testing.T, owner int64, cents int64, kind core.Kind, category string, at time.Time) {
	t.Helper()
	tx := core.Transaction{Amount: core.Money{Cents: cents}, Description: "tx", Kind: kind, OccurredAt: at}
	if category != "" {
		tx.Category = &category
	}
	if _, err := f.store.Transactions.Create(context.Background(), owner, tx); err != nil {
		t.Fatal(err)
	}
}

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestMonthlySummaryScenario(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.add(t, f.owner, 500000, core.Deposit, "Salary", day(2024, 3, 1, 9))
	f.add(t, f.owner, 120000, core.Expense, "Bills & Utilities", day(2024, 3, 2, 10))
	f.add(t, f.owner, 30000, core.Expense, "Groceries", day(2024, 3, 10, 18))
	f.add(t, f.owner, 15000, core.Expense, "Gas", day(2024, 3, 20, 7))
	f.add(t, f.owner, 10000, core.Expense, "Entertainment", day(2024, 3, 31, 23)) // last day counts
	// outside the month or owned by someone else
	f.add(t, f.owner, 99900, core.Expense, "Travel", day(2024, 4, 1, 0))
	f.add(t, f.owner, 99900, core.Expense, "Travel", day(2024, 2, 29, 23))
	f.add(t, f.other, 77700, core.Deposit, "Salary", day(2024, 3, 15, 12))

	s, err := f.engine.MonthlySummary(ctx, f.owner, 2024, 3)
	if err != nil {
		t.Fatal(err)
	}
	if s.TotalIncome.String() != "5000.00" || s.TotalExpenses.String() != "1750.00" || s.NetChange.String() != "3250.00" {
		t.Fatalf("unexpected totals %+v", s)
	}
	if s.TotalCount != 5 || s.IncomeCount != 1 || s.ExpenseCount != 4 {
		t.Fatalf("unexpected counts %+v", s)
	}
	if s.Period != "March 2024" || s.StartDate != "2024-03-01" || s.EndDate != "2024-03-31" {
		t.Fatalf("unexpected labels %+v", s)
	}
}

func TestMonthlySummaryEmptyAndInvalid(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	s, err := f.engine.MonthlySummary(ctx, f.owner, 2019, 7)
	if err != nil {
		t.Fatal(err)
	}
	if !s.TotalIncome.IsZero() || !s.TotalExpenses.IsZero() || !s.NetChange.IsZero() || s.TotalCount != 0 {
		t.Fatalf("expected zeros, got %+v", s)
	}

	if _, err := f.engine.MonthlySummary(ctx, f.owner, 2024, 13); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMonthlyCategoryBreakdown(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.add(t, f.owner, 1000, core.Expense, "Groceries", day(2024, 6, 3, 10))
	f.add(t, f.owner, 2500, core.Expense, "Groceries", day(2024, 6, 4, 10))
	f.add(t, f.owner, 9000, core.Deposit, "Refund", day(2024, 6, 5, 10))
	f.add(t, f.owner, 100000, core.Expense, "", day(2024, 6, 6, 10))

	got, err := f.engine.MonthlyCategoryBreakdown(ctx, f.owner, 2024, 6)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("uncategorized rows must be excluded, got %+v", got)
	}
	if got[0].Category != "Refund" || got[0].Kind != core.Deposit || got[0].TotalAmount.Cents != 9000 {
		t.Fatalf("unexpected first entry %+v", got[0])
	}
	if got[1].Category != "Groceries" || got[1].TransactionCount != 2 || got[1].TotalAmount.Cents != 3500 {
		t.Fatalf("unexpected second entry %+v", got[1])
	}
}

func TestYearlyOverviewIsDense(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	empty, err := f.engine.YearlyOverview(ctx, f.owner, 2023)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty.Months) != 12 {
		t.Fatalf("expected 12 months, got %d", len(empty.Months))
	}

	f.add(t, f.owner, 10000, core.Deposit, "", day(2024, 2, 10, 10))
	f.add(t, f.owner, 2500, core.Expense, "", day(2024, 2, 11, 10))
	f.add(t, f.owner, 4000, core.Expense, "", day(2024, 11, 30, 23))
	f.add(t, f.owner, 4000, core.Expense, "", day(2025, 1, 1, 0))

	ov, err := f.engine.YearlyOverview(ctx, f.owner, 2024)
	if err != nil {
		t.Fatal(err)
	}
	if len(ov.Months) != 12 {
		t.Fatalf("expected 12 months, got %d", len(ov.Months))
	}
	for i, m := range ov.Months {
		if m.Month != i+1 || m.MonthName != time.Month(i+1).String() {
			t.Fatalf("month %d mislabeled: %+v", i, m)
		}
		switch m.Month {
		case 2:
			if m.Income.Cents != 10000 || m.Expenses.Cents != 2500 || m.Net.Cents != 7500 || m.IncomeCount != 1 || m.ExpenseCount != 1 {
				t.Fatalf("february wrong: %+v", m)
			}
		case 11:
			if m.Expenses.Cents != 4000 || m.Net.Cents != -4000 {
				t.Fatalf("november wrong: %+v", m)
			}
		default:
			if !m.Income.IsZero() || !m.Expenses.IsZero() || !m.Net.IsZero() {
				t.Fatalf("month %d should be zero: %+v", m.Month, m)
			}
		}
	}
	if ov.Totals.Income.Cents != 10000 || ov.Totals.Expenses.Cents != 6500 || ov.Totals.Net.Cents != 3500 || ov.Totals.Transactions != 3 {
		t.Fatalf("unexpected totals %+v", ov.Totals)
	}
}

func TestTopSpendingCategories(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.add(t, f.owner, 1000, core.Expense, "A", day(2024, 1, 5, 10))
	f.add(t, f.owner, 3000, core.Expense, "A", day(2024, 1, 6, 10))
	f.add(t, f.owner, 5000, core.Expense, "B", day(2024, 1, 7, 10))
	f.add(t, f.owner, 100, core.Expense, "C", day(2024, 2, 7, 10))
	f.add(t, f.owner, 999999, core.Deposit, "Salary", day(2024, 1, 7, 10))

	top, err := f.engine.TopSpendingCategories(ctx, f.owner, 2, core.DateRange{})
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 || top[0].Category != "B" || top[1].Category != "A" {
		t.Fatalf("unexpected ranking %+v", top)
	}
	if top[1].AverageAmount.Cents != 2000 || top[1].Kind != core.Expense {
		t.Fatalf("unexpected average %+v", top[1])
	}

	jan := core.DateRange{From: day(2024, 1, 1, 0), To: day(2024, 1, 31, 0)}
	inJan, _ := f.engine.TopSpendingCategories(ctx, f.owner, 0, jan)
	if len(inJan) != 2 {
		t.Fatalf("date range not applied: %+v", inJan)
	}
}

func TestSpendingTrends(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// January 2024 has activity, December 2023 none.
	f.add(t, f.owner, 20000, core.Deposit, "", day(2024, 1, 10, 10))
	tr, err := f.engine.SpendingTrends(ctx, f.owner, 2024, 1)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Previous.Year != 2023 || tr.Previous.Month != 12 {
		t.Fatalf("previous month should wrap the year: %+v", tr.Previous)
	}
	if tr.Trends.IncomeChangePct != 100 {
		t.Fatalf("income change from zero should be 100, got %v", tr.Trends.IncomeChangePct)
	}
	if tr.Trends.ExpenseChangePct != 0 {
		t.Fatalf("expense change with both zero should be 0, got %v", tr.Trends.ExpenseChangePct)
	}
	if tr.Trends.NetChange.Cents != 20000 {
		t.Fatalf("net change is absolute, got %s", tr.Trends.NetChange)
	}

	f.add(t, f.owner, 10000, core.Expense, "", day(2024, 1, 15, 10))
	f.add(t, f.owner, 15000, core.Expense, "", day(2024, 2, 15, 10))
	tr, _ = f.engine.SpendingTrends(ctx, f.owner, 2024, 2)
	if tr.Trends.ExpenseChangePct != 50 || tr.Trends.IncomeChangePct != -100 {
		t.Fatalf("unexpected percentages %+v", tr.Trends)
	}
	// net: feb -150.00, jan +100.00
	if tr.Trends.NetChange.Cents != -25000 {
		t.Fatalf("unexpected net change %s", tr.Trends.NetChange)
	}
}

func TestDailySpendingIsDense(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cases := []struct {
		year, month, days int
	}{
		{2024, 1, 31},
		{2024, 2, 29},
		{2023, 2, 28},
		{2024, 4, 30},
	}
	for _, tc := range cases {
		got, err := f.engine.DailySpending(ctx, f.owner, tc.year, tc.month)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != tc.days {
			t.Fatalf("%d-%02d: expected %d entries, got %d", tc.year, tc.month, tc.days, len(got))
		}
		if got[0].Day != 1 || got[len(got)-1].Day != tc.days {
			t.Fatalf("%d-%02d: bad day numbering", tc.year, tc.month)
		}
	}

	f.add(t, f.owner, 1234, core.Expense, "", day(2024, 2, 29, 22))
	f.add(t, f.owner, 5000, core.Deposit, "", day(2024, 2, 29, 8))
	f.add(t, f.owner, 700, core.Expense, "", day(2024, 2, 1, 0))

	feb, err := f.engine.DailySpending(ctx, f.owner, 2024, 2)
	if err != nil {
		t.Fatal(err)
	}
	last := feb[28]
	if last.Date != "2024-02-29" || last.Expenses.Cents != 1234 || last.Income.Cents != 5000 || last.Net.Cents != 3766 {
		t.Fatalf("unexpected leap day entry %+v", last)
	}
	if feb[0].Expenses.Cents != 700 || feb[0].Net.Cents != -700 {
		t.Fatalf("unexpected first day %+v", feb[0])
	}
	for _, d := range feb[1:28] {
		if !d.Income.IsZero() || !d.Expenses.IsZero() {
			t.Fatalf("day %d should be zero-filled", d.Day)
		}
	}
}
