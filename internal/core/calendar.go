package core

import "time"

// MonthWindow is the half-open interval [Start, End) covering one calendar
// month in UTC.
type MonthWindow struct {
	Year  int
	Month int
	Start time.Time
	End   time.Time
}

// NewMonthWindow validates year/month and returns the month's interval.
func NewMonthWindow(year, month int) (MonthWindow, error) {
	if year < 1900 || year > 9999 {
		return MonthWindow{}, ErrInvalidYear
	}
	if month < 1 || month > 12 {
		return MonthWindow{}, ErrInvalidMonth
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return MonthWindow{Year: year, Month: month, Start: start, End: start.AddDate(0, 1, 0)}, nil
}

// Previous returns the window of the preceding calendar month.
func (w MonthWindow) Previous() MonthWindow {
	start := w.Start.AddDate(0, -1, 0)
	return MonthWindow{Year: start.Year(), Month: int(start.Month()), Start: start, End: w.Start}
}

// LastDay is the final calendar day inside the window.
func (w MonthWindow) LastDay() time.Time {
	return w.End.AddDate(0, 0, -1)
}

// Days is the number of calendar days in the month (28-31).
func (w MonthWindow) Days() int {
	return w.LastDay().Day()
}

func (w MonthWindow) MonthName() string {
	return time.Month(w.Month).String()
}

// Period renders e.g. "February 2024".
func (w MonthWindow) Period() string {
	return w.Start.Format("January 2006")
}

// DateRange is an inclusive range of calendar days. A zero bound is open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Bounds converts the range to half-open timestamp strings; empty strings mean
// no bound.
func (r DateRange) Bounds() (from, to string) {
	if !r.From.IsZero() {
		from = FormatTimestamp(truncateDay(r.From))
	}
	if !r.To.IsZero() {
		to = FormatTimestamp(truncateDay(r.To).AddDate(0, 0, 1))
	}
	return from, to
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
