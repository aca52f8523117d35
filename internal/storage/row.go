package storage

import (
	"math"
	"strconv"
	"time"

	"fintrack/internal/core"
)

// Row is one result row: ordered column names and their values as returned by
// the driver (int64, float64, string, time.Time or nil).
type Row struct {
	cols []string
	vals map[string]any
}

func newRow(cols []string, vals []any) Row {
	r := Row{cols: cols, vals: make(map[string]any, len(cols))}
	for i, c := range cols {
		v := vals[i]
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		r.vals[c] = v
	}
	return r
}

// Columns returns the column names in select order.
func (r Row) Columns() []string { return r.cols }

func (r Row) Value(col string) (any, bool) {
	v, ok := r.vals[col]
	return v, ok
}

func (r Row) IsNull(col string) bool {
	return r.vals[col] == nil
}

func (r Row) String(col string) string {
	switch v := r.vals[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return core.FormatTimestamp(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// StringPtr is String with NULL mapped to nil.
func (r Row) StringPtr(col string) *string {
	if r.IsNull(col) {
		return nil
	}
	s := r.String(col)
	return &s
}

// Int64 reads integer columns, rounding REAL values and parsing text.
func (r Row) Int64(col string) int64 {
	switch v := r.vals[col].(type) {
	case int64:
		return v
	case float64:
		return int64(math.Round(v))
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return int64(math.Round(f))
		}
	case bool:
		if v {
			return 1
		}
	}
	return 0
}

func (r Row) Int(col string) int {
	return int(r.Int64(col))
}

// Cents reads a column holding an integer number of cents.
func (r Row) Cents(col string) core.Money {
	return core.Money{Cents: r.Int64(col)}
}

// Time reads timestamp columns stored as text or parsed by the driver.
// Unparseable or NULL values yield the zero time.
func (r Row) Time(col string) time.Time {
	switch v := r.vals[col].(type) {
	case time.Time:
		return v.UTC()
	case string:
		t, err := core.ParseTimestamp(v)
		if err == nil {
			return t
		}
	case int64:
		return time.Unix(v, 0).UTC()
	}
	return time.Time{}
}
