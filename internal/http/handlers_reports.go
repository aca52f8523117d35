package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/charts"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// monthParams reads year/month for the report endpoints, answering the
// request itself when they are unusable.
func (s *Server) monthParams(w http.ResponseWriter, r *http.Request) (MonthParams, bool) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return MonthParams{}, false
	}
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, applog.OpReport, err)
		return MonthParams{}, false
	}
	return p, true
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request, owner int64) {
	p, ok := s.monthParams(w, r)
	if !ok {
		return
	}
	summary, err := s.backend.Reports.MonthlySummary(r.Context(), owner, p.Year, p.Month)
	if err != nil {
		writeError(w, r, applog.OpReport, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request, owner int64) {
	p, ok := s.monthParams(w, r)
	if !ok {
		return
	}
	totals, err := s.backend.Reports.MonthlyCategoryBreakdown(r.Context(), owner, p.Year, p.Month)
	if err != nil {
		writeError(w, r, applog.OpReport, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleYearlyOverview(w http.ResponseWriter, r *http.Request, owner int64) {
	p, ok := s.monthParams(w, r)
	if !ok {
		return
	}
	overview, err := s.backend.Reports.YearlyOverview(r.Context(), owner, p.Year)
	if err != nil {
		writeError(w, r, applog.OpReport, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleTopCategories(w http.ResponseWriter, r *http.Request, owner int64) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	q := r.URL.Query()
	limit, err := ParseLimit(q)
	if err != nil {
		writeError(w, r, applog.OpReport, err)
		return
	}
	dateRange, err := ParseDateRange(q)
	if err != nil {
		writeError(w, r, applog.OpReport, err)
		return
	}
	top, err := s.backend.Reports.TopSpendingCategories(r.Context(), owner, limit, dateRange)
	if err != nil {
		writeError(w, r, applog.OpReport, err)
		return
	}
	writeJSON(w, http.StatusOK, top)
}

func (s *Server) handleSpendingTrends(w http.ResponseWriter, r *http.Request, owner int64) {
	p, ok := s.monthParams(w, r)
	if !ok {
		return
	}
	trends, err := s.backend.Reports.SpendingTrends(r.Context(), owner, p.Year, p.Month)
	if err != nil {
		writeError(w, r, applog.OpReport, err)
		return
	}
	writeJSON(w, http.StatusOK, trends)
}

func (s *Server) handleDailySpending(w http.ResponseWriter, r *http.Request, owner int64) {
	p, ok := s.monthParams(w, r)
	if !ok {
		return
	}
	days, err := s.backend.Reports.DailySpending(r.Context(), owner, p.Year, p.Month)
	if err != nil {
		writeError(w, r, applog.OpReport, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

// handleSpendingByCategory totals every categorized transaction per category
// and kind in the optional from/to range.
func (s *Server) handleSpendingByCategory(w http.ResponseWriter, r *http.Request, owner int64) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	dateRange, err := ParseDateRange(r.URL.Query())
	if err != nil {
		writeError(w, r, applog.OpReport, err)
		return
	}
	totals, err := s.backend.Store.Categories.SpendingByCategory(r.Context(), owner, dateRange)
	if err != nil {
		writeError(w, r, applog.OpReport, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleDailyChart(w http.ResponseWriter, r *http.Request, owner int64) {
	p, ok := s.monthParams(w, r)
	if !ok {
		return
	}
	days, err := s.backend.Reports.DailySpending(r.Context(), owner, p.Year, p.Month)
	if err != nil {
		writeError(w, r, applog.OpReport, err)
		return
	}
	title := fmt.Sprintf("Daily activity %04d-%02d", p.Year, p.Month)
	png, err := s.backend.Charts.DailySeries(title, days)
	s.writeChart(w, r, png, err)
}

// handleCategoryChart draws the month's expense breakdown.
func (s *Server) handleCategoryChart(w http.ResponseWriter, r *http.Request, owner int64) {
	p, ok := s.monthParams(w, r)
	if !ok {
		return
	}
	totals, err := s.backend.Reports.MonthlyCategoryBreakdown(r.Context(), owner, p.Year, p.Month)
	if err != nil {
		writeError(w, r, applog.OpReport, err)
		return
	}
	kind := core.Expense
	if v := strings.TrimSpace(r.URL.Query().Get("kind")); v != "" {
		if kind, err = core.ParseKind(v); err != nil {
			writeError(w, r, applog.OpReport, err)
			return
		}
	}
	selected := make([]core.CategoryTotal, 0, len(totals))
	for _, t := range totals {
		if t.Kind == kind {
			selected = append(selected, t)
		}
	}
	title := fmt.Sprintf("%s by category %04d-%02d", strings.ToUpper(string(kind[:1]))+string(kind[1:]), p.Year, p.Month)
	png, err := s.backend.Charts.CategoryPie(title, selected)
	s.writeChart(w, r, png, err)
}

// writeChart sends a rendered PNG; an empty chart is 204.
func (s *Server) writeChart(w http.ResponseWriter, r *http.Request, png []byte, err error) {
	if errors.Is(err, charts.ErrNoData) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeError(w, r, applog.OpReport, err)
		return
	}
	NewJSONResponse().
		Header("Content-Length", strconv.Itoa(len(png))).
		Bytes("image/png", png).
		Write(w)
}
