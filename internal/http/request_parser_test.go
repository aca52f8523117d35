package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestParseMonthParams(t *testing.T) {
	now := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		query     string
		want      MonthParams
		wantError bool
	}{
		{"defaults", "", MonthParams{2024, 7}, false},
		{"explicit", "year=2023&month=12", MonthParams{2023, 12}, false},
		{"trimmed", "year=%202022%20&month=1", MonthParams{2022, 1}, false},
		{"only month", "month=3", MonthParams{2024, 3}, false},
		{"bad month", "month=march", MonthParams{}, true},
		{"bad year", "year=20x4", MonthParams{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got, err := ParseMonthParams(q, now)
			if (err != nil) != tt.wantError {
				t.Fatalf("error = %v, wantError %v", err, tt.wantError)
			}
			if err != nil {
				if !errors.Is(err, core.ErrValidation) {
					t.Errorf("error %v should be a validation error", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseDateRange(t *testing.T) {
	q := url.Values{"from": {"2024-01-01"}, "to": {"2024-01-31"}}
	r, err := ParseDateRange(q)
	if err != nil {
		t.Fatal(err)
	}
	if r.From.Day() != 1 || r.To.Day() != 31 {
		t.Errorf("range = %+v", r)
	}

	if r, err := ParseDateRange(url.Values{}); err != nil || !r.From.IsZero() || !r.To.IsZero() {
		t.Errorf("empty query should give an open range, got %+v %v", r, err)
	}

	for _, bad := range []url.Values{
		{"from": {"01/01/2024"}},
		{"to": {"tomorrow"}},
		{"from": {"2024-02-01"}, "to": {"2024-01-01"}},
	} {
		if _, err := ParseDateRange(bad); !errors.Is(err, core.ErrValidation) {
			t.Errorf("ParseDateRange(%v) error = %v, want validation error", bad, err)
		}
	}
}

func TestParseLimit(t *testing.T) {
	tests := map[string]struct {
		want    int
		wantErr bool
	}{
		"":    {0, false},
		"5":   {5, false},
		"0":   {0, false},
		"-1":  {0, true},
		"ten": {0, true},
	}
	for in, tt := range tests {
		got, err := ParseLimit(url.Values{"limit": {in}})
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLimit(%q) = %d, %v", in, got, err)
		}
	}
}

func TestParsePathID(t *testing.T) {
	mux := http.NewServeMux()
	var got int64
	var gotErr error
	mux.HandleFunc("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = ParsePathID(r)
	})

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/42", nil))
	if gotErr != nil || got != 42 {
		t.Errorf("ParsePathID = %d, %v", got, gotErr)
	}
	for _, bad := range []string{"/items/0", "/items/-3", "/items/x"} {
		mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, bad, nil))
		if gotErr == nil {
			t.Errorf("%s should be rejected", bad)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Amount core.Money `json:"amount"`
		Note   string     `json:"note"`
	}
	tests := []struct {
		name        string
		contentType string
		body        string
		wantErr     error
	}{
		{"valid", "application/json", `{"amount":"12.30","note":"x"}`, nil},
		{"charset", "application/json; charset=utf-8", `{"amount":1}`, nil},
		{"no content type", "", `{"amount":1}`, nil},
		{"form", "application/x-www-form-urlencoded", `amount=1`, errUnsupportedMediaType},
		{"unknown field", "application/json", `{"amount":1,"owner":2}`, errBadBody},
		{"trailing", "application/json", `{"amount":1}{"amount":2}`, errBadBody},
		{"empty", "application/json", ``, errBadBody},
		{"bad amount", "application/json", `{"amount":true}`, core.ErrValidation},
		{"too large", "application/json", `{"note":"` + strings.Repeat("a", maxBodyBytes) + `"}`, errBodyTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			var p payload
			err := DecodeJSON(httptest.NewRecorder(), req, &p)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("DecodeJSON() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeJSON() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequireMethod(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if RequireMethod(req, http.MethodGet, http.MethodHead) != nil {
		t.Error("GET should be allowed")
	}
	resp := RequireMethod(req, http.MethodPost, http.MethodPut)
	if resp == nil {
		t.Fatal("GET should be rejected")
	}
	rec := httptest.NewRecorder()
	resp.Write(rec)
	if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") != "POST, PUT" {
		t.Errorf("got %d Allow=%q", rec.Code, rec.Header().Get("Allow"))
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  a\x00b\tc\n "); got != "ab\tc" {
		t.Errorf("sanitizeInput = %q", got)
	}
	blank := "   "
	if optionalString(&blank) != nil || optionalString(nil) != nil {
		t.Error("blank optional strings should be nil")
	}
}
