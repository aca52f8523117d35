package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/records"
	"fintrack/internal/storage"
)

func TestJSONResponseBuilder(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Test", "1").
		Data(map[string]any{"amount": core.Money{Cents: 1050}}).
		Write(rec)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("content type = %q", ct)
	}
	if rec.Header().Get("X-Test") != "1" {
		t.Error("custom header missing")
	}
	if !strings.Contains(rec.Body.String(), `"amount":"10.50"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestJSONResponseBuilderNoBody(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(rec)
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Errorf("got %d with %d bytes", rec.Code, rec.Body.Len())
	}
}

func TestJSONResponseBuilderBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse().Bytes("image/png", []byte("\x89PNG")).Write(rec)
	if rec.Header().Get("Content-Type") != "image/png" || rec.Body.String() != "\x89PNG" {
		t.Errorf("got %q %q", rec.Header().Get("Content-Type"), rec.Body.String())
	}
}

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
		hidden     string
	}{
		{"validation", core.ErrEmptyDescription, http.StatusUnprocessableEntity, "invalid description: cannot be empty", ""},
		{"not found", fmt.Errorf("get transaction 9: %w", records.ErrNotFound), http.StatusNotFound, "not found", "transaction 9"},
		{"conflict", fmt.Errorf("category %q: %w", "Food", records.ErrConflict), http.StatusConflict, "already exists", "Food"},
		{"storage down", fmt.Errorf("%w: open /var/db: permission denied", storage.ErrStorageUnavailable), http.StatusServiceUnavailable, "storage temporarily unavailable", "/var/db"},
		{"unexpected", fmt.Errorf("SQL logic error near SELECT"), http.StatusInternalServerError, "internal error", "SELECT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil), "test", tt.err)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body errorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Error != tt.wantMsg {
				t.Errorf("message = %q, want %q", body.Error, tt.wantMsg)
			}
			if tt.hidden != "" && strings.Contains(rec.Body.String(), tt.hidden) {
				t.Errorf("internal detail %q leaked: %s", tt.hidden, rec.Body.String())
			}
		})
	}
}
