package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "fintrack/internal/log"
)

func TestMiddlewareTagsRequests(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Output: &buf})
	m := NewMiddleware(func(*http.Request) string { return "198.51.100.4" })

	var seenID string
	h := applog.Middleware(logger)(m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
		applog.FromContext(r.Context()).Info("inside")
		w.WriteHeader(http.StatusCreated)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/transactions", nil))

	if !strings.HasPrefix(seenID, "req_") {
		t.Fatalf("request id = %q", seenID)
	}
	if rec.Header().Get(HeaderRequestID) != seenID {
		t.Errorf("response header %q != context id %q", rec.Header().Get(HeaderRequestID), seenID)
	}
	out := buf.String()
	for _, want := range []string{"request_id=" + seenID, "status_code=201", "client_ip=198.51.100.4", "HTTP request completed"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q: %s", want, out)
		}
	}
	if m.GetMetrics().TotalRequests != 1 {
		t.Errorf("TotalRequests = %d", m.GetMetrics().TotalRequests)
	}
}

func TestGenerateRequestIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateRequestID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
