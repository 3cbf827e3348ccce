package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLogging_RecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scans", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	if !strings.Contains(out, "status=202") {
		t.Errorf("log output missing status: %s", out)
	}
	if !strings.Contains(out, "path=/api/v1/scans") {
		t.Errorf("log output missing path: %s", out)
	}
}

func TestScrubQuery(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"page=2", "page=2"},
		{"api_key=abc123", "api_key=REDACTED"},
		{"page=2&token=xyz", "page=2&token=REDACTED"},
		{"Authorization=Bearer+x", "Authorization=REDACTED"},
	}
	for _, tt := range tests {
		if got := scrubQuery(tt.raw); got != tt.want {
			t.Errorf("scrubQuery(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
