package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// TestMiddleware_RecordsStatusAndDuration はミドルウェアがステータスと処理時間を記録することを検証する。
func TestMiddleware_RecordsStatusAndDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	handler := c.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/expenses/999", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	metricsHandler := Handler(reg)
	mw := httptest.NewRecorder()
	metricsHandler.ServeHTTP(mw, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(mw.Result().Body)
	bodyStr := string(body)

	if !strings.Contains(bodyStr, `kakeibo_http_status_total{status_code="404"} 1`) {
		t.Errorf("expected 404 status counter in metrics output, got:\n%s", bodyStr)
	}
	if !strings.Contains(bodyStr, "kakeibo_request_duration_seconds_count 1") {
		t.Errorf("expected duration sample count in metrics output, got:\n%s", bodyStr)
	}
}

// TestMiddleware_ImplicitStatus200 はWriteHeader未呼び出し時に200が記録されることを検証する。
func TestMiddleware_ImplicitStatus200(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	handler := c.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	metricsHandler := Handler(reg)
	mw := httptest.NewRecorder()
	metricsHandler.ServeHTTP(mw, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(mw.Result().Body)
	if !strings.Contains(string(body), `kakeibo_http_status_total{status_code="200"} 1`) {
		t.Error("expected implicit 200 status counter in metrics output")
	}
}
