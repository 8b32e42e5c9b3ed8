package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsHandlerExposesReportCounters(t *testing.T) {
	metrics := NewMetrics()
	metrics.ReportGenerated("comprehensive")
	metrics.PagesRendered(3)
	metrics.ExportFailed("pdf")

	body := scrape(t, metrics)
	if !strings.Contains(body, `eas_reports_generated_total{type="comprehensive"} 1`) {
		t.Fatalf("report counter missing, got: %s", body)
	}
	if !strings.Contains(body, "eas_report_pages_rendered_sum 3") {
		t.Fatalf("pages histogram missing, got: %s", body)
	}
	if !strings.Contains(body, `eas_export_failures_total{format="pdf"} 1`) {
		t.Fatalf("export failure counter missing, got: %s", body)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/reports")

	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, "eas_http_requests_total{code=\"418\",route=\"/reports\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, "eas_http_request_duration_seconds_bucket{route=\"/reports\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ReportGenerated("comprehensive")
	m.PagesRendered(1)
	m.ExportFailed("csv")

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("nil metrics handler status = %d", rr.Code)
	}
}
