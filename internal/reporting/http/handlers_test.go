package reporthttp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eas-platform/eas/internal/campus"
	"github.com/eas-platform/eas/internal/render"
	"github.com/eas-platform/eas/internal/reporting"
	"github.com/eas-platform/eas/internal/scope"
	"github.com/eas-platform/eas/internal/shared"
)

type stubService struct {
	report   *reporting.Report
	err      error
	campuses []campus.Campus

	lastPrincipal scope.Principal
	lastRequest   reporting.Request
}

func (s *stubService) Generate(ctx context.Context, p scope.Principal, req reporting.Request) (*reporting.Report, error) {
	s.lastPrincipal = p
	s.lastRequest = req
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func (s *stubService) AccessibleCampuses(ctx context.Context, p scope.Principal) ([]campus.Campus, error) {
	s.lastPrincipal = p
	return s.campuses, s.err
}

func (s *stubService) CampusStatistics(ctx context.Context, p scope.Principal, campusID int64) (*reporting.Report, error) {
	s.lastPrincipal = p
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func stubReport(rows int) *reporting.Report {
	rep := &reporting.Report{}
	rep.Meta.Type = reporting.ReportComprehensive
	rep.Meta.GeneratedAt = time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	for i := 0; i < rows; i++ {
		rep.Data.Rows = append(rep.Data.Rows, reporting.DetailRow{
			AttendanceID: int64(i + 1),
			StudentName:  fmt.Sprintf("Student %d", i+1),
			Status:       reporting.AttendancePresent,
			MarkedAt:     rep.Meta.GeneratedAt,
		})
	}
	rep.Meta.RowCount = rows
	rep.Export = reporting.ExportInfo{Formats: []string{"json", "csv", "pdf"}, Available: rows > 0}
	return rep
}

func testRouter(service ReportService) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, service, RenderConfig{Layout: render.DefaultLayout()}, nil)
	r := chi.NewRouter()
	r.Use(IdentityMiddleware)
	h.MountRoutes(r)
	return r
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("X-User-ID", "42")
	req.Header.Set("X-User-Role", "campus_admin")
	req.Header.Set("X-Campus-ID", "1")
	req.Header.Set("X-Granted-Campuses", "1, 2")
	return req
}

func TestGenerateRequiresIdentity(t *testing.T) {
	router := testRouter(&stubService{report: stubReport(1)})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGenerateRejectsUnknownRole(t *testing.T) {
	router := testRouter(&stubService{report: stubReport(1)})
	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	req.Header.Set("X-User-ID", "42")
	req.Header.Set("X-User-Role", "janitor")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGenerateReturnsReport(t *testing.T) {
	service := &stubService{report: stubReport(2)}
	router := testRouter(service)

	req := authed(httptest.NewRequest(http.MethodGet, "/reports?type=attendance&from=2026-01-01&to=2026-03-31", nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var rep reporting.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, 2, rep.Meta.RowCount)

	assert.Equal(t, int64(42), service.lastPrincipal.UserID)
	assert.Equal(t, scope.RoleCampusAdmin, service.lastPrincipal.Role)
	assert.Equal(t, []int64{1, 2}, service.lastPrincipal.GrantedCampuses)
	assert.Equal(t, reporting.ReportAttendance, service.lastRequest.Type)
	// The end bound is pushed to end of day so the day itself is included.
	assert.Equal(t, 23, service.lastRequest.To.Hour())
}

func TestGenerateDefaultsToComprehensive(t *testing.T) {
	service := &stubService{report: stubReport(0)}
	router := testRouter(service)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/reports", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, reporting.ReportComprehensive, service.lastRequest.Type)
}

func TestGenerateRejectsMalformedDate(t *testing.T) {
	router := testRouter(&stubService{report: stubReport(0)})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/reports?from=03-15-2026", nil)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseRequestMapsFieldErrors(t *testing.T) {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), &stubService{}, RenderConfig{}, nil)

	_, err := h.parseRequest(httptest.NewRequest(http.MethodGet, "/reports?from=2026-99-99", nil))
	assert.ErrorIs(t, err, shared.ErrInvalidDateRange)

	_, err = h.parseRequest(httptest.NewRequest(http.MethodGet, "/reports?format=spreadsheet-export", nil))
	assert.ErrorIs(t, err, shared.ErrUnsupportedFormat)

	// An unknown report type is not a format problem and not a date problem.
	_, err = h.parseRequest(httptest.NewRequest(http.MethodGet, "/reports?type=quarterly", nil))
	assert.ErrorIs(t, err, shared.ErrInvalidRequest)
	assert.NotErrorIs(t, err, shared.ErrUnsupportedFormat)
	assert.NotErrorIs(t, err, shared.ErrInvalidDateRange)
}

func TestGenerateMapsScopeViolation(t *testing.T) {
	service := &stubService{err: fmt.Errorf("%w: campus 3", shared.ErrScopeViolation)}
	router := testRouter(service)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/reports?campus_id=3", nil)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestExportUnknownFormatFailsFast(t *testing.T) {
	service := &stubService{report: stubReport(1)}
	router := testRouter(service)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/reports/export?format=xlsx", nil)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	// The service is never consulted for an unknown format.
	assert.Zero(t, service.lastPrincipal.UserID)
}

func TestExportCSV(t *testing.T) {
	router := testRouter(&stubService{report: stubReport(2)})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/reports/export?format=csv", nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attendance-comprehensive-20260315.csv")
	assert.Contains(t, rec.Body.String(), "Student 1")
}

func TestExportPDF(t *testing.T) {
	router := testRouter(&stubService{report: stubReport(3)})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/reports/export?format=pdf", nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, len(rec.Body.Bytes()) > 4 && string(rec.Body.Bytes()[:4]) == "%PDF")
}

func TestRowsPagination(t *testing.T) {
	router := testRouter(&stubService{report: stubReport(25)})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/reports/rows?page=2&per_page=10", nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Rows       []reporting.DetailRow `json:"rows"`
		Pagination shared.Pagination     `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Rows, 10)
	assert.Equal(t, int64(11), body.Rows[0].AttendanceID)
	assert.Equal(t, 3, body.Pagination.TotalPages)
	assert.Equal(t, 25, body.Pagination.Total)
}

func TestCampusesEndpoint(t *testing.T) {
	service := &stubService{campuses: []campus.Campus{{ID: 1, Code: "MAIN", Active: true}}}
	router := testRouter(service)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/campuses", nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "campuses")
	assert.Contains(t, body, "homeCampus")
}

func TestCampusStatisticsBadID(t *testing.T) {
	router := testRouter(&stubService{report: stubReport(1)})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/campuses/not-a-number/statistics", nil)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCampusStatisticsForbidden(t *testing.T) {
	service := &stubService{err: fmt.Errorf("%w: campus 9", shared.ErrScopeViolation)}
	router := testRouter(service)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/campuses/9/statistics", nil)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
