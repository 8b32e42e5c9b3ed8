package reporthttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/eas-platform/eas/internal/campus"
	"github.com/eas-platform/eas/internal/export"
	"github.com/eas-platform/eas/internal/observability"
	"github.com/eas-platform/eas/internal/platform/httpx"
	"github.com/eas-platform/eas/internal/render"
	"github.com/eas-platform/eas/internal/reporting"
	"github.com/eas-platform/eas/internal/scope"
	"github.com/eas-platform/eas/internal/shared"
)

const requestTimeout = 10 * time.Second

// ReportService defines the report generation contract used by the handler.
type ReportService interface {
	Generate(ctx context.Context, p scope.Principal, req reporting.Request) (*reporting.Report, error)
	AccessibleCampuses(ctx context.Context, p scope.Principal) ([]campus.Campus, error)
	CampusStatistics(ctx context.Context, p scope.Principal, campusID int64) (*reporting.Report, error)
}

// RenderConfig carries layout and media-fetch settings into PDF exports.
type RenderConfig struct {
	Layout           render.Layout
	Fetcher          render.ImageFetcher
	FetchConcurrency int
	FetchTimeout     time.Duration
	Organization     string
}

// Handler coordinates HTTP requests for report generation and export.
type Handler struct {
	logger   *slog.Logger
	service  ReportService
	renderer RenderConfig
	metrics  *observability.Metrics
	validate *validator.Validate
	now      func() time.Time
}

// NewHandler constructs the reporting HTTP handler.
func NewHandler(logger *slog.Logger, service ReportService, renderer RenderConfig, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		renderer: renderer,
		metrics:  metrics,
		validate: validator.New(),
		now:      time.Now,
	}
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

type reportQuery struct {
	Type     string `validate:"required,max=32"`
	CampusID string `validate:"omitempty,number"`
	From     string `validate:"omitempty,datetime=2006-01-02"`
	To       string `validate:"omitempty,datetime=2006-01-02"`
	Format   string `validate:"omitempty,max=8"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFromRequest(w, r)
	if !ok {
		return
	}

	req, err := h.parseRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rep, err := h.service.Generate(ctx, p, req)
	if err != nil {
		h.logger.Warn("generate report failed",
			slog.String("type", string(req.Type)), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ReportGenerated(string(req.Type))
	}
	httpx.JSON(w, http.StatusOK, rep)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFromRequest(w, r)
	if !ok {
		return
	}

	req, err := h.parseRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	formatParam := strings.TrimSpace(r.URL.Query().Get("format"))
	if formatParam == "" {
		formatParam = string(export.FormatJSON)
	}
	format, err := export.ParseFormat(formatParam)
	if err != nil {
		// Fail fast: no aggregation work for an unknown format.
		httpx.RespondError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rep, err := h.service.Generate(ctx, p, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	filename := export.Filename(rep.Meta.Type, rep.Meta.GeneratedAt, format)
	var buf bytes.Buffer
	switch format {
	case export.FormatJSON:
		err = export.WriteJSON(&buf, rep)
	case export.FormatCSV:
		err = export.WriteCSV(&buf, rep)
	case export.FormatPDF:
		var doc *render.Document
		doc, err = render.Render(ctx, rep, h.renderer.Layout, render.Options{
			Title:            fmt.Sprintf("Attendance report (%s)", rep.Meta.Type),
			Organization:     h.renderer.Organization,
			Fetcher:          h.renderer.Fetcher,
			FetchConcurrency: h.renderer.FetchConcurrency,
			FetchTimeout:     h.renderer.FetchTimeout,
			Logger:           h.logger,
		})
		if err == nil {
			if h.metrics != nil {
				h.metrics.PagesRendered(len(doc.Pages))
			}
			err = export.WritePDF(&buf, doc)
		}
	}
	if err != nil {
		h.logger.Error("export failed",
			slog.String("format", string(format)), slog.Any("error", err))
		if h.metrics != nil {
			h.metrics.ExportFailed(string(format))
		}
		httpx.RespondError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ReportGenerated(string(req.Type))
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) handleRows(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFromRequest(w, r)
	if !ok {
		return
	}
	req, err := h.parseRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rep, err := h.service.Generate(ctx, p, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	pg := shared.NewPagination(page, perPage, len(rep.Data.Rows))
	start, end := pg.Slice()
	httpx.JSON(w, http.StatusOK, map[string]any{
		"rows":       rep.Data.Rows[start:end],
		"pagination": pg,
	})
}

func (h *Handler) handleCampuses(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFromRequest(w, r)
	if !ok {
		return
	}
	campuses, err := h.service.AccessibleCampuses(r.Context(), p)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"campuses":    campuses,
		"homeCampus":  p.HomeCampusID,
		"systemWide":  p.Role == scope.RoleSuperAdmin,
		"requestedBy": p.UserID,
	})
}

func (h *Handler) handleCampusStatistics(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFromRequest(w, r)
	if !ok {
		return
	}
	campusID, err := strconv.ParseInt(chi.URLParam(r, "campusID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Campus", "campus id must be numeric")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rep, err := h.service.CampusStatistics(ctx, p, campusID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rep)
}

// parseRequest validates and converts query parameters. Date parse failures
// identify the offending bound.
func (h *Handler) parseRequest(r *http.Request) (reporting.Request, error) {
	q := r.URL.Query()
	raw := reportQuery{
		Type:     strings.TrimSpace(q.Get("type")),
		CampusID: strings.TrimSpace(q.Get("campus_id")),
		From:     strings.TrimSpace(q.Get("from")),
		To:       strings.TrimSpace(q.Get("to")),
		Format:   strings.TrimSpace(q.Get("format")),
	}
	if raw.Type == "" {
		raw.Type = string(reporting.ReportComprehensive)
	}
	if err := h.validate.Struct(raw); err != nil {
		return reporting.Request{}, requestValidationError(err)
	}

	typ, err := reporting.ParseReportType(raw.Type)
	if err != nil {
		return reporting.Request{}, fmt.Errorf("%w: %v", shared.ErrInvalidRequest, err)
	}

	req := reporting.Request{Type: typ}
	if raw.CampusID != "" {
		id, err := strconv.ParseInt(raw.CampusID, 10, 64)
		if err != nil {
			return reporting.Request{}, fmt.Errorf("%w: campus_id %q", shared.ErrScopeViolation, raw.CampusID)
		}
		req.CampusID = &id
	}
	if raw.From != "" {
		from, err := time.Parse("2006-01-02", raw.From)
		if err != nil {
			return reporting.Request{}, fmt.Errorf("%w: from %q", shared.ErrInvalidDateRange, raw.From)
		}
		req.From = from
	}
	if raw.To != "" {
		to, err := time.Parse("2006-01-02", raw.To)
		if err != nil {
			return reporting.Request{}, fmt.Errorf("%w: to %q", shared.ErrInvalidDateRange, raw.To)
		}
		// Inclusive end of day.
		req.To = to.Add(24*time.Hour - time.Nanosecond)
	}
	if err := reporting.ValidateRange(req.From, req.To); err != nil {
		return reporting.Request{}, err
	}
	return req, nil
}

// requestValidationError maps each failed field to its own sentinel: date
// bounds to ErrInvalidDateRange, the export format identifier to
// ErrUnsupportedFormat, everything else to ErrInvalidRequest.
func requestValidationError(err error) error {
	var fields validator.ValidationErrors
	if errors.As(err, &fields) {
		for _, f := range fields {
			switch f.Field() {
			case "From", "To":
				return fmt.Errorf("%w: %v", shared.ErrInvalidDateRange, f)
			case "Format":
				return fmt.Errorf("%w: %v", shared.ErrUnsupportedFormat, f)
			}
		}
	}
	return fmt.Errorf("%w: %v", shared.ErrInvalidRequest, err)
}

// principalFromRequest reads the identity installed by the gateway middleware
// and converts it to a principal. A missing identity is an authentication
// problem the upstream must fix.
func principalFromRequest(w http.ResponseWriter, r *http.Request) (scope.Principal, bool) {
	id := shared.IdentityFromContext(r.Context())
	if id == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthenticated", "no caller identity")
		return scope.Principal{}, false
	}
	role, err := scope.ParseRole(id.Role)
	if err != nil {
		httpx.RespondError(w, err)
		return scope.Principal{}, false
	}
	return scope.Principal{
		UserID:          id.UserID,
		Role:            role,
		HomeCampusID:    id.CampusID,
		GrantedCampuses: id.GrantedCampuses,
	}, true
}
