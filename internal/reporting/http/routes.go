package reporthttp

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/eas-platform/eas/internal/shared"
)

// MountRoutes registers reporting endpoints onto the router. Exports are
// rate-limited per caller; report generation shares the global limit.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/reports", h.handleGenerate)
	r.Get("/reports/rows", h.handleRows)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/reports/export", h.handleExport)
	})
	r.Get("/campuses", h.handleCampuses)
	r.Get("/campuses/{campusID}/statistics", h.handleCampusStatistics)
}

// IdentityMiddleware installs the caller identity forwarded by the upstream
// auth gateway. The engine trusts these headers; authenticating them is the
// gateway's job.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		campusID, _ := strconv.ParseInt(r.Header.Get("X-Campus-ID"), 10, 64)
		id := &shared.Identity{
			UserID:   userID,
			Role:     strings.TrimSpace(r.Header.Get("X-User-Role")),
			CampusID: campusID,
		}
		if grants := strings.TrimSpace(r.Header.Get("X-Granted-Campuses")); grants != "" {
			for _, part := range strings.Split(grants, ",") {
				if v, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil {
					id.GrantedCampuses = append(id.GrantedCampuses, v)
				}
			}
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), id)))
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if id := shared.IdentityFromContext(r.Context()); id != nil {
		return "user:" + strconv.FormatInt(id.UserID, 10), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
