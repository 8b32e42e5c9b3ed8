package httpx

import (
	"errors"
	"net/http"

	"github.com/eas-platform/eas/internal/shared"
)

// RespondError maps the engine's error taxonomy to HTTP responses.
// Access-control errors are surfaced as-is, never downgraded.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidRole):
		Problem(w, http.StatusUnauthorized, "Invalid Role", err.Error())
	case errors.Is(err, shared.ErrScopeViolation):
		Problem(w, http.StatusForbidden, "Scope Violation", err.Error())
	case errors.Is(err, shared.ErrInsufficientScope):
		Problem(w, http.StatusForbidden, "Insufficient Scope", err.Error())
	case errors.Is(err, shared.ErrInvalidDateRange):
		Problem(w, http.StatusBadRequest, "Invalid Date Range", err.Error())
	case errors.Is(err, shared.ErrUnsupportedFormat):
		Problem(w, http.StatusBadRequest, "Unsupported Format", err.Error())
	case errors.Is(err, shared.ErrInvalidRequest):
		Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrEncodingFailure):
		Problem(w, http.StatusInternalServerError, "Encoding Failure", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
