package shared

import "errors"

// Access-control failures. Propagation policy: these reach the caller
// unchanged; no layer in the pipeline may absorb or downgrade them.
var (
	// ErrInvalidRole indicates an unrecognized role value reached scope resolution.
	ErrInvalidRole = errors.New("invalid role")
	// ErrScopeViolation indicates an explicit request for a campus outside the
	// caller's permitted set.
	ErrScopeViolation = errors.New("campus outside permitted scope")
	// ErrInsufficientScope indicates a report type requiring system-wide scope
	// was requested without it.
	ErrInsufficientScope = errors.New("system-wide scope required")
)

// Recoverable and validation failures.
var (
	// ErrMissingAsset indicates an image could not be fetched. Renderers
	// substitute a placeholder and continue.
	ErrMissingAsset = errors.New("asset unavailable")
	// ErrEncodingFailure indicates an item could not be encoded into the target format.
	ErrEncodingFailure = errors.New("encoding failed")
	// ErrUnsupportedFormat indicates an unrecognized export format identifier.
	ErrUnsupportedFormat = errors.New("unsupported export format")
	// ErrInvalidDateRange indicates a malformed or inverted report range.
	ErrInvalidDateRange = errors.New("invalid date range")
	// ErrInvalidRequest indicates a malformed request parameter outside the
	// date-range and export-format taxonomy, e.g. an unknown report type.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
)
