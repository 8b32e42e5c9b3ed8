// Package isolation is the single enforcement point between raw record
// collections and everything downstream. Aggregation, report assembly and
// rendering must only ever see collections that passed through here.
package isolation

import (
	"fmt"

	"github.com/eas-platform/eas/internal/scope"
	"github.com/eas-platform/eas/internal/shared"
)

// UnitFunc extracts the owning campus of a record.
type UnitFunc[T any] func(T) int64

// SharingFunc reports whether a record is explicitly shared across campuses
// and, if so, which campuses may see it.
type SharingFunc[T any] func(T) (multiCampus bool, allowed []int64)

// ByCampus returns the records whose campus is inside the scope. The filter is
// stable: input order is preserved and records are never mutated.
func ByCampus[T any](records []T, unit UnitFunc[T], sc scope.Scope) []T {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		if sc.Allows(unit(rec)) {
			out = append(out, rec)
		}
	}
	return out
}

// Shared filters like ByCampus but additionally admits records that are
// explicitly multi-campus and list the caller's home campus among their
// allowed set. Used for event collections where cross-campus sharing is an
// opt-in per event.
func Shared[T any](records []T, unit UnitFunc[T], sharing SharingFunc[T], homeCampusID int64, sc scope.Scope) []T {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		if sc.Allows(unit(rec)) {
			out = append(out, rec)
			continue
		}
		multi, allowed := sharing(rec)
		if !multi {
			continue
		}
		for _, id := range allowed {
			if id == homeCampusID {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

// RequireCampus guards an explicit campus request. Asking for a campus outside
// the permitted set is rejected with ErrScopeViolation rather than silently
// filtered; a broad query that merely omits out-of-scope rows goes through
// ByCampus instead.
func RequireCampus(sc scope.Scope, campusID int64) error {
	if sc.IsSystemWide() || sc.Allows(campusID) {
		return nil
	}
	return fmt.Errorf("%w: campus %d", shared.ErrScopeViolation, campusID)
}
