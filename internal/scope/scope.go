// Package scope resolves which campuses a caller may read. Resolution is a
// pure function of the principal and the known campus set; nothing here keeps
// state, so concurrent report requests never interfere.
package scope

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/eas-platform/eas/internal/shared"
)

// Role is the closed set of caller roles.
type Role string

const (
	RoleStudent     Role = "student"
	RoleOrganizer   Role = "organizer"
	RoleCampusAdmin Role = "campus_admin"
	RoleSuperAdmin  Role = "super_admin"
)

// ParseRole validates a role string against the closed set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent, RoleOrganizer, RoleCampusAdmin, RoleSuperAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: %q", shared.ErrInvalidRole, s)
	}
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Principal is the authenticated caller. Constructed once per request from the
// upstream auth context and never mutated here.
type Principal struct {
	UserID          int64
	Role            Role
	HomeCampusID    int64
	GrantedCampuses []int64
}

// Scope is the resolved set of campuses a principal may read.
type Scope struct {
	ids        map[int64]struct{}
	sorted     []int64
	systemWide bool
}

// Resolve computes the permitted campus set for a principal.
//
//   - super_admin: system-wide, all known campuses.
//   - campus_admin with a non-empty explicit grant: exactly the granted set,
//     still not system-wide.
//   - everyone else (including campus_admin without a grant): the home campus.
func Resolve(p Principal, known []int64) (Scope, error) {
	if !p.Role.Valid() {
		return Scope{}, fmt.Errorf("%w: %q", shared.ErrInvalidRole, p.Role)
	}
	switch p.Role {
	case RoleSuperAdmin:
		return newScope(known, true), nil
	case RoleCampusAdmin:
		if len(p.GrantedCampuses) > 0 {
			return newScope(p.GrantedCampuses, false), nil
		}
	}
	return newScope([]int64{p.HomeCampusID}, false), nil
}

// ForCampuses builds a non-system-wide scope over an explicit campus set.
// Used when a broader scope is narrowed to a single campus, e.g. per-campus
// legs of a cross-campus comparison. Never widens: callers must verify the
// campuses are inside their resolved scope first.
func ForCampuses(ids []int64) Scope {
	return newScope(ids, false)
}

func newScope(ids []int64, systemWide bool) Scope {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	sorted := make([]int64, 0, len(set))
	for id := range set {
		sorted = append(sorted, id)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return Scope{ids: set, sorted: sorted, systemWide: systemWide}
}

// Allows reports whether the campus is inside the permitted set.
func (s Scope) Allows(campusID int64) bool {
	_, ok := s.ids[campusID]
	return ok
}

// IsSystemWide reports whether access covers every campus without restriction.
func (s Scope) IsSystemWide() bool { return s.systemWide }

// CampusIDs returns the permitted campuses in ascending order. The returned
// slice is a copy.
func (s Scope) CampusIDs() []int64 {
	out := make([]int64, len(s.sorted))
	copy(out, s.sorted)
	return out
}

// Key returns a stable token identifying the scope, for cache key composition.
// Two principals with the same resolved scope share a key; differing scopes
// never collide.
func (s Scope) Key() string {
	if s.systemWide {
		return "all"
	}
	parts := make([]string, len(s.sorted))
	for i, id := range s.sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
