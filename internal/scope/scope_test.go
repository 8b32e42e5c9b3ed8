package scope

import (
	"errors"
	"testing"

	"github.com/eas-platform/eas/internal/shared"
)

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"student", "organizer", "campus_admin", "super_admin"} {
		if _, err := ParseRole(valid); err != nil {
			t.Fatalf("ParseRole(%q) returned error: %v", valid, err)
		}
	}
	if _, err := ParseRole("janitor"); !errors.Is(err, shared.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := ParseRole(""); !errors.Is(err, shared.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole for empty role, got %v", err)
	}
}

func TestResolveSuperAdmin(t *testing.T) {
	known := []int64{3, 1, 2}
	sc, err := Resolve(Principal{UserID: 7, Role: RoleSuperAdmin, HomeCampusID: 1}, known)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !sc.IsSystemWide() {
		t.Fatal("super_admin scope must be system-wide")
	}
	ids := sc.CampusIDs()
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 2 || ids[2] != 3 {
		t.Fatalf("expected sorted campus ids [1 2 3], got %v", ids)
	}
	if sc.Key() != "all" {
		t.Fatalf("expected key %q, got %q", "all", sc.Key())
	}
}

func TestResolveCampusAdminWithGrant(t *testing.T) {
	p := Principal{UserID: 9, Role: RoleCampusAdmin, HomeCampusID: 1, GrantedCampuses: []int64{2, 3}}
	sc, err := Resolve(p, []int64{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if sc.IsSystemWide() {
		t.Fatal("granted campus_admin must not be system-wide")
	}
	// An explicit grant replaces the home campus; it is not added implicitly.
	if sc.Allows(1) {
		t.Fatal("home campus must not be implicitly included in an explicit grant")
	}
	if !sc.Allows(2) || !sc.Allows(3) {
		t.Fatalf("expected granted campuses allowed, got %v", sc.CampusIDs())
	}
	if sc.Key() != "2,3" {
		t.Fatalf("unexpected scope key %q", sc.Key())
	}
}

func TestResolveCampusAdminWithoutGrant(t *testing.T) {
	sc, err := Resolve(Principal{Role: RoleCampusAdmin, HomeCampusID: 4}, []int64{1, 4})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := sc.CampusIDs(); len(got) != 1 || got[0] != 4 {
		t.Fatalf("expected home-campus scope [4], got %v", got)
	}
}

func TestResolveSingleCampusRoles(t *testing.T) {
	for _, role := range []Role{RoleStudent, RoleOrganizer} {
		sc, err := Resolve(Principal{Role: role, HomeCampusID: 2}, []int64{1, 2, 3})
		if err != nil {
			t.Fatalf("resolve %s: %v", role, err)
		}
		if sc.IsSystemWide() {
			t.Fatalf("%s must not be system-wide", role)
		}
		if !sc.Allows(2) || sc.Allows(1) || sc.Allows(3) {
			t.Fatalf("%s scope must cover exactly the home campus, got %v", role, sc.CampusIDs())
		}
	}
}

func TestResolveInvalidRole(t *testing.T) {
	if _, err := Resolve(Principal{Role: "root"}, []int64{1}); !errors.Is(err, shared.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestForCampusesNeverSystemWide(t *testing.T) {
	sc := ForCampuses([]int64{5})
	if sc.IsSystemWide() {
		t.Fatal("ForCampuses must not produce a system-wide scope")
	}
	if !sc.Allows(5) || sc.Allows(6) {
		t.Fatalf("unexpected scope %v", sc.CampusIDs())
	}
}

func TestKeyStableAcrossInputOrder(t *testing.T) {
	a, _ := Resolve(Principal{Role: RoleCampusAdmin, GrantedCampuses: []int64{3, 1, 2}}, nil)
	b, _ := Resolve(Principal{Role: RoleCampusAdmin, GrantedCampuses: []int64{2, 3, 1}}, nil)
	if a.Key() != b.Key() {
		t.Fatalf("scope keys differ for identical sets: %q vs %q", a.Key(), b.Key())
	}
}
