package reporting

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/eas-platform/eas/internal/campus"
	"github.com/eas-platform/eas/internal/scope"
	"github.com/eas-platform/eas/internal/shared"
)

func comparisonFixture() (*campus.Directory, []Event, []AttendanceRecord, []User) {
	dir := campus.NewDirectory([]campus.Campus{
		{ID: 1, Name: "Main", Code: "MAIN", Active: true},
		{ID: 2, Name: "North", Code: "NTH", Active: true},
	})
	events := []Event{
		{ID: uuid.New(), CampusID: 1, Date: aggNow.AddDate(0, 0, -2), Capacity: 100},
		{ID: uuid.New(), CampusID: 1, Date: aggNow.AddDate(0, 0, 3), Capacity: 50},
		{ID: uuid.New(), CampusID: 2, Date: aggNow.AddDate(0, 0, -1), Capacity: 50},
	}
	attendance := []AttendanceRecord{
		{CampusID: 1, Status: AttendancePresent, MarkedAt: aggNow},
		{CampusID: 1, Status: AttendanceAbsent, MarkedAt: aggNow},
		{CampusID: 1, Status: AttendancePresent, MarkedAt: aggNow},
		{CampusID: 2, Status: AttendancePresent, MarkedAt: aggNow},
		{CampusID: 2, Status: AttendanceLate, MarkedAt: aggNow},
	}
	users := []User{
		{ID: 1, CampusID: 1}, {ID: 2, CampusID: 1}, {ID: 3, CampusID: 2},
	}
	return dir, events, attendance, users
}

func TestCompareCampusesRequiresSystemWide(t *testing.T) {
	dir, events, attendance, users := comparisonFixture()
	sc := scope.ForCampuses([]int64{1, 2})
	_, err := CompareCampuses(sc, dir, events, attendance, users, AggregateParams{Now: aggNow})
	if !errors.Is(err, shared.ErrInsufficientScope) {
		t.Fatalf("expected ErrInsufficientScope, got %v", err)
	}
}

func TestCompareCampusesTotalMatchesDirectSummary(t *testing.T) {
	dir, events, attendance, users := comparisonFixture()
	sc, err := scope.Resolve(scope.Principal{Role: scope.RoleSuperAdmin}, dir.ActiveIDs())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	p := AggregateParams{Now: aggNow, DefaultCapacity: 100}

	cmp, err := CompareCampuses(sc, dir, events, attendance, users, p)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if len(cmp.PerCampus) != 2 {
		t.Fatalf("expected 2 campus legs, got %d", len(cmp.PerCampus))
	}

	// Ranked by attendance descending: campus 1 has 3, campus 2 has 2.
	if cmp.PerCampus[0].CampusID != 1 || cmp.PerCampus[0].CampusCode != "MAIN" {
		t.Fatalf("unexpected leading leg %+v", cmp.PerCampus[0])
	}
	if cmp.PerCampus[0].Summary.Attendance != 3 || cmp.PerCampus[1].Summary.Attendance != 2 {
		t.Fatalf("per-campus attendance wrong: %+v", cmp.PerCampus)
	}

	// Summing the legs must reproduce the summary computed directly over the
	// union, attendance rate included.
	direct := Summarize(events, attendance, users, p)
	if cmp.Total != direct {
		t.Fatalf("total %+v != direct summary %+v", cmp.Total, direct)
	}
}

func TestCompareCampusesRanksTiesByCampusID(t *testing.T) {
	dir := campus.NewDirectory([]campus.Campus{
		{ID: 2, Code: "B", Active: true},
		{ID: 1, Code: "A", Active: true},
	})
	attendance := []AttendanceRecord{
		{CampusID: 2, Status: AttendancePresent, MarkedAt: aggNow},
		{CampusID: 1, Status: AttendancePresent, MarkedAt: aggNow},
	}
	sc, _ := scope.Resolve(scope.Principal{Role: scope.RoleSuperAdmin}, dir.ActiveIDs())

	cmp, err := CompareCampuses(sc, dir, nil, attendance, nil, AggregateParams{Now: aggNow})
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if cmp.PerCampus[0].CampusID != 1 || cmp.PerCampus[1].CampusID != 2 {
		t.Fatalf("tie must rank by campus id ascending: %+v", cmp.PerCampus)
	}
}
