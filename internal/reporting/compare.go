package reporting

import (
	"fmt"
	"sort"

	"github.com/eas-platform/eas/internal/campus"
	"github.com/eas-platform/eas/internal/isolation"
	"github.com/eas-platform/eas/internal/scope"
	"github.com/eas-platform/eas/internal/shared"
)

// CampusSummary is one campus's leg of a system-wide comparison.
type CampusSummary struct {
	CampusID   int64   `json:"campusId"`
	CampusCode string  `json:"campusCode"`
	CampusName string  `json:"campusName"`
	Summary    Summary `json:"summary"`
}

// Comparison ranks campuses and carries the combined total. The total is the
// field-wise sum of the per-campus summaries and must equal the summary
// computed directly over the union of the campuses.
type Comparison struct {
	PerCampus []CampusSummary `json:"perCampus"`
	Total     Summary         `json:"total"`
}

// CompareCampuses narrows the scope to each campus in turn, re-applies the
// isolation filter, and summarizes each leg. Requires system-wide scope.
// PerCampus is ranked by attendance descending, ties by campus id ascending.
func CompareCampuses(sc scope.Scope, dir *campus.Directory, events []Event, attendance []AttendanceRecord, users []User, p AggregateParams) (*Comparison, error) {
	if !sc.IsSystemWide() {
		return nil, fmt.Errorf("%w: cross-campus comparison", shared.ErrInsufficientScope)
	}

	cmp := &Comparison{}
	for _, id := range sc.CampusIDs() {
		leg := scope.ForCampuses([]int64{id})
		legEvents := isolation.ByCampus(events, func(ev Event) int64 { return ev.CampusID }, leg)
		legAttendance := isolation.ByCampus(attendance, func(a AttendanceRecord) int64 { return a.CampusID }, leg)
		legUsers := isolation.ByCampus(users, func(u User) int64 { return u.CampusID }, leg)

		summary := Summarize(legEvents, legAttendance, legUsers, p)
		entry := CampusSummary{CampusID: id, Summary: summary}
		if c, ok := dir.ByID(id); ok {
			entry.CampusCode = c.Code
			entry.CampusName = c.Name
		}
		cmp.PerCampus = append(cmp.PerCampus, entry)

		cmp.Total.Events += summary.Events
		cmp.Total.UpcomingEvents += summary.UpcomingEvents
		cmp.Total.PastEvents += summary.PastEvents
		cmp.Total.Users += summary.Users
		cmp.Total.Attendance += summary.Attendance
		cmp.Total.Present += summary.Present
		cmp.Total.CrossCampus += summary.CrossCampus
		cmp.Total.CapacityTotal += summary.CapacityTotal
	}
	cmp.Total.AttendanceRate = ratePercent(cmp.Total.Present, cmp.Total.CapacityTotal)

	sort.SliceStable(cmp.PerCampus, func(i, j int) bool {
		if cmp.PerCampus[i].Summary.Attendance != cmp.PerCampus[j].Summary.Attendance {
			return cmp.PerCampus[i].Summary.Attendance > cmp.PerCampus[j].Summary.Attendance
		}
		return cmp.PerCampus[i].CampusID < cmp.PerCampus[j].CampusID
	})
	return cmp, nil
}
