package reporting

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/eas-platform/eas/internal/campus"
	"github.com/eas-platform/eas/internal/isolation"
	"github.com/eas-platform/eas/internal/scope"
	"github.com/eas-platform/eas/internal/shared"
)

// ReportType is the closed set of report selectors.
type ReportType string

const (
	ReportComprehensive  ReportType = "comprehensive"
	ReportEvents         ReportType = "events"
	ReportAttendance     ReportType = "attendance"
	ReportUsers          ReportType = "users"
	ReportSystemOverview ReportType = "system_overview"
)

// ParseReportType validates a report type string.
func ParseReportType(s string) (ReportType, error) {
	switch ReportType(s) {
	case ReportComprehensive, ReportEvents, ReportAttendance, ReportUsers, ReportSystemOverview:
		return ReportType(s), nil
	default:
		return "", fmt.Errorf("unknown report type %q", s)
	}
}

// Request selects what to build. CampusID, when set, explicitly narrows the
// report to one campus and is checked against the caller's scope up front.
type Request struct {
	Type     ReportType
	CampusID *int64
	From     time.Time
	To       time.Time
	TopN     int
	RecentN  int
}

// Dataset is the already-loaded record collections the builder consumes.
type Dataset struct {
	Campuses   []campus.Campus
	Events     []Event
	Attendance []AttendanceRecord
	Users      []User
}

// BuildParams carries ambient configuration into the build.
type BuildParams struct {
	Now             time.Time
	DefaultCapacity int
}

const defaultRecentN = 10

// Build runs the resolve → filter → aggregate pipeline and assembles the
// report. Access-control checks and range validation happen before any
// aggregation work; access errors propagate unchanged.
func Build(p scope.Principal, sc scope.Scope, req Request, data Dataset, params BuildParams) (*Report, error) {
	if err := ValidateRange(req.From, req.To); err != nil {
		return nil, err
	}
	if req.Type == ReportSystemOverview && !sc.IsSystemWide() {
		return nil, fmt.Errorf("%w: report type %s", shared.ErrInsufficientScope, req.Type)
	}
	if req.CampusID != nil {
		if err := isolation.RequireCampus(sc, *req.CampusID); err != nil {
			return nil, err
		}
	}

	dir := campus.NewDirectory(data.Campuses)

	// An explicit campus target narrows every report type except the system
	// overview, which by definition compares the whole resolved scope.
	effective := sc
	if req.CampusID != nil && req.Type != ReportSystemOverview {
		effective = scope.ForCampuses([]int64{*req.CampusID})
	}

	events := isolation.Shared(data.Events,
		func(ev Event) int64 { return ev.CampusID },
		func(ev Event) (bool, []int64) { return ev.IsMultiCampus, ev.AllowedCampuses },
		p.HomeCampusID, effective)
	attendance := isolation.ByCampus(data.Attendance, func(a AttendanceRecord) int64 { return a.CampusID }, effective)
	users := isolation.ByCampus(data.Users, func(u User) int64 { return u.CampusID }, effective)

	events = eventsInRange(events, req.From, req.To)
	attendance = attendanceInRange(attendance, req.From, req.To)

	agg := AggregateParams{Now: params.Now, DefaultCapacity: params.DefaultCapacity}
	rep := &Report{
		Meta: ReportMeta{
			Type:            req.Type,
			GeneratedAt:     params.Now,
			RequestedBy:     p.UserID,
			Role:            p.Role,
			CampusIDs:       effective.CampusIDs(),
			SystemWide:      effective.IsSystemWide(),
			From:            optionalTime(req.From),
			To:              optionalTime(req.To),
			EventCount:      len(events),
			AttendanceCount: len(attendance),
			UserCount:       len(users),
		},
	}
	rep.Data.Summary = Summarize(events, attendance, users, agg)

	trendRange := monthRangeOf(req.From, req.To)

	switch req.Type {
	case ReportComprehensive:
		rep.Data.EventsByType = CountByEventType(events)
		rep.Data.UsersByRole = CountByRole(users)
		rep.Data.Trend = MonthlyTrend(attendance, trendRange)
		rep.Data.TopEvents = TopEvents(events, attendance, req.TopN)
		rep.Data.Rows = buildRows(attendance, events, users, dir)
		rep.Data.RecentActivity = recentActivity(rep.Data.Rows, req.RecentN)
	case ReportEvents:
		rep.Data.EventsByType = CountByEventType(events)
		rep.Data.TopEvents = TopEvents(events, attendance, req.TopN)
	case ReportAttendance:
		rep.Data.Trend = MonthlyTrend(attendance, trendRange)
		rep.Data.Rows = buildRows(attendance, events, users, dir)
		rep.Data.RecentActivity = recentActivity(rep.Data.Rows, req.RecentN)
	case ReportUsers:
		rep.Data.UsersByRole = CountByRole(users)
	case ReportSystemOverview:
		cmp, err := CompareCampuses(effective, dir, events, attendance, users, agg)
		if err != nil {
			return nil, err
		}
		rep.Data.Comparison = cmp
		rep.Data.Trend = MonthlyTrend(attendance, trendRange)
	default:
		return nil, fmt.Errorf("unknown report type %q", req.Type)
	}

	rep.Meta.RowCount = len(rep.Data.Rows)
	rep.Export = exportInfo(len(rep.Data.Rows))
	return rep, nil
}

// ValidateRange rejects inverted ranges before any aggregation work starts.
// Zero bounds mean open-ended.
func ValidateRange(from, to time.Time) error {
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return fmt.Errorf("%w: start %s is after end %s",
			shared.ErrInvalidDateRange, from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	return nil
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func monthRangeOf(from, to time.Time) *MonthRange {
	if from.IsZero() || to.IsZero() {
		return nil
	}
	return &MonthRange{From: from.UTC().Format(monthKeyLayout), To: to.UTC().Format(monthKeyLayout)}
}

func eventsInRange(events []Event, from, to time.Time) []Event {
	if from.IsZero() && to.IsZero() {
		return events
	}
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		if inRange(ev.Date, from, to) {
			out = append(out, ev)
		}
	}
	return out
}

func attendanceInRange(attendance []AttendanceRecord, from, to time.Time) []AttendanceRecord {
	if from.IsZero() && to.IsZero() {
		return attendance
	}
	out := make([]AttendanceRecord, 0, len(attendance))
	for _, a := range attendance {
		if inRange(a.MarkedAt, from, to) {
			out = append(out, a)
		}
	}
	return out
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}

func buildRows(attendance []AttendanceRecord, events []Event, users []User, dir *campus.Directory) []DetailRow {
	eventsByID := make(map[uuid.UUID]Event, len(events))
	for _, ev := range events {
		eventsByID[ev.ID] = ev
	}
	usersByID := make(map[int64]User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}

	rows := make([]DetailRow, 0, len(attendance))
	for _, a := range attendance {
		row := DetailRow{
			AttendanceID: a.ID,
			CampusCode:   dir.CodeOf(a.CampusID),
			Status:       a.Status,
			MarkedAt:     a.MarkedAt,
			CrossCampus:  a.CrossCampus,
			SelfieRef:    a.SelfieRef,
			SignatureRef: a.SignatureRef,
		}
		if u, ok := usersByID[a.UserID]; ok {
			row.StudentName = u.Name
			row.StudentID = u.StudentID
		}
		if ev, ok := eventsByID[a.EventID]; ok {
			row.EventTitle = ev.Title
		}
		rows = append(rows, row)
	}
	return rows
}

func recentActivity(rows []DetailRow, n int) []ActivityEntry {
	if n <= 0 {
		n = defaultRecentN
	}
	sorted := make([]DetailRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MarkedAt.After(sorted[j].MarkedAt) })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	out := make([]ActivityEntry, 0, len(sorted))
	for _, row := range sorted {
		out = append(out, ActivityEntry{
			When:        row.MarkedAt,
			StudentName: row.StudentName,
			EventTitle:  row.EventTitle,
			CampusCode:  row.CampusCode,
			Status:      row.Status,
		})
	}
	return out
}

func exportInfo(rowCount int) ExportInfo {
	info := ExportInfo{Formats: []string{"json"}}
	if rowCount > 0 {
		info.Formats = append(info.Formats, "csv", "pdf")
		info.Available = true
	}
	return info
}
