// Package reporting aggregates campus-scoped event, attendance and user
// records into reports. Every collection entering this package must already
// have passed through the isolation filter; aggregation itself never consults
// the caller's identity.
package reporting

import (
	"time"

	"github.com/google/uuid"

	"github.com/eas-platform/eas/internal/scope"
)

// EventType categorizes events.
type EventType string

const (
	EventAcademic   EventType = "academic"
	EventSeminar    EventType = "seminar"
	EventWorkshop   EventType = "workshop"
	EventConference EventType = "conference"
	EventSocial     EventType = "social"
	EventSports     EventType = "sports"
	EventCultural   EventType = "cultural"
	EventOther      EventType = "other"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventOngoing   EventStatus = "ongoing"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

// AttendanceStatus is the recorded outcome for a single attendee.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

// Event is read-only input owned by the external event system.
type Event struct {
	ID            uuid.UUID   `json:"id"`
	CampusID      int64       `json:"campusId"`
	OrganizerID   int64       `json:"organizerId"`
	Title         string      `json:"title"`
	Type          EventType   `json:"type"`
	Date          time.Time   `json:"date"`
	Capacity      int         `json:"capacity"` // 0 means undeclared
	Status        EventStatus `json:"status"`
	IsMultiCampus bool        `json:"isMultiCampus"`
	// AllowedCampuses is only meaningful when IsMultiCampus is set.
	AllowedCampuses []int64 `json:"allowedCampuses,omitempty"`
}

// AttendanceRecord is a single check-in. CampusID is copied from the event at
// check-in time and never re-derived. Invariant: CampusID equals the parent
// event's campus unless CrossCampus is set and the event is multi-campus.
type AttendanceRecord struct {
	ID           int64            `json:"id"`
	EventID      uuid.UUID        `json:"eventId"`
	UserID       int64            `json:"userId"`
	CampusID     int64            `json:"campusId"`
	Status       AttendanceStatus `json:"status"`
	MarkedAt     time.Time        `json:"markedAt"`
	CrossCampus  bool             `json:"crossCampus"`
	SelfieRef    string           `json:"selfieRef,omitempty"`
	SignatureRef string           `json:"signatureRef,omitempty"`
	Verified     bool             `json:"verified"`
}

// User is read-only input from the account system.
type User struct {
	ID         int64      `json:"id"`
	CampusID   int64      `json:"campusId"`
	Role       scope.Role `json:"role"`
	Name       string     `json:"name"`
	StudentID  string     `json:"studentId"`
	Department string     `json:"department,omitempty"`
	Active     bool       `json:"active"`
}

// DetailRow is one attendance record joined with user and event context,
// ready for tabular rendering. Join misses leave fields empty; the row is
// never dropped.
type DetailRow struct {
	AttendanceID int64            `json:"attendanceId"`
	StudentName  string           `json:"studentName"`
	StudentID    string           `json:"studentId"`
	EventTitle   string           `json:"eventTitle"`
	CampusCode   string           `json:"campusCode"`
	Status       AttendanceStatus `json:"status"`
	MarkedAt     time.Time        `json:"markedAt"`
	CrossCampus  bool             `json:"crossCampus"`
	SelfieRef    string           `json:"selfieRef,omitempty"`
	SignatureRef string           `json:"signatureRef,omitempty"`
}

// ActivityEntry is one line of the recent-activity feed.
type ActivityEntry struct {
	When        time.Time        `json:"when"`
	StudentName string           `json:"studentName"`
	EventTitle  string           `json:"eventTitle"`
	CampusCode  string           `json:"campusCode"`
	Status      AttendanceStatus `json:"status"`
}

// ReportMeta records who asked for what and when.
type ReportMeta struct {
	Type            ReportType `json:"type"`
	GeneratedAt     time.Time  `json:"generatedAt"`
	RequestedBy     int64      `json:"requestedBy"`
	Role            scope.Role `json:"role"`
	CampusIDs       []int64    `json:"campusIds"`
	SystemWide      bool       `json:"systemWide"`
	From            *time.Time `json:"from,omitempty"`
	To              *time.Time `json:"to,omitempty"`
	EventCount      int        `json:"eventCount"`
	AttendanceCount int        `json:"attendanceCount"`
	UserCount       int        `json:"userCount"`
	RowCount        int        `json:"rowCount"`
}

// ReportData is the aggregate payload. Sections not applicable to the report
// type stay empty.
type ReportData struct {
	Summary        Summary         `json:"summary"`
	EventsByType   []CategoryCount `json:"eventsByType,omitempty"`
	UsersByRole    []CategoryCount `json:"usersByRole,omitempty"`
	Trend          []TrendBucket   `json:"trend,omitempty"`
	TopEvents      []EventRanking  `json:"topEvents,omitempty"`
	Comparison     *Comparison     `json:"comparison,omitempty"`
	Rows           []DetailRow     `json:"rows,omitempty"`
	RecentActivity []ActivityEntry `json:"recentActivity,omitempty"`
}

// ExportInfo advertises which encodings the caller can request.
type ExportInfo struct {
	Formats   []string `json:"formats"`
	Available bool     `json:"available"`
}

// Report is the full structured result. Built per request, never persisted here.
type Report struct {
	Meta   ReportMeta `json:"meta"`
	Data   ReportData `json:"data"`
	Export ExportInfo `json:"export"`
}
