package reporting

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// AggregateParams carries the ambient values aggregation is not allowed to
// read implicitly. Now decides upcoming vs past; DefaultCapacity backs the
// attendance rate for events with no declared capacity.
type AggregateParams struct {
	Now             time.Time
	DefaultCapacity int
}

// Summary is the headline metric block.
type Summary struct {
	Events         int `json:"events"`
	UpcomingEvents int `json:"upcomingEvents"`
	PastEvents     int `json:"pastEvents"`
	Users          int `json:"users"`
	Attendance     int `json:"attendance"`
	Present        int `json:"present"`
	CrossCampus    int `json:"crossCampus"`
	// CapacityTotal is the summed effective capacity of the events; kept so
	// per-campus summaries can be combined without losing the rate basis.
	CapacityTotal int `json:"capacityTotal"`
	// AttendanceRate is present attendance over total capacity, as a rounded
	// integer percent.
	AttendanceRate int `json:"attendanceRate"`
}

// CategoryCount is one bucket of a categorical breakdown.
type CategoryCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// TrendBucket is one month of attendance volume, keyed YYYY-MM.
type TrendBucket struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// EventRanking is one row of the top-events table.
type EventRanking struct {
	EventID   uuid.UUID `json:"eventId"`
	Title     string    `json:"title"`
	CampusID  int64     `json:"campusId"`
	Attendees int       `json:"attendees"`
}

// Summarize computes the headline metrics over filtered collections.
func Summarize(events []Event, attendance []AttendanceRecord, users []User, p AggregateParams) Summary {
	s := Summary{
		Events:     len(events),
		Users:      len(users),
		Attendance: len(attendance),
	}
	for _, ev := range events {
		if ev.Date.Before(p.Now) {
			s.PastEvents++
		} else {
			s.UpcomingEvents++
		}
		s.CapacityTotal += effectiveCapacity(ev, p.DefaultCapacity)
	}
	for _, a := range attendance {
		if a.Status == AttendancePresent {
			s.Present++
		}
		if a.CrossCampus {
			s.CrossCampus++
		}
	}
	s.AttendanceRate = ratePercent(s.Present, s.CapacityTotal)
	return s
}

// effectiveCapacity prefers the event's declared capacity and falls back to
// the configured default only when undeclared.
func effectiveCapacity(ev Event, fallback int) int {
	if ev.Capacity > 0 {
		return ev.Capacity
	}
	return fallback
}

func ratePercent(present, capacity int) int {
	if capacity <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(present) / float64(capacity)))
}

// CountByEventType groups events by type. Bucket order is the first-seen
// order of the input, which keeps output stable for a stable input.
func CountByEventType(events []Event) []CategoryCount {
	return countBy(events, func(ev Event) string { return string(ev.Type) })
}

// CountByRole groups users by role, first-seen order.
func CountByRole(users []User) []CategoryCount {
	return countBy(users, func(u User) string { return string(u.Role) })
}

func countBy[T any](items []T, key func(T) string) []CategoryCount {
	index := make(map[string]int, len(items))
	out := make([]CategoryCount, 0, len(items))
	for _, item := range items {
		k := key(item)
		if i, ok := index[k]; ok {
			out[i].Count++
			continue
		}
		index[k] = len(out)
		out = append(out, CategoryCount{Key: k, Count: 1})
	}
	return out
}

// MonthRange bounds a trend query, inclusive, keys formatted YYYY-MM.
type MonthRange struct {
	From string
	To   string
}

const monthKeyLayout = "2006-01"

// MonthlyTrend buckets attendance by check-in month. With an explicit range
// every month in the range is emitted, zeros included; ad hoc queries emit
// only months that have at least one record. Buckets sort lexicographically,
// which is chronological for this key format.
func MonthlyTrend(attendance []AttendanceRecord, rng *MonthRange) []TrendBucket {
	counts := make(map[string]int)
	for _, a := range attendance {
		counts[a.MarkedAt.UTC().Format(monthKeyLayout)]++
	}

	if rng != nil {
		from, errFrom := time.Parse(monthKeyLayout, rng.From)
		to, errTo := time.Parse(monthKeyLayout, rng.To)
		if errFrom == nil && errTo == nil && !from.After(to) {
			var out []TrendBucket
			for m := from; !m.After(to); m = m.AddDate(0, 1, 0) {
				key := m.Format(monthKeyLayout)
				out = append(out, TrendBucket{Month: key, Count: counts[key]})
			}
			return out
		}
	}

	out := make([]TrendBucket, 0, len(counts))
	for key, n := range counts {
		out = append(out, TrendBucket{Month: key, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

const defaultTopN = 10

// TopEvents ranks events by present-attendee count descending. Ties keep the
// input order (stable sort); the result is truncated to n, defaulting to 10.
func TopEvents(events []Event, attendance []AttendanceRecord, n int) []EventRanking {
	if n <= 0 {
		n = defaultTopN
	}
	present := make(map[uuid.UUID]int, len(events))
	for _, a := range attendance {
		if a.Status == AttendancePresent {
			present[a.EventID]++
		}
	}
	ranked := make([]EventRanking, 0, len(events))
	for _, ev := range events {
		ranked = append(ranked, EventRanking{
			EventID:   ev.ID,
			Title:     ev.Title,
			CampusID:  ev.CampusID,
			Attendees: present[ev.ID],
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Attendees > ranked[j].Attendees })
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
