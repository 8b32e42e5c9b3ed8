package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/eas-platform/eas/internal/reporting"
)

var csvHeader = []string{
	"Attendance ID", "Student", "Student ID", "Event", "Campus",
	"Status", "Marked At", "Cross Campus",
}

// WriteCSV emits the report's detail rows as a delimited table: one header
// row plus one line per detail row. Quoting follows RFC4180 via encoding/csv;
// numeric fields stay unformatted so the output round-trips. The encoding is
// deterministic: the same report always yields byte-identical output.
func WriteCSV(w io.Writer, rep *reporting.Report) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range rep.Data.Rows {
		record := []string{
			strconv.FormatInt(row.AttendanceID, 10),
			row.StudentName,
			row.StudentID,
			row.EventTitle,
			row.CampusCode,
			string(row.Status),
			row.MarkedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			strconv.FormatBool(row.CrossCampus),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteSummaryCSV emits the headline metrics as metric/value pairs, the shape
// spreadsheet imports expect.
func WriteSummaryCSV(w io.Writer, rep *reporting.Report) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	s := rep.Data.Summary
	records := [][]string{
		{"Events", strconv.Itoa(s.Events)},
		{"Upcoming Events", strconv.Itoa(s.UpcomingEvents)},
		{"Past Events", strconv.Itoa(s.PastEvents)},
		{"Users", strconv.Itoa(s.Users)},
		{"Attendance", strconv.Itoa(s.Attendance)},
		{"Present", strconv.Itoa(s.Present)},
		{"Cross Campus", strconv.Itoa(s.CrossCampus)},
		{"Attendance Rate (%)", strconv.Itoa(s.AttendanceRate)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
