// Package export serializes reports and rendered documents into their target
// byte formats.
package export

import (
	"fmt"
	"time"

	"github.com/eas-platform/eas/internal/reporting"
	"github.com/eas-platform/eas/internal/shared"
)

// Format is the closed set of export encodings.
type Format string

const (
	// FormatJSON is the lossless structured dump of the Report.
	FormatJSON Format = "json"
	// FormatCSV is the delimited-text table of detail rows.
	FormatCSV Format = "csv"
	// FormatPDF is the paginated binary document with embedded images.
	FormatPDF Format = "pdf"
)

// ParseFormat validates a format identifier. Unrecognized identifiers are
// rejected before any encoding work begins.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatCSV, FormatPDF:
		return Format(s), nil
	default:
		return "", fmt.Errorf("%w: %q", shared.ErrUnsupportedFormat, s)
	}
}

// ContentType returns the MIME type declared to the caller.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}

// Filename suggests a download name for the encoded payload.
func Filename(t reporting.ReportType, generatedAt time.Time, f Format) string {
	return fmt.Sprintf("attendance-%s-%s.%s", t, generatedAt.UTC().Format("20060102"), f)
}
