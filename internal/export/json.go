package export

import (
	"encoding/json"
	"io"

	"github.com/eas-platform/eas/internal/reporting"
)

// WriteJSON dumps the report losslessly for machine consumption. Decoding the
// output with ReadJSON yields a value equal to the original report.
func WriteJSON(w io.Writer, rep *reporting.Report) error {
	enc := json.NewEncoder(w)
	return enc.Encode(rep)
}

// ReadJSON decodes a report previously written by WriteJSON.
func ReadJSON(r io.Reader) (*reporting.Report, error) {
	var rep reporting.Report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return nil, err
	}
	return &rep, nil
}
