package render

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/eas-platform/eas/internal/reporting"
)

// Document is the paginated, layout-resolved form of a report, ready for
// format-specific encoding. Built once per render call and discarded after.
type Document struct {
	Title        string
	Organization string
	GeneratedAt  time.Time
	Layout       Layout
	Pages        []*Page
	TotalRows    int
}

// Page holds one page's resolved blocks. Rows keep input order.
type Page struct {
	Number int
	Header Header
	Rows   []Row
	// Footer is set on the final page only; every page reserves its space.
	Footer *Footer
}

// Header is the fixed-height block at the top of every page.
type Header struct {
	Title    string
	Subtitle string
	Meta     string
}

// Row is one placed detail row. Alt marks the cosmetic stripe; it never
// influences geometry.
type Row struct {
	Index  int
	Y      float64
	Height float64
	Cells  []Cell
	Alt    bool
}

// Cell is one column's content within a row: wrapped text lines, or an image
// placement for image columns.
type Cell struct {
	Column int
	Lines  []string
	Image  *ImagePlacement
}

// ImagePlacement positions one embedded image. Placeholder marks an image
// that could not be fetched; encoders draw a marker instead.
type ImagePlacement struct {
	Ref         string
	Data        []byte
	X, Y, W, H  float64
	Placeholder bool
}

// Footer carries the final-page aggregate total and signature line.
type Footer struct {
	TotalRows     int
	SignatureLine bool
	Y             float64
}

// Options configures a render run.
type Options struct {
	Title        string
	Organization string
	Fetcher      ImageFetcher
	// FetchConcurrency bounds parallel image fetches; zero means the default.
	FetchConcurrency int
	// FetchTimeout bounds each individual fetch; zero means the default.
	FetchTimeout time.Duration
	Logger       *slog.Logger
}

// Render lays the report's detail rows out into pages.
//
// Contract on cancellation: a cancelled context aborts the render and returns
// (nil, ctx.Err()); pages already laid out are discarded, never returned as a
// partial document.
//
// A row whose image cannot be fetched degrades to a placeholder marker; a
// render never fails because of a missing asset.
func Render(ctx context.Context, rep *reporting.Report, layout Layout, opts Options) (*Document, error) {
	if rep == nil {
		return nil, fmt.Errorf("render: report required")
	}
	if len(layout.Columns) == 0 {
		layout = DefaultLayout()
	}

	refs := make([]string, 0, 2*len(rep.Data.Rows))
	for _, row := range rep.Data.Rows {
		refs = append(refs, row.SelfieRef, row.SignatureRef)
	}
	images, err := prefetch(ctx, opts.Fetcher, refs, opts.FetchConcurrency, opts.FetchTimeout, opts.Logger)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Title:        opts.Title,
		Organization: opts.Organization,
		GeneratedAt:  rep.Meta.GeneratedAt,
		Layout:       layout,
		TotalRows:    len(rep.Data.Rows),
	}
	if doc.Title == "" {
		doc.Title = fmt.Sprintf("%s report", rep.Meta.Type)
	}
	header := Header{
		Title:    doc.Title,
		Subtitle: doc.Organization,
		Meta:     headerMeta(rep),
	}

	usable := layout.UsableHeight()
	page := newPage(1, header)
	var y float64

	for i, detail := range rep.Data.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cells, hasImage := layoutCells(layout, detail, images)
		h := layout.rowHeight(textLines(cells), hasImage)
		if h > usable {
			h = usable
		}

		// Page break check precedes placement; the row that does not fit
		// opens the next page.
		if y+h > usable && len(page.Rows) > 0 {
			doc.Pages = append(doc.Pages, page)
			page = newPage(len(doc.Pages)+1, header)
			y = 0
		}

		rowY := layout.ContentTop() + y
		positionImages(layout, cells, rowY, h)
		page.Rows = append(page.Rows, Row{
			Index:  i,
			Y:      rowY,
			Height: h,
			Cells:  cells,
			Alt:    i%2 == 1,
		})
		y += h
	}

	page.Footer = &Footer{
		TotalRows:     doc.TotalRows,
		SignatureLine: true,
		Y:             layout.PageHeight - layout.MarginBottom - layout.FooterHeight,
	}
	doc.Pages = append(doc.Pages, page)
	return doc, nil
}

func newPage(number int, header Header) *Page {
	return &Page{Number: number, Header: header}
}

func headerMeta(rep *reporting.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generated %s", rep.Meta.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))
	if rep.Meta.SystemWide {
		b.WriteString(" | all campuses")
	} else {
		fmt.Fprintf(&b, " | campuses %v", rep.Meta.CampusIDs)
	}
	if rep.Meta.From != nil && rep.Meta.To != nil {
		fmt.Fprintf(&b, " | %s to %s",
			rep.Meta.From.Format("2006-01-02"), rep.Meta.To.Format("2006-01-02"))
	}
	return b.String()
}

// layoutCells wraps the row's text into the fixed columns and attaches image
// placements (positions filled in after the row's Y is known).
func layoutCells(layout Layout, row reporting.DetailRow, images map[string][]byte) ([]Cell, bool) {
	values := []string{
		row.StudentName,
		row.StudentID,
		row.EventTitle,
		row.CampusCode,
		string(row.Status),
		row.MarkedAt.UTC().Format("2006-01-02 15:04"),
		row.SelfieRef,
		row.SignatureRef,
	}

	hasImage := false
	cells := make([]Cell, 0, len(layout.Columns))
	for i, col := range layout.Columns {
		value := ""
		if i < len(values) {
			value = values[i]
		}
		if !col.Image {
			cells = append(cells, Cell{Column: i, Lines: layout.wrap(value, col.Width)})
			continue
		}
		cell := Cell{Column: i}
		if value != "" {
			data, ok := images[value]
			cell.Image = &ImagePlacement{Ref: value, Data: data, Placeholder: !ok}
			hasImage = true
		}
		cells = append(cells, cell)
	}
	return cells, hasImage
}

func textLines(cells []Cell) [][]string {
	out := make([][]string, 0, len(cells))
	for _, c := range cells {
		if c.Image == nil {
			out = append(out, c.Lines)
		}
	}
	return out
}

func positionImages(layout Layout, cells []Cell, rowY, rowHeight float64) {
	for i := range cells {
		img := cells[i].Image
		if img == nil {
			continue
		}
		col := layout.Columns[cells[i].Column]
		img.X = layout.ColumnX(cells[i].Column) + layout.CellPadding
		img.Y = rowY + layout.CellPadding
		img.W = col.Width - 2*layout.CellPadding
		img.H = rowHeight - 2*layout.CellPadding
	}
}
