package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/eas-platform/eas/internal/render"
	"github.com/eas-platform/eas/internal/shared"
)

// WritePDF encodes a rendered document into PDF bytes, one PDF page per
// document page, embedding images at their computed placements. An image that
// cannot be embedded degrades to a placeholder box; only a failure to produce
// the container itself is fatal.
func WritePDF(w io.Writer, doc *render.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: no document", shared.ErrEncodingFailure)
	}
	layout := doc.Layout

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "mm",
		Size:    gofpdf.SizeType{Wd: layout.PageWidth, Ht: layout.PageHeight},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(layout.MarginSide, layout.MarginTop, layout.MarginSide)

	printer := message.NewPrinter(language.English)
	registered := make(map[string]bool)

	for _, page := range doc.Pages {
		pdf.AddPage()
		drawHeader(pdf, layout, page.Header)
		for _, row := range page.Rows {
			drawRow(pdf, layout, row, registered)
		}
		if page.Footer != nil {
			drawFooter(pdf, layout, page.Footer, printer)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrEncodingFailure, err)
	}
	return nil
}

func drawHeader(pdf *gofpdf.Fpdf, layout render.Layout, h render.Header) {
	y := layout.MarginTop

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Text(layout.MarginSide, y+5, h.Title)
	if h.Subtitle != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.Text(layout.MarginSide, y+10.5, h.Subtitle)
	}
	pdf.SetFont("Helvetica", "", 7.5)
	pdf.Text(layout.MarginSide, y+15.5, h.Meta)

	// Column title strip at the bottom of the header block.
	titleY := y + layout.HeaderHeight - 6
	pdf.SetFillColor(240, 240, 240)
	pdf.Rect(layout.MarginSide, titleY, layout.PageWidth-2*layout.MarginSide, 6, "F")
	pdf.SetFont("Helvetica", "B", 7.5)
	for i, col := range layout.Columns {
		pdf.Text(layout.ColumnX(i)+layout.CellPadding, titleY+4, col.Title)
	}
	pdf.SetDrawColor(180, 180, 180)
	pdf.Line(layout.MarginSide, y+layout.HeaderHeight, layout.PageWidth-layout.MarginSide, y+layout.HeaderHeight)
}

func drawRow(pdf *gofpdf.Fpdf, layout render.Layout, row render.Row, registered map[string]bool) {
	if row.Alt {
		// Cosmetic stripe only; geometry is fixed before this point.
		pdf.SetFillColor(248, 248, 248)
		pdf.Rect(layout.MarginSide, row.Y, layout.PageWidth-2*layout.MarginSide, row.Height, "F")
	}

	pdf.SetFont("Helvetica", "", 7)
	for _, cell := range row.Cells {
		if cell.Image != nil {
			drawImage(pdf, cell.Image, registered)
			continue
		}
		x := layout.ColumnX(cell.Column) + layout.CellPadding
		for i, line := range cell.Lines {
			pdf.Text(x, row.Y+layout.CellPadding+float64(i+1)*layout.LineHeight-1, line)
		}
	}
}

// drawImage embeds a fetched image, or draws a placeholder box when the asset
// is missing or its encoding is not embeddable. The image type is sniffed
// before handing the bytes to the PDF engine.
func drawImage(pdf *gofpdf.Fpdf, img *render.ImagePlacement, registered map[string]bool) {
	if !img.Placeholder && len(img.Data) > 0 {
		if typ := sniffImageType(img.Data); typ != "" && embedImage(pdf, img, typ, registered) {
			return
		}
	}

	// Placeholder marker: outlined box with a diagonal.
	pdf.SetDrawColor(160, 160, 160)
	pdf.Rect(img.X, img.Y, img.W, img.H, "D")
	pdf.Line(img.X, img.Y, img.X+img.W, img.Y+img.H)
}

// embedImage registers and places one image, reporting success. gofpdf keeps
// a sticky error once a body fails to decode, which would abort the whole
// document at Output; clearing it here keeps a bad image per-item
// recoverable.
func embedImage(pdf *gofpdf.Fpdf, img *render.ImagePlacement, typ string, registered map[string]bool) bool {
	opts := gofpdf.ImageOptions{ImageType: typ}
	if !registered[img.Ref] {
		pdf.RegisterImageOptionsReader(img.Ref, opts, bytes.NewReader(img.Data))
		if pdf.Err() {
			pdf.ClearError()
			return false
		}
		registered[img.Ref] = true
	}
	pdf.ImageOptions(img.Ref, img.X, img.Y, img.W, img.H, false, opts, 0, "")
	if pdf.Err() {
		pdf.ClearError()
		return false
	}
	return true
}

func drawFooter(pdf *gofpdf.Fpdf, layout render.Layout, f *render.Footer, printer *message.Printer) {
	pdf.SetDrawColor(180, 180, 180)
	pdf.Line(layout.MarginSide, f.Y, layout.PageWidth-layout.MarginSide, f.Y)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.Text(layout.MarginSide, f.Y+6, printer.Sprintf("Total records: %d", f.TotalRows))

	if f.SignatureLine {
		sigX := layout.PageWidth - layout.MarginSide - 60
		pdf.Line(sigX, f.Y+10, sigX+60, f.Y+10)
		pdf.SetFont("Helvetica", "", 7.5)
		pdf.Text(sigX, f.Y+14, "Verified by (signature over printed name)")
	}
}

// sniffImageType recognizes the encodings the PDF engine can embed directly.
func sniffImageType(data []byte) string {
	switch {
	case len(data) > 8 && bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "PNG"
	case len(data) > 3 && data[0] == 0xFF && data[1] == 0xD8:
		return "JPG"
	case len(data) > 6 && (bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a"))):
		return "GIF"
	default:
		return ""
	}
}
