// Package render lays a report's detail rows out into a paginated,
// layout-resolved document. The layout is deterministic: the same report and
// layout always produce the same pages, and nothing cosmetic (row striping)
// feeds back into geometry.
package render

import "strings"

// Column is one fixed-width table column. Image columns carry an image
// placement instead of wrapped text.
type Column struct {
	Title string
	Width float64
	Image bool
}

// Layout is the page geometry, in the output unit (millimetres for the PDF
// encoder). Footer space is reserved on every page so closing a page never
// discovers it has no room for the running total.
type Layout struct {
	PageWidth    float64
	PageHeight   float64
	MarginTop    float64
	MarginBottom float64
	MarginSide   float64
	HeaderHeight float64
	FooterHeight float64
	RowMinHeight float64
	// ImageRowHeight is the enlarged row height used when a row embeds at
	// least one image.
	ImageRowHeight float64
	LineHeight     float64
	CellPadding    float64
	// CharWidth approximates glyph advance for the wrapping computation.
	CharWidth float64
	Columns   []Column

	// MaxCellLines bounds wrapping; overflow beyond it is clipped with an
	// ellipsis. Structure is never lost, only display.
	MaxCellLines int
}

// DefaultLayout is A4 portrait with the attendance sheet columns.
func DefaultLayout() Layout {
	return Layout{
		PageWidth:      210,
		PageHeight:     297,
		MarginTop:      12,
		MarginBottom:   12,
		MarginSide:     10,
		HeaderHeight:   30,
		FooterHeight:   18,
		RowMinHeight:   8,
		ImageRowHeight: 24,
		LineHeight:     4,
		CellPadding:    1.5,
		CharWidth:      1.8,
		MaxCellLines:   4,
		Columns: []Column{
			{Title: "Student", Width: 38},
			{Title: "Student ID", Width: 24},
			{Title: "Event", Width: 44},
			{Title: "Campus", Width: 16},
			{Title: "Status", Width: 18},
			{Title: "Marked At", Width: 28},
			{Title: "Photo", Width: 11, Image: true},
			{Title: "Signature", Width: 11, Image: true},
		},
	}
}

// UsableHeight is the vertical space available to rows on any page, with
// header and footer extents already subtracted.
func (l Layout) UsableHeight() float64 {
	return l.PageHeight - l.MarginTop - l.MarginBottom - l.HeaderHeight - l.FooterHeight
}

// ContentTop is the absolute Y where row content begins.
func (l Layout) ContentTop() float64 {
	return l.MarginTop + l.HeaderHeight
}

func (l Layout) maxCellLines() int {
	if l.MaxCellLines > 0 {
		return l.MaxCellLines
	}
	return 4
}

// wrap splits text into lines that fit the column width. Words longer than a
// line are hard-split. Lines beyond the cap are dropped and the last kept
// line gets an ellipsis. The per-line budget counts runes, never bytes, so
// multi-byte text wraps at its glyph count and is never split mid-rune.
func (l Layout) wrap(text string, colWidth float64) []string {
	maxChars := int((colWidth - 2*l.CellPadding) / l.CharWidth)
	if maxChars < 1 {
		maxChars = 1
	}
	if text == "" {
		return []string{""}
	}

	var lines []string
	var line []rune
	for _, word := range strings.Fields(text) {
		runes := []rune(word)
		for len(runes) > maxChars {
			if len(line) > 0 {
				lines = append(lines, string(line))
				line = nil
			}
			lines = append(lines, string(runes[:maxChars]))
			runes = runes[maxChars:]
		}
		switch {
		case len(line) == 0:
			line = runes
		case len(line)+1+len(runes) <= maxChars:
			line = append(line, ' ')
			line = append(line, runes...)
		default:
			lines = append(lines, string(line))
			line = runes
		}
	}
	if len(line) > 0 {
		lines = append(lines, string(line))
	}
	if len(lines) == 0 {
		lines = []string{""}
	}

	if limit := l.maxCellLines(); len(lines) > limit {
		lines = lines[:limit]
		last := []rune(lines[limit-1])
		if len(last) > 3 {
			last = last[:len(last)-3]
		}
		lines[limit-1] = string(last) + "..."
	}
	return lines
}

// rowHeight computes the deterministic height of a row: the fixed minimum, or
// enough for the tallest wrapped cell, enlarged to the image height when the
// row embeds one. Striping plays no part here.
func (l Layout) rowHeight(cells [][]string, hasImage bool) float64 {
	maxLines := 1
	for _, lines := range cells {
		if len(lines) > maxLines {
			maxLines = len(lines)
		}
	}
	h := float64(maxLines)*l.LineHeight + 2*l.CellPadding
	if h < l.RowMinHeight {
		h = l.RowMinHeight
	}
	if hasImage && h < l.ImageRowHeight {
		h = l.ImageRowHeight
	}
	return h
}

// ColumnX returns the absolute X of the given column.
func (l Layout) ColumnX(col int) float64 {
	x := l.MarginSide
	for i := 0; i < col && i < len(l.Columns); i++ {
		x += l.Columns[i].Width
	}
	return x
}
