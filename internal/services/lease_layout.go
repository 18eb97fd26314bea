package services

import "strings"

// Layout constants for the lease document. The page is US Letter in points;
// margins and line height match the composer's font setup.
const (
	PageWidthPt      = 612.0
	PageHeightPt     = 792.0
	PageMarginPt     = 54.0
	LeaseLineHeight  = 14.0
	LeaseWrapColumns = 92
)

// WrapText reflows paragraph text into lines of at most maxChars characters,
// breaking only at word boundaries. Blank input lines are preserved one for
// one so paragraph spacing in the source text survives the reflow. A single
// word longer than maxChars is emitted on its own line rather than split.
func WrapText(text string, maxChars int) []string {
	var out []string
	for _, raw := range strings.Split(text, "\n") {
		if strings.TrimSpace(raw) == "" {
			out = append(out, "")
			continue
		}
		words := strings.Fields(raw)
		line := words[0]
		for _, word := range words[1:] {
			if len(line)+1+len(word) <= maxChars {
				line += " " + word
			} else {
				out = append(out, line)
				line = word
			}
		}
		out = append(out, line)
	}
	return out
}

// Cursor tracks the vertical write position while lines are placed on pages
type Cursor struct {
	Page int
	Y    float64
}

// PageMetrics describes the writable region of a page
type PageMetrics struct {
	TopMargin   float64
	BottomLimit float64
	LineHeight  float64
}

// LeasePageMetrics returns the metrics used for lease body text
func LeasePageMetrics() PageMetrics {
	return PageMetrics{
		TopMargin:   PageMarginPt,
		BottomLimit: PageHeightPt - PageMarginPt,
		LineHeight:  LeaseLineHeight,
	}
}

// Advance moves the cursor down by one line height, rolling to the top of a
// new page when the next line would cross the bottom limit. The returned bool
// reports whether a page break occurred, so the caller can emit the page.
func (m PageMetrics) Advance(c Cursor) (Cursor, bool) {
	c.Y += m.LineHeight
	if c.Y+m.LineHeight > m.BottomLimit {
		return Cursor{Page: c.Page + 1, Y: m.TopMargin}, true
	}
	return c, false
}

// Start returns the cursor position for the first line of the first page
func (m PageMetrics) Start() Cursor {
	return Cursor{Page: 1, Y: m.TopMargin}
}

// PlaceLines runs the cursor over a line slice and returns the final cursor
// and the total number of pages consumed. It exists so pagination can be
// exercised without producing a document.
func (m PageMetrics) PlaceLines(lines []string) (Cursor, int) {
	c := m.Start()
	pages := 1
	for range lines {
		// c is where this line lands; the advance may roll past the end
		// of the page without another line following it
		if c.Page > pages {
			pages = c.Page
		}
		c, _ = m.Advance(c)
	}
	return c, pages
}
