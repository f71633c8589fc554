// Package toc renders the table-of-contents pages that open a merged document.
package toc

import (
	"bytes"
	"fmt"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"
)

// A4 in points.
const (
	PageWidth  = 595.28
	PageHeight = 841.89
)

// Heading is drawn once, at the top of the first TOC page.
const Heading = "Table of Contents"

const (
	headingX    = 72.0
	headingSize = 20.0
	entryX      = 80.0
	entrySize   = 13.0

	topMargin       = 72.0
	firstLineOffset = 110.0
	lineHeight      = 22.0
	bottomMargin    = 72.0

	utf8Family = "tocfont"
)

// Entry is one line of the table of contents.
type Entry struct {
	Title     string
	StartPage int // 1-based page number in the merged document
}

// LinePosition is where an entry's line was drawn: the zero-based TOC page
// and the baseline in PDF user space (origin bottom-left).
type LinePosition struct {
	Page int
	Y    float64
}

// Layout is a rendered table of contents.
type Layout struct {
	Data       []byte
	Lines      []LinePosition
	PageWidth  float64
	PageHeight float64
	Pages      int
}

// Options controls rendering.
type Options struct {
	// FontPath is an optional TrueType font used for all text. Without it the
	// core Helvetica fonts are used and text is translated to cp1252.
	FontPath string
}

// Plan computes the line positions for n entries and the number of TOC pages
// needed, without rendering anything.
func Plan(n int) ([]LinePosition, int) {
	lines := make([]LinePosition, 0, n)
	page := 0
	y := PageHeight - firstLineOffset
	for range n {
		if y < bottomMargin {
			page++
			y = PageHeight - topMargin
		}
		lines = append(lines, LinePosition{Page: page, Y: y})
		y -= lineHeight
	}
	return lines, page + 1
}

// Pages returns the number of TOC pages needed for n entries.
func Pages(n int) int {
	_, pages := Plan(n)
	return pages
}

// Encodable reports whether s survives the cp1252 translation used when no
// FontPath is set. Other runes are dropped or replaced in the drawn text.
func Encodable(s string) bool {
	for _, r := range s {
		if _, ok := charmap.Windows1252.EncodeRune(r); !ok {
			return false
		}
	}
	return true
}

// Line formats the text drawn for the entry at zero-based index i.
func Line(i int, e Entry) string {
	return fmt.Sprintf("%d. %s ...... p. %d", i+1, e.Title, e.StartPage)
}

// Render draws the heading and one line per entry, spilling onto extra pages
// when the entries do not fit.
func Render(entries []Entry, opts Options) (*Layout, error) {
	lines, pages := Plan(len(entries))

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: PageWidth, Ht: PageHeight},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(Heading, true)

	family := "Helvetica"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if opts.FontPath != "" {
		pdf.AddUTF8Font(utf8Family, "", opts.FontPath)
		pdf.AddUTF8Font(utf8Family, "B", opts.FontPath)
		family = utf8Family
		tr = func(s string) string { return s }
	}

	pdf.AddPage()
	pdf.SetFont(family, "B", headingSize)
	pdf.SetTextColor(0x1F, 0x4E, 0x79)
	pdf.Text(headingX, topMargin, tr(Heading))

	pdf.SetFont(family, "", entrySize)
	pdf.SetTextColor(0x33, 0x33, 0x33)
	current := 0
	for i, e := range entries {
		pos := lines[i]
		for current < pos.Page {
			pdf.AddPage()
			current++
		}
		// fpdf measures y from the top edge.
		pdf.Text(entryX, PageHeight-pos.Y, tr(Line(i, e)))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render toc: %w", err)
	}

	return &Layout{
		Data:       buf.Bytes(),
		Lines:      lines,
		PageWidth:  PageWidth,
		PageHeight: PageHeight,
		Pages:      pages,
	}, nil
}
