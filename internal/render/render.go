// Package render lays out parsed documents as A4 PDF pages so non-PDF uploads
// can be merged next to PDF ones.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"codeberg.org/go-pdf/fpdf"

	"github.com/dgallion1/tocmerge/internal/doctree"
	"github.com/dgallion1/tocmerge/internal/parser"
)

const (
	margin     = 56.0
	bodySize   = 11.0
	bodyLeader = 15.0
	titleSize  = 22.0

	utf8Family = "renderfont"
)

// headingSizes maps section depth (0-based) to font size. Deeper sections
// reuse the last size.
var headingSizes = []float64{17, 14, 12.5, 11.5}

// Options controls rendering.
type Options struct {
	// FontPath is an optional TrueType font. Without it text is translated to
	// cp1252 and drawn with Helvetica.
	FontPath string
}

// ToPDF returns bytes ready for merging. PDFs pass through untouched; other
// supported types are parsed and rendered. converted reports which happened.
func ToPDF(filename string, data []byte, opts Options) (out []byte, converted bool, err error) {
	if parser.IsPDF(filename) {
		return data, false, nil
	}
	p, err := parser.ForFile(filename)
	if err != nil {
		return nil, false, err
	}
	tree, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return nil, false, fmt.Errorf("convert %s: %w", filename, err)
	}
	out, err = Document(tree, opts)
	if err != nil {
		return nil, false, fmt.Errorf("convert %s: %w", filename, err)
	}
	return out, true, nil
}

// Document renders tree starting with its title. An empty tree still yields
// a single page carrying the title.
func Document(tree *doctree.DocTree, opts Options) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle(tree.Title, true)

	w := &writer{pdf: pdf, family: "Helvetica", tr: pdf.UnicodeTranslatorFromDescriptor("")}
	if opts.FontPath != "" {
		pdf.AddUTF8Font(utf8Family, "", opts.FontPath)
		pdf.AddUTF8Font(utf8Family, "B", opts.FontPath)
		w.family = utf8Family
		w.tr = func(s string) string { return s }
	}

	pdf.AddPage()
	if tree.Title != "" {
		w.heading(tree.Title, titleSize)
	}
	for _, n := range tree.Children {
		w.node(n, 0)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}
	return buf.Bytes(), nil
}

type writer struct {
	pdf    *fpdf.Fpdf
	family string
	tr     func(string) string
}

func (w *writer) node(n *doctree.DocNode, depth int) {
	if n.Title != "" {
		w.heading(n.Title, headingSizes[min(depth, len(headingSizes)-1)])
	}
	if n.Text != "" {
		w.text(n.Text)
	}
	for _, c := range n.Children {
		w.node(c, depth+1)
	}
}

func (w *writer) heading(s string, size float64) {
	w.pdf.Ln(size * 0.4)
	w.pdf.SetFont(w.family, "B", size)
	w.pdf.SetTextColor(0x1F, 0x4E, 0x79)
	w.pdf.MultiCell(0, size*1.3, w.tr(s), "", "L", false)
	w.pdf.Ln(size * 0.3)
}

func (w *writer) text(s string) {
	w.pdf.SetFont(w.family, "", bodySize)
	w.pdf.SetTextColor(0x22, 0x22, 0x22)
	for _, para := range strings.Split(s, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		w.pdf.MultiCell(0, bodyLeader, w.tr(expandTabs(para)), "", "L", false)
		w.pdf.Ln(bodyLeader * 0.5)
	}
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}
