// Package merge assembles uploaded PDFs into one document opened by a
// clickable table of contents, with one bookmark per document and an optional
// page-number footer on every page.
package merge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/dgallion1/tocmerge/internal/toc"
)

// ErrNoDocuments is returned when a merge is requested without inputs.
var ErrNoDocuments = errors.New("no documents to merge")

// DocumentError reports an input that could not be read as a PDF.
type DocumentError struct {
	Name string
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Name, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// Document is one uploaded PDF.
type Document struct {
	Name string
	Data []byte
}

// Options selects the output variant.
type Options struct {
	PageNumbers bool
}

// Result is the merged document plus the layout decisions behind it.
type Result struct {
	Data       []byte
	PageCount  int
	TOCPages   int
	Entries    []toc.Entry
	FirstPages []int // zero-based index of each document's first page
	Lines      []toc.LinePosition
}

// Link rectangles span the TOC page width minus this inset on both sides.
const linkInset = 70.0

// pageNumberStamp right-aligns the number near the bottom right corner.
const pageNumberStamp = "fontname:Helvetica, points:10, position:br, offset:-40 24, " +
	"scalefactor:1 abs, rotation:0, fillcolor:#333333, opacity:1, aligntext:r"

// Merger runs the merge pipeline. It holds no per-request state and is safe
// for concurrent use.
type Merger struct {
	tocOpts toc.Options
	relaxed bool
	log     *slog.Logger
}

func NewMerger(tocOpts toc.Options, relaxed bool, log *slog.Logger) *Merger {
	// pdfcpu settings come from Config, not from a per-user config dir.
	api.DisableConfigDir()
	return &Merger{tocOpts: tocOpts, relaxed: relaxed, log: log}
}

// newConf returns a fresh configuration; pdfcpu mutates it per command.
func (m *Merger) newConf() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	if m.relaxed {
		conf.ValidationMode = model.ValidationRelaxed
	}
	return conf
}

// PageCount reads the number of pages of a PDF.
func (m *Merger) PageCount(data []byte) (int, error) {
	return api.PageCount(bytes.NewReader(data), m.newConf())
}

// ResolveTitle returns the custom title for name, falling back to name.
func ResolveTitle(name string, titles map[string]string) string {
	if t, ok := titles[name]; ok && t != "" {
		return t
	}
	return name
}

// PlanEntries computes each document's TOC entry and zero-based first page
// index, given the page counts in upload order and the number of TOC pages
// that precede them.
func PlanEntries(titles []string, pageCounts []int, tocPages int) ([]toc.Entry, []int) {
	entries := make([]toc.Entry, len(pageCounts))
	first := make([]int, len(pageCounts))
	offset := tocPages
	for i, n := range pageCounts {
		first[i] = offset
		entries[i] = toc.Entry{Title: titles[i], StartPage: offset + 1}
		offset += n
	}
	return entries, first
}

// Merge builds the merged document. Any unreadable input aborts the whole
// merge; there is no partial output.
func (m *Merger) Merge(ctx context.Context, docs []Document, titles map[string]string, opts Options) (*Result, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}
	start := time.Now()

	resolved := make([]string, len(docs))
	counts := make([]int, len(docs))
	total := 0
	for i, d := range docs {
		n, err := m.PageCount(d.Data)
		if err != nil {
			return nil, &DocumentError{Name: d.Name, Err: err}
		}
		counts[i] = n
		total += n
		resolved[i] = ResolveTitle(d.Name, titles)
		if m.tocOpts.FontPath == "" && !toc.Encodable(resolved[i]) {
			m.log.Warn("toc title not representable in cp1252, set TOC_FONT_PATH to render it",
				"document", d.Name, "title", resolved[i])
		}
	}

	tocPages := toc.Pages(len(docs))
	entries, first := PlanEntries(resolved, counts, tocPages)

	layout, err := toc.Render(entries, m.tocOpts)
	if err != nil {
		return nil, err
	}
	if layout.Pages != tocPages {
		return nil, fmt.Errorf("toc rendered %d pages, planned %d", layout.Pages, tocPages)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := m.concat(layout.Data, docs)
	if err != nil {
		return nil, err
	}

	data, err = m.addBookmarks(data, entries, first, counts)
	if err != nil {
		return nil, err
	}

	data, err = m.addLinks(data, layout, first, counts)
	if err != nil {
		return nil, err
	}

	if opts.PageNumbers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err = m.addPageNumbers(data)
		if err != nil {
			return nil, err
		}
	}

	pages, err := m.PageCount(data)
	if err != nil {
		return nil, fmt.Errorf("read merged document: %w", err)
	}
	if want := tocPages + total; pages != want {
		return nil, fmt.Errorf("merged document has %d pages, expected %d", pages, want)
	}

	m.log.Info("merge complete",
		"documents", len(docs),
		"toc_pages", tocPages,
		"pages", pages,
		"page_numbers", opts.PageNumbers,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &Result{
		Data:       data,
		PageCount:  pages,
		TOCPages:   tocPages,
		Entries:    entries,
		FirstPages: first,
		Lines:      layout.Lines,
	}, nil
}

// concat appends the TOC pages, then every document's pages in order.
func (m *Merger) concat(tocData []byte, docs []Document) ([]byte, error) {
	readers := make([]io.ReadSeeker, 0, len(docs)+1)
	readers = append(readers, bytes.NewReader(tocData))
	for _, d := range docs {
		readers = append(readers, bytes.NewReader(d.Data))
	}

	var out bytes.Buffer
	if err := api.MergeRaw(readers, &out, false, m.newConf()); err != nil {
		return nil, fmt.Errorf("merge pages: %w", err)
	}
	return out.Bytes(), nil
}

// addBookmarks replaces any carried-over outline with one entry per document.
// Documents without pages have no first page to point at and are skipped.
func (m *Merger) addBookmarks(data []byte, entries []toc.Entry, first, counts []int) ([]byte, error) {
	bms := make([]pdfcpu.Bookmark, 0, len(entries))
	for i, e := range entries {
		if counts[i] == 0 {
			m.log.Warn("document has no pages, skipping bookmark", "title", e.Title)
			continue
		}
		bms = append(bms, pdfcpu.Bookmark{Title: e.Title, PageFrom: first[i] + 1})
	}
	if len(bms) == 0 {
		return data, nil
	}

	var out bytes.Buffer
	if err := api.AddBookmarks(bytes.NewReader(data), &out, bms, true, m.newConf()); err != nil {
		return nil, fmt.Errorf("add bookmarks: %w", err)
	}
	return out.Bytes(), nil
}

// addLinks places one link annotation over each TOC line, on the TOC page the
// line was drawn on, jumping to the document's first page.
func (m *Merger) addLinks(data []byte, layout *toc.Layout, first, counts []int) ([]byte, error) {
	anns := make(map[int][]model.AnnotationRenderer)
	for i, line := range layout.Lines {
		if counts[i] == 0 {
			continue
		}
		rect := types.NewRectangle(linkInset, line.Y-2, layout.PageWidth-linkInset, line.Y+12)
		dest := &model.Destination{Typ: model.DestFit, PageNr: first[i] + 1}
		link := model.NewLinkAnnotation(
			*rect,                      // rect
			0,                          // apObjNr
			"",                         // contents
			fmt.Sprintf("toc-%d", i+1), // id
			"",                         // modDate
			0,                          // f
			nil,                        // borderCol
			dest,                       // dest
			"",                         // uri
			nil,                        // quad
			false,                      // border
			0,                          // borderWidth
			model.BSSolid,              // borderStyle
		)
		page := line.Page + 1
		anns[page] = append(anns[page], link)
	}
	if len(anns) == 0 {
		return data, nil
	}

	var out bytes.Buffer
	if err := api.AddAnnotationsMap(bytes.NewReader(data), &out, anns, m.newConf()); err != nil {
		return nil, fmt.Errorf("add toc links: %w", err)
	}
	return out.Bytes(), nil
}

// addPageNumbers stamps the 1-based page number on top of every page.
func (m *Merger) addPageNumbers(data []byte) ([]byte, error) {
	wm, err := api.TextWatermark("%p", pageNumberStamp, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("page number stamp: %w", err)
	}

	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(data), &out, nil, wm, m.newConf()); err != nil {
		return nil, fmt.Errorf("add page numbers: %w", err)
	}
	return out.Bytes(), nil
}
