package merge

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// link is a link annotation read back from a merged file.
type link struct {
	LLY, URY float64
	Target   int // 1-based page the destination points at
}

func readOutput(t *testing.T, m *Merger, data []byte) *model.Context {
	t.Helper()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), m.newConf())
	if err != nil {
		t.Fatalf("read merged output: %v", err)
	}
	return ctx
}

func number(t *testing.T, o types.Object) float64 {
	t.Helper()
	switch v := o.(type) {
	case types.Float:
		return v.Value()
	case types.Integer:
		return float64(v.Value())
	}
	t.Fatalf("expected a number, got %T", o)
	return 0
}

// readLinks returns the link annotations of every page, keyed by 1-based
// page number.
func readLinks(t *testing.T, ctx *model.Context) map[int][]link {
	t.Helper()
	pageByObj := make(map[int]int, ctx.PageCount)
	for p := 1; p <= ctx.PageCount; p++ {
		_, ref, _, err := ctx.PageDict(p, false)
		if err != nil {
			t.Fatalf("page %d: %v", p, err)
		}
		pageByObj[ref.ObjectNumber.Value()] = p
	}

	links := make(map[int][]link)
	for p := 1; p <= ctx.PageCount; p++ {
		d, _, _, err := ctx.PageDict(p, false)
		if err != nil {
			t.Fatalf("page %d: %v", p, err)
		}
		annots, err := ctx.DereferenceArray(d["Annots"])
		if err != nil {
			t.Fatalf("page %d annots: %v", p, err)
		}
		for _, o := range annots {
			ann, err := ctx.DereferenceDict(o)
			if err != nil {
				t.Fatalf("page %d annotation: %v", p, err)
			}
			if st := ann.NameEntry("Subtype"); st == nil || *st != "Link" {
				continue
			}
			rect, err := ctx.DereferenceArray(ann["Rect"])
			if err != nil || len(rect) != 4 {
				t.Fatalf("page %d: bad link rect %v", p, ann["Rect"])
			}
			dest := ann["Dest"]
			if dest == nil {
				if action, err := ctx.DereferenceDict(ann["A"]); err == nil && action != nil {
					dest = action["D"]
				}
			}
			arr, err := ctx.DereferenceArray(dest)
			if err != nil || len(arr) == 0 {
				t.Fatalf("page %d: link without explicit destination: %v", p, ann)
			}
			ref, ok := arr[0].(types.IndirectRef)
			if !ok {
				t.Fatalf("page %d: destination does not start with a page ref: %v", p, arr)
			}
			lly, ury := number(t, rect[1]), number(t, rect[3])
			links[p] = append(links[p], link{
				LLY:    math.Min(lly, ury),
				URY:    math.Max(lly, ury),
				Target: pageByObj[ref.ObjectNumber.Value()],
			})
		}
	}
	return links
}

// stampText concatenates the decoded form XObjects of a page.
func stampText(t *testing.T, ctx *model.Context, page int) string {
	t.Helper()
	d, _, _, err := ctx.PageDict(page, true)
	if err != nil {
		t.Fatalf("page %d: %v", page, err)
	}
	res, err := ctx.DereferenceDict(d["Resources"])
	if err != nil || res == nil {
		t.Fatalf("page %d: no resources", page)
	}
	xobjs, err := ctx.DereferenceDict(res["XObject"])
	if err != nil {
		t.Fatalf("page %d xobjects: %v", page, err)
	}
	var sb strings.Builder
	for _, o := range xobjs {
		sd, _, err := ctx.DereferenceStreamDict(o)
		if err != nil || sd == nil {
			continue
		}
		if st := sd.Subtype(); st == nil || *st != "Form" {
			continue
		}
		if err := sd.Decode(); err != nil {
			t.Fatalf("page %d: decode xobject: %v", page, err)
		}
		sb.Write(sd.Content)
	}
	return sb.String()
}

func approx(a, b float64) bool { return math.Abs(a-b) < 0.01 }

func TestMergeOutput_LinksPointAtDocuments(t *testing.T) {
	m := testMerger()
	docs := []Document{
		{Name: "A.pdf", Data: samplePDF(t, "A", 2)},
		{Name: "B.pdf", Data: samplePDF(t, "B", 1)},
	}
	res, err := m.Merge(context.Background(), docs, nil, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	links := readLinks(t, readOutput(t, m, res.Data))
	if len(links) != 1 || len(links[1]) != 2 {
		t.Fatalf("expected 2 links on the toc page only, got %v", links)
	}
	for i, l := range links[1] {
		if want := res.FirstPages[i] + 1; l.Target != want {
			t.Errorf("link %d: expected target page %d, got %d", i, want, l.Target)
		}
		y := res.Lines[i].Y
		if !approx(l.LLY, y-2) || !approx(l.URY, y+12) {
			t.Errorf("link %d: expected rect y %.1f..%.1f, got %.1f..%.1f", i, y-2, y+12, l.LLY, l.URY)
		}
	}
	if links[1][0].Target != 2 || links[1][1].Target != 4 {
		t.Errorf("expected targets 2 and 4, got %d and %d", links[1][0].Target, links[1][1].Target)
	}
}

func TestMergeOutput_LinksSplitAcrossTOCPages(t *testing.T) {
	m := testMerger()
	one := samplePDF(t, "x", 1)
	docs := make([]Document, 35)
	for i := range docs {
		docs[i] = Document{Name: fmt.Sprintf("d%02d.pdf", i), Data: one}
	}
	res, err := m.Merge(context.Background(), docs, nil, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	links := readLinks(t, readOutput(t, m, res.Data))
	if len(links[1]) != 30 || len(links[2]) != 5 {
		t.Fatalf("expected 30+5 links on toc pages 1 and 2, got %d+%d", len(links[1]), len(links[2]))
	}
	for p := 3; p <= res.PageCount; p++ {
		if len(links[p]) != 0 {
			t.Errorf("page %d: expected no links on document pages, got %d", p, len(links[p]))
		}
	}
	all := append(append([]link{}, links[1]...), links[2]...)
	for i, l := range all {
		if want := res.FirstPages[i] + 1; l.Target != want {
			t.Errorf("entry %d: expected target page %d, got %d", i, want, l.Target)
		}
		if y := res.Lines[i].Y; !approx(l.LLY, y-2) || !approx(l.URY, y+12) {
			t.Errorf("entry %d: rect %.1f..%.1f does not cover line at %.1f", i, l.LLY, l.URY, y)
		}
	}
	if all[0].Target != 3 || all[34].Target != 37 {
		t.Errorf("expected targets 3..37, got %d..%d", all[0].Target, all[34].Target)
	}
}

func TestMergeOutput_PageNumberStamps(t *testing.T) {
	m := testMerger()
	docs := []Document{
		{Name: "A.pdf", Data: samplePDF(t, "A", 2)},
		{Name: "B.pdf", Data: samplePDF(t, "B", 1)},
	}
	res, err := m.Merge(context.Background(), docs, nil, Options{PageNumbers: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := readOutput(t, m, res.Data)
	if ctx.PageCount != 4 {
		t.Fatalf("expected 4 pages, got %d", ctx.PageCount)
	}
	for p := 1; p <= ctx.PageCount; p++ {
		want := fmt.Sprintf("(%d) Tj", p)
		if got := stampText(t, ctx, p); !strings.Contains(got, want) {
			t.Errorf("page %d: expected stamp %q, got %q", p, want, got)
		}
	}
	if links := readLinks(t, ctx); len(links[1]) != 2 {
		t.Errorf("expected toc links to survive stamping, got %d", len(links[1]))
	}
}

func TestMergeOutput_NoStampsByDefault(t *testing.T) {
	m := testMerger()
	res, err := m.Merge(context.Background(), []Document{{Name: "A.pdf", Data: samplePDF(t, "A", 1)}}, nil, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := readOutput(t, m, res.Data)
	for p := 1; p <= ctx.PageCount; p++ {
		if got := stampText(t, ctx, p); strings.Contains(got, "Tj") {
			t.Errorf("page %d: unexpected stamp %q", p, got)
		}
	}
}
