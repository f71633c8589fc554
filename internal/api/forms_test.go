package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/dgallion1/tocmerge/internal/merge"
	"github.com/dgallion1/tocmerge/internal/parser"
	"github.com/dgallion1/tocmerge/internal/pipeline"
	"github.com/dgallion1/tocmerge/internal/session"
)

func TestTitlesFromForm(t *testing.T) {
	form := url.Values{
		"title_0":     {"By index"},
		"title_a.pdf": {"By name"},
		"title_b.pdf": {"  Named B  "},
		"titles":      {"P0", "P1", "P2", "   "},
	}
	got := titlesFromForm(form, []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf"})

	want := map[string]string{
		"a.pdf": "By index",
		"b.pdf": "Named B",
		"c.pdf": "P2",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d titles, got %v", len(want), got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: expected %q, got %q", k, v, got[k])
		}
	}
}

func TestMergeOptions(t *testing.T) {
	tests := []struct {
		vals []string
		want bool
	}{
		{nil, true},
		{[]string{"true"}, true},
		{[]string{"on"}, true},
		{[]string{"false"}, false},
		{[]string{"0"}, false},
		{[]string{"false", "true"}, true},
		{[]string{"true", "off"}, false},
	}
	for _, tt := range tests {
		form := url.Values{}
		if tt.vals != nil {
			form["page_numbers"] = tt.vals
		}
		if got := mergeOptions(form).PageNumbers; got != tt.want {
			t.Errorf("page_numbers=%v: expected %v, got %v", tt.vals, tt.want, got)
		}
	}
}

func TestOutputFilename(t *testing.T) {
	on := merge.Options{PageNumbers: true}
	off := merge.Options{}
	tests := []struct {
		requested string
		opts      merge.Options
		want      string
	}{
		{"", on, numberedName},
		{"", off, styledName},
		{"  ", on, numberedName},
		{"Annual Report.pdf", on, "annual-report.pdf"},
		{"../../etc/passwd", off, "passwd.pdf"},
		{"***", off, styledName},
		{"plain_name", on, "plain_name.pdf"},
	}
	for _, tt := range tests {
		if got := outputFilename(tt.requested, tt.opts); got != tt.want {
			t.Errorf("outputFilename(%q): expected %q, got %q", tt.requested, tt.want, got)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"report.pdf":              "report.pdf",
		"/tmp/x/report.pdf":       "report.pdf",
		`C:\Users\me\report.pdf`:  "report.pdf",
		"..":                      "_",
		"":                        "unnamed",
		"a..b.pdf":                "a_b.pdf",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello World":   "hello-world",
		"  --a--b--  ":  "a-b",
		"Ünïcode name":  "n-code-name",
		"snake_case_ok": "snake_case_ok",
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{badRequest("x"), http.StatusBadRequest},
		{tooLarge("x"), http.StatusRequestEntityTooLarge},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{merge.ErrNoDocuments, http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", parser.ErrUnsupported), http.StatusBadRequest},
		{&merge.DocumentError{Name: "a.pdf", Err: fmt.Errorf("eof")}, http.StatusBadRequest},
		{session.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: index 3", session.ErrFileNotFound), http.StatusNotFound},
		{pipeline.ErrBusy, http.StatusServiceUnavailable},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := errorStatus(tt.err); got != tt.want {
			t.Errorf("errorStatus(%v): expected %d, got %d", tt.err, tt.want, got)
		}
	}
}
