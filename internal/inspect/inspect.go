// Package inspect pulls a short text preview out of a PDF for the upload
// listing.
package inspect

import (
	"bytes"
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// DefaultExcerpt is the preview length used by the upload listing.
const DefaultExcerpt = 160

// Excerpt returns up to max runes of text from the first page that has any.
// Scanned PDFs and PDFs without a text layer yield "".
func Excerpt(data []byte, max int) (text string, err error) {
	// The reader panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("extract text: %v", r)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		raw, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if t := collapse(raw); t != "" {
			return truncate(t, max), nil
		}
	}
	return "", nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max])) + "…"
}
