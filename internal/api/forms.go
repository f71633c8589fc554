package api

import (
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/tocmerge/internal/merge"
)

// Output names used when the request does not choose one.
const (
	styledName   = "merged_styled_toc.pdf"
	numberedName = "merged_with_toc_and_page_numbers.pdf"
)

// titlesFromForm collects custom titles keyed by file name. For each file,
// title_<index> wins over title_<name>, which wins over the parallel
// "titles" list. Blank values are ignored.
func titlesFromForm(form url.Values, names []string) map[string]string {
	parallel := form["titles"]
	if len(parallel) == 0 {
		parallel = form["titles[]"]
	}

	titles := make(map[string]string, len(names))
	for i, name := range names {
		candidates := []string{form.Get("title_" + strconv.Itoa(i)), form.Get("title_" + name)}
		if i < len(parallel) {
			candidates = append(candidates, parallel[i])
		}
		for _, c := range candidates {
			if c = strings.TrimSpace(c); c != "" {
				titles[name] = c
				break
			}
		}
	}
	return titles
}

// mergeOptions reads page_numbers. Absent means on; the last value wins so a
// hidden "false" field can precede a checkbox.
func mergeOptions(form url.Values) merge.Options {
	vals := form["page_numbers"]
	if len(vals) == 0 {
		return merge.Options{PageNumbers: true}
	}
	switch strings.ToLower(strings.TrimSpace(vals[len(vals)-1])) {
	case "0", "false", "off", "no":
		return merge.Options{PageNumbers: false}
	}
	return merge.Options{PageNumbers: true}
}

// outputFilename picks the download name for a merge.
func outputFilename(requested string, opts merge.Options) string {
	if strings.TrimSpace(requested) != "" {
		name := sanitizeFilename(requested)
		if slug := Slugify(strings.TrimSuffix(name, filepath.Ext(name))); slug != "" {
			return slug + ".pdf"
		}
	}
	if opts.PageNumbers {
		return numberedName
	}
	return styledName
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9_-]`)
	slugRepeat  = regexp.MustCompile(`-+`)
)

// Slugify converts a string to a header-safe file name stem.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalid.ReplaceAllString(s, "-")
	s = slugRepeat.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 80 {
		s = strings.TrimRight(s[:80], "-")
	}
	return s
}

func sanitizeFilename(name string) string {
	// Browsers may send Windows paths.
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "_")
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}

// attachment sets the download headers for a file named name.
func attachment(w http.ResponseWriter, contentType, name string, size int) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(size))
}
