package api

import (
	"embed"
	"html/template"
	"net/http"
	"sort"
	"strings"

	"github.com/dgallion1/tocmerge/internal/parser"
	"github.com/dgallion1/tocmerge/internal/session"
	"github.com/go-chi/chi/v5"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type pageData struct {
	Session  *session.Snapshot
	Accept   string
	MaxFiles int
	Error    string
}

func acceptList() string {
	exts := make([]string, 0, len(parser.SupportedExtensions))
	for ext := range parser.SupportedExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return strings.Join(exts, ",")
}

func (s *Server) renderPage(w http.ResponseWriter, code int, data pageData) {
	data.Accept = acceptList()
	data.MaxFiles = s.cfg.MaxFiles
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := pageTmpl.Execute(w, data); err != nil {
		s.log.Error("render page", "error", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, pageData{})
}

// handleFormUpload stores the picked files and sends the browser to the
// titling step.
func (s *Server) handleFormUpload(w http.ResponseWriter, r *http.Request) {
	sess, err := s.createSession(w, r)
	if err != nil {
		s.renderPage(w, errorStatus(err), pageData{Error: pageError(err)})
		return
	}
	http.Redirect(w, r, "/s/"+sess.ID, http.StatusSeeOther)
}

func (s *Server) handleSessionPage(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.renderPage(w, errorStatus(err), pageData{Error: "This upload has expired. Please pick your files again."})
		return
	}
	snap := sess.Snapshot(s.store.TTL())
	s.renderPage(w, http.StatusOK, pageData{Session: &snap})
}

func pageError(err error) string {
	if errorStatus(err) == http.StatusInternalServerError {
		return "Something went wrong while reading your files."
	}
	return err.Error()
}
