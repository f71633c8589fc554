package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dgallion1/tocmerge/internal/pipeline"
	"github.com/dgallion1/tocmerge/internal/session"
	"github.com/go-chi/chi/v5"
)

// handleMerge uploads and merges in a single request.
func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	uploads, err := s.readUploads(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	files, err := s.runner.Prepare(r.Context(), uploads)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.mergeFiles(w, r, session.UniqueNames(files), r.Form)
}

// handleSessionMerge merges a session's uploads with the titles and options
// posted in the form.
func (s *Server) handleSessionMerge(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, formOverhead)
	if err := r.ParseMultipartForm(formOverhead); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.writeError(w, r, badRequest("invalid form: "+err.Error()))
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	s.mergeFiles(w, r, sess.Files(), r.Form)
}

func (s *Server) mergeFiles(w http.ResponseWriter, r *http.Request, files []session.File, form url.Values) {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	titles := titlesFromForm(form, names)
	opts := mergeOptions(form)

	res, err := s.runner.Merge(r.Context(), pipeline.Documents(files), titles, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	attachment(w, "application/pdf", outputFilename(form.Get("filename"), opts), len(res.Data))
	w.Header().Set("X-Page-Count", strconv.Itoa(res.PageCount))
	w.Header().Set("X-Toc-Pages", strconv.Itoa(res.TOCPages))
	w.WriteHeader(http.StatusOK)
	w.Write(res.Data)
}

func (s *Server) handleMergeStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"in_flight": s.runner.InFlight(),
		"capacity":  s.cfg.MaxConcurrentMerges,
		"stats":     s.runner.Stats(),
	})
}
