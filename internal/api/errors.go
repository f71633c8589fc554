package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/tocmerge/internal/merge"
	"github.com/dgallion1/tocmerge/internal/parser"
	"github.com/dgallion1/tocmerge/internal/pipeline"
	"github.com/dgallion1/tocmerge/internal/session"
)

// requestError carries a client-facing message and status.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error {
	return &requestError{status: http.StatusBadRequest, msg: msg}
}

func tooLarge(msg string) error {
	return &requestError{status: http.StatusRequestEntityTooLarge, msg: msg}
}

// errorStatus maps an error to the HTTP status it is reported with.
func errorStatus(err error) int {
	var reqErr *requestError
	var docErr *merge.DocumentError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &reqErr):
		return reqErr.status
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, merge.ErrNoDocuments),
		errors.Is(err, parser.ErrUnsupported),
		errors.As(err, &docErr):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrBusy):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError reports err as JSON. Internal errors are logged and not echoed.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errorStatus(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	if code == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	jsonError(w, msg, code)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
