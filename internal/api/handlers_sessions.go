package api

import (
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/dgallion1/tocmerge/internal/session"
	"github.com/go-chi/chi/v5"
)

// sessionResponse is the JSON form of a session.
type sessionResponse struct {
	session.Snapshot
	MergeURL string `json:"merge_url"`
}

func (s *Server) sessionJSON(sess *session.Session) sessionResponse {
	return sessionResponse{
		Snapshot: sess.Snapshot(s.store.TTL()),
		MergeURL: fmt.Sprintf("/api/sessions/%s/merge", sess.ID),
	}
}

// createSession reads and prepares the uploads of r and stores them.
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) (*session.Session, error) {
	uploads, err := s.readUploads(w, r)
	if err != nil {
		return nil, err
	}
	files, err := s.runner.Prepare(r.Context(), uploads)
	if err != nil {
		return nil, err
	}
	sess := s.store.Create(files)
	s.log.Info("session created", "session_id", sess.ID, "files", len(files))
	return sess, nil
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.createSession(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+sess.ID)
	writeJSON(w, http.StatusCreated, s.sessionJSON(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionJSON(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if !s.store.Delete(id) {
		s.writeError(w, r, session.ErrNotFound)
		return
	}
	s.log.Info("session deleted", "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleSessionFile returns an upload exactly as it was received.
func (s *Server) handleSessionFile(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.writeError(w, r, session.ErrFileNotFound)
		return
	}
	f, err := sess.File(index)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ct := mime.TypeByExtension(filepath.Ext(f.Name))
	if ct == "" {
		ct = "application/octet-stream"
	}
	attachment(w, ct, f.Name, len(f.Original))
	w.WriteHeader(http.StatusOK)
	w.Write(f.Original)
}
