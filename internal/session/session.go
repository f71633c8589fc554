// Package session holds batches of uploaded documents in memory between the
// upload form and the merge request. Nothing is written to disk.
package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrFileNotFound = errors.New("file not found")
)

// File is one upload. Original holds the bytes exactly as uploaded; PDF holds
// what goes into the merge (the same bytes for PDF uploads, the rendered
// conversion otherwise).
type File struct {
	Name      string
	Original  []byte
	PDF       []byte
	Pages     int
	Excerpt   string
	Converted bool
}

// Session is one user's batch of uploads.
type Session struct {
	mu sync.Mutex

	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	files []File
}

// FileInfo is the JSON-safe description of an upload.
type FileInfo struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Title     string `json:"default_title"`
	Pages     int    `json:"pages"`
	Bytes     int    `json:"bytes"`
	Excerpt   string `json:"excerpt,omitempty"`
	Converted bool   `json:"converted"`
}

// Snapshot is a read-only, JSON-safe copy of session state.
type Snapshot struct {
	ID        string     `json:"session_id"`
	Files     []FileInfo `json:"files"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Store is a thread-safe in-memory session registry with TTL eviction.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// TTL returns how long an untouched session lives.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create registers a new session holding files. Duplicate names are made
// unique so titles keyed by name stay unambiguous.
func (s *Store) Create(files []File) *Session {
	now := time.Now()
	sess := &Session{
		ID:        NewID(),
		CreatedAt: now,
		UpdatedAt: now,
		files:     UniqueNames(files),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return sess
}

// Get returns a live session and refreshes its expiry.
func (s *Store) Get(id string) (*Session, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	sess.touch()
	return sess, nil
}

// Delete drops a session. It reports whether the session existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Cleanup removes expired sessions.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastUsed()) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Start launches the cleanup loop.
func (s *Store) Start(ctx context.Context, every time.Duration) {
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

// Stop ends the cleanup loop and waits for it.
func (s *Store) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (sess *Session) touch() {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.UpdatedAt = time.Now()
}

func (sess *Session) lastUsed() time.Time {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.UpdatedAt
}

// Files returns a copy of the session's uploads in upload order.
func (sess *Session) Files() []File {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]File, len(sess.files))
	copy(out, sess.files)
	return out
}

// File returns the upload at index.
func (sess *Session) File(index int) (File, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if index < 0 || index >= len(sess.files) {
		return File{}, fmt.Errorf("%w: index %d", ErrFileNotFound, index)
	}
	return sess.files[index], nil
}

// Snapshot returns a JSON-safe copy of the session.
func (sess *Session) Snapshot(ttl time.Duration) Snapshot {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	files := make([]FileInfo, 0, len(sess.files))
	for i, f := range sess.files {
		files = append(files, FileInfo{
			Index:     i,
			Name:      f.Name,
			Title:     f.Name,
			Pages:     f.Pages,
			Bytes:     len(f.Original),
			Excerpt:   f.Excerpt,
			Converted: f.Converted,
		})
	}
	return Snapshot{
		ID:        sess.ID,
		Files:     files,
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.UpdatedAt.Add(ttl),
	}
}

// UniqueNames renames repeated file names to "name (2).ext", "name (3).ext".
func UniqueNames(files []File) []File {
	out := make([]File, len(files))
	used := make(map[string]bool, len(files))
	for i, f := range files {
		if used[f.Name] {
			ext := filepath.Ext(f.Name)
			base := strings.TrimSuffix(f.Name, ext)
			for n := 2; ; n++ {
				candidate := fmt.Sprintf("%s (%d)%s", base, n, ext)
				if !used[candidate] {
					f.Name = candidate
					break
				}
			}
		}
		used[f.Name] = true
		out[i] = f
	}
	return out
}
