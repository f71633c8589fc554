package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/dgallion1/tocmerge/internal/parser"
	"github.com/dgallion1/tocmerge/internal/pipeline"
)

// formOverhead is the slack allowed on top of the file bytes for the other
// multipart fields.
const formOverhead = 1 << 20

// readUploads parses a multipart request and returns its files in upload
// order. Form values stay available on r.Form afterwards.
func (s *Server) readUploads(w http.ResponseWriter, r *http.Request) ([]pipeline.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*int64(s.cfg.MaxFiles)+formOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, tooLarge(fmt.Sprintf("request exceeds max size (%d bytes)", maxErr.Limit))
		}
		return nil, badRequest("invalid multipart form: " + err.Error())
	}
	defer r.MultipartForm.RemoveAll()

	headers := append(r.MultipartForm.File["files"], r.MultipartForm.File["files[]"]...)
	if len(headers) == 0 {
		return nil, badRequest("at least one file is required")
	}
	if len(headers) > s.cfg.MaxFiles {
		return nil, badRequest(fmt.Sprintf("too many files (%d, max %d)", len(headers), s.cfg.MaxFiles))
	}

	uploads := make([]pipeline.Upload, 0, len(headers))
	for _, fh := range headers {
		up, err := s.readUpload(fh)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, up)
	}
	return uploads, nil
}

func (s *Server) readUpload(fh *multipart.FileHeader) (pipeline.Upload, error) {
	filename := sanitizeFilename(fh.Filename)
	if !parser.IsSupportedExtension(filename) {
		return pipeline.Upload{}, fmt.Errorf("%w: %s (%s)", parser.ErrUnsupported, filename, filepath.Ext(filename))
	}
	if fh.Size > s.cfg.MaxUploadBytes {
		return pipeline.Upload{}, tooLarge(fmt.Sprintf("%s exceeds max size (%d bytes)", filename, s.cfg.MaxUploadBytes))
	}

	f, err := fh.Open()
	if err != nil {
		return pipeline.Upload{}, fmt.Errorf("open %s: %w", filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return pipeline.Upload{}, fmt.Errorf("read %s: %w", filename, err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return pipeline.Upload{}, tooLarge(fmt.Sprintf("%s exceeds max size (%d bytes)", filename, s.cfg.MaxUploadBytes))
	}
	return pipeline.Upload{Name: filename, Data: data}, nil
}
