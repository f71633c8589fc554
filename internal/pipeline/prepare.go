package pipeline

import (
	"context"
	"errors"

	"github.com/dgallion1/tocmerge/internal/inspect"
	"github.com/dgallion1/tocmerge/internal/merge"
	"github.com/dgallion1/tocmerge/internal/parser"
	"github.com/dgallion1/tocmerge/internal/render"
	"github.com/dgallion1/tocmerge/internal/session"
)

// Upload is a file as received, before conversion.
type Upload struct {
	Name string
	Data []byte
}

// Prepare converts non-PDF uploads, counts pages and extracts a preview for
// each upload, several at a time. Results keep upload order. The first
// failing upload (in upload order) fails the whole batch.
func (r *Runner) Prepare(ctx context.Context, uploads []Upload) ([]session.File, error) {
	type result struct {
		file session.File
		err  error
	}
	results := make([]result, len(uploads))
	done := make(chan struct{}, len(uploads))
	sem := make(chan struct{}, r.workers)

	for i, up := range uploads {
		sem <- struct{}{}
		go func(i int, up Upload) {
			defer func() {
				<-sem
				done <- struct{}{}
			}()
			if err := ctx.Err(); err != nil {
				results[i].err = err
				return
			}
			results[i].file, results[i].err = r.prepareOne(up)
		}(i, up)
	}
	for range uploads {
		<-done
	}

	files := make([]session.File, len(uploads))
	for i, res := range results {
		if res.err != nil {
			return nil, res.err
		}
		files[i] = res.file
	}
	return files, nil
}

func (r *Runner) prepareOne(up Upload) (session.File, error) {
	pdf, converted, err := render.ToPDF(up.Name, up.Data, r.renderOpts)
	if err != nil {
		if errors.Is(err, parser.ErrUnsupported) {
			return session.File{}, err
		}
		return session.File{}, &merge.DocumentError{Name: up.Name, Err: err}
	}

	pages, err := r.merger.PageCount(pdf)
	if err != nil {
		return session.File{}, &merge.DocumentError{Name: up.Name, Err: err}
	}

	excerpt, err := inspect.Excerpt(pdf, inspect.DefaultExcerpt)
	if err != nil {
		r.log.Debug("no text excerpt", "file", up.Name, "error", err)
	}

	r.log.Info("upload prepared",
		"file", up.Name,
		"bytes", len(up.Data),
		"pages", pages,
		"converted", converted,
	)

	return session.File{
		Name:      up.Name,
		Original:  up.Data,
		PDF:       pdf,
		Pages:     pages,
		Excerpt:   excerpt,
		Converted: converted,
	}, nil
}

// Documents returns the mergeable form of prepared files.
func Documents(files []session.File) []merge.Document {
	docs := make([]merge.Document, len(files))
	for i, f := range files {
		docs[i] = merge.Document{Name: f.Name, Data: f.PDF}
	}
	return docs
}
