package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/developia-II/storeblog-backend/internal/core/domain"
	"github.com/gin-gonic/gin"
)

// FileStore persists multipart uploads and removes them again.
type FileStore interface {
	SaveField(form *multipart.Form, field string) ([]string, error)
	Remove(paths ...string)
}

// requestFiles collects the files of one request so they can be discarded if the
// request fails after they were written.
type requestFiles struct {
	store FileStore
	saved []string
}

// save stores the files sent under any of fields. Requests that are not
// multipart simply carry no files.
func (u *requestFiles) save(c *gin.Context, fields ...string) ([]string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, domain.Validation("Upload is too large")
		}
		return nil, domain.Validation("Invalid multipart form")
	}

	var paths []string
	for _, field := range fields {
		saved, err := u.store.SaveField(form, field)
		if err != nil {
			u.discard()
			return nil, err
		}
		u.saved = append(u.saved, saved...)
		paths = append(paths, saved...)
	}
	return paths, nil
}

// first is save for single-file fields.
func (u *requestFiles) first(c *gin.Context, field string) (string, error) {
	paths, err := u.save(c, field)
	if err != nil || len(paths) == 0 {
		return "", err
	}
	if len(paths) > 1 {
		u.store.Remove(paths[1:]...)
		u.saved = u.saved[:len(u.saved)-len(paths)+1]
	}
	return paths[0], nil
}

func (u *requestFiles) discard() {
	if len(u.saved) > 0 {
		u.store.Remove(u.saved...)
		u.saved = nil
	}
}

// fail discards this request's files and answers with err.
func (u *requestFiles) fail(c *gin.Context, err error) {
	u.discard()
	respondError(c, err)
}

// limitBody caps the size of every request body.
func limitBody(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		}
		c.Next()
	}
}
