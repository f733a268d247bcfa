package uploads

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/developia-II/storeblog-backend/internal/core/domain"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PublicPrefix is the URL path uploaded files are served under.
const PublicPrefix = "/uploads"

// Multipart field names and the directory each one lands in.
var fieldDirs = map[string]string{
	"profileImage":  "profiles",
	"images":        "blogs",
	"blogImages":    "blogs",
	"files":         "products",
	"categoryImage": "categories",
}

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// Store writes multipart uploads under a root directory on local disk.
type Store struct {
	root     string
	maxBytes int64
}

func NewStore(root string, maxBytes int64) (*Store, error) {
	for _, dir := range fieldDirs {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
		}
	}
	return &Store{root: root, maxBytes: maxBytes}, nil
}

func (s *Store) Root() string { return s.root }

// SaveField stores every file sent under field and returns their public
// paths. If any file is rejected, the ones already written are removed.
func (s *Store) SaveField(form *multipart.Form, field string) ([]string, error) {
	if form == nil {
		return nil, nil
	}
	headers := form.File[field]
	saved := make([]string, 0, len(headers))
	for _, fh := range headers {
		p, err := s.Save(field, fh)
		if err != nil {
			s.Remove(saved...)
			return nil, err
		}
		saved = append(saved, p)
	}
	return saved, nil
}

// Save validates and stores a single file and returns its public path,
// e.g. /uploads/products/<uuid>.png.
func (s *Store) Save(field string, fh *multipart.FileHeader) (string, error) {
	dir, ok := fieldDirs[field]
	if !ok {
		return "", domain.Validation("Unexpected upload field %q", field)
	}
	if fh.Size > s.maxBytes {
		return "", domain.Validation("%s is larger than %d MB", fh.Filename, s.maxBytes>>20)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	ext, ok := allowedTypes[http.DetectContentType(head[:n])]
	if !ok {
		return "", domain.Validation("Only jpeg, jpg, png and gif images are allowed")
	}

	name := uuid.NewString() + ext
	dst, err := os.OpenFile(filepath.Join(s.root, dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}

	// Size is client-supplied, so the limit is enforced on what gets written.
	written, err := io.Copy(dst, io.LimitReader(io.MultiReader(bytes.NewReader(head[:n]), src), s.maxBytes+1))
	closeErr := dst.Close()
	public := path.Join(PublicPrefix, dir, name)
	if err != nil || closeErr != nil {
		s.Remove(public)
		return "", fmt.Errorf("write upload: %w", errors.Join(err, closeErr))
	}
	if written > s.maxBytes {
		s.Remove(public)
		return "", domain.Validation("%s is larger than %d MB", fh.Filename, s.maxBytes>>20)
	}

	return public, nil
}

// Remove deletes previously stored files by public path. Paths outside the
// store are ignored and failures are only logged.
func (s *Store) Remove(paths ...string) {
	for _, p := range paths {
		local, ok := s.localPath(p)
		if !ok {
			continue
		}
		if err := os.Remove(local); err != nil && !errors.Is(err, os.ErrNotExist) {
			logrus.WithError(err).WithField("path", p).Warn("Failed to remove upload")
		}
	}
}

func (s *Store) localPath(public string) (string, bool) {
	clean := path.Clean("/" + strings.TrimSpace(public))
	if !strings.HasPrefix(clean, PublicPrefix+"/") {
		return "", false
	}
	rel := strings.TrimPrefix(clean, PublicPrefix+"/")
	dir, _, found := strings.Cut(rel, "/")
	if !found || !knownDir(dir) {
		return "", false
	}
	return filepath.Join(s.root, filepath.FromSlash(rel)), true
}

func knownDir(dir string) bool {
	for _, d := range fieldDirs {
		if d == dir {
			return true
		}
	}
	return false
}
