package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/developia-II/storeblog-backend/internal/adapters/repository"
	"github.com/developia-II/storeblog-backend/internal/core/domain"
	"github.com/developia-II/storeblog-backend/utils"
)

// Service owns categories, subcategories and products.
type Service struct {
	categories    repository.CategoryRepository
	subcategories repository.SubcategoryRepository
	products      repository.ProductRepository
	files         domain.FileRemover
	now           func() time.Time
}

func NewService(
	categories repository.CategoryRepository,
	subcategories repository.SubcategoryRepository,
	products repository.ProductRepository,
	files domain.FileRemover,
) *Service {
	return &Service{
		categories:    categories,
		subcategories: subcategories,
		products:      products,
		files:         files,
		now:           time.Now,
	}
}

// timestamp is truncated to what BSON stores, so instants written by a
// cascade can be matched again on restore.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *Service) removeFiles(paths ...string) {
	if s.files != nil && len(paths) > 0 {
		s.files.Remove(paths...)
	}
}

func uniqueSlug(ctx context.Context, exists func(context.Context, string) (bool, error), parts ...string) (string, error) {
	slug, err := utils.UniqueSlug(ctx, exists, parts...)
	if errors.Is(err, utils.ErrEmptySlug) {
		return "", domain.Validation("Name must contain letters or digits")
	}
	return slug, err
}

// notFoundAs renames a repository not-found error for the client.
func notFoundAs(err error, what string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFound(what)
	}
	return err
}
