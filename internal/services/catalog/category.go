package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/developia-II/storeblog-backend/internal/core/domain"
	"github.com/developia-II/storeblog-backend/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (s *Service) categorySlug(ctx context.Context, name string, exclude primitive.ObjectID) (string, error) {
	return uniqueSlug(ctx, func(ctx context.Context, c string) (bool, error) {
		return s.categories.SlugExists(ctx, c, exclude)
	}, name)
}

func (s *Service) subcategorySlug(ctx context.Context, name string, exclude primitive.ObjectID) (string, error) {
	return uniqueSlug(ctx, func(ctx context.Context, c string) (bool, error) {
		return s.subcategories.SlugExists(ctx, c, exclude)
	}, name)
}

// liveCategory returns the category unless it is missing or soft-deleted.
func (s *Service) liveCategory(ctx context.Context, id primitive.ObjectID) (models.Category, error) {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return models.Category{}, notFoundAs(err, "Category")
	}
	if c.IsDeleted {
		return models.Category{}, domain.NotFound("Category")
	}
	return c, nil
}

func (s *Service) liveSubcategory(ctx context.Context, id primitive.ObjectID) (models.Subcategory, error) {
	sub, err := s.subcategories.GetByID(ctx, id)
	if err != nil {
		return models.Subcategory{}, notFoundAs(err, "Subcategory")
	}
	if sub.IsDeleted {
		return models.Subcategory{}, domain.NotFound("Subcategory")
	}
	return sub, nil
}

func (s *Service) CreateCategory(ctx context.Context, input models.CategoryInput) (models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return models.Category{}, domain.Validation("Category name is required")
	}

	now := s.timestamp()
	c := models.Category{
		Name:          name,
		Image:         input.Image,
		SubCategories: []primitive.ObjectID{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if c.Slug, err = s.categorySlug(ctx, name, primitive.NilObjectID); err != nil {
			return models.Category{}, err
		}
		c.ID = primitive.NilObjectID
		if err = s.categories.Create(ctx, &c); !errors.Is(err, domain.ErrConflict) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return models.Category{}, domain.Conflict("Category already exists")
		}
		return models.Category{}, err
	}
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id primitive.ObjectID, input models.CategoryInput) (models.Category, error) {
	c, err := s.liveCategory(ctx, id)
	if err != nil {
		return models.Category{}, err
	}

	if name := strings.TrimSpace(input.Name); name != "" && name != c.Name {
		if c.Slug, err = s.categorySlug(ctx, name, c.ID); err != nil {
			return models.Category{}, err
		}
		c.Name = name
	}

	oldImage := ""
	if input.Image != "" && input.Image != c.Image {
		oldImage, c.Image = c.Image, input.Image
	}
	c.UpdatedAt = s.timestamp()

	if err := s.categories.Update(ctx, &c); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return models.Category{}, domain.Conflict("Category already exists")
		}
		return models.Category{}, notFoundAs(err, "Category")
	}
	if oldImage != "" {
		s.removeFiles(oldImage)
	}
	return c, nil
}

// DeleteCategory soft-deletes the category and, with the same timestamp,
// every subcategory still live under it.
func (s *Service) DeleteCategory(ctx context.Context, id primitive.ObjectID) error {
	c, err := s.liveCategory(ctx, id)
	if err != nil {
		return err
	}

	at := s.timestamp()
	c.IsDeleted = true
	c.DeletedAt = &at
	c.UpdatedAt = at
	if err := s.categories.Update(ctx, &c); err != nil {
		return notFoundAs(err, "Category")
	}
	if err := s.subcategories.SoftDeleteByCategory(ctx, id, at); err != nil {
		return err
	}

	logrus.WithField("category_id", id.Hex()).Info("Category soft-deleted")
	return nil
}

// RestoreCategory brings back the category and the subcategories that were
// deleted along with it.
func (s *Service) RestoreCategory(ctx context.Context, id primitive.ObjectID) (models.Category, error) {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return models.Category{}, notFoundAs(err, "Category")
	}
	if !c.IsDeleted {
		return models.Category{}, domain.Validation("Category is not deleted")
	}

	deletedAt := c.DeletedAt
	c.IsDeleted = false
	c.DeletedAt = nil
	c.UpdatedAt = s.timestamp()
	if err := s.categories.Update(ctx, &c); err != nil {
		return models.Category{}, notFoundAs(err, "Category")
	}
	if deletedAt != nil {
		if err := s.subcategories.RestoreByCategory(ctx, id, *deletedAt); err != nil {
			return models.Category{}, err
		}
	}
	return c, nil
}

func (s *Service) GetCategory(ctx context.Context, id primitive.ObjectID) (models.CategoryView, error) {
	c, err := s.liveCategory(ctx, id)
	if err != nil {
		return models.CategoryView{}, err
	}
	subs, err := s.subcategories.ListByCategory(ctx, c.ID, false)
	if err != nil {
		return models.CategoryView{}, err
	}
	return categoryView(c, subs), nil
}

// ListCategories returns categories with their subcategories resolved.
// includeDeleted is for the admin trash view.
func (s *Service) ListCategories(ctx context.Context, includeDeleted bool) ([]models.CategoryView, error) {
	cats, err := s.categories.List(ctx, includeDeleted)
	if err != nil {
		return nil, err
	}
	subs, err := s.subcategories.List(ctx, includeDeleted)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[primitive.ObjectID][]models.Subcategory)
	for _, sub := range subs {
		byCategory[sub.CategoryID] = append(byCategory[sub.CategoryID], sub)
	}

	views := make([]models.CategoryView, 0, len(cats))
	for _, c := range cats {
		views = append(views, categoryView(c, byCategory[c.ID]))
	}
	return views, nil
}

func categoryView(c models.Category, subs []models.Subcategory) models.CategoryView {
	if subs == nil {
		subs = []models.Subcategory{}
	}
	return models.CategoryView{
		ID:            c.ID,
		Name:          c.Name,
		Slug:          c.Slug,
		Image:         c.Image,
		SubCategories: subs,
		IsDeleted:     c.IsDeleted,
		CreatedAt:     c.CreatedAt,
	}
}

func (s *Service) CreateSubcategory(ctx context.Context, input models.SubcategoryInput) (models.Subcategory, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return models.Subcategory{}, domain.Validation("Subcategory name is required")
	}
	categoryID, err := domain.ParseID(input.CategoryID, "category")
	if err != nil {
		return models.Subcategory{}, err
	}
	if _, err := s.liveCategory(ctx, categoryID); err != nil {
		return models.Subcategory{}, err
	}

	now := s.timestamp()
	sub := models.Subcategory{Name: name, CategoryID: categoryID, CreatedAt: now, UpdatedAt: now}
	for attempt := 0; attempt < 2; attempt++ {
		if sub.Slug, err = s.subcategorySlug(ctx, name, primitive.NilObjectID); err != nil {
			return models.Subcategory{}, err
		}
		sub.ID = primitive.NilObjectID
		if err = s.subcategories.Create(ctx, &sub); !errors.Is(err, domain.ErrConflict) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return models.Subcategory{}, domain.Conflict("Subcategory already exists")
		}
		return models.Subcategory{}, err
	}

	if err := s.categories.AddSubcategory(ctx, categoryID, sub.ID); err != nil {
		return models.Subcategory{}, notFoundAs(err, "Category")
	}
	return sub, nil
}

// UpdateSubcategory renames and optionally re-parents a subcategory, keeping
// both categories' subcategory lists in step.
func (s *Service) UpdateSubcategory(ctx context.Context, id primitive.ObjectID, input models.SubcategoryInput) (models.Subcategory, error) {
	sub, err := s.liveSubcategory(ctx, id)
	if err != nil {
		return models.Subcategory{}, err
	}

	if name := strings.TrimSpace(input.Name); name != "" && name != sub.Name {
		if sub.Slug, err = s.subcategorySlug(ctx, name, sub.ID); err != nil {
			return models.Subcategory{}, err
		}
		sub.Name = name
	}

	oldParent := sub.CategoryID
	if input.CategoryID != "" {
		newParent, err := domain.ParseID(input.CategoryID, "category")
		if err != nil {
			return models.Subcategory{}, err
		}
		if newParent != oldParent {
			if _, err := s.liveCategory(ctx, newParent); err != nil {
				return models.Subcategory{}, err
			}
			sub.CategoryID = newParent
		}
	}
	sub.UpdatedAt = s.timestamp()

	if err := s.subcategories.Update(ctx, &sub); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return models.Subcategory{}, domain.Conflict("Subcategory already exists")
		}
		return models.Subcategory{}, notFoundAs(err, "Subcategory")
	}

	if sub.CategoryID != oldParent {
		if err := s.categories.RemoveSubcategory(ctx, oldParent, sub.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return models.Subcategory{}, err
		}
		if err := s.categories.AddSubcategory(ctx, sub.CategoryID, sub.ID); err != nil {
			return models.Subcategory{}, notFoundAs(err, "Category")
		}
		logrus.WithFields(logrus.Fields{
			"subcategory_id": sub.ID.Hex(),
			"from":           oldParent.Hex(),
			"to":             sub.CategoryID.Hex(),
		}).Info("Subcategory moved")
	}
	return sub, nil
}

func (s *Service) DeleteSubcategory(ctx context.Context, id primitive.ObjectID) error {
	sub, err := s.liveSubcategory(ctx, id)
	if err != nil {
		return err
	}

	at := s.timestamp()
	sub.IsDeleted = true
	sub.DeletedAt = &at
	sub.UpdatedAt = at
	if err := s.subcategories.Update(ctx, &sub); err != nil {
		return notFoundAs(err, "Subcategory")
	}
	if err := s.categories.RemoveSubcategory(ctx, sub.CategoryID, sub.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

func (s *Service) RestoreSubcategory(ctx context.Context, id primitive.ObjectID) (models.Subcategory, error) {
	sub, err := s.subcategories.GetByID(ctx, id)
	if err != nil {
		return models.Subcategory{}, notFoundAs(err, "Subcategory")
	}
	if !sub.IsDeleted {
		return models.Subcategory{}, domain.Validation("Subcategory is not deleted")
	}
	if _, err := s.liveCategory(ctx, sub.CategoryID); err != nil {
		return models.Subcategory{}, domain.Validation("Restore the parent category first")
	}

	sub.IsDeleted = false
	sub.DeletedAt = nil
	sub.UpdatedAt = s.timestamp()
	if err := s.subcategories.Update(ctx, &sub); err != nil {
		return models.Subcategory{}, notFoundAs(err, "Subcategory")
	}
	if err := s.categories.AddSubcategory(ctx, sub.CategoryID, sub.ID); err != nil {
		return models.Subcategory{}, notFoundAs(err, "Category")
	}
	return sub, nil
}

// ListSubcategories lists the live subcategories of a live category.
func (s *Service) ListSubcategories(ctx context.Context, categoryID primitive.ObjectID) ([]models.Subcategory, error) {
	if _, err := s.liveCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.subcategories.ListByCategory(ctx, categoryID, false)
}
