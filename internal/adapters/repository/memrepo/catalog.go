package memrepo

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/developia-II/storeblog-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type categoryRepo struct{ s *Store }

func (r *categoryRepo) Create(_ context.Context, c *models.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&c.ID)
	for _, other := range r.s.categories {
		if other.Slug == c.Slug {
			return conflict("create category")
		}
	}
	if c.SubCategories == nil {
		c.SubCategories = []primitive.ObjectID{}
	}
	r.s.categories[c.ID] = clone(*c)
	return nil
}

func (r *categoryRepo) GetByID(_ context.Context, id primitive.ObjectID) (models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[id]
	if !ok {
		return models.Category{}, notFound("get category")
	}
	return clone(c), nil
}

func (r *categoryRepo) Update(_ context.Context, c *models.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[c.ID]; !ok {
		return notFound("update category")
	}
	for id, other := range r.s.categories {
		if id != c.ID && other.Slug == c.Slug {
			return conflict("update category")
		}
	}
	r.s.categories[c.ID] = clone(*c)
	return nil
}

func (r *categoryRepo) List(_ context.Context, includeDeleted bool) ([]models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := values(r.s.categories, func(c models.Category) bool { return includeDeleted || !c.IsDeleted })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *categoryRepo) SlugExists(_ context.Context, slug string, exclude primitive.ObjectID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, c := range r.s.categories {
		if id != exclude && c.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *categoryRepo) AddSubcategory(_ context.Context, categoryID, subID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[categoryID]
	if !ok {
		return notFound("update category links")
	}
	for _, id := range c.SubCategories {
		if id == subID {
			return nil
		}
	}
	c.SubCategories = append(c.SubCategories, subID)
	r.s.categories[categoryID] = clone(c)
	return nil
}

func (r *categoryRepo) RemoveSubcategory(_ context.Context, categoryID, subID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[categoryID]
	if !ok {
		return notFound("update category links")
	}
	kept := []primitive.ObjectID{}
	for _, id := range c.SubCategories {
		if id != subID {
			kept = append(kept, id)
		}
	}
	c.SubCategories = kept
	r.s.categories[categoryID] = clone(c)
	return nil
}

type subcategoryRepo struct{ s *Store }

func (r *subcategoryRepo) Create(_ context.Context, sub *models.Subcategory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&sub.ID)
	for _, other := range r.s.subcategories {
		if other.Slug == sub.Slug {
			return conflict("create subcategory")
		}
	}
	r.s.subcategories[sub.ID] = clone(*sub)
	return nil
}

func (r *subcategoryRepo) GetByID(_ context.Context, id primitive.ObjectID) (models.Subcategory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.subcategories[id]
	if !ok {
		return models.Subcategory{}, notFound("get subcategory")
	}
	return clone(sub), nil
}

func (r *subcategoryRepo) Update(_ context.Context, sub *models.Subcategory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.subcategories[sub.ID]; !ok {
		return notFound("update subcategory")
	}
	for id, other := range r.s.subcategories {
		if id != sub.ID && other.Slug == sub.Slug {
			return conflict("update subcategory")
		}
	}
	r.s.subcategories[sub.ID] = clone(*sub)
	return nil
}

func (r *subcategoryRepo) List(_ context.Context, includeDeleted bool) ([]models.Subcategory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := values(r.s.subcategories, func(s models.Subcategory) bool { return includeDeleted || !s.IsDeleted })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *subcategoryRepo) ListByCategory(_ context.Context, categoryID primitive.ObjectID, includeDeleted bool) ([]models.Subcategory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := values(r.s.subcategories, func(s models.Subcategory) bool {
		return s.CategoryID == categoryID && (includeDeleted || !s.IsDeleted)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *subcategoryRepo) SlugExists(_ context.Context, slug string, exclude primitive.ObjectID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, sub := range r.s.subcategories {
		if id != exclude && sub.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *subcategoryRepo) SoftDeleteByCategory(_ context.Context, categoryID primitive.ObjectID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, sub := range r.s.subcategories {
		if sub.CategoryID == categoryID && !sub.IsDeleted {
			deletedAt := at
			sub.IsDeleted = true
			sub.DeletedAt = &deletedAt
			sub.UpdatedAt = at
			r.s.subcategories[id] = clone(sub)
		}
	}
	return nil
}

func (r *subcategoryRepo) RestoreByCategory(_ context.Context, categoryID primitive.ObjectID, deletedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, sub := range r.s.subcategories {
		if sub.CategoryID == categoryID && sub.IsDeleted && sub.DeletedAt != nil && sub.DeletedAt.Equal(deletedAt) {
			sub.IsDeleted = false
			sub.DeletedAt = nil
			sub.UpdatedAt = time.Now()
			r.s.subcategories[id] = clone(sub)
		}
	}
	return nil
}

type productRepo struct{ s *Store }

func (r *productRepo) Create(_ context.Context, p *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&p.ID)
	for _, other := range r.s.products {
		if other.Slug == p.Slug {
			return conflict("create product")
		}
	}
	if p.LikedBy == nil {
		p.LikedBy = []primitive.ObjectID{}
	}
	r.s.products[p.ID] = clone(*p)
	return nil
}

func (r *productRepo) GetByID(_ context.Context, id primitive.ObjectID) (models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return models.Product{}, notFound("get product")
	}
	return clone(p), nil
}

func (r *productRepo) Update(_ context.Context, id primitive.ObjectID, c models.ProductChanges) (models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return models.Product{}, notFound("update product")
	}
	if c.Slug != nil {
		for otherID, other := range r.s.products {
			if otherID != id && other.Slug == *c.Slug {
				return models.Product{}, conflict("update product")
			}
		}
		p.Slug = *c.Slug
	}

	setIf(&p.Name, c.Name)
	setIf(&p.Heading, c.Heading)
	setIf(&p.Description, c.Description)
	setIf(&p.Price, c.Price)
	setIf(&p.Discount, c.Discount)
	setIf(&p.DiscountedPrice, c.DiscountedPrice)
	setIf(&p.CategoryID, c.CategoryID)
	setIf(&p.SubCategoryID, c.SubCategoryID)
	setIf(&p.Quantity, c.Quantity)
	setIf(&p.IsPublic, c.IsPublic)
	setIf(&p.Status, c.Status)
	if c.Deleted != nil {
		p.IsDeleted = *c.Deleted
		p.DeletedAt = nil
		if p.IsDeleted {
			at := c.DeletedAt
			p.DeletedAt = &at
		}
	}
	p.ImageURLs = append(p.ImageURLs, c.AddImageURLs...)
	p.UpdatedAt = c.UpdatedAt

	r.s.products[id] = clone(p)
	return clone(p), nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func matchProduct(p models.Product, f models.ProductFilter) bool {
	if p.IsDeleted != f.Deleted {
		return false
	}
	if f.PublicOnly {
		if !p.IsPublic || p.Status != models.ProductStatusActive {
			return false
		}
	} else if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.CategoryID != nil && p.CategoryID != *f.CategoryID {
		return false
	}
	if f.SubCategoryID != nil && p.SubCategoryID != *f.SubCategoryID {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Name)) {
		return false
	}
	if f.OutOfStock && p.Quantity > 1 {
		return false
	}
	return true
}

func newestFirst(items []models.Product) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID.Hex() > items[j].ID.Hex()
	})
}

func (r *productRepo) List(_ context.Context, f models.ProductFilter, page models.Page) ([]models.Product, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := values(r.s.products, func(p models.Product) bool { return matchProduct(p, f) })
	newestFirst(all)
	return paginate(all, page), int64(len(all)), nil
}

func (r *productRepo) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[primitive.ObjectID]models.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			out[id] = clone(p)
		}
	}
	return out, nil
}

func (r *productRepo) SlugExists(_ context.Context, slug string, exclude primitive.ObjectID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, p := range r.s.products {
		if id != exclude && p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *productRepo) DecrementStock(_ context.Context, id primitive.ObjectID, qty int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok || p.IsDeleted || p.Quantity < qty {
		return false, nil
	}
	p.Quantity -= qty
	r.s.products[id] = p
	return true, nil
}

func (r *productRepo) IncrementStock(_ context.Context, id primitive.ObjectID, qty int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return notFound("increment stock")
	}
	p.Quantity += qty
	r.s.products[id] = p
	return nil
}

func (r *productRepo) SetLike(_ context.Context, productID, userID primitive.ObjectID, liked bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok || p.IsDeleted {
		return notFound("set like")
	}
	kept := []primitive.ObjectID{}
	for _, id := range p.LikedBy {
		if id != userID {
			kept = append(kept, id)
		}
	}
	if liked {
		kept = append(kept, userID)
	}
	p.LikedBy = kept
	r.s.products[productID] = clone(p)
	return nil
}

func (r *productRepo) ListLikedBy(_ context.Context, userID primitive.ObjectID) ([]models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := values(r.s.products, func(p models.Product) bool { return !p.IsDeleted && p.LikedByUser(userID) })
	newestFirst(out)
	return out, nil
}

func (r *productRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, p := range r.s.products {
		if !p.IsDeleted {
			n++
		}
	}
	return n, nil
}
