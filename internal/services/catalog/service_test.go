package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/developia-II/storeblog-backend/internal/adapters/repository"
	"github.com/developia-II/storeblog-backend/internal/adapters/repository/memrepo"
	"github.com/developia-II/storeblog-backend/internal/core/domain"
	"github.com/developia-II/storeblog-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type removedFiles struct{ paths []string }

func (r *removedFiles) Remove(paths ...string) { r.paths = append(r.paths, paths...) }

func newService(t *testing.T) (*Service, *memrepo.Store, *removedFiles) {
	t.Helper()
	store := memrepo.New()
	files := &removedFiles{}
	svc := NewService(store.Categories(), store.Subcategories(), store.Products(), files)

	clock := time.Date(2025, 3, 1, 12, 0, 0, 123456789, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return svc, store, files
}

func seedPlacement(t *testing.T, svc *Service) (models.Category, models.Subcategory) {
	t.Helper()
	ctx := context.Background()
	cat, err := svc.CreateCategory(ctx, models.CategoryInput{Name: "Footwear"})
	require.NoError(t, err)
	sub, err := svc.CreateSubcategory(ctx, models.SubcategoryInput{Name: "Sneakers", CategoryID: cat.ID.Hex()})
	require.NoError(t, err)
	return cat, sub
}

func productInput(cat models.Category, sub models.Subcategory, name, heading string) models.CreateProductInput {
	return models.CreateProductInput{
		Name:          name,
		Heading:       heading,
		Description:   "Comfortable",
		Price:         100,
		Discount:      15,
		Quantity:      10,
		CategoryID:    cat.ID.Hex(),
		SubCategoryID: sub.ID.Hex(),
		ImageURLs:     []string{"/uploads/products/a.png"},
	}
}

func TestSlugsAreUniquePerCollection(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	first, err := svc.CreateCategory(ctx, models.CategoryInput{Name: "Red Shoe"})
	require.NoError(t, err)
	second, err := svc.CreateCategory(ctx, models.CategoryInput{Name: "Red Shoe"})
	require.NoError(t, err)

	assert.Equal(t, "red-shoe", first.Slug)
	assert.Equal(t, "red-shoe-1", second.Slug)

	// Same name on update keeps the slug.
	updated, err := svc.UpdateCategory(ctx, first.ID, models.CategoryInput{Name: "Red Shoe"})
	require.NoError(t, err)
	assert.Equal(t, "red-shoe", updated.Slug)
}

func TestCreateProductDerivesPriceAndSlug(t *testing.T) {
	svc, _, _ := newService(t)
	cat, sub := seedPlacement(t, svc)

	p, err := svc.CreateProduct(context.Background(), productInput(cat, sub, "Air Runner", "Light"))
	require.NoError(t, err)

	assert.Equal(t, "air-runner-light", p.Slug)
	assert.Equal(t, 85.0, p.DiscountedPrice)
	assert.True(t, p.IsPublic)
	assert.Equal(t, models.ProductStatusActive, p.Status)
}

func TestCreateProductRejectsForeignSubcategory(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	cat, _ := seedPlacement(t, svc)
	other, err := svc.CreateCategory(ctx, models.CategoryInput{Name: "Bags"})
	require.NoError(t, err)
	otherSub, err := svc.CreateSubcategory(ctx, models.SubcategoryInput{Name: "Totes", CategoryID: other.ID.Hex()})
	require.NoError(t, err)

	_, err = svc.CreateProduct(ctx, productInput(cat, otherSub, "Mixed", "Up"))
	assert.ErrorIs(t, err, domain.ErrValidation)

	in := productInput(cat, otherSub, "No", "Images")
	in.ImageURLs = nil
	_, err = svc.CreateProduct(ctx, in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	in = productInput(cat, otherSub, "Bad", "Discount")
	in.Discount = 100
	_, err = svc.CreateProduct(ctx, in)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateProductKeepsSlugWithoutRename(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	cat, sub := seedPlacement(t, svc)
	p, err := svc.CreateProduct(ctx, productInput(cat, sub, "Air Runner", "Light"))
	require.NoError(t, err)

	price := 200.0
	updated, err := svc.UpdateProduct(ctx, p.ID, models.UpdateProductInput{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, p.Slug, updated.Slug)
	assert.Equal(t, 170.0, updated.DiscountedPrice)

	name := "Air Walker"
	updated, err = svc.UpdateProduct(ctx, p.ID, models.UpdateProductInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "air-walker-light", updated.Slug)
}

func TestDeleteCategoryCascadesAndRestores(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()
	cat, sub := seedPlacement(t, svc)

	// Deleted on its own before the category: must stay deleted after restore.
	loner, err := svc.CreateSubcategory(ctx, models.SubcategoryInput{Name: "Boots", CategoryID: cat.ID.Hex()})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteSubcategory(ctx, loner.ID))

	require.NoError(t, svc.DeleteCategory(ctx, cat.ID))

	got, err := store.Subcategories().GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)

	_, err = svc.ListSubcategories(ctx, cat.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.RestoreCategory(ctx, cat.ID)
	require.NoError(t, err)

	got, err = store.Subcategories().GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.False(t, got.IsDeleted)

	stillGone, err := store.Subcategories().GetByID(ctx, loner.ID)
	require.NoError(t, err)
	assert.True(t, stillGone.IsDeleted)

	views, err := svc.ListCategories(ctx, false)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Len(t, views[0].SubCategories, 1)
	assert.Equal(t, "Sneakers", views[0].SubCategories[0].Name)
}

func TestMoveSubcategoryKeepsBothSidesInSync(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()
	cat, sub := seedPlacement(t, svc)
	other, err := svc.CreateCategory(ctx, models.CategoryInput{Name: "Sports"})
	require.NoError(t, err)

	moved, err := svc.UpdateSubcategory(ctx, sub.ID, models.SubcategoryInput{CategoryID: other.ID.Hex()})
	require.NoError(t, err)
	assert.Equal(t, other.ID, moved.CategoryID)

	oldParent, err := store.Categories().GetByID(ctx, cat.ID)
	require.NoError(t, err)
	assert.NotContains(t, oldParent.SubCategories, sub.ID)

	newParent, err := store.Categories().GetByID(ctx, other.ID)
	require.NoError(t, err)
	assert.Contains(t, newParent.SubCategories, sub.ID)
}

func TestStorefrontListingAndFilters(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	cat, sub := seedPlacement(t, svc)

	cheap := productInput(cat, sub, "Cheap Sock", "Cotton")
	cheap.Price = 5
	cheap.Quantity = 1
	_, err := svc.CreateProduct(ctx, cheap)
	require.NoError(t, err)

	hidden, err := svc.CreateProduct(ctx, productInput(cat, sub, "Hidden Boot", "Leather"))
	require.NoError(t, err)
	_, err = svc.ToggleVisibility(ctx, hidden.ID)
	require.NoError(t, err)

	gone, err := svc.CreateProduct(ctx, productInput(cat, sub, "Gone Shoe", "Old"))
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProduct(ctx, gone.ID))

	_, err = svc.CreateProduct(ctx, productInput(cat, sub, "Red Runner", "Fast"))
	require.NoError(t, err)

	page, err := svc.ListProducts(ctx, models.ProductFilter{PublicOnly: true}, models.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, "Red Runner", page.Products[0].Name, "newest first")

	maxPrice := 10.0
	page, err = svc.ListProducts(ctx, models.ProductFilter{MaxPrice: &maxPrice}, models.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "Cheap Sock", page.Products[0].Name)

	page, err = svc.ListProducts(ctx, models.ProductFilter{Name: "RUNNER"}, models.NewPage(1, 10))
	require.NoError(t, err)
	assert.Len(t, page.Products, 1)

	page, err = svc.ListProducts(ctx, models.ProductFilter{OutOfStock: true}, models.NewPage(1, 10))
	require.NoError(t, err)
	assert.Len(t, page.Products, 1)

	page, err = svc.ListProducts(ctx, models.ProductFilter{Deleted: true}, models.NewPage(1, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, models.ProductStatusInactive, page.Products[0].Status)

	_, err = svc.GetProduct(ctx, hidden.ID, true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.GetProduct(ctx, hidden.ID, false)
	assert.NoError(t, err)

	restored, err := svc.RestoreProduct(ctx, gone.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProductStatusActive, restored.Status)
}

func TestLikes(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	cat, sub := seedPlacement(t, svc)
	p, err := svc.CreateProduct(ctx, productInput(cat, sub, "Likeable", "Very"))
	require.NoError(t, err)
	user := primitive.NewObjectID()

	liked, err := svc.SetLike(ctx, user, p.ID, true)
	require.NoError(t, err)
	assert.True(t, liked.LikedByUser(user))

	// idempotent
	liked, err = svc.SetLike(ctx, user, p.ID, true)
	require.NoError(t, err)
	assert.Len(t, liked.LikedBy, 1)

	list, err := svc.LikedProducts(ctx, user)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, now, err := svc.ToggleLike(ctx, user, p.ID)
	require.NoError(t, err)
	assert.False(t, now)

	list, err = svc.LikedProducts(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateCategoryImageRemovesOldFile(t *testing.T) {
	svc, _, files := newService(t)
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, models.CategoryInput{Name: "Hats", Image: "/uploads/categories/old.png"})
	require.NoError(t, err)

	_, err = svc.UpdateCategory(ctx, cat.ID, models.CategoryInput{Image: "/uploads/categories/new.png"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/uploads/categories/old.png"}, files.paths)
}

// sellOnRead sells stock and records a like right after every product read,
// the way a checkout or a shopper racing an admin edit would.
type sellOnRead struct {
	repository.ProductRepository
	sell  int
	liker primitive.ObjectID
}

func (r *sellOnRead) GetByID(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	p, err := r.ProductRepository.GetByID(ctx, id)
	if err != nil || r.sell == 0 {
		return p, err
	}
	if _, err := r.ProductRepository.DecrementStock(ctx, id, r.sell); err != nil {
		return models.Product{}, err
	}
	if err := r.ProductRepository.SetLike(ctx, id, r.liker, true); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

func TestAdminWritesKeepConcurrentStockAndLikes(t *testing.T) {
	store := memrepo.New()
	products := &sellOnRead{ProductRepository: store.Products(), liker: primitive.NewObjectID()}
	svc := NewService(store.Categories(), store.Subcategories(), products, &removedFiles{})
	ctx := context.Background()
	cat, sub := seedPlacement(t, svc)
	p, err := svc.CreateProduct(ctx, productInput(cat, sub, "Air Runner", "Light"))
	require.NoError(t, err)

	products.sell = 2
	_, err = svc.ToggleVisibility(ctx, p.ID)
	require.NoError(t, err)
	name := "Air Walker"
	_, err = svc.UpdateProduct(ctx, p.ID, models.UpdateProductInput{Name: &name})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
	products.sell = 0
	_, err = svc.RestoreProduct(ctx, p.ID)
	require.NoError(t, err)

	stored, err := store.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Quantity, "10 in stock, 2 sold during each of three edits")
	assert.True(t, stored.LikedByUser(products.liker))
	assert.False(t, stored.IsPublic)
	assert.Equal(t, "air-walker-light", stored.Slug)
	assert.False(t, stored.IsDeleted)
	assert.Nil(t, stored.DeletedAt)

	qty := 7
	updated, err := svc.UpdateProduct(ctx, p.ID, models.UpdateProductInput{Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Quantity)
}

type unreachableProducts struct{ repository.ProductRepository }

func (unreachableProducts) GetByID(context.Context, primitive.ObjectID) (models.Product, error) {
	return models.Product{}, errors.New("get product: server selection timeout")
}

func TestProductStoreFailuresAreNotReportedAsMissing(t *testing.T) {
	store := memrepo.New()
	svc := NewService(store.Categories(), store.Subcategories(), unreachableProducts{store.Products()}, &removedFiles{})
	ctx := context.Background()
	id := primitive.NewObjectID()

	_, err := svc.ToggleVisibility(ctx, id)
	assert.ErrorContains(t, err, "server selection timeout")
	assert.NotErrorIs(t, err, domain.ErrNotFound)

	err = svc.DeleteProduct(ctx, id)
	assert.NotErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.UpdateProduct(ctx, id, models.UpdateProductInput{})
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}
