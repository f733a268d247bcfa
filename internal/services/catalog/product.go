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

func (s *Service) productSlug(ctx context.Context, name, heading string, exclude primitive.ObjectID) (string, error) {
	return uniqueSlug(ctx, func(ctx context.Context, c string) (bool, error) {
		return s.products.SlugExists(ctx, c, exclude)
	}, name, heading)
}

// placement checks that both ids are live and that the subcategory belongs
// to the category.
func (s *Service) placement(ctx context.Context, categoryHex, subcategoryHex string) (primitive.ObjectID, primitive.ObjectID, error) {
	categoryID, err := domain.ParseID(categoryHex, "category")
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	subcategoryID, err := domain.ParseID(subcategoryHex, "subcategory")
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}

	if _, err := s.liveCategory(ctx, categoryID); err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	sub, err := s.liveSubcategory(ctx, subcategoryID)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	if sub.CategoryID != categoryID {
		return primitive.NilObjectID, primitive.NilObjectID, domain.Validation("Subcategory does not belong to the selected category")
	}
	return categoryID, subcategoryID, nil
}

func validatePricing(price, discount float64) error {
	if price <= 0 {
		return domain.Validation("Price must be greater than 0")
	}
	if discount < 0 || discount > 99 {
		return domain.Validation("Discount must be between 0 and 99")
	}
	return nil
}

func (s *Service) CreateProduct(ctx context.Context, input models.CreateProductInput) (models.Product, error) {
	name := strings.TrimSpace(input.Name)
	heading := strings.TrimSpace(input.Heading)
	if name == "" || heading == "" || strings.TrimSpace(input.Description) == "" {
		return models.Product{}, domain.Validation("Name, heading and description are required")
	}
	if err := validatePricing(input.Price, input.Discount); err != nil {
		return models.Product{}, err
	}
	if input.Quantity < 0 {
		return models.Product{}, domain.Validation("Quantity cannot be negative")
	}
	if len(input.ImageURLs) == 0 {
		return models.Product{}, domain.Validation("At least one image is required")
	}

	categoryID, subcategoryID, err := s.placement(ctx, input.CategoryID, input.SubCategoryID)
	if err != nil {
		return models.Product{}, err
	}

	isPublic := true
	if input.IsPublic != nil {
		isPublic = *input.IsPublic
	}

	now := s.timestamp()
	p := models.Product{
		Name:            name,
		Heading:         heading,
		Description:     strings.TrimSpace(input.Description),
		Price:           input.Price,
		Discount:        input.Discount,
		DiscountedPrice: models.DiscountedPrice(input.Price, input.Discount),
		CategoryID:      categoryID,
		SubCategoryID:   subcategoryID,
		ImageURLs:       input.ImageURLs,
		LikedBy:         []primitive.ObjectID{},
		Quantity:        input.Quantity,
		IsPublic:        isPublic,
		Status:          models.ProductStatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	for attempt := 0; attempt < 2; attempt++ {
		if p.Slug, err = s.productSlug(ctx, name, heading, primitive.NilObjectID); err != nil {
			return models.Product{}, err
		}
		p.ID = primitive.NilObjectID
		if err = s.products.Create(ctx, &p); !errors.Is(err, domain.ErrConflict) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return models.Product{}, domain.Conflict("A product with this name already exists")
		}
		return models.Product{}, err
	}

	logrus.WithFields(logrus.Fields{"product_id": p.ID.Hex(), "slug": p.Slug}).Info("Product created")
	return p, nil
}

func (s *Service) liveProduct(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return models.Product{}, notFoundAs(err, "Product")
	}
	if p.IsDeleted {
		return models.Product{}, domain.NotFound("Product")
	}
	return p, nil
}

// UpdateProduct writes only the fields present in input. Stock moves only
// when the admin sets quantity explicitly.
func (s *Service) UpdateProduct(ctx context.Context, id primitive.ObjectID, input models.UpdateProductInput) (models.Product, error) {
	p, err := s.liveProduct(ctx, id)
	if err != nil {
		return models.Product{}, err
	}

	changes := models.ProductChanges{AddImageURLs: input.AddImageURLs}
	name, heading := p.Name, p.Heading
	if input.Name != nil {
		if name = strings.TrimSpace(*input.Name); name == "" {
			return models.Product{}, domain.Validation("Name cannot be empty")
		}
		changes.Name = &name
	}
	if input.Heading != nil {
		if heading = strings.TrimSpace(*input.Heading); heading == "" {
			return models.Product{}, domain.Validation("Heading cannot be empty")
		}
		changes.Heading = &heading
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		changes.Description = &description
	}

	if input.Price != nil || input.Discount != nil {
		price, discount := p.Price, p.Discount
		if input.Price != nil {
			price = *input.Price
		}
		if input.Discount != nil {
			discount = *input.Discount
		}
		if err := validatePricing(price, discount); err != nil {
			return models.Product{}, err
		}
		discounted := models.DiscountedPrice(price, discount)
		changes.Price, changes.Discount, changes.DiscountedPrice = &price, &discount, &discounted
	}

	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return models.Product{}, domain.Validation("Quantity cannot be negative")
		}
		changes.Quantity = input.Quantity
	}
	if input.Status != nil {
		status := models.ProductStatus(*input.Status)
		if !status.Valid() {
			return models.Product{}, domain.Validation("Status must be active or inactive")
		}
		changes.Status = &status
	}

	if input.CategoryID != nil || input.SubCategoryID != nil {
		categoryHex, subcategoryHex := p.CategoryID.Hex(), p.SubCategoryID.Hex()
		if input.CategoryID != nil {
			categoryHex = *input.CategoryID
		}
		if input.SubCategoryID != nil {
			subcategoryHex = *input.SubCategoryID
		}
		categoryID, subcategoryID, err := s.placement(ctx, categoryHex, subcategoryHex)
		if err != nil {
			return models.Product{}, err
		}
		changes.CategoryID, changes.SubCategoryID = &categoryID, &subcategoryID
	}

	if name != p.Name || heading != p.Heading {
		slug, err := s.productSlug(ctx, name, heading, p.ID)
		if err != nil {
			return models.Product{}, err
		}
		changes.Slug = &slug
	}
	changes.UpdatedAt = s.timestamp()

	updated, err := s.products.Update(ctx, id, changes)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return models.Product{}, domain.Conflict("A product with this name already exists")
		}
		return models.Product{}, notFoundAs(err, "Product")
	}
	return updated, nil
}

// DeleteProduct soft-deletes the product and takes it off sale.
func (s *Service) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.liveProduct(ctx, id); err != nil {
		return err
	}

	at := s.timestamp()
	deleted, inactive := true, models.ProductStatusInactive
	_, err := s.products.Update(ctx, id, models.ProductChanges{
		Deleted:   &deleted,
		DeletedAt: at,
		Status:    &inactive,
		UpdatedAt: at,
	})
	if err != nil {
		return notFoundAs(err, "Product")
	}
	logrus.WithField("product_id", id.Hex()).Info("Product soft-deleted")
	return nil
}

func (s *Service) RestoreProduct(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return models.Product{}, notFoundAs(err, "Product")
	}
	if !p.IsDeleted {
		return models.Product{}, domain.Validation("Product is not deleted")
	}

	deleted, active := false, models.ProductStatusActive
	p, err = s.products.Update(ctx, id, models.ProductChanges{
		Deleted:   &deleted,
		Status:    &active,
		UpdatedAt: s.timestamp(),
	})
	if err != nil {
		return models.Product{}, notFoundAs(err, "Product")
	}
	return p, nil
}

// ToggleVisibility flips whether the storefront shows the product.
func (s *Service) ToggleVisibility(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	p, err := s.liveProduct(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	public := !p.IsPublic
	p, err = s.products.Update(ctx, id, models.ProductChanges{IsPublic: &public, UpdatedAt: s.timestamp()})
	if err != nil {
		return models.Product{}, notFoundAs(err, "Product")
	}
	return p, nil
}

func (s *Service) ListProducts(ctx context.Context, filter models.ProductFilter, page models.Page) (models.ProductPage, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return models.ProductPage{}, domain.Validation("minPrice cannot exceed maxPrice")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return models.ProductPage{}, domain.Validation("Status must be active or inactive")
	}

	products, total, err := s.products.List(ctx, filter, page)
	if err != nil {
		return models.ProductPage{}, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return models.ProductPage{
		Products:   products,
		Total:      total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages(total),
	}, nil
}

// GetProduct returns a product. Storefront callers only see visible ones.
func (s *Service) GetProduct(ctx context.Context, id primitive.ObjectID, storefront bool) (models.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return models.Product{}, notFoundAs(err, "Product")
	}
	if storefront && !p.Visible() {
		return models.Product{}, domain.NotFound("Product")
	}
	return p, nil
}

func (s *Service) SetLike(ctx context.Context, userID, productID primitive.ObjectID, liked bool) (models.Product, error) {
	p, err := s.GetProduct(ctx, productID, true)
	if err != nil {
		return models.Product{}, err
	}
	if err := s.products.SetLike(ctx, productID, userID, liked); err != nil {
		return models.Product{}, notFoundAs(err, "Product")
	}
	return s.products.GetByID(ctx, p.ID)
}

// ToggleLike likes the product if the user has not yet, and unlikes it otherwise.
func (s *Service) ToggleLike(ctx context.Context, userID, productID primitive.ObjectID) (models.Product, bool, error) {
	p, err := s.GetProduct(ctx, productID, true)
	if err != nil {
		return models.Product{}, false, err
	}
	liked := !p.LikedByUser(userID)
	p, err = s.SetLike(ctx, userID, productID, liked)
	return p, liked, err
}

func (s *Service) LikedProducts(ctx context.Context, userID primitive.ObjectID) ([]models.Product, error) {
	products, err := s.products.ListLikedBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	visible := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.Visible() {
			visible = append(visible, p)
		}
	}
	return visible, nil
}
