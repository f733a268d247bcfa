package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

func (s ProductStatus) Valid() bool {
	return s == ProductStatusActive || s == ProductStatusInactive
}

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Heading     string             `bson:"heading" json:"heading"`
	Description string             `bson:"description" json:"description"`
	Slug        string             `bson:"slug" json:"slug"`

	// Pricing
	Price           float64 `bson:"price" json:"price"`
	Discount        float64 `bson:"discount" json:"discount"` // percent, 0..99
	DiscountedPrice float64 `bson:"discountedPrice" json:"discountedPrice"`

	// Categorization
	CategoryID    primitive.ObjectID `bson:"category" json:"category"`
	SubCategoryID primitive.ObjectID `bson:"subCategory" json:"subCategory"`

	ImageURLs []string             `bson:"imageUrls" json:"imageUrls"`
	LikedBy   []primitive.ObjectID `bson:"likedBy" json:"likedBy"`

	// Inventory
	Quantity int `bson:"quantity" json:"quantity"`

	// Lifecycle
	IsPublic  bool          `bson:"isPublic" json:"isPublic"`
	Status    ProductStatus `bson:"status" json:"status"`
	IsDeleted bool          `bson:"isDeleted" json:"isDeleted"`
	DeletedAt *time.Time    `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// DiscountedPrice returns price reduced by discount percent, rounded to cents.
func DiscountedPrice(price, discount float64) float64 {
	p := decimal.NewFromFloat(price)
	off := p.Mul(decimal.NewFromFloat(discount)).Div(decimal.NewFromInt(100))
	return p.Sub(off).Round(2).InexactFloat64()
}

// EffectivePrice is what a buyer pays per unit right now.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.Discount > 0 && p.DiscountedPrice > 0 {
		return decimal.NewFromFloat(p.DiscountedPrice)
	}
	return decimal.NewFromFloat(p.Price)
}

// Visible reports whether the storefront may show the product.
func (p Product) Visible() bool {
	return !p.IsDeleted && p.IsPublic && p.Status == ProductStatusActive
}

func (p Product) LikedByUser(userID primitive.ObjectID) bool {
	for _, id := range p.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// ProductSummary is the live projection shown next to cart lines and orders.
type ProductSummary struct {
	ID              primitive.ObjectID `json:"id"`
	Name            string             `json:"name"`
	Slug            string             `json:"slug"`
	Price           float64            `json:"price"`
	DiscountedPrice float64            `json:"discountedPrice"`
	ImageURLs       []string           `json:"imageUrls"`
	Quantity        int                `json:"quantity"`
}

func (p Product) Summary() ProductSummary {
	return ProductSummary{
		ID:              p.ID,
		Name:            p.Name,
		Slug:            p.Slug,
		Price:           p.Price,
		DiscountedPrice: p.DiscountedPrice,
		ImageURLs:       p.ImageURLs,
		Quantity:        p.Quantity,
	}
}

type CreateProductInput struct {
	Name          string  `json:"name" form:"name" binding:"required,max=120"`
	Heading       string  `json:"heading" form:"heading" binding:"required,max=200"`
	Description   string  `json:"description" form:"description" binding:"required"`
	Price         float64 `json:"price" form:"price" binding:"required,gt=0"`
	Discount      float64 `json:"discount" form:"discount" binding:"gte=0,lte=99"`
	Quantity      int     `json:"quantity" form:"quantity" binding:"gte=0"`
	CategoryID    string  `json:"categoryId" form:"categoryId" binding:"required"`
	SubCategoryID string  `json:"subCategoryId" form:"subCategoryId" binding:"required"`
	IsPublic      *bool   `json:"isPublic" form:"isPublic"`

	ImageURLs []string `json:"-" form:"-"`
}

// UpdateProductInput carries only the fields the caller wants changed.
type UpdateProductInput struct {
	Name          *string  `json:"name" form:"name" binding:"omitempty,max=120"`
	Heading       *string  `json:"heading" form:"heading" binding:"omitempty,max=200"`
	Description   *string  `json:"description" form:"description"`
	Price         *float64 `json:"price" form:"price" binding:"omitempty,gt=0"`
	Discount      *float64 `json:"discount" form:"discount" binding:"omitempty,gte=0,lte=99"`
	Quantity      *int     `json:"quantity" form:"quantity" binding:"omitempty,gte=0"`
	CategoryID    *string  `json:"categoryId" form:"categoryId"`
	SubCategoryID *string  `json:"subCategoryId" form:"subCategoryId"`
	Status        *string  `json:"status" form:"status" binding:"omitempty,oneof=active inactive"`

	// AddImageURLs are appended to the existing list.
	AddImageURLs []string `json:"-" form:"-"`
}

// ProductChanges is a partial product write. Nil fields are left as stored,
// so concurrent stock and like updates survive an admin edit.
type ProductChanges struct {
	Name            *string
	Heading         *string
	Description     *string
	Slug            *string
	Price           *float64
	Discount        *float64
	DiscountedPrice *float64
	CategoryID      *primitive.ObjectID
	SubCategoryID   *primitive.ObjectID
	AddImageURLs    []string
	Quantity        *int
	IsPublic        *bool
	Status          *ProductStatus
	// Deleted true stamps DeletedAt; false clears it.
	Deleted   *bool
	DeletedAt time.Time
	UpdatedAt time.Time
}

type ProductFilter struct {
	CategoryID    *primitive.ObjectID
	SubCategoryID *primitive.ObjectID
	Status        ProductStatus
	MinPrice      *float64
	MaxPrice      *float64
	Name          string
	OutOfStock    bool
	// PublicOnly restricts results to what the storefront may show.
	PublicOnly bool
	// Deleted selects soft-deleted products instead of live ones.
	Deleted bool
}

type ProductPage struct {
	Products   []Product `json:"products"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"totalPages"`
}
