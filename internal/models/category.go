package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Category struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name          string               `bson:"name" json:"name"`
	Slug          string               `bson:"slug" json:"slug"`
	Image         string               `bson:"image,omitempty" json:"image,omitempty"`
	SubCategories []primitive.ObjectID `bson:"subCategories" json:"subCategories"`
	IsDeleted     bool                 `bson:"isDeleted" json:"isDeleted"`
	DeletedAt     *time.Time           `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updatedAt"`
}

type Subcategory struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Slug       string             `bson:"slug" json:"slug"`
	CategoryID primitive.ObjectID `bson:"category" json:"category"`
	IsDeleted  bool               `bson:"isDeleted" json:"isDeleted"`
	DeletedAt  *time.Time         `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CategoryView is a category with its subcategories resolved.
type CategoryView struct {
	ID            primitive.ObjectID `json:"id"`
	Name          string             `json:"name"`
	Slug          string             `json:"slug"`
	Image         string             `json:"image,omitempty"`
	SubCategories []Subcategory      `json:"subCategories"`
	IsDeleted     bool               `json:"isDeleted"`
	CreatedAt     time.Time          `json:"createdAt"`
}

type CategoryInput struct {
	Name  string `json:"name" form:"name" binding:"required,max=80"`
	Image string `json:"-" form:"-"`
}

type SubcategoryInput struct {
	Name       string `json:"name" binding:"required,max=80"`
	CategoryID string `json:"categoryId" binding:"required"`
}
