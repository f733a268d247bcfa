package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CartItem struct {
	ProductID  primitive.ObjectID `bson:"product" json:"product"`
	Quantity   int                `bson:"quantity" json:"quantity"`
	TotalPrice float64            `bson:"totalPrice" json:"totalPrice"`
}

type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user" json:"user"`
	Items     []CartItem         `bson:"items" json:"items"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CartLine is a cart item with its product resolved. Product is nil when the
// product has since been removed from the catalog.
type CartLine struct {
	Product    *ProductSummary `json:"product"`
	Quantity   int             `json:"quantity"`
	TotalPrice float64         `json:"totalPrice"`
}

type CartView struct {
	Items     []CartLine `json:"items"`
	CartTotal float64    `json:"cartTotal"`
}

type CartItemInput struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type CartRemoveInput struct {
	ProductID string `json:"productId" binding:"required"`
}
