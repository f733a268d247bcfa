package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "Pending"
	StatusProcessing OrderStatus = "Processing"
	StatusShipped    OrderStatus = "Shipped"
	StatusDelivered  OrderStatus = "Delivered"
	StatusCancelled  OrderStatus = "Cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentBankTransfer   PaymentMethod = "Bank Transfer"
	PaymentEasyPaisa      PaymentMethod = "EasyPaisa"
	PaymentJazzCash       PaymentMethod = "JazzCash"
	PaymentCashOnDelivery PaymentMethod = "Cash on Delivery"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentBankTransfer, PaymentEasyPaisa, PaymentJazzCash, PaymentCashOnDelivery:
		return true
	}
	return false
}

type OrderItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	UnitPrice float64            `bson:"unitPrice" json:"unitPrice"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// Checkout is a placed order. Buyer details are a snapshot taken at checkout.
type Checkout struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"user" json:"user"`
	Slug   string             `bson:"slug" json:"slug"`

	// Buyer
	Name           string `bson:"name" json:"name"`
	Email          string `bson:"email" json:"email"`
	ContactNumber  string `bson:"contactNumber" json:"contactNumber"`
	BillingAddress string `bson:"billingAddress" json:"billingAddress"`
	City           string `bson:"city" json:"city"`
	State          string `bson:"state" json:"state"`
	ZipCode        string `bson:"zipCode" json:"zipCode"`

	PaymentMethod PaymentMethod `bson:"paymentMethod" json:"paymentMethod"`
	Products      []OrderItem   `bson:"products" json:"products"`
	TotalAmount   float64       `bson:"totalAmount" json:"totalAmount"`
	OrderStatus   OrderStatus   `bson:"orderStatus" json:"orderStatus"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

type OrderLineInput struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type CheckoutInput struct {
	Name           string           `json:"name" binding:"required,max=120"`
	Email          string           `json:"email" binding:"required,email"`
	ContactNumber  string           `json:"contactNumber" binding:"required,max=32"`
	BillingAddress string           `json:"billingAddress" binding:"required"`
	City           string           `json:"city" binding:"required"`
	State          string           `json:"state" binding:"required"`
	ZipCode        string           `json:"zipCode" binding:"required,max=16"`
	PaymentMethod  PaymentMethod    `json:"paymentMethod" binding:"required"`
	Products       []OrderLineInput `json:"products" binding:"required,min=1,dive"`
}

type DashboardStats struct {
	TotalUsers    int64      `json:"totalUsers"`
	TotalProducts int64      `json:"totalProducts"`
	TotalOrders   int64      `json:"totalOrders"`
	TotalRevenue  float64    `json:"totalRevenue"`
	RecentOrders  []Checkout `json:"recentOrders"`
}
