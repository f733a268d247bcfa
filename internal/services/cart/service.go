package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/developia-II/storeblog-backend/internal/adapters/repository"
	"github.com/developia-II/storeblog-backend/internal/core/domain"
	"github.com/developia-II/storeblog-backend/internal/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Service keeps one cart per user. Every mutation reprices the line it
// touches from the product's current effective price; untouched lines keep
// the total they were last priced at.
type Service struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	now      func() time.Time
}

func NewService(carts repository.CartRepository, products repository.ProductRepository) *Service {
	return &Service{carts: carts, products: products, now: time.Now}
}

func (s *Service) sellable(ctx context.Context, hex string) (models.Product, error) {
	id, err := domain.ParseID(hex, "product")
	if err != nil {
		return models.Product{}, err
	}
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return models.Product{}, domain.NotFound("Product")
		}
		return models.Product{}, err
	}
	if !p.Visible() {
		return models.Product{}, domain.NotFound("Product")
	}
	return p, nil
}

func lineTotal(p models.Product, qty int) float64 {
	return p.EffectivePrice().Mul(decimal.NewFromInt(int64(qty))).Round(2).InexactFloat64()
}

func checkStock(p models.Product, qty int) error {
	if qty < 1 {
		return domain.Validation("Quantity must be at least 1")
	}
	if qty > p.Quantity {
		return domain.Validation("Only %d of %s left in stock", p.Quantity, p.Name)
	}
	return nil
}

func indexOf(items []models.CartItem, productID primitive.ObjectID) int {
	for i := range items {
		if items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Service) save(ctx context.Context, c *models.Cart) (models.CartView, error) {
	now := s.now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	if err := s.carts.Save(ctx, c); err != nil {
		return models.CartView{}, fmt.Errorf("save cart: %w", err)
	}
	return s.view(ctx, *c)
}

// Add puts a product in the cart, merging with an existing line.
func (s *Service) Add(ctx context.Context, userID primitive.ObjectID, input models.CartItemInput) (models.CartView, error) {
	p, err := s.sellable(ctx, input.ProductID)
	if err != nil {
		return models.CartView{}, err
	}
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return models.CartView{}, err
	}

	qty := input.Quantity
	i := indexOf(c.Items, p.ID)
	if i >= 0 {
		qty += c.Items[i].Quantity
	}
	if err := checkStock(p, qty); err != nil {
		return models.CartView{}, err
	}

	line := models.CartItem{ProductID: p.ID, Quantity: qty, TotalPrice: lineTotal(p, qty)}
	if i >= 0 {
		c.Items[i] = line
	} else {
		c.Items = append(c.Items, line)
	}
	return s.save(ctx, &c)
}

// Update sets the quantity of a line already in the cart.
func (s *Service) Update(ctx context.Context, userID primitive.ObjectID, input models.CartItemInput) (models.CartView, error) {
	p, err := s.sellable(ctx, input.ProductID)
	if err != nil {
		return models.CartView{}, err
	}
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return models.CartView{}, err
	}

	i := indexOf(c.Items, p.ID)
	if i < 0 {
		return models.CartView{}, domain.NotFound("Product in cart")
	}
	if err := checkStock(p, input.Quantity); err != nil {
		return models.CartView{}, err
	}
	c.Items[i] = models.CartItem{ProductID: p.ID, Quantity: input.Quantity, TotalPrice: lineTotal(p, input.Quantity)}
	return s.save(ctx, &c)
}

// Remove drops a line. The product itself may already be gone from the catalog.
func (s *Service) Remove(ctx context.Context, userID primitive.ObjectID, productHex string) (models.CartView, error) {
	productID, err := domain.ParseID(productHex, "product")
	if err != nil {
		return models.CartView{}, err
	}
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return models.CartView{}, err
	}

	i := indexOf(c.Items, productID)
	if i < 0 {
		return models.CartView{}, domain.NotFound("Product in cart")
	}
	c.Items = append(c.Items[:i:i], c.Items[i+1:]...)
	return s.save(ctx, &c)
}

func (s *Service) Clear(ctx context.Context, userID primitive.ObjectID) error {
	return s.carts.Clear(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID primitive.ObjectID) (models.CartView, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return models.CartView{}, err
	}
	return s.view(ctx, c)
}

// view attaches a live product projection to each stored line.
func (s *Service) view(ctx context.Context, c models.Cart) (models.CartView, error) {
	ids := make([]primitive.ObjectID, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return models.CartView{}, err
	}

	total := decimal.Zero
	lines := make([]models.CartLine, 0, len(c.Items))
	for _, item := range c.Items {
		line := models.CartLine{Quantity: item.Quantity, TotalPrice: item.TotalPrice}
		if p, ok := products[item.ProductID]; ok && !p.IsDeleted {
			summary := p.Summary()
			line.Product = &summary
		}
		lines = append(lines, line)
		total = total.Add(decimal.NewFromFloat(item.TotalPrice))
	}

	return models.CartView{Items: lines, CartTotal: total.Round(2).InexactFloat64()}, nil
}
