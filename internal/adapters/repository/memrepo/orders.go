package memrepo

import (
	"context"
	"sort"
	"time"

	"github.com/developia-II/storeblog-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type cartRepo struct{ s *Store }

func (r *cartRepo) Get(_ context.Context, userID primitive.ObjectID) (models.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cart, ok := r.s.carts[userID]
	if !ok {
		return models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	cart = clone(cart)
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return cart, nil
}

func (r *cartRepo) Save(_ context.Context, cart *models.Cart) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	if cart.ID.IsZero() {
		cart.ID = primitive.NewObjectID()
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now
	r.s.carts[cart.UserID] = clone(*cart)
	return nil
}

func (r *cartRepo) Clear(_ context.Context, userID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if cart, ok := r.s.carts[userID]; ok {
		cart.Items = []models.CartItem{}
		cart.UpdatedAt = time.Now()
		r.s.carts[userID] = cart
	}
	return nil
}

type checkoutRepo struct{ s *Store }

func (r *checkoutRepo) Create(_ context.Context, order *models.Checkout) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&order.ID)
	for _, other := range r.s.checkouts {
		if other.Slug == order.Slug {
			return conflict("create checkout")
		}
	}
	r.s.checkouts[order.ID] = clone(*order)
	return nil
}

func (r *checkoutRepo) GetByID(_ context.Context, id primitive.ObjectID) (models.Checkout, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	order, ok := r.s.checkouts[id]
	if !ok {
		return models.Checkout{}, notFound("get checkout")
	}
	return clone(order), nil
}

func (r *checkoutRepo) sorted(keep func(models.Checkout) bool) []models.Checkout {
	out := values(r.s.checkouts, keep)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out
}

func (r *checkoutRepo) List(_ context.Context) ([]models.Checkout, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.sorted(nil), nil
}

func (r *checkoutRepo) ListByEmail(_ context.Context, email string) ([]models.Checkout, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.sorted(func(o models.Checkout) bool { return o.Email == email }), nil
}

func (r *checkoutRepo) TransitionStatus(_ context.Context, id primitive.ObjectID, from, to models.OrderStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	order, ok := r.s.checkouts[id]
	if !ok || order.OrderStatus != from {
		return false, nil
	}
	order.OrderStatus = to
	order.UpdatedAt = time.Now()
	r.s.checkouts[id] = clone(order)
	return true, nil
}

func (r *checkoutRepo) SlugExists(_ context.Context, slug string, exclude primitive.ObjectID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, o := range r.s.checkouts {
		if id != exclude && o.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *checkoutRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.checkouts)), nil
}

func (r *checkoutRepo) Revenue(_ context.Context) (float64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var total float64
	for _, o := range r.s.checkouts {
		if o.OrderStatus != models.StatusCancelled {
			total += o.TotalAmount
		}
	}
	return total, nil
}

func (r *checkoutRepo) Recent(_ context.Context, n int) ([]models.Checkout, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := r.sorted(nil)
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}
