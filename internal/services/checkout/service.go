package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/developia-II/storeblog-backend/internal/adapters/repository"
	"github.com/developia-II/storeblog-backend/internal/core/domain"
	"github.com/developia-II/storeblog-backend/internal/models"
	"github.com/developia-II/storeblog-backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("storeblog/checkout")

type Service struct {
	orders   repository.CheckoutRepository
	products repository.ProductRepository
	carts    repository.CartRepository
	notifier domain.Notifier
	now      func() time.Time
}

func NewService(
	orders repository.CheckoutRepository,
	products repository.ProductRepository,
	carts repository.CartRepository,
	notifier domain.Notifier,
) *Service {
	return &Service{orders: orders, products: products, carts: carts, notifier: notifier, now: time.Now}
}

type reservation struct {
	id  primitive.ObjectID
	qty int
}

// release gives back stock taken for an order that could not be completed.
func (s *Service) release(ctx context.Context, taken []reservation) {
	for _, r := range taken {
		if err := s.products.IncrementStock(ctx, r.id, r.qty); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"product_id": r.id.Hex(),
				"quantity":   r.qty,
			}).Error("Failed to release reserved stock")
		}
	}
}

// mergeLines folds repeated products into one line, keeping first-seen order.
func mergeLines(lines []models.OrderLineInput) ([]reservation, error) {
	index := map[primitive.ObjectID]int{}
	var merged []reservation
	for _, line := range lines {
		id, err := domain.ParseID(line.ProductID, "product")
		if err != nil {
			return nil, err
		}
		if line.Quantity < 1 {
			return nil, domain.Validation("Quantity must be at least 1")
		}
		if i, ok := index[id]; ok {
			merged[i].qty += line.Quantity
			continue
		}
		index[id] = len(merged)
		merged = append(merged, reservation{id: id, qty: line.Quantity})
	}
	return merged, nil
}

func validateBuyer(input models.CheckoutInput) error {
	required := map[string]string{
		"name":           input.Name,
		"email":          input.Email,
		"contactNumber":  input.ContactNumber,
		"billingAddress": input.BillingAddress,
		"city":           input.City,
		"state":          input.State,
		"zipCode":        input.ZipCode,
	}
	for _, field := range []string{"name", "email", "contactNumber", "billingAddress", "city", "state", "zipCode"} {
		if strings.TrimSpace(required[field]) == "" {
			return domain.Validation("%s is required", field)
		}
	}
	if !input.PaymentMethod.Valid() {
		return domain.Validation("Invalid payment method")
	}
	if len(input.Products) == 0 {
		return domain.Validation("At least one product is required")
	}
	return nil
}

// Create places an order. Stock is taken per product with a guarded
// decrement; if any line cannot be filled, everything taken so far is put
// back and the order is rejected.
func (s *Service) Create(ctx context.Context, actor domain.Actor, input models.CheckoutInput) (models.Checkout, error) {
	ctx, span := tracer.Start(ctx, "checkout.Create")
	defer span.End()

	if err := validateBuyer(input); err != nil {
		return models.Checkout{}, err
	}
	lines, err := mergeLines(input.Products)
	if err != nil {
		return models.Checkout{}, err
	}
	span.SetAttributes(attribute.Int("checkout.lines", len(lines)))

	ids := make([]primitive.ObjectID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.id)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return models.Checkout{}, err
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		p, ok := products[l.id]
		if !ok || !p.Visible() {
			return models.Checkout{}, domain.NotFound("Product " + l.id.Hex())
		}
		if p.Quantity < l.qty {
			return models.Checkout{}, domain.Validation("Insufficient stock for %s", p.Name)
		}
		unit := p.EffectivePrice()
		total = total.Add(unit.Mul(decimal.NewFromInt(int64(l.qty))))
		items = append(items, models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: unit.Round(2).InexactFloat64(),
			Quantity:  l.qty,
		})
	}

	taken := make([]reservation, 0, len(lines))
	for _, l := range lines {
		ok, err := s.products.DecrementStock(ctx, l.id, l.qty)
		if err != nil {
			s.release(ctx, taken)
			span.RecordError(err)
			span.SetStatus(codes.Error, "stock decrement failed")
			return models.Checkout{}, fmt.Errorf("decrement stock: %w", err)
		}
		if !ok {
			s.release(ctx, taken)
			span.SetStatus(codes.Error, "insufficient stock")
			return models.Checkout{}, domain.Validation("Insufficient stock for %s", products[l.id].Name)
		}
		taken = append(taken, l)
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	order := models.Checkout{
		UserID:         actor.UserID,
		Name:           strings.TrimSpace(input.Name),
		Email:          strings.ToLower(strings.TrimSpace(input.Email)),
		ContactNumber:  strings.TrimSpace(input.ContactNumber),
		BillingAddress: strings.TrimSpace(input.BillingAddress),
		City:           strings.TrimSpace(input.City),
		State:          strings.TrimSpace(input.State),
		ZipCode:        strings.TrimSpace(input.ZipCode),
		PaymentMethod:  input.PaymentMethod,
		Products:       items,
		TotalAmount:    total.Round(2).InexactFloat64(),
		OrderStatus:    models.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	stamp := strconv.FormatInt(now.UnixMilli(), 10)
	for attempt := 0; attempt < 2; attempt++ {
		order.Slug, err = utils.UniqueSlug(ctx, func(ctx context.Context, c string) (bool, error) {
			return s.orders.SlugExists(ctx, c, primitive.NilObjectID)
		}, order.Name, stamp)
		if err != nil {
			break
		}
		order.ID = primitive.NilObjectID
		if err = s.orders.Create(ctx, &order); !errors.Is(err, domain.ErrConflict) {
			break
		}
	}
	if err != nil {
		s.release(ctx, taken)
		span.RecordError(err)
		if errors.Is(err, domain.ErrConflict) {
			return models.Checkout{}, domain.Conflict("Could not allocate an order reference, please retry")
		}
		return models.Checkout{}, fmt.Errorf("create order: %w", err)
	}
	span.SetAttributes(attribute.String("checkout.id", order.ID.Hex()))

	if !actor.UserID.IsZero() {
		if err := s.carts.Clear(ctx, actor.UserID); err != nil {
			logrus.WithError(err).WithField("user_id", actor.UserID.Hex()).Warn("Failed to clear cart after checkout")
		}
	}

	logrus.WithFields(logrus.Fields{
		"order_id": order.ID.Hex(),
		"slug":     order.Slug,
		"total":    order.TotalAmount,
		"lines":    len(order.Products),
	}).Info("Order placed")

	if err := s.notifier.SendOrderConfirmation(ctx, order); err != nil {
		logrus.WithError(err).WithField("order_id", order.ID.Hex()).Warn("Failed to send order confirmation")
	}

	return order, nil
}

func owns(actor domain.Actor, order models.Checkout) bool {
	if !actor.UserID.IsZero() && order.UserID == actor.UserID {
		return true
	}
	return actor.Email != "" && strings.EqualFold(order.Email, actor.Email)
}

// Get returns an order to its buyer or an admin. Other callers get NotFound.
func (s *Service) Get(ctx context.Context, actor domain.Actor, id primitive.ObjectID) (models.Checkout, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return models.Checkout{}, domain.NotFound("Order")
		}
		return models.Checkout{}, err
	}
	if !actor.IsAdmin() && !owns(actor, order) {
		return models.Checkout{}, domain.NotFound("Order")
	}
	return order, nil
}

// ListByEmail lists orders placed with a buyer email. Users may only list
// their own; an empty email means the caller's.
func (s *Service) ListByEmail(ctx context.Context, actor domain.Actor, email string) ([]models.Checkout, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		email = strings.ToLower(actor.Email)
	}
	if email == "" {
		return nil, domain.Validation("Email is required")
	}
	if !actor.IsAdmin() && !strings.EqualFold(email, actor.Email) {
		return nil, domain.Forbidden("You can only view your own orders")
	}
	return s.orders.ListByEmail(ctx, email)
}

func (s *Service) ListAll(ctx context.Context) ([]models.Checkout, error) {
	return s.orders.List(ctx)
}

// Cancel lets a buyer cancel while the order is Pending or Processing;
// admins may cancel anything not yet cancelled.
func (s *Service) Cancel(ctx context.Context, actor domain.Actor, id primitive.ObjectID) (models.Checkout, error) {
	order, err := s.Get(ctx, actor, id)
	if err != nil {
		return models.Checkout{}, err
	}
	if order.OrderStatus == models.StatusCancelled {
		return models.Checkout{}, domain.Validation("Order is already cancelled")
	}
	if !actor.IsAdmin() && order.OrderStatus != models.StatusPending && order.OrderStatus != models.StatusProcessing {
		return models.Checkout{}, domain.Validation("Order can no longer be cancelled")
	}
	return s.transition(ctx, order, models.StatusCancelled)
}

// UpdateStatus moves an order to any valid status. Cancelled is terminal.
func (s *Service) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (models.Checkout, error) {
	if !status.Valid() {
		return models.Checkout{}, domain.Validation("Invalid order status")
	}
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return models.Checkout{}, domain.NotFound("Order")
		}
		return models.Checkout{}, err
	}
	if order.OrderStatus == models.StatusCancelled {
		return models.Checkout{}, domain.Validation("Cancelled orders cannot change status")
	}
	if order.OrderStatus == status {
		return order, nil
	}
	return s.transition(ctx, order, status)
}

// transition moves the order only if nobody else moved it first, so stock
// for a cancelled order is restored exactly once.
func (s *Service) transition(ctx context.Context, order models.Checkout, to models.OrderStatus) (models.Checkout, error) {
	ctx, span := tracer.Start(ctx, "checkout.Transition")
	defer span.End()
	span.SetAttributes(
		attribute.String("checkout.id", order.ID.Hex()),
		attribute.String("checkout.from", string(order.OrderStatus)),
		attribute.String("checkout.to", string(to)),
	)

	from := order.OrderStatus
	moved, err := s.orders.TransitionStatus(ctx, order.ID, from, to)
	if err != nil {
		span.RecordError(err)
		return models.Checkout{}, err
	}
	if !moved {
		return models.Checkout{}, domain.Conflict("Order status changed concurrently, please reload")
	}

	if to == models.StatusCancelled {
		s.restock(ctx, order)
	}

	order.OrderStatus = to
	order.UpdatedAt = s.now().UTC()
	logrus.WithFields(logrus.Fields{
		"order_id": order.ID.Hex(),
		"from":     from,
		"to":       to,
	}).Info("Order status changed")

	if err := s.notifier.SendOrderStatus(ctx, order); err != nil {
		logrus.WithError(err).WithField("order_id", order.ID.Hex()).Warn("Failed to send order status email")
	}
	return order, nil
}

func (s *Service) restock(ctx context.Context, order models.Checkout) {
	for _, item := range order.Products {
		if err := s.products.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"order_id":   order.ID.Hex(),
				"product_id": item.ProductID.Hex(),
				"quantity":   item.Quantity,
			}).Error("Failed to restore stock for cancelled order")
		}
	}
	logrus.WithField("order_id", order.ID.Hex()).Info("Stock restored for cancelled order")
}
