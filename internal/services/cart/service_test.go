package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/developia-II/storeblog-backend/internal/adapters/repository"
	"github.com/developia-II/storeblog-backend/internal/adapters/repository/memrepo"
	"github.com/developia-II/storeblog-backend/internal/core/domain"
	"github.com/developia-II/storeblog-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seedProduct(t *testing.T, store *memrepo.Store, name string, price, discount float64, qty int) models.Product {
	t.Helper()
	p := models.Product{
		Name:            name,
		Slug:            name,
		Price:           price,
		Discount:        discount,
		DiscountedPrice: models.DiscountedPrice(price, discount),
		Quantity:        qty,
		IsPublic:        true,
		Status:          models.ProductStatusActive,
	}
	require.NoError(t, store.Products().Create(context.Background(), &p))
	return p
}

func TestAddMergesLinesAndPricesFromEffectivePrice(t *testing.T) {
	store := memrepo.New()
	svc := NewService(store.Carts(), store.Products())
	ctx := context.Background()
	user := primitive.NewObjectID()
	shoe := seedProduct(t, store, "shoe", 40, 25, 10)
	sock := seedProduct(t, store, "sock", 2.5, 0, 10)

	_, err := svc.Add(ctx, user, models.CartItemInput{ProductID: shoe.ID.Hex(), Quantity: 1})
	require.NoError(t, err)
	_, err = svc.Add(ctx, user, models.CartItemInput{ProductID: sock.ID.Hex(), Quantity: 3})
	require.NoError(t, err)
	view, err := svc.Add(ctx, user, models.CartItemInput{ProductID: shoe.ID.Hex(), Quantity: 2})
	require.NoError(t, err)

	require.Len(t, view.Items, 2)
	assert.Equal(t, 3, view.Items[0].Quantity)
	assert.Equal(t, 90.0, view.Items[0].TotalPrice)
	assert.Equal(t, 7.5, view.Items[1].TotalPrice)
	assert.Equal(t, 97.5, view.CartTotal)
	require.NotNil(t, view.Items[0].Product)
	assert.Equal(t, "shoe", view.Items[0].Product.Name)
}

func TestAddRespectsStock(t *testing.T) {
	store := memrepo.New()
	svc := NewService(store.Carts(), store.Products())
	ctx := context.Background()
	user := primitive.NewObjectID()
	p := seedProduct(t, store, "rare", 10, 0, 2)

	_, err := svc.Add(ctx, user, models.CartItemInput{ProductID: p.ID.Hex(), Quantity: 2})
	require.NoError(t, err)

	_, err = svc.Add(ctx, user, models.CartItemInput{ProductID: p.ID.Hex(), Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Add(ctx, user, models.CartItemInput{ProductID: "nope", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Add(ctx, user, models.CartItemInput{ProductID: primitive.NewObjectID().Hex(), Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateRepricesFromCurrentPrice(t *testing.T) {
	store := memrepo.New()
	svc := NewService(store.Carts(), store.Products())
	ctx := context.Background()
	user := primitive.NewObjectID()
	p := seedProduct(t, store, "lamp", 10, 0, 10)

	_, err := svc.Add(ctx, user, models.CartItemInput{ProductID: p.ID.Hex(), Quantity: 1})
	require.NoError(t, err)

	price := 12.0
	_, err = store.Products().Update(ctx, p.ID, models.ProductChanges{Price: &price, DiscountedPrice: &price})
	require.NoError(t, err)

	view, err := svc.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 10.0, view.Items[0].TotalPrice, "reads keep the stored total")

	view, err = svc.Update(ctx, user, models.CartItemInput{ProductID: p.ID.Hex(), Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 24.0, view.Items[0].TotalPrice)

	other := seedProduct(t, store, "other", 1, 0, 1)
	_, err = svc.Update(ctx, user, models.CartItemInput{ProductID: other.ID.Hex(), Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRemoveAndClear(t *testing.T) {
	store := memrepo.New()
	svc := NewService(store.Carts(), store.Products())
	ctx := context.Background()
	user := primitive.NewObjectID()
	a := seedProduct(t, store, "a", 1, 0, 5)
	b := seedProduct(t, store, "b", 2, 0, 5)

	_, err := svc.Add(ctx, user, models.CartItemInput{ProductID: a.ID.Hex(), Quantity: 1})
	require.NoError(t, err)
	_, err = svc.Add(ctx, user, models.CartItemInput{ProductID: b.ID.Hex(), Quantity: 1})
	require.NoError(t, err)

	view, err := svc.Remove(ctx, user, a.ID.Hex())
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2.0, view.CartTotal)

	_, err = svc.Remove(ctx, user, a.ID.Hex())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, svc.Clear(ctx, user))
	view, err = svc.Get(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Zero(t, view.CartTotal)
}

func TestDeletedProductShowsWithoutProjection(t *testing.T) {
	store := memrepo.New()
	svc := NewService(store.Carts(), store.Products())
	ctx := context.Background()
	user := primitive.NewObjectID()
	p := seedProduct(t, store, "ghost", 3, 0, 5)

	_, err := svc.Add(ctx, user, models.CartItemInput{ProductID: p.ID.Hex(), Quantity: 1})
	require.NoError(t, err)

	deleted := true
	_, err = store.Products().Update(ctx, p.ID, models.ProductChanges{Deleted: &deleted})
	require.NoError(t, err)

	view, err := svc.Get(ctx, user)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Nil(t, view.Items[0].Product)
}

type unreachableProducts struct{ repository.ProductRepository }

func (unreachableProducts) GetByID(context.Context, primitive.ObjectID) (models.Product, error) {
	return models.Product{}, errors.New("get product: connection reset")
}

func TestAddPassesStoreFailuresThrough(t *testing.T) {
	store := memrepo.New()
	svc := NewService(store.Carts(), unreachableProducts{store.Products()})

	_, err := svc.Add(context.Background(), primitive.NewObjectID(), models.CartItemInput{ProductID: primitive.NewObjectID().Hex(), Quantity: 1})
	assert.ErrorContains(t, err, "connection reset")
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}
