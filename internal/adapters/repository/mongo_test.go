package repository_test

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/developia-II/storeblog-backend/internal/adapters/repository"
	"github.com/developia-II/storeblog-backend/internal/core/domain"
	"github.com/developia-II/storeblog-backend/internal/database"
	"github.com/developia-II/storeblog-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	mongoURI  string
	setupErr  error
	dbCounter int
	dbMu      sync.Mutex
)

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	container, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		setupErr = err
		os.Exit(m.Run())
	}
	mongoURI, setupErr = container.ConnectionString(ctx)

	code := m.Run()
	_ = testcontainers.TerminateContainer(container)
	os.Exit(code)
}

// freshDB returns an empty database with every index in place.
func freshDB(t *testing.T) *mongo.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MongoDB integration test in short mode")
	}
	if setupErr != nil {
		t.Skipf("MongoDB container unavailable: %v", setupErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	dbMu.Lock()
	dbCounter++
	name := fmt.Sprintf("storeblog_test_%d", dbCounter)
	dbMu.Unlock()

	db := client.Database(name)
	require.NoError(t, database.EnsureIndexes(ctx, db))
	t.Cleanup(func() { _ = db.Drop(context.Background()) })
	return db
}

func TestUserRepositoryUniqueness(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	users := repository.NewUserRepository(db)

	ana := &models.User{Username: "ana", Email: "ana@example.com", Role: models.RoleUser, IsActive: true}
	require.NoError(t, users.Create(ctx, ana))

	err := users.Create(ctx, &models.User{Username: "other", Email: "ana@example.com"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	err = users.Create(ctx, &models.User{Username: "ana", Email: "else@example.com"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := users.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, ana.ID, got.ID)

	_, err = users.GetByID(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	authors, err := users.FindAuthors(ctx, []primitive.ObjectID{ana.ID, primitive.NewObjectID()})
	require.NoError(t, err)
	require.Len(t, authors, 1)
	assert.Equal(t, "ana", authors[ana.ID].Username)
}

func TestUserRepositoryResetToken(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	users := repository.NewUserRepository(db)

	now := time.Now().UTC().Truncate(time.Millisecond)
	expires := now.Add(20 * time.Minute)
	u := &models.User{Username: "ben", Email: "ben@example.com", ResetPasswordToken: "hash", ResetPasswordExpires: &expires}
	require.NoError(t, users.Create(ctx, u))

	got, err := users.GetByResetToken(ctx, "hash", now)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = users.GetByResetToken(ctx, "hash", expires.Add(time.Second))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductRepositoryGuardedStock(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	products := repository.NewProductRepository(db)

	p := &models.Product{Name: "Shoe", Slug: "shoe", Price: 10, Quantity: 3, IsPublic: true, Status: models.ProductStatusActive}
	require.NoError(t, products.Create(ctx, p))

	ok, err := products.DecrementStock(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = products.DecrementStock(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok, "only one unit is left")

	require.NoError(t, products.IncrementStock(ctx, p.ID, 2))
	got, err := products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)

	err = products.Create(ctx, &models.Product{Name: "Shoe", Slug: "shoe"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestProductRepositoryConcurrentDecrementsNeverOversell(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	products := repository.NewProductRepository(db)

	p := &models.Product{Name: "Hat", Slug: "hat", Price: 5, Quantity: 5, IsPublic: true, Status: models.ProductStatusActive}
	require.NoError(t, products.Create(ctx, p))

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		taken int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := products.DecrementStock(ctx, p.ID, 1)
			if err == nil && ok {
				mu.Lock()
				taken++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, taken)
	got, err := products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)
}

func TestProductRepositoryUpdateSetsOnlyChangedFields(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	products := repository.NewProductRepository(db)

	p := &models.Product{Name: "Cap", Slug: "cap", Price: 8, Quantity: 10, IsPublic: true, Status: models.ProductStatusActive, ImageURLs: []string{"/uploads/products/a.png"}}
	require.NoError(t, products.Create(ctx, p))

	// Sold and liked after the admin loaded the product.
	ok, err := products.DecrementStock(ctx, p.ID, 4)
	require.NoError(t, err)
	require.True(t, ok)
	liker := primitive.NewObjectID()
	require.NoError(t, products.SetLike(ctx, p.ID, liker, true))

	hidden := false
	got, err := products.Update(ctx, p.ID, models.ProductChanges{
		IsPublic:     &hidden,
		AddImageURLs: []string{"/uploads/products/b.png"},
		UpdatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	})
	require.NoError(t, err)
	assert.Equal(t, 6, got.Quantity)
	assert.True(t, got.LikedByUser(liker))
	assert.False(t, got.IsPublic)
	assert.Equal(t, []string{"/uploads/products/a.png", "/uploads/products/b.png"}, got.ImageURLs)

	deleted := true
	got, err = products.Update(ctx, p.ID, models.ProductChanges{Deleted: &deleted, DeletedAt: time.Now().UTC()})
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
	require.NotNil(t, got.DeletedAt)

	deleted = false
	got, err = products.Update(ctx, p.ID, models.ProductChanges{Deleted: &deleted})
	require.NoError(t, err)
	assert.False(t, got.IsDeleted)
	assert.Nil(t, got.DeletedAt)

	other := &models.Product{Name: "Cap Two", Slug: "cap-two", Price: 8}
	require.NoError(t, products.Create(ctx, other))
	taken := "cap"
	_, err = products.Update(ctx, other.ID, models.ProductChanges{Slug: &taken})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = products.Update(ctx, primitive.NewObjectID(), models.ProductChanges{IsPublic: &hidden})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBlogRepositoryVersionedSave(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	blogs := repository.NewBlogRepository(db)

	b := &models.Blog{Title: "Hello", Slug: "hello", IsPublished: true}
	require.NoError(t, blogs.Create(ctx, b))

	first, err := blogs.GetByID(ctx, b.ID)
	require.NoError(t, err)
	second := first

	first.Comments = append(first.Comments, models.Comment{ID: primitive.NewObjectID(), Comment: "one"})
	require.NoError(t, blogs.Save(ctx, &first))

	second.Comments = append(second.Comments, models.Comment{ID: primitive.NewObjectID(), Comment: "two"})
	assert.ErrorIs(t, blogs.Save(ctx, &second), domain.ErrConflict)

	got, err := blogs.GetByID(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "one", got.Comments[0].Comment)
}

func TestCheckoutRepositoryTransition(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	orders := repository.NewCheckoutRepository(db)

	o := &models.Checkout{Slug: "ana-1", Email: "ana@example.com", TotalAmount: 20, OrderStatus: models.StatusPending}
	require.NoError(t, orders.Create(ctx, o))
	cancelled := &models.Checkout{Slug: "ana-2", Email: "ana@example.com", TotalAmount: 5, OrderStatus: models.StatusCancelled}
	require.NoError(t, orders.Create(ctx, cancelled))

	ok, err := orders.TransitionStatus(ctx, o.ID, models.StatusPending, models.StatusCancelled)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = orders.TransitionStatus(ctx, o.ID, models.StatusPending, models.StatusCancelled)
	require.NoError(t, err)
	assert.False(t, ok, "the order already left Pending")

	revenue, err := orders.Revenue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, revenue)

	mine, err := orders.ListByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestCartRepositoryUpsert(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	carts := repository.NewCartRepository(db)
	user := primitive.NewObjectID()

	c, err := carts.Get(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, c.Items)

	c.Items = append(c.Items, models.CartItem{ProductID: primitive.NewObjectID(), Quantity: 2, TotalPrice: 20})
	require.NoError(t, carts.Save(ctx, &c))
	require.NoError(t, carts.Save(ctx, &c))

	got, err := carts.Get(ctx, user)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)

	require.NoError(t, carts.Clear(ctx, user))
	got, err = carts.Get(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}
