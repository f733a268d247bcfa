package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/developia-II/storeblog-backend/internal/core/domain"
	"github.com/developia-II/storeblog-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Product, error)
	// Update applies only the fields set in changes and returns the stored
	// document afterwards.
	Update(ctx context.Context, id primitive.ObjectID, changes models.ProductChanges) (models.Product, error)
	List(ctx context.Context, filter models.ProductFilter, page models.Page) ([]models.Product, int64, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
	SlugExists(ctx context.Context, slug string, exclude primitive.ObjectID) (bool, error)
	// DecrementStock takes qty units only if at least qty are available.
	// It reports false, without error, when stock is insufficient.
	DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) (bool, error)
	IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error
	SetLike(ctx context.Context, productID, userID primitive.ObjectID, liked bool) error
	ListLikedBy(ctx context.Context, userID primitive.ObjectID) ([]models.Product, error)
	Count(ctx context.Context) (int64, error)
}

type MongoProductRepository struct {
	DB *mongo.Database
}

func NewProductRepository(db *mongo.Database) ProductRepository {
	return &MongoProductRepository{DB: db}
}

func (r *MongoProductRepository) coll() *mongo.Collection {
	return r.DB.Collection(ProductsCollection)
}

func (r *MongoProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	if product.LikedBy == nil {
		product.LikedBy = []primitive.ObjectID{}
	}
	_, err := r.coll().InsertOne(ctx, product)
	return translate(err, "create product")
}

func (r *MongoProductRepository) GetByID(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	return findOne[models.Product](ctx, r.coll(), bson.M{"_id": id}, "get product")
}

func productUpdate(c models.ProductChanges) bson.M {
	set := bson.M{"updatedAt": c.UpdatedAt}
	fields := []struct {
		key string
		val any
		ok  bool
	}{
		{"name", c.Name, c.Name != nil},
		{"heading", c.Heading, c.Heading != nil},
		{"description", c.Description, c.Description != nil},
		{"slug", c.Slug, c.Slug != nil},
		{"price", c.Price, c.Price != nil},
		{"discount", c.Discount, c.Discount != nil},
		{"discountedPrice", c.DiscountedPrice, c.DiscountedPrice != nil},
		{"category", c.CategoryID, c.CategoryID != nil},
		{"subCategory", c.SubCategoryID, c.SubCategoryID != nil},
		{"quantity", c.Quantity, c.Quantity != nil},
		{"isPublic", c.IsPublic, c.IsPublic != nil},
		{"status", c.Status, c.Status != nil},
		{"isDeleted", c.Deleted, c.Deleted != nil},
	}
	for _, f := range fields {
		if f.ok {
			set[f.key] = f.val
		}
	}

	update := bson.M{"$set": set}
	if c.Deleted != nil {
		if *c.Deleted {
			set["deletedAt"] = c.DeletedAt
		} else {
			update["$unset"] = bson.M{"deletedAt": ""}
		}
	}
	if len(c.AddImageURLs) > 0 {
		update["$push"] = bson.M{"imageUrls": bson.M{"$each": c.AddImageURLs}}
	}
	return update
}

func (r *MongoProductRepository) Update(ctx context.Context, id primitive.ObjectID, changes models.ProductChanges) (models.Product, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p models.Product
	err := r.coll().FindOneAndUpdate(ctx, bson.M{"_id": id}, productUpdate(changes), opts).Decode(&p)
	if err != nil {
		return models.Product{}, translate(err, "update product")
	}
	return p, nil
}

func productQuery(f models.ProductFilter) bson.M {
	filter := bson.M{"isDeleted": f.Deleted}
	if f.PublicOnly {
		filter["isPublic"] = true
		filter["status"] = models.ProductStatusActive
	} else if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.CategoryID != nil {
		filter["category"] = *f.CategoryID
	}
	if f.SubCategoryID != nil {
		filter["subCategory"] = *f.SubCategoryID
	}

	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}

	if f.Name != "" {
		filter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Name), Options: "i"}
	}
	if f.OutOfStock {
		filter["quantity"] = bson.M{"$lte": 1}
	}
	return filter
}

func (r *MongoProductRepository) List(ctx context.Context, f models.ProductFilter, page models.Page) ([]models.Product, int64, error) {
	filter := productQuery(f)
	opts := options.Find().
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit)).
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})

	products, err := findAll[models.Product](ctx, r.coll(), filter, opts)
	if err != nil {
		return nil, 0, translate(err, "list products")
	}

	total, err := r.coll().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, translate(err, "count products")
	}
	return products, total, nil
}

func (r *MongoProductRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	out := make(map[primitive.ObjectID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	products, err := findAll[models.Product](ctx, r.coll(), bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, translate(err, "find products")
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (r *MongoProductRepository) SlugExists(ctx context.Context, slug string, exclude primitive.ObjectID) (bool, error) {
	return slugTaken(ctx, r.coll(), slug, exclude)
}

func (r *MongoProductRepository) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) (bool, error) {
	// Atomic update with stock check
	filter := bson.M{
		"_id":       id,
		"isDeleted": false,
		"quantity":  bson.M{"$gte": qty},
	}
	update := bson.M{
		"$inc": bson.M{"quantity": -qty},
		"$set": bson.M{"updatedAt": time.Now()},
	}

	res, err := r.coll().UpdateOne(ctx, filter, update)
	if err != nil {
		return false, translate(err, "decrement stock")
	}
	return res.ModifiedCount == 1, nil
}

func (r *MongoProductRepository) IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	res, err := r.coll().UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"quantity": qty},
			"$set": bson.M{"updatedAt": time.Now()},
		})
	if err != nil {
		return translate(err, "increment stock")
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("increment stock: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *MongoProductRepository) SetLike(ctx context.Context, productID, userID primitive.ObjectID, liked bool) error {
	op := "$pull"
	if liked {
		op = "$addToSet"
	}
	res, err := r.coll().UpdateOne(ctx,
		bson.M{"_id": productID, "isDeleted": false},
		bson.M{op: bson.M{"likedBy": userID}})
	if err != nil {
		return translate(err, "set like")
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("set like: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *MongoProductRepository) ListLikedBy(ctx context.Context, userID primitive.ObjectID) ([]models.Product, error) {
	filter := bson.M{"likedBy": userID, "isDeleted": false}
	products, err := findAll[models.Product](ctx, r.coll(), filter, options.Find().SetSort(bson.M{"createdAt": -1}))
	return products, translate(err, "list liked products")
}

func (r *MongoProductRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll().CountDocuments(ctx, bson.M{"isDeleted": false})
	return n, translate(err, "count products")
}
