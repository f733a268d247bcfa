package repository

import (
	"context"
	"time"

	"github.com/developia-II/storeblog-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SubcategoryRepository interface {
	Create(ctx context.Context, sub *models.Subcategory) error
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Subcategory, error)
	Update(ctx context.Context, sub *models.Subcategory) error
	List(ctx context.Context, includeDeleted bool) ([]models.Subcategory, error)
	ListByCategory(ctx context.Context, categoryID primitive.ObjectID, includeDeleted bool) ([]models.Subcategory, error)
	SlugExists(ctx context.Context, slug string, exclude primitive.ObjectID) (bool, error)
	// SoftDeleteByCategory marks every live subcategory of a category deleted at the given instant.
	SoftDeleteByCategory(ctx context.Context, categoryID primitive.ObjectID, at time.Time) error
	// RestoreByCategory undoes SoftDeleteByCategory for the subcategories deleted at that instant.
	RestoreByCategory(ctx context.Context, categoryID primitive.ObjectID, deletedAt time.Time) error
}

type MongoSubcategoryRepository struct {
	DB *mongo.Database
}

func NewSubcategoryRepository(db *mongo.Database) SubcategoryRepository {
	return &MongoSubcategoryRepository{DB: db}
}

func (r *MongoSubcategoryRepository) coll() *mongo.Collection {
	return r.DB.Collection(SubcategoriesCollection)
}

func (r *MongoSubcategoryRepository) Create(ctx context.Context, sub *models.Subcategory) error {
	if sub.ID.IsZero() {
		sub.ID = primitive.NewObjectID()
	}
	_, err := r.coll().InsertOne(ctx, sub)
	return translate(err, "create subcategory")
}

func (r *MongoSubcategoryRepository) GetByID(ctx context.Context, id primitive.ObjectID) (models.Subcategory, error) {
	return findOne[models.Subcategory](ctx, r.coll(), bson.M{"_id": id}, "get subcategory")
}

func (r *MongoSubcategoryRepository) Update(ctx context.Context, sub *models.Subcategory) error {
	return replaceByID(ctx, r.coll(), sub.ID, sub, "update subcategory")
}

func (r *MongoSubcategoryRepository) List(ctx context.Context, includeDeleted bool) ([]models.Subcategory, error) {
	filter := bson.M{}
	if !includeDeleted {
		filter["isDeleted"] = false
	}
	subs, err := findAll[models.Subcategory](ctx, r.coll(), filter, options.Find().SetSort(bson.M{"name": 1}))
	return subs, translate(err, "list subcategories")
}

func (r *MongoSubcategoryRepository) ListByCategory(ctx context.Context, categoryID primitive.ObjectID, includeDeleted bool) ([]models.Subcategory, error) {
	filter := bson.M{"category": categoryID}
	if !includeDeleted {
		filter["isDeleted"] = false
	}
	subs, err := findAll[models.Subcategory](ctx, r.coll(), filter, options.Find().SetSort(bson.M{"name": 1}))
	return subs, translate(err, "list subcategories by category")
}

func (r *MongoSubcategoryRepository) SlugExists(ctx context.Context, slug string, exclude primitive.ObjectID) (bool, error) {
	return slugTaken(ctx, r.coll(), slug, exclude)
}

func (r *MongoSubcategoryRepository) SoftDeleteByCategory(ctx context.Context, categoryID primitive.ObjectID, at time.Time) error {
	_, err := r.coll().UpdateMany(ctx,
		bson.M{"category": categoryID, "isDeleted": false},
		bson.M{"$set": bson.M{"isDeleted": true, "deletedAt": at, "updatedAt": at}})
	return translate(err, "soft delete subcategories")
}

func (r *MongoSubcategoryRepository) RestoreByCategory(ctx context.Context, categoryID primitive.ObjectID, deletedAt time.Time) error {
	_, err := r.coll().UpdateMany(ctx,
		bson.M{"category": categoryID, "isDeleted": true, "deletedAt": deletedAt},
		bson.M{
			"$set":   bson.M{"isDeleted": false, "updatedAt": time.Now()},
			"$unset": bson.M{"deletedAt": ""},
		})
	return translate(err, "restore subcategories")
}
