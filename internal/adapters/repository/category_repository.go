package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/developia-II/storeblog-backend/internal/core/domain"
	"github.com/developia-II/storeblog-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	List(ctx context.Context, includeDeleted bool) ([]models.Category, error)
	SlugExists(ctx context.Context, slug string, exclude primitive.ObjectID) (bool, error)
	// AddSubcategory and RemoveSubcategory keep the category side of the
	// category/subcategory link in sync.
	AddSubcategory(ctx context.Context, categoryID, subcategoryID primitive.ObjectID) error
	RemoveSubcategory(ctx context.Context, categoryID, subcategoryID primitive.ObjectID) error
}

type MongoCategoryRepository struct {
	DB *mongo.Database
}

func NewCategoryRepository(db *mongo.Database) CategoryRepository {
	return &MongoCategoryRepository{DB: db}
}

func (r *MongoCategoryRepository) coll() *mongo.Collection {
	return r.DB.Collection(CategoriesCollection)
}

func (r *MongoCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if category.ID.IsZero() {
		category.ID = primitive.NewObjectID()
	}
	if category.SubCategories == nil {
		category.SubCategories = []primitive.ObjectID{}
	}
	_, err := r.coll().InsertOne(ctx, category)
	return translate(err, "create category")
}

func (r *MongoCategoryRepository) GetByID(ctx context.Context, id primitive.ObjectID) (models.Category, error) {
	return findOne[models.Category](ctx, r.coll(), bson.M{"_id": id}, "get category")
}

func (r *MongoCategoryRepository) Update(ctx context.Context, category *models.Category) error {
	return replaceByID(ctx, r.coll(), category.ID, category, "update category")
}

func (r *MongoCategoryRepository) List(ctx context.Context, includeDeleted bool) ([]models.Category, error) {
	filter := bson.M{}
	if !includeDeleted {
		filter["isDeleted"] = false
	}
	categories, err := findAll[models.Category](ctx, r.coll(), filter, options.Find().SetSort(bson.M{"name": 1}))
	return categories, translate(err, "list categories")
}

func (r *MongoCategoryRepository) SlugExists(ctx context.Context, slug string, exclude primitive.ObjectID) (bool, error) {
	return slugTaken(ctx, r.coll(), slug, exclude)
}

func (r *MongoCategoryRepository) AddSubcategory(ctx context.Context, categoryID, subcategoryID primitive.ObjectID) error {
	return r.updateLinks(ctx, categoryID, bson.M{
		"$addToSet": bson.M{"subCategories": subcategoryID},
		"$set":      bson.M{"updatedAt": time.Now()},
	})
}

func (r *MongoCategoryRepository) RemoveSubcategory(ctx context.Context, categoryID, subcategoryID primitive.ObjectID) error {
	return r.updateLinks(ctx, categoryID, bson.M{
		"$pull": bson.M{"subCategories": subcategoryID},
		"$set":  bson.M{"updatedAt": time.Now()},
	})
}

func (r *MongoCategoryRepository) updateLinks(ctx context.Context, categoryID primitive.ObjectID, update bson.M) error {
	res, err := r.coll().UpdateOne(ctx, bson.M{"_id": categoryID}, update)
	if err != nil {
		return translate(err, "update category links")
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update category links: %w", domain.ErrNotFound)
	}
	return nil
}
