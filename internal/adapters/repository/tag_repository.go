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

type TagRepository interface {
	Create(ctx context.Context, tag *models.Tag) error
	GetByName(ctx context.Context, name string) (models.Tag, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Tag, error)
	// List returns every tag sorted by name, descending.
	List(ctx context.Context) ([]models.Tag, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type MongoTagRepository struct {
	DB *mongo.Database
}

func NewTagRepository(db *mongo.Database) TagRepository {
	return &MongoTagRepository{DB: db}
}

func (r *MongoTagRepository) coll() *mongo.Collection {
	return r.DB.Collection(TagsCollection)
}

func (r *MongoTagRepository) Create(ctx context.Context, tag *models.Tag) error {
	if tag.ID.IsZero() {
		tag.ID = primitive.NewObjectID()
	}
	if tag.CreatedAt.IsZero() {
		tag.CreatedAt = time.Now()
	}
	_, err := r.coll().InsertOne(ctx, tag)
	return translate(err, "create tag")
}

func (r *MongoTagRepository) GetByName(ctx context.Context, name string) (models.Tag, error) {
	return findOne[models.Tag](ctx, r.coll(), bson.M{"name": name}, "get tag")
}

func (r *MongoTagRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Tag, error) {
	if len(ids) == 0 {
		return []models.Tag{}, nil
	}
	tags, err := findAll[models.Tag](ctx, r.coll(), bson.M{"_id": bson.M{"$in": ids}})
	return tags, translate(err, "find tags")
}

func (r *MongoTagRepository) List(ctx context.Context) ([]models.Tag, error) {
	tags, err := findAll[models.Tag](ctx, r.coll(), bson.M{}, options.Find().SetSort(bson.M{"name": -1}))
	return tags, translate(err, "list tags")
}

func (r *MongoTagRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err, "delete tag")
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete tag: %w", domain.ErrNotFound)
	}
	return nil
}
