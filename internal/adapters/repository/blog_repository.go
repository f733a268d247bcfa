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

type BlogRepository interface {
	Create(ctx context.Context, blog *models.Blog) error
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Blog, error)
	// Save replaces the whole document if its version is unchanged since it
	// was read, and bumps the version. A concurrent save makes it fail with
	// domain.ErrConflict.
	Save(ctx context.Context, blog *models.Blog) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, filter models.BlogFilter, page models.Page) ([]models.Blog, int64, error)
	SlugExists(ctx context.Context, slug string, exclude primitive.ObjectID) (bool, error)
	// PullTag removes a tag reference from every blog.
	PullTag(ctx context.Context, tagID primitive.ObjectID) error
}

// MongoBlogRepository stores a blog and its comment, reply and review trees
// as a single document.
type MongoBlogRepository struct {
	collection *mongo.Collection
}

func NewBlogRepository(db *mongo.Database) BlogRepository {
	return &MongoBlogRepository{collection: db.Collection(BlogsCollection)}
}

func (r *MongoBlogRepository) Create(ctx context.Context, blog *models.Blog) error {
	if blog.ID.IsZero() {
		blog.ID = primitive.NewObjectID()
	}
	if blog.Comments == nil {
		blog.Comments = []models.Comment{}
	}
	if blog.Reviews == nil {
		blog.Reviews = []models.Review{}
	}
	blog.Version = 1

	_, err := r.collection.InsertOne(ctx, blog)
	return translate(err, "create blog")
}

func (r *MongoBlogRepository) GetByID(ctx context.Context, id primitive.ObjectID) (models.Blog, error) {
	return findOne[models.Blog](ctx, r.collection, bson.M{"_id": id}, "get blog")
}

func (r *MongoBlogRepository) Save(ctx context.Context, blog *models.Blog) error {
	expected := blog.Version
	blog.Version = expected + 1

	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": blog.ID, "version": expected}, blog)
	if err != nil {
		blog.Version = expected
		return translate(err, "save blog")
	}
	if res.MatchedCount == 0 {
		blog.Version = expected
		// Distinguish a deleted blog from a concurrent writer.
		n, err := r.collection.CountDocuments(ctx, bson.M{"_id": blog.ID})
		if err != nil {
			return translate(err, "save blog")
		}
		if n == 0 {
			return fmt.Errorf("save blog: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("save blog: %w", domain.ErrConflict)
	}
	return nil
}

func (r *MongoBlogRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err, "delete blog")
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete blog: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *MongoBlogRepository) List(ctx context.Context, f models.BlogFilter, page models.Page) ([]models.Blog, int64, error) {
	filter := bson.M{}
	if f.PublishedOnly {
		filter["isPublished"] = true
	}
	if f.TagID != nil {
		filter["tags"] = *f.TagID
	}

	opts := options.Find().
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit)).
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})

	blogs, err := findAll[models.Blog](ctx, r.collection, filter, opts)
	if err != nil {
		return nil, 0, translate(err, "list blogs")
	}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, translate(err, "count blogs")
	}
	return blogs, total, nil
}

func (r *MongoBlogRepository) SlugExists(ctx context.Context, slug string, exclude primitive.ObjectID) (bool, error) {
	return slugTaken(ctx, r.collection, slug, exclude)
}

func (r *MongoBlogRepository) PullTag(ctx context.Context, tagID primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"tags": tagID},
		bson.M{
			"$pull": bson.M{"tags": tagID},
			"$inc":  bson.M{"version": 1},
			"$set":  bson.M{"updatedAt": time.Now()},
		})
	return translate(err, "pull tag")
}
