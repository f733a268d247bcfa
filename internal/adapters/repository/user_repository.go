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

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	// GetByResetToken finds the user holding an unexpired reset token hash.
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context) ([]models.User, error)
	FindAuthors(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Author, error)
	CountByRole(ctx context.Context, role models.Role) (int64, error)
}

type MongoUserRepository struct {
	DB *mongo.Database
}

func NewUserRepository(db *mongo.Database) UserRepository {
	return &MongoUserRepository{DB: db}
}

func (r *MongoUserRepository) coll() *mongo.Collection {
	return r.DB.Collection(UsersCollection)
}

func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	_, err := r.coll().InsertOne(ctx, user)
	return translate(err, "create user")
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return findOne[models.User](ctx, r.coll(), bson.M{"_id": id}, "get user")
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return findOne[models.User](ctx, r.coll(), bson.M{"email": email}, "get user by email")
}

func (r *MongoUserRepository) GetByUsername(ctx context.Context, username string) (models.User, error) {
	return findOne[models.User](ctx, r.coll(), bson.M{"username": username}, "get user by username")
}

func (r *MongoUserRepository) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (models.User, error) {
	filter := bson.M{
		"resetPasswordToken":   tokenHash,
		"resetPasswordExpires": bson.M{"$gt": now},
	}
	return findOne[models.User](ctx, r.coll(), filter, "get user by reset token")
}

func (r *MongoUserRepository) Update(ctx context.Context, user *models.User) error {
	return replaceByID(ctx, r.coll(), user.ID, user, "update user")
}

func (r *MongoUserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.coll().DeleteOne(ctx, bson.M{"_id": id})
	return translate(err, "delete user")
}

func (r *MongoUserRepository) List(ctx context.Context) ([]models.User, error) {
	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetProjection(bson.M{"password": 0, "otp": 0, "resetPasswordToken": 0})
	users, err := findAll[models.User](ctx, r.coll(), bson.M{}, opts)
	return users, translate(err, "list users")
}

// FindAuthors resolves many user ids in one round trip.
func (r *MongoUserRepository) FindAuthors(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Author, error) {
	out := make(map[primitive.ObjectID]models.Author, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	opts := options.Find().SetProjection(bson.M{"username": 1, "profileImage": 1, "email": 1})
	authors, err := findAll[models.Author](ctx, r.coll(), bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, translate(err, "find authors")
	}
	for _, a := range authors {
		out[a.ID] = a
	}
	return out, nil
}

func (r *MongoUserRepository) CountByRole(ctx context.Context, role models.Role) (int64, error) {
	n, err := r.coll().CountDocuments(ctx, bson.M{"role": role})
	return n, translate(err, "count users")
}
