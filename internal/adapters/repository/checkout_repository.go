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

type CheckoutRepository interface {
	Create(ctx context.Context, order *models.Checkout) error
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Checkout, error)
	List(ctx context.Context) ([]models.Checkout, error)
	ListByEmail(ctx context.Context, email string) ([]models.Checkout, error)
	// TransitionStatus moves an order from one status to another and reports
	// false if the order was no longer in the expected status.
	TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) (bool, error)
	SlugExists(ctx context.Context, slug string, exclude primitive.ObjectID) (bool, error)
	Count(ctx context.Context) (int64, error)
	Revenue(ctx context.Context) (float64, error)
	Recent(ctx context.Context, n int) ([]models.Checkout, error)
}

type MongoCheckoutRepository struct {
	DB *mongo.Database
}

func NewCheckoutRepository(db *mongo.Database) CheckoutRepository {
	return &MongoCheckoutRepository{DB: db}
}

func (r *MongoCheckoutRepository) coll() *mongo.Collection {
	return r.DB.Collection(CheckoutsCollection)
}

func (r *MongoCheckoutRepository) Create(ctx context.Context, order *models.Checkout) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	_, err := r.coll().InsertOne(ctx, order)
	return translate(err, "create checkout")
}

func (r *MongoCheckoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (models.Checkout, error) {
	return findOne[models.Checkout](ctx, r.coll(), bson.M{"_id": id}, "get checkout")
}

func (r *MongoCheckoutRepository) List(ctx context.Context) ([]models.Checkout, error) {
	orders, err := findAll[models.Checkout](ctx, r.coll(), bson.M{}, options.Find().SetSort(bson.M{"createdAt": -1}))
	return orders, translate(err, "list checkouts")
}

func (r *MongoCheckoutRepository) ListByEmail(ctx context.Context, email string) ([]models.Checkout, error) {
	orders, err := findAll[models.Checkout](ctx, r.coll(), bson.M{"email": email}, options.Find().SetSort(bson.M{"createdAt": -1}))
	return orders, translate(err, "list checkouts by email")
}

func (r *MongoCheckoutRepository) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) (bool, error) {
	res, err := r.coll().UpdateOne(ctx,
		bson.M{"_id": id, "orderStatus": from},
		bson.M{"$set": bson.M{"orderStatus": to, "updatedAt": time.Now()}})
	if err != nil {
		return false, translate(err, "transition checkout status")
	}
	return res.ModifiedCount == 1, nil
}

func (r *MongoCheckoutRepository) SlugExists(ctx context.Context, slug string, exclude primitive.ObjectID) (bool, error) {
	return slugTaken(ctx, r.coll(), slug, exclude)
}

func (r *MongoCheckoutRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll().CountDocuments(ctx, bson.M{})
	return n, translate(err, "count checkouts")
}

// Revenue sums totalAmount over every order that was not cancelled.
func (r *MongoCheckoutRepository) Revenue(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"orderStatus": bson.M{"$ne": models.StatusCancelled}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$totalAmount"},
		}}},
	}

	cursor, err := r.coll().Aggregate(ctx, pipeline)
	if err != nil {
		return 0, translate(err, "sum revenue")
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, translate(err, "sum revenue")
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}

func (r *MongoCheckoutRepository) Recent(ctx context.Context, n int) ([]models.Checkout, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1}).SetLimit(int64(n))
	orders, err := findAll[models.Checkout](ctx, r.coll(), bson.M{}, opts)
	return orders, translate(err, "recent checkouts")
}
