package database

import (
	"context"
	"fmt"

	"github.com/developia-II/storeblog-backend/internal/adapters/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func unique(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name).SetUnique(true)}
}

func plain(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name)}
}

// Indexes lists every index the repositories rely on, by collection. The
// unique ones back the conflict errors the services surface.
var Indexes = map[string][]mongo.IndexModel{
	repository.UsersCollection: {
		unique("idx_email", bson.D{{Key: "email", Value: 1}}),
		unique("idx_username", bson.D{{Key: "username", Value: 1}}),
		plain("idx_reset_token", bson.D{{Key: "resetPasswordToken", Value: 1}}),
	},
	repository.TagsCollection: {
		unique("idx_name", bson.D{{Key: "name", Value: 1}}),
	},
	repository.CategoriesCollection: {
		unique("idx_slug", bson.D{{Key: "slug", Value: 1}}),
	},
	repository.SubcategoriesCollection: {
		unique("idx_slug", bson.D{{Key: "slug", Value: 1}}),
		plain("idx_category", bson.D{{Key: "category", Value: 1}, {Key: "isDeleted", Value: 1}}),
	},
	repository.ProductsCollection: {
		unique("idx_slug", bson.D{{Key: "slug", Value: 1}}),
		plain("idx_listing", bson.D{{Key: "isDeleted", Value: 1}, {Key: "createdAt", Value: -1}}),
		plain("idx_category", bson.D{{Key: "category", Value: 1}, {Key: "subCategory", Value: 1}}),
		plain("idx_liked_by", bson.D{{Key: "likedBy", Value: 1}}),
	},
	repository.CartsCollection: {
		unique("idx_user", bson.D{{Key: "user", Value: 1}}),
	},
	repository.CheckoutsCollection: {
		unique("idx_slug", bson.D{{Key: "slug", Value: 1}}),
		plain("idx_email_date", bson.D{{Key: "email", Value: 1}, {Key: "createdAt", Value: -1}}),
		plain("idx_date", bson.D{{Key: "createdAt", Value: -1}}),
	},
	repository.BlogsCollection: {
		unique("idx_slug", bson.D{{Key: "slug", Value: 1}}),
		plain("idx_published_date", bson.D{{Key: "isPublished", Value: 1}, {Key: "createdAt", Value: -1}}),
		plain("idx_tags", bson.D{{Key: "tags", Value: 1}}),
	},
}

// EnsureIndexes creates any missing index. Creating an index that already
// exists with the same definition is a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for coll, models := range Indexes {
		names, err := db.Collection(coll).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
		logrus.WithFields(logrus.Fields{
			"collection": coll,
			"indexes":    names,
		}).Debug("Indexes ensured")
	}
	return nil
}
