package database

import (
	"testing"

	"github.com/developia-II/storeblog-backend/internal/adapters/repository"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func uniqueKeys(coll string) []string {
	var keys []string
	for _, m := range Indexes[coll] {
		if m.Options == nil || m.Options.Unique == nil || !*m.Options.Unique {
			continue
		}
		for _, e := range m.Keys.(bson.D) {
			keys = append(keys, e.Key)
		}
	}
	return keys
}

func TestUniqueIndexesBackConflicts(t *testing.T) {
	assert.ElementsMatch(t, []string{"email", "username"}, uniqueKeys(repository.UsersCollection))
	assert.Equal(t, []string{"name"}, uniqueKeys(repository.TagsCollection))
	assert.Equal(t, []string{"user"}, uniqueKeys(repository.CartsCollection))

	for _, coll := range []string{
		repository.CategoriesCollection,
		repository.SubcategoriesCollection,
		repository.ProductsCollection,
		repository.CheckoutsCollection,
		repository.BlogsCollection,
	} {
		assert.Equal(t, []string{"slug"}, uniqueKeys(coll), coll)
	}
}

func TestIndexNamesAreUniquePerCollection(t *testing.T) {
	for coll, models := range Indexes {
		seen := map[string]bool{}
		for _, m := range models {
			name := *m.Options.Name
			assert.False(t, seen[name], "%s: duplicate index name %s", coll, name)
			seen[name] = true
		}
	}
}
