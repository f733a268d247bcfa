// Package memrepo implements the repository interfaces in memory. Documents
// round-trip through BSON on every read and write, so callers observe the
// same copy semantics and time precision as the MongoDB adapters.
package memrepo

import (
	"fmt"
	"sort"
	"sync"

	"github.com/developia-II/storeblog-backend/internal/adapters/repository"
	"github.com/developia-II/storeblog-backend/internal/core/domain"
	"github.com/developia-II/storeblog-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store struct {
	mu sync.Mutex

	users         map[primitive.ObjectID]models.User
	tags          map[primitive.ObjectID]models.Tag
	categories    map[primitive.ObjectID]models.Category
	subcategories map[primitive.ObjectID]models.Subcategory
	products      map[primitive.ObjectID]models.Product
	carts         map[primitive.ObjectID]models.Cart
	checkouts     map[primitive.ObjectID]models.Checkout
	blogs         map[primitive.ObjectID]models.Blog
}

func New() *Store {
	return &Store{
		users:         map[primitive.ObjectID]models.User{},
		tags:          map[primitive.ObjectID]models.Tag{},
		categories:    map[primitive.ObjectID]models.Category{},
		subcategories: map[primitive.ObjectID]models.Subcategory{},
		products:      map[primitive.ObjectID]models.Product{},
		carts:         map[primitive.ObjectID]models.Cart{},
		checkouts:     map[primitive.ObjectID]models.Checkout{},
		blogs:         map[primitive.ObjectID]models.Blog{},
	}
}

func (s *Store) Users() repository.UserRepository { return &userRepo{s} }

func (s *Store) Tags() repository.TagRepository { return &tagRepo{s} }

func (s *Store) Categories() repository.CategoryRepository { return &categoryRepo{s} }

func (s *Store) Subcategories() repository.SubcategoryRepository { return &subcategoryRepo{s} }

func (s *Store) Products() repository.ProductRepository { return &productRepo{s} }

func (s *Store) Carts() repository.CartRepository { return &cartRepo{s} }

func (s *Store) Checkouts() repository.CheckoutRepository { return &checkoutRepo{s} }

func (s *Store) Blogs() repository.BlogRepository { return &blogRepo{s} }

func clone[T any](v T) T {
	raw, err := bson.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("memrepo: marshal %T: %v", v, err))
	}
	var out T
	if err := bson.Unmarshal(raw, &out); err != nil {
		panic(fmt.Sprintf("memrepo: unmarshal %T: %v", v, err))
	}
	return out
}

func notFound(op string) error {
	return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
}

func conflict(op string) error {
	return fmt.Errorf("%s: %w", op, domain.ErrConflict)
}

func ensureID(id *primitive.ObjectID) {
	if id.IsZero() {
		*id = primitive.NewObjectID()
	}
}

// values returns clones of every map value accepted by keep, in insertion
// order approximated by ObjectID order.
func values[T any](m map[primitive.ObjectID]T, keep func(T) bool) []T {
	ids := make([]primitive.ObjectID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Hex() < ids[j].Hex() })

	out := []T{}
	for _, id := range ids {
		v := m[id]
		if keep == nil || keep(v) {
			out = append(out, clone(v))
		}
	}
	return out
}

func paginate[T any](items []T, page models.Page) []T {
	start := int(page.Skip())
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
