package memrepo

import (
	"context"
	"sort"
	"time"

	"github.com/developia-II/storeblog-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type blogRepo struct{ s *Store }

func (r *blogRepo) Create(_ context.Context, blog *models.Blog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&blog.ID)
	for _, other := range r.s.blogs {
		if other.Slug == blog.Slug {
			return conflict("create blog")
		}
	}
	if blog.Comments == nil {
		blog.Comments = []models.Comment{}
	}
	if blog.Reviews == nil {
		blog.Reviews = []models.Review{}
	}
	blog.Version = 1
	r.s.blogs[blog.ID] = clone(*blog)
	return nil
}

func (r *blogRepo) GetByID(_ context.Context, id primitive.ObjectID) (models.Blog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	blog, ok := r.s.blogs[id]
	if !ok {
		return models.Blog{}, notFound("get blog")
	}
	return clone(blog), nil
}

func (r *blogRepo) Save(_ context.Context, blog *models.Blog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.blogs[blog.ID]
	if !ok {
		return notFound("save blog")
	}
	if stored.Version != blog.Version {
		return conflict("save blog")
	}
	for id, other := range r.s.blogs {
		if id != blog.ID && other.Slug == blog.Slug {
			return conflict("save blog")
		}
	}
	blog.Version++
	r.s.blogs[blog.ID] = clone(*blog)
	return nil
}

func (r *blogRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.blogs[id]; !ok {
		return notFound("delete blog")
	}
	delete(r.s.blogs, id)
	return nil
}

func (r *blogRepo) List(_ context.Context, f models.BlogFilter, page models.Page) ([]models.Blog, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := values(r.s.blogs, func(b models.Blog) bool {
		if f.PublishedOnly && !b.IsPublished {
			return false
		}
		if f.TagID != nil {
			for _, t := range b.Tags {
				if t == *f.TagID {
					return true
				}
			}
			return false
		}
		return true
	})
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID.Hex() > all[j].ID.Hex()
	})
	return paginate(all, page), int64(len(all)), nil
}

func (r *blogRepo) SlugExists(_ context.Context, slug string, exclude primitive.ObjectID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, b := range r.s.blogs {
		if id != exclude && b.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *blogRepo) PullTag(_ context.Context, tagID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, b := range r.s.blogs {
		kept := []primitive.ObjectID{}
		changed := false
		for _, t := range b.Tags {
			if t == tagID {
				changed = true
				continue
			}
			kept = append(kept, t)
		}
		if changed {
			b.Tags = kept
			b.Version++
			b.UpdatedAt = time.Now()
			r.s.blogs[id] = clone(b)
		}
	}
	return nil
}
