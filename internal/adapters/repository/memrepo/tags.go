package memrepo

import (
	"context"
	"sort"

	"github.com/developia-II/storeblog-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type tagRepo struct{ s *Store }

func (r *tagRepo) Create(_ context.Context, tag *models.Tag) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tags {
		if t.Name == tag.Name {
			return conflict("create tag")
		}
	}
	ensureID(&tag.ID)
	r.s.tags[tag.ID] = clone(*tag)
	return nil
}

func (r *tagRepo) GetByName(_ context.Context, name string) (models.Tag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tags {
		if t.Name == name {
			return clone(t), nil
		}
	}
	return models.Tag{}, notFound("get tag")
}

func (r *tagRepo) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Tag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return values(r.s.tags, func(t models.Tag) bool { return want[t.ID] }), nil
}

func (r *tagRepo) List(_ context.Context) ([]models.Tag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tags := values(r.s.tags, nil)
	sort.SliceStable(tags, func(i, j int) bool { return tags[i].Name > tags[j].Name })
	return tags, nil
}

func (r *tagRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tags[id]; !ok {
		return notFound("delete tag")
	}
	delete(r.s.tags, id)
	return nil
}
