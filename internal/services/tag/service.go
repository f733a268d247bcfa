package tag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/developia-II/storeblog-backend/internal/adapters/repository"
	"github.com/developia-II/storeblog-backend/internal/core/domain"
	"github.com/developia-II/storeblog-backend/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Service struct {
	tags  repository.TagRepository
	blogs repository.BlogRepository
	now   func() time.Time
}

func NewService(tags repository.TagRepository, blogs repository.BlogRepository) *Service {
	return &Service{tags: tags, blogs: blogs, now: time.Now}
}

// Normalize is the canonical form tag names are stored in.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (s *Service) Add(ctx context.Context, name string) (models.Tag, error) {
	name = Normalize(name)
	if name == "" {
		return models.Tag{}, domain.Validation("Tag name is required")
	}

	if _, err := s.tags.GetByName(ctx, name); err == nil {
		return models.Tag{}, domain.Conflict("Tag already exists")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return models.Tag{}, err
	}

	tag := models.Tag{Name: name, CreatedAt: s.now().UTC()}
	if err := s.tags.Create(ctx, &tag); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return models.Tag{}, domain.Conflict("Tag already exists")
		}
		return models.Tag{}, err
	}
	return tag, nil
}

// Delete removes the tag and every blog's reference to it.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.tags.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound("Tag")
		}
		return err
	}
	if err := s.blogs.PullTag(ctx, id); err != nil {
		return fmt.Errorf("detach tag from blogs: %w", err)
	}
	logrus.WithField("tag_id", id.Hex()).Info("Tag deleted")
	return nil
}

// Options lists every tag as {value, label}, sorted by name descending.
func (s *Service) Options(ctx context.Context) ([]models.TagOption, error) {
	tags, err := s.tags.List(ctx)
	if err != nil {
		return nil, err
	}
	options := make([]models.TagOption, 0, len(tags))
	for _, t := range tags {
		options = append(options, models.TagOption{Value: t.ID, Label: t.Name})
	}
	return options, nil
}

func (s *Service) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Tag, error) {
	return s.tags.FindByIDs(ctx, ids)
}

// SplitRefs flattens tag references that may arrive as repeated form values
// or as one comma separated string.
func SplitRefs(refs []string) []string {
	var out []string
	for _, ref := range refs {
		for _, part := range strings.Split(ref, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Resolve turns tag references into tag ids. A reference that parses as an
// ObjectID must name an existing tag; anything else is a tag name and is
// created when missing. Order is kept and duplicates are dropped.
func (s *Service) Resolve(ctx context.Context, refs []string) ([]primitive.ObjectID, error) {
	refs = SplitRefs(refs)
	if len(refs) == 0 {
		return nil, domain.Validation("At least one tag is required")
	}

	var ids []primitive.ObjectID
	for _, ref := range refs {
		if id, err := primitive.ObjectIDFromHex(ref); err == nil {
			ids = append(ids, id)
		}
	}
	if len(ids) > 0 {
		found, err := s.tags.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		if len(found) != len(uniqueIDs(ids)) {
			return nil, domain.Validation("One or more tags do not exist")
		}
	}

	seen := make(map[primitive.ObjectID]struct{}, len(refs))
	out := make([]primitive.ObjectID, 0, len(refs))
	for _, ref := range refs {
		id, err := primitive.ObjectIDFromHex(ref)
		if err != nil {
			id, err = s.findOrCreate(ctx, ref)
			if err != nil {
				return nil, err
			}
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

func (s *Service) findOrCreate(ctx context.Context, name string) (primitive.ObjectID, error) {
	name = Normalize(name)

	tag, err := s.tags.GetByName(ctx, name)
	if err == nil {
		return tag.ID, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return primitive.NilObjectID, err
	}

	tag = models.Tag{Name: name, CreatedAt: s.now().UTC()}
	if err := s.tags.Create(ctx, &tag); err != nil {
		if !errors.Is(err, domain.ErrConflict) {
			return primitive.NilObjectID, err
		}
		// created concurrently
		existing, err := s.tags.GetByName(ctx, name)
		if err != nil {
			return primitive.NilObjectID, err
		}
		return existing.ID, nil
	}
	return tag.ID, nil
}

func uniqueIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
