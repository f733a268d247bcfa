package blog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/developia-II/storeblog-backend/internal/adapters/repository"
	"github.com/developia-II/storeblog-backend/internal/core/domain"
	"github.com/developia-II/storeblog-backend/internal/models"
	"github.com/developia-II/storeblog-backend/utils"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("storeblog/blog")

// TagResolver maps tag ids or names onto tag ids, creating missing names.
type TagResolver interface {
	Resolve(ctx context.Context, refs []string) ([]primitive.ObjectID, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Tag, error)
}

type Config struct {
	MaxReplyDepth int
	SaveRetries   int
}

// MaxReplyDepthLimit keeps the deepest reply well inside MongoDB's
// 100-level document nesting limit; each level adds two.
const MaxReplyDepthLimit = 48

type Service struct {
	blogs repository.BlogRepository
	users repository.UserRepository
	tags  TagResolver
	files domain.FileRemover
	cfg   Config
	now   func() time.Time
}

func NewService(blogs repository.BlogRepository, users repository.UserRepository, tags TagResolver, files domain.FileRemover, cfg Config) *Service {
	if cfg.MaxReplyDepth < 1 {
		cfg.MaxReplyDepth = 32
	}
	if cfg.MaxReplyDepth > MaxReplyDepthLimit {
		cfg.MaxReplyDepth = MaxReplyDepthLimit
	}
	if cfg.SaveRetries < 1 {
		cfg.SaveRetries = 3
	}
	return &Service{blogs: blogs, users: users, tags: tags, files: files, cfg: cfg, now: time.Now}
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *Service) get(ctx context.Context, id primitive.ObjectID) (models.Blog, error) {
	b, err := s.blogs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return models.Blog{}, domain.NotFound("Blog")
		}
		return models.Blog{}, err
	}
	return b, nil
}

// mutate applies fn to a fresh copy of the blog and saves it, starting over
// from a new read whenever another writer got there first.
func (s *Service) mutate(ctx context.Context, id primitive.ObjectID, fn func(*models.Blog) error) (models.Blog, error) {
	for attempt := 1; attempt <= s.cfg.SaveRetries; attempt++ {
		b, err := s.get(ctx, id)
		if err != nil {
			return models.Blog{}, err
		}
		if err := fn(&b); err != nil {
			return models.Blog{}, err
		}
		b.UpdatedAt = s.timestamp()

		err = s.blogs.Save(ctx, &b)
		if err == nil {
			return b, nil
		}
		if errors.Is(err, domain.ErrNotFound) {
			return models.Blog{}, domain.NotFound("Blog")
		}
		if !errors.Is(err, domain.ErrConflict) {
			return models.Blog{}, err
		}
		logrus.WithFields(logrus.Fields{"blog_id": id.Hex(), "attempt": attempt}).Debug("Blog save lost a race, retrying")
	}
	return models.Blog{}, domain.Conflict("Blog was modified concurrently, please retry")
}

func (s *Service) slugFor(ctx context.Context, title string, exclude primitive.ObjectID) (string, error) {
	slug, err := utils.UniqueSlug(ctx, func(ctx context.Context, candidate string) (bool, error) {
		return s.blogs.SlugExists(ctx, candidate, exclude)
	}, title)
	if errors.Is(err, utils.ErrEmptySlug) {
		return "", domain.Validation("Title must contain letters or digits")
	}
	return slug, err
}

func (s *Service) Create(ctx context.Context, actor domain.Actor, input models.CreateBlogInput) (models.BlogView, error) {
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if title == "" || content == "" {
		return models.BlogView{}, domain.Validation("Title and content are required")
	}
	if len(input.Images) == 0 {
		return models.BlogView{}, domain.Validation("At least one image is required")
	}

	tagIDs, err := s.tags.Resolve(ctx, input.Tags)
	if err != nil {
		return models.BlogView{}, err
	}

	now := s.timestamp()
	b := models.Blog{
		Title:       title,
		Content:     content,
		Images:      input.Images,
		AuthorID:    actor.UserID,
		Tags:        tagIDs,
		Comments:    []models.Comment{},
		Reviews:     []models.Review{},
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// A duplicate slug here means a concurrent create took it first.
	for attempt := 0; attempt < 2; attempt++ {
		if b.Slug, err = s.slugFor(ctx, title, primitive.NilObjectID); err != nil {
			return models.BlogView{}, err
		}
		b.ID = primitive.NilObjectID
		err = s.blogs.Create(ctx, &b)
		if !errors.Is(err, domain.ErrConflict) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return models.BlogView{}, domain.Conflict("A blog with this title already exists")
		}
		return models.BlogView{}, err
	}

	logrus.WithFields(logrus.Fields{"blog_id": b.ID.Hex(), "slug": b.Slug}).Info("Blog created")
	return s.view(ctx, b)
}

func (s *Service) Update(ctx context.Context, id primitive.ObjectID, input models.UpdateBlogInput) (models.BlogView, error) {
	var tagIDs []primitive.ObjectID
	if len(input.Tags) > 0 {
		var err error
		if tagIDs, err = s.tags.Resolve(ctx, input.Tags); err != nil {
			return models.BlogView{}, err
		}
	}

	var removed []string
	b, err := s.mutate(ctx, id, func(b *models.Blog) error {
		if input.Title != nil {
			title := strings.TrimSpace(*input.Title)
			if title == "" {
				return domain.Validation("Title cannot be empty")
			}
			if title != b.Title {
				slug, err := s.slugFor(ctx, title, b.ID)
				if err != nil {
					return err
				}
				b.Title, b.Slug = title, slug
			}
		}
		if input.Content != nil {
			content := strings.TrimSpace(*input.Content)
			if content == "" {
				return domain.Validation("Content cannot be empty")
			}
			b.Content = content
		}
		if tagIDs != nil {
			b.Tags = tagIDs
		}

		drop := make(map[string]bool, len(input.RemoveImages))
		for _, img := range input.RemoveImages {
			drop[img] = true
		}
		images := make([]string, 0, len(b.Images)+len(input.AddImages))
		removed = removed[:0]
		for _, img := range b.Images {
			if drop[img] {
				removed = append(removed, img)
				continue
			}
			images = append(images, img)
		}
		images = append(images, input.AddImages...)
		if len(images) == 0 {
			return domain.Validation("At least one image is required")
		}
		b.Images = images
		return nil
	})
	if err != nil {
		return models.BlogView{}, err
	}

	if len(removed) > 0 && s.files != nil {
		s.files.Remove(removed...)
	}
	return s.view(ctx, b)
}

func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	b, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.blogs.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound("Blog")
		}
		return err
	}
	if s.files != nil {
		s.files.Remove(b.Images...)
	}
	logrus.WithField("blog_id", id.Hex()).Info("Blog deleted")
	return nil
}

func (s *Service) TogglePublish(ctx context.Context, id primitive.ObjectID) (models.BlogView, error) {
	b, err := s.mutate(ctx, id, func(b *models.Blog) error {
		b.IsPublished = !b.IsPublished
		return nil
	})
	if err != nil {
		return models.BlogView{}, err
	}
	return s.view(ctx, b)
}

// List returns a page of blog summaries. Only admins see unpublished posts.
func (s *Service) List(ctx context.Context, actor domain.Actor, tagID *primitive.ObjectID, page models.Page) (models.BlogPage, error) {
	filter := models.BlogFilter{PublishedOnly: !actor.IsAdmin(), TagID: tagID}

	blogs, total, err := s.blogs.List(ctx, filter, page)
	if err != nil {
		return models.BlogPage{}, err
	}

	authorIDs := idSet{}
	tagIDs := idSet{}
	for _, b := range blogs {
		authorIDs.add(b.AuthorID)
		for _, t := range b.Tags {
			tagIDs.add(t)
		}
	}
	authors, err := s.users.FindAuthors(ctx, authorIDs.slice())
	if err != nil {
		return models.BlogPage{}, err
	}
	tags, err := s.tagsByID(ctx, tagIDs.slice())
	if err != nil {
		return models.BlogPage{}, err
	}

	summaries := make([]models.BlogSummary, 0, len(blogs))
	for _, b := range blogs {
		summaries = append(summaries, models.BlogSummary{
			ID:            b.ID,
			Title:         b.Title,
			Slug:          b.Slug,
			Content:       b.Content,
			Images:        b.Images,
			Author:        authorMap(authors).lookup(b.AuthorID),
			Tags:          pickTags(b.Tags, tags),
			CommentCount:  len(b.Comments),
			ReviewCount:   len(b.Reviews),
			AverageRating: b.AverageRating,
			IsPublished:   b.IsPublished,
			CreatedAt:     b.CreatedAt,
		})
	}

	return models.BlogPage{
		Blogs:      summaries,
		Total:      total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages(total),
	}, nil
}

func (s *Service) Get(ctx context.Context, actor domain.Actor, id primitive.ObjectID) (models.BlogView, error) {
	b, err := s.get(ctx, id)
	if err != nil {
		return models.BlogView{}, err
	}
	if !b.IsPublished && !actor.IsAdmin() {
		return models.BlogView{}, domain.NotFound("Blog")
	}
	return s.view(ctx, b)
}

func (s *Service) readable(actor domain.Actor, b *models.Blog) error {
	if !b.IsPublished && !actor.IsAdmin() {
		return domain.NotFound("Blog")
	}
	return nil
}

func (s *Service) AddComment(ctx context.Context, actor domain.Actor, blogID primitive.ObjectID, text string) (models.BlogView, error) {
	text = strings.TrimSpace(text)
	if text == "" || actor.UserID.IsZero() {
		return models.BlogView{}, domain.Validation("Comment and user are required")
	}

	b, err := s.mutate(ctx, blogID, func(b *models.Blog) error {
		if err := s.readable(actor, b); err != nil {
			return err
		}
		b.Comments = append(b.Comments, models.Comment{
			ID:        primitive.NewObjectID(),
			UserID:    actor.UserID,
			Comment:   text,
			Replies:   []models.Reply{},
			CreatedAt: s.timestamp(),
		})
		return nil
	})
	if err != nil {
		return models.BlogView{}, err
	}
	return s.view(ctx, b)
}

// AddReply appends a reply under a comment, or under one of its replies when
// parentID is set.
func (s *Service) AddReply(ctx context.Context, actor domain.Actor, blogID, commentID, parentID primitive.ObjectID, text string) (models.BlogView, error) {
	ctx, span := tracer.Start(ctx, "blog.AddReply")
	defer span.End()
	span.SetAttributes(
		attribute.String("blog.id", blogID.Hex()),
		attribute.Bool("reply.nested", !parentID.IsZero()),
	)

	text = strings.TrimSpace(text)
	if text == "" || actor.UserID.IsZero() {
		return models.BlogView{}, domain.Validation("Comment and user are required")
	}

	b, err := s.mutate(ctx, blogID, func(b *models.Blog) error {
		if err := s.readable(actor, b); err != nil {
			return err
		}
		i := findComment(b.Comments, commentID)
		if i < 0 {
			return domain.NotFound("Comment")
		}
		reply := models.Reply{
			ID:        primitive.NewObjectID(),
			UserID:    actor.UserID,
			Comment:   text,
			Replies:   []models.Reply{},
			CreatedAt: s.timestamp(),
		}
		return insertReply(&b.Comments[i], parentID, reply, s.cfg.MaxReplyDepth)
	})
	if err != nil {
		span.RecordError(err)
		return models.BlogView{}, err
	}
	return s.view(ctx, b)
}

// DeleteComment removes a comment, or one of its replies when replyID is set,
// together with everything nested under it. Only the author or an admin may
// delete.
func (s *Service) DeleteComment(ctx context.Context, actor domain.Actor, blogID, commentID, replyID primitive.ObjectID) (models.BlogView, error) {
	b, err := s.mutate(ctx, blogID, func(b *models.Blog) error {
		i := findComment(b.Comments, commentID)
		if i < 0 {
			return domain.NotFound("Comment")
		}

		if replyID.IsZero() {
			if b.Comments[i].UserID != actor.UserID && !actor.IsAdmin() {
				return domain.Forbidden("You can only delete your own comments")
			}
			b.Comments = append(b.Comments[:i:i], b.Comments[i+1:]...)
			return nil
		}

		target, _ := findReply(b.Comments[i].Replies, replyID, 2)
		if target == nil {
			return domain.NotFound("Reply")
		}
		if target.UserID != actor.UserID && !actor.IsAdmin() {
			return domain.Forbidden("You can only delete your own replies")
		}
		b.Comments[i].Replies, _, _ = removeReply(b.Comments[i].Replies, replyID)
		return nil
	})
	if err != nil {
		return models.BlogView{}, err
	}
	return s.view(ctx, b)
}

// AddReview appends a review and recomputes the average over every rating.
func (s *Service) AddReview(ctx context.Context, actor domain.Actor, blogID primitive.ObjectID, rating int, text string) (models.BlogView, error) {
	text = strings.TrimSpace(text)
	if actor.UserID.IsZero() || text == "" {
		return models.BlogView{}, domain.Validation("Rating, review and user are required")
	}
	if rating < 1 || rating > 5 {
		return models.BlogView{}, domain.Validation("Rating must be between 1 and 5")
	}

	b, err := s.mutate(ctx, blogID, func(b *models.Blog) error {
		if err := s.readable(actor, b); err != nil {
			return err
		}
		b.Reviews = append(b.Reviews, models.Review{
			ID:        primitive.NewObjectID(),
			UserID:    actor.UserID,
			Rating:    rating,
			Review:    text,
			CreatedAt: s.timestamp(),
		})
		b.AverageRating = AverageRating(b.Reviews)
		return nil
	})
	if err != nil {
		return models.BlogView{}, err
	}
	return s.view(ctx, b)
}

// AverageRating is the arithmetic mean of every rating. It is stored
// unrounded; clients format it for display.
func AverageRating(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}

func (s *Service) tagsByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Tag, error) {
	out := make(map[primitive.ObjectID]models.Tag, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	tags, err := s.tags.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, t := range tags {
		out[t.ID] = t
	}
	return out, nil
}

func pickTags(ids []primitive.ObjectID, byID map[primitive.ObjectID]models.Tag) []models.Tag {
	tags := make([]models.Tag, 0, len(ids))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			tags = append(tags, t)
		}
	}
	return tags
}

// view resolves every user reference in the blog, at any depth of the reply
// trees, with one author lookup.
func (s *Service) view(ctx context.Context, b models.Blog) (models.BlogView, error) {
	authors, err := s.users.FindAuthors(ctx, collectAuthors(b))
	if err != nil {
		return models.BlogView{}, err
	}
	tags, err := s.tagsByID(ctx, b.Tags)
	if err != nil {
		return models.BlogView{}, err
	}

	am := authorMap(authors)
	return models.BlogView{
		ID:            b.ID,
		Title:         b.Title,
		Slug:          b.Slug,
		Content:       b.Content,
		Images:        b.Images,
		Author:        am.lookup(b.AuthorID),
		Tags:          pickTags(b.Tags, tags),
		Comments:      populateComments(b.Comments, am),
		Reviews:       populateReviews(b.Reviews, am),
		AverageRating: b.AverageRating,
		IsPublished:   b.IsPublished,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}, nil
}
