package blog

import (
	"github.com/developia-II/storeblog-backend/internal/core/domain"
	"github.com/developia-II/storeblog-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Depth counts levels below the blog: a comment is at depth 1, its direct
// replies at depth 2 and so on.

func findComment(comments []models.Comment, id primitive.ObjectID) int {
	for i := range comments {
		if comments[i].ID == id {
			return i
		}
	}
	return -1
}

// findReply walks replies depth-first, pre-order, and returns the first node
// with the given id together with its depth.
func findReply(replies []models.Reply, id primitive.ObjectID, depth int) (*models.Reply, int) {
	for i := range replies {
		if replies[i].ID == id {
			return &replies[i], depth
		}
		if found, d := findReply(replies[i].Replies, id, depth+1); found != nil {
			return found, d
		}
	}
	return nil, 0
}

// insertReply appends reply under the comment, or under parentID when it is
// set. The new node may not sit deeper than maxDepth.
func insertReply(comment *models.Comment, parentID primitive.ObjectID, reply models.Reply, maxDepth int) error {
	if parentID.IsZero() {
		if maxDepth < 2 {
			return domain.Validation("replies are nested too deeply (max depth %d)", maxDepth)
		}
		comment.Replies = append(comment.Replies, reply)
		return nil
	}

	parent, depth := findReply(comment.Replies, parentID, 2)
	if parent == nil {
		return domain.NotFound("Parent reply")
	}
	if depth+1 > maxDepth {
		return domain.Validation("replies are nested too deeply (max depth %d)", maxDepth)
	}
	parent.Replies = append(parent.Replies, reply)
	return nil
}

// removeReply drops the node with the given id and its whole subtree.
func removeReply(replies []models.Reply, id primitive.ObjectID) ([]models.Reply, *models.Reply, bool) {
	for i := range replies {
		if replies[i].ID == id {
			removed := replies[i]
			return append(replies[:i:i], replies[i+1:]...), &removed, true
		}
		if rest, removed, ok := removeReply(replies[i].Replies, id); ok {
			replies[i].Replies = rest
			return replies, removed, true
		}
	}
	return replies, nil, false
}

type idSet map[primitive.ObjectID]struct{}

func (s idSet) add(id primitive.ObjectID) {
	if !id.IsZero() {
		s[id] = struct{}{}
	}
}

func (s idSet) slice() []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}

func collectReplyAuthors(replies []models.Reply, ids idSet) {
	for _, r := range replies {
		ids.add(r.UserID)
		collectReplyAuthors(r.Replies, ids)
	}
}

// collectAuthors gathers every user referenced anywhere in the blog.
func collectAuthors(b models.Blog) []primitive.ObjectID {
	ids := idSet{}
	ids.add(b.AuthorID)
	for _, c := range b.Comments {
		ids.add(c.UserID)
		collectReplyAuthors(c.Replies, ids)
	}
	for _, r := range b.Reviews {
		ids.add(r.UserID)
	}
	return ids.slice()
}

type authorMap map[primitive.ObjectID]models.Author

// lookup returns nil for users that no longer exist.
func (m authorMap) lookup(id primitive.ObjectID) *models.Author {
	a, ok := m[id]
	if !ok {
		return nil
	}
	return &a
}

func populateReplies(replies []models.Reply, authors authorMap) []models.ReplyView {
	views := make([]models.ReplyView, 0, len(replies))
	for _, r := range replies {
		views = append(views, models.ReplyView{
			ID:        r.ID,
			User:      authors.lookup(r.UserID),
			Comment:   r.Comment,
			Replies:   populateReplies(r.Replies, authors),
			CreatedAt: r.CreatedAt,
		})
	}
	return views
}

func populateComments(comments []models.Comment, authors authorMap) []models.CommentView {
	views := make([]models.CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, models.CommentView{
			ID:        c.ID,
			User:      authors.lookup(c.UserID),
			Comment:   c.Comment,
			Replies:   populateReplies(c.Replies, authors),
			CreatedAt: c.CreatedAt,
		})
	}
	return views
}

func populateReviews(reviews []models.Review, authors authorMap) []models.ReviewView {
	views := make([]models.ReviewView, 0, len(reviews))
	for _, r := range reviews {
		views = append(views, models.ReviewView{
			ID:        r.ID,
			User:      authors.lookup(r.UserID),
			Rating:    r.Rating,
			Review:    r.Review,
			CreatedAt: r.CreatedAt,
		})
	}
	return views
}
