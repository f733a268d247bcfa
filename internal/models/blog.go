package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reply is a node in a comment's reply tree. Children are owned values, so
// the tree can only grow by appending and cannot contain cycles.
type Reply struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	UserID    primitive.ObjectID `bson:"user" json:"user"`
	Comment   string             `bson:"comment" json:"comment"`
	Replies   []Reply            `bson:"replies" json:"replies"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	UserID    primitive.ObjectID `bson:"user" json:"user"`
	Comment   string             `bson:"comment" json:"comment"`
	Replies   []Reply            `bson:"replies" json:"replies"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type Review struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	UserID    primitive.ObjectID `bson:"user" json:"user"`
	Rating    int                `bson:"rating" json:"rating"`
	Review    string             `bson:"review" json:"review"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type Blog struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title         string               `bson:"title" json:"title"`
	Slug          string               `bson:"slug" json:"slug"`
	Content       string               `bson:"content" json:"content"`
	Images        []string             `bson:"images" json:"images"`
	AuthorID      primitive.ObjectID   `bson:"author" json:"author"`
	Tags          []primitive.ObjectID `bson:"tags" json:"tags"`
	Comments      []Comment            `bson:"comments" json:"comments"`
	Reviews       []Review             `bson:"reviews" json:"reviews"`
	AverageRating float64              `bson:"averageRating" json:"averageRating"`
	IsPublished   bool                 `bson:"isPublished" json:"isPublished"`
	// Version guards read-modify-write saves of the embedded trees.
	Version   int64     `bson:"version" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

type BlogFilter struct {
	PublishedOnly bool
	TagID         *primitive.ObjectID
}

// Read models with every user reference resolved.

type ReplyView struct {
	ID        primitive.ObjectID `json:"id"`
	User      *Author            `json:"user"`
	Comment   string             `json:"comment"`
	Replies   []ReplyView        `json:"replies"`
	CreatedAt time.Time          `json:"createdAt"`
}

type CommentView struct {
	ID        primitive.ObjectID `json:"id"`
	User      *Author            `json:"user"`
	Comment   string             `json:"comment"`
	Replies   []ReplyView        `json:"replies"`
	CreatedAt time.Time          `json:"createdAt"`
}

type ReviewView struct {
	ID        primitive.ObjectID `json:"id"`
	User      *Author            `json:"user"`
	Rating    int                `json:"rating"`
	Review    string             `json:"review"`
	CreatedAt time.Time          `json:"createdAt"`
}

type BlogView struct {
	ID            primitive.ObjectID `json:"id"`
	Title         string             `json:"title"`
	Slug          string             `json:"slug"`
	Content       string             `json:"content"`
	Images        []string           `json:"images"`
	Author        *Author            `json:"author"`
	Tags          []Tag              `json:"tags"`
	Comments      []CommentView      `json:"comments"`
	Reviews       []ReviewView       `json:"reviews"`
	AverageRating float64            `json:"averageRating"`
	IsPublished   bool               `json:"isPublished"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// BlogSummary is the list projection: no comment or review trees.
type BlogSummary struct {
	ID            primitive.ObjectID `json:"id"`
	Title         string             `json:"title"`
	Slug          string             `json:"slug"`
	Content       string             `json:"content"`
	Images        []string           `json:"images"`
	Author        *Author            `json:"author"`
	Tags          []Tag              `json:"tags"`
	CommentCount  int                `json:"commentCount"`
	ReviewCount   int                `json:"reviewCount"`
	AverageRating float64            `json:"averageRating"`
	IsPublished   bool               `json:"isPublished"`
	CreatedAt     time.Time          `json:"createdAt"`
}

type BlogPage struct {
	Blogs      []BlogSummary `json:"blogs"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"totalPages"`
}

type CreateBlogInput struct {
	Title   string   `json:"title" form:"title" binding:"required,max=200"`
	Content string   `json:"content" form:"content" binding:"required"`
	Tags    []string `json:"tags" form:"tags"`
	Images  []string `json:"-" form:"-"`
}

type UpdateBlogInput struct {
	Title   *string  `json:"title" form:"title" binding:"omitempty,max=200"`
	Content *string  `json:"content" form:"content"`
	Tags    []string `json:"tags" form:"tags"`
	// AddImages are appended; RemoveImages are dropped from the list and deleted.
	AddImages    []string `json:"-" form:"-"`
	RemoveImages []string `json:"removeImages" form:"removeImages"`
}

type CommentInput struct {
	BlogID  string `json:"blogId" binding:"required"`
	Comment string `json:"comment" binding:"required,max=5000"`
}

type ReplyInput struct {
	BlogID    string `json:"blogId" binding:"required"`
	CommentID string `json:"commentId" binding:"required"`
	ReplyID   string `json:"replyId"`
	Comment   string `json:"comment" binding:"required,max=5000"`
}

type ReviewInput struct {
	BlogID string `json:"blogId" binding:"required"`
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
	Review string `json:"review" binding:"required,max=5000"`
}

type DeleteCommentInput struct {
	BlogID    string `json:"blogId" binding:"required"`
	CommentID string `json:"commentId" binding:"required"`
	ReplyID   string `json:"replyId"`
}
