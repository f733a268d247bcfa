package handlers

import (
	"github.com/developia-II/storeblog-backend/internal/core/domain"
	"github.com/developia-II/storeblog-backend/internal/models"
	"github.com/gin-gonic/gin"
)

// Reader interactions with a blog: comments, nested replies and reviews.

func (h *BlogHandler) AddComment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var input models.CommentInput
	if !bindJSON(c, &input) {
		return
	}
	blogID, err := domain.ParseID(input.BlogID, "blog")
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := h.Service.AddComment(c.Request.Context(), actor, blogID, input.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, "Comment added", view)
}

// AddReply answers a comment, or a reply inside it when replyId is given.
func (h *BlogHandler) AddReply(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var input models.ReplyInput
	if !bindJSON(c, &input) {
		return
	}

	blogID, err := domain.ParseID(input.BlogID, "blog")
	if err != nil {
		respondError(c, err)
		return
	}
	commentID, err := domain.ParseID(input.CommentID, "comment")
	if err != nil {
		respondError(c, err)
		return
	}
	parentID, err := domain.ParseOptionalID(input.ReplyID, "reply")
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := h.Service.AddReply(c.Request.Context(), actor, blogID, commentID, parentID, input.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, "Reply added", view)
}

// DeleteComment removes a comment, or one reply when replyId is given,
// together with everything nested under it.
func (h *BlogHandler) DeleteComment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var input models.DeleteCommentInput
	if !bindJSON(c, &input) {
		return
	}

	blogID, err := domain.ParseID(input.BlogID, "blog")
	if err != nil {
		respondError(c, err)
		return
	}
	commentID, err := domain.ParseID(input.CommentID, "comment")
	if err != nil {
		respondError(c, err)
		return
	}
	replyID, err := domain.ParseOptionalID(input.ReplyID, "reply")
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := h.Service.DeleteComment(c.Request.Context(), actor, blogID, commentID, replyID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Comment deleted", view)
}

func (h *BlogHandler) AddReview(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var input models.ReviewInput
	if !bindJSON(c, &input) {
		return
	}
	blogID, err := domain.ParseID(input.BlogID, "blog")
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := h.Service.AddReview(c.Request.Context(), actor, blogID, input.Rating, input.Review)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, "Review added", view)
}
