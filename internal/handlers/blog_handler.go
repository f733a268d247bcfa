package handlers

import (
	"github.com/developia-II/storeblog-backend/internal/core/domain"
	"github.com/developia-II/storeblog-backend/internal/middleware"
	"github.com/developia-II/storeblog-backend/internal/models"
	"github.com/developia-II/storeblog-backend/internal/services/blog"
	"github.com/developia-II/storeblog-backend/internal/services/tag"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BlogHandler struct {
	Service *blog.Service
	Tags    *tag.Service
	Files   FileStore
}

func NewBlogHandler(service *blog.Service, tags *tag.Service, files FileStore) *BlogHandler {
	return &BlogHandler{Service: service, Tags: tags, Files: files}
}

var blogImageFields = []string{"images", "blogImages"}

func (h *BlogHandler) CreateBlog(c *gin.Context) {
	up := &requestFiles{store: h.Files}
	images, err := up.save(c, blogImageFields...)
	if err != nil {
		respondError(c, err)
		return
	}

	var input models.CreateBlogInput
	if err := bind(c, &input); err != nil {
		up.fail(c, err)
		return
	}
	input.Images = images

	view, err := h.Service.Create(c.Request.Context(), middleware.Actor(c), input)
	if err != nil {
		up.fail(c, err)
		return
	}
	respondCreated(c, "Blog created", view)
}

func (h *BlogHandler) UpdateBlog(c *gin.Context) {
	id, ok := pathID(c, "id", "blog")
	if !ok {
		return
	}

	up := &requestFiles{store: h.Files}
	images, err := up.save(c, blogImageFields...)
	if err != nil {
		respondError(c, err)
		return
	}

	var input models.UpdateBlogInput
	if err := bind(c, &input); err != nil {
		up.fail(c, err)
		return
	}
	input.AddImages = images

	view, err := h.Service.Update(c.Request.Context(), id, input)
	if err != nil {
		up.fail(c, err)
		return
	}
	respondOK(c, "Blog updated", view)
}

func (h *BlogHandler) DeleteBlog(c *gin.Context) {
	id, ok := pathID(c, "id", "blog")
	if !ok {
		return
	}
	if err := h.Service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Blog deleted", nil)
}

func (h *BlogHandler) TogglePublish(c *gin.Context) {
	id, ok := pathID(c, "id", "blog")
	if !ok {
		return
	}
	view, err := h.Service.TogglePublish(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	msg := "Blog unpublished"
	if view.IsPublished {
		msg = "Blog published"
	}
	respondOK(c, msg, view)
}

// ListBlogs pages through blogs, optionally narrowed to ?tag=<id>. Admins
// also see drafts.
func (h *BlogHandler) ListBlogs(c *gin.Context) {
	tagID, err := domain.ParseOptionalID(c.Query("tag"), "tag")
	if err != nil {
		respondError(c, err)
		return
	}
	var filter *primitive.ObjectID
	if !tagID.IsZero() {
		filter = &tagID
	}

	page := models.NewPage(queryInt(c, "page", 1), queryInt(c, "limit", models.DefaultPageLimit))
	result, err := h.Service.List(c.Request.Context(), middleware.Actor(c), filter, page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", result)
}

func (h *BlogHandler) GetBlog(c *gin.Context) {
	id, ok := pathID(c, "id", "blog")
	if !ok {
		return
	}
	view, err := h.Service.Get(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", view)
}

func (h *BlogHandler) AddTag(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required,max=40"`
	}
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.Tags.Add(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, "Tag added", t)
}

func (h *BlogHandler) DeleteTag(c *gin.Context) {
	id, ok := pathID(c, "id", "tag")
	if !ok {
		return
	}
	if err := h.Tags.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Tag deleted", nil)
}

func (h *BlogHandler) ListTags(c *gin.Context) {
	options, err := h.Tags.Options(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", options)
}
