package handlers

import (
	"github.com/developia-II/storeblog-backend/internal/core/domain"
	"github.com/developia-II/storeblog-backend/internal/models"
	"github.com/developia-II/storeblog-backend/internal/services/catalog"
	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	Service *catalog.Service
	Files   FileStore
}

func NewCategoryHandler(service *catalog.Service, files FileStore) *CategoryHandler {
	return &CategoryHandler{Service: service, Files: files}
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	up := &requestFiles{store: h.Files}
	image, err := up.first(c, "categoryImage")
	if err != nil {
		respondError(c, err)
		return
	}

	var input models.CategoryInput
	if err := bind(c, &input); err != nil {
		up.fail(c, err)
		return
	}
	input.Image = image

	category, err := h.Service.CreateCategory(c.Request.Context(), input)
	if err != nil {
		up.fail(c, err)
		return
	}
	respondCreated(c, "Category created", category)
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := pathID(c, "id", "category")
	if !ok {
		return
	}

	up := &requestFiles{store: h.Files}
	image, err := up.first(c, "categoryImage")
	if err != nil {
		respondError(c, err)
		return
	}

	var input models.CategoryInput
	if err := bind(c, &input); err != nil {
		up.fail(c, err)
		return
	}
	input.Image = image

	category, err := h.Service.UpdateCategory(c.Request.Context(), id, input)
	if err != nil {
		up.fail(c, err)
		return
	}
	respondOK(c, "Category updated", category)
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := pathID(c, "id", "category")
	if !ok {
		return
	}
	if err := h.Service.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Category deleted", nil)
}

func (h *CategoryHandler) RestoreCategory(c *gin.Context) {
	id, ok := pathID(c, "id", "category")
	if !ok {
		return
	}
	category, err := h.Service.RestoreCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Category restored", category)
}

func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, ok := pathID(c, "id", "category")
	if !ok {
		return
	}
	category, err := h.Service.GetCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", category)
}

// ListCategories serves the storefront. The admin variant may include the trash.
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.Service.ListCategories(c.Request.Context(), false)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", categories)
}

func (h *CategoryHandler) AdminListCategories(c *gin.Context) {
	categories, err := h.Service.ListCategories(c.Request.Context(), queryBool(c, "includeDeleted"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", categories)
}

func (h *CategoryHandler) CreateSubcategory(c *gin.Context) {
	var input models.SubcategoryInput
	if !bindJSON(c, &input) {
		return
	}
	sub, err := h.Service.CreateSubcategory(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, "Subcategory created", sub)
}

func (h *CategoryHandler) UpdateSubcategory(c *gin.Context) {
	id, ok := pathID(c, "id", "subcategory")
	if !ok {
		return
	}
	var input models.SubcategoryInput
	if !bindJSON(c, &input) {
		return
	}
	sub, err := h.Service.UpdateSubcategory(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Subcategory updated", sub)
}

func (h *CategoryHandler) DeleteSubcategory(c *gin.Context) {
	id, ok := pathID(c, "id", "subcategory")
	if !ok {
		return
	}
	if err := h.Service.DeleteSubcategory(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Subcategory deleted", nil)
}

func (h *CategoryHandler) RestoreSubcategory(c *gin.Context) {
	id, ok := pathID(c, "id", "subcategory")
	if !ok {
		return
	}
	sub, err := h.Service.RestoreSubcategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Subcategory restored", sub)
}

// ListSubcategories lists the live subcategories of the category given
// either as path parameter or ?categoryId=.
func (h *CategoryHandler) ListSubcategories(c *gin.Context) {
	raw := c.Param("id")
	if raw == "" {
		raw = c.Query("categoryId")
	}
	categoryID, err := domain.ParseID(raw, "category")
	if err != nil {
		respondError(c, err)
		return
	}

	subs, err := h.Service.ListSubcategories(c.Request.Context(), categoryID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", subs)
}
