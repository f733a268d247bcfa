package handlers

import (
	"github.com/developia-II/storeblog-backend/internal/core/domain"
	"github.com/developia-II/storeblog-backend/internal/models"
	"github.com/developia-II/storeblog-backend/internal/services/catalog"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductHandler struct {
	Service *catalog.Service
	Files   FileStore
}

func NewProductHandler(service *catalog.Service, files FileStore) *ProductHandler {
	return &ProductHandler{Service: service, Files: files}
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	up := &requestFiles{store: h.Files}
	images, err := up.save(c, "files")
	if err != nil {
		respondError(c, err)
		return
	}

	var input models.CreateProductInput
	if err := bind(c, &input); err != nil {
		up.fail(c, err)
		return
	}
	input.ImageURLs = images

	product, err := h.Service.CreateProduct(c.Request.Context(), input)
	if err != nil {
		up.fail(c, err)
		return
	}
	respondCreated(c, "Product created", product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c, "id", "product")
	if !ok {
		return
	}

	up := &requestFiles{store: h.Files}
	images, err := up.save(c, "files")
	if err != nil {
		respondError(c, err)
		return
	}

	var input models.UpdateProductInput
	if err := bind(c, &input); err != nil {
		up.fail(c, err)
		return
	}
	input.AddImageURLs = images

	product, err := h.Service.UpdateProduct(c.Request.Context(), id, input)
	if err != nil {
		up.fail(c, err)
		return
	}
	respondOK(c, "Product updated", product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id", "product")
	if !ok {
		return
	}
	if err := h.Service.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Product deleted", nil)
}

func (h *ProductHandler) RestoreProduct(c *gin.Context) {
	id, ok := pathID(c, "id", "product")
	if !ok {
		return
	}
	product, err := h.Service.RestoreProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Product restored", product)
}

func (h *ProductHandler) ToggleVisibility(c *gin.Context) {
	id, ok := pathID(c, "id", "product")
	if !ok {
		return
	}
	product, err := h.Service.ToggleVisibility(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Product visibility updated", product)
}

// productFilter reads the listing filters shared by the storefront and the
// admin dashboard from the query string.
func productFilter(c *gin.Context) (models.ProductFilter, error) {
	var f models.ProductFilter

	for key, dst := range map[string]**primitive.ObjectID{
		"categoryId":    &f.CategoryID,
		"subCategoryId": &f.SubCategoryID,
	} {
		id, err := domain.ParseOptionalID(c.Query(key), key)
		if err != nil {
			return f, err
		}
		if !id.IsZero() {
			*dst = &id
		}
	}

	var err error
	if f.MinPrice, err = queryFloat(c, "minPrice"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = queryFloat(c, "maxPrice"); err != nil {
		return f, err
	}
	f.Status = models.ProductStatus(c.Query("status"))
	f.Name = c.Query("name")
	f.OutOfStock = queryBool(c, "outOfStock")
	return f, nil
}

func (h *ProductHandler) list(c *gin.Context, storefront bool) {
	filter, err := productFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if storefront {
		filter.PublicOnly = true
		filter.Status = ""
	} else {
		filter.Deleted = queryBool(c, "deleted")
	}

	page := models.NewPage(queryInt(c, "page", 1), queryInt(c, "limit", models.DefaultPageLimit))
	result, err := h.Service.ListProducts(c.Request.Context(), filter, page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", result)
}

func (h *ProductHandler) ListProducts(c *gin.Context)      { h.list(c, true) }
func (h *ProductHandler) AdminListProducts(c *gin.Context) { h.list(c, false) }

func (h *ProductHandler) get(c *gin.Context, storefront bool) {
	id, ok := pathID(c, "id", "product")
	if !ok {
		return
	}
	product, err := h.Service.GetProduct(c.Request.Context(), id, storefront)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", product)
}

func (h *ProductHandler) GetProduct(c *gin.Context)      { h.get(c, true) }
func (h *ProductHandler) AdminGetProduct(c *gin.Context) { h.get(c, false) }
