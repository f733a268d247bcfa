package handlers

import (
	"github.com/gin-gonic/gin"
)

// Likes are the storefront's wishlist: a product remembers who liked it.

func (h *ProductHandler) setLike(c *gin.Context, liked bool) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "product")
	if !ok {
		return
	}

	product, err := h.Service.SetLike(c.Request.Context(), actor.UserID, id, liked)
	if err != nil {
		respondError(c, err)
		return
	}
	msg := "Product unliked"
	if liked {
		msg = "Product liked"
	}
	respondOK(c, msg, product)
}

func (h *ProductHandler) LikeProduct(c *gin.Context)   { h.setLike(c, true) }
func (h *ProductHandler) UnlikeProduct(c *gin.Context) { h.setLike(c, false) }

func (h *ProductHandler) ToggleLike(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "product")
	if !ok {
		return
	}

	product, liked, err := h.Service.ToggleLike(c.Request.Context(), actor.UserID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", gin.H{"product": product, "liked": liked})
}

func (h *ProductHandler) LikedProducts(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	products, err := h.Service.LikedProducts(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", products)
}
