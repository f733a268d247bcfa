package handlers

import (
	"github.com/developia-II/storeblog-backend/internal/models"
	"github.com/developia-II/storeblog-backend/internal/services/cart"
	"github.com/gin-gonic/gin"
)

type CartHandler struct {
	Service *cart.Service
}

func NewCartHandler(service *cart.Service) *CartHandler {
	return &CartHandler{Service: service}
}

func (h *CartHandler) AddToCart(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var input models.CartItemInput
	if !bindJSON(c, &input) {
		return
	}

	view, err := h.Service.Add(c.Request.Context(), actor.UserID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Product added to cart", view)
}

func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var input models.CartItemInput
	if !bindJSON(c, &input) {
		return
	}

	view, err := h.Service.Update(c.Request.Context(), actor.UserID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Cart updated", view)
}

func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	productID := c.Param("productId")
	if productID == "" {
		var input models.CartRemoveInput
		if !bindJSON(c, &input) {
			return
		}
		productID = input.ProductID
	}

	view, err := h.Service.Remove(c.Request.Context(), actor.UserID, productID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Product removed from cart", view)
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if err := h.Service.Clear(c.Request.Context(), actor.UserID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Cart cleared", models.CartView{Items: []models.CartLine{}})
}

func (h *CartHandler) GetCart(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	view, err := h.Service.Get(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", view)
}
