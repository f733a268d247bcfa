package handlers

import (
	"github.com/developia-II/storeblog-backend/internal/models"
	"github.com/developia-II/storeblog-backend/internal/services/checkout"
	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	Service *checkout.Service
}

func NewOrderHandler(service *checkout.Service) *OrderHandler {
	return &OrderHandler{Service: service}
}

func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var input models.CheckoutInput
	if !bindJSON(c, &input) {
		return
	}

	order, err := h.Service.Create(c.Request.Context(), actor, input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, "Order placed successfully", order)
}

func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.Service.Get(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", order)
}

// GetUserOrders lists the caller's orders, or those of ?email= for admins.
func (h *OrderHandler) GetUserOrders(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	orders, err := h.Service.ListByEmail(c.Request.Context(), actor, c.Query("email"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", orders)
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.Service.Cancel(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Order cancelled", order)
}

func (h *OrderHandler) GetAllOrders(c *gin.Context) {
	orders, err := h.Service.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", orders)
}

func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := pathID(c, "id", "order")
	if !ok {
		return
	}
	var req struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.Service.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Order status updated", order)
}
