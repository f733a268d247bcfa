package handlers

import (
	"github.com/developia-II/storeblog-backend/internal/middleware"
	"github.com/developia-II/storeblog-backend/internal/models"
	"github.com/developia-II/storeblog-backend/internal/services/admin"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	Service *admin.Service
}

func NewAdminHandler(service *admin.Service) *AdminHandler {
	return &AdminHandler{Service: service}
}

func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.Service.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", stats)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.Service.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", users)
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id", "user")
	if !ok {
		return
	}
	user, err := h.Service.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", user)
}

func (h *AdminHandler) ToggleUserStatus(c *gin.Context) {
	id, ok := pathID(c, "id", "user")
	if !ok {
		return
	}
	user, err := h.Service.ToggleUserStatus(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	msg := "User deactivated"
	if user.IsActive {
		msg = "User activated"
	}
	respondOK(c, msg, user)
}

func (h *AdminHandler) ChangeUserRole(c *gin.Context) {
	id, ok := pathID(c, "id", "user")
	if !ok {
		return
	}
	var req struct {
		Role models.Role `json:"role" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.Service.ChangeUserRole(c.Request.Context(), middleware.Actor(c), id, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "User role updated", user)
}
