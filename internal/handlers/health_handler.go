package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/developia-II/storeblog-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	DB          Pinger
	ServiceName string
}

func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Server is running!",
		"status":  "ok",
	})
}

// Liveness only reports that the process serves requests.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.ServiceName,
	})
}

// Readiness additionally checks the database.
func (h *HealthHandler) Readiness(c *gin.Context) {
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := h.DB.Ping(ctx); err != nil {
			logrus.WithError(err).Warn("Readiness check failed")
			c.JSON(http.StatusServiceUnavailable, utils.ErrorResponse("Database unavailable"))
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"service": h.ServiceName,
	})
}
