package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	database := "up"
	status := http.StatusOK
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		database = "down"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status":   http.StatusText(status),
		"database": database,
		"time":     h.now().UTC(),
	})
}
