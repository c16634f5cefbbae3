package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/middleware"
	"storefront/repository"
)

// respondError maps repository errors onto HTTP statuses. what names the resource in 404s.
func (h *Handler) respondError(c *gin.Context, err error, what string) {
	var verr *repository.ValidationError
	var derr *repository.DuplicateError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{
			"message": verr.Message,
			"field":   verr.Field,
		})
	case errors.As(err, &derr):
		c.JSON(http.StatusBadRequest, gin.H{
			"message": derr.Message,
			"field":   derr.Field,
		})
	case errors.Is(err, repository.ErrValidation), errors.Is(err, repository.ErrDuplicate):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": what + " not found"})
	case errors.Is(err, repository.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": "account is deactivated"})
	default:
		h.log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		body := gin.H{"message": "internal server error"}
		if !h.cfg.IsProduction() {
			body["error"] = err.Error()
		}
		c.JSON(http.StatusInternalServerError, body)
	}
}

func badRequest(c *gin.Context, message string, err error) {
	body := gin.H{"message": message}
	if err != nil {
		body["error"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid "+name, nil)
		return 0, false
	}
	return uint(id), true
}

// queryInt reads an optional integer query parameter.
func queryInt(c *gin.Context, key string, def int) (int, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "invalid "+key, nil)
		return 0, false
	}
	return v, true
}

func queryFloat(c *gin.Context, key string) (*float64, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		badRequest(c, "invalid "+key, nil)
		return nil, false
	}
	return &v, true
}

func queryBool(c *gin.Context, key string) (*bool, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		badRequest(c, "invalid "+key, nil)
		return nil, false
	}
	return &v, true
}

// publish sends a domain event. Failures are logged and never fail the request.
func (h *Handler) publish(c *gin.Context, key string, event any) {
	if err := h.events.Publish(c.Request.Context(), key, event, middleware.GetRequestID(c)); err != nil {
		h.log.Warn("event publish failed", zap.String("key", key), zap.Error(err))
	}
}
