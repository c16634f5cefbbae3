package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/repository"
)

func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.settings.GetAll(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "settings")
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings writes every key of the body in one transaction and answers with the full set.
func (h *Handler) UpdateSettings(c *gin.Context) {
	var values map[string]interface{}
	if err := c.ShouldBindJSON(&values); err != nil {
		badRequest(c, "invalid settings data", err)
		return
	}
	if err := h.settings.UpdateMany(c.Request.Context(), values); err != nil {
		h.respondError(c, err, "setting")
		return
	}
	h.GetSettings(c)
}

func (h *Handler) GetSetting(c *gin.Context) {
	setting, value, err := h.settings.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.respondError(c, err, "setting")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"key":         repository.ToCamel(setting.Key),
		"value":       value,
		"type":        setting.Type,
		"description": setting.Description,
		"updatedAt":   setting.UpdatedAt,
	})
}

func (h *Handler) DeleteSetting(c *gin.Context) {
	if err := h.settings.Delete(c.Request.Context(), c.Param("key")); err != nil {
		h.respondError(c, err, "setting")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "setting deleted"})
}
