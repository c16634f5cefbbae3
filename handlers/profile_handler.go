package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/middleware"
	"storefront/repository"
)

func (h *Handler) GetProfile(c *gin.Context) {
	id, _ := middleware.CurrentUserID(c)
	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var upd repository.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, "invalid profile data", err)
		return
	}
	id, _ := middleware.CurrentUserID(c)
	user, err := h.users.UpdateProfile(c.Request.Context(), id, upd)
	if err != nil {
		h.respondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "profile updated",
		"user":    user,
	})
}

// ChangePassword checks the current password unless the account never had one of its own,
// which is the case for accounts created through OAuth.
func (h *Handler) ChangePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid password data", err)
		return
	}
	if !ValidatePassword(req.NewPassword) {
		badRequest(c, passwordRule, nil)
		return
	}

	id, _ := middleware.CurrentUserID(c)
	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "user")
		return
	}
	firstPassword := !user.HasLocalPassword && user.HasOAuth()
	if !firstPassword && !repository.CheckPassword(user.Password, req.CurrentPassword) {
		badRequest(c, "current password is incorrect", nil)
		return
	}

	if err := h.users.SetPassword(c.Request.Context(), id, req.NewPassword); err != nil {
		h.respondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

func (h *Handler) UploadAvatar(c *gin.Context) {
	path, ok := h.saveImage(c)
	if !ok {
		return
	}
	id, _ := middleware.CurrentUserID(c)
	if err := h.users.SetAvatar(c.Request.Context(), id, path); err != nil {
		h.respondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "avatar updated",
		"avatar":  path,
	})
}
