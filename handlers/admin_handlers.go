package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront/middleware"
	"storefront/repository"
)

// multipart framing allowance on top of the configured file size
const uploadOverhead = 64 << 10

var allowedImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

func isValidImageExtensions(file *multipart.FileHeader) bool {
	fileExt := strings.ToLower(filepath.Ext(file.Filename))
	for _, allowExt := range allowedImageExtensions {
		if fileExt == allowExt {
			return true
		}
	}
	return false
}

func makeUniqueFileName(file *multipart.FileHeader) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
}

// saveImage stores the multipart "image" field and returns its public path.
// It writes the error response itself and returns ok=false on failure.
func (h *Handler) saveImage(c *gin.Context) (string, bool) {
	limit := h.cfg.Server.MaxUploadBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+uploadOverhead)

	file, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "file too large"})
			return "", false
		}
		badRequest(c, "no image file provided", err)
		return "", false
	}
	if file.Size > limit {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "file too large"})
		return "", false
	}
	if !isValidImageExtensions(file) {
		badRequest(c, "only image files are allowed (jpg, jpeg, png, gif, webp)", nil)
		return "", false
	}

	uploadsDir := h.cfg.Server.UploadDir
	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		h.respondError(c, err, "upload")
		return "", false
	}
	imageName := makeUniqueFileName(file)
	if err := c.SaveUploadedFile(file, filepath.Join(uploadsDir, imageName)); err != nil {
		h.respondError(c, err, "upload")
		return "", false
	}
	return "/uploads/" + imageName, true
}

// UploadImage stores a product image for admins.
func (h *Handler) UploadImage(c *gin.Context) {
	path, ok := h.saveImage(c)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "image uploaded",
		"url":     path,
	})
}

func (h *Handler) ListUsers(c *gin.Context) {
	filter := repository.UserFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Role:   strings.TrimSpace(c.Query("role")),
	}
	var ok bool
	if filter.IsActive, ok = queryBool(c, "isActive"); !ok {
		return
	}
	if filter.Limit, ok = queryInt(c, "limit", repository.DefaultLimit); !ok {
		return
	}
	if filter.Offset, ok = queryInt(c, "offset", 0); !ok {
		return
	}

	page, err := h.users.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var upd repository.AdminUserUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, "invalid user data", err)
		return
	}
	user, err := h.users.AdminUpdate(c.Request.Context(), id, upd)
	if err != nil {
		h.respondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeleteUser hard-deletes an account and its orders. Admins cannot delete themselves.
func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if self, _ := middleware.CurrentUserID(c); self == id {
		badRequest(c, "you cannot delete your own account", nil)
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}
