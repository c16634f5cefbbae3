package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/middleware"
	"storefront/models"
)

func sameSiteMode(mode string) http.SameSite {
	switch strings.ToLower(mode) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// startSession signs a token for user, sets the auth cookie and records the login.
func (h *Handler) startSession(c *gin.Context, user *models.User, rememberMe bool) (string, error) {
	ttl := h.cfg.Auth.TokenTTL
	if rememberMe {
		ttl = h.cfg.Auth.RememberMeTTL
	}
	token, err := h.tokens.GenerateToken(user.ID, user.Role, ttl)
	if err != nil {
		return "", err
	}

	c.SetSameSite(sameSiteMode(h.cfg.Auth.CookieSameSite))
	c.SetCookie(middleware.CookieName, token, int(ttl.Seconds()), "/", "", h.cfg.Auth.CookieSecure, true)

	now := h.now()
	if err := h.users.TouchLogin(c.Request.Context(), user.ID, now); err != nil {
		h.log.Warn("failed to record login", zap.Uint("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLogin = &now
	}
	return token, nil
}
