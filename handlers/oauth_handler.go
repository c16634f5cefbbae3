package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/models"
	"storefront/oauth"
	"storefront/queue"
	"storefront/repository"
)

func (h *Handler) provider(c *gin.Context, name string) (oauth.Provider, bool) {
	p, ok := h.providers[name]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": name + " login is not configured"})
	}
	return p, ok
}

func (h *Handler) frontendURL(path string) string {
	return strings.TrimRight(h.cfg.Server.FrontendURL, "/") + path
}

// signIn links or creates the account behind profile. New accounts publish user.registered.
func (h *Handler) signIn(c *gin.Context, profile *repository.OAuthProfile) (*models.User, error) {
	user, created, err := h.users.FindOrCreateOAuth(c.Request.Context(), *profile)
	if err != nil {
		return nil, err
	}
	if created {
		h.publish(c, queue.KeyUserRegistered, queue.UserRegistered{
			UserID: user.ID,
			Email:  user.Email,
			Name:   strings.TrimSpace(user.FirstName + " " + user.LastName),
		})
	}
	return user, nil
}

// OAuthStart redirects the browser to the provider's consent page.
func (h *Handler) OAuthStart(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := h.provider(c, name)
		if !ok {
			return
		}
		c.Redirect(http.StatusTemporaryRedirect, p.AuthURL(h.states.MakeState(name)))
	}
}

// OAuthCallback finishes the redirect flow and sends the browser back to the frontend.
func (h *Handler) OAuthCallback(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		fail := func(reason string, err error) {
			h.log.Warn("oauth callback failed", zap.String("provider", name), zap.String("reason", reason), zap.Error(err))
			c.Redirect(http.StatusFound, h.frontendURL("/login?error=oauth_failed"))
		}

		p, ok := h.providers[name]
		if !ok {
			fail("provider not configured", nil)
			return
		}
		if e := c.Query("error"); e != "" {
			fail("provider error", errors.New(e))
			return
		}
		if err := h.states.VerifyState(name, c.Query("state")); err != nil {
			fail("state", err)
			return
		}
		profile, err := p.Profile(c.Request.Context(), c.Query("code"))
		if err != nil {
			fail("profile", err)
			return
		}
		user, err := h.signIn(c, profile)
		if err != nil {
			fail("sign in", err)
			return
		}
		if _, err := h.startSession(c, user, false); err != nil {
			fail("session", err)
			return
		}
		c.Redirect(http.StatusFound, h.frontendURL("/auth/success"))
	}
}

// OAuthExchange serves SPA-driven flows that post the authorization code directly.
func (h *Handler) OAuthExchange(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := h.provider(c, name)
		if !ok {
			return
		}
		var req struct {
			Code string `json:"code"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Code) == "" {
			badRequest(c, "authorization code is required", nil)
			return
		}

		profile, err := p.Profile(c.Request.Context(), req.Code)
		if err != nil {
			h.log.Warn("oauth exchange failed", zap.String("provider", name), zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"message": name + " authentication failed"})
			return
		}
		user, err := h.signIn(c, profile)
		if err != nil {
			h.respondError(c, err, "user")
			return
		}
		token, err := h.startSession(c, user, false)
		if err != nil {
			h.respondError(c, err, "user")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "login successful",
			"token":   token,
			"user":    user,
		})
	}
}
