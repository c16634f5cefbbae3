package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/mailer"
	"storefront/middleware"
	"storefront/models"
	"storefront/queue"
	"storefront/repository"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt ignores anything longer
)

// ValidatePassword requires 8-72 characters with at least one letter and one digit and no spaces.
func ValidatePassword(password string) bool {
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return false
	}

	var (
		hasLetter = false
		hasNumber = false
	)
	for _, s := range password {
		switch {
		case unicode.IsSpace(s):
			return false
		case unicode.IsLetter(s):
			hasLetter = true
		case unicode.IsDigit(s):
			hasNumber = true
		}
	}
	return hasLetter && hasNumber
}

const passwordRule = "password must be 8-72 characters with at least one letter and one number"

func (h *Handler) verificationLink(token string) string {
	return strings.TrimRight(h.cfg.Server.FrontendURL, "/") + "/verify-email?token=" + url.QueryEscape(token)
}

// sendVerification issues a fresh token and mails it. Mail failures are logged only.
func (h *Handler) sendVerification(c *gin.Context, user *models.User) error {
	if err := h.users.IssueVerification(c.Request.Context(), user, h.cfg.Auth.VerificationTTL); err != nil {
		return err
	}
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	subject, body := mailer.VerificationEmail(name, h.verificationLink(user.VerificationToken))
	if err := h.mail.Send(c.Request.Context(), user.Email, subject, body); err != nil {
		h.log.Warn("verification email failed", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	return nil
}

func (h *Handler) Register(c *gin.Context) {
	if !h.settings.Bool(c.Request.Context(), "allow_registration", true) {
		c.JSON(http.StatusForbidden, gin.H{"message": "registration is currently disabled"})
		return
	}

	var req struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		Phone     string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid registration data", err)
		return
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		badRequest(c, "first name and last name are required", nil)
		return
	}
	if !ValidatePassword(req.Password) {
		badRequest(c, passwordRule, nil)
		return
	}

	hashed, err := repository.HashPassword(req.Password)
	if err != nil {
		h.respondError(c, err, "user")
		return
	}
	user := &models.User{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     req.Email,
		Password:  hashed,
		Phone:     strings.TrimSpace(req.Phone),
		Role:      models.RoleCustomer,
	}
	if err := h.users.Create(c.Request.Context(), user); err != nil {
		h.respondError(c, err, "user")
		return
	}
	if err := h.sendVerification(c, user); err != nil {
		h.respondError(c, err, "user")
		return
	}

	h.publish(c, queue.KeyUserRegistered, queue.UserRegistered{
		UserID: user.ID,
		Email:  user.Email,
		Name:   strings.TrimSpace(user.FirstName + " " + user.LastName),
	})
	c.JSON(http.StatusCreated, gin.H{
		"message": "registration successful, please check your email to verify your account",
		"user":    user,
	})
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	user, err := h.users.Verify(c.Request.Context(), c.Query("token"), h.now())
	if err != nil {
		h.respondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "email verified successfully",
		"user":    user,
	})
}

// ResendVerification answers the same way whether or not the address is registered.
func (h *Handler) ResendVerification(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		badRequest(c, "email is required", nil)
		return
	}

	const sent = "if the account exists, a verification email has been sent"
	user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusOK, gin.H{"message": sent})
		return
	}
	if err != nil {
		h.respondError(c, err, "user")
		return
	}
	if user.IsVerified {
		badRequest(c, "email is already verified", nil)
		return
	}
	if err := h.sendVerification(c, user); err != nil {
		h.respondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": sent})
}

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		RememberMe bool   `json:"rememberMe"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		badRequest(c, "email and password are required", nil)
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		h.respondError(c, err, "user")
		return
	}
	if user == nil || !repository.CheckPassword(user.Password, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid email or password"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"message": "account is deactivated"})
		return
	}
	if !user.IsVerified {
		c.JSON(http.StatusForbidden, gin.H{"message": "please verify your email before logging in"})
		return
	}

	token, err := h.startSession(c, user, req.RememberMe)
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

func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(sameSiteMode(h.cfg.Auth.CookieSameSite))
	c.SetCookie(middleware.CookieName, "", -1, "/", "", h.cfg.Auth.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the account loaded by the auth middleware.
func (h *Handler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "not authorized, no token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
