package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/jwt"
	"storefront/models"
)

const (
	CookieName = "jwt"

	ctxUserID    = "UserID"
	ctxRole      = "Role"
	ctxUser      = "User"
	ctxToken     = "Token"
	ctxRequestID = "RequestID"
)

// UserLoader resolves the account behind a token.
type UserLoader interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

type Auth struct {
	tokens *jwt.Manager
	users  UserLoader
	log    *zap.Logger
}

func NewAuth(tokens *jwt.Manager, users UserLoader, log *zap.Logger) *Auth {
	return &Auth{tokens: tokens, users: users, log: log}
}

// TokenFromRequest prefers the Authorization header and falls back to the cookie.
func TokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
			return strings.TrimSpace(header[7:])
		}
	}
	if cookie, err := c.Cookie(CookieName); err == nil {
		return cookie
	}
	return ""
}

type authFailure struct {
	status  int
	message string
}

func (a *Auth) resolve(c *gin.Context) (*models.User, *authFailure) {
	token := TokenFromRequest(c)
	if token == "" {
		return nil, &authFailure{http.StatusUnauthorized, "not authorized, no token"}
	}

	claims, err := a.tokens.VerifyToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, &authFailure{http.StatusUnauthorized, "token expired"}
		}
		return nil, &authFailure{http.StatusUnauthorized, "not authorized, token failed"}
	}

	user, err := a.users.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		a.log.Debug("token user lookup failed", zap.Uint("user_id", claims.UserID), zap.Error(err))
		return nil, &authFailure{http.StatusUnauthorized, "not authorized, user not found"}
	}
	if !user.IsActive {
		return nil, &authFailure{http.StatusForbidden, "account is deactivated"}
	}

	c.Set(ctxToken, token)
	return user, nil
}

func setUser(c *gin.Context, user *models.User) {
	c.Set(ctxUserID, user.ID)
	c.Set(ctxRole, user.Role)
	c.Set(ctxUser, user)
}

// Authenticate aborts unless the request carries a valid token for an active account.
func (a *Auth) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, fail := a.resolve(c)
		if fail != nil {
			c.AbortWithStatusJSON(fail.status, gin.H{
				"message": fail.message,
			})
			return
		}
		setUser(c, user)
		c.Next()
	}
}

// OptionalAuthenticate sets the user when a valid token is present and never aborts.
func (a *Auth) OptionalAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, fail := a.resolve(c); fail == nil {
			setUser(c, user)
		}
		c.Next()
	}
}

func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

func IsAdmin(c *gin.Context) bool {
	role, _ := c.Get(ctxRole)
	return role == models.RoleAdmin
}
