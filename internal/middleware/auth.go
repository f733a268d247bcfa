package middleware

import (
	"context"
	"strings"

	"github.com/developia-II/storeblog-backend/internal/core/domain"
	"github.com/developia-II/storeblog-backend/internal/models"
	"github.com/developia-II/storeblog-backend/utils"
	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID = "userId"
	ContextRole   = "role"
	ContextEmail  = "email"
	ContextUser   = "user"
)

// Authenticator resolves a session token to the active user it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.User, error)
}

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(domain.KindOf(err).HTTPStatus(), utils.ErrorResponse(domain.PublicMessage(err)))
}

// bearerToken reads the session from the Authorization header, falling back
// to the session cookie.
func bearerToken(c *gin.Context, cookieName string) (string, error) {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", domain.Unauthorized("Authorization header must be Bearer token")
		}
		return strings.TrimSpace(token), nil
	}
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie, nil
	}
	return "", domain.Unauthorized("Authentication required")
}

func AuthMiddleware(auth Authenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c, cookieName)
		if err != nil {
			abort(c, err)
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			abort(c, err)
			return
		}

		c.Set(ContextUserID, user.ID.Hex())
		c.Set(ContextRole, string(user.Role))
		c.Set(ContextEmail, user.Email)
		c.Set(ContextUser, user)
		c.Next()
	}
}

func RoleMiddleware(allowedRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role == "" {
			abort(c, domain.Unauthorized("Authentication required"))
			return
		}

		for _, r := range allowedRoles {
			if strings.EqualFold(role, string(r)) {
				c.Next()
				return
			}
		}
		abort(c, domain.Forbidden("You do not have permission to access this resource"))
	}
}

// CurrentUser returns the user AuthMiddleware loaded for this request.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}

// Actor is the caller as the services see it. The zero Actor is returned
// for unauthenticated requests.
func Actor(c *gin.Context) domain.Actor {
	user, ok := CurrentUser(c)
	if !ok {
		return domain.Actor{}
	}
	return domain.Actor{UserID: user.ID, Email: user.Email, Role: user.Role}
}
