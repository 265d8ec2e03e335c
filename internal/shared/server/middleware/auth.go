package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bads1de/CareerRise/internal/shared/auth"
	"github.com/bads1de/CareerRise/internal/shared/server/respond"
)

const identityKey = "identity"

// Identity is the caller as asserted by a verified bearer token.
type Identity struct {
	UserID  string
	Email   string
	Name    string
	Picture string
}

// WithIdentity attaches id to the request. The user id is also stored under
// respond.UserIDKey so error logs name the caller.
func WithIdentity(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
	c.Set(respond.UserIDKey, id.UserID)
}

func identity(c *gin.Context) Identity {
	if c == nil {
		return Identity{}
	}
	id, _ := c.Get(identityKey)
	v, _ := id.(Identity)
	return v
}

// Auth requires "Authorization: Bearer <jwt>" except on paths starting with
// one of publicPrefixes. Preflights always pass.
func Auth(publicPrefixes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}
		for _, prefix := range publicPrefixes {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}

		claims, err := auth.VerifyJWT(bearerToken(c.GetHeader("Authorization")))
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		WithIdentity(c, Identity{
			UserID:  claims.Sub,
			Email:   claims.Email,
			Name:    claims.Name,
			Picture: claims.Picture,
		})
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func UserIDFromContext(c *gin.Context) string      { return identity(c).UserID }
func UserEmailFromContext(c *gin.Context) string   { return identity(c).Email }
func UserNameFromContext(c *gin.Context) string    { return identity(c).Name }
func UserPictureFromContext(c *gin.Context) string { return identity(c).Picture }
