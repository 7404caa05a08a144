package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"UEvents/internal/service"
)

const ContextActorKey = "actor"

// Authenticator resolves a bearer token to the caller.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (service.Actor, error)
}

// RequireAuth rejects requests without a valid active session.
func RequireAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearer(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "msg": "missing or malformed authorization header"})
			return
		}

		// the token must still be the active session stored at login
		actor, err := auth.Authenticate(c.Request.Context(), tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "msg": "invalid, expired or replaced session"})
			return
		}

		c.Set(ContextActorKey, actor)
		c.Next()
	}
}

// MaybeAuth attaches the caller when a valid token is present. Anything else
// continues as anonymous.
func MaybeAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr, ok := bearer(c.GetHeader("Authorization")); ok {
			if actor, err := auth.Authenticate(c.Request.Context(), tokenStr); err == nil {
				c.Set(ContextActorKey, actor)
			}
		}
		c.Next()
	}
}

// ActorFrom returns the caller set by the auth middleware, or the anonymous actor.
func ActorFrom(c *gin.Context) service.Actor {
	if v, ok := c.Get(ContextActorKey); ok {
		if actor, ok := v.(service.Actor); ok {
			return actor
		}
	}
	return service.Actor{}
}

func bearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
