package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fooder/backend/internal/auth"
	"github.com/fooder/backend/pkg/apperr"
	"github.com/fooder/backend/pkg/response"
)

// ContextIdentity is the key for the resolved caller in gin context.
const ContextIdentity = "identity"

// Authenticate resolves the caller from the Authorization header and stores it in context.
// Requests that fail resolution are rejected before reaching the handler.
func Authenticate(resolver *auth.Resolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := resolver.Resolve(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			response.Error(c, logger, err)
			return
		}
		c.Set(ContextIdentity, id)
		c.Next()
	}
}

// IdentityFrom returns the caller stored by Authenticate.
func IdentityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

// Caller returns the identity stored by Authenticate, or renders 401 and reports false.
func Caller(c *gin.Context) (auth.Identity, bool) {
	id, ok := IdentityFrom(c)
	if !ok {
		response.Abort(c, apperr.Unauthenticated("Missing authentication"))
	}
	return id, ok
}
