package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/fooder/backend/pkg/apperr"
	"github.com/fooder/backend/pkg/response"
)

// HeaderHookSecret carries the shared secret on identity-provider callbacks.
const HeaderHookSecret = "X-Hook-Secret"

// RequireHookSecret admits only requests presenting the configured shared secret.
// An empty secret rejects everything.
func RequireHookSecret(secret string) gin.HandlerFunc {
	want := []byte(secret)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader(HeaderHookSecret))
		if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
			response.Abort(c, apperr.Unauthenticated("Invalid hook secret"))
			return
		}
		c.Next()
	}
}
