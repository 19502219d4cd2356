package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsMethods = "GET,POST,PUT,DELETE,OPTIONS"
	corsHeaders = "Content-Type,Authorization"
)

// corsPolicy is the parsed CORS_ALLOWED_ORIGINS value.
type corsPolicy struct {
	any     bool
	origins map[string]struct{}
}

func newCORSPolicy(allowedOrigins string) corsPolicy {
	p := corsPolicy{origins: make(map[string]struct{})}
	for _, o := range strings.Split(allowedOrigins, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch o {
		case "":
		case "*":
			p.any = true
		default:
			p.origins[o] = struct{}{}
		}
	}
	if len(p.origins) == 0 {
		p.any = true
	}
	return p
}

// allow returns the Access-Control-Allow-Origin value for origin, or "" when it is not allowed.
func (p corsPolicy) allow(origin string) string {
	if p.any {
		return "*"
	}
	if _, ok := p.origins[origin]; ok {
		return origin
	}
	return ""
}

// CORS sets cross-origin headers and answers preflight requests with 204.
// allowedOrigins is "*" or a comma-separated list of origins; an empty list allows all.
func CORS(allowedOrigins string) gin.HandlerFunc {
	policy := newCORSPolicy(allowedOrigins)
	return func(c *gin.Context) {
		if !policy.any {
			c.Writer.Header().Add("Vary", "Origin")
		}
		if allowOrigin := policy.allow(c.GetHeader("Origin")); allowOrigin != "" {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", allowOrigin)
			h.Set("Access-Control-Allow-Methods", corsMethods)
			h.Set("Access-Control-Allow-Headers", corsHeaders)
			h.Set("Access-Control-Max-Age", "86400")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
