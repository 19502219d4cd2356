package app

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fooder/backend/internal/auth"
	"github.com/fooder/backend/internal/menu"
	"github.com/fooder/backend/internal/middleware"
	"github.com/fooder/backend/internal/schedules"
	"github.com/fooder/backend/internal/users"
	"github.com/fooder/backend/pkg/response"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// RouterDeps are the handlers and settings the router mounts.
type RouterDeps struct {
	Logger      *zap.Logger
	CORSOrigins string
	HookSecret  string
	Resolver    *auth.Resolver
	Users       *users.Handler
	Menu        *menu.Handler
	Schedules   *schedules.Handler
	Checks      map[string]HealthCheck
}

// NewRouter builds the gin engine with every route of the service.
func NewRouter(d RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(d.Logger))
	router.Use(middleware.CORS(d.CORSOrigins))
	router.Use(middleware.Logger(d.Logger))

	router.GET("/health", health(d.Checks))

	// Identity provider callbacks (shared secret, no bearer token)
	hooks := router.Group("/hooks", middleware.RequireHookSecret(d.HookSecret))
	hooks.POST("/identity/confirmed", d.Users.IdentityConfirmed)

	api := router.Group("", middleware.Authenticate(d.Resolver, d.Logger))
	api.GET("/me", d.Users.Me)
	d.Menu.Register(api)
	d.Schedules.Register(api)

	router.NoRoute(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusNotFound, response.ErrorBody{
			Error: response.ErrorDetail{Code: "NOT_FOUND", Message: "Route not found"},
		})
	})
	return router
}

func health(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{}
		healthy := true
		for name, check := range checks {
			if err := check(c.Request.Context()); err != nil {
				status[name] = "down"
				healthy = false
				continue
			}
			status[name] = "ok"
		}
		if !healthy {
			c.JSON(http.StatusServiceUnavailable, response.Body{Data: gin.H{"status": "degraded", "checks": status}})
			return
		}
		response.OK(c, gin.H{"status": "ok", "checks": status})
	}
}
