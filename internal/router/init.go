package router

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-ddd-identity/internal/container"
	handlers "github.com/oksasatya/go-ddd-identity/internal/interface/http"
	"github.com/oksasatya/go-ddd-identity/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-identity/internal/router/modules"
	"github.com/oksasatya/go-ddd-identity/pkg/helpers"
)

// InitModules wires every feature module from the container. It is called
// once during startup.
func InitModules(r *Registry, c *container.Container) {
	cfg := c.Config
	requireAuth := middleware.Auth(c.Tokens, c.Sessions)
	limiter := middleware.NewLimiter(nil, c.Logger)
	if c.Redis != nil {
		limiter = middleware.NewLimiter(c.Redis, c.Logger)
	}
	cookies := helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure)

	r.Add(
		modules.NewAuthModule(handlers.NewAuthHandler(c.Service, c.Logger, cookies), requireAuth, limiter),
		modules.NewProfileModule(handlers.NewUserHandler(c.Service, c.Logger), requireAuth, limiter),
		modules.NewAdminModule(handlers.NewAdminHandler(c.Service), requireAuth, limiter),
		modules.NewHealthModule(handlers.NewHealthHandler(healthChecks(c))),
	)

	if cfg.MetricsEnabled {
		r.Engine.GET("/metrics", gin.WrapH(c.Metrics.Handler()))
	}
}

func healthChecks(c *container.Container) map[string]handlers.Check {
	checks := map[string]handlers.Check{}
	if c.Pool != nil {
		checks["postgres"] = c.Pool.Ping
	}
	if c.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return c.Redis.Ping(ctx).Err() }
	}
	if c.ES != nil {
		checks["elasticsearch"] = func(ctx context.Context) error { return helpers.PingES(ctx, c.ES) }
	}
	return checks
}
