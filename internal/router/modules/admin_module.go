package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-ddd-identity/internal/interface/http"
	"github.com/oksasatya/go-ddd-identity/internal/interface/middleware"
)

type AdminModule struct {
	Handler     *handlers.AdminHandler
	RequireAuth gin.HandlerFunc
	Limiter     *middleware.Limiter
}

func NewAdminModule(h *handlers.AdminHandler, requireAuth gin.HandlerFunc, limiter *middleware.Limiter) *AdminModule {
	return &AdminModule{Handler: h, RequireAuth: requireAuth, Limiter: limiter}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/admin/users", m.RequireAuth,
		m.Limiter.Limit(120, time.Minute, middleware.KeyByUserID(), nil),
	)
	users.GET("", m.Handler.ListUsers)
	users.GET("/search", m.Handler.SearchUsers)
	users.POST("/:id/activate", m.Handler.Activate)
	users.POST("/:id/suspend", m.Handler.Suspend)
	users.POST("/:id/deactivate", m.Handler.Deactivate)
	users.PUT("/:id/role", m.Handler.ChangeRole)
	users.DELETE("/:id", m.Handler.Delete)
}
