package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-ddd-identity/internal/interface/http"
	"github.com/oksasatya/go-ddd-identity/internal/interface/middleware"
)

// ProfileModule serves the signed-in user's own account.
// Protected: GET /api/profile, PUT /api/profile, POST /api/profile/avatar,
// PUT /api/profile/password
type ProfileModule struct {
	Handler     *handlers.UserHandler
	RequireAuth gin.HandlerFunc
	Limiter     *middleware.Limiter
}

func NewProfileModule(h *handlers.UserHandler, requireAuth gin.HandlerFunc, limiter *middleware.Limiter) *ProfileModule {
	return &ProfileModule{Handler: h, RequireAuth: requireAuth, Limiter: limiter}
}

func (m *ProfileModule) Register(rg *gin.RouterGroup) {
	profile := rg.Group("/profile", m.RequireAuth,
		m.Limiter.Limit(120, time.Minute, middleware.KeyByUserID(), nil),
	)
	profile.GET("", m.Handler.GetProfile)
	profile.PUT("", m.Handler.UpdateProfile)
	profile.POST("/avatar", m.Limiter.Limit(10, time.Minute, middleware.KeyByUserID(), nil), m.Handler.UploadAvatar)
	profile.PUT("/password", m.Limiter.Limit(5, time.Minute, middleware.KeyByUserID(), nil), m.Handler.ChangePassword)
}
