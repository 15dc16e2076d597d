package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-ddd-identity/internal/interface/http"
	"github.com/oksasatya/go-ddd-identity/internal/interface/middleware"
)

type AuthModule struct {
	Handler     *handlers.AuthHandler
	RequireAuth gin.HandlerFunc
	Limiter     *middleware.Limiter
}

func NewAuthModule(h *handlers.AuthHandler, requireAuth gin.HandlerFunc, limiter *middleware.Limiter) *AuthModule {
	return &AuthModule{Handler: h, RequireAuth: requireAuth, Limiter: limiter}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Public endpoints with IP-based rate limits
	signInLimiter := m.Limiter.Limit(10, time.Minute, middleware.KeyByIPAndPath(), nil)
	refreshLimiter := m.Limiter.Limit(60, time.Minute, middleware.KeyByIP(), nil)
	verifyConfirmLimiter := m.Limiter.Limit(30, time.Minute, middleware.KeyByIPAndPath(), nil)

	auth := rg.Group("/auth")
	auth.POST("/register", signInLimiter, m.Handler.Register)
	auth.POST("/login", signInLimiter, m.Handler.Login)
	auth.POST("/google", signInLimiter, m.Handler.Google)
	auth.GET("/google/url", m.Handler.GoogleURL)
	auth.POST("/refresh", refreshLimiter, m.Handler.Refresh)
	auth.POST("/verify/confirm", verifyConfirmLimiter, m.Handler.VerifyConfirm)

	// Protected, verify init limited per user
	protected := auth.Group("/", m.RequireAuth)
	protected.POST("/logout", m.Handler.Logout)
	protected.POST("/verify/init", m.Limiter.Limit(5, time.Minute, middleware.KeyByUserID(), nil), m.Handler.VerifyInit)
}
