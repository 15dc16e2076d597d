package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-ddd-identity/internal/application"
	"github.com/oksasatya/go-ddd-identity/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-identity/pkg/helpers"
	"github.com/oksasatya/go-ddd-identity/pkg/response"
	"github.com/oksasatya/go-ddd-identity/pkg/validation"
)

func currentUser(c *gin.Context) string {
	return c.GetString(middleware.CtxUserID)
}

// bindJSON binds and validates the body, writing a 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Invalid(c, validation.ToDetails(err))
		return false
	}
	return true
}

// signIn sets the token cookies and returns the result body.
func signIn(c *gin.Context, cookies *helpers.Manager, refreshTTL time.Duration, res *application.AuthResult, status int, message string) {
	now := time.Now()
	cookies.SetPair(c,
		res.AccessToken, now.Add(time.Duration(res.ExpiresIn)*time.Second),
		res.RefreshToken, now.Add(refreshTTL),
	)
	response.OK(c, status, res, message)
}
